// Package location resolves a human readable city for message enrichment.
// Every failure degrades to domain.UnknownCity.
package location

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/iyunix/go-lingochat/internal/domain"
)

// ErrPermissionDenied is reported when the location permission is not granted.
var ErrPermissionDenied = errors.New("location permission denied")

// Coordinates is a latitude/longitude pair in degrees.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Permission gates access to the device location.
type Permission interface {
	Granted() bool
}

// Locator returns the last known device location, or nil when none is known.
type Locator interface {
	LastLocation(ctx context.Context) (*Coordinates, error)
}

// Geocoder maps coordinates to a city name, "" when nothing matches.
type Geocoder interface {
	Resolve(ctx context.Context, lat, lon float64) (string, error)
}

// Logger defines the logging interface used by location services
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	Debug(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
}

// Grant is a toggleable Permission.
type Grant struct {
	granted atomic.Bool
}

func NewGrant(granted bool) *Grant {
	g := &Grant{}
	g.granted.Store(granted)
	return g
}

func (g *Grant) Granted() bool   { return g.granted.Load() }
func (g *Grant) Set(granted bool) { g.granted.Store(granted) }

// StaticLocator reports a fixed position, or none.
type StaticLocator struct {
	position atomic.Pointer[Coordinates]
}

func NewStaticLocator(position *Coordinates) *StaticLocator {
	l := &StaticLocator{}
	l.Update(position)
	return l
}

// Update records the latest position reported by the client.
func (l *StaticLocator) Update(position *Coordinates) {
	if position == nil {
		l.position.Store(nil)
		return
	}
	p := *position
	l.position.Store(&p)
}

func (l *StaticLocator) LastLocation(ctx context.Context) (*Coordinates, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return l.position.Load(), nil
}

// Resolver combines permission, locator and geocoder.
type Resolver struct {
	permission Permission
	locator    Locator
	geocoder   Geocoder
	logger     Logger
}

func NewResolver(permission Permission, locator Locator, geocoder Geocoder, logger Logger) *Resolver {
	return &Resolver{permission: permission, locator: locator, geocoder: geocoder, logger: logger}
}

// ResolveCity never fails: denied permission, a missing position or a
// geocoder error all yield domain.UnknownCity.
func (r *Resolver) ResolveCity(ctx context.Context) string {
	city, err := r.lookup(ctx)
	if err != nil {
		r.logger.Warn("location unavailable", "error", err)
		return domain.UnknownCity
	}
	if city == "" {
		return domain.UnknownCity
	}
	return city
}

func (r *Resolver) lookup(ctx context.Context) (string, error) {
	if r.permission == nil || !r.permission.Granted() {
		return "", ErrPermissionDenied
	}

	position, err := r.locator.LastLocation(ctx)
	if err != nil {
		return "", err
	}
	if position == nil {
		r.logger.Debug("location is null")
		return "", nil
	}

	r.logger.Debug("resolving city", "lat", position.Lat, "lon", position.Lon)
	return r.geocoder.Resolve(ctx, position.Lat, position.Lon)
}
