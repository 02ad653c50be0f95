package location

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Warn(string, ...interface{})  {}

type geocoderFunc func(ctx context.Context, lat, lon float64) (string, error)

func (f geocoderFunc) Resolve(ctx context.Context, lat, lon float64) (string, error) {
	return f(ctx, lat, lon)
}

func TestResolveCityDegradesToUnknown(t *testing.T) {
	rome := &Coordinates{Lat: 41.9, Lon: 12.5}
	okGeocoder := geocoderFunc(func(context.Context, float64, float64) (string, error) { return "Lazio", nil })

	tests := []struct {
		name     string
		granted  bool
		position *Coordinates
		geocoder Geocoder
		want     string
	}{
		{"permission denied", false, rome, okGeocoder, "Unknown"},
		{"no location", true, nil, okGeocoder, "Unknown"},
		{"geocoder error", true, rome, geocoderFunc(func(context.Context, float64, float64) (string, error) {
			return "", errors.New("service not available")
		}), "Unknown"},
		{"geocoder no match", true, rome, geocoderFunc(func(context.Context, float64, float64) (string, error) {
			return "", nil
		}), "Unknown"},
		{"resolved", true, rome, okGeocoder, "Lazio"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewResolver(NewGrant(tt.granted), NewStaticLocator(tt.position), tt.geocoder, nopLogger{})
			assert.Equal(t, tt.want, r.ResolveCity(context.Background()))
		})
	}
}

func TestNominatimAddressFallbackOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/reverse", r.URL.Path)
		assert.Equal(t, "lingochat-test", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Query().Get("lat") {
		case "45.464200":
			_, _ = w.Write([]byte(`{"address":{"state":"Lombardia","city":"Milano","county":"Milano"}}`))
		case "10.000000":
			_, _ = w.Write([]byte(`{"address":{"town":"Smallville","county":"Big County"}}`))
		default:
			_, _ = w.Write([]byte(`{"error":"Unable to geocode"}`))
		}
	}))
	defer srv.Close()

	g := NewNominatimGeocoder(srv.URL, "lingochat-test", time.Second)

	city, err := g.Resolve(context.Background(), 45.4642, 9.19)
	require.NoError(t, err)
	assert.Equal(t, "Lombardia", city)

	city, err = g.Resolve(context.Background(), 10, 10)
	require.NoError(t, err)
	assert.Equal(t, "Smallville", city)

	city, err = g.Resolve(context.Background(), 0, 0)
	require.NoError(t, err)
	assert.Empty(t, city)
}

func TestNominatimServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewNominatimGeocoder(srv.URL, "ua", time.Second).Resolve(context.Background(), 1, 1)
	assert.Error(t, err)
}
