// File: internal/config/config.go
package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v9"
	"github.com/go-playground/validator/v10"
	"github.com/hashicorp/go-multierror"
	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort   string `env:"SERVER_PORT" envDefault:"8080"`
	Environment  string `env:"ENV"`
	JWTSecretKey string `env:"JWT_SECRET_KEY"`
	CachePath    string `env:"CACHE_PATH" envDefault:"lingochat.db"`

	// HTTP surface
	AllowedOrigins      []string      `env:"ALLOWED_ORIGINS" envSeparator:","`
	TokenTTL            time.Duration `env:"TOKEN_TTL" envDefault:"24h" validate:"gte=0"`
	SessionIdleTimeout  time.Duration `env:"SESSION_IDLE_TIMEOUT" envDefault:"30m" validate:"gte=0"`
	SessionReapInterval time.Duration `env:"SESSION_REAP_INTERVAL" envDefault:"5m" validate:"gte=0"`
	MaxUploadBytes      int64         `env:"MAX_UPLOAD_BYTES" envDefault:"10485760" validate:"gte=0"`

	// Remote chat backend
	BackendBaseURL   string        `env:"BACKEND_BASE_URL" validate:"required,url"`
	BackendTimeout   time.Duration `env:"BACKEND_TIMEOUT" envDefault:"30s" validate:"gt=0"`
	BackendAuthToken string        `env:"BACKEND_AUTH_TOKEN"`

	// OpenAI compatible endpoint used for identification, translation and speech
	AIAPIKey           string   `env:"AI_API_KEY"`
	AIBaseURL          string   `env:"AI_BASE_URL" validate:"omitempty,url"`
	LanguageIDModel    string   `env:"LANGUAGE_ID_MODEL" envDefault:"gpt-4o-mini"`
	TranslationModel   string   `env:"TRANSLATION_MODEL" envDefault:"gpt-4o-mini"`
	TranscriptionModel string   `env:"TRANSCRIPTION_MODEL" envDefault:"whisper-1"`
	SupportedLanguages []string `env:"SUPPORTED_LANGUAGES" envSeparator:"," envDefault:"af,ar,be,bg,bn,ca,cs,cy,da,de,el,en,eo,es,et,fa,fi,fr,ga,gl,gu,he,hi,hr,ht,hu,id,is,it,ja,ka,kn,ko,lt,lv,mk,mr,ms,mt,nl,no,pl,pt,ro,ru,sk,sl,sq,sv,sw,ta,te,th,tl,tr,uk,ur,vi,zh"`
	DefaultLanguage    string   `env:"DEFAULT_LANGUAGE" envDefault:"en" validate:"required,len=2"`

	// Speech input
	SpeechInputDir string `env:"SPEECH_INPUT_DIR" envDefault:"recordings"`

	// Location enrichment
	LocationPermission bool    `env:"LOCATION_PERMISSION" envDefault:"false"`
	Latitude           float64 `env:"LOCATION_LAT" validate:"gte=-90,lte=90"`
	Longitude          float64 `env:"LOCATION_LON" validate:"gte=-180,lte=180"`
	HasLocation        bool    `env:"LOCATION_FIXED" envDefault:"false"`
	GeocoderBaseURL    string  `env:"GEOCODER_BASE_URL" envDefault:"https://nominatim.openstreetmap.org" validate:"url"`
	GeocoderUserAgent  string  `env:"GEOCODER_USER_AGENT" envDefault:"lingochat/1.0"`

	// Per-step pipeline timeouts; zero disables the timeout for that step.
	IdentifyTimeout  time.Duration `env:"PIPELINE_IDENTIFY_TIMEOUT" envDefault:"0s"`
	ModelTimeout     time.Duration `env:"PIPELINE_MODEL_TIMEOUT" envDefault:"0s"`
	TranslateTimeout time.Duration `env:"PIPELINE_TRANSLATE_TIMEOUT" envDefault:"0s"`
	PersistTimeout   time.Duration `env:"PIPELINE_PERSIST_TIMEOUT" envDefault:"30s"`
}

// Load reads configuration from environment variables or .env file.
func Load() (*Config, error) {
	if !isProduction(os.Getenv("ENV")) {
		if err := godotenv.Load(); err != nil {
			log.Println("No .env file found; continuing with environment variables")
		}
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing env config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field constraints and, in production, required secrets.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if !isProduction(c.Environment) {
		return nil
	}

	var result *multierror.Error
	if c.JWTSecretKey == "" {
		result = multierror.Append(result, fmt.Errorf("JWT_SECRET_KEY is required"))
	}
	if c.AIAPIKey == "" {
		result = multierror.Append(result, fmt.Errorf("AI_API_KEY is required"))
	}
	return result.ErrorOrNil()
}

// IsProduction reports whether the service runs with production settings.
func (c *Config) IsProduction() bool {
	return isProduction(c.Environment)
}

func isProduction(env string) bool {
	return strings.ToLower(env) == "production"
}
