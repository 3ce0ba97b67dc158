package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/go-playground/validator/v10"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string `validate:"required"`
	LogLevel        string `validate:"oneof=debug info warn warning error"`
	LogFormat       string `validate:"oneof=json text"`
	ShutdownTimeout time.Duration

	// MineGuard backend serving weather, sensor and prediction data.
	BackendURL       string        `validate:"required,url"`
	BackendTimeout   time.Duration `validate:"gt=0"`
	BackendRateLimit float64       `validate:"gt=0"` // requests per second
	BackendBurst     int           `validate:"gte=1"`

	PollInterval  time.Duration `validate:"gte=1s"`
	ChartCapacity int           `validate:"gte=1,lte=1000"`
	AlertDuration time.Duration `validate:"gt=0"`
	AlertFade     time.Duration `validate:"gte=0"`

	// Assessment event publishing.
	KafkaEnabled bool
	KafkaBrokers []string `validate:"required_if=KafkaEnabled true"`
	KafkaTopic   string   `validate:"required_if=KafkaEnabled true"`

	// Mapbox site labelling.
	MapboxToken     string
	MapboxEnabled   bool
	MapboxTimeout   time.Duration `validate:"gt=0"`
	MapboxCacheSize int           `validate:"gt=0"`
}

var validate = validator.New()

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	backendTimeout, err := parseDuration("BACKEND_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}
	pollInterval, err := parseDuration("POLL_INTERVAL", "5s")
	if err != nil {
		return nil, err
	}
	alertDuration, err := parseDuration("ALERT_DURATION", "4500ms")
	if err != nil {
		return nil, err
	}
	alertFade, err := parseDuration("ALERT_FADE", "500ms")
	if err != nil {
		return nil, err
	}
	mapboxTimeout, err := parseDuration("MAPBOX_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}

	rateLimit, err := strconv.ParseFloat(sharedcfg.EnvOrDefault("BACKEND_RATE_LIMIT", "4"), 64)
	if err != nil {
		return nil, errors.New("invalid BACKEND_RATE_LIMIT")
	}
	burst, err := parseInt("BACKEND_BURST", 8)
	if err != nil {
		return nil, err
	}
	chartCapacity, err := parseInt("CHART_CAPACITY", 20)
	if err != nil {
		return nil, err
	}
	mapboxCacheSize, err := parseInt("MAPBOX_CACHE_SIZE", 1000)
	if err != nil {
		return nil, err
	}

	mapboxToken := os.Getenv("MAPBOX_TOKEN")
	mapboxEnabled := mapboxToken != ""
	if v := os.Getenv("MAPBOX_ENABLED"); v != "" {
		mapboxEnabled = v == "true"
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        strings.ToLower(sharedcfg.EnvOrDefault("LOG_LEVEL", "info")),
		LogFormat:       strings.ToLower(sharedcfg.EnvOrDefault("LOG_FORMAT", "json")),
		ShutdownTimeout: shutdownTimeout,

		BackendURL:       strings.TrimRight(sharedcfg.EnvOrDefault("BACKEND_URL", "http://localhost:8000"), "/"),
		BackendTimeout:   backendTimeout,
		BackendRateLimit: rateLimit,
		BackendBurst:     burst,

		PollInterval:  pollInterval,
		ChartCapacity: chartCapacity,
		AlertDuration: alertDuration,
		AlertFade:     alertFade,

		KafkaEnabled: os.Getenv("KAFKA_ENABLED") == "true",
		KafkaBrokers: sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaTopic:   sharedcfg.EnvOrDefault("KAFKA_TOPIC", "rockfall-assessments"),

		MapboxToken:     mapboxToken,
		MapboxEnabled:   mapboxEnabled,
		MapboxTimeout:   mapboxTimeout,
		MapboxCacheSize: mapboxCacheSize,
	}

	if cfg.MapboxEnabled && cfg.MapboxToken == "" {
		return nil, errors.New("MAPBOX_ENABLED is true but MAPBOX_TOKEN is not set")
	}
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func parseDuration(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, fallback))
	if err != nil || d < 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseInt(key string, fallback int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return n, nil
}
