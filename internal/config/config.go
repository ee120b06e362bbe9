package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// DefaultOpenDataURL is the NYC Open Parking and Camera Violations dataset.
const DefaultOpenDataURL = "https://data.cityofnewyork.us/resource/nc67-uf89.json"

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Open data source configuration.
	OpenDataURL      string
	OpenDataAppToken string
	OpenDataTimeout  time.Duration

	// Session store configuration.
	SessionTTL           time.Duration
	SessionMax           int
	SessionSweepInterval time.Duration

	// Search event feed configuration.
	KafkaBrokers []string
	KafkaTopic   string
	KafkaEnabled bool
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	openDataTimeout, err := parsePositiveDuration("OPENDATA_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	sessionTTL, err := parsePositiveDuration("SESSION_TTL", "30m")
	if err != nil {
		return nil, err
	}

	sweepInterval, err := parsePositiveDuration("SESSION_SWEEP_INTERVAL", "1m")
	if err != nil {
		return nil, err
	}

	sessionMax, err := parseSessionMax()
	if err != nil {
		return nil, err
	}

	brokers := parseBrokers(os.Getenv("KAFKA_BROKERS"))
	kafkaEnabled := len(brokers) > 0
	if v := os.Getenv("KAFKA_ENABLED"); v != "" {
		kafkaEnabled = v == "true"
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		OpenDataURL:      sharedcfg.EnvOrDefault("OPENDATA_URL", DefaultOpenDataURL),
		OpenDataAppToken: os.Getenv("OPENDATA_APP_TOKEN"),
		OpenDataTimeout:  openDataTimeout,

		SessionTTL:           sessionTTL,
		SessionMax:           sessionMax,
		SessionSweepInterval: sweepInterval,

		KafkaBrokers: brokers,
		KafkaTopic:   sharedcfg.EnvOrDefault("KAFKA_TOPIC", "plate-lookup-searches"),
		KafkaEnabled: kafkaEnabled,
	}

	if !strings.HasPrefix(cfg.OpenDataURL, "http://") && !strings.HasPrefix(cfg.OpenDataURL, "https://") {
		return nil, errors.New("OPENDATA_URL must be an http or https URL")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is not set")
	}
	if cfg.KafkaEnabled && cfg.KafkaTopic == "" {
		return nil, errors.New("KAFKA_TOPIC is required when the search event feed is enabled")
	}

	return cfg, nil
}

func parsePositiveDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, errors.New("invalid " + key)
	}
	return d, nil
}

func parseSessionMax() (int, error) {
	s := os.Getenv("SESSION_MAX")
	if s == "" {
		return 10000, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, errors.New("invalid SESSION_MAX")
	}
	return n, nil
}

func parseBrokers(s string) []string {
	var out []string
	for _, b := range strings.Split(s, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}
