package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Notifier transports selectable via NOTIFIER_TRANSPORT.
const (
	TransportLambda = "lambda"
	TransportKafka  = "kafka"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	PostgresDSN string

	// Upstream alert feed configuration.
	AlertFeedURL     string
	AlertFeedTimeout time.Duration
	AlertCacheTTL    time.Duration

	// Correlation sweep loop. A zero interval disables the loop; batches are
	// then processed only through the HTTP trigger.
	SweepInterval   time.Duration
	ResolveWorkers  int
	DispatchWorkers int

	// Notification executor configuration.
	NotifierTransport string
	LambdaFunction    string
	AWSRegion         string
	KafkaBrokers      []string
	KafkaTopic        string
}

// Load reads configuration from environment variables, applying defaults
// where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := envDuration("SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	feedTimeout, err := envDuration("ALERT_FEED_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	cacheTTL, err := envDuration("ALERT_CACHE_TTL", time.Hour)
	if err != nil {
		return nil, err
	}
	sweepInterval, err := envDurationAllowZero("SWEEP_INTERVAL", 15*time.Minute)
	if err != nil {
		return nil, err
	}
	resolveWorkers, err := envInt("RESOLVE_WORKERS", 4)
	if err != nil {
		return nil, err
	}
	dispatchWorkers, err := envInt("DISPATCH_WORKERS", 8)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		PostgresDSN: os.Getenv("POSTGRES_DSN"),

		AlertFeedURL:     os.Getenv("ALERT_FEED_URL"),
		AlertFeedTimeout: feedTimeout,
		AlertCacheTTL:    cacheTTL,

		SweepInterval:   sweepInterval,
		ResolveWorkers:  resolveWorkers,
		DispatchWorkers: dispatchWorkers,

		NotifierTransport: envOrDefault("NOTIFIER_TRANSPORT", TransportLambda),
		LambdaFunction:    os.Getenv("LAMBDA_FUNCTION"),
		AWSRegion:         envOrDefault("AWS_REGION", "us-east-1"),
		KafkaBrokers:      splitList(envOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaTopic:        envOrDefault("KAFKA_TOPIC", "parcel-notifications"),
	}

	if cfg.PostgresDSN == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}
	if cfg.AlertFeedURL == "" {
		return nil, errors.New("ALERT_FEED_URL is required")
	}

	switch cfg.NotifierTransport {
	case TransportLambda:
		if cfg.LambdaFunction == "" {
			return nil, errors.New("LAMBDA_FUNCTION is required when NOTIFIER_TRANSPORT is lambda")
		}
	case TransportKafka:
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_BROKERS is required when NOTIFIER_TRANSPORT is kafka")
		}
		if cfg.KafkaTopic == "" {
			return nil, errors.New("KAFKA_TOPIC is required when NOTIFIER_TRANSPORT is kafka")
		}
	default:
		return nil, fmt.Errorf("invalid NOTIFIER_TRANSPORT %q (want %q or %q)",
			cfg.NotifierTransport, TransportLambda, TransportKafka)
	}

	return cfg, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envDuration(key string, def time.Duration) (time.Duration, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return d, nil
}

func envDurationAllowZero(key string, def time.Duration) (time.Duration, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return d, nil
}

func envInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return n, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
