package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	KafkaBrokers     []string
	KafkaSourceTopic string
	KafkaSinkTopic   string
	KafkaGroupID     string
	HTTPAddr         string
	LogLevel         string
	LogFormat        string
	ShutdownTimeout  time.Duration

	BatchSize          int
	BatchFlushInterval time.Duration

	// Nearest-city matching configuration.
	CitiesPath     string
	CityLimit      int
	MatchWorkers   int
	MatchCacheSize int
	MatchIndex     string // "auto", "brute", or "kdtree"
}

// Load reads configuration from environment variables, applying defaults
// where unset. A .env file in the working directory is loaded first,
// best-effort, for local runs.
func Load() (*Config, error) {
	_ = godotenv.Load()

	shutdownTimeout, err := parseDurationEnv("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	flushInterval, err := parseDurationEnv("BATCH_FLUSH_INTERVAL", "500ms")
	if err != nil {
		return nil, err
	}

	batchSize, err := parsePositiveIntEnv("BATCH_SIZE", 50)
	if err != nil {
		return nil, err
	}

	cityLimit, err := parsePositiveIntEnv("CITY_LIMIT", 100)
	if err != nil {
		return nil, err
	}

	matchWorkers, err := parsePositiveIntEnv("MATCH_WORKERS", 1)
	if err != nil {
		return nil, err
	}

	matchCacheSize, err := parseNonNegativeIntEnv("MATCH_CACHE_SIZE", 1000)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		KafkaBrokers:       parseBrokers(envOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSourceTopic:   envOrDefault("KAFKA_SOURCE_TOPIC", "raw-storm-events"),
		KafkaSinkTopic:     envOrDefault("KAFKA_SINK_TOPIC", "geomatched-storm-events"),
		KafkaGroupID:       envOrDefault("KAFKA_GROUP_ID", "storm-data-geomatch"),
		HTTPAddr:           envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:           envOrDefault("LOG_LEVEL", "info"),
		LogFormat:          envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:    shutdownTimeout,
		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,

		CitiesPath:     envOrDefault("CITIES_PATH", "data/uscities.csv"),
		CityLimit:      cityLimit,
		MatchWorkers:   matchWorkers,
		MatchCacheSize: matchCacheSize,
		MatchIndex:     envOrDefault("MATCH_INDEX", "auto"),
	}

	if len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_BROKERS is required")
	}
	if cfg.KafkaSourceTopic == "" {
		return nil, errors.New("KAFKA_SOURCE_TOPIC is required")
	}
	if cfg.KafkaSinkTopic == "" {
		return nil, errors.New("KAFKA_SINK_TOPIC is required")
	}
	if cfg.CitiesPath == "" {
		return nil, errors.New("CITIES_PATH is required")
	}
	switch cfg.MatchIndex {
	case "auto", "brute", "kdtree":
	default:
		return nil, fmt.Errorf("invalid MATCH_INDEX %q: must be auto, brute, or kdtree", cfg.MatchIndex)
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// parseBrokers splits a comma-separated broker list, dropping empty entries.
func parseBrokers(s string) []string {
	parts := strings.Split(s, ",")
	brokers := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			brokers = append(brokers, p)
		}
	}
	return brokers
}

func parseDurationEnv(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(envOrDefault(key, fallback))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parsePositiveIntEnv(key string, fallback int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return n, nil
}

func parseNonNegativeIntEnv(key string, fallback int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return n, nil
}
