package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config aggregates every setting the service reads from the environment.
type Config struct {
	Server   ServerConfig
	AWS      AWSConfig
	Sessions SessionConfig
	Log      LogConfig
}

// Load reads the full configuration from environment variables.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	sessions, err := loadSessionConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:   server,
		AWS:      loadAWSConfig(),
		Sessions: sessions,
		Log:      loadLogConfig(),
	}, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr string
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// Accept ":8080" or "127.0.0.1:8080" as-is.
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// AWSConfig describes the Chime provider endpoints. Region is the control
// plane region, MediaRegion where meetings are hosted, TranscribeRegion
// where transcription runs.
type AWSConfig struct {
	Region           string
	MediaRegion      string
	TranscribeRegion string
}

func loadAWSConfig() AWSConfig {
	region := getEnvOrDefault("AWS_REGION", "us-east-1")
	return AWSConfig{
		Region:           region,
		MediaRegion:      getEnvOrDefault("CHIME_MEDIA_REGION", region),
		TranscribeRegion: getEnvOrDefault("CHIME_TRANSCRIBE_REGION", region),
	}
}

// SessionConfig describes session lifecycle timing. TTL is the single source
// of truth the reaper compares against.
type SessionConfig struct {
	TTL          time.Duration
	ReapInterval time.Duration
}

func loadSessionConfig() (SessionConfig, error) {
	ttlMinutes := 60
	if override, err := parseOptionalIntEnv("SESSION_TTL_MINUTES"); err != nil {
		return SessionConfig{}, err
	} else if override != nil {
		if *override < 1 {
			return SessionConfig{}, fmt.Errorf("SESSION_TTL_MINUTES must be at least 1, got %d", *override)
		}
		ttlMinutes = *override
	}

	reapMinutes := 15
	if override, err := parseOptionalIntEnv("SESSION_REAP_INTERVAL_MINUTES"); err != nil {
		return SessionConfig{}, err
	} else if override != nil {
		if *override < 1 {
			return SessionConfig{}, fmt.Errorf("SESSION_REAP_INTERVAL_MINUTES must be at least 1, got %d", *override)
		}
		reapMinutes = *override
	}

	return SessionConfig{
		TTL:          time.Duration(ttlMinutes) * time.Minute,
		ReapInterval: time.Duration(reapMinutes) * time.Minute,
	}, nil
}

// LogConfig describes logger construction.
type LogConfig struct {
	Level       string
	Environment string
}

func loadLogConfig() LogConfig {
	return LogConfig{
		Level:       getEnvOrDefault("LOG_LEVEL", "info"),
		Environment: getEnvOrDefault("APP_ENV", "dev"),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
