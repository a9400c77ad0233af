// Package config handles application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds the application configuration.
type Config struct {
	DatabasePath        string
	RedisAddr           string
	LogLevel            string
	RulesIntervalHours  int
	RecommendationLimit int
	ScoreStalenessDays  int
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	dbPath := os.Getenv("DATABASE_PATH")
	if dbPath == "" {
		dbPath = "./data/elevaite.db"
	}

	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}

	rulesInterval, err := positiveIntEnv("RULES_INTERVAL_HOURS", 1)
	if err != nil {
		return nil, err
	}

	recLimit, err := positiveIntEnv("RECOMMENDATION_LIMIT", 10)
	if err != nil {
		return nil, err
	}

	staleness, err := positiveIntEnv("SCORE_STALENESS_DAYS", 7)
	if err != nil {
		return nil, err
	}

	return &Config{
		DatabasePath:        dbPath,
		RedisAddr:           redisAddr,
		LogLevel:            logLevel,
		RulesIntervalHours:  rulesInterval,
		RecommendationLimit: recLimit,
		ScoreStalenessDays:  staleness,
	}, nil
}

func positiveIntEnv(key string, def int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", key, raw)
	}
	return v, nil
}
