// Package config gathers runtime settings from the environment and an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/abhisek/skillforge/internal/generation"
	"github.com/abhisek/skillforge/internal/llm"
	"github.com/abhisek/skillforge/internal/store"
)

type Config struct {
	DBPath  string
	LogMode string
	// User labels ledger events.
	User string

	// RedisURL enables the Redis leaderboard when set.
	RedisURL string
	// KafkaBrokers enables reward event publishing when set.
	KafkaBrokers []string
	RewardTopic  string

	GenerationTimeout time.Duration

	OTelStdout   bool
	OTLPEndpoint string

	LLM llm.Config
}

// Load reads the given .env files (".env" when none are named) and then
// the environment. Missing files are ignored; variables already set in
// the environment win.
func Load(files ...string) (Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load env file: %w", err)
	}
	return FromEnv()
}

// FromEnv reads SKILLFORGE_* variables.
func FromEnv() (Config, error) {
	dbPath, err := store.DefaultDBPath()
	if err != nil {
		return Config{}, err
	}
	cfg := Config{
		DBPath:            dbPath,
		LogMode:           getEnv("SKILLFORGE_LOG_MODE", "quiet"),
		User:              getEnv("SKILLFORGE_USER", defaultUser()),
		RedisURL:          os.Getenv("SKILLFORGE_REDIS_URL"),
		RewardTopic:       getEnv("SKILLFORGE_REWARD_TOPIC", "skillforge.rewards"),
		GenerationTimeout: generation.DefaultTimeout,
		OTLPEndpoint:      os.Getenv("SKILLFORGE_OTLP_ENDPOINT"),
		LLM:               llm.ConfigFromEnv(),
	}
	if v := os.Getenv("SKILLFORGE_KAFKA_BROKERS"); v != "" {
		for _, b := range strings.Split(v, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
			}
		}
	}
	if v := os.Getenv("SKILLFORGE_GENERATION_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return Config{}, fmt.Errorf("SKILLFORGE_GENERATION_TIMEOUT: invalid duration %q", v)
		}
		cfg.GenerationTimeout = d
	}
	if v := os.Getenv("SKILLFORGE_OTEL_STDOUT"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("SKILLFORGE_OTEL_STDOUT: %w", err)
		}
		cfg.OTelStdout = b
	}
	return cfg, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func defaultUser() string {
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "anonymous"
}
