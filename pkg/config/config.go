// Package config loads service configuration from environment variables.
// A .env file, when present, is loaded by the entry point before Load runs.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Splitter strategy names accepted by SPLIT_STRATEGY.
const (
	SplitCharacter = "character"
	SplitRecursive = "recursive"
)

// Config is the root service configuration.
type Config struct {
	ListenAddr string

	// Provider models. The chat model is only a default; requests may
	// override it per call.
	ChatModel      string
	EmbeddingModel string

	// Chunking policy applied to uploaded documents.
	ChunkSize     int
	ChunkOverlap  int
	SplitStrategy string

	// Retrieval.
	TopK int

	// Upper bounds on provider round trips.
	EmbedTimeout    time.Duration
	GenerateTimeout time.Duration

	ShutdownTimeout time.Duration

	AllowedOrigins []string

	LogLevel string
	LogJSON  bool
}

// Load reads configuration from the environment, applying defaults for
// anything unset.
func Load() (*Config, error) {
	cfg := &Config{
		ListenAddr:      getEnv("LISTEN_ADDR", ":8000"),
		ChatModel:       getEnv("CHAT_MODEL", "gpt-4.1-mini"),
		EmbeddingModel:  getEnv("EMBEDDING_MODEL", "text-embedding-3-small"),
		SplitStrategy:   getEnv("SPLIT_STRATEGY", SplitCharacter),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LogJSON:         getBool("LOG_JSON", false),
		AllowedOrigins:  getList("ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		ShutdownTimeout: 10 * time.Second,
	}

	var err error
	if cfg.ChunkSize, err = getInt("CHUNK_SIZE", 1000); err != nil {
		return nil, err
	}
	if cfg.ChunkOverlap, err = getInt("CHUNK_OVERLAP", 200); err != nil {
		return nil, err
	}
	if cfg.TopK, err = getInt("RETRIEVAL_TOP_K", 3); err != nil {
		return nil, err
	}
	if cfg.EmbedTimeout, err = getDuration("EMBED_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.GenerateTimeout, err = getDuration("GENERATE_TIMEOUT", 120*time.Second); err != nil {
		return nil, err
	}

	if cfg.ChunkSize <= 0 {
		return nil, fmt.Errorf("config: CHUNK_SIZE must be positive, got %d", cfg.ChunkSize)
	}
	if cfg.ChunkOverlap < 0 || cfg.ChunkOverlap >= cfg.ChunkSize {
		return nil, fmt.Errorf("config: CHUNK_OVERLAP %d must be in [0, CHUNK_SIZE)", cfg.ChunkOverlap)
	}
	if cfg.TopK < 1 {
		return nil, fmt.Errorf("config: RETRIEVAL_TOP_K must be at least 1, got %d", cfg.TopK)
	}
	if cfg.SplitStrategy != SplitCharacter && cfg.SplitStrategy != SplitRecursive {
		return nil, fmt.Errorf("config: unknown SPLIT_STRATEGY %q", cfg.SplitStrategy)
	}
	if cfg.EmbedTimeout < 0 {
		return nil, fmt.Errorf("config: EMBED_TIMEOUT must not be negative, got %s", cfg.EmbedTimeout)
	}
	if cfg.GenerateTimeout < 0 {
		return nil, fmt.Errorf("config: GENERATE_TIMEOUT must not be negative, got %s", cfg.GenerateTimeout)
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return n, nil
}

func getBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return d, nil
}

func getList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
