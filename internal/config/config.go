package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"steam-gamenight/internal/constants"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

type Config struct {
	SteamAPIKey string
	DBPath      string
	ServerPort  string
	LogLevel    string

	// DefaultThreshold is the ownership ratio applied when the request
	// does not carry one.
	DefaultThreshold float64

	// EnrichLimit caps how many ranked candidates are sent through the
	// per-game enrichment fan-out.
	EnrichLimit int

	// FetchPacing is the minimum spacing between outbound Steam calls.
	FetchPacing time.Duration

	AppCacheTTL time.Duration
}

func Load(logger zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug().Msg(".env file not found, using environment variables or defaults")
	}

	cfg := &Config{
		SteamAPIKey:      getEnv("STEAM_API_KEY", ""),
		DBPath:           getEnv("DB_PATH", "gamenight.db"),
		ServerPort:       getEnv("SERVER_PORT", "8080"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		DefaultThreshold: getEnvFloat("DEFAULT_THRESHOLD", constants.DefaultThreshold),
		EnrichLimit:      getEnvInt("ENRICH_LIMIT", constants.DefaultEnrichLimit),
		FetchPacing:      getEnvMillis("FETCH_PACING_MS", constants.DefaultFetchPacing),
		AppCacheTTL:      getEnvMillis("APP_CACHE_TTL_MS", constants.AppDetailsCacheTTL),
	}

	if cfg.SteamAPIKey == "" {
		return nil, fmt.Errorf("STEAM_API_KEY is required")
	}
	if cfg.DefaultThreshold < 0 || cfg.DefaultThreshold > 1 {
		return nil, fmt.Errorf("DEFAULT_THRESHOLD must be in [0,1], got %f", cfg.DefaultThreshold)
	}
	if cfg.EnrichLimit <= 0 {
		return nil, fmt.Errorf("ENRICH_LIMIT must be positive, got %d", cfg.EnrichLimit)
	}

	logger.Info().
		Str("db_path", cfg.DBPath).
		Str("server_port", cfg.ServerPort).
		Str("log_level", cfg.LogLevel).
		Float64("default_threshold", cfg.DefaultThreshold).
		Int("enrich_limit", cfg.EnrichLimit).
		Dur("fetch_pacing", cfg.FetchPacing).
		Dur("app_cache_ttl", cfg.AppCacheTTL).
		Msg("configuration loaded")

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvMillis(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return time.Duration(n) * time.Millisecond
		}
	}
	return fallback
}

var Module = fx.Provide(Load)
