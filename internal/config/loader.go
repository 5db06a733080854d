package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load decodes the TOML file at path over Defaults and applies KLINECHART_*
// environment overrides. An empty path skips the file. The result is not
// validated.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, fmt.Errorf("config: decode %s: %w", path, err)
		}
	}

	// .env is optional.
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)
	return &cfg, nil
}

// applyEnvOverrides lets operators inject secrets and per-deploy values
// without editing the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── Fetch ──
	setStr(&cfg.Fetch.Endpoint, "KLINECHART_FETCH_ENDPOINT")
	setStr(&cfg.Fetch.Symbol, "KLINECHART_FETCH_SYMBOL")
	setStr(&cfg.Fetch.Interval, "KLINECHART_FETCH_INTERVAL")
	setTime(&cfg.Fetch.Start, "KLINECHART_FETCH_START")
	setTime(&cfg.Fetch.End, "KLINECHART_FETCH_END")
	setDuration(&cfg.Fetch.Timeout, "KLINECHART_FETCH_TIMEOUT")
	setDuration(&cfg.Fetch.LockTTL, "KLINECHART_FETCH_LOCK_TTL")

	// ── Snapshot ──
	setStr(&cfg.Snapshot.Backend, "KLINECHART_SNAPSHOT_BACKEND")
	setStr(&cfg.Snapshot.Path, "KLINECHART_SNAPSHOT_PATH")
	setStr(&cfg.Snapshot.Key, "KLINECHART_SNAPSHOT_KEY")
	setInt64(&cfg.Snapshot.MultipartThreshold, "KLINECHART_SNAPSHOT_MULTIPART_THRESHOLD")

	// ── S3 ──
	setStr(&cfg.S3.Endpoint, "KLINECHART_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "KLINECHART_S3_REGION")
	setStr(&cfg.S3.Bucket, "KLINECHART_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "KLINECHART_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "KLINECHART_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "KLINECHART_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "KLINECHART_S3_FORCE_PATH_STYLE")

	// ── Redis ──
	setBool(&cfg.Redis.Enabled, "KLINECHART_REDIS_ENABLED")
	setStr(&cfg.Redis.Addr, "KLINECHART_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "KLINECHART_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "KLINECHART_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "KLINECHART_REDIS_POOL_SIZE")
	setBool(&cfg.Redis.TLSEnabled, "KLINECHART_REDIS_TLS_ENABLED")
	setStr(&cfg.Redis.KeyPrefix, "KLINECHART_REDIS_KEY_PREFIX")
	setDuration(&cfg.Redis.SeriesCacheTTL, "KLINECHART_REDIS_SERIES_CACHE_TTL")

	// ── Chart ──
	setStr(&cfg.Chart.Profile, "KLINECHART_CHART_PROFILE")
	setStr(&cfg.Chart.TimeFormat, "KLINECHART_CHART_TIME_FORMAT")
	setStr(&cfg.Chart.Location, "KLINECHART_CHART_LOCATION")
	setStr(&cfg.Chart.Bounds, "KLINECHART_CHART_BOUNDS")
	setStr(&cfg.Chart.Legend, "KLINECHART_CHART_LEGEND")
	setFloat64(&cfg.Chart.PriceMinMove, "KLINECHART_CHART_PRICE_MIN_MOVE")
	setInt(&cfg.Chart.PricePrecision, "KLINECHART_CHART_PRICE_PRECISION")

	// ── Render ──
	setStr(&cfg.Render.Output, "KLINECHART_RENDER_OUTPUT")
	setStr(&cfg.Render.Title, "KLINECHART_RENDER_TITLE")
	setStr(&cfg.Render.EngineURL, "KLINECHART_RENDER_ENGINE_URL")

	// ── Server ──
	setInt(&cfg.Server.Port, "KLINECHART_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "KLINECHART_SERVER_CORS_ORIGINS")
	setStr(&cfg.Server.APIKey, "KLINECHART_SERVER_API_KEY")
	setInt(&cfg.Server.RateLimit, "KLINECHART_SERVER_RATE_LIMIT")
	setDuration(&cfg.Server.RateWindow, "KLINECHART_SERVER_RATE_WINDOW")
	setBool(&cfg.Server.Compress, "KLINECHART_SERVER_COMPRESS")

	// ── Top-level ──
	setStr(&cfg.Mode, "KLINECHART_MODE")
	setStr(&cfg.LogLevel, "KLINECHART_LOG_LEVEL")
}

// Typed env helpers. Each mutates dst only when the variable is set and
// parses.

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setTime(dst *time.Time, key string) {
	if v := os.Getenv(key); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			*dst = t
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
