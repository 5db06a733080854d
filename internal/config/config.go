// Package config defines the klinechart configuration and its validation.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/alanyoungcy/klinechart/internal/chart"
	"github.com/alanyoungcy/klinechart/internal/platform/mexc"
)

// Config is the root configuration. Fields come from a TOML file and may be
// overridden by KLINECHART_* environment variables.
type Config struct {
	Fetch    FetchConfig    `toml:"fetch"`
	Snapshot SnapshotConfig `toml:"snapshot"`
	S3       S3Config       `toml:"s3"`
	Redis    RedisConfig    `toml:"redis"`
	Chart    ChartConfig    `toml:"chart"`
	Render   RenderConfig   `toml:"render"`
	Server   ServerConfig   `toml:"server"`
	Mode     string         `toml:"mode"`
	LogLevel string         `toml:"log_level"`
}

// FetchConfig describes the one kline request.
type FetchConfig struct {
	Endpoint string    `toml:"endpoint"`
	Symbol   string    `toml:"symbol"`
	Interval string    `toml:"interval"`
	Start    time.Time `toml:"start"`
	End      time.Time `toml:"end"`
	Timeout  duration  `toml:"timeout"`
	LockTTL  duration  `toml:"lock_ttl"`
}

// SnapshotConfig selects where the snapshot lives.
type SnapshotConfig struct {
	// Backend is "file" or "s3".
	Backend string `toml:"backend"`
	// Path is the file location for the file backend.
	Path string `toml:"path"`
	// Key is the object key for the s3 backend.
	Key                string `toml:"key"`
	MultipartThreshold int64  `toml:"multipart_threshold"`
}

// S3Config holds S3-compatible object storage parameters.
type S3Config struct {
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// RedisConfig holds Redis connection parameters. When disabled the fetch
// lock, rate limiting and series cache are off.
type RedisConfig struct {
	Enabled        bool     `toml:"enabled"`
	Addr           string   `toml:"addr"`
	Password       string   `toml:"password"`
	DB             int      `toml:"db"`
	PoolSize       int      `toml:"pool_size"`
	MaxRetries     int      `toml:"max_retries"`
	TLSEnabled     bool     `toml:"tls_enabled"`
	KeyPrefix      string   `toml:"key_prefix"`
	SeriesCacheTTL duration `toml:"series_cache_ttl"`
}

// ChartConfig overrides the chart preset picked by Profile.
type ChartConfig struct {
	Profile             string   `toml:"profile"`
	TimeFormat          string   `toml:"time_format"`
	Location            string   `toml:"location"`
	Bounds              string   `toml:"bounds"`
	Legend              string   `toml:"legend"`
	MarkerTimestamps    []int64  `toml:"marker_timestamps"`
	MarkerLabels        []string `toml:"marker_labels"`
	HighlightRadius     duration `toml:"highlight_radius"`
	VisibleRangePadding duration `toml:"visible_range_padding"`
	PricePrecision      int      `toml:"price_precision"`
	PriceMinMove        float64  `toml:"price_min_move"`

	// Tooltip is width, height and margin in pixels.
	Tooltip [3]float64 `toml:"tooltip"`
}

// RenderConfig controls the static page written by render mode.
type RenderConfig struct {
	Output    string `toml:"output"`
	Title     string `toml:"title"`
	EngineURL string `toml:"engine_url"`
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Port            int      `toml:"port"`
	CORSOrigins     []string `toml:"cors_origins"`
	APIKey          string   `toml:"api_key"`
	RateLimit       int      `toml:"rate_limit"`
	RateWindow      duration `toml:"rate_window"`
	Compress        bool     `toml:"compress"`
	ShutdownTimeout duration `toml:"shutdown_timeout"`
}

// duration wraps time.Duration so TOML strings like "30s" decode.
type duration struct {
	time.Duration
}

func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns the configuration for the THE_USDT incident chart.
func Defaults() Config {
	return Config{
		Fetch: FetchConfig{
			Endpoint: mexc.DefaultEndpoint,
			Symbol:   "THE_USDT",
			Interval: "Min1",
			Start:    time.Date(2025, 2, 12, 15, 0, 0, 0, time.UTC),
			End:      time.Date(2025, 2, 13, 7, 0, 0, 0, time.UTC),
			Timeout:  duration{30 * time.Second},
			LockTTL:  duration{2 * time.Minute},
		},
		Snapshot: SnapshotConfig{
			Backend: "file",
			Path:    "data.json",
			Key:     "klinechart/data.json",
		},
		S3: S3Config{
			Endpoint:       "http://localhost:9000",
			Region:         "us-east-1",
			Bucket:         "klinechart",
			ForcePathStyle: true,
		},
		Redis: RedisConfig{
			Enabled:        false,
			Addr:           "localhost:6379",
			PoolSize:       10,
			MaxRetries:     3,
			KeyPrefix:      "klinechart:",
			SeriesCacheTTL: duration{10 * time.Minute},
		},
		Chart: ChartConfig{
			Profile:             string(chart.ProfileDual),
			TimeFormat:          string(chart.TimeFormatUTC),
			Location:            "UTC",
			Bounds:              string(chart.BoundsClientRect),
			Legend:              "THE/USDT",
			MarkerTimestamps:    []int64{1739416500, 1739418660},
			MarkerLabels:        []string{"OPEN", "LIQUIDATION"},
			HighlightRadius:     duration{5 * time.Minute},
			VisibleRangePadding: duration{time.Hour},
			PricePrecision:      3,
			PriceMinMove:        0.001,
			Tooltip:             [3]float64{140, 98, 15},
		},
		Render: RenderConfig{
			Output: "index.html",
			Title:  "THE/USDT",
		},
		Server: ServerConfig{
			Port:            8080,
			RateLimit:       120,
			RateWindow:      duration{time.Minute},
			Compress:        true,
			ShutdownTimeout: duration{10 * time.Second},
		},
		Mode:     "serve",
		LogLevel: "info",
	}
}

var validModes = map[string]bool{
	"fetch":  true,
	"render": true,
	"serve":  true,
	"full":   true,
}

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Build turns the chart section into a chart.Config, starting from the
// profile preset.
func (c ChartConfig) Build() (chart.Config, error) {
	out := chart.DefaultConfig(chart.Profile(c.Profile))
	out.Profile = chart.Profile(c.Profile)
	out.TimeFormat = chart.TimeFormat(c.TimeFormat)
	out.Bounds = chart.Bounds(c.Bounds)
	out.Legend = c.Legend

	if c.Location != "" {
		loc, err := time.LoadLocation(c.Location)
		if err != nil {
			return chart.Config{}, fmt.Errorf("chart: location %q: %w", c.Location, err)
		}
		out.Location = loc
	}
	if len(c.MarkerTimestamps) != 2 || len(c.MarkerLabels) != 2 {
		return chart.Config{}, fmt.Errorf("chart: need exactly 2 marker timestamps and labels, got %d and %d",
			len(c.MarkerTimestamps), len(c.MarkerLabels))
	}
	copy(out.MarkerTimestamps[:], c.MarkerTimestamps)
	copy(out.MarkerLabels[:], c.MarkerLabels)

	out.HighlightRadiusSeconds = int64(c.HighlightRadius.Seconds())
	out.VisibleRangePaddingSeconds = int64(c.VisibleRangePadding.Seconds())
	out.PriceFormat = chart.PriceFormat{Precision: c.PricePrecision, MinMove: c.PriceMinMove}
	out.Tooltip = chart.TooltipSize{Width: c.Tooltip[0], Height: c.Tooltip[1], Margin: c.Tooltip[2]}

	if err := out.Validate(); err != nil {
		return chart.Config{}, err
	}
	return out, nil
}

// Validate checks Config and returns one error describing every problem.
func (c *Config) Validate() error {
	var errs []string

	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: fetch, render, serve, full)", c.Mode))
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Fetch
	if c.Mode == "fetch" || c.Mode == "full" {
		if c.Fetch.Endpoint == "" {
			errs = append(errs, "fetch: endpoint must not be empty")
		}
		if c.Fetch.Symbol == "" {
			errs = append(errs, "fetch: symbol must not be empty")
		}
		if c.Fetch.Interval == "" {
			errs = append(errs, "fetch: interval must not be empty")
		}
		if !c.Fetch.Start.Before(c.Fetch.End) {
			errs = append(errs, fmt.Sprintf("fetch: start %s must be before end %s",
				c.Fetch.Start.Format(time.RFC3339), c.Fetch.End.Format(time.RFC3339)))
		}
		if c.Fetch.Timeout.Duration <= 0 {
			errs = append(errs, "fetch: timeout must be > 0")
		}
	}

	// Snapshot
	switch c.Snapshot.Backend {
	case "file":
		if c.Snapshot.Path == "" {
			errs = append(errs, "snapshot: path must not be empty for the file backend")
		}
	case "s3":
		if c.Snapshot.Key == "" {
			errs = append(errs, "snapshot: key must not be empty for the s3 backend")
		}
		if c.S3.Bucket == "" {
			errs = append(errs, "s3: bucket must not be empty")
		}
		if c.S3.Region == "" {
			errs = append(errs, "s3: region must not be empty")
		}
	default:
		errs = append(errs, fmt.Sprintf("snapshot: unknown backend %q (valid: file, s3)", c.Snapshot.Backend))
	}

	// Redis
	if c.Redis.Enabled {
		if c.Redis.Addr == "" {
			errs = append(errs, "redis: addr must not be empty")
		}
		if c.Redis.PoolSize < 1 {
			errs = append(errs, "redis: pool_size must be >= 1")
		}
	}

	// Chart
	if _, err := c.Chart.Build(); err != nil {
		errs = append(errs, err.Error())
	}

	// Render
	if c.Mode == "render" && c.Render.Output == "" {
		errs = append(errs, "render: output must not be empty")
	}

	// Server
	if c.Mode == "serve" || c.Mode == "full" {
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
		}
		if c.Server.RateLimit < 0 {
			errs = append(errs, "server: rate_limit must be >= 0")
		}
		if c.Server.RateLimit > 0 && c.Server.RateWindow.Duration <= 0 {
			errs = append(errs, "server: rate_window must be > 0 when rate_limit is set")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
