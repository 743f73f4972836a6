// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes the Telegram
// credentials, the check schedule, storefront proxy settings, the ops HTTP
// server, logging, rate limiting, and observability.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// CORSConfig defines Cross-Origin Resource Sharing settings for the ops API.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "versewatch")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// ProxyConfig holds the storefront access routes. The listing and auth
// endpoints go through the general proxy; the cart availability probe only
// works from an Indian egress, so it has its own route (or direct access
// when the process itself runs in India).
type ProxyConfig struct {
	URL            string // PROXY_URL, e.g. "http://gw.example:8080"
	DomesticURL    string // DOMESTIC_PROXY_URL, Indian egress for the cart probe
	DomesticDirect bool   // DOMESTIC_DIRECT, true when running inside India
	Username       string // PROXY_USERNAME
	Password       string // PROXY_PASSWORD
}

// Config holds all configuration values for the application.
type Config struct {
	// Telegram
	BotToken        string  // TELEGRAM_BOT_TOKEN (required)
	AuthorizedUsers []int64 // AUTHORIZED_USERS, CSV of chat IDs (required)

	// Schedule
	CheckInterval  time.Duration // between all-user sweeps
	InitialDelay   time.Duration // before the first sweep
	CacheFreshness time.Duration // suppress delivery re-checks within this window
	MaxSeen        int           // per-user seen-set bound
	NotifyDelay    time.Duration // pacing between outbound messages

	// Storefront
	StorefrontURL string // STOREFRONT_URL, base URL of the catalog site
	Proxy         ProxyConfig

	// Ops HTTP server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 20s
	IdleTimeout       time.Duration // e.g. 60s
	MaxHeaderBytes    int           // bytes
	GinMode           string        // debug|release|test
	APIBasePath       string        // base path for API routes

	// Logging
	LogLevel  string // debug|info|warn|error|fatal|panic
	LogPretty bool   // pretty console logs in dev

	// App
	DBPath string // SQLite path

	// Rate limiting (ops API)
	RateRPS   float64 // tokens per second (>= 0)
	RateBurst int     // bucket size (>= 1)

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Observability
	OTEL OTELConfig
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		// Telegram
		BotToken:        strings.TrimSpace(getenv("TELEGRAM_BOT_TOKEN", "")),
		AuthorizedUsers: splitIDs(getenv("AUTHORIZED_USERS", "")),

		// Schedule
		CheckInterval:  getdur("CHECK_INTERVAL", 30*time.Minute),
		InitialDelay:   getdur("INITIAL_DELAY", 30*time.Second),
		CacheFreshness: getdur("CACHE_FRESHNESS", 30*time.Minute),
		MaxSeen:        getint("MAX_SEEN_PRODUCTS", 500),
		NotifyDelay:    getdur("NOTIFY_DELAY", 300*time.Millisecond),

		// Storefront
		StorefrontURL: getenv("STOREFRONT_URL", "https://www.sheinindia.in"),
		Proxy: ProxyConfig{
			URL:            getenv("PROXY_URL", ""),
			DomesticURL:    getenv("DOMESTIC_PROXY_URL", ""),
			DomesticDirect: getbool("DOMESTIC_DIRECT", false),
			Username:       getenv("PROXY_USERNAME", ""),
			Password:       getenv("PROXY_PASSWORD", ""),
		},

		// Ops HTTP server
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 20*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),
		APIBasePath:       normalizeBasePath(getenv("API_BASE_PATH", "/api/v1")),

		// Logging
		LogLevel:  strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty: getbool("LOG_PRETTY", false),

		// App
		DBPath: getenv("DB_PATH", "versewatch.db"),

		// Rate limiting
		RateRPS:   getfloat("RATE_RPS", 5.0),
		RateBurst: getint("RATE_BURST", 10),

		// Web protection
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "versewatch"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}

	// --- validation ---
	if cfg.BotToken == "" {
		return cfg, errors.New("TELEGRAM_BOT_TOKEN must not be empty")
	}
	if len(cfg.AuthorizedUsers) == 0 {
		return cfg, errors.New("AUTHORIZED_USERS must list at least one chat ID")
	}
	if cfg.CheckInterval <= 0 {
		return cfg, errors.New("CHECK_INTERVAL must be a positive duration")
	}
	if cfg.InitialDelay < 0 {
		return cfg, errors.New("INITIAL_DELAY must be >= 0")
	}
	if cfg.CacheFreshness < 0 {
		return cfg, errors.New("CACHE_FRESHNESS must be >= 0")
	}
	if cfg.MaxSeen < 1 {
		return cfg, errors.New("MAX_SEEN_PRODUCTS must be >= 1")
	}
	if cfg.NotifyDelay < 0 {
		return cfg, errors.New("NOTIFY_DELAY must be >= 0")
	}
	if strings.TrimSpace(cfg.StorefrontURL) == "" {
		return cfg, errors.New("STOREFRONT_URL must not be empty")
	}
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return cfg, errors.New("MAX_HEADER_BYTES must be > 0")
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		return cfg, errors.New("DB_PATH must not be empty")
	}
	if cfg.RateRPS < 0 {
		return cfg, errors.New("RATE_RPS must be >= 0")
	}
	if cfg.RateBurst < 1 {
		return cfg, errors.New("RATE_BURST must be >= 1")
	}
	if cfg.Security.HSTSMaxAge < 0 {
		return cfg, errors.New("HSTS_MAX_AGE must be >= 0")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}

	return cfg, nil
}

// ---- helpers (no external deps) ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// splitIDs parses a CSV of int64 chat IDs, skipping malformed entries.
func splitIDs(s string) []int64 {
	var out []int64
	for _, p := range splitCSV(s) {
		if id, err := strconv.ParseInt(p, 10, 64); err == nil {
			out = append(out, id)
		}
	}
	return out
}

// normalizeBasePath ensures leading '/' and strips trailing '/' (except root).
func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimRight(p, "/")
	}
	return p
}
