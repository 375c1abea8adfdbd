// Package config provides application configuration management with support for command-line flags, environment variables, .env files and an optional YAML file.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds the application configuration.
type Config struct {
	App        AppConfig        `yaml:"app"`
	Logger     LoggerConfig     `yaml:"logger"`
	Database   DatabaseConfig   `yaml:"database"`
	Analytics  AnalyticsConfig  `yaml:"analytics"`
	Server     ServerConfig     `yaml:"server"`
	Summarizer SummarizerConfig `yaml:"summarizer"`
	Cache      CacheConfig      `yaml:"cache"`
	RateLimit  RateLimitConfig  `yaml:"rate_limit"`
	Ingest     IngestConfig     `yaml:"ingest"`
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string `yaml:"environment"`
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json or pretty; empty picks by environment
}

// DatabaseConfig holds the restaurant store location.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// AnalyticsConfig holds the preference counter store.
type AnalyticsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Port         string        `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`
	CORSOrigins  []string      `yaml:"cors_origins"`
}

// SummarizerConfig holds LLM provider settings. An empty APIKey disables
// summaries.
type SummarizerConfig struct {
	APIKey      string        `yaml:"-"` // env only
	BaseURL     string        `yaml:"base_url"`
	Model       string        `yaml:"model"`
	Timeout     time.Duration `yaml:"timeout"`
	MaxTokens   int           `yaml:"max_tokens"`
	Temperature float64       `yaml:"temperature"`
	MaxRetries  int           `yaml:"max_retries"`
	// RPS throttles outbound calls; Burst is the bucket size.
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
	// BreakerFailures consecutive failures open the circuit.
	BreakerFailures int `yaml:"breaker_failures"`
}

// Enabled reports whether an API key is configured.
func (s SummarizerConfig) Enabled() bool {
	return strings.TrimSpace(s.APIKey) != ""
}

// CacheConfig sizes the recommendation cache.
type CacheConfig struct {
	Size int           `yaml:"size"`
	TTL  time.Duration `yaml:"ttl"`
}

// RateLimitConfig limits recommend requests per client IP.
type RateLimitConfig struct {
	Requests int           `yaml:"requests"`
	Window   time.Duration `yaml:"window"`
}

// IngestConfig holds pipeline defaults for cmd/ingest.
type IngestConfig struct {
	Source    string `yaml:"source"` // empty means the Hugging Face dataset
	MaxRows   int    `yaml:"max_rows"`
	Clear     bool   `yaml:"clear"`
	BatchSize int    `yaml:"batch_size"`
	// HFRPS throttles Hugging Face rows API calls.
	HFRPS float64 `yaml:"hf_rps"`
}

// Defaults returns the configuration used when nothing else is set.
func Defaults() *Config {
	return &Config{
		App:       AppConfig{Environment: "development"},
		Logger:    LoggerConfig{Level: "info"},
		Database:  DatabaseConfig{Path: "data/dinewise.db"},
		Analytics: AnalyticsConfig{Enabled: true, Path: "data/analytics"},
		Server: ServerConfig{
			Port:         "8080",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  60 * time.Second,
			CORSOrigins:  []string{"*"},
		},
		Summarizer: SummarizerConfig{
			BaseURL:         "https://api.groq.com/openai/v1",
			Model:           "llama-3.1-8b-instant",
			Timeout:         30 * time.Second,
			MaxTokens:       1024,
			Temperature:     0.3,
			MaxRetries:      2,
			RPS:             0.5,
			Burst:           2,
			BreakerFailures: 5,
		},
		Cache:     CacheConfig{Size: 100, TTL: 10 * time.Minute},
		RateLimit: RateLimitConfig{Requests: 60, Window: time.Minute},
		Ingest:    IngestConfig{BatchSize: 500, HFRPS: 5},
	}
}

// flags mirrors the command-line surface. Empty strings mean "not given".
type flags struct {
	configFile, envFile string

	env, logLevel, logFormat  string
	dbPath, analyticsPath     string
	port, corsOrigins         string
	readTimeout, writeTimeout string
	idleTimeout               string
	model, summarizerTimeout  string
	cacheSize, cacheTTL       string
	rateRequests, rateWindow  string
	source, maxRows           string
	batchSize                 string
	clear                     optionalBool
}

// optionalBool is a boolean flag that remembers whether it was given, so
// "--clear" works while an absent flag still defers to env and file.
type optionalBool struct {
	set, value bool
}

func (b *optionalBool) String() string {
	if !b.set {
		return ""
	}
	return strconv.FormatBool(b.value)
}

func (b *optionalBool) Set(s string) error {
	v, err := strconv.ParseBool(s)
	if err != nil {
		return err
	}
	b.set, b.value = true, v
	return nil
}

func (b *optionalBool) IsBoolFlag() bool { return true }

func newFlagSet(name string, f *flags) *flag.FlagSet {
	set := flag.NewFlagSet(name, flag.ContinueOnError)
	set.StringVar(&f.configFile, "config", "", "Path to YAML config file")
	set.StringVar(&f.envFile, "env-file", ".env", "Path to .env file")
	set.StringVar(&f.env, "env", "", "Environment (development, staging, production)")
	set.StringVar(&f.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	set.StringVar(&f.logFormat, "log-format", "", "Log format (json, pretty)")
	set.StringVar(&f.dbPath, "db-path", "", "Path to the restaurant SQLite database")
	set.StringVar(&f.analyticsPath, "analytics-path", "", "Directory for the analytics database")

	set.StringVar(&f.port, "port", "", "Server port (default: 8080)")
	set.StringVar(&f.readTimeout, "read-timeout", "", "HTTP read timeout (default: 15s)")
	set.StringVar(&f.writeTimeout, "write-timeout", "", "HTTP write timeout (default: 60s)")
	set.StringVar(&f.idleTimeout, "idle-timeout", "", "HTTP idle timeout (default: 60s)")
	set.StringVar(&f.corsOrigins, "cors-origins", "", "Comma-separated allowed CORS origins")

	set.StringVar(&f.model, "summarizer-model", "", "LLM model name")
	set.StringVar(&f.summarizerTimeout, "summarizer-timeout", "", "Summary deadline (default: 30s)")
	set.StringVar(&f.cacheSize, "cache-size", "", "Recommendation cache entries (default: 100)")
	set.StringVar(&f.cacheTTL, "cache-ttl", "", "Recommendation cache TTL (default: 10m)")
	set.StringVar(&f.rateRequests, "rate-limit-requests", "", "Recommend requests per window per IP (default: 60)")
	set.StringVar(&f.rateWindow, "rate-limit-window", "", "Rate limit window (default: 1m)")

	set.StringVar(&f.source, "source", "", "Dataset source: hf://owner/name, URL or file path")
	set.StringVar(&f.maxRows, "max-rows", "", "Read at most this many source rows (0 = all)")
	set.StringVar(&f.batchSize, "batch-size", "", "Rows per insert batch (default: 500)")
	set.Var(&f.clear, "clear", "Clear the store before loading")

	return set
}

// Load builds the configuration from args (without the program name) with
// precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. YAML config file (--config or CONFIG_FILE).
// 5. Default values (lowest priority).
func Load(name string, args []string) (*Config, error) {
	var f flags
	if err := newFlagSet(name, &f).Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	// godotenv never overrides variables that are already set.
	if err := godotenv.Load(f.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load env file %s: %w", f.envFile, err)
	}

	cfg := Defaults()
	if path := getConfigValue(f.configFile, "CONFIG_FILE", ""); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.overlay(&f); err != nil {
		return nil, err
	}

	if err := cfg.expandPaths(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path) //#nosec G304 -- config path is operator input
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

// overlay applies flags and environment over file and default values.
func (c *Config) overlay(f *flags) error {
	var errs []error
	collect := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	setString(&c.App.Environment, f.env, "ENV")
	setString(&c.Logger.Level, f.logLevel, "LOG_LEVEL")
	setString(&c.Logger.Format, f.logFormat, "LOG_FORMAT")
	setString(&c.Database.Path, f.dbPath, "DB_PATH")
	setString(&c.Analytics.Path, f.analyticsPath, "ANALYTICS_PATH")
	collect(setBool(&c.Analytics.Enabled, "", "ANALYTICS_ENABLED"))

	setString(&c.Server.Port, f.port, "SERVER_PORT")
	collect(setDuration(&c.Server.ReadTimeout, f.readTimeout, "SERVER_READ_TIMEOUT"))
	collect(setDuration(&c.Server.WriteTimeout, f.writeTimeout, "SERVER_WRITE_TIMEOUT"))
	collect(setDuration(&c.Server.IdleTimeout, f.idleTimeout, "SERVER_IDLE_TIMEOUT"))
	if v := getConfigValue(f.corsOrigins, "CORS_ORIGINS", ""); v != "" {
		c.Server.CORSOrigins = splitList(v)
	}

	setString(&c.Summarizer.APIKey, "", "GROQ_API_KEY")
	setString(&c.Summarizer.BaseURL, "", "SUMMARIZER_BASE_URL")
	setString(&c.Summarizer.Model, f.model, "SUMMARIZER_MODEL")
	collect(setDuration(&c.Summarizer.Timeout, f.summarizerTimeout, "SUMMARIZER_TIMEOUT"))
	collect(setInt(&c.Summarizer.MaxTokens, "", "SUMMARIZER_MAX_TOKENS"))
	collect(setFloat(&c.Summarizer.Temperature, "", "SUMMARIZER_TEMPERATURE"))
	collect(setInt(&c.Summarizer.MaxRetries, "", "SUMMARIZER_MAX_RETRIES"))
	collect(setFloat(&c.Summarizer.RPS, "", "SUMMARIZER_RPS"))
	collect(setInt(&c.Summarizer.BreakerFailures, "", "SUMMARIZER_BREAKER_FAILURES"))

	collect(setInt(&c.Cache.Size, f.cacheSize, "CACHE_SIZE"))
	collect(setDuration(&c.Cache.TTL, f.cacheTTL, "CACHE_TTL"))
	collect(setInt(&c.RateLimit.Requests, f.rateRequests, "RATE_LIMIT_REQUESTS"))
	collect(setDuration(&c.RateLimit.Window, f.rateWindow, "RATE_LIMIT_WINDOW"))

	setString(&c.Ingest.Source, f.source, "INGEST_SOURCE")
	collect(setInt(&c.Ingest.MaxRows, f.maxRows, "INGEST_MAX_ROWS"))
	collect(setInt(&c.Ingest.BatchSize, f.batchSize, "INGEST_BATCH_SIZE"))
	collect(setFloat(&c.Ingest.HFRPS, "", "INGEST_HF_RPS"))
	collect(setBool(&c.Ingest.Clear, f.clear.String(), "INGEST_CLEAR"))

	return errors.Join(errs...)
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %q (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %q (must be debug, info, warn, or error)", c.Logger.Level)
	}
	if f := c.Logger.Format; f != "" && f != "json" && f != "pretty" {
		return fmt.Errorf("invalid log format: %q (must be json or pretty)", f)
	}

	if c.Database.Path == "" {
		return errors.New("database path cannot be empty")
	}
	if c.Analytics.Enabled && c.Analytics.Path == "" {
		return errors.New("analytics path cannot be empty when analytics is enabled")
	}
	if c.Server.Port == "" {
		return errors.New("server port cannot be empty")
	}

	positive := []struct {
		name string
		ok   bool
	}{
		{"server read timeout", c.Server.ReadTimeout > 0},
		{"server write timeout", c.Server.WriteTimeout > 0},
		{"server idle timeout", c.Server.IdleTimeout > 0},
		{"summarizer timeout", c.Summarizer.Timeout > 0},
		{"summarizer max tokens", c.Summarizer.MaxTokens > 0},
		{"summarizer rps", c.Summarizer.RPS > 0},
		{"summarizer burst", c.Summarizer.Burst > 0},
		{"summarizer breaker failures", c.Summarizer.BreakerFailures > 0},
		{"cache size", c.Cache.Size > 0},
		{"cache ttl", c.Cache.TTL > 0},
		{"rate limit requests", c.RateLimit.Requests > 0},
		{"rate limit window", c.RateLimit.Window > 0},
		{"ingest batch size", c.Ingest.BatchSize > 0},
		{"ingest hf rps", c.Ingest.HFRPS > 0},
	}
	for _, p := range positive {
		if !p.ok {
			return fmt.Errorf("%s must be positive", p.name)
		}
	}

	if c.Summarizer.Temperature < 0 || c.Summarizer.Temperature > 2 {
		return fmt.Errorf("summarizer temperature %v out of range [0, 2]", c.Summarizer.Temperature)
	}
	if c.Summarizer.MaxRetries < 0 {
		return errors.New("summarizer max retries cannot be negative")
	}
	if c.Ingest.MaxRows < 0 {
		return errors.New("ingest max rows cannot be negative")
	}
	return nil
}

// Addr returns the listen address for the HTTP server.
func (s ServerConfig) Addr() string {
	return ":" + s.Port
}

func (c *Config) expandPaths() error {
	var err error
	if c.Database.Path, err = expandPath(c.Database.Path); err != nil {
		return fmt.Errorf("invalid database path: %w", err)
	}
	if c.Analytics.Path, err = expandPath(c.Analytics.Path); err != nil {
		return fmt.Errorf("invalid analytics path: %w", err)
	}
	return nil
}

// expandPath expands ~ and makes the path absolute. Empty stays empty.
func expandPath(path string) (string, error) {
	if path == "" {
		return "", nil
	}

	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if envKey != "" {
		if envValue := os.Getenv(envKey); envValue != "" {
			return envValue
		}
	}
	return defaultValue
}

func setString(dst *string, flagValue, envKey string) {
	*dst = getConfigValue(flagValue, envKey, *dst)
}

func setInt(dst *int, flagValue, envKey string) error {
	v := getConfigValue(flagValue, envKey, "")
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", envKey, v, err)
	}
	*dst = n
	return nil
}

func setFloat(dst *float64, flagValue, envKey string) error {
	v := getConfigValue(flagValue, envKey, "")
	if v == "" {
		return nil
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", envKey, v, err)
	}
	*dst = n
	return nil
}

// setBool accepts "true", "1", "yes" as true and "false", "0", "no" as false.
func setBool(dst *bool, flagValue, envKey string) error {
	v := strings.ToLower(strings.TrimSpace(getConfigValue(flagValue, envKey, "")))
	switch v {
	case "":
	case "true", "1", "yes":
		*dst = true
	case "false", "0", "no":
		*dst = false
	default:
		return fmt.Errorf("invalid %s %q: expected true or false", envKey, v)
	}
	return nil
}

func setDuration(dst *time.Duration, flagValue, envKey string) error {
	v := getConfigValue(flagValue, envKey, "")
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", envKey, v, err)
	}
	*dst = d
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
