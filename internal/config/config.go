// Package config handles application configuration: built-in defaults, an
// optional YAML profile, and environment variables, applied in that order.
package config

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"sqlpp/internal/domain"
	"sqlpp/pkg/sqlfmt"
)

// Environment variables read by LoadFromEnv.
const (
	EnvLineWidth      = "SQLPP_LINE_WIDTH"
	EnvIndentWidth    = "SQLPP_INDENT_WIDTH"
	EnvAliasStyle     = "SQLPP_ALIAS_STYLE"
	EnvListenAddr     = "SQLPP_LISTEN_ADDR"
	EnvLogLevel       = "SQLPP_LOG_LEVEL"
	EnvLogFormat      = "SQLPP_LOG_FORMAT"
	EnvEnv            = "SQLPP_ENV"
	EnvRateLimitRPS   = "SQLPP_RATE_LIMIT_RPS"
	EnvRateLimitBurst = "SQLPP_RATE_LIMIT_BURST"
	EnvCORSOrigins    = "SQLPP_CORS_ALLOWED_ORIGINS"
	EnvMaxBodyBytes   = "SQLPP_MAX_BODY_BYTES"
	EnvTLSCertFile    = "SQLPP_TLS_CERT_FILE"
	EnvTLSKeyFile     = "SQLPP_TLS_KEY_FILE"
	EnvConfigFile     = "SQLPP_CONFIG"
)

// Config holds formatting defaults and the HTTP service settings.
type Config struct {
	LineWidth   int    // default line width
	IndentWidth int    // default indent width
	AliasStyle  string // "as" or "bare"

	ListenAddr      string // HTTP listen address (default ":8080")
	TLSCertFile     string // TLS certificate file path (optional)
	TLSKeyFile      string // TLS private key file path (optional)
	LogLevel        string // log level: debug, info, warn, error (default "info")
	LogFormat       string // "text" (default) or "json"
	Env             string // environment: "development" (default) or "production"
	MaxRequestBytes int64  // largest accepted request body (default 1 MiB)

	// Rate limiting
	RateLimitRPS   float64 // sustained requests per second (default 50)
	RateLimitBurst int     // burst capacity (default 100)

	// CORS
	CORSAllowedOrigins []string // allowed origins for CORS (default: ["*"])

	// Warnings collects non-fatal warnings generated during config loading.
	// These are logged by the caller after the logger is initialised.
	Warnings []string
}

// Profile is the YAML configuration file. Unset fields leave the defaults
// in place.
type Profile struct {
	LineWidth   *int   `yaml:"line_width"`
	IndentWidth *int   `yaml:"indent_width"`
	AliasStyle  string `yaml:"alias_style"`
	Server      struct {
		ListenAddr         string   `yaml:"listen_addr"`
		LogLevel           string   `yaml:"log_level"`
		LogFormat          string   `yaml:"log_format"`
		RateLimitRPS       float64  `yaml:"rate_limit_rps"`
		RateLimitBurst     int      `yaml:"rate_limit_burst"`
		CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
		MaxRequestBytes    int64    `yaml:"max_request_bytes"`
	} `yaml:"server"`
}

// Defaults returns the built-in configuration.
func Defaults() *Config {
	return &Config{
		LineWidth:          80,
		IndentWidth:        2,
		AliasStyle:         string(domain.AliasStyleAS),
		ListenAddr:         ":8080",
		LogLevel:           "info",
		LogFormat:          "text",
		Env:                "development",
		MaxRequestBytes:    1 << 20,
		RateLimitRPS:       50,
		RateLimitBurst:     100,
		CORSAllowedOrigins: []string{"*"},
	}
}

// SlogLevel maps the LogLevel string to an slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// IsProduction returns true when the server is running in production mode.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	if c.LineWidth <= 0 {
		return domain.ErrValidation("line width must be positive, got %d", c.LineWidth)
	}
	if c.IndentWidth < 0 {
		return domain.ErrValidation("indent width must not be negative, got %d", c.IndentWidth)
	}
	if _, err := domain.ParseAliasStyle(c.AliasStyle); err != nil {
		return err
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return domain.ErrValidation("log format must be text or json, got %q", c.LogFormat)
	}
	if (c.TLSCertFile == "") != (c.TLSKeyFile == "") {
		return domain.ErrValidation("both %s and %s must be set together", EnvTLSCertFile, EnvTLSKeyFile)
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		return domain.ErrValidation("rate limit must be positive")
	}
	if c.MaxRequestBytes <= 0 {
		return domain.ErrValidation("max request bytes must be positive")
	}
	if c.IsProduction() && len(c.CORSAllowedOrigins) == 1 && c.CORSAllowedOrigins[0] == "*" {
		return domain.ErrValidation("CORS wildcard (*) is not allowed in production (%s=production)", EnvEnv)
	}
	return nil
}

// FormatOptions returns the formatting defaults.
func (c *Config) FormatOptions() sqlfmt.Options {
	return sqlfmt.Options{
		LineWidth:   c.LineWidth,
		IndentWidth: c.IndentWidth,
		AliasStyle:  sqlfmt.AliasStyle(strings.ToLower(c.AliasStyle)),
	}
}

// NewLogger builds the process logger described by LogLevel and LogFormat.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.SlogLevel()}
	if strings.EqualFold(c.LogFormat, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// DefaultProfilePath returns ~/.sqlpp/config.yaml, or "" when the home
// directory is unknown.
func DefaultProfilePath() string {
	if p := os.Getenv(EnvConfigFile); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".sqlpp", "config.yaml")
}

// Load returns the defaults overlaid with the profile at profilePath (if it
// exists) and then the environment.
func Load(profilePath string) (*Config, error) {
	cfg := Defaults()
	if profilePath != "" {
		p, err := LoadProfile(profilePath)
		if err != nil {
			return nil, err
		}
		if p != nil {
			cfg.applyProfile(p)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromEnv loads configuration from environment variables only.
func LoadFromEnv() (*Config, error) {
	return Load("")
}

// LoadProfile reads a YAML profile. A missing file yields nil and no error.
func LoadProfile(path string) (*Profile, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is caller-controlled
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read profile %s: %w", path, err)
	}
	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse profile %s: %w", path, err)
	}
	return &p, nil
}

func (c *Config) applyProfile(p *Profile) {
	if p.LineWidth != nil {
		c.LineWidth = *p.LineWidth
	}
	if p.IndentWidth != nil {
		c.IndentWidth = *p.IndentWidth
	}
	if p.AliasStyle != "" {
		c.AliasStyle = p.AliasStyle
	}
	s := p.Server
	if s.ListenAddr != "" {
		c.ListenAddr = s.ListenAddr
	}
	if s.LogLevel != "" {
		c.LogLevel = s.LogLevel
	}
	if s.LogFormat != "" {
		c.LogFormat = s.LogFormat
	}
	if s.RateLimitRPS != 0 {
		c.RateLimitRPS = s.RateLimitRPS
	}
	if s.RateLimitBurst != 0 {
		c.RateLimitBurst = s.RateLimitBurst
	}
	if len(s.CORSAllowedOrigins) > 0 {
		c.CORSAllowedOrigins = s.CORSAllowedOrigins
	}
	if s.MaxRequestBytes != 0 {
		c.MaxRequestBytes = s.MaxRequestBytes
	}
}

func (c *Config) applyEnv() error {
	var err error
	if c.LineWidth, err = intEnv(EnvLineWidth, c.LineWidth); err != nil {
		return err
	}
	if c.IndentWidth, err = intEnv(EnvIndentWidth, c.IndentWidth); err != nil {
		return err
	}
	if c.RateLimitBurst, err = intEnv(EnvRateLimitBurst, c.RateLimitBurst); err != nil {
		return err
	}
	if v := os.Getenv(EnvRateLimitRPS); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return domain.ErrValidation("%s: %q is not a number", EnvRateLimitRPS, v)
		}
		c.RateLimitRPS = f
	}
	if v := os.Getenv(EnvMaxBodyBytes); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return domain.ErrValidation("%s: %q is not an integer", EnvMaxBodyBytes, v)
		}
		c.MaxRequestBytes = n
	}

	setString(&c.AliasStyle, EnvAliasStyle)
	setString(&c.ListenAddr, EnvListenAddr)
	setString(&c.LogLevel, EnvLogLevel)
	setString(&c.LogFormat, EnvLogFormat)
	setString(&c.Env, EnvEnv)
	setString(&c.TLSCertFile, EnvTLSCertFile)
	setString(&c.TLSKeyFile, EnvTLSKeyFile)

	if v := os.Getenv(EnvCORSOrigins); v != "" {
		origins := strings.Split(v, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
		c.CORSAllowedOrigins = compactNonEmpty(origins)
	}
	if c.IsProduction() && c.TLSCertFile == "" {
		c.Warnings = append(c.Warnings, "serving plain HTTP in production; terminate TLS upstream")
	}
	return nil
}

func intEnv(key string, current int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return current, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, domain.ErrValidation("%s: %q is not an integer", key, v)
	}
	return n, nil
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func compactNonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

// LoadDotEnv reads a .env file and sets any variables not already in the environment.
// Lines must be in KEY=VALUE format. Comments (#) and blank lines are skipped.
func LoadDotEnv(path string) error {
	f, err := os.Open(path) //nolint:gosec // path is caller-controlled
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = stripQuotes(strings.TrimSpace(value))
		if _, set := os.LookupEnv(key); !set {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("setenv %s: %w", key, err)
			}
		}
	}
	return scanner.Err()
}

// stripQuotes removes surrounding double or single quotes from a value.
func stripQuotes(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
