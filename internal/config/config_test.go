package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sqlpp/internal/domain"
	"sqlpp/pkg/sqlfmt"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		EnvLineWidth, EnvIndentWidth, EnvAliasStyle, EnvListenAddr, EnvLogLevel,
		EnvLogFormat, EnvEnv, EnvRateLimitRPS, EnvRateLimitBurst, EnvCORSOrigins,
		EnvMaxBodyBytes, EnvTLSCertFile, EnvTLSKeyFile, EnvConfigFile,
	} {
		t.Setenv(key, "")
	}
}

func writeProfile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadFromEnv_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, 80, cfg.LineWidth)
	assert.Equal(t, 2, cfg.IndentWidth)
	assert.Equal(t, "as", cfg.AliasStyle)
	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, int64(1<<20), cfg.MaxRequestBytes)
	assert.False(t, cfg.IsProduction())
	assert.Empty(t, cfg.Warnings)
}

func TestLoadFromEnv_AllVarsSet(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvLineWidth, "120")
	t.Setenv(EnvIndentWidth, "4")
	t.Setenv(EnvAliasStyle, "bare")
	t.Setenv(EnvListenAddr, "127.0.0.1:9000")
	t.Setenv(EnvLogLevel, "debug")
	t.Setenv(EnvLogFormat, "json")
	t.Setenv(EnvRateLimitRPS, "2.5")
	t.Setenv(EnvRateLimitBurst, "5")
	t.Setenv(EnvCORSOrigins, "https://a.example, ,https://b.example")
	t.Setenv(EnvMaxBodyBytes, "4096")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, 120, cfg.LineWidth)
	assert.Equal(t, 4, cfg.IndentWidth)
	assert.Equal(t, "bare", cfg.AliasStyle)
	assert.Equal(t, "127.0.0.1:9000", cfg.ListenAddr)
	assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())
	assert.InDelta(t, 2.5, cfg.RateLimitRPS, 0.001)
	assert.Equal(t, 5, cfg.RateLimitBurst)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, int64(4096), cfg.MaxRequestBytes)
	assert.Equal(t, sqlfmt.Options{LineWidth: 120, IndentWidth: 4, AliasStyle: sqlfmt.AliasStyleBare}, cfg.FormatOptions())
}

func TestLoadFromEnv_InvalidValues(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{EnvLineWidth, "wide"},
		{EnvLineWidth, "0"},
		{EnvIndentWidth, "-1"},
		{EnvAliasStyle, "quoted"},
		{EnvLogFormat, "xml"},
		{EnvRateLimitRPS, "fast"},
		{EnvMaxBodyBytes, "big"},
		{EnvTLSCertFile, "/tmp/cert.pem"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := LoadFromEnv()
			var verr *domain.ValidationError
			require.ErrorAs(t, err, &verr)
		})
	}
}

func TestLoad_ProductionRejectsWildcardCORS(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvEnv, "production")

	_, err := LoadFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CORS wildcard")

	t.Setenv(EnvCORSOrigins, "https://app.example")
	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
	require.Len(t, cfg.Warnings, 1)
	assert.Contains(t, cfg.Warnings[0], "plain HTTP")
}

func TestLoad_ProfileThenEnv(t *testing.T) {
	clearEnv(t)
	path := writeProfile(t, `
line_width: 100
indent_width: 0
alias_style: bare
server:
  listen_addr: ":9999"
  rate_limit_burst: 7
  cors_allowed_origins: [https://x.example]
`)
	t.Setenv(EnvLineWidth, "60")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 60, cfg.LineWidth, "environment wins over the profile")
	assert.Equal(t, 0, cfg.IndentWidth, "an explicit zero in the profile is kept")
	assert.Equal(t, "bare", cfg.AliasStyle)
	assert.Equal(t, ":9999", cfg.ListenAddr)
	assert.Equal(t, 7, cfg.RateLimitBurst)
	assert.Equal(t, []string{"https://x.example"}, cfg.CORSAllowedOrigins)
}

func TestLoad_MissingProfileUsesDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Defaults().LineWidth, cfg.LineWidth)
}

func TestLoad_MalformedProfile(t *testing.T) {
	clearEnv(t)
	_, err := Load(writeProfile(t, "line_width: [1, 2"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse profile")
}

func TestDefaultProfilePath(t *testing.T) {
	t.Setenv(EnvConfigFile, "/etc/sqlpp.yaml")
	assert.Equal(t, "/etc/sqlpp.yaml", DefaultProfilePath())

	t.Setenv(EnvConfigFile, "")
	t.Setenv("HOME", "/home/dev")
	assert.Equal(t, filepath.Join("/home/dev", ".sqlpp", "config.yaml"), DefaultProfilePath())
}

func TestSlogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARNING": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		cfg := &Config{LogLevel: in}
		assert.Equal(t, want, cfg.SlogLevel(), in)
	}
}

func TestNewLogger_JSON(t *testing.T) {
	var buf strings.Builder
	cfg := Defaults()
	cfg.LogFormat = "json"
	cfg.NewLogger(&buf).Info("ready", "port", 8080)
	assert.Contains(t, buf.String(), `"msg":"ready"`)
}

func TestLoadDotEnv_FileNotFound(t *testing.T) {
	assert.NoError(t, LoadDotEnv("/nonexistent/.env"))
}

func TestLoadDotEnv_ParsesKeyValue(t *testing.T) {
	t.Setenv("SQLPP_TEST_KEY", "")
	require.NoError(t, os.Unsetenv("SQLPP_TEST_KEY"))

	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("# comment\n\nSQLPP_TEST_KEY=\"quoted value\"\nnot a pair\n"), 0o600))

	require.NoError(t, LoadDotEnv(envFile))
	assert.Equal(t, "quoted value", os.Getenv("SQLPP_TEST_KEY"))
}

func TestLoadDotEnv_EnvVarPrecedence(t *testing.T) {
	t.Setenv("SQLPP_TEST_PRECEDENCE", "from_env")

	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("SQLPP_TEST_PRECEDENCE=from_file\n"), 0o600))

	require.NoError(t, LoadDotEnv(envFile))
	assert.Equal(t, "from_env", os.Getenv("SQLPP_TEST_PRECEDENCE"))
}
