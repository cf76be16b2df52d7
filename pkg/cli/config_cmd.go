package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"sqlpp/internal/config"
)

// effectiveConfig is what `config show` prints.
type effectiveConfig struct {
	ConfigFile  string `yaml:"config_file" json:"config_file"`
	Remote      string `yaml:"remote,omitempty" json:"remote,omitempty"`
	LineWidth   int    `yaml:"line_width" json:"line_width"`
	IndentWidth int    `yaml:"indent_width" json:"indent_width"`
	AliasStyle  string `yaml:"alias_style" json:"alias_style"`
	Server      struct {
		ListenAddr         string   `yaml:"listen_addr" json:"listen_addr"`
		LogLevel           string   `yaml:"log_level" json:"log_level"`
		LogFormat          string   `yaml:"log_format" json:"log_format"`
		RateLimitRPS       float64  `yaml:"rate_limit_rps" json:"rate_limit_rps"`
		RateLimitBurst     int      `yaml:"rate_limit_burst" json:"rate_limit_burst"`
		CORSAllowedOrigins []string `yaml:"cors_allowed_origins" json:"cors_allowed_origins"`
		MaxRequestBytes    int64    `yaml:"max_request_bytes" json:"max_request_bytes"`
	} `yaml:"server" json:"server"`
}

func newConfigCmd(s *settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and initialise the configuration file",
	}
	cmd.AddCommand(newConfigShowCmd(s))
	cmd.AddCommand(newConfigInitCmd(s))
	return cmd
}

func (s *settings) profilePath() string {
	if s.configPath != "" {
		return s.configPath
	}
	return config.DefaultProfilePath()
}

func newConfigShowCmd(s *settings) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration after flags, environment and file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c := s.cfg
			var e effectiveConfig
			e.ConfigFile = s.profilePath()
			e.Remote = s.remote
			e.LineWidth = c.LineWidth
			e.IndentWidth = c.IndentWidth
			e.AliasStyle = c.AliasStyle
			e.Server.ListenAddr = c.ListenAddr
			e.Server.LogLevel = c.LogLevel
			e.Server.LogFormat = c.LogFormat
			e.Server.RateLimitRPS = c.RateLimitRPS
			e.Server.RateLimitBurst = c.RateLimitBurst
			e.Server.CORSAllowedOrigins = c.CORSAllowedOrigins
			e.Server.MaxRequestBytes = c.MaxRequestBytes

			out := cmd.OutOrStdout()
			if s.output == "json" {
				return printJSON(out, e)
			}
			data, err := yaml.Marshal(e)
			if err != nil {
				return fmt.Errorf("marshal config: %w", err)
			}
			_, err = out.Write(data)
			return err
		},
	}
}

func newConfigInitCmd(s *settings) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file holding the built-in defaults",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := s.profilePath()
			if path == "" {
				return fmt.Errorf("cannot locate the home directory; pass --config")
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}

			d := config.Defaults()
			var p config.Profile
			p.LineWidth = &d.LineWidth
			p.IndentWidth = &d.IndentWidth
			p.AliasStyle = d.AliasStyle
			p.Server.ListenAddr = d.ListenAddr
			p.Server.LogLevel = d.LogLevel
			p.Server.LogFormat = d.LogFormat
			p.Server.RateLimitRPS = d.RateLimitRPS
			p.Server.RateLimitBurst = d.RateLimitBurst
			p.Server.CORSAllowedOrigins = d.CORSAllowedOrigins
			p.Server.MaxRequestBytes = d.MaxRequestBytes

			data, err := yaml.Marshal(&p)
			if err != nil {
				return fmt.Errorf("marshal config: %w", err)
			}
			if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
				return fmt.Errorf("create config dir: %w", err)
			}
			if err := os.WriteFile(path, data, 0o600); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")
	return cmd
}
