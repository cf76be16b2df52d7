package cli

import (
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"sqlpp/internal/config"
	"sqlpp/internal/domain"
)

// EnvRemote names a server to format through when --remote is not given.
const EnvRemote = "SQLPP_REMOTE"

// settings are the persistent flags and the configuration they resolve to.
type settings struct {
	configPath  string
	envFile     string
	output      string
	remote      string
	lineWidth   int
	indentWidth int
	aliasStyle  string

	cfg    *config.Config
	logger *slog.Logger
}

func (s *settings) bindFlags(cmd *cobra.Command) {
	d := config.Defaults()
	f := cmd.PersistentFlags()
	f.StringVar(&s.configPath, "config", "", "Config file (default ~/.sqlpp/config.yaml)")
	f.StringVar(&s.envFile, "env-file", "", "Load environment variables from this file first")
	f.StringVarP(&s.output, "output", "o", "text", "Output format (text, json)")
	f.StringVar(&s.remote, "remote", "", "Format through the sqlpp server at this URL")
	f.IntVarP(&s.lineWidth, "line-width", "w", d.LineWidth, "Maximum line width")
	f.IntVarP(&s.indentWidth, "indent", "i", d.IndentWidth, "Spaces per indent level")
	f.StringVar(&s.aliasStyle, "alias-style", d.AliasStyle, "Alias style (as, bare)")
}

// resolve applies precedence: flag > environment > config file > default.
func (s *settings) resolve(cmd *cobra.Command) error {
	flags := cmd.Flags()
	if s.envFile != "" {
		if err := config.LoadDotEnv(s.envFile); err != nil {
			return err
		}
	}

	path := s.configPath
	if !flags.Changed("config") {
		path = config.DefaultProfilePath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}

	if flags.Changed("line-width") {
		cfg.LineWidth = s.lineWidth
	}
	if flags.Changed("indent") {
		cfg.IndentWidth = s.indentWidth
	}
	if flags.Changed("alias-style") {
		cfg.AliasStyle = s.aliasStyle
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := validateOutputFormat(s.output); err != nil {
		return err
	}
	if !flags.Changed("remote") {
		s.remote = os.Getenv(EnvRemote)
	}
	if s.remote != "" {
		if err := validateHostURL(s.remote); err != nil {
			return err
		}
		s.remote = strings.TrimRight(s.remote, "/")
	}

	s.cfg = cfg
	s.logger = cfg.NewLogger(cmd.ErrOrStderr())
	return nil
}

// formatter returns the local formatter, or a client for --remote.
func (s *settings) formatter() formatter {
	if s.remote != "" {
		return &remoteFormatter{client: NewClient(s.remote), opts: s.cfg.FormatOptions()}
	}
	return &localFormatter{opts: s.cfg.FormatOptions(), logger: s.logger}
}

func validateOutputFormat(output string) error {
	if output != "text" && output != "json" {
		return domain.ErrValidation("unsupported output format %q: use 'text' or 'json'", output)
	}
	return nil
}
