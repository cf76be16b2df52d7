// Package cli implements the sqlpp command line.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"sqlpp/internal/domain"
)

var (
	version = "dev"
	commit  = "none"
)

// Exit codes returned by Execute.
const (
	ExitOK          = 0
	ExitFailure     = 1 // usage, validation, I/O, or a --check that found work
	ExitParse       = 2
	ExitUnsupported = 3
)

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	rootCmd := newRootCmd()
	err := rootCmd.Execute()
	if err == nil {
		return ExitOK
	}
	output, _ := rootCmd.PersistentFlags().GetString("output")
	reportError(os.Stdout, os.Stderr, output, err)
	return exitCode(err)
}

func exitCode(err error) int {
	var parse *domain.ParseError
	var unsupported *domain.UnsupportedConstructError
	switch {
	case errors.As(err, &parse):
		return ExitParse
	case errors.As(err, &unsupported):
		return ExitUnsupported
	default:
		return ExitFailure
	}
}

// reportError prints err as JSON on stdout for -o json, as text on stderr
// otherwise.
func reportError(stdout, stderr io.Writer, output string, err error) {
	if output != "json" {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return
	}
	errObj := map[string]interface{}{"error": err.Error()}
	var parse *domain.ParseError
	var unsupported *domain.UnsupportedConstructError
	switch {
	case errors.As(err, &parse):
		errObj["kind"] = "parse_error"
		errObj["line"] = parse.Line
		errObj["column"] = parse.Column
	case errors.As(err, &unsupported):
		errObj["kind"] = "unsupported_construct"
		errObj["construct"] = unsupported.Construct
	}
	_ = printJSON(stdout, errObj)
}

func newRootCmd() *cobra.Command {
	s := &settings{}

	rootCmd := &cobra.Command{
		Use:   "sqlpp",
		Short: "SQL pretty-printer",
		Long: "sqlpp formats SQL statements to fit a line width, one clause or list item\n" +
			"per line when a statement does not fit, and rewrites the SQL embedded in\n" +
			"MyBatis mapper files.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return s.resolve(cmd)
		},
	}

	s.bindFlags(rootCmd)

	rootCmd.AddCommand(newFormatCmd(s))
	rootCmd.AddCommand(newMapperCmd(s))
	rootCmd.AddCommand(newServeCmd(s))
	rootCmd.AddCommand(newReplCmd(s))
	rootCmd.AddCommand(newConfigCmd(s))
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newCompletionCmd())

	return rootCmd
}

func newCompletionCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "completion [bash|zsh|fish|powershell]",
		Short:     "Generate shell completion scripts",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(out)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			default:
				return fmt.Errorf("unsupported shell: %s", args[0])
			}
		},
	}
}
