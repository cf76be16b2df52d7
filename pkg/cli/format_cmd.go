package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"sqlpp/internal/domain"
)

// checkFailedError reports a --check run that found inputs to rewrite.
type checkFailedError struct {
	count int
}

func (e *checkFailedError) Error() string {
	return fmt.Sprintf("%d input(s) would be reformatted", e.count)
}

type formatResult struct {
	File      string `json:"file"`
	Formatted string `json:"formatted"`
	Changed   bool   `json:"changed"`
}

func newFormatCmd(s *settings) *cobra.Command {
	var write, check bool

	cmd := &cobra.Command{
		Use:     "format [file...]",
		Aliases: []string{"fmt"},
		Short:   "Format SQL statements",
		Long: "Format one SQL statement per input. With no file arguments, or \"-\",\n" +
			"the statement is read from standard input.",
		Example: "  echo 'select a, b from t where a = 1' | sqlpp format -w 20\n" +
			"  sqlpp format --write queries/*.sql",
		RunE: func(cmd *cobra.Command, args []string) error {
			f := s.formatter()
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			if len(args) == 0 || (len(args) == 1 && args[0] == "-") {
				if write {
					return domain.ErrValidation("--write needs file arguments")
				}
				in := cmd.InOrStdin()
				if isTerminal(in) {
					_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "Reading SQL from stdin, end with Ctrl+D.")
				}
				data, err := io.ReadAll(in)
				if err != nil {
					return fmt.Errorf("read stdin: %w", err)
				}
				formatted, err := f.Format(ctx, string(data))
				if err != nil {
					return err
				}
				res := formatResult{File: "-", Formatted: formatted, Changed: string(data) != formatted+"\n"}
				if check {
					if res.Changed {
						return &checkFailedError{count: 1}
					}
					return nil
				}
				return printFormatResults(out, s.output, []formatResult{res})
			}

			var results []formatResult
			unformatted := 0
			for _, path := range args {
				data, err := os.ReadFile(path) //nolint:gosec // path is caller-controlled
				if err != nil {
					return err
				}
				formatted, err := f.Format(ctx, string(data))
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				res := formatResult{File: path, Formatted: formatted, Changed: string(data) != formatted+"\n"}
				results = append(results, res)

				switch {
				case check && res.Changed:
					unformatted++
					_, _ = fmt.Fprintln(out, path)
				case write && res.Changed:
					if err := writeFileAtomic(path, []byte(formatted+"\n")); err != nil {
						return err
					}
					s.logger.Info("formatted", "file", path)
				}
			}
			if check {
				if unformatted > 0 {
					return &checkFailedError{count: unformatted}
				}
				return nil
			}
			if write {
				return nil
			}
			return printFormatResults(out, s.output, results)
		},
	}

	cmd.Flags().BoolVar(&write, "write", false, "Rewrite files in place")
	cmd.Flags().BoolVar(&check, "check", false, "List inputs that are not formatted and fail if any")
	cmd.MarkFlagsMutuallyExclusive("write", "check")

	return cmd
}

func printFormatResults(w io.Writer, output string, results []formatResult) error {
	if output == "json" {
		if len(results) == 1 {
			return printJSON(w, results[0])
		}
		return printJSON(w, results)
	}
	for _, r := range results {
		if _, err := fmt.Fprintln(w, r.Formatted); err != nil {
			return err
		}
	}
	return nil
}
