package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// mapperParallelism bounds how many files are rewritten at once.
const mapperParallelism = 8

type mapperFileResult struct {
	File       string `json:"file"`
	Changed    bool   `json:"changed"`
	Statements int    `json:"statements"`
	Formatted  int    `json:"formatted"`
	Dynamic    int    `json:"dynamic"`
	Failed     int    `json:"failed"`
}

func newMapperCmd(s *settings) *cobra.Command {
	var write, check bool

	cmd := &cobra.Command{
		Use:   "mapper <path>...",
		Short: "Format the SQL embedded in MyBatis mapper files",
		Long: "Format the plain-text <select>, <insert>, <update> and <delete> bodies of\n" +
			"MyBatis mapper files. Directories are searched for *.xml mapper files.\n" +
			"Without --write or --check the rewritten document is printed.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := mapperFiles(args)
			if err != nil {
				return err
			}
			rewrites, err := rewriteMappers(cmd.Context(), s.formatter(), files)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			results := make([]mapperFileResult, 0, len(rewrites))
			unformatted := 0
			for _, rw := range rewrites {
				res := rw.result
				results = append(results, res)
				s.logger.Debug("mapper file processed", "file", res.File,
					"statements", res.Statements, "formatted", res.Formatted,
					"dynamic", res.Dynamic, "failed", res.Failed)

				switch {
				case check:
					if res.Changed {
						unformatted++
						if s.output != "json" {
							_, _ = fmt.Fprintln(out, res.File)
						}
					}
				case write:
					if res.Changed {
						if err := writeFileAtomic(res.File, rw.doc); err != nil {
							return err
						}
						s.logger.Info("formatted", "file", res.File, "statements", res.Formatted)
					}
				default:
					if s.output != "json" {
						if _, err := out.Write(rw.doc); err != nil {
							return err
						}
					}
				}
			}

			if s.output == "json" {
				if err := printJSON(out, results); err != nil {
					return err
				}
			}
			if unformatted > 0 {
				return &checkFailedError{count: unformatted}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&write, "write", false, "Rewrite files in place")
	cmd.Flags().BoolVar(&check, "check", false, "List files that are not formatted and fail if any")
	cmd.MarkFlagsMutuallyExclusive("write", "check")

	return cmd
}

type mapperRewrite struct {
	doc    []byte
	result mapperFileResult
}

// rewriteMappers reads and rewrites files concurrently. Results keep the
// order of files; the first failure cancels the rest.
func rewriteMappers(ctx context.Context, f formatter, files []string) ([]mapperRewrite, error) {
	out := make([]mapperRewrite, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(mapperParallelism)

	for i, path := range files {
		g.Go(func() error {
			data, err := os.ReadFile(path) //nolint:gosec // path is caller-controlled
			if err != nil {
				return err
			}
			doc, res, err := f.Mapper(gctx, data)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			out[i] = mapperRewrite{
				doc: doc,
				result: mapperFileResult{
					File:       path,
					Changed:    string(doc) != string(data),
					Statements: res.Statements,
					Formatted:  res.Formatted,
					Dynamic:    res.Dynamic,
					Failed:     res.Failed,
				},
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
