package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"sqlpp/internal/domain"
	"sqlpp/internal/sqlparse"
	"sqlpp/pkg/sqlfmt"
)

const (
	replPrompt             = "sqlpp> "
	replContinuationPrompt = "   ..> "
)

const replHelp = `Enter a statement; it is formatted once it ends with ";" or a blank line.
  :width N|auto   set the line width (auto uses the terminal width)
  :indent N       set the indent width
  :alias as|bare  set the alias style
  :show           print the current settings
  :help           print this help
  exit, quit      leave
`

// repl formats statements typed one line at a time.
type repl struct {
	opts   sqlfmt.Options
	out    io.Writer
	buf    strings.Builder
	widthF func() int
}

// pending reports whether a statement is being collected.
func (r *repl) pending() bool {
	return r.buf.Len() > 0
}

// feed handles one line of input and returns false when the session ends.
func (r *repl) feed(line string) bool {
	trimmed := strings.TrimSpace(line)
	if !r.pending() {
		switch {
		case trimmed == "":
			return true
		case trimmed == "exit" || trimmed == "quit" || trimmed == `\q`:
			return false
		case strings.HasPrefix(trimmed, ":"):
			r.command(trimmed)
			return true
		}
	}

	if trimmed == "" {
		r.flush()
		return true
	}
	if r.pending() {
		r.buf.WriteByte('\n')
	}
	r.buf.WriteString(line)
	if strings.HasSuffix(trimmed, ";") {
		r.flush()
	}
	return true
}

// flush formats the collected statement and prints the result or the error.
func (r *repl) flush() {
	if !r.pending() {
		return
	}
	sql := r.buf.String()
	r.buf.Reset()

	out, err := sqlfmt.FormatWithOptions(sql, r.opts)
	if err != nil {
		_, _ = fmt.Fprintf(r.out, "error: %v\n", err)
		return
	}
	_, _ = fmt.Fprintln(r.out, out)
}

func (r *repl) command(input string) {
	fields := strings.Fields(input)
	name, args := fields[0], fields[1:]
	next := r.opts

	switch name {
	case ":help":
		_, _ = fmt.Fprint(r.out, replHelp)
		return
	case ":show":
		_, _ = fmt.Fprintf(r.out, "width %d, indent %d, alias %s\n", r.opts.LineWidth, r.opts.IndentWidth, r.opts.AliasStyle)
		return
	case ":width", ":indent", ":alias":
		if len(args) != 1 {
			_, _ = fmt.Fprintf(r.out, "usage: %s VALUE\n", name)
			return
		}
	default:
		_, _ = fmt.Fprintf(r.out, "unknown command %s, try :help\n", name)
		return
	}

	var err error
	switch name {
	case ":width":
		if args[0] == "auto" {
			next.LineWidth = r.widthF()
			if next.LineWidth <= 0 {
				_, _ = fmt.Fprintln(r.out, "error: terminal width is unknown")
				return
			}
		} else {
			next.LineWidth, err = strconv.Atoi(args[0])
		}
	case ":indent":
		next.IndentWidth, err = strconv.Atoi(args[0])
	case ":alias":
		next.AliasStyle = sqlfmt.AliasStyle(strings.ToLower(args[0]))
	}
	if err != nil {
		err = domain.ErrValidation("%s: %q is not an integer", name, args[0])
	} else {
		err = next.Validate()
	}
	if err != nil {
		_, _ = fmt.Fprintf(r.out, "error: %v\n", err)
		return
	}
	r.opts = next
	_, _ = fmt.Fprintf(r.out, "width %d, indent %d, alias %s\n", r.opts.LineWidth, r.opts.IndentWidth, r.opts.AliasStyle)
}

// runScript feeds every line of in, then formats whatever is left.
func (r *repl) runScript(in io.Reader) error {
	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for sc.Scan() {
		if !r.feed(sc.Text()) {
			return nil
		}
	}
	if err := sc.Err(); err != nil {
		return err
	}
	r.flush()
	return nil
}

// runInteractive reads lines with editing, history and keyword completion.
func (r *repl) runInteractive(ctx context.Context, historyPath string) error {
	line := liner.NewLiner()
	defer line.Close() //nolint:errcheck
	line.SetCtrlCAborts(true)
	line.SetCompleter(completeKeyword)

	if historyPath != "" {
		if f, err := os.Open(historyPath); err == nil { //nolint:gosec // fixed path under the config dir
			_, _ = line.ReadHistory(f)
			_ = f.Close()
		}
		defer func() {
			if err := os.MkdirAll(filepath.Dir(historyPath), 0o700); err != nil {
				return
			}
			if f, err := os.Create(historyPath); err == nil { //nolint:gosec // fixed path under the config dir
				_, _ = line.WriteHistory(f)
				_ = f.Close()
			}
		}()
	}

	_, _ = fmt.Fprintf(r.out, "sqlpp %s, :help for commands, Ctrl+D to quit\n", version)
	for ctx.Err() == nil {
		prompt := replPrompt
		if r.pending() {
			prompt = replContinuationPrompt
		}
		input, err := line.Prompt(prompt)
		switch {
		case errors.Is(err, liner.ErrPromptAborted):
			r.buf.Reset()
			continue
		case errors.Is(err, io.EOF):
			r.flush()
			return nil
		case err != nil:
			return fmt.Errorf("read input: %w", err)
		}
		if strings.TrimSpace(input) != "" {
			line.AppendHistory(input)
		}
		if !r.feed(input) {
			return nil
		}
	}
	return nil
}

var replKeywords = sqlparse.Keywords()

// completeKeyword completes the last word of line against the SQL keywords.
func completeKeyword(line string) []string {
	start := strings.LastIndexAny(line, " \t(,") + 1
	prefix, word := line[:start], strings.ToUpper(line[start:])
	if word == "" {
		return nil
	}
	var out []string
	for _, kw := range replKeywords {
		if strings.HasPrefix(kw, word) {
			out = append(out, prefix+kw)
		}
	}
	return out
}

func newReplCmd(s *settings) *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Format statements interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			r := &repl{
				opts:   s.cfg.FormatOptions(),
				out:    out,
				widthF: func() int { return terminalWidth(out) },
			}
			in := cmd.InOrStdin()
			if !isTerminal(in) {
				return r.runScript(in)
			}
			history := ""
			if home, err := os.UserHomeDir(); err == nil {
				history = filepath.Join(home, ".sqlpp", "history")
			}
			return r.runInteractive(cmd.Context(), history)
		},
	}
}
