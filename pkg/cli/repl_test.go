package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sqlpp/pkg/sqlfmt"
)

func newTestRepl(width int) (*repl, *bytes.Buffer) {
	var out bytes.Buffer
	return &repl{
		opts:   sqlfmt.DefaultOptions(),
		out:    &out,
		widthF: func() int { return width },
	}, &out
}

func TestRepl_SemicolonEndsStatement(t *testing.T) {
	r, out := newTestRepl(0)

	assert.True(t, r.feed("select * from tbl"))
	assert.Empty(t, out.String())
	assert.True(t, r.pending())

	assert.True(t, r.feed("where a=b;"))
	assert.Equal(t, "SELECT * FROM tbl WHERE a = b\n", out.String())
	assert.False(t, r.pending())
}

func TestRepl_BlankLineEndsStatement(t *testing.T) {
	r, out := newTestRepl(0)

	r.feed("select 1")
	r.feed("   ")
	assert.Equal(t, "SELECT 1\n", out.String())
}

func TestRepl_ErrorIsPrinted(t *testing.T) {
	r, out := newTestRepl(0)

	r.feed("select * from;")
	assert.True(t, strings.HasPrefix(out.String(), "error: parse error"), out.String())
	assert.False(t, r.pending())
}

func TestRepl_Exit(t *testing.T) {
	for _, word := range []string{"exit", "quit", `\q`} {
		r, _ := newTestRepl(0)
		assert.False(t, r.feed(word), word)
	}

	r, _ := newTestRepl(0)
	r.feed("select")
	assert.True(t, r.feed("exit"), "exit inside a statement is part of the statement")
}

func TestRepl_Commands(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		termWidth int
		want      string
		wantOpts  sqlfmt.Options
	}{
		{
			name:     "show",
			input:    ":show",
			want:     "width 80, indent 2, alias as\n",
			wantOpts: sqlfmt.DefaultOptions(),
		},
		{
			name:     "width",
			input:    ":width 40",
			want:     "width 40, indent 2, alias as\n",
			wantOpts: sqlfmt.Options{LineWidth: 40, IndentWidth: 2, AliasStyle: sqlfmt.AliasStyleAS},
		},
		{
			name:      "width auto",
			input:     ":width auto",
			termWidth: 132,
			want:      "width 132, indent 2, alias as\n",
			wantOpts:  sqlfmt.Options{LineWidth: 132, IndentWidth: 2, AliasStyle: sqlfmt.AliasStyleAS},
		},
		{
			name:     "width auto without terminal",
			input:    ":width auto",
			want:     "error: terminal width is unknown\n",
			wantOpts: sqlfmt.DefaultOptions(),
		},
		{
			name:     "width not a number",
			input:    ":width wide",
			want:     "error: :width: \"wide\" is not an integer\n",
			wantOpts: sqlfmt.DefaultOptions(),
		},
		{
			name:     "width zero",
			input:    ":width 0",
			want:     "error: line width must be positive, got 0\n",
			wantOpts: sqlfmt.DefaultOptions(),
		},
		{
			name:     "indent",
			input:    ":indent 4",
			want:     "width 80, indent 4, alias as\n",
			wantOpts: sqlfmt.Options{LineWidth: 80, IndentWidth: 4, AliasStyle: sqlfmt.AliasStyleAS},
		},
		{
			name:     "alias",
			input:    ":alias BARE",
			want:     "width 80, indent 2, alias bare\n",
			wantOpts: sqlfmt.Options{LineWidth: 80, IndentWidth: 2, AliasStyle: sqlfmt.AliasStyleBare},
		},
		{
			name:     "missing value",
			input:    ":indent",
			want:     "usage: :indent VALUE\n",
			wantOpts: sqlfmt.DefaultOptions(),
		},
		{
			name:     "unknown",
			input:    ":tabs",
			want:     "unknown command :tabs, try :help\n",
			wantOpts: sqlfmt.DefaultOptions(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, out := newTestRepl(tt.termWidth)
			assert.True(t, r.feed(tt.input))
			assert.Equal(t, tt.want, out.String())
			assert.Equal(t, tt.wantOpts, r.opts)
		})
	}
}

func TestRepl_Help(t *testing.T) {
	r, out := newTestRepl(0)
	r.feed(":help")
	assert.Equal(t, replHelp, out.String())
}

func TestRepl_RunScript(t *testing.T) {
	r, out := newTestRepl(0)
	script := "select 1\n\n:width 20\nselect * from tbl\nwhere a=b\n\nselect 2;\nquit\nselect 3\n"

	require.NoError(t, r.runScript(strings.NewReader(script)))
	assert.Equal(t, "SELECT 1\n"+
		"width 20, indent 2, alias as\n"+
		"SELECT *\nFROM tbl\nWHERE a = b\n"+
		"SELECT 2\n", out.String())
}

func TestRepl_RunScriptFlushesAtEOF(t *testing.T) {
	r, out := newTestRepl(0)

	require.NoError(t, r.runScript(strings.NewReader("select 1")))
	assert.Equal(t, "SELECT 1\n", out.String())
}

func TestCompleteKeyword(t *testing.T) {
	assert.Contains(t, completeKeyword("sel"), "SELECT")
	assert.Contains(t, completeKeyword("select * fr"), "select * FROM")
	assert.Contains(t, completeKeyword("select count(dis"), "select count(DISTINCT")
	assert.Nil(t, completeKeyword("select "))
	assert.Empty(t, completeKeyword("zzz"))
}

func TestReplCommand_ReadsScriptFromPipe(t *testing.T) {
	isolate(t)

	out, _, err := run(t, "select 1;\n:show\n", "-w", "40", "repl")
	require.NoError(t, err)
	assert.Equal(t, "SELECT 1\nwidth 40, indent 2, alias as\n", out)
}
