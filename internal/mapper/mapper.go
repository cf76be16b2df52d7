// Package mapper rewrites the SQL embedded in MyBatis mapper files.
//
// The body of every <select>, <insert>, <update> and <delete> element
// directly under <mapper> is formatted in place when it is plain text. Bodies
// holding dynamic SQL elements, comments or processing instructions are left
// as they are, and so is any statement the formatter rejects. Everything
// outside the rewritten bodies is copied byte for byte.
//
// Line width counts bind parameters at their written width. It does not
// count the growth from escaping < and > outside CDATA sections.
package mapper

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"sqlpp/pkg/sqlfmt"
)

// statementElements are the mapper children whose body is a statement.
var statementElements = map[string]bool{
	"select": true,
	"insert": true,
	"update": true,
	"delete": true,
}

// Result counts what a rewrite did.
type Result struct {
	Statements int // statement elements found
	Formatted  int // bodies replaced with formatted text
	Dynamic    int // bodies left alone because they are not plain text
	Failed     int // bodies left alone because formatting failed
}

// Changed reports whether any body was rewritten.
func (r Result) Changed() bool {
	return r.Formatted > 0
}

// Rewriter formats the statements of mapper files.
type Rewriter struct {
	opts   sqlfmt.Options
	logger *slog.Logger
}

// NewRewriter returns a Rewriter that formats with opts. A nil logger
// discards statement-level warnings.
func NewRewriter(opts sqlfmt.Options, logger *slog.Logger) (*Rewriter, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Rewriter{opts: opts, logger: logger}, nil
}

// body is the content of one statement element.
type body struct {
	id       string
	tagStart int64 // offset of the start tag
	start    int64 // first byte after the start tag
	end      int64 // first byte of the end tag
	text     strings.Builder
	cdata    bool
	dynamic  bool
}

// Rewrite returns src with its statement bodies formatted. Malformed XML is
// an error; a statement that cannot be formatted is not.
func (r *Rewriter) Rewrite(src []byte) ([]byte, Result, error) {
	var res Result
	bodies, err := scan(src)
	if err != nil {
		return nil, res, err
	}

	var out bytes.Buffer
	out.Grow(len(src))
	var last int64
	for _, b := range bodies {
		res.Statements++
		if b.dynamic {
			res.Dynamic++
			r.logger.Debug("skipping dynamic statement", "id", b.id)
			continue
		}
		if strings.TrimSpace(b.text.String()) == "" {
			continue
		}
		replacement, err := r.formatBody(b, lineIndent(src, b.tagStart))
		if err != nil {
			res.Failed++
			r.logger.Warn("statement left unformatted", "id", b.id, "error", err)
			continue
		}
		out.Write(src[last:b.start])
		out.WriteString(replacement)
		last = b.end
		res.Formatted++
	}
	out.Write(src[last:])
	return out.Bytes(), res, nil
}

// scan walks the document and collects the statement bodies of a <mapper>
// root in document order.
func scan(src []byte) ([]*body, error) {
	d := xml.NewDecoder(bytes.NewReader(src))
	var (
		path   []string
		cur    *body
		bodies []*body
	)
	for {
		start := d.InputOffset()
		tok, err := d.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse mapper xml: %w", err)
		}
		end := d.InputOffset()

		switch t := tok.(type) {
		case xml.StartElement:
			if cur != nil {
				cur.dynamic = true
			}
			path = append(path, t.Name.Local)
			if len(path) == 2 && path[0] == "mapper" && statementElements[t.Name.Local] {
				cur = &body{id: attr(t, "id"), tagStart: start, start: end}
			}
		case xml.EndElement:
			if cur != nil && len(path) == 2 {
				cur.end = start
				bodies = append(bodies, cur)
				cur = nil
			}
			path = path[:len(path)-1]
		case xml.CharData:
			if cur != nil {
				cur.text.Write(t)
				if bytes.HasPrefix(src[start:end], []byte("<![CDATA[")) {
					cur.cdata = true
				}
			}
		case xml.Comment, xml.ProcInst, xml.Directive:
			if cur != nil {
				cur.dynamic = true
			}
		}
	}
	return bodies, nil
}

// formatBody formats the statement of b and returns the text that replaces
// the body: the statement on its own lines, one indent step deeper than the
// start tag, followed by the tag's indentation for the end tag.
func (r *Rewriter) formatBody(b *body, tagIndent string) (string, error) {
	masked, params, err := maskParams(b.text.String())
	if err != nil {
		return "", err
	}

	bodyIndent := tagIndent + strings.Repeat(" ", r.opts.IndentWidth)
	opts := r.opts
	opts.LineWidth = max(r.opts.LineWidth-len(bodyIndent), 1)
	formatted, err := sqlfmt.FormatWithOptions(masked, opts)
	if err != nil {
		return "", err
	}
	formatted, err = unmaskParams(formatted, params)
	if err != nil {
		return "", err
	}

	lines := strings.Split(formatted, "\n")
	for i, line := range lines {
		lines[i] = bodyIndent + line
	}
	indented := strings.Join(lines, "\n")

	if b.cdata && !strings.Contains(indented, "]]>") {
		return "<![CDATA[\n" + indented + "\n" + tagIndent + "]]>", nil
	}
	return "\n" + escapeText(indented) + "\n" + tagIndent, nil
}

var textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// escapeText escapes character data. Quotes and newlines are kept as they
// are, unlike xml.EscapeText.
func escapeText(s string) string {
	return textEscaper.Replace(s)
}

// lineIndent returns the whitespace that precedes offset on its line, or ""
// when anything else does.
func lineIndent(src []byte, offset int64) string {
	lineStart := bytes.LastIndexByte(src[:offset], '\n') + 1
	prefix := src[lineStart:offset]
	if len(bytes.TrimLeft(prefix, " \t")) != 0 {
		return ""
	}
	return string(prefix)
}

func attr(e xml.StartElement, name string) string {
	for _, a := range e.Attr {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

// IsMapperFile reports whether path is a readable regular file whose root
// element is <mapper>.
func IsMapperFile(path string) bool {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return false
	}
	f, err := os.Open(path) //nolint:gosec // path is caller-controlled
	if err != nil {
		return false
	}
	defer f.Close() //nolint:errcheck

	d := xml.NewDecoder(f)
	for {
		tok, err := d.Token()
		if err != nil {
			return false
		}
		if start, ok := tok.(xml.StartElement); ok {
			return start.Name.Local == "mapper"
		}
	}
}
