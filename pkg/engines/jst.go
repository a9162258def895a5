package engines

import (
	"bytes"
	"fmt"
	"html"
	"regexp"
	"strconv"
	"strings"
	"text/template"

	"github.com/arthur-debert/doppel/pkg/errors"
)

const (
	// JSTName is the registry name of the underscore-style engine
	JSTName = "jst"

	// JSTExtension is the default jst extension
	JSTExtension = "jst"

	jstOpen  = "<%"
	jstClose = "%>"
)

var jstPath = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)*$`)

// JST renders underscore-style templates:
//
//	<%= user.name %>   interpolates the value as is
//	<%- user.bio %>    interpolates the HTML-escaped value
//
// Expressions are dotted lookups into the data context. Evaluate blocks
// (<% code %>) need a script runtime and are rejected as malformed. A lookup of
// a key missing from the data fails the compile; a nil value renders empty.
type JST struct {
	extension string
}

// NewJST is the Factory for the jst engine.
func NewJST(opts Options) (Engine, error) {
	ext, err := extensionOrDefault(opts.Extension, JSTExtension)
	if err != nil {
		return nil, err
	}
	return &JST{extension: ext}, nil
}

func (j *JST) Name() string      { return JSTName }
func (j *JST) Extension() string { return j.extension }

// Compile translates text into an equivalent text/template and executes it.
func (j *JST) Compile(text string, data any) (string, error) {
	src, err := translateJST(text)
	if err != nil {
		return "", err
	}

	tpl, err := template.New(JSTName).
		Option("missingkey=error").
		Funcs(template.FuncMap{
			"jstValue":  jstValue,
			"jstEscape": jstEscape,
		}).
		Parse(src)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// translateJST rewrites literal text as quoted string actions and tags as
// field lookups, so nothing in the literal text is interpreted by text/template.
func translateJST(text string) (string, error) {
	var b strings.Builder
	offset := 0

	for {
		start := strings.Index(text, jstOpen)
		if start < 0 {
			writeLiteral(&b, text)
			return b.String(), nil
		}
		writeLiteral(&b, text[:start])

		rest := text[start+len(jstOpen):]
		end := strings.Index(rest, jstClose)
		if end < 0 {
			return "", errors.Newf(errors.ErrInvalidInput,
				"unclosed %s tag at offset %d", jstOpen, offset+start)
		}
		body := rest[:end]

		var fn string
		switch {
		case strings.HasPrefix(body, "="):
			fn = "jstValue"
		case strings.HasPrefix(body, "-"):
			fn = "jstEscape"
		default:
			return "", errors.Newf(errors.ErrInvalidInput,
				"unsupported evaluate block %q at offset %d", jstOpen+body+jstClose, offset+start)
		}

		expr := strings.TrimSpace(body[1:])
		if !jstPath.MatchString(expr) {
			return "", errors.Newf(errors.ErrInvalidInput,
				"unsupported expression %q at offset %d", expr, offset+start)
		}
		fmt.Fprintf(&b, "{{%s .%s}}", fn, expr)

		consumed := start + len(jstOpen) + end + len(jstClose)
		text = text[consumed:]
		offset += consumed
	}
}

func writeLiteral(b *strings.Builder, s string) {
	if s == "" {
		return
	}
	b.WriteString("{{")
	b.WriteString(strconv.Quote(s))
	b.WriteString("}}")
}

func jstValue(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

func jstEscape(v any) string {
	return html.EscapeString(jstValue(v))
}
