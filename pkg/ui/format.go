package ui

import (
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"

	"github.com/arthur-debert/doppel/pkg/errors"
)

// Format selects how results and errors are rendered.
type Format int

const (
	// FormatAuto picks FormatTerminal or FormatText from the output
	FormatAuto Format = iota
	// FormatTerminal is styled, colored output
	FormatTerminal
	// FormatText is plain, line-oriented output
	FormatText
	// FormatJSON is indented JSON
	FormatJSON
)

var formatNames = map[Format]string{
	FormatAuto:     "auto",
	FormatTerminal: "term",
	FormatText:     "text",
	FormatJSON:     "json",
}

// formatAliases maps every accepted --format value to its Format.
var formatAliases = map[string]Format{
	"":         FormatAuto,
	"auto":     FormatAuto,
	"term":     FormatTerminal,
	"terminal": FormatTerminal,
	"text":     FormatText,
	"plain":    FormatText,
	"json":     FormatJSON,
}

func (f Format) String() string {
	if name, ok := formatNames[f]; ok {
		return name
	}
	return "unknown"
}

// FormatNames returns the canonical format names, for flag completion.
func FormatNames() []string {
	return []string{"auto", "term", "text", "json"}
}

// ParseFormat parses a --format value, case-insensitively.
func ParseFormat(s string) (Format, error) {
	if f, ok := formatAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return f, nil
	}
	return FormatAuto, errors.Newf(errors.ErrInvalidInput, "unknown format: %s", s).
		WithDetail("format", s).
		WithDetail("supported", FormatNames())
}

// fder is implemented by *os.File and other writers backed by a descriptor.
type fder interface {
	Fd() uintptr
}

// DetectFormat picks the format for output. NO_COLOR, a descriptor that is not
// a terminal and an ASCII-only color profile all select FormatText; writers
// without a descriptor get FormatTerminal.
func DetectFormat(output io.Writer) Format {
	if os.Getenv("NO_COLOR") != "" {
		return FormatText
	}

	if f, ok := output.(fder); ok {
		fd := f.Fd()
		if !isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd) {
			return FormatText
		}
		if termenv.ColorProfile() == termenv.Ascii {
			return FormatText
		}
	}

	return FormatTerminal
}
