// Package ui renders doppel results, engine listings and errors in
// terminal (rich), text (plain) and JSON formats.
package ui

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"strings"

	"github.com/pterm/pterm"

	"github.com/arthur-debert/doppel/pkg/doppel"
	"github.com/arthur-debert/doppel/pkg/errors"
)

// EngineInfo describes one registered engine.
type EngineInfo struct {
	Name      string `json:"name"`
	Extension string `json:"extension"`
}

// Renderer is the common interface for all output renderers.
type Renderer interface {
	// RenderResult reports a successful run.
	RenderResult(result *doppel.Result) error

	// RenderEngines lists the available engines.
	RenderEngines(engines []EngineInfo) error

	// RenderError renders an error with appropriate formatting.
	RenderError(err error) error
}

// NewRenderer creates a new renderer based on the specified format.
// It automatically detects terminal capabilities when format is Auto.
func NewRenderer(format Format, output io.Writer) (Renderer, error) {
	switch format {
	case FormatAuto:
		return NewRenderer(DetectFormat(output), output)
	case FormatTerminal:
		return &terminalRenderer{output: output}, nil
	case FormatText:
		return &textRenderer{output: output}, nil
	case FormatJSON:
		encoder := json.NewEncoder(output)
		encoder.SetIndent("", "  ")
		return &jsonRenderer{encoder: encoder}, nil
	default:
		return nil, errors.Newf(errors.ErrInvalidInput, "unknown format: %v", format)
	}
}

type terminalRenderer struct {
	output io.Writer
}

func (r *terminalRenderer) RenderResult(result *doppel.Result) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s %s %s\n",
		SuccessStyle.Render("✓ Copied"),
		PathStyle.Render(result.Paths.Source),
		MutedStyle.Render("→"),
		PathStyle.Render(result.Paths.Dest))

	if len(result.Compiled) == 0 {
		b.WriteString(MutedStyle.Render("No templates compiled") + "\n")
	} else {
		b.WriteString(TitleStyle.Render(fmt.Sprintf("Compiled %d %s", len(result.Compiled), plural(len(result.Compiled), "template"))) + "\n")
		for _, path := range result.Compiled {
			b.WriteString(ListItemStyle.Render("• "+PathStyle.Render(path)) + "\n")
		}
	}

	_, err := io.WriteString(r.output, b.String())
	return err
}

func (r *terminalRenderer) RenderEngines(engines []EngineInfo) error {
	data := pterm.TableData{{"ENGINE", "EXTENSION"}}
	for _, e := range engines {
		data = append(data, []string{e.Name, "." + e.Extension})
	}

	table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(r.output, table)
	return err
}

func (r *terminalRenderer) RenderError(err error) error {
	_, werr := fmt.Fprintln(r.output, ErrorStyle.Render("Error:")+" "+Message(err))
	return werr
}

type textRenderer struct {
	output io.Writer
}

func (r *textRenderer) RenderResult(result *doppel.Result) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Copied %s -> %s\n", result.Paths.Source, result.Paths.Dest)
	fmt.Fprintf(&b, "Compiled %d %s\n", len(result.Compiled), plural(len(result.Compiled), "template"))
	for _, path := range result.Compiled {
		fmt.Fprintf(&b, "  %s\n", path)
	}
	_, err := io.WriteString(r.output, b.String())
	return err
}

func (r *textRenderer) RenderEngines(engines []EngineInfo) error {
	var b strings.Builder
	for _, e := range engines {
		fmt.Fprintf(&b, "%s\t.%s\n", e.Name, e.Extension)
	}
	_, err := io.WriteString(r.output, b.String())
	return err
}

func (r *textRenderer) RenderError(err error) error {
	_, werr := fmt.Fprintln(r.output, "Error: "+Message(err))
	return werr
}

type jsonRenderer struct {
	encoder *json.Encoder
}

type jsonResult struct {
	Source   string   `json:"source"`
	Dest     string   `json:"dest"`
	Compiled []string `json:"compiled"`
}

type jsonError struct {
	Code    errors.ErrorCode       `json:"code"`
	Error   string                 `json:"error"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func (r *jsonRenderer) RenderResult(result *doppel.Result) error {
	compiled := result.Compiled
	if compiled == nil {
		compiled = []string{}
	}
	return r.encoder.Encode(jsonResult{
		Source:   result.Paths.Source,
		Dest:     result.Paths.Dest,
		Compiled: compiled,
	})
}

func (r *jsonRenderer) RenderEngines(engines []EngineInfo) error {
	if engines == nil {
		engines = []EngineInfo{}
	}
	return r.encoder.Encode(engines)
}

func (r *jsonRenderer) RenderError(err error) error {
	return r.encoder.Encode(jsonError{
		Code:    errors.GetErrorCode(err),
		Error:   Message(err),
		Details: errors.GetErrorDetails(err),
	})
}

// Message returns the user-facing text of err: the message of a coded error
// without its code prefix, followed by the wrapped cause if any.
func Message(err error) string {
	var de *errors.DoppelError
	if !stderrors.As(err, &de) {
		return err.Error()
	}
	if de.Wrapped != nil {
		return de.Message + ": " + de.Wrapped.Error()
	}
	return de.Message
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
