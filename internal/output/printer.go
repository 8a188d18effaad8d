// Package output renders command results to the terminal.
//
// [Printer] writes human-oriented text styled with lipgloss, or structured
// JSON/YAML when a machine-readable format is selected. Styles are derived
// from the destination writer, so output to files and buffers carries no
// escape codes.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"
)

// Format selects how results are written.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat validates a --output value. Empty means text.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON, FormatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text, json or yaml)", s)
	}
}

// Printer writes styled or structured output.
type Printer struct {
	w      io.Writer
	format Format

	success lipgloss.Style
	failure lipgloss.Style
	label   lipgloss.Style
	muted   lipgloss.Style
}

// NewPrinter creates a text [Printer] writing to stdout.
func NewPrinter() *Printer {
	return NewPrinterWithWriter(os.Stdout)
}

// NewPrinterWithWriter creates a text [Printer] writing to w.
func NewPrinterWithWriter(w io.Writer) *Printer {
	r := lipgloss.NewRenderer(w)
	return &Printer{
		w:       w,
		format:  FormatText,
		success: r.NewStyle().Foreground(lipgloss.Color("10")).Bold(true),
		failure: r.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		label:   r.NewStyle().Foreground(lipgloss.Color("12")).Width(14),
		muted:   r.NewStyle().Foreground(lipgloss.Color("8")),
	}
}

// SetFormat switches between text and structured output.
func (p *Printer) SetFormat(f Format) {
	p.format = f
}

// Format returns the current output format.
func (p *Printer) Format() Format {
	return p.format
}

// Structured reports whether results are written as JSON or YAML.
func (p *Printer) Structured() bool {
	return p.format == FormatJSON || p.format == FormatYAML
}

// Success writes a passing line prefixed with a check mark.
func (p *Printer) Success(format string, args ...any) {
	fmt.Fprintln(p.w, p.success.Render("✓ "+fmt.Sprintf(format, args...)))
}

// Failure writes a failing line prefixed with a cross.
func (p *Printer) Failure(format string, args ...any) {
	fmt.Fprintln(p.w, p.failure.Render("✗ "+fmt.Sprintf(format, args...)))
}

// Field writes an aligned "label value" line.
func (p *Printer) Field(label string, value any) {
	fmt.Fprintln(p.w, p.label.Render(label)+fmt.Sprint(value))
}

// Progress writes a "[i/n] message" line.
func (p *Printer) Progress(index, total int, format string, args ...any) {
	prefix := p.muted.Render(fmt.Sprintf("[%d/%d]", index, total))
	fmt.Fprintln(p.w, prefix+" "+fmt.Sprintf(format, args...))
}

// Write encodes v as JSON or YAML according to the format. In text mode it
// falls back to the value's default formatting.
func (p *Printer) Write(v any) error {
	switch p.format {
	case FormatJSON:
		enc := json.NewEncoder(p.w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case FormatYAML:
		enc := yaml.NewEncoder(p.w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		_, err := fmt.Fprintf(p.w, "%+v\n", v)
		return err
	}
}
