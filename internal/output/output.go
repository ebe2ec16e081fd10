// Package output renders command results as human-readable text or as
// JSON/YAML for scripting.
package output

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Format represents an output format.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Writer emits values in the format selected on the command line.
// Commands with rich text renderings (doctor's styled report, update
// progress) check IsText and render themselves; structured formats go
// through Write.
type Writer struct {
	format Format
	w      io.Writer
}

// NewWriter creates a writer emitting to w in the given format.
func NewWriter(w io.Writer, format Format) *Writer {
	return &Writer{format: format, w: w}
}

// IsText reports whether the writer is in human-readable mode.
func (w *Writer) IsText() bool { return w.format == FormatText }

// Raw exposes the underlying stream for custom text rendering.
func (w *Writer) Raw() io.Writer { return w.w }

// Write outputs the given value in the configured format.
func (w *Writer) Write(v any) error {
	switch w.format {
	case FormatJSON:
		enc := json.NewEncoder(w.w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case FormatYAML:
		enc := yaml.NewEncoder(w.w)
		enc.SetIndent(2)
		return enc.Encode(v)
	default:
		if s, ok := v.(fmt.Stringer); ok {
			_, err := fmt.Fprintln(w.w, s.String())
			return err
		}
		_, err := fmt.Fprintf(w.w, "%+v\n", v)
		return err
	}
}

// ParseFormat parses a format string into a Format.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "text", "":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown format: %s", s)
	}
}
