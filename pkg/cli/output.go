package cli

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
)

// OutputFormat selects how command results are rendered.
type OutputFormat string

const (
	FormatText OutputFormat = "text" // human-readable, the default
	FormatJSON OutputFormat = "json" // indented JSON
	FormatCSV  OutputFormat = "csv"  // one row per record, for spreadsheets
)

// Formatter renders a command result. Format buffers the rendering,
// FormatTo streams it to w.
type Formatter interface {
	Format(data any) ([]byte, error)
	FormatTo(w io.Writer, data any) error
}

// Tabular is implemented by results that can render as rows. The CSV
// formatter requires it; probe tables and audit query results provide it.
type Tabular interface {
	Header() []string
	Rows() [][]string
}

// NewFormatter returns the formatter for format, falling back to text
// for anything unrecognized.
func NewFormatter(format OutputFormat) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{Indent: true}
	case FormatCSV:
		return &CSVFormatter{}
	default:
		return &TextFormatter{}
	}
}

// render buffers a FormatTo implementation.
func render(f Formatter, data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := f.FormatTo(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// TextFormatter prints the result with %v and a trailing newline. Result
// types that want readable text output implement fmt.Stringer.
type TextFormatter struct{}

func (f *TextFormatter) Format(data any) ([]byte, error) {
	return render(f, data)
}

func (f *TextFormatter) FormatTo(w io.Writer, data any) error {
	_, err := fmt.Fprintln(w, data)
	return err
}

// JSONFormatter renders the result as JSON, indented when Indent is set.
type JSONFormatter struct {
	Indent bool
}

func (f *JSONFormatter) Format(data any) ([]byte, error) {
	return render(f, data)
}

func (f *JSONFormatter) FormatTo(w io.Writer, data any) error {
	enc := json.NewEncoder(w)
	if f.Indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(data)
}

// CSVFormatter renders Tabular results as CSV, header first.
type CSVFormatter struct{}

func (f *CSVFormatter) Format(data any) ([]byte, error) {
	return render(f, data)
}

func (f *CSVFormatter) FormatTo(w io.Writer, data any) error {
	table, ok := data.(Tabular)
	if !ok {
		return fmt.Errorf("%T does not support CSV output", data)
	}

	cw := csv.NewWriter(w)
	if header := table.Header(); len(header) > 0 {
		if err := cw.Write(header); err != nil {
			return err
		}
	}
	for _, row := range table.Rows() {
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
