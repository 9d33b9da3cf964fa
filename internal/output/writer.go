// Package output writes per-file cleaning reports.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/ctclean/pkg/ctclean"
)

// Format represents report format types.
type Format string

const (
	FormatText  Format = "text"
	FormatJSON  Format = "json"
	FormatJSONL Format = "jsonl"
	FormatYAML  Format = "yaml"
)

// Formats lists the accepted report formats.
var Formats = []Format{FormatText, FormatJSON, FormatJSONL, FormatYAML}

// ParseFormat returns the Format named s. Empty means text.
func ParseFormat(s string) (Format, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return FormatText, nil
	}
	for _, f := range Formats {
		if Format(s) == f {
			return f, nil
		}
	}
	return "", fmt.Errorf("unsupported report format %q (want one of %v)", s, Formats)
}

// FileReport is the serializable outcome of cleaning one file.
type FileReport struct {
	Path               string         `json:"path" yaml:"path"`
	Backup             string         `json:"backup,omitempty" yaml:"backup,omitempty"`
	Encoding           string         `json:"encoding,omitempty" yaml:"encoding,omitempty"`
	InputBytes         int            `json:"input_bytes" yaml:"input_bytes"`
	OutputBytes        int            `json:"output_bytes" yaml:"output_bytes"`
	ReductionPercent   float64        `json:"reduction_percent" yaml:"reduction_percent"`
	IDsRenumbered      int            `json:"ids_renumbered" yaml:"ids_renumbered"`
	DelimitersInserted int            `json:"delimiters_inserted,omitempty" yaml:"delimiters_inserted,omitempty"`
	FieldsLinearized   int            `json:"fields_linearized,omitempty" yaml:"fields_linearized,omitempty"`
	ElementsRemoved    map[string]int `json:"elements_removed,omitempty" yaml:"elements_removed,omitempty"`
	Warnings           []string       `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	DurationMS         int64          `json:"duration_ms" yaml:"duration_ms"`
	Error              string         `json:"error,omitempty" yaml:"error,omitempty"`
}

// NewFileReport converts a FileResult into a report.
func NewFileReport(fr *ctclean.FileResult) FileReport {
	r := FileReport{Path: fr.Path, Backup: fr.Backup}
	if fr.Err != nil {
		r.Error = fr.Err.Error()
	}
	if fr.Result == nil {
		return r
	}

	s := fr.Result.Stats
	r.Encoding = s.Encoding
	r.InputBytes = s.InputBytes
	r.OutputBytes = s.OutputBytes
	r.ReductionPercent = s.ReductionPercent()
	r.IDsRenumbered = s.IDsRenumbered
	r.DelimitersInserted = s.DelimitersInserted
	r.FieldsLinearized = s.FieldsLinearized
	if len(s.ElementsRemoved) > 0 {
		r.ElementsRemoved = s.ElementsRemoved
	}
	r.DurationMS = s.TotalDuration.Milliseconds()
	for _, w := range fr.Result.Warnings {
		r.Warnings = append(r.Warnings, w.String())
	}
	return r
}

// Failed reports whether cleaning the file failed.
func (r FileReport) Failed() bool {
	return r.Error != ""
}

// Summary totals a run.
type Summary struct {
	Files       int   `json:"files" yaml:"files"`
	Failed      int   `json:"failed" yaml:"failed"`
	InputBytes  int   `json:"input_bytes" yaml:"input_bytes"`
	OutputBytes int   `json:"output_bytes" yaml:"output_bytes"`
	DurationMS  int64 `json:"duration_ms" yaml:"duration_ms"`
}

// Add counts r in the summary.
func (s *Summary) Add(r FileReport) {
	s.Files++
	if r.Failed() {
		s.Failed++
		return
	}
	s.InputBytes += r.InputBytes
	s.OutputBytes += r.OutputBytes
}

// Finish records the wall time of the run.
func (s *Summary) Finish(elapsed time.Duration) {
	s.DurationMS = elapsed.Milliseconds()
}

// Writer handles report serialization.
type Writer interface {
	// Write outputs the report for one file.
	Write(r FileReport) error

	// Close writes the run summary where the format has one and flushes.
	Close(s Summary) error
}

// WriterOption configures a writer.
type WriterOption func(*writerConfig)

type writerConfig struct {
	pretty bool
}

const reportIndent = "  "

// WithPretty enables pretty-printing of buffered JSON reports.
func WithPretty(enabled bool) WriterOption {
	return func(c *writerConfig) {
		c.pretty = enabled
	}
}

// NewWriter creates a writer for the specified format.
func NewWriter(w io.Writer, format Format, opts ...WriterOption) (Writer, error) {
	cfg := &writerConfig{
		pretty: true,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	switch format {
	case FormatText, "":
		return NewTextWriter(w), nil
	case FormatJSON:
		return NewJSONWriter(w, cfg.pretty, reportIndent), nil
	case FormatJSONL:
		return NewJSONLWriter(w), nil
	case FormatYAML:
		return NewYAMLWriter(w), nil
	default:
		return nil, fmt.Errorf("unsupported report format: %s", format)
	}
}

// document is the shape of buffered JSON and YAML reports.
type document struct {
	Files   []FileReport `json:"files" yaml:"files"`
	Summary Summary      `json:"summary" yaml:"summary"`
}

// WriteValue writes a single value as indented JSON or YAML.
func WriteValue(w io.Writer, format Format, v any) error {
	switch format {
	case FormatJSON, FormatJSONL:
		enc := json.NewEncoder(w)
		if format == FormatJSON {
			enc.SetIndent("", reportIndent)
		}
		return enc.Encode(v)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported value format: %s", format)
	}
}
