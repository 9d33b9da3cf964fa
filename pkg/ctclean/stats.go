package ctclean

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// Stats captures what the cleaner did to one table.
type Stats struct {
	// Size metrics
	InputBytes  int    `json:"input_bytes" yaml:"input_bytes"`
	OutputBytes int    `json:"output_bytes" yaml:"output_bytes"`
	Encoding    string `json:"encoding" yaml:"encoding"`

	// Edits
	DelimitersInserted int            `json:"delimiters_inserted" yaml:"delimiters_inserted"`
	IDsRenumbered      int            `json:"ids_renumbered" yaml:"ids_renumbered"`
	FieldsLinearized   int            `json:"fields_linearized" yaml:"fields_linearized"`
	ElementsRemoved    map[string]int `json:"elements_removed" yaml:"elements_removed"` // tag -> count

	// Timing, serialized as whole milliseconds by MarshalJSON and MarshalYAML
	ParseDuration     time.Duration `json:"-" yaml:"-"`
	TransformDuration time.Duration `json:"-" yaml:"-"`
	OutputDuration    time.Duration `json:"-" yaml:"-"`
	TotalDuration     time.Duration `json:"-" yaml:"-"`
}

type statsFields Stats

type statsWire struct {
	statsFields `yaml:",inline"`

	ParseDurationMS     int64 `json:"parse_duration_ms" yaml:"parse_duration_ms"`
	TransformDurationMS int64 `json:"transform_duration_ms" yaml:"transform_duration_ms"`
	OutputDurationMS    int64 `json:"output_duration_ms" yaml:"output_duration_ms"`
	TotalDurationMS     int64 `json:"total_duration_ms" yaml:"total_duration_ms"`
}

func (s Stats) wire() statsWire {
	return statsWire{
		statsFields:         statsFields(s),
		ParseDurationMS:     s.ParseDuration.Milliseconds(),
		TransformDurationMS: s.TransformDuration.Milliseconds(),
		OutputDurationMS:    s.OutputDuration.Milliseconds(),
		TotalDurationMS:     s.TotalDuration.Milliseconds(),
	}
}

// MarshalJSON writes the durations as *_duration_ms integers.
func (s Stats) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.wire())
}

// MarshalYAML writes the durations as *_duration_ms integers.
func (s Stats) MarshalYAML() (any, error) {
	return s.wire(), nil
}

// NewStats creates a Stats with initialized maps.
func NewStats() *Stats {
	return &Stats{
		ElementsRemoved: make(map[string]int),
	}
}

// ReductionPercent returns the percentage reduction in size.
func (s *Stats) ReductionPercent() float64 {
	if s.InputBytes == 0 {
		return 0
	}
	return float64(s.InputBytes-s.OutputBytes) / float64(s.InputBytes) * 100
}

// TotalElementsRemoved returns the sum of all removed elements.
func (s *Stats) TotalElementsRemoved() int {
	total := 0
	for _, n := range s.ElementsRemoved {
		total += n
	}
	return total
}

// RecordRemoval adds count removals of tag.
func (s *Stats) RecordRemoval(tag string, count int) {
	if count > 0 {
		s.ElementsRemoved[tag] += count
	}
}

// String returns a human-readable summary of the stats.
func (s *Stats) String() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Size: %s -> %s (%.1f%% reduction)\n",
		humanize.Bytes(uint64(s.InputBytes)), humanize.Bytes(uint64(s.OutputBytes)), s.ReductionPercent()))

	sb.WriteString(fmt.Sprintf("IDs renumbered: %d\n", s.IDsRenumbered))

	if s.DelimitersInserted > 0 {
		sb.WriteString(fmt.Sprintf("Delimiters inserted: %d\n", s.DelimitersInserted))
	}
	if s.FieldsLinearized > 0 {
		sb.WriteString(fmt.Sprintf("Script fields linearized: %d\n", s.FieldsLinearized))
	}

	if len(s.ElementsRemoved) > 0 {
		tags := make([]string, 0, len(s.ElementsRemoved))
		for tag := range s.ElementsRemoved {
			tags = append(tags, tag)
		}
		sort.Strings(tags)
		parts := make([]string, len(tags))
		for i, tag := range tags {
			parts[i] = fmt.Sprintf("%s=%d", tag, s.ElementsRemoved[tag])
		}
		sb.WriteString(fmt.Sprintf("Removed %d: %s\n", s.TotalElementsRemoved(), strings.Join(parts, ", ")))
	}

	sb.WriteString(fmt.Sprintf("Timing: parse=%v, transform=%v, output=%v, total=%v\n",
		s.ParseDuration.Round(time.Microsecond),
		s.TransformDuration.Round(time.Microsecond),
		s.OutputDuration.Round(time.Microsecond),
		s.TotalDuration.Round(time.Microsecond)))

	return sb.String()
}

// Warning represents a non-fatal issue encountered during cleaning.
type Warning struct {
	Phase   string `json:"phase" yaml:"phase"`     // "decode", "repair", "transform"
	Message string `json:"message" yaml:"message"` // Human-readable description
	Context string `json:"context,omitempty" yaml:"context,omitempty"`
}

// String returns a formatted warning message.
func (w Warning) String() string {
	if w.Context != "" {
		return fmt.Sprintf("[%s] %s (context: %s)", w.Phase, w.Message, w.Context)
	}
	return fmt.Sprintf("[%s] %s", w.Phase, w.Message)
}

// Result contains the output of cleaning one table.
type Result struct {
	// Content is the cleaned table text.
	Content string `json:"-" yaml:"-"`

	// Stats contains metrics about what was done.
	Stats *Stats `json:"stats" yaml:"stats"`

	// Warnings contains non-fatal issues encountered.
	Warnings []Warning `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// AddWarning adds a warning to the result.
func (r *Result) AddWarning(phase, message, context string) {
	r.Warnings = append(r.Warnings, Warning{
		Phase:   phase,
		Message: message,
		Context: context,
	})
}

// HasWarnings returns true if any warnings were recorded.
func (r *Result) HasWarnings() bool {
	return len(r.Warnings) > 0
}
