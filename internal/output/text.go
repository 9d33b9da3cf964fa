package output

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
)

// TextWriter streams a human-readable line per file and a closing summary.
type TextWriter struct {
	w *bufio.Writer
}

// NewTextWriter creates a text writer.
func NewTextWriter(w io.Writer) *TextWriter {
	return &TextWriter{w: bufio.NewWriter(w)}
}

// Write writes one report.
func (w *TextWriter) Write(r FileReport) error {
	if r.Failed() {
		fmt.Fprintf(w.w, "FAIL %s: %s\n", r.Path, r.Error)
		return w.w.Flush()
	}

	fmt.Fprintf(w.w, "ok   %s  %s -> %s (%.1f%%)",
		r.Path, humanize.Bytes(uint64(r.InputBytes)), humanize.Bytes(uint64(r.OutputBytes)), r.ReductionPercent)
	if removed := removedSummary(r.ElementsRemoved); removed != "" {
		fmt.Fprintf(w.w, "  removed %s", removed)
	}
	w.w.WriteByte('\n')
	for _, warning := range r.Warnings {
		fmt.Fprintf(w.w, "     warning: %s\n", warning)
	}
	return w.w.Flush()
}

// Close writes the summary line.
func (w *TextWriter) Close(s Summary) error {
	fmt.Fprintf(w.w, "%s cleaned, %d failed, %s -> %s\n",
		plural(s.Files-s.Failed, "file"), s.Failed,
		humanize.Bytes(uint64(s.InputBytes)), humanize.Bytes(uint64(s.OutputBytes)))
	return w.w.Flush()
}

func removedSummary(m map[string]int) string {
	if len(m) == 0 {
		return ""
	}
	tags := make([]string, 0, len(m))
	for tag := range m {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	parts := make([]string, len(tags))
	for i, tag := range tags {
		parts[i] = fmt.Sprintf("%s=%d", tag, m[tag])
	}
	return strings.Join(parts, ",")
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return humanize.Comma(int64(n)) + " " + noun + "s"
}
