package output

import (
	"bufio"
	"io"

	"gopkg.in/yaml.v3"
)

// YAMLWriter buffers reports and writes them as one YAML document on Close.
type YAMLWriter struct {
	w     *bufio.Writer
	files []FileReport
}

// NewYAMLWriter creates a YAML writer.
func NewYAMLWriter(w io.Writer) *YAMLWriter {
	return &YAMLWriter{
		w:     bufio.NewWriter(w),
		files: make([]FileReport, 0),
	}
}

// Write buffers a report.
func (w *YAMLWriter) Write(r FileReport) error {
	w.files = append(w.files, r)
	return nil
}

// Close writes the buffered reports and the summary.
func (w *YAMLWriter) Close(s Summary) error {
	encoder := yaml.NewEncoder(w.w)
	encoder.SetIndent(2)

	if err := encoder.Encode(document{Files: w.files, Summary: s}); err != nil {
		return err
	}
	if err := encoder.Close(); err != nil {
		return err
	}
	return w.w.Flush()
}
