package output

import (
	"bufio"
	"encoding/json"
	"io"
)

// JSONWriter buffers reports and writes them as one JSON document on Close.
type JSONWriter struct {
	w      *bufio.Writer
	pretty bool
	indent string
	files  []FileReport
}

// NewJSONWriter creates a JSON writer.
func NewJSONWriter(w io.Writer, pretty bool, indent string) *JSONWriter {
	return &JSONWriter{
		w:      bufio.NewWriter(w),
		pretty: pretty,
		indent: indent,
		files:  make([]FileReport, 0),
	}
}

// Write buffers a report.
func (w *JSONWriter) Write(r FileReport) error {
	w.files = append(w.files, r)
	return nil
}

// Close writes the buffered reports and the summary.
func (w *JSONWriter) Close(s Summary) error {
	doc := document{Files: w.files, Summary: s}

	var output []byte
	var err error
	if w.pretty {
		output, err = json.MarshalIndent(doc, "", w.indent)
	} else {
		output, err = json.Marshal(doc)
	}
	if err != nil {
		return err
	}

	if _, err := w.w.Write(output); err != nil {
		return err
	}
	if err := w.w.WriteByte('\n'); err != nil {
		return err
	}
	return w.w.Flush()
}

// JSONLWriter streams one JSON object per report.
type JSONLWriter struct {
	w *bufio.Writer
}

// NewJSONLWriter creates a JSONL writer.
func NewJSONLWriter(w io.Writer) *JSONLWriter {
	return &JSONLWriter{
		w: bufio.NewWriter(w),
	}
}

// Write writes a report as a JSON line.
func (w *JSONLWriter) Write(r FileReport) error {
	output, err := json.Marshal(r)
	if err != nil {
		return err
	}

	if _, err := w.w.Write(output); err != nil {
		return err
	}
	if err := w.w.WriteByte('\n'); err != nil {
		return err
	}
	return w.w.Flush()
}

// Close flushes the writer. Lines carry no summary so every line has the
// same shape.
func (w *JSONLWriter) Close(Summary) error {
	return w.w.Flush()
}
