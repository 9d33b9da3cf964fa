package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/ctclean/pkg/ctclean"
)

func cleanedReport() FileReport {
	stats := ctclean.NewStats()
	stats.InputBytes = 4000
	stats.OutputBytes = 3000
	stats.Encoding = "utf-8"
	stats.IDsRenumbered = 12
	stats.RecordRemoval("LastState", 3)
	stats.RecordRemoval("Color", 1)
	stats.TotalDuration = 5 * time.Millisecond

	res := &ctclean.Result{Stats: stats}
	res.AddWarning("repair", "inserted 2 missing delimiters", "")

	return NewFileReport(&ctclean.FileResult{
		Path:   "tables/game.CT",
		Backup: "tables/game.CT.bak",
		Result: res,
	})
}

func failedReport() FileReport {
	return NewFileReport(&ctclean.FileResult{
		Path: "tables/bad.CT",
		Err:  errors.New("parse table: unexpected EOF"),
	})
}

// --- NewWriter Factory Tests ---

func TestNewWriter(t *testing.T) {
	tests := []struct {
		format Format
		want   string
	}{
		{FormatText, "*output.TextWriter"},
		{"", "*output.TextWriter"},
		{FormatJSON, "*output.JSONWriter"},
		{FormatJSONL, "*output.JSONLWriter"},
		{FormatYAML, "*output.YAMLWriter"},
	}

	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			w, err := NewWriter(&bytes.Buffer{}, tt.format)
			if err != nil {
				t.Fatalf("NewWriter() error = %v", err)
			}
			if got := fmt.Sprintf("%T", w); got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestNewWriter_UnsupportedFormat(t *testing.T) {
	_, err := NewWriter(&bytes.Buffer{}, Format("xml"))
	if err == nil {
		t.Fatal("expected error for unsupported format")
	}
	if !strings.Contains(err.Error(), "unsupported") {
		t.Errorf("expected error containing 'unsupported', got %v", err)
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatText, false},
		{"text", FormatText, false},
		{" JSON ", FormatJSON, false},
		{"jsonl", FormatJSONL, false},
		{"yaml", FormatYAML, false},
		{"xml", "", true},
		{"yml", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseFormat(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNewWriter_Compact(t *testing.T) {
	buf := &bytes.Buffer{}
	w, err := NewWriter(buf, FormatJSON, WithPretty(false))
	if err != nil {
		t.Fatalf("NewWriter() error = %v", err)
	}
	if err := w.Write(cleanedReport()); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := w.Close(Summary{Files: 1}); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if got := strings.Count(buf.String(), "\n"); got != 1 {
		t.Errorf("compact report should be one line, got %d:\n%s", got, buf.String())
	}
}

// --- Report Tests ---

func TestNewFileReport(t *testing.T) {
	r := cleanedReport()

	if r.Failed() {
		t.Fatal("expected a successful report")
	}
	if r.ReductionPercent != 25 {
		t.Errorf("ReductionPercent = %v, want 25", r.ReductionPercent)
	}
	if r.ElementsRemoved["LastState"] != 3 {
		t.Errorf("LastState removals = %d, want 3", r.ElementsRemoved["LastState"])
	}
	if r.DurationMS != 5 {
		t.Errorf("DurationMS = %d, want 5", r.DurationMS)
	}
	if len(r.Warnings) != 1 || r.Warnings[0] != "[repair] inserted 2 missing delimiters" {
		t.Errorf("unexpected warnings: %v", r.Warnings)
	}
}

func TestNewFileReport_Failed(t *testing.T) {
	r := failedReport()
	if !r.Failed() {
		t.Fatal("expected a failed report")
	}
	if r.InputBytes != 0 || r.ElementsRemoved != nil {
		t.Errorf("failed report should carry no stats: %+v", r)
	}
}

func TestSummary(t *testing.T) {
	var s Summary
	s.Add(cleanedReport())
	s.Add(failedReport())
	s.Finish(1500 * time.Millisecond)

	want := Summary{Files: 2, Failed: 1, InputBytes: 4000, OutputBytes: 3000, DurationMS: 1500}
	if s != want {
		t.Errorf("Summary = %+v, want %+v", s, want)
	}
}

// --- Writer Tests ---

func TestTextWriter(t *testing.T) {
	buf := &bytes.Buffer{}
	w := NewTextWriter(buf)

	var s Summary
	for _, r := range []FileReport{cleanedReport(), failedReport()} {
		s.Add(r)
		if err := w.Write(r); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
	}
	if err := w.Close(s); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	want := "ok   tables/game.CT  4.0 kB -> 3.0 kB (25.0%)  removed Color=1,LastState=3\n" +
		"     warning: [repair] inserted 2 missing delimiters\n" +
		"FAIL tables/bad.CT: parse table: unexpected EOF\n" +
		"1 file cleaned, 1 failed, 4.0 kB -> 3.0 kB\n"
	if buf.String() != want {
		t.Errorf("unexpected output:\n%s\nwant:\n%s", buf.String(), want)
	}
}

func TestJSONWriter(t *testing.T) {
	for _, pretty := range []bool{true, false} {
		buf := &bytes.Buffer{}
		w := NewJSONWriter(buf, pretty, "  ")

		if err := w.Write(cleanedReport()); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
		if err := w.Write(failedReport()); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
		if buf.Len() != 0 {
			t.Fatal("JSON output should be buffered until Close")
		}
		if err := w.Close(Summary{Files: 2, Failed: 1}); err != nil {
			t.Fatalf("Close() error = %v", err)
		}

		var doc document
		if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
			t.Fatalf("failed to unmarshal output: %v", err)
		}
		if len(doc.Files) != 2 || doc.Summary.Failed != 1 {
			t.Errorf("unexpected document: %+v", doc)
		}
		if doc.Files[0].Backup != "tables/game.CT.bak" {
			t.Errorf("Backup = %q", doc.Files[0].Backup)
		}
		if pretty != strings.Contains(buf.String(), "\n  ") {
			t.Errorf("pretty=%v output:\n%s", pretty, buf.String())
		}
	}
}

func TestJSONLWriter(t *testing.T) {
	buf := &bytes.Buffer{}
	w := NewJSONLWriter(buf)

	if err := w.Write(cleanedReport()); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if !strings.HasSuffix(buf.String(), "\n") {
		t.Fatal("JSONL lines should be written immediately")
	}
	if err := w.Write(failedReport()); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := w.Close(Summary{}); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	var r FileReport
	if err := json.Unmarshal([]byte(lines[1]), &r); err != nil {
		t.Fatalf("failed to unmarshal line: %v", err)
	}
	if r.Path != "tables/bad.CT" || !r.Failed() {
		t.Errorf("unexpected report: %+v", r)
	}
}

func TestYAMLWriter(t *testing.T) {
	buf := &bytes.Buffer{}
	w := NewYAMLWriter(buf)

	if err := w.Write(cleanedReport()); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := w.Close(Summary{Files: 1}); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	var doc document
	if err := yaml.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("failed to unmarshal output: %v", err)
	}
	if len(doc.Files) != 1 || doc.Files[0].IDsRenumbered != 12 {
		t.Errorf("unexpected document: %+v", doc)
	}
	if !strings.Contains(buf.String(), "elements_removed:") {
		t.Errorf("expected snake_case keys, got:\n%s", buf.String())
	}
}

func TestWriteValue(t *testing.T) {
	v := map[string]int{"files": 3}

	tests := []struct {
		format Format
		want   string
	}{
		{FormatJSON, "{\n  \"files\": 3\n}\n"},
		{FormatJSONL, "{\"files\":3}\n"},
		{FormatYAML, "files: 3\n"},
	}
	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			buf := &bytes.Buffer{}
			if err := WriteValue(buf, tt.format, v); err != nil {
				t.Fatalf("WriteValue() error = %v", err)
			}
			if buf.String() != tt.want {
				t.Errorf("got %q, want %q", buf.String(), tt.want)
			}
		})
	}

	if err := WriteValue(&bytes.Buffer{}, FormatText, v); err == nil {
		t.Error("expected error for text format")
	}
}
