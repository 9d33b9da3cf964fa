package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/spf13/pflag"

	"github.com/jmylchreest/ctclean/pkg/ctclean"
)

// resetCleanFlags restores every clean flag to its default when the test
// ends, since cobra keeps flag values between Execute calls.
func resetCleanFlags(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		cleanCmd.Flags().VisitAll(func(f *pflag.Flag) {
			if sv, ok := f.Value.(pflag.SliceValue); ok {
				var vals []string
				if def := strings.Trim(f.DefValue, "[]"); def != "" {
					vals = strings.Split(def, ",")
				}
				_ = sv.Replace(vals)
			} else {
				_ = f.Value.Set(f.DefValue)
			}
			f.Changed = false
		})
	})
}

// executeCLI runs the root command with args and returns what it wrote to
// stdout.
func executeCLI(t *testing.T, args ...string) (*bytes.Buffer, error) {
	t.Helper()
	resetCleanFlags(t)

	buf := &bytes.Buffer{}
	rootCmd.SetOut(buf)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})
	return buf, Execute()
}

type cliReport struct {
	Files []struct {
		Path            string         `json:"path"`
		Backup          string         `json:"backup"`
		IDsRenumbered   int            `json:"ids_renumbered"`
		ElementsRemoved map[string]int `json:"elements_removed"`
	} `json:"files"`
	Summary struct {
		Files  int `json:"files"`
		Failed int `json:"failed"`
	} `json:"summary"`
}

func decodeReport(t *testing.T, buf *bytes.Buffer) cliReport {
	t.Helper()
	var doc cliReport
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("report is not JSON: %v\n%s", err, buf.String())
	}
	return doc
}

const cliTable = "<CheatTable><CheatEntries><CheatEntry><ID>9</ID><LastState/></CheatEntry></CheatEntries></CheatTable>"

func writeTable(t *testing.T) (dir, path string) {
	t.Helper()
	dir = t.TempDir()
	path = filepath.Join(dir, "game.CT")
	if err := os.WriteFile(path, []byte(cliTable), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir, path
}

func TestNormalizeExtensions(t *testing.T) {
	got := normalizeExtensions([]string{"ct", ".CT", "*.cetrainer", " ", ""})
	want := []string{".ct", ".CT", ".cetrainer"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("normalizeExtensions() = %v, want %v", got, want)
	}
}

func TestParseMaxSize(t *testing.T) {
	tests := []struct {
		in      string
		want    uint64
		wantErr bool
	}{
		{"", 0, false},
		{"0", 0, false},
		{"1KB", 1000, false},
		{"2MiB", 2 << 20, false},
		{"lots", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseMaxSize(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseMaxSize(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("parseMaxSize(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestCleanCommand_DryRun(t *testing.T) {
	dir, path := writeTable(t)

	buf, err := executeCLI(t, "clean", "--quiet", "--full", "--dry-run", "--report", "json", dir)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	doc := decodeReport(t, buf)
	if doc.Summary.Files != 1 || doc.Summary.Failed != 0 {
		t.Errorf("unexpected summary: %+v", doc.Summary)
	}
	if len(doc.Files) != 1 || doc.Files[0].Path != path || doc.Files[0].ElementsRemoved["LastState"] != 1 {
		t.Errorf("unexpected files: %+v", doc.Files)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != cliTable {
		t.Error("dry run must not modify the table")
	}
	if _, err := os.Stat(path + ".bak"); !os.IsNotExist(err) {
		t.Error("dry run must not create a backup")
	}
}

func TestCleanCommand_DuplicateInputs(t *testing.T) {
	dir, path := writeTable(t)

	// The directory and the file inside it name the same table.
	buf, err := executeCLI(t, "clean", "--quiet", "-j", "1", "--report", "json", dir, path)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	doc := decodeReport(t, buf)
	if doc.Summary.Files != 1 {
		t.Errorf("table cleaned %d times, want 1", doc.Summary.Files)
	}

	backup, err := os.ReadFile(path + ".bak")
	if err != nil {
		t.Fatal(err)
	}
	if string(backup) != cliTable {
		t.Errorf("backup must hold the original table, got %q", backup)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(got), "<ID>1</ID>") {
		t.Errorf("table not cleaned: %q", got)
	}
}

func TestCleanCommand_UnknownReportFormat(t *testing.T) {
	dir, path := writeTable(t)

	_, err := executeCLI(t, "clean", "--quiet", "--report", "xml", dir)
	if err == nil || !strings.Contains(err.Error(), "unsupported report format") {
		t.Fatalf("Execute() error = %v, want unsupported report format", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != cliTable {
		t.Error("table must not be touched when the report format is rejected")
	}
	if _, err := os.Stat(path + ".bak"); !os.IsNotExist(err) {
		t.Error("no backup expected when the report format is rejected")
	}
}

func TestOptionsFromConfig(t *testing.T) {
	initConfig()

	full := ctclean.Full()

	tests := []struct {
		name  string
		env   map[string]string
		flags map[string]string
		want  func() ctclean.Options
	}{
		{
			name: "defaults",
			want: ctclean.DefaultOptions,
		},
		{
			name:  "full flag",
			flags: map[string]string{"full": "true"},
			want:  ctclean.Full,
		},
		{
			name:  "full with individual flags",
			flags: map[string]string{"full": "true", "linear-lua": "true", "remove-signature": "true", "no-linear-xml": "true"},
			want: func() ctclean.Options {
				o := full
				o.RemoveSignature = true
				o.IndentXML = true
				return o
			},
		},
		{
			name:  "individual flags add to defaults",
			flags: map[string]string{"repair": "true", "compact": "true", "crlf": "true"},
			want: func() ctclean.Options {
				o := ctclean.DefaultOptions()
				o.Repair = true
				o.Compact = true
				o.CRLF = true
				return o
			},
		},
		{
			name: "environment",
			env: map[string]string{
				"CTCLEAN_FULL":             "true",
				"CTCLEAN_REMOVE_SIGNATURE": "1",
				"CTCLEAN_NO_BACKUP":        "true",
				"CTCLEAN_DRY_RUN":          "true",
				"CTCLEAN_CONCURRENCY":      "3",
				"CTCLEAN_EXT":              "ct *.cetrainer",
			},
			want: func() ctclean.Options {
				o := full
				o.RemoveSignature = true
				o.Backup = false
				o.DryRun = true
				o.Concurrency = 3
				o.Extensions = []string{".ct", ".cetrainer"}
				return o
			},
		},
		{
			name:  "flag beats environment",
			env:   map[string]string{"CTCLEAN_CONCURRENCY": "5", "CTCLEAN_LINEAR_LUA": "true"},
			flags: map[string]string{"concurrency": "2"},
			want: func() ctclean.Options {
				o := ctclean.DefaultOptions()
				o.LinearizeScripts = true
				o.Concurrency = 2
				return o
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetCleanFlags(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			for k, v := range tt.flags {
				if err := cleanCmd.Flags().Set(k, v); err != nil {
					t.Fatalf("set --%s: %v", k, err)
				}
			}

			got := optionsFromConfig()
			if want := tt.want(); !reflect.DeepEqual(got, want) {
				t.Errorf("optionsFromConfig() =\n%+v\nwant\n%+v", got, want)
			}
		})
	}
}
