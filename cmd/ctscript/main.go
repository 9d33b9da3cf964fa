// ctscript is a standalone tool for trying out the delimiter repair and script
// linearization passes on their own, and the full table cleaner on a file.
//
// Usage:
//
//	ctscript [options] [file]
//
// Examples:
//
//	# Linearize a Lua script read from stdin
//	ctscript -mode script < trainer.lua
//
//	# Repair a damaged table and show how many delimiters were added
//	ctscript -mode repair -f broken.CT
//
//	# One linearization pass with every line treated as script
//	ctscript -mode pass -active snippet.lua
//
//	# Clean a whole table in memory with the full preset
//	ctscript -mode table -preset full MyGame.CT
//
//	# Compare presets on a table
//	ctscript -compare MyGame.CT
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/jmylchreest/ctclean/internal/textio"
	"github.com/jmylchreest/ctclean/internal/version"
	"github.com/jmylchreest/ctclean/pkg/cleaner/linear"
	"github.com/jmylchreest/ctclean/pkg/cleaner/repair"
	"github.com/jmylchreest/ctclean/pkg/ctclean"
)

var (
	// Input options
	fileInput = flag.String("f", "", "Read input from file instead of the first argument or stdin")

	// Pass options
	mode   = flag.String("mode", "script", "Pass to run: repair, script, raw, pass, table")
	active = flag.Bool("active", false, "With -mode pass, treat text outside {$lua} blocks as script")
	preset = flag.String("preset", "default", "With -mode table: default, full")

	// Output options
	outputFile  = flag.String("o", "", "Write output to file")
	statsOnly   = flag.Bool("stats-only", false, "Only show stats, don't output content")
	jsonStats   = flag.Bool("json", false, "Output stats as JSON")
	quiet       = flag.Bool("q", false, "Quiet mode (no stats, only content)")
	showVersion = flag.Bool("version", false, "Print version and exit")

	// Compare mode
	compare = flag.Bool("compare", false, "Compare table presets")
)

// passStats describes one run of a text pass.
type passStats struct {
	Source      string        `json:"source"`
	Mode        string        `json:"mode"`
	InputBytes  int           `json:"input_bytes"`
	OutputBytes int           `json:"output_bytes"`
	Inserted    int           `json:"delimiters_inserted,omitempty"`
	Duration    time.Duration `json:"duration_ns"`
}

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "ctscript - Test tool for the cheat table text passes\n\n")
		fmt.Fprintf(os.Stderr, "Usage: ctscript [options] [file]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  ctscript -mode script < trainer.lua\n")
		fmt.Fprintf(os.Stderr, "  ctscript -mode repair -f broken.CT\n")
		fmt.Fprintf(os.Stderr, "  ctscript -mode table -preset full MyGame.CT\n")
		fmt.Fprintf(os.Stderr, "  ctscript -compare MyGame.CT\n")
	}

	flag.Parse()

	if *showVersion {
		fmt.Println(version.Full("ctscript"))
		return
	}

	raw, source, err := readInput()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if len(raw) == 0 {
		fmt.Fprintf(os.Stderr, "Error: empty input\n")
		os.Exit(1)
	}

	if *compare {
		runComparison(raw, source)
		return
	}

	var content string
	if *mode == "table" {
		content, err = runTable(raw, source)
	} else {
		content, err = runPass(raw, source)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *statsOnly {
		return
	}
	if *outputFile != "" {
		if err := os.WriteFile(*outputFile, []byte(content), 0644); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing output file: %v\n", err)
			os.Exit(1)
		}
		if !*quiet {
			fmt.Fprintf(os.Stderr, "\nWritten to %s\n", *outputFile)
		}
		return
	}
	if !*quiet {
		fmt.Println("\n--- Output ---")
	}
	fmt.Print(content)
}

func readInput() ([]byte, string, error) {
	path := *fileInput
	if path == "" && flag.NArg() > 0 {
		path = flag.Arg(0)
	}
	if path == "" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, "", fmt.Errorf("reading stdin: %w", err)
		}
		return data, "stdin", nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("reading file %s: %w", path, err)
	}
	return data, path, nil
}

// runPass runs one of the core text passes.
func runPass(raw []byte, source string) (string, error) {
	text, _, err := textio.Decode(raw)
	if err != nil {
		return "", err
	}

	start := time.Now()
	stats := passStats{Source: source, Mode: *mode, InputBytes: len(text)}

	var out string
	switch *mode {
	case "repair":
		r := repair.New()
		out, _ = r.Clean(text)
		stats.Inserted = r.Inserted()
	case "script":
		out = linear.Script(text)
	case "raw":
		out = linear.Raw(text)
	case "pass":
		out = linear.Linearize(text, *active)
	default:
		return "", fmt.Errorf("unknown mode: %s (use repair, script, raw, pass or table)", *mode)
	}
	stats.Duration = time.Since(start)
	stats.OutputBytes = len(out)

	if !*quiet {
		if *jsonStats {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			_ = enc.Encode(stats)
		} else {
			fmt.Fprintf(os.Stderr, "\n=== %s ===\n", stats.Mode)
			fmt.Fprintf(os.Stderr, "Source: %s\n", stats.Source)
			fmt.Fprintf(os.Stderr, "Size: %s -> %s\n",
				humanize.Bytes(uint64(stats.InputBytes)), humanize.Bytes(uint64(stats.OutputBytes)))
			if stats.Mode == "repair" {
				fmt.Fprintf(os.Stderr, "Delimiters inserted: %d\n", stats.Inserted)
			}
			fmt.Fprintf(os.Stderr, "Time: %v\n", stats.Duration)
		}
	}
	return out, nil
}

func presetOptions(name string) (ctclean.Options, error) {
	switch name {
	case "default", "":
		return ctclean.DefaultOptions(), nil
	case "full":
		return ctclean.Full(), nil
	default:
		return ctclean.Options{}, fmt.Errorf("unknown preset: %s (use default or full)", name)
	}
}

// runTable cleans a whole table in memory.
func runTable(raw []byte, source string) (string, error) {
	opts, err := presetOptions(*preset)
	if err != nil {
		return "", err
	}
	c, err := ctclean.New(opts)
	if err != nil {
		return "", err
	}
	result, err := c.Clean(raw)
	if err != nil {
		return "", err
	}

	if !*quiet {
		if *jsonStats {
			out := struct {
				Source   string            `json:"source"`
				Preset   string            `json:"preset"`
				Stats    *ctclean.Stats    `json:"stats"`
				Reduced  float64           `json:"reduction_percent"`
				Warnings []ctclean.Warning `json:"warnings,omitempty"`
			}{source, *preset, result.Stats, result.Stats.ReductionPercent(), result.Warnings}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			_ = enc.Encode(out)
		} else {
			fmt.Fprintf(os.Stderr, "\n=== Table Cleaner Stats (%s) ===\n", *preset)
			fmt.Fprintf(os.Stderr, "Source: %s\n", source)
			fmt.Fprintf(os.Stderr, "%s", result.Stats.String())
			for _, w := range result.Warnings {
				fmt.Fprintf(os.Stderr, "Warning: %s\n", w.String())
			}
		}
	}
	return result.Content, nil
}

func runComparison(raw []byte, source string) {
	presets := []string{"default", "full"}

	fmt.Printf("\n=== Preset Comparison for %s ===\n", source)
	fmt.Printf("Input size: %s\n\n", humanize.Bytes(uint64(len(raw))))
	fmt.Printf("%-10s %10s %10s %8s %10s\n", "Preset", "Output", "Removed", "Reduce%", "Time")
	fmt.Printf("%-10s %10s %10s %8s %10s\n", "------", "------", "-------", "-------", "----")

	for _, name := range presets {
		opts, _ := presetOptions(name)
		c, err := ctclean.New(opts)
		if err != nil {
			fmt.Printf("%-10s error: %v\n", name, err)
			continue
		}
		result, err := c.Clean(raw)
		if err != nil {
			fmt.Printf("%-10s error: %v\n", name, err)
			continue
		}
		fmt.Printf("%-10s %10s %10d %7.1f%% %10v\n",
			name,
			humanize.Bytes(uint64(result.Stats.OutputBytes)),
			result.Stats.TotalElementsRemoved(),
			result.Stats.ReductionPercent(),
			result.Stats.TotalDuration.Round(time.Microsecond))
	}

	fmt.Println()
}
