package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/jmylchreest/ctclean/internal/logger"
	"github.com/jmylchreest/ctclean/internal/output"
	"github.com/jmylchreest/ctclean/pkg/ctclean"
)

var cleanCmd = &cobra.Command{
	Use:   "clean <file|dir>...",
	Short: "Clean cheat tables in place",
	Long: `Clean one or more Cheat Engine tables.

Each argument is a table file or a directory that is searched recursively
for files with one of the --ext extensions. Tables are replaced atomically
and the original is kept as <name>.bak unless --no-backup is given.

Every flag can also be set in the config file or the environment using the
flag name with underscores, e.g. "linear_lua: true" or CTCLEAN_LINEAR_LUA=1.

Examples:
  # Repair and linearize one table
  ctclean clean -r -l MyGame.CT

  # Everything, indented for reading in an editor
  ctclean clean -f --no-linear-xml MyGame.CT

  # Report as JSON lines, skipping huge files
  ctclean clean -f --max-size 20MB --report jsonl ./tables`,
	Args: cobra.MinimumNArgs(1),
	RunE: runClean,
}

func init() {
	rootCmd.AddCommand(cleanCmd)

	flags := cleanCmd.Flags()

	// Cleanups
	flags.BoolP("repair", "r", false, "insert missing '<' and '>' before parsing")
	flags.BoolP("compact", "c", false, "strip trailing whitespace and blank lines")
	flags.BoolP("linear-lua", "l", false, "join script lines of LuaScript and AssemblerScript fields")
	flags.BoolP("remove-extra-spaces", "s", false, "collapse repeated spaces outside quoted strings")
	flags.Bool("remove-signature", false, "remove table signatures")
	flags.Bool("remove-structures", false, "remove structure definitions")
	flags.Bool("remove-user-defined-symbols", false, "remove user defined symbols")
	flags.BoolP("full", "f", false, "enable every cleanup except --remove-signature")

	// Output settings
	flags.Bool("no-linear-xml", false, "indent the XML with one element per line")
	flags.Bool("crlf", false, "write CRLF line endings")
	flags.Bool("no-backup", false, "do not keep a .bak copy of the original")
	flags.BoolP("dry-run", "n", false, "clean in memory and report without writing")

	// Discovery
	flags.StringSlice("ext", []string{".ct"}, "file extensions picked up in directories")
	flags.String("max-size", "0", "skip files larger than this (e.g. 20MB, 0=unlimited)")
	flags.IntP("concurrency", "j", 0, "tables cleaned at once (0=number of CPUs)")

	// Reporting
	flags.String("report", "text", "report format: text, json, jsonl, yaml")
	flags.Bool("compact-report", false, "write the json report on a single line")
	flags.StringP("output", "o", "", "report file (default: stdout)")

	flags.VisitAll(func(f *pflag.Flag) {
		_ = viper.BindPFlag(configKey(f.Name), f)
	})
}

// configKey maps a flag name to its config file and environment key.
func configKey(flag string) string {
	return strings.ReplaceAll(flag, "-", "_")
}

// optionsFromConfig builds cleaner options from the bound flags, config file
// and environment. --full sets the base; individual flags only add to it.
func optionsFromConfig() ctclean.Options {
	opts := ctclean.DefaultOptions()
	if viper.GetBool("full") {
		opts = ctclean.Full()
	}

	opts.Repair = opts.Repair || viper.GetBool("repair")
	opts.Compact = opts.Compact || viper.GetBool("compact")
	opts.LinearizeScripts = opts.LinearizeScripts || viper.GetBool("linear_lua")
	opts.RemoveExtraSpaces = opts.RemoveExtraSpaces || viper.GetBool("remove_extra_spaces")
	opts.RemoveSignature = viper.GetBool("remove_signature")
	opts.RemoveStructures = opts.RemoveStructures || viper.GetBool("remove_structures")
	opts.RemoveUserDefinedSymbols = opts.RemoveUserDefinedSymbols || viper.GetBool("remove_user_defined_symbols")

	opts.IndentXML = viper.GetBool("no_linear_xml")
	opts.CRLF = viper.GetBool("crlf")
	opts.Backup = !viper.GetBool("no_backup")
	opts.DryRun = viper.GetBool("dry_run")

	opts.Extensions = normalizeExtensions(viper.GetStringSlice("ext"))
	opts.Concurrency = viper.GetInt("concurrency")
	return opts
}

// normalizeExtensions accepts "ct", ".ct" and "*.ct" alike.
func normalizeExtensions(exts []string) []string {
	out := make([]string, 0, len(exts))
	for _, ext := range exts {
		ext = strings.TrimPrefix(strings.TrimSpace(ext), "*")
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		out = append(out, ext)
	}
	return out
}

// parseMaxSize returns the size limit in bytes; 0 means unlimited.
func parseMaxSize(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "0" {
		return 0, nil
	}
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, fmt.Errorf("invalid max-size %q: %w", s, err)
	}
	return n, nil
}

func runClean(cmd *cobra.Command, args []string) error {
	if err := initLogger(); err != nil {
		logger.Warn("invalid log level, using info", "error", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger.DebugContext(ctx, "clean command starting")

	format, err := output.ParseFormat(viper.GetString("report"))
	if err != nil {
		return err
	}

	opts := optionsFromConfig()
	c, err := ctclean.New(opts)
	if err != nil {
		logger.Error("invalid options", "error", err)
		return err
	}
	logger.Debug("options", "options", fmt.Sprintf("%+v", opts))

	maxSize, err := parseMaxSize(viper.GetString("max_size"))
	if err != nil {
		return err
	}

	paths, err := collect(args, opts, maxSize)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		logger.Warn("no tables found", "inputs", args, "extensions", opts.Extensions)
		return nil
	}
	logger.InfoContext(ctx, "cleaning tables", "count", len(paths), "dry_run", opts.DryRun)

	out, closeOut, err := openReport(viper.GetString("output"), cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer closeOut()

	w, err := output.NewWriter(out, format, output.WithPretty(!viper.GetBool("compact_report")))
	if err != nil {
		return err
	}

	start := time.Now()
	var summary output.Summary
	for fr := range c.CleanFiles(ctx, paths) {
		r := output.NewFileReport(fr)
		summary.Add(r)
		if err := w.Write(r); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
	}
	summary.Finish(time.Since(start))
	if err := w.Close(summary); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	if err := ctx.Err(); err != nil {
		logger.ErrorContext(ctx, "clean interrupted", "error", err)
	}
	logger.DebugContext(ctx, "clean command finished", "files", summary.Files, "failed", summary.Failed)
	if summary.Failed > 0 {
		return fmt.Errorf("%d of %d tables failed", summary.Failed, summary.Files)
	}
	return nil
}

// collect expands the arguments into table paths, dropping files above
// maxSize when it is set. A table named by more than one argument is kept
// once, under the first name it was found by.
func collect(args []string, opts ctclean.Options, maxSize uint64) ([]string, error) {
	var paths []string
	seen := make(map[string]bool)
	for _, arg := range args {
		found, err := ctclean.Discover(arg, opts)
		if err != nil {
			logger.Error("cannot read input", "path", arg, "error", err)
			return nil, err
		}
		for _, p := range found {
			abs, err := filepath.Abs(p)
			if err != nil {
				return nil, err
			}
			if seen[abs] {
				logger.Debug("skipping duplicate table", "file", p)
				continue
			}
			seen[abs] = true
			paths = append(paths, p)
		}
	}
	if maxSize == 0 {
		return paths, nil
	}

	kept := paths[:0]
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if uint64(info.Size()) > maxSize {
			logger.Warn("skipping large table", "file", p,
				"size", humanize.Bytes(uint64(info.Size())), "limit", humanize.Bytes(maxSize))
			continue
		}
		kept = append(kept, p)
	}
	return kept, nil
}

// openReport returns the report destination and a func to close it.
func openReport(path string, stdout io.Writer) (io.Writer, func(), error) {
	if path == "" {
		return stdout, func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("create report file: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}
