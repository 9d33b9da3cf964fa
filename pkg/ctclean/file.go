package ctclean

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/jmylchreest/ctclean/internal/logger"
	"github.com/jmylchreest/ctclean/internal/textio"
)

// FileResult is the outcome of cleaning one file.
type FileResult struct {
	Path   string  // file that was cleaned
	Backup string  // backup path, empty when none was kept
	Result *Result // nil when Err is set
	Err    error
}

// CleanFile cleans the table at path and replaces it on disk unless the
// Cleaner runs in dry-run mode. Failures are reported in FileResult.Err.
func (c *Cleaner) CleanFile(ctx context.Context, path string) *FileResult {
	fr := &FileResult{Path: path}
	log := logger.ForFile(path)

	if err := ctx.Err(); err != nil {
		fr.Err = err
		return fr
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		fr.Err = fmt.Errorf("read: %w", err)
		log.Error("read failed", "error", err)
		return fr
	}

	log.Debug("cleaning", "bytes", len(raw))
	result, err := c.Clean(raw)
	if err != nil {
		fr.Err = fmt.Errorf("clean %s: %w", filepath.Base(path), err)
		log.Error("clean failed", "error", err)
		return fr
	}
	fr.Result = result

	for _, w := range result.Warnings {
		log.Warn(w.Message, "phase", w.Phase, "context", w.Context)
	}

	if c.opts.DryRun {
		log.Info("dry run, file left unchanged",
			"input_bytes", result.Stats.InputBytes,
			"output_bytes", result.Stats.OutputBytes)
		return fr
	}

	backup, err := textio.ReplaceFile(path, []byte(result.Content), c.opts.Backup)
	if err != nil {
		fr.Err = fmt.Errorf("write: %w", err)
		log.Error("write failed", "error", err)
		return fr
	}
	fr.Backup = backup

	log.Info("cleaned",
		"input_bytes", result.Stats.InputBytes,
		"output_bytes", result.Stats.OutputBytes,
		"removed", result.Stats.TotalElementsRemoved(),
		"duration", result.Stats.TotalDuration)
	return fr
}

// CleanFiles cleans paths concurrently, at most Options.Concurrency at a time.
// The channel is closed once every file has been handled. Files not yet
// started when ctx is cancelled are reported with the context error.
func (c *Cleaner) CleanFiles(ctx context.Context, paths []string) <-chan *FileResult {
	limit := c.opts.Concurrency
	if limit < 1 {
		limit = runtime.NumCPU()
	}

	results := make(chan *FileResult, len(paths))
	var g errgroup.Group
	g.SetLimit(limit)

	go func() {
		for _, p := range paths {
			p := p
			g.Go(func() error {
				results <- c.CleanFile(ctx, p)
				return nil
			})
		}
		_ = g.Wait() // workers report through the channel
		close(results)
	}()

	return results
}

// Discover expands root into the table files to clean. A file is returned as
// is, whatever its extension; a directory is walked recursively and only
// files matching opts.Extensions are kept. Backups are never returned.
func Discover(root string, opts Options) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{root}, nil
	}

	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		name := d.Name()
		if strings.HasSuffix(strings.ToLower(name), textio.BackupSuffix) {
			return nil
		}
		if opts.matches(name) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	return files, nil
}
