package ctclean

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const smallTable = "<CheatTable><CheatEntries><CheatEntry><ID>7</ID><LastState/></CheatEntry></CheatEntries></CheatTable>"

const smallCleaned = "<?xml version=\"1.0\" encoding=\"utf-8\"?>\n<CheatTable><CheatEntries><CheatEntry><ID>1</ID></CheatEntry></CheatEntries></CheatTable>\n"

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(b)
}

func TestCleanFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "game.CT")
	writeFile(t, path, smallTable)

	c := mustNew(t, DefaultOptions())
	fr := c.CleanFile(context.Background(), path)
	require.NoError(t, fr.Err)

	assert.Equal(t, path+".bak", fr.Backup)
	assert.Equal(t, smallCleaned, readFile(t, path))
	assert.Equal(t, smallTable, readFile(t, fr.Backup))
	assert.Equal(t, 1, fr.Result.Stats.ElementsRemoved["LastState"])
}

func TestCleanFile_NoBackup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "game.CT")
	writeFile(t, path, smallTable)

	opts := DefaultOptions()
	opts.Backup = false
	fr := mustNew(t, opts).CleanFile(context.Background(), path)
	require.NoError(t, fr.Err)

	assert.Empty(t, fr.Backup)
	assert.NoFileExists(t, path+".bak")
	assert.Equal(t, smallCleaned, readFile(t, path))
}

func TestCleanFile_DryRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "game.CT")
	writeFile(t, path, smallTable)

	opts := DefaultOptions()
	opts.DryRun = true
	fr := mustNew(t, opts).CleanFile(context.Background(), path)
	require.NoError(t, fr.Err)

	assert.Equal(t, smallCleaned, fr.Result.Content)
	assert.Equal(t, smallTable, readFile(t, path))
	assert.NoFileExists(t, path+".bak")
}

func TestCleanFile_Errors(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file", func(t *testing.T) {
		fr := mustNew(t, DefaultOptions()).CleanFile(context.Background(), filepath.Join(dir, "none.CT"))
		assert.Error(t, fr.Err)
		assert.Nil(t, fr.Result)
	})

	t.Run("malformed table is left untouched", func(t *testing.T) {
		path := filepath.Join(dir, "bad.CT")
		writeFile(t, path, "<CheatTable><ID>1</CheatTable>")
		fr := mustNew(t, DefaultOptions()).CleanFile(context.Background(), path)
		assert.Error(t, fr.Err)
		assert.Equal(t, "<CheatTable><ID>1</CheatTable>", readFile(t, path))
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		path := filepath.Join(dir, "ok.CT")
		writeFile(t, path, smallTable)
		fr := mustNew(t, DefaultOptions()).CleanFile(ctx, path)
		assert.ErrorIs(t, fr.Err, context.Canceled)
		assert.Equal(t, smallTable, readFile(t, path))
	})
}

func TestCleanFiles(t *testing.T) {
	dir := t.TempDir()
	var paths []string
	for _, name := range []string{"a.CT", "b.CT", "c.CT", "d.CT"} {
		p := filepath.Join(dir, name)
		writeFile(t, p, smallTable)
		paths = append(paths, p)
	}
	bad := filepath.Join(dir, "bad.CT")
	writeFile(t, bad, "<CheatTable>")
	paths = append(paths, bad)

	opts := DefaultOptions()
	opts.Concurrency = 2
	c := mustNew(t, opts)

	var failed []string
	count := 0
	for fr := range c.CleanFiles(context.Background(), paths) {
		count++
		if fr.Err != nil {
			failed = append(failed, fr.Path)
			continue
		}
		assert.Equal(t, smallCleaned, readFile(t, fr.Path))
	}
	assert.Equal(t, len(paths), count)
	assert.Equal(t, []string{bad}, failed)
}

func TestCleanFiles_Empty(t *testing.T) {
	c := mustNew(t, DefaultOptions())
	n := 0
	for range c.CleanFiles(context.Background(), nil) {
		n++
	}
	assert.Zero(t, n)
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "one.CT"), smallTable)
	writeFile(t, filepath.Join(dir, "one.CT.bak"), smallTable)
	writeFile(t, filepath.Join(dir, "notes.txt"), "x")
	writeFile(t, filepath.Join(dir, "sub", "two.ct"), smallTable)
	writeFile(t, filepath.Join(dir, "sub", "deeper", "three.Ct"), smallTable)

	got, err := Discover(dir, DefaultOptions())
	require.NoError(t, err)
	sort.Strings(got)
	assert.Equal(t, []string{
		filepath.Join(dir, "one.CT"),
		filepath.Join(dir, "sub", "deeper", "three.Ct"),
		filepath.Join(dir, "sub", "two.ct"),
	}, got)

	t.Run("single file ignores extension", func(t *testing.T) {
		p := filepath.Join(dir, "notes.txt")
		got, err := Discover(p, DefaultOptions())
		require.NoError(t, err)
		assert.Equal(t, []string{p}, got)
	})

	t.Run("custom extensions", func(t *testing.T) {
		opts := DefaultOptions()
		opts.Extensions = []string{".txt"}
		got, err := Discover(dir, opts)
		require.NoError(t, err)
		assert.Equal(t, []string{filepath.Join(dir, "notes.txt")}, got)
	})

	t.Run("missing root", func(t *testing.T) {
		_, err := Discover(filepath.Join(dir, "nope"), DefaultOptions())
		assert.Error(t, err)
	})
}
