package textio

import (
	"fmt"
	"os"
	"path/filepath"
)

// BackupSuffix is appended to the original file name when a backup is kept.
const BackupSuffix = ".bak"

// ReplaceFile atomically replaces path with data. The content is written to a
// temporary file in the same directory and renamed over path, so path always
// names either the old or the new content. With backup set the previous
// content is kept at path+BackupSuffix, overwriting any earlier backup; the
// returned string is that backup path.
func ReplaceFile(path string, data []byte, backup bool) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	dir := filepath.Dir(path)

	tmp, err := os.CreateTemp(dir, ".ctclean-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op once renamed

	_ = os.Chmod(tmpPath, info.Mode().Perm())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return "", fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close temp file: %w", err)
	}

	var backupPath string
	if backup {
		backupPath = path + BackupSuffix
		if err := keepBackup(path, backupPath, info.Mode().Perm()); err != nil {
			return "", fmt.Errorf("keep backup: %w", err)
		}
	}
	if err := os.Rename(tmpPath, path); err != nil {
		if backupPath != "" {
			_ = os.Remove(backupPath)
		}
		return "", fmt.Errorf("replace %s: %w", filepath.Base(path), err)
	}
	syncDir(dir)
	return backupPath, nil
}

// keepBackup makes backupPath a second name for the current content of path,
// replacing any stale backup. Filesystems without hard links get a copy.
func keepBackup(path, backupPath string, perm os.FileMode) error {
	if err := os.Remove(backupPath); err != nil && !os.IsNotExist(err) {
		return err
	}
	if err := os.Link(path, backupPath); err == nil {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return os.WriteFile(backupPath, data, perm)
}

// syncDir flushes directory metadata where the platform allows it.
func syncDir(dir string) {
	f, err := os.Open(dir)
	if err != nil {
		return
	}
	defer f.Close()
	_ = f.Sync()
}
