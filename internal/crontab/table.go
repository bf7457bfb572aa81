package crontab

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// TableMode keeps the artifact readable by the cron daemon without being
// world-writable; no execute bit.
const TableMode fs.FileMode = 0o664

// Render produces the table artifact body: one entry per line, trailing
// newline (cron implementations ignore a final line without one).
func Render(entries []Entry) []byte {
	var b []byte
	for _, e := range entries {
		b = append(b, e.String()...)
		b = append(b, '\n')
	}
	return b
}

// WriteTable replaces the table artifact at path with exactly the given
// entries. The write is temp-file + rename, so a prior table is either fully
// replaced or untouched; entries from a previous registration never coexist
// with the new set.
func WriteTable(path string, entries []Entry) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir table dir: %s: %w", dir, err)
	}
	if err := writeFileAtomic(path, TableMode, Render(entries)); err != nil {
		return fmt.Errorf("write table: %s: %w", path, err)
	}
	return nil
}

func writeFileAtomic(path string, perm fs.FileMode, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".tenantcron-tmp-")
	if err != nil {
		return fmt.Errorf("create temp in %s: %w", dir, err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("chmod temp %s: %w", tmpName, err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp %s: %w", tmpName, err)
	}
	if err := tmp.Chmod(perm); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("chmod temp %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename temp %s -> %s: %w", tmpName, path, err)
	}
	return nil
}
