// Package storage handles the on-disk layout of daily data files and provides
// crash-safe JSON persistence. Every write goes through a temp-file-then-rename
// sequence so a killed process can never leave a half-written file behind.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// OutputPaths resolves the file layout under the data directory:
//
//	{base}/{date}/{category}.json      finished daily data
//	{base}/{date}/{category}_raw.json  cached raw fetch results
//	{base}/index.json                  aggregate index
type OutputPaths struct {
	BaseDir string
}

// DailyPath returns the output file for a (date, category) batch.
func (p OutputPaths) DailyPath(date, category string) string {
	return filepath.Join(p.BaseDir, date, category+".json")
}

// RawPath returns the raw-cache file for a (date, category) batch.
func (p OutputPaths) RawPath(date, category string) string {
	return filepath.Join(p.BaseDir, date, category+"_raw.json")
}

// IndexPath returns the aggregate index file.
func (p OutputPaths) IndexPath() string {
	return filepath.Join(p.BaseDir, "index.json")
}

// ReadJSON decodes the JSON file at path into target.
func ReadJSON(path string, target any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// WriteJSONAtomic marshals value and writes it to path via a temporary file
// in the same directory followed by a rename. The parent directory is created
// if missing.
func WriteJSONAtomic(path string, value any) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create dir %s: %w", dir, err)
	}

	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename into place: %w", err)
	}
	return nil
}

// FileExists reports whether path exists and is a regular file.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
