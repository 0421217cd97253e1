package storage

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/daydayarxiv/daydayarxiv/internal/domain"
)

// LoadIndex reads the persisted index, returning nil (no error) when the file
// is absent or unreadable; callers fall back to a full rebuild.
func LoadIndex(paths OutputPaths) *domain.DataIndex {
	if !FileExists(paths.IndexPath()) {
		return nil
	}
	var index domain.DataIndex
	if err := ReadJSON(paths.IndexPath(), &index); err != nil {
		return nil
	}
	return &index
}

// ScanIndex builds an index purely from the directory layout: every
// {date}/{category}.json file is listed, without validating contents.
// The index refresh command performs the validated variant.
func ScanIndex(paths OutputPaths) *domain.DataIndex {
	index := domain.NewDataIndex()

	dateDirs, err := os.ReadDir(paths.BaseDir)
	if err != nil {
		return index
	}

	for _, dateDir := range dateDirs {
		if !dateDir.IsDir() || !IsDateDirName(dateDir.Name()) {
			continue
		}
		for _, category := range listDailyCategories(paths, dateDir.Name()) {
			index.Add(dateDir.Name(), category)
		}
	}
	index.Touch()
	return index
}

// UpdateIndex records one (date, category) pair in the persisted index,
// rebuilding from the directory layout if no index exists yet, and writes the
// result atomically.
func UpdateIndex(paths OutputPaths, date, category string) error {
	index := LoadIndex(paths)
	if index == nil {
		index = ScanIndex(paths)
	}
	index.Add(date, category)
	index.Touch()
	return WriteJSONAtomic(paths.IndexPath(), index)
}

// IsDateDirName reports whether name looks like a YYYY-MM-DD data directory.
func IsDateDirName(name string) bool {
	if len(name) != 10 {
		return false
	}
	_, err := time.Parse("2006-01-02", name)
	return err == nil
}

// listDailyCategories lists category names for one date directory, skipping
// raw cache files.
func listDailyCategories(paths OutputPaths, date string) []string {
	entries, err := os.ReadDir(filepath.Join(paths.BaseDir, date))
	if err != nil {
		return nil
	}

	var categories []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		stem := strings.TrimSuffix(name, ".json")
		if stem == "" || strings.HasSuffix(stem, "_raw") {
			continue
		}
		categories = append(categories, stem)
	}
	return categories
}
