package source

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ScanDir walks dir and discovers every importable booking file.
// A missing directory yields no files and no error.
func ScanDir(dir string) ([]DiscoveredFile, error) {
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	if !info.IsDir() {
		df, ok := Discover(dir)
		if !ok {
			return nil, nil
		}
		return []DiscoveredFile{df}, nil
	}

	var files []DiscoveredFile

	err = filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil //nolint:nilerr // intentionally skip unreadable entries
		}
		if d.IsDir() {
			return nil
		}
		if df, ok := Discover(path); ok {
			files = append(files, df)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

// Discover classifies a single path. Spreadsheet lock files (~$name.xlsx)
// and dotfiles are skipped.
func Discover(path string) (DiscoveredFile, bool) {
	name := filepath.Base(path)
	if strings.HasPrefix(name, "~$") || strings.HasPrefix(name, ".") {
		return DiscoveredFile{}, false
	}

	var format Format
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx":
		format = FormatXLSX
	case ".csv":
		format = FormatCSV
	case ".jsonl":
		format = FormatJSONL
	default:
		return DiscoveredFile{}, false
	}

	df := DiscoveredFile{Path: path, Name: name, Format: format}
	if info, err := os.Stat(path); err == nil {
		df.Size = info.Size()
	}
	return df, true
}
