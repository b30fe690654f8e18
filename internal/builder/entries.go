package builder

import (
	"fmt"
	"path/filepath"

	"github.com/wolfeidau/libbuild/internal/glob"
)

// EntryPoint names a source file that becomes its own output module.
type EntryPoint struct {
	// Name is the output path without extension, relative to the output
	// directory, e.g. "utils/helpers".
	Name string `yaml:"name" json:"name"`
	// Path is the absolute source path.
	Path string `yaml:"path" json:"path"`
}

// DiscoverEntryPoints globs pattern from workingDir and derives an entry point
// for each file: the file path relative to relativeTo with its extension
// removed, so "src/nested/foo.ts" with relativeTo "src" becomes "nested/foo".
// Two files reducing to the same name is an error.
func DiscoverEntryPoints(workingDir, pattern, relativeTo string, collector Collector) ([]EntryPoint, error) {
	files, err := glob.Glob(workingDir, pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to discover entry points: %w", err)
	}

	base := relativeTo
	if !filepath.IsAbs(base) {
		base = filepath.Join(workingDir, base)
	}

	seen := make(map[string]string, len(files))
	entries := make([]EntryPoint, 0, len(files))

	for _, file := range files {
		sliced := file[:len(file)-len(filepath.Ext(file))]

		rel, err := filepath.Rel(base, sliced)
		if err != nil {
			return nil, fmt.Errorf("failed to derive entry name for %s: %w", file, err)
		}
		rel = filepath.ToSlash(rel)

		path := file
		if !filepath.IsAbs(path) {
			path = filepath.Join(workingDir, path)
		}

		collector.File(file, sliced, rel, path)

		if prev, ok := seen[rel]; ok {
			return nil, fmt.Errorf("%w: %q from %s and %s", ErrDuplicateEntry, rel, prev, path)
		}
		seen[rel] = path

		entries = append(entries, EntryPoint{Name: rel, Path: path})
	}

	return entries, nil
}

// EntryMap returns entries keyed by name.
func EntryMap(entries []EntryPoint) map[string]string {
	m := make(map[string]string, len(entries))
	for _, e := range entries {
		m[e.Name] = e.Path
	}
	return m
}
