// Package config loads library build definitions from YAML files.
//
// A config file describes one library:
//
//	path: ./src/**/*.ts
//	relativeTo: ./src
//	formats: [es, cjs]
//	external: [react]
//	alias:
//	  "@": ./src
//	skipDeclarations: false
//	enableLogs: false
//
// Relative paths are resolved against the directory holding the file, which
// is also where package.json is read from.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/wolfeidau/libbuild/internal/builder"
	"gopkg.in/yaml.v3"
)

// DefaultFile is loaded when no config file is named.
const DefaultFile = "libbuild.yaml"

// ErrInvalidConfig indicates a config file is missing required fields
var ErrInvalidConfig = errors.New("invalid config")

// File is a decoded config file.
type File struct {
	builder.Options `yaml:",inline"`

	// Source is the absolute path of the file.
	Source string `yaml:"-"`
}

// Dir returns the directory builds of this file run in.
func (f *File) Dir() string {
	return filepath.Dir(f.Source)
}

// Load reads and validates a config file.
func Load(path string) (*File, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config path: %w", err)
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	f.Source = abs

	return f, nil
}

// Parse decodes and validates a config document. Unknown keys are rejected.
func Parse(data []byte) (*File, error) {
	var f File

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty document", ErrInvalidConfig)
		}
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := f.Validate(); err != nil {
		return nil, err
	}

	return &f, nil
}

// Validate checks required fields and output formats.
func (f *File) Validate() error {
	if f.Path == "" {
		return fmt.Errorf("%w: path is required", ErrInvalidConfig)
	}
	if f.RelativeTo == "" {
		return fmt.Errorf("%w: relativeTo is required", ErrInvalidConfig)
	}
	for _, format := range f.Formats {
		if _, err := builder.ParseFormat(string(format)); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
	}
	return nil
}
