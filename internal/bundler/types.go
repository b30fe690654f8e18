package bundler

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/wolfeidau/libbuild/internal/builder"
)

// BuildMetadata is the subset of the esbuild metafile the pipeline reads.
type BuildMetadata struct {
	Outputs map[string]OutputInfo `json:"outputs"`
}

type OutputInfo struct {
	EntryPoint string       `json:"entryPoint"`
	Bytes      int          `json:"bytes"`
	Imports    []ImportInfo `json:"imports"`
}

type ImportInfo struct {
	Path     string `json:"path"`
	Kind     string `json:"kind"`
	External bool   `json:"external"`
}

// Output describes one written file.
type Output struct {
	Format     builder.Format
	Path       string // relative to the working directory
	EntryPoint string // source path relative to the working directory, empty for chunks and maps
	Bytes      int64
	GzipBytes  int64
}

// Result summarises a build of every configured format.
type Result struct {
	RunID    string
	Outputs  []Output
	Duration time.Duration
}

// Pipeline builds a resolved library config with esbuild
type Pipeline struct {
	config   *builder.ResolvedConfig
	logger   zerolog.Logger
	metadata map[builder.Format]*BuildMetadata
	mu       sync.RWMutex
}

// New creates a pipeline for config
func New(config *builder.ResolvedConfig, logger zerolog.Logger) *Pipeline {
	return &Pipeline{
		config:   config,
		logger:   logger,
		metadata: make(map[builder.Format]*BuildMetadata),
	}
}
