package bundler

import "errors"

var (
	// ErrBuildFailed indicates esbuild reported errors
	ErrBuildFailed = errors.New("esbuild failed with errors")
	// ErrNotBuilt indicates metadata was requested before a build completed
	ErrNotBuilt = errors.New("library not built yet, call Build() first")
	// ErrEntryNotFound indicates no output was produced for an entry point
	ErrEntryNotFound = errors.New("entry point not found in metadata")
)
