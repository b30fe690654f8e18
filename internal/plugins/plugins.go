// Package plugins provides the esbuild plugin stages applied to every
// library build: the source transform, path aliasing and, optionally,
// declaration emission.
package plugins

import (
	"context"

	"github.com/evanw/esbuild/pkg/api"
)

// Stage is a named step of the plugin sequence. The esbuild plugin is
// created per build so that long running stages can observe ctx.
type Stage interface {
	Name() string
	Plugin(ctx context.Context) api.Plugin
}

// Names returns the names of stages in order.
func Names(stages []Stage) []string {
	names := make([]string, 0, len(stages))
	for _, s := range stages {
		names = append(names, s.Name())
	}
	return names
}

// Plugins creates the esbuild plugins for stages in order.
func Plugins(ctx context.Context, stages []Stage) []api.Plugin {
	out := make([]api.Plugin, 0, len(stages))
	for _, s := range stages {
		out = append(out, s.Plugin(ctx))
	}
	return out
}
