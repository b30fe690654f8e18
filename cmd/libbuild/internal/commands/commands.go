package commands

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/wolfeidau/libbuild/internal/builder"
	"github.com/wolfeidau/libbuild/internal/pkgmeta"
	"github.com/wolfeidau/libbuild/internal/plugins"
	"github.com/wolfeidau/libbuild/internal/telemetry"
)

type Globals struct {
	Debug   bool
	Tracing bool
	Version string
}

// setupTelemetry starts exporters when tracing is enabled. The returned
// function is always safe to call.
func setupTelemetry(ctx context.Context, globals *Globals, log zerolog.Logger) func() {
	if !globals.Tracing {
		return func() {}
	}

	shutdown, err := telemetry.Init(ctx, "libbuild", globals.Version)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize telemetry, continuing without it")
		return func() {}
	}

	return func() {
		if err := shutdown(context.WithoutCancel(ctx)); err != nil {
			log.Warn().Err(err).Msg("Failed to flush telemetry")
		}
	}
}

// job is one library build: the options plus the directory they apply to.
type job struct {
	label string
	dir   string
	opts  builder.Options
}

func resolveConfig(j job, log zerolog.Logger, runner plugins.Runner) (*builder.ResolvedConfig, error) {
	pkg, err := pkgmeta.Load(j.dir)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", j.label, err)
	}

	cfg, err := builder.CreateConfig(j.opts, builder.Env{
		WorkingDir: j.dir,
		Package:    pkg,
		Logger:     log,
		Runner:     runner,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", j.label, err)
	}

	return cfg, nil
}
