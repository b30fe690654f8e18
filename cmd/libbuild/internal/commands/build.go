package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/wolfeidau/libbuild/internal/builder"
	"github.com/wolfeidau/libbuild/internal/bundler"
	"github.com/wolfeidau/libbuild/internal/config"
	"github.com/wolfeidau/libbuild/internal/logger"
	"github.com/wolfeidau/libbuild/internal/plugins"
	"golang.org/x/sync/errgroup"
)

// BuildCmd builds the libraries described by config files, or a single
// library described by flags when --path is set.
type BuildCmd struct {
	Configs []string `arg:"" optional:"" help:"Config files to build (default: libbuild.yaml)" type:"path"`

	// Inline library definition
	Path             string            `help:"glob of source files, e.g. ./src/**/*.ts" env:"LIBBUILD_PATH"`
	RelativeTo       string            `help:"directory entry names are relative to" env:"LIBBUILD_RELATIVE_TO"`
	External         []string          `help:"modules left unbundled in addition to Node builtins" env:"LIBBUILD_EXTERNAL"`
	Format           []string          `help:"output formats (es, cjs, iife)" env:"LIBBUILD_FORMAT"`
	Alias            map[string]string `help:"import aliases as name=target" env:"LIBBUILD_ALIAS"`
	SkipDeclarations bool              `help:"skip emitting .d.ts files" default:"false" env:"LIBBUILD_SKIP_DECLARATIONS"`
	EnableLogs       bool              `help:"log resolved options and every discovered file" default:"false" env:"LIBBUILD_ENABLE_LOGS"`
	Dir              string            `help:"project directory for an inline library" default:"." type:"path"`

	Watch   bool `help:"rebuild when sources change" default:"false"`
	Verbose bool `help:"list each entry point's output and external imports" short:"v" default:"false"`

	out    io.Writer
	runner plugins.Runner
}

func (c *BuildCmd) Run(ctx context.Context, globals *Globals) error {
	log := logger.Setup(globals.Debug)
	return c.run(ctx, globals, log)
}

func (c *BuildCmd) run(ctx context.Context, globals *Globals, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	flush := setupTelemetry(ctx, globals, log)
	defer flush()

	jobs, err := c.jobs()
	if err != nil {
		return err
	}

	results := make([]*bundler.Result, len(jobs))
	pipelines := make([]*bundler.Pipeline, len(jobs))

	g, gctx := errgroup.WithContext(ctx)
	for i, j := range jobs {
		g.Go(func() error {
			jlog := log.With().Str("config", j.label).Logger()

			cfg, err := resolveConfig(j, jlog, c.runner)
			if err != nil {
				return err
			}

			p := bundler.New(cfg, jlog)
			pipelines[i] = p
			if c.Watch {
				return p.Watch(gctx)
			}

			res, err := p.Build(gctx)
			if err != nil {
				return fmt.Errorf("%s: %w", j.label, err)
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	if c.Watch {
		return nil
	}

	out := c.out
	if out == nil {
		out = os.Stdout
	}

	for i, res := range results {
		if len(jobs) > 1 {
			_, _ = fmt.Fprintf(out, "%s\n", jobs[i].label)
		}
		bundler.WriteReport(out, res)

		if c.Verbose {
			if err := pipelines[i].WriteEntries(out); err != nil {
				return fmt.Errorf("%s: %w", jobs[i].label, err)
			}
		}
	}

	return nil
}

func (c *BuildCmd) jobs() ([]job, error) {
	if c.Path != "" {
		if len(c.Configs) > 0 {
			return nil, errors.New("config files cannot be combined with --path")
		}
		if c.RelativeTo == "" {
			return nil, errors.New("--relative-to is required with --path")
		}

		formats := make([]builder.Format, 0, len(c.Format))
		for _, s := range c.Format {
			f, err := builder.ParseFormat(s)
			if err != nil {
				return nil, err
			}
			formats = append(formats, f)
		}

		dir := c.Dir
		if dir == "" {
			dir = "."
		}

		return []job{{
			label: c.Path,
			dir:   dir,
			opts: builder.Options{
				Path:             c.Path,
				RelativeTo:       c.RelativeTo,
				External:         c.External,
				Formats:          formats,
				Alias:            c.Alias,
				SkipDeclarations: c.SkipDeclarations,
				EnableLogs:       c.EnableLogs,
			},
		}}, nil
	}

	paths := c.Configs
	if len(paths) == 0 {
		paths = []string{config.DefaultFile}
	}

	jobs := make([]job, 0, len(paths))
	for _, path := range paths {
		f, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job{label: filepath.Base(f.Dir()) + "/" + filepath.Base(f.Source), dir: f.Dir(), opts: f.Options})
	}

	return jobs, nil
}
