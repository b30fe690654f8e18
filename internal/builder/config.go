package builder

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/rs/zerolog"
	"github.com/wolfeidau/libbuild/internal/pkgmeta"
	"github.com/wolfeidau/libbuild/internal/plugins"
)

// Env is the environment a config is created in.
type Env struct {
	// WorkingDir is the base for globbing and relative paths. Defaults to the
	// process working directory.
	WorkingDir string
	// Package supplies the library name and module type.
	Package pkgmeta.Package
	// Logger receives diagnostics when Options.EnableLogs is set, and the
	// output of the declaration generator.
	Logger zerolog.Logger
	// Runner executes the declaration generator. Defaults to a
	// plugins.ProcessRunner.
	Runner plugins.Runner
}

// Resolve holds the module resolution settings.
type Resolve struct {
	PreserveSymlinks bool              `yaml:"preserveSymlinks" json:"preserveSymlinks"`
	Alias            map[string]string `yaml:"alias" json:"alias"`
}

// ResolvedConfig is a library build ready to hand to esbuild.
type ResolvedConfig struct {
	Name       string
	Formats    []Format
	Entries    []EntryPoint
	OutDir     string
	External   []string
	Plugins    []plugins.Stage
	Resolve    Resolve
	WorkingDir string
	// Package is the library's package.json metadata, with the module type
	// defaulted to commonjs.
	Package    pkgmeta.Package
	GlobalName string
}

// CreateConfig discovers the entry points matched by opts.Path and assembles
// the library build. It performs no validation beyond the output formats;
// glob and path errors are returned wrapped.
func CreateConfig(opts Options, env Env) (*ResolvedConfig, error) {
	o, err := opts.withDefaults()
	if err != nil {
		return nil, err
	}

	wd := env.WorkingDir
	if wd == "" {
		wd, err = os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
	}

	external := MergeExternal(BuiltinModules, o.External)

	collector := NewCollector(o.EnableLogs, env.Logger)
	collector.Config(o, external)

	entries, err := DiscoverEntryPoints(wd, o.Path, o.RelativeTo, collector)
	if err != nil {
		return nil, err
	}

	stages := []plugins.Stage{
		plugins.Transform{},
		plugins.NewAlias(wd, o.Alias),
	}

	if !o.SkipDeclarations {
		runner := env.Runner
		if runner == nil {
			runner = plugins.ProcessRunner{Logger: env.Logger}
		}

		paths := make([]string, 0, len(entries))
		for _, e := range entries {
			paths = append(paths, e.Path)
		}

		stages = append(stages, &plugins.Declarations{
			WorkingDir: wd,
			RelativeTo: o.RelativeTo,
			OutDir:     OutDir,
			Entries:    paths,
			Runner:     runner,
		})
	}

	pkg := env.Package
	if pkg.Type == "" {
		pkg.Type = pkgmeta.TypeCommonJS
	}

	return &ResolvedConfig{
		Name:     env.Package.Name,
		Formats:  o.Formats,
		Entries:  entries,
		OutDir:   OutDir,
		External: external,
		Plugins:  stages,
		Resolve: Resolve{
			PreserveSymlinks: true,
			Alias:            o.Alias,
		},
		WorkingDir: wd,
		Package:    pkg,
		GlobalName: pkg.GlobalName(),
	}, nil
}

// Entry returns the entry map, name to absolute source path.
func (c *ResolvedConfig) Entry() map[string]string {
	return EntryMap(c.Entries)
}

// AbsOutDir returns the output directory resolved against the working directory.
func (c *ResolvedConfig) AbsOutDir() string {
	if filepath.IsAbs(c.OutDir) {
		return c.OutDir
	}
	return filepath.Join(c.WorkingDir, c.OutDir)
}

// OutExtension returns the file extension of format's output. Like other
// library builders, plain .js is kept for the format matching the package
// "type" and the other gets an explicit .mjs/.cjs extension.
func (c *ResolvedConfig) OutExtension(format Format) string {
	module := c.Package.IsModule()
	switch format {
	case FormatCJS:
		return cond(module, ".cjs", ".js")
	case FormatIIFE:
		return ".iife.js"
	default:
		return cond(module, ".js", ".mjs")
	}
}

// StagesFor returns the plugin stages of format's build. Declarations are
// emitted once, with the first format.
func (c *ResolvedConfig) StagesFor(format Format) []plugins.Stage {
	if len(c.Formats) == 0 || format == c.Formats[0] {
		return c.Plugins
	}

	stages := make([]plugins.Stage, 0, len(c.Plugins))
	for _, s := range c.Plugins {
		if s.Name() != plugins.DeclarationsName {
			stages = append(stages, s)
		}
	}
	return stages
}

// BuildOptions returns the esbuild options for one format.
func (c *ResolvedConfig) BuildOptions(ctx context.Context, format Format) api.BuildOptions {
	entryPoints := make([]api.EntryPoint, 0, len(c.Entries))
	for _, e := range c.Entries {
		entryPoints = append(entryPoints, api.EntryPoint{InputPath: e.Path, OutputPath: e.Name})
	}

	opts := api.BuildOptions{
		EntryPointsAdvanced: entryPoints,
		AbsWorkingDir:       c.WorkingDir,
		Outdir:              c.AbsOutDir(),
		OutExtension:        map[string]string{".js": c.OutExtension(format)},
		Bundle:              true,
		Write:               true,
		Metafile:            true,
		Format:              format.ESBuild(),
		Platform:            api.PlatformNode,
		External:            c.External,
		Plugins:             plugins.Plugins(ctx, c.StagesFor(format)),
		PreserveSymlinks:    c.Resolve.PreserveSymlinks,
		TreeShaking:         api.TreeShakingTrue,
		LogLevel:            api.LogLevelSilent,
	}

	if format == FormatIIFE {
		opts.GlobalName = c.GlobalName
	}

	return opts
}

// Summary is the serialisable view of a ResolvedConfig.
type Summary struct {
	Name     string            `yaml:"name" json:"name"`
	Formats  []Format          `yaml:"formats" json:"formats"`
	Entry    map[string]string `yaml:"entry" json:"entry"`
	OutDir   string            `yaml:"outDir" json:"outDir"`
	External []string          `yaml:"external" json:"external"`
	Plugins  []string          `yaml:"plugins" json:"plugins"`
	Resolve  Resolve           `yaml:"resolve" json:"resolve"`
}

func (c *ResolvedConfig) Summary() Summary {
	return Summary{
		Name:     c.Name,
		Formats:  c.Formats,
		Entry:    c.Entry(),
		OutDir:   c.OutDir,
		External: c.External,
		Plugins:  plugins.Names(c.Plugins),
		Resolve:  c.Resolve,
	}
}

func cond[T any](condition bool, trueVal, falseVal T) T {
	if condition {
		return trueVal
	}
	return falseVal
}
