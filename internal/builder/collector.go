package builder

import "github.com/rs/zerolog"

// Collector receives the diagnostics produced while a config is created.
// Calls are made unconditionally; disabling logs swaps in NopCollector.
type Collector interface {
	Config(opts Options, external []string)
	File(file, sliced, rel, path string)
}

// NopCollector discards everything.
type NopCollector struct{}

func (NopCollector) Config(Options, []string)            {}
func (NopCollector) File(string, string, string, string) {}

// LogCollector writes diagnostics as structured log events.
type LogCollector struct {
	Logger zerolog.Logger
}

func (c LogCollector) Config(opts Options, external []string) {
	c.Logger.Info().
		Str("path", opts.Path).
		Str("relative_to", opts.RelativeTo).
		Interface("formats", opts.Formats).
		Interface("alias", opts.Alias).
		Bool("skip_declarations", opts.SkipDeclarations).
		Bool("enable_logs", opts.EnableLogs).
		Strs("external", external).
		Msg("Creating config")
}

func (c LogCollector) File(file, sliced, rel, path string) {
	c.Logger.Info().
		Str("file", file).
		Str("sliced", sliced).
		Str("rel", rel).
		Str("path", path).
		Msg("Building file")
}

// NewCollector returns a LogCollector when enabled and a NopCollector otherwise.
func NewCollector(enabled bool, logger zerolog.Logger) Collector {
	if !enabled {
		return NopCollector{}
	}
	return LogCollector{Logger: logger}
}
