package plugins

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/rs/zerolog"
	consolestream "github.com/wolfeidau/console-stream"
)

const (
	DeclarationsName = "declarations"

	// CacheDir holds the incremental build info of the declaration generator,
	// isolated from any cache the project's own tsc runs use.
	CacheDir = ".libbuild.tscache"

	tsconfigFile = "tsconfig.json"
)

var _ Stage = (*Declarations)(nil)

// Runner executes an external command to completion.
type Runner interface {
	Run(ctx context.Context, command string, args []string) error
}

// Declarations emits .d.ts files and declaration maps with tsc once the
// bundle has been written. It is skipped when the build reported errors.
type Declarations struct {
	WorkingDir string
	RelativeTo string
	OutDir     string
	Entries    []string
	Runner     Runner
}

func (d *Declarations) Name() string { return DeclarationsName }

// Command returns the tsc binary, preferring the project's local install.
func (d *Declarations) Command() string {
	local := filepath.Join(d.WorkingDir, "node_modules", ".bin", "tsc")
	if _, err := os.Stat(local); err == nil {
		return local
	}
	return "tsc"
}

// Args returns the tsc arguments. The project tsconfig.json is used when
// present, otherwise the entry files are passed directly.
func (d *Declarations) Args() []string {
	abs := func(p string) string {
		if filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(d.WorkingDir, p)
	}

	args := []string{
		"--declaration",
		"--declarationMap",
		"--emitDeclarationOnly",
		"--composite", "false",
		"--incremental",
		"--tsBuildInfoFile", filepath.Join(d.WorkingDir, CacheDir, "tsbuildinfo"),
		"--outDir", abs(d.OutDir),
		"--rootDir", abs(d.RelativeTo),
	}

	tsconfig := filepath.Join(d.WorkingDir, tsconfigFile)
	if _, err := os.Stat(tsconfig); err == nil {
		return append(args, "--project", tsconfig)
	}

	return append(args, d.Entries...)
}

func (d *Declarations) Plugin(ctx context.Context) api.Plugin {
	return api.Plugin{
		Name: DeclarationsName,
		Setup: func(build api.PluginBuild) {
			build.OnEnd(func(result *api.BuildResult) (api.OnEndResult, error) {
				if len(result.Errors) > 0 {
					return api.OnEndResult{}, nil
				}

				if err := d.Runner.Run(ctx, d.Command(), d.Args()); err != nil {
					return api.OnEndResult{
						Errors: []api.Message{{PluginName: DeclarationsName, Text: err.Error()}},
					}, nil
				}

				return api.OnEndResult{}, nil
			})
		},
	}
}

// ProcessRunner runs commands through console-stream and forwards their
// output to the logger.
type ProcessRunner struct {
	Logger zerolog.Logger
}

func (r ProcessRunner) Run(ctx context.Context, command string, args []string) error {
	process := consolestream.NewProcess(command, args,
		consolestream.WithPipeMode(),
		consolestream.WithFlushInterval(100*time.Millisecond),
	)

	for event, err := range process.ExecuteAndStream(ctx) {
		if err != nil {
			return fmt.Errorf("%w: %w", ErrDeclarationsFailed, err)
		}

		switch e := event.Event.(type) {
		case *consolestream.OutputData:
			for _, line := range strings.Split(strings.TrimRight(string(e.Data), "\n"), "\n") {
				if line != "" {
					r.Logger.Info().Str("command", filepath.Base(command)).Msg(line)
				}
			}
		case *consolestream.ProcessEnd:
			if e.ExitCode != 0 {
				return fmt.Errorf("%w: %s exited with code %d", ErrDeclarationsFailed, filepath.Base(command), e.ExitCode)
			}
			r.Logger.Debug().Dur("duration", e.Duration).Msg("declarations emitted")
			return nil
		}
	}

	return nil
}
