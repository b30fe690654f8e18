package bundler

import (
	"context"
	"errors"
	"fmt"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/rs/zerolog"
	"github.com/wolfeidau/libbuild/internal/builder"
)

// Watch builds every format and rebuilds on source changes until ctx is
// cancelled. Rebuild errors are logged, not returned.
func (p *Pipeline) Watch(ctx context.Context) error {
	if len(p.config.Entries) == 0 {
		p.logger.Warn().Msg("No entry points matched, nothing to watch")
		<-ctx.Done()
		return nil
	}

	var contexts []api.BuildContext
	defer func() {
		for _, c := range contexts {
			c.Dispose()
		}
	}()

	for _, format := range p.config.Formats {
		opts := p.config.BuildOptions(ctx, format)
		opts.Plugins = append(opts.Plugins, rebuildLogger(p.logger, format))

		bctx, ctxErr := api.Context(opts)
		if ctxErr != nil {
			return fmt.Errorf("failed to create %s build context: %w", format, errors.Join(contextErrors(ctxErr)...))
		}
		contexts = append(contexts, bctx)

		if err := bctx.Watch(api.WatchOptions{}); err != nil {
			return fmt.Errorf("failed to watch %s build: %w", format, err)
		}
	}

	p.logger.Info().Interface("formats", p.config.Formats).Msg("Watching for changes")
	<-ctx.Done()

	return nil
}

// rebuildLogger logs the outcome of every watch mode rebuild.
func rebuildLogger(log zerolog.Logger, format builder.Format) api.Plugin {
	return api.Plugin{
		Name: "rebuild-logger",
		Setup: func(build api.PluginBuild) {
			build.OnEnd(func(result *api.BuildResult) (api.OnEndResult, error) {
				logMessages(log, result.Warnings, api.WarningMessage)
				if len(result.Errors) > 0 {
					logMessages(log, result.Errors, api.ErrorMessage)
					return api.OnEndResult{}, nil
				}
				log.Info().Str("format", string(format)).Msg("Rebuilt library")
				return api.OnEndResult{}, nil
			})
		},
	}
}

func contextErrors(ctxErr *api.ContextError) []error {
	errs := make([]error, 0, len(ctxErr.Errors))
	for _, msg := range ctxErr.Errors {
		errs = append(errs, errors.New(msg.Text))
	}
	if len(errs) == 0 {
		errs = append(errs, errors.New("unknown esbuild context error"))
	}
	return errs
}
