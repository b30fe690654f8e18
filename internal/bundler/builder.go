package bundler

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/wolfeidau/libbuild/internal/builder"
	"github.com/wolfeidau/libbuild/internal/plugins"
	"github.com/wolfeidau/libbuild/internal/telemetry"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/wolfeidau/libbuild/internal/bundler")

// Build runs esbuild once per configured format and loads the metadata of
// each build. No matching entry points is not an error; nothing is written.
func (p *Pipeline) Build(ctx context.Context) (*Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	runID := uuid.NewString()
	log := p.logger.With().Str("run_id", runID).Str("library", p.config.Name).Logger()

	ctx, span := tracer.Start(ctx, "libbuild.Build", trace.WithAttributes(
		attribute.String("libbuild.run_id", runID),
		attribute.String("libbuild.library", p.config.Name),
		attribute.Int("libbuild.entrypoints", len(p.config.Entries)),
	))
	defer span.End()

	started := time.Now()
	result := &Result{RunID: runID}

	if len(p.config.Entries) == 0 {
		log.Warn().Msg("No entry points matched, nothing to build")
		return result, nil
	}

	log.Info().
		Int("entrypoints", len(p.config.Entries)).
		Interface("formats", p.config.Formats).
		Msg("Building library")

	for _, format := range p.config.Formats {
		outputs, err := p.buildFormat(ctx, log, format)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		result.Outputs = append(result.Outputs, outputs...)
	}

	result.Duration = time.Since(started)
	log.Info().Dur("duration", result.Duration).Int("outputs", len(result.Outputs)).Msg("Built library")

	return result, nil
}

func (p *Pipeline) buildFormat(ctx context.Context, log zerolog.Logger, format builder.Format) ([]Output, error) {
	ctx, span := tracer.Start(ctx, "libbuild.BuildFormat", trace.WithAttributes(
		attribute.String("libbuild.format", string(format)),
	))
	defer span.End()

	m := telemetry.GetMetrics()
	attrs := metric.WithAttributes(attribute.String("format", string(format)))
	started := time.Now()

	result := api.Build(p.config.BuildOptions(ctx, format))

	m.BuildsTotal.Add(ctx, 1, attrs)
	m.BuildDuration.Record(ctx, float64(time.Since(started).Milliseconds()), attrs)

	logMessages(log, result.Warnings, api.WarningMessage)

	if len(result.Errors) > 0 {
		m.BuildErrorsTotal.Add(ctx, int64(len(result.Errors)), attrs)
		logMessages(log, result.Errors, api.ErrorMessage)
		err := fmt.Errorf("%w: %d error(s) in %s build", ErrBuildFailed, len(result.Errors), format)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if format == p.config.Formats[0] && slices.Contains(plugins.Names(p.config.Plugins), plugins.DeclarationsName) {
		m.DeclarationsTotal.Add(ctx, 1)
	}

	metadata, err := p.writeMetafile(format, result.Metafile)
	if err != nil {
		return nil, err
	}
	p.metadata[format] = metadata

	outputs, err := p.outputs(format, metadata)
	if err != nil {
		return nil, err
	}

	var total int64
	for _, o := range outputs {
		total += o.Bytes
		log.Debug().Str("format", string(format)).Str("file", o.Path).Int64("bytes", o.Bytes).Msg("Built file")
	}

	m.EntryPointsTotal.Add(ctx, int64(len(p.config.Entries)), attrs)
	m.OutputBytesTotal.Add(ctx, total, attrs)

	return outputs, nil
}

// writeMetafile stores the esbuild metafile next to the outputs and parses it.
func (p *Pipeline) writeMetafile(format builder.Format, metafile string) (*BuildMetadata, error) {
	outDir := p.config.AbsOutDir()
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := os.WriteFile(MetafilePath(outDir, format), []byte(metafile), 0600); err != nil {
		return nil, fmt.Errorf("failed to write metafile: %w", err)
	}

	var metadata BuildMetadata
	if err := json.Unmarshal([]byte(metafile), &metadata); err != nil {
		return nil, fmt.Errorf("failed to parse metafile: %w", err)
	}

	return &metadata, nil
}

// MetafilePath returns where the metafile of format's build is written.
func MetafilePath(outDir string, format builder.Format) string {
	return filepath.Join(outDir, fmt.Sprintf("meta.%s.json", format))
}

func (p *Pipeline) outputs(format builder.Format, metadata *BuildMetadata) ([]Output, error) {
	paths := make([]string, 0, len(metadata.Outputs))
	for path := range metadata.Outputs {
		paths = append(paths, path)
	}
	slices.Sort(paths)

	outputs := make([]Output, 0, len(paths))
	for _, path := range paths {
		info := metadata.Outputs[path]

		gz, err := gzipSize(filepath.Join(p.config.WorkingDir, path))
		if err != nil {
			return nil, fmt.Errorf("failed to measure %s: %w", path, err)
		}

		outputs = append(outputs, Output{
			Format:     format,
			Path:       path,
			EntryPoint: info.EntryPoint,
			Bytes:      int64(info.Bytes),
			GzipBytes:  gz,
		})
	}

	return outputs, nil
}

// EntryOutput returns the output path produced for an entry point of
// format, relative to the working directory.
func (p *Pipeline) EntryOutput(format builder.Format, entryPointPath string) (string, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	metadata, ok := p.metadata[format]
	if !ok {
		return "", ErrNotBuilt
	}

	for outputPath, info := range metadata.Outputs {
		if info.EntryPoint == entryPointPath {
			return outputPath, nil
		}
	}

	return "", fmt.Errorf("%w: %s", ErrEntryNotFound, entryPointPath)
}

// ExternalImports returns the external modules an output imports, in first
// seen order.
func (p *Pipeline) ExternalImports(format builder.Format, outputPath string) ([]string, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	metadata, ok := p.metadata[format]
	if !ok {
		return nil, ErrNotBuilt
	}

	info, ok := metadata.Outputs[outputPath]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrEntryNotFound, outputPath)
	}

	var imports []string
	for _, imp := range info.Imports {
		if imp.External && !slices.Contains(imports, imp.Path) {
			imports = append(imports, imp.Path)
		}
	}
	return imports, nil
}

func logMessages(log zerolog.Logger, msgs []api.Message, kind api.MessageKind) {
	if len(msgs) == 0 {
		return
	}

	formatted := api.FormatMessages(msgs, api.FormatMessagesOptions{Kind: kind})
	for i, msg := range msgs {
		evt := log.Warn()
		if kind == api.ErrorMessage {
			evt = log.Error()
		}
		if msg.PluginName != "" {
			evt = evt.Str("plugin", msg.PluginName)
		}
		evt.Str("detail", formatted[i]).Msg(msg.Text)
	}
}
