package main

import (
	"context"

	"github.com/alecthomas/kong"
	"github.com/wolfeidau/libbuild/cmd/libbuild/internal/commands"
)

var (
	version = "dev"
	cli     struct {
		Build   commands.BuildCmd   `cmd:"" help:"Build one or more libraries"`
		Inspect commands.InspectCmd `cmd:"" help:"Print the resolved build config"`
		Debug   bool                `help:"Enable debug mode." env:"LIBBUILD_DEBUG"`
		Tracing bool                `help:"Export traces and metrics over OTLP." env:"LIBBUILD_TRACING"`
		Version kong.VersionFlag
	}
)

func main() {
	ctx := context.Background()
	cmd := kong.Parse(&cli,
		kong.Name("libbuild"),
		kong.Description("Build TypeScript libraries with esbuild."),
		kong.Vars{
			"version": version,
		},
		kong.BindTo(ctx, (*context.Context)(nil)))
	err := cmd.Run(&commands.Globals{Debug: cli.Debug, Tracing: cli.Tracing, Version: version})
	cmd.FatalIfErrorf(err)
}
