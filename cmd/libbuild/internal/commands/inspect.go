package commands

import (
	"context"
	"encoding/json"
	"io"
	"os"

	"github.com/wolfeidau/libbuild/internal/config"
	"github.com/wolfeidau/libbuild/internal/logger"
	"gopkg.in/yaml.v3"
)

// InspectCmd prints the resolved config of a library without building it.
type InspectCmd struct {
	Config string `arg:"" optional:"" help:"Config file (default: libbuild.yaml)" default:"libbuild.yaml" type:"path"`
	Output string `help:"output format" short:"o" default:"yaml" enum:"yaml,json"`

	out io.Writer
}

func (c *InspectCmd) Run(ctx context.Context, globals *Globals) error {
	log := logger.Setup(globals.Debug)

	f, err := config.Load(c.Config)
	if err != nil {
		return err
	}

	cfg, err := resolveConfig(job{label: f.Source, dir: f.Dir(), opts: f.Options}, log, nil)
	if err != nil {
		return err
	}

	out := c.out
	if out == nil {
		out = os.Stdout
	}

	if c.Output == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(cfg.Summary())
	}

	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	defer func() { _ = enc.Close() }()
	return enc.Encode(cfg.Summary())
}
