package builder

import (
	"fmt"
	"maps"
	"slices"

	"github.com/evanw/esbuild/pkg/api"
)

// Format is a library output format tag.
type Format string

const (
	FormatES   Format = "es"
	FormatCJS  Format = "cjs"
	FormatIIFE Format = "iife"
)

// OutDir is where every library build is written.
const OutDir = "./dist"

// DefaultFormats is used when Options.Formats is empty.
var DefaultFormats = []Format{FormatES}

// ParseFormat validates a format tag.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatES, FormatCJS, FormatIIFE:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q (supported: es, cjs, iife)", ErrUnsupportedFormat, s)
	}
}

// ESBuild maps the tag onto esbuild's format.
func (f Format) ESBuild() api.Format {
	switch f {
	case FormatCJS:
		return api.FormatCommonJS
	case FormatIIFE:
		return api.FormatIIFE
	default:
		return api.FormatESModule
	}
}

// Options configures a library build.
type Options struct {
	// Glob pattern of the source files, e.g. "./src/**/*.ts"
	Path string `yaml:"path" json:"path"`
	// Directory entry names are made relative to, e.g. "./src"
	RelativeTo string `yaml:"relativeTo" json:"relativeTo"`
	// Modules left unbundled in addition to the Node builtins
	External []string `yaml:"external,omitempty" json:"external,omitempty"`
	// Output formats, defaults to es
	Formats []Format `yaml:"formats,omitempty" json:"formats,omitempty"`
	// Import aliases, alias name to target path
	Alias map[string]string `yaml:"alias,omitempty" json:"alias,omitempty"`
	// Skip emitting .d.ts files
	SkipDeclarations bool `yaml:"skipDeclarations,omitempty" json:"skipDeclarations,omitempty"`
	// Log the resolved options and every discovered file
	EnableLogs bool `yaml:"enableLogs,omitempty" json:"enableLogs,omitempty"`
}

// withDefaults returns a copy of o with defaults applied. Slices and maps are
// copied so the caller's options are never modified.
func (o Options) withDefaults() (Options, error) {
	out := o
	out.External = slices.Clone(o.External)
	if out.External == nil {
		out.External = []string{}
	}

	out.Formats = slices.Clone(o.Formats)
	if len(out.Formats) == 0 {
		out.Formats = slices.Clone(DefaultFormats)
	}
	for _, f := range out.Formats {
		if _, err := ParseFormat(string(f)); err != nil {
			return Options{}, err
		}
	}

	out.Alias = maps.Clone(o.Alias)
	if out.Alias == nil {
		out.Alias = map[string]string{}
	}

	return out, nil
}
