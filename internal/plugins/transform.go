package plugins

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/evanw/esbuild/pkg/api"
)

const TransformName = "transform"

var _ Stage = Transform{}

// Transform is the source transform stage every build starts with. It pins
// the loaders esbuild would pick on its own: .tsx files get the TSX loader,
// .ts/.mts/.cts get the TS loader. Output is the same with or without it;
// it keeps TypeScript compilation an explicit, named stage in the resolved
// plugin list.
type Transform struct{}

func (Transform) Name() string { return TransformName }

func (Transform) Plugin(_ context.Context) api.Plugin {
	return api.Plugin{
		Name: TransformName,
		Setup: func(build api.PluginBuild) {
			build.OnLoad(api.OnLoadOptions{Filter: `\.[cm]?tsx?$`, Namespace: "file"}, func(args api.OnLoadArgs) (api.OnLoadResult, error) {
				data, err := os.ReadFile(args.Path)
				if err != nil {
					return api.OnLoadResult{}, fmt.Errorf("failed to read source: %w", err)
				}

				contents := string(data)
				return api.OnLoadResult{
					Contents:   &contents,
					Loader:     LoaderFor(args.Path),
					ResolveDir: filepath.Dir(args.Path),
				}, nil
			})
		},
	}
}

// LoaderFor returns the esbuild loader for a TypeScript source path.
func LoaderFor(path string) api.Loader {
	if filepath.Ext(path) == ".tsx" {
		return api.LoaderTSX
	}
	return api.LoaderTS
}
