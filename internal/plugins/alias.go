package plugins

import (
	"cmp"
	"context"
	"path/filepath"
	"slices"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
)

const AliasName = "alias"

var _ Stage = (*Alias)(nil)

type aliasEntry struct {
	find        string
	replacement string
}

// aliasResolved marks resolutions issued by the alias stage itself so that a
// replacement which starts with its own key is not rewritten twice.
type aliasResolved struct{}

// Alias rewrites import paths that equal an alias key or start with "key/".
// Relative replacements are resolved against the working directory. tsconfig
// "paths" are not handled here; esbuild applies them during resolution.
type Alias struct {
	entries []aliasEntry
}

// NewAlias builds the alias stage. Longer keys are tried first.
func NewAlias(workingDir string, aliases map[string]string) *Alias {
	a := &Alias{}
	for find, replacement := range aliases {
		if strings.HasPrefix(replacement, ".") {
			replacement = filepath.Join(workingDir, replacement)
		}
		a.entries = append(a.entries, aliasEntry{find: find, replacement: replacement})
	}

	slices.SortFunc(a.entries, func(x, y aliasEntry) int {
		if c := cmp.Compare(len(y.find), len(x.find)); c != 0 {
			return c
		}
		return strings.Compare(x.find, y.find)
	})

	return a
}

func (a *Alias) Name() string { return AliasName }

// Rewrite applies the first matching alias to path.
func (a *Alias) Rewrite(path string) (string, bool) {
	for _, e := range a.entries {
		if path == e.find {
			return e.replacement, true
		}
		if rest, ok := strings.CutPrefix(path, e.find+"/"); ok {
			return e.replacement + "/" + rest, true
		}
	}
	return "", false
}

func (a *Alias) Plugin(_ context.Context) api.Plugin {
	return api.Plugin{
		Name: AliasName,
		Setup: func(build api.PluginBuild) {
			if len(a.entries) == 0 {
				return
			}

			build.OnResolve(api.OnResolveOptions{Filter: ".*"}, func(args api.OnResolveArgs) (api.OnResolveResult, error) {
				if _, ok := args.PluginData.(aliasResolved); ok {
					return api.OnResolveResult{}, nil
				}

				target, ok := a.Rewrite(args.Path)
				if !ok {
					return api.OnResolveResult{}, nil
				}

				result := build.Resolve(target, api.ResolveOptions{
					Importer:   args.Importer,
					Namespace:  args.Namespace,
					ResolveDir: args.ResolveDir,
					Kind:       args.Kind,
					PluginData: aliasResolved{},
				})
				if len(result.Errors) > 0 {
					return api.OnResolveResult{Errors: result.Errors}, nil
				}

				return api.OnResolveResult{
					Path:      result.Path,
					External:  result.External,
					Namespace: result.Namespace,
					Suffix:    result.Suffix,
					Warnings:  result.Warnings,
				}, nil
			})
		},
	}
}
