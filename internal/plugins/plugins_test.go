package plugins

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	calls   int
	command string
	args    []string
	err     error
}

func (f *fakeRunner) Run(_ context.Context, command string, args []string) error {
	f.calls++
	f.command = command
	f.args = args
	return f.err
}

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(contents), 0600))
}

func TestNames(t *testing.T) {
	stages := []Stage{Transform{}, NewAlias("/work", nil), &Declarations{}}
	assert.Equal(t, []string{TransformName, AliasName, DeclarationsName}, Names(stages))
	assert.Len(t, Plugins(context.Background(), stages), 3)
}

func TestLoaderFor(t *testing.T) {
	assert.Equal(t, api.LoaderTSX, LoaderFor("/src/App.tsx"))
	assert.Equal(t, api.LoaderTS, LoaderFor("/src/index.ts"))
	assert.Equal(t, api.LoaderTS, LoaderFor("/src/index.mts"))
}

func TestAlias_Rewrite(t *testing.T) {
	a := NewAlias("/work", map[string]string{
		"@":       "./src",
		"@/utils": "./src/shared/utils",
		"react":   "preact/compat",
	})

	tests := []struct {
		path   string
		want   string
		wantOK bool
	}{
		{path: "@", want: "/work/src", wantOK: true},
		{path: "@/components/Button", want: "/work/src/components/Button", wantOK: true},
		{path: "@/utils/strings", want: "/work/src/shared/utils/strings", wantOK: true},
		{path: "react", want: "preact/compat", wantOK: true},
		{path: "react-dom", wantOK: false},
		{path: "@scope/pkg", wantOK: false},
		{path: "./local", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, ok := a.Rewrite(tt.path)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, filepath.FromSlash(tt.want), filepath.FromSlash(got))
			}
		})
	}
}

func TestAlias_Bundle(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "src", "index.ts"), `import { greet } from "@/lib/greet";
export const message: string = greet("world");
`)
	writeFile(t, filepath.Join(dir, "src", "lib", "greet.ts"), `export function greet(name: string): string {
  return "hello " + name;
}
`)

	stages := []Stage{Transform{}, NewAlias(dir, map[string]string{"@": "./src"})}
	result := api.Build(api.BuildOptions{
		EntryPoints:   []string{filepath.Join(dir, "src", "index.ts")},
		AbsWorkingDir: dir,
		Bundle:        true,
		Write:         false,
		Format:        api.FormatESModule,
		Outdir:        filepath.Join(dir, "dist"),
		Plugins:       Plugins(context.Background(), stages),
		LogLevel:      api.LogLevelSilent,
	})

	require.Empty(t, result.Errors)
	require.Len(t, result.OutputFiles, 1)
	assert.Contains(t, string(result.OutputFiles[0].Contents), "hello ")
}

func TestTransform_Plugin(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "src", "view.tsx"), `import { label } from "./label.mts";
export const View = (props: { name: string }) => <div>{label(props.name)}</div>;
`)
	writeFile(t, filepath.Join(dir, "src", "label.mts"), `export const label = (name: string): string => "hi " + name;
`)

	build := func(stages []Stage) string {
		result := api.Build(api.BuildOptions{
			EntryPoints:   []string{filepath.Join(dir, "src", "view.tsx")},
			AbsWorkingDir: dir,
			Bundle:        true,
			Write:         false,
			External:      []string{"react"},
			Format:        api.FormatESModule,
			Outdir:        filepath.Join(dir, "dist"),
			Plugins:       Plugins(context.Background(), stages),
			LogLevel:      api.LogLevelSilent,
		})
		require.Empty(t, result.Errors)
		require.Len(t, result.OutputFiles, 1)
		return string(result.OutputFiles[0].Contents)
	}

	withStage := build([]Stage{Transform{}})
	assert.Contains(t, withStage, "createElement")
	assert.Contains(t, withStage, "hi ")
	assert.NotContains(t, withStage, ": string")

	// the stage pins esbuild's own choice of loader
	assert.Equal(t, build(nil), withStage)
}

func TestDeclarations_Args(t *testing.T) {
	dir := t.TempDir()
	d := &Declarations{
		WorkingDir: dir,
		RelativeTo: "src",
		OutDir:     "./dist",
		Entries:    []string{filepath.Join(dir, "src", "index.ts")},
	}

	args := d.Args()
	assert.Equal(t, []string{
		"--declaration",
		"--declarationMap",
		"--emitDeclarationOnly",
		"--composite", "false",
		"--incremental",
		"--tsBuildInfoFile", filepath.Join(dir, CacheDir, "tsbuildinfo"),
		"--outDir", filepath.Join(dir, "dist"),
		"--rootDir", filepath.Join(dir, "src"),
		filepath.Join(dir, "src", "index.ts"),
	}, args)
	assert.Equal(t, "tsc", d.Command())

	writeFile(t, filepath.Join(dir, "tsconfig.json"), `{}`)
	writeFile(t, filepath.Join(dir, "node_modules", ".bin", "tsc"), "")

	args = d.Args()
	assert.Equal(t, []string{"--project", filepath.Join(dir, "tsconfig.json")}, args[len(args)-2:])
	assert.Equal(t, filepath.Join(dir, "node_modules", ".bin", "tsc"), d.Command())
}

func TestDeclarations_Plugin(t *testing.T) {
	dir := t.TempDir()
	entry := filepath.Join(dir, "src", "index.ts")
	writeFile(t, entry, "export const answer: number = 42;\n")

	build := func(runner Runner) api.BuildResult {
		d := &Declarations{WorkingDir: dir, RelativeTo: "src", OutDir: "dist", Entries: []string{entry}, Runner: runner}
		return api.Build(api.BuildOptions{
			EntryPoints:   []string{entry},
			AbsWorkingDir: dir,
			Bundle:        true,
			Write:         false,
			Outdir:        filepath.Join(dir, "dist"),
			Plugins:       Plugins(context.Background(), []Stage{Transform{}, d}),
			LogLevel:      api.LogLevelSilent,
		})
	}

	t.Run("runs after a successful build", func(t *testing.T) {
		runner := &fakeRunner{}
		result := build(runner)
		require.Empty(t, result.Errors)
		assert.Equal(t, 1, runner.calls)
		assert.Equal(t, "tsc", runner.command)
		assert.Contains(t, runner.args, "--emitDeclarationOnly")
	})

	t.Run("runner failure becomes a build error", func(t *testing.T) {
		runner := &fakeRunner{err: errors.New("tsc exited with code 2")}
		result := build(runner)
		require.Len(t, result.Errors, 1)
		assert.Contains(t, result.Errors[0].Text, "tsc exited with code 2")
	})
}

func TestDeclarations_SkippedOnBuildErrors(t *testing.T) {
	dir := t.TempDir()
	entry := filepath.Join(dir, "index.ts")
	writeFile(t, entry, `import { missing } from "./does-not-exist";
export default missing;
`)

	runner := &fakeRunner{}
	result := api.Build(api.BuildOptions{
		EntryPoints:   []string{entry},
		AbsWorkingDir: dir,
		Bundle:        true,
		Write:         false,
		Outdir:        filepath.Join(dir, "dist"),
		Plugins:       Plugins(context.Background(), []Stage{&Declarations{WorkingDir: dir, Runner: runner}}),
		LogLevel:      api.LogLevelSilent,
	})

	require.NotEmpty(t, result.Errors)
	assert.Zero(t, runner.calls)
}
