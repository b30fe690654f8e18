package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/libbuild/internal/builder"
	"github.com/wolfeidau/libbuild/internal/plugins"
	"gopkg.in/yaml.v3"
)

type fakeRunner struct {
	calls int
}

func (f *fakeRunner) Run(context.Context, string, []string) error {
	f.calls++
	return nil
}

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(contents), 0600))
}

// newProject creates a library with package.json and a libbuild.yaml.
func newProject(t *testing.T, name, cfg string) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), name)
	writeFile(t, filepath.Join(dir, "package.json"), `{"name":"`+name+`","type":"module"}`)
	writeFile(t, filepath.Join(dir, "src", "index.ts"), `export { add } from "./math/add";
`)
	writeFile(t, filepath.Join(dir, "src", "math", "add.ts"), `export const add = (a: number, b: number): number => a + b;
`)
	if cfg != "" {
		writeFile(t, filepath.Join(dir, "libbuild.yaml"), cfg)
	}
	return dir
}

func TestBuildCmd_ConfigFiles(t *testing.T) {
	a := newProject(t, "alpha", "path: ./src/**/*.ts\nrelativeTo: ./src\nskipDeclarations: true\n")
	b := newProject(t, "beta", "path: ./src/index.ts\nrelativeTo: ./src\nformats: [cjs]\nskipDeclarations: true\n")

	var out bytes.Buffer
	cmd := &BuildCmd{
		Configs: []string{filepath.Join(a, "libbuild.yaml"), filepath.Join(b, "libbuild.yaml")},
		out:     &out,
	}

	err := cmd.run(context.Background(), &Globals{}, zerolog.Nop())
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(a, "dist", "index.js"))
	assert.FileExists(t, filepath.Join(a, "dist", "math", "add.js"))
	assert.FileExists(t, filepath.Join(b, "dist", "index.cjs"))
	assert.NoFileExists(t, filepath.Join(b, "dist", "math", "add.cjs"))

	assert.Contains(t, out.String(), "alpha/libbuild.yaml")
	assert.Contains(t, out.String(), "beta/libbuild.yaml")
	assert.Contains(t, out.String(), "dist/index.cjs")
}

func TestBuildCmd_Inline(t *testing.T) {
	dir := newProject(t, "inline", "")
	runner := &fakeRunner{}

	var out bytes.Buffer
	cmd := &BuildCmd{
		Path:       "src/**/*.ts",
		RelativeTo: "src",
		Format:     []string{"es", "iife"},
		Dir:        dir,
		out:        &out,
		runner:     runner,
	}

	err := cmd.run(context.Background(), &Globals{}, zerolog.Nop())
	require.NoError(t, err)

	assert.Equal(t, 1, runner.calls)
	assert.FileExists(t, filepath.Join(dir, "dist", "index.js"))
	assert.FileExists(t, filepath.Join(dir, "dist", "index.iife.js"))

	iife, err := os.ReadFile(filepath.Join(dir, "dist", "index.iife.js"))
	require.NoError(t, err)
	assert.Contains(t, string(iife), "var inline")
}

func TestBuildCmd_Verbose(t *testing.T) {
	dir := newProject(t, "verbose", "")

	var out bytes.Buffer
	cmd := &BuildCmd{
		Path:       "src/**/*.ts",
		RelativeTo: "src",
		Format:     []string{"es", "cjs"},
		Dir:        dir,
		Verbose:    true,
		out:        &out,
		runner:     &fakeRunner{},
	}

	require.NoError(t, cmd.run(context.Background(), &Globals{}, zerolog.Nop()))

	assert.Regexp(t, `index\s+es\s+dist/index.js`, out.String())
	assert.Regexp(t, `math/add\s+es\s+dist/math/add.js`, out.String())
	assert.Regexp(t, `math/add\s+cjs\s+dist/math/add.cjs`, out.String())
}

func TestBuildCmd_Errors(t *testing.T) {
	dir := newProject(t, "errors", "path: src/*.ts\nrelativeTo: src\n")

	tests := []struct {
		name   string
		cmd    *BuildCmd
		errMsg string
	}{
		{
			name:   "path without relative-to",
			cmd:    &BuildCmd{Path: "src/*.ts", Dir: dir},
			errMsg: "--relative-to is required",
		},
		{
			name:   "path with config files",
			cmd:    &BuildCmd{Path: "src/*.ts", RelativeTo: "src", Configs: []string{filepath.Join(dir, "libbuild.yaml")}},
			errMsg: "cannot be combined",
		},
		{
			name:   "unsupported format",
			cmd:    &BuildCmd{Path: "src/*.ts", RelativeTo: "src", Format: []string{"umd"}, Dir: dir},
			errMsg: "unsupported output format",
		},
		{
			name:   "missing config file",
			cmd:    &BuildCmd{Configs: []string{filepath.Join(dir, "missing.yaml")}},
			errMsg: "failed to read config file",
		},
		{
			name:   "missing package.json",
			cmd:    &BuildCmd{Path: "src/*.ts", RelativeTo: "src", Dir: t.TempDir(), SkipDeclarations: true},
			errMsg: "failed to read package metadata",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.cmd.out = &bytes.Buffer{}
			err := tt.cmd.run(context.Background(), &Globals{}, zerolog.Nop())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestInspectCmd(t *testing.T) {
	dir := newProject(t, "inspected", "path: ./src/**/*.ts\nrelativeTo: ./src\nexternal: [react]\nalias:\n  \"@\": ./src\n")

	t.Run("json", func(t *testing.T) {
		var out bytes.Buffer
		cmd := &InspectCmd{Config: filepath.Join(dir, "libbuild.yaml"), Output: "json", out: &out}
		require.NoError(t, cmd.Run(context.Background(), &Globals{}))

		var summary builder.Summary
		require.NoError(t, json.Unmarshal(out.Bytes(), &summary))

		assert.Equal(t, "inspected", summary.Name)
		assert.Equal(t, map[string]string{
			"index":    filepath.Join(dir, "src", "index.ts"),
			"math/add": filepath.Join(dir, "src", "math", "add.ts"),
		}, summary.Entry)
		assert.Equal(t, "react", summary.External[len(summary.External)-1])
		assert.Equal(t, []string{plugins.TransformName, plugins.AliasName, plugins.DeclarationsName}, summary.Plugins)
		assert.True(t, summary.Resolve.PreserveSymlinks)
		assert.Equal(t, map[string]string{"@": "./src"}, summary.Resolve.Alias)
		assert.NoDirExists(t, filepath.Join(dir, "dist"))
	})

	t.Run("yaml", func(t *testing.T) {
		var out bytes.Buffer
		cmd := &InspectCmd{Config: filepath.Join(dir, "libbuild.yaml"), Output: "yaml", out: &out}
		require.NoError(t, cmd.Run(context.Background(), &Globals{}))

		var summary builder.Summary
		require.NoError(t, yaml.Unmarshal(out.Bytes(), &summary))
		assert.Equal(t, builder.OutDir, summary.OutDir)
		assert.Equal(t, []builder.Format{builder.FormatES}, summary.Formats)
	})
}
