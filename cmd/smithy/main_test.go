package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smithy-lang/smithy-model-core/internal/build"
)

const widgetIDL = `
$version: "2.0"
namespace example.widgets

structure Widget {
    @required
    name: String
}
`

func writeTempFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestExpandPathsKeepsModelFileArguments(t *testing.T) {
	dir := t.TempDir()
	path := writeTempFile(t, dir, "widget.smithy", widgetIDL)

	files, err := expandPaths([]string{path})
	require.NoError(t, err)
	assert.Equal(t, []string{path}, files)
}

func TestExpandPathsWalksDirectoryForModelFiles(t *testing.T) {
	dir := t.TempDir()
	writeTempFile(t, dir, "widget.smithy", widgetIDL)
	writeTempFile(t, dir, "notes.txt", "ignore me")

	files, err := expandPaths([]string{dir})
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, filepath.Join(dir, "widget.smithy"), files[0])
}

func TestExpandPathsErrorsOnMissingPath(t *testing.T) {
	_, err := expandPaths([]string{filepath.Join(t.TempDir(), "nope")})
	assert.Error(t, err)
}

func TestAssembleFromPathsBuildsModel(t *testing.T) {
	dir := t.TempDir()
	path := writeTempFile(t, dir, "widget.smithy", widgetIDL)

	result, err := assembleFromPaths([]string{path})
	require.NoError(t, err)
	require.NotNil(t, result.Model)
	assert.True(t, result.Model.Len() > 0)
}

func TestWriteOutWritesFileWhenPathGiven(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out.txt")
	require.NoError(t, writeOut(out, "hello"))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(data))
}

func TestShapeMapIndexesByShapeID(t *testing.T) {
	dir := t.TempDir()
	path := writeTempFile(t, dir, "widget.smithy", widgetIDL)
	result, err := assembleFromPaths([]string{path})
	require.NoError(t, err)
	require.NotNil(t, result.Model)

	byID := shapeMap(result)
	assert.Equal(t, result.Model.Len(), len(byID))
}

func TestRootCommandRegistersAllSubcommands(t *testing.T) {
	root := newRootCmd()
	names := make(map[string]bool)
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"validate", "ast", "idl", "list", "select", "build"} {
		assert.True(t, names[want], "expected subcommand %q to be registered", want)
	}
}

func TestASTPluginWritesModelJSON(t *testing.T) {
	dir := t.TempDir()
	path := writeTempFile(t, dir, "widget.smithy", widgetIDL)
	result, err := assembleFromPaths([]string{path})
	require.NoError(t, err)
	require.NotNil(t, result.Model)

	manifest := build.NewFileManifest(t.TempDir())
	require.NoError(t, astPlugin(result.Model, nil, manifest))

	data, err := os.ReadFile(filepath.Join(manifest.BaseDir(), "model.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "example.widgets#Widget")
}

func TestIDLPluginWritesOneFilePerNamespace(t *testing.T) {
	dir := t.TempDir()
	path := writeTempFile(t, dir, "widget.smithy", widgetIDL)
	result, err := assembleFromPaths([]string{path})
	require.NoError(t, err)
	require.NotNil(t, result.Model)

	manifest := build.NewFileManifest(t.TempDir())
	require.NoError(t, idlPlugin(result.Model, nil, manifest))

	data, err := os.ReadFile(filepath.Join(manifest.BaseDir(), "example.widgets.smithy"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "structure Widget")
}
