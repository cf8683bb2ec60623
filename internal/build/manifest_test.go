package build

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileManifestWriteFileCreatesParentDirs(t *testing.T) {
	dir := t.TempDir()
	fm := NewFileManifest(dir)
	require.NoError(t, fm.WriteFile("model", "nested/model.json", []byte("{}")))

	data, err := os.ReadFile(filepath.Join(dir, "nested", "model.json"))
	require.NoError(t, err)
	assert.Equal(t, "{}", string(data))
}

func TestFileManifestRejectsPathEscape(t *testing.T) {
	dir := t.TempDir()
	fm := NewFileManifest(dir)
	_, err := fm.Resolve("../outside.txt")
	assert.Error(t, err)

	err = fm.WriteFile("model", "../outside.txt", []byte("x"))
	assert.Error(t, err)
}

func TestFileManifestDetectsConflictingOwners(t *testing.T) {
	dir := t.TempDir()
	fm := NewFileManifest(dir)
	require.NoError(t, fm.WriteFile("model", "shared.txt", []byte("a")))
	err := fm.WriteFile("idl", "shared.txt", []byte("b"))
	assert.Error(t, err)
}

func TestFileManifestSameOwnerCanRewrite(t *testing.T) {
	dir := t.TempDir()
	fm := NewFileManifest(dir)
	require.NoError(t, fm.WriteFile("model", "shared.txt", []byte("a")))
	require.NoError(t, fm.WriteFile("model", "shared.txt", []byte("b")))
}

func TestFileManifestBaseDir(t *testing.T) {
	fm := NewFileManifest("/tmp/out")
	assert.Equal(t, "/tmp/out", fm.BaseDir())
}
