package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jkindrix/blood/internal/config"
)

func TestLoadParsesBloodYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, config.FileName)
	require.NoError(t, os.WriteFile(path, []byte(`
module: demo
output: demo.out
target: aarch64-apple-darwin
diag_cap: 50
json: true
`), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, "demo", cfg.Module)
	require.Equal(t, "demo.out", cfg.Output)
	require.Equal(t, "aarch64-apple-darwin", cfg.Target)
	require.Equal(t, 50, cfg.DiagCap)
	require.True(t, cfg.JSON)
}

func TestLoadMissingFileErrors(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "blood.yaml"))
	require.Error(t, err)
}

func TestFindWalksUpToAncestor(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, config.FileName), []byte("module: root\n"), 0o644))
	nested := filepath.Join(root, "a", "b", "c")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	path, ok := config.Find(nested)
	require.True(t, ok)
	require.Equal(t, filepath.Join(root, config.FileName), path)
}

func TestFindReturnsFalseWhenNoneExists(t *testing.T) {
	_, ok := config.Find(t.TempDir())
	require.False(t, ok)
}

func TestLoadFromDirFallsBackToDefault(t *testing.T) {
	cfg, err := config.LoadFromDir(t.TempDir())
	require.NoError(t, err)
	require.Equal(t, config.Default(), cfg)
}
