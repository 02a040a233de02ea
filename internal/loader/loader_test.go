package loader_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jkindrix/blood/internal/diag"
	"github.com/jkindrix/blood/internal/loader"
	"github.com/jkindrix/blood/internal/source"
)

func writeModule(t *testing.T, dir, rel, content string) {
	t.Helper()
	full := filepath.Join(dir, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}

func TestLoadSingleFileModule(t *testing.T) {
	dir := t.TempDir()
	writeModule(t, dir, "math.blood", "fn add(a: i64, b: i64) -> i64 { a + b }\n")

	srcs := source.NewMap()
	diags := diag.NewContext(srcs, 64)
	l := loader.New(dir, srcs, diags)

	m, err := l.Load("math")
	require.NoError(t, err)
	require.Equal(t, "math", m.Path)
	require.Len(t, m.File.Items, 1)
}

func TestLoadAllFollowsUseGraph(t *testing.T) {
	dir := t.TempDir()
	writeModule(t, dir, "collections.blood", "struct List { head: i64 }\n")
	writeModule(t, dir, "main.blood", "use collections;\n\nfn run() -> i64 { 0 }\n")

	srcs := source.NewMap()
	diags := diag.NewContext(srcs, 64)
	l := loader.New(dir, srcs, diags)

	mods, err := l.LoadAll([]string{"main"})
	require.NoError(t, err)
	require.Contains(t, mods, "main")
	require.Contains(t, mods, "collections")
}

func TestCanonicalModuleIDNormalizes(t *testing.T) {
	require.Equal(t, "a/b", loader.CanonicalModuleID("./a/b.blood"))
	require.Equal(t, "a/b", loader.CanonicalModuleID("a/b"))
}

func TestNormalizeContentStripsBOMAndCRLF(t *testing.T) {
	raw := append([]byte{0xEF, 0xBB, 0xBF}, []byte("fn f() -> i64 {\r\n\t0\r\n}\r\n")...)
	out := loader.NormalizeContent(raw)
	require.NotContains(t, string(out), "\r")
	require.NotContains(t, string(out), "﻿")
}
