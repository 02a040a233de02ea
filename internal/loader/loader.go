// Package loader resolves `use` paths to files on disk and parses them,
// the first stage after a raw command-line invocation names a root module.
package loader

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jkindrix/blood/internal/ast"
	"github.com/jkindrix/blood/internal/diag"
	"github.com/jkindrix/blood/internal/lexer"
	"github.com/jkindrix/blood/internal/parser"
	"github.com/jkindrix/blood/internal/source"
)

// Loader loads and caches modules by canonical path, relative to a single
// base directory (the project root containing blood.yaml).
type Loader struct {
	cache    map[string]*Module
	basePath string
	srcs     *source.Map
	diags    *diag.Context
}

// Module is a parsed, not-yet-resolved source file plus the module paths
// it names in its `use` declarations.
type Module struct {
	Path    string // canonical module id, e.g. "collections/list"
	File    *ast.File
	FileID  source.FileID
	Imports []string
}

// New creates a Loader rooted at basePath, sharing srcs/diags with the
// rest of the pipeline so spans and diagnostics stay consistent across
// modules compiled in the same run.
func New(basePath string, srcs *source.Map, diags *diag.Context) *Loader {
	return &Loader{cache: make(map[string]*Module), basePath: basePath, srcs: srcs, diags: diags}
}

// Load parses a module by path, returning the cached copy on repeat calls.
func (l *Loader) Load(path string) (*Module, error) {
	id := CanonicalModuleID(path)
	if m, ok := l.cache[id]; ok {
		return m, nil
	}

	full := l.resolvePath(path)
	raw, err := os.ReadFile(full)
	if err != nil {
		return nil, fmt.Errorf("failed to read module %s: %w", path, err)
	}
	content := string(NormalizeContent(raw))

	fid := l.srcs.AddFile(full, content)
	lx := lexer.New(content, fid, l.srcs, l.diags)
	p := parser.New(lx.Tokens(), l.srcs, fid, l.diags)
	file := p.ParseFile()

	m := &Module{Path: id, File: file, FileID: fid, Imports: extractImports(file)}
	l.cache[id] = m
	return m, nil
}

// LoadAll loads roots and every module transitively reachable through
// `use` declarations, depth-first, returning the full set keyed by
// canonical module id.
func (l *Loader) LoadAll(roots []string) (map[string]*Module, error) {
	out := make(map[string]*Module)
	var visit func(path string) error
	visit = func(path string) error {
		id := CanonicalModuleID(path)
		if _, ok := out[id]; ok {
			return nil
		}
		m, err := l.Load(path)
		if err != nil {
			return err
		}
		out[id] = m
		for _, dep := range m.Imports {
			if err := visit(dep); err != nil {
				return fmt.Errorf("%s imports %s: %w", id, dep, err)
			}
		}
		return nil
	}
	for _, root := range roots {
		if err := visit(root); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// resolvePath maps a module path to a file on disk: "a/b" is tried first
// as "a/b.blood" and then as "a/b/mod.blood", mirroring the two ways a
// module may be laid out (single file vs. a directory with a mod file).
func (l *Loader) resolvePath(path string) string {
	if strings.HasSuffix(path, ".blood") {
		if filepath.IsAbs(path) {
			return path
		}
		return filepath.Join(l.basePath, path)
	}
	asFile := filepath.Join(l.basePath, path+".blood")
	if _, err := os.Stat(asFile); err == nil {
		return asFile
	}
	return filepath.Join(l.basePath, path, "mod.blood")
}

// CanonicalModuleID normalizes a module path for cache keys and the
// dependency graph: forward slashes, no extension, no leading "./" or "/".
func CanonicalModuleID(p string) string {
	p = filepath.ToSlash(filepath.Clean(p))
	p = strings.TrimSuffix(p, ".blood")
	p = strings.TrimPrefix(p, "./")
	p = strings.TrimPrefix(p, "/")
	return p
}

func extractImports(file *ast.File) []string {
	var out []string
	for _, u := range file.Uses {
		out = append(out, strings.Join(u.Path, "/"))
	}
	return out
}

// NormalizeContent strips a UTF-8 BOM and normalizes line endings to LF
// before the content reaches the lexer.
func NormalizeContent(content []byte) []byte {
	content = bytes.TrimPrefix(content, []byte{0xEF, 0xBB, 0xBF})
	content = bytes.ReplaceAll(content, []byte("\r\n"), []byte("\n"))
	content = bytes.ReplaceAll(content, []byte("\r"), []byte("\n"))
	return content
}
