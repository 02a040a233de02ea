// Package source holds the span and file-registry types shared across
// every phase of the compiler.
package source

import "fmt"

// FileID identifies a source file within a compilation.
type FileID int

// Pos is a single point in a source file.
type Pos struct {
	File   FileID
	Offset int // byte offset
	Line   int
	Column int
}

// Span is a half-open byte range within a single file, carried by every
// AST/HIR/MIR node for diagnostics.
type Span struct {
	File  FileID
	Start int
	End   int
	Line  int
	Col   int
}

// Zero reports whether the span was never assigned a real position.
func (s Span) Zero() bool {
	return s.File == 0 && s.Start == 0 && s.End == 0
}

// Map registers source files and answers line/column queries.
type Map struct {
	files []*fileEntry
}

type fileEntry struct {
	name       string
	content    string
	lineStarts []int
}

// NewMap creates an empty source map.
func NewMap() *Map {
	return &Map{}
}

// AddFile registers a file's content and returns its FileID.
func (m *Map) AddFile(name, content string) FileID {
	starts := []int{0}
	for i, r := range content {
		if r == '\n' {
			starts = append(starts, i+1)
		}
	}
	m.files = append(m.files, &fileEntry{name: name, content: content, lineStarts: starts})
	return FileID(len(m.files))
}

// Name returns the registered file name for id.
func (m *Map) Name(id FileID) string {
	if int(id) < 1 || int(id) > len(m.files) {
		return "<unknown>"
	}
	return m.files[id-1].name
}

// Content returns the registered file content for id.
func (m *Map) Content(id FileID) string {
	if int(id) < 1 || int(id) > len(m.files) {
		return ""
	}
	return m.files[id-1].content
}

// LineCol converts a byte offset into a 1-based line/column pair.
func (m *Map) LineCol(id FileID, offset int) (line, col int) {
	if int(id) < 1 || int(id) > len(m.files) {
		return 1, 1
	}
	f := m.files[id-1]
	// binary search for the last lineStart <= offset
	lo, hi := 0, len(f.lineStarts)-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if f.lineStarts[mid] <= offset {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return lo + 1, offset - f.lineStarts[lo] + 1
}

// Line returns the raw text of the given 1-based line number.
func (m *Map) Line(id FileID, line int) string {
	if int(id) < 1 || int(id) > len(m.files) {
		return ""
	}
	f := m.files[id-1]
	if line < 1 || line > len(f.lineStarts) {
		return ""
	}
	start := f.lineStarts[line-1]
	end := len(f.content)
	if line < len(f.lineStarts) {
		end = f.lineStarts[line] - 1
	}
	if start > end || start > len(f.content) {
		return ""
	}
	if end > len(f.content) {
		end = len(f.content)
	}
	return f.content[start:end]
}

// MakeSpan builds a Span from a file id and byte range, filling in the
// line/column of the start offset from the map.
func (m *Map) MakeSpan(id FileID, start, end int) Span {
	line, col := m.LineCol(id, start)
	return Span{File: id, Start: start, End: end, Line: line, Col: col}
}

func (p Pos) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

func (s Span) String() string {
	return fmt.Sprintf("%d:%d", s.Line, s.Col)
}
