package diag

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/jkindrix/blood/internal/source"
)

// Severity distinguishes hard errors from advisory warnings.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityNote    Severity = "note"
)

// Label attaches a secondary message to a span within a Report, e.g.
// pointing back at the site a value was moved from.
type Label struct {
	Span    source.Span `json:"span"`
	Message string      `json:"message"`
}

// Suggestion is a proposed source-level fix.
type Suggestion struct {
	Message     string `json:"message"`
	Replacement string `json:"replacement,omitempty"`
}

// Report is the canonical structured diagnostic. Every phase constructs
// Reports and hands them to a Context; nothing prints directly.
type Report struct {
	Severity    Severity     `json:"severity"`
	Code        Code         `json:"code"`
	Message     string       `json:"message"`
	Span        source.Span  `json:"span"`
	Labels      []Label      `json:"labels,omitempty"`
	Suggestions []Suggestion `json:"suggestions,omitempty"`
}

// Error implements the error interface so Reports compose with stdlib
// error handling (errors.As, %w, etc.).
func (r *Report) Error() string {
	return fmt.Sprintf("%s[%s]: %s", r.Severity, r.Code, r.Message)
}

// Context collects Reports across a compilation and renders them in
// deterministic, source-position order (spec.md §5 "Ordering guarantees").
type Context struct {
	reports []*Report
	srcs    *source.Map
	cap     int // 0 = unlimited
}

// NewContext creates a diagnostic context bound to a source map, used to
// render snippets. cap bounds how many reports RenderText prints
// (0 = unbounded); Emit keeps every report regardless.
func NewContext(srcs *source.Map, cap int) *Context {
	return &Context{srcs: srcs, cap: cap}
}

// Emit records a report. It is always recorded for HasErrors purposes even
// past cap, but rendering truncates at cap.
func (c *Context) Emit(r *Report) {
	c.reports = append(c.reports, r)
}

// HasErrors reports whether any Severity == SeverityError report exists.
func (c *Context) HasErrors() bool {
	for _, r := range c.reports {
		if r.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Reports returns all collected reports, sorted deterministically by file,
// then byte offset, then code (spec.md §5 determinism invariant).
func (c *Context) Reports() []*Report {
	sorted := make([]*Report, len(c.reports))
	copy(sorted, c.reports)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Span.File != b.Span.File {
			return a.Span.File < b.Span.File
		}
		if a.Span.Start != b.Span.Start {
			return a.Span.Start < b.Span.Start
		}
		return a.Code < b.Code
	})
	return sorted
}

// RenderText renders all reports in the text form from spec.md §6:
//
//	severity[CODE]: message
//	  --> file:line:col
//	   |
//	 N | source line
//	   | ^^^
//	  note: label
//
// The caret line carries no text; each Label's message is printed on
// its own "note:" line, and a label's span is not drawn.
func (c *Context) RenderText() string {
	var b strings.Builder
	reports := c.Reports()
	if c.cap > 0 && len(reports) > c.cap {
		reports = reports[:c.cap]
	}
	for i, r := range reports {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%s[%s]: %s\n", r.Severity, r.Code, r.Message)
		if c.srcs != nil && !r.Span.Zero() {
			name := c.srcs.Name(r.Span.File)
			fmt.Fprintf(&b, "  --> %s:%d:%d\n", name, r.Span.Line, r.Span.Col)
			line := c.srcs.Line(r.Span.File, r.Span.Line)
			b.WriteString("   |\n")
			fmt.Fprintf(&b, "%3d | %s\n", r.Span.Line, line)
			caretLen := r.Span.End - r.Span.Start
			if caretLen < 1 {
				caretLen = 1
			}
			pad := strings.Repeat(" ", r.Span.Col-1)
			b.WriteString("   | " + pad + strings.Repeat("^", caretLen) + "\n")
		}
		for _, l := range r.Labels {
			fmt.Fprintf(&b, "  note: %s\n", l.Message)
		}
	}
	if len(c.reports) > len(reports) {
		fmt.Fprintf(&b, "\n... %d additional diagnostics suppressed\n", len(c.reports)-len(reports))
	}
	return b.String()
}

// RenderJSON renders all reports as a JSON array, for IDE integration
// (spec.md §6 "JSON mode").
func (c *Context) RenderJSON() (string, error) {
	data, err := json.MarshalIndent(c.Reports(), "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
