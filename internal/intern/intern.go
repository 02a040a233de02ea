// Package intern provides a process-lifetime string interner. Symbols are
// compared and hashed by integer, never by string content, once interned.
package intern

import "sync"

// Symbol is an interned identifier: a dense integer into the global string
// table. Zero is reserved as "no symbol".
type Symbol uint32

// Table is a bidirectional string<->Symbol map. Create one with New; the
// zero value is not usable (Intern would write to a nil map). New leaves
// index 0 of strs empty so Symbol(0) never aliases a real string.
type Table struct {
	mu   sync.RWMutex
	strs []string
	ids  map[string]Symbol
}

// New creates an empty interning table.
func New() *Table {
	return &Table{
		strs: []string{""},
		ids:  make(map[string]Symbol),
	}
}

// Intern returns the Symbol for s, allocating a new one if s was never seen.
func (t *Table) Intern(s string) Symbol {
	t.mu.RLock()
	if id, ok := t.ids[s]; ok {
		t.mu.RUnlock()
		return id
	}
	t.mu.RUnlock()

	t.mu.Lock()
	defer t.mu.Unlock()
	if id, ok := t.ids[s]; ok {
		return id
	}
	id := Symbol(len(t.strs))
	t.strs = append(t.strs, s)
	t.ids[s] = id
	return id
}

// String returns the text a Symbol was interned from.
func (t *Table) String(s Symbol) string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if int(s) >= len(t.strs) {
		return ""
	}
	return t.strs[s]
}

// Len reports how many distinct strings have been interned (excluding the
// reserved zero entry).
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.strs) - 1
}
