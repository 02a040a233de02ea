// Package iface builds and serializes a module's export table: the
// subset of its DefIds that are `pub`, along with enough rendered type
// information for cross-module resolution and the interface digest used
// to decide whether a dependent must be re-typechecked.
package iface

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"

	"github.com/jkindrix/blood/internal/defid"
)

// Iface is one module's interface: its exported definitions, keyed by
// surface name, plus a content digest over the normalized JSON form.
type Iface struct {
	Module  string
	Exports map[string]*Export
	Schema  string
	Digest  string
}

// Export is a single exported definition: its DefId, a rendered type
// signature (produced by internal/types once the module typechecks), and
// its effect row if it is a function.
type Export struct {
	Name    string
	Def     defid.ID
	Type    string
	Effects []string
	Pure    bool
}

// New creates an empty interface for module.
func New(module string) *Iface {
	return &Iface{Module: module, Exports: make(map[string]*Export), Schema: "blood.iface/v1"}
}

// Add records an exported definition.
func (i *Iface) Add(name string, def defid.ID, typeStr string, effects []string, pure bool) {
	sortedEffects := append([]string(nil), effects...)
	sort.Strings(sortedEffects)
	i.Exports[name] = &Export{Name: name, Def: def, Type: typeStr, Effects: sortedEffects, Pure: pure}
}

// Get looks up an export by name.
func (i *Iface) Get(name string) (*Export, bool) {
	e, ok := i.Exports[name]
	return e, ok
}

// Finalize computes the digest over the normalized JSON rendering and
// stores it on the interface. Call once all exports are added.
func (i *Iface) Finalize() error {
	b, err := i.ToNormalizedJSON()
	if err != nil {
		return err
	}
	sum := sha256.Sum256(b)
	i.Digest = hex.EncodeToString(sum[:])
	return nil
}
