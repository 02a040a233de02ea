package iface

import (
	"encoding/json"
	"sort"
)

// exportJSON and moduleJSON give the interface a normalized, deterministic
// JSON rendering: sorted field order and sorted export names, so that two
// compilations of the same module produce byte-identical interface text
// (feeding the deterministic-IR invariant's cross-module counterpart).
type exportJSON struct {
	Name    string   `json:"name"`
	Def     uint32   `json:"def"`
	Type    string   `json:"type"`
	Effects []string `json:"effects"`
	Pure    bool     `json:"pure"`
}

type moduleJSON struct {
	Module  string       `json:"module"`
	Schema  string       `json:"schema"`
	Exports []exportJSON `json:"exports"`
}

// ToNormalizedJSON renders the interface with exports sorted by name so
// the byte output is independent of map iteration order.
func (i *Iface) ToNormalizedJSON() ([]byte, error) {
	names := make([]string, 0, len(i.Exports))
	for name := range i.Exports {
		names = append(names, name)
	}
	sort.Strings(names)

	out := moduleJSON{Module: i.Module, Schema: i.Schema, Exports: make([]exportJSON, 0, len(names))}
	for _, name := range names {
		e := i.Exports[name]
		out.Exports = append(out.Exports, exportJSON{
			Name: e.Name, Def: uint32(e.Def), Type: e.Type, Effects: e.Effects, Pure: e.Pure,
		})
	}
	return json.MarshalIndent(out, "", "  ")
}
