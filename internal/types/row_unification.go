package types

import "fmt"

// UnifyRecordRows implements spec.md §4.5's record-row rule: common
// fields unify pairwise; fields only on one side are pushed into the
// other side's row variable; closed records (no row variable) require an
// exact field-set match.
func UnifyRecordRows(a, b *TRecord, sub Substitution) (Substitution, error) {
	var err error
	for name, ta := range a.Fields {
		if tb, ok := b.Fields[name]; ok {
			sub, err = Unify(ta, tb, sub)
			if err != nil {
				return nil, err
			}
		}
	}

	onlyA := fieldsNotIn(a, b)
	onlyB := fieldsNotIn(b, a)

	if a.Var == "" && len(onlyB) > 0 {
		return nil, fmt.Errorf("closed record missing fields: %v", onlyB)
	}
	if b.Var == "" && len(onlyA) > 0 {
		return nil, fmt.Errorf("closed record missing fields: %v", onlyA)
	}

	if a.Var != "" && len(onlyB) > 0 {
		extra := make(map[string]Ty, len(onlyB))
		for _, n := range onlyB {
			extra[n] = b.Fields[n]
		}
		sub[a.Var] = &TRecord{Fields: extra}
	}
	if b.Var != "" && len(onlyA) > 0 {
		extra := make(map[string]Ty, len(onlyA))
		for _, n := range onlyA {
			extra[n] = a.Fields[n]
		}
		sub[b.Var] = &TRecord{Fields: extra}
	}
	if a.Var != "" && b.Var != "" {
		return Unify(&TVar{Name: a.Var}, &TVar{Name: b.Var}, sub)
	}
	return sub, nil
}

func fieldsNotIn(a, b *TRecord) []string {
	var out []string
	for name := range a.Fields {
		if _, ok := b.Fields[name]; !ok {
			out = append(out, name)
		}
	}
	return out
}

// UnifyEffectRows implements spec.md §4.5's effect-row rule: the analog
// of UnifyRecordRows over label sets instead of typed fields.
func UnifyEffectRows(a, b *EffectRow, sub Substitution) (Substitution, error) {
	onlyA := labelsNotIn(a, b)
	onlyB := labelsNotIn(b, a)

	if a.Var == "" && len(onlyB) > 0 {
		return nil, fmt.Errorf("closed effect row missing effects: %v", onlyB)
	}
	if b.Var == "" && len(onlyA) > 0 {
		return nil, fmt.Errorf("closed effect row missing effects: %v", onlyA)
	}

	if a.Var != "" && len(onlyB) > 0 {
		extra := NewEffectRow(onlyB...)
		sub[a.Var] = &effectRowVarTy{Row: extra}
	}
	if b.Var != "" && len(onlyA) > 0 {
		extra := NewEffectRow(onlyA...)
		sub[b.Var] = &effectRowVarTy{Row: extra}
	}
	return sub, nil
}

func labelsNotIn(a, b *EffectRow) []string {
	var out []string
	for l := range a.Labels {
		if !b.Labels[l] {
			out = append(out, l)
		}
	}
	return out
}

// UnionEffectRow merges the callee's effect row into the caller's, as
// spec.md §4.5 requires for ordinary function calls: every label the
// callee may perform becomes a label the caller may perform.
func UnionEffectRow(caller, callee *EffectRow) *EffectRow {
	out := NewEffectRow()
	for l := range caller.Labels {
		out.Labels[l] = true
	}
	for l := range callee.Labels {
		out.Labels[l] = true
	}
	if caller.Var != "" {
		out.Var = caller.Var
	} else {
		out.Var = callee.Var
	}
	return out
}

// SubtractEffectRow removes handled from row, as spec.md §4.5's `try { }
// with h` rule requires: `h` handles `handled`, so the body's effect row
// no longer needs to carry it once wrapped in try.
func SubtractEffectRow(row *EffectRow, handled string) *EffectRow {
	out := NewEffectRow()
	for l := range row.Labels {
		if l != handled {
			out.Labels[l] = true
		}
	}
	out.Var = row.Var
	return out
}
