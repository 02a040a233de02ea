package mir

import (
	"strconv"

	"github.com/jkindrix/blood/internal/types"
)

// MoveTracker records which places have been moved-from within the
// function currently being lowered (spec.md §3: "Move(Place) on a
// non-Copy type marks the place as moved... subsequent reads from the
// same place without re-initialization are a compile error").
type MoveTracker struct {
	moved map[string]bool
}

func NewMoveTracker() *MoveTracker {
	return &MoveTracker{moved: make(map[string]bool)}
}

func placeKey(p Place) string {
	key := strconv.Itoa(p.Local)
	for _, proj := range p.Projections {
		switch pr := proj.(type) {
		case FieldProj:
			key += ".f" + strconv.Itoa(pr.Index)
		case IndexProj:
			key += "[" + strconv.Itoa(pr.IndexLocal) + "]"
		case DerefProj:
			key += ".*"
		case DowncastProj:
			key += "#" + pr.Variant
		}
	}
	return key
}

// MarkMoved records p as moved-from. Places are tracked by exact key, so
// a place nested under p (or a parent of p) is not reported as moved.
func (t *MoveTracker) MarkMoved(p Place) {
	t.moved[placeKey(p)] = true
}

// ClearMoved re-initializes p, e.g. on `x = ...` reassignment.
func (t *MoveTracker) ClearMoved(p Place) {
	delete(t.moved, placeKey(p))
}

// IsMoved reports whether p was moved-from and not since reassigned.
func (t *MoveTracker) IsMoved(p Place) bool {
	return t.moved[placeKey(p)]
}

// IsCopy reports whether ty's values are implicitly copyable: primitives
// and references never need move tracking, composite types do.
func IsCopy(ty types.Ty) bool {
	switch t := ty.(type) {
	case *types.TCon:
		switch t.Name {
		case "i8", "i16", "i32", "i64", "u8", "u16", "u32", "u64", "f32", "f64", "bool", "char", "()":
			return true
		}
		return false
	case *types.TRef:
		return true
	default:
		return false
	}
}
