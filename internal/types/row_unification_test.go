package types_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jkindrix/blood/internal/types"
)

func TestUnifyRecordRowsClosedExactMatch(t *testing.T) {
	a := &types.TRecord{Fields: map[string]types.Ty{"x": types.I64, "y": types.I64}}
	b := &types.TRecord{Fields: map[string]types.Ty{"x": types.I64, "y": types.I64}}
	_, err := types.UnifyRecordRows(a, b, types.Substitution{})
	require.NoError(t, err)
}

func TestUnifyRecordRowsClosedMismatchFails(t *testing.T) {
	a := &types.TRecord{Fields: map[string]types.Ty{"x": types.I64}}
	b := &types.TRecord{Fields: map[string]types.Ty{"x": types.I64, "y": types.I64}}
	_, err := types.UnifyRecordRows(a, b, types.Substitution{})
	require.Error(t, err)
}

func TestUnifyRecordRowsOpenPushesExtraFieldsIntoRowVar(t *testing.T) {
	a := &types.TRecord{Fields: map[string]types.Ty{"x": types.I64}, Var: "rho"}
	b := &types.TRecord{Fields: map[string]types.Ty{"x": types.I64, "y": types.Bool}}
	sub, err := types.UnifyRecordRows(a, b, types.Substitution{})
	require.NoError(t, err)
	rho, ok := sub["rho"].(*types.TRecord)
	require.True(t, ok)
	require.Equal(t, types.Bool, rho.Fields["y"])
}

func TestUnifyRecordRowsFieldTypeMismatchFails(t *testing.T) {
	a := &types.TRecord{Fields: map[string]types.Ty{"x": types.I64}}
	b := &types.TRecord{Fields: map[string]types.Ty{"x": types.Bool}}
	_, err := types.UnifyRecordRows(a, b, types.Substitution{})
	require.Error(t, err)
}

func TestUnifyEffectRowsClosedExactMatch(t *testing.T) {
	a := types.NewEffectRow("IO")
	b := types.NewEffectRow("IO")
	_, err := types.UnifyEffectRows(a, b, types.Substitution{})
	require.NoError(t, err)
}

func TestUnifyEffectRowsClosedMismatchFails(t *testing.T) {
	a := types.NewEffectRow("IO")
	b := types.NewEffectRow("IO", "State")
	_, err := types.UnifyEffectRows(a, b, types.Substitution{})
	require.Error(t, err)
}

func TestUnifyEffectRowsOpenAbsorbsExtraLabels(t *testing.T) {
	a := types.NewEffectRow("IO")
	a.Var = "rho"
	b := types.NewEffectRow("IO", "State")
	sub, err := types.UnifyEffectRows(a, b, types.Substitution{})
	require.NoError(t, err)
	rho, ok := sub["rho"].(interface{ String() string })
	require.True(t, ok)
	require.Contains(t, rho.String(), "State")
}

func TestUnionEffectRowMergesLabels(t *testing.T) {
	caller := types.NewEffectRow("IO")
	callee := types.NewEffectRow("State")
	merged := types.UnionEffectRow(caller, callee)
	require.True(t, merged.Labels["IO"])
	require.True(t, merged.Labels["State"])
}

func TestSubtractEffectRowRemovesHandledLabel(t *testing.T) {
	row := types.NewEffectRow("IO", "State")
	sub := types.SubtractEffectRow(row, "State")
	require.True(t, sub.Labels["IO"])
	require.False(t, sub.Labels["State"])
}
