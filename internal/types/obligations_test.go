package types_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jkindrix/blood/internal/types"
)

func TestRegistryResolvesMatchingImpl(t *testing.T) {
	reg := types.NewRegistry()
	reg.Add(&types.ImplInfo{
		Trait: "Show",
		Self:  types.I64,
		Methods: map[string]types.Ty{
			"show": &types.TFunc{Params: []types.Ty{types.I64}, Return: types.Str, Effects: types.NewEffectRow()},
		},
	})

	impl, _, err := reg.Resolve(types.Obligation{Trait: "Show", Self: types.I64}, types.Substitution{})
	require.NoError(t, err)
	require.NotNil(t, impl)

	method, ok := impl.Method("show")
	require.True(t, ok)
	require.Equal(t, types.Str, method.(*types.TFunc).Return)
}

func TestRegistryResolveFailsWithNoCandidates(t *testing.T) {
	reg := types.NewRegistry()
	_, _, err := reg.Resolve(types.Obligation{Trait: "Show", Self: types.Bool}, types.Substitution{})
	require.Error(t, err)

	var oerr *types.ObligationError
	require.ErrorAs(t, err, &oerr)
}

func TestRegistryResolvesViaGenericSelfUnification(t *testing.T) {
	reg := types.NewRegistry()
	elemVar := &types.TVar{Name: "t"}
	reg.Add(&types.ImplInfo{
		Trait: "Show",
		Self:  &types.TApp{Name: "List", Args: []types.Ty{elemVar}},
		Methods: map[string]types.Ty{
			"show": &types.TFunc{Params: []types.Ty{elemVar}, Return: types.Str, Effects: types.NewEffectRow()},
		},
	})

	target := &types.TApp{Name: "List", Args: []types.Ty{types.I32}}
	impl, sub, err := reg.Resolve(types.Obligation{Trait: "Show", Self: target}, types.Substitution{})
	require.NoError(t, err)
	require.NotNil(t, impl)
	require.Equal(t, types.I32, types.Apply(sub, elemVar))
}
