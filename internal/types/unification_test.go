package types_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jkindrix/blood/internal/types"
)

func TestUnifyPrimitivesMatch(t *testing.T) {
	sub, err := types.Unify(types.I64, types.I64, types.Substitution{})
	require.NoError(t, err)
	require.Empty(t, sub)
}

func TestUnifyPrimitivesMismatch(t *testing.T) {
	_, err := types.Unify(types.I64, types.Bool, types.Substitution{})
	require.Error(t, err)
	var uerr *types.UnifyError
	require.ErrorAs(t, err, &uerr)
}

func TestUnifyVarBindsAndResolves(t *testing.T) {
	tv := &types.TVar{Name: "a"}
	sub, err := types.Unify(tv, types.I32, types.Substitution{})
	require.NoError(t, err)
	require.Equal(t, types.I32, types.Apply(sub, tv))
}

func TestUnifyOccursCheckFails(t *testing.T) {
	tv := &types.TVar{Name: "a"}
	self := &types.TApp{Name: "List", Args: []types.Ty{tv}}
	_, err := types.Unify(tv, self, types.Substitution{})
	require.Error(t, err)
}

func TestUnifyFunctionsRecursesOverParamsAndReturn(t *testing.T) {
	f1 := &types.TFunc{Params: []types.Ty{types.I64}, Return: types.Bool, Effects: types.NewEffectRow()}
	f2 := &types.TFunc{Params: []types.Ty{&types.TVar{Name: "a"}}, Return: types.Bool, Effects: types.NewEffectRow()}
	sub, err := types.Unify(f1, f2, types.Substitution{})
	require.NoError(t, err)
	require.Equal(t, types.I64, types.Apply(sub, &types.TVar{Name: "a"}))
}

func TestUnifyErrTypeSuppressesMismatch(t *testing.T) {
	sub, err := types.Unify(types.ErrType, types.Bool, types.Substitution{})
	require.NoError(t, err)
	require.Empty(t, sub)

	sub, err = types.Unify(types.I64, types.ErrType, types.Substitution{})
	require.NoError(t, err)
	require.Empty(t, sub)
}

func TestInstantiateIsDeterministicUnderIdentityNamer(t *testing.T) {
	scheme := &types.TForall{Vars: []string{"a"}, Body: &types.TFunc{
		Params:  []types.Ty{&types.TVar{Name: "a"}},
		Return:  &types.TVar{Name: "a"},
		Effects: types.NewEffectRow(),
	}}
	counter := 0
	namer := func(orig string) string {
		counter++
		return orig
	}
	inst1 := types.Instantiate(scheme, namer)
	inst2 := types.Instantiate(scheme, namer)
	require.NotEqual(t, inst1.String(), "")
	require.Equal(t, inst1.String(), inst2.String())
}

func TestComposeAppliesSequentially(t *testing.T) {
	s1 := types.Substitution{"a": &types.TVar{Name: "b"}}
	s2 := types.Substitution{"b": types.I64}
	composed := types.Compose(s1, s2)
	require.Equal(t, types.I64, types.Apply(composed, &types.TVar{Name: "a"}))
}
