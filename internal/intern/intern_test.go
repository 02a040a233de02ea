package intern_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jkindrix/blood/internal/intern"
)

func TestInternRoundTrip(t *testing.T) {
	tab := intern.New()
	a := tab.Intern("foo")
	b := tab.Intern("bar")
	c := tab.Intern("foo")

	require.Equal(t, a, c, "interning the same string twice must return the same Symbol")
	require.NotEqual(t, a, b)
	require.Equal(t, "foo", tab.String(a))
	require.Equal(t, "bar", tab.String(b))
	require.Equal(t, 2, tab.Len())
}

func TestInternZeroIsReserved(t *testing.T) {
	tab := intern.New()
	require.Equal(t, "", tab.String(0))
	require.NotEqual(t, intern.Symbol(0), tab.Intern("x"))
}
