package dynlib

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTableResolves(t *testing.T) {
	r := Fake("alpha", "beta", "gamma")
	tb, err := NewTable(r, Required("alpha", "beta").With(Optional("gamma", "delta")))
	require.NoError(t, err)
	require.Equal(t, "map", tb.Name())
	require.Equal(t, 3, tb.Len())
	require.Equal(t, []string{"alpha", "beta", "gamma"}, tb.Symbols())
	require.Equal(t, []string{"delta"}, tb.Absent())
	require.True(t, tb.Has("gamma"))
	require.False(t, tb.Has("delta"))
	s, ok := tb.Fetch("beta")
	require.True(t, ok)
	require.Equal(t, r["beta"], s)
	require.Equal(t, r["alpha"], tb.MustFetch("alpha"))
}

func TestTableMissingRequired(t *testing.T) {
	r := Fake("alpha", "beta")
	tb, err := NewTable(r, Required("alpha", "betta", "alpha2"))
	require.Nil(t, tb)
	require.ErrorIs(t, err, ErrMissingSymbol)
	require.Contains(t, err.Error(), "betta")
	var se *SymbolError
	require.True(t, errors.As(err, &se))
	require.Equal(t, "betta", se.Symbol)
}

func TestTableZeroAddressIsMissing(t *testing.T) {
	r := MapResolver{"alpha": 0x10, "beta": 0}
	_, err := NewTable(r, Required("alpha", "beta"))
	require.ErrorIs(t, err, ErrMissingSymbol)
	require.Contains(t, err.Error(), `"beta"`)

	tb, err := NewTable(r, Required("alpha").With(Optional("beta")))
	require.NoError(t, err)
	require.False(t, tb.Has("beta"))
}

func TestTableAbsentOptionalPanics(t *testing.T) {
	tb, err := NewTable(Fake("alpha"), Required("alpha").With(Optional("beta")))
	require.NoError(t, err)
	mustPanic(t, ErrProgramming, func() { tb.MustFetch("beta") })
	mustPanic(t, ErrProgramming, func() { tb.MustFetch("unknown") })
	mustPanic(t, ErrProgramming, func() { _ = Bind[func() int32](tb, "beta") })
	f, ok := BindOptional[func() int32](tb, "beta")
	require.False(t, ok)
	require.Nil(t, f)
}

func TestTableBindDoesNotCall(t *testing.T) {
	tb, err := NewTable(Fake("alpha"), Required("alpha"))
	require.NoError(t, err)
	f := Bind[func(p *byte, n uint32) int32](tb, "alpha")
	require.NotNil(t, f)
	g, ok := BindOptional[func() uintptr](tb, "alpha")
	require.True(t, ok)
	require.NotNil(t, g)
}

func TestTableBadManifest(t *testing.T) {
	_, err := NewTable(Fake("a"), Required("a", "a"))
	require.ErrorIs(t, err, ErrProgramming)
	_, err = NewTable(Fake("a"), Required("a").With(Optional("a")))
	require.ErrorIs(t, err, ErrProgramming)
	_, err = NewTable(Fake("a"), Required(""))
	require.ErrorIs(t, err, ErrProgramming)
}

func TestResolverFunc(t *testing.T) {
	calls := 0
	r := ResolverFunc(func(name string) (Sym, error) {
		calls++
		if name == "x" {
			return 0x42, nil
		}
		return 0, nil
	})
	tb, err := NewTable(r, Required("x").With(Optional("y")))
	require.NoError(t, err)
	require.Equal(t, 2, calls)
	require.Equal(t, Sym(0x42), tb.MustFetch("x"))
	require.Equal(t, []string{"y"}, tb.Absent())
	require.Equal(t, "", tb.Name())
}

func TestManifestNames(t *testing.T) {
	m := Required("a").With(Optional("b"), Required("c"))
	require.Equal(t, []string{"a", "b", "c"}, m.Names())
	require.Len(t, Required("a"), 1)
	require.True(t, m[1].Optional)
}
