package dynlib

import (
	"errors"
	"os"
	"runtime"
	"testing"
	"unsafe"

	"github.com/ZenLiuCN/fn"
	"github.com/stretchr/testify/require"
)

// systemLibrary names a library every test host has, and a symbol in it
// returning the current process id.
func systemLibrary(t testing.TB) (name, pid string) {
	switch runtime.GOOS {
	case "linux":
		return "libc.so.6", "getpid"
	case "android":
		return "libc.so", "getpid"
	case "darwin":
		return "/usr/lib/libSystem.B.dylib", "getpid"
	case "freebsd":
		return "libc.so.7", "getpid"
	case "windows":
		return "kernel32.dll", "GetCurrentProcessId"
	}
	t.Skipf("no system library known for %s", runtime.GOOS)
	return
}

func openSystem(t testing.TB) (*Library, string) {
	name, pid := systemLibrary(t)
	l, err := Open(name, BindNow|ScopeLocal)
	if err != nil {
		t.Skipf("system library unavailable: %v", err)
	}
	return l, pid
}

func TestOpenAndCall(t *testing.T) {
	l, pid := openSystem(t)
	defer func() { fn.Panic(l.Close()) }()
	tb := fn.Panic1(NewTable(l, Required(pid)))
	getpid := Bind[func() uint32](tb, pid)
	require.EqualValues(t, os.Getpid(), getpid())
	require.Equal(t, l.Name(), tb.Name())
}

func TestOpenMissing(t *testing.T) {
	const name = "libdynlib-does-not-exist.so.9"
	l, err := Open(name, BindLazy|ScopeLocal)
	require.Nil(t, l)
	require.ErrorIs(t, err, ErrLoad)
	require.Contains(t, err.Error(), name)
	var le *LoadError
	require.True(t, errors.As(err, &le))
	require.Equal(t, name, le.Name)
}

func TestResolveMissingAndClosed(t *testing.T) {
	l, pid := openSystem(t)
	_, err := l.Resolve("dynlib_no_such_symbol")
	require.ErrorIs(t, err, ErrMissingSymbol)
	require.Contains(t, err.Error(), "dynlib_no_such_symbol")
	_, ok := l.Fetch("dynlib_no_such_symbol")
	require.False(t, ok)
	require.NotZero(t, l.MustFetch(pid))

	require.NoError(t, l.Close())
	require.True(t, l.Closed())
	require.NoError(t, l.Close())
	_, err = l.Resolve(pid)
	require.ErrorIs(t, err, ErrClosed)
	require.ErrorIs(t, err, ErrMissingSymbol)
	require.Panics(t, func() { l.MustFetch(pid) })
}

var asTarget int64 = 42

func TestAs(t *testing.T) {
	p := As[*int64](Sym(uintptr(unsafe.Pointer(&asTarget))))
	require.Same(t, &asTarget, p)
	require.Equal(t, uintptr(7), As[uintptr](Sym(7)))
	mustPanic(t, ErrProgramming, func() { _ = As[[2]uintptr](Sym(1)) })
}
