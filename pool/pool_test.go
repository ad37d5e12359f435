package pool

import (
	"errors"
	"github.com/ZenLiuCN/dynlib"
	"github.com/ZenLiuCN/fn"
	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/require"
	"runtime"
	"sync"
	"testing"
)

func system(t *testing.T) (dynlib.Config, string) {
	var name, pid string
	switch runtime.GOOS {
	case "linux":
		name, pid = "libc.so.6", "getpid"
	case "darwin":
		name, pid = "/usr/lib/libSystem.B.dylib", "getpid"
	case "freebsd":
		name, pid = "libc.so.7", "getpid"
	case "windows":
		name, pid = "kernel32.dll", "GetCurrentProcessId"
	default:
		t.Skipf("no system library known for %s", runtime.GOOS)
	}
	return dynlib.Config{Names: []string{name}, Mode: dynlib.BindNow | dynlib.ScopeLocal}, pid
}

func TestRegistry(t *testing.T) {
	p := NewPool()
	c := dynlib.Config{Names: []string{"libdynlib-missing.so"}}
	fn.Panic(p.Register("missing", c, dynlib.Required("x")))
	e := p.Modules["missing"]
	require.Equal(t, c, e.Config)
	require.Equal(t, dynlib.Required("x"), e.Manifest)
	require.Equal(t, "missing", e.Name())
	require.ErrorIs(t, p.Register("missing", c, nil), ErrAlreadyLoad)
	require.ErrorIs(t, p.Unregister("nope"), ErrNotLoad)
	_, err := p.Acquire("nope")
	require.ErrorIs(t, err, ErrNotLoad)
	require.Panics(t, func() { p.Release("nope") })

	_, err = p.Acquire("missing")
	require.ErrorIs(t, err, dynlib.ErrLoad)
	require.Equal(t, 0, p.Count("missing"))
	require.Equal(t, []string{"missing"}, p.Names())
	require.NoError(t, p.Unregister("missing"))
	require.Empty(t, p.Names())
}

func TestRegisterFile(t *testing.T) {
	p := NewPool()
	c, _ := system(t)
	fn.Panic(p.RegisterFile("libc", c, "../testdata/libc.manifest"))
	require.Len(t, p.Modules["libc"].Manifest, 5)
	require.Error(t, p.RegisterFile("bad", c, "../testdata/bad.manifest"))
	require.Equal(t, []string{"libc"}, p.Names())
}

func TestAcquireShared(t *testing.T) {
	p := NewPool()
	c, pid := system(t)
	fn.Panic(p.Register("sys", c, dynlib.Required(pid)))
	first, err := p.Acquire("sys")
	if err != nil {
		t.Skipf("system library unavailable: %v", err)
	}
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			md := fn.Panic1(p.Acquire("sys"))
			if md != first {
				t.Error("module not shared")
			}
			p.Release("sys")
		}()
	}
	wg.Wait()
	require.Equal(t, 1, p.Count("sys"))
	require.Equal(t, first.Table.MustFetch(pid), p.Require("sys", pid))
	require.ErrorIs(t, p.Unregister("sys"), ErrInUse)

	p.Release("sys")
	require.True(t, first.Library.Closed())
	require.NoError(t, p.Unregister("sys"))
	if testing.Verbose() {
		spew.Dump(first.Table.Symbols())
	}
}

func TestRequire(t *testing.T) {
	p := NewPool()
	c, pid := system(t)
	fn.Panic(p.Register("sys", c, nil))
	require.Panics(t, func() { p.Require("other", pid) })
	func() {
		defer func() {
			err, _ := recover().(error)
			require.True(t, errors.Is(err, dynlib.ErrUninitialized))
		}()
		p.Require("sys", pid)
	}()
	if _, err := p.Acquire("sys"); err != nil {
		t.Skipf("system library unavailable: %v", err)
	}
	defer p.Release("sys")
	require.NotZero(t, p.Require("sys", pid))
	require.Panics(t, func() { p.Require("sys", "dynlib_no_such_symbol") })
}

func TestDefault(t *testing.T) {
	c, pid := system(t)
	fn.Panic(Register("default-sys", c, dynlib.Required(pid)))
	defer func() { fn.Panic(Unregister("default-sys")) }()
	if _, err := Acquire("default-sys"); err != nil {
		t.Skipf("system library unavailable: %v", err)
	}
	require.NotZero(t, Require("default-sys", pid))
	Release("default-sys")
	require.Equal(t, 0, Default.Count("default-sys"))
}
