package dynlib

import (
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"

	"github.com/ZenLiuCN/fn"
	"github.com/stretchr/testify/require"
)

func TestConfigCandidates(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix paths")
	}
	dir := t.TempDir()
	t.Setenv("DYNLIB_TEST_LIBRARY", " /opt/custom/libfoo.so ")
	c := Config{
		Names: []string{"libfoo.so.1", "libfoo.so", "/abs/libfoo.so"},
		Paths: []string{dir, filepath.Join(dir, "missing"), ""},
		Env:   "DYNLIB_TEST_LIBRARY",
	}
	require.Equal(t, []string{
		"/opt/custom/libfoo.so",
		"libfoo.so.1",
		"libfoo.so",
		"/abs/libfoo.so",
		filepath.Join(dir, "libfoo.so.1"),
		filepath.Join(dir, "libfoo.so"),
	}, c.Candidates())

	t.Setenv("DYNLIB_TEST_LIBRARY", "")
	require.Equal(t, "libfoo.so.1", c.Candidates()[0])
}

func TestConfigOpenFailureNamesEveryCandidate(t *testing.T) {
	c := Config{Names: []string{"libdynlib-missing-a.so", "libdynlib-missing-b.so"}, Mode: BindLazy | ScopeLocal}
	l, err := c.Open()
	require.Nil(t, l)
	require.ErrorIs(t, err, ErrLoad)
	require.Contains(t, err.Error(), "libdynlib-missing-a.so")
	require.Contains(t, err.Error(), "libdynlib-missing-b.so")

	_, err = Config{}.Open()
	require.ErrorIs(t, err, ErrProgramming)
}

func TestConfigFallsBackToLaterCandidate(t *testing.T) {
	name, pid := systemLibrary(t)
	c := Config{Names: []string{"libdynlib-missing.so", name}, Mode: BindNow | ScopeLocal}
	md, err := c.Load(Required(pid))
	if err != nil {
		t.Skipf("system library unavailable: %v", err)
	}
	defer func() { fn.Panic(md.Close()) }()
	require.Equal(t, name, md.Library.Name())
	require.True(t, md.Table.Has(pid))
}

func TestLoadMisspelledClosesLibrary(t *testing.T) {
	name, pid := systemLibrary(t)
	c := Config{Names: []string{name}, Mode: BindNow | ScopeLocal}
	md, err := c.Load(Required(pid, pid+"_misspelled"))
	require.Nil(t, md)
	if !strings.Contains(err.Error(), pid+"_misspelled") {
		t.Skipf("system library unavailable: %v", err)
	}
	require.ErrorIs(t, err, ErrMissingSymbol)
}

// TestModuleLifecycle walks a real library through the reference counted
// lifecycle on one initializer: a bad name fails without leaving state, the
// same initializer then loads a good name and shares one table until the
// last release.
func TestModuleLifecycle(t *testing.T) {
	name, pid := systemLibrary(t)
	c := Config{Names: []string{"libdynlib-missing.so"}, Mode: BindNow | ScopeLocal}
	good := NewLazy("lifecycle", func() (*Module, error) {
		return c.Load(Required(pid))
	}, func(md *Module) {
		_ = md.Close()
	})
	_, err := good.Acquire()
	require.ErrorIs(t, err, ErrLoad)
	require.Contains(t, err.Error(), "libdynlib-missing.so")
	require.Equal(t, 0, good.Count())
	_, ok := good.Get()
	require.False(t, ok)

	c.Names = []string{name}
	a, err := good.Acquire()
	if err != nil {
		t.Skipf("system library unavailable: %v", err)
	}
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b := fn.Panic1(good.Acquire())
			if b != a {
				t.Error("module not shared")
			}
			good.Release()
		}()
	}
	wg.Wait()
	require.Equal(t, 1, good.Count())
	require.False(t, a.Library.Closed())
	good.Release()
	require.True(t, a.Library.Closed())

	b := fn.Panic1(good.Acquire())
	require.NotSame(t, a, b)
	good.Release()
}
