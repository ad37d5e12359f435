package dynlib

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/ZenLiuCN/fn"
	"github.com/stretchr/testify/require"
)

// counted builds a Lazy over fake tables that records constructions and
// destructions, and fails if two resources are ever alive at once.
type counted struct {
	built, freed, live atomic.Int32
	overlap            atomic.Bool
	fail               atomic.Bool
}

func (c *counted) lazy(name string) *Lazy[*Table] {
	return NewLazy(name, func() (*Table, error) {
		if c.fail.Load() {
			return nil, fmt.Errorf("%s: %w", name, ErrLoad)
		}
		if c.live.Add(1) != 1 {
			c.overlap.Store(true)
		}
		c.built.Add(1)
		return NewTable(Fake("a", "b"), Required("a", "b"))
	}, func(*Table) {
		c.live.Add(-1)
		c.freed.Add(1)
	})
}

func mustPanic(t *testing.T, target error, f func()) {
	t.Helper()
	defer func() {
		r := recover()
		if r == nil {
			t.Fatalf("expected panic with %v", target)
		}
		err, ok := r.(error)
		if !ok || !errors.Is(err, target) {
			t.Fatalf("expected panic with %v, got %v", target, r)
		}
	}()
	f()
}

func TestLazyScenario(t *testing.T) {
	var c counted
	l := c.lazy("scenario")
	first := fn.Panic1(l.Acquire())
	require.Equal(t, 1, l.Count())

	var second *Table
	done := make(chan struct{})
	go func() {
		defer close(done)
		second = fn.Panic1(l.Acquire())
	}()
	<-done
	require.Equal(t, 2, l.Count())
	require.Same(t, first, second)
	require.EqualValues(t, 1, c.built.Load())

	l.Release()
	require.Equal(t, 1, l.Count())
	cur, ok := l.Get()
	require.True(t, ok)
	require.Same(t, first, cur)

	l.Release()
	require.Equal(t, 0, l.Count())
	_, ok = l.Get()
	require.False(t, ok)
	require.EqualValues(t, 1, c.freed.Load())

	third := fn.Panic1(l.Acquire())
	defer l.Release()
	require.NotSame(t, first, third)
	require.EqualValues(t, 2, c.built.Load())
}

func TestLazyConcurrentAcquireRelease(t *testing.T) {
	for _, n := range []int{2, 8, 48, 64} {
		t.Run(fmt.Sprint(n), func(t *testing.T) {
			var c counted
			l := c.lazy("concurrent")
			var ready, acquired sync.WaitGroup
			start := make(chan struct{})
			ready.Add(n)
			acquired.Add(n)
			tables := make([]*Table, n)
			for i := 0; i < n; i++ {
				go func(i int) {
					defer acquired.Done()
					ready.Done()
					<-start
					v, err := l.Acquire()
					if err != nil {
						t.Errorf("acquire: %v", err)
						return
					}
					tables[i] = v
				}(i)
			}
			ready.Wait()
			close(start)
			acquired.Wait()
			if l.Count() != n {
				t.Fatalf("count %d, want %d", l.Count(), n)
			}
			for i := 1; i < n; i++ {
				if tables[i] != tables[0] {
					t.Fatalf("goroutine %d got a different table", i)
				}
			}

			var released sync.WaitGroup
			released.Add(n)
			for i := 0; i < n; i++ {
				go func() {
					defer released.Done()
					l.Release()
				}()
			}
			released.Wait()
			if l.Count() != 0 {
				t.Fatalf("count %d after release", l.Count())
			}
			if _, ok := l.Get(); ok {
				t.Fatal("resource still present")
			}
			if c.built.Load() != 1 || c.freed.Load() != 1 {
				t.Fatalf("built %d freed %d, want 1 and 1", c.built.Load(), c.freed.Load())
			}
		})
	}
}

// TestLazyInterleaved hammers acquire/release pairs and nested holds from many
// goroutines; the resource must never be built twice at once and must be
// present whenever the caller holds a reference.
func TestLazyInterleaved(t *testing.T) {
	var c counted
	l := c.lazy("interleaved")
	workers := runtime.GOMAXPROCS(0) * 4
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 2000; i++ {
				if _, err := l.Acquire(); err != nil {
					t.Errorf("acquire: %v", err)
					return
				}
				if v, ok := l.Get(); !ok || v == nil {
					t.Error("resource absent while held")
				}
				if (w+i)%3 == 0 {
					fn.Panic1(l.Acquire())
					l.Release()
				}
				if (w+i)%7 == 0 {
					runtime.Gosched()
				}
				l.Release()
			}
		}(w)
	}
	wg.Wait()
	require.False(t, c.overlap.Load(), "two resources alive at once")
	require.Equal(t, 0, l.Count())
	require.Equal(t, c.built.Load(), c.freed.Load())
	require.EqualValues(t, 0, c.live.Load())
	t.Logf("built %d times", c.built.Load())
}

func TestLazyFailureNotCached(t *testing.T) {
	var c counted
	l := c.lazy("flaky")
	c.fail.Store(true)
	_, err := l.Acquire()
	require.ErrorIs(t, err, ErrLoad)
	require.Contains(t, err.Error(), "flaky")
	require.Equal(t, 0, l.Count())
	_, ok := l.Get()
	require.False(t, ok)

	c.fail.Store(false)
	v, err := l.Acquire()
	require.NoError(t, err)
	require.NotNil(t, v)
	require.Equal(t, 1, l.Count())
	l.Release()
}

func TestLazyReleaseWithoutAcquire(t *testing.T) {
	var c counted
	l := c.lazy("unpaired")
	mustPanic(t, ErrProgramming, l.Release)
	require.Equal(t, 0, l.Count())
	fn.Panic1(l.Acquire())
	l.Release()
	mustPanic(t, ErrProgramming, l.Release)
}

func TestLazyOverflow(t *testing.T) {
	var c counted
	l := c.lazy("overflow")
	fn.Panic1(l.Acquire())
	l.count.Store(busy - 1)
	mustPanic(t, ErrProgramming, func() { _, _ = l.Acquire() })
	require.Equal(t, uint32(busy-1), l.count.Load())
	l.count.Store(1)
	l.Release()
}

func TestLazyConstructPanic(t *testing.T) {
	calls := 0
	l := NewLazy("panicky", func() (int, error) {
		calls++
		if calls == 1 {
			panic("boom")
		}
		return calls, nil
	}, nil)
	func() {
		defer func() { _ = recover() }()
		_, _ = l.Acquire()
	}()
	require.Equal(t, 0, l.Count())
	v := fn.Panic1(l.Acquire())
	require.Equal(t, 2, v)
	l.Release()
}

func TestLazyDestroyPanic(t *testing.T) {
	l := NewLazy("teardown", func() (int, error) { return 1, nil }, func(int) { panic("boom") })
	fn.Panic1(l.Acquire())
	func() {
		defer func() { _ = recover() }()
		l.Release()
	}()
	require.Equal(t, 0, l.Count())
	_, ok := l.Get()
	require.False(t, ok)
}
