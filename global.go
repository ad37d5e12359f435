package dynlib

import (
	"fmt"
	"math"
	"runtime"
	"sync/atomic"
	"time"
)

// busy marks a transition in progress. It is never a valid count.
const busy = math.MaxUint32

const (
	spinYields = 16
	maxBackoff = time.Millisecond
)

// Lazy is a process wide, reference counted, lazily constructed resource.
//
// The first Acquire constructs the resource and later ones share it; the
// Release that returns the count to zero destroys it. Every transition runs
// while the counter holds busy, so construction and destruction never overlap
// and the resource slot is only written inside that window.
//
// A failed construction leaves the counter at zero, the next Acquire from any
// goroutine constructs again from scratch.
type Lazy[T any] struct {
	name      string
	count     atomic.Uint32
	slot      atomic.Pointer[T]
	construct func() (T, error)
	destroy   func(T)
}

// NewLazy creates a Lazy in the uninitialized state. destroy may be nil.
func NewLazy[T any](name string, construct func() (T, error), destroy func(T)) *Lazy[T] {
	if construct == nil {
		panic(fmt.Errorf("%w: %s: nil construct", ErrProgramming, name))
	}
	return &Lazy[T]{name: name, construct: construct, destroy: destroy}
}

// Name given at creation.
func (l *Lazy[T]) Name() string { return l.name }

// Acquire a reference, constructing the resource if there is none.
//
// Every successful Acquire must be paired with one Release. Acquire panics
// with ErrProgramming if the count would overflow.
func (l *Lazy[T]) Acquire() (v T, err error) {
	for {
		switch n := l.count.Swap(busy); n {
		case busy:
			l.wait()
		case 0:
			return l.create()
		default:
			if n+1 == busy {
				l.count.Store(n)
				panic(fmt.Errorf("%w: %s: reference count overflow", ErrProgramming, l.name))
			}
			p := l.slot.Load()
			l.count.Store(n + 1)
			return *p, nil
		}
	}
}

// Release a reference acquired by Acquire. The last Release destroys the
// resource. Releasing without a matching Acquire panics with ErrProgramming.
func (l *Lazy[T]) Release() {
	for {
		switch n := l.count.Swap(busy); n {
		case busy:
			l.wait()
		case 0:
			l.count.Store(0)
			panic(fmt.Errorf("%w: %s: release without acquire", ErrProgramming, l.name))
		case 1:
			l.teardown()
			return
		default:
			l.count.Store(n - 1)
			return
		}
	}
}

// Get borrows the current resource. The result is only safe to use while the
// caller holds a reference.
func (l *Lazy[T]) Get() (v T, ok bool) {
	p := l.slot.Load()
	if p == nil {
		return
	}
	return *p, true
}

// Count of outstanding references, -1 while a transition is running.
func (l *Lazy[T]) Count() int {
	n := l.count.Load()
	if n == busy {
		return -1
	}
	return int(n)
}

// create runs with the counter held at busy.
func (l *Lazy[T]) create() (v T, err error) {
	done := false
	defer func() {
		if !done {
			l.count.Store(0)
		}
	}()
	Logger().Debug("dynlib: constructing", "name", l.name)
	if v, err = l.construct(); err != nil {
		Logger().Warn("dynlib: construct failed", "name", l.name, "err", err)
		var zero T
		return zero, err
	}
	l.slot.Store(&v)
	l.count.Store(1)
	done = true
	return
}

// teardown runs with the counter held at busy.
func (l *Lazy[T]) teardown() {
	defer l.count.Store(0)
	p := l.slot.Swap(nil)
	if p == nil || l.destroy == nil {
		return
	}
	Logger().Debug("dynlib: destroying", "name", l.name)
	l.destroy(*p)
}

// wait until the running transition finishes, yielding first and then
// sleeping with exponential backoff.
func (l *Lazy[T]) wait() {
	d := time.Microsecond
	for i := 0; l.count.Load() == busy; i++ {
		if i < spinYields {
			runtime.Gosched()
			continue
		}
		time.Sleep(d)
		if d < maxBackoff {
			d *= 2
		}
	}
}
