package dynlib

import (
	"fmt"
	"sync/atomic"
	"unsafe"
)

type (
	//Sym is the address of a resolved symbol.
	Sym uintptr
	//Mode is the set of load flags passed to the platform loader: one of BindLazy
	//or BindNow combined with one of ScopeLocal or ScopeGlobal.
	Mode int
	//Library is one opened shared library.
	//
	//Any Sym resolved from a Library must not be used after Close. Nothing can
	//check that across the foreign boundary; owners (see Lazy and Module) close
	//the library only once no caller holds a reference.
	Library struct {
		name   string
		mode   Mode
		handle atomic.Uintptr
	}
)

// Open a shared library by name or path with the given load mode.
//
// Failure returns a *LoadError carrying the platform message.
func Open(name string, mode Mode) (l *Library, err error) {
	var h uintptr
	if h, err = dlopen(name, mode); err != nil {
		return nil, &LoadError{Name: name, Err: err}
	}
	if h == 0 {
		return nil, &LoadError{Name: name}
	}
	l = &Library{name: name, mode: mode}
	l.handle.Store(h)
	Logger().Debug("dynlib: opened", "library", name, "mode", mode)
	return
}

// Name the library was opened with.
func (l *Library) Name() string { return l.name }

// Mode the library was opened with.
func (l *Library) Mode() Mode { return l.mode }

// Closed reports whether Close was called.
func (l *Library) Closed() bool { return l.handle.Load() == 0 }

// Resolve looks up symbol by exact name, implementing Resolver.
func (l *Library) Resolve(symbol string) (Sym, error) {
	h := l.handle.Load()
	if h == 0 {
		return 0, &SymbolError{Symbol: symbol, Library: l.name, Err: ErrClosed}
	}
	p, err := dlsym(h, symbol)
	if err != nil {
		return 0, &SymbolError{Symbol: symbol, Library: l.name, Err: err}
	}
	if p == 0 {
		return 0, &SymbolError{Symbol: symbol, Library: l.name}
	}
	return Sym(p), nil
}

// Fetch a symbol, ok is false when it can not be resolved.
func (l *Library) Fetch(symbol string) (s Sym, ok bool) {
	var err error
	s, err = l.Resolve(symbol)
	return s, err == nil
}

// MustFetch a symbol, panics with the *SymbolError on failure.
func (l *Library) MustFetch(symbol string) Sym {
	s, err := l.Resolve(symbol)
	if err != nil {
		panic(err)
	}
	return s
}

// Close releases the handle. Closing twice is a no-op.
func (l *Library) Close() (err error) {
	h := l.handle.Swap(0)
	if h == 0 {
		return
	}
	if err = dlclose(h); err != nil {
		err = fmt.Errorf("dynlib: close %s: %w", l.name, err)
		Logger().Warn("dynlib: close failed", "library", l.name, "err", err)
		return
	}
	Logger().Debug("dynlib: closed", "library", l.name)
	return
}

// As reinterprets a Sym as a pointer sized value, usually a pointer to an
// exported data object such as a Wayland interface descriptor.
//
// For functions use Bind instead.
func As[T any](ptr Sym) (x T) {
	if unsafe.Sizeof(x) != unsafe.Sizeof(ptr) {
		panic(fmt.Errorf("%w: As[%T] needs a pointer sized type", ErrProgramming, x))
	}
	px := (*T)(unsafe.Pointer(&ptr))
	x = *px
	return
}
