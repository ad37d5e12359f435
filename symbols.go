package dynlib

import (
	"errors"
	"fmt"
	"slices"

	"github.com/ZenLiuCN/fn"
)

var (
	// ErrLoad occurs when a shared library can not be opened.
	ErrLoad = errors.New("library load failure")
	// ErrMissingSymbol occurs when a symbol can't be found.
	ErrMissingSymbol = errors.New("missing symbol")
	// ErrClosed occurs when resolving from a closed Library.
	ErrClosed = errors.New("library closed")
	// ErrUninitialized occurs when calling through a loader that is not initialized.
	ErrUninitialized = errors.New("library not initialized")
	// ErrProgramming is the panic value for caller contract violations: calling an
	// absent optional, releasing without acquire, overflowing a reference count.
	ErrProgramming = errors.New("programming error")
	// ErrUnsupported occurs on platforms without a dynamic loader.
	ErrUnsupported = errors.New("dynamic loading unsupported on this platform")
)

type (
	// LoadError describes a library that could not be opened.
	LoadError struct {
		Name string // library name or candidate list
		Err  error  // platform message, or joined attempts
	}
	// SymbolError describes a symbol that could not be resolved.
	SymbolError struct {
		Symbol  string
		Library string
		Err     error
	}
)

func (e *LoadError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("dynlib: load %s", e.Name)
	}
	return fmt.Sprintf("dynlib: load %s: %v", e.Name, e.Err)
}
func (e *LoadError) Unwrap() error          { return e.Err }
func (e *LoadError) Is(target error) bool   { return target == ErrLoad }
func (e *SymbolError) Unwrap() error        { return e.Err }
func (e *SymbolError) Is(target error) bool { return target == ErrMissingSymbol }
func (e *SymbolError) Error() string {
	s := fmt.Sprintf("dynlib: symbol %q", e.Symbol)
	if e.Library != "" {
		s += " in " + e.Library
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

type (
	// Entry is one symbol of a Manifest.
	Entry struct {
		Name     string
		Optional bool
	}
	// Manifest lists the symbols a Table resolves.
	Manifest []Entry
	// Resolver resolves a symbol name to an address.
	Resolver interface {
		Resolve(name string) (Sym, error)
	}
	// ResolverFunc adapts a function to Resolver.
	ResolverFunc func(name string) (Sym, error)
	//Table is an immutable, fully resolved set of symbols.
	//
	//Every required entry of the Manifest it was built from is present. Optional
	//entries may be absent, callers check with Has before use.
	//
	//Addresses stay valid only while the Resolver they came from (usually a
	//Library) stays open; the owner of a Table closes both together.
	Table struct {
		name   string
		syms   map[string]Sym
		absent map[string]struct{}
	}
)

func (f ResolverFunc) Resolve(name string) (Sym, error) { return f(name) }

// Required builds a Manifest of required entries.
func Required(names ...string) Manifest {
	m := make(Manifest, 0, len(names))
	for _, n := range names {
		m = append(m, Entry{Name: n})
	}
	return m
}

// Optional builds a Manifest of optional entries.
func Optional(names ...string) Manifest {
	m := make(Manifest, 0, len(names))
	for _, n := range names {
		m = append(m, Entry{Name: n, Optional: true})
	}
	return m
}

// With returns a new Manifest holding the entries of m followed by more.
func (m Manifest) With(more ...Manifest) Manifest {
	x := slices.Clone(m)
	for _, o := range more {
		x = append(x, o...)
	}
	return x
}

// Names of every entry, in manifest order.
func (m Manifest) Names() []string {
	s := make([]string, len(m))
	for i, e := range m {
		s[i] = e.Name
	}
	return s
}

// NewTable resolves every entry of m against r.
//
// A missing required entry aborts construction, the returned error is a
// *SymbolError naming it and no Table is returned. Missing optional entries are
// recorded as absent.
func NewTable(r Resolver, m Manifest) (t *Table, err error) {
	t = &Table{
		name:   resolverName(r),
		syms:   make(map[string]Sym, len(m)),
		absent: make(map[string]struct{}),
	}
	for _, e := range m {
		if e.Name == "" {
			return nil, fmt.Errorf("%w: empty symbol name in manifest", ErrProgramming)
		}
		if t.known(e.Name) {
			return nil, fmt.Errorf("%w: duplicate symbol %q in manifest", ErrProgramming, e.Name)
		}
		var s Sym
		s, err = r.Resolve(e.Name)
		if err == nil && s == 0 {
			err = &SymbolError{Symbol: e.Name, Library: t.name}
		}
		if err != nil {
			if e.Optional {
				t.absent[e.Name] = struct{}{}
				err = nil
				continue
			}
			var se *SymbolError
			if !errors.As(err, &se) {
				err = &SymbolError{Symbol: e.Name, Library: t.name, Err: err}
			}
			Logger().Debug("dynlib: table aborted", "library", t.name, "symbol", e.Name, "err", err)
			return nil, err
		}
		t.syms[e.Name] = s
	}
	Logger().Debug("dynlib: table resolved", "library", t.name, "resolved", len(t.syms), "absent", len(t.absent))
	return
}

func resolverName(r Resolver) string {
	if n, ok := r.(interface{ Name() string }); ok {
		return n.Name()
	}
	return ""
}

func (t *Table) known(name string) bool {
	if _, ok := t.syms[name]; ok {
		return true
	}
	_, ok := t.absent[name]
	return ok
}

// Name of the library the table was resolved from, empty if unknown.
func (t *Table) Name() string { return t.name }

// Len is the count of resolved symbols.
func (t *Table) Len() int { return len(t.syms) }

// Has reports whether name was resolved.
func (t *Table) Has(name string) bool {
	_, ok := t.syms[name]
	return ok
}

// Fetch a resolved symbol.
func (t *Table) Fetch(name string) (s Sym, ok bool) {
	s, ok = t.syms[name]
	return
}

// MustFetch a resolved symbol, panics with ErrProgramming when name is an
// absent optional or not part of the manifest.
func (t *Table) MustFetch(name string) Sym {
	if s, ok := t.syms[name]; ok {
		return s
	}
	if _, ok := t.absent[name]; ok {
		panic(fmt.Errorf("%w: optional symbol %q is absent, check Has first", ErrProgramming, name))
	}
	panic(fmt.Errorf("%w: symbol %q is not in the manifest", ErrProgramming, name))
}

// Symbols are the resolved names, sorted.
func (t *Table) Symbols() []string {
	s := fn.MapKeys(t.syms)
	slices.Sort(s)
	return s
}

// Absent are the optional names that could not be resolved, sorted.
func (t *Table) Absent() []string {
	s := fn.MapKeys(t.absent)
	slices.Sort(s)
	return s
}
