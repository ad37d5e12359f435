package pool

import (
	"errors"
	"fmt"
	. "github.com/ZenLiuCN/dynlib"
	"github.com/ZenLiuCN/fn"
	"slices"
	"sync"
)

// Pool keeps named libraries with process wide reference counts.
// A registered library opens on its first Acquire and closes on its last Release.
type Pool struct {
	Modules map[string]*entry
	sync.RWMutex
}

// entry is one registered library.
type entry struct {
	Config   Config
	Manifest Manifest
	*Lazy[*Module]
}

var (
	ErrAlreadyLoad = errors.New("library already registered")
	ErrNotLoad     = errors.New("library not registered")
	ErrInUse       = errors.New("library in use")
)

// Default pool used by the package level functions.
var Default = NewPool()

// NewPool create new pool
func NewPool() *Pool {
	return &Pool{Modules: make(map[string]*entry)}
}

// Register a library under name. Nothing is opened until Acquire.
func (p *Pool) Register(name string, c Config, m Manifest) error {
	p.Lock()
	defer p.Unlock()
	if _, ok := p.Modules[name]; ok {
		return fmt.Errorf("%w: %s", ErrAlreadyLoad, name)
	}
	p.Modules[name] = &entry{Config: c, Manifest: m, Lazy: NewModule(name, c, m)}
	Logger().Debug("pool: registered", "name", name, "candidates", c.Candidates(), "symbols", len(m))
	return nil
}

// RegisterFile registers a library whose manifest is read from a text file.
func (p *Pool) RegisterFile(name string, c Config, manifest string) (err error) {
	var m Manifest
	if m, err = ReadManifest(manifest); err != nil {
		return
	}
	return p.Register(name, c, m)
}

// Unregister a library that no one holds.
func (p *Pool) Unregister(name string) error {
	p.Lock()
	defer p.Unlock()
	e, ok := p.Modules[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotLoad, name)
	}
	if n := e.Count(); n != 0 {
		return fmt.Errorf("%w: %s has %d references", ErrInUse, name, n)
	}
	delete(p.Modules, name)
	return nil
}

// Acquire a reference to the library, opening it when it is not open.
func (p *Pool) Acquire(name string) (*Module, error) {
	p.RLock()
	defer p.RUnlock()
	e, ok := p.Modules[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotLoad, name)
	}
	return e.Acquire()
}

// Release a reference taken by Acquire. Unknown names panic with ErrNotLoad.
func (p *Pool) Release(name string) {
	p.RLock()
	defer p.RUnlock()
	e, ok := p.Modules[name]
	if !ok {
		panic(fmt.Errorf("%w: %s", ErrNotLoad, name))
	}
	e.Release()
}

// Require fetch symbol from an acquired library.
//
// Symbols of the manifest come from the resolved table, others are looked up
// in the library directly. Panics when the library is unknown, not acquired
// or lacks the symbol.
func (p *Pool) Require(name, symbol string) Sym {
	p.RLock()
	defer p.RUnlock()
	e, ok := p.Modules[name]
	if !ok {
		panic(fmt.Errorf("%w: %s", ErrNotLoad, name))
	}
	md, ok := e.Get()
	if !ok {
		panic(fmt.Errorf("%w: %s", ErrUninitialized, name))
	}
	if s, ok := md.Table.Fetch(symbol); ok {
		return s
	}
	return md.Library.MustFetch(symbol)
}

// Names of the registered libraries, sorted.
func (p *Pool) Names() []string {
	p.RLock()
	defer p.RUnlock()
	v := fn.MapKeys(p.Modules)
	slices.Sort(v)
	return v
}

// Count of references held on name, 0 for unknown names.
func (p *Pool) Count(name string) int {
	p.RLock()
	defer p.RUnlock()
	if e, ok := p.Modules[name]; ok {
		return e.Count()
	}
	return 0
}

func Register(name string, c Config, m Manifest) error { return Default.Register(name, c, m) }
func Unregister(name string) error                     { return Default.Unregister(name) }
func Acquire(name string) (*Module, error)             { return Default.Acquire(name) }
func Release(name string)                              { Default.Release(name) }
func Require(name, symbol string) Sym                  { return Default.Require(name, symbol) }
