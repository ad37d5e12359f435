package dynlib

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

type (
	//Config is the candidate policy used to open one logical library.
	//
	//Open tries, in order:
	//
	//	1. the path held by environment variable Env, when set and non-empty
	//	2. every name of Names, letting the platform loader search for it
	//	3. every name of Names joined with every existing directory of Paths
	//
	//The first candidate that opens wins.
	Config struct {
		Names []string // candidate file names, most preferred first
		Paths []string // extra directories searched after the bare names
		Env   string   // environment variable holding an explicit path
		Mode  Mode     // load flags passed to every attempt
	}
	//Module is one opened Library with the Table resolved from it.
	Module struct {
		Library *Library
		Table   *Table
	}
)

// Candidates lists what Open will try, in order.
func (c Config) Candidates() (v []string) {
	if c.Env != "" {
		if p := strings.TrimSpace(os.Getenv(c.Env)); p != "" {
			v = append(v, p)
		}
	}
	v = append(v, c.Names...)
	for _, dir := range c.Paths {
		if dir == "" {
			continue
		}
		if fi, err := os.Stat(dir); err != nil || !fi.IsDir() {
			continue
		}
		for _, n := range c.Names {
			if filepath.IsAbs(n) {
				continue
			}
			v = append(v, filepath.Join(dir, n))
		}
	}
	return
}

// Open the first candidate that loads.
//
// When every candidate fails the *LoadError names all of them and joins each
// attempt's error.
func (c Config) Open() (*Library, error) {
	cs := c.Candidates()
	if len(cs) == 0 {
		return nil, &LoadError{Name: "<no candidates>", Err: fmt.Errorf("%w: empty library config", ErrProgramming)}
	}
	errs := make([]error, 0, len(cs))
	for _, n := range cs {
		l, err := Open(n, c.Mode)
		if err == nil {
			return l, nil
		}
		Logger().Debug("dynlib: candidate failed", "library", n, "err", err)
		errs = append(errs, err)
	}
	if len(errs) == 1 {
		return nil, errs[0]
	}
	return nil, &LoadError{Name: strings.Join(cs, ", "), Err: errors.Join(errs...)}
}

// Load opens a library with c and resolves m against it.
// The library is closed again if the table can not be built.
func (c Config) Load(m Manifest) (md *Module, err error) {
	var l *Library
	if l, err = c.Open(); err != nil {
		return
	}
	var t *Table
	if t, err = NewTable(l, m); err != nil {
		_ = l.Close()
		return
	}
	return &Module{Library: l, Table: t}, nil
}

// Close the library of the module. Its table must not be used afterwards.
func (md *Module) Close() error {
	return md.Library.Close()
}

// NewModule creates the reference counted lazy instance of a library and its
// table: the first Acquire opens and resolves, the last Release closes.
func NewModule(name string, c Config, m Manifest) *Lazy[*Module] {
	return NewLazy(name, func() (*Module, error) {
		return c.Load(m)
	}, func(md *Module) {
		_ = md.Close()
	})
}
