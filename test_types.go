package dynlib

import "fmt"

// MapResolver resolves from a fixed map. Addresses are never dereferenced by
// NewTable, so fake values are fine for exercising manifests and loaders.
type MapResolver map[string]Sym

func (m MapResolver) Resolve(name string) (Sym, error) {
	if s, ok := m[name]; ok {
		return s, nil
	}
	return 0, &SymbolError{Symbol: name, Library: "map", Err: fmt.Errorf("not in map")}
}

// Name implements the optional naming used in error messages.
func (m MapResolver) Name() string { return "map" }

// Fake builds a MapResolver assigning distinct non-zero addresses to names.
func Fake(names ...string) MapResolver {
	m := make(MapResolver, len(names))
	for i, n := range names {
		m[n] = Sym(0x1000 + 0x10*i)
	}
	return m
}
