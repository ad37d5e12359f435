//go:build darwin || freebsd || linux || netbsd || windows

package dynlib

import "github.com/ebitengine/purego"

// Bind turns the address of name into a callable Go function of type T.
//
// This is the only place an untyped foreign address becomes a typed function.
// T must match the exported C signature exactly; nothing can verify that.
// Bind panics with ErrProgramming when name is absent from t.
func Bind[T any](t *Table, name string) (f T) {
	purego.RegisterFunc(&f, uintptr(t.MustFetch(name)))
	return
}

// BindOptional is Bind for optional entries, ok is false and f nil when name
// is absent.
func BindOptional[T any](t *Table, name string) (f T, ok bool) {
	var s Sym
	if s, ok = t.Fetch(name); ok {
		purego.RegisterFunc(&f, uintptr(s))
	}
	return
}
