//go:build !darwin && !freebsd && !linux && !netbsd && !windows

package dynlib

func Bind[T any](t *Table, name string) (f T) {
	t.MustFetch(name)
	panic(ErrUnsupported)
}

func BindOptional[T any](t *Table, name string) (f T, ok bool) {
	if _, ok = t.Fetch(name); ok {
		panic(ErrUnsupported)
	}
	return
}
