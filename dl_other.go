//go:build !darwin && !freebsd && !linux && !netbsd && !windows

package dynlib

const (
	BindLazy    Mode = 0x1
	BindNow     Mode = 0x2
	ScopeLocal  Mode = 0x0
	ScopeGlobal Mode = 0x100
)

func dlopen(string, Mode) (uintptr, error)   { return 0, ErrUnsupported }
func dlsym(uintptr, string) (uintptr, error) { return 0, ErrUnsupported }
func dlclose(uintptr) error                  { return ErrUnsupported }
