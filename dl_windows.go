//go:build windows

package dynlib

import "golang.org/x/sys/windows"

// LoadLibrary has no binding or scope flags, modes are accepted and ignored.
const (
	BindLazy    Mode = 0x1
	BindNow     Mode = 0x2
	ScopeLocal  Mode = 0x0
	ScopeGlobal Mode = 0x100
)

func dlopen(name string, _ Mode) (uintptr, error) {
	h, err := windows.LoadLibrary(name)
	if err != nil {
		return 0, err
	}
	return uintptr(h), nil
}

func dlsym(handle uintptr, name string) (uintptr, error) {
	return windows.GetProcAddress(windows.Handle(handle), name)
}

func dlclose(handle uintptr) error {
	return windows.FreeLibrary(windows.Handle(handle))
}
