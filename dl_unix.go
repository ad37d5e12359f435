//go:build darwin || freebsd || linux || netbsd

package dynlib

import "github.com/ebitengine/purego"

const (
	BindLazy    Mode = purego.RTLD_LAZY   // resolve functions on first call
	BindNow     Mode = purego.RTLD_NOW    // resolve every relocation at open
	ScopeLocal  Mode = purego.RTLD_LOCAL  // keep symbols out of the global namespace
	ScopeGlobal Mode = purego.RTLD_GLOBAL // export symbols to later loaded libraries
)

func dlopen(name string, mode Mode) (uintptr, error) {
	return purego.Dlopen(name, int(mode))
}

func dlsym(handle uintptr, name string) (uintptr, error) {
	return purego.Dlsym(handle, name)
}

func dlclose(handle uintptr) error {
	return purego.Dlclose(handle)
}
