// Package wl loads libwayland-client at run time.
//
// Init and Fini reference count the library process wide, wrappers in between
// call straight into the resolved table. The interface descriptors exported
// by the library as data symbols are reachable through InterfaceOf.
package wl

import (
	"unsafe"

	"github.com/ZenLiuCN/dynlib"
)

// Library is the candidate policy used by Init.
var Library = dynlib.Config{
	Names: []string{"libwayland-client.so.0", "libwayland-client.so"},
	Env:   "DYNLIB_WAYLAND_LIBRARY",
	Mode:  dynlib.BindNow | dynlib.ScopeLocal,
}

type (
	// Display is a struct wl_display pointer.
	Display uintptr
	// Proxy is a struct wl_proxy pointer. A Display is also a Proxy.
	Proxy uintptr
	// Argument is one union wl_argument slot.
	Argument uint64
	// Interface mirrors struct wl_interface.
	Interface struct {
		name        *byte
		Version     int32
		MethodCount int32
		Methods     unsafe.Pointer
		EventCount  int32
		Events      unsafe.Pointer
	}
)

// Request opcodes of wl_display.
const (
	DisplaySync        uint32 = 0
	DisplayGetRegistry uint32 = 1
)

// MarshalFlagDestroy destroys the proxy after marshalling.
const MarshalFlagDestroy uint32 = 1 << 0

// Name of the interface, such as "wl_registry".
func (i *Interface) Name() string { return goString(i.name) }

// Proxy view of a display.
func (d Display) Proxy() Proxy { return Proxy(d) }

func goString(p *byte) string {
	if p == nil {
		return ""
	}
	n := 0
	for *(*byte)(unsafe.Add(unsafe.Pointer(p), n)) != 0 {
		n++
	}
	return string(unsafe.Slice(p, n))
}

func cString(s string) *byte {
	if s == "" {
		return nil
	}
	b := make([]byte, len(s)+1)
	copy(b, s)
	return &b[0]
}
