package wl

import (
	"fmt"
	"unsafe"

	"github.com/ZenLiuCN/dynlib"
)

type (
	//Loader is the opened client library.
	Loader struct {
		md    *dynlib.Module
		procs *Procs
	}
	//Procs are the resolved client entry points and interface descriptors.
	Procs struct {
		table *dynlib.Table

		displayConnect                   func(name *byte) Display
		displayDisconnect                func(Display)
		displayGetFD                     func(Display) int32
		displayDispatch                  func(Display) int32
		displayDispatchPending           func(Display) int32
		displayRoundtrip                 func(Display) int32
		displayFlush                     func(Display) int32
		displayGetError                  func(Display) int32
		proxyAddListener                 func(Proxy, unsafe.Pointer, unsafe.Pointer) int32
		proxyDestroy                     func(Proxy)
		proxyGetID                       func(Proxy) uint32
		proxySetUserData                 func(Proxy, unsafe.Pointer)
		proxyGetUserData                 func(Proxy) unsafe.Pointer
		proxyMarshalConstructorVersioned func(Proxy, uint32, *Argument, *Interface, uint32) Proxy
		proxyGetVersion                  func(Proxy) uint32
		proxyMarshalFlags                func(Proxy, uint32, *Interface, uint32, uint32, *Argument) Proxy
	}
)

var interfaces = []string{
	"wl_registry",
	"wl_compositor",
	"wl_surface",
	"wl_seat",
	"wl_output",
	"wl_shm",
}

var manifest = dynlib.Required(
	"wl_display_connect",
	"wl_display_disconnect",
	"wl_display_get_fd",
	"wl_display_dispatch",
	"wl_display_dispatch_pending",
	"wl_display_roundtrip",
	"wl_display_flush",
	"wl_display_get_error",
	"wl_proxy_add_listener",
	"wl_proxy_destroy",
	"wl_proxy_get_id",
	"wl_proxy_set_user_data",
	"wl_proxy_get_user_data",
	"wl_proxy_marshal_array_constructor_versioned",
).With(
	dynlib.Optional("wl_proxy_get_version", "wl_proxy_marshal_array_flags"),
	interfaceManifest(),
)

func interfaceManifest() dynlib.Manifest {
	m := make(dynlib.Manifest, len(interfaces))
	for i, n := range interfaces {
		m[i] = dynlib.Entry{Name: n + "_interface"}
	}
	return m
}

var loader = dynlib.NewLazy("wayland", open, (*Loader).close)

func open() (*Loader, error) {
	md, err := Library.Load(manifest)
	if err != nil {
		return nil, err
	}
	return &Loader{md: md, procs: newProcs(md.Table)}, nil
}

func (l *Loader) close() { _ = l.md.Close() }

// Procs of the loader.
func (l *Loader) Procs() *Procs { return l.procs }

// Path the library was opened from.
func (l *Loader) Path() string { return l.md.Library.Name() }

func newProcs(t *dynlib.Table) *Procs {
	p := &Procs{table: t}
	p.displayConnect = dynlib.Bind[func(*byte) Display](t, "wl_display_connect")
	p.displayDisconnect = dynlib.Bind[func(Display)](t, "wl_display_disconnect")
	p.displayGetFD = dynlib.Bind[func(Display) int32](t, "wl_display_get_fd")
	p.displayDispatch = dynlib.Bind[func(Display) int32](t, "wl_display_dispatch")
	p.displayDispatchPending = dynlib.Bind[func(Display) int32](t, "wl_display_dispatch_pending")
	p.displayRoundtrip = dynlib.Bind[func(Display) int32](t, "wl_display_roundtrip")
	p.displayFlush = dynlib.Bind[func(Display) int32](t, "wl_display_flush")
	p.displayGetError = dynlib.Bind[func(Display) int32](t, "wl_display_get_error")
	p.proxyAddListener = dynlib.Bind[func(Proxy, unsafe.Pointer, unsafe.Pointer) int32](t, "wl_proxy_add_listener")
	p.proxyDestroy = dynlib.Bind[func(Proxy)](t, "wl_proxy_destroy")
	p.proxyGetID = dynlib.Bind[func(Proxy) uint32](t, "wl_proxy_get_id")
	p.proxySetUserData = dynlib.Bind[func(Proxy, unsafe.Pointer)](t, "wl_proxy_set_user_data")
	p.proxyGetUserData = dynlib.Bind[func(Proxy) unsafe.Pointer](t, "wl_proxy_get_user_data")
	p.proxyMarshalConstructorVersioned = dynlib.Bind[func(Proxy, uint32, *Argument, *Interface, uint32) Proxy](t, "wl_proxy_marshal_array_constructor_versioned")
	p.proxyGetVersion, _ = dynlib.BindOptional[func(Proxy) uint32](t, "wl_proxy_get_version")
	p.proxyMarshalFlags, _ = dynlib.BindOptional[func(Proxy, uint32, *Interface, uint32, uint32, *Argument) Proxy](t, "wl_proxy_marshal_array_flags")
	return p
}

// Init loads libwayland-client, or takes another reference to it. Every
// successful Init must be paired with Fini.
func Init() error {
	_, err := loader.Acquire()
	return err
}

// Fini drops a reference taken by Init. The last one closes the library.
func Fini() { loader.Release() }

// Current loader, panics with dynlib.ErrUninitialized outside Init and Fini.
func Current() *Loader {
	l, ok := loader.Get()
	if !ok {
		panic(fmt.Errorf("%w: wayland", dynlib.ErrUninitialized))
	}
	return l
}

// Interface descriptor exported by the library, name is the interface name
// such as "wl_surface". Unknown names panic with dynlib.ErrProgramming.
func (p *Procs) Interface(name string) *Interface {
	return dynlib.As[*Interface](p.table.MustFetch(name + "_interface"))
}

// Connect to the named display, or the default one when name is empty.
// Zero means the connection failed.
func (p *Procs) Connect(name string) Display { return p.displayConnect(cString(name)) }

func (p *Procs) Disconnect(d Display)            { p.displayDisconnect(d) }
func (p *Procs) GetFD(d Display) int32           { return p.displayGetFD(d) }
func (p *Procs) Dispatch(d Display) int32        { return p.displayDispatch(d) }
func (p *Procs) DispatchPending(d Display) int32 { return p.displayDispatchPending(d) }
func (p *Procs) Roundtrip(d Display) int32       { return p.displayRoundtrip(d) }
func (p *Procs) Flush(d Display) int32           { return p.displayFlush(d) }
func (p *Procs) GetError(d Display) int32        { return p.displayGetError(d) }

// ProxyAddListener installs a C listener vtable.
func (p *Procs) ProxyAddListener(x Proxy, impl, data unsafe.Pointer) int32 {
	return p.proxyAddListener(x, impl, data)
}

func (p *Procs) ProxyDestroy(x Proxy)                          { p.proxyDestroy(x) }
func (p *Procs) ProxyGetID(x Proxy) uint32                     { return p.proxyGetID(x) }
func (p *Procs) ProxySetUserData(x Proxy, data unsafe.Pointer) { p.proxySetUserData(x, data) }
func (p *Procs) ProxyGetUserData(x Proxy) unsafe.Pointer       { return p.proxyGetUserData(x) }

func (p *Procs) ProxyMarshalArrayConstructorVersioned(x Proxy, opcode uint32, args *Argument, iface *Interface, version uint32) Proxy {
	return p.proxyMarshalConstructorVersioned(x, opcode, args, iface, version)
}

func (p *Procs) HasProxyGetVersion() bool        { return p.proxyGetVersion != nil }
func (p *Procs) HasProxyMarshalArrayFlags() bool { return p.proxyMarshalFlags != nil }

func (p *Procs) ProxyGetVersion(x Proxy) uint32 {
	if p.proxyGetVersion == nil {
		p.table.MustFetch("wl_proxy_get_version")
	}
	return p.proxyGetVersion(x)
}

func (p *Procs) ProxyMarshalArrayFlags(x Proxy, opcode uint32, iface *Interface, version, flags uint32, args *Argument) Proxy {
	if p.proxyMarshalFlags == nil {
		p.table.MustFetch("wl_proxy_marshal_array_flags")
	}
	return p.proxyMarshalFlags(x, opcode, iface, version, flags, args)
}

// GetRegistry sends wl_display.get_registry and returns the new registry
// proxy, zero on failure.
func (p *Procs) GetRegistry(d Display) Proxy {
	var version uint32
	if p.HasProxyGetVersion() {
		version = p.ProxyGetVersion(d.Proxy())
	}
	args := [1]Argument{}
	iface := p.Interface("wl_registry")
	if p.HasProxyMarshalArrayFlags() {
		return p.ProxyMarshalArrayFlags(d.Proxy(), DisplayGetRegistry, iface, version, 0, &args[0])
	}
	return p.ProxyMarshalArrayConstructorVersioned(d.Proxy(), DisplayGetRegistry, &args[0], iface, version)
}

func procs() *Procs { return Current().procs }

func InterfaceOf(name string) *Interface { return procs().Interface(name) }
func Connect(name string) Display        { return procs().Connect(name) }
func Disconnect(d Display)               { procs().Disconnect(d) }
func GetFD(d Display) int32              { return procs().GetFD(d) }
func Dispatch(d Display) int32           { return procs().Dispatch(d) }
func DispatchPending(d Display) int32    { return procs().DispatchPending(d) }
func Roundtrip(d Display) int32          { return procs().Roundtrip(d) }
func Flush(d Display) int32              { return procs().Flush(d) }
func GetError(d Display) int32           { return procs().GetError(d) }
func GetRegistry(d Display) Proxy        { return procs().GetRegistry(d) }

func ProxyAddListener(x Proxy, impl, data unsafe.Pointer) int32 {
	return procs().ProxyAddListener(x, impl, data)
}

func ProxyDestroy(x Proxy)                          { procs().ProxyDestroy(x) }
func ProxyGetID(x Proxy) uint32                     { return procs().ProxyGetID(x) }
func ProxySetUserData(x Proxy, data unsafe.Pointer) { procs().ProxySetUserData(x, data) }
func ProxyGetUserData(x Proxy) unsafe.Pointer       { return procs().ProxyGetUserData(x) }
func HasProxyGetVersion() bool                      { return procs().HasProxyGetVersion() }
func HasProxyMarshalArrayFlags() bool               { return procs().HasProxyMarshalArrayFlags() }
func ProxyGetVersion(x Proxy) uint32                { return procs().ProxyGetVersion(x) }

func ProxyMarshalArrayConstructorVersioned(x Proxy, opcode uint32, args *Argument, iface *Interface, version uint32) Proxy {
	return procs().ProxyMarshalArrayConstructorVersioned(x, opcode, args, iface, version)
}

func ProxyMarshalArrayFlags(x Proxy, opcode uint32, iface *Interface, version, flags uint32, args *Argument) Proxy {
	return procs().ProxyMarshalArrayFlags(x, opcode, iface, version, flags, args)
}
