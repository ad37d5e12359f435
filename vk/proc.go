package vk

import (
	"fmt"
	"unsafe"

	"github.com/ZenLiuCN/dynlib"
)

type (
	//Loader is the opened Vulkan loader library with its global command table.
	Loader struct {
		lib                 *dynlib.Library
		getInstanceProcAddr func(inst Instance, name string) uintptr
		global              *GlobalProcs
	}
	//GlobalProcs are the commands resolved with a null instance.
	GlobalProcs struct {
		table                                *dynlib.Table
		createInstance                       func(info *InstanceCreateInfo, alloc unsafe.Pointer, out *Instance) Result
		enumerateInstanceExtensionProperties func(layer *byte, count *uint32, props *ExtensionProperties) Result
		enumerateInstanceLayerProperties     func(count *uint32, props *LayerProperties) Result
		enumerateInstanceVersion             func(version *uint32) Result
	}
	// procAddr resolves through vkGet*ProcAddr, where a null result means missing.
	procAddr struct {
		name string
		get  func(name string) uintptr
	}
)

var (
	loaderManifest = dynlib.Required("vkGetInstanceProcAddr")
	globalManifest = dynlib.Required(
		"vkCreateInstance",
		"vkEnumerateInstanceExtensionProperties",
		"vkEnumerateInstanceLayerProperties",
	).With(dynlib.Optional("vkEnumerateInstanceVersion"))
)

var loader = dynlib.NewLazy("vulkan", open, (*Loader).close)

func (p procAddr) Name() string { return p.name }
func (p procAddr) Resolve(name string) (dynlib.Sym, error) {
	return dynlib.Sym(p.get(name)), nil
}

func open() (l *Loader, err error) {
	var md *dynlib.Module
	if md, err = Library.Load(loaderManifest); err != nil {
		return
	}
	l = &Loader{
		lib:                 md.Library,
		getInstanceProcAddr: dynlib.Bind[func(Instance, string) uintptr](md.Table, "vkGetInstanceProcAddr"),
	}
	if l.global, err = newGlobalProcs(l.resolver(0)); err != nil {
		_ = md.Close()
		return nil, err
	}
	return
}

func (l *Loader) close() { _ = l.lib.Close() }

func (l *Loader) resolver(inst Instance) procAddr {
	name := "vkGetInstanceProcAddr"
	if inst != 0 {
		name = fmt.Sprintf("vkGetInstanceProcAddr(%#x)", uintptr(inst))
	}
	return procAddr{name: name, get: func(s string) uintptr { return l.getInstanceProcAddr(inst, s) }}
}

// Global table of the initialized loader.
func (l *Loader) Global() *GlobalProcs { return l.global }

// Path the loader library was opened from.
func (l *Loader) Path() string { return l.lib.Name() }

func newGlobalProcs(r dynlib.Resolver) (p *GlobalProcs, err error) {
	var t *dynlib.Table
	if t, err = dynlib.NewTable(r, globalManifest); err != nil {
		return
	}
	p = &GlobalProcs{table: t}
	p.createInstance = dynlib.Bind[func(*InstanceCreateInfo, unsafe.Pointer, *Instance) Result](t, "vkCreateInstance")
	p.enumerateInstanceExtensionProperties = dynlib.Bind[func(*byte, *uint32, *ExtensionProperties) Result](t, "vkEnumerateInstanceExtensionProperties")
	p.enumerateInstanceLayerProperties = dynlib.Bind[func(*uint32, *LayerProperties) Result](t, "vkEnumerateInstanceLayerProperties")
	p.enumerateInstanceVersion, _ = dynlib.BindOptional[func(*uint32) Result](t, "vkEnumerateInstanceVersion")
	return
}

// Init loads the Vulkan loader, or takes another reference to the loaded one.
// Every successful Init must be paired with Fini.
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
		panic(fmt.Errorf("%w: vulkan", dynlib.ErrUninitialized))
	}
	return l
}

func (p *GlobalProcs) CreateInstance(info *InstanceCreateInfo, alloc unsafe.Pointer, out *Instance) Result {
	return p.createInstance(info, alloc, out)
}

func (p *GlobalProcs) EnumerateInstanceExtensionProperties(layer *byte, count *uint32, props *ExtensionProperties) Result {
	return p.enumerateInstanceExtensionProperties(layer, count, props)
}

func (p *GlobalProcs) EnumerateInstanceLayerProperties(count *uint32, props *LayerProperties) Result {
	return p.enumerateInstanceLayerProperties(count, props)
}

// HasEnumerateInstanceVersion is false on 1.0 loaders.
func (p *GlobalProcs) HasEnumerateInstanceVersion() bool { return p.enumerateInstanceVersion != nil }

// EnumerateInstanceVersion panics with dynlib.ErrProgramming on 1.0 loaders.
func (p *GlobalProcs) EnumerateInstanceVersion(version *uint32) Result {
	if p.enumerateInstanceVersion == nil {
		p.table.MustFetch("vkEnumerateInstanceVersion")
	}
	return p.enumerateInstanceVersion(version)
}

// InstanceVersion supported by the loader, 1.0 when it predates the query.
func (p *GlobalProcs) InstanceVersion() (uint32, error) {
	if !p.HasEnumerateInstanceVersion() {
		return APIVersion10, nil
	}
	var v uint32
	if err := p.EnumerateInstanceVersion(&v).Err(); err != nil {
		return 0, err
	}
	return v, nil
}

// InstanceExtensions names the instance extensions of the loader and the
// implicit layers.
func (p *GlobalProcs) InstanceExtensions() ([]string, error) {
	props, err := enumerate(func(n *uint32, v *ExtensionProperties) Result {
		return p.EnumerateInstanceExtensionProperties(nil, n, v)
	})
	if err != nil {
		return nil, err
	}
	names := make([]string, len(props))
	for i := range props {
		names[i] = GoString(props[i].ExtensionName[:])
	}
	return names, nil
}

// InstanceLayers names the available instance layers.
func (p *GlobalProcs) InstanceLayers() ([]string, error) {
	props, err := enumerate(p.EnumerateInstanceLayerProperties)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(props))
	for i := range props {
		names[i] = GoString(props[i].LayerName[:])
	}
	return names, nil
}

// enumerate runs the two call count then fill pattern, retrying while the
// implementation reports Incomplete.
func enumerate[T any](call func(count *uint32, v *T) Result) ([]T, error) {
	for {
		var n uint32
		if err := call(&n, nil).Err(); err != nil {
			return nil, err
		}
		if n == 0 {
			return nil, nil
		}
		v := make([]T, n)
		r := call(&n, &v[0])
		if r == Incomplete {
			continue
		}
		if err := r.Err(); err != nil {
			return nil, err
		}
		return v[:n], nil
	}
}

func CreateInstance(info *InstanceCreateInfo, alloc unsafe.Pointer, out *Instance) Result {
	return Current().global.CreateInstance(info, alloc, out)
}

func EnumerateInstanceExtensionProperties(layer *byte, count *uint32, props *ExtensionProperties) Result {
	return Current().global.EnumerateInstanceExtensionProperties(layer, count, props)
}

func EnumerateInstanceLayerProperties(count *uint32, props *LayerProperties) Result {
	return Current().global.EnumerateInstanceLayerProperties(count, props)
}

func HasEnumerateInstanceVersion() bool { return Current().global.HasEnumerateInstanceVersion() }

func EnumerateInstanceVersion(version *uint32) Result {
	return Current().global.EnumerateInstanceVersion(version)
}

func InstanceVersion() (uint32, error)      { return Current().global.InstanceVersion() }
func InstanceExtensions() ([]string, error) { return Current().global.InstanceExtensions() }
func InstanceLayers() ([]string, error)     { return Current().global.InstanceLayers() }
