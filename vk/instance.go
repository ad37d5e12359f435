package vk

import (
	"sync"
	"unsafe"

	"github.com/ZenLiuCN/dynlib"
)

// InstanceProcs are the commands of one VkInstance.
//
// The table holds a loader reference until Release, so it stays callable even
// if every Init has been matched by Fini in the meantime.
type InstanceProcs struct {
	Instance Instance
	table    *dynlib.Table
	once     sync.Once
	release  func()

	destroyInstance                        func(Instance, unsafe.Pointer)
	enumeratePhysicalDevices               func(Instance, *uint32, *PhysicalDevice) Result
	getPhysicalDeviceProperties            func(PhysicalDevice, *PhysicalDeviceProperties)
	getPhysicalDeviceQueueFamilyProperties func(PhysicalDevice, *uint32, *QueueFamilyProperties)
	getPhysicalDeviceMemoryProperties      func(PhysicalDevice, unsafe.Pointer)
	createDevice                           func(PhysicalDevice, unsafe.Pointer, unsafe.Pointer, *Device) Result
	getDeviceProcAddr                      func(Device, string) uintptr
	enumerateDeviceExtensionProperties     func(PhysicalDevice, *byte, *uint32, *ExtensionProperties) Result
	destroySurfaceKHR                      func(Instance, SurfaceKHR, unsafe.Pointer)
	getPhysicalDeviceSurfaceSupportKHR     func(PhysicalDevice, uint32, SurfaceKHR, *Bool32) Result
	createWaylandSurfaceKHR                func(Instance, *WaylandSurfaceCreateInfo, unsafe.Pointer, *SurfaceKHR) Result
}

var instanceManifest = dynlib.Required(
	"vkDestroyInstance",
	"vkEnumeratePhysicalDevices",
	"vkGetPhysicalDeviceProperties",
	"vkGetPhysicalDeviceQueueFamilyProperties",
	"vkGetPhysicalDeviceMemoryProperties",
	"vkCreateDevice",
	"vkGetDeviceProcAddr",
	"vkEnumerateDeviceExtensionProperties",
).With(dynlib.Optional(
	"vkDestroySurfaceKHR",
	"vkGetPhysicalDeviceSurfaceSupportKHR",
	"vkCreateWaylandSurfaceKHR",
))

// LoadInstance resolves the instance level commands of inst. Release the
// result after vkDestroyInstance.
func LoadInstance(inst Instance) (p *InstanceProcs, err error) {
	var l *Loader
	if l, err = loader.Acquire(); err != nil {
		return
	}
	if p, err = newInstanceProcs(inst, l.resolver(inst)); err != nil {
		loader.Release()
		return
	}
	p.release = loader.Release
	return
}

func newInstanceProcs(inst Instance, r dynlib.Resolver) (p *InstanceProcs, err error) {
	var t *dynlib.Table
	if t, err = dynlib.NewTable(r, instanceManifest); err != nil {
		return
	}
	p = &InstanceProcs{Instance: inst, table: t}
	p.destroyInstance = dynlib.Bind[func(Instance, unsafe.Pointer)](t, "vkDestroyInstance")
	p.enumeratePhysicalDevices = dynlib.Bind[func(Instance, *uint32, *PhysicalDevice) Result](t, "vkEnumeratePhysicalDevices")
	p.getPhysicalDeviceProperties = dynlib.Bind[func(PhysicalDevice, *PhysicalDeviceProperties)](t, "vkGetPhysicalDeviceProperties")
	p.getPhysicalDeviceQueueFamilyProperties = dynlib.Bind[func(PhysicalDevice, *uint32, *QueueFamilyProperties)](t, "vkGetPhysicalDeviceQueueFamilyProperties")
	p.getPhysicalDeviceMemoryProperties = dynlib.Bind[func(PhysicalDevice, unsafe.Pointer)](t, "vkGetPhysicalDeviceMemoryProperties")
	p.createDevice = dynlib.Bind[func(PhysicalDevice, unsafe.Pointer, unsafe.Pointer, *Device) Result](t, "vkCreateDevice")
	p.getDeviceProcAddr = dynlib.Bind[func(Device, string) uintptr](t, "vkGetDeviceProcAddr")
	p.enumerateDeviceExtensionProperties = dynlib.Bind[func(PhysicalDevice, *byte, *uint32, *ExtensionProperties) Result](t, "vkEnumerateDeviceExtensionProperties")
	p.destroySurfaceKHR, _ = dynlib.BindOptional[func(Instance, SurfaceKHR, unsafe.Pointer)](t, "vkDestroySurfaceKHR")
	p.getPhysicalDeviceSurfaceSupportKHR, _ = dynlib.BindOptional[func(PhysicalDevice, uint32, SurfaceKHR, *Bool32) Result](t, "vkGetPhysicalDeviceSurfaceSupportKHR")
	p.createWaylandSurfaceKHR, _ = dynlib.BindOptional[func(Instance, *WaylandSurfaceCreateInfo, unsafe.Pointer, *SurfaceKHR) Result](t, "vkCreateWaylandSurfaceKHR")
	return
}

// Release the loader reference. Later calls do nothing.
func (p *InstanceProcs) Release() {
	p.once.Do(func() {
		if p.release != nil {
			p.release()
		}
	})
}

// Table the commands were bound from.
func (p *InstanceProcs) Table() *dynlib.Table { return p.table }

func (p *InstanceProcs) DestroyInstance(alloc unsafe.Pointer) {
	p.destroyInstance(p.Instance, alloc)
}

func (p *InstanceProcs) EnumeratePhysicalDevices(count *uint32, devices *PhysicalDevice) Result {
	return p.enumeratePhysicalDevices(p.Instance, count, devices)
}

func (p *InstanceProcs) GetPhysicalDeviceProperties(pd PhysicalDevice, props *PhysicalDeviceProperties) {
	p.getPhysicalDeviceProperties(pd, props)
}

func (p *InstanceProcs) GetPhysicalDeviceQueueFamilyProperties(pd PhysicalDevice, count *uint32, props *QueueFamilyProperties) {
	p.getPhysicalDeviceQueueFamilyProperties(pd, count, props)
}

// GetPhysicalDeviceMemoryProperties fills a VkPhysicalDeviceMemoryProperties.
func (p *InstanceProcs) GetPhysicalDeviceMemoryProperties(pd PhysicalDevice, props unsafe.Pointer) {
	p.getPhysicalDeviceMemoryProperties(pd, props)
}

// CreateDevice takes a VkDeviceCreateInfo.
func (p *InstanceProcs) CreateDevice(pd PhysicalDevice, info, alloc unsafe.Pointer, out *Device) Result {
	return p.createDevice(pd, info, alloc, out)
}

func (p *InstanceProcs) EnumerateDeviceExtensionProperties(pd PhysicalDevice, layer *byte, count *uint32, props *ExtensionProperties) Result {
	return p.enumerateDeviceExtensionProperties(pd, layer, count, props)
}

func (p *InstanceProcs) HasDestroySurfaceKHR() bool { return p.destroySurfaceKHR != nil }
func (p *InstanceProcs) HasGetPhysicalDeviceSurfaceSupportKHR() bool {
	return p.getPhysicalDeviceSurfaceSupportKHR != nil
}
func (p *InstanceProcs) HasCreateWaylandSurfaceKHR() bool { return p.createWaylandSurfaceKHR != nil }

func (p *InstanceProcs) DestroySurfaceKHR(surface SurfaceKHR, alloc unsafe.Pointer) {
	if p.destroySurfaceKHR == nil {
		p.table.MustFetch("vkDestroySurfaceKHR")
	}
	p.destroySurfaceKHR(p.Instance, surface, alloc)
}

func (p *InstanceProcs) GetPhysicalDeviceSurfaceSupportKHR(pd PhysicalDevice, family uint32, surface SurfaceKHR, supported *Bool32) Result {
	if p.getPhysicalDeviceSurfaceSupportKHR == nil {
		p.table.MustFetch("vkGetPhysicalDeviceSurfaceSupportKHR")
	}
	return p.getPhysicalDeviceSurfaceSupportKHR(pd, family, surface, supported)
}

// CreateWaylandSurfaceKHR needs VK_KHR_wayland_surface enabled on the instance.
func (p *InstanceProcs) CreateWaylandSurfaceKHR(info *WaylandSurfaceCreateInfo, alloc unsafe.Pointer, out *SurfaceKHR) Result {
	if p.createWaylandSurfaceKHR == nil {
		p.table.MustFetch("vkCreateWaylandSurfaceKHR")
	}
	return p.createWaylandSurfaceKHR(p.Instance, info, alloc, out)
}

// PhysicalDevices of the instance.
func (p *InstanceProcs) PhysicalDevices() ([]PhysicalDevice, error) {
	return enumerate(p.EnumeratePhysicalDevices)
}

// QueueFamilies of pd.
func (p *InstanceProcs) QueueFamilies(pd PhysicalDevice) []QueueFamilyProperties {
	var n uint32
	p.GetPhysicalDeviceQueueFamilyProperties(pd, &n, nil)
	if n == 0 {
		return nil
	}
	v := make([]QueueFamilyProperties, n)
	p.GetPhysicalDeviceQueueFamilyProperties(pd, &n, &v[0])
	return v[:n]
}

// Properties of pd.
func (p *InstanceProcs) Properties(pd PhysicalDevice) (v PhysicalDeviceProperties) {
	p.GetPhysicalDeviceProperties(pd, &v)
	return
}

// DeviceExtensions names the extensions pd supports.
func (p *InstanceProcs) DeviceExtensions(pd PhysicalDevice) ([]string, error) {
	props, err := enumerate(func(n *uint32, v *ExtensionProperties) Result {
		return p.EnumerateDeviceExtensionProperties(pd, nil, n, v)
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
