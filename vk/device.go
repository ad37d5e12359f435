package vk

import (
	"fmt"
	"sync"
	"unsafe"

	"github.com/ZenLiuCN/dynlib"
)

// DeviceProcs are the commands of one VkDevice, resolved through
// vkGetDeviceProcAddr so calls skip the loader trampoline.
type DeviceProcs struct {
	Device  Device
	table   *dynlib.Table
	once    sync.Once
	release func()

	destroyDevice         func(Device, unsafe.Pointer)
	getDeviceQueue        func(Device, uint32, uint32, *Queue)
	deviceWaitIdle        func(Device) Result
	queueSubmit           func(Queue, uint32, unsafe.Pointer, Fence) Result
	queueWaitIdle         func(Queue) Result
	createSwapchainKHR    func(Device, unsafe.Pointer, unsafe.Pointer, *SwapchainKHR) Result
	destroySwapchainKHR   func(Device, SwapchainKHR, unsafe.Pointer)
	getSwapchainImagesKHR func(Device, SwapchainKHR, *uint32, *Image) Result
	acquireNextImageKHR   func(Device, SwapchainKHR, uint64, Semaphore, Fence, *uint32) Result
	queuePresentKHR       func(Queue, unsafe.Pointer) Result
}

var deviceManifest = dynlib.Required(
	"vkDestroyDevice",
	"vkGetDeviceQueue",
	"vkDeviceWaitIdle",
	"vkQueueSubmit",
	"vkQueueWaitIdle",
).With(dynlib.Optional(
	"vkCreateSwapchainKHR",
	"vkDestroySwapchainKHR",
	"vkGetSwapchainImagesKHR",
	"vkAcquireNextImageKHR",
	"vkQueuePresentKHR",
))

// LoadDevice resolves the device level commands of dev, a device created from
// this instance. Release the result after vkDestroyDevice.
func (p *InstanceProcs) LoadDevice(dev Device) (d *DeviceProcs, err error) {
	if _, err = loader.Acquire(); err != nil {
		return
	}
	r := procAddr{
		name: fmt.Sprintf("vkGetDeviceProcAddr(%#x)", uintptr(dev)),
		get:  func(s string) uintptr { return p.getDeviceProcAddr(dev, s) },
	}
	if d, err = newDeviceProcs(dev, r); err != nil {
		loader.Release()
		return
	}
	d.release = loader.Release
	return
}

func newDeviceProcs(dev Device, r dynlib.Resolver) (d *DeviceProcs, err error) {
	var t *dynlib.Table
	if t, err = dynlib.NewTable(r, deviceManifest); err != nil {
		return
	}
	d = &DeviceProcs{Device: dev, table: t}
	d.destroyDevice = dynlib.Bind[func(Device, unsafe.Pointer)](t, "vkDestroyDevice")
	d.getDeviceQueue = dynlib.Bind[func(Device, uint32, uint32, *Queue)](t, "vkGetDeviceQueue")
	d.deviceWaitIdle = dynlib.Bind[func(Device) Result](t, "vkDeviceWaitIdle")
	d.queueSubmit = dynlib.Bind[func(Queue, uint32, unsafe.Pointer, Fence) Result](t, "vkQueueSubmit")
	d.queueWaitIdle = dynlib.Bind[func(Queue) Result](t, "vkQueueWaitIdle")
	d.createSwapchainKHR, _ = dynlib.BindOptional[func(Device, unsafe.Pointer, unsafe.Pointer, *SwapchainKHR) Result](t, "vkCreateSwapchainKHR")
	d.destroySwapchainKHR, _ = dynlib.BindOptional[func(Device, SwapchainKHR, unsafe.Pointer)](t, "vkDestroySwapchainKHR")
	d.getSwapchainImagesKHR, _ = dynlib.BindOptional[func(Device, SwapchainKHR, *uint32, *Image) Result](t, "vkGetSwapchainImagesKHR")
	d.acquireNextImageKHR, _ = dynlib.BindOptional[func(Device, SwapchainKHR, uint64, Semaphore, Fence, *uint32) Result](t, "vkAcquireNextImageKHR")
	d.queuePresentKHR, _ = dynlib.BindOptional[func(Queue, unsafe.Pointer) Result](t, "vkQueuePresentKHR")
	return
}

// Release the loader reference. Later calls do nothing.
func (d *DeviceProcs) Release() {
	d.once.Do(func() {
		if d.release != nil {
			d.release()
		}
	})
}

// Table the commands were bound from.
func (d *DeviceProcs) Table() *dynlib.Table { return d.table }

func (d *DeviceProcs) DestroyDevice(alloc unsafe.Pointer) { d.destroyDevice(d.Device, alloc) }

func (d *DeviceProcs) GetDeviceQueue(family, index uint32) (q Queue) {
	d.getDeviceQueue(d.Device, family, index, &q)
	return
}

func (d *DeviceProcs) DeviceWaitIdle() Result { return d.deviceWaitIdle(d.Device) }

// QueueSubmit takes an array of count VkSubmitInfo.
func (d *DeviceProcs) QueueSubmit(q Queue, count uint32, submits unsafe.Pointer, fence Fence) Result {
	return d.queueSubmit(q, count, submits, fence)
}

func (d *DeviceProcs) QueueWaitIdle(q Queue) Result { return d.queueWaitIdle(q) }

// HasSwapchain reports whether every VK_KHR_swapchain command resolved.
func (d *DeviceProcs) HasSwapchain() bool {
	return d.createSwapchainKHR != nil && d.destroySwapchainKHR != nil &&
		d.getSwapchainImagesKHR != nil && d.acquireNextImageKHR != nil && d.queuePresentKHR != nil
}

func (d *DeviceProcs) HasCreateSwapchainKHR() bool    { return d.createSwapchainKHR != nil }
func (d *DeviceProcs) HasDestroySwapchainKHR() bool   { return d.destroySwapchainKHR != nil }
func (d *DeviceProcs) HasGetSwapchainImagesKHR() bool { return d.getSwapchainImagesKHR != nil }
func (d *DeviceProcs) HasAcquireNextImageKHR() bool   { return d.acquireNextImageKHR != nil }
func (d *DeviceProcs) HasQueuePresentKHR() bool       { return d.queuePresentKHR != nil }

// CreateSwapchainKHR takes a VkSwapchainCreateInfoKHR.
func (d *DeviceProcs) CreateSwapchainKHR(info, alloc unsafe.Pointer, out *SwapchainKHR) Result {
	if d.createSwapchainKHR == nil {
		d.table.MustFetch("vkCreateSwapchainKHR")
	}
	return d.createSwapchainKHR(d.Device, info, alloc, out)
}

func (d *DeviceProcs) DestroySwapchainKHR(sc SwapchainKHR, alloc unsafe.Pointer) {
	if d.destroySwapchainKHR == nil {
		d.table.MustFetch("vkDestroySwapchainKHR")
	}
	d.destroySwapchainKHR(d.Device, sc, alloc)
}

func (d *DeviceProcs) GetSwapchainImagesKHR(sc SwapchainKHR, count *uint32, images *Image) Result {
	if d.getSwapchainImagesKHR == nil {
		d.table.MustFetch("vkGetSwapchainImagesKHR")
	}
	return d.getSwapchainImagesKHR(d.Device, sc, count, images)
}

func (d *DeviceProcs) AcquireNextImageKHR(sc SwapchainKHR, timeout uint64, sem Semaphore, fence Fence, index *uint32) Result {
	if d.acquireNextImageKHR == nil {
		d.table.MustFetch("vkAcquireNextImageKHR")
	}
	return d.acquireNextImageKHR(d.Device, sc, timeout, sem, fence, index)
}

// QueuePresentKHR takes a VkPresentInfoKHR.
func (d *DeviceProcs) QueuePresentKHR(q Queue, info unsafe.Pointer) Result {
	if d.queuePresentKHR == nil {
		d.table.MustFetch("vkQueuePresentKHR")
	}
	return d.queuePresentKHR(q, info)
}

// SwapchainImages of sc.
func (d *DeviceProcs) SwapchainImages(sc SwapchainKHR) ([]Image, error) {
	return enumerate(func(n *uint32, v *Image) Result {
		return d.GetSwapchainImagesKHR(sc, n, v)
	})
}
