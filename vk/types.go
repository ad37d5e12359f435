// Package vk loads the Vulkan loader library at run time and calls into it
// through resolved function tables.
//
// Init and Fini reference count the library process wide. Global commands are
// available between them; LoadInstance and LoadDevice resolve the instance and
// device level tables through vkGetInstanceProcAddr and vkGetDeviceProcAddr.
//
// Only the ABI needed by the wrappers is mirrored here. Other create info
// structures are passed as unsafe.Pointer and must match the C layout.
package vk

import (
	"fmt"
	"unsafe"
)

type (
	Instance       uintptr
	PhysicalDevice uintptr
	Device         uintptr
	Queue          uintptr
	SurfaceKHR     uint64
	SwapchainKHR   uint64
	Image          uint64
	Semaphore      uint64
	Fence          uint64
	Bool32         uint32
	StructureType  int32
	// PhysicalDeviceType is VkPhysicalDeviceType.
	PhysicalDeviceType int32
	// Result is VkResult, returned unchanged by every wrapper.
	Result int32
)

const (
	StructureTypeApplicationInfo          StructureType = 0
	StructureTypeInstanceCreateInfo       StructureType = 1
	StructureTypeWaylandSurfaceCreateInfo StructureType = 1000006000
)

const (
	PhysicalDeviceTypeOther PhysicalDeviceType = iota
	PhysicalDeviceTypeIntegratedGPU
	PhysicalDeviceTypeDiscreteGPU
	PhysicalDeviceTypeVirtualGPU
	PhysicalDeviceTypeCPU
)

const (
	MaxExtensionNameSize  = 256
	MaxDescriptionSize    = 256
	MaxPhysicalDeviceName = 256
	UUIDSize              = 16
)

type (
	ApplicationInfo struct {
		SType              StructureType
		PNext              unsafe.Pointer
		PApplicationName   *byte
		ApplicationVersion uint32
		PEngineName        *byte
		EngineVersion      uint32
		APIVersion         uint32
	}
	InstanceCreateInfo struct {
		SType                   StructureType
		PNext                   unsafe.Pointer
		Flags                   uint32
		PApplicationInfo        *ApplicationInfo
		EnabledLayerCount       uint32
		PPEnabledLayerNames     **byte
		EnabledExtensionCount   uint32
		PPEnabledExtensionNames **byte
	}
	ExtensionProperties struct {
		ExtensionName [MaxExtensionNameSize]byte
		SpecVersion   uint32
	}
	LayerProperties struct {
		LayerName             [MaxExtensionNameSize]byte
		SpecVersion           uint32
		ImplementationVersion uint32
		Description           [MaxDescriptionSize]byte
	}
	Extent3D struct {
		Width, Height, Depth uint32
	}
	QueueFamilyProperties struct {
		QueueFlags                  uint32
		QueueCount                  uint32
		TimestampValidBits          uint32
		MinImageTransferGranularity Extent3D
	}
	// PhysicalDeviceProperties mirrors the header of VkPhysicalDeviceProperties.
	// Limits and sparse properties are kept as raw bytes.
	PhysicalDeviceProperties struct {
		APIVersion        uint32
		DriverVersion     uint32
		VendorID          uint32
		DeviceID          uint32
		DeviceType        PhysicalDeviceType
		DeviceName        [MaxPhysicalDeviceName]byte
		PipelineCacheUUID [UUIDSize]byte
		_                 [4]byte
		Limits            [504]byte
		SparseProperties  [20]byte
		_                 [4]byte
	}
	WaylandSurfaceCreateInfo struct {
		SType   StructureType
		PNext   unsafe.Pointer
		Flags   uint32
		Display unsafe.Pointer // struct wl_display*
		Surface unsafe.Pointer // struct wl_surface*
	}
)

const (
	QueueGraphicsBit uint32 = 0x1
	QueueComputeBit  uint32 = 0x2
	QueueTransferBit uint32 = 0x4
)

// MakeAPIVersion packs a version the way VK_MAKE_API_VERSION does.
func MakeAPIVersion(variant, major, minor, patch uint32) uint32 {
	return variant<<29 | major<<22 | minor<<12 | patch
}

// APIVersion unpacks a packed version.
func APIVersion(v uint32) (variant, major, minor, patch uint32) {
	return v >> 29, v >> 22 & 0x7f, v >> 12 & 0x3ff, v & 0xfff
}

var (
	APIVersion10 = MakeAPIVersion(0, 1, 0, 0)
	APIVersion11 = MakeAPIVersion(0, 1, 1, 0)
	APIVersion12 = MakeAPIVersion(0, 1, 2, 0)
	APIVersion13 = MakeAPIVersion(0, 1, 3, 0)
)

const (
	Success                     Result = 0
	NotReady                    Result = 1
	Timeout                     Result = 2
	EventSet                    Result = 3
	EventReset                  Result = 4
	Incomplete                  Result = 5
	ErrorOutOfHostMemory        Result = -1
	ErrorOutOfDeviceMemory      Result = -2
	ErrorInitializationFailed   Result = -3
	ErrorDeviceLost             Result = -4
	ErrorMemoryMapFailed        Result = -5
	ErrorLayerNotPresent        Result = -6
	ErrorExtensionNotPresent    Result = -7
	ErrorFeatureNotPresent      Result = -8
	ErrorIncompatibleDriver     Result = -9
	ErrorTooManyObjects         Result = -10
	ErrorFormatNotSupported     Result = -11
	ErrorFragmentedPool         Result = -12
	ErrorUnknown                Result = -13
	ErrorSurfaceLostKHR         Result = -1000000000
	ErrorNativeWindowInUseKHR   Result = -1000000001
	SuboptimalKHR               Result = 1000001003
	ErrorOutOfDateKHR           Result = -1000001004
	ErrorIncompatibleDisplayKHR Result = -1000003001
	ErrorValidationFailedEXT    Result = -1000011001
)

var resultNames = map[Result]string{
	Success:                     "VK_SUCCESS",
	NotReady:                    "VK_NOT_READY",
	Timeout:                     "VK_TIMEOUT",
	EventSet:                    "VK_EVENT_SET",
	EventReset:                  "VK_EVENT_RESET",
	Incomplete:                  "VK_INCOMPLETE",
	ErrorOutOfHostMemory:        "VK_ERROR_OUT_OF_HOST_MEMORY",
	ErrorOutOfDeviceMemory:      "VK_ERROR_OUT_OF_DEVICE_MEMORY",
	ErrorInitializationFailed:   "VK_ERROR_INITIALIZATION_FAILED",
	ErrorDeviceLost:             "VK_ERROR_DEVICE_LOST",
	ErrorMemoryMapFailed:        "VK_ERROR_MEMORY_MAP_FAILED",
	ErrorLayerNotPresent:        "VK_ERROR_LAYER_NOT_PRESENT",
	ErrorExtensionNotPresent:    "VK_ERROR_EXTENSION_NOT_PRESENT",
	ErrorFeatureNotPresent:      "VK_ERROR_FEATURE_NOT_PRESENT",
	ErrorIncompatibleDriver:     "VK_ERROR_INCOMPATIBLE_DRIVER",
	ErrorTooManyObjects:         "VK_ERROR_TOO_MANY_OBJECTS",
	ErrorFormatNotSupported:     "VK_ERROR_FORMAT_NOT_SUPPORTED",
	ErrorFragmentedPool:         "VK_ERROR_FRAGMENTED_POOL",
	ErrorUnknown:                "VK_ERROR_UNKNOWN",
	ErrorSurfaceLostKHR:         "VK_ERROR_SURFACE_LOST_KHR",
	ErrorNativeWindowInUseKHR:   "VK_ERROR_NATIVE_WINDOW_IN_USE_KHR",
	SuboptimalKHR:               "VK_SUBOPTIMAL_KHR",
	ErrorOutOfDateKHR:           "VK_ERROR_OUT_OF_DATE_KHR",
	ErrorIncompatibleDisplayKHR: "VK_ERROR_INCOMPATIBLE_DISPLAY_KHR",
	ErrorValidationFailedEXT:    "VK_ERROR_VALIDATION_FAILED_EXT",
}

func (r Result) String() string {
	if s, ok := resultNames[r]; ok {
		return s
	}
	return fmt.Sprintf("VkResult(%d)", int32(r))
}

// Error makes error codes usable as errors.
func (r Result) Error() string { return "vk: " + r.String() }

// Err is nil for success codes (r >= 0) and r otherwise.
func (r Result) Err() error {
	if r >= 0 {
		return nil
	}
	return r
}

// CString returns a NUL terminated copy of s.
func CString(s string) *byte {
	b := make([]byte, len(s)+1)
	copy(b, s)
	return &b[0]
}

// GoString reads a NUL terminated fixed size name.
func GoString(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}
