package vk

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/ZenLiuCN/dynlib"
)

// Library is the candidate policy used by Init. Change it before the first
// Init to load a specific loader or ICD.
var Library = dynlib.Config{
	Names: libraryNames(runtime.GOOS),
	Paths: sdkPaths(),
	Env:   "DYNLIB_VULKAN_LIBRARY",
	Mode:  dynlib.BindNow | dynlib.ScopeLocal,
}

func libraryNames(goos string) []string {
	switch goos {
	case "windows":
		return []string{"vulkan-1.dll"}
	case "darwin", "ios":
		return []string{"libvulkan.1.dylib", "libvulkan.dylib", "libMoltenVK.dylib"}
	case "android":
		return []string{"libvulkan.so"}
	default:
		return []string{"libvulkan.so.1", "libvulkan.so"}
	}
}

func sdkPaths() []string {
	sdk := os.Getenv("VULKAN_SDK")
	if sdk == "" {
		return nil
	}
	if runtime.GOOS == "windows" {
		return []string{filepath.Join(sdk, "Bin")}
	}
	return []string{filepath.Join(sdk, "lib")}
}
