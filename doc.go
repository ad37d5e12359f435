/*
Package dynlib resolves symbols out of C shared libraries and manages the
lifetime of the libraries they come from.

# Underwater

 1. [Library] wraps one dlopen (LoadLibrary on Windows) handle, backed by [purego] so no cgo is needed.
 2. [Table] resolves a [Manifest] of required and optional symbols in one shot: either every required symbol is there or no table exists.
 3. [Lazy] is a process wide reference counted initializer: the first Acquire constructs, the last Release destroys, concurrent callers wait on a busy marker.
 4. [Bind] is the single place a foreign address becomes a typed Go function.

Sub packages vk and wl load the Vulkan and Wayland client libraries with this
machinery, pool shares arbitrary libraries by name.

# Notes

 1. A Sym or bound function must not be used after the library it came from is closed.
    Hold a reference (Acquire) for as long as you call through it.
 2. Calling an absent optional symbol, releasing without acquiring and overflowing a
    reference count panic with [ErrProgramming].
 3. Load and symbol failures are returned as errors and never cached, a later Acquire retries.

# Probe tool

	go install github.com/ZenLiuCN/dynlib/probe@latest

lists exports of a library, checks it against a manifest, and smoke tests the
Vulkan and Wayland loaders. See probe -h.

[purego]: https://github.com/ebitengine/purego
*/
package dynlib
