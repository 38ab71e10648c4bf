//go:build darwin

package wkhtmltox

import (
	"sync"

	"github.com/ebitengine/purego"
)

var pthreadThreadIDNP = sync.OnceValue(func() func(thread uintptr, id *uint64) int32 {
	lib, err := purego.Dlopen("/usr/lib/libSystem.B.dylib", purego.RTLD_NOW|purego.RTLD_GLOBAL)
	if err != nil {
		return nil
	}
	var fn func(thread uintptr, id *uint64) int32
	purego.RegisterLibFunc(&fn, lib, "pthread_threadid_np")
	return fn
})

// currentThreadID returns the system-wide id of the calling OS thread, or 0
// if libSystem could not be loaded.
func currentThreadID() uint64 {
	fn := pthreadThreadIDNP()
	if fn == nil {
		return 0
	}
	var id uint64
	// A zero pthread_t means the calling thread.
	if fn(0, &id) != 0 {
		return 0
	}
	return id
}
