//go:build darwin || linux

package libwkhtmltox

import (
	"sync"
	"sync/atomic"

	"github.com/ebitengine/purego"
)

// purego keeps a fixed number of callback slots for the life of the process,
// so the trampolines are created once per kind and shared by every converter.
// They find their sink through sinks.

var sinks [2]atomic.Pointer[Sink]

type callbackSet struct {
	err, warning, phase, progress, finished uintptr
}

var (
	callbackOnce [2]sync.Once
	callbackSets [2]callbackSet
)

func callbacksFor(l *Library) callbackSet {
	k := l.kind
	callbackOnce[k].Do(func() {
		callbackSets[k] = callbackSet{
			err: purego.NewCallback(func(conv, msg uintptr) {
				if s := sinkFor(k); s != nil {
					s.Error(conv, goString(msg))
				}
			}),
			warning: purego.NewCallback(func(conv, msg uintptr) {
				if s := sinkFor(k); s != nil {
					s.Warning(conv, goString(msg))
				}
			}),
			phase: purego.NewCallback(func(conv uintptr) {
				s := sinkFor(k)
				if s == nil {
					return
				}
				phase := l.currentPhase(conv)
				s.Phase(conv, int(phase), l.phaseDescription(conv, phase))
			}),
			progress: purego.NewCallback(func(conv, percent uintptr) {
				if s := sinkFor(k); s != nil {
					s.Progress(conv, int(int32(percent)))
				}
			}),
			finished: purego.NewCallback(func(conv, code uintptr) {
				if s := sinkFor(k); s != nil {
					s.Finished(conv, int(int32(code)))
				}
			}),
		}
	})
	return callbackSets[k]
}

func sinkFor(k Kind) Sink {
	if p := sinks[k].Load(); p != nil {
		return *p
	}
	return nil
}
