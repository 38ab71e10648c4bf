package wkhtmltox

import "sync"

// State is the lifecycle position of an engine within this process.
type State int

const (
	// StateUninitialized: Init has not succeeded yet.
	StateUninitialized State = iota
	// StateReady: a new job may acquire the engine.
	StateReady
	// StateBusy: a job owns the engine until its output or failure is released.
	StateBusy
	// StateDeinitialized: the guard was closed; terminal for the process.
	StateDeinitialized
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateReady:
		return "ready"
	case StateBusy:
		return "busy"
	case StateDeinitialized:
		return "deinitialized"
	}
	return "unknown"
}

// engineState is the process-wide state machine of one engine kind.
// Every transition happens under mu and mu is never held across a native call
// that can block.
type engineState struct {
	mu         sync.Mutex
	state      State
	attempted  bool   // Init was called, whatever the outcome
	initThread uint64 // set once, when native init succeeds
	threadSet  bool
	generation uint64 // bumped on every Ready -> Busy
}

// beginInit claims the single initialization attempt.
func (s *engineState) beginInit() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.attempted {
		return ErrIllegalInit
	}
	s.attempted = true
	return nil
}

// abortInit gives the attempt back when no native call was made.
func (s *engineState) abortInit() {
	s.mu.Lock()
	s.attempted = false
	s.mu.Unlock()
}

// finishInit records a successful native init on thread.
func (s *engineState) finishInit(thread uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateUninitialized {
		s.state = StateReady
		s.initThread = thread
		s.threadSet = true
	}
}

// checkThread compares the caller against the init thread. Before a successful
// init there is no thread to compare against.
func (s *engineState) checkThread(current uint64) error {
	s.mu.Lock()
	expected, known := s.initThread, s.threadSet
	s.mu.Unlock()

	if known && expected != current {
		return &ThreadMismatchError{Expected: expected, Actual: current}
	}
	return nil
}

// usable reports whether native resources may still be created or destroyed.
func (s *engineState) usable() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateReady, StateBusy:
		return nil
	}
	return ErrNotInitialized
}

// acquire flips Ready to Busy in one critical section and returns the new
// generation.
func (s *engineState) acquire() (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateReady:
		s.generation++
		s.state = StateBusy
		return s.generation, nil
	case StateBusy:
		return 0, ErrBlocked
	}
	return 0, ErrNotInitialized
}

// release returns the engine to Ready if gen is still the running job.
// Releasing a stale or finished generation is a no-op.
func (s *engineState) release(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateBusy || s.generation != gen {
		return false
	}
	s.state = StateReady
	return true
}

// deinit moves to the terminal state and reports whether this call did it.
func (s *engineState) deinit() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateDeinitialized {
		return false
	}
	s.state = StateDeinitialized
	return true
}

func (s *engineState) current() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}
