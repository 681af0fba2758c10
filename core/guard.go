package core

import "sync"

// State is the saved exclusion state returned by Guard.Acquire and handed
// back to Guard.Release.
type State uintptr

// Guard is a scoped exclusive-access region around one bus transaction.
// Release must restore whatever Acquire saved, on every exit path.
type Guard interface {
	Acquire() State
	Release(State)
}

type interruptGuard struct{}

func (interruptGuard) Acquire() State {
	return disableInterrupts()
}

func (interruptGuard) Release(s State) {
	restoreInterrupts(s)
}

// InterruptGuard masks interrupts for the duration of the transaction. On
// hosted Go it does nothing.
var InterruptGuard Guard = interruptGuard{}

// MutexGuard serialises transactions with a mutex. Use it where several
// goroutines share a bus handle.
type MutexGuard struct {
	mu sync.Mutex
}

func (g *MutexGuard) Acquire() State {
	g.mu.Lock()
	return 0
}

func (g *MutexGuard) Release(State) {
	g.mu.Unlock()
}
