//go:build tinygo

package core

import "runtime/interrupt"

// disableInterrupts masks interrupts and returns the previous mask.
func disableInterrupts() State {
	return State(interrupt.Disable())
}

// restoreInterrupts puts back the mask saved by disableInterrupts.
func restoreInterrupts(s State) {
	interrupt.Restore(interrupt.State(s))
}
