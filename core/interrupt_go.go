//go:build !tinygo

package core

// disableInterrupts has nothing to mask on hosted Go.
func disableInterrupts() State {
	return 0
}

func restoreInterrupts(State) {}
