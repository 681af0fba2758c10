package core

import "sync"

// DebugWriter is a function type for writing debug messages
type DebugWriter func(string)

// Trace event kinds
const (
	TraceExchange = 1 // SPI full-duplex exchange
	TraceI2CRead  = 2 // I2C block read
	TraceI2CWrite = 3 // I2C block write
	TraceInit     = 4 // controller init
	TraceReject   = 5 // request rejected before touching the bus
)

// TraceEvent records one bus transaction for post-mortem analysis
type TraceEvent struct {
	Kind   uint8
	Length uint16
	Status Status
}

const (
	TraceRingSize = 32 // Keep last 32 transactions
)

var (
	// debugPrintln is the debug print function (can be set by platform code)
	debugPrintln DebugWriter = func(s string) {} // No-op by default

	// errorPrintln receives diagnostics for programmer errors; always on
	errorPrintln DebugWriter = func(s string) {}

	// debugEnabled controls whether debug output is active
	debugEnabled bool = false

	traceMu       sync.Mutex
	traceRing     [TraceRingSize]TraceEvent
	traceRingHead uint8
)

// SetDebugWriter sets the platform-specific debug output function
// This allows platforms to redirect debug output to UART, USB, etc.
func SetDebugWriter(writer DebugWriter) {
	if writer == nil {
		writer = func(string) {}
	}
	debugPrintln = writer
}

// SetErrorWriter sets where diagnostics for invalid requests go.
func SetErrorWriter(writer DebugWriter) {
	if writer == nil {
		writer = func(string) {}
	}
	errorPrintln = writer
}

// SetDebugEnabled enables or disables debug output
func SetDebugEnabled(enabled bool) {
	debugEnabled = enabled
}

// IsDebugEnabled returns whether debug output is enabled
func IsDebugEnabled() bool {
	return debugEnabled
}

// DebugPrintln writes a debug message using the platform-specific writer
func DebugPrintln(msg string) {
	if debugEnabled {
		debugPrintln(msg)
	}
}

// ErrorPrintln writes a diagnostic regardless of the debug flag.
func ErrorPrintln(msg string) {
	errorPrintln(msg)
}

// RecordTrace captures a transaction in the ring buffer.
func RecordTrace(kind uint8, length int, status Status) {
	traceMu.Lock()
	defer traceMu.Unlock()
	idx := traceRingHead
	traceRing[idx] = TraceEvent{Kind: kind, Length: uint16(length), Status: status}
	traceRingHead = (idx + 1) % TraceRingSize
}

// Trace returns the recorded events from oldest to newest.
func Trace() []TraceEvent {
	traceMu.Lock()
	defer traceMu.Unlock()
	out := make([]TraceEvent, 0, TraceRingSize)
	start := traceRingHead
	for i := uint8(0); i < TraceRingSize; i++ {
		evt := traceRing[(start+i)%TraceRingSize]
		if evt.Kind == 0 {
			continue // Empty slot
		}
		out = append(out, evt)
	}
	return out
}

// DumpTrace outputs the ring buffer through the debug writer (call on
// shutdown/error).
func DumpTrace() {
	debugPrintln("[BUS] === Trace Dump ===")
	for _, evt := range Trace() {
		var name string
		switch evt.Kind {
		case TraceExchange:
			name = "XCHG"
		case TraceI2CRead:
			name = "I2C_RD"
		case TraceI2CWrite:
			name = "I2C_WR"
		case TraceInit:
			name = "INIT"
		case TraceReject:
			name = "REJECT"
		default:
			name = "UNKNOWN"
		}
		debugPrintln("[BUS] " + name +
			" len=" + itoa(int(evt.Length)) +
			" status=" + evt.Status.String())
	}
	debugPrintln("[BUS] === End Dump ===")
}

// ClearTrace clears the trace buffer
func ClearTrace() {
	traceMu.Lock()
	defer traceMu.Unlock()
	for i := range traceRing {
		traceRing[i] = TraceEvent{}
	}
	traceRingHead = 0
}
