package core

import "errors"

// Status is the numeric result reported to C-style callers of the bus layer.
// Values follow the WINC host driver codes.
type Status int8

const (
	StatusOK             Status = 0
	StatusInvalidCommand Status = -1
	StatusInitFail       Status = -5
	StatusBusFail        Status = -6
	StatusInvalidArg     Status = -15
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusInvalidCommand:
		return "invalid_command"
	case StatusInitFail:
		return "init_fail"
	case StatusBusFail:
		return "bus_fail"
	case StatusInvalidArg:
		return "invalid_arg"
	default:
		return "unknown"
	}
}

var (
	// ErrBusFail is returned when the transfer primitive timed out or the
	// peripheral reported an error. The two are not distinguished.
	ErrBusFail = errors.New("bus_fail")

	// ErrInvalidCommand is returned for a command code the configured bus
	// does not implement.
	ErrInvalidCommand = errors.New("invalid_command")

	ErrInvalidArgument = errors.New("invalid_argument")
	ErrTooLarge        = errors.New("transaction_too_large")
	ErrConfig          = errors.New("bus_config_failed")
	ErrNotInitialized  = errors.New("bus_not_initialized")
)

// BusError keeps the operation and cause behind a sentinel.
type BusError struct {
	Op     string
	Status Status
	Err    error // sentinel
	Cause  error // underlying driver error, may be nil
}

func (e *BusError) Error() string {
	msg := e.Op + ": " + e.Err.Error()
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap exposes both the sentinel and the driver cause to errors.Is/As.
func (e *BusError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Err}
	}
	return []error{e.Err, e.Cause}
}

func busFail(op string, cause error) error {
	return &BusError{Op: op, Status: StatusBusFail, Err: ErrBusFail, Cause: cause}
}

func configFail(op string, cause error) error {
	return &BusError{Op: op, Status: StatusInitFail, Err: ErrConfig, Cause: cause}
}

// StatusOf projects an error returned by this package onto a Status.
func StatusOf(err error) Status {
	if err == nil {
		return StatusOK
	}
	var be *BusError
	if errors.As(err, &be) {
		return be.Status
	}
	switch {
	case errors.Is(err, ErrInvalidCommand):
		return StatusInvalidCommand
	case errors.Is(err, ErrInvalidArgument), errors.Is(err, ErrTooLarge), errors.Is(err, ErrNotInitialized):
		return StatusInvalidArg
	case errors.Is(err, ErrConfig):
		return StatusInitFail
	default:
		return StatusBusFail
	}
}
