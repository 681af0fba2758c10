package core

// Command is a bus operation code understood by Dispatcher.
type Command uint8

const (
	CmdRead         Command = iota // plain read, ReadParams
	CmdWrite                       // plain write, WriteParams
	CmdWriteSpecial                // header+payload in one write, WriteSpecialParams
	CmdReadWrite                   // full-duplex exchange, ReadWriteParams
	numCommands
)

func (c Command) String() string {
	switch c {
	case CmdRead:
		return "read"
	case CmdWrite:
		return "write"
	case CmdWriteSpecial:
		return "write_special"
	case CmdReadWrite:
		return "read_write"
	default:
		return "cmd(" + itoa(int(c)) + ")"
	}
}

// ReadParams is the parameter block for CmdRead.
type ReadParams struct {
	Buf []byte
}

// WriteParams is the parameter block for CmdWrite.
type WriteParams struct {
	Buf []byte
}

// WriteSpecialParams is the parameter block for CmdWriteSpecial. Header and
// Payload go out as one uninterrupted transaction.
type WriteSpecialParams struct {
	Header  []byte
	Payload []byte
}

// ReadWriteParams is the parameter block for CmdReadWrite. Either side may
// be nil; see SPIBus.Exchange.
type ReadWriteParams struct {
	Write []byte
	Read  []byte
}

// CommandHandler runs one command against its parameter block
type CommandHandler func(params any) error

// Dispatcher maps command codes onto the operations the bus implements.
// It holds no state between calls.
type Dispatcher struct {
	handlers [numCommands]CommandHandler
	caps     Capabilities
}

// NewDispatcher registers a handler for every command bus can serve.
// Commands are discovered from the optional interfaces BlockReader,
// BlockWriter, SpecialWriter and Exchanger, so an SPI bus answers only
// CmdReadWrite and an I2C bus only the plain and composite read/write
// commands.
func NewDispatcher(bus any, caps Capabilities) *Dispatcher {
	d := &Dispatcher{caps: caps}
	if r, ok := bus.(BlockReader); ok {
		d.Register(CmdRead, func(params any) error {
			var buf []byte
			switch p := params.(type) {
			case ReadParams:
				buf = p.Buf
			case *ReadParams:
				if p == nil {
					return ErrInvalidArgument
				}
				buf = p.Buf
			default:
				return ErrInvalidArgument
			}
			return r.ReadBlock(buf)
		})
	}
	if w, ok := bus.(BlockWriter); ok {
		d.Register(CmdWrite, func(params any) error {
			var buf []byte
			switch p := params.(type) {
			case WriteParams:
				buf = p.Buf
			case *WriteParams:
				if p == nil {
					return ErrInvalidArgument
				}
				buf = p.Buf
			default:
				return ErrInvalidArgument
			}
			return w.WriteBlock(buf)
		})
	}
	if sw, ok := bus.(SpecialWriter); ok {
		d.Register(CmdWriteSpecial, func(params any) error {
			var p WriteSpecialParams
			switch v := params.(type) {
			case WriteSpecialParams:
				p = v
			case *WriteSpecialParams:
				if v == nil {
					return ErrInvalidArgument
				}
				p = *v
			default:
				return ErrInvalidArgument
			}
			return sw.WriteSpecial(p.Header, p.Payload)
		})
	}
	if x, ok := bus.(Exchanger); ok {
		d.Register(CmdReadWrite, func(params any) error {
			var p ReadWriteParams
			switch v := params.(type) {
			case ReadWriteParams:
				p = v
			case *ReadWriteParams:
				if v == nil {
					return ErrInvalidArgument
				}
				p = *v
			default:
				return ErrInvalidArgument
			}
			return x.Exchange(p.Write, p.Read)
		})
	}
	return d
}

// Register installs or replaces the handler for cmd.
func (d *Dispatcher) Register(cmd Command, handler CommandHandler) {
	if cmd >= numCommands {
		return
	}
	d.handlers[cmd] = handler
}

// Supports reports whether cmd has a handler.
func (d *Dispatcher) Supports(cmd Command) bool {
	return cmd < numCommands && d.handlers[cmd] != nil
}

// Dispatch runs cmd with params. An unknown command is a caller bug: it is
// reported through the error writer and never reaches the bus.
func (d *Dispatcher) Dispatch(cmd Command, params any) error {
	if !d.Supports(cmd) {
		ErrorPrintln("[BUS] invalid bus command " + itoa(int(cmd)))
		RecordTrace(TraceReject, 0, StatusInvalidCommand)
		return &BusError{Op: "dispatch " + cmd.String(), Status: StatusInvalidCommand, Err: ErrInvalidCommand}
	}
	return d.handlers[cmd](params)
}
