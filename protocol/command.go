package protocol

// Command builds one VLQ-encoded command payload.
type Command struct {
	buf []byte
}

// NewCommand starts a payload for command id.
func NewCommand(id uint32) *Command {
	c := &Command{buf: make([]byte, 0, MessagePayloadMax)}
	c.buf = AppendVLQUint(c.buf, id)
	return c
}

// Uint appends a %u or %c argument.
func (c *Command) Uint(v uint32) *Command {
	c.buf = AppendVLQUint(c.buf, v)
	return c
}

// Int appends a %i argument.
func (c *Command) Int(v int32) *Command {
	c.buf = AppendVLQInt(c.buf, v)
	return c
}

// Bytes appends a %*s argument.
func (c *Command) Bytes(b []byte) *Command {
	c.buf = AppendVLQBytes(c.buf, b)
	return c
}

// Payload returns the encoded command.
func (c *Command) Payload() []byte {
	return c.buf
}

// Args decodes the arguments of a received message in order. The first
// decode error sticks; check Err once all fields are read.
type Args struct {
	data []byte
	err  error
}

// NewArgs wraps a payload. ID must be read first.
func NewArgs(payload []byte) *Args {
	return &Args{data: payload}
}

// ID reads the command or response id.
func (a *Args) ID() uint32 {
	return a.Uint()
}

func (a *Args) Uint() uint32 {
	if a.err != nil {
		return 0
	}
	v, err := DecodeVLQUint(&a.data)
	a.err = err
	return v
}

func (a *Args) Int() int32 {
	if a.err != nil {
		return 0
	}
	v, err := DecodeVLQInt(&a.data)
	a.err = err
	return v
}

// Bytes reads a %*s argument. The result aliases the payload.
func (a *Args) Bytes() []byte {
	if a.err != nil {
		return nil
	}
	v, err := DecodeVLQBytes(&a.data)
	a.err = err
	return v
}

// Remaining reports how many undecoded bytes are left.
func (a *Args) Remaining() int {
	return len(a.data)
}

func (a *Args) Err() error {
	return a.err
}
