package core

// OutputPin drives a single digital output. machine.Pin.Set satisfies it
// directly on TinyGo; hosted backends wrap their GPIO line.
type OutputPin func(level bool)

// NopPin is an OutputPin with no physical line behind it.
func NopPin(bool) {}

// ChipSelect brackets a bus transaction. Assert and Deassert are always
// called as a pair, Deassert even when the transfer failed.
type ChipSelect interface {
	Assert()
	Deassert()
}

// PinChipSelect drives a chip-select line through an OutputPin.
// The line is active low unless ActiveHigh is set.
type PinChipSelect struct {
	Pin        OutputPin
	ActiveHigh bool
}

// NewChipSelect returns an active-low chip select on pin.
func NewChipSelect(pin OutputPin) *PinChipSelect {
	return &PinChipSelect{Pin: pin}
}

func (cs *PinChipSelect) Assert() {
	cs.Pin(cs.ActiveHigh)
}

func (cs *PinChipSelect) Deassert() {
	cs.Pin(!cs.ActiveHigh)
}

type noChipSelect struct{}

func (noChipSelect) Assert()   {}
func (noChipSelect) Deassert() {}

// NoChipSelect is used for buses whose select line is handled by the
// peripheral (e.g. a kernel spidev with native CS).
var NoChipSelect ChipSelect = noChipSelect{}
