package core

import (
	"time"
)

// eventLog collects ordered side effects across the mocks in one test.
type eventLog struct {
	events []string
}

func (l *eventLog) add(e string) {
	if l != nil {
		l.events = append(l.events, e)
	}
}

// MockSPIDriver is a test implementation of SPIDriver
type MockSPIDriver struct {
	log *eventLog
	cs  *RecordingChipSelect

	calls      int
	sent       [][]byte
	timeouts   []time.Duration
	csDuring   []bool
	configured []SPIConfig

	// echo computes the byte clocked back for each byte sent. nil answers 0xA5.
	echo      func(b byte) byte
	err       error
	configErr error
	limit     int
	// clobber writes 0xEE into r before reporting err.
	clobber bool
}

func (m *MockSPIDriver) Configure(cfg SPIConfig) error {
	m.log.add("configure")
	m.configured = append(m.configured, cfg)
	return m.configErr
}

func (m *MockSPIDriver) Transfer(w, r []byte, timeout time.Duration) error {
	m.log.add("transfer")
	m.calls++
	sent := append([]byte(nil), w...)
	m.sent = append(m.sent, sent)
	m.timeouts = append(m.timeouts, timeout)
	if m.cs != nil {
		m.csDuring = append(m.csDuring, m.cs.asserted)
	}
	if m.err != nil {
		if m.clobber {
			for i := range r {
				r[i] = 0xEE
			}
		}
		return m.err
	}
	for i := range r {
		if m.echo != nil {
			r[i] = m.echo(sent[i])
		} else {
			r[i] = 0xA5
		}
	}
	return nil
}

// limitedSPIDriver additionally advertises a transfer limit.
type limitedSPIDriver struct {
	MockSPIDriver
}

func (m *limitedSPIDriver) MaxTransfer() int { return m.limit }

// MockI2CDriver is a test implementation of I2CDriver
type MockI2CDriver struct {
	log *eventLog

	calls      int
	addrs      []I2CAddress
	written    [][]byte
	readLens   []int
	configured []I2CConfig

	fill      byte
	err       error
	configErr error
}

func (m *MockI2CDriver) Configure(cfg I2CConfig) error {
	m.log.add("configure")
	m.configured = append(m.configured, cfg)
	return m.configErr
}

func (m *MockI2CDriver) Tx(addr I2CAddress, w, r []byte, _ time.Duration) error {
	m.log.add("tx")
	m.calls++
	m.addrs = append(m.addrs, addr)
	if w != nil {
		m.written = append(m.written, append([]byte(nil), w...))
	}
	m.readLens = append(m.readLens, len(r))
	if m.err != nil {
		return m.err
	}
	for i := range r {
		r[i] = m.fill
	}
	return nil
}

// RecordingChipSelect tracks the select line state.
type RecordingChipSelect struct {
	log       *eventLog
	asserted  bool
	asserts   int
	deasserts int
}

func (c *RecordingChipSelect) Assert() {
	c.log.add("assert")
	c.asserted = true
	c.asserts++
}

func (c *RecordingChipSelect) Deassert() {
	c.log.add("deassert")
	c.asserted = false
	c.deasserts++
}

// countingGuard tracks acquire/release pairing.
type countingGuard struct {
	log      *eventLog
	depth    int
	acquires int
	releases int
}

func (g *countingGuard) Acquire() State {
	g.log.add("acquire")
	g.depth++
	g.acquires++
	return State(g.depth)
}

func (g *countingGuard) Release(s State) {
	g.log.add("release")
	if int(s) != g.depth {
		panic("release out of order")
	}
	g.depth--
	g.releases++
}

type mockBoard struct {
	log    *eventLog
	resets int
	err    error
}

func (b *mockBoard) Reset() error {
	b.log.add("reset")
	b.resets++
	return b.err
}

// newTestSPIBus wires a mock driver, chip select and guard to one log.
func newTestSPIBus() (*SPIBus, *MockSPIDriver, *RecordingChipSelect, *countingGuard, *eventLog) {
	log := &eventLog{}
	cs := &RecordingChipSelect{log: log}
	drv := &MockSPIDriver{log: log, cs: cs}
	g := &countingGuard{log: log}
	return NewSPIBus(drv, cs, g), drv, cs, g, log
}
