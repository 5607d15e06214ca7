package gpio

import (
	"sync"

	"github.com/cjeanneret/UVCam/internal/debug"
)

// Level represents the logical state of a GPIO pin.
type Level bool

const (
	Low  Level = false
	High Level = true
)

func (l Level) String() string {
	if l == High {
		return "HIGH"
	}
	return "LOW"
}

// PinMode indicates whether a GPIO is input or output.
type PinMode int

const (
	Input PinMode = iota
	Output
)

// Driver controls GPIO pins: a real Raspberry Pi implementation,
// or a mock for development on a PC.
// ReadPin never changes the pin mode. Close returns used pins to input
// unless they were retained.
type Driver interface {
	SetupPin(pin int, mode PinMode) error
	WritePin(pin int, level Level) error
	ReadPin(pin int) (Level, error)
	Retain(pin int)
	Close() error
}

// NewDriver creates a GPIO driver based on the chosen mode.
// If mock is true, returns a MockDriver (for dev/test).
// If mock is false, returns a real RPiDriver (for Raspberry Pi).
func NewDriver(mock bool) (Driver, error) {
	if mock {
		debug.Info("Using MOCK GPIO driver (development mode)")
		return NewMockDriver(), nil
	}
	return NewRPiRealDriver()
}

// MockDriver keeps pin levels in memory and logs every access.
// Reading a pin returns the last level written to it; Close pulls
// used pins that were not retained back to LOW, as an input would read.
type MockDriver struct {
	mu       sync.Mutex
	levels   map[int]Level
	used     map[int]bool
	retained map[int]bool
}

// NewMockDriver returns a MockDriver with every pin LOW.
func NewMockDriver() *MockDriver {
	m := &MockDriver{}
	m.init()
	return m
}

// init must be called with mu held (or before sharing).
func (m *MockDriver) init() {
	if m.levels == nil {
		m.levels = make(map[int]Level)
		m.used = make(map[int]bool)
		m.retained = make(map[int]bool)
	}
}

func (m *MockDriver) SetupPin(pin int, mode PinMode) error {
	debug.GPIO("SetupPin", pin, mode)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.init()
	m.used[pin] = true
	return nil
}

func (m *MockDriver) WritePin(pin int, level Level) error {
	debug.GPIO("WritePin", pin, level)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.init()
	m.used[pin] = true
	m.levels[pin] = level
	return nil
}

func (m *MockDriver) Retain(pin int) {
	debug.GPIO("Retain", pin, true)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.init()
	m.retained[pin] = true
}

func (m *MockDriver) ReadPin(pin int) (Level, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	level := m.levels[pin]
	debug.GPIO("ReadPin", pin, level)
	return level, nil
}

func (m *MockDriver) Close() error {
	debug.Trace("GPIO Close (mock)")
	m.mu.Lock()
	defer m.mu.Unlock()
	for pin := range m.used {
		if !m.retained[pin] {
			m.levels[pin] = Low
		}
		delete(m.used, pin)
	}
	clear(m.retained)
	return nil
}
