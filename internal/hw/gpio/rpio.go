package gpio

import (
	"fmt"
	"sync"

	"github.com/stianeikeland/go-rpio/v4"

	"github.com/cjeanneret/UVCam/internal/debug"
)

// RPiDriver drives Raspberry Pi pins through go-rpio.
type RPiDriver struct {
	mu       sync.Mutex
	pins     map[int]rpio.Pin
	retained map[int]bool
}

// NewRPiRealDriver memory-maps the GPIO registers.
// Requires /dev/gpiomem access or root.
func NewRPiRealDriver() (*RPiDriver, error) {
	debug.Info("Initializing real GPIO driver (go-rpio)")

	if err := rpio.Open(); err != nil {
		return nil, fmt.Errorf("failed to open GPIO: %w (are you running on a Raspberry Pi?)", err)
	}

	return &RPiDriver{
		pins:     make(map[int]rpio.Pin),
		retained: make(map[int]bool),
	}, nil
}

func (r *RPiDriver) SetupPin(pin int, mode PinMode) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.setupLocked(pin, mode)
}

func (r *RPiDriver) setupLocked(pin int, mode PinMode) error {
	debug.GPIO("SetupPin", pin, mode)

	p := rpio.Pin(pin)
	switch mode {
	case Input:
		p.Input()
	case Output:
		p.Output()
	default:
		return fmt.Errorf("unknown pin mode: %d", mode)
	}
	r.pins[pin] = p
	return nil
}

func (r *RPiDriver) WritePin(pin int, level Level) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	debug.GPIO("WritePin", pin, level)

	p, ok := r.pins[pin]
	if !ok {
		if err := r.setupLocked(pin, Output); err != nil {
			return err
		}
		p = r.pins[pin]
	}

	if level == High {
		p.High()
	} else {
		p.Low()
	}
	return nil
}

// ReadPin reads the level register. The pin mode is left as is, so an
// output pin set by another process reports the level it drives.
func (r *RPiDriver) ReadPin(pin int) (Level, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	lvl := Low
	if rpio.Pin(pin).Read() == rpio.High {
		lvl = High
	}
	debug.GPIO("ReadPin", pin, lvl)
	return lvl, nil
}

// Retain keeps pin driven at its current level after Close.
func (r *RPiDriver) Retain(pin int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	debug.GPIO("Retain", pin, true)
	r.retained[pin] = true
}

// Close switches every used pin back to input (safe state), except
// retained ones, and unmaps GPIO memory.
func (r *RPiDriver) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	debug.Trace("GPIO Close (real driver)")

	for pin, p := range r.pins {
		if r.retained[pin] {
			debug.Verbose("Leaving pin %d as output", pin)
			continue
		}
		debug.Verbose("Resetting pin %d to input", pin)
		p.Input()
	}
	return rpio.Close()
}
