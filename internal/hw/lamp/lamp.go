// Package lamp switches an illuminator wired to a GPIO output,
// e.g. an IR LED ring next to the webcam.
package lamp

import (
	"fmt"
	"sync"

	"github.com/cjeanneret/UVCam/internal/debug"
	"github.com/cjeanneret/UVCam/internal/hw/gpio"
)

// Lamp is an on/off light on one GPIO pin.
type Lamp struct {
	mu        sync.Mutex
	gpio      gpio.Driver
	pin       int
	activeLow bool
	on        bool
}

// New configures pin as an output and switches the lamp off.
// With activeLow, the lamp is on when the pin is driven LOW
// (typical for relay boards).
func New(g gpio.Driver, pin int, activeLow bool) (*Lamp, error) {
	if pin <= 0 {
		return nil, fmt.Errorf("lamp: invalid pin %d", pin)
	}
	if err := g.SetupPin(pin, gpio.Output); err != nil {
		return nil, fmt.Errorf("lamp: setup pin %d: %w", pin, err)
	}
	l := &Lamp{gpio: g, pin: pin, activeLow: activeLow}
	if err := l.Set(false); err != nil {
		return nil, err
	}
	return l, nil
}

// level returns the pin level that puts the lamp in state on.
func (l *Lamp) level(on bool) gpio.Level {
	if l.activeLow {
		return gpio.Level(!on)
	}
	return gpio.Level(on)
}

// Set switches the lamp on or off.
func (l *Lamp) Set(on bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.gpio.WritePin(l.pin, l.level(on)); err != nil {
		return fmt.Errorf("lamp: write pin %d: %w", l.pin, err)
	}
	l.on = on
	debug.Live("Lamp on pin %d switched %s", l.pin, onOff(on))
	return nil
}

// IsOn reports the last state set.
func (l *Lamp) IsOn() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.on
}

// Keep leaves the lamp in its current state once the GPIO driver is closed.
func (l *Lamp) Keep() {
	l.gpio.Retain(l.pin)
}

// Pin returns the GPIO pin number.
func (l *Lamp) Pin() int {
	return l.pin
}

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}

// State reads whether the lamp on pin is lit without reconfiguring the pin.
func State(g gpio.Driver, pin int, activeLow bool) (bool, error) {
	lvl, err := g.ReadPin(pin)
	if err != nil {
		return false, fmt.Errorf("lamp: read pin %d: %w", pin, err)
	}
	return bool(lvl) != activeLow, nil
}
