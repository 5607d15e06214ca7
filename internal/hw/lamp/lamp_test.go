package lamp

import (
	"errors"
	"testing"

	"github.com/cjeanneret/UVCam/internal/hw/gpio"
)

// recordingDriver records GPIO calls for verification.
type recordingDriver struct {
	calls    []gpioCall
	writeErr error
	retained []int
}

type gpioCall struct {
	op    string
	pin   int
	level gpio.Level
}

func (d *recordingDriver) SetupPin(pin int, mode gpio.PinMode) error {
	d.calls = append(d.calls, gpioCall{op: "setup", pin: pin})
	return nil
}

func (d *recordingDriver) WritePin(pin int, level gpio.Level) error {
	if d.writeErr != nil {
		return d.writeErr
	}
	d.calls = append(d.calls, gpioCall{op: "write", pin: pin, level: level})
	return nil
}

func (d *recordingDriver) ReadPin(pin int) (gpio.Level, error) {
	return gpio.Low, nil
}

func (d *recordingDriver) Retain(pin int) {
	d.retained = append(d.retained, pin)
}

func (d *recordingDriver) Close() error { return nil }

func (d *recordingDriver) lastWrite() gpioCall {
	for i := len(d.calls) - 1; i >= 0; i-- {
		if d.calls[i].op == "write" {
			return d.calls[i]
		}
	}
	return gpioCall{}
}

func TestNew_SwitchesOff(t *testing.T) {
	drv := &recordingDriver{}
	l, err := New(drv, 18, false)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if len(drv.calls) != 2 || drv.calls[0].op != "setup" || drv.calls[0].pin != 18 {
		t.Fatalf("calls = %+v, want setup then write", drv.calls)
	}
	if w := drv.lastWrite(); w.pin != 18 || w.level != gpio.Low {
		t.Errorf("initial write = %+v, want pin 18 LOW", w)
	}
	if l.IsOn() {
		t.Error("lamp should start off")
	}
}

func TestSet_ActiveHigh(t *testing.T) {
	drv := &recordingDriver{}
	l, _ := New(drv, 18, false)

	if err := l.Set(true); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if w := drv.lastWrite(); w.level != gpio.High {
		t.Errorf("on level = %v, want HIGH", w.level)
	}
	if !l.IsOn() {
		t.Error("IsOn should be true")
	}
}

func TestSet_ActiveLow(t *testing.T) {
	drv := &recordingDriver{}
	l, _ := New(drv, 22, true)

	if w := drv.lastWrite(); w.level != gpio.High {
		t.Errorf("off level (active low) = %v, want HIGH", w.level)
	}
	_ = l.Set(true)
	if w := drv.lastWrite(); w.level != gpio.Low {
		t.Errorf("on level (active low) = %v, want LOW", w.level)
	}
}

func TestSet_WriteError(t *testing.T) {
	drv := &recordingDriver{}
	l, _ := New(drv, 5, false)
	drv.writeErr = errors.New("bus error")

	if err := l.Set(true); err == nil {
		t.Fatal("expected error")
	}
	if l.IsOn() {
		t.Error("state must not change when the write fails")
	}
}

func TestNew_InvalidPin(t *testing.T) {
	if _, err := New(&recordingDriver{}, 0, false); err == nil {
		t.Error("pin 0 should be rejected")
	}
}

func TestWithMockDriver(t *testing.T) {
	drv := gpio.NewMockDriver()
	l, err := New(drv, 27, false)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_ = l.Set(true)
	if lvl, _ := drv.ReadPin(27); lvl != gpio.High {
		t.Errorf("mock pin 27 = %v, want HIGH", lvl)
	}
	if l.Pin() != 27 {
		t.Errorf("Pin = %d, want 27", l.Pin())
	}
}

func TestState(t *testing.T) {
	drv := gpio.NewMockDriver()
	_ = drv.WritePin(6, gpio.High)

	if on, err := State(drv, 6, false); err != nil || !on {
		t.Errorf("active high, pin HIGH: on=%v err=%v", on, err)
	}
	if on, _ := State(drv, 6, true); on {
		t.Error("active low, pin HIGH should read off")
	}
	if on, _ := State(drv, 7, true); !on {
		t.Error("active low, pin LOW should read on")
	}
}

func TestKeep_RetainsPin(t *testing.T) {
	drv := &recordingDriver{}
	l, _ := New(drv, 12, false)

	l.Keep()
	if len(drv.retained) != 1 || drv.retained[0] != 12 {
		t.Errorf("retained = %v, want [12]", drv.retained)
	}
}

func TestKeep_StateSurvivesClose(t *testing.T) {
	drv := gpio.NewMockDriver()

	l, _ := New(drv, 17, true)
	_ = l.Set(true)
	l.Keep()
	_ = drv.Close()
	if on, _ := State(drv, 17, true); !on {
		t.Error("kept lamp should still be on after Close")
	}

	// A lamp that was not kept is released with its driver.
	l, _ = New(drv, 23, false)
	_ = l.Set(true)
	_ = drv.Close()
	if on, _ := State(drv, 23, false); on {
		t.Error("released lamp should read off after Close")
	}
}
