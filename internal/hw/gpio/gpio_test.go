package gpio

import "testing"

func TestMockDriver_ReadsBackWrites(t *testing.T) {
	m := NewMockDriver()

	if lvl, _ := m.ReadPin(17); lvl != Low {
		t.Errorf("unwritten pin = %v, want LOW", lvl)
	}
	if err := m.WritePin(17, High); err != nil {
		t.Fatalf("WritePin: %v", err)
	}
	if lvl, _ := m.ReadPin(17); lvl != High {
		t.Errorf("pin 17 = %v, want HIGH", lvl)
	}
	if lvl, _ := m.ReadPin(18); lvl != Low {
		t.Errorf("pin 18 = %v, want LOW", lvl)
	}
}

func TestMockDriver_ZeroValueUsable(t *testing.T) {
	var m MockDriver
	if err := m.WritePin(4, High); err != nil {
		t.Fatalf("WritePin on zero MockDriver: %v", err)
	}
	if lvl, _ := m.ReadPin(4); lvl != High {
		t.Errorf("pin 4 = %v, want HIGH", lvl)
	}
}

func TestMockDriver_CloseReleasesPins(t *testing.T) {
	m := NewMockDriver()
	_ = m.SetupPin(17, Output)
	_ = m.WritePin(17, High)
	_ = m.SetupPin(27, Output)
	_ = m.WritePin(27, High)
	m.Retain(27)

	if err := m.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if lvl, _ := m.ReadPin(17); lvl != Low {
		t.Errorf("released pin 17 = %v, want LOW", lvl)
	}
	if lvl, _ := m.ReadPin(27); lvl != High {
		t.Errorf("retained pin 27 = %v, want HIGH", lvl)
	}
}

func TestMockDriver_ReadDoesNotClaimPin(t *testing.T) {
	m := NewMockDriver()
	_ = m.WritePin(5, High)
	m.Retain(5)
	_ = m.Close()

	// A later session that only reads leaves the pin driven.
	if lvl, _ := m.ReadPin(5); lvl != High {
		t.Fatalf("pin 5 = %v, want HIGH", lvl)
	}
	_ = m.Close()
	if lvl, _ := m.ReadPin(5); lvl != High {
		t.Errorf("pin 5 after read-only session = %v, want HIGH", lvl)
	}

	// Retention lasts one session.
	_ = m.WritePin(5, High)
	_ = m.Close()
	if lvl, _ := m.ReadPin(5); lvl != Low {
		t.Errorf("pin 5 after unretained session = %v, want LOW", lvl)
	}
}

func TestNewDriver_Mock(t *testing.T) {
	d, err := NewDriver(true)
	if err != nil {
		t.Fatalf("NewDriver(true): %v", err)
	}
	if _, ok := d.(*MockDriver); !ok {
		t.Errorf("NewDriver(true) = %T, want *MockDriver", d)
	}
	if err := d.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}

func TestLevelString(t *testing.T) {
	if High.String() != "HIGH" || Low.String() != "LOW" {
		t.Errorf("Level strings = %s/%s", High, Low)
	}
}
