package settings

import (
	"slices"
	"testing"
)

const threeManagers = `<settings>
  <devicemanager name="M1" protocol="modbus-tcp" host="a">
    <device name="A"/>
    <device name="B"/>
  </devicemanager>
  <devicemanager name="M2" protocol="modbus-tcp" host="b"/>
  <devicemanager name="M3" protocol="modbus-tcp" host="c">
    <device name="C"/>
  </devicemanager>
</settings>`

func drain(e *DeviceEnumerator) []string {
	var names []string
	for e.MoveNext() {
		names = append(names, e.Current().Name())
	}
	return names
}

func TestDeviceEnumeratorOrder(t *testing.T) {
	app := loadSettings(t, threeManagers)
	e := app.Devices()

	if e.Current() != nil {
		t.Error("Current() before MoveNext should be nil")
	}

	got := drain(e)
	if want := []string{"A", "B", "C"}; !slices.Equal(got, want) {
		t.Errorf("devices = %v, want %v", got, want)
	}

	for i := range 3 {
		if e.MoveNext() {
			t.Errorf("MoveNext() call %d after exhaustion returned true", i)
		}
		if e.Current() != nil {
			t.Error("Current() after exhaustion should be nil")
		}
	}
}

func TestDeviceEnumeratorOwnership(t *testing.T) {
	app := loadSettings(t, threeManagers)
	e := app.Devices()

	want := map[string]string{"A": "M1", "B": "M1", "C": "M3"}
	for e.MoveNext() {
		d := e.Current()
		if got := d.Manager().Name(); got != want[d.Name()] {
			t.Errorf("%s.Manager() = %s, want %s", d.Name(), got, want[d.Name()])
		}
	}
}

func TestDeviceEnumeratorReset(t *testing.T) {
	app := loadSettings(t, threeManagers)
	e := app.Devices()

	first := drain(e)
	e.Reset()
	second := drain(e)
	if !slices.Equal(first, second) {
		t.Errorf("after Reset got %v, want %v", second, first)
	}

	// Partial walk then reset
	e.Reset()
	e.MoveNext()
	e.MoveNext()
	e.Reset()
	if third := drain(e); !slices.Equal(first, third) {
		t.Errorf("after partial walk and Reset got %v, want %v", third, first)
	}
}

func TestDeviceEnumeratorEmpty(t *testing.T) {
	tests := []struct {
		name string
		xml  string
	}{
		{"no managers", `<settings/>`},
		{"managers without devices", `<settings><devicemanager name="x"/><devicemanager name="y"/></settings>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := loadSettings(t, tt.xml).Devices()
			if e.MoveNext() {
				t.Error("MoveNext() = true on empty enumeration")
			}
			if e.MoveNext() {
				t.Error("second MoveNext() = true on empty enumeration")
			}
		})
	}

	if NewDeviceEnumerator(nil).MoveNext() {
		t.Error("MoveNext() = true for nil manager list")
	}
}

func TestDeviceEnumeratorAll(t *testing.T) {
	app := loadSettings(t, threeManagers)
	e := app.Devices()

	// All resets, so a half-consumed enumerator still yields everything
	e.MoveNext()
	var names []string
	for d := range e.All() {
		names = append(names, d.Name())
	}
	if want := []string{"A", "B", "C"}; !slices.Equal(names, want) {
		t.Errorf("All() = %v, want %v", names, want)
	}

	// Early break
	count := 0
	for range e.All() {
		count++
		break
	}
	if count != 1 {
		t.Errorf("break after first item, count = %d", count)
	}
}
