package settings

import "iter"

// DeviceEnumerator walks every device of every manager as one sequence.
// Managers with no devices are skipped.
//
//	e := app.Devices()
//	for e.MoveNext() {
//	    fmt.Println(e.Current().Name())
//	}
type DeviceEnumerator struct {
	managers []*DeviceManager
	mgr      int
	dev      int
	current  *Device
}

// NewDeviceEnumerator creates an enumerator positioned before the first device.
func NewDeviceEnumerator(managers []*DeviceManager) *DeviceEnumerator {
	e := &DeviceEnumerator{managers: managers}
	e.Reset()
	return e
}

// MoveNext advances to the next device. It returns false once every manager
// is exhausted, and keeps returning false until Reset.
func (e *DeviceEnumerator) MoveNext() bool {
	for {
		if e.mgr >= 0 && e.mgr < len(e.managers) {
			devices := e.managers[e.mgr].Devices()
			if e.dev+1 < devices.Len() {
				e.dev++
				e.current = devices.At(e.dev)
				return true
			}
		}

		if e.mgr+1 >= len(e.managers) {
			e.mgr = len(e.managers)
			e.current = nil
			return false
		}
		e.mgr++
		e.dev = -1
	}
}

// Current returns the device at the cursor, or nil before the first
// MoveNext and after exhaustion.
func (e *DeviceEnumerator) Current() *Device {
	return e.current
}

// Reset moves the cursor back before the first device.
func (e *DeviceEnumerator) Reset() {
	e.mgr = -1
	e.dev = -1
	e.current = nil
}

// All resets the enumerator and iterates over every device.
func (e *DeviceEnumerator) All() iter.Seq[*Device] {
	return func(yield func(*Device) bool) {
		e.Reset()
		for e.MoveNext() {
			if !yield(e.Current()) {
				return
			}
		}
	}
}
