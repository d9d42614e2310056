package settings

import (
	"errors"
	"fmt"
)

// ValidateDeviceNames scans every device the enumerator yields and reports
// names that occur more than once. Comparison is exact and case-sensitive.
// Unnamed devices are ignored here; Validate reports them separately.
//
// The enumerator is reset before and after the scan.
func ValidateDeviceNames(e *DeviceEnumerator) error {
	e.Reset()
	defer e.Reset()

	var names []string
	for e.MoveNext() {
		names = append(names, e.Current().Name())
	}
	return duplicateNames(names, ErrDuplicateDeviceName)
}

// duplicateNames returns a *DuplicateNameError wrapping kind, or nil.
func duplicateNames(names []string, kind error) error {
	seen := make(map[string]int, len(names))
	var dups []string
	for _, n := range names {
		if n == "" {
			continue
		}
		seen[n]++
		if seen[n] == 2 {
			dups = append(dups, n)
		}
	}
	if len(dups) == 0 {
		return nil
	}
	return &DuplicateNameError{Names: dups, kind: kind}
}

// Validate checks cross-object consistency of the loaded tree and returns
// every problem found, joined.
func (a *ApplicationSettings) Validate() error {
	var errs []error

	managers := a.managers.Items()
	managerNames := make([]string, 0, len(managers))
	for _, m := range managers {
		managerNames = append(managerNames, m.Name())
		if err := a.validateManager(m); err != nil {
			errs = append(errs, err)
		}
	}
	if err := duplicateNames(managerNames, ErrDuplicateManagerName); err != nil {
		errs = append(errs, err)
	}

	if err := ValidateDeviceNames(a.Devices()); err != nil {
		errs = append(errs, err)
	}

	if a.database != nil {
		if _, err := a.database.DSN(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", a.database.Element().Path(), err))
		}
	}

	return errors.Join(errs...)
}

func (a *ApplicationSettings) validateManager(m *DeviceManager) error {
	var errs []error
	where := m.Element().Path()

	if m.Name() == "" {
		errs = append(errs, fmt.Errorf("%s: %w", where, ErrMissingName))
	}

	switch m.Protocol() {
	case ProtocolModbusRTU:
		switch name := m.SerialPortName(); {
		case name == "":
			errs = append(errs, fmt.Errorf("%s: %w", where, ErrMissingSerialPort))
		default:
			if _, err := a.FindSerialPort(name); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w %q", where, ErrUnknownSerialPort, name))
			}
		}
	case ProtocolModbusTCP:
		if m.Host() == "" {
			errs = append(errs, fmt.Errorf("%s: %w", where, ErrMissingHost))
		}
	default:
		errs = append(errs, fmt.Errorf("%s: %w %q", where, ErrInvalidProtocol, m.Protocol()))
	}

	for _, d := range m.devices.items {
		if d.Name() == "" {
			errs = append(errs, fmt.Errorf("%s: %w", d.Element().Path(), ErrMissingName))
		}
	}

	return errors.Join(errs...)
}
