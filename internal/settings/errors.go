package settings

import (
	"errors"
	"fmt"
	"strings"
)

// Domain errors for the settings package.
//
// These errors can be checked using errors.Is():
//
//	if errors.Is(err, settings.ErrMalformedValue) {
//	    // an attribute could not be parsed
//	}
var (
	// ErrMalformedValue is returned when a numeric attribute does not parse.
	ErrMalformedValue = errors.New("settings: malformed value")

	// ErrStaleDataMap is returned when a data map is used after positions
	// were assigned without a Rebuild.
	ErrStaleDataMap = errors.New("settings: data map not rebuilt after position change")

	// ErrUnexpectedRoot is returned when a document's root element is not "settings".
	ErrUnexpectedRoot = errors.New("settings: unexpected root element")

	// ErrDuplicateDeviceName is returned when two devices share a name.
	ErrDuplicateDeviceName = errors.New("settings: duplicate device name")

	// ErrDuplicateManagerName is returned when two device managers share a name.
	ErrDuplicateManagerName = errors.New("settings: duplicate device manager name")

	// ErrMissingName is returned when a device or device manager has no name.
	ErrMissingName = errors.New("settings: name is required")

	// ErrInvalidProtocol is returned when a device manager protocol is not recognised.
	ErrInvalidProtocol = errors.New("settings: invalid protocol")

	// ErrMissingSerialPort is returned when an RTU manager names no serial port.
	ErrMissingSerialPort = errors.New("settings: serial port required")

	// ErrUnknownSerialPort is returned when a manager names a serial port that does not exist.
	ErrUnknownSerialPort = errors.New("settings: unknown serial port")

	// ErrMissingHost is returned when a TCP manager has no host.
	ErrMissingHost = errors.New("settings: host required")

	// ErrDeviceNotFound is returned when a device name does not exist.
	ErrDeviceNotFound = errors.New("settings: device not found")

	// ErrManagerNotFound is returned when a device manager name does not exist.
	ErrManagerNotFound = errors.New("settings: device manager not found")

	// ErrUnknownAttribute is returned when setting an attribute a node does not have.
	ErrUnknownAttribute = errors.New("settings: unknown attribute")

	// ErrSerialPortNotFound is returned when a serial port name does not exist.
	ErrSerialPortNotFound = errors.New("settings: serial port not found")
)

// ValueError reports an attribute that could not be parsed.
// It matches ErrMalformedValue under errors.Is.
type ValueError struct {
	Element   string
	Attribute string
	Value     string
	Err       error
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("%v: %s@%s=%q: %v", ErrMalformedValue, e.Element, e.Attribute, e.Value, e.Err)
}

func (e *ValueError) Unwrap() []error {
	return []error{ErrMalformedValue, e.Err}
}

// DuplicateNameError lists every name that occurs more than once, in the
// order the first duplicate was seen.
type DuplicateNameError struct {
	Names []string
	kind  error
}

func (e *DuplicateNameError) Error() string {
	quoted := make([]string, len(e.Names))
	for i, n := range e.Names {
		quoted[i] = fmt.Sprintf("%q", n)
	}
	return fmt.Sprintf("%v: %s", e.kind, strings.Join(quoted, ", "))
}

func (e *DuplicateNameError) Unwrap() error {
	return e.kind
}
