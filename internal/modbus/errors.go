package modbus

import "errors"

var (
	// ErrPositionOutOfRange is returned when a positioned register does not
	// fit inside the words read for its block.
	ErrPositionOutOfRange = errors.New("modbus: register position out of range")

	// ErrIncompleteBlock is returned when a block message has no address or quantity.
	ErrIncompleteBlock = errors.New("modbus: block message needs address and quantity")

	// ErrShortResponse is returned when a device returns fewer registers than asked for.
	ErrShortResponse = errors.New("modbus: short response")

	// ErrMissingAddress is returned when a device has no unit id.
	ErrMissingAddress = errors.New("modbus: device has no address")

	// ErrMissingPortName is returned when a serial port has no device path.
	ErrMissingPortName = errors.New("modbus: serial port has no port name")

	// ErrUnsupportedProtocol is returned for managers with an unknown protocol.
	ErrUnsupportedProtocol = errors.New("modbus: unsupported protocol")
)
