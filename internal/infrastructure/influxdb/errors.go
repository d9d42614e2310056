package influxdb

import "errors"

// Errors returned by Connect and Ping. Point writes are asynchronous and
// report failures through the SetOnError callback instead.
var (
	// ErrDisabled is returned by Connect when influxdb.enabled is false.
	ErrDisabled = errors.New("influxdb: archive disabled")

	// ErrUnreachable is returned when the server does not answer its health ping.
	ErrUnreachable = errors.New("influxdb: server unreachable")

	// ErrClosed is returned by Ping once the client has been closed.
	ErrClosed = errors.New("influxdb: client closed")
)
