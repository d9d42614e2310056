package modbus

import (
	"fmt"
	"net"
	"strconv"
	"time"

	gomodbus "github.com/goburrow/modbus"

	"github.com/EamonHetherton/PVBeanCounter-sub003/internal/settings"
)

// Serial line defaults applied when a serial port leaves them unset.
const (
	defaultBaudRate = 9600
	defaultDataBits = 8
	defaultStopBits = 1
)

// NewRTUHandler creates an RTU handler for the serial line described by port.
// Unset line parameters fall back to 9600 8N1 and timeout.
func NewRTUHandler(port *settings.SerialPort, timeout time.Duration) (*gomodbus.RTUClientHandler, error) {
	if port.PortName() == "" {
		return nil, fmt.Errorf("%w: %s", ErrMissingPortName, port.Name())
	}

	baud, err := intOr(port.BaudRate, defaultBaudRate)
	if err != nil {
		return nil, err
	}
	dataBits, err := intOr(port.DataBits, defaultDataBits)
	if err != nil {
		return nil, err
	}
	stopBits, err := intOr(port.StopBits, defaultStopBits)
	if err != nil {
		return nil, err
	}
	ms, err := port.Timeout()
	if err != nil {
		return nil, err
	}

	h := gomodbus.NewRTUClientHandler(port.PortName())
	h.BaudRate = baud
	h.DataBits = dataBits
	h.StopBits = stopBits
	h.Parity = port.Parity()
	h.Timeout = timeout
	if ms != nil {
		h.Timeout = time.Duration(*ms) * time.Millisecond
	}
	return h, nil
}

// NewTCPHandler creates a Modbus TCP handler for host:port.
func NewTCPHandler(host string, port int, timeout time.Duration) *gomodbus.TCPClientHandler {
	h := gomodbus.NewTCPClientHandler(net.JoinHostPort(host, strconv.Itoa(port)))
	h.Timeout = timeout
	return h
}

func intOr(get func() (*int, error), def int) (int, error) {
	v, err := get()
	if err != nil {
		return 0, err
	}
	if v == nil {
		return def, nil
	}
	return *v, nil
}

// Conn is an open connection to one device manager's bus.
type Conn interface {
	RegisterClient

	// SetUnit selects the device addressed by later reads.
	SetUnit(id byte)
	Close() error
}

// busConn adapts a connected goburrow handler to Conn.
type busConn struct {
	gomodbus.Client
	setUnit func(byte)
	close   func() error
}

func (c *busConn) SetUnit(id byte) { c.setUnit(id) }

func (c *busConn) Close() error { return c.close() }

func connectRTU(h *gomodbus.RTUClientHandler) (Conn, error) {
	if err := h.Connect(); err != nil {
		return nil, fmt.Errorf("opening %s: %w", h.Address, err)
	}
	return &busConn{
		Client:  gomodbus.NewClient(h),
		setUnit: func(id byte) { h.SlaveId = id },
		close:   h.Close,
	}, nil
}

func connectTCP(h *gomodbus.TCPClientHandler) (Conn, error) {
	if err := h.Connect(); err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", h.Address, err)
	}
	return &busConn{
		Client:  gomodbus.NewClient(h),
		setUnit: func(id byte) { h.SlaveId = id },
		close:   h.Close,
	}, nil
}
