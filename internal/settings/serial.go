package settings

import "github.com/EamonHetherton/PVBeanCounter-sub003/internal/document"

// SerialPort holds the line settings for one serial device.
type SerialPort struct {
	Node
}

func newSerialPort(ctx *Context, el *document.Element) (*SerialPort, error) {
	p := &SerialPort{Node: newNode(ctx, el)}
	for _, get := range []func() (*int, error){p.BaudRate, p.DataBits, p.StopBits, p.Timeout} {
		if _, err := get(); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Name returns the name managers refer to the port by.
func (p *SerialPort) Name() string { return p.GetValue("name") }

// SetName writes the port name.
func (p *SerialPort) SetName(name string) { p.SetValue("name", name, TagSerialPort) }

// PortName returns the OS device, e.g. /dev/ttyUSB0 or COM3.
func (p *SerialPort) PortName() string { return p.GetValue("portname") }

// SetPortName writes the OS device.
func (p *SerialPort) SetPortName(name string) { p.SetValue("portname", name, TagSerialPort) }

// BaudRate returns the line speed, or nil when unset.
func (p *SerialPort) BaudRate() (*int, error) { return p.GetInt("baudrate") }

// SetBaudRate writes the line speed.
func (p *SerialPort) SetBaudRate(v *int) { p.SetInt("baudrate", v, TagSerialPort) }

// DataBits returns the data bits, or nil when unset.
func (p *SerialPort) DataBits() (*int, error) { return p.GetInt("databits") }

// StopBits returns the stop bits, or nil when unset.
func (p *SerialPort) StopBits() (*int, error) { return p.GetInt("stopbits") }

// Parity returns "N", "E" or "O". Unset means "N".
func (p *SerialPort) Parity() string {
	switch v := p.GetValue("parity"); v {
	case "E", "even":
		return "E"
	case "O", "odd":
		return "O"
	default:
		return "N"
	}
}

// Timeout returns the read timeout in milliseconds, or nil when unset.
func (p *SerialPort) Timeout() (*int, error) { return p.GetInt("timeout") }
