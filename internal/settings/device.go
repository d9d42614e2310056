package settings

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/EamonHetherton/PVBeanCounter-sub003/internal/document"
)

// Protocol is the transport a device manager talks to its devices over.
type Protocol string

// Supported protocols.
const (
	ProtocolModbusRTU Protocol = "modbus-rtu"
	ProtocolModbusTCP Protocol = "modbus-tcp"
)

// DeviceKind classifies a device.
type DeviceKind string

// Device kinds.
const (
	KindInverter DeviceKind = "inverter"
	KindMeter    DeviceKind = "meter"
)

// DeviceManager owns a set of devices sharing one transport, the register
// templates describing their layout and the block messages used to read it.
type DeviceManager struct {
	Node

	devices   *Collection[*Device]
	templates *Collection[*Register]
	blocks    *Collection[*BlockMessage]
}

func newDeviceManager(ctx *Context, el *document.Element) (*DeviceManager, error) {
	m := &DeviceManager{Node: newNode(ctx, el)}

	if _, err := m.Port(); err != nil {
		return nil, err
	}
	if _, err := m.Timeout(); err != nil {
		return nil, err
	}

	var err error
	m.devices, err = LoadCollection(ctx, el, TagDevice, func(ctx *Context, el *document.Element) (*Device, error) {
		return newDevice(ctx, el, m)
	})
	if err != nil {
		return nil, err
	}
	m.templates, err = LoadCollection(ctx, el, TagRegisterTemplate, registerBuilder(TagRegisterTemplate))
	if err != nil {
		return nil, err
	}
	m.blocks, err = LoadCollection(ctx, el, TagBlockMessage, newBlockMessage)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// Name returns the manager name.
func (m *DeviceManager) Name() string { return m.GetValue("name") }

// SetName writes the manager name.
func (m *DeviceManager) SetName(name string) { m.SetValue("name", name, TagDeviceManager) }

// Protocol returns the manager's transport protocol.
func (m *DeviceManager) Protocol() Protocol { return Protocol(m.GetValue("protocol")) }

// SetProtocol writes the transport protocol.
func (m *DeviceManager) SetProtocol(p Protocol) { m.SetValue("protocol", string(p), TagDeviceManager) }

// SerialPortName returns the name of the serial port an RTU manager uses.
func (m *DeviceManager) SerialPortName() string { return m.GetValue("serialport") }

// Host returns the TCP host.
func (m *DeviceManager) Host() string { return m.GetValue("host") }

// Port returns the TCP port, or nil when unset.
func (m *DeviceManager) Port() (*int, error) { return m.GetInt("port") }

// Timeout returns the request timeout in milliseconds, or nil when unset.
func (m *DeviceManager) Timeout() (*int, error) { return m.GetInt("timeout") }

// Devices returns the manager's devices.
func (m *DeviceManager) Devices() *Collection[*Device] { return m.devices }

// RegisterTemplates returns the register layout shared by the manager's devices.
func (m *DeviceManager) RegisterTemplates() *Collection[*Register] { return m.templates }

// BlockMessages returns the register blocks read from each device.
func (m *DeviceManager) BlockMessages() *Collection[*BlockMessage] { return m.blocks }

// DataMap builds a data map over the register templates.
func (m *DeviceManager) DataMap() (*DynamicDataMap, error) {
	return NewDynamicDataMap(m.templates.Items())
}

// AddDevice appends a new device element with the given name.
func (m *DeviceManager) AddDevice(name string) (*Device, error) {
	d, err := m.devices.Add()
	if err != nil {
		return nil, fmt.Errorf("adding device %q: %w", name, err)
	}
	d.SetName(name)
	return d, nil
}

// FindDevice returns the manager's first device with the given name.
func (m *DeviceManager) FindDevice(name string) (*Device, bool) {
	for _, d := range m.devices.items {
		if d.Name() == name {
			return d, true
		}
	}
	return nil, false
}

// Device is one monitored unit owned by exactly one DeviceManager.
type Device struct {
	Node
	manager *DeviceManager
}

func newDevice(ctx *Context, el *document.Element, m *DeviceManager) (*Device, error) {
	d := &Device{Node: newNode(ctx, el), manager: m}
	if _, err := d.Address(); err != nil {
		return nil, err
	}
	return d, nil
}

// Name returns the device name.
func (d *Device) Name() string { return d.GetValue("name") }

// SetName writes the device name.
func (d *Device) SetName(name string) { d.SetValue("name", name, TagDevice) }

// Kind returns the device kind.
func (d *Device) Kind() DeviceKind { return DeviceKind(d.GetValue("kind")) }

// Address returns the Modbus unit id, or nil when unset.
func (d *Device) Address() (*uint16, error) { return d.GetUint16("address") }

// SetAddress writes the Modbus unit id. nil clears it.
func (d *Device) SetAddress(a *uint16) { d.SetUint16("address", a, TagDevice) }

// SerialNo returns the device serial number.
func (d *Device) SerialNo() string { return d.GetValue("serialno") }

// Enabled reports whether the device should be polled.
func (d *Device) Enabled() bool { return d.GetBool("enabled") }

// SetEnabled writes the enabled flag.
func (d *Device) SetEnabled(v bool) { d.SetBool("enabled", v, TagDevice) }

// Manager returns the owning device manager.
func (d *Device) Manager() *DeviceManager { return d.manager }

// SetAttribute writes one device attribute from its text form, checking
// the value before anything is written. An empty value clears address.
func (d *Device) SetAttribute(name, value string) error {
	switch name {
	case "name":
		if value == "" {
			return fmt.Errorf("%s: %w", d.Element().Path(), ErrMissingName)
		}
		d.SetName(value)
	case "kind", "serialno":
		d.SetValue(name, value, TagDevice)
	case "address":
		if strings.TrimSpace(value) == "" {
			d.SetAddress(nil)
			return nil
		}
		v, err := strconv.ParseUint(strings.TrimSpace(value), 10, 16)
		if err != nil {
			return &ValueError{Element: d.Element().Path(), Attribute: name, Value: value, Err: err}
		}
		a := uint16(v)
		d.SetAddress(&a)
	case "enabled":
		v, err := strconv.ParseBool(value)
		if err != nil {
			return &ValueError{Element: d.Element().Path(), Attribute: name, Value: value, Err: err}
		}
		d.SetEnabled(v)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownAttribute, name)
	}
	return nil
}

// BlockMessage is one contiguous register read.
type BlockMessage struct {
	Node
	registers *Collection[*Register]
}

func newBlockMessage(ctx *Context, el *document.Element) (*BlockMessage, error) {
	b := &BlockMessage{Node: newNode(ctx, el)}
	if _, err := b.Address(); err != nil {
		return nil, err
	}
	if _, err := b.Quantity(); err != nil {
		return nil, err
	}

	var err error
	b.registers, err = LoadCollection(ctx, el, TagRegister, registerBuilder(TagRegister))
	if err != nil {
		return nil, err
	}
	return b, nil
}

// Name returns the block name.
func (b *BlockMessage) Name() string { return b.GetValue("name") }

// Address returns the first register address, or nil when unset.
func (b *BlockMessage) Address() (*uint16, error) { return b.GetUint16("address") }

// Quantity returns the number of registers read, or nil when unset.
func (b *BlockMessage) Quantity() (*uint16, error) { return b.GetUint16("quantity") }

// Registers returns the registers decoded from the block.
func (b *BlockMessage) Registers() *Collection[*Register] { return b.registers }

// DataMap builds a data map over the block's registers.
func (b *BlockMessage) DataMap() (*DynamicDataMap, error) {
	return NewDynamicDataMap(b.registers.Items())
}
