// Package modbus reads register blocks from the devices described by a
// settings tree and decodes them through a DynamicDataMap.
//
// A DeviceManager maps to one bus: a serial line for modbus-rtu managers
// or a TCP endpoint for modbus-tcp managers. Each device on the bus is
// addressed by its unit id. Every BlockMessage is read with function code 3
// and decoded into Readings:
//
//	p := modbus.NewPoller(app, modbus.Options{Timeout: time.Second, TCPPort: 502})
//	results, err := p.PollManager(ctx, manager)
//
// Block registers without a configured position are placed at poll time
// from the manager's register templates (see ResolvePositions). Registers
// that still have no position are skipped by Decode.
//
// Register values are big-endian. 32-bit types span two consecutive
// registers, high word first.
package modbus
