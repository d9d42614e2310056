package modbus

import (
	"context"
	"fmt"
	"time"

	"github.com/EamonHetherton/PVBeanCounter-sub003/internal/settings"
)

// Logger is the logging interface used by the poller.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}

// Options hold defaults for managers and ports that leave them unset.
type Options struct {
	Timeout time.Duration
	TCPPort int
}

// DialFunc opens a connection to a manager's bus.
type DialFunc func(m *settings.DeviceManager) (Conn, error)

// DeviceResult is the outcome of reading every block of one device.
// A failed read leaves Readings empty and sets Err.
type DeviceResult struct {
	Manager  string    `json:"manager"`
	Device   string    `json:"device"`
	At       time.Time `json:"at"`
	Readings []Reading `json:"readings"`
	Err      error     `json:"-"`
}

// Poller reads the devices of a settings tree.
//
// It reads nodes of the tree, so callers sharing the tree with writers must
// either hold their lock for the duration of a poll or poll a detached copy
// (see WithSettings).
type Poller struct {
	app    *settings.ApplicationSettings
	opts   Options
	dial   DialFunc
	logger Logger
	now    func() time.Time
}

// NewPoller creates a poller dialling real serial and TCP buses.
func NewPoller(app *settings.ApplicationSettings, opts Options) *Poller {
	if opts.Timeout <= 0 {
		opts.Timeout = time.Second
	}
	if opts.TCPPort == 0 {
		opts.TCPPort = 502
	}
	p := &Poller{app: app, opts: opts, logger: noopLogger{}, now: time.Now}
	p.dial = p.dialManager
	return p
}

// SetLogger sets the logger for per-device failures.
func (p *Poller) SetLogger(logger Logger) {
	p.logger = logger
}

// SetDialer replaces how buses are opened.
func (p *Poller) SetDialer(dial DialFunc) {
	p.dial = dial
}

// WithSettings returns a copy of p that polls app. The copy shares the
// dialer, logger and options of p.
func (p *Poller) WithSettings(app *settings.ApplicationSettings) *Poller {
	cp := *p
	cp.app = app
	return &cp
}

// PollAll polls every manager in document order. A manager that cannot be
// opened is logged and skipped.
func (p *Poller) PollAll(ctx context.Context) []DeviceResult {
	var results []DeviceResult
	for _, m := range p.app.DeviceManagers().All() {
		if ctx.Err() != nil {
			break
		}
		res, err := p.PollManager(ctx, m)
		if err != nil {
			p.logger.Warn("polling device manager", "manager", m.Name(), "error", err)
			continue
		}
		results = append(results, res...)
	}
	return results
}

// PollManager reads every block of every enabled device of m. The error is
// non-nil only when the bus cannot be opened; per-device failures are
// reported in DeviceResult.Err.
func (p *Poller) PollManager(ctx context.Context, m *settings.DeviceManager) ([]DeviceResult, error) {
	var devices []*settings.Device
	for _, d := range m.Devices().All() {
		if d.Enabled() {
			devices = append(devices, d)
		}
	}
	if len(devices) == 0 {
		return nil, nil
	}

	blocks, err := p.planBlocks(m)
	if err != nil {
		return nil, err
	}

	conn, err := p.dial(m)
	if err != nil {
		return nil, err
	}
	defer conn.Close() //nolint:errcheck // nothing to do on close failure

	results := make([]DeviceResult, 0, len(devices))
	for _, d := range devices {
		if err := ctx.Err(); err != nil {
			return results, nil
		}
		res := DeviceResult{Manager: m.Name(), Device: d.Name(), At: p.now()}
		res.Readings, res.Err = p.pollDevice(conn, blocks, d)
		if res.Err != nil {
			p.logger.Warn("polling device", "manager", m.Name(), "device", d.Name(), "error", res.Err)
			res.Readings = nil
		} else {
			p.logger.Debug("polled device", "manager", m.Name(), "device", d.Name(), "readings", len(res.Readings))
		}
		results = append(results, res)
	}
	return results, nil
}

// plannedBlock is a block message with its positions resolved.
type plannedBlock struct {
	block   *settings.BlockMessage
	dataMap *settings.DynamicDataMap
}

// planBlocks builds the data map of every block of m once per poll. Block
// registers without a configured position are placed from the manager's
// register templates.
func (p *Poller) planBlocks(m *settings.DeviceManager) ([]plannedBlock, error) {
	blocks := make([]plannedBlock, 0, m.BlockMessages().Len())
	for _, b := range m.BlockMessages().All() {
		dm, err := b.DataMap()
		if err != nil {
			return nil, err
		}
		unplaced, err := ResolvePositions(dm, b, m.RegisterTemplates().Items())
		if err != nil {
			return nil, err
		}
		if len(unplaced) > 0 {
			p.logger.Debug("registers without a position",
				"manager", m.Name(), "block", b.Name(), "ids", unplaced)
		}
		blocks = append(blocks, plannedBlock{block: b, dataMap: dm})
	}
	return blocks, nil
}

// pollDevice is all-or-nothing across the device's blocks.
func (p *Poller) pollDevice(conn Conn, blocks []plannedBlock, d *settings.Device) ([]Reading, error) {
	addr, err := d.Address()
	if err != nil {
		return nil, err
	}
	if addr == nil || *addr > 255 {
		return nil, fmt.Errorf("%w: %s", ErrMissingAddress, d.Name())
	}
	conn.SetUnit(byte(*addr))

	r := NewReader(conn)
	var readings []Reading
	for _, pb := range blocks {
		rs, err := r.ReadAndDecode(pb.block, pb.dataMap)
		if err != nil {
			return nil, err
		}
		readings = append(readings, rs...)
	}
	return readings, nil
}

// dialManager opens the serial line or TCP connection m describes.
func (p *Poller) dialManager(m *settings.DeviceManager) (Conn, error) {
	timeout := p.opts.Timeout
	ms, err := m.Timeout()
	if err != nil {
		return nil, err
	}
	if ms != nil {
		timeout = time.Duration(*ms) * time.Millisecond
	}

	switch m.Protocol() {
	case settings.ProtocolModbusRTU:
		port, err := p.app.FindSerialPort(m.SerialPortName())
		if err != nil {
			return nil, err
		}
		h, err := NewRTUHandler(port, timeout)
		if err != nil {
			return nil, err
		}
		return connectRTU(h)

	case settings.ProtocolModbusTCP:
		tcpPort := p.opts.TCPPort
		mp, err := m.Port()
		if err != nil {
			return nil, err
		}
		if mp != nil {
			tcpPort = *mp
		}
		return connectTCP(NewTCPHandler(m.Host(), tcpPort, timeout))

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedProtocol, m.Protocol())
	}
}
