package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/EamonHetherton/PVBeanCounter-sub003/internal/settings"
)

// DeviceView is the JSON form of a device.
type DeviceView struct {
	Name     string  `json:"name"`
	Manager  string  `json:"manager"`
	Kind     string  `json:"kind,omitempty"`
	Address  *uint16 `json:"address,omitempty"`
	SerialNo string  `json:"serialno,omitempty"`
	Enabled  bool    `json:"enabled"`
}

// ManagerView is the JSON form of a device manager and its devices.
type ManagerView struct {
	Name       string       `json:"name"`
	Protocol   string       `json:"protocol"`
	SerialPort string       `json:"serialport,omitempty"`
	Host       string       `json:"host,omitempty"`
	Port       *int         `json:"port,omitempty"`
	Devices    []DeviceView `json:"devices"`
}

// SerialPortView is the JSON form of a serial port.
type SerialPortView struct {
	Name     string `json:"name"`
	PortName string `json:"portname"`
	BaudRate *int   `json:"baudrate,omitempty"`
	DataBits *int   `json:"databits,omitempty"`
	StopBits *int   `json:"stopbits,omitempty"`
	Parity   string `json:"parity,omitempty"`
}

// Numeric attributes were checked when the tree was built, so the errors
// below cannot occur on a live tree.

func newDeviceView(d *settings.Device) DeviceView {
	addr, _ := d.Address() //nolint:errcheck // validated at load
	v := DeviceView{
		Name:     d.Name(),
		Kind:     string(d.Kind()),
		Address:  addr,
		SerialNo: d.SerialNo(),
		Enabled:  d.Enabled(),
	}
	if m := d.Manager(); m != nil {
		v.Manager = m.Name()
	}
	return v
}

func newManagerView(m *settings.DeviceManager) ManagerView {
	port, _ := m.Port() //nolint:errcheck // validated at load
	v := ManagerView{
		Name:       m.Name(),
		Protocol:   string(m.Protocol()),
		SerialPort: m.SerialPortName(),
		Host:       m.Host(),
		Port:       port,
		Devices:    []DeviceView{},
	}
	for _, d := range m.Devices().Items() {
		v.Devices = append(v.Devices, newDeviceView(d))
	}
	return v
}

func newSerialPortView(p *settings.SerialPort) SerialPortView {
	baud, _ := p.BaudRate()     //nolint:errcheck // validated at load
	dataBits, _ := p.DataBits() //nolint:errcheck // validated at load
	stopBits, _ := p.StopBits() //nolint:errcheck // validated at load
	return SerialPortView{
		Name:     p.Name(),
		PortName: p.PortName(),
		BaudRate: baud,
		DataBits: dataBits,
		StopBits: stopBits,
		Parity:   p.Parity(),
	}
}

// handleListManagers returns every device manager with its devices.
func (s *Server) handleListManagers(w http.ResponseWriter, _ *http.Request) {
	views := []ManagerView{}
	err := s.store.View(func(app *settings.ApplicationSettings) error {
		for _, m := range app.DeviceManagers().Items() {
			views = append(views, newManagerView(m))
		}
		return nil
	})
	if err != nil {
		writeSettingsError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"devicemanagers": views, "count": len(views)})
}

// handleListDevices returns every device, optionally only those of one
// manager (?manager=) or only enabled ones (?enabled=true).
func (s *Server) handleListDevices(w http.ResponseWriter, r *http.Request) {
	manager := r.URL.Query().Get("manager")
	enabledOnly := r.URL.Query().Get("enabled") == "true"

	views := []DeviceView{}
	err := s.store.View(func(app *settings.ApplicationSettings) error {
		for d := range app.Devices().All() {
			v := newDeviceView(d)
			if manager != "" && v.Manager != manager {
				continue
			}
			if enabledOnly && !v.Enabled {
				continue
			}
			views = append(views, v)
		}
		return nil
	})
	if err != nil {
		writeSettingsError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"devices": views, "count": len(views)})
}

// handleGetDevice returns one device by name.
func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	v, err := s.deviceView(chi.URLParam(r, "name"))
	if err != nil {
		writeSettingsError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// handleUpdateDevice sets device attributes from a JSON object of
// attribute name to value, e.g. {"enabled": "false", "address": "7"}.
func (s *Server) handleUpdateDevice(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var attrs map[string]string
	if err := json.NewDecoder(r.Body).Decode(&attrs); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if len(attrs) == 0 {
		writeBadRequest(w, "no attributes to set")
		return
	}

	if err := s.store.SetDeviceAttributes(name, attrs); err != nil {
		writeSettingsError(w, err)
		return
	}
	s.logger.Info("device updated via API",
		"device", name,
		"attributes", len(attrs),
		"subject", subjectFrom(r.Context()),
	)

	if renamed, ok := attrs["name"]; ok {
		name = renamed
	}
	v, err := s.deviceView(name)
	if err != nil {
		writeSettingsError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) deviceView(name string) (DeviceView, error) {
	var v DeviceView
	err := s.store.View(func(app *settings.ApplicationSettings) error {
		d, err := app.FindDevice(name)
		if err != nil {
			return err
		}
		v = newDeviceView(d)
		return nil
	})
	return v, err
}

// handleListSerialPorts returns the configured serial ports.
func (s *Server) handleListSerialPorts(w http.ResponseWriter, _ *http.Request) {
	views := []SerialPortView{}
	err := s.store.View(func(app *settings.ApplicationSettings) error {
		for _, p := range app.SerialPorts().Items() {
			views = append(views, newSerialPortView(p))
		}
		return nil
	})
	if err != nil {
		writeSettingsError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"serialports": views, "count": len(views)})
}
