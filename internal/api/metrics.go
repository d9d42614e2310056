package api

import (
	"net/http"
	"runtime"
	"time"

	"github.com/EamonHetherton/PVBeanCounter-sub003/internal/settings"
)

// SystemMetrics represents the metrics response.
type SystemMetrics struct {
	Timestamp     string          `json:"timestamp"`
	Version       string          `json:"version"`
	UptimeSeconds int64           `json:"uptime_seconds"`
	Runtime       RuntimeMetrics  `json:"runtime"`
	WebSocket     WSMetrics       `json:"websocket"`
	Settings      SettingsMetrics `json:"settings"`
}

// RuntimeMetrics contains Go runtime statistics.
type RuntimeMetrics struct {
	Goroutines    int     `json:"goroutines"`
	MemoryAllocMB float64 `json:"memory_alloc_mb"`
	MemoryTotalMB float64 `json:"memory_total_mb"`
	NumGC         uint32  `json:"num_gc"`
}

// WSMetrics contains WebSocket hub statistics.
type WSMetrics struct {
	ConnectedClients int `json:"connected_clients"`
}

// SettingsMetrics counts what the live tree describes.
type SettingsMetrics struct {
	DeviceManagers int `json:"device_managers"`
	Devices        int `json:"devices"`
	EnabledDevices int `json:"enabled_devices"`
	SerialPorts    int `json:"serial_ports"`
}

// handleMetrics returns runtime and settings counters.
func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	metrics := SystemMetrics{
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		Version:       s.version,
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		Runtime: RuntimeMetrics{
			Goroutines:    runtime.NumGoroutine(),
			MemoryAllocMB: float64(memStats.Alloc) / 1024 / 1024,
			MemoryTotalMB: float64(memStats.TotalAlloc) / 1024 / 1024,
			NumGC:         memStats.NumGC,
		},
		WebSocket: WSMetrics{
			ConnectedClients: s.hub.ClientCount(),
		},
	}

	err := s.store.View(func(app *settings.ApplicationSettings) error {
		metrics.Settings.DeviceManagers = app.DeviceManagers().Len()
		metrics.Settings.SerialPorts = app.SerialPorts().Len()
		for d := range app.Devices().All() {
			metrics.Settings.Devices++
			if d.Enabled() {
				metrics.Settings.EnabledDevices++
			}
		}
		return nil
	})
	if err != nil {
		writeSettingsError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, metrics)
}
