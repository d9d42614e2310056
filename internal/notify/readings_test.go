package notify

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/EamonHetherton/PVBeanCounter-sub003/internal/infrastructure/mqtt"
	"github.com/EamonHetherton/PVBeanCounter-sub003/internal/modbus"
)

type point struct {
	manager, device, register string
	value                     float64
}

type fakeReadingWriter struct {
	points []point
}

func (f *fakeReadingWriter) WriteRegisterReading(manager, device, register string, value float64, _ time.Time) {
	f.points = append(f.points, point{manager, device, register, value})
}

func sampleResults() []modbus.DeviceResult {
	at := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	return []modbus.DeviceResult{
		{Manager: "rtu", Device: "Inv1", At: at, Readings: []modbus.Reading{
			{Register: "ac_power", Value: 1500},
			{Register: "temp", Value: 41.5},
		}},
		{Manager: "rtu", Device: "Inv2", At: at, Err: errors.New("timeout")},
		{Manager: "lan", Device: "Inv3", At: at},
	}
}

func TestReadingsSinkDeliver(t *testing.T) {
	pub := &fakePublisher{}
	w := &fakeReadingWriter{}
	sink := NewReadingsSink(pub, mqtt.Topics{Prefix: "site"}, w)

	sink.Deliver(sampleResults())

	if len(w.points) != 2 {
		t.Fatalf("wrote %d points, want 2", len(w.points))
	}
	if w.points[1] != (point{"rtu", "Inv1", "temp", 41.5}) {
		t.Errorf("point = %+v", w.points[1])
	}

	if len(pub.msgs) != 2 {
		t.Fatalf("published %d messages, want 2 (failed device skipped)", len(pub.msgs))
	}
	if pub.msgs[0].topic != "site/readings/rtu/Inv1" || pub.msgs[1].topic != "site/readings/lan/Inv3" {
		t.Errorf("topics = %q, %q", pub.msgs[0].topic, pub.msgs[1].topic)
	}

	var got modbus.DeviceResult
	if err := json.Unmarshal(pub.msgs[0].payload, &got); err != nil {
		t.Fatalf("payload not JSON: %v", err)
	}
	if got.Device != "Inv1" || len(got.Readings) != 2 || got.Readings[0].Value != 1500 {
		t.Errorf("payload = %+v", got)
	}
}

func TestReadingsSinkOptionalTargets(t *testing.T) {
	w := &fakeReadingWriter{}
	NewReadingsSink(nil, mqtt.Topics{}, w).Deliver(sampleResults())
	if len(w.points) != 2 {
		t.Errorf("influx-only sink wrote %d points", len(w.points))
	}

	pub := &fakePublisher{}
	NewReadingsSink(pub, mqtt.Topics{}, nil).Deliver(sampleResults())
	if len(pub.msgs) != 2 {
		t.Errorf("mqtt-only sink published %d messages", len(pub.msgs))
	}
}

func TestReadingsSinkPublishError(t *testing.T) {
	log := &fakeLogger{}
	sink := NewReadingsSink(&fakePublisher{err: errors.New("down")}, mqtt.Topics{}, nil)
	sink.SetLogger(log)

	sink.Deliver(sampleResults())
	if len(log.errors) != 2 {
		t.Errorf("logged %d errors, want 2", len(log.errors))
	}
}
