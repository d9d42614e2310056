package notify

import (
	"encoding/json"
	"time"

	"github.com/EamonHetherton/PVBeanCounter-sub003/internal/infrastructure/mqtt"
	"github.com/EamonHetherton/PVBeanCounter-sub003/internal/modbus"
)

// ReadingWriter records one register value. *influxdb.Client satisfies it.
type ReadingWriter interface {
	WriteRegisterReading(manager, device, register string, value float64, ts time.Time)
}

// ReadingsSink forwards poll results to MQTT and InfluxDB. Either target
// may be nil.
type ReadingsSink struct {
	pub    Publisher
	topics mqtt.Topics
	writer ReadingWriter
	logger Logger
}

// NewReadingsSink creates a sink.
func NewReadingsSink(pub Publisher, topics mqtt.Topics, writer ReadingWriter) *ReadingsSink {
	return &ReadingsSink{pub: pub, topics: topics, writer: writer, logger: noopLogger{}}
}

// SetLogger sets the logger for publish failures.
func (s *ReadingsSink) SetLogger(logger Logger) {
	s.logger = logger
}

// Deliver sends every successful result. Failed device reads are skipped.
func (s *ReadingsSink) Deliver(results []modbus.DeviceResult) {
	for _, res := range results {
		if res.Err != nil {
			continue
		}
		if s.writer != nil {
			for _, r := range res.Readings {
				s.writer.WriteRegisterReading(res.Manager, res.Device, r.Register, r.Value, res.At)
			}
		}
		if s.pub == nil {
			continue
		}
		payload, err := json.Marshal(res)
		if err != nil {
			s.logger.Error("marshalling readings", "device", res.Device, "error", err)
			continue
		}
		topic := s.topics.Readings(res.Manager, res.Device)
		if err := s.pub.Publish(topic, payload); err != nil {
			s.logger.Error("publishing readings", "topic", topic, "error", err)
		}
	}
}
