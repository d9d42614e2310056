package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurements written to the archive.
const (
	MeasurementSettingsChange = "settings_change"
	MeasurementRegister       = "register_reading"
)

// SettingsChange is one saved attribute write.
type SettingsChange struct {
	Tag       string
	Element   string
	Attribute string
	Value     string
	Session   string
	Timestamp time.Time
}

// WriteSettingsChange archives an attribute write. The node kind and element
// path are indexed; attribute, value and session are fields because their
// cardinality is unbounded.
func (c *Client) WriteSettingsChange(ch SettingsChange) {
	at := ch.Timestamp
	if at.IsZero() {
		at = time.Now()
	}
	p := write.NewPointWithMeasurement(MeasurementSettingsChange).
		AddTag("tag", ch.Tag).
		AddTag("element", ch.Element).
		AddField("attribute", ch.Attribute).
		AddField("value", ch.Value).
		AddField("session", ch.Session).
		SetTime(at)
	c.queue(p)
}

// WriteRegisterReading archives one decoded register value of a polled device.
func (c *Client) WriteRegisterReading(manager, device, register string, value float64, at time.Time) {
	p := write.NewPointWithMeasurement(MeasurementRegister).
		AddTag("manager", manager).
		AddTag("device", device).
		AddTag("register", register).
		AddField("value", value).
		SetTime(at)
	c.queue(p)
}
