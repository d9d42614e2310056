package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/EamonHetherton/PVBeanCounter-sub003/internal/audit"
	"github.com/EamonHetherton/PVBeanCounter-sub003/internal/infrastructure/influxdb"
	"github.com/EamonHetherton/PVBeanCounter-sub003/internal/infrastructure/mqtt"
	"github.com/EamonHetherton/PVBeanCounter-sub003/internal/settings"
)

type published struct {
	topic   string
	payload []byte
}

type fakePublisher struct {
	msgs []published
	err  error
}

func (f *fakePublisher) Publish(topic string, payload []byte) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, published{topic, payload})
	return nil
}

type fakeWriter struct {
	changes []influxdb.SettingsChange
}

func (f *fakeWriter) WriteSettingsChange(ch influxdb.SettingsChange) {
	f.changes = append(f.changes, ch)
}

type fakeAudit struct {
	entries []*audit.Entry
	err     error
}

func (f *fakeAudit) Create(_ context.Context, e *audit.Entry) error {
	if f.err != nil {
		return f.err
	}
	f.entries = append(f.entries, e)
	return nil
}

func (f *fakeAudit) List(context.Context, audit.Filter) (*audit.ListResult, error) {
	return nil, errors.New("not implemented")
}

type fakeLogger struct {
	infos  []string
	errors []string
}

func (l *fakeLogger) Info(msg string, args ...any) {
	l.infos = append(l.infos, fmt.Sprint(append([]any{msg}, args...)...))
}

func (l *fakeLogger) Error(msg string, args ...any) {
	l.errors = append(l.errors, msg)
}

// changeDevice loads a one-device tree on a fresh context, subscribes obs and
// sets the device's address.
func changeDevice(t *testing.T, obs ...settings.Observer) *settings.Context {
	t.Helper()

	ctx := settings.NewContext()
	for _, o := range obs {
		ctx.Subscribe(o)
	}
	app := settings.New(ctx)
	m, err := app.AddDeviceManager("rtu", settings.ProtocolModbusRTU)
	if err != nil {
		t.Fatalf("AddDeviceManager() error = %v", err)
	}
	d, err := m.AddDevice("inv1")
	if err != nil {
		t.Fatalf("AddDevice() error = %v", err)
	}
	addr := uint16(5)
	d.SetAddress(&addr)
	return ctx
}

func TestMQTTPublisher(t *testing.T) {
	pub := &fakePublisher{}
	ctx := changeDevice(t, NewMQTTPublisher(pub, mqtt.Topics{Prefix: "site"}))

	if len(pub.msgs) != 4 {
		t.Fatalf("published %d messages, want 4", len(pub.msgs))
	}

	last := pub.msgs[3]
	if last.topic != "site/settings/changed/device" {
		t.Errorf("topic = %q", last.topic)
	}
	var msg ChangeMessage
	if err := json.Unmarshal(last.payload, &msg); err != nil {
		t.Fatalf("payload not JSON: %v", err)
	}
	if msg.Tag != settings.TagDevice || msg.Attribute != "address" || msg.Value != "5" {
		t.Errorf("message = %+v", msg)
	}
	if msg.Element != "settings/devicemanager[0]/device[0]" {
		t.Errorf("Element = %q", msg.Element)
	}
	if msg.Session != ctx.Session() || msg.Timestamp.IsZero() {
		t.Errorf("session/timestamp = %q/%v", msg.Session, msg.Timestamp)
	}

	if pub.msgs[0].topic != "site/settings/changed/devicemanager" {
		t.Errorf("first topic = %q", pub.msgs[0].topic)
	}
}

func TestMQTTPublisherErrorIsLogged(t *testing.T) {
	pub := &fakePublisher{err: mqtt.ErrOffline}
	log := &fakeLogger{}
	p := NewMQTTPublisher(pub, mqtt.Topics{})
	p.SetLogger(log)

	changeDevice(t, p)

	if len(log.errors) != 4 {
		t.Errorf("logged %d errors, want 4", len(log.errors))
	}
}

func TestInfluxRecorder(t *testing.T) {
	w := &fakeWriter{}
	ctx := changeDevice(t, NewInfluxRecorder(w))

	if len(w.changes) != 4 {
		t.Fatalf("wrote %d changes, want 4", len(w.changes))
	}
	ch := w.changes[2]
	if ch.Tag != settings.TagDevice || ch.Attribute != "name" || ch.Value != "inv1" || ch.Session != ctx.Session() {
		t.Errorf("change = %+v", ch)
	}
	if ch.Timestamp.IsZero() {
		t.Error("Timestamp not set")
	}
}

func TestAuditRecorder(t *testing.T) {
	repo := &fakeAudit{}
	rec := NewAuditRecorder(repo, "cli")

	ctx := changeDevice(t, rec)

	if len(repo.entries) != 4 {
		t.Fatalf("created %d entries, want 4", len(repo.entries))
	}
	for _, e := range repo.entries {
		if e.Source != "cli" || e.Session != ctx.Session() {
			t.Errorf("entry = %+v", e)
		}
	}
	if e := repo.entries[1]; e.Attribute != "protocol" || e.Value != "modbus-rtu" {
		t.Errorf("entry[1] = %+v", e)
	}

	rec.SetSource("mqtt")
	changeDevice(t, rec)
	if got := repo.entries[len(repo.entries)-1].Source; got != "mqtt" {
		t.Errorf("Source after SetSource = %q", got)
	}
}

func TestAuditRecorderErrorIsLogged(t *testing.T) {
	repo := &fakeAudit{err: errors.New("disk full")}
	log := &fakeLogger{}
	rec := NewAuditRecorder(repo, "cli")
	rec.SetLogger(log)

	changeDevice(t, rec)

	if len(log.errors) != 4 {
		t.Errorf("logged %d errors, want 4", len(log.errors))
	}
}

func TestLogObserver(t *testing.T) {
	log := &fakeLogger{}
	changeDevice(t, NewLogObserver(log))

	if len(log.infos) != 4 {
		t.Fatalf("logged %d lines, want 4", len(log.infos))
	}
}

func TestObserversTogether(t *testing.T) {
	pub := &fakePublisher{err: errors.New("broker down")}
	w := &fakeWriter{}

	// A failing publisher must not stop later observers
	changeDevice(t, NewMQTTPublisher(pub, mqtt.Topics{}), NewInfluxRecorder(w))

	if len(w.changes) != 4 {
		t.Errorf("influx saw %d changes after publish failures, want 4", len(w.changes))
	}
}

func TestBuffer(t *testing.T) {
	w := &fakeWriter{}
	buf := NewBuffer(NewInfluxRecorder(w))
	changeDevice(t, buf)

	if buf.Pending() != 4 {
		t.Fatalf("Pending() = %d, want 4", buf.Pending())
	}
	if len(w.changes) != 0 {
		t.Fatalf("influx saw %d changes before Flush", len(w.changes))
	}

	if n := buf.Discard(); n != 4 {
		t.Errorf("Discard() = %d, want 4", n)
	}
	if n := buf.Flush(); n != 0 {
		t.Errorf("Flush() after Discard = %d, want 0", n)
	}
	if len(w.changes) != 0 {
		t.Errorf("discarded changes reached influx: %d", len(w.changes))
	}

	pub := &fakePublisher{}
	buf.Subscribe(NewMQTTPublisher(pub, mqtt.Topics{Prefix: "pv"}))
	changeDevice(t, buf)
	if n := buf.Flush(); n != 4 {
		t.Errorf("Flush() = %d, want 4", n)
	}
	if len(w.changes) != 4 || len(pub.msgs) != 4 {
		t.Errorf("flushed to influx %d and mqtt %d, want 4 each", len(w.changes), len(pub.msgs))
	}
	if buf.Pending() != 0 {
		t.Errorf("Pending() after Flush = %d", buf.Pending())
	}
}
