package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/EamonHetherton/PVBeanCounter-sub003/internal/audit"
	"github.com/EamonHetherton/PVBeanCounter-sub003/internal/infrastructure/influxdb"
	"github.com/EamonHetherton/PVBeanCounter-sub003/internal/infrastructure/mqtt"
	"github.com/EamonHetherton/PVBeanCounter-sub003/internal/settings"
)

// auditTimeout bounds one audit insert.
const auditTimeout = 5 * time.Second

// Logger is the logging interface used by observers.
type Logger interface {
	Info(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Publisher sends a payload to an MQTT topic. *mqtt.Client satisfies it.
type Publisher interface {
	Publish(topic string, payload []byte) error
}

// ChangeMessage is the JSON payload published for a change.
type ChangeMessage struct {
	Tag       string    `json:"tag"`
	Element   string    `json:"element"`
	Attribute string    `json:"attribute"`
	Value     string    `json:"value"`
	Session   string    `json:"session"`
	Timestamp time.Time `json:"timestamp"`
}

// NewChangeMessage converts ev to its published form.
func NewChangeMessage(ev settings.ChangeEvent) ChangeMessage {
	return ChangeMessage{
		Tag:       ev.Tag,
		Element:   ev.Element,
		Attribute: ev.Attribute,
		Value:     ev.Value,
		Session:   ev.Session,
		Timestamp: ev.Timestamp.UTC(),
	}
}

// MQTTPublisher publishes each change as JSON.
type MQTTPublisher struct {
	pub    Publisher
	topics mqtt.Topics
	logger Logger
}

// NewMQTTPublisher creates an observer publishing through pub.
func NewMQTTPublisher(pub Publisher, topics mqtt.Topics) *MQTTPublisher {
	return &MQTTPublisher{pub: pub, topics: topics, logger: noopLogger{}}
}

// SetLogger sets the logger for publish failures.
func (p *MQTTPublisher) SetLogger(logger Logger) {
	p.logger = logger
}

// PropertyChanged implements settings.Observer.
func (p *MQTTPublisher) PropertyChanged(ev settings.ChangeEvent) {
	payload, err := json.Marshal(NewChangeMessage(ev))
	if err != nil {
		p.logger.Error("marshalling settings change", "error", err)
		return
	}
	topic := p.topics.SettingsChanged(ev.Tag)
	if err := p.pub.Publish(topic, payload); err != nil {
		p.logger.Error("publishing settings change", "topic", topic, "error", err)
	}
}

// PointWriter records a settings change. *influxdb.Client satisfies it.
type PointWriter interface {
	WriteSettingsChange(ch influxdb.SettingsChange)
}

// InfluxRecorder writes each change as a time-series point.
type InfluxRecorder struct {
	w PointWriter
}

// NewInfluxRecorder creates an observer writing through w.
func NewInfluxRecorder(w PointWriter) *InfluxRecorder {
	return &InfluxRecorder{w: w}
}

// PropertyChanged implements settings.Observer. Writes are batched by the
// client; errors surface through its error callback.
func (r *InfluxRecorder) PropertyChanged(ev settings.ChangeEvent) {
	r.w.WriteSettingsChange(influxdb.SettingsChange{
		Tag:       ev.Tag,
		Element:   ev.Element,
		Attribute: ev.Attribute,
		Value:     ev.Value,
		Session:   ev.Session,
		Timestamp: ev.Timestamp,
	})
}

// AuditRecorder stores each change in the audit repository.
type AuditRecorder struct {
	repo   audit.Repository
	source string
	logger Logger
}

// NewAuditRecorder creates an observer writing to repo. source names where
// changes come from, e.g. "cli" or "mqtt".
func NewAuditRecorder(repo audit.Repository, source string) *AuditRecorder {
	return &AuditRecorder{repo: repo, source: source, logger: noopLogger{}}
}

// SetLogger sets the logger for insert failures.
func (r *AuditRecorder) SetLogger(logger Logger) {
	r.logger = logger
}

// SetSource changes the source stamped on later entries.
func (r *AuditRecorder) SetSource(source string) {
	r.source = source
}

// PropertyChanged implements settings.Observer.
func (r *AuditRecorder) PropertyChanged(ev settings.ChangeEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), auditTimeout)
	defer cancel()

	err := r.repo.Create(ctx, &audit.Entry{
		Session:   ev.Session,
		Tag:       ev.Tag,
		Element:   ev.Element,
		Attribute: ev.Attribute,
		Value:     ev.Value,
		Source:    r.source,
		CreatedAt: ev.Timestamp.UTC(),
	})
	if err != nil {
		r.logger.Error("recording settings change", "element", ev.Element, "attribute", ev.Attribute, "error", err)
	}
}

// LogObserver logs every change at info level.
type LogObserver struct {
	logger Logger
}

// NewLogObserver creates an observer logging to logger.
func NewLogObserver(logger Logger) *LogObserver {
	return &LogObserver{logger: logger}
}

// PropertyChanged implements settings.Observer.
func (o *LogObserver) PropertyChanged(ev settings.ChangeEvent) {
	o.logger.Info("setting changed",
		"tag", ev.Tag,
		"element", ev.Element,
		"attribute", ev.Attribute,
		"value", ev.Value,
		"session", ev.Session,
	)
}

// Buffer holds change events until Flush hands them to its observers.
// Writers that may still be rolled back subscribe a Buffer to the
// settings.Context and their sinks to the Buffer.
//
// A Buffer is not safe for concurrent use; it shares the locking of the
// tree it is subscribed to.
type Buffer struct {
	observers []settings.Observer
	pending   []settings.ChangeEvent
}

// NewBuffer creates a Buffer delivering to observers.
func NewBuffer(observers ...settings.Observer) *Buffer {
	return &Buffer{observers: observers}
}

// Subscribe adds o to the observers that receive flushed events.
func (b *Buffer) Subscribe(o settings.Observer) {
	b.observers = append(b.observers, o)
}

// PropertyChanged implements settings.Observer.
func (b *Buffer) PropertyChanged(ev settings.ChangeEvent) {
	b.pending = append(b.pending, ev)
}

// Pending returns the number of events held.
func (b *Buffer) Pending() int {
	return len(b.pending)
}

// Flush delivers the held events in order and returns how many there were.
func (b *Buffer) Flush() int {
	events := b.pending
	b.pending = nil
	for _, ev := range events {
		for _, o := range b.observers {
			o.PropertyChanged(ev)
		}
	}
	return len(events)
}

// Discard drops the held events and returns how many there were.
func (b *Buffer) Discard() int {
	n := len(b.pending)
	b.pending = nil
	return n
}
