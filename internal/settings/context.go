package settings

import (
	"time"

	"github.com/google/uuid"
)

// ChangeEvent describes one attribute write.
type ChangeEvent struct {
	// Tag names the kind of settings object that changed, e.g. "device".
	Tag string

	// Element is the path of the changed element within the document.
	Element string

	Attribute string
	Value     string

	// Session identifies the Context the write was made through.
	Session string

	Timestamp time.Time
}

// Observer receives change events synchronously from SetValue.
type Observer interface {
	PropertyChanged(ev ChangeEvent)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ev ChangeEvent)

// PropertyChanged calls f(ev).
func (f ObserverFunc) PropertyChanged(ev ChangeEvent) {
	f(ev)
}

// Logger defines the logging interface used by the settings tree.
// It is satisfied by *logging.Logger and *slog.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Context is shared by every node of one loaded settings tree.
// It holds the registered observers and a session id stamped on each event.
//
// A Context and the nodes built from it are not safe for concurrent use.
// Callers that mutate from several goroutines must serialise access.
type Context struct {
	session   string
	logger    Logger
	observers []registration
	nextID    int
	now       func() time.Time
}

type registration struct {
	id       int
	observer Observer
}

// NewContext creates a Context with a fresh session id.
func NewContext() *Context {
	return &Context{
		session: uuid.NewString(),
		logger:  noopLogger{},
		now:     time.Now,
	}
}

// Session returns the id stamped on events raised through this Context.
func (c *Context) Session() string {
	return c.session
}

// SetLogger sets the logger used for tree-level diagnostics.
func (c *Context) SetLogger(logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}
	c.logger = logger
}

// Subscribe registers o and returns a function that removes it.
// Observers are called in subscription order.
func (c *Context) Subscribe(o Observer) (unsubscribe func()) {
	c.nextID++
	id := c.nextID
	c.observers = append(c.observers, registration{id: id, observer: o})

	return func() {
		for i, r := range c.observers {
			if r.id == id {
				c.observers = append(c.observers[:i], c.observers[i+1:]...)
				return
			}
		}
	}
}

func (c *Context) notify(ev ChangeEvent) {
	ev.Session = c.session
	ev.Timestamp = c.now()

	c.logger.Debug("settings changed",
		"tag", ev.Tag,
		"element", ev.Element,
		"attribute", ev.Attribute,
	)

	// Copy so an observer may unsubscribe during dispatch
	observers := make([]registration, len(c.observers))
	copy(observers, c.observers)
	for _, r := range observers {
		r.observer.PropertyChanged(ev)
	}
}
