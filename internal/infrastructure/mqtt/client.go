package mqtt

import (
	"fmt"
	"sync"
	"sync/atomic"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/EamonHetherton/PVBeanCounter-sub003/internal/infrastructure/config"
)

// Client publishes settings changes and readings, and receives set commands.
// Subscriptions survive a reconnect. Safe for concurrent use.
type Client struct {
	conn   pahomqtt.Client
	qos    byte
	id     string
	topics Topics

	online atomic.Bool

	mu       sync.Mutex
	handlers map[string]MessageHandler
	log      Logger
}

// Logger receives connection loss and handler failures. *slog.Logger
// satisfies it.
type Logger interface {
	Error(msg string, args ...any)
	Warn(msg string, args ...any)
}

// MessageHandler handles one message. It runs on a paho goroutine; a
// returned error is logged.
type MessageHandler func(topic string, payload []byte) error

// Connect dials the broker and waits for the first connection.
func Connect(cfg config.MQTTConfig) (*Client, error) {
	if cfg.QoS < 0 || cfg.QoS > 2 {
		return nil, fmt.Errorf("%w: got %d", ErrBadQoS, cfg.QoS)
	}

	c := &Client{
		qos:      byte(cfg.QoS),
		id:       cfg.Broker.ClientID,
		topics:   Topics{Prefix: cfg.TopicPrefix},
		handlers: make(map[string]MessageHandler),
	}

	opts := clientOptions(cfg, c.topics).
		SetOnConnectHandler(func(pahomqtt.Client) { c.connected() }).
		SetConnectionLostHandler(func(_ pahomqtt.Client, err error) { c.lost(err) })

	c.conn = pahomqtt.NewClient(opts)
	if err := await(c.conn.Connect(), connectTimeout); err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", brokerURL(cfg.Broker), err)
	}
	// The connect handler runs asynchronously.
	c.online.Store(true)
	return c, nil
}

// SetLogger sets the logger. Without one, failures are dropped.
func (c *Client) SetLogger(log Logger) {
	c.mu.Lock()
	c.log = log
	c.mu.Unlock()
}

func (c *Client) logger() Logger {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.log
}

func (c *Client) connected() {
	c.online.Store(true)

	c.mu.Lock()
	for topic, h := range c.handlers {
		// A failed resubscribe is retried on the next reconnect.
		c.conn.Subscribe(topic, c.qos, c.deliver(h))
	}
	c.mu.Unlock()

	c.conn.Publish(c.topics.Status(), c.qos, true, statusPayload(c.id, "online", ""))
}

func (c *Client) lost(err error) {
	c.online.Store(false)
	if log := c.logger(); log != nil {
		log.Warn("mqtt broker connection lost", "client_id", c.id, "error", err)
	}
}

// Close marks the service offline on the status topic and disconnects.
// Close on a client that never connected is a no-op.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}

	var err error
	if c.online.Load() {
		err = await(c.conn.Publish(c.topics.Status(), c.qos, true, statusPayload(c.id, "offline", "shutdown")), ackTimeout)
	}
	c.conn.Disconnect(quiesce)
	c.online.Store(false)

	if err != nil {
		return fmt.Errorf("publishing offline status: %w", err)
	}
	return nil
}

// deliver adapts h to paho, recovering panics so one bad command cannot
// stop the paho router.
func (c *Client) deliver(h MessageHandler) pahomqtt.MessageHandler {
	return func(_ pahomqtt.Client, msg pahomqtt.Message) {
		defer func() {
			if r := recover(); r != nil {
				if log := c.logger(); log != nil {
					log.Error("mqtt handler panicked", "topic", msg.Topic(), "panic", r)
				}
			}
		}()

		if err := h(msg.Topic(), msg.Payload()); err != nil {
			if log := c.logger(); log != nil {
				log.Warn("mqtt message not applied", "topic", msg.Topic(), "error", err)
			}
		}
	}
}
