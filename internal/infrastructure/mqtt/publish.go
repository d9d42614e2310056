package mqtt

import (
	"fmt"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
)

// Publish sends a non-retained message at the configured QoS.
func (c *Client) Publish(topic string, payload []byte) error {
	if topic == "" {
		return ErrBadTopic
	}
	if len(payload) > maxPayload {
		return fmt.Errorf("%w: %d bytes on %s", ErrPayloadTooLarge, len(payload), topic)
	}
	if !c.online.Load() {
		return ErrOffline
	}

	if err := await(c.conn.Publish(topic, c.qos, false, payload), ackTimeout); err != nil {
		return fmt.Errorf("publishing to %s: %w", topic, err)
	}
	return nil
}

// Subscribe routes messages matching topic, which may hold + and #
// wildcards, to h at the configured QoS.
func (c *Client) Subscribe(topic string, h MessageHandler) error {
	if topic == "" {
		return ErrBadTopic
	}
	if h == nil {
		return ErrNoHandler
	}
	if !c.online.Load() {
		return ErrOffline
	}

	if err := await(c.conn.Subscribe(topic, c.qos, c.deliver(h)), ackTimeout); err != nil {
		return fmt.Errorf("subscribing to %s: %w", topic, err)
	}

	c.mu.Lock()
	c.handlers[topic] = h
	c.mu.Unlock()
	return nil
}

func await(t pahomqtt.Token, timeout time.Duration) error {
	if !t.WaitTimeout(timeout) {
		return fmt.Errorf("%w within %v", ErrTimeout, timeout)
	}
	return t.Error()
}
