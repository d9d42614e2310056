package mqtt

import "errors"

var (
	// ErrOffline is returned by Publish and Subscribe while the broker
	// connection is down.
	ErrOffline = errors.New("mqtt: broker connection is down")

	// ErrTimeout is returned when the broker does not acknowledge a connect,
	// publish or subscribe in time.
	ErrTimeout = errors.New("mqtt: broker did not acknowledge")

	// ErrBadTopic is returned for an empty topic.
	ErrBadTopic = errors.New("mqtt: empty topic")

	// ErrBadQoS is returned by Connect for a QoS outside 0..2.
	ErrBadQoS = errors.New("mqtt: QoS must be 0, 1 or 2")

	// ErrPayloadTooLarge is returned for a reading or change payload over
	// maxPayload bytes.
	ErrPayloadTooLarge = errors.New("mqtt: payload too large")

	// ErrNoHandler is returned by Subscribe for a nil handler.
	ErrNoHandler = errors.New("mqtt: nil message handler")
)
