package mqtt

import (
	"crypto/tls"
	"encoding/json"
	"fmt"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/EamonHetherton/PVBeanCounter-sub003/internal/infrastructure/config"
)

const (
	connectTimeout = 10 * time.Second
	ackTimeout     = 5 * time.Second
	keepAlive      = 60 * time.Second

	// quiesce is how long Disconnect waits for in-flight work, in milliseconds.
	quiesce = 1000

	maxPayload = 1 << 20
)

// clientOptions maps the service config onto paho options, including the
// retained will on the status topic.
func clientOptions(cfg config.MQTTConfig, topics Topics) *pahomqtt.ClientOptions {
	opts := pahomqtt.NewClientOptions().
		AddBroker(brokerURL(cfg.Broker)).
		SetClientID(cfg.Broker.ClientID).
		SetCleanSession(true).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(time.Duration(cfg.Reconnect.InitialDelay) * time.Second).
		SetMaxReconnectInterval(time.Duration(cfg.Reconnect.MaxDelay) * time.Second).
		SetConnectTimeout(connectTimeout).
		SetKeepAlive(keepAlive)

	if cfg.Auth.Username != "" {
		opts.SetUsername(cfg.Auth.Username)
		opts.SetPassword(cfg.Auth.Password)
	}
	if cfg.Broker.TLS {
		opts.SetTLSConfig(&tls.Config{MinVersion: tls.VersionTLS12})
	}

	opts.SetBinaryWill(topics.Status(), statusPayload(cfg.Broker.ClientID, "offline", "connection lost"), 1, true)
	return opts
}

func brokerURL(b config.MQTTBrokerConfig) string {
	scheme := "tcp"
	if b.TLS {
		scheme = "ssl"
	}
	return fmt.Sprintf("%s://%s:%d", scheme, b.Host, b.Port)
}

// serviceStatus is the retained payload on <prefix>/status.
type serviceStatus struct {
	State  string    `json:"state"`
	Client string    `json:"client_id"`
	Reason string    `json:"reason,omitempty"`
	At     time.Time `json:"at"`
}

func statusPayload(clientID, state, reason string) []byte {
	// Marshal of a flat struct cannot fail.
	b, _ := json.Marshal(serviceStatus{
		State:  state,
		Client: clientID,
		Reason: reason,
		At:     time.Now().UTC().Truncate(time.Second),
	})
	return b
}
