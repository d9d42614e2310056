package mqtt

import (
	"encoding/json"
	"errors"
	"testing"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/EamonHetherton/PVBeanCounter-sub003/internal/infrastructure/config"
)

func TestConnectRejectsQoS(t *testing.T) {
	for _, qos := range []int{-1, 3} {
		_, err := Connect(config.MQTTConfig{QoS: qos})
		if !errors.Is(err, ErrBadQoS) {
			t.Errorf("Connect(qos %d) error = %v, want ErrBadQoS", qos, err)
		}
	}
}

func TestCloseWithoutConnect(t *testing.T) {
	client := &Client{}
	if err := client.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestPublishOffline(t *testing.T) {
	client := &Client{}

	tests := []struct {
		name    string
		topic   string
		payload []byte
		wantErr error
	}{
		{"empty topic", "", []byte("x"), ErrBadTopic},
		{"oversized reading", "pv/readings/rtu/inv1", make([]byte, maxPayload+1), ErrPayloadTooLarge},
		{"offline", "pv/settings/changed/device", []byte("{}"), ErrOffline},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := client.Publish(tt.topic, tt.payload); !errors.Is(err, tt.wantErr) {
				t.Errorf("Publish() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestSubscribeOffline(t *testing.T) {
	client := &Client{}
	handler := func(string, []byte) error { return nil }
	set := Topics{}.AllSettingsSet()

	tests := []struct {
		name    string
		topic   string
		handler MessageHandler
		wantErr error
	}{
		{"empty topic", "", handler, ErrBadTopic},
		{"nil handler", set, nil, ErrNoHandler},
		{"offline", set, handler, ErrOffline},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := client.Subscribe(tt.topic, tt.handler); !errors.Is(err, tt.wantErr) {
				t.Errorf("Subscribe() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

type recordingLogger struct {
	warns, errs []string
}

func (l *recordingLogger) Warn(msg string, _ ...any)  { l.warns = append(l.warns, msg) }
func (l *recordingLogger) Error(msg string, _ ...any) { l.errs = append(l.errs, msg) }

type message struct {
	pahomqtt.Message
	topic   string
	payload []byte
}

func (m message) Topic() string   { return m.topic }
func (m message) Payload() []byte { return m.payload }

func TestDeliverLogsFailures(t *testing.T) {
	log := &recordingLogger{}
	client := &Client{}
	client.SetLogger(log)
	msg := message{topic: "pv/settings/set/inv1/address", payload: []byte("x")}

	client.deliver(func(string, []byte) error { return errors.New("malformed") })(nil, msg)
	client.deliver(func(string, []byte) error { panic("boom") })(nil, msg)

	if len(log.warns) != 1 || len(log.errs) != 1 {
		t.Errorf("warns = %v, errors = %v, want one of each", log.warns, log.errs)
	}
}

func TestBrokerURL(t *testing.T) {
	tests := []struct {
		name   string
		broker config.MQTTBrokerConfig
		want   string
	}{
		{"plain", config.MQTTBrokerConfig{Host: "localhost", Port: 1883}, "tcp://localhost:1883"},
		{"tls", config.MQTTBrokerConfig{Host: "broker", Port: 8883, TLS: true}, "ssl://broker:8883"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := brokerURL(tt.broker); got != tt.want {
				t.Errorf("brokerURL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestClientOptions(t *testing.T) {
	cfg := config.MQTTConfig{
		Broker: config.MQTTBrokerConfig{Host: "localhost", Port: 1883, ClientID: "pv-test"},
		Auth:   config.MQTTAuthConfig{Username: "user", Password: "pass"},
	}

	opts := clientOptions(cfg, Topics{Prefix: "site"})

	if opts.ClientID != "pv-test" {
		t.Errorf("ClientID = %q, want pv-test", opts.ClientID)
	}
	if opts.Username != "user" || opts.Password != "pass" {
		t.Error("credentials not applied")
	}
	if len(opts.Servers) != 1 || opts.Servers[0].String() != "tcp://localhost:1883" {
		t.Errorf("Servers = %v, want tcp://localhost:1883", opts.Servers)
	}
	if !opts.WillEnabled || opts.WillTopic != "site/status" || !opts.WillRetained {
		t.Errorf("will = %v %q retained=%v, want retained site/status", opts.WillEnabled, opts.WillTopic, opts.WillRetained)
	}

	var will serviceStatus
	if err := json.Unmarshal(opts.WillPayload, &will); err != nil {
		t.Fatalf("will payload: %v", err)
	}
	if will.State != "offline" || will.Client != "pv-test" || will.Reason == "" {
		t.Errorf("will payload = %+v", will)
	}
}

func TestTopicBuilders(t *testing.T) {
	site := Topics{Prefix: "site1/"}
	def := Topics{}

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"status", site.Status(), "site1/status"},
		{"default prefix", def.Status(), "pv/status"},
		{"settings changed", site.SettingsChanged("device"), "site1/settings/changed/device"},
		{"all settings changed", def.AllSettingsChanged(), "pv/settings/changed/+"},
		{"settings set", def.SettingsSet("inv1", "enabled"), "pv/settings/set/inv1/enabled"},
		{"all settings set", def.AllSettingsSet(), "pv/settings/set/+/+"},
		{"readings", def.Readings("rtu", "inv1"), "pv/readings/rtu/inv1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestParseSettingsSet(t *testing.T) {
	topics := Topics{Prefix: "pv"}

	tests := []struct {
		topic      string
		wantDevice string
		wantAttr   string
		wantOk     bool
	}{
		{"pv/settings/set/inv1/enabled", "inv1", "enabled", true},
		{"pv/settings/set/inv1", "", "", false},
		{"pv/settings/set/inv1/a/b", "", "", false},
		{"other/settings/set/inv1/enabled", "", "", false},
		{"pv/settings/changed/device", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.topic, func(t *testing.T) {
			device, attr, ok := topics.ParseSettingsSet(tt.topic)
			if ok != tt.wantOk || device != tt.wantDevice || attr != tt.wantAttr {
				t.Errorf("ParseSettingsSet() = (%q, %q, %v), want (%q, %q, %v)",
					device, attr, ok, tt.wantDevice, tt.wantAttr, tt.wantOk)
			}
		})
	}
}
