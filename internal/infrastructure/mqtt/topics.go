package mqtt

import (
	"fmt"
	"strings"
)

// DefaultTopicPrefix is used when no prefix is configured.
const DefaultTopicPrefix = "pv"

// Topics builds the service's MQTT topics under a site prefix.
//
//	topics := mqtt.Topics{Prefix: "site1"}
//	topics.SettingsChanged("device") // "site1/settings/changed/device"
type Topics struct {
	Prefix string
}

func (t Topics) prefix() string {
	if t.Prefix == "" {
		return DefaultTopicPrefix
	}
	return strings.TrimSuffix(t.Prefix, "/")
}

// Status returns the retained service status topic.
//
// Example: pv/status
func (t Topics) Status() string {
	return t.prefix() + "/status"
}

// SettingsChanged returns the topic a settings change with the given tag is
// announced on.
//
// Example: pv/settings/changed/device
func (t Topics) SettingsChanged(tag string) string {
	return fmt.Sprintf("%s/settings/changed/%s", t.prefix(), tag)
}

// AllSettingsChanged matches every settings change topic.
func (t Topics) AllSettingsChanged() string {
	return t.prefix() + "/settings/changed/+"
}

// SettingsSet returns the command topic that sets one device attribute.
//
// Example: pv/settings/set/inv1/enabled
func (t Topics) SettingsSet(device, attribute string) string {
	return fmt.Sprintf("%s/settings/set/%s/%s", t.prefix(), device, attribute)
}

// AllSettingsSet matches every settings set command.
func (t Topics) AllSettingsSet() string {
	return t.prefix() + "/settings/set/+/+"
}

// ParseSettingsSet extracts the device and attribute from a topic built by
// SettingsSet. ok is false for any other topic.
func (t Topics) ParseSettingsSet(topic string) (device, attribute string, ok bool) {
	rest, found := strings.CutPrefix(topic, t.prefix()+"/settings/set/")
	if !found {
		return "", "", false
	}
	device, attribute, found = strings.Cut(rest, "/")
	if !found || device == "" || attribute == "" || strings.Contains(attribute, "/") {
		return "", "", false
	}
	return device, attribute, true
}

// Readings returns the topic decoded register readings for one device are
// published on.
//
// Example: pv/readings/rtu/inv1
func (t Topics) Readings(manager, device string) string {
	return fmt.Sprintf("%s/readings/%s/%s", t.prefix(), manager, device)
}
