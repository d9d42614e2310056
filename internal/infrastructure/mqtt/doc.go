// Package mqtt provides MQTT client connectivity for the settings service.
//
// The service publishes every settings change and every decoded register
// poll, and accepts attribute set commands:
//
//	<prefix>/status                           retained online/offline
//	<prefix>/settings/changed/<tag>           change events
//	<prefix>/settings/set/<device>/<attr>     set commands (payload is the value)
//	<prefix>/readings/<manager>/<device>      decoded register readings
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	topics := mqtt.Topics{Prefix: cfg.MQTT.TopicPrefix}
//	err = client.Publish(topics.SettingsChanged("device"), payload)
//
// Tests that need a broker are behind the integration build tag and expect
// Mosquitto at 127.0.0.1:1883.
package mqtt
