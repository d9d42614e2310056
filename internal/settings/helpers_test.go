package settings

import (
	"strings"
	"testing"

	"github.com/EamonHetherton/PVBeanCounter-sub003/internal/document"
)

const sampleSettings = `<?xml version="1.0" encoding="UTF-8"?>
<settings>
  <serialport name="com1" portname="/dev/ttyUSB0" baudrate="9600" databits="8" parity="N" stopbits="1" timeout="500"/>
  <database type="sqlite" file="/var/lib/pv/readings.db"/>
  <devicemanager name="rtu" protocol="modbus-rtu" serialport="com1">
    <device name="Inv1" kind="inverter" address="3" serialno="SN001" enabled="true"/>
    <device name="Meter1" kind="meter" address="4"/>
    <registertemplate name="ac_power" id1="AC_P" id3="30775" type="int32" scale="1"/>
    <registertemplate name="energy" id1="E_TOT" id3="30529" type="uint32" scale="0.001"/>
    <registertemplate name="status" id1="STAT" id3="30201"/>
    <blockmessage name="live" address="30775" quantity="4">
      <register name="ac_power" id1="AC_P" position="0" type="int32"/>
      <register name="temp" id1="TEMP" position="2" type="int16" scale="0.1"/>
    </blockmessage>
  </devicemanager>
  <devicemanager name="lan" protocol="modbus-tcp" host="192.168.1.50" port="502">
    <device name="Inv2" kind="inverter" address="1" enabled="true"/>
  </devicemanager>
  <conversation name="init">
    <message type="send" name="hello" data="01">
      <action type="log" exitonsuccess="true">
        <parameter name="level" value="info"/>
      </action>
      <action type="retry" continueonfailure="true"/>
    </message>
  </conversation>
</settings>
`

// loadSettings parses xml and builds a tree on a fresh context.
func loadSettings(t *testing.T, xml string) *ApplicationSettings {
	t.Helper()

	doc, err := document.Parse(strings.NewReader(xml))
	if err != nil {
		t.Fatalf("document.Parse() error = %v", err)
	}
	app, err := Load(NewContext(), doc)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return app
}

// recorder collects change events.
type recorder struct {
	events []ChangeEvent
}

func (r *recorder) PropertyChanged(ev ChangeEvent) {
	r.events = append(r.events, ev)
}

func ptr[T any](v T) *T {
	return &v
}
