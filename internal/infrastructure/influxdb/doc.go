// Package influxdb provides InfluxDB connectivity for the settings service.
//
// It wraps influxdb-client-go v2 and writes two measurements:
//   - settings_change: one point per attribute write, for an audit trail
//   - register_reading: decoded Modbus register values from polling
//
// # Usage
//
//	client, err := influxdb.Connect(ctx, cfg.InfluxDB)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	client.WriteRegisterReading("rtu", "inv1", "ac_power", 2310, time.Now())
//
// Writes are non-blocking and batched by batch_size and flush_interval.
// Asynchronous write failures are reported through SetOnError.
package influxdb
