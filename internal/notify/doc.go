// Package notify fans settings changes out of the process.
//
// Every type here implements settings.Observer and is subscribed to a
// settings.Context:
//
//   - MQTTPublisher announces each change on <prefix>/settings/changed/<tag>
//   - InfluxRecorder writes a settings_change point
//   - AuditRecorder stores an audit.Entry in SQLite
//   - LogObserver logs each change at info level
//
// Observers run synchronously inside SetValue. Delivery failures are logged
// and never reach the caller that changed the setting.
package notify
