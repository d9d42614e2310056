// Package api implements the HTTP REST API and WebSocket server for the
// settings service.
//
// This package provides:
//   - REST endpoints to inspect device managers, devices and serial ports
//   - PATCH of device attributes, validated and saved like an MQTT set
//   - Read access to the change history and stored snapshots
//   - WebSocket hub broadcasting settings changes and poll readings
//   - Optional JWT authentication with ticket-based WebSocket auth
//   - Middleware stack (request ID, logging, recovery, CORS)
//
// # Concurrency
//
// The settings tree is not safe for concurrent use. Handlers only reach it
// through SettingsStore, which the caller implements under its own lock.
//
// # Security
//
// When security.jwt.secret is empty every route is open. Otherwise all
// routes except /health require "Authorization: Bearer <token>" with an
// HS256 token signed by that secret; "pvsettings token" issues them.
// WebSocket connections use single-use tickets so tokens stay out of URLs.
package api
