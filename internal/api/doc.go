// Package api implements the HTTP REST API and WebSocket server for the
// capture bridge.
//
// This package provides:
//   - REST endpoints to send capture commands to a configured stream
//   - Read access to the SQLite command log
//   - A WebSocket hub that observes every dispatched packet and streams it
//     to subscribed clients
//   - JWT bearer authentication with ticket-based WebSocket auth
//   - Middleware stack (request ID, logging, recovery, CORS, body limit)
//   - TLS support for production deployments
//
// # Architecture
//
// HTTP commands take the same path as MQTT requests: they are turned into a
// bridge.CommandMessage and executed synchronously, and the response body is
// the same ack an MQTT caller would receive. The hub is attached to every
// stream's observer list, so WebSocket clients see packets regardless of
// whether they were requested over HTTP or MQTT.
//
// # Security
//
// Every route except /health needs a bearer token signed with the configured
// secret. Viewers may read; operators may send commands; device reset and
// ISP 3A need the admin role. WebSocket connections use single-use tickets
// to keep tokens out of URLs.
package api
