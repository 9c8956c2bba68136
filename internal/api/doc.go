// Package api implements the HTTP REST API and WebSocket server of the
// link core.
//
// This package provides:
//   - REST endpoints for item-channel and item-thing links, items, things,
//     module types and rules
//   - A WebSocket hub that fans domain events out to subscribed clients
//   - Middleware stack (request ID, logging, recovery, CORS, body limit)
//   - Health, status and Prometheus endpoints
//
// # Editing
//
// Only elements stored by a registry's managed provider can be changed.
// Links and items contributed by other providers are returned with
// "editable": false and reject PUT and DELETE with 405.
//
// # WebSocket
//
// Clients connect to /api/v1/ws and subscribe to event types, topic
// prefixes or "*". The Hub implements event.Publisher, so it is attached to
// the same fan-out as the MQTT and history publishers.
package api
