// Package api implements the HTTP REST API and WebSocket server for SMARWI Hub.
//
// This package provides:
//   - REST endpoints for the device registry, cover commands, and calibration
//   - WebSocket hub for real-time discovery and property-change broadcasts
//   - JWT authentication with ticket-based WebSocket auth
//   - Middleware stack (request ID, logging, recovery, CORS, body limit)
//   - TLS support for production deployments
//
// # Architecture
//
// The API server sits between user interfaces and the SMARWI device layer.
// Commands flow from the API through the smarwi manager to the MQTT broker;
// status frames flow back through the manager, whose callbacks are broadcast
// to WebSocket clients by the hub.
//
// # Security
//
// Authentication uses short-lived JWT access tokens issued against users
// declared in the hub configuration. WebSocket connections use single-use
// tickets to prevent token leakage in URLs. Admin-only endpoints (ridge
// enforcement, calibration writes, registry deletes) check the token role.
package api
