// Package http provides the HTTP REST API implementation.
//
// The HTTP server exposes endpoints for:
//   - Connection status and the manual connect/disconnect controls
//   - The live graph and the last saved snapshot
//   - Health checks
//   - Prometheus metrics
package http
