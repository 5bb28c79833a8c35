// Package websocket provides real-time graph streaming via WebSocket.
//
// Viewers connect to /api/v1/graph/ws. They receive the current graph as a
// graph.snapshot message followed by every status, node, edge and reset
// event published on the bus.
package websocket
