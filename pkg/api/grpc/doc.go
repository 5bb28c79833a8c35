// Package grpc provides the gRPC API.
//
// It serves the standard grpc.health.v1 service:
//   - "" is SERVING from start until shutdown
//   - "livegraph" is SERVING only while the stream is connected
package grpc
