package domain

import "time"

// ConnectionState is the current phase of the live graph connection.
type ConnectionState string

const (
	StateIdle             ConnectionState = "idle"
	StateRequestingTicket ConnectionState = "requesting-ticket"
	StateOpeningStream    ConnectionState = "opening-stream"
	StateConnected        ConnectionState = "connected"
	StateDisconnected     ConnectionState = "disconnected"
	StateFailedTicket     ConnectionState = "failed-ticket"
	StateFailedStream     ConnectionState = "failed-stream"
)

// InFlight reports whether a connection attempt is actively running.
func (s ConnectionState) InFlight() bool {
	return s == StateRequestingTicket || s == StateOpeningStream
}

// Status is the snapshot of connection health handed to the presentation layer.
type Status struct {
	ClientID       string          `json:"client_id"`
	State          ConnectionState `json:"state"`
	Error          string          `json:"error,omitempty"`
	ErrorKind      string          `json:"error_kind,omitempty"`
	Attempts       int             `json:"attempts"`
	MaxRetries     int             `json:"max_retries"`
	RetryPending   bool            `json:"retry_pending"`
	Nodes          int             `json:"nodes"`
	Edges          int             `json:"edges"`
	ConnectedSince *time.Time      `json:"connected_since,omitempty"`
}

// CanRetry reports whether a manual reconnect should be offered.
func (s Status) CanRetry() bool {
	return !s.State.InFlight()
}
