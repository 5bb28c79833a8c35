package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingBaseURL means no API base URL is configured.
	ErrMissingBaseURL = errors.New("api base url is not configured")
	// ErrInvalidBaseURL means the API base URL cannot be turned into a stream URL.
	ErrInvalidBaseURL = errors.New("invalid api base url")
	// ErrNotAuthenticated means the identity provider has no session.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrNoTicket means the ticket endpoint succeeded without a ticket.
	ErrNoTicket = errors.New("no ticket received")
	// ErrStream is a transport-level stream failure.
	ErrStream = errors.New("stream error")
	// ErrReconnectExhausted means the retry budget ran out.
	ErrReconnectExhausted = errors.New("failed to reconnect after multiple attempts")
	// ErrAttemptInFlight is returned when a connect is refused because one is running.
	ErrAttemptInFlight = errors.New("connection attempt already in flight")
	// ErrSnapshotNotFound is returned by storage when no snapshot exists for a key.
	ErrSnapshotNotFound = errors.New("snapshot not found")
)

// Error kinds reported in Status.ErrorKind.
const (
	KindConfiguration       = "configuration"
	KindNotAuthenticated    = "not-authenticated"
	KindTicketRequestFailed = "ticket-request-failed"
	KindNoTicketIssued      = "no-ticket-issued"
	KindStreamError         = "stream-error"
	KindReconnectExhausted  = "reconnect-exhausted"
)

// TicketRequestError is a non-2xx reply from the ticket endpoint.
type TicketRequestError struct {
	StatusCode int
	Message    string
}

func (e *TicketRequestError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("ticket request failed with status %d", e.StatusCode)
}

// Close codes that never count as a clean shutdown.
const (
	closeAbnormal     = 1006
	closeTLSHandshake = 1015
)

// CloseError is returned by a stream once it has been closed by the peer.
type CloseError struct {
	Code int
	Text string
}

func (e *CloseError) Error() string {
	if e.Text != "" {
		return fmt.Sprintf("stream closed (%d): %s", e.Code, e.Text)
	}
	return fmt.Sprintf("stream closed (%d)", e.Code)
}

// Clean reports whether a close handshake took place.
func (e *CloseError) Clean() bool {
	return e.Code != closeAbnormal && e.Code != closeTLSHandshake
}

// Kind classifies err into one of the error kinds, or "" for nil.
func Kind(err error) string {
	var ticketErr *TicketRequestError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMissingBaseURL), errors.Is(err, ErrInvalidBaseURL):
		return KindConfiguration
	case errors.Is(err, ErrNotAuthenticated):
		return KindNotAuthenticated
	case errors.Is(err, ErrNoTicket):
		return KindNoTicketIssued
	case errors.Is(err, ErrReconnectExhausted):
		return KindReconnectExhausted
	case errors.As(err, &ticketErr):
		return KindTicketRequestFailed
	case errors.Is(err, ErrStream):
		return KindStreamError
	default:
		return KindTicketRequestFailed
	}
}
