package ports

import "context"

// Stream is an open, receive-only live graph stream.
type Stream interface {
	// ReadMessage blocks for the next message. Once the peer closes the
	// stream it returns a *domain.CloseError.
	ReadMessage() ([]byte, error)
	// Close performs a normal closure. Safe to call more than once.
	Close() error
}

// Dialer opens streams.
type Dialer interface {
	Dial(ctx context.Context, url string) (Stream, error)
}
