package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/aescanero/livegraph/pkg/domain"
	"github.com/aescanero/livegraph/pkg/ports"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	// maxMessageSize bounds a single inbound envelope.
	maxMessageSize = 1 << 20
	// closeWait bounds sending the close frame.
	closeWait = time.Second
)

// Dialer opens live graph streams over WebSocket.
type Dialer struct {
	dialer *websocket.Dialer
	logger *zap.Logger
}

// NewDialer creates a dialer. handshakeTimeout bounds the opening handshake;
// zero leaves it to the context.
func NewDialer(handshakeTimeout time.Duration, logger *zap.Logger) *Dialer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dialer{
		dialer: &websocket.Dialer{
			Proxy:            websocket.DefaultDialer.Proxy,
			HandshakeTimeout: handshakeTimeout,
		},
		logger: logger,
	}
}

// Dial opens a stream to url.
func (d *Dialer) Dial(ctx context.Context, url string) (ports.Stream, error) {
	ws, resp, err := d.dialer.DialContext(ctx, url, nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("failed to open stream (status %d): %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("failed to open stream: %w", err)
	}
	ws.SetReadLimit(maxMessageSize)

	d.logger.Debug("stream opened", zap.String("remote_addr", ws.RemoteAddr().String()))
	return &Conn{ws: ws}, nil
}

// Conn is an open receive-only stream.
type Conn struct {
	ws        *websocket.Conn
	writeMu   sync.Mutex
	closeOnce sync.Once
	closeErr  error
}

// ReadMessage returns the next data message. A closed stream yields a
// *domain.CloseError.
func (c *Conn) ReadMessage() ([]byte, error) {
	_, data, err := c.ws.ReadMessage()
	if err != nil {
		return nil, translate(err)
	}
	return data, nil
}

// Close sends a normal closure frame and closes the connection.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		c.writeMu.Lock()
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeWait))
		c.writeMu.Unlock()

		c.closeErr = c.ws.Close()
	})
	return c.closeErr
}

// translate turns transport close conditions into *domain.CloseError.
func translate(err error) error {
	var closeErr *websocket.CloseError
	if errors.As(err, &closeErr) {
		return &domain.CloseError{Code: closeErr.Code, Text: closeErr.Text}
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return &domain.CloseError{Code: websocket.CloseAbnormalClosure, Text: err.Error()}
	}
	return err
}
