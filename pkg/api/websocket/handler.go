package websocket

import (
	"context"
	"net/http"
	"time"

	"github.com/aescanero/livegraph/pkg/adapters/events"
	"github.com/aescanero/livegraph/pkg/domain"
	"github.com/aescanero/livegraph/pkg/ports"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait     = 10 * time.Second
	defaultBuffer = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // dashboards are served from another origin
	},
}

// Snapshotter returns the current graph.
type Snapshotter interface {
	Snapshot() domain.Snapshot
}

// Handler streams live graph events to viewers
type Handler struct {
	eventBus ports.EventBus
	graph    Snapshotter
	buffer   int
	logger   *zap.Logger
}

// NewHandler creates a new WebSocket handler. buffer is the number of events
// queued per viewer before events are dropped.
func NewHandler(eventBus ports.EventBus, graph Snapshotter, buffer int, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	return &Handler{
		eventBus: eventBus,
		graph:    graph,
		buffer:   buffer,
		logger:   logger,
	}
}

// HandleGraphStream upgrades the request and streams the graph to the viewer.
// The first message is a graph.snapshot; every bus event follows. Edges carry
// their sequence number, so a viewer can drop edges already in the snapshot.
func (h *Handler) HandleGraphStream(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("failed to upgrade connection", zap.Error(err))
		return
	}
	defer func() { _ = conn.Close() }()

	viewerID := uuid.New().String()
	logger := h.logger.With(zap.String("viewer_id", viewerID))
	logger.Info("WebSocket connection established", zap.String("client", c.ClientIP()))

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	// Viewers send nothing; reading detects the close.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	eventChan := make(chan domain.Event, h.buffer)
	if err := h.eventBus.Subscribe(ctx, domain.TopicGraph, h.enqueue(eventChan, logger)); err != nil {
		logger.Error("failed to subscribe to events", zap.Error(err))
		return
	}

	snapshot := events.NewEvent(domain.EventTypeGraphSnapshot, events.SnapshotData(h.graph.Snapshot()), time.Now())
	if err := h.write(conn, snapshot); err != nil {
		logger.Warn("failed to write snapshot", zap.Error(err))
		return
	}

	for {
		select {
		case <-ctx.Done():
			logger.Info("WebSocket connection closed")
			return
		case event := <-eventChan:
			if err := h.write(conn, event); err != nil {
				logger.Warn("failed to write message", zap.Error(err))
				return
			}
		}
	}
}

// enqueue returns a bus handler that never blocks the publisher.
func (h *Handler) enqueue(ch chan<- domain.Event, logger *zap.Logger) ports.EventHandler {
	return func(ctx context.Context, event domain.Event) error {
		select {
		case ch <- event:
		default:
			logger.Warn("event channel full, dropping event",
				zap.String("event_id", event.ID),
				zap.String("event_type", string(event.Type)))
		}
		return nil
	}
}

func (h *Handler) write(conn *websocket.Conn, event domain.Event) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return conn.WriteJSON(event)
}
