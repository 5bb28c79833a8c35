package events

import (
	"context"
	"time"

	"github.com/aescanero/livegraph/pkg/domain"
	"github.com/aescanero/livegraph/pkg/ports"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Observer publishes live graph client callbacks on an event bus.
type Observer struct {
	bus     ports.EventBus
	topic   string
	timeout time.Duration
	logger  *zap.Logger
	now     func() time.Time
}

// NewObserver creates an observer publishing on domain.TopicGraph.
func NewObserver(bus ports.EventBus, logger *zap.Logger) *Observer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Observer{
		bus:     bus,
		topic:   domain.TopicGraph,
		timeout: 5 * time.Second,
		logger:  logger,
		now:     time.Now,
	}
}

// OnStatus publishes a status.changed event.
func (o *Observer) OnStatus(status domain.Status) {
	o.publish(domain.EventTypeStatusChanged, StatusData(status))
}

// OnSnapshot publishes a graph.snapshot event.
func (o *Observer) OnSnapshot(snapshot domain.Snapshot) {
	o.publish(domain.EventTypeGraphSnapshot, SnapshotData(snapshot))
}

// OnNode publishes a node.added event.
func (o *Observer) OnNode(node domain.Node) {
	o.publish(domain.EventTypeNodeAdded, map[string]interface{}{
		"id":         node.ID,
		"role":       string(node.Role),
		"color":      node.Color,
		"first_seen": node.FirstSeen,
	})
}

// OnEdge publishes an edge.added event.
func (o *Observer) OnEdge(edge domain.Edge) {
	data := map[string]interface{}{
		"seq":         edge.Seq,
		"from":        edge.From,
		"to":          edge.To,
		"observed_at": edge.ObservedAt,
	}
	if edge.Label != "" {
		data["label"] = edge.Label
	}
	if edge.Arrows != "" {
		data["arrows"] = edge.Arrows
	}
	o.publish(domain.EventTypeEdgeAdded, data)
}

// OnReset publishes a graph.reset event.
func (o *Observer) OnReset() {
	o.publish(domain.EventTypeGraphReset, nil)
}

func (o *Observer) publish(eventType domain.EventType, data map[string]interface{}) {
	event := NewEvent(eventType, data, o.now())

	ctx, cancel := context.WithTimeout(context.Background(), o.timeout)
	defer cancel()

	if err := o.bus.Publish(ctx, o.topic, event); err != nil {
		o.logger.Warn("failed to publish graph event",
			zap.String("type", string(eventType)),
			zap.String("event_id", event.ID),
			zap.Error(err))
	}
}

// NewEvent builds a bus event with a fresh id.
func NewEvent(eventType domain.EventType, data map[string]interface{}, at time.Time) domain.Event {
	return domain.Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: at,
		Data:      data,
	}
}

// StatusData is the payload of a status.changed event.
func StatusData(status domain.Status) map[string]interface{} {
	data := map[string]interface{}{
		"client_id":     status.ClientID,
		"state":         string(status.State),
		"attempts":      status.Attempts,
		"max_retries":   status.MaxRetries,
		"retry_pending": status.RetryPending,
		"nodes":         status.Nodes,
		"edges":         status.Edges,
	}
	if status.Error != "" {
		data["error"] = status.Error
		data["error_kind"] = status.ErrorKind
	}
	return data
}

// SnapshotData is the payload of a graph.snapshot event.
func SnapshotData(snapshot domain.Snapshot) map[string]interface{} {
	return map[string]interface{}{
		"nodes":    snapshot.Nodes,
		"edges":    snapshot.Edges,
		"taken_at": snapshot.TakenAt,
	}
}

// StateOf extracts the connection state from a status.changed event.
func StateOf(event domain.Event) (domain.ConnectionState, bool) {
	if event.Type != domain.EventTypeStatusChanged {
		return "", false
	}
	state, ok := event.Data["state"].(string)
	if !ok || state == "" {
		return "", false
	}
	return domain.ConnectionState(state), true
}
