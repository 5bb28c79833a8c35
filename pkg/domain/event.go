package domain

import "time"

// TopicGraph is the bus topic carrying every live graph event.
const TopicGraph = "livegraph.events"

// EventType identifies a bus event.
type EventType string

const (
	EventTypeStatusChanged EventType = "status.changed"
	EventTypeNodeAdded     EventType = "node.added"
	EventTypeEdgeAdded     EventType = "edge.added"
	EventTypeGraphSnapshot EventType = "graph.snapshot"
	EventTypeGraphReset    EventType = "graph.reset"
)

// Event is a change notification published on the event bus.
type Event struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data,omitempty"`
}
