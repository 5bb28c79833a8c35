package domain

import "time"

// NodeRole is the role a node had when it was first observed.
type NodeRole string

const (
	RoleSource NodeRole = "source"
	RoleTarget NodeRole = "target"
)

// Display colors per role.
const (
	ColorSource = "#f97316"
	ColorTarget = "#38bdf8"
)

// Color returns the display color for the role.
func (r NodeRole) Color() string {
	if r == RoleSource {
		return ColorSource
	}
	return ColorTarget
}

// Node is an observed actor or resource, e.g. an IP or hostname.
type Node struct {
	ID        string    `json:"id"`
	Role      NodeRole  `json:"role"`
	Color     string    `json:"color"`
	FirstSeen time.Time `json:"first_seen"`
}

// Edge is a single observed interaction between two nodes.
type Edge struct {
	Seq        uint64    `json:"seq"`
	From       string    `json:"from"`
	To         string    `json:"to"`
	Label      string    `json:"label,omitempty"`
	Arrows     string    `json:"arrows,omitempty"`
	ObservedAt time.Time `json:"observed_at"`
}

// Snapshot is a point-in-time copy of the graph. Nodes are in first-seen
// order and edges in arrival order.
type Snapshot struct {
	Nodes   []Node    `json:"nodes"`
	Edges   []Edge    `json:"edges"`
	TakenAt time.Time `json:"taken_at"`
}
