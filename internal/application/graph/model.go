package graph

import (
	"sync"
	"time"

	"github.com/aescanero/livegraph/pkg/domain"
)

// Model is a directed multigraph of observed interactions.
type Model struct {
	mu      sync.RWMutex
	nodes   map[string]domain.Node
	order   []string
	edges   []domain.Edge
	seq     uint64
	version uint64 // moves on every mutation, including Reset and Restore
	now     func() time.Time
}

// NewModel creates an empty model.
func NewModel() *Model {
	return &Model{
		nodes: make(map[string]domain.Node),
		now:   time.Now,
	}
}

// AddEdge records one interaction from -> to. It returns the nodes created
// by this call (zero, one or two) and the appended edge.
func (m *Model) AddEdge(from, to, label, arrows string) ([]domain.Node, domain.Edge) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ts := m.now()

	var added []domain.Node
	if n, ok := m.ensureNodeLocked(from, domain.RoleSource, ts); ok {
		added = append(added, n)
	}
	if n, ok := m.ensureNodeLocked(to, domain.RoleTarget, ts); ok {
		added = append(added, n)
	}

	m.seq++
	edge := domain.Edge{
		Seq:        m.seq,
		From:       from,
		To:         to,
		Label:      label,
		Arrows:     arrows,
		ObservedAt: ts,
	}
	m.edges = append(m.edges, edge)
	m.version++

	return added, edge
}

// ensureNodeLocked creates id with role if it is absent.
// Must be called with m.mu held.
func (m *Model) ensureNodeLocked(id string, role domain.NodeRole, ts time.Time) (domain.Node, bool) {
	if _, exists := m.nodes[id]; exists {
		return domain.Node{}, false
	}
	n := domain.Node{
		ID:        id,
		Role:      role,
		Color:     role.Color(),
		FirstSeen: ts,
	}
	m.nodes[id] = n
	m.order = append(m.order, id)
	return n, true
}

// Node returns the node with the given id.
func (m *Model) Node(id string) (domain.Node, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n, ok := m.nodes[id]
	return n, ok
}

// Len returns the number of nodes and edges.
func (m *Model) Len() (nodes, edges int) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.nodes), len(m.edges)
}

// Version changes whenever an edge is added or the model is reset/restored.
func (m *Model) Version() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.version
}

// Snapshot returns a copy of the model.
func (m *Model) Snapshot() domain.Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap := domain.Snapshot{
		Nodes:   make([]domain.Node, 0, len(m.order)),
		Edges:   make([]domain.Edge, len(m.edges)),
		TakenAt: m.now(),
	}
	for _, id := range m.order {
		snap.Nodes = append(snap.Nodes, m.nodes[id])
	}
	copy(snap.Edges, m.edges)

	return snap
}

// Restore replaces the model contents with snap. Edge sequence numbers
// continue after the highest restored one.
func (m *Model) Restore(snap *domain.Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.resetLocked()
	if snap == nil {
		return
	}

	for _, n := range snap.Nodes {
		if _, exists := m.nodes[n.ID]; exists {
			continue
		}
		if n.Color == "" {
			n.Color = n.Role.Color()
		}
		m.nodes[n.ID] = n
		m.order = append(m.order, n.ID)
	}
	for _, e := range snap.Edges {
		// Hand-edited snapshots may reference nodes they do not list.
		m.ensureNodeLocked(e.From, domain.RoleSource, e.ObservedAt)
		m.ensureNodeLocked(e.To, domain.RoleTarget, e.ObservedAt)
		if e.Seq > m.seq {
			m.seq = e.Seq
		}
		m.edges = append(m.edges, e)
	}
}

// Reset clears all nodes and edges.
func (m *Model) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.resetLocked()
}

func (m *Model) resetLocked() {
	m.nodes = make(map[string]domain.Node)
	m.order = nil
	m.edges = nil
	m.seq = 0
	m.version++
}
