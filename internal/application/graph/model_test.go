package graph

import (
	"fmt"
	"testing"
	"time"

	"github.com/aescanero/livegraph/pkg/domain"
)

func TestModel_AddEdge_CreatesNodesOnce(t *testing.T) {
	m := NewModel()

	added, edge := m.AddEdge("A", "B", "", "")
	if len(added) != 2 {
		t.Fatalf("expected 2 new nodes, got %d", len(added))
	}
	if edge.From != "A" || edge.To != "B" || edge.Seq != 1 {
		t.Errorf("unexpected edge: %+v", edge)
	}

	added, _ = m.AddEdge("A", "C", "GET /robots.txt", "to")
	if len(added) != 1 || added[0].ID != "C" {
		t.Fatalf("expected only C to be added, got %+v", added)
	}

	nodes, edges := m.Len()
	if nodes != 3 || edges != 2 {
		t.Errorf("Len() = (%d, %d), want (3, 2)", nodes, edges)
	}
}

func TestModel_AddEdge_NoDeduplication(t *testing.T) {
	m := NewModel()
	for i := 0; i < 5; i++ {
		m.AddEdge("10.0.0.1", "tarpit", "", "")
	}

	nodes, edges := m.Len()
	if nodes != 2 {
		t.Errorf("expected 2 nodes, got %d", nodes)
	}
	if edges != 5 {
		t.Errorf("expected 5 edges, got %d", edges)
	}
}

func TestModel_FirstSeenRoleWins(t *testing.T) {
	m := NewModel()
	m.AddEdge("crawler", "tarpit", "", "")
	m.AddEdge("tarpit", "crawler", "", "")

	crawler, _ := m.Node("crawler")
	if crawler.Role != domain.RoleSource || crawler.Color != domain.ColorSource {
		t.Errorf("crawler = %+v, want source styling", crawler)
	}
	tarpit, _ := m.Node("tarpit")
	if tarpit.Role != domain.RoleTarget || tarpit.Color != domain.ColorTarget {
		t.Errorf("tarpit = %+v, want target styling", tarpit)
	}
}

func TestModel_SelfLoop(t *testing.T) {
	m := NewModel()
	added, _ := m.AddEdge("A", "A", "", "")
	if len(added) != 1 {
		t.Fatalf("expected 1 new node, got %d", len(added))
	}
	n, _ := m.Node("A")
	if n.Role != domain.RoleSource {
		t.Errorf("expected source role, got %s", n.Role)
	}
}

func TestModel_NodeSetMatchesEndpoints(t *testing.T) {
	m := NewModel()
	pairs := [][2]string{{"a", "b"}, {"b", "c"}, {"a", "c"}, {"d", "a"}, {"c", "c"}}
	seen := map[string]bool{}
	for _, p := range pairs {
		m.AddEdge(p[0], p[1], "", "")
		seen[p[0]] = true
		seen[p[1]] = true
	}

	snap := m.Snapshot()
	if len(snap.Nodes) != len(seen) {
		t.Fatalf("expected %d nodes, got %d", len(seen), len(snap.Nodes))
	}
	for _, n := range snap.Nodes {
		if !seen[n.ID] {
			t.Errorf("unexpected node %q", n.ID)
		}
	}
	if len(snap.Edges) != len(pairs) {
		t.Errorf("expected %d edges, got %d", len(pairs), len(snap.Edges))
	}
}

func TestModel_SnapshotOrderAndIsolation(t *testing.T) {
	m := NewModel()
	for i := 0; i < 4; i++ {
		m.AddEdge(fmt.Sprintf("n%d", i), "sink", "", "")
	}

	snap := m.Snapshot()
	want := []string{"n0", "sink", "n1", "n2", "n3"}
	for i, id := range want {
		if snap.Nodes[i].ID != id {
			t.Errorf("Nodes[%d] = %q, want %q", i, snap.Nodes[i].ID, id)
		}
	}
	for i, e := range snap.Edges {
		if e.Seq != uint64(i+1) {
			t.Errorf("Edges[%d].Seq = %d, want %d", i, e.Seq, i+1)
		}
	}

	snap.Edges[0].From = "mutated"
	if m.Snapshot().Edges[0].From != "n0" {
		t.Error("snapshot shares memory with the model")
	}
}

func TestModel_Reset(t *testing.T) {
	m := NewModel()
	m.AddEdge("A", "B", "", "")
	before := m.Version()

	m.Reset()

	nodes, edges := m.Len()
	if nodes != 0 || edges != 0 {
		t.Errorf("Len() after Reset = (%d, %d), want (0, 0)", nodes, edges)
	}
	if m.Version() == before {
		t.Error("expected version to change on Reset")
	}

	_, e := m.AddEdge("A", "B", "", "")
	if e.Seq != 1 {
		t.Errorf("expected sequence to restart at 1, got %d", e.Seq)
	}
}

func TestModel_Restore(t *testing.T) {
	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	snap := &domain.Snapshot{
		Nodes: []domain.Node{
			{ID: "A", Role: domain.RoleSource},
			{ID: "B", Role: domain.RoleTarget, Color: domain.ColorTarget},
		},
		Edges: []domain.Edge{
			{Seq: 7, From: "A", To: "B", ObservedAt: ts},
			{Seq: 8, From: "A", To: "ghost", ObservedAt: ts},
		},
	}

	m := NewModel()
	m.AddEdge("old", "older", "", "")
	m.Restore(snap)

	if _, ok := m.Node("old"); ok {
		t.Error("expected previous contents to be dropped")
	}
	a, _ := m.Node("A")
	if a.Color != domain.ColorSource {
		t.Errorf("expected missing color to be derived, got %q", a.Color)
	}
	if _, ok := m.Node("ghost"); !ok {
		t.Error("expected unlisted edge endpoint to be created")
	}

	_, e := m.AddEdge("A", "B", "", "")
	if e.Seq != 9 {
		t.Errorf("expected sequence to continue at 9, got %d", e.Seq)
	}
}
