package prometheus

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// value returns the value of the series of metric name whose labels include
// every pair in labels.
func value(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}

	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
	metrics:
		for _, m := range mf.GetMetric() {
			got := make(map[string]string)
			for _, lp := range m.GetLabel() {
				got[lp.GetName()] = lp.GetValue()
			}
			for k, v := range labels {
				if got[k] != v {
					continue metrics
				}
			}
			switch {
			case m.GetCounter() != nil:
				return m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				return m.GetGauge().GetValue()
			case m.GetHistogram() != nil:
				return float64(m.GetHistogram().GetSampleCount())
			}
		}
	}
	t.Fatalf("metric %s%v not found", name, labels)
	return 0
}

func TestCollector_StateTransitions(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	if v := value(t, reg, "livegraph_connection_state", map[string]string{"state": "idle"}); v != 1 {
		t.Errorf("initial idle gauge = %v, want 1", v)
	}

	c.RecordStateTransition("idle", "requesting-ticket")
	c.RecordStateTransition("requesting-ticket", "opening-stream")
	c.RecordStateTransition("opening-stream", "connected")

	if v := value(t, reg, "livegraph_state_transitions_total", map[string]string{"from": "opening-stream", "to": "connected"}); v != 1 {
		t.Errorf("transition count = %v, want 1", v)
	}
	if v := value(t, reg, "livegraph_connection_state", map[string]string{"state": "connected"}); v != 1 {
		t.Errorf("connected gauge = %v, want 1", v)
	}
	if v := value(t, reg, "livegraph_connection_state", map[string]string{"state": "idle"}); v != 0 {
		t.Errorf("idle gauge = %v, want 0", v)
	}
}

func TestCollector_ClientMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordTicketRequest("ok", 120*time.Millisecond)
	c.RecordTicketRequest("error", time.Second)
	c.RecordReconnectScheduled(1, time.Second)
	c.RecordReconnectScheduled(2, 2*time.Second)
	c.RecordReconnectExhausted()
	c.RecordEventApplied(2)
	c.RecordEventApplied(1)
	c.RecordEventDiscarded("missing_fields")
	c.SetGraphSize(3, 2)
	c.RecordSnapshotSaved(nil)
	c.RecordSnapshotSaved(errors.New("redis down"))

	checks := []struct {
		name   string
		labels map[string]string
		want   float64
	}{
		{"livegraph_ticket_requests_total", map[string]string{"outcome": "ok"}, 1},
		{"livegraph_ticket_requests_total", map[string]string{"outcome": "error"}, 1},
		{"livegraph_ticket_request_duration_seconds", nil, 2},
		{"livegraph_reconnects_scheduled_total", map[string]string{"attempt": "2"}, 1},
		{"livegraph_reconnect_delay_seconds", nil, 2},
		{"livegraph_reconnects_exhausted_total", nil, 1},
		{"livegraph_events_applied_total", nil, 2},
		{"livegraph_nodes_added_total", nil, 3},
		{"livegraph_events_discarded_total", map[string]string{"reason": "missing_fields"}, 1},
		{"livegraph_graph_nodes", nil, 3},
		{"livegraph_graph_edges", nil, 2},
		{"livegraph_snapshots_saved_total", map[string]string{"status": "ok"}, 1},
		{"livegraph_snapshots_saved_total", map[string]string{"status": "error"}, 1},
	}

	for _, tt := range checks {
		if got := value(t, reg, tt.name, tt.labels); got != tt.want {
			t.Errorf("%s%v = %v, want %v", tt.name, tt.labels, got, tt.want)
		}
	}
}

func TestNewCollector_SeparateRegistries(t *testing.T) {
	// Two collectors on distinct registries must not collide.
	NewCollector(prometheus.NewRegistry())
	NewCollector(prometheus.NewRegistry())
}
