package prometheus

import (
	"strconv"
	"time"

	"github.com/aescanero/livegraph/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// connectionStates lists every state exported by the connection_state gauge.
var connectionStates = []domain.ConnectionState{
	domain.StateIdle,
	domain.StateRequestingTicket,
	domain.StateOpeningStream,
	domain.StateConnected,
	domain.StateDisconnected,
	domain.StateFailedTicket,
	domain.StateFailedStream,
}

// Collector implements MetricsCollector using Prometheus
type Collector struct {
	stateTransitions   *prometheus.CounterVec
	connectionState    *prometheus.GaugeVec
	ticketRequests     *prometheus.CounterVec
	ticketDuration     prometheus.Histogram
	reconnects         *prometheus.CounterVec
	reconnectDelay     prometheus.Histogram
	reconnectExhausted prometheus.Counter
	eventsApplied      prometheus.Counter
	nodesAdded         prometheus.Counter
	eventsDiscarded    *prometheus.CounterVec
	graphNodes         prometheus.Gauge
	graphEdges         prometheus.Gauge
	snapshotsSaved     *prometheus.CounterVec
}

// NewCollector creates a new Prometheus metrics collector registered on reg.
// A nil reg means prometheus.DefaultRegisterer.
func NewCollector(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	c := &Collector{
		stateTransitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "livegraph_state_transitions_total",
				Help: "Total number of connection state transitions",
			},
			[]string{"from", "to"},
		),
		connectionState: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "livegraph_connection_state",
				Help: "Current connection state (1 for the active state)",
			},
			[]string{"state"},
		),
		ticketRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "livegraph_ticket_requests_total",
				Help: "Total number of stream ticket requests",
			},
			[]string{"outcome"},
		),
		ticketDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "livegraph_ticket_request_duration_seconds",
				Help:    "Stream ticket request latency in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
		),
		reconnects: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "livegraph_reconnects_scheduled_total",
				Help: "Total number of scheduled reconnects by attempt",
			},
			[]string{"attempt"},
		),
		reconnectDelay: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "livegraph_reconnect_delay_seconds",
				Help:    "Delay before scheduled reconnects in seconds",
				Buckets: []float64{0.5, 1, 2, 3, 5, 10, 30, 60},
			},
		),
		reconnectExhausted: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "livegraph_reconnects_exhausted_total",
				Help: "Total number of times the reconnect budget ran out",
			},
		),
		eventsApplied: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "livegraph_events_applied_total",
				Help: "Total number of new_edge events applied to the graph",
			},
		),
		nodesAdded: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "livegraph_nodes_added_total",
				Help: "Total number of nodes created by applied events",
			},
		),
		eventsDiscarded: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "livegraph_events_discarded_total",
				Help: "Total number of discarded stream messages",
			},
			[]string{"reason"},
		),
		graphNodes: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "livegraph_graph_nodes",
				Help: "Current number of graph nodes",
			},
		),
		graphEdges: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "livegraph_graph_edges",
				Help: "Current number of graph edges",
			},
		),
		snapshotsSaved: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "livegraph_snapshots_saved_total",
				Help: "Total number of graph snapshot saves",
			},
			[]string{"status"},
		),
	}

	c.setState(domain.StateIdle)
	return c
}

// RecordStateTransition records a connection state change
func (c *Collector) RecordStateTransition(from, to string) {
	c.stateTransitions.WithLabelValues(from, to).Inc()
	c.setState(domain.ConnectionState(to))
}

func (c *Collector) setState(current domain.ConnectionState) {
	for _, s := range connectionStates {
		v := 0.0
		if s == current {
			v = 1
		}
		c.connectionState.WithLabelValues(string(s)).Set(v)
	}
}

// RecordTicketRequest records a ticket request outcome and latency
func (c *Collector) RecordTicketRequest(outcome string, duration time.Duration) {
	c.ticketRequests.WithLabelValues(outcome).Inc()
	c.ticketDuration.Observe(duration.Seconds())
}

// RecordReconnectScheduled records a scheduled reconnect
func (c *Collector) RecordReconnectScheduled(attempt int, delay time.Duration) {
	c.reconnects.WithLabelValues(strconv.Itoa(attempt)).Inc()
	c.reconnectDelay.Observe(delay.Seconds())
}

// RecordReconnectExhausted records an exhausted reconnect budget
func (c *Collector) RecordReconnectExhausted() {
	c.reconnectExhausted.Inc()
}

// RecordEventApplied records an applied new_edge event
func (c *Collector) RecordEventApplied(nodesAdded int) {
	c.eventsApplied.Inc()
	c.nodesAdded.Add(float64(nodesAdded))
}

// RecordEventDiscarded records a discarded stream message
func (c *Collector) RecordEventDiscarded(reason string) {
	c.eventsDiscarded.WithLabelValues(reason).Inc()
}

// SetGraphSize sets the graph size gauges
func (c *Collector) SetGraphSize(nodes, edges int) {
	c.graphNodes.Set(float64(nodes))
	c.graphEdges.Set(float64(edges))
}

// RecordSnapshotSaved records a snapshot save attempt
func (c *Collector) RecordSnapshotSaved(err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	c.snapshotsSaved.WithLabelValues(status).Inc()
}
