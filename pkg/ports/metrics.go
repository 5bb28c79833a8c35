package ports

import "time"

// MetricsCollector records live graph metrics.
type MetricsCollector interface {
	RecordStateTransition(from, to string)
	RecordTicketRequest(outcome string, duration time.Duration)
	RecordReconnectScheduled(attempt int, delay time.Duration)
	RecordReconnectExhausted()
	RecordEventApplied(nodesAdded int)
	RecordEventDiscarded(reason string)
	SetGraphSize(nodes, edges int)
	RecordSnapshotSaved(err error)
}
