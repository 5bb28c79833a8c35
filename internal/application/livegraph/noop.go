package livegraph

import (
	"time"

	"github.com/aescanero/livegraph/pkg/domain"
)

type noopObserver struct{}

func (noopObserver) OnStatus(domain.Status)     {}
func (noopObserver) OnSnapshot(domain.Snapshot) {}
func (noopObserver) OnNode(domain.Node)         {}
func (noopObserver) OnEdge(domain.Edge)         {}
func (noopObserver) OnReset()                   {}

type noopMetrics struct{}

func (noopMetrics) RecordStateTransition(string, string)        {}
func (noopMetrics) RecordTicketRequest(string, time.Duration)   {}
func (noopMetrics) RecordReconnectScheduled(int, time.Duration) {}
func (noopMetrics) RecordReconnectExhausted()                   {}
func (noopMetrics) RecordEventApplied(int)                      {}
func (noopMetrics) RecordEventDiscarded(string)                 {}
func (noopMetrics) SetGraphSize(int, int)                       {}
func (noopMetrics) RecordSnapshotSaved(error)                   {}
