package snapshots

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aescanero/livegraph/pkg/domain"
	"github.com/aescanero/livegraph/pkg/ports"
	"go.uber.org/zap"
)

// LatestKey is the storage key of the most recent snapshot.
const LatestKey = "latest"

// GraphSource is the part of the live graph client the monitor reads.
type GraphSource interface {
	Status() domain.Status
	Snapshot() domain.Snapshot
	GraphVersion() uint64
}

// Monitor saves graph snapshots on an interval
type Monitor struct {
	source   GraphSource
	storage  ports.SnapshotStorage
	metrics  ports.MetricsCollector
	interval time.Duration
	timeout  time.Duration
	logger   *zap.Logger

	mu        sync.Mutex
	running   bool
	stopCh    chan struct{}
	doneCh    chan struct{}
	saveMu    sync.Mutex
	lastSaved uint64
}

// NewMonitor creates a new snapshot monitor. An interval of zero or less
// disables the periodic loop; Flush still works.
func NewMonitor(source GraphSource, storage ports.SnapshotStorage, metrics ports.MetricsCollector, interval time.Duration, logger *zap.Logger) *Monitor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Monitor{
		source:    source,
		storage:   storage,
		metrics:   metrics,
		interval:  interval,
		timeout:   5 * time.Second,
		logger:    logger,
		lastSaved: source.GraphVersion(),
	}
}

// Start starts the snapshot loop
func (m *Monitor) Start() {
	if m.interval <= 0 {
		m.logger.Info("snapshot monitor disabled")
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return
	}
	m.running = true
	m.stopCh = make(chan struct{})
	m.doneCh = make(chan struct{})

	go m.run(m.stopCh, m.doneCh)
	m.logger.Info("snapshot monitor started", zap.Duration("interval", m.interval))
}

// Stop stops the snapshot loop and waits for it to exit
func (m *Monitor) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	stopCh, doneCh := m.stopCh, m.doneCh
	m.mu.Unlock()

	close(stopCh)
	<-doneCh
}

// run is the main snapshot loop
func (m *Monitor) run(stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			m.tick()
		}
	}
}

// tick logs the graph state and saves the graph if it changed
func (m *Monitor) tick() {
	status := m.source.Status()

	m.logger.Info("live graph check",
		zap.String("state", string(status.State)),
		zap.Int("nodes", status.Nodes),
		zap.Int("edges", status.Edges),
		zap.Int("attempts", status.Attempts))

	if m.metrics != nil {
		m.metrics.SetGraphSize(status.Nodes, status.Edges)
	}

	if status.Error != "" && !status.State.InFlight() && status.State != domain.StateConnected {
		m.logger.Warn("live graph is not connected",
			zap.String("state", string(status.State)),
			zap.String("error_kind", status.ErrorKind),
			zap.String("error", status.Error))
	}

	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()

	if _, err := m.save(ctx); err != nil {
		m.logger.Error("failed to save graph snapshot", zap.Error(err))
	}
}

// Flush saves the graph now if it changed since the last save
func (m *Monitor) Flush(ctx context.Context) error {
	saved, err := m.save(ctx)
	if err != nil {
		return err
	}
	if saved {
		m.logger.Info("graph snapshot flushed")
	}
	return nil
}

// save writes the current graph under LatestKey. An empty graph is skipped.
// It reports whether a snapshot was written.
func (m *Monitor) save(ctx context.Context) (bool, error) {
	m.saveMu.Lock()
	defer m.saveMu.Unlock()

	version := m.source.GraphVersion()
	if version == m.lastSaved {
		return false, nil
	}

	snap := m.source.Snapshot()
	// A cleared graph never replaces the last saved one.
	if len(snap.Nodes) == 0 && len(snap.Edges) == 0 {
		m.lastSaved = version
		m.logger.Debug("empty graph not saved")
		return false, nil
	}

	err := m.storage.Save(ctx, LatestKey, &snap)
	if m.metrics != nil {
		m.metrics.RecordSnapshotSaved(err)
	}
	if err != nil {
		return false, fmt.Errorf("failed to save snapshot: %w", err)
	}

	m.lastSaved = version
	m.logger.Debug("graph snapshot saved",
		zap.Int("nodes", len(snap.Nodes)),
		zap.Int("edges", len(snap.Edges)))
	return true, nil
}
