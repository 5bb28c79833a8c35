package livegraph

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/aescanero/livegraph/internal/application/graph"
	"github.com/aescanero/livegraph/pkg/domain"
	"github.com/aescanero/livegraph/pkg/ports"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultMaxRetries is the retry budget used when Config leaves it unset.
const DefaultMaxRetries = 3

// Config holds live graph client configuration
type Config struct {
	BaseURL    string
	StreamPath string
	// MaxRetries bounds consecutive reconnects after abnormal closures.
	// Negative means DefaultMaxRetries.
	MaxRetries int
	Backoff    Backoff

	Tokens    ports.TokenSource
	Tickets   ports.TicketIssuer
	Dialer    ports.Dialer
	Observer  ports.GraphObserver
	Metrics   ports.MetricsCollector
	Scheduler Scheduler
	Model     *graph.Model
	Logger    *zap.Logger
}

// notification is an observer call queued while c.mu is held.
type notification func(o ports.GraphObserver)

// Client maintains a live view of the streamed interaction graph.
type Client struct {
	id         string
	baseURL    string
	streamPath string
	maxRetries int
	backoff    Backoff

	tokens    ports.TokenSource
	tickets   ports.TicketIssuer
	dialer    ports.Dialer
	observer  ports.GraphObserver
	metrics   ports.MetricsCollector
	scheduler Scheduler
	validator *Validator
	model     *graph.Model
	logger    *zap.Logger

	mu             sync.Mutex
	state          domain.ConnectionState
	lastErr        error
	attempts       int
	gen            uint64
	stream         ports.Stream
	pending        Timer
	cancelAttempt  context.CancelFunc
	viewReady      bool
	connectedSince *time.Time

	// Observer batches are numbered under mu and delivered in that order.
	// Waiting for a turn never holds mu. Observers must not call back into
	// the Client.
	notifySeq  uint64
	notifyMu   sync.Mutex
	notifyCond *sync.Cond
	notifyTurn uint64
}

// NewClient creates a new live graph client
func NewClient(cfg *Config) (*Client, error) {
	if cfg.Tokens == nil {
		return nil, fmt.Errorf("token source is required")
	}
	if cfg.Tickets == nil {
		return nil, fmt.Errorf("ticket issuer is required")
	}
	if cfg.Dialer == nil {
		return nil, fmt.Errorf("stream dialer is required")
	}

	c := &Client{
		id:         uuid.New().String(),
		baseURL:    cfg.BaseURL,
		streamPath: cfg.StreamPath,
		maxRetries: cfg.MaxRetries,
		backoff:    cfg.Backoff,
		tokens:     cfg.Tokens,
		tickets:    cfg.Tickets,
		dialer:     cfg.Dialer,
		observer:   cfg.Observer,
		metrics:    cfg.Metrics,
		scheduler:  cfg.Scheduler,
		validator:  NewValidator(),
		model:      cfg.Model,
		logger:     cfg.Logger,
		state:      domain.StateIdle,
	}

	if c.maxRetries < 0 {
		c.maxRetries = DefaultMaxRetries
	}
	if c.backoff == nil {
		c.backoff = LinearBackoff{Base: time.Second, Max: 30 * time.Second}
	}
	if c.observer == nil {
		c.observer = noopObserver{}
	}
	if c.metrics == nil {
		c.metrics = noopMetrics{}
	}
	if c.scheduler == nil {
		c.scheduler = timeScheduler{}
	}
	if c.model == nil {
		c.model = graph.NewModel()
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	c.logger = c.logger.With(zap.String("client_id", c.id))
	c.notifyCond = sync.NewCond(&c.notifyMu)

	return c, nil
}

// ID returns the client instance id.
func (c *Client) ID() string {
	return c.id
}

// Connect runs one connection attempt. It is a no-op while connected or
// while another attempt is in flight. Failures are recorded in the status
// and also returned.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.state == domain.StateConnected && c.stream != nil {
		c.mu.Unlock()
		return nil
	}
	if c.state.InFlight() {
		c.mu.Unlock()
		c.logger.Debug("connect ignored, attempt already in flight")
		return nil
	}

	c.stopPendingLocked()
	if c.cancelAttempt != nil {
		c.cancelAttempt()
	}
	c.gen++
	gen := c.gen
	attemptCtx, cancel := context.WithCancel(ctx)
	c.cancelAttempt = cancel
	c.lastErr = nil
	c.unlockAndNotify(c.setStateLocked(domain.StateRequestingTicket))
	defer cancel()

	// Configuration errors surface before any ticket is spent.
	endpoint, err := StreamEndpoint(c.baseURL, c.streamPath)
	if err != nil {
		return c.fail(gen, domain.StateFailedTicket, err)
	}

	// The token is fetched per attempt so a refreshed credential is always used.
	token, err := c.tokens.Token(attemptCtx)
	if err != nil {
		return c.fail(gen, domain.StateFailedTicket, fmt.Errorf("%w: %v", domain.ErrNotAuthenticated, err))
	}
	if token == "" {
		return c.fail(gen, domain.StateFailedTicket, domain.ErrNotAuthenticated)
	}

	start := time.Now()
	ticket, err := c.tickets.Issue(attemptCtx, token)
	if err != nil {
		c.metrics.RecordTicketRequest("error", time.Since(start))
		return c.fail(gen, domain.StateFailedTicket, err)
	}
	if ticket == "" {
		c.metrics.RecordTicketRequest("empty", time.Since(start))
		return c.fail(gen, domain.StateFailedTicket, domain.ErrNoTicket)
	}
	c.metrics.RecordTicketRequest("ok", time.Since(start))
	streamURL := withTicket(endpoint, ticket)

	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return nil
	}
	old := c.stream
	c.stream = nil
	c.unlockAndNotify(c.setStateLocked(domain.StateOpeningStream))
	if old != nil {
		_ = old.Close()
	}

	stream, err := c.dialer.Dial(attemptCtx, streamURL)
	if err != nil {
		// Same outcome as a socket that never opens: an error, then an abnormal close.
		c.onError(gen, err)
		c.onClose(gen, false)
		return fmt.Errorf("%w: %v", domain.ErrStream, err)
	}

	if !c.onOpen(gen, stream) {
		_ = stream.Close()
		return nil
	}

	go c.readLoop(gen, stream)
	return nil
}

// Disconnect closes the stream, cancels any pending reconnect and clears the
// graph. It is safe to call from any state.
func (c *Client) Disconnect() {
	c.mu.Lock()
	c.gen++
	c.stopPendingLocked()
	if c.cancelAttempt != nil {
		c.cancelAttempt()
		c.cancelAttempt = nil
	}
	s := c.stream
	c.stream = nil
	c.attempts = 0
	c.lastErr = nil
	c.connectedSince = nil
	c.viewReady = false
	c.model.Reset()
	c.metrics.SetGraphSize(0, 0)

	reset := func(o ports.GraphObserver) { o.OnReset() }
	c.unlockAndNotify(reset, c.setStateLocked(domain.StateIdle))

	if s != nil {
		if err := s.Close(); err != nil {
			c.logger.Debug("stream close error", zap.Error(err))
		}
	}
	c.logger.Info("live graph client disconnected")
}

// Status returns the current connection status.
func (c *Client) Status() domain.Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.statusLocked()
}

// Snapshot returns a copy of the current graph.
func (c *Client) Snapshot() domain.Snapshot {
	return c.model.Snapshot()
}

// GraphVersion changes whenever the graph changes.
func (c *Client) GraphVersion() uint64 {
	return c.model.Version()
}

// Restore seeds the graph from a stored snapshot. Observers get the new
// contents as a snapshot.
func (c *Client) Restore(snap *domain.Snapshot) {
	c.mu.Lock()
	c.model.Restore(snap)
	nodes, edges := c.model.Len()
	c.metrics.SetGraphSize(nodes, edges)
	restored := c.model.Snapshot()
	c.unlockAndNotify(func(o ports.GraphObserver) { o.OnSnapshot(restored) })

	c.logger.Info("graph restored from snapshot",
		zap.Int("nodes", nodes),
		zap.Int("edges", edges))
}

// readLoop feeds stream messages into the state machine until the stream ends.
func (c *Client) readLoop(gen uint64, s ports.Stream) {
	for {
		msg, err := s.ReadMessage()
		if err != nil {
			var closeErr *domain.CloseError
			clean := errors.As(err, &closeErr) && closeErr.Clean()
			if !clean {
				c.onError(gen, err)
			}
			c.onClose(gen, clean)
			return
		}
		c.onMessage(gen, msg)
	}
}

// onOpen records a successfully opened stream. It reports false when the
// attempt was superseded in the meantime.
func (c *Client) onOpen(gen uint64, s ports.Stream) bool {
	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return false
	}

	c.stream = s
	c.attempts = 0
	c.lastErr = nil
	now := time.Now()
	c.connectedSince = &now

	notes := []notification{c.setStateLocked(domain.StateConnected)}
	if !c.viewReady {
		c.viewReady = true
		snap := c.model.Snapshot()
		notes = append(notes, func(o ports.GraphObserver) { o.OnSnapshot(snap) })
	}
	c.unlockAndNotify(notes...)
	return true
}

// onMessage validates one inbound message and applies it to the graph.
// Rejected messages never change the connection state.
func (c *Client) onMessage(gen uint64, msg []byte) {
	ev, err := c.validator.Validate(msg)
	if err != nil {
		c.logger.Warn("discarding invalid live graph event", zap.Error(err))
		c.metrics.RecordEventDiscarded(discardReason(err))
		return
	}
	if ev == nil {
		c.logger.Debug("ignoring unrecognised live graph event")
		c.metrics.RecordEventDiscarded(reasonUnknownType)
		return
	}

	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return
	}

	added, edge := c.model.AddEdge(ev.From, ev.To, ev.Label, ev.Arrows)
	nodes, edges := c.model.Len()
	c.metrics.RecordEventApplied(len(added))
	c.metrics.SetGraphSize(nodes, edges)

	notes := make([]notification, 0, len(added)+1)
	for _, n := range added {
		notes = append(notes, func(o ports.GraphObserver) { o.OnNode(n) })
	}
	notes = append(notes, func(o ports.GraphObserver) { o.OnEdge(edge) })
	c.unlockAndNotify(notes...)
}

// onError records a transport error. The following close decides on reconnects.
func (c *Client) onError(gen uint64, err error) {
	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return
	}

	c.logger.Warn("live graph stream error", zap.Error(err))
	c.lastErr = fmt.Errorf("%w: %v", domain.ErrStream, err)
	c.unlockAndNotify(c.setStateLocked(domain.StateFailedStream))
}

// onClose handles the end of a stream and applies the reconnect policy.
func (c *Client) onClose(gen uint64, clean bool) {
	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return
	}

	c.stream = nil
	c.connectedSince = nil

	if !clean {
		if c.attempts < c.maxRetries {
			c.attempts++
			delay := c.backoff.Next(c.attempts)
			c.scheduleLocked(gen, delay)
			c.metrics.RecordReconnectScheduled(c.attempts, delay)

			c.logger.Info("scheduled live graph reconnect",
				zap.Int("attempt", c.attempts),
				zap.Int("max_retries", c.maxRetries),
				zap.Duration("delay", delay))
		} else {
			c.lastErr = domain.ErrReconnectExhausted
			c.metrics.RecordReconnectExhausted()

			c.logger.Error("live graph reconnect budget exhausted",
				zap.Int("attempts", c.attempts))
		}
	}

	c.unlockAndNotify(c.setStateLocked(domain.StateDisconnected))
}

// scheduleLocked arms the single reconnect timer.
// Must be called with c.mu held.
func (c *Client) scheduleLocked(gen uint64, delay time.Duration) {
	c.stopPendingLocked()
	c.pending = c.scheduler.AfterFunc(delay, func() { c.reconnect(gen) })
}

// reconnect is the body of the reconnect timer.
func (c *Client) reconnect(gen uint64) {
	c.mu.Lock()
	if gen != c.gen || c.pending == nil {
		c.mu.Unlock()
		return
	}
	c.pending = nil
	c.mu.Unlock()

	if err := c.Connect(context.Background()); err != nil {
		c.logger.Warn("live graph reconnect failed", zap.Error(err))
	}
}

// stopPendingLocked cancels the reconnect timer, if any.
// Must be called with c.mu held.
func (c *Client) stopPendingLocked() {
	if c.pending != nil {
		c.pending.Stop()
		c.pending = nil
	}
}

// fail records a terminal outcome for the attempt identified by gen.
func (c *Client) fail(gen uint64, state domain.ConnectionState, err error) error {
	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return err
	}

	c.lastErr = err
	c.logger.Warn("live graph connection attempt failed",
		zap.String("state", string(state)),
		zap.String("error_kind", domain.Kind(err)),
		zap.Error(err))
	c.unlockAndNotify(c.setStateLocked(state))
	return err
}

// setStateLocked moves the state machine and returns the status notification.
// Must be called with c.mu held.
func (c *Client) setStateLocked(state domain.ConnectionState) notification {
	prev := c.state
	c.state = state
	if prev != state {
		c.metrics.RecordStateTransition(string(prev), string(state))
		c.logger.Info("live graph state changed",
			zap.String("from", string(prev)),
			zap.String("state", string(state)))
	}

	status := c.statusLocked()
	return func(o ports.GraphObserver) { o.OnStatus(status) }
}

// statusLocked builds the current status.
// Must be called with c.mu held.
func (c *Client) statusLocked() domain.Status {
	nodes, edges := c.model.Len()
	status := domain.Status{
		ClientID:     c.id,
		State:        c.state,
		Attempts:     c.attempts,
		MaxRetries:   c.maxRetries,
		RetryPending: c.pending != nil,
		Nodes:        nodes,
		Edges:        edges,
	}
	if c.connectedSince != nil {
		since := *c.connectedSince
		status.ConnectedSince = &since
	}
	if c.lastErr != nil {
		status.Error = c.lastErr.Error()
		status.ErrorKind = domain.Kind(c.lastErr)
	}
	return status
}

// unlockAndNotify releases c.mu and delivers notes once every earlier batch
// has been delivered. Must be called with c.mu held.
func (c *Client) unlockAndNotify(notes ...notification) {
	seq := c.notifySeq
	c.notifySeq++
	c.mu.Unlock()

	c.notifyMu.Lock()
	for c.notifyTurn != seq {
		c.notifyCond.Wait()
	}
	c.notifyMu.Unlock()

	defer func() {
		c.notifyMu.Lock()
		c.notifyTurn++
		c.notifyCond.Broadcast()
		c.notifyMu.Unlock()
	}()

	for _, n := range notes {
		n(c.observer)
	}
}
