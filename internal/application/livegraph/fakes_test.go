package livegraph

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aescanero/livegraph/pkg/domain"
	"github.com/aescanero/livegraph/pkg/ports"
)

type fakeTokens struct {
	mu    sync.Mutex
	token string
	err   error
	calls int
	block chan struct{} // when set, Token waits on it
}

func (f *fakeTokens) Token(ctx context.Context) (string, error) {
	f.mu.Lock()
	f.calls++
	block := f.block
	token, err := f.token, f.err
	f.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return token, err
}

func (f *fakeTokens) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeIssuer struct {
	mu     sync.Mutex
	ticket string
	err    error
	tokens []string
}

func (f *fakeIssuer) Issue(ctx context.Context, idToken string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens = append(f.tokens, idToken)
	return f.ticket, f.err
}

func (f *fakeIssuer) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.tokens)
}

type fakeStream struct {
	in     chan []byte
	errs   chan error
	closed chan struct{}
	once   sync.Once
}

func newFakeStream() *fakeStream {
	return &fakeStream{
		in:     make(chan []byte, 16),
		errs:   make(chan error, 1),
		closed: make(chan struct{}),
	}
}

func (s *fakeStream) ReadMessage() ([]byte, error) {
	select {
	case m := <-s.in:
		return m, nil
	case err := <-s.errs:
		return nil, err
	case <-s.closed:
		return nil, errors.New("use of closed network connection")
	}
}

func (s *fakeStream) Close() error {
	s.once.Do(func() { close(s.closed) })
	return nil
}

func (s *fakeStream) isClosed() bool {
	select {
	case <-s.closed:
		return true
	default:
		return false
	}
}

type fakeDialer struct {
	mu      sync.Mutex
	err     error
	urls    []string
	streams []*fakeStream
}

func (d *fakeDialer) Dial(ctx context.Context, url string) (ports.Stream, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.urls = append(d.urls, url)
	if d.err != nil {
		return nil, d.err
	}
	s := newFakeStream()
	d.streams = append(d.streams, s)
	return s, nil
}

func (d *fakeDialer) setErr(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.err = err
}

func (d *fakeDialer) dialCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.urls)
}

func (d *fakeDialer) lastStream() *fakeStream {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.streams) == 0 {
		return nil
	}
	return d.streams[len(d.streams)-1]
}

type manualTimer struct {
	mu      sync.Mutex
	delay   time.Duration
	f       func()
	stopped bool
	fired   bool
}

func (t *manualTimer) Stop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	pending := !t.stopped && !t.fired
	t.stopped = true
	return pending
}

func (t *manualTimer) isStopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped
}

// fire runs the timer body unless it was stopped, like time.AfterFunc would.
func (t *manualTimer) fire() {
	t.mu.Lock()
	if t.stopped || t.fired {
		t.mu.Unlock()
		return
	}
	t.fired = true
	t.mu.Unlock()
	t.f()
}

// forceFire runs the body even if stopped, simulating a timer that raced Stop.
func (t *manualTimer) forceFire() {
	t.f()
}

type manualScheduler struct {
	mu     sync.Mutex
	timers []*manualTimer
}

func (s *manualScheduler) AfterFunc(d time.Duration, f func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &manualTimer{delay: d, f: f}
	s.timers = append(s.timers, t)
	return t
}

func (s *manualScheduler) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

func (s *manualScheduler) last(t *testing.T) *manualTimer {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.timers) == 0 {
		t.Fatal("no reconnect scheduled")
	}
	return s.timers[len(s.timers)-1]
}

type recordingObserver struct {
	mu        sync.Mutex
	statuses  []domain.Status
	snapshots []domain.Snapshot
	nodes     []domain.Node
	edges     []domain.Edge
	resets    int
}

func (o *recordingObserver) OnStatus(s domain.Status) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.statuses = append(o.statuses, s)
}

func (o *recordingObserver) OnSnapshot(s domain.Snapshot) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.snapshots = append(o.snapshots, s)
}

func (o *recordingObserver) OnNode(n domain.Node) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.nodes = append(o.nodes, n)
}

func (o *recordingObserver) OnEdge(e domain.Edge) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.edges = append(o.edges, e)
}

func (o *recordingObserver) OnReset() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.resets++
}

func (o *recordingObserver) states() []domain.ConnectionState {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]domain.ConnectionState, len(o.statuses))
	for i, s := range o.statuses {
		out[i] = s.State
	}
	return out
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}
