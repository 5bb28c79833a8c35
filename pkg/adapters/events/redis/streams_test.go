package redis

import (
	"context"
	"testing"
	"time"

	"github.com/aescanero/livegraph/pkg/domain"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestBus(t *testing.T, maxLen int64) (*StreamsEventBus, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	bus, err := NewStreamsEventBus(client, "livegraph", "test", maxLen, nil)
	if err != nil {
		t.Fatalf("NewStreamsEventBus failed: %v", err)
	}
	bus.block = 50 * time.Millisecond
	t.Cleanup(func() { bus.Close() })
	return bus, client
}

func TestStreamsEventBus_PublishSubscribe(t *testing.T) {
	bus, client := newTestBus(t, 0)
	ctx := context.Background()

	// Published before anyone subscribed: not delivered.
	if err := bus.Publish(ctx, domain.TopicGraph, domain.Event{ID: "early", Type: domain.EventTypeGraphReset}); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	received := make(chan domain.Event, 8)
	subCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	if err := bus.Subscribe(subCtx, domain.TopicGraph, func(_ context.Context, ev domain.Event) error {
		received <- ev
		return nil
	}); err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	for _, id := range []string{"e1", "e2", "e3"} {
		ev := domain.Event{
			ID:        id,
			Type:      domain.EventTypeEdgeAdded,
			Timestamp: time.Now().UTC(),
			Data:      map[string]interface{}{"from": "A", "to": "B"},
		}
		if err := bus.Publish(ctx, domain.TopicGraph, ev); err != nil {
			t.Fatalf("Publish failed: %v", err)
		}
	}

	for _, want := range []string{"e1", "e2", "e3"} {
		select {
		case ev := <-received:
			if ev.ID != want {
				t.Errorf("got event %s, want %s", ev.ID, want)
			}
			if ev.Data["from"] != "A" {
				t.Errorf("unexpected payload: %v", ev.Data)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for %s", want)
		}
	}

	n, err := client.XLen(ctx, getStreamKey(domain.TopicGraph)).Result()
	if err != nil {
		t.Fatalf("XLen failed: %v", err)
	}
	if n != 4 {
		t.Errorf("stream length = %d, want 4", n)
	}
}

func TestStreamsEventBus_SubscribersEachGetEveryEvent(t *testing.T) {
	bus, _ := newTestBus(t, 0)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a := make(chan domain.Event, 4)
	b := make(chan domain.Event, 4)
	for _, ch := range []chan domain.Event{a, b} {
		ch := ch
		if err := bus.Subscribe(ctx, domain.TopicGraph, func(_ context.Context, ev domain.Event) error {
			ch <- ev
			return nil
		}); err != nil {
			t.Fatalf("Subscribe failed: %v", err)
		}
	}

	if err := bus.Publish(ctx, domain.TopicGraph, domain.Event{ID: "shared"}); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	for name, ch := range map[string]chan domain.Event{"a": a, "b": b} {
		select {
		case ev := <-ch:
			if ev.ID != "shared" {
				t.Errorf("subscriber %s got %s", name, ev.ID)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("subscriber %s got nothing", name)
		}
	}
}

func TestStreamsEventBus_CancelRemovesGroup(t *testing.T) {
	bus, client := newTestBus(t, 0)
	ctx := context.Background()

	subCtx, cancel := context.WithCancel(ctx)
	if err := bus.Subscribe(subCtx, domain.TopicGraph, func(context.Context, domain.Event) error { return nil }); err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	bus.mu.Lock()
	var group string
	for g := range bus.cancels {
		group = g
	}
	bus.mu.Unlock()
	if group == "" {
		t.Fatal("expected an active subscription")
	}

	cancel()
	bus.Close()

	err := client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    group,
		Consumer: "probe",
		Streams:  []string{getStreamKey(domain.TopicGraph), ">"},
		Count:    1,
		Block:    -1,
	}).Err()
	if err == nil || err == redis.Nil {
		t.Errorf("expected group %s to be gone, got %v", group, err)
	}
}

func TestNewStreamsEventBus_Validation(t *testing.T) {
	if _, err := NewStreamsEventBus(nil, "g", "c", 0, nil); err == nil {
		t.Error("expected error without client")
	}
	client := redis.NewClient(&redis.Options{Addr: "localhost:0"})
	defer client.Close()
	if _, err := NewStreamsEventBus(client, "", "c", 0, nil); err == nil {
		t.Error("expected error without consumer group")
	}
}
