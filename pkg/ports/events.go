package ports

import (
	"context"

	"github.com/aescanero/livegraph/pkg/domain"
)

// EventHandler handles an event delivered by the bus.
type EventHandler func(ctx context.Context, event domain.Event) error

// EventBus publishes and delivers graph events.
type EventBus interface {
	Publish(ctx context.Context, topic string, event domain.Event) error
	// Subscribe registers handler until ctx is cancelled.
	Subscribe(ctx context.Context, topic string, handler EventHandler) error
	Close() error
}
