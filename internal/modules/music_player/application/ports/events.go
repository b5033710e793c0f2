package ports

import (
	"context"
	"reflect"

	"github.com/sglre6355/antigravity/internal/modules/music_player/domain"
)

// EventPublisher hands domain events to subscribers without blocking the caller.
// Audio streams use it to report their end, so the completion never touches a
// guild's state from the streaming goroutine.
type EventPublisher interface {
	Publish(event domain.Event) error
}

// EventSubscriber registers handlers per concrete event type.
// Handlers for one event type run one at a time, in publish order.
type EventSubscriber interface {
	Subscribe(eventType reflect.Type, handler func(context.Context, domain.Event)) error
}
