package infrastructure

import (
	"context"
	"errors"
	"log/slog"
	"reflect"
	"sync"
	"time"

	"github.com/sglre6355/antigravity/internal/modules/music_player/application/ports"
	"github.com/sglre6355/antigravity/internal/modules/music_player/domain"
)

// DefaultEventBufferSize is the default buffer size for event channels.
const DefaultEventBufferSize = 100

// DefaultPublishTimeout bounds how long Publish waits for room in a full buffer.
const DefaultPublishTimeout = time.Second

var (
	// ErrEventBusClosed is returned when publishing or subscribing after Close.
	ErrEventBusClosed = errors.New("event bus is closed")
	// ErrEventBufferFull is returned when an event is dropped because its buffer stayed full.
	ErrEventBufferFull = errors.New("event buffer full")
)

// Compile-time checks that ChannelEventBus implements ports interfaces.
var (
	_ ports.EventPublisher  = (*ChannelEventBus)(nil)
	_ ports.EventSubscriber = (*ChannelEventBus)(nil)
)

// topic is the channel and handlers for one event type.
type topic struct {
	name     string
	events   chan domain.Event
	handlers []func(context.Context, domain.Event)
}

// ChannelEventBus provides a channel-based event bus for async event handling.
// It implements both EventPublisher and EventSubscriber interfaces.
// Each event type gets its own buffered channel and dispatcher goroutine, so
// events of one type are handled in publish order.
type ChannelEventBus struct {
	topics         map[reflect.Type]*topic
	bufferSize     int
	publishTimeout time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	closed bool
	mu     sync.RWMutex
}

// NewChannelEventBus creates a new ChannelEventBus with the given buffer size.
func NewChannelEventBus(bufferSize int) *ChannelEventBus {
	if bufferSize <= 0 {
		bufferSize = DefaultEventBufferSize
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &ChannelEventBus{
		topics:         make(map[reflect.Type]*topic),
		bufferSize:     bufferSize,
		publishTimeout: DefaultPublishTimeout,
		ctx:            ctx,
		cancel:         cancel,
	}
}

// --- EventSubscriber interface ---

// Subscribe registers a handler for events of the given type.
// The first subscription for a type starts its dispatcher.
func (b *ChannelEventBus) Subscribe(
	eventType reflect.Type,
	handler func(context.Context, domain.Event),
) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrEventBusClosed
	}

	t, ok := b.topics[eventType]
	if !ok {
		t = &topic{
			name:   eventType.Name(),
			events: make(chan domain.Event, b.bufferSize),
		}
		b.topics[eventType] = t

		b.wg.Add(1)
		go b.dispatch(t)
	}
	t.handlers = append(t.handlers, handler)

	return nil
}

func (b *ChannelEventBus) dispatch(t *topic) {
	defer b.wg.Done()
	for {
		select {
		case <-b.ctx.Done():
			return
		case event, ok := <-t.events:
			if !ok {
				return
			}
			b.mu.RLock()
			handlers := t.handlers
			b.mu.RUnlock()
			for _, handler := range handlers {
				handler(b.ctx, event)
			}
		}
	}
}

// --- EventPublisher interface ---

// Publish queues the event for its subscribers. Events without subscribers are discarded.
// When the buffer is full Publish waits up to the publish timeout before dropping the event.
func (b *ChannelEventBus) Publish(event domain.Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		slog.Warn("attempted to publish to closed event bus", "type", reflect.TypeOf(event).Name())
		return ErrEventBusClosed
	}

	t, ok := b.topics[reflect.TypeOf(event)]
	if !ok {
		slog.Debug("no subscribers for event", "type", reflect.TypeOf(event).Name())
		return nil
	}

	select {
	case t.events <- event:
		slog.Debug("published event", "type", t.name, "guild", event.EventGuildID())
		return nil
	default:
	}

	timer := time.NewTimer(b.publishTimeout)
	defer timer.Stop()

	select {
	case t.events <- event:
		slog.Debug("published event after waiting", "type", t.name, "guild", event.EventGuildID())
		return nil
	case <-timer.C:
		slog.Warn("event buffer full, dropping event", "type", t.name, "guild", event.EventGuildID())
		return ErrEventBufferFull
	}
}

// Close closes all event channels and stops dispatchers.
// After calling Close, publishing will no longer send events.
func (b *ChannelEventBus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	b.mu.Unlock()

	// Cancel context to stop dispatchers
	b.cancel()

	// Publishers hold the read lock while sending, so none is left at this point.
	for _, t := range b.topics {
		close(t.events)
	}

	// Wait for dispatchers to finish
	b.wg.Wait()

	slog.Debug("channel event bus closed")
}
