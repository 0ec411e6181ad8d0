package eventbus

import (
	"context"
	"log"
	"runtime/debug"
	"sync"

	"greptree/internal/domain"
)

// Re-export domain types for convenience
type DomainEvent = domain.DomainEvent
type EventType = domain.EventType

// Event type constants
const (
	EventProgress        = domain.EventProgress
	EventFileFound       = domain.EventFileFound
	EventSearchError     = domain.EventSearchError
	EventSearchCompleted = domain.EventSearchCompleted
)

// Re-export domain event types
type ProgressEvent = domain.ProgressEvent
type FileFoundEvent = domain.FileFoundEvent
type SearchErrorEvent = domain.SearchErrorEvent
type SearchCompletedEvent = domain.SearchCompletedEvent

// EventHandler is a function that handles domain events
type EventHandler func(DomainEvent)

// EventBus is the interface for the event bus.
//
// Handlers run one at a time on a single dispatch goroutine, in publish order,
// so subscribers never observe concurrent callbacks.
type EventBus interface {
	Publish(event DomainEvent) bool
	PublishContext(ctx context.Context, event DomainEvent) bool
	Subscribe(eventType EventType, handler EventHandler) func()
	Close()
}

type subscription struct {
	id      uint64
	handler EventHandler
}

// bus is the concrete implementation of EventBus
type bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]subscription
	nextID   uint64

	eventChan chan DomainEvent
	wg        sync.WaitGroup

	// quit releases publishers blocked on a full channel; stop tells the
	// dispatcher that no publisher can enqueue anymore
	closeMu   sync.RWMutex
	closed    bool
	quit      chan struct{}
	stop      chan struct{}
	closeOnce sync.Once
}

// New creates a new event bus with the default buffer size
func New() EventBus {
	return NewWithBuffer(1000)
}

// NewWithBuffer creates a new event bus whose queue holds size events
func NewWithBuffer(size int) EventBus {
	if size < 1 {
		size = 1
	}
	b := &bus{
		handlers:  make(map[EventType][]subscription),
		eventChan: make(chan DomainEvent, size),
		quit:      make(chan struct{}),
		stop:      make(chan struct{}),
	}

	// Start the event dispatcher
	b.wg.Add(1)
	go b.dispatch()

	return b
}

// Publish queues an event for delivery. It blocks while the queue is full and
// returns false once the bus has been closed.
func (b *bus) Publish(event DomainEvent) bool {
	b.closeMu.RLock()
	defer b.closeMu.RUnlock()
	if b.closed {
		return false
	}

	select {
	case b.eventChan <- event:
		return true
	case <-b.quit:
		log.Printf("EventBus: closed, dropping event %s", event.Type())
		return false
	}
}

// PublishContext is Publish that also gives up, returning false, once ctx is done
func (b *bus) PublishContext(ctx context.Context, event DomainEvent) bool {
	b.closeMu.RLock()
	defer b.closeMu.RUnlock()
	if b.closed || ctx.Err() != nil {
		return false
	}

	select {
	case b.eventChan <- event:
		return true
	case <-ctx.Done():
		return false
	case <-b.quit:
		log.Printf("EventBus: closed, dropping event %s", event.Type())
		return false
	}
}

// Subscribe subscribes to events of a specific type
// Returns an unsubscribe function
func (b *bus) Subscribe(eventType EventType, handler EventHandler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.handlers[eventType] = append(b.handlers[eventType], subscription{id: id, handler: handler})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()

		subs := b.handlers[eventType]
		for i, s := range subs {
			if s.id == id {
				b.handlers[eventType] = append(subs[:i:i], subs[i+1:]...)
				break
			}
		}
	}
}

// Close stops accepting events, delivers everything already queued and waits
// for the dispatcher to exit. No handler runs after Close returns.
func (b *bus) Close() {
	b.closeOnce.Do(func() {
		close(b.quit)
		b.closeMu.Lock()
		b.closed = true
		b.closeMu.Unlock()
		close(b.stop)
	})
	b.wg.Wait()
}

// dispatch handles event distribution to subscribers
func (b *bus) dispatch() {
	defer b.wg.Done()

	for {
		select {
		case event := <-b.eventChan:
			b.deliver(event)

		case <-b.stop:
			// Deliver whatever was queued before close
			for {
				select {
				case event := <-b.eventChan:
					b.deliver(event)
				default:
					return
				}
			}
		}
	}
}

func (b *bus) deliver(event DomainEvent) {
	b.mu.RLock()
	subs := b.handlers[event.Type()]
	// Make a copy to avoid holding lock during handler execution
	subsCopy := make([]subscription, len(subs))
	copy(subsCopy, subs)
	b.mu.RUnlock()

	for _, s := range subsCopy {
		b.call(s.handler, event)
	}
}

func (b *bus) call(h EventHandler, event DomainEvent) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Event handler panic for %s: %v\nStack: %s", event.Type(), r, debug.Stack())
		}
	}()
	h(event)
}
