// Package pubsub is the in-process event bus behind real-time subscriptions.
package pubsub

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"messenger/pkg/logger"
)

// Publisher is the side services depend on.
type Publisher interface {
	Publish(Event)
}

type Bus struct {
	mu   sync.RWMutex
	subs map[Kind]map[uuid.UUID]*subscription
	log  logger.Logger
}

func NewBus(log logger.Logger) *Bus {
	return &Bus{
		subs: make(map[Kind]map[uuid.UUID]*subscription),
		log:  log,
	}
}

type subscription struct {
	id     uuid.UUID
	params Params
	filter Filter

	mu     sync.Mutex
	queue  []Event
	notify chan struct{}
	out    chan Event
}

func (s *subscription) push(e Event) {
	s.mu.Lock()
	s.queue = append(s.queue, e)
	s.mu.Unlock()
	select {
	case s.notify <- struct{}{}:
	default:
	}
}

func (s *subscription) drain() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	batch := s.queue
	s.queue = nil
	return batch
}

// pump forwards queued events in publish order until ctx is done, then
// closes out.
func (s *subscription) pump(ctx context.Context) {
	defer close(s.out)
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.notify:
		}
		for _, e := range s.drain() {
			select {
			case s.out <- e:
			case <-ctx.Done():
				return
			}
		}
	}
}

// Subscribe registers a subscriber for one kind. The returned channel
// receives matching events in publish order and is closed once ctx is
// cancelled. A nil filter means RecipientFilter.
func (b *Bus) Subscribe(ctx context.Context, kind Kind, params Params, filter Filter) <-chan Event {
	if filter == nil {
		filter = RecipientFilter
	}
	sub := &subscription{
		id:     uuid.New(),
		params: params,
		filter: filter,
		notify: make(chan struct{}, 1),
		out:    make(chan Event),
	}

	b.mu.Lock()
	if b.subs[kind] == nil {
		b.subs[kind] = make(map[uuid.UUID]*subscription)
	}
	b.subs[kind][sub.id] = sub
	b.mu.Unlock()

	b.log.Debug("Subscription registered", "kind", kind, "user_id", params.UserID)

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		delete(b.subs[kind], sub.id)
		b.mu.Unlock()
		b.log.Debug("Subscription removed", "kind", kind, "user_id", params.UserID)
	}()
	go sub.pump(ctx)

	return sub.out
}

// Publish never blocks on slow subscribers.
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	delivered := 0
	for _, sub := range b.subs[e.Kind] {
		if !sub.filter(e, sub.params) {
			continue
		}
		sub.push(e)
		delivered++
	}
	b.log.Debug("Event published", "kind", e.Kind, "subscribers", delivered)
}

// Subscribers reports how many live subscriptions exist for kind.
func (b *Bus) Subscribers(kind Kind) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[kind])
}
