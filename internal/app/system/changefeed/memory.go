package changefeed

import (
	"context"
	"sync"
)

// subscriberBuffer bounds per-subscriber backlog before events are dropped.
const subscriberBuffer = 32

// MemoryBroker is an in-process Broker for single-instance deployments.
type MemoryBroker struct {
	mu     sync.RWMutex
	topics map[string]map[*memSub]struct{}
	closed bool
}

type memSub struct {
	ch     chan Event
	done   chan struct{}
	once   sync.Once
	topics []string
}

func (s *memSub) stop(b *MemoryBroker) {
	s.once.Do(func() {
		close(s.done)
		b.remove(s)
	})
}

// NewMemoryBroker returns an empty in-process broker.
func NewMemoryBroker() *MemoryBroker {
	return &MemoryBroker{topics: make(map[string]map[*memSub]struct{})}
}

func (b *MemoryBroker) Publish(ctx context.Context, ev Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrClosed
	}
	for s := range b.topics[ev.Topic] {
		select {
		case s.ch <- ev:
		default:
			// Subscriber is behind; it will catch up on its next re-query.
		}
	}
	return nil
}

func (b *MemoryBroker) Subscribe(ctx context.Context, topics ...string) (*Subscription, error) {
	s := &memSub{
		ch:     make(chan Event, subscriberBuffer),
		done:   make(chan struct{}),
		topics: topics,
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil, ErrClosed
	}
	for _, t := range topics {
		set := b.topics[t]
		if set == nil {
			set = make(map[*memSub]struct{})
			b.topics[t] = set
		}
		set[s] = struct{}{}
	}
	b.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
			s.stop(b)
		case <-s.done:
		}
	}()
	return &Subscription{C: s.ch, close: func() { s.stop(b) }}, nil
}

func (b *MemoryBroker) remove(s *memSub) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, t := range s.topics {
		if set := b.topics[t]; set != nil {
			delete(set, s)
			if len(set) == 0 {
				delete(b.topics, t)
			}
		}
	}
	// Publish holds the read lock while sending, so closing under the write
	// lock cannot race a send.
	close(s.ch)
}

// Close ends every subscription.
func (b *MemoryBroker) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	var subs []*memSub
	seen := map[*memSub]struct{}{}
	for _, set := range b.topics {
		for s := range set {
			if _, ok := seen[s]; !ok {
				seen[s] = struct{}{}
				subs = append(subs, s)
			}
		}
	}
	b.mu.Unlock()

	for _, s := range subs {
		s.stop(b)
	}
	return nil
}
