package app

import (
	"context"
	"sync"

	"quiz-results-service/internal/domain"
)

// Publisher fans a change event out to every subscriber, locally or
// across instances.
type Publisher interface {
	Publish(ctx context.Context, event domain.ChangeEvent) error
}

// Feed is an in-process pub/sub of result changes.
type Feed struct {
	mu          sync.Mutex
	subscribers map[chan domain.ChangeEvent]struct{}
}

func NewFeed() *Feed {
	return &Feed{subscribers: make(map[chan domain.ChangeEvent]struct{})}
}

// Publish implements Publisher for a single instance.
func (f *Feed) Publish(_ context.Context, event domain.ChangeEvent) error {
	f.Broadcast(event)
	return nil
}

// Subscribe returns a channel of change events. The caller must invoke the
// returned cancel function to avoid leaks.
func (f *Feed) Subscribe() (<-chan domain.ChangeEvent, func()) {
	ch := make(chan domain.ChangeEvent, 8)

	f.mu.Lock()
	f.subscribers[ch] = struct{}{}
	f.mu.Unlock()

	cancel := func() {
		f.mu.Lock()
		if _, ok := f.subscribers[ch]; ok {
			delete(f.subscribers, ch)
			close(ch)
		}
		f.mu.Unlock()
	}
	return ch, cancel
}

// Broadcast delivers event to every subscriber. A subscriber whose buffer
// is full loses its oldest pending event instead of blocking the sender.
func (f *Feed) Broadcast(event domain.ChangeEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for ch := range f.subscribers {
		select {
		case ch <- event:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- event
		}
	}
}

// Len reports the number of live subscribers.
func (f *Feed) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subscribers)
}
