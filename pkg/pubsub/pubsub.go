// Package pubsub fans simulation progress events out to in-process
// subscribers and, optionally, to remote ones over NNG.
package pubsub

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

// ErrShutdown is returned by Subscribe after Shutdown.
var ErrShutdown = errors.New("pubsub is shut down")

// DefaultBuffer is the per-subscription channel capacity.
const DefaultBuffer = 256

// PubSub provides publish/subscribe for progress events
type PubSub struct {
	subscribers map[string]map[*Subscription]struct{}
	mu          sync.RWMutex
	shutdown    chan struct{}
	isShutdown  bool
	dropped     atomic.Uint64
}

// Subscription represents a subscription to a topic
type Subscription struct {
	topic   string
	channel chan Event
	ps      *PubSub
	cancel  context.CancelFunc
	closed  bool // guarded by ps.mu
}

// NewPubSub creates a new PubSub instance
func NewPubSub() *PubSub {
	return &PubSub{
		subscribers: make(map[string]map[*Subscription]struct{}),
		shutdown:    make(chan struct{}),
	}
}

// Subscribe creates a subscription to topic, which is an event Kind or
// TopicAll. It ends when ctx is cancelled, Unsubscribe is called or the
// PubSub shuts down; the channel is then closed.
func (ps *PubSub) Subscribe(ctx context.Context, topic string) (*Subscription, error) {
	subCtx, cancel := context.WithCancel(ctx)
	sub := &Subscription{
		topic:   topic,
		channel: make(chan Event, DefaultBuffer),
		ps:      ps,
		cancel:  cancel,
	}

	ps.mu.Lock()
	if ps.isShutdown {
		ps.mu.Unlock()
		cancel()
		return nil, ErrShutdown
	}
	if ps.subscribers[topic] == nil {
		ps.subscribers[topic] = make(map[*Subscription]struct{})
	}
	ps.subscribers[topic][sub] = struct{}{}
	ps.mu.Unlock()

	go func() {
		select {
		case <-subCtx.Done():
			sub.Unsubscribe()
		case <-ps.shutdown:
		}
	}()

	return sub, nil
}

// Publish delivers ev to subscribers of its kind and of TopicAll. Full
// subscriber buffers drop the event rather than block the caller.
func (ps *PubSub) Publish(ev Event) {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	if ps.isShutdown {
		return
	}

	for _, topic := range [2]string{string(ev.Kind), TopicAll} {
		for sub := range ps.subscribers[topic] {
			select {
			case sub.channel <- ev:
			default:
				ps.dropped.Add(1)
			}
		}
	}
}

// Dropped returns the number of deliveries skipped because a subscriber
// buffer was full.
func (ps *PubSub) Dropped() uint64 {
	return ps.dropped.Load()
}

// GetSubscriberCount returns the number of subscribers for a topic
func (ps *PubSub) GetSubscriberCount(topic string) int {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	return len(ps.subscribers[topic])
}

// Shutdown closes all subscriptions and shuts down the PubSub
func (ps *PubSub) Shutdown() {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	if ps.isShutdown {
		return
	}
	ps.isShutdown = true
	close(ps.shutdown)

	for topic, subs := range ps.subscribers {
		for sub := range subs {
			sub.closeLocked()
		}
		delete(ps.subscribers, topic)
	}
}

// Channel returns the subscription's event channel
func (s *Subscription) Channel() <-chan Event {
	return s.channel
}

// Unsubscribe removes the subscription and closes its channel. Safe to call
// more than once.
func (s *Subscription) Unsubscribe() {
	s.cancel()

	s.ps.mu.Lock()
	defer s.ps.mu.Unlock()

	if subs := s.ps.subscribers[s.topic]; subs != nil {
		delete(subs, s)
		if len(subs) == 0 {
			delete(s.ps.subscribers, s.topic)
		}
	}
	s.closeLocked()
}

// closeLocked closes the channel once; the caller holds ps.mu for writing,
// which excludes concurrent Publish sends.
func (s *Subscription) closeLocked() {
	if s.closed {
		return
	}
	s.closed = true
	s.cancel()
	close(s.channel)
}
