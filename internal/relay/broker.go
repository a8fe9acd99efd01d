package relay

import (
	"sync"
	"sync/atomic"
)

const subscriberBufSize = 256

// Event is one serialized view event.
type Event struct {
	ID      int64
	Feed    string
	Payload string
}

type subscriber struct {
	ch    chan Event
	feeds map[string]bool
}

func (s subscriber) wants(feed string) bool {
	return s.feeds == nil || s.feeds[feed]
}

// Broker fans events out to stream clients. Each client may restrict the
// feeds it receives; filtered events never occupy its buffer.
type Broker struct {
	mu      sync.RWMutex
	subs    map[int64]subscriber
	nextSub atomic.Int64
	seq     atomic.Int64
	dropped atomic.Int64
}

func NewBroker() *Broker {
	return &Broker{subs: make(map[int64]subscriber)}
}

// Subscribe registers a client for the given feeds; nil means every feed.
// Events are dropped for a client whose buffer is full.
func (b *Broker) Subscribe(feeds map[string]bool) (int64, <-chan Event) {
	id := b.nextSub.Add(1)
	sub := subscriber{ch: make(chan Event, subscriberBufSize), feeds: feeds}
	b.mu.Lock()
	b.subs[id] = sub
	b.mu.Unlock()
	return id, sub.ch
}

// Unsubscribe removes a client and closes its channel.
func (b *Broker) Unsubscribe(id int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if sub, ok := b.subs[id]; ok {
		delete(b.subs, id)
		close(sub.ch)
	}
}

// Publish assigns the next sequence id and delivers without blocking.
func (b *Broker) Publish(evt Event) Event {
	evt.ID = b.seq.Add(1)
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, sub := range b.subs {
		if !sub.wants(evt.Feed) {
			continue
		}
		select {
		case sub.ch <- evt:
		default:
			b.dropped.Add(1)
		}
	}
	return evt
}

func (b *Broker) ClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Dropped counts deliveries skipped for full clients.
func (b *Broker) Dropped() int64 { return b.dropped.Load() }
