package relay

import (
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dgnsrekt/paneview/internal/view"
)

// Source publishes view events.
type Source interface {
	Subscribe(l view.Listener)
}

// Relay serializes view events of the enabled feeds and publishes them to a
// Broker. A throttled feed publishes at most once per interval; the newest
// event suppressed inside a window is flushed when the window closes.
type Relay struct {
	broker  *Broker
	feeds   map[string]FeedConfig
	stopped atomic.Bool

	mu      sync.Mutex
	last    map[string]time.Time
	pending map[string]*pendingEvent
}

type pendingEvent struct {
	ev    view.Event
	timer *time.Timer
}

func NewRelay(cfg *RelayConfig, broker *Broker) *Relay {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	feeds := make(map[string]FeedConfig, len(cfg.Feeds))
	for _, f := range cfg.Feeds {
		feeds[f.Name] = f
	}
	return &Relay{
		broker:  broker,
		feeds:   feeds,
		last:    make(map[string]time.Time),
		pending: make(map[string]*pendingEvent),
	}
}

// Start subscribes the relay to src.
func (r *Relay) Start(src Source) {
	src.Subscribe(r.Forward)
	slog.Info("relay started", "feeds", len(r.feeds))
}

// Stop makes Forward a no-op and discards pending trailing events.
func (r *Relay) Stop() {
	if !r.stopped.CompareAndSwap(false, true) {
		return
	}
	r.mu.Lock()
	for feed, p := range r.pending {
		p.timer.Stop()
		delete(r.pending, feed)
	}
	r.mu.Unlock()
	slog.Info("relay stopped")
}

// Forward publishes ev when its feed is enabled. Inside a throttle window
// ev replaces the feed's pending trailing event.
func (r *Relay) Forward(ev view.Event) {
	if r.stopped.Load() {
		return
	}
	feed, ok := r.feeds[ev.Feed]
	if !ok {
		return
	}
	interval := feed.MinInterval()
	if interval <= 0 {
		r.publish(ev)
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	last := r.last[ev.Feed]
	if elapsed := ev.At.Sub(last); !last.IsZero() && elapsed < interval {
		r.holdLocked(ev, interval-elapsed)
		return
	}
	if p := r.pending[ev.Feed]; p != nil {
		p.timer.Stop()
		delete(r.pending, ev.Feed)
	}
	r.last[ev.Feed] = ev.At
	r.publish(ev)
}

func (r *Relay) holdLocked(ev view.Event, wait time.Duration) {
	if p := r.pending[ev.Feed]; p != nil {
		p.ev = ev
		return
	}
	p := &pendingEvent{ev: ev}
	p.timer = time.AfterFunc(wait, func() { r.flush(ev.Feed, p) })
	r.pending[ev.Feed] = p
}

func (r *Relay) flush(feed string, p *pendingEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pending[feed] != p || r.stopped.Load() {
		return
	}
	delete(r.pending, feed)
	r.last[feed] = p.ev.At
	r.publish(p.ev)
}

func (r *Relay) publish(ev view.Event) {
	payload, err := json.Marshal(ev.Data)
	if err != nil {
		slog.Debug("relay: event encode failed", "feed", ev.Feed, "error", err)
		return
	}
	r.broker.Publish(Event{Feed: ev.Feed, Payload: string(payload)})
}
