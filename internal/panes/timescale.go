package panes

import (
	"log/slog"
	"slices"
)

// echoDepth bounds the ranges remembered per pane while waiting for echoes.
const echoDepth = 4

// TimeScaleSync keeps the visible range of every registered pane equal.
type TimeScaleSync struct {
	log       *slog.Logger
	arena     *Arena
	panes     map[PaneID]*Pane
	sent      map[PaneID][]Range
	observers []func(source PaneID, r Range)
}

func NewTimeScaleSync(log *slog.Logger, arena *Arena) *TimeScaleSync {
	return &TimeScaleSync{
		log:     log,
		arena:   arena,
		panes:   make(map[PaneID]*Pane),
		sent:    make(map[PaneID][]Range),
	}
}

// OnSync adds an observer called after a range was propagated.
func (s *TimeScaleSync) OnSync(fn func(source PaneID, r Range)) {
	s.observers = append(s.observers, fn)
}

func (s *TimeScaleSync) Register(p *Pane) error {
	d, err := p.surface.SubscribeVisibleRangeChange(func(r Range) { s.onChange(p.id, r) })
	if err != nil {
		return err
	}
	s.arena.Track(p.id, "visible-range", d)
	s.panes[p.id] = p
	return nil
}

func (s *TimeScaleSync) Unregister(id PaneID) {
	delete(s.panes, id)
	delete(s.sent, id)
}

// Align copies the range of the first other registered pane onto p.
func (s *TimeScaleSync) Align(p *Pane) {
	for _, id := range PaneOrder {
		src, ok := s.panes[id]
		if !ok || id == p.id {
			continue
		}
		var r Range
		err := safeCall(func() error {
			var rerr error
			r, rerr = src.surface.VisibleRange()
			return rerr
		})
		if err != nil {
			s.log.Debug("visible range read failed", "pane", id, "error", err)
			continue
		}
		if r.IsZero() {
			continue
		}
		s.apply(p, r)
		return
	}
}

func (s *TimeScaleSync) onChange(source PaneID, r Range) {
	if _, ok := s.panes[source]; !ok || r.IsZero() {
		return
	}
	// an echo of one of our writes, possibly a late one
	if i := slices.Index(s.sent[source], r); i >= 0 {
		s.sent[source] = s.sent[source][i+1:]
		return
	}
	for _, id := range PaneOrder {
		target, ok := s.panes[id]
		if !ok || id == source {
			continue
		}
		s.apply(target, r)
	}
	for _, fn := range s.observers {
		fn(source, r)
	}
}

func (s *TimeScaleSync) apply(target *Pane, r Range) {
	sent := append(s.sent[target.id], r)
	if len(sent) > echoDepth {
		sent = sent[len(sent)-echoDepth:]
	}
	s.sent[target.id] = sent
	if err := safeCall(func() error { return target.surface.SetVisibleRange(r) }); err != nil {
		if cur := s.sent[target.id]; len(cur) > 0 && cur[len(cur)-1] == r {
			s.sent[target.id] = cur[:len(cur)-1]
		}
		s.log.Warn("visible range sync failed", "pane", target.id, "error", err)
	}
}
