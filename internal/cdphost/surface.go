package cdphost

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"

	"github.com/dgnsrekt/paneview/internal/panes"
)

const (
	kindRange     = "range"
	kindCrosshair = "crosshair"
)

// Surface is one lightweight-charts instance on the page. Subscriptions are
// kept Go-side; the page only reports which subscription fired.
type Surface struct {
	host *Host
	id   int
	opts panes.SurfaceOptions

	mu         sync.Mutex
	removed    bool
	nextSeries int
	nextSub    int
	rangeSubs  map[int]func(panes.Range)
	crossSubs  map[int]func(panes.PointerEvent)
}

func newSurface(h *Host, id int, opts panes.SurfaceOptions) *Surface {
	return &Surface{
		host:      h,
		id:        id,
		opts:      opts,
		rangeSubs: make(map[int]func(panes.Range)),
		crossSubs: make(map[int]func(panes.PointerEvent)),
	}
}

func (s *Surface) ID() int { return s.id }

func (s *Surface) call(fn string, out any, args ...any) error {
	s.mu.Lock()
	removed := s.removed
	s.mu.Unlock()
	if removed {
		return panes.ErrSurfaceRemoved
	}
	return s.host.eval(context.Background(), fn, out, append([]any{s.id}, args...)...)
}

func (s *Surface) addSeries(kind string, opts panes.SeriesOptions) (*series, error) {
	s.mu.Lock()
	s.nextSeries++
	id := s.nextSeries
	s.mu.Unlock()
	if err := s.call("addSeries", nil, id, kind, opts); err != nil {
		return nil, err
	}
	return &series{surface: s, id: id}, nil
}

func (s *Surface) AddCandlestickSeries(opts panes.SeriesOptions) (panes.CandlestickSeries, error) {
	b, err := s.addSeries("candlestick", opts)
	if err != nil {
		return nil, err
	}
	return &CandleSeries{series: b}, nil
}

func (s *Surface) AddLineSeries(opts panes.SeriesOptions) (panes.LineSeries, error) {
	b, err := s.addSeries("line", opts)
	if err != nil {
		return nil, err
	}
	return &LineSeries{series: b}, nil
}

func (s *Surface) AddHistogramSeries(opts panes.SeriesOptions) (panes.HistogramSeries, error) {
	b, err := s.addSeries("histogram", opts)
	if err != nil {
		return nil, err
	}
	return &HistogramSeries{series: b}, nil
}

func (s *Surface) subscribe(kind string, add func(id int)) (panes.Disposer, error) {
	s.mu.Lock()
	s.nextSub++
	id := s.nextSub
	add(id)
	s.mu.Unlock()

	if err := s.call("subscribe", nil, id, kind); err != nil {
		s.drop(id)
		return nil, err
	}
	return func() {
		s.drop(id)
		if err := s.call("unsubscribe", nil, id); err != nil && !errors.Is(err, panes.ErrSurfaceRemoved) {
			slog.Debug("cdphost unsubscribe failed", "surface", s.id, "sub", id, "error", err)
		}
	}, nil
}

func (s *Surface) drop(id int) {
	s.mu.Lock()
	delete(s.rangeSubs, id)
	delete(s.crossSubs, id)
	s.mu.Unlock()
}

func (s *Surface) SubscribeVisibleRangeChange(fn func(panes.Range)) (panes.Disposer, error) {
	return s.subscribe(kindRange, func(id int) { s.rangeSubs[id] = fn })
}

func (s *Surface) SubscribeCrosshairMove(fn func(panes.PointerEvent)) (panes.Disposer, error) {
	return s.subscribe(kindCrosshair, func(id int) { s.crossSubs[id] = fn })
}

// deliver runs the subscription named by ev, if it is still registered.
func (s *Surface) deliver(ev bindingEvent) {
	s.mu.Lock()
	removed := s.removed
	rangeFn := s.rangeSubs[ev.Sub]
	crossFn := s.crossSubs[ev.Sub]
	s.mu.Unlock()
	if removed {
		return
	}

	switch ev.Kind {
	case kindRange:
		if rangeFn == nil {
			return
		}
		var r panes.Range
		if err := json.Unmarshal(ev.Data, &r); err != nil {
			slog.Debug("cdphost range payload invalid", "surface", s.id, "error", err)
			return
		}
		rangeFn(r)
	case kindCrosshair:
		if crossFn == nil {
			return
		}
		var pe panes.PointerEvent
		if err := json.Unmarshal(ev.Data, &pe); err != nil {
			slog.Debug("cdphost crosshair payload invalid", "surface", s.id, "error", err)
			return
		}
		crossFn(pe)
	}
}

func (s *Surface) VisibleRange() (panes.Range, error) {
	var r panes.Range
	err := s.call("visibleRange", &r)
	return r, err
}

func (s *Surface) SetVisibleRange(r panes.Range) error {
	return s.call("setVisibleRange", nil, r)
}

func (s *Surface) SetCrosshairPosition(price float64, t panes.Time, target panes.Series) error {
	seriesID := 0
	if ts, ok := target.(interface{ seriesID() int }); ok {
		seriesID = ts.seriesID()
	}
	return s.call("setCrosshair", nil, price, t, seriesID)
}

func (s *Surface) ClearCrosshairPosition() error {
	return s.call("clearCrosshair", nil)
}

func (s *Surface) Resize(width, height int) error {
	return s.call("resize", nil, width, height)
}

// Remove destroys the chart. Subscriptions die with it.
func (s *Surface) Remove() error {
	if err := s.call("remove", nil); err != nil {
		return err
	}
	s.mu.Lock()
	s.removed = true
	s.rangeSubs = map[int]func(panes.Range){}
	s.crossSubs = map[int]func(panes.PointerEvent){}
	s.mu.Unlock()
	s.host.forget(s.id)
	return nil
}

// InjectRangeChange moves the visible range as a user pan would; the page
// reports the change back through the range subscriptions.
func (s *Surface) InjectRangeChange(r panes.Range) error {
	return s.call("setVisibleRange", nil, r)
}

// InjectPointer delivers a crosshair move straight to the subscribers, as a
// page event would.
func (s *Surface) InjectPointer(ev panes.PointerEvent) error {
	s.mu.Lock()
	if s.removed {
		s.mu.Unlock()
		return panes.ErrSurfaceRemoved
	}
	subs := make([]func(panes.PointerEvent), 0, len(s.crossSubs))
	for _, fn := range s.crossSubs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(ev)
	}
	return nil
}

type series struct {
	surface *Surface
	id      int
}

func (b *series) seriesID() int { return b.id }

func (b *series) CoordinateToPrice(y float64) (float64, bool) {
	var price *float64
	if err := b.surface.call("coordinateToPrice", &price, b.id, y); err != nil {
		slog.Debug("cdphost coordinate lookup failed", "surface", b.surface.id, "error", err)
		return 0, false
	}
	if price == nil {
		return 0, false
	}
	return *price, true
}

func (b *series) setData(points any) error {
	return b.surface.call("setData", nil, b.id, points)
}

type CandleSeries struct{ *series }

func (c *CandleSeries) SetData(points []panes.Candle) error { return c.setData(points) }

type LineSeries struct{ *series }

func (l *LineSeries) SetData(points []panes.LinePoint) error { return l.setData(points) }

type HistogramSeries struct{ *series }

func (h *HistogramSeries) SetData(points []panes.HistogramPoint) error { return h.setData(points) }
