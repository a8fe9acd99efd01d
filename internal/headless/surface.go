package headless

import (
	"slices"
	"sync"

	"github.com/dgnsrekt/paneview/internal/panes"
)

// Crosshair is the crosshair position last set on a surface.
type Crosshair struct {
	Visible bool
	Price   float64
	Time    panes.Time
	Series  panes.Series
}

type Surface struct {
	mu        sync.Mutex
	id        int
	echo      bool
	container panes.Container
	opts      panes.SurfaceOptions
	width     int
	height    int
	removed   bool
	nextSub   int
	rangeSubs map[int]func(panes.Range)
	crossSubs map[int]func(panes.PointerEvent)
	visible   panes.Range
	crosshair Crosshair
	series    []*base
}

func (s *Surface) ID() int { return s.id }

func (s *Surface) Container() panes.Container { return s.container }

func (s *Surface) Options() panes.SurfaceOptions { return s.opts }

func (s *Surface) AddCandlestickSeries(opts panes.SeriesOptions) (panes.CandlestickSeries, error) {
	b, err := s.addSeries("candlestick", opts)
	if err != nil {
		return nil, err
	}
	return &CandleSeries{base: b}, nil
}

func (s *Surface) AddLineSeries(opts panes.SeriesOptions) (panes.LineSeries, error) {
	b, err := s.addSeries("line", opts)
	if err != nil {
		return nil, err
	}
	return &LineSeries{base: b}, nil
}

func (s *Surface) AddHistogramSeries(opts panes.SeriesOptions) (panes.HistogramSeries, error) {
	b, err := s.addSeries("histogram", opts)
	if err != nil {
		return nil, err
	}
	return &HistogramSeries{base: b}, nil
}

func (s *Surface) addSeries(kind string, opts panes.SeriesOptions) (*base, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.removed {
		return nil, panes.ErrSurfaceRemoved
	}
	b := &base{surface: s, kind: kind, opts: opts}
	s.series = append(s.series, b)
	return b, nil
}

// Series describes the attached series in attachment order.
func (s *Surface) Series() []SeriesInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]SeriesInfo, 0, len(s.series))
	for _, b := range s.series {
		out = append(out, b.info())
	}
	return out
}

func (s *Surface) SubscribeVisibleRangeChange(fn func(panes.Range)) (panes.Disposer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.removed {
		return nil, panes.ErrSurfaceRemoved
	}
	s.nextSub++
	id := s.nextSub
	s.rangeSubs[id] = fn
	return func() {
		s.mu.Lock()
		delete(s.rangeSubs, id)
		s.mu.Unlock()
	}, nil
}

func (s *Surface) SubscribeCrosshairMove(fn func(panes.PointerEvent)) (panes.Disposer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.removed {
		return nil, panes.ErrSurfaceRemoved
	}
	s.nextSub++
	id := s.nextSub
	s.crossSubs[id] = fn
	return func() {
		s.mu.Lock()
		delete(s.crossSubs, id)
		s.mu.Unlock()
	}, nil
}

func (s *Surface) RangeSubscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rangeSubs)
}

func (s *Surface) CrosshairSubscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.crossSubs)
}

func (s *Surface) VisibleRange() (panes.Range, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.removed {
		return panes.Range{}, panes.ErrSurfaceRemoved
	}
	return s.visible, nil
}

func (s *Surface) SetVisibleRange(r panes.Range) error {
	s.mu.Lock()
	if s.removed {
		s.mu.Unlock()
		return panes.ErrSurfaceRemoved
	}
	s.visible = r
	echo := s.echo
	s.mu.Unlock()
	if echo {
		s.notifyRange(r)
	}
	return nil
}

// InjectRangeChange simulates the user panning or zooming the surface.
func (s *Surface) InjectRangeChange(r panes.Range) error {
	s.mu.Lock()
	if s.removed {
		s.mu.Unlock()
		return panes.ErrSurfaceRemoved
	}
	s.visible = r
	s.mu.Unlock()
	s.notifyRange(r)
	return nil
}

// InjectPointer simulates a crosshair move over the surface.
func (s *Surface) InjectPointer(ev panes.PointerEvent) error {
	s.mu.Lock()
	if s.removed {
		s.mu.Unlock()
		return panes.ErrSurfaceRemoved
	}
	subs := make([]func(panes.PointerEvent), 0, len(s.crossSubs))
	for _, id := range sortedKeys(s.crossSubs) {
		subs = append(subs, s.crossSubs[id])
	}
	s.mu.Unlock()
	for _, fn := range subs {
		fn(ev)
	}
	return nil
}

func (s *Surface) notifyRange(r panes.Range) {
	s.mu.Lock()
	subs := make([]func(panes.Range), 0, len(s.rangeSubs))
	for _, id := range sortedKeys(s.rangeSubs) {
		subs = append(subs, s.rangeSubs[id])
	}
	s.mu.Unlock()
	for _, fn := range subs {
		fn(r)
	}
}

func (s *Surface) SetCrosshairPosition(price float64, t panes.Time, series panes.Series) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.removed {
		return panes.ErrSurfaceRemoved
	}
	s.crosshair = Crosshair{Visible: true, Price: price, Time: t, Series: series}
	return nil
}

func (s *Surface) ClearCrosshairPosition() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.removed {
		return panes.ErrSurfaceRemoved
	}
	s.crosshair = Crosshair{}
	return nil
}

func (s *Surface) Crosshair() Crosshair {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.crosshair
}

func (s *Surface) Resize(width, height int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.removed {
		return panes.ErrSurfaceRemoved
	}
	s.width, s.height = width, height
	return nil
}

func (s *Surface) Size() (width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.width, s.height
}

func (s *Surface) Remove() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.removed {
		return panes.ErrSurfaceRemoved
	}
	s.removed = true
	return nil
}

func (s *Surface) Removed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.removed
}

func sortedKeys[V any](m map[int]V) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
