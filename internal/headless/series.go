package headless

import (
	"sync"

	"github.com/dgnsrekt/paneview/internal/panes"
)

// SeriesInfo summarizes one attached series.
type SeriesInfo struct {
	Kind         string
	Options      panes.SeriesOptions
	Points       int
	SetDataCalls int
}

type base struct {
	surface *Surface
	kind    string
	opts    panes.SeriesOptions

	mu     sync.Mutex
	points int
	calls  int
	lo, hi float64
}

func (b *base) info() SeriesInfo {
	b.mu.Lock()
	defer b.mu.Unlock()
	return SeriesInfo{Kind: b.kind, Options: b.opts, Points: b.points, SetDataCalls: b.calls}
}

func (b *base) record(n int, values func(yield func(float64))) error {
	if b.surface.Removed() {
		return panes.ErrSurfaceRemoved
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls++
	b.points = n
	first := true
	values(func(v float64) {
		if first || v < b.lo {
			b.lo = v
		}
		if first || v > b.hi {
			b.hi = v
		}
		first = false
	})
	if first {
		b.lo, b.hi = 0, 0
	}
	return nil
}

// CoordinateToPrice maps y linearly over the data's value span, top of the
// surface being the highest value.
func (b *base) CoordinateToPrice(y float64) (float64, bool) {
	_, height := b.surface.Size()
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.points == 0 || height <= 0 || y < 0 || y > float64(height) {
		return 0, false
	}
	return b.hi - (y/float64(height))*(b.hi-b.lo), true
}

type CandleSeries struct {
	*base
	dataMu sync.Mutex
	data   []panes.Candle
}

func (s *CandleSeries) SetData(points []panes.Candle) error {
	err := s.record(len(points), func(yield func(float64)) {
		for _, c := range points {
			yield(c.Low)
			yield(c.High)
		}
	})
	if err != nil {
		return err
	}
	s.dataMu.Lock()
	s.data = append([]panes.Candle(nil), points...)
	s.dataMu.Unlock()
	return nil
}

func (s *CandleSeries) Data() []panes.Candle {
	s.dataMu.Lock()
	defer s.dataMu.Unlock()
	return append([]panes.Candle(nil), s.data...)
}

type LineSeries struct {
	*base
	dataMu sync.Mutex
	data   []panes.LinePoint
}

func (s *LineSeries) SetData(points []panes.LinePoint) error {
	err := s.record(len(points), func(yield func(float64)) {
		for _, p := range points {
			yield(p.Value)
		}
	})
	if err != nil {
		return err
	}
	s.dataMu.Lock()
	s.data = append([]panes.LinePoint(nil), points...)
	s.dataMu.Unlock()
	return nil
}

func (s *LineSeries) Data() []panes.LinePoint {
	s.dataMu.Lock()
	defer s.dataMu.Unlock()
	return append([]panes.LinePoint(nil), s.data...)
}

type HistogramSeries struct {
	*base
	dataMu sync.Mutex
	data   []panes.HistogramPoint
}

func (s *HistogramSeries) SetData(points []panes.HistogramPoint) error {
	err := s.record(len(points), func(yield func(float64)) {
		for _, p := range points {
			yield(p.Value)
		}
	})
	if err != nil {
		return err
	}
	s.dataMu.Lock()
	s.data = append([]panes.HistogramPoint(nil), points...)
	s.dataMu.Unlock()
	return nil
}

func (s *HistogramSeries) Data() []panes.HistogramPoint {
	s.dataMu.Lock()
	defer s.dataMu.Unlock()
	return append([]panes.HistogramPoint(nil), s.data...)
}
