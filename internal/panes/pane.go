package panes

import (
	"errors"
	"fmt"
)

type lineBinding struct {
	name   string
	series LineSeries
	pick   func(SeriesSet) []LinePoint
}

type histogramBinding struct {
	name   string
	series HistogramSeries
	pick   func(SeriesSet) []HistogramPoint
}

// Pane is a live surface with its attached series.
type Pane struct {
	id        PaneID
	width     int
	height    int
	container Container
	surface   Surface

	// reference is the series crosshair positions are set against.
	reference  Series
	candles    CandlestickSeries
	lines      []lineBinding
	histograms []histogramBinding
	names      []string
}

func (p *Pane) ID() PaneID { return p.id }

func (p *Pane) Width() int { return p.width }

func (p *Pane) Height() int { return p.height }

func (p *Pane) Surface() Surface { return p.surface }

func (p *Pane) Container() Container { return p.container }

func (p *Pane) Reference() Series { return p.reference }

// SeriesNames lists the attached series in attachment order.
func (p *Pane) SeriesNames() []string {
	return append([]string(nil), p.names...)
}

// feed replaces the data of every attached series.
func (p *Pane) feed(set SeriesSet) error {
	var errs []error
	if p.candles != nil {
		if err := safeCall(func() error { return p.candles.SetData(set.Candles) }); err != nil {
			errs = append(errs, fmt.Errorf("candles: %w", err))
		}
	}
	for _, h := range p.histograms {
		if err := safeCall(func() error { return h.series.SetData(h.pick(set)) }); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", h.name, err))
		}
	}
	for _, l := range p.lines {
		if err := safeCall(func() error { return l.series.SetData(l.pick(set)) }); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", l.name, err))
		}
	}
	return errors.Join(errs...)
}

// attach creates the pane's surface and series. On failure the surface is
// removed again and no pane is returned.
func attach(host Host, id PaneID, c Container, height int, theme Theme) (p *Pane, err error) {
	var surface Surface
	err = safeCall(func() error {
		var cerr error
		surface, cerr = host.CreateSurface(c, SurfaceOptions{Width: c.Width(), Height: height, Theme: theme})
		return cerr
	})
	if err != nil {
		return nil, fmt.Errorf("create %s surface: %w", id, err)
	}
	if surface == nil {
		return nil, fmt.Errorf("create %s surface: host returned no surface", id)
	}
	p = &Pane{id: id, width: c.Width(), height: height, container: c, surface: surface}
	defer func() {
		if err != nil {
			_ = safeCall(surface.Remove)
			p = nil
		}
	}()
	err = safeCall(func() error {
		switch id {
		case PanePrice:
			return p.attachPrice()
		case PaneRSI:
			return p.attachRSI()
		case PaneMACD:
			return p.attachMACD()
		}
		return fmt.Errorf("unknown pane %q", id)
	})
	if err != nil {
		return p, fmt.Errorf("attach %s series: %w", id, err)
	}
	return p, nil
}

func (p *Pane) attachPrice() error {
	candles, err := p.surface.AddCandlestickSeries(SeriesOptions{Title: "price", PriceFormat: FormatPrice})
	if err != nil {
		return err
	}
	p.candles = candles
	p.reference = candles
	p.names = append(p.names, "candles")
	if err := p.addHistogram("volume", SeriesOptions{
		Color:            ColorVolume,
		PriceScaleID:     "left",
		PriceFormat:      FormatVolume,
		PriceLineVisible: true,
	}, func(s SeriesSet) []HistogramPoint { return s.Volume }); err != nil {
		return err
	}
	emas := []struct {
		name  string
		color string
		pick  func(SeriesSet) []LinePoint
	}{
		{"ema50", ColorEMA50, func(s SeriesSet) []LinePoint { return s.EMA50 }},
		{"ema100", ColorEMA100, func(s SeriesSet) []LinePoint { return s.EMA100 }},
		{"ema200", ColorEMA200, func(s SeriesSet) []LinePoint { return s.EMA200 }},
	}
	for _, e := range emas {
		if _, err := p.addLine(e.name, SeriesOptions{Title: e.name, Color: e.color, LineWidth: 2}, e.pick); err != nil {
			return err
		}
	}
	return nil
}

func (p *Pane) attachRSI() error {
	rsi, err := p.addLine("rsi", SeriesOptions{Title: "rsi", Color: ColorRSI, LineWidth: 2, PriceLineVisible: true},
		func(s SeriesSet) []LinePoint { return s.RSI })
	if err != nil {
		return err
	}
	p.reference = rsi
	return nil
}

func (p *Pane) attachMACD() error {
	line, err := p.addLine("macd_line", SeriesOptions{Title: "macd", Color: ColorMACD, LineWidth: 2, PriceFormat: FormatPrice, PriceLineVisible: true},
		func(s SeriesSet) []LinePoint { return s.MACDLine })
	if err != nil {
		return err
	}
	p.reference = line
	if _, err := p.addLine("macd_signal", SeriesOptions{Title: "signal", Color: ColorMACDSignal, LineWidth: 2, PriceLineVisible: true},
		func(s SeriesSet) []LinePoint { return s.MACDSignal }); err != nil {
		return err
	}
	return p.addHistogram("macd_histogram", SeriesOptions{
		PriceScaleID: "left",
		PriceFormat:  FormatPrice,
		Base:         Float(0),
		ScaleMargins: &ScaleMargins{Top: 0.3, Bottom: 0.3},
	}, func(s SeriesSet) []HistogramPoint { return s.MACDHistogram })
}

func (p *Pane) addLine(name string, opts SeriesOptions, pick func(SeriesSet) []LinePoint) (LineSeries, error) {
	s, err := p.surface.AddLineSeries(opts)
	if err != nil {
		return nil, fmt.Errorf("add %s: %w", name, err)
	}
	p.lines = append(p.lines, lineBinding{name: name, series: s, pick: pick})
	p.names = append(p.names, name)
	return s, nil
}

func (p *Pane) addHistogram(name string, opts SeriesOptions, pick func(SeriesSet) []HistogramPoint) error {
	s, err := p.surface.AddHistogramSeries(opts)
	if err != nil {
		return fmt.Errorf("add %s: %w", name, err)
	}
	p.histograms = append(p.histograms, histogramBinding{name: name, series: s, pick: pick})
	p.names = append(p.names, name)
	return nil
}
