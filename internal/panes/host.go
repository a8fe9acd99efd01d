package panes

// PaneID identifies one of the stacked panes.
type PaneID string

const (
	PanePrice PaneID = "price"
	PaneRSI   PaneID = "rsi"
	PaneMACD  PaneID = "macd"
)

// PaneOrder is the top to bottom stacking order.
var PaneOrder = []PaneID{PanePrice, PaneRSI, PaneMACD}

func ParsePaneID(s string) (PaneID, bool) {
	for _, id := range PaneOrder {
		if string(id) == s {
			return id, true
		}
	}
	return "", false
}

// Visibility selects the optional indicator panes.
type Visibility struct {
	ShowRSI  bool `json:"show_rsi"`
	ShowMACD bool `json:"show_macd"`
}

// Shows reports whether the pane's governing condition holds.
func (v Visibility) Shows(id PaneID) bool {
	switch id {
	case PanePrice:
		return true
	case PaneRSI:
		return v.ShowRSI
	case PaneMACD:
		return v.ShowMACD
	}
	return false
}

// Container is the host element a pane is mounted into.
type Container interface {
	Width() int
}

type Containers map[PaneID]Container

// Theme is the layout map handed to every new surface.
type Theme struct {
	Background    string `json:"background" yaml:"background"`
	Text          string `json:"text" yaml:"text"`
	Grid          string `json:"grid" yaml:"grid"`
	CrosshairMode string `json:"crosshair_mode" yaml:"crosshair_mode"`
	TimeVisible   bool   `json:"time_visible" yaml:"time_visible"`
	// Margins of the right (price) and left (volume, histogram) scales.
	RightMargins ScaleMargins `json:"right_margins" yaml:"right_margins"`
	LeftMargins  ScaleMargins `json:"left_margins" yaml:"left_margins"`
}

func DefaultTheme() Theme {
	return Theme{
		Background:    "#1e1e1e",
		Text:          "#d1d4dc",
		Grid:          "#2c2c2cff",
		CrosshairMode: "normal",
		TimeVisible:   true,
		RightMargins:  ScaleMargins{Top: 0.1, Bottom: 0.3},
		LeftMargins:   ScaleMargins{Top: 0.7, Bottom: 0},
	}
}

type SurfaceOptions struct {
	Width  int   `json:"width"`
	Height int   `json:"height"`
	Theme  Theme `json:"theme"`
}

type ScaleMargins struct {
	Top    float64 `json:"top" yaml:"top"`
	Bottom float64 `json:"bottom" yaml:"bottom"`
}

// Price formats understood by hosts.
const (
	FormatPrice  = "price"
	FormatVolume = "volume"
)

type SeriesOptions struct {
	Title            string        `json:"title,omitempty"`
	Color            string        `json:"color,omitempty"`
	LineWidth        int           `json:"lineWidth,omitempty"`
	PriceScaleID     string        `json:"priceScaleId,omitempty"`
	PriceFormat      string        `json:"priceFormat,omitempty"`
	PriceLineVisible bool          `json:"priceLineVisible"`
	Base             *float64      `json:"base,omitempty"`
	ScaleMargins     *ScaleMargins `json:"scaleMargins,omitempty"`
}

// Series is any series attached to a surface.
type Series interface {
	// CoordinateToPrice maps a y pixel to a price on the series' scale.
	CoordinateToPrice(y float64) (float64, bool)
}

type CandlestickSeries interface {
	Series
	SetData(points []Candle) error
}

type LineSeries interface {
	Series
	SetData(points []LinePoint) error
}

type HistogramSeries interface {
	Series
	SetData(points []HistogramPoint) error
}

type Pixel struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// PointerEvent is a crosshair move. A zero Time or nil Point means the
// pointer is outside the plot area.
type PointerEvent struct {
	Time  Time   `json:"time"`
	Point *Pixel `json:"point,omitempty"`
}

// Disposer cancels a subscription.
type Disposer func()

// Surface is one independently rendered chart.
type Surface interface {
	AddCandlestickSeries(opts SeriesOptions) (CandlestickSeries, error)
	AddLineSeries(opts SeriesOptions) (LineSeries, error)
	AddHistogramSeries(opts SeriesOptions) (HistogramSeries, error)
	SubscribeVisibleRangeChange(fn func(Range)) (Disposer, error)
	SubscribeCrosshairMove(fn func(PointerEvent)) (Disposer, error)
	VisibleRange() (Range, error)
	SetVisibleRange(r Range) error
	SetCrosshairPosition(price float64, t Time, s Series) error
	ClearCrosshairPosition() error
	Resize(width, height int) error
	Remove() error
}

// Host is the rendering library.
type Host interface {
	CreateSurface(c Container, opts SurfaceOptions) (Surface, error)
}
