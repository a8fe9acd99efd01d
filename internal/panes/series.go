package panes

// Series colours of the default layout.
const (
	ColorVolume      = "#23446bff"
	ColorEMA50       = "#f39c12"
	ColorEMA100      = "#27ae60"
	ColorEMA200      = "#2980b9"
	ColorRSI         = "#9b59b6"
	ColorMACD        = "#3c47e7ff"
	ColorMACDSignal  = "#e74c3c"
	ColorHistRising  = "rgba(46, 204, 113, 0.5)"
	ColorHistFalling = "rgba(231, 76, 60, 0.5)"
)

// Tone classifies a histogram bar by the sign of its value.
type Tone string

const (
	ToneRising  Tone = "rising"
	ToneFalling Tone = "falling"
)

type Candle struct {
	Time  Time    `json:"time"`
	Open  float64 `json:"open"`
	High  float64 `json:"high"`
	Low   float64 `json:"low"`
	Close float64 `json:"close"`
}

type LinePoint struct {
	Time  Time    `json:"time"`
	Value float64 `json:"value"`
}

type HistogramPoint struct {
	Time  Time    `json:"time"`
	Value float64 `json:"value"`
	Color string  `json:"color,omitempty"`
	Tone  Tone    `json:"tone,omitempty"`
}

// SeriesSet holds every per-series array the panes consume. Indicator slices
// stay nil when their pane is hidden.
type SeriesSet struct {
	Candles       []Candle         `json:"candles"`
	Volume        []HistogramPoint `json:"volume"`
	EMA50         []LinePoint      `json:"ema50"`
	EMA100        []LinePoint      `json:"ema100"`
	EMA200        []LinePoint      `json:"ema200"`
	RSI           []LinePoint      `json:"rsi,omitempty"`
	MACDLine      []LinePoint      `json:"macd_line,omitempty"`
	MACDSignal    []LinePoint      `json:"macd_signal,omitempty"`
	MACDHistogram []HistogramPoint `json:"macd_histogram,omitempty"`
}

// Len returns the point count per series name.
func (s SeriesSet) Len() map[string]int {
	return map[string]int{
		"candles":        len(s.Candles),
		"volume":         len(s.Volume),
		"ema50":          len(s.EMA50),
		"ema100":         len(s.EMA100),
		"ema200":         len(s.EMA200),
		"rsi":            len(s.RSI),
		"macd_line":      len(s.MACDLine),
		"macd_signal":    len(s.MACDSignal),
		"macd_histogram": len(s.MACDHistogram),
	}
}

// BuildSeries shapes records into per-series arrays. Records without a time
// are skipped; candles and volume need all four prices, and every other
// series filters only on its own value.
func BuildSeries(records []Record, vis Visibility) SeriesSet {
	var set SeriesSet
	for _, r := range records {
		if r.Time.IsZero() {
			continue
		}
		if r.Complete() {
			set.Candles = append(set.Candles, Candle{Time: r.Time, Open: *r.Open, High: *r.High, Low: *r.Low, Close: *r.Close})
			set.Volume = append(set.Volume, HistogramPoint{Time: r.Time, Value: r.Volume, Color: ColorVolume})
		}
		set.EMA50 = appendLine(set.EMA50, r.Time, r.EMA50)
		set.EMA100 = appendLine(set.EMA100, r.Time, r.EMA100)
		set.EMA200 = appendLine(set.EMA200, r.Time, r.EMA200)
		if vis.ShowRSI {
			set.RSI = appendLine(set.RSI, r.Time, r.RSI)
		}
		if vis.ShowMACD {
			set.MACDLine = appendLine(set.MACDLine, r.Time, r.MACD)
			set.MACDSignal = appendLine(set.MACDSignal, r.Time, r.MACDSignal)
			if r.MACD != nil && r.MACDSignal != nil {
				set.MACDHistogram = append(set.MACDHistogram, histogramBar(r.Time, *r.MACD-*r.MACDSignal))
			}
		}
	}
	return set
}

func appendLine(dst []LinePoint, t Time, v *float64) []LinePoint {
	if v == nil {
		return dst
	}
	return append(dst, LinePoint{Time: t, Value: *v})
}

func histogramBar(t Time, diff float64) HistogramPoint {
	if diff >= 0 {
		return HistogramPoint{Time: t, Value: diff, Color: ColorHistRising, Tone: ToneRising}
	}
	return HistogramPoint{Time: t, Value: diff, Color: ColorHistFalling, Tone: ToneFalling}
}
