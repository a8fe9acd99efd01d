package panes

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
)

// Record is one time bucket of price data with its precomputed indicators.
// Nil optional fields mean the value was not computed for that bucket.
type Record struct {
	Time       Time     `json:"time"`
	Open       *float64 `json:"open"`
	High       *float64 `json:"high"`
	Low        *float64 `json:"low"`
	Close      *float64 `json:"close"`
	Volume     float64  `json:"volume"`
	EMA50      *float64 `json:"ema50,omitempty"`
	EMA100     *float64 `json:"ema100,omitempty"`
	EMA200     *float64 `json:"ema200,omitempty"`
	RSI        *float64 `json:"rsi,omitempty"`
	MACD       *float64 `json:"macd,omitempty"`
	MACDSignal *float64 `json:"macd_signal,omitempty"`
	MACDDiff   *float64 `json:"macd_diff,omitempty"`
}

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }

// Complete reports whether the record carries a time and all four prices.
func (r Record) Complete() bool {
	return !r.Time.IsZero() && r.Open != nil && r.High != nil && r.Low != nil && r.Close != nil
}

// UnmarshalJSON decodes a backend record leniently: a field that is missing,
// null or not a number is left unset, and volume falls back to 0.
func (r *Record) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*r = Record{}
	if t, ok := raw["time"]; ok {
		if err := r.Time.UnmarshalJSON(t); err != nil {
			r.Time = Time{}
		}
	}
	r.Open = optFloat(raw["open"])
	r.High = optFloat(raw["high"])
	r.Low = optFloat(raw["low"])
	r.Close = optFloat(raw["close"])
	if v := optFloat(raw["volume"]); v != nil {
		r.Volume = *v
	}
	r.EMA50 = optFloat(raw["ema50"])
	r.EMA100 = optFloat(raw["ema100"])
	r.EMA200 = optFloat(raw["ema200"])
	r.RSI = optFloat(raw["rsi"])
	r.MACD = optFloat(raw["macd"])
	r.MACDSignal = optFloat(raw["macd_signal"])
	r.MACDDiff = optFloat(raw["macd_diff"])
	return nil
}

func optFloat(raw json.RawMessage) *float64 {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		// Numeric strings are accepted, anything else is treated as absent.
		var s string
		if json.Unmarshal(raw, &s) != nil {
			return nil
		}
		f, err = strconv.ParseFloat(s, 64)
		if err != nil {
			return nil
		}
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}
