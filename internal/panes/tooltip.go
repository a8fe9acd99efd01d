package panes

import (
	"log/slog"

	"github.com/dustin/go-humanize"
)

// TooltipState is the record under the pointer; a nil Record is empty.
type TooltipState struct {
	Record *Record `json:"record,omitempty"`
}

func (s TooltipState) Empty() bool { return s.Record == nil }

// TooltipField is one rendered tooltip row.
type TooltipField struct {
	Label string `json:"label"`
	Value string `json:"value,omitempty"`
}

// Fields renders the tooltip rows. Optional values that are missing keep
// their row with an empty value.
func (s TooltipState) Fields(vis Visibility) []TooltipField {
	if s.Record == nil {
		return nil
	}
	r := s.Record
	fields := []TooltipField{
		{Label: "Date", Value: r.Time.String()},
		{Label: "Close", Value: money(r.Close)},
		{Label: "Volume", Value: money(&r.Volume)},
	}
	if vis.ShowRSI {
		fields = append(fields, TooltipField{Label: "RSI", Value: number(r.RSI)})
	}
	if vis.ShowMACD {
		fields = append(fields,
			TooltipField{Label: "MACD Line", Value: number(r.MACD)},
			TooltipField{Label: "MACD Signal", Value: number(r.MACDSignal)},
			TooltipField{Label: "MACD Difference", Value: number(r.MACDDiff)},
		)
	}
	return fields
}

func number(v *float64) string {
	if v == nil {
		return ""
	}
	return humanize.CommafWithDigits(*v, 3)
}

func money(v *float64) string {
	if v == nil {
		return ""
	}
	return "$" + number(v)
}

// TooltipCorrelator resolves price pane pointer moves to the record at the
// hovered time.
type TooltipCorrelator struct {
	log       *slog.Logger
	arena     *Arena
	attached  bool
	records   []Record
	index     map[string]int
	state     TooltipState
	observers []func(TooltipState)
}

func NewTooltipCorrelator(log *slog.Logger, arena *Arena) *TooltipCorrelator {
	return &TooltipCorrelator{log: log, arena: arena, index: make(map[string]int)}
}

func (c *TooltipCorrelator) OnChange(fn func(TooltipState)) {
	c.observers = append(c.observers, fn)
}

// SetRecords rebuilds the time index.
func (c *TooltipCorrelator) SetRecords(records []Record) {
	c.records = records
	c.index = make(map[string]int, len(records))
	for i, r := range records {
		if r.Time.IsZero() {
			continue
		}
		if _, dup := c.index[r.Time.Key()]; dup {
			c.log.Debug("duplicate record time", "time", r.Time.Key())
			continue
		}
		c.index[r.Time.Key()] = i
	}
}

func (c *TooltipCorrelator) Attach(p *Pane) error {
	d, err := p.surface.SubscribeCrosshairMove(c.onMove)
	if err != nil {
		return err
	}
	c.arena.Track(p.id, "tooltip", d)
	c.attached = true
	return nil
}

func (c *TooltipCorrelator) Detach() {
	c.attached = false
	c.publish(TooltipState{})
}

func (c *TooltipCorrelator) State() TooltipState { return c.state }

// Lookup returns the record whose time equals t exactly.
func (c *TooltipCorrelator) Lookup(t Time) (Record, bool) {
	if t.IsZero() {
		return Record{}, false
	}
	i, ok := c.index[t.Key()]
	if !ok {
		return Record{}, false
	}
	return c.records[i], true
}

func (c *TooltipCorrelator) onMove(ev PointerEvent) {
	if !c.attached {
		return
	}
	rec, ok := c.Lookup(ev.Time)
	if !ok {
		c.publish(TooltipState{})
		return
	}
	c.publish(TooltipState{Record: &rec})
}

// Leave clears the tooltip.
func (c *TooltipCorrelator) Leave() { c.publish(TooltipState{}) }

func (c *TooltipCorrelator) publish(s TooltipState) {
	if s.Empty() && c.state.Empty() {
		return
	}
	c.state = s
	for _, fn := range c.observers {
		fn(s)
	}
}
