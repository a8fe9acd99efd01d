package view

import (
	"context"
	"time"

	"github.com/dgnsrekt/paneview/internal/market"
	"github.com/dgnsrekt/paneview/internal/panes"
)

type PaneState struct {
	ID            panes.PaneID `json:"id"`
	Width         int          `json:"width"`
	Height        int          `json:"height"`
	VisibleRange  *panes.Range `json:"visible_range,omitempty"`
	Series        []string     `json:"series"`
	Subscriptions []string     `json:"subscriptions"`
}

type State struct {
	Ticker        string             `json:"ticker,omitempty"`
	Visibility    panes.Visibility   `json:"visibility"`
	Panes         []PaneState        `json:"panes"`
	Records       int                `json:"records"`
	Series        map[string]int     `json:"series"`
	Tooltip       TooltipView        `json:"tooltip"`
	Subscriptions int                `json:"subscriptions"`
	LatestPrice   *float64           `json:"latest_price,omitempty"`
	ValueChange   market.ValueChange `json:"value_change"`
	LoadedAt      *time.Time         `json:"loaded_at,omitempty"`
}

// TooltipView is a tooltip state with its rendered rows.
type TooltipView struct {
	Record *panes.Record        `json:"record,omitempty"`
	Fields []panes.TooltipField `json:"fields"`
}

func NewTooltipView(s panes.TooltipState, vis panes.Visibility) TooltipView {
	fields := s.Fields(vis)
	if fields == nil {
		fields = []panes.TooltipField{}
	}
	return TooltipView{Record: s.Record, Fields: fields}
}

type RangeEvent struct {
	Source panes.PaneID `json:"source"`
	Range  panes.Range  `json:"range"`
}

type DataEvent struct {
	Ticker      string   `json:"ticker,omitempty"`
	Records     int      `json:"records"`
	LatestPrice *float64 `json:"latest_price,omitempty"`
}

// State reports the live panes and the published view state.
func (v *View) State(ctx context.Context) (State, error) {
	var st State
	err := v.do(ctx, func() error {
		st = State{
			Ticker:        v.ticker,
			Visibility:    v.vis,
			Panes:         []PaneState{},
			Records:       len(v.manager.Records()),
			Series:        v.manager.Series().Len(),
			Tooltip:       NewTooltipView(v.manager.Tooltip(), v.vis),
			Subscriptions: v.manager.Subscriptions(),
			LatestPrice:   v.latest,
			ValueChange:   v.change,
		}
		if !v.loadedAt.IsZero() {
			at := v.loadedAt
			st.LoadedAt = &at
		}
		for _, id := range v.manager.Live() {
			p, _ := v.manager.Pane(id)
			ps := PaneState{
				ID:            id,
				Width:         p.Width(),
				Height:        p.Height(),
				Series:        p.SeriesNames(),
				Subscriptions: v.manager.SubscriptionNames(id),
			}
			if r, err := p.Surface().VisibleRange(); err != nil {
				v.log.Debug("visible range unavailable", "pane", id, "error", err)
			} else if !r.IsZero() {
				ps.VisibleRange = &r
			}
			st.Panes = append(st.Panes, ps)
		}
		return nil
	})
	return st, err
}
