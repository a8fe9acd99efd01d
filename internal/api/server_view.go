package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/dgnsrekt/paneview/internal/market"
	"github.com/dgnsrekt/paneview/internal/panes"
	"github.com/dgnsrekt/paneview/internal/view"
)

func registerViewHandlers(api huma.API, svc Service) {
	huma.Register(api, huma.Operation{OperationID: "get-view", Method: http.MethodGet, Path: "/api/v1/view", Summary: "Get view state", Description: "Live panes with their size, visible range and series, plus visibility, tooltip and subscription counts.", Tags: []string{"View"}},
		func(ctx context.Context, input *struct{}) (*stateOutput, error) {
			st, err := svc.State(ctx)
			if err != nil {
				return nil, mapErr(err)
			}
			return &stateOutput{Body: st}, nil
		})

	huma.Register(api, huma.Operation{OperationID: "set-visibility", Method: http.MethodPut, Path: "/api/v1/view/visibility", Summary: "Set indicator pane visibility", Tags: []string{"View"}},
		func(ctx context.Context, input *struct {
			Body panes.Visibility
		}) (*stateOutput, error) {
			st, err := svc.SetVisibility(ctx, input.Body)
			if err != nil {
				return nil, mapErr(err)
			}
			return &stateOutput{Body: st}, nil
		})

	huma.Register(api, huma.Operation{OperationID: "load-records", Method: http.MethodPost, Path: "/api/v1/view/records", Summary: "Load a backend response", Description: "Accepts a historical data response body ({data, latest_price, value_change}). Malformed records are dropped; a malformed body loads as empty.", Tags: []string{"View"}},
		func(ctx context.Context, input *struct {
			Ticker  string `query:"ticker" doc:"Ticker the records belong to"`
			RawBody []byte
		}) (*stateOutput, error) {
			resp, err := market.Decode(input.RawBody)
			if err != nil {
				return nil, mapErr(err)
			}
			st, err := svc.LoadRecords(ctx, input.Ticker, resp)
			if err != nil {
				return nil, mapErr(err)
			}
			return &stateOutput{Body: st}, nil
		})

	huma.Register(api, huma.Operation{OperationID: "load-ticker", Method: http.MethodPost, Path: "/api/v1/view/load", Summary: "Fetch and load a ticker", Tags: []string{"View"}},
		func(ctx context.Context, input *struct {
			Body struct {
				Ticker string `json:"ticker" doc:"Ticker symbol" example:"BTC-USD"`
			}
		}) (*stateOutput, error) {
			st, err := svc.LoadTicker(ctx, input.Body.Ticker)
			if err != nil {
				return nil, mapErr(err)
			}
			return &stateOutput{Body: st}, nil
		})

	type seriesOutput struct {
		Body panes.SeriesSet
	}
	huma.Register(api, huma.Operation{OperationID: "get-series", Method: http.MethodGet, Path: "/api/v1/view/series", Summary: "Get per-series arrays", Tags: []string{"View"}},
		func(ctx context.Context, input *struct{}) (*seriesOutput, error) {
			set, err := svc.Series(ctx)
			if err != nil {
				return nil, mapErr(err)
			}
			return &seriesOutput{Body: set}, nil
		})

	type tooltipOutput struct {
		Body view.TooltipView
	}
	huma.Register(api, huma.Operation{OperationID: "get-tooltip", Method: http.MethodGet, Path: "/api/v1/view/tooltip", Summary: "Get tooltip state", Tags: []string{"View"}},
		func(ctx context.Context, input *struct{}) (*tooltipOutput, error) {
			tv, err := svc.Tooltip(ctx)
			if err != nil {
				return nil, mapErr(err)
			}
			return &tooltipOutput{Body: tv}, nil
		})

	type resizeOutput struct {
		Body struct {
			Width int `json:"width"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "resize-view", Method: http.MethodPost, Path: "/api/v1/view/resize", Summary: "Resize panes to the container width", Description: "Sets the container width when width > 0, then resizes every live pane to it.", Tags: []string{"View"}},
		func(ctx context.Context, input *struct {
			Body struct {
				Width int `json:"width,omitempty" minimum:"0" doc:"New container width in pixels; 0 keeps the current width"`
			}
		}) (*resizeOutput, error) {
			width, err := svc.Resize(ctx, input.Body.Width)
			if err != nil {
				return nil, mapErr(err)
			}
			out := &resizeOutput{}
			out.Body.Width = width
			return out, nil
		})

	huma.Register(api, huma.Operation{OperationID: "pointer-leave", Method: http.MethodPost, Path: "/api/v1/view/leave", Summary: "Pointer left the panes", Tags: []string{"View"}},
		func(ctx context.Context, input *struct{}) (*statusOutput, error) {
			if err := svc.Leave(ctx); err != nil {
				return nil, mapErr(err)
			}
			return newStatus("cleared"), nil
		})
}
