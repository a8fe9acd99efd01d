package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/dgnsrekt/paneview/internal/panes"
	"github.com/dgnsrekt/paneview/internal/view"
)

func registerPaneHandlers(api huma.API, svc Service) {
	type pointerOutput struct {
		Body view.TooltipView
	}
	huma.Register(api, huma.Operation{OperationID: "pane-pointer", Method: http.MethodPost, Path: "/api/v1/panes/{pane}/pointer", Summary: "Inject a pointer move", Description: "Moves the pointer on a pane. Omit x/y (or time) to report the pointer outside the plot area.", Tags: []string{"Panes"}},
		func(ctx context.Context, input *struct {
			Pane string `path:"pane" enum:"price,rsi,macd" doc:"Pane id"`
			Body struct {
				Time *timeValue `json:"time,omitempty"`
				X    *float64   `json:"x,omitempty" doc:"Pixel x"`
				Y    *float64   `json:"y,omitempty" doc:"Pixel y"`
			}
		}) (*pointerOutput, error) {
			var ev panes.PointerEvent
			if input.Body.Time != nil {
				ev.Time = input.Body.Time.Time
			}
			if input.Body.X != nil && input.Body.Y != nil {
				ev.Point = &panes.Pixel{X: *input.Body.X, Y: *input.Body.Y}
			}
			tv, err := svc.Pointer(ctx, input.Pane, ev)
			if err != nil {
				return nil, mapErr(err)
			}
			return &pointerOutput{Body: tv}, nil
		})

	huma.Register(api, huma.Operation{OperationID: "pane-range", Method: http.MethodPut, Path: "/api/v1/panes/{pane}/range", Summary: "Inject a user range change", Description: "Pans or zooms one pane; the other live panes follow.", Tags: []string{"Panes"}},
		func(ctx context.Context, input *struct {
			Pane string `path:"pane" enum:"price,rsi,macd" doc:"Pane id"`
			Body rangeBody
		}) (*statusOutput, error) {
			if err := svc.Pan(ctx, input.Pane, input.Body.Range()); err != nil {
				return nil, mapErr(err)
			}
			return newStatus("applied"), nil
		})
}
