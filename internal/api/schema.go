package api

import (
	"github.com/danielgtaylor/huma/v2"
	"github.com/dgnsrekt/paneview/internal/panes"
)

// timeValue carries a panes.Time in request bodies: unix seconds, a
// "YYYY-MM-DD" string, or a {year, month, day} business day.
type timeValue struct {
	panes.Time
}

func (timeValue) Schema(r huma.Registry) *huma.Schema {
	return &huma.Schema{
		Description: "Unix seconds, a YYYY-MM-DD string, or a {year, month, day} business day",
		OneOf: []*huma.Schema{
			{Type: huma.TypeNumber},
			{Type: huma.TypeString},
			{
				Type:     huma.TypeObject,
				Required: []string{"year", "month", "day"},
				Properties: map[string]*huma.Schema{
					"year":  {Type: huma.TypeInteger},
					"month": {Type: huma.TypeInteger},
					"day":   {Type: huma.TypeInteger},
				},
			},
		},
	}
}

type rangeBody struct {
	From timeValue `json:"from"`
	To   timeValue `json:"to"`
}

func (b rangeBody) Range() panes.Range {
	return panes.Range{From: b.From.Time, To: b.To.Time}
}
