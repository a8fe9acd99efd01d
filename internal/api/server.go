package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/dgnsrekt/paneview/internal/cdphost"
	"github.com/dgnsrekt/paneview/internal/controller"
	"github.com/dgnsrekt/paneview/internal/market"
	"github.com/dgnsrekt/paneview/internal/panes"
	"github.com/dgnsrekt/paneview/internal/relay"
	"github.com/dgnsrekt/paneview/internal/snapshot"
	"github.com/dgnsrekt/paneview/internal/view"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type Service interface {
	State(ctx context.Context) (view.State, error)
	SetVisibility(ctx context.Context, vis panes.Visibility) (view.State, error)
	LoadRecords(ctx context.Context, ticker string, resp market.Response) (view.State, error)
	LoadTicker(ctx context.Context, ticker string) (view.State, error)
	Series(ctx context.Context) (panes.SeriesSet, error)
	Tooltip(ctx context.Context) (view.TooltipView, error)
	Resize(ctx context.Context, width int) (int, error)
	Pointer(ctx context.Context, pane string, ev panes.PointerEvent) (view.TooltipView, error)
	Leave(ctx context.Context) error
	Pan(ctx context.Context, pane string, r panes.Range) error
	TakeSnapshot(ctx context.Context, notes string) (snapshot.Meta, error)
	ListSnapshots(ctx context.Context) ([]snapshot.Meta, error)
	GetSnapshot(ctx context.Context, id string) (snapshot.Meta, error)
	ReadSnapshotImage(ctx context.Context, id string) ([]byte, string, error)
	DeleteSnapshot(ctx context.Context, id string) error
}

type stateOutput struct {
	Body view.State
}

type statusOutput struct {
	Body struct {
		Status string `json:"status"`
	}
}

func newStatus(status string) *statusOutput {
	out := &statusOutput{}
	out.Body.Status = status
	return out
}

// NewServer builds the control API. broker may be nil, which leaves the
// event stream routes unmounted.
func NewServer(svc Service, broker *relay.Broker) http.Handler {
	router := chi.NewMux()
	router.Use(middleware.RequestID)
	router.Use(requestLogger)
	router.Use(middleware.Recoverer)

	cfg := huma.DefaultConfig("Paneview Control API", "1.0.0")
	cfg.DocsPath = ""
	api := humachi.New(router, cfg)

	router.Get("/docs", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		if _, err := w.Write([]byte(docsHTML)); err != nil {
			slog.Debug("docs response write failed", "error", err)
		}
	})
	router.Get("/docs/events", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		if _, err := w.Write([]byte(eventsDocsHTML)); err != nil {
			slog.Debug("events docs response write failed", "error", err)
		}
	})
	router.Get("/surface", cdphost.PageHandler)

	if broker != nil {
		router.Get("/api/v1/events", relay.SSEHandler(broker))
		router.Get("/api/v1/events/ws", relay.WSHandler(broker))
	}

	registerViewHandlers(api, svc)
	registerPaneHandlers(api, svc)
	registerSnapshotHandlers(api, svc)

	return router
}

func mapErr(err error) error {
	if err == nil {
		return nil
	}
	var (
		verr    *controller.ValidationError
		backend *market.BackendError
		coded   *cdphost.CodedError
	)
	switch {
	case errors.As(err, &verr):
		return huma.Error400BadRequest(verr.Message)
	case errors.Is(err, snapshot.ErrInvalidID):
		return huma.Error400BadRequest(err.Error())
	case errors.Is(err, view.ErrUnknownPane), errors.Is(err, snapshot.ErrNotFound):
		return huma.Error404NotFound(err.Error())
	case errors.Is(err, view.ErrPaneNotLive), errors.Is(err, view.ErrNoTicker):
		return huma.Error409Conflict(err.Error())
	case errors.Is(err, view.ErrUnsupported):
		return huma.Error501NotImplemented(err.Error())
	case errors.Is(err, view.ErrClosed):
		return huma.Error503ServiceUnavailable(err.Error())
	case errors.As(err, &backend):
		return huma.Error502BadGateway(fmt.Sprintf("backend: %s", backend.Message))
	case errors.As(err, &coded):
		switch coded.Code {
		case cdphost.CodeEvalTimeout:
			return huma.Error504GatewayTimeout(coded.Message)
		case cdphost.CodeCDPUnavailable:
			return huma.Error502BadGateway(coded.Message)
		default:
			return huma.Error500InternalServerError(fmt.Sprintf("%s: %s", coded.Code, coded.Message))
		}
	case errors.Is(err, context.DeadlineExceeded):
		return huma.Error504GatewayTimeout(err.Error())
	}
	return huma.Error500InternalServerError(err.Error())
}
