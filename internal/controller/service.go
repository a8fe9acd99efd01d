package controller

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dgnsrekt/paneview/internal/market"
	"github.com/dgnsrekt/paneview/internal/panes"
	"github.com/dgnsrekt/paneview/internal/snapshot"
	"github.com/dgnsrekt/paneview/internal/view"
)

// ValidationError reports a bad request argument.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Service wraps view control and snapshot operations for the API.
type Service struct {
	view  *view.View
	snaps *snapshot.Store
}

// NewService returns a Service. snaps may be nil when snapshots are disabled.
func NewService(v *view.View, snaps *snapshot.Store) *Service {
	return &Service{view: v, snaps: snaps}
}

func (s *Service) requireNonEmpty(value, fieldName string) error {
	if strings.TrimSpace(value) == "" {
		return &ValidationError{Message: fieldName + " is required"}
	}
	return nil
}

func parsePane(name string) (panes.PaneID, error) {
	id, ok := panes.ParsePaneID(strings.ToLower(strings.TrimSpace(name)))
	if !ok {
		return "", fmt.Errorf("%w: %q", view.ErrUnknownPane, name)
	}
	return id, nil
}

func (s *Service) State(ctx context.Context) (view.State, error) {
	return s.view.State(ctx)
}

func (s *Service) SetVisibility(ctx context.Context, vis panes.Visibility) (view.State, error) {
	if err := s.view.SetVisibility(ctx, vis); err != nil {
		return view.State{}, err
	}
	return s.view.State(ctx)
}

// LoadRecords loads a backend response body. ticker is optional.
func (s *Service) LoadRecords(ctx context.Context, ticker string, resp market.Response) (view.State, error) {
	if err := s.view.LoadTicker(ctx, strings.TrimSpace(ticker), resp); err != nil {
		return view.State{}, err
	}
	return s.view.State(ctx)
}

// LoadTicker fetches ticker from the backend and loads it.
func (s *Service) LoadTicker(ctx context.Context, ticker string) (view.State, error) {
	if err := s.requireNonEmpty(ticker, "ticker"); err != nil {
		return view.State{}, err
	}
	if err := s.view.Fetch(ctx, strings.TrimSpace(ticker)); err != nil {
		return view.State{}, err
	}
	return s.view.State(ctx)
}

func (s *Service) Series(ctx context.Context) (panes.SeriesSet, error) {
	return s.view.Series(ctx)
}

func (s *Service) Tooltip(ctx context.Context) (view.TooltipView, error) {
	return s.view.Tooltip(ctx)
}

// Resize sets the container width (0 keeps it) and resizes every pane.
func (s *Service) Resize(ctx context.Context, width int) (int, error) {
	if width < 0 {
		return 0, &ValidationError{Message: "width must not be negative"}
	}
	return s.view.Resize(ctx, width)
}

// Pointer injects a pointer move and returns the resulting tooltip.
func (s *Service) Pointer(ctx context.Context, pane string, ev panes.PointerEvent) (view.TooltipView, error) {
	id, err := parsePane(pane)
	if err != nil {
		return view.TooltipView{}, err
	}
	if err := s.view.Pointer(ctx, id, ev); err != nil {
		return view.TooltipView{}, err
	}
	return s.view.Tooltip(ctx)
}

func (s *Service) Leave(ctx context.Context) error {
	return s.view.Leave(ctx)
}

// Pan injects a user range change on pane.
func (s *Service) Pan(ctx context.Context, pane string, r panes.Range) error {
	id, err := parsePane(pane)
	if err != nil {
		return err
	}
	if r.From.IsZero() || r.To.IsZero() {
		return &ValidationError{Message: "range needs both from and to"}
	}
	return s.view.Pan(ctx, id, r)
}

// --- Snapshot methods ---

func (s *Service) store() (*snapshot.Store, error) {
	if s.snaps == nil {
		return nil, fmt.Errorf("%w: snapshot store disabled", view.ErrUnsupported)
	}
	return s.snaps, nil
}

// TakeSnapshot captures the rendered panes and stores them as PNG.
func (s *Service) TakeSnapshot(ctx context.Context, notes string) (snapshot.Meta, error) {
	store, err := s.store()
	if err != nil {
		return snapshot.Meta{}, err
	}
	image, err := s.view.Snapshot(ctx)
	if err != nil {
		return snapshot.Meta{}, err
	}
	st, err := s.view.State(ctx)
	if err != nil {
		return snapshot.Meta{}, err
	}

	meta := snapshot.Meta{
		ID:        snapshot.NewID(),
		Ticker:    st.Ticker,
		Format:    "png",
		SizeBytes: len(image),
		Panes:     make([]string, 0, len(st.Panes)),
		ShowRSI:   st.Visibility.ShowRSI,
		ShowMACD:  st.Visibility.ShowMACD,
		Notes:     strings.TrimSpace(notes),
		CreatedAt: time.Now().UTC(),
	}
	for _, p := range st.Panes {
		meta.Panes = append(meta.Panes, string(p.ID))
		meta.Width = max(meta.Width, p.Width)
		meta.Height += p.Height
	}

	if err := store.Save(meta, image); err != nil {
		return snapshot.Meta{}, fmt.Errorf("save snapshot: %w", err)
	}
	return meta, nil
}

func (s *Service) ListSnapshots(ctx context.Context) ([]snapshot.Meta, error) {
	store, err := s.store()
	if err != nil {
		return nil, err
	}
	return store.List()
}

func (s *Service) GetSnapshot(ctx context.Context, id string) (snapshot.Meta, error) {
	store, err := s.store()
	if err != nil {
		return snapshot.Meta{}, err
	}
	return store.Get(strings.TrimSpace(id))
}

func (s *Service) ReadSnapshotImage(ctx context.Context, id string) ([]byte, string, error) {
	store, err := s.store()
	if err != nil {
		return nil, "", err
	}
	return store.ReadImage(strings.TrimSpace(id))
}

func (s *Service) DeleteSnapshot(ctx context.Context, id string) error {
	store, err := s.store()
	if err != nil {
		return err
	}
	return store.Delete(strings.TrimSpace(id))
}
