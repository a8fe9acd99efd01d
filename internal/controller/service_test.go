package controller

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/dgnsrekt/paneview/internal/headless"
	"github.com/dgnsrekt/paneview/internal/market"
	"github.com/dgnsrekt/paneview/internal/panes"
	"github.com/dgnsrekt/paneview/internal/snapshot"
	"github.com/dgnsrekt/paneview/internal/view"
)

// shotHost is a headless host that can also capture its panes.
type shotHost struct {
	*headless.Host
}

func (shotHost) Snapshot(context.Context) ([]byte, error) { return []byte("\x89PNG fake"), nil }

func sampleResponse() market.Response {
	var data []panes.Record
	for i := 1; i <= 3; i++ {
		c := float64(100 + i)
		data = append(data, panes.Record{
			Time: panes.DayTime(2024, 1, i), Open: panes.Float(c), High: panes.Float(c + 1), Low: panes.Float(c - 1), Close: panes.Float(c), Volume: 1000,
		})
	}
	return market.Response{Data: data}
}

func newTestService(t *testing.T, host panes.Host, snaps *snapshot.Store) *Service {
	t.Helper()
	v := view.New(view.Config{
		Host: host,
		Containers: panes.Containers{
			panes.PanePrice: headless.NewContainer(800),
			panes.PaneRSI:   headless.NewContainer(800),
			panes.PaneMACD:  headless.NewContainer(800),
		},
	})
	t.Cleanup(func() { _ = v.Close() })
	return NewService(v, snaps)
}

func TestRequireNonEmpty(t *testing.T) {
	s := &Service{}
	if err := s.requireNonEmpty("BTC-USD", "ticker"); err != nil {
		t.Fatalf("requireNonEmpty() = %v; want nil", err)
	}

	err := s.requireNonEmpty("   ", "ticker")
	var got *ValidationError
	if !errors.As(err, &got) {
		t.Fatalf("requireNonEmpty() = %T; want *ValidationError", err)
	}
	if got.Message != "ticker is required" {
		t.Fatalf("requireNonEmpty() message = %q; want %q", got.Message, "ticker is required")
	}
}

func TestLoadTickerRequiresTicker(t *testing.T) {
	s := newTestService(t, headless.New(), nil)
	_, err := s.LoadTicker(context.Background(), " ")
	var got *ValidationError
	if !errors.As(err, &got) {
		t.Fatalf("LoadTicker() error = %v; want *ValidationError", err)
	}
}

func TestPointerAndPan(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t, headless.New(), nil)
	if _, err := s.LoadRecords(ctx, "BTC-USD", sampleResponse()); err != nil {
		t.Fatalf("LoadRecords() error = %v", err)
	}

	tip, err := s.Pointer(ctx, "Price", panes.PointerEvent{Time: panes.DayTime(2024, 1, 2), Point: &panes.Pixel{X: 10, Y: 10}})
	if err != nil {
		t.Fatalf("Pointer() error = %v", err)
	}
	if tip.Record == nil || *tip.Record.Close != 102 {
		t.Fatalf("Pointer() tooltip = %+v; want the 2024-01-02 record", tip)
	}

	if _, err := s.Pointer(ctx, "volume", panes.PointerEvent{}); !errors.Is(err, view.ErrUnknownPane) {
		t.Fatalf("Pointer(volume) error = %v; want ErrUnknownPane", err)
	}
	if err := s.Pan(ctx, "rsi", panes.Range{From: panes.UnixTime(1), To: panes.UnixTime(2)}); !errors.Is(err, view.ErrPaneNotLive) {
		t.Fatalf("Pan(rsi) error = %v; want ErrPaneNotLive", err)
	}
	var verr *ValidationError
	if err := s.Pan(ctx, "price", panes.Range{From: panes.UnixTime(1)}); !errors.As(err, &verr) {
		t.Fatalf("Pan(half range) error = %v; want *ValidationError", err)
	}
	if _, err := s.Resize(ctx, -1); !errors.As(err, &verr) {
		t.Fatalf("Resize(-1) error = %v; want *ValidationError", err)
	}

	st, err := s.SetVisibility(ctx, panes.Visibility{ShowMACD: true})
	if err != nil {
		t.Fatalf("SetVisibility() error = %v", err)
	}
	if st.Ticker != "BTC-USD" || len(st.Panes) != 2 {
		t.Fatalf("SetVisibility() state = %+v; want BTC-USD with price and macd", st)
	}
}

func TestSnapshotsDisabledAndUnsupported(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t, headless.New(), nil)
	if _, err := s.ListSnapshots(ctx); !errors.Is(err, view.ErrUnsupported) {
		t.Fatalf("ListSnapshots() error = %v; want ErrUnsupported", err)
	}

	store, err := snapshot.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	s = newTestService(t, headless.New(), store)
	if _, err := s.TakeSnapshot(ctx, ""); !errors.Is(err, view.ErrUnsupported) {
		t.Fatalf("TakeSnapshot() on headless error = %v; want ErrUnsupported", err)
	}
}

func TestTakeSnapshot(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "snaps")
	store, err := snapshot.NewStore(dir)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	s := newTestService(t, shotHost{headless.New()}, store)

	if _, err := s.TakeSnapshot(ctx, ""); !errors.Is(err, view.ErrPaneNotLive) {
		t.Fatalf("TakeSnapshot() before load error = %v; want ErrPaneNotLive", err)
	}
	if _, err := s.LoadRecords(ctx, "BTC-USD", sampleResponse()); err != nil {
		t.Fatalf("LoadRecords() error = %v", err)
	}
	if _, err := s.SetVisibility(ctx, panes.Visibility{ShowRSI: true}); err != nil {
		t.Fatalf("SetVisibility() error = %v", err)
	}

	meta, err := s.TakeSnapshot(ctx, "  after rsi toggle ")
	if err != nil {
		t.Fatalf("TakeSnapshot() error = %v", err)
	}
	if meta.Ticker != "BTC-USD" || meta.Width != 800 || meta.Height != 450 || !meta.ShowRSI || meta.Notes != "after rsi toggle" {
		t.Fatalf("TakeSnapshot() meta = %+v", meta)
	}
	if len(meta.Panes) != 2 || meta.Panes[1] != "rsi" {
		t.Fatalf("TakeSnapshot() panes = %v; want [price rsi]", meta.Panes)
	}

	img, format, err := s.ReadSnapshotImage(ctx, meta.ID)
	if err != nil || format != "png" || string(img) != "\x89PNG fake" {
		t.Fatalf("ReadSnapshotImage() = %q, %q, %v", img, format, err)
	}
	if err := s.DeleteSnapshot(ctx, meta.ID); err != nil {
		t.Fatalf("DeleteSnapshot() error = %v", err)
	}
	if _, err := s.GetSnapshot(ctx, meta.ID); !errors.Is(err, snapshot.ErrNotFound) {
		t.Fatalf("GetSnapshot() after delete error = %v; want ErrNotFound", err)
	}
}
