// Package view runs the pane manager on a single goroutine and exposes it to
// concurrent callers: the HTTP API, host callbacks and the refresh scheduler.
package view

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/dgnsrekt/paneview/internal/market"
	"github.com/dgnsrekt/paneview/internal/panes"
)

var (
	ErrClosed      = errors.New("view closed")
	ErrUnknownPane = errors.New("unknown pane")
	ErrPaneNotLive = errors.New("pane not live")
	ErrUnsupported = errors.New("operation not supported by host")
	ErrNoTicker    = errors.New("no ticker loaded")
)

// Event feeds published to listeners.
const (
	FeedTooltip = "tooltip"
	FeedRange   = "range"
	FeedPanes   = "panes"
	FeedData    = "data"
)

type Event struct {
	Feed string    `json:"feed"`
	At   time.Time `json:"at"`
	Data any       `json:"data"`
}

// Listener receives view events on the loop goroutine; it must not block.
type Listener func(Event)

// Fetcher loads backend history for a ticker.
type Fetcher interface {
	Historical(ctx context.Context, ticker string, ind market.Indicators) (market.Response, error)
}

// Injector is implemented by surfaces that accept synthetic user input.
type Injector interface {
	InjectRangeChange(r panes.Range) error
	InjectPointer(ev panes.PointerEvent) error
}

// Snapshotter is implemented by hosts that can capture the rendered panes.
type Snapshotter interface {
	Snapshot(ctx context.Context) ([]byte, error)
}

// Dispatching is implemented by hosts that deliver callbacks on their own
// goroutines; the view hands them its dispatcher.
type Dispatching interface {
	SetDispatcher(dispatch func(func()))
}

type widthSetter interface {
	SetWidth(width int)
}

type Config struct {
	Host       panes.Host
	Containers panes.Containers
	Fetcher    Fetcher
	Visibility panes.Visibility
	Theme      *panes.Theme
	Heights    map[panes.PaneID]int
	Logger     *slog.Logger
}

type View struct {
	log        *slog.Logger
	host       panes.Host
	containers panes.Containers
	fetcher    Fetcher
	manager    *panes.Manager

	ops       chan func()
	done      chan struct{}
	closeOnce sync.Once

	mu        sync.RWMutex
	listeners []Listener

	// owned by the loop goroutine
	closed   bool
	ticker   string
	vis      panes.Visibility
	latest   *float64
	change   market.ValueChange
	loadedAt time.Time
	live     []panes.PaneID
}

func New(cfg Config) *View {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	opts := []panes.Option{panes.WithLogger(log), panes.WithHeights(cfg.Heights)}
	if cfg.Theme != nil {
		opts = append(opts, panes.WithTheme(*cfg.Theme))
	}
	v := &View{
		log:        log,
		host:       cfg.Host,
		containers: cfg.Containers,
		fetcher:    cfg.Fetcher,
		manager:    panes.NewManager(cfg.Host, opts...),
		ops:        make(chan func(), 256),
		done:       make(chan struct{}),
		vis:        cfg.Visibility,
	}
	v.manager.OnTooltip(func(s panes.TooltipState) {
		v.emit(FeedTooltip, NewTooltipView(s, v.vis))
	})
	v.manager.OnRangeSync(func(source panes.PaneID, r panes.Range) {
		v.emit(FeedRange, RangeEvent{Source: source, Range: r})
	})
	if d, ok := cfg.Host.(Dispatching); ok {
		d.SetDispatcher(v.Dispatch)
	}
	go v.loop()
	return v
}

func (v *View) loop() {
	for {
		select {
		case fn := <-v.ops:
			fn()
		case <-v.done:
			return
		}
	}
}

// Subscribe adds a listener for view events.
func (v *View) Subscribe(l Listener) {
	v.mu.Lock()
	v.listeners = append(v.listeners, l)
	v.mu.Unlock()
}

func (v *View) emit(feed string, data any) {
	v.mu.RLock()
	listeners := slices.Clone(v.listeners)
	v.mu.RUnlock()
	ev := Event{Feed: feed, At: time.Now().UTC(), Data: data}
	for _, l := range listeners {
		l(ev)
	}
}

// Dispatch runs fn on the loop. After Close it is dropped.
func (v *View) Dispatch(fn func()) {
	select {
	case v.ops <- func() {
		if !v.closed {
			fn()
		}
	}:
	case <-v.done:
	}
}

// do runs fn on the loop and waits for its result.
func (v *View) do(ctx context.Context, fn func() error) error {
	result := make(chan error, 1)
	op := func() {
		if v.closed {
			result <- ErrClosed
			return
		}
		result <- fn()
	}
	select {
	case v.ops <- op:
	case <-v.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-result:
		return err
	case <-v.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close tears every pane down and stops the loop.
func (v *View) Close() error {
	var err error
	v.closeOnce.Do(func() {
		err = v.do(context.Background(), func() error {
			v.manager.Teardown()
			v.closed = true
			return nil
		})
		close(v.done)
		if errors.Is(err, ErrClosed) {
			err = nil
		}
	})
	return err
}

func (v *View) reconcile() error {
	err := v.manager.Reconcile(v.manager.Records(), v.vis, v.containers)
	v.publishPanes()
	return err
}

func (v *View) publishPanes() {
	live := v.manager.Live()
	if slices.Equal(live, v.live) {
		return
	}
	v.live = live
	v.emit(FeedPanes, live)
}

// Mount reconciles the current inputs; used once the containers are ready.
func (v *View) Mount(ctx context.Context) error {
	return v.do(ctx, v.reconcile)
}

// Load replaces the records with a backend response and reconciles.
func (v *View) Load(ctx context.Context, resp market.Response) error {
	return v.load(ctx, "", resp)
}

// LoadTicker is Load for records that belong to ticker.
func (v *View) LoadTicker(ctx context.Context, ticker string, resp market.Response) error {
	return v.load(ctx, ticker, resp)
}

func (v *View) load(ctx context.Context, ticker string, resp market.Response) error {
	return v.do(ctx, func() error {
		if ticker != "" {
			v.ticker = ticker
		}
		v.latest = resp.LatestPrice
		v.change = resp.ValueChange
		v.loadedAt = time.Now().UTC()
		err := v.manager.Reconcile(resp.Data, v.vis, v.containers)
		v.publishPanes()
		v.emit(FeedData, DataEvent{Ticker: v.ticker, Records: len(resp.Data), LatestPrice: resp.LatestPrice})
		return err
	})
}

// Fetch loads ticker from the backend.
func (v *View) Fetch(ctx context.Context, ticker string) error {
	if v.fetcher == nil {
		return ErrUnsupported
	}
	resp, err := v.fetcher.Historical(ctx, ticker, market.AllIndicators())
	if err != nil {
		return err
	}
	return v.load(ctx, ticker, resp)
}

// Reload fetches the current ticker again.
func (v *View) Reload(ctx context.Context) error {
	var ticker string
	if err := v.do(ctx, func() error {
		ticker = v.ticker
		return nil
	}); err != nil {
		return err
	}
	if ticker == "" {
		return ErrNoTicker
	}
	return v.Fetch(ctx, ticker)
}

func (v *View) SetVisibility(ctx context.Context, vis panes.Visibility) error {
	return v.do(ctx, func() error {
		v.vis = vis
		return v.reconcile()
	})
}

// Resize sets the container width when width > 0 and resizes every pane.
// It returns the applied width.
func (v *View) Resize(ctx context.Context, width int) (int, error) {
	var applied int
	err := v.do(ctx, func() error {
		if width > 0 {
			for _, id := range panes.PaneOrder {
				if c, ok := v.containers[id].(widthSetter); ok {
					c.SetWidth(width)
				}
			}
		}
		applied = v.manager.Resize()
		return nil
	})
	return applied, err
}

func (v *View) injector(id panes.PaneID) (Injector, error) {
	if !slices.Contains(panes.PaneOrder, id) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPane, id)
	}
	p, ok := v.manager.Pane(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPaneNotLive, id)
	}
	inj, ok := p.Surface().(Injector)
	if !ok {
		return nil, ErrUnsupported
	}
	return inj, nil
}

// Pointer injects a pointer move on a pane.
func (v *View) Pointer(ctx context.Context, id panes.PaneID, ev panes.PointerEvent) error {
	return v.do(ctx, func() error {
		inj, err := v.injector(id)
		if err != nil {
			return err
		}
		return inj.InjectPointer(ev)
	})
}

// Pan injects a user range change on a pane.
func (v *View) Pan(ctx context.Context, id panes.PaneID, r panes.Range) error {
	return v.do(ctx, func() error {
		inj, err := v.injector(id)
		if err != nil {
			return err
		}
		return inj.InjectRangeChange(r)
	})
}

// Leave handles the pointer leaving every pane.
func (v *View) Leave(ctx context.Context) error {
	return v.do(ctx, func() error {
		v.manager.Leave()
		return nil
	})
}

func (v *View) Series(ctx context.Context) (panes.SeriesSet, error) {
	var set panes.SeriesSet
	err := v.do(ctx, func() error {
		set = v.manager.Series()
		return nil
	})
	return set, err
}

func (v *View) Tooltip(ctx context.Context) (TooltipView, error) {
	var tv TooltipView
	err := v.do(ctx, func() error {
		tv = NewTooltipView(v.manager.Tooltip(), v.vis)
		return nil
	})
	return tv, err
}

func (v *View) Ticker(ctx context.Context) (string, error) {
	var ticker string
	err := v.do(ctx, func() error {
		ticker = v.ticker
		return nil
	})
	return ticker, err
}

// Snapshot captures the rendered panes when the host supports it.
func (v *View) Snapshot(ctx context.Context) ([]byte, error) {
	shot, ok := v.host.(Snapshotter)
	if !ok {
		return nil, ErrUnsupported
	}
	var live int
	if err := v.do(ctx, func() error {
		live = len(v.manager.Live())
		return nil
	}); err != nil {
		return nil, err
	}
	if live == 0 {
		return nil, fmt.Errorf("%w: %s", ErrPaneNotLive, panes.PanePrice)
	}
	return shot.Snapshot(ctx)
}
