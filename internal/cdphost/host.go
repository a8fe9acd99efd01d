// Package cdphost renders panes with lightweight-charts in a Chromium tab
// driven over the Chrome DevTools Protocol.
package cdphost

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"

	"github.com/dgnsrekt/paneview/internal/panes"
)

const (
	bindingName     = "paneviewEmit"
	panesSelector   = "#panes"
	eventBufferSize = 1024
)

// Container is a DOM element on the surface page.
type Container struct {
	elementID string

	mu    sync.Mutex
	width int
}

func NewContainer(elementID string, width int) *Container {
	return &Container{elementID: elementID, width: width}
}

func (c *Container) ElementID() string { return c.elementID }

func (c *Container) Width() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.width
}

func (c *Container) SetWidth(width int) {
	c.mu.Lock()
	c.width = width
	c.mu.Unlock()
}

// Containers returns one container per pane, mounted at "pane-<id>".
func Containers(width int) panes.Containers {
	out := make(panes.Containers, len(panes.PaneOrder))
	for _, id := range panes.PaneOrder {
		out[id] = NewContainer("pane-"+string(id), width)
	}
	return out
}

// bindingEvent is what the page sends through the runtime binding.
type bindingEvent struct {
	Surface int             `json:"surface"`
	Sub     int             `json:"sub"`
	Kind    string          `json:"kind"`
	Data    json.RawMessage `json:"data"`
}

type Host struct {
	cdpURL      string
	pageURL     string
	evalTimeout time.Duration

	mu          sync.Mutex
	allocCancel context.CancelFunc
	tabCtx      context.Context
	tabCancel   context.CancelFunc
	dispatch    func(func())
	nextID      int
	surfaces    map[int]*Surface

	events chan string
	done   chan struct{}
	once   sync.Once
}

func New(cdpURL, pageURL string, evalTimeout time.Duration) *Host {
	return &Host{
		cdpURL:      cdpURL,
		pageURL:     pageURL,
		evalTimeout: evalTimeout,
		surfaces:    make(map[int]*Surface),
		events:      make(chan string, eventBufferSize),
		done:        make(chan struct{}),
	}
}

// SetDispatcher routes page callbacks through dispatch.
func (h *Host) SetDispatcher(dispatch func(func())) {
	h.mu.Lock()
	h.dispatch = dispatch
	h.mu.Unlock()
}

// Connect attaches to the browser, installs the callback binding and opens
// the surface page.
func (h *Host) Connect(ctx context.Context) error {
	if h.cdpURL == "" {
		return newError(CodeCDPUnavailable, "missing CDP URL", nil)
	}
	slog.Info("cdphost connect start", "cdp_url", h.cdpURL, "page_url", h.pageURL)

	allocCtx, allocCancel := chromedp.NewRemoteAllocator(context.Background(), h.cdpURL)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx)

	chromedp.ListenTarget(tabCtx, h.onTargetEvent)

	// The first Run attaches the tab; it must not carry the setup timeout.
	if err := chromedp.Run(tabCtx); err != nil {
		tabCancel()
		allocCancel()
		return newError(CodeCDPUnavailable, "attach tab failed", err)
	}

	runCtx, runCancel := context.WithTimeout(tabCtx, 30*time.Second)
	defer runCancel()
	stop := context.AfterFunc(ctx, runCancel)
	defer stop()

	if err := chromedp.Run(runCtx,
		runtime.Enable(),
		runtime.AddBinding(bindingName),
		chromedp.Navigate(h.pageURL),
		chromedp.WaitReady(panesSelector, chromedp.ByQuery),
	); err != nil {
		tabCancel()
		allocCancel()
		return newError(CodeCDPUnavailable, "open surface page failed", err)
	}

	h.mu.Lock()
	h.allocCancel = allocCancel
	h.tabCtx = tabCtx
	h.tabCancel = tabCancel
	h.mu.Unlock()

	go h.pump()
	slog.Info("cdphost connect ok", "page_url", h.pageURL)
	return nil
}

// Close detaches from the browser. The tab is left open.
func (h *Host) Close() error {
	h.once.Do(func() { close(h.done) })
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.tabCancel != nil {
		h.tabCancel()
		h.tabCancel = nil
	}
	if h.allocCancel != nil {
		h.allocCancel()
		h.allocCancel = nil
	}
	h.tabCtx = nil
	slog.Info("cdphost closed")
	return nil
}

// onTargetEvent runs on the chromedp event goroutine and must not block.
func (h *Host) onTargetEvent(ev any) {
	e, ok := ev.(*runtime.EventBindingCalled)
	if !ok || e.Name != bindingName {
		return
	}
	select {
	case h.events <- e.Payload:
	default:
		slog.Warn("cdphost event dropped, buffer full")
	}
}

func (h *Host) pump() {
	for {
		select {
		case payload := <-h.events:
			h.handleBinding(payload)
		case <-h.done:
			return
		}
	}
}

func (h *Host) handleBinding(payload string) {
	var ev bindingEvent
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		slog.Debug("cdphost binding payload invalid", "error", err)
		return
	}
	h.mu.Lock()
	s := h.surfaces[ev.Surface]
	dispatch := h.dispatch
	h.mu.Unlock()
	if s == nil {
		return
	}
	deliver := func() { s.deliver(ev) }
	if dispatch == nil {
		deliver()
		return
	}
	dispatch(deliver)
}

// eval runs a window.paneview call and decodes its result into out.
func (h *Host) eval(ctx context.Context, fn string, out any, args ...any) error {
	h.mu.Lock()
	tabCtx := h.tabCtx
	h.mu.Unlock()
	if tabCtx == nil {
		return newError(CodeCDPUnavailable, "CDP host not connected", nil)
	}

	evalCtx, cancel := context.WithTimeout(tabCtx, h.evalTimeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	var raw string
	if err := chromedp.Run(evalCtx, chromedp.Evaluate(callJS(fn, args...), &raw)); err != nil {
		slog.Warn("cdphost eval failed", "fn", fn, "error", err)
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(evalCtx.Err(), context.DeadlineExceeded) {
			return newError(CodeEvalTimeout, "evaluation timed out", err)
		}
		return newError(CodeEvalFailure, "evaluation failed", err)
	}
	return decodeEnvelope(raw, out)
}

type elementer interface {
	ElementID() string
}

func (h *Host) CreateSurface(c panes.Container, opts panes.SurfaceOptions) (panes.Surface, error) {
	if c == nil {
		return nil, fmt.Errorf("nil container")
	}
	h.mu.Lock()
	h.nextID++
	id := h.nextID
	h.mu.Unlock()

	element := fmt.Sprintf("surface-%d", id)
	if e, ok := c.(elementer); ok {
		element = e.ElementID()
	}
	if err := h.eval(context.Background(), "createSurface", nil, id, element, opts); err != nil {
		return nil, fmt.Errorf("create surface: %w", err)
	}

	s := newSurface(h, id, opts)
	h.mu.Lock()
	h.surfaces[id] = s
	h.mu.Unlock()
	return s, nil
}

func (h *Host) forget(id int) {
	h.mu.Lock()
	delete(h.surfaces, id)
	h.mu.Unlock()
}

// Snapshot captures every mounted pane as one PNG.
func (h *Host) Snapshot(ctx context.Context) ([]byte, error) {
	h.mu.Lock()
	tabCtx := h.tabCtx
	h.mu.Unlock()
	if tabCtx == nil {
		return nil, newError(CodeCDPUnavailable, "CDP host not connected", nil)
	}

	shotCtx, cancel := context.WithTimeout(tabCtx, 3*h.evalTimeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	var buf []byte
	if err := chromedp.Run(shotCtx, chromedp.Screenshot(panesSelector, &buf, chromedp.ByQuery, chromedp.NodeVisible)); err != nil {
		if errors.Is(shotCtx.Err(), context.DeadlineExceeded) {
			return nil, newError(CodeEvalTimeout, "screenshot timed out", err)
		}
		return nil, newError(CodeEvalFailure, "screenshot failed", err)
	}
	return buf, nil
}
