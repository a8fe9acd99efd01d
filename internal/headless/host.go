// Package headless is an in-memory rendering host. It keeps every surface,
// series and subscription in memory so panes can be driven without a browser.
package headless

import (
	"fmt"
	"sync"

	"github.com/dgnsrekt/paneview/internal/panes"
)

// Container is a resizable mount point.
type Container struct {
	mu    sync.Mutex
	width int
}

func NewContainer(width int) *Container { return &Container{width: width} }

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

// Containers returns one container per pane at width.
func Containers(width int) panes.Containers {
	out := make(panes.Containers, len(panes.PaneOrder))
	for _, id := range panes.PaneOrder {
		out[id] = NewContainer(width)
	}
	return out
}

type Option func(*Host)

// WithoutEcho stops SetVisibleRange from notifying range subscribers.
func WithoutEcho() Option {
	return func(h *Host) { h.echo = false }
}

// WithCreateHook runs fn before each surface is created; a returned error
// fails the creation.
func WithCreateHook(fn func(opts panes.SurfaceOptions) error) Option {
	return func(h *Host) { h.hook = fn }
}

type Host struct {
	mu       sync.Mutex
	echo     bool
	hook     func(panes.SurfaceOptions) error
	surfaces []*Surface
}

func New(opts ...Option) *Host {
	h := &Host{echo: true}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Host) CreateSurface(c panes.Container, opts panes.SurfaceOptions) (panes.Surface, error) {
	if c == nil {
		return nil, fmt.Errorf("nil container")
	}
	if h.hook != nil {
		if err := h.hook(opts); err != nil {
			return nil, err
		}
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	s := &Surface{
		id:        len(h.surfaces) + 1,
		echo:      h.echo,
		container: c,
		opts:      opts,
		width:     opts.Width,
		height:    opts.Height,
		rangeSubs: make(map[int]func(panes.Range)),
		crossSubs: make(map[int]func(panes.PointerEvent)),
	}
	h.surfaces = append(h.surfaces, s)
	return s, nil
}

// Surfaces returns every surface created so far, removed ones included.
func (h *Host) Surfaces() []*Surface {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]*Surface(nil), h.surfaces...)
}

// Live counts surfaces that have not been removed.
func (h *Host) Live() int {
	n := 0
	for _, s := range h.Surfaces() {
		if !s.Removed() {
			n++
		}
	}
	return n
}
