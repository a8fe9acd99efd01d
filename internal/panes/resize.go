package panes

import "log/slog"

// ResizeCoordinator applies the price container width to every pane.
type ResizeCoordinator struct {
	log   *slog.Logger
	panes map[PaneID]*Pane
}

func NewResizeCoordinator(log *slog.Logger) *ResizeCoordinator {
	return &ResizeCoordinator{log: log, panes: make(map[PaneID]*Pane)}
}

func (r *ResizeCoordinator) Register(p *Pane) { r.panes[p.id] = p }

func (r *ResizeCoordinator) Unregister(id PaneID) { delete(r.panes, id) }

// Resize reads the price container width and resizes every pane to it with
// the pane's fixed height. It returns the applied width, 0 without a price pane.
func (r *ResizeCoordinator) Resize() int {
	price, ok := r.panes[PanePrice]
	if !ok || price.container == nil {
		return 0
	}
	width := price.container.Width()
	if width <= 0 {
		r.log.Debug("resize skipped", "width", width)
		return 0
	}
	for _, id := range PaneOrder {
		p, ok := r.panes[id]
		if !ok {
			continue
		}
		if err := safeCall(func() error { return p.surface.Resize(width, p.height) }); err != nil {
			r.log.Warn("pane resize failed", "pane", id, "error", err)
			continue
		}
		p.width = width
	}
	return width
}
