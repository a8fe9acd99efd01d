package panes

import "log/slog"

// CrosshairSync replays pointer moves on the price pane onto every other
// registered pane at the same time and price.
type CrosshairSync struct {
	log     *slog.Logger
	arena   *Arena
	source  *Pane
	targets map[PaneID]*Pane
}

func NewCrosshairSync(log *slog.Logger, arena *Arena) *CrosshairSync {
	return &CrosshairSync{log: log, arena: arena, targets: make(map[PaneID]*Pane)}
}

// Attach subscribes to pointer moves of the source pane.
func (c *CrosshairSync) Attach(p *Pane) error {
	d, err := p.surface.SubscribeCrosshairMove(c.onMove)
	if err != nil {
		return err
	}
	c.arena.Track(p.id, "crosshair", d)
	c.source = p
	return nil
}

// Register adds a target pane. Panes without a reference series are skipped.
func (c *CrosshairSync) Register(p *Pane) {
	if p.reference == nil {
		return
	}
	c.targets[p.id] = p
}

func (c *CrosshairSync) Unregister(id PaneID) {
	if c.source != nil && c.source.id == id {
		c.source = nil
	}
	delete(c.targets, id)
}

func (c *CrosshairSync) onMove(ev PointerEvent) {
	src := c.source
	if src == nil || ev.Time.IsZero() || ev.Point == nil {
		return
	}
	var (
		price float64
		ok    bool
	)
	err := safeCall(func() error {
		price, ok = src.reference.CoordinateToPrice(ev.Point.Y)
		return nil
	})
	if err != nil || !ok {
		c.log.Debug("crosshair price unresolved", "y", ev.Point.Y, "error", err)
		return
	}
	for _, id := range PaneOrder {
		target, found := c.targets[id]
		if !found {
			continue
		}
		if err := safeCall(func() error { return target.surface.SetCrosshairPosition(price, ev.Time, target.reference) }); err != nil {
			c.log.Warn("crosshair sync failed", "pane", id, "error", err)
		}
	}
}

// Clear removes the crosshair from every target.
func (c *CrosshairSync) Clear() {
	for _, id := range PaneOrder {
		target, ok := c.targets[id]
		if !ok {
			continue
		}
		if err := safeCall(target.surface.ClearCrosshairPosition); err != nil {
			c.log.Warn("crosshair clear failed", "pane", id, "error", err)
		}
	}
}
