package panes

import (
	"errors"
	"fmt"
	"log/slog"
	"reflect"
)

// DefaultHeights are the fixed pane heights in pixels.
func DefaultHeights() map[PaneID]int {
	return map[PaneID]int{PanePrice: 300, PaneRSI: 150, PaneMACD: 150}
}

type Option func(*Manager)

func WithLogger(log *slog.Logger) Option {
	return func(m *Manager) {
		if log != nil {
			m.log = log
		}
	}
}

func WithTheme(theme Theme) Option {
	return func(m *Manager) { m.theme = theme }
}

// WithHeights overrides pane heights; non-positive values are ignored.
func WithHeights(heights map[PaneID]int) Option {
	return func(m *Manager) {
		for id, h := range heights {
			if h > 0 {
				m.heights[id] = h
			}
		}
	}
}

// Manager owns the pane registry and the synchronizers wired between panes.
// It is not safe for concurrent use.
type Manager struct {
	log     *slog.Logger
	host    Host
	theme   Theme
	heights map[PaneID]int

	arena     *Arena
	timescale *TimeScaleSync
	crosshair *CrosshairSync
	tooltip   *TooltipCorrelator
	resize    *ResizeCoordinator

	registry map[PaneID]*Pane
	records  []Record
	vis      Visibility
	set      SeriesSet
	fed      bool
}

func NewManager(host Host, opts ...Option) *Manager {
	m := &Manager{
		log:      slog.Default(),
		host:     host,
		theme:    DefaultTheme(),
		heights:  DefaultHeights(),
		registry: make(map[PaneID]*Pane),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.arena = NewArena(m.log)
	m.timescale = NewTimeScaleSync(m.log, m.arena)
	m.crosshair = NewCrosshairSync(m.log, m.arena)
	m.tooltip = NewTooltipCorrelator(m.log, m.arena)
	m.resize = NewResizeCoordinator(m.log)
	return m
}

// Reconcile brings the pane registry in line with the inputs. Hidden panes
// are torn down before shown panes are created, and calling it again with
// the same inputs changes nothing.
func (m *Manager) Reconcile(records []Record, vis Visibility, containers Containers) error {
	dataChanged := !m.fed || !sameRecords(m.records, records)
	if dataChanged {
		m.records = append([]Record(nil), records...)
		m.tooltip.SetRecords(m.records)
	}
	if dataChanged || vis != m.vis || !m.fed {
		m.set = BuildSeries(m.records, vis)
	}
	m.vis = vis
	m.fed = true

	if containers[PanePrice] == nil {
		m.Teardown()
		return ErrMissingContainer
	}

	for i := len(PaneOrder) - 1; i >= 0; i-- {
		id := PaneOrder[i]
		p, live := m.registry[id]
		if !live {
			continue
		}
		c := containers[id]
		if !vis.Shows(id) || c == nil || !sameContainer(c, p.container) {
			m.log.Debug("pane hidden", "pane", id)
			m.detach(id)
		}
	}

	for _, id := range PaneOrder {
		if !vis.Shows(id) {
			continue
		}
		c := containers[id]
		if c == nil {
			m.log.Debug("pane container missing", "pane", id)
			continue
		}
		if p, live := m.registry[id]; live {
			if dataChanged {
				if err := p.feed(m.set); err != nil {
					m.log.Warn("pane data update failed", "pane", id, "error", err)
				}
			}
			continue
		}
		if err := m.create(id, c); err != nil {
			if id == PanePrice {
				m.Teardown()
				return err
			}
			m.log.Warn("indicator pane unavailable", "pane", id, "error", err)
		}
	}
	return nil
}

func (m *Manager) create(id PaneID, c Container) error {
	p, err := attach(m.host, id, c, m.heights[id], m.theme)
	if err != nil {
		return err
	}
	if err := p.feed(m.set); err != nil {
		m.log.Warn("pane data load failed", "pane", id, "error", err)
	}
	m.registry[id] = p
	if err := m.register(p); err != nil {
		m.detach(id)
		return fmt.Errorf("register %s pane: %w", id, err)
	}
	m.timescale.Align(p)
	m.log.Debug("pane live", "pane", id, "width", p.width, "height", p.height)
	return nil
}

func (m *Manager) register(p *Pane) error {
	if err := m.timescale.Register(p); err != nil {
		return err
	}
	m.resize.Register(p)
	if p.id != PanePrice {
		m.crosshair.Register(p)
		return nil
	}
	if err := m.crosshair.Attach(p); err != nil {
		return err
	}
	return m.tooltip.Attach(p)
}

func (m *Manager) detach(id PaneID) {
	p, ok := m.registry[id]
	if !ok {
		return
	}
	m.arena.Release(id)
	m.timescale.Unregister(id)
	m.crosshair.Unregister(id)
	m.resize.Unregister(id)
	if id == PanePrice {
		m.tooltip.Detach()
	}
	delete(m.registry, id)
	if err := safeCall(p.surface.Remove); err != nil && !errors.Is(err, ErrSurfaceRemoved) {
		m.log.Warn("surface remove failed", "pane", id, "error", err)
	}
}

// Teardown removes every pane. Events arriving afterwards are ignored.
func (m *Manager) Teardown() {
	for i := len(PaneOrder) - 1; i >= 0; i-- {
		m.detach(PaneOrder[i])
	}
	m.arena.ReleaseAll()
}

// Live lists the live panes in stacking order.
func (m *Manager) Live() []PaneID {
	var ids []PaneID
	for _, id := range PaneOrder {
		if _, ok := m.registry[id]; ok {
			ids = append(ids, id)
		}
	}
	return ids
}

func (m *Manager) Pane(id PaneID) (*Pane, bool) {
	p, ok := m.registry[id]
	return p, ok
}

// Subscriptions is the number of host subscriptions currently held.
func (m *Manager) Subscriptions() int { return m.arena.Len() }

func (m *Manager) SubscriptionNames(id PaneID) []string { return m.arena.Names(id) }

func (m *Manager) Tooltip() TooltipState { return m.tooltip.State() }

func (m *Manager) Lookup(t Time) (Record, bool) { return m.tooltip.Lookup(t) }

func (m *Manager) Series() SeriesSet { return m.set }

func (m *Manager) Records() []Record { return m.records }

func (m *Manager) Visibility() Visibility { return m.vis }

func (m *Manager) Height(id PaneID) int { return m.heights[id] }

func (m *Manager) Theme() Theme { return m.theme }

// Resize runs the resize coordinator and returns the applied width.
func (m *Manager) Resize() int { return m.resize.Resize() }

// Leave handles the pointer leaving the panes.
func (m *Manager) Leave() {
	m.crosshair.Clear()
	m.tooltip.Leave()
}

func (m *Manager) OnTooltip(fn func(TooltipState)) { m.tooltip.OnChange(fn) }

func (m *Manager) OnRangeSync(fn func(source PaneID, r Range)) { m.timescale.OnSync(fn) }

// sameContainer reports whether a and b are the same mount point. Maps,
// slices and funcs compare by pointer; other non-comparable values count as
// unchanged.
func sameContainer(a, b Container) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Type() != vb.Type() {
		return false
	}
	if va.Comparable() && vb.Comparable() {
		return a == b
	}
	switch va.Kind() {
	case reflect.Map, reflect.Slice, reflect.Func:
		return va.Pointer() == vb.Pointer()
	}
	return true
}

func sameRecords(a, b []Record) bool {
	if len(a) == 0 && len(b) == 0 {
		return true
	}
	return reflect.DeepEqual(a, b)
}
