package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/dgnsrekt/paneview/internal/panes"
	"gopkg.in/yaml.v3"
)

// Layout is the YAML layout file: theme plus per-pane heights.
type Layout struct {
	Theme   panes.Theme    `yaml:"theme"`
	Heights map[string]int `yaml:"heights"`
}

func DefaultLayout() *Layout {
	heights := make(map[string]int)
	for id, h := range panes.DefaultHeights() {
		heights[string(id)] = h
	}
	return &Layout{Theme: panes.DefaultTheme(), Heights: heights}
}

// LoadLayout reads a layout file over the defaults. A missing file yields
// DefaultLayout.
func LoadLayout(path string) (*Layout, error) {
	layout := DefaultLayout()
	if path == "" {
		return layout, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return layout, nil
	}
	if err != nil {
		return nil, fmt.Errorf("layout config: %w", err)
	}
	if err := yaml.Unmarshal(data, layout); err != nil {
		return nil, fmt.Errorf("layout config: %w", err)
	}
	for name, h := range layout.Heights {
		if _, ok := panes.ParsePaneID(name); !ok {
			return nil, fmt.Errorf("layout config: unknown pane %q", name)
		}
		if h <= 0 {
			return nil, fmt.Errorf("layout config: pane %q height must be positive", name)
		}
	}
	return layout, nil
}

// PaneHeights converts the heights to pane ids.
func (l *Layout) PaneHeights() map[panes.PaneID]int {
	out := make(map[panes.PaneID]int, len(l.Heights))
	for name, h := range l.Heights {
		if id, ok := panes.ParsePaneID(name); ok {
			out[id] = h
		}
	}
	return out
}
