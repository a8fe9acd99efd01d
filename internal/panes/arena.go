package panes

import (
	"fmt"
	"log/slog"
)

type arenaEntry struct {
	name    string
	dispose Disposer
}

// Arena tracks every subscription disposer per pane so teardown can release
// them all exactly once.
type Arena struct {
	log     *slog.Logger
	entries map[PaneID][]arenaEntry
}

func NewArena(log *slog.Logger) *Arena {
	if log == nil {
		log = slog.Default()
	}
	return &Arena{log: log, entries: make(map[PaneID][]arenaEntry)}
}

func (a *Arena) Track(pane PaneID, name string, d Disposer) {
	if d == nil {
		return
	}
	a.entries[pane] = append(a.entries[pane], arenaEntry{name: name, dispose: d})
}

// Release disposes the pane's subscriptions in reverse registration order.
func (a *Arena) Release(pane PaneID) {
	entries := a.entries[pane]
	delete(a.entries, pane)
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		err := safeCall(func() error {
			e.dispose()
			return nil
		})
		if err != nil {
			a.log.Warn("subscription dispose failed", "pane", pane, "subscription", e.name, "error", err)
		}
	}
}

func (a *Arena) ReleaseAll() {
	for i := len(PaneOrder) - 1; i >= 0; i-- {
		a.Release(PaneOrder[i])
	}
	for pane := range a.entries {
		a.Release(pane)
	}
}

func (a *Arena) Len() int {
	n := 0
	for _, e := range a.entries {
		n += len(e)
	}
	return n
}

func (a *Arena) LenFor(pane PaneID) int { return len(a.entries[pane]) }

// Names lists the tracked subscriptions of a pane as "pane/name".
func (a *Arena) Names(pane PaneID) []string {
	out := make([]string, 0, len(a.entries[pane]))
	for _, e := range a.entries[pane] {
		out = append(out, fmt.Sprintf("%s/%s", pane, e.name))
	}
	return out
}
