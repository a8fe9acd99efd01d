package storage

import (
	"sync"
	"time"

	"github.com/dgnsrekt/paneview/internal/view"
)

const journalName = "events"

// Journal appends view events to per-ticker JSONL files.
type Journal struct {
	registry *WriterRegistry

	mu     sync.Mutex
	ticker string
}

type journalEntry struct {
	At     time.Time `json:"at"`
	Ticker string    `json:"ticker,omitempty"`
	Feed   string    `json:"feed"`
	Data   any       `json:"data"`
}

func NewJournal(baseDir string, bufferSize, maxSizeMB int) *Journal {
	return &Journal{registry: NewWriterRegistry(baseDir, bufferSize, maxSizeMB)}
}

// Record is a view.Listener. Data events switch the ticker subdirectory.
func (j *Journal) Record(ev view.Event) {
	j.mu.Lock()
	if data, ok := ev.Data.(view.DataEvent); ok && data.Ticker != "" {
		j.ticker = data.Ticker
	}
	ticker := j.ticker
	j.mu.Unlock()

	w := j.registry.GetWriter(SafeSegment(ticker), journalName)
	_ = w.Write(journalEntry{At: ev.At, Ticker: ticker, Feed: ev.Feed, Data: ev.Data})
}

func (j *Journal) Close() error { return j.registry.Close() }
