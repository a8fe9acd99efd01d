package storage

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dgnsrekt/paneview/internal/view"
)

func readLines(t *testing.T, path string) []map[string]any {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("Open(%s) error = %v", path, err)
	}
	defer f.Close()

	var out []map[string]any
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var m map[string]any
		if err := json.Unmarshal(sc.Bytes(), &m); err != nil {
			t.Fatalf("Unmarshal(%q) error = %v", sc.Text(), err)
		}
		out = append(out, m)
	}
	return out
}

func TestJSONLWriterWritesDatedFile(t *testing.T) {
	dir := t.TempDir()
	w := NewJSONLWriter(dir, "btc-usd", "events", 10, 1)
	fixed := time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC)
	w.now = func() time.Time { return fixed }

	for i := range 3 {
		if err := w.Write(map[string]int{"n": i}); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	lines := readLines(t, filepath.Join(dir, "2024-03-09", "btc-usd", "events.jsonl"))
	if len(lines) != 3 {
		t.Fatalf("lines = %d; want 3", len(lines))
	}
	if lines[2]["n"] != float64(2) {
		t.Fatalf("last line = %v; want n=2", lines[2])
	}
}

func TestJSONLWriterRejectsAfterClose(t *testing.T) {
	w := NewJSONLWriter(t.TempDir(), "x", "events", 1, 1)
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := w.Write("late"); err != ErrWriterClosed {
		t.Fatalf("Write() error = %v; want %v", err, ErrWriterClosed)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}
}

func TestWriterRegistryReusesWriters(t *testing.T) {
	r := NewWriterRegistry(t.TempDir(), 4, 1)
	a := r.GetWriter("btc-usd", "events")
	b := r.GetWriter("btc-usd", "events")
	c := r.GetWriter("eth-usd", "events")
	if a != b {
		t.Fatal("GetWriter() returned a new writer for the same key")
	}
	if a == c {
		t.Fatal("GetWriter() shared a writer across tickers")
	}
	if got := r.Len(); got != 2 {
		t.Fatalf("Len() = %d; want 2", got)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if got := r.Len(); got != 0 {
		t.Fatalf("Len() after Close = %d; want 0", got)
	}
}

func TestSafeSegment(t *testing.T) {
	tests := map[string]string{
		"BTC-USD":   "btc-usd",
		" eth/usd ": "eth_usd",
		"":          "unknown",
		"../../etc": "etc",
		"SPX.INDEX": "spx.index",
		"///":       "unknown",
	}
	for in, want := range tests {
		if got := SafeSegment(in); got != want {
			t.Errorf("SafeSegment(%q) = %q; want %q", in, got, want)
		}
	}
}

func TestJournalFollowsTicker(t *testing.T) {
	dir := t.TempDir()
	j := NewJournal(dir, 16, 1)
	at := time.Now().UTC()

	j.Record(view.Event{Feed: view.FeedData, At: at, Data: view.DataEvent{Ticker: "BTC-USD"}})
	j.Record(view.Event{Feed: view.FeedTooltip, At: at, Data: map[string]string{"date": "2024-01-01"}})
	if err := j.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	lines := readLines(t, filepath.Join(dir, at.Format(time.DateOnly), "btc-usd", "events.jsonl"))
	if len(lines) != 2 {
		t.Fatalf("lines = %d; want 2", len(lines))
	}
	if lines[1]["feed"] != view.FeedTooltip || lines[1]["ticker"] != "BTC-USD" {
		t.Fatalf("second entry = %v; want tooltip feed for BTC-USD", lines[1])
	}
}
