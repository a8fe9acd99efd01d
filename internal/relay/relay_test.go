package relay

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dgnsrekt/paneview/internal/view"
	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
)

func TestBrokerDropsForSlowSubscribers(t *testing.T) {
	b := NewBroker()
	id, ch := b.Subscribe(nil)
	for i := 0; i < subscriberBufSize+5; i++ {
		b.Publish(Event{Feed: "range", Payload: "{}"})
	}
	if got := b.Dropped(); got != 5 {
		t.Fatalf("Dropped() = %d; want 5", got)
	}
	first := <-ch
	if first.ID != 1 {
		t.Fatalf("first event id = %d; want 1", first.ID)
	}
	b.Unsubscribe(id)
	if b.ClientCount() != 0 {
		t.Fatalf("ClientCount() = %d; want 0", b.ClientCount())
	}
}

func TestBrokerFiltersFeeds(t *testing.T) {
	b := NewBroker()
	_, ch := b.Subscribe(map[string]bool{"panes": true})
	for i := 0; i < subscriberBufSize+5; i++ {
		b.Publish(Event{Feed: "tooltip", Payload: "{}"})
	}
	b.Publish(Event{Feed: "panes", Payload: "[]"})
	if got := b.Dropped(); got != 0 {
		t.Fatalf("Dropped() = %d; want 0 for filtered feeds", got)
	}
	evt := <-ch
	if evt.Feed != "panes" || evt.ID != subscriberBufSize+6 {
		t.Fatalf("event = %+v; want the panes event with id %d", evt, subscriberBufSize+6)
	}
}

func TestRelayForwardsEnabledFeeds(t *testing.T) {
	b := NewBroker()
	_, ch := b.Subscribe(nil)
	r := NewRelay(&RelayConfig{Feeds: []FeedConfig{{Name: view.FeedRange, MinIntervalMS: 100}, {Name: view.FeedPanes}}}, b)

	at := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	r.Forward(view.Event{Feed: view.FeedTooltip, At: at, Data: map[string]int{"x": 1}})
	r.Forward(view.Event{Feed: view.FeedRange, At: at, Data: []int{1}})
	r.Forward(view.Event{Feed: view.FeedRange, At: at.Add(50 * time.Millisecond), Data: []int{2}})
	r.Forward(view.Event{Feed: view.FeedRange, At: at.Add(150 * time.Millisecond), Data: []int{3}})
	r.Forward(view.Event{Feed: view.FeedPanes, At: at, Data: []string{"price"}})
	r.Stop()
	r.Forward(view.Event{Feed: view.FeedPanes, At: at, Data: []string{"price", "rsi"}})

	want := []string{"range [1]", "range [3]", `panes ["price"]`}
	for _, w := range want {
		select {
		case evt := <-ch:
			if got := evt.Feed + " " + evt.Payload; got != w {
				t.Fatalf("event = %q; want %q", got, w)
			}
		default:
			t.Fatalf("missing event %q", w)
		}
	}
	select {
	case evt := <-ch:
		t.Fatalf("unexpected event %+v", evt)
	default:
	}
}

func TestRelayFlushesTrailingEvent(t *testing.T) {
	b := NewBroker()
	_, ch := b.Subscribe(nil)
	r := NewRelay(&RelayConfig{Feeds: []FeedConfig{{Name: view.FeedTooltip, MinIntervalMS: 50}}}, b)
	defer r.Stop()

	at := time.Now()
	r.Forward(view.Event{Feed: view.FeedTooltip, At: at, Data: map[string]any{"time": 1704153600}})
	r.Forward(view.Event{Feed: view.FeedTooltip, At: at.Add(10 * time.Millisecond), Data: map[string]any{"time": 1704240000}})
	r.Forward(view.Event{Feed: view.FeedTooltip, At: at.Add(20 * time.Millisecond), Data: map[string]any{}})

	want := []string{`{"time":1704153600}`, `{}`}
	for _, w := range want {
		select {
		case evt := <-ch:
			if evt.Payload != w {
				t.Fatalf("payload = %q; want %q", evt.Payload, w)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("missing payload %q", w)
		}
	}
	select {
	case evt := <-ch:
		t.Fatalf("unexpected event %+v", evt)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestRelayStopDiscardsPendingEvent(t *testing.T) {
	b := NewBroker()
	_, ch := b.Subscribe(nil)
	r := NewRelay(&RelayConfig{Feeds: []FeedConfig{{Name: view.FeedRange, MinIntervalMS: 30}}}, b)

	at := time.Now()
	r.Forward(view.Event{Feed: view.FeedRange, At: at, Data: []int{1}})
	r.Forward(view.Event{Feed: view.FeedRange, At: at.Add(5 * time.Millisecond), Data: []int{2}})
	r.Stop()

	if evt := <-ch; evt.Payload != "[1]" {
		t.Fatalf("payload = %q; want [1]", evt.Payload)
	}
	select {
	case evt := <-ch:
		t.Fatalf("unexpected event after Stop() %+v", evt)
	case <-time.After(120 * time.Millisecond):
	}
}

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil || len(cfg.Feeds) != 4 {
		t.Fatalf("LoadConfig(missing) = %+v, %v; want default feeds", cfg, err)
	}

	path := filepath.Join(t.TempDir(), "relay.yaml")
	if err := os.WriteFile(path, []byte("feeds:\n  - name: tooltip\n    min_interval_ms: 50\n"), 0o644); err != nil {
		t.Fatalf("os.WriteFile() failed: %v", err)
	}
	cfg, err = LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if len(cfg.Feeds) != 1 || cfg.Feeds[0].MinInterval() != 50*time.Millisecond {
		t.Fatalf("LoadConfig() = %+v", cfg)
	}

	if err := os.WriteFile(path, []byte("feeds:\n  - name: quotes\n"), 0o644); err != nil {
		t.Fatalf("os.WriteFile() failed: %v", err)
	}
	if _, err := LoadConfig(path); err == nil || !strings.Contains(err.Error(), "unknown feed") {
		t.Fatalf("LoadConfig(unknown) error = %v; want unknown feed", err)
	}
}

func waitForClients(t *testing.T, b *Broker, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for b.ClientCount() != n {
		if time.Now().After(deadline) {
			t.Fatalf("ClientCount() = %d; want %d", b.ClientCount(), n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestSSEHandlerFiltersFeeds(t *testing.T) {
	b := NewBroker()
	srv := httptest.NewServer(SSEHandler(b))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"?feeds=range", nil)
	if err != nil {
		t.Fatalf("NewRequest() failed: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content-type = %q", ct)
	}

	waitForClients(t, b, 1)
	b.Publish(Event{Feed: "tooltip", Payload: `{"skip":true}`})
	b.Publish(Event{Feed: "range", Payload: `{"source":"price"}`})

	sc := bufio.NewScanner(resp.Body)
	var lines []string
	for sc.Scan() {
		line := sc.Text()
		if line == "" && len(lines) > 0 {
			break
		}
		if line != "" {
			lines = append(lines, line)
		}
	}
	want := []string{"id: 2", "event: range", `data: {"source":"price"}`}
	if strings.Join(lines, "|") != strings.Join(want, "|") {
		t.Fatalf("sse frame = %q; want %q", lines, want)
	}
}

func TestWSHandlerStreamsFrames(t *testing.T) {
	b := NewBroker()
	srv := httptest.NewServer(WSHandler(b))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, _, _, err := ws.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http")+"?feeds=panes")
	if err != nil {
		t.Fatalf("ws.Dial() failed: %v", err)
	}
	defer conn.Close()

	waitForClients(t, b, 1)
	b.Publish(Event{Feed: "range", Payload: `{}`})
	b.Publish(Event{Feed: "panes", Payload: `["price","macd"]`})

	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	data, err := wsutil.ReadServerText(conn)
	if err != nil {
		t.Fatalf("ReadServerText() failed: %v", err)
	}
	var frame struct {
		ID   int64    `json:"id"`
		Feed string   `json:"feed"`
		Data []string `json:"data"`
	}
	if err := json.Unmarshal(data, &frame); err != nil {
		t.Fatalf("json.Unmarshal() failed: %v", err)
	}
	if frame.ID != 2 || frame.Feed != "panes" || len(frame.Data) != 2 {
		t.Fatalf("frame = %+v", frame)
	}
}
