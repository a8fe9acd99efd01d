package cdphost

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dgnsrekt/paneview/internal/panes"
)

func TestJSString(t *testing.T) {
	tests := map[string]string{
		"plain":       `"plain"`,
		`quo"te`:      `"quo\"te"`,
		"line\nbreak": `"line\nbreak"`,
		"</script>":   `"\u003c/script\u003e"`,
	}
	for in, want := range tests {
		if got := jsString(in); got != want {
			t.Errorf("jsString(%q) = %s; want %s", in, got, want)
		}
	}
}

func TestCallJSEmbedsArguments(t *testing.T) {
	js := callJS("setVisibleRange", 3, panes.Range{From: panes.UnixTime(10), To: panes.UnixTime(20)})
	for _, want := range []string{
		`pv["setVisibleRange"](3,{"from":10,"to":20})`,
		`error_code:"` + CodeCDPUnavailable + `"`,
		`error_code:"` + CodeEvalFailure + `"`,
	} {
		if !strings.Contains(js, want) {
			t.Fatalf("callJS() missing %q in:\n%s", want, js)
		}
	}
	if !strings.HasPrefix(js, "(function(){") || !strings.HasSuffix(js, "})()") {
		t.Fatalf("callJS() is not an IIFE:\n%s", js)
	}
}

func TestDecodeEnvelope(t *testing.T) {
	var r panes.Range
	if err := decodeEnvelope(`{"ok":true,"data":{"from":"2024-01-01","to":{"year":2024,"month":2,"day":1}}}`, &r); err != nil {
		t.Fatalf("decodeEnvelope() error = %v", err)
	}
	if r.From.String() != "2024-01-01" || r.To.String() != "2024-02-01" {
		t.Fatalf("decodeEnvelope() range = %s..%s; want 2024-01-01..2024-02-01", r.From, r.To)
	}

	var price *float64
	if err := decodeEnvelope(`{"ok":true,"data":null}`, &price); err != nil || price != nil {
		t.Fatalf("decodeEnvelope(null) = %v, %v; want nil, nil", price, err)
	}

	tests := []struct {
		name string
		raw  string
		code string
	}{
		{name: "not json", raw: "undefined", code: CodeEvalFailure},
		{name: "page error", raw: `{"ok":false,"error_code":"CDP_UNAVAILABLE","error_message":"surface page not loaded"}`, code: CodeCDPUnavailable},
		{name: "missing code", raw: `{"ok":false,"error_message":"boom"}`, code: CodeEvalFailure},
		{name: "bad data", raw: `{"ok":true,"data":"x"}`, code: CodeEvalFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out panes.Range
			err := decodeEnvelope(tt.raw, &out)
			var coded *CodedError
			if !errors.As(err, &coded) {
				t.Fatalf("decodeEnvelope() error = %v; want *CodedError", err)
			}
			if coded.Code != tt.code {
				t.Fatalf("code = %s; want %s", coded.Code, tt.code)
			}
		})
	}
}

func TestCodedErrorUnwrap(t *testing.T) {
	cause := context.DeadlineExceeded
	err := newError(CodeEvalTimeout, "evaluation timed out", cause)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("errors.Is(%v, DeadlineExceeded) = false; want true", err)
	}
	if got := err.Error(); got != "EVAL_TIMEOUT: evaluation timed out: context deadline exceeded" {
		t.Fatalf("Error() = %q", got)
	}
}

func TestEvalWithoutConnection(t *testing.T) {
	h := New("", "http://127.0.0.1:8190/surface", time.Second)
	_, err := h.CreateSurface(NewContainer("pane-price", 800), panes.SurfaceOptions{Width: 800, Height: 300})
	var coded *CodedError
	if !errors.As(err, &coded) || coded.Code != CodeCDPUnavailable {
		t.Fatalf("CreateSurface() error = %v; want %s", err, CodeCDPUnavailable)
	}
	if _, err := h.Snapshot(context.Background()); !errors.As(err, &coded) {
		t.Fatalf("Snapshot() error = %v; want *CodedError", err)
	}
	if err := h.Connect(context.Background()); !errors.As(err, &coded) || coded.Code != CodeCDPUnavailable {
		t.Fatalf("Connect() error = %v; want %s", err, CodeCDPUnavailable)
	}
}

func TestBindingDeliveryUsesDispatcher(t *testing.T) {
	h := New("", "", time.Second)
	s := newSurface(h, 1, panes.SurfaceOptions{})
	h.surfaces[1] = s

	var ranges []panes.Range
	var moves []panes.PointerEvent
	s.rangeSubs[1] = func(r panes.Range) { ranges = append(ranges, r) }
	s.crossSubs[2] = func(ev panes.PointerEvent) { moves = append(moves, ev) }

	var queued []func()
	h.SetDispatcher(func(fn func()) { queued = append(queued, fn) })

	h.handleBinding(`{"surface":1,"sub":1,"kind":"range","data":{"from":100,"to":200}}`)
	h.handleBinding(`{"surface":1,"sub":2,"kind":"crosshair","data":{"time":150,"point":{"x":4,"y":9}}}`)
	h.handleBinding(`{"surface":9,"sub":1,"kind":"range","data":{"from":1,"to":2}}`)
	h.handleBinding(`not json`)

	if len(ranges) != 0 || len(moves) != 0 {
		t.Fatal("callbacks ran before the dispatcher executed them")
	}
	if len(queued) != 2 {
		t.Fatalf("queued = %d; want 2", len(queued))
	}

	// a subscription disposed before its turn on the loop is skipped
	delete(s.crossSubs, 2)
	for _, fn := range queued {
		fn()
	}
	if len(ranges) != 1 || !ranges[0].To.Equal(panes.UnixTime(200)) {
		t.Fatalf("ranges = %+v; want one 100..200", ranges)
	}
	if len(moves) != 0 {
		t.Fatalf("moves = %+v; want none after dispose", moves)
	}
}

func TestInjectPointerReachesSubscribers(t *testing.T) {
	h := New("", "", time.Second)
	s := newSurface(h, 1, panes.SurfaceOptions{})
	var got []panes.PointerEvent
	s.crossSubs[1] = func(ev panes.PointerEvent) { got = append(got, ev) }

	ev := panes.PointerEvent{Time: panes.UnixTime(5), Point: &panes.Pixel{X: 1, Y: 2}}
	if err := s.InjectPointer(ev); err != nil {
		t.Fatalf("InjectPointer() error = %v", err)
	}
	if len(got) != 1 || !got[0].Time.Equal(ev.Time) {
		t.Fatalf("delivered = %+v; want %+v", got, ev)
	}

	s.removed = true
	if err := s.InjectPointer(ev); !errors.Is(err, panes.ErrSurfaceRemoved) {
		t.Fatalf("InjectPointer() after remove error = %v; want ErrSurfaceRemoved", err)
	}
	if err := s.Resize(1, 1); !errors.Is(err, panes.ErrSurfaceRemoved) {
		t.Fatalf("Resize() after remove error = %v; want ErrSurfaceRemoved", err)
	}
}

func TestContainersMountPerPane(t *testing.T) {
	cs := Containers(720)
	for _, id := range panes.PaneOrder {
		c, ok := cs[id].(*Container)
		if !ok {
			t.Fatalf("container %s has type %T", id, cs[id])
		}
		if c.ElementID() != "pane-"+string(id) || c.Width() != 720 {
			t.Fatalf("container %s = %s/%d; want pane-%s/720", id, c.ElementID(), c.Width(), id)
		}
	}
}
