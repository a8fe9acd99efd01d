package refresh

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dgnsrekt/paneview/internal/view"
)

type stubReloader struct {
	calls atomic.Int64
	err   error
}

func (s *stubReloader) Reload(ctx context.Context) error {
	s.calls.Add(1)
	if _, ok := ctx.Deadline(); !ok {
		return errors.New("reload context has no deadline")
	}
	return s.err
}

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	old := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { slog.SetDefault(old) })
	return &buf
}

func TestRunNowOutcomes(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "ok", want: "refresh reload done"},
		{name: "no ticker", err: view.ErrNoTicker, want: "refresh skipped, no ticker loaded"},
		{name: "closed", err: view.ErrClosed, want: "refresh skipped, view closed"},
		{name: "backend down", err: errors.New("connection refused"), want: "refresh reload failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := captureLogs(t)
			target := &stubReloader{err: tt.err}
			s := NewScheduler(context.Background(), target, time.Second)
			s.RunNow()
			if got := target.calls.Load(); got != 1 {
				t.Fatalf("Reload calls = %d; want 1", got)
			}
			if s.Runs() != 1 {
				t.Fatalf("Runs() = %d; want 1", s.Runs())
			}
			if !strings.Contains(buf.String(), tt.want) {
				t.Fatalf("log = %q; want %q", buf.String(), tt.want)
			}
		})
	}
}

func TestOnFailureOnlyForFailures(t *testing.T) {
	var failures []error
	for _, err := range []error{nil, view.ErrNoTicker, errors.New("backend down")} {
		s := NewScheduler(context.Background(), &stubReloader{err: err}, time.Second)
		s.OnFailure(func(ctx context.Context, err error) { failures = append(failures, err) })
		s.RunNow()
	}
	if len(failures) != 1 || failures[0].Error() != "backend down" {
		t.Fatalf("failures = %v; want only the backend error", failures)
	}
}

func TestRegisterValidatesSchedule(t *testing.T) {
	s := NewScheduler(context.Background(), &stubReloader{}, time.Second)
	for _, spec := range []string{"*/5 * * * *", "0 */5 * * * *", "@every 30s", "@hourly"} {
		if err := s.Register(spec); err != nil {
			t.Fatalf("Register(%q) error = %v", spec, err)
		}
	}
	if err := s.Register("every five minutes"); err == nil {
		t.Fatal("Register(invalid) error = nil; want error")
	}
}

func TestSchedulerFires(t *testing.T) {
	target := &stubReloader{}
	s := NewScheduler(context.Background(), target, time.Second)
	if err := s.Register("@every 1s"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	s.Start()
	defer s.Stop()

	deadline := time.Now().Add(5 * time.Second)
	for target.calls.Load() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("reload never fired")
		}
		time.Sleep(50 * time.Millisecond)
	}
}
