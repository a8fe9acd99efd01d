package notify

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func reply(status int) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader("ok")),
		Header:     make(http.Header),
	}
}

func TestSendPostsMessage(t *testing.T) {
	var got *http.Request
	var body string
	client := &http.Client{
		Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			got = r
			raw, err := io.ReadAll(r.Body)
			if err != nil {
				t.Fatalf("read body: %v", err)
			}
			body = string(raw)
			return reply(http.StatusOK), nil
		}),
	}

	n := New("http://example.com/paneview", client)
	if err := n.Send(context.Background(), "hello"); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if got.Method != http.MethodPost || got.URL.Path != "/paneview" {
		t.Fatalf("request = %s %s; want POST /paneview", got.Method, got.URL.Path)
	}
	if got.Header.Get("Content-Type") != "text/plain" || got.Header.Get("Title") != "paneview" {
		t.Fatalf("headers = %v", got.Header)
	}
	if body != "hello" {
		t.Fatalf("body = %q; want %q", body, "hello")
	}
}

func TestSendReturnsErrorOnNon2xx(t *testing.T) {
	client := &http.Client{
		Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			return reply(http.StatusBadGateway), nil
		}),
	}
	err := New("http://example.com/paneview", client).Send(context.Background(), "hello")
	if err == nil || !strings.Contains(err.Error(), "status=502") {
		t.Fatalf("Send() error = %v; want status=502", err)
	}
}

func TestRefreshFailed(t *testing.T) {
	if got, want := RefreshFailed("BTC-USD", errors.New("timeout")), "refresh of BTC-USD failed: timeout"; got != want {
		t.Fatalf("RefreshFailed() = %q; want %q", got, want)
	}
	if got := RefreshFailed("", errors.New("x")); !strings.Contains(got, "(none)") {
		t.Fatalf("RefreshFailed() = %q; want (none) placeholder", got)
	}
}
