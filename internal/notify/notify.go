// Package notify posts plain-text alerts to an ntfy-style endpoint.
package notify

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Notifier posts messages to one endpoint. Title and tags are sent as ntfy
// headers when set.
type Notifier struct {
	endpoint string
	title    string
	tags     string
	client   *http.Client
}

func New(endpoint string, client *http.Client) *Notifier {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Notifier{endpoint: endpoint, title: "paneview", tags: "chart_with_upwards_trend", client: client}
}

func (n *Notifier) Send(ctx context.Context, message string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(message))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "text/plain")
	if n.title != "" {
		req.Header.Set("Title", n.title)
	}
	if n.tags != "" {
		req.Header.Set("Tags", n.tags)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Debug("notify response close failed", "error", err)
		}
	}()
	if _, err := io.Copy(io.Discard, resp.Body); err != nil {
		slog.Debug("notify response drain failed", "error", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("notification failed: status=%d", resp.StatusCode)
	}
	return nil
}

// RefreshFailed formats a reload failure for ticker.
func RefreshFailed(ticker string, err error) string {
	if ticker == "" {
		ticker = "(none)"
	}
	return fmt.Sprintf("refresh of %s failed: %v", ticker, err)
}
