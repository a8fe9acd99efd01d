// Package market reads historical price data from the backend.
package market

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/dgnsrekt/paneview/internal/panes"
)

const historicalPath = "/api/historical_data/"

// Indicators selects the precomputed indicators the backend should include.
type Indicators struct {
	RSI    bool
	MACD   bool
	EMA50  bool
	EMA100 bool
	EMA200 bool
}

func AllIndicators() Indicators {
	return Indicators{RSI: true, MACD: true, EMA50: true, EMA100: true, EMA200: true}
}

type ValueChange struct {
	Week  *float64 `json:"7D,omitempty"`
	Month *float64 `json:"30D,omitempty"`
	Year  *float64 `json:"1Y,omitempty"`
}

// Response is the backend historical data payload.
type Response struct {
	Data        []panes.Record `json:"data"`
	LatestPrice *float64       `json:"latest_price,omitempty"`
	ValueChange ValueChange    `json:"value_change"`
}

// BackendError is an {"error": "..."} reply.
type BackendError struct {
	Status  int
	Message string
}

func (e *BackendError) Error() string {
	if e.Status == 0 {
		return "backend error: " + e.Message
	}
	return fmt.Sprintf("backend error (status %d): %s", e.Status, e.Message)
}

// Decode parses a backend body. Malformed JSON degrades to an empty
// response; records that cannot be decoded are skipped.
func Decode(body []byte) (Response, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		slog.Warn("malformed backend response", "error", err, "bytes", len(body))
		return Response{}, nil
	}
	if msg, ok := raw["error"]; ok {
		var text string
		if err := json.Unmarshal(msg, &text); err != nil {
			text = strings.TrimSpace(string(msg))
		}
		return Response{}, &BackendError{Message: text}
	}

	var resp Response
	var items []json.RawMessage
	if data, ok := raw["data"]; ok {
		if err := json.Unmarshal(data, &items); err != nil {
			slog.Warn("backend data is not a list", "error", err)
		}
	}
	resp.Data = make([]panes.Record, 0, len(items))
	for i, item := range items {
		var rec panes.Record
		if err := json.Unmarshal(item, &rec); err != nil {
			slog.Debug("skipping undecodable record", "index", i, "error", err)
			continue
		}
		resp.Data = append(resp.Data, rec)
	}
	if v, ok := raw["latest_price"]; ok {
		var price float64
		if err := json.Unmarshal(v, &price); err == nil {
			resp.LatestPrice = &price
		}
	}
	if v, ok := raw["value_change"]; ok {
		if err := json.Unmarshal(v, &resp.ValueChange); err != nil {
			slog.Debug("ignoring malformed value_change", "error", err)
			resp.ValueChange = ValueChange{}
		}
	}
	return resp, nil
}

// LoadFile decodes a saved backend response.
func LoadFile(path string) (Response, error) {
	body, err := os.ReadFile(path)
	if err != nil {
		return Response{}, fmt.Errorf("read data file: %w", err)
	}
	return Decode(bytes.TrimSpace(body))
}

type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: timeout},
	}
}

// HistoricalURL builds the historical data URL for ticker.
func (c *Client) HistoricalURL(ticker string, ind Indicators) (string, error) {
	u, err := url.Parse(c.BaseURL + historicalPath)
	if err != nil {
		return "", fmt.Errorf("parse backend url: %w", err)
	}
	q := url.Values{}
	q.Set("ticker", ticker)
	flags := []struct {
		name string
		on   bool
	}{
		{"rsi", ind.RSI},
		{"macd", ind.MACD},
		{"ema50", ind.EMA50},
		{"ema100", ind.EMA100},
		{"ema200", ind.EMA200},
	}
	for _, f := range flags {
		if f.on {
			q.Set(f.name, "true")
		}
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Historical fetches the ticker's history with the selected indicators.
func (c *Client) Historical(ctx context.Context, ticker string, ind Indicators) (Response, error) {
	ticker = strings.TrimSpace(ticker)
	if ticker == "" {
		return Response{}, errors.New("ticker is required")
	}
	endpoint, err := c.HistoricalURL(ticker, ind)
	if err != nil {
		return Response{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Response{}, err
	}
	req.Header.Set("Accept", "application/json")

	client := c.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return Response{}, fmt.Errorf("backend fetch: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{}, fmt.Errorf("backend read body: %w", err)
	}

	out, err := Decode(body)
	var backendErr *BackendError
	if errors.As(err, &backendErr) {
		backendErr.Status = resp.StatusCode
		return Response{}, backendErr
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Response{}, fmt.Errorf("backend fetch failed: status=%d", resp.StatusCode)
	}
	slog.Debug("backend history loaded", "ticker", ticker, "records", len(out.Data))
	return out, err
}
