package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dgnsrekt/paneview/internal/panes"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.BindAddr != "127.0.0.1:8190" || cfg.Host != HostHeadless || cfg.ContainerWidth != 960 {
		t.Fatalf("Load() = %+v; want defaults", cfg)
	}
	if got := cfg.CDPURL(); got != "http://127.0.0.1:9220" {
		t.Fatalf("CDPURL() = %q", got)
	}
	if got := cfg.SurfaceURL(); got != "http://127.0.0.1:8190/surface" {
		t.Fatalf("SurfaceURL() = %q", got)
	}
	if len(cfg.PortCandidates) != 2 || !cfg.PortAutoFallback {
		t.Fatalf("PortCandidates = %v fallback = %v", cfg.PortCandidates, cfg.PortAutoFallback)
	}
	if cfg.JournalMaxSizeMB != 50 || cfg.JournalBuffer != 1000 {
		t.Fatalf("journal limits = %d/%d; want 50/1000", cfg.JournalMaxSizeMB, cfg.JournalBuffer)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PANEVIEW_HOST", "Browser")
	t.Setenv("PANEVIEW_SHOW_RSI", "true")
	t.Setenv("PANEVIEW_SHOW_MACD", "not-a-bool")
	t.Setenv("PANEVIEW_EVAL_TIMEOUT_MS", "10")
	t.Setenv("PANEVIEW_CONTAINER_WIDTH", "abc")
	t.Setenv("PANEVIEW_LOG_LEVEL", "DEBUG")
	t.Setenv("PANEVIEW_PORT_CANDIDATES", " 127.0.0.1:9001, ,127.0.0.1:9002")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Host != HostBrowser {
		t.Fatalf("Host = %q; want browser", cfg.Host)
	}
	if !cfg.ShowRSI || cfg.ShowMACD {
		t.Fatalf("ShowRSI/ShowMACD = %v/%v; want true/false", cfg.ShowRSI, cfg.ShowMACD)
	}
	if cfg.EvalTimeout() != time.Second {
		t.Fatalf("EvalTimeout() = %v; want 1s floor", cfg.EvalTimeout())
	}
	if cfg.ContainerWidth != 960 {
		t.Fatalf("ContainerWidth = %d; want default for unparsable value", cfg.ContainerWidth)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("LogLevel = %q; want debug", cfg.LogLevel)
	}
	if len(cfg.PortCandidates) != 2 || cfg.PortCandidates[1] != "127.0.0.1:9002" {
		t.Fatalf("PortCandidates = %q; want two trimmed entries", cfg.PortCandidates)
	}
}

func TestLoadReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("PANEVIEW_TICKER=ETH-USD\n"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	t.Setenv("PANEVIEW_TICKER", "")
	os.Unsetenv("PANEVIEW_TICKER")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Ticker != "ETH-USD" {
		t.Fatalf("Ticker = %q; want ETH-USD from .env", cfg.Ticker)
	}
}

func TestLoadRejectsUnknownHost(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PANEVIEW_HOST", "gpu")
	if _, err := Load(); err == nil {
		t.Fatal("Load() error = nil; want error for unknown host")
	}
}

func TestLoadLayout(t *testing.T) {
	missing, err := LoadLayout(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("LoadLayout(missing) error = %v", err)
	}
	if missing.Theme != panes.DefaultTheme() || missing.PaneHeights()[panes.PanePrice] != 300 {
		t.Fatalf("LoadLayout(missing) = %+v; want defaults", missing)
	}

	path := filepath.Join(t.TempDir(), "layout.yaml")
	body := "theme:\n  background: \"#000000\"\nheights:\n  rsi: 200\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	layout, err := LoadLayout(path)
	if err != nil {
		t.Fatalf("LoadLayout() error = %v", err)
	}
	if layout.Theme.Background != "#000000" || layout.Theme.Text != "#d1d4dc" {
		t.Fatalf("theme = %+v; want background override over defaults", layout.Theme)
	}
	heights := layout.PaneHeights()
	if heights[panes.PaneRSI] != 200 || heights[panes.PaneMACD] != 150 {
		t.Fatalf("PaneHeights() = %v; want rsi 200, macd 150", heights)
	}
}

func TestLoadLayoutValidation(t *testing.T) {
	tests := map[string]string{
		"unknown pane": "heights:\n  volume: 100\n",
		"zero height":  "heights:\n  price: 0\n",
		"bad yaml":     "theme: [\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "layout.yaml")
			if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
				t.Fatalf("WriteFile() error = %v", err)
			}
			if _, err := LoadLayout(path); err == nil {
				t.Fatal("LoadLayout() error = nil; want error")
			}
		})
	}
}
