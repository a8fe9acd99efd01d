package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Host kinds.
const (
	HostHeadless = "headless"
	HostBrowser  = "browser"
)

// Config holds all configuration for the paneview service.
type Config struct {
	// API and logging
	BindAddr         string
	PortCandidates   []string
	PortAutoFallback bool
	LogLevel         string
	LogFile          string
	NotifyURL        string

	// Rendering host
	Host           string
	ContainerWidth int

	// Browser host
	CDPAddress      string
	CDPPort         int
	LaunchBrowser   bool
	BrowserHeadless bool
	ProfileDir      string
	EvalTimeoutMS   int

	// Data
	BackendURL       string
	BackendTimeoutMS int
	Ticker           string
	DataFile         string
	ShowRSI          bool
	ShowMACD         bool
	RefreshSchedule  string

	// Storage
	JournalDir       string
	JournalMaxSizeMB int
	JournalBuffer    int
	SnapshotDir      string

	// YAML files
	LayoutFile  string
	RelayConfig string
}

// Load reads configuration from environment variables and optional .env file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	}

	cfg := &Config{
		BindAddr:         getEnvOrDefault("PANEVIEW_BIND_ADDR", "127.0.0.1:8190"),
		PortCandidates:   splitList(getEnvOrDefault("PANEVIEW_PORT_CANDIDATES", "127.0.0.1:8191,127.0.0.1:8192")),
		PortAutoFallback: getEnvBoolOrDefault("PANEVIEW_PORT_AUTO_FALLBACK", true),
		LogLevel:         strings.ToLower(getEnvOrDefault("PANEVIEW_LOG_LEVEL", "info")),
		LogFile:          getEnvOrDefault("PANEVIEW_LOG_FILE", "logs/paneview.log"),
		NotifyURL:        getEnvOrDefault("PANEVIEW_NOTIFY_URL", ""),
		Host:             strings.ToLower(getEnvOrDefault("PANEVIEW_HOST", HostHeadless)),
		ContainerWidth:   getEnvIntOrDefault("PANEVIEW_CONTAINER_WIDTH", 960),
		CDPAddress:       getEnvOrDefault("CHROMIUM_CDP_ADDRESS", "127.0.0.1"),
		CDPPort:          getEnvIntOrDefault("CHROMIUM_CDP_PORT", 9220),
		LaunchBrowser:    getEnvBoolOrDefault("PANEVIEW_LAUNCH_BROWSER", false),
		BrowserHeadless:  getEnvBoolOrDefault("PANEVIEW_BROWSER_HEADLESS", true),
		ProfileDir:       getEnvOrDefault("PANEVIEW_PROFILE_DIR", "./browser_profile"),
		EvalTimeoutMS:    getEnvIntOrDefault("PANEVIEW_EVAL_TIMEOUT_MS", 5000),
		BackendURL:       getEnvOrDefault("PANEVIEW_BACKEND_URL", "http://127.0.0.1:8000"),
		BackendTimeoutMS: getEnvIntOrDefault("PANEVIEW_BACKEND_TIMEOUT_MS", 15000),
		Ticker:           getEnvOrDefault("PANEVIEW_TICKER", ""),
		DataFile:         getEnvOrDefault("PANEVIEW_DATA_FILE", ""),
		ShowRSI:          getEnvBoolOrDefault("PANEVIEW_SHOW_RSI", false),
		ShowMACD:         getEnvBoolOrDefault("PANEVIEW_SHOW_MACD", false),
		RefreshSchedule:  getEnvOrDefault("PANEVIEW_REFRESH_SCHEDULE", ""),
		JournalDir:       getEnvOrDefault("PANEVIEW_JOURNAL_DIR", ""),
		JournalMaxSizeMB: getEnvIntOrDefault("PANEVIEW_JOURNAL_MAX_SIZE_MB", 50),
		JournalBuffer:    getEnvIntOrDefault("PANEVIEW_JOURNAL_BUFFER", 1000),
		SnapshotDir:      getEnvOrDefault("SNAPSHOT_DIR", "./snapshots"),
		LayoutFile:       getEnvOrDefault("PANEVIEW_LAYOUT_FILE", "./config/layout.yaml"),
		RelayConfig:      getEnvOrDefault("PANEVIEW_RELAY_CONFIG", "./config/relay.yaml"),
	}
	if cfg.EvalTimeoutMS < 1000 {
		cfg.EvalTimeoutMS = 1000
	}
	if cfg.Host != HostHeadless && cfg.Host != HostBrowser {
		return nil, fmt.Errorf("PANEVIEW_HOST must be %q or %q, got %q", HostHeadless, HostBrowser, cfg.Host)
	}
	if cfg.ContainerWidth <= 0 {
		return nil, fmt.Errorf("PANEVIEW_CONTAINER_WIDTH must be positive, got %d", cfg.ContainerWidth)
	}
	return cfg, nil
}

// CDPURL returns the CDP HTTP endpoint used by the chromedp remote allocator.
func (c *Config) CDPURL() string {
	return "http://" + c.CDPAddress + ":" + strconv.Itoa(c.CDPPort)
}

// SurfaceURL is the page the browser host opens, served by the API.
func (c *Config) SurfaceURL() string {
	return "http://" + c.BindAddr + "/surface"
}

func (c *Config) EvalTimeout() time.Duration {
	return time.Duration(c.EvalTimeoutMS) * time.Millisecond
}

func (c *Config) BackendTimeout() time.Duration {
	return time.Duration(c.BackendTimeoutMS) * time.Millisecond
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvIntOrDefault(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvBoolOrDefault(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}

func splitList(val string) []string {
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
