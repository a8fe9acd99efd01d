package browser

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"syscall"
	"time"
)

// Config holds browser launch configuration.
type Config struct {
	CDPAddress string
	CDPPort    int
	// StartURL is the surface page; it opens as an app window unless Headless.
	StartURL   string
	ProfileDir string
	Headless   bool
	WindowSize string
}

const cdpReadyTimeout = 15 * time.Second

// Launcher manages the lifecycle of a browser process.
type Launcher struct {
	cfg     Config
	cmd     *exec.Cmd
	running bool
}

// NewLauncher creates a new browser launcher with the given config.
func NewLauncher(cfg Config) *Launcher {
	if cfg.WindowSize == "" {
		cfg.WindowSize = "1280,900"
	}
	return &Launcher{cfg: cfg}
}

// CDPURL is the DevTools HTTP endpoint of the launched browser.
func (l *Launcher) CDPURL() string {
	return fmt.Sprintf("http://%s:%d", l.cfg.CDPAddress, l.cfg.CDPPort)
}

var browserNames = []string{"chromium-browser", "chromium", "google-chrome", "google-chrome-stable"}

const macChrome = "/Applications/Google Chrome.app/Contents/MacOS/Google Chrome"

// findBrowser resolves a Chrome or Chromium binary from PATH.
func findBrowser() (string, error) {
	for _, name := range browserNames {
		if path, err := exec.LookPath(name); err == nil {
			return path, nil
		}
	}
	if runtime.GOOS == "darwin" {
		if _, err := os.Stat(macChrome); err == nil {
			return macChrome, nil
		}
	}
	return "", fmt.Errorf("no chromium binary found (tried %v)", browserNames)
}

// cdpListening reports whether something accepts connections on the CDP port.
func (l *Launcher) cdpListening() bool {
	conn, err := net.DialTimeout("tcp", net.JoinHostPort(l.cfg.CDPAddress, strconv.Itoa(l.cfg.CDPPort)), time.Second)
	if err != nil {
		return false
	}
	if err := conn.Close(); err != nil {
		slog.Debug("cdp probe close failed", "error", err)
	}
	return true
}

func (l *Launcher) args() []string {
	args := []string{
		fmt.Sprintf("--remote-debugging-port=%d", l.cfg.CDPPort),
		fmt.Sprintf("--remote-debugging-address=%s", l.cfg.CDPAddress),
		fmt.Sprintf("--user-data-dir=%s", l.cfg.ProfileDir),
		"--no-first-run",
		"--disable-dev-shm-usage",
		"--disable-breakpad",
		"--disable-crash-reporter",
		fmt.Sprintf("--window-size=%s", l.cfg.WindowSize),
	}
	if l.cfg.Headless {
		return append(args, "--headless=new", "--hide-scrollbars", "about:blank")
	}
	// The host navigates its own tab; the app window shows the same page.
	return append(args, "--app="+l.cfg.StartURL)
}

// Launch starts the browser process unless the CDP port is already in use.
func (l *Launcher) Launch(ctx context.Context) error {
	if l.cdpListening() {
		slog.Info("cdp port already open, reusing running browser",
			"address", l.cfg.CDPAddress, "port", l.cfg.CDPPort)
		return nil
	}

	browserPath, err := findBrowser()
	if err != nil {
		return err
	}
	slog.Info("launching browser", "path", browserPath, "headless", l.cfg.Headless, "start_url", l.cfg.StartURL)

	if err := os.MkdirAll(l.cfg.ProfileDir, 0o755); err != nil {
		return fmt.Errorf("create profile dir: %w", err)
	}

	l.cmd = exec.Command(browserPath, l.args()...)
	l.cmd.Stdout = os.Stdout
	l.cmd.Stderr = os.Stderr

	if err := l.cmd.Start(); err != nil {
		return fmt.Errorf("start browser: %w", err)
	}
	l.running = true
	slog.Info("browser process started", "pid", l.cmd.Process.Pid)

	if err := l.waitForCDP(ctx); err != nil {
		l.Stop()
		return fmt.Errorf("wait for cdp: %w", err)
	}
	slog.Info("cdp endpoint ready", "url", l.CDPURL())

	return nil
}

// waitForCDP polls /json/version until the browser answers or
// cdpReadyTimeout passes.
func (l *Launcher) waitForCDP(ctx context.Context) error {
	url := l.CDPURL() + "/json/version"
	ctx, cancel := context.WithTimeout(ctx, cdpReadyTimeout)
	defer cancel()
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	client := &http.Client{Timeout: time.Second}
	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("cdp not ready at %s: %w", url, ctx.Err())
		case <-ticker.C:
			resp, err := client.Get(url)
			if err != nil {
				continue
			}
			if err := resp.Body.Close(); err != nil {
				slog.Debug("cdp version body close failed", "error", err)
			}
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
	}
}

// Running reports whether this launcher spawned a browser process.
func (l *Launcher) Running() bool {
	return l.running
}

// Stop terminates the browser process with SIGTERM, falling back to SIGKILL.
func (l *Launcher) Stop() {
	if l.cmd == nil || l.cmd.Process == nil {
		return
	}
	pid := l.cmd.Process.Pid
	slog.Info("stopping browser", "pid", pid)
	if err := l.cmd.Process.Signal(syscall.SIGTERM); err != nil {
		slog.Debug("browser sigterm failed", "pid", pid, "error", err)
	}

	done := make(chan struct{})
	go func() {
		if err := l.cmd.Wait(); err != nil {
			slog.Debug("browser exited", "pid", pid, "error", err)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		slog.Warn("browser ignored sigterm, killing", "pid", pid)
		if err := l.cmd.Process.Kill(); err != nil {
			slog.Debug("browser kill failed", "pid", pid, "error", err)
		}
		<-done
	}
	l.cmd = nil
	l.running = false
}
