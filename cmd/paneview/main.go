package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgnsrekt/paneview/internal/api"
	"github.com/dgnsrekt/paneview/internal/browser"
	"github.com/dgnsrekt/paneview/internal/cdphost"
	"github.com/dgnsrekt/paneview/internal/config"
	"github.com/dgnsrekt/paneview/internal/controller"
	"github.com/dgnsrekt/paneview/internal/headless"
	"github.com/dgnsrekt/paneview/internal/market"
	"github.com/dgnsrekt/paneview/internal/netutil"
	"github.com/dgnsrekt/paneview/internal/notify"
	"github.com/dgnsrekt/paneview/internal/panes"
	"github.com/dgnsrekt/paneview/internal/refresh"
	"github.com/dgnsrekt/paneview/internal/relay"
	"github.com/dgnsrekt/paneview/internal/snapshot"
	"github.com/dgnsrekt/paneview/internal/storage"
	"github.com/dgnsrekt/paneview/internal/view"
	"github.com/dustin/go-humanize"
	"gopkg.in/natefinch/lumberjack.v2"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if err := setupLogger(cfg.LogLevel, cfg.LogFile); err != nil {
		if _, writeErr := io.WriteString(os.Stderr, "logger setup failed: "+err.Error()+"\n"); writeErr != nil {
			slog.Debug("logger setup stderr write failed", "error", writeErr)
		}
		os.Exit(1)
	}

	slog.Info("paneview config loaded",
		"bind_addr", cfg.BindAddr,
		"host", cfg.Host,
		"container_width", cfg.ContainerWidth,
		"backend_url", cfg.BackendURL,
		"ticker", cfg.Ticker,
		"data_file", cfg.DataFile,
		"show_rsi", cfg.ShowRSI,
		"show_macd", cfg.ShowMACD,
		"refresh_schedule", cfg.RefreshSchedule,
		"journal_dir", cfg.JournalDir,
		"snapshot_dir", cfg.SnapshotDir,
		"log_level", cfg.LogLevel,
		"log_file", cfg.LogFile,
	)

	layout, err := config.LoadLayout(cfg.LayoutFile)
	if err != nil {
		slog.Error("failed to load layout", "path", cfg.LayoutFile, "error", err)
		os.Exit(1)
	}
	relayCfg, err := relay.LoadConfig(cfg.RelayConfig)
	if err != nil {
		slog.Error("failed to load relay config", "path", cfg.RelayConfig, "error", err)
		os.Exit(1)
	}

	// The browser host loads /surface from this server, so bind first.
	ln, err := netutil.Listen(cfg.BindAddr, cfg.PortCandidates, cfg.PortAutoFallback)
	if err != nil {
		slog.Error("failed to bind", "preferred", cfg.BindAddr, "error", err)
		os.Exit(1)
	}
	cfg.BindAddr = ln.Addr().String()

	rootCtx, stop := context.WithCancel(context.Background())
	defer stop()

	var (
		host       panes.Host
		containers panes.Containers
		cdp        *cdphost.Host
		launcher   *browser.Launcher
	)
	switch cfg.Host {
	case config.HostBrowser:
		cdp = cdphost.New(cfg.CDPURL(), cfg.SurfaceURL(), cfg.EvalTimeout())
		host = cdp
		containers = cdphost.Containers(cfg.ContainerWidth)
	default:
		host = headless.New()
		containers = headless.Containers(cfg.ContainerWidth)
	}

	theme := layout.Theme
	v := view.New(view.Config{
		Host:       host,
		Containers: containers,
		Fetcher:    market.NewClient(cfg.BackendURL, cfg.BackendTimeout()),
		Visibility: panes.Visibility{ShowRSI: cfg.ShowRSI, ShowMACD: cfg.ShowMACD},
		Theme:      &theme,
		Heights:    layout.PaneHeights(),
	})

	var journal *storage.Journal
	if cfg.JournalDir != "" {
		journal = storage.NewJournal(cfg.JournalDir, cfg.JournalBuffer, cfg.JournalMaxSizeMB)
		v.Subscribe(journal.Record)
		slog.Info("event journal enabled", "dir", cfg.JournalDir,
			"max_size", humanize.IBytes(uint64(cfg.JournalMaxSizeMB)*humanize.MiByte))
	}

	broker := relay.NewBroker()
	rel := relay.NewRelay(relayCfg, broker)
	rel.Start(v)

	var snapStore *snapshot.Store
	if cfg.Host == config.HostBrowser {
		snapStore, err = snapshot.NewStore(cfg.SnapshotDir)
		if err != nil {
			slog.Error("failed to create snapshot store", "dir", cfg.SnapshotDir, "error", err)
			os.Exit(1)
		}
	}

	svc := controller.NewService(v, snapStore)
	srv := &http.Server{Handler: api.NewServer(svc, broker)}

	go func() {
		slog.Info("paneview listening", "addr", cfg.BindAddr, "docs", "http://"+cfg.BindAddr+"/docs")
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			slog.Error("paneview server failed", "error", err)
			os.Exit(1)
		}
	}()

	if cdp != nil {
		if cfg.LaunchBrowser {
			launcher = browser.NewLauncher(browser.Config{
				CDPAddress: cfg.CDPAddress,
				CDPPort:    cfg.CDPPort,
				StartURL:   cfg.SurfaceURL(),
				ProfileDir: cfg.ProfileDir,
				Headless:   cfg.BrowserHeadless,
			})
			if err := launcher.Launch(rootCtx); err != nil {
				slog.Error("failed to launch browser", "error", err)
				os.Exit(1)
			}
		}
		if err := cdp.Connect(rootCtx); err != nil {
			slog.Error("failed to connect browser host", "cdp_url", cfg.CDPURL(), "error", err)
			if launcher != nil {
				launcher.Stop()
			}
			os.Exit(1)
		}
	}

	initialLoad(rootCtx, cfg, v)

	var sched *refresh.Scheduler
	if cfg.RefreshSchedule != "" {
		sched = refresh.NewScheduler(rootCtx, v, cfg.BackendTimeout())
		if err := sched.Register(cfg.RefreshSchedule); err != nil {
			slog.Error("invalid refresh schedule", "schedule", cfg.RefreshSchedule, "error", err)
			os.Exit(1)
		}
		if cfg.NotifyURL != "" {
			n := notify.New(cfg.NotifyURL, nil)
			sched.OnFailure(func(ctx context.Context, err error) {
				ticker, _ := v.Ticker(ctx)
				if sendErr := n.Send(ctx, notify.RefreshFailed(ticker, err)); sendErr != nil {
					slog.Warn("refresh failure notification failed", "error", sendErr)
				}
			})
		}
		sched.Start()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	slog.Info("paneview shutting down")

	if sched != nil {
		sched.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("paneview shutdown failed", "error", err)
	}

	rel.Stop()
	if err := v.Close(); err != nil {
		slog.Debug("view close failed", "error", err)
	}
	if journal != nil {
		if err := journal.Close(); err != nil {
			slog.Debug("journal close failed", "error", err)
		}
	}
	if cdp != nil {
		if err := cdp.Close(); err != nil {
			slog.Debug("browser host close failed", "error", err)
		}
	}
	if launcher != nil {
		launcher.Stop()
	}
	stop()
}

// initialLoad shows the data file or ticker from config, or mounts empty
// panes. Failures are logged; the API stays up either way.
func initialLoad(ctx context.Context, cfg *config.Config, v *view.View) {
	loadCtx, cancel := context.WithTimeout(ctx, cfg.BackendTimeout())
	defer cancel()

	switch {
	case cfg.DataFile != "":
		resp, err := market.LoadFile(cfg.DataFile)
		if err == nil {
			err = v.LoadTicker(loadCtx, cfg.Ticker, resp)
		}
		if err != nil {
			slog.Error("initial data file load failed", "path", cfg.DataFile, "error", err)
			return
		}
		slog.Info("data file loaded", "path", cfg.DataFile, "records", len(resp.Data))
	case cfg.Ticker != "":
		if err := v.Fetch(loadCtx, cfg.Ticker); err != nil {
			slog.Error("initial fetch failed", "ticker", cfg.Ticker, "error", err)
			if mountErr := v.Mount(loadCtx); mountErr != nil {
				slog.Error("mount failed", "error", mountErr)
			}
			return
		}
		slog.Info("ticker loaded", "ticker", cfg.Ticker)
	default:
		if err := v.Mount(loadCtx); err != nil {
			slog.Error("mount failed", "error", err)
		}
	}
}

func setupLogger(level, filename string) error {
	if err := os.MkdirAll("logs", 0o755); err != nil {
		return err
	}

	logWriter := &lumberjack.Logger{
		Filename:   filename,
		MaxSize:    25,
		MaxBackups: 10,
		MaxAge:     14,
		Compress:   true,
	}

	var slogLevel slog.Level
	switch level {
	case "debug":
		slogLevel = slog.LevelDebug
	case "warn":
		slogLevel = slog.LevelWarn
	case "error":
		slogLevel = slog.LevelError
	default:
		slogLevel = slog.LevelInfo
	}

	h := slog.NewTextHandler(io.MultiWriter(os.Stdout, logWriter), &slog.HandlerOptions{Level: slogLevel})
	slog.SetDefault(slog.New(h))
	return nil
}
