package browser

import (
	"context"
	"net"
	"slices"
	"testing"
)

func TestLauncherArgs(t *testing.T) {
	app := NewLauncher(Config{CDPAddress: "127.0.0.1", CDPPort: 9220, StartURL: "http://127.0.0.1:8190/surface", ProfileDir: "/tmp/p"})
	args := app.args()
	if got := args[len(args)-1]; got != "--app=http://127.0.0.1:8190/surface" {
		t.Fatalf("last arg = %q; want app url", got)
	}
	if !slices.Contains(args, "--window-size=1280,900") {
		t.Fatalf("args = %v; want default window size", args)
	}
	if slices.Contains(args, "--headless=new") {
		t.Fatalf("args = %v; app mode must not be headless", args)
	}

	headless := NewLauncher(Config{CDPAddress: "127.0.0.1", CDPPort: 9220, Headless: true, WindowSize: "800,600"})
	args = headless.args()
	if !slices.Contains(args, "--headless=new") || args[len(args)-1] != "about:blank" {
		t.Fatalf("headless args = %v", args)
	}
	if got := headless.CDPURL(); got != "http://127.0.0.1:9220" {
		t.Fatalf("CDPURL() = %q; want http://127.0.0.1:9220", got)
	}
}

func TestLaunchSkipsWhenPortInUse(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	defer ln.Close()
	port := ln.Addr().(*net.TCPAddr).Port

	l := NewLauncher(Config{CDPAddress: "127.0.0.1", CDPPort: port, ProfileDir: t.TempDir()})
	if err := l.Launch(context.Background()); err != nil {
		t.Fatalf("Launch() error = %v; want nil", err)
	}
	if l.Running() {
		t.Fatal("Running() = true; want false when an existing browser owns the port")
	}
	l.Stop()
}
