package httpserver_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"assethost.local/internal/platform/config"
	"assethost.local/internal/platform/httpserver"
)

func TestHTTPServerNew_UsesConfigAndHandler(t *testing.T) {
	cfg := config.Config{
		Addr:              "127.0.0.1:0",
		ReadHeaderTimeout: 2 * time.Second,
		ReadTimeout:       3 * time.Second,
		WriteTimeout:      4 * time.Second,
		IdleTimeout:       5 * time.Second,
	}
	handler := http.NewServeMux()

	srv := httpserver.New(cfg, handler)

	if srv.Addr != cfg.Addr {
		t.Fatalf("Addr: got %q, want %q", srv.Addr, cfg.Addr)
	}
	if srv.Handler != handler {
		t.Fatalf("Handler: got %T, want %T", srv.Handler, handler)
	}
	if srv.ReadHeaderTimeout != cfg.ReadHeaderTimeout {
		t.Fatalf("ReadHeaderTimeout: got %v, want %v", srv.ReadHeaderTimeout, cfg.ReadHeaderTimeout)
	}
	if srv.ReadTimeout != cfg.ReadTimeout {
		t.Fatalf("ReadTimeout: got %v, want %v", srv.ReadTimeout, cfg.ReadTimeout)
	}
	if srv.WriteTimeout != cfg.WriteTimeout {
		t.Fatalf("WriteTimeout: got %v, want %v", srv.WriteTimeout, cfg.WriteTimeout)
	}
	if srv.IdleTimeout != cfg.IdleTimeout {
		t.Fatalf("IdleTimeout: got %v, want %v", srv.IdleTimeout, cfg.IdleTimeout)
	}
}

func TestHTTPServerNewAdmin_UsesAdminAddr(t *testing.T) {
	cfg := config.Config{
		Addr:         "127.0.0.1:0",
		AdminAddr:    "127.0.0.1:6061",
		WriteTimeout: 4 * time.Second,
	}

	srv := httpserver.NewAdmin(cfg, http.NewServeMux())

	if srv.Addr != cfg.AdminAddr {
		t.Fatalf("Addr: got %q, want %q", srv.Addr, cfg.AdminAddr)
	}
	if srv.WriteTimeout != cfg.WriteTimeout {
		t.Fatalf("WriteTimeout: got %v, want %v", srv.WriteTimeout, cfg.WriteTimeout)
	}
}

func TestRunWithGracefulShutdownContext_CancelStopsServer(t *testing.T) {
	cfg := config.Config{
		Addr:              "127.0.0.1:0",
		ReadHeaderTimeout: 500 * time.Millisecond,
		ReadTimeout:       500 * time.Millisecond,
		WriteTimeout:      500 * time.Millisecond,
		IdleTimeout:       500 * time.Millisecond,
	}
	srv := httpserver.New(cfg, http.NewServeMux())

	stopCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- httpserver.RunWithGracefulShutdownContext(srv, 500*time.Millisecond, stopCtx)
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for shutdown")
	}
}

func TestRunAll_OneFailureStopsTheOthers(t *testing.T) {
	cfg := config.Config{
		Addr:              "127.0.0.1:0",
		AdminAddr:         "256.0.0.1:bad",
		ReadHeaderTimeout: 500 * time.Millisecond,
	}
	public := httpserver.New(cfg, http.NewServeMux())
	admin := httpserver.NewAdmin(cfg, http.NewServeMux())

	done := make(chan error, 1)
	go func() {
		done <- httpserver.RunAll(context.Background(), 500*time.Millisecond, public, admin)
	}()

	select {
	case err := <-done:
		if err == nil {
			t.Fatal("expected listen error from admin server")
		}
	case <-time.After(3 * time.Second):
		t.Fatal("RunAll did not return after a server failed")
	}
}

func TestRunAll_CancelStopsAll(t *testing.T) {
	cfg := config.Config{Addr: "127.0.0.1:0", AdminAddr: "127.0.0.1:0"}
	stopCtx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- httpserver.RunAll(stopCtx, 500*time.Millisecond,
			httpserver.New(cfg, http.NewServeMux()), httpserver.NewAdmin(cfg, http.NewServeMux()))
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timeout waiting for shutdown")
	}
}
