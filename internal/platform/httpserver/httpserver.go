package httpserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"assethost.local/internal/platform/config"
	"golang.org/x/sync/errgroup"
)

// New 创建对外服务（public listener）。
func New(cfg config.Config, handler http.Handler) *http.Server {
	return newServer(cfg, cfg.Addr, handler)
}

// NewAdmin 创建管理端口服务（/metrics、/readyz 等），推荐只监听 127.0.0.1。
func NewAdmin(cfg config.Config, handler http.Handler) *http.Server {
	return newServer(cfg, cfg.AdminAddr, handler)
}

func newServer(cfg config.Config, addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		Addr:              addr,
	}
}

// RunAll 同时跑多个 server（public + admin）。stopCtx 结束或任意一个
// server 出错时，全部优雅关闭；返回第一个错误。
func RunAll(stopCtx context.Context, shutdownTimeout time.Duration, servers ...*http.Server) error {
	g, ctx := errgroup.WithContext(stopCtx)
	for _, srv := range servers {
		g.Go(func() error {
			if err := RunWithGracefulShutdownContext(srv, shutdownTimeout, ctx); err != nil {
				return fmt.Errorf("%s: %w", srv.Addr, err)
			}
			return nil
		})
	}
	return g.Wait()
}

func RunWithGracefulShutdownContext(srv *http.Server, shutdownTimeout time.Duration, stopCtx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-stopCtx.Done():
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	}
	return nil
}
