package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"imagetales-web/internal/builder"
	"imagetales-web/internal/config"
)

const (
	readHeaderTimeout      = 10 * time.Second
	fallbackShutdownPeriod = 15 * time.Second
)

// Run は設定を読み込んで依存関係を組み立て、SIGINT/SIGTERM を受けるまで API を提供します。
func Run(ctx context.Context) error {
	cfg := config.LoadConfig()
	if err := config.ValidateEssentialConfig(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	container, err := builder.BuildContainer(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to build application container: %w", err)
	}
	defer container.Close()

	srv := &http.Server{
		Handler:           NewRouter(cfg, builder.BuildHandlers(container)),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	ln, err := net.Listen("tcp", ":"+cfg.Port)
	if err != nil {
		return fmt.Errorf("listen on port %s: %w", cfg.Port, err)
	}
	slog.Info("ImageTales API を起動しました", "addr", ln.Addr().String(), "service_url", cfg.ServiceURL)

	return serve(ctx, srv, ln, cfg.ShutdownTimeout)
}

// serve は ln で srv を動かし、ctx が終わったら shutdownTimeout の範囲で処理中のリクエストを待って停止します。
func serve(ctx context.Context, srv *http.Server, ln net.Listener, shutdownTimeout time.Duration) error {
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	if shutdownTimeout <= 0 {
		shutdownTimeout = fallbackShutdownPeriod
	}
	slog.Info("停止要求を受け付けました。処理中のリクエストを待ちます", "timeout", shutdownTimeout)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		// 待ちきれなかった接続は切断する
		closeErr := srv.Close()
		return errors.Join(fmt.Errorf("graceful shutdown: %w", err), closeErr)
	}

	slog.Info("ImageTales API を停止しました")
	return nil
}
