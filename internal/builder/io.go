package builder

import (
	"context"
	"fmt"
	"log/slog"

	"imagetales-web/internal/app"
	"imagetales-web/internal/asset"
	"imagetales-web/internal/config"

	"github.com/shouni/go-remote-io/pkg/gcsfactory"
)

// buildFileStore は GCS_BUCKET の有無に応じて保存先を選びます。
// GCS を使う場合は、後で Close するために RemoteIO も返します。
func buildFileStore(ctx context.Context, cfg *config.Config) (app.FileStore, *app.RemoteIO, error) {
	if !cfg.UsesGCS() {
		slog.Info("ローカルディスクを保存先に使用します", "generated_dir", cfg.GeneratedDir, "upload_dir", cfg.UploadDir)
		return asset.NewLocalStore(), nil, nil
	}

	rio, err := buildRemoteIO(ctx)
	if err != nil {
		return nil, nil, err
	}
	slog.Info("GCS を保存先に使用します", "bucket", cfg.GCSBucket)
	return asset.NewRemoteStore(rio.Reader, rio.Writer), rio, nil
}

// buildRemoteIO は、GCS ベースの I/O コンポーネントを初期化します。
func buildRemoteIO(ctx context.Context) (*app.RemoteIO, error) {
	factory, err := gcsfactory.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS factory: %w", err)
	}
	r, err := factory.InputReader()
	if err != nil {
		_ = factory.Close()
		return nil, fmt.Errorf("failed to create input reader: %w", err)
	}
	w, err := factory.OutputWriter()
	if err != nil {
		_ = factory.Close()
		return nil, fmt.Errorf("failed to create output writer: %w", err)
	}
	return &app.RemoteIO{
		Factory: factory,
		Reader:  r,
		Writer:  w,
	}, nil
}
