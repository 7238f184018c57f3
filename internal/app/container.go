package app

import (
	"context"
	"io"
	"log/slog"

	"imagetales-web/internal/adapters"
	"imagetales-web/internal/config"
	"imagetales-web/internal/controllers/auth"
	"imagetales-web/internal/pipeline"
	"imagetales-web/internal/repository"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shouni/go-http-kit/pkg/httpkit"
	"github.com/shouni/go-remote-io/pkg/remoteio"
)

// FileStore は生成画像とアップロードファイルの保存先です。
type FileStore interface {
	Write(ctx context.Context, path string, r io.Reader, contentType string) error
	Open(ctx context.Context, path string) (io.ReadCloser, error)
}

// Container はアプリケーションの依存関係（DIコンテナ）を保持します。
type Container struct {
	Config *config.Config

	// Storage
	DB       *pgxpool.Pool
	RemoteIO *RemoteIO
	Files    FileStore

	// Repositories
	Users  *repository.UserRepository
	Images *repository.ImageRepository

	// Business Logic
	Pipeline *pipeline.StoryPipeline
	Tokens   *auth.TokenManager

	// External Adapters
	HTTPClient    httpkit.ClientInterface
	SlackNotifier adapters.SlackNotifier
}

// RemoteIO は GCS_BUCKET を設定した場合にだけ作られる GCS の I/O 一式です。
type RemoteIO struct {
	Factory remoteio.IOFactory
	Reader  remoteio.InputReader
	Writer  remoteio.OutputWriter
}

// Close は、Container が保持するすべての外部接続リソースを安全に解放します。
func (c *Container) Close() {
	if c.RemoteIO != nil && c.RemoteIO.Factory != nil {
		if err := c.RemoteIO.Factory.Close(); err != nil {
			slog.Error("failed to close IOFactory", "error", err)
		}
	}
	if c.DB != nil {
		c.DB.Close()
	}
}
