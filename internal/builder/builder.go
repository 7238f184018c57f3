package builder

import (
	"context"
	"fmt"
	"net/http"

	"imagetales-web/internal/adapters"
	"imagetales-web/internal/app"
	"imagetales-web/internal/asset"
	"imagetales-web/internal/config"
	"imagetales-web/internal/controllers/auth"
	"imagetales-web/internal/pipeline"
	"imagetales-web/internal/prompts"
	"imagetales-web/internal/repository"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shouni/go-http-kit/pkg/httpkit"
)

// BuildContainer は外部サービスとの接続を確立し、依存関係を組み立てます。
func BuildContainer(ctx context.Context, cfg *config.Config) (_ *app.Container, err error) {
	c := &app.Container{Config: cfg}
	defer func() {
		if err != nil {
			c.Close()
		}
	}()

	// 1. 基盤クライアントの初期化
	c.HTTPClient = httpkit.New(cfg.HTTPTimeout)

	// 2. データベースとマイグレーション
	if c.DB, err = buildDatabase(ctx, cfg); err != nil {
		return nil, err
	}
	c.Users = repository.NewUserRepository(c.DB)
	c.Images = repository.NewImageRepository(c.DB)

	// 3. 保存先 (ローカル or GCS)
	if c.Files, c.RemoteIO, err = buildFileStore(ctx, cfg); err != nil {
		return nil, err
	}

	// 4. 生成パイプライン
	if c.Pipeline, err = buildPipeline(ctx, cfg, c.Files); err != nil {
		return nil, err
	}

	// 5. 認証とアダプター
	c.Tokens = auth.NewTokenManager(cfg.SecretKey, cfg.TokenTTL)
	slack, err := adapters.NewSlackAdapter(c.HTTPClient, cfg.SlackWebhookURL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Slack adapter: %w", err)
	}
	c.SlackNotifier = slack

	return c, nil
}

// buildDatabase は接続プールを作成し、埋め込みのマイグレーションを適用します。
func buildDatabase(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	pool, err := repository.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("データベースへの接続に失敗しました: %w", err)
	}

	migrations, err := repository.Migrations()
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to load embedded migrations: %w", err)
	}
	if err := repository.RunMigrations(cfg.DatabaseURL, migrations); err != nil {
		pool.Close()
		return nil, fmt.Errorf("マイグレーションの適用に失敗しました: %w", err)
	}
	return pool, nil
}

// buildPipeline は Gemini クライアントと保存先からストーリー生成パイプラインを組み立てます。
func buildPipeline(ctx context.Context, cfg *config.Config, files app.FileStore) (*pipeline.StoryPipeline, error) {
	gemini, err := adapters.NewGeminiAdapter(ctx, adapters.GeminiConfig{
		APIKey:       cfg.GeminiAPIKey,
		ImageModel:   cfg.ImageModel,
		TextModel:    cfg.GeminiModel,
		RateInterval: cfg.RateInterval,
		HTTPClient:   &http.Client{Timeout: cfg.HTTPTimeout},
	})
	if err != nil {
		return nil, fmt.Errorf("AIクライアントの初期化に失敗しました: %w", err)
	}

	pb, err := prompts.NewBuilder()
	if err != nil {
		return nil, err
	}

	materializer := asset.NewMaterializer(files, cfg.GetGeneratedPath)
	return pipeline.NewStoryPipeline(gemini, materializer, pb, pipeline.WithStyleSuffix(cfg.StyleSuffix)), nil
}
