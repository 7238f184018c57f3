package handlers

import (
	"context"
	"io"
	"time"

	"imagetales-web/internal/config"
	"imagetales-web/internal/domain"

	"github.com/patrickmn/go-cache"
)

// Generator は画像・ストーリー生成のユースケースです。
type Generator interface {
	BuildStory(ctx context.Context, req domain.GenerationRequest) (*domain.StoryResult, error)
	GenerateImage(ctx context.Context, req domain.GenerationRequest) (*domain.GeneratedImage, error)
	ModifyImage(ctx context.Context, req domain.GenerationRequest) (*domain.GeneratedImage, error)
	AnalyzeImage(ctx context.Context, data []byte, mediaType string) (map[string]any, error)
}

type UserStore interface {
	Create(ctx context.Context, email, username string, passwordHash []byte) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
}

type ImageStore interface {
	Create(ctx context.Context, img domain.NewImage) (string, error)
	FindByUser(ctx context.Context, userID string, limit int) ([]domain.Image, error)
	FindByID(ctx context.Context, id string) (*domain.Image, error)
	FindByURL(ctx context.Context, url string) (*domain.Image, error)
	GetAll(ctx context.Context, q domain.GalleryQuery) ([]domain.Image, error)
	IncrementViews(ctx context.Context, id string) error
	ToggleLike(ctx context.Context, id, userID string) (domain.LikeStatus, error)
	Delete(ctx context.Context, id, ownerID string) error
}

// FileStore は生成画像とアップロードファイルの保存先です。
type FileStore interface {
	Write(ctx context.Context, path string, r io.Reader, contentType string) error
	Open(ctx context.Context, path string) (io.ReadCloser, error)
}

type Notifier interface {
	Notify(ctx context.Context, publicURL string, req domain.NotificationRequest) error
	NotifyError(ctx context.Context, errDetail error, req domain.NotificationRequest) error
}

type TokenIssuer interface {
	Issue(userID string) (string, error)
}

// Dependencies は Handler が利用するコンポーネント一式です。
type Dependencies struct {
	Generator Generator
	Users     UserStore
	Images    ImageStore
	Files     FileStore
	Notifier  Notifier
	Tokens    TokenIssuer
}

type Handler struct {
	cfg          *config.Config
	generator    Generator
	users        UserStore
	images       ImageStore
	files        FileStore
	notifier     Notifier
	tokens       TokenIssuer
	galleryCache *cache.Cache
	now          func() time.Time
}

// NewHandler は指定された構成と依存関係から新しいハンドラーを初期化します。
// GalleryCacheTTL が 0 以下の場合、ギャラリーのキャッシュは無効です。
func NewHandler(cfg *config.Config, deps Dependencies) *Handler {
	h := &Handler{
		cfg:       cfg,
		generator: deps.Generator,
		users:     deps.Users,
		images:    deps.Images,
		files:     deps.Files,
		notifier:  deps.Notifier,
		tokens:    deps.Tokens,
		now:       time.Now,
	}
	if cfg.GalleryCacheTTL > 0 {
		h.galleryCache = cache.New(cfg.GalleryCacheTTL, 2*cfg.GalleryCacheTTL)
	}
	return h
}
