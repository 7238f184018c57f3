package config

import (
	"strconv"
	"strings"
	"time"

	"github.com/shouni/go-utils/envutil"
)

const (
	DefaultPort         = "5000"
	DefaultServiceURL   = "http://localhost:5000"
	DefaultModel        = "gemini-2.0-flash"
	DefaultImageModel   = "gemini-2.0-flash-exp-image-generation"
	DefaultGeneratedDir = "."
	DefaultUploadDir    = "uploads"

	// DefaultHTTPTimeout 画像生成のストリーミング応答を考慮したタイムアウト
	DefaultHTTPTimeout = 120 * time.Second

	DefaultTokenTTL        = 24 * time.Hour
	DefaultGalleryCacheTTL = 30 * time.Second
	DefaultShutdownTimeout = 15 * time.Second

	// DefaultMaxUploadSize はアップロードされる画像 1 枚あたりの上限です。
	DefaultMaxUploadSize = 16 << 20
)

// Config は環境変数から読み込まれたアプリケーションの全設定を保持します。
type Config struct {
	ServiceURL  string
	Port        string
	DatabaseURL string
	// SecretKey はアクセストークンの HMAC 署名用シークレットです。
	SecretKey string
	TokenTTL  time.Duration

	GeminiAPIKey string
	GeminiModel  string // 画像解析などテキスト応答用モデル
	ImageModel   string // 画像・ストーリー生成用モデル
	// RateInterval は Gemini 呼び出しの最小間隔です。0 の場合は制限しません。
	RateInterval time.Duration
	HTTPTimeout  time.Duration
	StyleSuffix  string

	GeneratedDir  string // 生成画像の保存先 (ローカル実行時)
	UploadDir     string
	GCSBucket     string // 設定されている場合、生成画像は GCS に保存されます
	MaxUploadSize int64

	SlackWebhookURL string
	AllowedOrigins  []string
	GalleryCacheTTL time.Duration
	ShutdownTimeout time.Duration
}

// LoadConfig は環境変数から設定を読み込み、Config 構造体を生成します。
func LoadConfig() *Config {
	return &Config{
		ServiceURL:  envutil.GetEnv("SERVICE_URL", DefaultServiceURL),
		Port:        envutil.GetEnv("PORT", DefaultPort),
		DatabaseURL: envutil.GetEnv("DATABASE_URL", ""),
		SecretKey:   envutil.GetEnv("SECRET_KEY", ""),
		TokenTTL:    parseDuration(envutil.GetEnv("TOKEN_TTL", ""), DefaultTokenTTL),

		GeminiAPIKey: envutil.GetEnv("GEMINI_API_KEY", ""),
		GeminiModel:  envutil.GetEnv("GEMINI_MODEL", DefaultModel),
		ImageModel:   envutil.GetEnv("IMAGE_MODEL", DefaultImageModel),
		RateInterval: parseDuration(envutil.GetEnv("GEMINI_RATE_INTERVAL", ""), 0),
		HTTPTimeout:  parseDuration(envutil.GetEnv("HTTP_TIMEOUT", ""), DefaultHTTPTimeout),
		StyleSuffix:  envutil.GetEnv("STYLE_SUFFIX", ""),

		GeneratedDir:  envutil.GetEnv("GENERATED_DIR", DefaultGeneratedDir),
		UploadDir:     envutil.GetEnv("UPLOAD_DIR", DefaultUploadDir),
		GCSBucket:     envutil.GetEnv("GCS_BUCKET", ""),
		MaxUploadSize: parseInt64(envutil.GetEnv("MAX_UPLOAD_SIZE", ""), DefaultMaxUploadSize),

		SlackWebhookURL: envutil.GetEnv("SLACK_WEBHOOK_URL", ""),
		AllowedOrigins:  parseCommaSeparatedList(envutil.GetEnv("CORS_ALLOWED_ORIGINS", "*")),
		GalleryCacheTTL: parseDuration(envutil.GetEnv("GALLERY_CACHE_TTL", ""), DefaultGalleryCacheTTL),
		ShutdownTimeout: parseDuration(envutil.GetEnv("SHUTDOWN_TIMEOUT", ""), DefaultShutdownTimeout),
	}
}

func parseCommaSeparatedList(s string) []string {
	var res []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			res = append(res, trimmed)
		}
	}
	return res
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return fallback
	}
	return d
}

func parseInt64(s string, fallback int64) int64 {
	if s == "" {
		return fallback
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
