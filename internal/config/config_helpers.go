package config

import (
	"fmt"
	"path"
	"strings"

	"github.com/shouni/netarmor/securenet"
)

// minSecretKeyLength は HS256 署名鍵として受け付ける最小バイト数です。
const minSecretKeyLength = 16

// UsesGCS は生成画像の保存先が GCS かどうかを返します。
func (c Config) UsesGCS() bool {
	return c.GCSBucket != ""
}

// GetGeneratedPath は生成画像のファイル名から保存先のパスを組み立てます。
// GCS を使用する場合は "gs://bucket/generated/<file>"、それ以外はローカルの GeneratedDir 配下です。
func (c Config) GetGeneratedPath(fileName string) string {
	if c.UsesGCS() {
		return c.GetGCSObjectURL(path.Join("generated", fileName))
	}
	return path.Join(c.GeneratedDir, fileName)
}

// GetUploadPath はアップロードされたファイルの保存先のパスを組み立てます。
func (c Config) GetUploadPath(fileName string) string {
	if c.UsesGCS() {
		return c.GetGCSObjectURL(path.Join("uploads", fileName))
	}
	return path.Join(c.UploadDir, fileName)
}

// GetGCSObjectURL は、指定されたパスから完全なGCSオブジェクトURL ("gs://...") を組み立てます。
// pathが既に "gs://" プレフィックスを持つ場合は、そのままpathを返します。
// c.GCSBucketが空文字列の場合、この関数は引数で与えられたpathをそのまま返します。
func (c Config) GetGCSObjectURL(p string) string {
	if strings.HasPrefix(p, "gs://") {
		return p
	}
	if c.GCSBucket != "" {
		return fmt.Sprintf("gs://%s/%s", c.GCSBucket, strings.TrimPrefix(p, "/"))
	}

	return p
}

// --- バリデーション ---

// ValidateEssentialConfig はアプリケーション実行に不可欠な設定を検証します。
func ValidateEssentialConfig(cfg *Config) error {
	if !IsSecureURL(cfg.ServiceURL) {
		return fmt.Errorf("security error: SERVICE_URL ('%s') must be HTTPS in production", cfg.ServiceURL)
	}

	if cfg.DatabaseURL == "" {
		return fmt.Errorf("configuration error: DATABASE_URL is not set")
	}

	if cfg.GeminiAPIKey == "" {
		return fmt.Errorf("configuration error: GEMINI_API_KEY is not set")
	}

	if cfg.SecretKey == "" {
		return fmt.Errorf("SECRET_KEY が設定されていません。トークン署名のために必須です")
	}

	if len([]byte(cfg.SecretKey)) < minSecretKeyLength {
		return fmt.Errorf("SECRET_KEY の長さが不正です (%d バイト)。%d バイト以上にしてください", len(cfg.SecretKey), minSecretKeyLength)
	}

	if cfg.GeneratedDir == "" || cfg.UploadDir == "" {
		return fmt.Errorf("configuration error: GENERATED_DIR and UPLOAD_DIR must not be empty")
	}

	return nil
}

// IsSecureURL は指定された URL が HTTPS または localhost であるか判定します。
func IsSecureURL(rawURL string) bool {
	return securenet.IsSecureServiceURL(rawURL)
}
