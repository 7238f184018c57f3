package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		ServiceURL:   "http://localhost:5000",
		DatabaseURL:  "postgres://imagetales@localhost:5432/imagetales",
		SecretKey:    "0123456789abcdef0123456789abcdef",
		GeminiAPIKey: "test-key",
		GeneratedDir: ".",
		UploadDir:    "uploads",
	}
}

func TestValidateEssentialConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"正常な設定", func(c *Config) {}, ""},
		{"DATABASE_URL 未設定", func(c *Config) { c.DatabaseURL = "" }, "DATABASE_URL"},
		{"GEMINI_API_KEY 未設定", func(c *Config) { c.GeminiAPIKey = "" }, "GEMINI_API_KEY"},
		{"SECRET_KEY 未設定", func(c *Config) { c.SecretKey = "" }, "SECRET_KEY"},
		{"SECRET_KEY が短い", func(c *Config) { c.SecretKey = "short" }, "SECRET_KEY"},
		{"保存先が空", func(c *Config) { c.UploadDir = "" }, "UPLOAD_DIR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := ValidateEssentialConfig(cfg)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("予期しないエラー: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("%q を含むエラーを期待しましたが %v でした", tt.wantErr, err)
			}
		})
	}
}

func TestConfig_GetGeneratedPath(t *testing.T) {
	local := Config{GeneratedDir: "out"}
	if got := local.GetGeneratedPath("story_image_1.png"); got != "out/story_image_1.png" {
		t.Errorf("ローカルパス = %q", got)
	}

	remote := Config{GeneratedDir: ".", GCSBucket: "imagetales-bucket"}
	if got := remote.GetGeneratedPath("story_image_1.png"); got != "gs://imagetales-bucket/generated/story_image_1.png" {
		t.Errorf("GCS パス = %q", got)
	}
	if got := remote.GetGCSObjectURL("gs://other/x.png"); got != "gs://other/x.png" {
		t.Errorf("gs:// で始まるパスはそのまま返すべきです: %q", got)
	}
}

func TestConfig_GetUploadPath(t *testing.T) {
	if got := (Config{UploadDir: "uploads"}).GetUploadPath("cat.png"); got != "uploads/cat.png" {
		t.Errorf("ローカルパス = %q", got)
	}
	if got := (Config{UploadDir: "uploads", GCSBucket: "b"}).GetUploadPath("cat.png"); got != "gs://b/uploads/cat.png" {
		t.Errorf("GCS パス = %q", got)
	}
}

func TestParseHelpers(t *testing.T) {
	if got := parseDuration("90s", time.Second); got != 90*time.Second {
		t.Errorf("parseDuration = %v", got)
	}
	if got := parseDuration("not-a-duration", time.Second); got != time.Second {
		t.Errorf("不正な値ではデフォルトを返すべきです: %v", got)
	}
	if got := parseInt64("-1", 42); got != 42 {
		t.Errorf("負の値ではデフォルトを返すべきです: %v", got)
	}
	got := parseCommaSeparatedList(" https://a.example , ,https://b.example")
	if len(got) != 2 || got[0] != "https://a.example" || got[1] != "https://b.example" {
		t.Errorf("parseCommaSeparatedList = %v", got)
	}
}
