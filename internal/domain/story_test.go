package domain

import (
	"errors"
	"testing"
)

func TestNewStoryRequest(t *testing.T) {
	tests := []struct {
		name    string
		prompt  string
		count   int
		wantErr bool
	}{
		{"最小値", "a goat on a farm", 1, false},
		{"最大値", "a goat on a farm", 10, false},
		{"0 は範囲外", "a goat on a farm", 0, true},
		{"11 は範囲外", "a goat on a farm", 11, true},
		{"プロンプトが空白のみ", "   ", 3, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := NewStoryRequest(tt.prompt, tt.count)
			if tt.wantErr {
				if !errors.Is(err, ErrValidation) {
					t.Fatalf("ErrValidation を期待しましたが %v でした", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("予期しないエラー: %v", err)
			}
			if req.SceneCount != tt.count {
				t.Errorf("SceneCount = %d, want %d", req.SceneCount, tt.count)
			}
		})
	}
}

func TestGenerationRequest_CombinedPrompt(t *testing.T) {
	req, err := NewModifyRequest("a red fox", "make it snowy")
	if err != nil {
		t.Fatalf("予期しないエラー: %v", err)
	}
	if got := req.CombinedPrompt(); got != "a red fox make it snowy" {
		t.Errorf("CombinedPrompt() = %q", got)
	}

	single, err := NewImageRequest("a red fox")
	if err != nil {
		t.Fatalf("予期しないエラー: %v", err)
	}
	if got := single.CombinedPrompt(); got != "a red fox" {
		t.Errorf("CombinedPrompt() = %q", got)
	}

	if _, err := NewModifyRequest("a red fox", ""); !errors.Is(err, ErrValidation) {
		t.Errorf("修正指示が空の場合は ErrValidation を期待しました: %v", err)
	}
}

func TestStreamChunk_Kind(t *testing.T) {
	if TextChunk("hi").IsImage() {
		t.Error("TextChunk が画像として扱われています")
	}
	img := ImageChunk("image/png", []byte{0x89})
	if !img.IsImage() || img.MediaType != "image/png" {
		t.Errorf("ImageChunk の内容が不正です: %+v", img)
	}
	if ChunkImage.String() != "image" {
		t.Errorf("ChunkImage.String() = %q", ChunkImage.String())
	}
}
