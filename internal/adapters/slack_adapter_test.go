package adapters

import (
	"context"
	"errors"
	"strings"
	"testing"

	"imagetales-web/internal/domain"
)

func TestSlackAdapter_DisabledWithoutWebhook(t *testing.T) {
	a, err := NewSlackAdapter(nil, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	req := domain.NotificationRequest{UserID: "u1", OutputCategory: domain.OutputStory, TargetTitle: "goat"}
	if err := a.Notify(context.Background(), "http://localhost:5000/generated/x.png", req); err != nil {
		t.Errorf("Notify() error = %v", err)
	}
	if err := a.NotifyError(context.Background(), errors.New("boom"), req); err != nil {
		t.Errorf("NotifyError() error = %v", err)
	}
}

func TestBuildSlackContent(t *testing.T) {
	req := domain.NotificationRequest{
		UserID:         "u1",
		OutputCategory: domain.OutputStory,
		TargetTitle:    "a goat on a farm",
		SceneCount:     3,
	}

	t.Run("公開URLありの完了通知", func(t *testing.T) {
		got := buildSlackContent("http://example.com/generated/story_image_1.png", req)
		for _, want := range []string{"a goat on a farm", "**シーン数:** 3", "<http://example.com/generated/story_image_1.png|"} {
			if !strings.Contains(got, want) {
				t.Errorf("content does not contain %q:\n%s", want, got)
			}
		}
	})

	t.Run("公開URLがN/Aならリンクを出さない", func(t *testing.T) {
		got := buildSlackContent(domain.CategoryNotAvailable, req)
		if strings.Contains(got, "🌐") {
			t.Errorf("unexpected link in content:\n%s", got)
		}
	})

	t.Run("エラー通知にはエラー内容と種別を含める", func(t *testing.T) {
		got := buildSlackErrorContent(errors.New("generation failed: quota"), req)
		if !strings.Contains(got, "```\ngeneration failed: quota\n```") {
			t.Errorf("error detail missing:\n%s", got)
		}
		if !strings.Contains(got, "`story`") {
			t.Errorf("category missing:\n%s", got)
		}
	})
}
