package adapters

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"imagetales-web/internal/domain"

	"github.com/shouni/go-http-kit/pkg/httpkit"
	"github.com/shouni/go-notifier/pkg/factory"
	"github.com/shouni/go-notifier/pkg/slack"
)

// --- インターフェース定義 ---

type SlackNotifier interface {
	Notify(ctx context.Context, publicURL string, req domain.NotificationRequest) error
	NotifyError(ctx context.Context, errDetail error, req domain.NotificationRequest) error
}

// --- 具象アダプター ---

type SlackAdapter struct {
	webhookURL  string
	slackClient *slack.Client
}

// NewSlackAdapter は Webhook URL が空の場合、通知をすべて読み飛ばすアダプターを返します。
func NewSlackAdapter(httpClient httpkit.ClientInterface, webhookURL string) (*SlackAdapter, error) {
	if webhookURL == "" {
		return &SlackAdapter{}, nil
	}
	client, err := factory.GetSlackClient(httpClient)
	if err != nil {
		return nil, fmt.Errorf("Slackクライアントの初期化に失敗しました: %w", err)
	}

	return &SlackAdapter{
		webhookURL:  webhookURL,
		slackClient: client,
	}, nil
}

// Notify 生成完了時のSlack通知送信。
func (a *SlackAdapter) Notify(ctx context.Context, publicURL string, req domain.NotificationRequest) error {
	if a.slackClient == nil {
		slog.InfoContext(ctx, "Slackクライアントが初期化されていないため、通知をスキップします。", "public_url", publicURL)
		return nil
	}

	title := fmt.Sprintf("%s 生成が完了しました！", outputIcon(req.OutputCategory))
	content := buildSlackContent(publicURL, req)

	if err := a.slackClient.SendTextWithHeader(ctx, title, content); err != nil {
		return fmt.Errorf("Slackへの投稿に失敗しました: %w", err)
	}

	slog.InfoContext(ctx, "Slack に完了通知を送信しました。", "public_url", publicURL)
	return nil
}

// NotifyError 生成失敗時のSlackエラー通知の送信。
func (a *SlackAdapter) NotifyError(ctx context.Context, errDetail error, req domain.NotificationRequest) error {
	if a.slackClient == nil {
		slog.InfoContext(ctx, "Slackクライアントが初期化されていないため、エラー通知をスキップします。", "error", errDetail)
		return nil
	}

	title := "❌ 生成中にエラーが発生しました"
	content := buildSlackErrorContent(errDetail, req)

	if err := a.slackClient.SendTextWithHeader(ctx, title, content); err != nil {
		return fmt.Errorf("Slackへのエラー通知に失敗しました: %w", err)
	}

	slog.InfoContext(ctx, "Slack にエラー通知を送信しました。", "error", errDetail)
	return nil
}

func outputIcon(category string) string {
	switch category {
	case domain.OutputStory:
		return "📖"
	case domain.OutputModified:
		return "🖌️"
	default:
		return "🎨"
	}
}

// buildSlackContent 公開URLと通知リクエストから完了メッセージの本文を組み立てます。
func buildSlackContent(publicURL string, req domain.NotificationRequest) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("**プロンプト:** `%s`\n", req.TargetTitle))
	sb.WriteString(fmt.Sprintf("**種別:** `%s`\n", req.OutputCategory))
	sb.WriteString(fmt.Sprintf("**ユーザー:** `%s`\n", req.UserID))
	if req.SceneCount > 0 {
		sb.WriteString(fmt.Sprintf("**シーン数:** %d\n", req.SceneCount))
	}

	if publicURL != "" && publicURL != domain.CategoryNotAvailable {
		sb.WriteString(fmt.Sprintf("\n🌐 **画像:** <%s|ここから確認できます>\n", publicURL))
	}
	return sb.String()
}

// buildSlackErrorContent エラー詳細をコードブロックで囲んだ本文を組み立てます。
func buildSlackErrorContent(errDetail error, req domain.NotificationRequest) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("*プロンプト:* `%s`\n", req.TargetTitle))
	sb.WriteString(fmt.Sprintf("*ユーザー:* `%s`\n\n", req.UserID))

	sb.WriteString("*エラー内容:*\n")
	sb.WriteString(fmt.Sprintf("```\n%v\n```\n", errDetail))

	if req.OutputCategory != "" && req.OutputCategory != domain.CategoryNotAvailable {
		sb.WriteString(fmt.Sprintf("\n📍 *種別:* `%s`", req.OutputCategory))
	}
	return sb.String()
}
