package adapters

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"imagetales-web/internal/domain"

	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

// 画像生成モデルに要求する応答モダリティです。
var imageModalities = []string{"TEXT", "IMAGE"}

// contentModels は genai.Models のうち、このアダプターが使うメソッドだけを切り出したものです。
type contentModels interface {
	GenerateContentStream(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) iter.Seq2[*genai.GenerateContentResponse, error]
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiConfig は GeminiAdapter の生成に必要な設定です。
type GeminiConfig struct {
	APIKey       string
	ImageModel   string
	TextModel    string
	RateInterval time.Duration
	HTTPClient   *http.Client
}

// GeminiAdapter は Gemini のストリーミング API を StreamChunk の列に変換します。
type GeminiAdapter struct {
	models     contentModels
	imageModel string
	textModel  string
	limiter    *rate.Limiter
}

// NewGeminiAdapter は API キーを使って genai クライアントを初期化します。
func NewGeminiAdapter(ctx context.Context, cfg GeminiConfig) (*GeminiAdapter, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: Gemini API key is required", domain.ErrValidation)
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: cfg.HTTPClient,
	})
	if err != nil {
		return nil, fmt.Errorf("Gemini クライアントの初期化に失敗しました: %w", err)
	}
	return newGeminiAdapter(client.Models, cfg), nil
}

func newGeminiAdapter(models contentModels, cfg GeminiConfig) *GeminiAdapter {
	return &GeminiAdapter{
		models:     models,
		imageModel: cfg.ImageModel,
		textModel:  cfg.TextModel,
		limiter:    newLimiter(cfg.RateInterval),
	}
}

// newLimiter は呼び出し間隔から Limiter を作成します。0 以下なら制限しません。
func newLimiter(interval time.Duration) *rate.Limiter {
	if interval <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(interval), 1)
}

// Stream はプロンプトを 1 回だけ送信し、応答のパートを到着順に返します。
// 返すイテレータは再実行できません。リトライは行いません。
func (a *GeminiAdapter) Stream(ctx context.Context, prompt string) iter.Seq2[domain.StreamChunk, error] {
	return func(yield func(domain.StreamChunk, error) bool) {
		if err := a.limiter.Wait(ctx); err != nil {
			yield(domain.StreamChunk{}, fmt.Errorf("%w: rate limiter: %w", domain.ErrServiceUnavailable, err))
			return
		}

		config := &genai.GenerateContentConfig{
			ResponseModalities: imageModalities,
		}

		slog.InfoContext(ctx, "Gemini へストリーミング要求を送信します", "model", a.imageModel, "prompt_length", len(prompt))
		for resp, err := range a.models.GenerateContentStream(ctx, a.imageModel, genai.Text(prompt), config) {
			if err != nil {
				yield(domain.StreamChunk{}, fmt.Errorf("%w: %w", domain.ErrServiceUnavailable, err))
				return
			}

			chunks, err := toChunks(resp)
			if err != nil {
				yield(domain.StreamChunk{}, err)
				return
			}
			for _, c := range chunks {
				if !yield(c, nil) {
					return
				}
			}
		}
	}
}

// Analyze は画像とプロンプトをテキストモデルに送り、応答テキストを返します。
func (a *GeminiAdapter) Analyze(ctx context.Context, prompt string, data []byte, mediaType string) (string, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("%w: rate limiter: %w", domain.ErrServiceUnavailable, err)
	}

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromText(prompt),
			genai.NewPartFromBytes(data, mediaType),
		}, genai.RoleUser),
	}

	resp, err := a.models.GenerateContent(ctx, a.textModel, contents, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrServiceUnavailable, err)
	}

	chunks, err := toChunks(resp)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	for _, c := range chunks {
		if !c.IsImage() {
			sb.WriteString(c.Text)
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("%w: empty analysis response", domain.ErrInvalidResponse)
	}
	return sb.String(), nil
}

// toChunks は先頭候補のパートを StreamChunk に変換します。
// 候補やパートのない応答、空テキストだけのパート (終了理由だけのトレーラーなど) は読み飛ばします。
// 関数呼び出しなど、テキストにも画像にもできないパートしかない場合は不正応答です。
func toChunks(resp *genai.GenerateContentResponse) ([]domain.StreamChunk, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return nil, nil
	}
	cand := resp.Candidates[0]
	if cand == nil || cand.Content == nil || len(cand.Content.Parts) == 0 {
		return nil, nil
	}

	chunks := make([]domain.StreamChunk, 0, len(cand.Content.Parts))
	unusable := 0
	for _, part := range cand.Content.Parts {
		switch {
		case part == nil || part.Thought:
			continue
		case part.InlineData != nil:
			if len(part.InlineData.Data) == 0 {
				unusable++
				continue
			}
			chunks = append(chunks, domain.ImageChunk(part.InlineData.MIMEType, part.InlineData.Data))
		case part.Text != "":
			chunks = append(chunks, domain.TextChunk(part.Text))
		case hasUnsupportedPayload(part):
			unusable++
		}
	}
	if len(chunks) == 0 && unusable > 0 {
		return nil, fmt.Errorf("%w: candidate has %d parts without text or inline data", domain.ErrInvalidResponse, unusable)
	}
	return chunks, nil
}

func hasUnsupportedPayload(part *genai.Part) bool {
	return part.FunctionCall != nil ||
		part.FunctionResponse != nil ||
		part.FileData != nil ||
		part.ExecutableCode != nil ||
		part.CodeExecutionResult != nil
}
