package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"log/slog"
	"strings"

	"imagetales-web/internal/asset"
	"imagetales-web/internal/domain"
	"imagetales-web/internal/parser"
	"imagetales-web/internal/prompts"
)

// GenerativeClient は生成 AI への 1 回分の呼び出しを表します。
type GenerativeClient interface {
	Stream(ctx context.Context, prompt string) iter.Seq2[domain.StreamChunk, error]
	Analyze(ctx context.Context, prompt string, data []byte, mediaType string) (string, error)
}

// Materializer は画像ペイロードを保存し、保存後のファイル名を返します。
type Materializer interface {
	Materialize(ctx context.Context, purpose, mediaType string, data []byte) (string, error)
}

// StoryPipeline は生成 AI の応答をストーリーや画像として組み立てます。
type StoryPipeline struct {
	client       GenerativeClient
	materializer Materializer
	parser       parser.StoryParser
	prompts      *prompts.Builder
	styleSuffix  string
}

// Option は StoryPipeline の生成オプションです。
type Option func(*StoryPipeline)

// WithStyleSuffix は各シーンの画像プロンプト末尾に付ける画風の指定を設定します。
func WithStyleSuffix(suffix string) Option {
	return func(p *StoryPipeline) {
		p.styleSuffix = strings.TrimSpace(suffix)
	}
}

// WithParser は応答テキストのパーサーを差し替えます。
func WithParser(sp parser.StoryParser) Option {
	return func(p *StoryPipeline) {
		p.parser = sp
	}
}

func NewStoryPipeline(client GenerativeClient, m Materializer, pb *prompts.Builder, opts ...Option) *StoryPipeline {
	p := &StoryPipeline{
		client:       client,
		materializer: m,
		parser:       parser.NewLabelParser(),
		prompts:      pb,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// BuildStory は 1 回のストリーミング要求でストーリー本文と挿絵を受け取り、シーンと画像を先頭から順に対応付けます。
// シーンと画像は SceneCount で切り詰め、足りない分は補いません。
// 画像の保存はストリームが正常に終わり、1 シーン以上をパースできた後にだけ行います。
func (p *StoryPipeline) BuildStory(ctx context.Context, req domain.GenerationRequest) (*domain.StoryResult, error) {
	prompt, err := p.prompts.Story(req.Prompt, req.SceneCount)
	if err != nil {
		return nil, err
	}

	var (
		text   strings.Builder
		images []domain.StreamChunk
	)
	for chunk, err := range p.client.Stream(ctx, prompt) {
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrGenerationFailed, err)
		}
		if chunk.IsImage() {
			images = append(images, chunk)
			continue
		}
		text.WriteString(chunk.Text)
	}

	story := p.parser.Parse(text.String())
	slog.InfoContext(ctx, "ストーリー応答を解析しました",
		"requested", req.SceneCount,
		"scenes", len(story.Scenes),
		"images", len(images),
	)
	if len(story.Scenes) == 0 {
		return nil, fmt.Errorf("%w: no scenes could be parsed from the response", domain.ErrGenerationFailed)
	}

	n := min(len(story.Scenes), req.SceneCount)
	images = images[:min(len(images), n)]

	result := &domain.StoryResult{
		Introduction: story.Introduction,
		Scenes:       make([]domain.Scene, n),
	}
	for i, sceneText := range story.Scenes[:n] {
		scene := domain.Scene{
			Text:   sceneText,
			Prompt: p.scenePrompt(sceneText),
		}
		// TODO: 位置による対応付けは画像の欠落や順序ずれに弱い。構造化出力に切り替えたらシーン番号で対応付ける。
		if i < len(images) {
			fileName, err := p.materializer.Materialize(ctx, asset.PurposeStory, images[i].MediaType, images[i].Data)
			if err != nil {
				return nil, fmt.Errorf("%w: %w", domain.ErrGenerationFailed, err)
			}
			scene.ImagePath = fileName
		}
		result.Scenes[i] = scene
	}

	return result, nil
}

// GenerateImage はプロンプトから画像を 1 枚生成します。
func (p *StoryPipeline) GenerateImage(ctx context.Context, req domain.GenerationRequest) (*domain.GeneratedImage, error) {
	return p.firstImage(ctx, asset.PurposeGenerated, req.Prompt)
}

// ModifyImage は元プロンプトに修正指示を連結して画像を再生成します。
func (p *StoryPipeline) ModifyImage(ctx context.Context, req domain.GenerationRequest) (*domain.GeneratedImage, error) {
	return p.firstImage(ctx, asset.PurposeModified, req.CombinedPrompt())
}

// firstImage は最初に届いた画像だけを保存し、残りのストリームは読みません。
func (p *StoryPipeline) firstImage(ctx context.Context, purpose, prompt string) (*domain.GeneratedImage, error) {
	for chunk, err := range p.client.Stream(ctx, prompt) {
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrGenerationFailed, err)
		}
		if !chunk.IsImage() {
			slog.InfoContext(ctx, "画像生成の応答テキスト", "purpose", purpose, "text", chunk.Text)
			continue
		}

		fileName, err := p.materializer.Materialize(ctx, purpose, chunk.MediaType, chunk.Data)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrGenerationFailed, err)
		}
		return &domain.GeneratedImage{Path: fileName, Prompt: prompt}, nil
	}
	return nil, fmt.Errorf("%w: response contained no image", domain.ErrGenerationFailed)
}

// AnalyzeImage は画像が AI で生成された確率をテキストモデルに推定させ、応答の JSON オブジェクトを返します。
func (p *StoryPipeline) AnalyzeImage(ctx context.Context, data []byte, mediaType string) (map[string]any, error) {
	text, err := p.client.Analyze(ctx, p.prompts.Analyze(), data, mediaType)
	if err != nil {
		return nil, err
	}

	var result map[string]any
	if err := json.Unmarshal([]byte(stripCodeFence(text)), &result); err != nil {
		return nil, fmt.Errorf("%w: analysis result is not JSON: %w", domain.ErrInvalidResponse, err)
	}
	return result, nil
}

func (p *StoryPipeline) scenePrompt(sceneText string) string {
	if p.styleSuffix == "" {
		return sceneText
	}
	return sceneText + ", " + p.styleSuffix
}

// stripCodeFence は ```json ... ``` で囲まれた応答から中身を取り出します。
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
