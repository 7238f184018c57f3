package domain

import (
	"fmt"
	"strings"
)

const (
	// MinSceneCount と MaxSceneCount はストーリー 1 本あたりのシーン数の許容範囲です。
	MinSceneCount     = 1
	MaxSceneCount     = 10
	DefaultSceneCount = 3
)

// GenerationRequest は生成 AI への 1 回分の依頼内容です。
// 生成後は変更しない前提で、値として受け渡します。
type GenerationRequest struct {
	Prompt       string
	Modification string
	SceneCount   int
}

// NewImageRequest は単一画像生成用のリクエストを作成します。
func NewImageRequest(prompt string) (GenerationRequest, error) {
	if strings.TrimSpace(prompt) == "" {
		return GenerationRequest{}, fmt.Errorf("%w: prompt is required", ErrValidation)
	}
	return GenerationRequest{Prompt: prompt}, nil
}

// NewModifyRequest は元プロンプトと修正指示を組にしたリクエストを作成します。
func NewModifyRequest(original, modification string) (GenerationRequest, error) {
	if strings.TrimSpace(original) == "" || strings.TrimSpace(modification) == "" {
		return GenerationRequest{}, fmt.Errorf("%w: original prompt and modification prompt are required", ErrValidation)
	}
	return GenerationRequest{Prompt: original, Modification: modification}, nil
}

// NewStoryRequest はシーン数を検証した上でストーリー生成リクエストを作成します。
func NewStoryRequest(prompt string, sceneCount int) (GenerationRequest, error) {
	if strings.TrimSpace(prompt) == "" {
		return GenerationRequest{}, fmt.Errorf("%w: story prompt is required", ErrValidation)
	}
	if sceneCount < MinSceneCount || sceneCount > MaxSceneCount {
		return GenerationRequest{}, fmt.Errorf("%w: scene count must be between %d and %d, got %d",
			ErrValidation, MinSceneCount, MaxSceneCount, sceneCount)
	}
	return GenerationRequest{Prompt: prompt, SceneCount: sceneCount}, nil
}

// CombinedPrompt は修正指示を元プロンプトの後ろに連結したものを返します。
func (r GenerationRequest) CombinedPrompt() string {
	if r.Modification == "" {
		return r.Prompt
	}
	return r.Prompt + " " + r.Modification
}

// ChunkKind は StreamChunk の種別です。
type ChunkKind int

const (
	ChunkText ChunkKind = iota
	ChunkImage
)

func (k ChunkKind) String() string {
	switch k {
	case ChunkText:
		return "text"
	case ChunkImage:
		return "image"
	default:
		return fmt.Sprintf("ChunkKind(%d)", int(k))
	}
}

// StreamChunk はストリーミング応答の 1 単位で、テキスト片かインライン画像のどちらかです。
type StreamChunk struct {
	Kind      ChunkKind
	Text      string
	MediaType string
	Data      []byte
}

// TextChunk はテキスト片のチャンクを作成します。
func TextChunk(text string) StreamChunk {
	return StreamChunk{Kind: ChunkText, Text: text}
}

// ImageChunk はインライン画像のチャンクを作成します。
func ImageChunk(mediaType string, data []byte) StreamChunk {
	return StreamChunk{Kind: ChunkImage, MediaType: mediaType, Data: data}
}

func (c StreamChunk) IsImage() bool { return c.Kind == ChunkImage }

// Scene はストーリーの 1 場面です。ImagePath が空の場合、対応する画像は届いていません。
type Scene struct {
	Text      string
	ImagePath string
	Prompt    string
}

func (s Scene) HasImage() bool { return s.ImagePath != "" }

// StoryResult は組み立て済みのストーリーです。Scenes はテキスト中の宣言順に並びます。
type StoryResult struct {
	Introduction string
	Scenes       []Scene
}

// GeneratedImage は単一画像生成・修正フローの結果です。
type GeneratedImage struct {
	Path   string
	Prompt string
}
