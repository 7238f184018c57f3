package prompts

import (
	"bytes"
	_ "embed"
	"fmt"
	"text/template"
)

//go:embed story.md
var storyTemplate string

//go:embed analyze.md
var AnalyzePrompt string

// storyData はストーリー生成テンプレートに渡す値です。
type storyData struct {
	Prompt     string
	SceneCount int
	Labels     []string
}

// Builder は埋め込みテンプレートから生成 AI 向けのプロンプトを組み立てます。
type Builder struct {
	story *template.Template
}

// NewBuilder はテンプレートを解析して Builder を返します。
func NewBuilder() (*Builder, error) {
	if storyTemplate == "" {
		return nil, fmt.Errorf("ストーリー用のプロンプトテンプレートが空です。embed設定を確認してください")
	}
	tmpl, err := template.New("story").Parse(storyTemplate)
	if err != nil {
		return nil, fmt.Errorf("ストーリー用テンプレートの解析に失敗しました: %w", err)
	}
	return &Builder{story: tmpl}, nil
}

// Story はシーン数を埋め込んだストーリー生成プロンプトを返します。
// 応答形式の例示には最初の 2 シーン分のラベルだけを載せます。
func (b *Builder) Story(prompt string, sceneCount int) (string, error) {
	labels := make([]string, 0, 2)
	for i := 1; i <= min(sceneCount, 2); i++ {
		labels = append(labels, fmt.Sprintf("Scene %d", i))
	}

	var buf bytes.Buffer
	if err := b.story.Execute(&buf, storyData{
		Prompt:     prompt,
		SceneCount: sceneCount,
		Labels:     labels,
	}); err != nil {
		return "", fmt.Errorf("ストーリープロンプトの生成に失敗しました: %w", err)
	}
	return buf.String(), nil
}

// Analyze は AI 生成判定用のプロンプトを返します。
func (b *Builder) Analyze() string {
	return AnalyzePrompt
}
