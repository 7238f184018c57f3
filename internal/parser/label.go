package parser

import "strings"

// LabelParser は "Introduction:" と "Scene N:" のラベル規約に従った応答を解析します。
// 規約から外れた応答に対するフォールバックは持たず、その場合のシーン数は 0 になり得ます。
type LabelParser struct{}

// NewLabelParser は LabelParser を返します。
func NewLabelParser() *LabelParser {
	return &LabelParser{}
}

// Parse は行単位で導入文とシーンを切り出します。
// シーン見出しより前に現れたラベルなしの行は捨てられます。
func (p *LabelParser) Parse(raw string) Story {
	var (
		story   Story
		current string
		inScene bool
	)

	flush := func() {
		if inScene {
			story.Scenes = append(story.Scenes, sceneText(current))
		}
	}

	for _, line := range strings.Split(strings.TrimSpace(raw), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		switch {
		case strings.HasPrefix(line, IntroductionMarker):
			story.Introduction = strings.TrimSpace(strings.ReplaceAll(line, IntroductionMarker, ""))
		case strings.HasPrefix(line, SceneMarker):
			flush()
			current = line
			inScene = true
		case inScene:
			current += " " + line
		}
	}
	flush()

	return story
}

// sceneText は最初のコロン以降を表示用テキストとして返します。コロンがなければ全体を返します。
func sceneText(scene string) string {
	if _, after, found := strings.Cut(scene, ":"); found {
		return strings.TrimSpace(after)
	}
	return scene
}
