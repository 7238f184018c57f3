package parser

const (
	// IntroductionMarker は導入文の行頭ラベルです。
	IntroductionMarker = "Introduction:"
	// SceneMarker はシーン開始行の行頭ラベルです。"Scene 1:" のように番号とコロンが続きます。
	SceneMarker = "Scene"
)
