package parser

// StoryParser は生成 AI のテキスト応答をストーリー構造に分解する契約です。
// ラベル形式のパーサーを JSON などの構造化出力用パーサーに差し替えられるよう、
// オーケストレーターはこのインターフェースにのみ依存します。
type StoryParser interface {
	Parse(raw string) Story
}

// Story はパース結果です。Scenes は表示用テキストで、宣言順に並びます。
type Story struct {
	Introduction string
	Scenes       []string
}
