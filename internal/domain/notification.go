package domain

const CategoryNotAvailable = "N/A"

// 通知で使う生成物の種別です。
const (
	OutputStory     = "story"
	OutputGenerated = "generated"
	OutputModified  = "modified"
)

// NotificationRequest は Slack 等の通知コンポーネントで共有されるデータ構造です。
// 生成結果のメタデータを通知先に伝えるために使用します。
type NotificationRequest struct {
	// UserID は生成を依頼したユーザーの ID です。
	UserID string `json:"user_id"`

	// OutputCategory は生成物の種別です。(例: "story", "generated", "modified")
	OutputCategory string `json:"output_category"`

	// TargetTitle は通知の見出しに使うプロンプトの抜粋です。
	TargetTitle string `json:"target_title"`

	// SceneCount はストーリーのシーン数です。画像単体の場合は 0 です。
	SceneCount int `json:"scene_count"`
}
