package domain

import "time"

const (
	CategoryGenerated = "generated"

	DefaultGalleryLimit = 100
	DefaultUserLimit    = 50
)

// Image はギャラリーに保存される画像メタデータです。
type Image struct {
	ID          string
	UserID      string
	Title       string
	Category    string
	URL         string
	Prompt      string
	Likes       int
	Views       int
	IsGenerated bool
	CreatedAt   time.Time
}

// NewImage は Create に渡す保存用レコードの入力です。
type NewImage struct {
	UserID      string
	Title       string
	Category    string
	URL         string
	Prompt      string
	IsGenerated bool
	CreatedAt   time.Time
}

// SortOrder は 1 が昇順、-1 が降順です。
type SortOrder int

const (
	SortAscending  SortOrder = 1
	SortDescending SortOrder = -1
)

// GalleryQuery は全件取得時のページングとソート条件です。
type GalleryQuery struct {
	Limit     int
	SortField string
	SortOrder SortOrder
}

// DefaultGalleryQuery は作成日時の新しい順に 100 件を返す条件です。
func DefaultGalleryQuery() GalleryQuery {
	return GalleryQuery{
		Limit:     DefaultGalleryLimit,
		SortField: "created_at",
		SortOrder: SortDescending,
	}
}

// LikeStatus はいいね切り替え後の状態です。
type LikeStatus struct {
	Liked bool
	Likes int
}
