package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"imagetales-web/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const imageColumns = `id::text, user_id::text, title, category, url, prompt, likes, views, is_generated, created_at`

// sortColumns は GetAll で並べ替えに使えるフィールドと列の対応です。
// ここにないフィールドは created_at として扱います。
var sortColumns = map[string]string{
	"created_at": "created_at",
	"likes":      "likes",
	"views":      "views",
	"title":      "title",
}

type ImageRepository struct {
	db *pgxpool.Pool
}

func NewImageRepository(db *pgxpool.Pool) *ImageRepository {
	return &ImageRepository{db: db}
}

// Create は画像メタデータを保存し、採番した ID を返します。
// CreatedAt がゼロ値なら列のデフォルト (now()) に任せます。
func (r *ImageRepository) Create(ctx context.Context, img domain.NewImage) (string, error) {
	if _, err := uuid.Parse(img.UserID); err != nil {
		return "", fmt.Errorf("%w: invalid user id", domain.ErrValidation)
	}

	var createdAt *time.Time
	if !img.CreatedAt.IsZero() {
		createdAt = &img.CreatedAt
	}

	id := uuid.NewString()
	_, err := r.db.Exec(ctx, `
		INSERT INTO images (id, user_id, title, category, url, prompt, is_generated, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, COALESCE($8, now()))`,
		id, img.UserID, img.Title, img.Category, img.URL, img.Prompt, img.IsGenerated, createdAt,
	)
	if err != nil {
		return "", fmt.Errorf("create image: %w", err)
	}
	return id, nil
}

// FindByUser はユーザーの画像を新しい順に返します。limit が 0 以下なら既定の件数です。
func (r *ImageRepository) FindByUser(ctx context.Context, userID string, limit int) ([]domain.Image, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return []domain.Image{}, nil
	}
	if limit <= 0 {
		limit = domain.DefaultUserLimit
	}

	rows, err := r.db.Query(ctx, `
		SELECT `+imageColumns+`
		FROM images
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list user images: %w", err)
	}
	return collectImages(rows)
}

func (r *ImageRepository) FindByID(ctx context.Context, id string) (*domain.Image, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrNotFound
	}
	row := r.db.QueryRow(ctx, `SELECT `+imageColumns+` FROM images WHERE id = $1`, id)
	return findImage(row)
}

func (r *ImageRepository) FindByURL(ctx context.Context, url string) (*domain.Image, error) {
	row := r.db.QueryRow(ctx, `SELECT `+imageColumns+` FROM images WHERE url = $1 ORDER BY created_at DESC LIMIT 1`, url)
	return findImage(row)
}

// GetAll は全ユーザーの画像を指定の条件で並べて返します。
func (r *ImageRepository) GetAll(ctx context.Context, q domain.GalleryQuery) ([]domain.Image, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = domain.DefaultGalleryLimit
	}

	rows, err := r.db.Query(ctx, `
		SELECT `+imageColumns+`
		FROM images
		ORDER BY `+orderClause(q)+`
		LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}
	return collectImages(rows)
}

func (r *ImageRepository) IncrementViews(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return domain.ErrNotFound
	}
	tag, err := r.db.Exec(ctx, `UPDATE images SET views = views + 1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("increment views: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ToggleLike はユーザーのいいねを付け外しし、画像のいいね数を同じトランザクションで更新します。
func (r *ImageRepository) ToggleLike(ctx context.Context, id, userID string) (domain.LikeStatus, error) {
	if _, err := uuid.Parse(id); err != nil {
		return domain.LikeStatus{}, domain.ErrNotFound
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return domain.LikeStatus{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var likes int
	err = tx.QueryRow(ctx, `SELECT likes FROM images WHERE id = $1 FOR UPDATE`, id).Scan(&likes)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.LikeStatus{}, domain.ErrNotFound
		}
		return domain.LikeStatus{}, fmt.Errorf("lock image: %w", err)
	}

	tag, err := tx.Exec(ctx, `DELETE FROM image_likes WHERE image_id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return domain.LikeStatus{}, fmt.Errorf("remove like: %w", err)
	}

	status := domain.LikeStatus{Liked: tag.RowsAffected() == 0}
	delta := -1
	if status.Liked {
		if _, err := tx.Exec(ctx, `INSERT INTO image_likes (image_id, user_id) VALUES ($1, $2)`, id, userID); err != nil {
			return domain.LikeStatus{}, fmt.Errorf("add like: %w", err)
		}
		delta = 1
	}

	err = tx.QueryRow(ctx, `
		UPDATE images SET likes = GREATEST(likes + $2, 0)
		WHERE id = $1
		RETURNING likes`,
		id, delta,
	).Scan(&status.Likes)
	if err != nil {
		return domain.LikeStatus{}, fmt.Errorf("update likes: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.LikeStatus{}, fmt.Errorf("commit: %w", err)
	}
	return status, nil
}

// Delete は所有者が一致する画像だけを削除します。該当がなければ domain.ErrNotFound です。
func (r *ImageRepository) Delete(ctx context.Context, id, ownerID string) error {
	if _, err := uuid.Parse(id); err != nil {
		return domain.ErrNotFound
	}
	tag, err := r.db.Exec(ctx, `DELETE FROM images WHERE id = $1 AND user_id = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete image: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// orderClause は許可済みの列名だけで ORDER BY 句を組み立てます。
func orderClause(q domain.GalleryQuery) string {
	col, ok := sortColumns[q.SortField]
	if !ok {
		col = "created_at"
	}
	dir := "DESC"
	if q.SortOrder == domain.SortAscending {
		dir = "ASC"
	}
	if col == "created_at" {
		return col + " " + dir
	}
	return col + " " + dir + ", created_at DESC"
}

func findImage(row pgx.Row) (*domain.Image, error) {
	img, err := scanImage(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get image: %w", err)
	}
	return img, nil
}

func collectImages(rows pgx.Rows) ([]domain.Image, error) {
	defer rows.Close()

	images := []domain.Image{}
	for rows.Next() {
		img, err := scanImage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan image: %w", err)
		}
		images = append(images, *img)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate images: %w", err)
	}
	return images, nil
}

func scanImage(row pgx.Row) (*domain.Image, error) {
	var img domain.Image
	if err := row.Scan(
		&img.ID, &img.UserID, &img.Title, &img.Category, &img.URL, &img.Prompt,
		&img.Likes, &img.Views, &img.IsGenerated, &img.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &img, nil
}
