package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"imagetales-web/internal/domain"

	"github.com/go-chi/chi/v5"
)

type imageResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Category    string    `json:"category"`
	URL         string    `json:"url"`
	Likes       int       `json:"likes"`
	Views       int       `json:"views"`
	Prompt      string    `json:"prompt"`
	IsGenerated bool      `json:"is_generated"`
	CreatedAt   time.Time `json:"created_at"`
}

type likeResponse struct {
	Message string `json:"message"`
	Liked   bool   `json:"liked"`
	Likes   int    `json:"likes"`
}

// AllImages は全ユーザーの画像一覧を返します。
// クエリ limit, sort_by, sort_order (1 / -1) で件数と並び順を指定できます。
func (h *Handler) AllImages(w http.ResponseWriter, r *http.Request) {
	q := galleryQueryFrom(r)
	key := fmt.Sprintf("gallery:%s:%d:%d", q.SortField, q.SortOrder, q.Limit)

	if h.galleryCache != nil {
		if cached, ok := h.galleryCache.Get(key); ok {
			writeJSON(w, http.StatusOK, cached)
			return
		}
	}

	images, err := h.images.GetAll(r.Context(), q)
	if err != nil {
		writeDomainError(w, r, err, "")
		return
	}

	resp := toImageResponses(images)
	if h.galleryCache != nil {
		h.galleryCache.SetDefault(key, resp)
	}
	writeJSON(w, http.StatusOK, resp)
}

// UserImages は認証済みユーザー自身の画像を新しい順に返します。
func (h *Handler) UserImages(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		writeDomainError(w, r, err, "Invalid token")
		return
	}

	limit := queryInt(r, "limit", domain.DefaultUserLimit)
	images, err := h.images.FindByUser(r.Context(), userID, limit)
	if err != nil {
		writeDomainError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, toImageResponses(images))
}

// LikeImage は認証済みユーザーのいいねを付け外しします。
func (h *Handler) LikeImage(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		writeDomainError(w, r, err, "Invalid token")
		return
	}

	status, err := h.images.ToggleLike(r.Context(), chi.URLParam(r, "id"), userID)
	if err != nil {
		writeDomainError(w, r, err, "Image not found")
		return
	}
	h.invalidateGallery()

	writeJSON(w, http.StatusOK, likeResponse{
		Message: "Like toggled",
		Liked:   status.Liked,
		Likes:   status.Likes,
	})
}

// GetImage は画像 1 件を返し、閲覧数を 1 増やします。
func (h *Handler) GetImage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.images.IncrementViews(r.Context(), id); err != nil {
		writeDomainError(w, r, err, "Image not found")
		return
	}

	img, err := h.images.FindByID(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err, "Image not found")
		return
	}
	writeJSON(w, http.StatusOK, toImageResponse(*img))
}

// DeleteImage は認証済みユーザーが所有する画像を削除します。
func (h *Handler) DeleteImage(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		writeDomainError(w, r, err, "Invalid token")
		return
	}

	if err := h.images.Delete(r.Context(), chi.URLParam(r, "id"), userID); err != nil {
		writeDomainError(w, r, err, "Image not found")
		return
	}
	h.invalidateGallery()

	writeJSON(w, http.StatusOK, map[string]string{"message": "Image deleted"})
}

func (h *Handler) invalidateGallery() {
	if h.galleryCache != nil {
		h.galleryCache.Flush()
	}
}

func galleryQueryFrom(r *http.Request) domain.GalleryQuery {
	q := domain.DefaultGalleryQuery()
	q.Limit = queryInt(r, "limit", q.Limit)
	if field := r.URL.Query().Get("sort_by"); field != "" {
		q.SortField = field
	}
	if queryInt(r, "sort_order", int(q.SortOrder)) == int(domain.SortAscending) {
		q.SortOrder = domain.SortAscending
	}
	return q
}

// queryInt はクエリパラメータを整数として読みます。空・不正な値・0 のときは def を返します。
func queryInt(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n == 0 {
		return def
	}
	return n
}

func toImageResponses(images []domain.Image) []imageResponse {
	resp := make([]imageResponse, 0, len(images))
	for _, img := range images {
		resp = append(resp, toImageResponse(img))
	}
	return resp
}

func toImageResponse(img domain.Image) imageResponse {
	return imageResponse{
		ID:          img.ID,
		Title:       img.Title,
		Category:    img.Category,
		URL:         img.URL,
		Likes:       img.Likes,
		Views:       img.Views,
		Prompt:      img.Prompt,
		IsGenerated: img.IsGenerated,
		CreatedAt:   img.CreatedAt,
	}
}
