package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"imagetales-web/internal/domain"
)

const (
	// autoSaveTitlePrefix は自動保存する生成画像のタイトルの接頭辞です。
	autoSaveTitlePrefix = "Generated: "
	autoSaveTitleLength = 50

	sceneTimestampLayout = "January 02, 2006 - 03:04PM"
)

type generateRequest struct {
	Prompt string `json:"prompt"`
}

type generateResponse struct {
	Image   string `json:"image"`
	Prompt  string `json:"prompt"`
	ImageID string `json:"image_id,omitempty"`
}

type modifyRequest struct {
	OriginalPrompt     string `json:"original_prompt"`
	ModificationPrompt string `json:"modification_prompt"`
}

type storyRequest struct {
	StoryPrompt string          `json:"story_prompt"`
	NumImages   json.RawMessage `json:"num_images"`
}

type sceneResponse struct {
	Text      string  `json:"text"`
	Image     *string `json:"image"`
	Prompt    string  `json:"prompt"`
	Timestamp string  `json:"timestamp"`
}

type storyResponse struct {
	Introduction string          `json:"introduction"`
	Scenes       []sceneResponse `json:"scenes"`
}

type saveRequest struct {
	Title    string `json:"title"`
	Category string `json:"category"`
	URL      string `json:"url"`
	Prompt   string `json:"prompt"`
}

// GenerateImage はプロンプトから画像を生成し、ギャラリーに自動保存します。
func (h *Handler) GenerateImage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, err := currentUserID(r)
	if err != nil {
		writeDomainError(w, r, err, "Invalid token")
		return
	}

	var body generateRequest
	if err := decodeJSON(w, r, &body); err != nil {
		writeDomainError(w, r, err, "")
		return
	}
	req, err := domain.NewImageRequest(body.Prompt)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Prompt is required")
		return
	}

	notification := domain.NotificationRequest{
		UserID:         userID,
		OutputCategory: domain.OutputGenerated,
		TargetTitle:    truncateRunes(req.Prompt, autoSaveTitleLength),
	}

	result, err := h.generator.GenerateImage(ctx, req)
	if err != nil {
		h.notifyError(r, err, notification)
		writeDomainError(w, r, err, "")
		return
	}

	url := generatedURL(result.Path)
	imageID, err := h.images.Create(ctx, domain.NewImage{
		UserID:      userID,
		Title:       autoSaveTitlePrefix + truncateRunes(req.Prompt, autoSaveTitleLength),
		Category:    domain.CategoryGenerated,
		URL:         url,
		Prompt:      result.Prompt,
		IsGenerated: true,
		CreatedAt:   h.now().UTC(),
	})
	if err != nil {
		writeDomainError(w, r, err, "")
		return
	}
	h.invalidateGallery()

	h.notify(r, h.publicURL(url), notification)
	writeJSON(w, http.StatusOK, generateResponse{
		Image:   url,
		Prompt:  result.Prompt,
		ImageID: imageID,
	})
}

// ModifyImage は元プロンプトに修正指示を加えて画像を再生成します。
func (h *Handler) ModifyImage(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		writeDomainError(w, r, err, "Invalid token")
		return
	}

	var body modifyRequest
	if err := decodeJSON(w, r, &body); err != nil {
		writeDomainError(w, r, err, "")
		return
	}
	req, err := domain.NewModifyRequest(body.OriginalPrompt, body.ModificationPrompt)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Original prompt and modification prompt are required")
		return
	}

	notification := domain.NotificationRequest{
		UserID:         userID,
		OutputCategory: domain.OutputModified,
		TargetTitle:    truncateRunes(req.CombinedPrompt(), autoSaveTitleLength),
	}

	result, err := h.generator.ModifyImage(r.Context(), req)
	if err != nil {
		h.notifyError(r, err, notification)
		writeDomainError(w, r, fmt.Errorf("Image modification failed: %w", err), "")
		return
	}

	url := generatedURL(result.Path)
	h.notify(r, h.publicURL(url), notification)
	writeJSON(w, http.StatusOK, generateResponse{
		Image:  url,
		Prompt: result.Prompt,
	})
}

// GenerateStory はストーリー本文と各シーンの挿絵を生成します。
// 画像が届かなかったシーンは image を null で返します。
func (h *Handler) GenerateStory(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		writeDomainError(w, r, err, "Invalid token")
		return
	}

	var body storyRequest
	if err := decodeJSON(w, r, &body); err != nil {
		writeDomainError(w, r, err, "")
		return
	}
	count, ok := parseSceneCount(body.NumImages)
	if !ok {
		writeError(w, http.StatusBadRequest, "Story prompt and valid number of images (1-10) are required")
		return
	}
	req, err := domain.NewStoryRequest(body.StoryPrompt, count)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Story prompt and valid number of images (1-10) are required")
		return
	}

	notification := domain.NotificationRequest{
		UserID:         userID,
		OutputCategory: domain.OutputStory,
		TargetTitle:    truncateRunes(req.Prompt, autoSaveTitleLength),
		SceneCount:     req.SceneCount,
	}

	story, err := h.generator.BuildStory(r.Context(), req)
	if err != nil {
		h.notifyError(r, err, notification)
		writeDomainError(w, r, err, "")
		return
	}

	timestamp := h.now().Format(sceneTimestampLayout)
	resp := storyResponse{
		Introduction: story.Introduction,
		Scenes:       make([]sceneResponse, 0, len(story.Scenes)),
	}
	firstImage := domain.CategoryNotAvailable
	for _, scene := range story.Scenes {
		sr := sceneResponse{
			Text:      scene.Text,
			Prompt:    scene.Prompt,
			Timestamp: timestamp,
		}
		if scene.HasImage() {
			url := generatedURL(scene.ImagePath)
			sr.Image = &url
			if firstImage == domain.CategoryNotAvailable {
				firstImage = h.publicURL(url)
			}
		}
		resp.Scenes = append(resp.Scenes, sr)
	}
	notification.SceneCount = len(resp.Scenes)

	h.notify(r, firstImage, notification)
	writeJSON(w, http.StatusOK, resp)
}

// UploadImage はアップロードされたファイルをサニタイズした名前で保存します。
func (h *Handler) UploadImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxUploadSize)
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No file part")
		return
	}
	defer file.Close()

	name := sanitizeFileName(header.Filename)
	if name == "" {
		writeError(w, http.StatusBadRequest, "No selected file")
		return
	}

	if err := h.files.Write(r.Context(), h.cfg.GetUploadPath(name), file, header.Header.Get("Content-Type")); err != nil {
		writeDomainError(w, r, err, "")
		return
	}

	slog.InfoContext(r.Context(), "ファイルをアップロードしました", "file", name, "size", header.Size)
	writeJSON(w, http.StatusOK, map[string]string{"url": uploadURL(name)})
}

// SaveImage は画像メタデータをギャラリーに保存します。
func (h *Handler) SaveImage(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		writeDomainError(w, r, err, "Invalid token")
		return
	}

	var body saveRequest
	if err := decodeJSON(w, r, &body); err != nil {
		writeDomainError(w, r, err, "")
		return
	}
	if body.Title == "" || body.Category == "" || body.URL == "" || body.Prompt == "" {
		writeError(w, http.StatusBadRequest, "Missing required fields (title, category, url, prompt)")
		return
	}

	// 生成画像は生成時に自動保存されているため、同じ所有者の同じ URL は登録し直さない。
	existing, err := h.images.FindByURL(r.Context(), body.URL)
	switch {
	case err == nil && existing.UserID == userID:
		writeJSON(w, http.StatusOK, map[string]string{
			"image_id": existing.ID,
			"message":  "Image already saved",
		})
		return
	case err != nil && !errors.Is(err, domain.ErrNotFound):
		writeDomainError(w, r, err, "")
		return
	}

	imageID, err := h.images.Create(r.Context(), domain.NewImage{
		UserID:      userID,
		Title:       body.Title,
		Category:    body.Category,
		URL:         body.URL,
		Prompt:      body.Prompt,
		IsGenerated: !strings.HasPrefix(body.URL, uploadURL("")),
	})
	if err != nil {
		writeDomainError(w, r, err, "")
		return
	}
	h.invalidateGallery()

	writeJSON(w, http.StatusCreated, map[string]string{
		"image_id": imageID,
		"message":  "Image saved successfully",
	})
}

// parseSceneCount は num_images を整数として解釈します。省略時は既定値です。
// 小数や文字列は受け付けません。
func parseSceneCount(raw json.RawMessage) (int, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return domain.DefaultSceneCount, true
	}
	var n int
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, false
	}
	return n, true
}

func (h *Handler) notify(r *http.Request, publicURL string, req domain.NotificationRequest) {
	if h.notifier == nil {
		return
	}
	if err := h.notifier.Notify(r.Context(), publicURL, req); err != nil {
		slog.ErrorContext(r.Context(), "完了通知の送信に失敗しました", "error", err)
	}
}

func (h *Handler) notifyError(r *http.Request, cause error, req domain.NotificationRequest) {
	// クライアントの切断による中断は通知しない
	if h.notifier == nil || r.Context().Err() != nil {
		return
	}
	if err := h.notifier.NotifyError(r.Context(), cause, req); err != nil {
		slog.ErrorContext(r.Context(), "エラー通知の送信に失敗しました", "error", err)
	}
}
