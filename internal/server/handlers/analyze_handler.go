package handlers

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"imagetales-web/internal/domain"
)

const analyzeFailedMessage = "Failed to analyze the image"

// AnalyzeImage はアップロードされた画像を保存し、AI 生成である確率を推定します。
func (h *Handler) AnalyzeImage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxUploadSize)

	file, header, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No image file provided")
		return
	}
	defer file.Close()

	name := sanitizeFileName(header.Filename)
	if name == "" {
		writeError(w, http.StatusBadRequest, "Invalid file name")
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "No image file provided")
		return
	}

	mediaType := header.Header.Get("Content-Type")
	if mediaType == "" || mediaType == "application/octet-stream" {
		mediaType = http.DetectContentType(data)
	}

	if err := h.files.Write(ctx, h.cfg.GetUploadPath(name), bytes.NewReader(data), mediaType); err != nil {
		writeDomainError(w, r, err, "")
		return
	}

	result, err := h.generator.AnalyzeImage(ctx, data, mediaType)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidResponse) {
			slog.WarnContext(ctx, "画像解析の応答を解釈できませんでした", "file", name, "error", err)
			writeError(w, http.StatusOK, analyzeFailedMessage)
			return
		}
		writeDomainError(w, r, err, "")
		return
	}

	writeJSON(w, http.StatusOK, result)
}
