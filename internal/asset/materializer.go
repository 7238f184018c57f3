package asset

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"slices"
	"strings"
	"sync"
	"time"
)

// 生成物の用途ごとのファイル名プレフィックスです。
const (
	PurposeGenerated = "generated_image"
	PurposeModified  = "modified_image"
	PurposeStory     = "story_image"

	defaultExtension = ".png"
)

// extensions はメディアタイプから保存時の拡張子への対応表です。
var extensions = map[string]string{
	"image/jpeg":    ".jpg",
	"image/jpg":     ".jpg",
	"image/png":     ".png",
	"image/webp":    ".webp",
	"image/gif":     ".gif",
	"image/bmp":     ".bmp",
	"image/tiff":    ".tiff",
	"image/svg+xml": ".svg",
	"image/heic":    ".heic",
}

// GeneratedFileRegex は Materializer が払い出すファイル名 (story_image_1741532640_1.png 等) に一致します。
var GeneratedFileRegex = createGeneratedRegex(PurposeGenerated, PurposeModified, PurposeStory)

// createGeneratedRegex は用途のプレフィックスと既知の拡張子からファイル名の正規表現を作成します。
// 例: "story_image" -> ^(story_image)_\d+(_\d+)?\.(png|jpg|...)$
func createGeneratedRegex(purposes ...string) *regexp.Regexp {
	var exts []string
	for _, ext := range extensions {
		exts = append(exts, regexp.QuoteMeta(strings.TrimPrefix(ext, ".")))
	}
	slices.Sort(exts)
	exts = slices.Compact(exts)

	quoted := make([]string, len(purposes))
	for i, p := range purposes {
		quoted[i] = regexp.QuoteMeta(p)
	}
	pattern := fmt.Sprintf(`^(%s)_\d+(_\d+)?\.(%s)$`, strings.Join(quoted, "|"), strings.Join(exts, "|"))
	return regexp.MustCompile(pattern)
}

// Writer は生成物の保存先です。
// ローカルディスク用の実装と remoteio.OutputWriter (GCS) のどちらもこの形を満たします。
type Writer interface {
	Write(ctx context.Context, path string, r io.Reader, contentType string) error
}

// PathResolver はファイル名から保存先のパスを組み立てます。
type PathResolver func(fileName string) string

// Materializer は画像ペイロードを保存し、保存後のファイル名を返します。
type Materializer struct {
	writer  Writer
	resolve PathResolver
	now     func() time.Time

	mu   sync.Mutex
	last map[string]stamp
}

// stamp は用途ごとに直近で払い出した秒と、その秒内の通し番号です。
type stamp struct {
	unix int64
	seq  int
}

// Option は Materializer の生成オプションです。
type Option func(*Materializer)

// WithClock はファイル名に使う時刻の取得元を差し替えます。
func WithClock(now func() time.Time) Option {
	return func(m *Materializer) {
		m.now = now
	}
}

// NewMaterializer は保存先と保存パスの組み立て方を受け取って Materializer を作成します。
func NewMaterializer(w Writer, resolve PathResolver, opts ...Option) *Materializer {
	m := &Materializer{
		writer:  w,
		resolve: resolve,
		now:     time.Now,
		last:    make(map[string]stamp),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Materialize は data を "{purpose}_{unix秒}{拡張子}" という名前で保存し、そのファイル名を返します。
// 同じプロセス内で同一秒・同一用途の保存が続いた場合は "_1", "_2" と番号を付けます。
// プロセスをまたいだ衝突は検出せず、後勝ちで上書きされます。
func (m *Materializer) Materialize(ctx context.Context, purpose, mediaType string, data []byte) (string, error) {
	fileName := m.nextName(purpose, mediaType)
	path := m.resolve(fileName)

	if err := m.writer.Write(ctx, path, bytes.NewReader(data), normalizeMediaType(mediaType)); err != nil {
		return "", fmt.Errorf("failed to write image %s: %w", path, err)
	}

	slog.InfoContext(ctx, "画像を保存しました", "path", path, "media_type", mediaType, "bytes", len(data))
	return fileName, nil
}

func (m *Materializer) nextName(purpose, mediaType string) string {
	at := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	prev, ok := m.last[purpose]
	if !ok || prev.unix != at.Unix() {
		m.last[purpose] = stamp{unix: at.Unix()}
		return FileName(purpose, mediaType, at)
	}
	prev.seq++
	m.last[purpose] = prev
	return fmt.Sprintf("%s_%d_%d%s", purpose, at.Unix(), prev.seq, Extension(mediaType))
}

// FileName は用途・メディアタイプ・時刻から保存用のファイル名を作成します。
func FileName(purpose, mediaType string, at time.Time) string {
	return fmt.Sprintf("%s_%d%s", purpose, at.Unix(), Extension(mediaType))
}

// Extension はメディアタイプに対応する拡張子を返します。未知のタイプは ".png" です。
func Extension(mediaType string) string {
	if ext, ok := extensions[normalizeMediaType(mediaType)]; ok {
		return ext
	}
	return defaultExtension
}

// normalizeMediaType は "image/PNG; charset=..." のような表記をキーの形に揃えます。
func normalizeMediaType(mediaType string) string {
	mt, _, _ := strings.Cut(mediaType, ";")
	mt = strings.ToLower(strings.TrimSpace(mt))
	if mt == "" {
		return "image/png"
	}
	return mt
}
