package asset

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path/filepath"
	"testing"
	"time"
)

type recordingWriter struct {
	paths        []string
	contentTypes []string
	payloads     [][]byte
	err          error
}

func (w *recordingWriter) Write(_ context.Context, path string, r io.Reader, contentType string) error {
	if w.err != nil {
		return w.err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	w.paths = append(w.paths, path)
	w.contentTypes = append(w.contentTypes, contentType)
	w.payloads = append(w.payloads, data)
	return nil
}

func TestExtension(t *testing.T) {
	tests := []struct {
		mediaType string
		want      string
	}{
		{"image/jpeg", ".jpg"},
		{"image/png", ".png"},
		{"image/webp", ".webp"},
		{"image/gif", ".gif"},
		{"IMAGE/JPEG", ".jpg"},
		{"image/jpeg; q=0.9", ".jpg"},
		{"application/octet-stream", ".png"},
		{"", ".png"},
	}

	for _, tt := range tests {
		t.Run(tt.mediaType, func(t *testing.T) {
			if got := Extension(tt.mediaType); got != tt.want {
				t.Errorf("Extension(%q) = %q, want %q", tt.mediaType, got, tt.want)
			}
		})
	}
}

func TestMaterializer_Materialize(t *testing.T) {
	fixed := time.Unix(1700000000, 0)
	dir := t.TempDir()

	t.Run("用途と時刻からファイル名を作り保存する", func(t *testing.T) {
		w := &recordingWriter{}
		m := NewMaterializer(w, func(name string) string { return filepath.Join(dir, name) },
			WithClock(func() time.Time { return fixed }))

		name, err := m.Materialize(context.Background(), PurposeStory, "image/jpeg", []byte("jpeg-bytes"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if name != "story_image_1700000000.jpg" {
			t.Errorf("file name = %q", name)
		}
		if len(w.paths) != 1 || w.paths[0] != filepath.Join(dir, name) {
			t.Errorf("written paths = %v", w.paths)
		}
		if w.contentTypes[0] != "image/jpeg" {
			t.Errorf("content type = %q", w.contentTypes[0])
		}
		if !bytes.Equal(w.payloads[0], []byte("jpeg-bytes")) {
			t.Errorf("payload = %q", w.payloads[0])
		}
	})

	t.Run("同一秒の連続保存は番号で区別する", func(t *testing.T) {
		w := &recordingWriter{}
		m := NewMaterializer(w, func(name string) string { return name },
			WithClock(func() time.Time { return fixed }))

		var names []string
		for range 3 {
			name, err := m.Materialize(context.Background(), PurposeStory, "image/png", []byte("x"))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			names = append(names, name)
		}
		want := []string{"story_image_1700000000.png", "story_image_1700000000_1.png", "story_image_1700000000_2.png"}
		for i := range want {
			if names[i] != want[i] {
				t.Errorf("names[%d] = %q, want %q", i, names[i], want[i])
			}
		}

		other, _ := m.Materialize(context.Background(), PurposeGenerated, "image/png", []byte("x"))
		if other != "generated_image_1700000000.png" {
			t.Errorf("other purpose name = %q", other)
		}
	})

	t.Run("書き込み失敗はラップして返す", func(t *testing.T) {
		ioErr := errors.New("disk full")
		m := NewMaterializer(&recordingWriter{err: ioErr}, func(name string) string { return name },
			WithClock(func() time.Time { return fixed }))

		if _, err := m.Materialize(context.Background(), PurposeGenerated, "image/png", []byte("x")); !errors.Is(err, ioErr) {
			t.Errorf("error = %v, want wrapped %v", err, ioErr)
		}
	})
}

func TestLocalStore_Write(t *testing.T) {
	dir := t.TempDir()
	w := NewLocalStore()
	path := filepath.Join(dir, "nested", "generated_image_1.png")

	if err := w.Write(context.Background(), path, bytes.NewReader([]byte("png")), "image/png"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	m := NewMaterializer(w, func(name string) string { return filepath.Join(dir, name) },
		WithClock(func() time.Time { return time.Unix(42, 0) }))
	name, err := m.Materialize(context.Background(), PurposeModified, "image/webp", []byte("webp"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if name != "modified_image_42.webp" {
		t.Errorf("file name = %q", name)
	}
}

func TestGeneratedFileRegex(t *testing.T) {
	m := NewMaterializer(&recordingWriter{}, func(name string) string { return name },
		WithClock(func() time.Time { return time.Unix(1741532640, 0) }))

	var produced []string
	for _, mt := range []string{"image/png", "image/jpeg", "image/svg+xml"} {
		name, err := m.Materialize(context.Background(), PurposeStory, mt, []byte("x"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		produced = append(produced, name)
	}
	for _, name := range produced {
		if !GeneratedFileRegex.MatchString(name) {
			t.Errorf("%q は一致するべきです", name)
		}
	}

	for _, name := range []string{
		"go.mod",
		"uploads",
		".env",
		"story_image_.png",
		"story_image_1.exe",
		"panel_image_1.png",
		"story_image_1.png.bak",
	} {
		if GeneratedFileRegex.MatchString(name) {
			t.Errorf("%q は一致するべきではありません", name)
		}
	}
}

func TestLocalStore_Open(t *testing.T) {
	dir := t.TempDir()
	s := NewLocalStore()
	path := filepath.Join(dir, "generated_image_1.png")
	if err := s.Write(context.Background(), path, bytes.NewReader([]byte("png")), "image/png"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	t.Run("ファイルを読み出せる", func(t *testing.T) {
		rc, err := s.Open(context.Background(), path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer rc.Close()
		got, err := io.ReadAll(rc)
		if err != nil || string(got) != "png" {
			t.Errorf("content = %q, err = %v", got, err)
		}
	})

	t.Run("ディレクトリは開かない", func(t *testing.T) {
		if _, err := s.Open(context.Background(), dir); !errors.Is(err, ErrIsDirectory) {
			t.Errorf("error = %v, want %v", err, ErrIsDirectory)
		}
	})
}
