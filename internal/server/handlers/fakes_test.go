package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"imagetales-web/internal/config"
	"imagetales-web/internal/controllers/auth"
	"imagetales-web/internal/domain"

	"github.com/go-chi/chi/v5"
)

type fakeGenerator struct {
	story    *domain.StoryResult
	image    *domain.GeneratedImage
	analysis map[string]any
	err      error

	gotReq domain.GenerationRequest
}

func (g *fakeGenerator) BuildStory(_ context.Context, req domain.GenerationRequest) (*domain.StoryResult, error) {
	g.gotReq = req
	return g.story, g.err
}

func (g *fakeGenerator) GenerateImage(_ context.Context, req domain.GenerationRequest) (*domain.GeneratedImage, error) {
	g.gotReq = req
	return g.image, g.err
}

func (g *fakeGenerator) ModifyImage(_ context.Context, req domain.GenerationRequest) (*domain.GeneratedImage, error) {
	g.gotReq = req
	return g.image, g.err
}

func (g *fakeGenerator) AnalyzeImage(_ context.Context, _ []byte, _ string) (map[string]any, error) {
	return g.analysis, g.err
}

type fakeUsers struct {
	byEmail map[string]*domain.User
	byID    map[string]*domain.User
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byEmail: map[string]*domain.User{}, byID: map[string]*domain.User{}}
}

func (u *fakeUsers) Create(_ context.Context, email, username string, hash []byte) (*domain.User, error) {
	if _, ok := u.byEmail[email]; ok {
		return nil, domain.ErrUserExists
	}
	user := &domain.User{
		ID:           fmt.Sprintf("user-%d", len(u.byID)+1),
		Email:        email,
		Username:     username,
		PasswordHash: hash,
		Plan:         domain.DefaultPlan,
	}
	u.byEmail[email] = user
	u.byID[user.ID] = user
	return user, nil
}

func (u *fakeUsers) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	if user, ok := u.byEmail[email]; ok {
		return user, nil
	}
	return nil, domain.ErrNotFound
}

func (u *fakeUsers) FindByID(_ context.Context, id string) (*domain.User, error) {
	if user, ok := u.byID[id]; ok {
		return user, nil
	}
	return nil, domain.ErrNotFound
}

type fakeImages struct {
	images  []domain.Image
	likes   map[string]map[string]bool
	getAll  int
	created []domain.NewImage
	findErr error
}

func newFakeImages(images ...domain.Image) *fakeImages {
	return &fakeImages{images: images, likes: map[string]map[string]bool{}}
}

func (f *fakeImages) Create(_ context.Context, img domain.NewImage) (string, error) {
	id := fmt.Sprintf("img-%d", len(f.images)+1)
	f.created = append(f.created, img)
	f.images = append(f.images, domain.Image{
		ID: id, UserID: img.UserID, Title: img.Title, Category: img.Category,
		URL: img.URL, Prompt: img.Prompt, IsGenerated: img.IsGenerated, CreatedAt: img.CreatedAt,
	})
	return id, nil
}

func (f *fakeImages) FindByUser(_ context.Context, userID string, limit int) ([]domain.Image, error) {
	var out []domain.Image
	for _, img := range f.images {
		if img.UserID == userID && len(out) < limit {
			out = append(out, img)
		}
	}
	return out, nil
}

func (f *fakeImages) find(id string) (*domain.Image, error) {
	for i := range f.images {
		if f.images[i].ID == id {
			return &f.images[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeImages) FindByID(_ context.Context, id string) (*domain.Image, error) {
	img, err := f.find(id)
	if err != nil {
		return nil, err
	}
	cp := *img
	return &cp, nil
}

func (f *fakeImages) FindByURL(_ context.Context, url string) (*domain.Image, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	for _, img := range f.images {
		if img.URL == url {
			return &img, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeImages) GetAll(_ context.Context, q domain.GalleryQuery) ([]domain.Image, error) {
	f.getAll++
	return append([]domain.Image(nil), f.images[:min(q.Limit, len(f.images))]...), nil
}

func (f *fakeImages) IncrementViews(_ context.Context, id string) error {
	img, err := f.find(id)
	if err != nil {
		return err
	}
	img.Views++
	return nil
}

func (f *fakeImages) ToggleLike(_ context.Context, id, userID string) (domain.LikeStatus, error) {
	img, err := f.find(id)
	if err != nil {
		return domain.LikeStatus{}, err
	}
	if f.likes[id] == nil {
		f.likes[id] = map[string]bool{}
	}
	liked := !f.likes[id][userID]
	f.likes[id][userID] = liked
	if liked {
		img.Likes++
	} else {
		img.Likes--
	}
	return domain.LikeStatus{Liked: liked, Likes: img.Likes}, nil
}

func (f *fakeImages) Delete(_ context.Context, id, ownerID string) error {
	for i, img := range f.images {
		if img.ID == id && img.UserID == ownerID {
			f.images = append(f.images[:i], f.images[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

type fakeFiles struct {
	files map[string][]byte
}

func newFakeFiles() *fakeFiles {
	return &fakeFiles{files: map[string][]byte{}}
}

func (f *fakeFiles) Write(_ context.Context, path string, r io.Reader, _ string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	f.files[path] = data
	return nil
}

func (f *fakeFiles) Open(_ context.Context, path string) (io.ReadCloser, error) {
	data, ok := f.files[path]
	if !ok {
		return nil, fs.ErrNotExist
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

type fakeNotifier struct {
	notified []domain.NotificationRequest
	urls     []string
	errors   []error
}

func (n *fakeNotifier) Notify(_ context.Context, publicURL string, req domain.NotificationRequest) error {
	n.urls = append(n.urls, publicURL)
	n.notified = append(n.notified, req)
	return nil
}

func (n *fakeNotifier) NotifyError(_ context.Context, err error, _ domain.NotificationRequest) error {
	n.errors = append(n.errors, err)
	return nil
}

type testEnv struct {
	h         *Handler
	cfg       *config.Config
	generator *fakeGenerator
	users     *fakeUsers
	images    *fakeImages
	files     *fakeFiles
	notifier  *fakeNotifier
	tokens    *auth.TokenManager
}

func newTestEnv(t *testing.T, images ...domain.Image) *testEnv {
	t.Helper()
	cfg := &config.Config{
		ServiceURL:      "http://localhost:5000",
		GeneratedDir:    "gen",
		UploadDir:       "uploads",
		MaxUploadSize:   1 << 20,
		GalleryCacheTTL: time.Minute,
	}
	env := &testEnv{
		cfg:       cfg,
		generator: &fakeGenerator{},
		users:     newFakeUsers(),
		images:    newFakeImages(images...),
		files:     newFakeFiles(),
		notifier:  &fakeNotifier{},
		tokens:    auth.NewTokenManager("0123456789abcdef-test", time.Hour),
	}
	env.h = NewHandler(cfg, Dependencies{
		Generator: env.generator,
		Users:     env.users,
		Images:    env.images,
		Files:     env.files,
		Notifier:  env.notifier,
		Tokens:    env.tokens,
	})
	env.h.now = func() time.Time { return time.Date(2025, 3, 9, 15, 4, 0, 0, time.UTC) }
	return env
}

// jsonRequest は userID が空でなければ認証済みのリクエストを作ります。
func jsonRequest(method, target, body, userID string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req = req.WithContext(auth.WithUserID(req.Context(), userID))
	}
	return req
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v (body=%q)", err, rec.Body.String())
	}
	return v
}

func withURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}
