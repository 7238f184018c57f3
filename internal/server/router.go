package server

import (
	"net/http"

	"imagetales-web/internal/builder"
	"imagetales-web/internal/config"
	"imagetales-web/internal/controllers/auth"
	"imagetales-web/internal/server/handlers"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter は、ミドルウェアとルーティングを統合した http.Handler を構築します。
func NewRouter(cfg *config.Config, h *builder.AppHandlers) http.Handler {
	r := chi.NewRouter()

	setupCommonMiddleware(r, cfg)
	setupRoutes(r, h.Auth, h.Web)

	return r
}

func setupCommonMiddleware(r *chi.Mux, cfg *config.Config) {
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.CleanPath)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:         300,
	}))
}

func setupRoutes(r chi.Router, authHandler *auth.Handler, h *handlers.Handler) {
	// --- 公開ルート ---
	r.Get("/", h.Health)
	r.Get("/generated/{file}", h.ServeGenerated)
	r.Get("/uploads/{file}", h.ServeUpload)
	r.Post("/analyze-image", h.AnalyzeImage)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
		r.With(authHandler.Middleware).Get("/profile", h.Profile)
	})

	r.Route("/gallery", func(r chi.Router) {
		r.Get("/all", h.AllImages)
		r.Get("/image/{id}", h.GetImage)

		r.Group(func(r chi.Router) {
			r.Use(authHandler.Middleware)
			r.Get("/user", h.UserImages)
			r.Post("/like/{id}", h.LikeImage)
			r.Delete("/image/{id}", h.DeleteImage)
		})
	})

	// --- 認証が必要なルート ---
	r.Route("/image", func(r chi.Router) {
		r.Use(authHandler.Middleware)

		r.Post("/generate", h.GenerateImage)
		r.Post("/modify", h.ModifyImage)
		r.Post("/story", h.GenerateStory)
		r.Post("/upload", h.UploadImage)
		r.Post("/save", h.SaveImage)
	})
}
