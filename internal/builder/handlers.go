package builder

import (
	"imagetales-web/internal/app"
	"imagetales-web/internal/controllers/auth"
	"imagetales-web/internal/server/handlers"
)

// AppHandlers は生成されたすべての HTTP ハンドラーを保持する構造体です。
// server パッケージはこの構造体を受け取ってルーティングを行います。
type AppHandlers struct {
	Auth *auth.Handler
	Web  *handlers.Handler
}

// BuildHandlers は各ハンドラーの依存関係をすべて組み立て、AppHandlers 構造体を返します。
func BuildHandlers(c *app.Container) *AppHandlers {
	return &AppHandlers{
		Auth: auth.NewHandler(c.Tokens),
		Web: handlers.NewHandler(c.Config, handlers.Dependencies{
			Generator: c.Pipeline,
			Users:     c.Users,
			Images:    c.Images,
			Files:     c.Files,
			Notifier:  c.SlackNotifier,
			Tokens:    c.Tokens,
		}),
	}
}
