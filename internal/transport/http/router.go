package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pribylovaa/go-blog-platform/internal/service"
	"github.com/pribylovaa/go-blog-platform/internal/service/content"
	"github.com/pribylovaa/go-blog-platform/internal/transport/http/handlers"
	"github.com/pribylovaa/go-blog-platform/internal/transport/http/middleware"
)

// Options — параметры сборки HTTP-роутера.
type Options struct {
	Logger   *slog.Logger
	Timeout  time.Duration
	BasePath string // например, "/api"; если пустой — роуты регистрируются на корне.
}

// NewRouter собирает http.Handler с chi и подключёнными middleware/роутами.
func NewRouter(auth *service.Service, cnt *content.Service, opts Options) http.Handler {
	root := chi.NewRouter()

	// Middleware (внешний -> внутренний).
	root.Use(
		middleware.Recover(),            // безопасно ловим паники
		middleware.RequestID(),          // формируем/прокидываем X-Request-Id (до логирования!)
		middleware.Logging(opts.Logger), // кладём request-scoped логгер в контекст и логируем
	)
	if opts.Timeout > 0 {
		root.Use(middleware.Timeout(opts.Timeout)) // общий дедлайн запроса
	}

	h := handlers.New(auth, cnt)
	authn := middleware.Authenticate(auth)

	if opts.BasePath != "" {
		sub := chi.NewRouter()
		registerRoutes(sub, h, authn)
		root.Mount(opts.BasePath, sub)
		return root
	}

	registerRoutes(root, h, authn)
	return root
}

// registerRoutes — единая точка регистрации всех REST-эндпойнтов.
func registerRoutes(r chi.Router, h *handlers.Handlers, authn middleware.Middleware) {
	// auth: публичные флоу credential/session-ядра.
	r.Post("/auth/login", h.Login)
	r.Post("/auth/register", h.Register)
	r.Post("/auth/refresh-token", h.RefreshToken)
	r.Post("/auth/forgot-password", h.ForgotPassword)
	r.Post("/auth/reset-password", h.ResetPassword)

	// auth: требует валидного access-токена.
	r.Group(func(pr chi.Router) {
		pr.Use(authn)
		pr.Post("/auth/change-password", h.ChangePassword)
	})

	// content: чтение публично.
	r.Get("/categories", h.ListCategories)
	r.Get("/posts", h.ListPosts)
	r.Get("/posts/{id}", h.GetPost)
	r.Get("/posts/{id}/comments", h.ListComments)

	// content: мутации за access-токеном; роли проверяет сервисный слой.
	r.Group(func(pr chi.Router) {
		pr.Use(authn)
		pr.Post("/categories", h.CreateCategory)
		pr.Post("/posts", h.CreatePost)
		pr.Put("/posts/{id}", h.UpdatePost)
		pr.Delete("/posts/{id}", h.DeletePost)
		pr.Post("/posts/{id}/comments", h.CreateComment)
	})
}
