package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/pribylovaa/go-blog-platform/internal/service"
	"github.com/pribylovaa/go-blog-platform/internal/transport/http/httperr"
)

type identityKey struct{}

// TokenValidator проверяет access-токен и возвращает identity вызывающего.
type TokenValidator interface {
	ValidateAccessToken(token string) (*service.Identity, error)
}

// Authenticate извлекает Bearer-токен из Authorization, валидирует его
// (подпись, issuer, audience, срок — без допуска по часам) и кладёт
// identity в контекст. Запрос без валидного токена получает 401.
func Authenticate(v TokenValidator) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const prefix = "Bearer "

			auth := r.Header.Get("Authorization")
			if !strings.HasPrefix(auth, prefix) {
				httperr.WriteError(w, r, service.ErrInvalidToken)
				return
			}

			token := strings.TrimSpace(auth[len(prefix):])
			if token == "" {
				httperr.WriteError(w, r, service.ErrInvalidToken)
				return
			}

			id, err := v.ValidateAccessToken(token)
			if err != nil {
				httperr.WriteError(w, r, err)
				return
			}

			ctx := context.WithValue(r.Context(), identityKey{}, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IdentityFrom достаёт identity вызывающего из контекста.
// Второе значение false означает, что запрос не прошёл Authenticate.
func IdentityFrom(ctx context.Context) (*service.Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(*service.Identity)
	return id, ok
}
