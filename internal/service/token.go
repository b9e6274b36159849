package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/pribylovaa/go-blog-platform/internal/cache"
	"github.com/pribylovaa/go-blog-platform/internal/models"
	"github.com/pribylovaa/go-blog-platform/internal/pkg/log"
	"github.com/pribylovaa/go-blog-platform/internal/storage"
)

// accessClaims — полезная нагрузка access-токена. Роли едут отдельным
// списком: внешние гварды сверяют их по точному совпадению строк, поэтому
// формат claims стабилен.
type accessClaims struct {
	Email string   `json:"email"`
	Name  string   `json:"name"`
	Roles []string `json:"roles"`
	jwt.RegisteredClaims
}

// Identity — результат проверки access-токена.
type Identity struct {
	UserID uuid.UUID
	Email  string
	Name   string
	Roles  []string
}

// HasRole проверяет наличие роли в claims (точное совпадение строки).
func (id *Identity) HasRole(role string) bool {
	for _, r := range id.Roles {
		if r == role {
			return true
		}
	}

	return false
}

// generateAccessToken подписывает claim-бандл HS256 общим секретом.
func (s *Service) generateAccessToken(ctx context.Context, user *models.User, now time.Time) (string, error) {
	const op = "service.token.generateAccessToken"

	claims := accessClaims{
		Email: user.Email,
		Name:  user.DisplayName(),
		Roles: user.Roles,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.AccessTokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.cfg.Issuer,
			Subject:   user.ID.String(),
			Audience:  jwt.ClaimStrings(s.cfg.Audience),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		log.From(ctx).Error("access_token_sign_failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return signed, nil
}

// ValidateAccessToken проверяет подпись, issuer, audience и срок действия
// access-токена. Допуска по часам нет: просроченный токен отклоняется сразу.
func (s *Service) ValidateAccessToken(tokenStr string) (*Identity, error) {
	const op = "service.token.ValidateAccessToken"

	token, err := jwt.ParseWithClaims(tokenStr, &accessClaims{},
		func(t *jwt.Token) (interface{}, error) {
			if t.Method != jwt.SigningMethodHS256 {
				return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
			}

			return []byte(s.cfg.JWTSecret), nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.cfg.Issuer),
		jwt.WithAudience(s.cfg.Audience...),
		jwt.WithExpirationRequired(),
	)

	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	claims, ok := token.Claims.(*accessClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	uid, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	return &Identity{
		UserID: uid,
		Email:  claims.Email,
		Name:   claims.Name,
		Roles:  claims.Roles,
	}, nil
}

// mintRefreshToken формирует новую запись журнала refresh-токенов
// (32 случайных байта → base64url, 43 символа) без сохранения в БД.
func (s *Service) mintRefreshToken(userID uuid.UUID, now time.Time) (*models.RefreshToken, error) {
	const op = "service.token.mintRefreshToken"

	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &models.RefreshToken{
		ID:        uuid.New(),
		Token:     base64.RawURLEncoding.EncodeToString(b),
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.cfg.RefreshTokenTTL),
	}, nil
}

// issueTokenPair выпускает пару access+refresh для аутентифицированного
// пользователя и сохраняет refresh-токен. Глобальная уникальность строки
// токена обеспечивается ограничением БД; при коллизии генерация повторяется.
func (s *Service) issueTokenPair(ctx context.Context, user *models.User) (*models.TokenPair, error) {
	const (
		op          = "service.token.issueTokenPair"
		maxAttempts = 5
	)

	lg := log.From(ctx)
	now := time.Now().UTC()

	accessToken, err := s.generateAccessToken(ctx, user, now)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	for attempt := 0; attempt < maxAttempts; attempt++ {
		rt, err := s.mintRefreshToken(user.ID, now)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		if err := s.storage.SaveRefreshToken(ctx, rt); err != nil {
			if errors.Is(err, storage.ErrAlreadyExists) {
				// Редкая коллизия — пробуем сгенерировать заново.
				continue
			}

			lg.Error("save_refresh_token_failed",
				slog.String("op", op),
				slog.String("err", err.Error()),
			)
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		s.cacheRefresh(ctx, rt)

		return &models.TokenPair{
			AccessToken:      accessToken,
			RefreshToken:     rt.Token,
			AccessExpiresAt:  now.Add(s.cfg.AccessTokenTTL),
			RefreshExpiresAt: rt.ExpiresAt,
		}, nil
	}

	lg.Error("refresh_collision_exceeded",
		slog.String("op", op),
	)

	return nil, fmt.Errorf("%s: %w", op, ErrRefreshTokenCollision)
}

// hashRefresh — ключ кэша: sha256(token) → base64url; plain-строка токена
// в Redis не попадает.
func hashRefresh(plain string) string {
	sum := sha256.Sum256([]byte(plain))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// cacheRefresh кладёт запись о токене в кэш (best-effort).
func (s *Service) cacheRefresh(ctx context.Context, rt *models.RefreshToken) {
	if s.rcache == nil {
		return
	}

	ttl := time.Until(rt.ExpiresAt)
	if ttl <= 0 {
		return
	}

	entry := &cache.RefreshEntry{
		UserID:    rt.UserID,
		Revoked:   rt.Revoked(),
		ExpiresAt: rt.ExpiresAt,
	}

	if err := s.rcache.Set(ctx, hashRefresh(rt.Token), entry, ttl); err != nil {
		log.From(ctx).Warn("refresh_cache_set_failed",
			slog.String("err", err.Error()),
		)
	}
}
