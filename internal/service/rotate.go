package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/pribylovaa/go-blog-platform/internal/models"
	"github.com/pribylovaa/go-blog-platform/internal/pkg/log"
	"github.com/pribylovaa/go-blog-platform/internal/storage"
)

// RotateToken обменивает предъявленный refresh-токен на новую пару.
//
// Машина состояний токена: Active → Revoked(Expired) (пассивно, выявляется
// при проверке) либо Active → Revoked(Replaced) (явная ротация). Оба
// состояния терминальны.
//
// Все причины отказа — токен не найден, просрочен, уже ротирован, владелец
// удалён или деактивирован — схлопываются в ErrInvalidToken: предъявителю
// не сообщается, что именно не так.
//
// Отзыв предъявленного токена, ссылка на преемника и сохранение преемника
// фиксируются одной транзакцией с условным UPDATE (storage.RotateRefreshToken):
// из двух конкурентных ротаций одного токена выигрывает ровно одна, вторая
// получает ErrInvalidToken. Проверка активности ниже — лишь ранний отсев;
// решающим является условие revoked_at IS NULL внутри транзакции.
func (s *Service) RotateToken(ctx context.Context, presented string) (*models.TokenPair, *models.User, error) {
	const (
		op          = "service.rotate.RotateToken"
		maxAttempts = 5
	)

	lg := log.From(ctx)
	now := time.Now().UTC()

	// Быстрый отсев по кэшу: заведомо отозванные/просроченные токены
	// отклоняются без похода в БД. Положительный ответ кэша ничего
	// не разрешает.
	if s.rcache != nil {
		if entry, ok, err := s.rcache.Get(ctx, hashRefresh(presented)); err == nil && ok {
			if entry.Revoked || !now.Before(entry.ExpiresAt) {
				lg.Warn("refresh_rejected_by_cache", slog.String("op", op))
				return nil, nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
			}
		}
	}

	token, err := s.storage.RefreshTokenByToken(ctx, presented)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			lg.Warn("refresh_lookup_not_found", slog.String("op", op))
			return nil, nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
		}

		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	if !token.Active(now) {
		// Повторное предъявление уже ротированного токена — индикатор
		// кражи. Каскадный отзыв потомков цепочки здесь намеренно
		// не выполняется; факт фиксируется в логе.
		lg.Warn("refresh_not_active",
			slog.String("op", op),
			slog.String("user_id", token.UserID.String()),
			slog.Bool("revoked", token.Revoked()),
			slog.Bool("expired", token.Expired(now)),
		)
		return nil, nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	user, err := s.storage.UserByID(ctx, token.UserID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
		}

		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	if !user.IsActive {
		return nil, nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	accessToken, err := s.generateAccessToken(ctx, user, now)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	for attempt := 0; attempt < maxAttempts; attempt++ {
		next, err := s.mintRefreshToken(user.ID, now)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", op, err)
		}

		err = s.storage.RotateRefreshToken(ctx, presented, next)
		if err != nil {
			if errors.Is(err, storage.ErrAlreadyExists) {
				// Коллизия строки нового токена — пробуем заново.
				continue
			}
			if errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrTokenNotActive) {
				// Конкурентная ротация успела первой.
				lg.Warn("refresh_rotation_lost_race", slog.String("op", op))
				return nil, nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
			}

			return nil, nil, fmt.Errorf("%s: %w", op, err)
		}

		if s.rcache != nil {
			if cerr := s.rcache.MarkRevoked(ctx, hashRefresh(presented)); cerr != nil {
				lg.Warn("refresh_cache_revoke_failed", slog.String("err", cerr.Error()))
			}
		}
		s.cacheRefresh(ctx, next)

		return &models.TokenPair{
			AccessToken:      accessToken,
			RefreshToken:     next.Token,
			AccessExpiresAt:  now.Add(s.cfg.AccessTokenTTL),
			RefreshExpiresAt: next.ExpiresAt,
		}, user, nil
	}

	lg.Error("refresh_collision_exceeded", slog.String("op", op))

	return nil, nil, fmt.Errorf("%s: %w", op, ErrRefreshTokenCollision)
}
