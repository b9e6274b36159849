package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/google/uuid"

	"github.com/pribylovaa/go-blog-platform/internal/models"
	"github.com/pribylovaa/go-blog-platform/internal/pkg/log"
	"github.com/pribylovaa/go-blog-platform/internal/pkg/redact"
	"github.com/pribylovaa/go-blog-platform/internal/storage"
)

// RequestPasswordReset запускает флоу восстановления пароля.
//
// Ответ всегда успешный: для несуществующего или деактивированного аккаунта
// операция молча завершается без каких-либо наблюдаемых отличий, чтобы
// не допустить перебора аккаунтов. Ошибка доставки письма также не
// раскрывается вызывающему — доставка best-effort.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	const op = "service.password.RequestPasswordReset"

	lg := log.From(ctx)

	normEmail, err := validateEmail(email)
	if err != nil {
		return fmt.Errorf("%s: %w", op, ErrInvalidEmail)
	}

	user, err := s.storage.UserByEmail(ctx, normEmail)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			lg.Info("reset_requested_unknown_email",
				slog.String("email", redact.Email(normEmail)),
			)
			return nil
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	if !user.IsActive {
		lg.Info("reset_requested_inactive_account",
			slog.String("user_id", user.ID.String()),
		)
		return nil
	}

	plain, err := s.storage.IssueResetToken(ctx, user.ID, models.PurposePasswordReset, s.cfg.ResetTokenTTL)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	link := s.resetLink(user.Email, plain)
	body := fmt.Sprintf("Please reset your password by following this link: %s", link)

	if err := s.notifier.Send(ctx, user.Email, "Reset your password", body); err != nil {
		lg.Error("reset_notify_failed",
			slog.String("user_id", user.ID.String()),
			slog.String("err", err.Error()),
		)
	}

	return nil
}

// resetLink собирает ссылку сброса: URL-safe base64 секрета + email
// query-параметрами поверх настроенного адреса лендинга.
func (s *Service) resetLink(email, plain string) string {
	encoded := base64.RawURLEncoding.EncodeToString([]byte(plain))
	return s.cfg.ResetPasswordURL + "?email=" + url.QueryEscape(email) + "&token=" + encoded
}

// ResetPassword гасит reset-токен и устанавливает новый пароль.
//
// Для неизвестного аккаунта возвращается ErrInvalidResetAttempt (unauthorized,
// а не not-found). Повреждённый, просроченный, чужой или уже погашенный токен
// даёт ErrResetTokenInvalid. Погашение токена и замена пароля фиксируются
// одной транзакцией на стороне хранилища — токен строго одноразовый.
func (s *Service) ResetPassword(ctx context.Context, email, encodedToken, newPassword string) error {
	const op = "service.password.ResetPassword"

	normEmail, err := validateEmail(email)
	if err != nil {
		return fmt.Errorf("%s: %w", op, ErrInvalidResetAttempt)
	}

	user, err := s.storage.UserByEmail(ctx, normEmail)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%s: %w", op, ErrInvalidResetAttempt)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	plainBytes, err := base64.RawURLEncoding.DecodeString(encodedToken)
	if err != nil {
		return fmt.Errorf("%s: %w", op, ErrResetTokenInvalid)
	}

	if err := validatePassword(newPassword); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	hashed, err := hashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	err = s.storage.RedeemResetToken(ctx, user.ID, models.PurposePasswordReset, string(plainBytes), hashed)
	if err != nil {
		if errors.Is(err, storage.ErrResetTokenInvalid) {
			log.From(ctx).Warn("reset_token_rejected",
				slog.String("user_id", user.ID.String()),
			)
			return fmt.Errorf("%s: %w", op, ErrResetTokenInvalid)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	log.From(ctx).Info("password_reset_completed",
		slog.String("user_id", user.ID.String()),
	)

	return nil
}

// ChangePassword меняет пароль аутентифицированного пользователя.
// ID вызывающего передаётся явным аргументом — никакого ambient-состояния.
//
// Выпущенные ранее refresh-токены при смене пароля не отзываются: сессии
// на других устройствах живут до естественного истечения. Это осознанно
// сохранённое поведение, см. DESIGN.md.
func (s *Service) ChangePassword(ctx context.Context, userID uuid.UUID, currentPassword, newPassword string) error {
	const op = "service.password.ChangePassword"

	user, err := s.storage.UserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	if !checkPassword(user.PasswordHash, currentPassword) {
		return fmt.Errorf("%s: %w", op, ErrCurrentPasswordMismatch)
	}

	if err := validatePassword(newPassword); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	hashed, err := hashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.storage.UpdatePassword(ctx, userID, hashed); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	log.From(ctx).Info("password_changed",
		slog.String("user_id", userID.String()),
	)

	return nil
}
