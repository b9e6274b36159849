package postgres

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/pribylovaa/go-blog-platform/internal/storage"
)

// hashResetToken - sha256 → base64url; в БД хранится только хэш секрета.
func hashResetToken(plain string) string {
	sum := sha256.Sum256([]byte(plain))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// IssueResetToken выпускает одноразовый purpose-bound токен и возвращает
// plain-секрет. Секрет — 32 случайных байта в base64url.
func (s *Storage) IssueResetToken(ctx context.Context, userID uuid.UUID, purpose string, ttl time.Duration) (string, error) {
	const (
		op          = "storage.postgres.IssueResetToken"
		maxAttempts = 5
	)

	query := `
        INSERT INTO reset_tokens(id, token_hash, user_id, purpose, created_at, expires_at, used_at)
        VALUES ($1, $2, $3, $4, $5, $6, NULL)
    `

	for attempt := 0; attempt < maxAttempts; attempt++ {
		b := make([]byte, 32)
		if _, err := rand.Read(b); err != nil {
			return "", fmt.Errorf("%s: %w", op, err)
		}
		plain := base64.RawURLEncoding.EncodeToString(b)

		now := time.Now().UTC()
		_, err := s.db.Exec(ctx, query,
			uuid.New(),
			hashResetToken(plain),
			userID,
			purpose,
			now,
			now.Add(ttl),
		)

		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
				// Редкая коллизия — пробуем сгенерировать заново.
				continue
			}

			return "", fmt.Errorf("%s: %w", op, err)
		}

		return plain, nil
	}

	return "", fmt.Errorf("%s: reset token collision attempts exceeded", op)
}

// RedeemResetToken гасит токен и меняет пароль в одной транзакции.
// Условный UPDATE по used_at IS NULL обеспечивает одноразовость: повторное
// погашение того же секрета не находит строки и отклоняется.
func (s *Storage) RedeemResetToken(ctx context.Context, userID uuid.UUID, purpose, plain, passwordHash string) error {
	const op = "storage.postgres.RedeemResetToken"

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	now := time.Now().UTC()

	const upd = `
		UPDATE reset_tokens
		SET used_at = $4
		WHERE token_hash = $1 AND user_id = $2 AND purpose = $3
		  AND used_at IS NULL AND expires_at > $4
		RETURNING id
	`

	var tokenID uuid.UUID
	err = tx.QueryRow(ctx, upd, hashResetToken(plain), userID, purpose, now).Scan(&tokenID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%s: %w", op, storage.ErrResetTokenInvalid)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	const updPassword = `
		UPDATE users
		SET password_hash = $2, updated_at = $3
		WHERE id = $1
	`

	cmdTag, err := tx.Exec(ctx, updPassword, userID, passwordHash, now)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// DeleteExpiredResetTokens удаляет просроченные reset-токены.
func (s *Storage) DeleteExpiredResetTokens(ctx context.Context, now time.Time) error {
	const op = "storage.postgres.DeleteExpiredResetTokens"

	query := `
        DELETE FROM reset_tokens
        WHERE expires_at <= $1
    `

	_, err := s.db.Exec(ctx, query, now)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
