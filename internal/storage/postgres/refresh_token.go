package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/pribylovaa/go-blog-platform/internal/models"
	"github.com/pribylovaa/go-blog-platform/internal/storage"
)

// SaveRefreshToken сохраняет новый refresh-токен в БД.
func (s *Storage) SaveRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	const op = "storage.postgres.SaveRefreshToken"

	query := `
        INSERT INTO refresh_tokens(id, token, user_id, created_at, expires_at, revoked_at, replaced_by_token)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
    `

	_, err := s.db.Exec(ctx, query,
		token.ID,
		token.Token,
		token.UserID,
		token.CreatedAt,
		token.ExpiresAt,
		token.RevokedAt,
		token.ReplacedByToken,
	)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return fmt.Errorf("%s: %w", op, storage.ErrAlreadyExists)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// RefreshTokenByToken находит refresh-токен по точному совпадению строки.
func (s *Storage) RefreshTokenByToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	const op = "storage.postgres.RefreshTokenByToken"

	query := `
        SELECT id, token, user_id, created_at, expires_at, revoked_at, replaced_by_token
        FROM refresh_tokens
        WHERE token = $1
    `

	var rt models.RefreshToken
	err := s.db.QueryRow(ctx, query, token).Scan(
		&rt.ID,
		&rt.Token,
		&rt.UserID,
		&rt.CreatedAt,
		&rt.ExpiresAt,
		&rt.RevokedAt,
		&rt.ReplacedByToken,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &rt, nil
}

// RotateRefreshToken выполняет ротацию в одной транзакции:
//  1. условный UPDATE отзывает предъявленный токен и проставляет ссылку
//     на преемника, только если revoked_at ещё NULL;
//  2. INSERT сохраняет преемника.
//
// Либо фиксируются обе мутации, либо ни одной. Две конкурентные ротации
// одного токена не могут выиграть обе: условие revoked_at IS NULL отдаёт
// строку ровно одному UPDATE.
func (s *Storage) RotateRefreshToken(ctx context.Context, presented string, next *models.RefreshToken) error {
	const op = "storage.postgres.RotateRefreshToken"

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	const upd = `
		UPDATE refresh_tokens
		SET revoked_at = $2, replaced_by_token = $3
		WHERE token = $1 AND revoked_at IS NULL
		RETURNING user_id
	`

	var userID uuid.UUID
	err = tx.QueryRow(ctx, upd, presented, time.Now().UTC(), next.Token).Scan(&userID)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%s: %w", op, err)
		}

		// Активной строки нет: различаем "не найден" и "уже отозван".
		const sel = `
			SELECT revoked_at IS NOT NULL
			FROM refresh_tokens
			WHERE token = $1
		`

		var revoked bool
		serr := tx.QueryRow(ctx, sel, presented).Scan(&revoked)
		if serr != nil {
			if errors.Is(serr, pgx.ErrNoRows) {
				return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
			}

			return fmt.Errorf("%s: %w", op, serr)
		}

		return fmt.Errorf("%s: %w", op, storage.ErrTokenNotActive)
	}

	const ins = `
        INSERT INTO refresh_tokens(id, token, user_id, created_at, expires_at, revoked_at, replaced_by_token)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
    `

	_, err = tx.Exec(ctx, ins,
		next.ID,
		next.Token,
		next.UserID,
		next.CreatedAt,
		next.ExpiresAt,
		next.RevokedAt,
		next.ReplacedByToken,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return fmt.Errorf("%s: %w", op, storage.ErrAlreadyExists)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// DeleteExpiredTokens удаляет все просроченные токены.
func (s *Storage) DeleteExpiredTokens(ctx context.Context, now time.Time) error {
	const op = "storage.postgres.DeleteExpiredTokens"

	query := `
        DELETE FROM refresh_tokens
        WHERE expires_at <= $1
    `

	_, err := s.db.Exec(ctx, query, now)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
