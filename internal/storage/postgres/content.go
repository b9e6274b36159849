package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/pribylovaa/go-blog-platform/internal/models"
	"github.com/pribylovaa/go-blog-platform/internal/storage"
)

// SaveCategory создаёт новую рубрику.
func (s *Storage) SaveCategory(ctx context.Context, c *models.Category) error {
	const op = "storage.postgres.SaveCategory"

	query := `
		INSERT INTO categories(id, name, slug, created_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := s.db.Exec(ctx, query, c.ID, c.Name, c.Slug, c.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return fmt.Errorf("%s: %w", op, storage.ErrAlreadyExists)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// Categories возвращает все рубрики.
func (s *Storage) Categories(ctx context.Context) ([]models.Category, error) {
	const op = "storage.postgres.Categories"

	query := `
		SELECT id, name, slug, created_at
		FROM categories
		ORDER BY name
	`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var out []models.Category
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		out = append(out, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

// SavePost создаёт новую публикацию.
func (s *Storage) SavePost(ctx context.Context, p *models.Post) error {
	const op = "storage.postgres.SavePost"

	query := `
		INSERT INTO posts(id, author_id, category_id, title, content, is_published, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := s.db.Exec(ctx, query,
		p.ID, p.AuthorID, p.CategoryID, p.Title, p.Content, p.IsPublished, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
			return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// PostByID находит публикацию по ID.
func (s *Storage) PostByID(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	const op = "storage.postgres.PostByID"

	query := `
		SELECT id, author_id, category_id, title, content, is_published, created_at, updated_at
		FROM posts
		WHERE id = $1
	`

	var p models.Post
	err := s.db.QueryRow(ctx, query, id).Scan(
		&p.ID, &p.AuthorID, &p.CategoryID, &p.Title, &p.Content, &p.IsPublished, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &p, nil
}

// Posts возвращает публикации с простой фильтрацией по рубрике/автору.
func (s *Storage) Posts(ctx context.Context, categoryID, authorID uuid.UUID, limit int) ([]models.Post, error) {
	const op = "storage.postgres.Posts"

	if limit <= 0 || limit > 100 {
		limit = 100
	}

	query := `
		SELECT id, author_id, category_id, title, content, is_published, created_at, updated_at
		FROM posts
		WHERE ($1::uuid IS NULL OR category_id = $1)
		  AND ($2::uuid IS NULL OR author_id = $2)
		ORDER BY created_at DESC
		LIMIT $3
	`

	rows, err := s.db.Query(ctx, query, nullableUUID(categoryID), nullableUUID(authorID), limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var out []models.Post
	for rows.Next() {
		var p models.Post
		if err := rows.Scan(
			&p.ID, &p.AuthorID, &p.CategoryID, &p.Title, &p.Content, &p.IsPublished, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		out = append(out, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

// UpdatePost обновляет публикацию.
func (s *Storage) UpdatePost(ctx context.Context, p *models.Post) error {
	const op = "storage.postgres.UpdatePost"

	query := `
		UPDATE posts
		SET category_id = $2, title = $3, content = $4, is_published = $5, updated_at = $6
		WHERE id = $1
	`

	cmdTag, err := s.db.Exec(ctx, query, p.ID, p.CategoryID, p.Title, p.Content, p.IsPublished, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return nil
}

// DeletePost удаляет публикацию.
func (s *Storage) DeletePost(ctx context.Context, id uuid.UUID) error {
	const op = "storage.postgres.DeletePost"

	query := `
		DELETE FROM posts
		WHERE id = $1
	`

	cmdTag, err := s.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return nil
}

// SaveComment создаёт комментарий.
func (s *Storage) SaveComment(ctx context.Context, c *models.Comment) error {
	const op = "storage.postgres.SaveComment"

	query := `
		INSERT INTO comments(id, post_id, author_id, content, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := s.db.Exec(ctx, query, c.ID, c.PostID, c.AuthorID, c.Content, c.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
			return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// CommentsByPost возвращает комментарии публикации.
func (s *Storage) CommentsByPost(ctx context.Context, postID uuid.UUID, limit int) ([]models.Comment, error) {
	const op = "storage.postgres.CommentsByPost"

	if limit <= 0 || limit > 100 {
		limit = 100
	}

	query := `
		SELECT id, post_id, author_id, content, created_at
		FROM comments
		WHERE post_id = $1
		ORDER BY created_at
		LIMIT $2
	`

	rows, err := s.db.Query(ctx, query, postID, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var out []models.Comment
	for rows.Next() {
		var c models.Comment
		if err := rows.Scan(&c.ID, &c.PostID, &c.AuthorID, &c.Content, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		out = append(out, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

// nullableUUID конвертирует нулевой UUID в NULL для опциональных фильтров.
func nullableUUID(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}

	return &id
}
