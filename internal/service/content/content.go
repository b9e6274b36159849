// content содержит бизнес-логику контура контента блога: рубрики,
// публикации и комментарии. Слой намеренно тонкий — DTO → модель →
// хранилище; единственная содержательная логика здесь — проверка ролей
// вызывающего. Роли приходят из проверенных claims access-токена и
// передаются явным аргументом.
package content

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pribylovaa/go-blog-platform/internal/models"
	"github.com/pribylovaa/go-blog-platform/internal/storage"
)

var (
	// ErrPermissionDenied — у вызывающего нет роли, требуемой операцией.
	// Транспорт: HTTP 403.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrNotFound — публикация/рубрика не найдена. Транспорт: HTTP 404.
	ErrNotFound = errors.New("not found")

	// ErrSlugTaken — slug рубрики уже занят. Транспорт: HTTP 409.
	ErrSlugTaken = errors.New("category slug already taken")

	// ErrInvalidInput — пустой заголовок/текст/имя. Транспорт: HTTP 400.
	ErrInvalidInput = errors.New("invalid input")
)

// Actor — аутентифицированный вызывающий: id и роли из claims.
type Actor struct {
	ID    uuid.UUID
	Roles []string
}

// hasRole — точное совпадение строки роли.
func (a Actor) hasRole(role string) bool {
	for _, r := range a.Roles {
		if r == role {
			return true
		}
	}

	return false
}

// canPublish — мутации публикаций доступны Publisher и Administrator.
func (a Actor) canPublish() bool {
	return a.hasRole(models.RolePublisher) || a.hasRole(models.RoleAdministrator)
}

// Service описывает бизнес-логику контента.
type Service struct {
	storage storage.ContentStorage
}

// New создаёт новый экземпляр Service.
func New(st storage.ContentStorage) *Service {
	return &Service{storage: st}
}

// CreateCategory создаёт рубрику. Только Administrator.
func (s *Service) CreateCategory(ctx context.Context, actor Actor, name, slug string) (*models.Category, error) {
	const op = "content.CreateCategory"

	if !actor.hasRole(models.RoleAdministrator) {
		return nil, fmt.Errorf("%s: %w", op, ErrPermissionDenied)
	}

	name = strings.TrimSpace(name)
	slug = strings.TrimSpace(strings.ToLower(slug))
	if name == "" || slug == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidInput)
	}

	c := &models.Category{
		ID:        uuid.New(),
		Name:      name,
		Slug:      slug,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.storage.SaveCategory(ctx, c); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return nil, fmt.Errorf("%s: %w", op, ErrSlugTaken)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return c, nil
}

// ListCategories возвращает все рубрики.
func (s *Service) ListCategories(ctx context.Context) ([]models.Category, error) {
	const op = "content.ListCategories"

	out, err := s.storage.Categories(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

// CreatePost создаёт публикацию. Только Publisher или Administrator.
func (s *Service) CreatePost(ctx context.Context, actor Actor, categoryID uuid.UUID, title, text string, published bool) (*models.Post, error) {
	const op = "content.CreatePost"

	if !actor.canPublish() {
		return nil, fmt.Errorf("%s: %w", op, ErrPermissionDenied)
	}

	title = strings.TrimSpace(title)
	if title == "" || strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidInput)
	}

	now := time.Now().UTC()
	p := &models.Post{
		ID:          uuid.New(),
		AuthorID:    actor.ID,
		CategoryID:  categoryID,
		Title:       title,
		Content:     text,
		IsPublished: published,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.storage.SavePost(ctx, p); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return p, nil
}

// GetPost возвращает публикацию по ID.
func (s *Service) GetPost(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	const op = "content.GetPost"

	p, err := s.storage.PostByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return p, nil
}

// ListPosts возвращает публикации с фильтрацией по рубрике/автору.
func (s *Service) ListPosts(ctx context.Context, categoryID, authorID uuid.UUID, limit int) ([]models.Post, error) {
	const op = "content.ListPosts"

	out, err := s.storage.Posts(ctx, categoryID, authorID, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

// UpdatePost обновляет публикацию. Автор может править свои публикации,
// Administrator — любые.
func (s *Service) UpdatePost(ctx context.Context, actor Actor, id, categoryID uuid.UUID, title, text string, published bool) (*models.Post, error) {
	const op = "content.UpdatePost"

	if !actor.canPublish() {
		return nil, fmt.Errorf("%s: %w", op, ErrPermissionDenied)
	}

	p, err := s.storage.PostByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if p.AuthorID != actor.ID && !actor.hasRole(models.RoleAdministrator) {
		return nil, fmt.Errorf("%s: %w", op, ErrPermissionDenied)
	}

	title = strings.TrimSpace(title)
	if title == "" || strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidInput)
	}

	p.CategoryID = categoryID
	p.Title = title
	p.Content = text
	p.IsPublished = published
	p.UpdatedAt = time.Now().UTC()

	if err := s.storage.UpdatePost(ctx, p); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return p, nil
}

// DeletePost удаляет публикацию. Автор или Administrator.
func (s *Service) DeletePost(ctx context.Context, actor Actor, id uuid.UUID) error {
	const op = "content.DeletePost"

	if !actor.canPublish() {
		return fmt.Errorf("%s: %w", op, ErrPermissionDenied)
	}

	p, err := s.storage.PostByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%s: %w", op, ErrNotFound)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	if p.AuthorID != actor.ID && !actor.hasRole(models.RoleAdministrator) {
		return fmt.Errorf("%s: %w", op, ErrPermissionDenied)
	}

	if err := s.storage.DeletePost(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%s: %w", op, ErrNotFound)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// AddComment добавляет комментарий. Доступно любому аутентифицированному
// пользователю.
func (s *Service) AddComment(ctx context.Context, actor Actor, postID uuid.UUID, text string) (*models.Comment, error) {
	const op = "content.AddComment"

	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidInput)
	}

	c := &models.Comment{
		ID:        uuid.New(),
		PostID:    postID,
		AuthorID:  actor.ID,
		Content:   text,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.storage.SaveComment(ctx, c); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return c, nil
}

// ListComments возвращает комментарии публикации.
func (s *Service) ListComments(ctx context.Context, postID uuid.UUID, limit int) ([]models.Comment, error) {
	const op = "content.ListComments"

	out, err := s.storage.CommentsByPost(ctx, postID, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}
