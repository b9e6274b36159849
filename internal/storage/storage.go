package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/pribylovaa/go-blog-platform/internal/models"
)

var (
	// ErrNotFound — запись не найдена (пользователь/токен/пост).
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists — нарушение уникальности (email/refresh-token/slug).
	ErrAlreadyExists = errors.New("already exists")
	// ErrTokenNotActive — refresh-токен существует, но уже отозван:
	// условный UPDATE ротации не нашёл активной строки.
	ErrTokenNotActive = errors.New("token not active")
	// ErrResetTokenInvalid — reset-токен не найден, просрочен, погашен
	// или не совпадает по пользователю/назначению.
	ErrResetTokenInvalid = errors.New("reset token invalid")
)

// UserStorage выполняет операции над пользователями.
type UserStorage interface {
	// SaveUser создает нового пользователя в БД.
	SaveUser(ctx context.Context, user *models.User) error
	// UserByEmail находит пользователя по email.
	UserByEmail(ctx context.Context, email string) (*models.User, error)
	// UserByID находит пользователя по ID.
	UserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	// UpdatePassword атомарно заменяет хэш пароля пользователя.
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	// UpdateRoles заменяет набор ролей пользователя.
	UpdateRoles(ctx context.Context, id uuid.UUID, roles []string) error
}

// RefreshTokenStorage выполняет операции над журналом refresh-токенов.
type RefreshTokenStorage interface {
	// SaveRefreshToken сохраняет новый refresh-токен в БД.
	SaveRefreshToken(ctx context.Context, token *models.RefreshToken) error
	// RefreshTokenByToken находит refresh-токен по точному совпадению строки.
	RefreshTokenByToken(ctx context.Context, token string) (*models.RefreshToken, error)
	// RotateRefreshToken в одной транзакции отзывает предъявленный токен
	// (только если он ещё не отозван), проставляет ему ссылку на преемника
	// и сохраняет преемника. Возвращает ErrNotFound, если предъявленный
	// токен отсутствует, и ErrTokenNotActive, если он уже отозван —
	// в том числе при проигрыше гонки конкурентной ротации.
	RotateRefreshToken(ctx context.Context, presented string, next *models.RefreshToken) error
	// DeleteExpiredTokens удаляет все просроченные токены.
	DeleteExpiredTokens(ctx context.Context, now time.Time) error
}

// ResetTokenStorage — провайдер purpose-bound токенов (сброс пароля).
// Секрет токена генерируется и проверяется здесь; наружу уходит только
// plain-строка, в БД остаётся хэш.
type ResetTokenStorage interface {
	// IssueResetToken выпускает одноразовый токен для пользователя и
	// назначения, возвращает plain-секрет.
	IssueResetToken(ctx context.Context, userID uuid.UUID, purpose string, ttl time.Duration) (string, error)
	// RedeemResetToken в одной транзакции проверяет токен (пользователь,
	// назначение, срок, одноразовость), помечает его использованным и
	// заменяет хэш пароля. Возвращает ErrResetTokenInvalid при любом
	// несовпадении.
	RedeemResetToken(ctx context.Context, userID uuid.UUID, purpose, plain, passwordHash string) error
	// DeleteExpiredResetTokens удаляет просроченные reset-токены.
	DeleteExpiredResetTokens(ctx context.Context, now time.Time) error
}

// ContentStorage выполняет CRUD-операции контента блога.
type ContentStorage interface {
	SaveCategory(ctx context.Context, c *models.Category) error
	Categories(ctx context.Context) ([]models.Category, error)
	SavePost(ctx context.Context, p *models.Post) error
	PostByID(ctx context.Context, id uuid.UUID) (*models.Post, error)
	// Posts возвращает публикации с простой фильтрацией; нулевые UUID
	// означают отсутствие фильтра.
	Posts(ctx context.Context, categoryID, authorID uuid.UUID, limit int) ([]models.Post, error)
	UpdatePost(ctx context.Context, p *models.Post) error
	DeletePost(ctx context.Context, id uuid.UUID) error
	SaveComment(ctx context.Context, c *models.Comment) error
	CommentsByPost(ctx context.Context, postID uuid.UUID, limit int) ([]models.Comment, error)
}

// Storage задает контракт работы с БД.
type Storage interface {
	UserStorage
	RefreshTokenStorage
	ResetTokenStorage
	ContentStorage
	Close()
}
