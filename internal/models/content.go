package models

import (
	"time"

	"github.com/google/uuid"
)

// Category — рубрика блога. Управляется администраторами.
type Category struct {
	ID        uuid.UUID
	Name      string
	Slug      string
	CreatedAt time.Time
}

// Post — публикация блога.
type Post struct {
	ID          uuid.UUID
	AuthorID    uuid.UUID
	CategoryID  uuid.UUID
	Title       string
	Content     string
	IsPublished bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Comment — комментарий к публикации.
type Comment struct {
	ID        uuid.UUID
	PostID    uuid.UUID
	AuthorID  uuid.UUID
	Content   string
	CreatedAt time.Time
}
