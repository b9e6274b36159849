package models

import (
	"time"

	"github.com/google/uuid"
)

// Назначения purpose-bound токенов.
const (
	PurposePasswordReset = "password_reset"
)

// ResetToken — одноразовый токен, привязанный к одному пользователю и одному
// назначению. В БД хранится только хэш секрета; сам секрет уходит пользователю
// в ссылке и больше нигде не сохраняется.
type ResetToken struct {
	ID        uuid.UUID
	TokenHash string
	UserID    uuid.UUID
	Purpose   string
	CreatedAt time.Time
	ExpiresAt time.Time
	// UsedAt — момент погашения; nil, пока токен не использован.
	UsedAt *time.Time
}
