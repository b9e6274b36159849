package models

import (
	"time"

	"github.com/google/uuid"
)

// RefreshToken — запись журнала refresh-токенов.
//
// Ротация образует односвязную цепочку: каждый токен ссылается вперёд
// (ReplacedByToken) максимум на одного преемника; активным в любой момент
// может быть только хвост цепочки. Отозванный токен никогда не
// реактивируется, запись мутируется ровно один раз — при переходе
// revoke/replace. Просроченные токены не удаляются ядром (этим занимается
// фоновая уборка).
type RefreshToken struct {
	ID uuid.UUID
	// Token — непрозрачная случайная строка (>=128 бит энтропии, base64url).
	Token  string
	UserID uuid.UUID
	// CreatedAt — момент выпуска (UTC).
	CreatedAt time.Time
	// ExpiresAt — момент истечения (UTC).
	ExpiresAt time.Time
	// RevokedAt — момент отзыва; nil, пока токен не отозван.
	RevokedAt *time.Time
	// ReplacedByToken — строка токена-преемника, выпущенного при ротации;
	// nil, пока ротация не происходила. Это обратная ссылка-отношение,
	// а не владение.
	ReplacedByToken *string
}

// Expired — токен просрочен на момент now.
func (t *RefreshToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// Revoked — токен отозван.
func (t *RefreshToken) Revoked() bool {
	return t.RevokedAt != nil
}

// Active — токен не отозван и не просрочен.
func (t *RefreshToken) Active(now time.Time) bool {
	return !t.Revoked() && !t.Expired(now)
}
