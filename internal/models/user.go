package models

import (
	"time"

	"github.com/google/uuid"
)

// Роли пользователей. Имена ролей регистрозависимы и зашиты в claims
// access-токена — внешние гварды сверяют их посимвольно, поэтому набор
// и написание менять нельзя без миграции клиентов.
const (
	RoleAdministrator = "Administrator"
	RolePublisher     = "Publisher"
	RoleSubscriber    = "Subscriber"
)

// User - модель пользователя в системе.
type User struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	Roles        []string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// DisplayName возвращает отображаемое имя для claims access-токена.
func (u *User) DisplayName() string {
	if u.FirstName == "" {
		return u.LastName
	}
	if u.LastName == "" {
		return u.FirstName
	}

	return u.FirstName + " " + u.LastName
}

// HasRole проверяет наличие роли (точное совпадение строки).
func (u *User) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}

	return false
}
