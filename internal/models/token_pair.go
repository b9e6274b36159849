package models

import "time"

// TokenPair — пара токенов, выдаваемая при аутентификации/регистрации/ротации.
//
// Описание:
//   - AccessToken — короткоживущий подписанный JWT для доступа к API;
//   - RefreshToken — случайный секрет, который клиент хранит и предъявляет
//     для выпуска новой пары токенов;
//   - RefreshExpiresAt — абсолютный момент истечения refresh-токена (UTC).
type TokenPair struct {
	// AccessToken — JWT для авторизации запросов.
	AccessToken string
	// RefreshToken — случайный секрет для обновления пары.
	RefreshToken string
	// AccessExpiresAt — время истечения действия access-токена (UTC).
	AccessExpiresAt time.Time
	// RefreshExpiresAt — время истечения действия refresh-токена (UTC).
	RefreshExpiresAt time.Time
}
