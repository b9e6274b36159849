// service содержит бизнес-логику учётных данных и жизненного цикла сессий:
// регистрацию/аутентификацию пользователей, выпуск и ротацию токенов,
// флоу восстановления и смены пароля. Работа с хранилищем идёт через
// интерфейсы из пакета storage, доставка писем — через notifier.Notifier.
//
// Основные аспекты:
//   - Пакет не хранит состояние запроса внутри Service; экземпляр Service
//     безопасен для конкурентного использования из разных горутин при условии,
//     что переданное хранилище (storage.Storage) потокобезопасно.
//   - Каждая публичная операция выполняется в рамках одного запроса: все
//     мутации БД фиксируются вместе или не фиксируются вовсе (транзакции
//     на стороне storage).
//   - Ошибки возвращаются сентинелами и далее маппятся транспортом
//     на HTTP-статусы (см. комментарии к переменным ошибок ниже).
package service

import (
	"errors"

	"github.com/pribylovaa/go-blog-platform/internal/cache"
	"github.com/pribylovaa/go-blog-platform/internal/config"
	"github.com/pribylovaa/go-blog-platform/internal/notifier"
	"github.com/pribylovaa/go-blog-platform/internal/storage"
)

var (
	// ErrInvalidCredentials — пара логин/пароль неверна, пользователь не найден
	// или учётная запись деактивирована. Причины намеренно не различаются,
	// чтобы не допустить перебора аккаунтов. Транспорт: HTTP 401.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidToken — refresh-токен отсутствует, просрочен, уже ротирован
	// либо его владелец удалён/деактивирован. Причины схлопнуты в одну
	// непрозрачную ошибку. Транспорт: HTTP 401.
	ErrInvalidToken = errors.New("invalid token")

	// ErrInvalidResetAttempt — попытка погашения reset-токена для
	// неизвестного аккаунта. Трактуется как unauthorized, а не not-found,
	// чтобы не раскрывать существование аккаунта. Транспорт: HTTP 401.
	ErrInvalidResetAttempt = errors.New("invalid reset attempt")

	// ErrEmailTaken — e-mail уже занят другим пользователем.
	// Транспорт: HTTP 409.
	ErrEmailTaken = errors.New("email already taken")

	// ErrInvalidEmail — e-mail имеет некорректный формат.
	// Транспорт: HTTP 400.
	ErrInvalidEmail = errors.New("invalid email format")

	// ErrWeakPassword — пароль не удовлетворяет политикам сложности.
	// Транспорт: HTTP 400.
	ErrWeakPassword = errors.New("password is too weak")

	// ErrEmptyPassword — пароль пустой. Транспорт: HTTP 400.
	ErrEmptyPassword = errors.New("password is empty")

	// ErrCurrentPasswordMismatch — текущий пароль при смене не подошёл.
	// Транспорт: HTTP 400.
	ErrCurrentPasswordMismatch = errors.New("current password is incorrect")

	// ErrResetTokenInvalid — reset-токен повреждён, просрочен, уже погашен
	// или не привязан к этому аккаунту. Транспорт: HTTP 400.
	ErrResetTokenInvalid = errors.New("invalid or expired reset token")

	// ErrRefreshTokenCollision — исчерпаны попытки сгенерировать уникальный
	// refresh-токен (редкий случай коллизий при сохранении в БД после
	// нескольких ретраев). Транспорт: HTTP 500.
	ErrRefreshTokenCollision = errors.New("refresh token collision")
)

// Service описывает бизнес-логику credential/session-ядра.
type Service struct {
	storage  storage.Storage
	cfg      config.AuthConfig
	notifier notifier.Notifier
	rcache   cache.RefreshCache // может быть nil, если кэш не сконфигурирован
}

// New создаёт новый экземпляр Service.
func New(storage storage.Storage, cfg config.AuthConfig, n notifier.Notifier) *Service {
	return &Service{
		storage:  storage,
		cfg:      cfg,
		notifier: n,
	}
}

// SetRefreshCache устанавливает кэш refresh-токенов (опционально).
func (s *Service) SetRefreshCache(c cache.RefreshCache) {
	s.rcache = c
}
