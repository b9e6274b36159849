// httperr стандартизирует ответы об ошибках HTTP-слоя.
// На вход он принимает ошибку сервисного слоя (сентинел, обёрнутый через %w),
// а на выход даёт:
//   - корректный HTTP-статус;
//   - краткое безопасное message без утечки внутренних деталей;
//   - для ошибок валидации — список полей с причинами.
//
// Непрозрачность по политике безопасности: invalid credentials / invalid
// token / invalid reset attempt отдаются одним кодом 401 без уточнения
// причины, причины остаются в логах.
package httperr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/pribylovaa/go-blog-platform/internal/service"
	"github.com/pribylovaa/go-blog-platform/internal/service/content"
)

// FieldError — ошибка конкретного поля запроса.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// APIError — единый формат для фронта.
// Code — короткий стабильный код для машиночитаемой обработки на FE.
// Message — безопасное человекочитаемое описание.
// RequestID — прокидывается из X-Request-Id, если есть (для трассировки).
type APIError struct {
	Code      string       `json:"code"`
	Message   string       `json:"message"`
	RequestID string       `json:"request_id,omitempty"`
	Fields    []FieldError `json:"fields,omitempty"`
}

// ErrorResponse — корневой объект в ответе.
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// ToHTTP конвертирует ошибку сервисного слоя в HTTP-статус и унифицированный
// ответ. err == nil — программная ошибка вызова: возвращаем 500/internal,
// чтобы не послать "200 OK" с телом ошибки и не маскировать баг.
func ToHTTP(err error) (int, ErrorResponse) {
	switch {
	case err == nil:
		return internal()

	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrInvalidToken),
		errors.Is(err, service.ErrInvalidResetAttempt):
		return http.StatusUnauthorized, ErrorResponse{
			Error: APIError{Code: "unauthenticated", Message: "unauthenticated"},
		}

	case errors.Is(err, service.ErrEmailTaken):
		return http.StatusConflict, ErrorResponse{
			Error: APIError{Code: "already_exists", Message: "email already taken"},
		}

	case errors.Is(err, content.ErrSlugTaken):
		return http.StatusConflict, ErrorResponse{
			Error: APIError{Code: "already_exists", Message: "already exists"},
		}

	case errors.Is(err, content.ErrPermissionDenied):
		return http.StatusForbidden, ErrorResponse{
			Error: APIError{Code: "permission_denied", Message: "permission denied"},
		}

	case errors.Is(err, content.ErrNotFound):
		return http.StatusNotFound, ErrorResponse{
			Error: APIError{Code: "not_found", Message: "not found"},
		}

	case errors.Is(err, service.ErrInvalidEmail):
		return validation(FieldError{Field: "email", Message: "invalid email format"})

	case errors.Is(err, service.ErrEmptyPassword):
		return validation(FieldError{Field: "password", Message: "password is required"})

	case errors.Is(err, service.ErrWeakPassword):
		return validation(FieldError{
			Field:   "password",
			Message: "password must be at least 8 characters long and contain an uppercase letter, a lowercase letter, a digit and a special character",
		})

	case errors.Is(err, service.ErrCurrentPasswordMismatch):
		return validation(FieldError{Field: "current_password", Message: "current password is incorrect"})

	case errors.Is(err, service.ErrResetTokenInvalid):
		return validation(FieldError{Field: "token", Message: "invalid or expired reset token"})

	case errors.Is(err, content.ErrInvalidInput):
		return validation()

	default:
		return internal()
	}
}

// WriteError — хелпер для HTTP-хендлеров.
// Пишет корректный статус/тело, добавляет request_id из заголовка, если он есть.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status, resp := ToHTTP(err)
	write(w, r, status, resp)
}

// WriteValidation пишет 400 с произвольным списком ошибок полей
// (используется DTO-валидацией транспорта).
func WriteValidation(w http.ResponseWriter, r *http.Request, fields ...FieldError) {
	status, resp := validation(fields...)
	write(w, r, status, resp)
}

func write(w http.ResponseWriter, r *http.Request, status int, resp ErrorResponse) {
	// Прокидываем request_id для фронта, чтобы он мог репортить баги с привязкой.
	if rid := r.Header.Get("X-Request-Id"); rid != "" {
		resp.Error.RequestID = rid
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

func validation(fields ...FieldError) (int, ErrorResponse) {
	return http.StatusBadRequest, ErrorResponse{
		Error: APIError{
			Code:    "validation_failed",
			Message: "validation failed",
			Fields:  fields,
		},
	}
}

func internal() (int, ErrorResponse) {
	return http.StatusInternalServerError, ErrorResponse{
		Error: APIError{Code: "internal", Message: "internal error"},
	}
}
