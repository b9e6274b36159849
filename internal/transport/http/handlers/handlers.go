package handlers

import (
	"encoding/json"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/pribylovaa/go-blog-platform/internal/service"
	"github.com/pribylovaa/go-blog-platform/internal/service/content"
	"github.com/pribylovaa/go-blog-platform/internal/transport/http/httperr"
)

// Handlers агрегирует зависимости HTTP-слоя.
type Handlers struct {
	Auth     *service.Service
	Content  *content.Service
	validate *validator.Validate
}

func New(auth *service.Service, cnt *content.Service) *Handlers {
	v := validator.New()

	// В ошибках полей используем имена из json-тегов, а не имена полей Go.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &Handlers{
		Auth:     auth,
		Content:  cnt,
		validate: v,
	}
}

// writeJSON — единый ответ JSON с нужным Content-Type.
// Ошибки выводим через httperr.WriteError.
func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

// decodeStrict — строгий JSON-декодер: запрещаем неизвестные поля.
func decodeStrict(r *http.Request, value any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(value)
}

// bind декодирует и валидирует тело запроса; при ошибке пишет 400
// со списком полей и возвращает false.
func (h *Handlers) bind(w http.ResponseWriter, r *http.Request, value any) bool {
	if err := decodeStrict(r, value); err != nil {
		httperr.WriteValidation(w, r, httperr.FieldError{
			Field:   "body",
			Message: "malformed request body",
		})
		return false
	}

	if err := h.validate.Struct(value); err != nil {
		httperr.WriteValidation(w, r, fieldErrors(err)...)
		return false
	}

	return true
}

// errUnauthenticated — запрос дошёл до защищённого хендлера без identity
// в контексте (роутер собран без Authenticate); отвечаем как на невалидный
// токен.
func errUnauthenticated() error {
	return service.ErrInvalidToken
}

// fieldErrors конвертирует ошибки validator в httperr.FieldError.
func fieldErrors(err error) []httperr.FieldError {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []httperr.FieldError{{Field: "body", Message: "invalid request"}}
	}

	out := make([]httperr.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, httperr.FieldError{
			Field:   fe.Field(),
			Message: fieldMessage(fe),
		})
	}

	return out
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "invalid email format"
	case "eqfield":
		return "passwords do not match"
	case "max":
		return "must not exceed " + fe.Param() + " characters"
	case "uuid":
		return "must be a valid UUID"
	default:
		return "is invalid"
	}
}
