package handlers

import (
	"net/http"

	"github.com/pribylovaa/go-blog-platform/internal/models"
	"github.com/pribylovaa/go-blog-platform/internal/transport/http/httperr"
	"github.com/pribylovaa/go-blog-platform/internal/transport/http/middleware"
)

type registerRequest struct {
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
	FirstName       string `json:"first_name" validate:"required,max=100"`
	LastName        string `json:"last_name" validate:"required,max=100"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type forgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type resetPasswordRequest struct {
	Email              string `json:"email" validate:"required,email"`
	Token              string `json:"token" validate:"required"`
	NewPassword        string `json:"new_password" validate:"required"`
	ConfirmNewPassword string `json:"confirm_new_password" validate:"required,eqfield=NewPassword"`
}

type changePasswordRequest struct {
	CurrentPassword    string `json:"current_password" validate:"required"`
	NewPassword        string `json:"new_password" validate:"required"`
	ConfirmNewPassword string `json:"confirm_new_password" validate:"required,eqfield=NewPassword"`
}

// authResponse — пара токенов с краткой сводкой аккаунта.
type authResponse struct {
	UserID           string   `json:"user_id"`
	Email            string   `json:"email"`
	FirstName        string   `json:"first_name"`
	LastName         string   `json:"last_name"`
	Roles            []string `json:"roles"`
	AccessToken      string   `json:"access_token"`
	RefreshToken     string   `json:"refresh_token"`
	AccessExpiresAt  int64    `json:"access_expires_at"`  // Unix UTC
	RefreshExpiresAt int64    `json:"refresh_expires_at"` // Unix UTC
}

type messageResponse struct {
	Message string `json:"message"`
}

func toAuthResponse(pair *models.TokenPair, user *models.User) authResponse {
	return authResponse{
		UserID:           user.ID.String(),
		Email:            user.Email,
		FirstName:        user.FirstName,
		LastName:         user.LastName,
		Roles:            user.Roles,
		AccessToken:      pair.AccessToken,
		RefreshToken:     pair.RefreshToken,
		AccessExpiresAt:  pair.AccessExpiresAt.Unix(),
		RefreshExpiresAt: pair.RefreshExpiresAt.Unix(),
	}
}

func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var in registerRequest
	if !h.bind(w, r, &in) {
		return
	}

	pair, user, err := h.Auth.RegisterUser(r.Context(), in.Email, in.Password, in.FirstName, in.LastName)
	if err != nil {
		httperr.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toAuthResponse(pair, user))
}

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var in loginRequest
	if !h.bind(w, r, &in) {
		return
	}

	pair, user, err := h.Auth.LoginUser(r.Context(), in.Email, in.Password)
	if err != nil {
		httperr.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toAuthResponse(pair, user))
}

func (h *Handlers) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var in refreshRequest
	if !h.bind(w, r, &in) {
		return
	}

	pair, user, err := h.Auth.RotateToken(r.Context(), in.RefreshToken)
	if err != nil {
		httperr.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toAuthResponse(pair, user))
}

// ForgotPassword отвечает одинаково вне зависимости от существования
// аккаунта — перебор по этому эндпойнту ничего не даёт.
func (h *Handlers) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var in forgotPasswordRequest
	if !h.bind(w, r, &in) {
		return
	}

	if err := h.Auth.RequestPasswordReset(r.Context(), in.Email); err != nil {
		httperr.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: "Password reset link sent if email exists."})
}

func (h *Handlers) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var in resetPasswordRequest
	if !h.bind(w, r, &in) {
		return
	}

	if err := h.Auth.ResetPassword(r.Context(), in.Email, in.Token, in.NewPassword); err != nil {
		httperr.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: "Password has been reset successfully."})
}

// ChangePassword — единственный auth-эндпойнт за Authenticate: id вызывающего
// берётся из проверенных claims и передаётся сервису явным аргументом.
func (h *Handlers) ChangePassword(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		httperr.WriteError(w, r, errUnauthenticated())
		return
	}

	var in changePasswordRequest
	if !h.bind(w, r, &in) {
		return
	}

	if err := h.Auth.ChangePassword(r.Context(), id.UserID, in.CurrentPassword, in.NewPassword); err != nil {
		httperr.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: "Password has been changed successfully."})
}
