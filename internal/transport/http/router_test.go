package http

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/pribylovaa/go-blog-platform/internal/config"
	"github.com/pribylovaa/go-blog-platform/internal/models"
	"github.com/pribylovaa/go-blog-platform/internal/service"
	"github.com/pribylovaa/go-blog-platform/internal/service/content"
	"github.com/pribylovaa/go-blog-platform/internal/storage"
	"github.com/pribylovaa/go-blog-platform/mocks"
)

// Тесты REST-поверхности: собираем полный роутер поверх реальных сервисов
// с мокнутым хранилищем и гоняем запросы через httptest.

func testAuthCfg() config.AuthConfig {
	return config.AuthConfig{
		JWTSecret:        "router-secret",
		AccessTokenTTL:   time.Minute,
		RefreshTokenTTL:  24 * time.Hour,
		ResetTokenTTL:    time.Hour,
		Issuer:           "blog-backend",
		Audience:         []string{"blog-frontend"},
		ResetPasswordURL: "https://blog.example/reset-password",
	}
}

type testEnv struct {
	handler http.Handler
	auth    *service.Service
	st      *mocks.MockStorage
	nt      *mocks.MockNotifier
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()

	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	st := mocks.NewMockStorage(ctrl)
	nt := mocks.NewMockNotifier(ctrl)

	auth := service.New(st, testAuthCfg(), nt)
	cnt := content.New(st)

	silent := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := NewRouter(auth, cnt, Options{Logger: silent, Timeout: 5 * time.Second})

	return &testEnv{handler: handler, auth: auth, st: st, nt: nt}
}

func (e *testEnv) do(t *testing.T, method, target, bearer string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	rr := httptest.NewRecorder()
	e.handler.ServeHTTP(rr, req)
	return rr
}

func mustBcrypt(t *testing.T, pw string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func storedUser(t *testing.T, email, pw string, roles ...string) *models.User {
	t.Helper()
	if len(roles) == 0 {
		roles = []string{models.RoleSubscriber}
	}
	return &models.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: mustBcrypt(t, pw),
		FirstName:    "Ada",
		LastName:     "Lovelace",
		Roles:        roles,
		IsActive:     true,
	}
}

// bearerFor — получает настоящий access-токен через логин с мокнутым
// хранилищем.
func (e *testEnv) bearerFor(t *testing.T, user *models.User, pw string) string {
	t.Helper()

	e.st.EXPECT().UserByEmail(gomock.Any(), user.Email).Return(user, nil)
	e.st.EXPECT().SaveRefreshToken(gomock.Any(), gomock.Any()).Return(nil)

	pair, _, err := e.auth.LoginUser(context.Background(), user.Email, pw)
	require.NoError(t, err)
	return pair.AccessToken
}

func decodeErr(t *testing.T, rr *httptest.ResponseRecorder) (string, []map[string]any) {
	t.Helper()

	var resp struct {
		Error struct {
			Code   string           `json:"code"`
			Fields []map[string]any `json:"fields"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp.Error.Code, resp.Error.Fields
}

func TestRouter_Register_Created(t *testing.T) {
	t.Parallel()

	e := newEnv(t)

	e.st.EXPECT().UserByEmail(gomock.Any(), "new@example.com").Return(nil, storage.ErrNotFound)
	e.st.EXPECT().SaveUser(gomock.Any(), gomock.Any()).Return(nil)
	e.st.EXPECT().SaveRefreshToken(gomock.Any(), gomock.Any()).Return(nil)

	rr := e.do(t, http.MethodPost, "/auth/register", "", map[string]string{
		"email":            "new@example.com",
		"password":         "Abcdef1!",
		"confirm_password": "Abcdef1!",
		"first_name":       "Ada",
		"last_name":        "Lovelace",
	})

	require.Equal(t, http.StatusCreated, rr.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Equal(t, "new@example.com", resp["email"])
	require.NotEmpty(t, resp["access_token"])
	require.NotEmpty(t, resp["refresh_token"])
	require.ElementsMatch(t, []any{models.RoleSubscriber}, resp["roles"])
}

func TestRouter_Register_PasswordMismatch_400(t *testing.T) {
	t.Parallel()

	e := newEnv(t)

	rr := e.do(t, http.MethodPost, "/auth/register", "", map[string]string{
		"email":            "new@example.com",
		"password":         "Abcdef1!",
		"confirm_password": "Different1!",
		"first_name":       "Ada",
		"last_name":        "Lovelace",
	})

	require.Equal(t, http.StatusBadRequest, rr.Code)
	code, fields := decodeErr(t, rr)
	require.Equal(t, "validation_failed", code)
	require.Len(t, fields, 1)
	require.Equal(t, "confirm_password", fields[0]["field"])
}

func TestRouter_Register_UnknownField_400(t *testing.T) {
	t.Parallel()

	e := newEnv(t)

	rr := e.do(t, http.MethodPost, "/auth/register", "", map[string]string{
		"email":      "new@example.com",
		"password":   "Abcdef1!",
		"unexpected": "x",
	})

	require.Equal(t, http.StatusBadRequest, rr.Code)
	code, _ := decodeErr(t, rr)
	require.Equal(t, "validation_failed", code)
}

func TestRouter_Login_OK(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	user := storedUser(t, "user@example.com", "Abcdef1!")

	e.st.EXPECT().UserByEmail(gomock.Any(), user.Email).Return(user, nil)
	e.st.EXPECT().SaveRefreshToken(gomock.Any(), gomock.Any()).Return(nil)

	rr := e.do(t, http.MethodPost, "/auth/login", "", map[string]string{
		"email":    user.Email,
		"password": "Abcdef1!",
	})

	require.Equal(t, http.StatusOK, rr.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Equal(t, user.ID.String(), resp["user_id"])
	require.NotEmpty(t, resp["access_token"])
}

func TestRouter_Login_BadCredentials_401(t *testing.T) {
	t.Parallel()

	e := newEnv(t)

	e.st.EXPECT().UserByEmail(gomock.Any(), "user@example.com").Return(nil, storage.ErrNotFound)

	rr := e.do(t, http.MethodPost, "/auth/login", "", map[string]string{
		"email":    "user@example.com",
		"password": "Abcdef1!",
	})

	require.Equal(t, http.StatusUnauthorized, rr.Code)
	code, _ := decodeErr(t, rr)
	require.Equal(t, "unauthenticated", code)
}

func TestRouter_Refresh_InvalidToken_401(t *testing.T) {
	t.Parallel()

	e := newEnv(t)

	e.st.EXPECT().RefreshTokenByToken(gomock.Any(), "nope").Return(nil, storage.ErrNotFound)

	rr := e.do(t, http.MethodPost, "/auth/refresh-token", "", map[string]string{
		"refresh_token": "nope",
	})

	require.Equal(t, http.StatusUnauthorized, rr.Code)
	code, _ := decodeErr(t, rr)
	require.Equal(t, "unauthenticated", code)
}

func TestRouter_Refresh_OK(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	user := storedUser(t, "user@example.com", "Abcdef1!")
	now := time.Now().UTC()
	old := &models.RefreshToken{
		ID:        uuid.New(),
		Token:     "live-refresh-token",
		UserID:    user.ID,
		CreatedAt: now.Add(-time.Hour),
		ExpiresAt: now.Add(time.Hour),
	}

	e.st.EXPECT().RefreshTokenByToken(gomock.Any(), old.Token).Return(old, nil)
	e.st.EXPECT().UserByID(gomock.Any(), user.ID).Return(user, nil)
	e.st.EXPECT().RotateRefreshToken(gomock.Any(), old.Token, gomock.Any()).Return(nil)

	rr := e.do(t, http.MethodPost, "/auth/refresh-token", "", map[string]string{
		"refresh_token": old.Token,
	})

	require.Equal(t, http.StatusOK, rr.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Equal(t, user.ID.String(), resp["user_id"])
	require.NotEmpty(t, resp["access_token"])
	require.NotEqual(t, old.Token, resp["refresh_token"])
}

func TestRouter_ResetPassword_OK(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	user := storedUser(t, "user@example.com", "Abcdef1!")
	encoded := base64.RawURLEncoding.EncodeToString([]byte("plain-secret"))

	e.st.EXPECT().UserByEmail(gomock.Any(), user.Email).Return(user, nil)
	e.st.EXPECT().
		RedeemResetToken(gomock.Any(), user.ID, models.PurposePasswordReset, "plain-secret", gomock.Any()).
		Return(nil)

	rr := e.do(t, http.MethodPost, "/auth/reset-password", "", map[string]string{
		"email":                user.Email,
		"token":                encoded,
		"new_password":         "NewPass1!",
		"confirm_new_password": "NewPass1!",
	})

	require.Equal(t, http.StatusOK, rr.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Equal(t, "Password has been reset successfully.", resp["message"])
}

func TestRouter_ForgotPassword_UnknownEmail_SameResponse(t *testing.T) {
	t.Parallel()

	e := newEnv(t)

	e.st.EXPECT().UserByEmail(gomock.Any(), "ghost@example.com").Return(nil, storage.ErrNotFound)

	rr := e.do(t, http.MethodPost, "/auth/forgot-password", "", map[string]string{
		"email": "ghost@example.com",
	})

	require.Equal(t, http.StatusOK, rr.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Equal(t, "Password reset link sent if email exists.", resp["message"])
}

func TestRouter_ChangePassword_RequiresToken(t *testing.T) {
	t.Parallel()

	e := newEnv(t)

	rr := e.do(t, http.MethodPost, "/auth/change-password", "", map[string]string{
		"current_password":     "Abcdef1!",
		"new_password":         "NewPass1!",
		"confirm_new_password": "NewPass1!",
	})

	require.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestRouter_ChangePassword_OK(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	user := storedUser(t, "user@example.com", "Abcdef1!")
	bearer := e.bearerFor(t, user, "Abcdef1!")

	e.st.EXPECT().UserByID(gomock.Any(), user.ID).Return(user, nil)
	e.st.EXPECT().UpdatePassword(gomock.Any(), user.ID, gomock.Any()).Return(nil)

	rr := e.do(t, http.MethodPost, "/auth/change-password", bearer, map[string]string{
		"current_password":     "Abcdef1!",
		"new_password":         "NewPass1!",
		"confirm_new_password": "NewPass1!",
	})

	require.Equal(t, http.StatusOK, rr.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Equal(t, "Password has been changed successfully.", resp["message"])
}

func TestRouter_Posts_PublicRead(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	post := models.Post{ID: uuid.New(), AuthorID: uuid.New(), Title: "Hello", Content: "World"}

	e.st.EXPECT().Posts(gomock.Any(), uuid.Nil, uuid.Nil, gomock.Any()).
		Return([]models.Post{post}, nil)

	rr := e.do(t, http.MethodGet, "/posts", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp []map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Len(t, resp, 1)
	require.Equal(t, "Hello", resp[0]["title"])
}

func TestRouter_GetPost_NotFound_404(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	id := uuid.New()

	e.st.EXPECT().PostByID(gomock.Any(), id).Return(nil, storage.ErrNotFound)

	rr := e.do(t, http.MethodGet, fmt.Sprintf("/posts/%s", id), "", nil)
	require.Equal(t, http.StatusNotFound, rr.Code)
	code, _ := decodeErr(t, rr)
	require.Equal(t, "not_found", code)
}

func TestRouter_CreatePost_RequiresToken(t *testing.T) {
	t.Parallel()

	e := newEnv(t)

	rr := e.do(t, http.MethodPost, "/posts", "", map[string]any{
		"category_id": uuid.New().String(),
		"title":       "Hello",
		"content":     "World",
	})

	require.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestRouter_CreatePost_SubscriberForbidden(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	user := storedUser(t, "sub@example.com", "Abcdef1!", models.RoleSubscriber)
	bearer := e.bearerFor(t, user, "Abcdef1!")

	rr := e.do(t, http.MethodPost, "/posts", bearer, map[string]any{
		"category_id": uuid.New().String(),
		"title":       "Hello",
		"content":     "World",
	})

	require.Equal(t, http.StatusForbidden, rr.Code)
	code, _ := decodeErr(t, rr)
	require.Equal(t, "permission_denied", code)
}

func TestRouter_CreatePost_PublisherOK(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	user := storedUser(t, "pub@example.com", "Abcdef1!", models.RolePublisher)
	bearer := e.bearerFor(t, user, "Abcdef1!")

	e.st.EXPECT().SavePost(gomock.Any(), gomock.Any()).Return(nil)

	rr := e.do(t, http.MethodPost, "/posts", bearer, map[string]any{
		"category_id": uuid.New().String(),
		"title":       "Hello",
		"content":     "World",
		"published":   true,
	})

	require.Equal(t, http.StatusCreated, rr.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Equal(t, "Hello", resp["title"])
	require.Equal(t, user.ID.String(), resp["author_id"])
}
