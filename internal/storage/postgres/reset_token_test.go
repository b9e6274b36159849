package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pribylovaa/go-blog-platform/internal/models"
	"github.com/pribylovaa/go-blog-platform/internal/storage"
)

// Интеграционные тесты репозитория reset_token.go: выпуск и одноразовое
// погашение purpose-bound токенов. Инфраструктура — в user_test.go.

func TestIntegration_IssueResetToken_ReturnsPlainSecret(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	u := mustSaveUser(t, st, "user@example.com")

	plain, err := st.IssueResetToken(context.Background(), u.ID, models.PurposePasswordReset, time.Hour)
	require.NoError(t, err)
	// 32 случайных байта в base64url без паддинга — 43 символа.
	require.Len(t, plain, 43)

	other, err := st.IssueResetToken(context.Background(), u.ID, models.PurposePasswordReset, time.Hour)
	require.NoError(t, err)
	require.NotEqual(t, plain, other)
}

func TestIntegration_RedeemResetToken_OK_ChangesPassword(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	u := mustSaveUser(t, st, "user@example.com")

	plain, err := st.IssueResetToken(context.Background(), u.ID, models.PurposePasswordReset, time.Hour)
	require.NoError(t, err)

	require.NoError(t, st.RedeemResetToken(context.Background(),
		u.ID, models.PurposePasswordReset, plain, "new-hash"))

	got, err := st.UserByID(context.Background(), u.ID)
	require.NoError(t, err)
	require.Equal(t, "new-hash", got.PasswordHash)
}

func TestIntegration_RedeemResetToken_SecondRedeem_Rejected(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	u := mustSaveUser(t, st, "user@example.com")

	plain, err := st.IssueResetToken(context.Background(), u.ID, models.PurposePasswordReset, time.Hour)
	require.NoError(t, err)

	require.NoError(t, st.RedeemResetToken(context.Background(),
		u.ID, models.PurposePasswordReset, plain, "hash-1"))

	// Токен строго одноразовый: повторное погашение отклоняется,
	// пароль не меняется.
	err = st.RedeemResetToken(context.Background(),
		u.ID, models.PurposePasswordReset, plain, "hash-2")
	require.Error(t, err)
	require.ErrorIs(t, err, storage.ErrResetTokenInvalid)

	got, err := st.UserByID(context.Background(), u.ID)
	require.NoError(t, err)
	require.Equal(t, "hash-1", got.PasswordHash)
}

func TestIntegration_RedeemResetToken_WrongUserOrPurpose(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	owner := mustSaveUser(t, st, "owner@example.com")
	other := mustSaveUser(t, st, "other@example.com")

	plain, err := st.IssueResetToken(context.Background(), owner.ID, models.PurposePasswordReset, time.Hour)
	require.NoError(t, err)

	// Чужой пользователь.
	err = st.RedeemResetToken(context.Background(),
		other.ID, models.PurposePasswordReset, plain, "hash")
	require.Error(t, err)
	require.ErrorIs(t, err, storage.ErrResetTokenInvalid)

	// Чужое назначение.
	err = st.RedeemResetToken(context.Background(),
		owner.ID, "email_confirmation", plain, "hash")
	require.Error(t, err)
	require.ErrorIs(t, err, storage.ErrResetTokenInvalid)
}

func TestIntegration_RedeemResetToken_Expired(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	u := mustSaveUser(t, st, "user@example.com")

	plain, err := st.IssueResetToken(context.Background(), u.ID, models.PurposePasswordReset, -time.Minute)
	require.NoError(t, err)

	err = st.RedeemResetToken(context.Background(),
		u.ID, models.PurposePasswordReset, plain, "hash")
	require.Error(t, err)
	require.ErrorIs(t, err, storage.ErrResetTokenInvalid)
}

func TestIntegration_RedeemResetToken_GarbageSecret(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	u := mustSaveUser(t, st, "user@example.com")

	err := st.RedeemResetToken(context.Background(),
		u.ID, models.PurposePasswordReset, "never-issued", "hash")
	require.Error(t, err)
	require.ErrorIs(t, err, storage.ErrResetTokenInvalid)
}

func TestIntegration_DeleteExpiredResetTokens(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	u := mustSaveUser(t, st, "user@example.com")

	expired, err := st.IssueResetToken(context.Background(), u.ID, models.PurposePasswordReset, -time.Minute)
	require.NoError(t, err)
	live, err := st.IssueResetToken(context.Background(), u.ID, models.PurposePasswordReset, time.Hour)
	require.NoError(t, err)

	require.NoError(t, st.DeleteExpiredResetTokens(context.Background(), time.Now().UTC()))

	err = st.RedeemResetToken(context.Background(),
		u.ID, models.PurposePasswordReset, expired, "hash")
	require.Error(t, err)
	require.ErrorIs(t, err, storage.ErrResetTokenInvalid)

	require.NoError(t, st.RedeemResetToken(context.Background(),
		u.ID, models.PurposePasswordReset, live, "hash"))
}
