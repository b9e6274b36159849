package service

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/pribylovaa/go-blog-platform/internal/models"
	"github.com/pribylovaa/go-blog-platform/internal/storage"
)

func TestValidateAccessToken_OK(t *testing.T) {
	t.Parallel()

	svc, _, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	ctx := context.Background()
	user := &models.User{
		ID:        uuid.New(),
		Email:     "user@example.com",
		FirstName: "Ada",
		LastName:  "Lovelace",
		Roles:     []string{models.RolePublisher, models.RoleSubscriber},
		IsActive:  true,
	}

	at, err := svc.generateAccessToken(ctx, user, time.Now().UTC())
	require.NoError(t, err)

	id, err := svc.ValidateAccessToken(at)
	require.NoError(t, err)
	require.Equal(t, user.ID, id.UserID)
	require.Equal(t, user.Email, id.Email)
	require.Equal(t, "Ada Lovelace", id.Name)
	require.Equal(t, user.Roles, id.Roles)
	require.True(t, id.HasRole(models.RolePublisher))
	require.False(t, id.HasRole(models.RoleAdministrator))
}

func TestValidateAccessToken_Garbage(t *testing.T) {
	t.Parallel()

	svc, _, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	_, err := svc.ValidateAccessToken("not-a-jwt")
	require.Error(t, err)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateAccessToken_Expired_NoLeeway(t *testing.T) {
	t.Parallel()

	svc, _, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	// Токен, истёкший секунду назад, отклоняется: допуска по часам нет.
	cfg := svc.cfg
	cfg.AccessTokenTTL = -time.Second
	svc.cfg = cfg

	user := &models.User{ID: uuid.New(), Email: "e@e.com", Roles: []string{models.RoleSubscriber}}
	at, err := svc.generateAccessToken(context.Background(), user, time.Now().UTC())
	require.NoError(t, err)

	_, err = svc.ValidateAccessToken(at)
	require.Error(t, err)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateAccessToken_WrongSecret(t *testing.T) {
	t.Parallel()

	issuer, _, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	user := &models.User{ID: uuid.New(), Email: "e@e.com", Roles: []string{models.RoleSubscriber}}
	at, err := issuer.generateAccessToken(context.Background(), user, time.Now().UTC())
	require.NoError(t, err)

	verifier, _, _, vctrl := newSvc(t)
	defer vctrl.Finish()
	cfg := verifier.cfg
	cfg.JWTSecret = "another-secret"
	verifier.cfg = cfg

	_, err = verifier.ValidateAccessToken(at)
	require.Error(t, err)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateAccessToken_WrongIssuerOrAudience(t *testing.T) {
	t.Parallel()

	issuer, _, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	user := &models.User{ID: uuid.New(), Email: "e@e.com", Roles: []string{models.RoleSubscriber}}
	at, err := issuer.generateAccessToken(context.Background(), user, time.Now().UTC())
	require.NoError(t, err)

	verifier, _, _, vctrl := newSvc(t)
	defer vctrl.Finish()
	cfg := verifier.cfg
	cfg.Issuer = "someone-else"
	verifier.cfg = cfg

	_, err = verifier.ValidateAccessToken(at)
	require.Error(t, err)
	require.ErrorIs(t, err, ErrInvalidToken)

	cfg = verifier.cfg
	cfg.Issuer = testCfg().Issuer
	cfg.Audience = []string{"other-frontend"}
	verifier.cfg = cfg

	_, err = verifier.ValidateAccessToken(at)
	require.Error(t, err)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateAccessToken_AlgNone_Rejected(t *testing.T) {
	t.Parallel()

	svc, _, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	claims := accessClaims{
		Email: "e@e.com",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
			Issuer:    svc.cfg.Issuer,
			Subject:   uuid.New().String(),
			Audience:  jwt.ClaimStrings(svc.cfg.Audience),
		},
	}

	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, claims)
	tok, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = svc.ValidateAccessToken(tok)
	require.Error(t, err)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestMintRefreshToken_Shape(t *testing.T) {
	t.Parallel()

	svc, _, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	now := time.Now().UTC()
	userID := uuid.New()

	rt, err := svc.mintRefreshToken(userID, now)
	require.NoError(t, err)
	require.Equal(t, userID, rt.UserID)
	// 32 случайных байта в base64url без паддинга — 43 символа.
	require.Len(t, rt.Token, 43)
	require.Equal(t, now, rt.CreatedAt)
	require.Equal(t, now.Add(svc.cfg.RefreshTokenTTL), rt.ExpiresAt)
	require.Nil(t, rt.RevokedAt)
	require.Nil(t, rt.ReplacedByToken)

	other, err := svc.mintRefreshToken(userID, now)
	require.NoError(t, err)
	require.NotEqual(t, rt.Token, other.Token)
}

func TestIssueTokenPair_RetriesOnCollision(t *testing.T) {
	t.Parallel()

	svc, st, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	user := activeUser(t, "user@example.com", "Abcdef1!")

	// Первая попытка упирается в уникальный индекс, вторая проходит.
	gomock.InOrder(
		st.EXPECT().SaveRefreshToken(gomock.Any(), gomock.Any()).Return(storage.ErrAlreadyExists),
		st.EXPECT().SaveRefreshToken(gomock.Any(), gomock.Any()).Return(nil),
	)

	tp, err := svc.issueTokenPair(context.Background(), user)
	require.NoError(t, err)
	require.NotEmpty(t, tp.RefreshToken)
}

func TestIssueTokenPair_CollisionExhausted(t *testing.T) {
	t.Parallel()

	svc, st, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	user := activeUser(t, "user@example.com", "Abcdef1!")

	st.EXPECT().SaveRefreshToken(gomock.Any(), gomock.Any()).
		Return(storage.ErrAlreadyExists).Times(5)

	_, err := svc.issueTokenPair(context.Background(), user)
	require.Error(t, err)
	require.ErrorIs(t, err, ErrRefreshTokenCollision)
}
