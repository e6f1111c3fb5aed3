package services

import (
	"context"
	"testing"
	"time"

	"forum/internal/config"
	"forum/internal/models"
	"forum/internal/utils"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{SecretKey: "test-secret", ExpireHours: 1, Issuer: "forum-test"}
}

func newAuthService(f *fixture) *AuthService {
	hasher := utils.NewBcryptHasher(bcrypt.MinCost)
	return NewAuthService(
		NewUserCredentialService(f.store, hasher),
		NewJWTTokenService(testJWTConfig()),
		f.users,
	)
}

func TestJWTTokenService_Roundtrip(t *testing.T) {
	svc := NewJWTTokenService(testJWTConfig())

	token, err := svc.Generate("42")
	require.NoError(t, err)
	subject, ok := svc.VerifyAndGetSubject(token)
	require.True(t, ok)
	assert.Equal(t, "42", subject)

	other, err := svc.Generate("42")
	require.NoError(t, err)
	assert.NotEqual(t, token, other, "each token carries its own id")
}

func TestJWTTokenService_Rejects(t *testing.T) {
	svc := NewJWTTokenService(testJWTConfig())

	wrongSecret := NewJWTTokenService(config.JWTConfig{SecretKey: "other", Issuer: "forum-test"})
	forged, err := wrongSecret.Generate("1")
	require.NoError(t, err)

	wrongIssuer := NewJWTTokenService(config.JWTConfig{SecretKey: "test-secret", Issuer: "someone-else"})
	foreign, err := wrongIssuer.Generate("1")
	require.NoError(t, err)

	expiredClaims := models.CreateClaims("1", "forum-test", 1, "id")
	expiredClaims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))
	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, expiredClaims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	noneAlg, err := jwt.NewWithClaims(jwt.SigningMethodNone, models.CreateClaims("1", "forum-test", 1, "id")).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-token"},
		{"empty", ""},
		{"wrong secret", forged},
		{"wrong issuer", foreign},
		{"expired", expired},
		{"none algorithm", noneAlg},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := svc.VerifyAndGetSubject(tt.token)
			assert.False(t, ok)
		})
	}
}

func TestAuthService_Login(t *testing.T) {
	f := newFixture(t)
	auth := newAuthService(f)
	ctx := context.Background()
	user := f.newUser(t, "frank")

	resp, err := auth.Login(ctx, " frank ", "secret123")
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, user.ID, resp.User.ID)

	id, err := auth.VerifyToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, id)

	_, err = auth.Login(ctx, "frank", "wrong123")
	assert.ErrorIs(t, err, utils.ErrAuthentication)

	_, err = auth.Login(ctx, "nobody", "secret123")
	assert.ErrorIs(t, err, utils.ErrAuthentication)
}

func TestAuthService_RegisterAndMe(t *testing.T) {
	f := newFixture(t)
	auth := newAuthService(f)
	ctx := context.Background()

	resp, err := auth.Register(ctx, models.RegisterRequest{Username: "grace", Password: "secret123", Email: "grace@example.com"})
	require.NoError(t, err)

	id, err := auth.VerifyToken(resp.Token)
	require.NoError(t, err)
	me, err := auth.Me(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "grace", me.Username)

	_, err = auth.Register(ctx, models.RegisterRequest{Username: "grace", Password: "secret123", Email: "g2@example.com"})
	assert.ErrorIs(t, err, utils.ErrConflict)
}

func TestAuthService_VerifyToken(t *testing.T) {
	f := newFixture(t)
	auth := newAuthService(f)
	tokens := NewJWTTokenService(testJWTConfig())

	notNumeric, err := tokens.Generate("alice")
	require.NoError(t, err)
	zero, err := tokens.Generate("0")
	require.NoError(t, err)

	for _, token := range []string{"bogus", notNumeric, zero} {
		_, err := auth.VerifyToken(token)
		assert.ErrorIs(t, err, utils.ErrAuthentication)
	}
}
