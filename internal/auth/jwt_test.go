package auth_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walkplan/walkplan/internal/auth"
)

func newService(t *testing.T, cfg auth.JWTConfig) *auth.JWTService {
	t.Helper()
	if cfg.SigningKey == "" {
		cfg.SigningKey = "test-secret-key-for-testing-only"
	}
	if cfg.OwnerID == "" {
		cfg.OwnerID = "owner-1"
	}
	svc, err := auth.NewJWTService(cfg)
	require.NoError(t, err)
	return svc
}

func TestJWTService_GenerateAndValidateAccessToken(t *testing.T) {
	svc := newService(t, auth.JWTConfig{})

	token, expiresAt, err := svc.GenerateAccessToken()
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(auth.DefaultAccessTokenExpiry), expiresAt, time.Minute)

	owner, err := svc.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "owner-1", owner)
}

func TestNewJWTService_RequiresKey(t *testing.T) {
	_, err := auth.NewJWTService(auth.JWTConfig{OwnerID: "owner-1"})
	assert.ErrorIs(t, err, auth.ErrMissingSigningKey)
}

func TestJWTService_InvalidToken(t *testing.T) {
	svc := newService(t, auth.JWTConfig{})

	tests := []struct {
		name  string
		token string
	}{
		{"empty token", ""},
		{"malformed token", "not.a.valid.jwt"},
		{"invalid base64", "xxx.yyy.zzz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ValidateAccessToken(tt.token)
			assert.ErrorIs(t, err, auth.ErrInvalidAccessToken)
		})
	}
}

func TestJWTService_Expired(t *testing.T) {
	svc := newService(t, auth.JWTConfig{Expiry: -time.Minute})

	token, _, err := svc.GenerateAccessToken()
	require.NoError(t, err)

	_, err = svc.ValidateAccessToken(token)
	assert.ErrorIs(t, err, auth.ErrAccessTokenExpired)
}

func TestJWTService_WrongSigningKey(t *testing.T) {
	token, _, err := newService(t, auth.JWTConfig{SigningKey: "key-one"}).GenerateAccessToken()
	require.NoError(t, err)

	_, err = newService(t, auth.JWTConfig{SigningKey: "key-two"}).ValidateAccessToken(token)
	assert.ErrorIs(t, err, auth.ErrInvalidAccessToken)
}

func TestJWTService_WrongIssuerOrAudience(t *testing.T) {
	tests := []struct {
		name   string
		minter auth.JWTConfig
	}{
		{"issuer", auth.JWTConfig{Issuer: "someone-else"}},
		{"audience", auth.JWTConfig{Audience: "other-api"}},
	}

	verifier := newService(t, auth.JWTConfig{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, _, err := newService(t, tt.minter).GenerateAccessToken()
			require.NoError(t, err)

			_, err = verifier.ValidateAccessToken(token)
			assert.ErrorIs(t, err, auth.ErrInvalidAccessToken)
		})
	}
}

func TestJWTService_OtherOwner(t *testing.T) {
	token, _, err := newService(t, auth.JWTConfig{OwnerID: "intruder"}).GenerateAccessToken()
	require.NoError(t, err)

	_, err = newService(t, auth.JWTConfig{}).ValidateAccessToken(token)
	assert.ErrorIs(t, err, auth.ErrNotOwner)
}

func TestJWTService_RejectsOtherAlgorithms(t *testing.T) {
	claims := auth.JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    auth.DefaultIssuer,
			Subject:   "owner-1",
			Audience:  jwt.ClaimStrings{auth.DefaultAudience},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		OwnerID: "owner-1",
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).
		SignedString([]byte("test-secret-key-for-testing-only"))
	require.NoError(t, err)

	_, err = newService(t, auth.JWTConfig{}).ValidateAccessToken(token)
	assert.ErrorIs(t, err, auth.ErrInvalidAccessToken)
}
