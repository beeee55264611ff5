// Package auth issues and verifies the bearer tokens that guard the walkplan
// API. There is exactly one walker per deployment, identified by an owner
// id; every valid token is issued to that owner.
package auth

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token defaults.
const (
	// DefaultAccessTokenExpiry is how long minted tokens stay valid.
	DefaultAccessTokenExpiry = 30 * 24 * time.Hour

	DefaultIssuer   = "walkplan"
	DefaultAudience = "walkplan-api"
)

// Predefined JWT errors.
var (
	ErrInvalidAccessToken = errors.New("invalid access token")
	ErrAccessTokenExpired = errors.New("access token has expired")
	ErrNotOwner           = errors.New("token was not issued to the owner")
	ErrMissingSigningKey  = errors.New("signing key is required")
)

// JWTClaims represents the claims in our API access tokens.
type JWTClaims struct {
	jwt.RegisteredClaims

	// OwnerID is the walker the token was issued to.
	OwnerID string `json:"oid"`
}

// JWTConfig holds configuration for the JWT service.
type JWTConfig struct {
	// SigningKey is the HS256 secret.
	SigningKey string

	// OwnerID is the only subject accepted by ValidateAccessToken.
	OwnerID string

	Issuer   string
	Audience string

	// Expiry defaults to DefaultAccessTokenExpiry.
	Expiry time.Duration
}

// JWTService handles JWT creation and validation.
type JWTService struct {
	signingKey []byte
	ownerID    string
	issuer     string
	audience   string
	expiry     time.Duration
	now        func() time.Time
}

// NewJWTService creates a new JWT service.
func NewJWTService(cfg JWTConfig) (*JWTService, error) {
	if cfg.SigningKey == "" {
		return nil, ErrMissingSigningKey
	}
	if cfg.Issuer == "" {
		cfg.Issuer = DefaultIssuer
	}
	if cfg.Audience == "" {
		cfg.Audience = DefaultAudience
	}
	if cfg.Expiry == 0 {
		cfg.Expiry = DefaultAccessTokenExpiry
	}

	return &JWTService{
		signingKey: []byte(cfg.SigningKey),
		ownerID:    cfg.OwnerID,
		issuer:     cfg.Issuer,
		audience:   cfg.Audience,
		expiry:     cfg.Expiry,
		now:        time.Now,
	}, nil
}

// GenerateAccessToken mints a token for the owner.
func (s *JWTService) GenerateAccessToken() (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.expiry)

	claims := JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   s.ownerID,
			Audience:  jwt.ClaimStrings{s.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			NotBefore: jwt.NewNumericDate(now),
			ID:        generateTokenID(),
		},
		OwnerID: s.ownerID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.signingKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("signing access token: %w", err)
	}

	return tokenString, expiresAt, nil
}

// ValidateAccessToken verifies a token and returns the owner id it carries.
func (s *JWTService) ValidateAccessToken(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.signingKey, nil
	}, jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(s.audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrAccessTokenExpired
		}
		return "", fmt.Errorf("%w: %s", ErrInvalidAccessToken, err.Error())
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid {
		return "", ErrInvalidAccessToken
	}
	if claims.Subject != s.ownerID || claims.OwnerID != s.ownerID {
		return "", ErrNotOwner
	}

	return claims.OwnerID, nil
}

func generateTokenID() string {
	bytes := make([]byte, 16)
	if _, err := rand.Read(bytes); err != nil {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString(bytes)
}
