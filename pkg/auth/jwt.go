package auth

import (
	"crypto/rand"
	"encoding/base64"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/narwhalmedia/ottcore/pkg/errors"
)

// Principal is the verified caller: an account plus the optional profile hints
// carried as custom claims.
type Principal struct {
	AccountID        string
	ProfileID        string
	DefaultProfileID string
	Child            bool
	ExpiresAt        time.Time
}

// CustomClaims extends jwt.RegisteredClaims with our custom fields.
type CustomClaims struct {
	jwt.RegisteredClaims

	ProfileID        string `json:"profile_id,omitempty"`
	DefaultProfileID string `json:"default_profile_id,omitempty"`
	Child            bool   `json:"child,omitempty"`
}

// Verifier turns bearer tokens into principals.
type Verifier interface {
	VerifyPrincipal(token string) (*Principal, error)
}

// JWTManager verifies and issues HS256 identity tokens.
type JWTManager struct {
	secret    []byte
	issuer    string
	accessTTL time.Duration
	now       func() time.Time
}

// NewJWTManager creates a new JWT manager.
func NewJWTManager(secret, issuer string, accessTTL time.Duration) *JWTManager {
	if accessTTL <= 0 {
		accessTTL = DefaultAccessTTL
	}
	return &JWTManager{
		secret:    []byte(secret),
		issuer:    issuer,
		accessTTL: accessTTL,
		now:       time.Now,
	}
}

// VerifyPrincipal validates the token and maps its claims. Expired tokens fail
// with TokenExpired, every other failure with InvalidToken.
func (j *JWTManager) VerifyPrincipal(tokenString string) (*Principal, error) {
	if tokenString == "" {
		return nil, errors.InvalidToken()
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(j.now),
		jwt.WithExpirationRequired(),
	}
	if j.issuer != "" {
		opts = append(opts, jwt.WithIssuer(j.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &CustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return j.secret, nil
	}, opts...)
	if err != nil {
		if stderrors.Is(err, jwt.ErrTokenExpired) {
			return nil, errors.TokenExpired()
		}
		return nil, errors.InvalidToken()
	}

	claims, ok := token.Claims.(*CustomClaims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, errors.InvalidToken()
	}

	principal := &Principal{
		AccountID:        claims.Subject,
		ProfileID:        claims.ProfileID,
		DefaultProfileID: claims.DefaultProfileID,
		Child:            claims.Child,
	}
	if claims.ExpiresAt != nil {
		principal.ExpiresAt = claims.ExpiresAt.Time
	}
	return principal, nil
}

// IssueToken signs a token for the principal. Used by dev tooling and tests;
// production tokens come from the identity provider.
func (j *JWTManager) IssueToken(p Principal) (string, error) {
	now := j.now()
	expires := p.ExpiresAt
	if expires.IsZero() {
		expires = now.Add(j.accessTTL)
	}

	claims := CustomClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    j.issuer,
			Subject:   p.AccountID,
			ExpiresAt: jwt.NewNumericDate(expires),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.New().String(),
		},
		ProfileID:        p.ProfileID,
		DefaultProfileID: p.DefaultProfileID,
		Child:            p.Child,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(j.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// GenerateSecret generates a random secret for JWT signing.
func GenerateSecret() string {
	b := make([]byte, TokenKeySize)
	_, _ = rand.Read(b)
	return base64.StdEncoding.EncodeToString(b)
}
