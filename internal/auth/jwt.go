package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenTTL is the fixed validity window of an admin session token.
const TokenTTL = 7 * 24 * time.Hour

var (
	ErrMissingToken = errors.New("missing token")
	ErrInvalidToken = errors.New("invalid token")
)

// TokenPayload is the identity embedded in a session token.
type TokenPayload struct {
	AdminID string `json:"adminId"`
	Email   string `json:"email"`
	Role    Role   `json:"role"`
}

// TokenIssuer signs and verifies session tokens.
type TokenIssuer interface {
	Issue(payload TokenPayload) (string, error)
	Verify(token string) (*TokenPayload, error)
}

type Claims struct {
	AdminID string `json:"adminId"`
	Email   string `json:"email"`
	Role    Role   `json:"role"`
	jwt.RegisteredClaims
}

// JWTManager issues HS256 tokens.
type JWTManager struct {
	secret []byte
	expiry time.Duration
	issuer string
	now    func() time.Time
}

var _ TokenIssuer = (*JWTManager)(nil)

func NewJWTManager(secret string, expiry time.Duration, issuer string) *JWTManager {
	if expiry <= 0 {
		expiry = TokenTTL
	}
	return &JWTManager{
		secret: []byte(secret),
		expiry: expiry,
		issuer: issuer,
		now:    time.Now,
	}
}

func (m *JWTManager) Issue(payload TokenPayload) (string, error) {
	if payload.AdminID == "" || payload.Role == "" {
		return "", ErrInvalidToken
	}

	now := m.now()
	claims := &Claims{
		AdminID: payload.AdminID,
		Email:   payload.Email,
		Role:    payload.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   payload.AdminID,
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.expiry)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// Verify checks signature, issuer and expiry. Every failure collapses to
// ErrInvalidToken.
func (m *JWTManager) Verify(tokenString string) (*TokenPayload, error) {
	if strings.TrimSpace(tokenString) == "" {
		return nil, ErrInvalidToken
	}

	opts := []jwt.ParserOption{jwt.WithTimeFunc(m.now)}
	if m.issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secret, nil
	}, opts...)
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.AdminID == "" {
		return nil, ErrInvalidToken
	}
	return &TokenPayload{AdminID: claims.AdminID, Email: claims.Email, Role: claims.Role}, nil
}

// TokenFromHeader extracts the credential from an "Authorization: Bearer" value.
func TokenFromHeader(authHeader string) (string, error) {
	parts := strings.Fields(authHeader)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", ErrMissingToken
	}
	return parts[1], nil
}
