package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/sasilab/medbot/internal/domain/policy"
)

// SessionClaims are the JWT claims carried by an HTTP session token.
type SessionClaims struct {
	Username  string `json:"username"`
	Role      string `json:"role"`
	SessionID string `json:"session_id"`
	jwt.RegisteredClaims
}

// Session identifies an authenticated HTTP session.
type Session struct {
	Username  string
	Role      policy.Role
	SessionID uuid.UUID
}

// TokenIssuer signs and verifies HS256 session tokens.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenIssuer creates an issuer with the given signing secret and token
// lifetime.
func NewTokenIssuer(secret string, ttl time.Duration) (*TokenIssuer, error) {
	if secret == "" {
		return nil, errors.New("token secret is required")
	}
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &TokenIssuer{secret: []byte(secret), ttl: ttl}, nil
}

// Issue creates a token for a freshly authenticated session.
func (t *TokenIssuer) Issue(username string, role policy.Role) (string, Session, error) {
	session := Session{
		Username:  username,
		Role:      role,
		SessionID: uuid.New(),
	}

	now := time.Now()
	claims := SessionClaims{
		Username:  username,
		Role:      string(role),
		SessionID: session.SessionID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", Session{}, fmt.Errorf("sign session token: %w", err)
	}
	return token, session, nil
}

// Verify parses and validates a token, returning the session it represents.
func (t *TokenIssuer) Verify(token string) (Session, error) {
	claims := &SessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(tok *jwt.Token) (any, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", tok.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil {
		return Session{}, fmt.Errorf("parse session token: %w", err)
	}
	if !parsed.Valid {
		return Session{}, errors.New("invalid session token")
	}

	role, err := policy.ParseRole(claims.Role)
	if err != nil {
		return Session{}, fmt.Errorf("session token role: %w", err)
	}
	sessionID, err := uuid.Parse(claims.SessionID)
	if err != nil {
		return Session{}, fmt.Errorf("session token session id: %w", err)
	}

	return Session{Username: claims.Username, Role: role, SessionID: sessionID}, nil
}
