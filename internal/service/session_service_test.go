package service

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"echowipe/internal/domain"
)

func TestSessionService_IssueParse(t *testing.T) {
	svc := NewSessionService("secret", time.Hour, NewMemorySessionStore())
	token, session, err := svc.Issue(domain.User{Email: "user@example.com"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if token == "" || session.ID == "" {
		t.Fatalf("expected token and session id")
	}

	parsed, err := svc.Parse(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if parsed.Email != "user@example.com" || parsed.ID != session.ID {
		t.Fatalf("unexpected session: %+v", parsed)
	}
}

func TestSessionService_RevokedTokenRejected(t *testing.T) {
	svc := NewSessionService("secret", time.Hour, NewMemorySessionStore())
	token, _, err := svc.Issue(domain.User{Email: "user@example.com"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if err := svc.Revoke(token); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if _, err := svc.Parse(token); !errors.Is(err, ErrSessionInvalid) {
		t.Fatalf("expected ErrSessionInvalid after revoke, got %v", err)
	}
}

func TestSessionService_RejectsEmptySecret(t *testing.T) {
	svc := NewSessionService("", time.Hour, nil)
	if _, _, err := svc.Issue(domain.User{Email: "user@example.com"}); !errors.Is(err, ErrSessionInvalid) {
		t.Fatalf("expected ErrSessionInvalid, got %v", err)
	}
}

func TestSessionService_RejectsOtherSecret(t *testing.T) {
	a := NewSessionService("secret-a", time.Hour, nil)
	b := NewSessionService("secret-b", time.Hour, nil)
	token, _, err := a.Issue(domain.User{Email: "user@example.com"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := b.Parse(token); !errors.Is(err, ErrSessionInvalid) {
		t.Fatalf("expected ErrSessionInvalid, got %v", err)
	}
}

func TestSessionService_RejectsExpired(t *testing.T) {
	svc := NewSessionService("secret", time.Hour, nil)
	now := time.Now().UTC()
	claims := SessionClaims{
		Email:     "user@example.com",
		TokenType: sessionTokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        "jti-1",
			Issuer:    "echowipe",
			Subject:   "user@example.com",
			IssuedAt:  jwt.NewNumericDate(now.Add(-2 * time.Hour)),
			ExpiresAt: jwt.NewNumericDate(now.Add(-time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := svc.Parse(signed); !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("expected ErrSessionExpired, got %v", err)
	}
}

func TestSessionService_RejectsWrongIssuer(t *testing.T) {
	svc := NewSessionService("secret", time.Hour, nil)
	now := time.Now().UTC()
	claims := SessionClaims{
		Email:     "user@example.com",
		TokenType: sessionTokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        "jti-1",
			Issuer:    "other-issuer",
			Subject:   "user@example.com",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(10 * time.Minute)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := svc.Parse(signed); !errors.Is(err, ErrSessionInvalid) {
		t.Fatalf("expected ErrSessionInvalid for wrong issuer, got %v", err)
	}
}
