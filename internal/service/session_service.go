package service

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"echowipe/internal/domain"
)

const sessionTokenType = "session"

// SessionService emite y valida los tokens firmados de la cookie de sesión.
type SessionService struct {
	secret []byte
	ttl    time.Duration
	issuer string
	store  SessionStore
}

type SessionClaims struct {
	Email     string `json:"email"`
	TokenType string `json:"typ"`
	jwt.RegisteredClaims
}

var (
	ErrSessionInvalid = errors.New("session invalid")
	ErrSessionExpired = errors.New("session expired")
)

func NewSessionService(secret string, ttl time.Duration, store SessionStore) *SessionService {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if store == nil {
		store = NewMemorySessionStore()
	}
	return &SessionService{
		secret: []byte(secret),
		ttl:    ttl,
		issuer: "echowipe",
		store:  store,
	}
}

// TTL devuelve la vida de una sesión, usada también como Max-Age de la cookie.
func (s *SessionService) TTL() time.Duration {
	return s.ttl
}

// Issue abre una sesión para el usuario y devuelve el token firmado.
func (s *SessionService) Issue(user domain.User) (string, domain.Session, error) {
	if len(s.secret) == 0 {
		return "", domain.Session{}, ErrSessionInvalid
	}
	if strings.TrimSpace(user.Email) == "" {
		return "", domain.Session{}, ErrSessionInvalid
	}
	now := time.Now().UTC()
	session := domain.Session{
		ID:        uuid.NewString(),
		Email:     user.Email,
		ExpiresAt: now.Add(s.ttl),
		CreatedAt: now,
	}
	claims := SessionClaims{
		Email:     session.Email,
		TokenType: sessionTokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        session.ID,
			Issuer:    s.issuer,
			Subject:   session.Email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", domain.Session{}, err
	}
	if err := s.store.Store(session.ID, session.Email, s.ttl); err != nil {
		return "", domain.Session{}, err
	}
	return signed, session, nil
}

// Parse valida firma, emisor, tipo y que la sesión no haya sido revocada.
func (s *SessionService) Parse(token string) (domain.Session, error) {
	claims, err := s.parseToken(token)
	if err != nil {
		return domain.Session{}, err
	}
	ok, err := s.store.Exists(claims.ID)
	if err != nil || !ok {
		return domain.Session{}, ErrSessionInvalid
	}
	session := domain.Session{
		ID:    claims.ID,
		Email: claims.Email,
	}
	if claims.ExpiresAt != nil {
		session.ExpiresAt = claims.ExpiresAt.Time
	}
	if claims.IssuedAt != nil {
		session.CreatedAt = claims.IssuedAt.Time
	}
	return session, nil
}

// Revoke invalida la sesión del token (logout).
func (s *SessionService) Revoke(token string) error {
	claims, err := s.parseToken(token)
	if err != nil {
		return err
	}
	return s.store.Revoke(claims.ID)
}

func (s *SessionService) parseToken(tokenString string) (SessionClaims, error) {
	if len(s.secret) == 0 || strings.TrimSpace(tokenString) == "" {
		return SessionClaims{}, ErrSessionInvalid
	}
	var claims SessionClaims
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
	)
	_, err := parser.ParseWithClaims(tokenString, &claims, func(_ *jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return SessionClaims{}, ErrSessionExpired
		}
		return SessionClaims{}, ErrSessionInvalid
	}
	if claims.TokenType != sessionTokenType || claims.ID == "" || strings.TrimSpace(claims.Email) == "" {
		return SessionClaims{}, ErrSessionInvalid
	}
	if claims.Subject != claims.Email {
		return SessionClaims{}, ErrSessionInvalid
	}
	return claims, nil
}
