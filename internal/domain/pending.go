package domain

import "time"

// PendingRegistration es un alta que espera confirmación por OTP.
// Nunca guarda el código en claro, solo su hash con sal.
type PendingRegistration struct {
	Email        string    `json:"email"`
	CodeHash     string    `json:"code_hash"`
	FirstName    string    `json:"first"`
	LastName     string    `json:"last"`
	PasswordHash string    `json:"password"`
	IssuedAt     time.Time `json:"issued_at"`
}

// ExpiresAt devuelve el instante en que el código deja de ser válido.
func (p PendingRegistration) ExpiresAt(ttl time.Duration) time.Time {
	return p.IssuedAt.Add(ttl)
}
