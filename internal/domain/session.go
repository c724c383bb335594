package domain

import "time"

// Session representa una sesión autenticada ligada a la cookie del cliente.
type Session struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}
