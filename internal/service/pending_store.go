package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"echowipe/internal/domain"
)

var ErrPendingNotFound = errors.New("pending registration not found")

// PendingStore persiste las altas pendientes del OTPLedger. La exclusión
// mutua de lectura-modificación-escritura la aporta el ledger.
type PendingStore interface {
	Put(ctx context.Context, pending domain.PendingRegistration) error
	Get(ctx context.Context, email string) (domain.PendingRegistration, error)
	Delete(ctx context.Context, email string) error
	DeleteIssuedBefore(ctx context.Context, cutoff time.Time) (int, error)
}

type memoryPendingStore struct {
	mu    sync.Mutex
	items map[string]domain.PendingRegistration
}

// NewMemoryPendingStore crea un store en memoria con vida de proceso.
func NewMemoryPendingStore() PendingStore {
	return &memoryPendingStore{
		items: make(map[string]domain.PendingRegistration),
	}
}

func (s *memoryPendingStore) Put(_ context.Context, pending domain.PendingRegistration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[pending.Email] = pending
	return nil
}

func (s *memoryPendingStore) Get(_ context.Context, email string) (domain.PendingRegistration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.items[email]
	if !ok {
		return domain.PendingRegistration{}, ErrPendingNotFound
	}
	return p, nil
}

func (s *memoryPendingStore) Delete(_ context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, email)
	return nil
}

func (s *memoryPendingStore) DeleteIssuedBefore(_ context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for email, p := range s.items {
		if p.IssuedAt.Before(cutoff) {
			delete(s.items, email)
			removed++
		}
	}
	return removed, nil
}
