package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"echowipe/internal/domain"
)

// redisKV es el subconjunto de *redis.Client que usan los stores Redis.
type redisKV interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Exists(ctx context.Context, keys ...string) *redis.IntCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// redisPendingStore guarda cada alta pendiente como JSON con TTL, así Redis
// barre las entradas caducadas por sí mismo.
type redisPendingStore struct {
	client redisKV
	prefix string
	ttl    time.Duration
}

// NewRedisPendingStore usa ttl como expiración de clave; debe ser al menos
// la ventana de validez del OTP. Con ttl<=0 se deja un minuto de margen para
// que el ledger vea la entrada caducada y responda ErrOTPExpired.
func NewRedisPendingStore(client *redis.Client, ttl time.Duration) PendingStore {
	if client == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = otpTTL + time.Minute
	}
	return &redisPendingStore{
		client: client,
		prefix: "otp:pending:",
		ttl:    ttl,
	}
}

func (s *redisPendingStore) Put(ctx context.Context, pending domain.PendingRegistration) error {
	data, err := json.Marshal(pending)
	if err != nil {
		return fmt.Errorf("marshal pending: %w", err)
	}
	return s.client.Set(ctx, s.prefix+pending.Email, data, s.ttl).Err()
}

func (s *redisPendingStore) Get(ctx context.Context, email string) (domain.PendingRegistration, error) {
	data, err := s.client.Get(ctx, s.prefix+email).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.PendingRegistration{}, ErrPendingNotFound
	}
	if err != nil {
		return domain.PendingRegistration{}, err
	}
	var p domain.PendingRegistration
	if err := json.Unmarshal(data, &p); err != nil {
		return domain.PendingRegistration{}, fmt.Errorf("unmarshal pending: %w", err)
	}
	return p, nil
}

func (s *redisPendingStore) Delete(ctx context.Context, email string) error {
	return s.client.Del(ctx, s.prefix+email).Err()
}

// DeleteIssuedBefore no hace nada: el TTL de cada clave cumple esa función.
func (s *redisPendingStore) DeleteIssuedBefore(_ context.Context, _ time.Time) (int, error) {
	return 0, nil
}
