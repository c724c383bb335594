package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"echowipe/internal/domain"
)

const otpTTL = 10 * time.Minute

var (
	ErrOTPNotRequested  = errors.New("otp not requested")
	ErrOTPExpired       = errors.New("otp expired")
	ErrOTPInvalid       = errors.New("otp invalid")
	ErrEmailSendFailure = errors.New("email send failed")
	ErrRateLimited      = errors.New("rate limited")
)

// DeliverFunc entrega el código al destinatario (normalmente email.Sender).
type DeliverFunc func(ctx context.Context, toEmail, code string, expiresAt time.Time) error

// OTPLedger gobierna la máquina de estados del alta:
// NONE -> PENDING -> EXPIRED, o PENDING -> CONFIRMED (entrada eliminada).
// Cada secuencia leer-modificar-escribir sobre el store va bajo mu.
type OTPLedger struct {
	mu      sync.Mutex
	store   PendingStore
	limiter OTPRateLimiter
	logger  *zap.Logger
	ttl     time.Duration
	now     func() time.Time
}

// NewOTPLedger crea el ledger. limiter puede ser nil (sin límite de emisión).
func NewOTPLedger(logger *zap.Logger, store PendingStore, limiter OTPRateLimiter) *OTPLedger {
	if logger == nil {
		logger = zap.NewNop()
	}
	if store == nil {
		store = NewMemoryPendingStore()
	}
	return &OTPLedger{
		store:   store,
		limiter: limiter,
		logger:  logger,
		ttl:     otpTTL,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// TTL devuelve la ventana de validez de un código.
func (l *OTPLedger) TTL() time.Duration {
	return l.ttl
}

// Issue genera un código, lo entrega y solo si la entrega tuvo éxito
// registra el alta pendiente, sobrescribiendo cualquier anterior.
func (l *OTPLedger) Issue(ctx context.Context, email, firstName, lastName, passwordHash string, deliver DeliverFunc) (time.Time, error) {
	email = normalizeEmail(email)
	if email == "" {
		return time.Time{}, ErrInvalidEmail
	}
	if deliver == nil {
		return time.Time{}, ErrEmailSendFailure
	}
	if l.limiter != nil && !l.limiter.Allow(email) {
		return time.Time{}, ErrRateLimited
	}

	code, hash, err := generateOTP()
	if err != nil {
		return time.Time{}, fmt.Errorf("generate otp: %w", err)
	}
	issuedAt := l.now()
	expiresAt := issuedAt.Add(l.ttl)

	if err := deliver(ctx, email, code, expiresAt); err != nil {
		l.logger.Warn("send verification otp failed", zap.Error(err), zap.String("email", email))
		return time.Time{}, ErrEmailSendFailure
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	err = l.store.Put(ctx, domain.PendingRegistration{
		Email:        email,
		CodeHash:     hash,
		FirstName:    firstName,
		LastName:     lastName,
		PasswordHash: passwordHash,
		IssuedAt:     issuedAt,
	})
	if err != nil {
		return time.Time{}, fmt.Errorf("store pending registration: %w", err)
	}
	return expiresAt, nil
}

// Verify consume el alta pendiente si el código coincide y no caducó.
// Un código caducado borra la entrada; uno incorrecto la deja intacta.
func (l *OTPLedger) Verify(ctx context.Context, email, code string) (domain.PendingRegistration, error) {
	email = normalizeEmail(email)

	l.mu.Lock()
	defer l.mu.Unlock()

	pending, err := l.store.Get(ctx, email)
	if errors.Is(err, ErrPendingNotFound) {
		return domain.PendingRegistration{}, ErrOTPNotRequested
	}
	if err != nil {
		return domain.PendingRegistration{}, err
	}

	if l.now().Sub(pending.IssuedAt) > l.ttl {
		if err := l.store.Delete(ctx, email); err != nil {
			l.logger.Warn("delete expired otp failed", zap.Error(err), zap.String("email", email))
		}
		return domain.PendingRegistration{}, ErrOTPExpired
	}

	if !verifyOTP(code, pending.CodeHash) {
		return domain.PendingRegistration{}, ErrOTPInvalid
	}

	if err := l.store.Delete(ctx, email); err != nil {
		return domain.PendingRegistration{}, fmt.Errorf("consume pending registration: %w", err)
	}
	return pending, nil
}

// Restore devuelve al ledger un alta consumida por Verify cuando no pudo
// persistirse la cuenta. Si entretanto se emitió un código nuevo, gana ese.
func (l *OTPLedger) Restore(ctx context.Context, pending domain.PendingRegistration) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	_, err := l.store.Get(ctx, pending.Email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrPendingNotFound) {
		return err
	}
	return l.store.Put(ctx, pending)
}

// Sweep elimina las altas cuya ventana de validez ya pasó.
func (l *OTPLedger) Sweep(ctx context.Context) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.store.DeleteIssuedBefore(ctx, l.now().Add(-l.ttl))
}

// RunSweeper ejecuta Sweep cada interval hasta que ctx se cancele.
func (l *OTPLedger) RunSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := l.Sweep(ctx)
			if err != nil {
				l.logger.Warn("otp sweep failed", zap.Error(err))
				continue
			}
			if n > 0 {
				l.logger.Info("otp sweep", zap.Int("removed", n))
			}
		}
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
