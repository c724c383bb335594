package service

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func TestRedisOTPRateLimiter_Window(t *testing.T) {
	mr, client := newMiniredisClient(t)

	l := NewRedisOTPRateLimiter(zap.NewNop(), client, time.Minute, 2)
	if !l.Allow("user@example.com") || !l.Allow(" USER@example.com ") {
		t.Fatalf("expected first two requests allowed")
	}
	if l.Allow("user@example.com") {
		t.Fatalf("expected third request denied")
	}
	if !l.Allow("other@example.com") {
		t.Fatalf("expected other email allowed")
	}
	if ttl := mr.TTL("echowipe:otp:issue:user@example.com"); ttl <= 0 || ttl > time.Minute {
		t.Fatalf("expected window ttl on counter key, got %v", ttl)
	}

	mr.FastForward(2 * time.Minute)
	if !l.Allow("user@example.com") {
		t.Fatalf("expected allow after window expiry")
	}
}

func TestRedisOTPRateLimiter_DefaultWindowIsOTPValidity(t *testing.T) {
	mr, client := newMiniredisClient(t)

	l := NewRedisOTPRateLimiter(nil, client, 0, 1)
	if !l.Allow("user@example.com") {
		t.Fatalf("expected first request allowed")
	}
	if ttl := mr.TTL("echowipe:otp:issue:user@example.com"); ttl != OTPRateLimitWindow {
		t.Fatalf("expected ttl %v, got %v", OTPRateLimitWindow, ttl)
	}
}

func TestRedisOTPRateLimiter_EmptyEmailRejected(t *testing.T) {
	_, client := newMiniredisClient(t)

	l := NewRedisOTPRateLimiter(zap.NewNop(), client, time.Minute, 3)
	if l.Allow("   ") {
		t.Fatalf("expected empty email to be rejected")
	}
}

func TestRedisOTPRateLimiter_FailOpen(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer client.Close()
	mr.Close()

	l := NewRedisOTPRateLimiter(zap.NewNop(), client, time.Minute, 1)
	if !l.Allow("user@example.com") || !l.Allow("user@example.com") {
		t.Fatalf("expected fail-open when redis is unavailable")
	}
}

func TestNewRedisOTPRateLimiter_NilClient(t *testing.T) {
	if l := NewRedisOTPRateLimiter(zap.NewNop(), nil, time.Minute, 1); l != nil {
		t.Fatalf("expected nil limiter without client")
	}
}

func TestOTPRateLimiter_Memory(t *testing.T) {
	l := NewOTPRateLimiter(time.Minute, 1)
	if !l.Allow("a@example.com") {
		t.Fatalf("expected first request allowed")
	}
	if l.Allow(" A@example.com") {
		t.Fatalf("expected second request denied")
	}
	if !l.Allow("b@example.com") {
		t.Fatalf("expected other key allowed")
	}
}
