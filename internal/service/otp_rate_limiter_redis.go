package service

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// otpIssueScript incrementa el contador de emisiones del email y arranca la
// ventana en la primera. Devuelve {emisiones, ms restantes de ventana}.
var otpIssueScript = redis.NewScript(`
local n = redis.call("INCR", KEYS[1])
if n == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return {n, redis.call("PTTL", KEYS[1])}
`)

const redisOTPLimiterTimeout = 500 * time.Millisecond

// redisOTPRateLimiter comparte el límite de emisión de OTP entre instancias.
// La ventana es fija y por defecto coincide con la validez del código. Si
// Redis falla, deja pasar: perder el límite es preferible a bloquear altas.
type redisOTPRateLimiter struct {
	client redis.Scripter
	logger *zap.Logger
	window time.Duration
	max    int
	prefix string
}

func NewRedisOTPRateLimiter(logger *zap.Logger, client redis.Scripter, window time.Duration, max int) OTPRateLimiter {
	if client == nil {
		return nil
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if window <= 0 {
		window = OTPRateLimitWindow
	}
	if max <= 0 {
		max = 1
	}
	return &redisOTPRateLimiter{
		client: client,
		logger: logger,
		window: window,
		max:    max,
		prefix: "echowipe:otp:issue:",
	}
}

func (l *redisOTPRateLimiter) Allow(email string) bool {
	email = normalizeEmail(email)
	if email == "" {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), redisOTPLimiterTimeout)
	defer cancel()

	res, err := otpIssueScript.Run(ctx, l.client, []string{l.prefix + email}, l.window.Milliseconds()).Int64Slice()
	if err != nil || len(res) != 2 {
		l.logger.Warn("otp rate limiter unavailable, allowing", zap.Error(err), zap.String("email", email))
		return true
	}
	if res[0] > int64(l.max) {
		l.logger.Info("otp issue rate limited",
			zap.String("email", email),
			zap.Int64("issued", res[0]),
			zap.Duration("retry_in", time.Duration(res[1])*time.Millisecond),
		)
		return false
	}
	return true
}
