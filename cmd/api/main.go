package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"echowipe/internal/config"
	"echowipe/internal/db"
	"echowipe/internal/detector"
	"echowipe/internal/email"
	apihttp "echowipe/internal/http"
	"echowipe/internal/repository"
	"echowipe/internal/service"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	var userRepo repository.UserRepository
	if cfg.DatabaseURL != "" {
		pool, err := db.NewPool(ctx, cfg)
		if err != nil {
			logger.Fatal("db connect", zap.Error(err))
		}
		defer pool.Close()
		if err := db.Ping(ctx, pool); err != nil {
			logger.Fatal("db ping", zap.Error(err))
		}
		if err := db.EnsureSchema(ctx, pool); err != nil {
			logger.Fatal("db schema", zap.Error(err))
		}
		userRepo = repository.NewPgUserRepository(pool)
		logger.Info("user store", zap.String("backend", "postgres"))
	} else {
		fileRepo, err := repository.NewFileUserRepository(cfg.UserDBPath)
		if err != nil {
			logger.Fatal("user store", zap.Error(err))
		}
		userRepo = fileRepo
		logger.Info("user store", zap.String("backend", "file"), zap.String("path", cfg.UserDBPath))
	}

	emailSender := email.NewDisabledSender("email sender not configured")
	switch {
	case cfg.SMTPHost != "":
		sender, err := email.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom, cfg.SMTPFromName, cfg.SMTPUseTLS)
		if err != nil {
			logger.Warn("smtp sender init failed", zap.Error(err))
		} else {
			emailSender = sender
		}
	case cfg.EmailAPIURL != "":
		sender, err := email.NewAPISender(cfg.EmailAPIURL, cfg.EmailAPIKey, cfg.SMTPFrom, cfg.SMTPFromName, nil)
		if err != nil {
			logger.Warn("email api sender init failed", zap.Error(err))
		} else {
			emailSender = sender
		}
	default:
		if cfg.SignupRequireOTP {
			logger.Warn("no email sender configured, signup will fail")
		}
	}

	var (
		pendingStore service.PendingStore
		sessionStore service.SessionStore
		otpLimiter   service.OTPRateLimiter
	)
	if cfg.OTPRateLimitMax > 0 {
		otpLimiter = service.NewOTPRateLimiter(service.OTPRateLimitWindow, cfg.OTPRateLimitMax)
	}
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer redisClient.Close()
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed, using in-memory stores", zap.Error(err))
		} else {
			pendingStore = service.NewRedisPendingStore(redisClient, 0)
			sessionStore = service.NewRedisSessionStore(redisClient)
			if cfg.OTPRateLimitMax > 0 {
				otpLimiter = service.NewRedisOTPRateLimiter(logger, redisClient, service.OTPRateLimitWindow, cfg.OTPRateLimitMax)
			}
		}
		cancel()
	}
	if sessionStore == nil {
		sessionStore = service.NewMemorySessionStore()
	}

	classifier, err := detector.NewFromConfig(cfg.DetectorConfig)
	if err != nil {
		logger.Fatal("detector init", zap.Error(err))
	}
	detectSvc, err := service.NewDetectionService(logger, classifier, cfg.UploadDir, cfg.DetectorTimeout())
	if err != nil {
		logger.Fatal("detection service init", zap.Error(err))
	}

	ledger := service.NewOTPLedger(logger, pendingStore, otpLimiter)
	go ledger.RunSweeper(ctx, cfg.OTPSweepInterval())

	sessionSvc := service.NewSessionService(cfg.SessionSecret, cfg.SessionTTL(), sessionStore)
	userSvc := service.NewUserService(logger, userRepo, ledger, emailSender, cfg.SignupRequireOTP)

	userHandler := apihttp.NewUserHandler(logger, userSvc, sessionSvc, cfg.CookieSecure)
	detectHandler := apihttp.NewDetectHandler(logger, detectSvc, cfg.MaxUploadBytes())
	router := apihttp.NewRouter(logger, sessionSvc, userHandler, detectHandler)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("starting server",
			zap.String("port", cfg.HTTPPort),
			zap.String("detector_mode", cfg.DetectorMode),
			zap.Bool("signup_require_otp", cfg.SignupRequireOTP),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
}
