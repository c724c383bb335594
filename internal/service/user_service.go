package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"echowipe/internal/domain"
	"echowipe/internal/email"
	"echowipe/internal/repository"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidEmail       = errors.New("invalid email")
	ErrMissingFields      = errors.New("all fields are required")
	ErrPasswordMismatch   = errors.New("passwords do not match")
	ErrPasswordTooLong    = errors.New("password too long")
	ErrUserExists         = repository.ErrUserExists
)

// bcrypt ignora lo que pase de 72 bytes; se rechaza en vez de truncar.
const maxPasswordBytes = 72

// dummyPasswordHash iguala el tiempo de respuesta de un email desconocido al
// de una contraseña incorrecta.
var dummyPasswordHash = sync.OnceValue(func() []byte {
	hash, err := bcrypt.GenerateFromPassword([]byte("echowipe-unknown-account"), bcrypt.DefaultCost)
	if err != nil {
		panic(err)
	}
	return hash
})

// UserService coordina el alta con OTP y el login por contraseña.
type UserService struct {
	logger      *zap.Logger
	users       repository.UserRepository
	ledger      *OTPLedger
	emailSender email.Sender
	requireOTP  bool
	now         func() time.Time
}

func NewUserService(logger *zap.Logger, users repository.UserRepository, ledger *OTPLedger, emailSender email.Sender, requireOTP bool) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ledger == nil {
		ledger = NewOTPLedger(logger, nil, nil)
	}
	return &UserService{
		logger:      logger,
		users:       users,
		ledger:      ledger,
		emailSender: emailSender,
		requireOTP:  requireOTP,
		now:         time.Now,
	}
}

type SignUpInput struct {
	FirstName       string
	LastName        string
	Email           string
	Password        string
	ConfirmPassword string
	Agree           bool
}

// SignUpResult indica si se envió un OTP o si la cuenta quedó creada
// directamente (alta sin OTP).
type SignUpResult struct {
	OTPSent   bool
	Email     string
	ExpiresAt time.Time
	User      domain.User
}

// SignUp valida el formulario y emite el OTP. Con requireOTP=false crea la
// cuenta en el acto.
func (s *UserService) SignUp(ctx context.Context, input SignUpInput) (SignUpResult, error) {
	if s.users == nil {
		return SignUpResult{}, errors.New("user service not configured")
	}

	first := strings.TrimSpace(input.FirstName)
	last := strings.TrimSpace(input.LastName)
	emailAddr := normalizeEmail(input.Email)
	if first == "" || last == "" || emailAddr == "" || input.Password == "" || input.ConfirmPassword == "" || !input.Agree {
		return SignUpResult{}, ErrMissingFields
	}
	if input.Password != input.ConfirmPassword {
		return SignUpResult{}, ErrPasswordMismatch
	}
	if len(input.Password) > maxPasswordBytes {
		return SignUpResult{}, ErrPasswordTooLong
	}
	if !isValidEmail(emailAddr) {
		return SignUpResult{}, ErrInvalidEmail
	}

	_, err := s.users.GetByEmail(ctx, emailAddr)
	if err == nil {
		return SignUpResult{}, ErrUserExists
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return SignUpResult{}, err
	}

	hashBytes, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return SignUpResult{}, fmt.Errorf("hash password: %w", err)
	}
	passwordHash := string(hashBytes)

	if !s.requireOTP {
		user, err := s.createUser(ctx, emailAddr, first, last, passwordHash)
		if err != nil {
			return SignUpResult{}, err
		}
		return SignUpResult{Email: emailAddr, User: user}, nil
	}

	if s.emailSender == nil {
		return SignUpResult{}, ErrEmailSendFailure
	}
	expiresAt, err := s.ledger.Issue(ctx, emailAddr, first, last, passwordHash, s.emailSender.SendVerificationOTP)
	if err != nil {
		return SignUpResult{}, err
	}
	return SignUpResult{OTPSent: true, Email: emailAddr, ExpiresAt: expiresAt}, nil
}

// ConfirmSignUp verifica el código y promueve el alta pendiente a cuenta.
// Si el store de cuentas falla, el alta vuelve al ledger y el mismo código
// sigue sirviendo.
func (s *UserService) ConfirmSignUp(ctx context.Context, emailAddr, code string) (domain.User, error) {
	if s.users == nil {
		return domain.User{}, errors.New("user service not configured")
	}

	pending, err := s.ledger.Verify(ctx, emailAddr, code)
	if err != nil {
		return domain.User{}, err
	}
	user, err := s.createUser(ctx, pending.Email, pending.FirstName, pending.LastName, pending.PasswordHash)
	if err != nil && !errors.Is(err, ErrUserExists) {
		if rerr := s.ledger.Restore(ctx, pending); rerr != nil {
			s.logger.Error("restore pending registration failed", zap.Error(rerr), zap.String("email", pending.Email))
		}
		return domain.User{}, err
	}
	return user, err
}

// Authenticate compara la contraseña tal cual llega contra el hash bcrypt.
// Cualquier fallo, exista o no la cuenta, es ErrInvalidCredentials.
func (s *UserService) Authenticate(ctx context.Context, emailAddr, password string) (domain.User, error) {
	if s.users == nil {
		return domain.User{}, errors.New("user service not configured")
	}

	emailAddr = normalizeEmail(emailAddr)
	if emailAddr == "" || password == "" {
		return domain.User{}, ErrInvalidCredentials
	}
	user, err := s.users.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			_ = bcrypt.CompareHashAndPassword(dummyPasswordHash(), []byte(password))
			return domain.User{}, ErrInvalidCredentials
		}
		return domain.User{}, err
	}
	if user.PasswordHash == "" {
		_ = bcrypt.CompareHashAndPassword(dummyPasswordHash(), []byte(password))
		return domain.User{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return domain.User{}, ErrInvalidCredentials
	}
	return user, nil
}

func (s *UserService) createUser(ctx context.Context, emailAddr, first, last, passwordHash string) (domain.User, error) {
	user := domain.User{
		Email:        emailAddr,
		FirstName:    first,
		LastName:     last,
		PasswordHash: passwordHash,
		CreatedAt:    s.now().Truncate(time.Minute),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return domain.User{}, err
	}
	s.logger.Info("user created", zap.String("email", emailAddr))
	return user, nil
}

func isValidEmail(emailAddr string) bool {
	addr, err := mail.ParseAddress(emailAddr)
	return err == nil && addr.Address == emailAddr
}
