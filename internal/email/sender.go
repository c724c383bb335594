package email

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Sender define la interfaz para envio de correos de verificacion.
type Sender interface {
	SendVerificationOTP(ctx context.Context, toEmail string, code string, expiresAt time.Time) error
}

const verificationSubject = "Echowipe - Email Verification Code"

func verificationBody(code string, expiresAt time.Time) string {
	return fmt.Sprintf(
		"Hello,\n\nYour Echowipe verification code is: %s\n\n"+
			"This code is valid for 10 minutes (until %s UTC).\n"+
			"Do not share it with anyone.\n\nRegards,\nEchowipe Team\n",
		code,
		expiresAt.UTC().Format("15:04"),
	)
}

type disabledSender struct {
	reason string
}

func NewDisabledSender(reason string) Sender {
	return &disabledSender{reason: reason}
}

func (s *disabledSender) SendVerificationOTP(_ context.Context, _ string, _ string, _ time.Time) error {
	if s.reason == "" {
		return errors.New("email sender disabled")
	}
	return errors.New(s.reason)
}
