package service

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"math/big"
	"strings"
)

const (
	otpMin = 100000
	otpMax = 999999
)

// generateOTP devuelve un código de 6 dígitos uniforme en [100000, 999999]
// y su hash con sal en formato "sal:hash".
func generateOTP() (string, string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(otpMax-otpMin+1))
	if err != nil {
		return "", "", err
	}
	code := fmt.Sprintf("%06d", n.Int64()+otpMin)

	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return "", "", err
	}
	saltStr := base64.StdEncoding.EncodeToString(salt)
	return code, saltStr + ":" + hashOTP(saltStr, code), nil
}

func hashOTP(saltStr, code string) string {
	sum := sha256.Sum256([]byte(saltStr + ":" + code))
	return base64.StdEncoding.EncodeToString(sum[:])
}

func verifyOTP(code, stored string) bool {
	saltStr, expectedHash, ok := strings.Cut(stored, ":")
	if !ok || saltStr == "" || expectedHash == "" {
		return false
	}
	hash := hashOTP(saltStr, strings.TrimSpace(code))
	return subtle.ConstantTimeCompare([]byte(hash), []byte(expectedHash)) == 1
}
