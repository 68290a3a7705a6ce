// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package petition

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrCodeMismatch = errors.New("verification code does not match")
	ErrCodeExpired  = errors.New("verification code has expired")
)

// OTPService is the phone-verification capability: issue a code for a
// phone number, later confirm a 6-digit code against the returned
// confirmation handle. SMS delivery itself is external; implementations
// only decide how codes are derived and transported.
type OTPService interface {
	SendCode(phone string, now time.Time) (confirmationID string, err error)
	Confirm(confirmationID, phone, code string, now time.Time) error
}

// hmacOTP derives codes from an HMAC over (handle, phone), so no
// per-request state is stored and a code issued for one phone cannot
// confirm another. Codes are logged instead of sent; wiring a real SMS
// gateway replaces this implementation behind the same interface.
type hmacOTP struct {
	secret string
	ttl    time.Duration
}

// DefaultOTPTTL is how long an issued code stays confirmable.
const DefaultOTPTTL = 5 * time.Minute

func NewHMACOTP(secret string) OTPService {
	return &hmacOTP{secret: secret, ttl: DefaultOTPTTL}
}

func (s *hmacOTP) SendCode(phone string, now time.Time) (string, error) {
	confirmationID := fmt.Sprintf("%d.%s", now.Unix(), uuid.NewString())
	code := s.deriveCode(confirmationID, phone)

	slog.Info("otp code issued", "phone", MaskPhone(phone), "confirmation_id", confirmationID, "code", code)
	return confirmationID, nil
}

func (s *hmacOTP) Confirm(confirmationID, phone, code string, now time.Time) error {
	issuedStr, _, ok := strings.Cut(confirmationID, ".")
	if !ok {
		return ErrCodeMismatch
	}
	issued, err := strconv.ParseInt(issuedStr, 10, 64)
	if err != nil {
		return ErrCodeMismatch
	}
	if now.Sub(time.Unix(issued, 0)) > s.ttl {
		return ErrCodeExpired
	}

	expected := s.deriveCode(confirmationID, phone)
	if !hmac.Equal([]byte(code), []byte(expected)) {
		return ErrCodeMismatch
	}
	return nil
}

func (s *hmacOTP) deriveCode(confirmationID, phone string) string {
	h := hmac.New(sha256.New, []byte(s.secret))
	h.Write([]byte(confirmationID))
	h.Write([]byte{0})
	h.Write([]byte(phone))
	sum := h.Sum(nil)
	n := binary.BigEndian.Uint32(sum[:4]) % 1000000
	return fmt.Sprintf("%06d", n)
}
