// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package petition

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/danielhkuo/agora/models"
)

// Validation failure codes. Each maps to one check in the submission
// chain so the caller can show an actionable message.
const (
	CodeConsentRequired   = "consent_required"
	CodeAlreadySigned     = "already_signed"
	CodeNameRequired      = "name_required"
	CodePhoneRequired     = "phone_required"
	CodePhoneNotVerified  = "phone_not_verified"
	CodeNameFormat        = "name_format"
	CodePhoneFormat       = "phone_format"
	CodePhoneDenied       = "phone_denied"
	CodePhoneSuffix       = "phone_suffix"
	CodeAddressUnverified = "address_unverified"
	CodeTypeInvalid       = "type_invalid"
	CodeSNSInvalid        = "sns_invalid"
	CodeDuplicatePhone    = "duplicate_phone"
	CodeDuplicateSigner   = "duplicate_signer"
	CodeRateLimited       = "rate_limited"
)

// ValidationError is a recoverable submission failure: the user corrects
// input (or waits out the daily reset) and retries. No state changes.
type ValidationError struct {
	Code    string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Engine admits a petition signature only when the full validation,
// dedup, and rate-limit chain passes. Checks run in a fixed order and
// short-circuit on the first failure.
type Engine struct {
	db       *sql.DB
	otp      OTPService
	dailyCap int
}

func NewEngine(db *sql.DB, otp OTPService, dailyCap int) *Engine {
	return &Engine{db: db, otp: otp, dailyCap: dailyCap}
}

// PrepareOTP runs the cheap checks before an OTP send so a code is never
// wasted on a phone that could not sign anyway: shape, deny-list, phone
// dedup, and the daily cap.
func (e *Engine) PrepareOTP(rawPhone string, now time.Time) (string, error) {
	phone := NormalizePhone(rawPhone)
	if phone == "" {
		return "", &ValidationError{Code: CodePhoneRequired, Message: "phone is required"}
	}
	if verr := ValidatePhone(phone); verr != nil {
		return "", verr
	}

	used, err := e.phoneUsed(phone)
	if err != nil {
		return "", err
	}
	if used {
		return "", &ValidationError{Code: CodeDuplicatePhone, Message: "this phone has already signed"}
	}

	reached, _, err := e.capReached(now)
	if err != nil {
		return "", err
	}
	if reached {
		return "", &ValidationError{Code: CodeRateLimited, Message: "daily signature limit reached, try again tomorrow"}
	}

	return e.otp.SendCode(phone, now)
}

// Submit runs the full admission chain and persists the signature.
// The order of checks is load-bearing: each failure code corresponds to
// one numbered rule, and later checks assume earlier ones passed.
func (e *Engine) Submit(req models.CreateSignatureRequest, ident models.Identity, now time.Time) (models.Signature, error) {
	// 1. Required consents.
	if !req.ConsentPrivacy || !req.ConsentTerms {
		return models.Signature{}, &ValidationError{Code: CodeConsentRequired, Message: "all consents are required"}
	}

	// 2. An authenticated user signs at most once.
	if !ident.Anonymous() {
		signed, err := e.userSigned(ident.UID)
		if err != nil {
			return models.Signature{}, err
		}
		if signed {
			return models.Signature{}, &ValidationError{Code: CodeAlreadySigned, Message: "you have already signed"}
		}
	}

	// 3. Name and phone present.
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return models.Signature{}, &ValidationError{Code: CodeNameRequired, Message: "name is required"}
	}
	phone := NormalizePhone(req.Phone)
	if phone == "" {
		return models.Signature{}, &ValidationError{Code: CodePhoneRequired, Message: "phone is required"}
	}

	// 4. Phone verified via OTP for this submission.
	if err := e.otp.Confirm(req.ConfirmationID, phone, req.Code, now); err != nil {
		return models.Signature{}, &ValidationError{Code: CodePhoneNotVerified, Message: "phone has not been verified"}
	}

	// 5. Name shape.
	if !ValidName(name) {
		return models.Signature{}, &ValidationError{Code: CodeNameFormat, Message: "name must be 2-20 letters"}
	}

	// 6-8. Phone shape, deny-list, repeated suffix.
	if verr := ValidatePhone(phone); verr != nil {
		return models.Signature{}, verr
	}

	// 9. A free-typed address is rejected; only the lookup widget sets
	// the verified flag.
	if req.Address != "" && !req.AddressVerified {
		return models.Signature{}, &ValidationError{Code: CodeAddressUnverified, Message: "address must come from the address lookup"}
	}

	signerType := req.Type
	if signerType == "" {
		signerType = models.SignerIndividual
	}
	if signerType != models.SignerIndividual && signerType != models.SignerOrganization {
		return models.Signature{}, &ValidationError{Code: CodeTypeInvalid, Message: "type must be individual or organization"}
	}
	for _, sns := range req.SNS {
		if sns != "telegram" && sns != "kakao" {
			return models.Signature{}, &ValidationError{Code: CodeSNSInvalid, Message: "sns must be telegram or kakao"}
		}
	}

	// 10. Phone globally unique.
	used, err := e.phoneUsed(phone)
	if err != nil {
		return models.Signature{}, err
	}
	if used {
		return models.Signature{}, &ValidationError{Code: CodeDuplicatePhone, Message: "this phone has already signed"}
	}

	// 11. (name, phone) unique, independent of the phone-only rule.
	pairUsed, err := e.signerUsed(name, phone)
	if err != nil {
		return models.Signature{}, err
	}
	if pairUsed {
		return models.Signature{}, &ValidationError{Code: CodeDuplicateSigner, Message: "this name and phone have already signed"}
	}

	// The cap was checked before the OTP send; check again at admission
	// so a held confirmation handle cannot slip past the limit.
	reached, _, err := e.capReached(now)
	if err != nil {
		return models.Signature{}, err
	}
	if reached {
		return models.Signature{}, &ValidationError{Code: CodeRateLimited, Message: "daily signature limit reached, try again tomorrow"}
	}

	sig := models.Signature{
		ID:          uuid.NewString(),
		Name:        name,
		Type:        signerType,
		Address:     req.Address, // verification flag is stripped: only the address itself persists
		Talent:      req.Talent,
		Phone:       phone,
		SNS:         req.SNS,
		Timestamp:   now,
		UserID:      ident.UID,
		LoginMethod: ident.Provider,
		UserEmail:   ident.Email,
	}

	_, err = e.db.Exec(`
		INSERT INTO signature (id, name, type, address, talent, phone, sns, created_at, user_id, login_method, user_email)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, sig.ID, sig.Name, sig.Type, sig.Address, sig.Talent, sig.Phone,
		strings.Join(sig.SNS, ","), sig.Timestamp, sig.UserID, sig.LoginMethod, sig.UserEmail)
	if err != nil {
		return models.Signature{}, fmt.Errorf("failed to insert signature: %w", err)
	}

	return sig, nil
}

// Count returns the total number of signatures.
func (e *Engine) Count() (int, error) {
	var count int
	if err := e.db.QueryRow(`SELECT COUNT(*) FROM signature`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count signatures: %w", err)
	}
	return count, nil
}

// TodayCount counts signatures created since local midnight; the daily
// counter is always derived this way, never stored.
func (e *Engine) TodayCount(now time.Time) (int, error) {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	var count int
	err := e.db.QueryRow(`
		SELECT COUNT(*) FROM signature WHERE created_at >= $1
	`, midnight).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count today's signatures: %w", err)
	}
	return count, nil
}

// CapReached reports the daily-cap state along with today's count.
func (e *Engine) CapReached(now time.Time) (bool, int, error) {
	return e.capReached(now)
}

func (e *Engine) capReached(now time.Time) (bool, int, error) {
	today, err := e.TodayCount(now)
	if err != nil {
		return false, 0, err
	}
	return today >= e.dailyCap, today, nil
}

// List returns the most recent signatures in display form, newest first.
func (e *Engine) List(limit int) ([]models.PublicSignature, error) {
	rows, err := e.db.Query(`
		SELECT name, type, address, phone, created_at
		FROM signature
		ORDER BY created_at DESC, id
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query signatures: %w", err)
	}
	defer rows.Close()

	sigs := []models.PublicSignature{}
	for rows.Next() {
		var s models.PublicSignature
		var address sql.NullString
		var phone string
		if err := rows.Scan(&s.Name, &s.Type, &address, &phone, &s.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan signature: %w", err)
		}
		s.Address = address.String
		s.MaskedPhone = MaskPhone(phone)
		sigs = append(sigs, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read signatures: %w", err)
	}
	return sigs, nil
}

func (e *Engine) phoneUsed(phone string) (bool, error) {
	var exists bool
	err := e.db.QueryRow(`
		SELECT EXISTS(SELECT 1 FROM signature WHERE phone = $1)
	`, phone).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check phone: %w", err)
	}
	return exists, nil
}

func (e *Engine) signerUsed(name, phone string) (bool, error) {
	var exists bool
	err := e.db.QueryRow(`
		SELECT EXISTS(SELECT 1 FROM signature WHERE name = $1 AND phone = $2)
	`, name, phone).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check signer: %w", err)
	}
	return exists, nil
}

func (e *Engine) userSigned(userID string) (bool, error) {
	var exists bool
	err := e.db.QueryRow(`
		SELECT EXISTS(SELECT 1 FROM signature WHERE user_id = $1)
	`, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check user signature: %w", err)
	}
	return exists, nil
}
