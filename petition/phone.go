// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package petition

import (
	"regexp"
	"strings"
)

// Korean mobile numbers: exactly 11 digits, 010 prefix.
var mobilePattern = regexp.MustCompile(`^010\d{8}$`)

// Names: 2-20 letters, Hangul or Latin, nothing else.
var namePattern = regexp.MustCompile(`^[A-Za-z가-힣]{2,20}$`)

// phoneDenyList holds implausible last-8-digit values seen in spam and
// placeholder submissions.
var phoneDenyList = map[string]bool{
	"11111111": true,
	"12345678": true,
	"00000000": true,
	"01012345": true,
	"12341234": true,
	"56785678": true,
	"01010101": true,
	"10101010": true,
}

// NormalizePhone strips separators so that "010-1234-5678" and
// "01012345678" dedupe against each other.
func NormalizePhone(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ValidName reports whether the name matches the letters-only pattern.
func ValidName(name string) bool {
	return namePattern.MatchString(name)
}

// ValidatePhone runs the shape and plausibility checks on a normalized
// phone number, returning the first failing check.
func ValidatePhone(phone string) *ValidationError {
	if !mobilePattern.MatchString(phone) {
		return &ValidationError{
			Code:    CodePhoneFormat,
			Message: "phone must be an 11-digit 010 mobile number",
		}
	}

	last8 := phone[len(phone)-8:]
	if phoneDenyList[last8] || longestDigitRun(last8) >= 7 {
		return &ValidationError{
			Code:    CodePhoneDenied,
			Message: "phone number is not plausible",
		}
	}

	last4 := phone[len(phone)-4:]
	if allSame(last4) {
		return &ValidationError{
			Code:    CodePhoneSuffix,
			Message: "phone suffix is a repeated digit",
		}
	}

	return nil
}

// MaskPhone renders a phone for public display: 010-****-5678.
func MaskPhone(phone string) string {
	if len(phone) != 11 {
		return "***"
	}
	return phone[:3] + "-****-" + phone[7:]
}

func longestDigitRun(s string) int {
	longest, run := 0, 0
	var prev byte
	for i := 0; i < len(s); i++ {
		if i > 0 && s[i] == prev {
			run++
		} else {
			run = 1
			prev = s[i]
		}
		if run > longest {
			longest = run
		}
	}
	return longest
}

func allSame(s string) bool {
	for i := 1; i < len(s); i++ {
		if s[i] != s[0] {
			return false
		}
	}
	return len(s) > 0
}
