package utils

import (
	"errors"
	"regexp"
	"strings"
)

var (
	// Indian mobile numbers: ten digits starting with 6-9
	mobileRegex = regexp.MustCompile(`^[6-9][0-9]{9}$`)
	// Regex to remove non-digit characters
	digitsOnlyRegex = regexp.MustCompile(`[^0-9]`)
)

// ErrInvalidPhone is returned for numbers that are not Indian mobile numbers
var ErrInvalidPhone = errors.New("invalid mobile number format")

// NormalizePhoneNumber strips formatting and the +91 / 0 trunk prefixes and
// returns the bare ten-digit mobile number
func NormalizePhoneNumber(phone string) (string, error) {
	if strings.TrimSpace(phone) == "" {
		return "", errors.New("phone number cannot be empty")
	}

	normalized := digitsOnlyRegex.ReplaceAllString(phone, "")

	switch {
	case len(normalized) == 12 && strings.HasPrefix(normalized, "91"):
		normalized = normalized[2:]
	case len(normalized) == 11 && strings.HasPrefix(normalized, "0"):
		normalized = normalized[1:]
	}

	if !mobileRegex.MatchString(normalized) {
		return "", ErrInvalidPhone
	}

	return normalized, nil
}

// FormatPhoneNumberForDisplay formats a normalized number as "+91 98765 43210"
func FormatPhoneNumberForDisplay(phone string) string {
	if len(phone) != 10 {
		return phone
	}
	return "+91 " + phone[:5] + " " + phone[5:]
}
