package middleware

import (
	"errors"
	"unicode/utf8"
)

// ValidateMessageContent validates inbound message text.
func ValidateMessageContent(content string) error {
	if len(content) == 0 {
		return errors.New("message text cannot be empty")
	}
	if len(content) > 100000 { // ~100KB limit
		return errors.New("message text exceeds maximum length")
	}
	if !utf8.ValidString(content) {
		return errors.New("message text must be valid UTF-8")
	}
	return nil
}

// ValidateCustomerID validates a platform customer ID.
func ValidateCustomerID(id string) error {
	if len(id) == 0 {
		return errors.New("customer ID cannot be empty")
	}
	if len(id) > 64 {
		return errors.New("customer ID exceeds maximum length")
	}
	return nil
}

// ValidateTenantID validates a tenant ID.
func ValidateTenantID(id string) error {
	if len(id) == 0 {
		return errors.New("tenant ID cannot be empty")
	}
	if len(id) > 64 {
		return errors.New("tenant ID exceeds maximum length")
	}
	return nil
}

// ValidatePhone validates an E.164-ish phone number for voice followups.
func ValidatePhone(phone string) error {
	if len(phone) < 7 || len(phone) > 16 {
		return errors.New("phone number length out of range")
	}
	start := 0
	if phone[0] == '+' {
		start = 1
	}
	for i := start; i < len(phone); i++ {
		if phone[i] < '0' || phone[i] > '9' {
			return errors.New("phone number must contain only digits")
		}
	}
	return nil
}
