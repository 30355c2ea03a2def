package utils

import (
	"strings"
)

// NormalizePhoneID rewrites Indonesian phone numbers to the +62 form
// payment providers expect.
func NormalizePhoneID(phone string) string {
	phone = strings.TrimSpace(phone)
	phone = strings.ReplaceAll(phone, " ", "")
	phone = strings.ReplaceAll(phone, "-", "")

	switch {
	case strings.HasPrefix(phone, "+62"):
		return phone
	case strings.HasPrefix(phone, "62"):
		return "+" + phone
	case strings.HasPrefix(phone, "0"):
		return "+62" + phone[1:]
	default:
		return phone
	}
}
