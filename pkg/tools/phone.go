package tools

import (
	"fmt"
	"regexp"
)

var nonDigitPattern = regexp.MustCompile(`\D`)

// NormalizePhone strips spaces, dashes, parentheses and the leading + from a
// phone number, keeping only the digits WhatsApp expects in its chat URLs.
func NormalizePhone(raw string) (string, error) {
	digits := nonDigitPattern.ReplaceAllString(raw, "")
	if digits == "" {
		return "", fmt.Errorf("phone number %q must include digits and a country code", raw)
	}
	return digits, nil
}
