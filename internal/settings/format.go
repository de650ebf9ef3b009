// ABOUTME: Phone normalization/validation and numeric clamping helpers
// ABOUTME: Used at the contact edit boundary and by gesture sensitivity handling

package settings

import (
	"math"
	"strings"
)

// Phone numbers must carry this many digits (excluding a leading +).
const (
	minPhoneDigits = 10
	maxPhoneDigits = 15
)

// NormalizePhone keeps a leading + and strips every other non-digit.
func NormalizePhone(input string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return ""
	}

	var b strings.Builder
	if strings.HasPrefix(trimmed, "+") {
		b.WriteByte('+')
	}
	for _, r := range trimmed {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// IsValidPhone reports whether phone normalizes to 10-15 digits.
func IsValidPhone(phone string) bool {
	digits := strings.TrimPrefix(NormalizePhone(phone), "+")
	return len(digits) >= minPhoneDigits && len(digits) <= maxPhoneDigits
}

// Clamp limits n to [lo, hi].
func Clamp(n, lo, hi float64) float64 {
	return max(lo, min(hi, n))
}

// ClampSensitivity limits a shake sensitivity to the supported range.
// NaN maps to the default sensitivity.
func ClampSensitivity(v float64) float64 {
	if math.IsNaN(v) {
		return DefaultShakeSensitivity
	}
	return Clamp(v, MinShakeSensitivity, MaxShakeSensitivity)
}
