package infra

import (
	"strings"

	"github.com/ttacon/libphonenumber"
)

// NormalizePhone formats raw as E.164 using region as the default country.
// Input that does not parse as a valid number is returned trimmed.
func NormalizePhone(raw, region string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	p, err := libphonenumber.Parse(raw, region)
	if err != nil || !libphonenumber.IsValidNumber(p) {
		return raw
	}
	return libphonenumber.Format(p, libphonenumber.E164)
}
