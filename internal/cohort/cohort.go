// Package cohort normalizes the free-text academic year and year-level strings
// that identify a student cohort. Every component that matches or stores a
// cohort key goes through these functions; nothing else re-derives them.
package cohort

import (
	"strings"
)

// dashReplacer folds the unicode hyphen/dash family, the minus sign and the
// slash into a plain '-' and drops ASCII spaces.
var dashReplacer = strings.NewReplacer(
	"\u2010", "-",
	"\u2011", "-",
	"\u2012", "-",
	"\u2013", "-",
	"\u2014", "-",
	"\u2015", "-",
	"\u2212", "-",
	"/", "-",
	" ", "",
)

// NormalizeAcademicYear canonicalizes an academic year: "2023 / 25" and
// "2023/2025" both become "2023-2025". Input that does not look like a
// year range is returned trimmed and uppercased.
func NormalizeAcademicYear(s string) string {
	s = dashReplacer.Replace(strings.ToUpper(strings.TrimSpace(s)))
	if !strings.Contains(s, "-") {
		return s
	}
	parts := strings.Split(s, "-")
	if len(parts[0]) < 4 || !allDigits(parts[0][:4]) {
		return s
	}
	start := parts[0][:4]
	end := parts[1]
	if len(end) == 2 && allDigits(end) {
		return start + "-" + start[:2] + end
	}
	return s
}

// NormalizeYear reduces a year level to its integer form ("01" -> "1",
// "Year 2" -> "2"). Strings without digits are returned trimmed.
func NormalizeYear(s string) string {
	trimmed := strings.TrimSpace(s)
	var b strings.Builder
	for _, r := range trimmed {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if digits == "" {
		return trimmed
	}
	digits = strings.TrimLeft(digits, "0")
	if digits == "" {
		return "0"
	}
	return digits
}

// NormalizeKey is the match key for course codes and course names.
func NormalizeKey(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// StartYear returns the leading four-digit year of an academic year, or 0.
func StartYear(ay string) int {
	ay = NormalizeAcademicYear(ay)
	if len(ay) < 4 || !allDigits(ay[:4]) {
		return 0
	}
	n := 0
	for _, r := range ay[:4] {
		n = n*10 + int(r-'0')
	}
	return n
}

// SameAcademicYear reports whether two academic years denote the same cohort
// period regardless of dash style or casing.
func SameAcademicYear(a, b string) bool {
	return strings.EqualFold(NormalizeAcademicYear(a), NormalizeAcademicYear(b))
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
