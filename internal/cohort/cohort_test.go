package cohort

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeAcademicYear(t *testing.T) {
	cases := map[string]string{
		"2023-25":        "2023-2025",
		"2023/2025":      "2023-2025",
		"2023/25":        "2023-2025",
		" 2023 - 25 ":    "2023-2025",
		"2023\u201325":   "2023-2025",
		"2023\u221225":   "2023-2025",
		"1999-00":        "1999-1900",
		"2023-2025":      "2023-2025",
		"ay 2023-2024":   "AY2023-2024",
		"2023":           "2023",
		"":               "",
		"spring":         "SPRING",
		"23-25":          "23-25",
		"2023-25-26":     "2023-2025",
		"2023-2a":        "2023-2A",
		"2024 \u2014 26": "2024-2026",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeAcademicYear(in), "input %q", in)
	}
}

func TestNormalizeAcademicYear_Idempotent(t *testing.T) {
	inputs := []string{
		"2023-25", "2023/2025", " 2023 \u2013 25", "1999-00", "ay 2023-24", "23-25",
		"2023-25-26", "", "   ", "spring term", "2023--25", "-25", "2023-", "abcd-ef",
		"२०२३-२५", "2023\u2212\u221225", "x/y/z", "2023 / 2024 / 2025",
	}
	for _, in := range inputs {
		once := NormalizeAcademicYear(in)
		assert.Equal(t, once, NormalizeAcademicYear(once), "input %q", in)
	}
}

func TestNormalizeYear(t *testing.T) {
	cases := map[string]string{
		"01":      "1",
		"1":       "1",
		" 2 ":     "2",
		"Year 03": "3",
		"000":     "0",
		"1st":     "1",
		"I":       "I",
		"":        "",
		"  II  ":  "II",
		"1-2":     "12",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeYear(in), "input %q", in)
	}
}

func TestStartYear(t *testing.T) {
	assert.Equal(t, 2023, StartYear("2023-25"))
	assert.Equal(t, 2024, StartYear("2024/2025"))
	assert.Equal(t, 0, StartYear(""))
	assert.Equal(t, 0, StartYear("AY2023-24"))
}

func TestSameAcademicYear(t *testing.T) {
	assert.True(t, SameAcademicYear("2023-25", "2023/2025"))
	assert.True(t, SameAcademicYear("ay2023", "AY2023"))
	assert.False(t, SameAcademicYear("2023-25", "2024-25"))
}
