package helpers

import (
	"errors"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// GetSplitPart splits target by separate and returns the part at index
func GetSplitPart(target string, separate string, index int) (string, error) {
	parts := strings.Split(target, separate)
	if index >= len(parts) {
		return "", errors.New("index out of range")
	}
	return parts[index], nil
}

// CleanText trims and collapses internal whitespace
func CleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// NormalizeLabel turns a specs-table label into a lookup key.
// Folding uses Turkish rules so "İlan No" and "ilan no" meet.
func NormalizeLabel(s string) string {
	s = strings.TrimRight(CleanText(s), ":")
	return cases.Lower(language.Turkish).String(strings.TrimSpace(s))
}

// Truncate caps s at max bytes without splitting a UTF-8 sequence
func Truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// TrailingDigits returns the last run of digits in s, or "" if there is none
func TrailingDigits(s string) string {
	end := len(s)
	for end > 0 && (s[end-1] < '0' || s[end-1] > '9') {
		end--
	}
	start := end
	for start > 0 && s[start-1] >= '0' && s[start-1] <= '9' {
		start--
	}
	return s[start:end]
}
