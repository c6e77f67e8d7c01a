package utils

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// NormalizeItemName upper-cases, strips bracket noise and collapses
// whitespace so the same menu item matches across report exports.
func NormalizeItemName(value string) string {
	text := strings.ToUpper(value)
	for _, token := range []string{"[", "]", "..."} {
		text = strings.ReplaceAll(text, token, "")
	}
	text = strings.Join(strings.Fields(text), " ")
	return strings.Trim(text, " .,")
}

// NormalizeBranchName lower-cases and collapses whitespace for branch
// comparisons.
func NormalizeBranchName(value string) string {
	return strings.Join(strings.Fields(strings.ToLower(value)), " ")
}

// returns slice removing duplicate elements
func UniqueSlice[T comparable](slice []T) []T {
	inResult := make(map[T]bool)
	var result []T
	for _, elm := range slice {
		if _, ok := inResult[elm]; !ok {
			inResult[elm] = true
			result = append(result, elm)
		}
	}
	return result
}

// ParsePeriodKey parses "YYYY-MM" into its first day (UTC).
func ParsePeriodKey(periodKey string) (time.Time, error) {
	t, err := time.Parse("2006-01", periodKey)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid period key '%s'", periodKey)
	}
	return t, nil
}

// DaysInPeriod returns the day count of a "YYYY-MM" period. The bool reports
// whether a 30-day month was assumed because the key was missing or invalid.
func DaysInPeriod(periodKey string) (int, bool) {
	t, err := ParsePeriodKey(periodKey)
	if err != nil {
		return 30, true
	}
	return t.AddDate(0, 1, -1).Day(), false
}

// PeriodKeyOf formats a timestamp's month as "YYYY-MM".
func PeriodKeyOf(t time.Time) string {
	return t.Format("2006-01")
}

// MonthsBetween counts whole months from the period of a to the period of b.
func MonthsBetween(a, b time.Time) int {
	return (b.Year()-a.Year())*12 + int(b.Month()) - int(a.Month())
}

// Tokenize splits a descriptive label into lower-cased word tokens for
// similarity comparisons.
func Tokenize(value string) []string {
	fields := strings.FieldsFunc(strings.ToLower(value), func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
	})
	return UniqueSlice(fields)
}

// TokenOverlap is the Jaccard similarity of two token sets.
func TokenOverlap(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	set := make(map[string]bool, len(a))
	for _, t := range a {
		set[t] = true
	}
	var shared int
	union := len(a)
	for _, t := range UniqueSlice(b) {
		if set[t] {
			shared++
		} else {
			union++
		}
	}
	return float64(shared) / float64(union)
}

// RoundTo rounds to the given number of decimal places.
func RoundTo(value float64, places int) float64 {
	s := strconv.FormatFloat(value, 'f', places, 64)
	out, _ := strconv.ParseFloat(s, 64)
	return out
}
