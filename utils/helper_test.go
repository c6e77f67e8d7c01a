package utils

import (
	"testing"
	"time"
)

func TestNormalizeItemName(t *testing.T) {
	cases := map[string]string{
		"  iced latte ":          "ICED LATTE",
		"[HOT] Latte...":         "HOT LATTE",
		"croissant ,":            "CROISSANT",
		"Chocolate   Milkshake":  "CHOCOLATE MILKSHAKE",
		"":                       "",
		"   ":                    "",
	}
	for in, want := range cases {
		if got := NormalizeItemName(in); got != want {
			t.Fatalf("NormalizeItemName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNormalizeBranchName(t *testing.T) {
	if got := NormalizeBranchName("  Down  Town "); got != "down town" {
		t.Fatalf("unexpected normalization: %q", got)
	}
}

func TestParsePeriodKey(t *testing.T) {
	d, err := ParsePeriodKey("2024-02")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Year() != 2024 || d.Month() != time.February || d.Day() != 1 {
		t.Fatalf("unexpected date: %v", d)
	}
	if _, err := ParsePeriodKey("2024-2"); err == nil {
		t.Fatalf("expected error for malformed key")
	}
}

func TestDaysInPeriod(t *testing.T) {
	days, assumed := DaysInPeriod("2024-02")
	if days != 29 || assumed {
		t.Fatalf("leap february: got days=%d assumed=%v", days, assumed)
	}
	days, assumed = DaysInPeriod("not-a-period")
	if days != 30 || !assumed {
		t.Fatalf("malformed key: got days=%d assumed=%v", days, assumed)
	}
}

func TestMonthsBetween(t *testing.T) {
	a := time.Date(2024, 11, 15, 0, 0, 0, 0, time.UTC)
	b := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	if got := MonthsBetween(a, b); got != 3 {
		t.Fatalf("MonthsBetween = %d, want 3", got)
	}
}

func TestTokenOverlap(t *testing.T) {
	a := Tokenize("Yangon Downtown Mall")
	b := Tokenize("downtown yangon branch")
	got := TokenOverlap(a, b)
	// shared {yangon, downtown}, union {yangon, downtown, mall, branch}
	if got != 0.5 {
		t.Fatalf("TokenOverlap = %v, want 0.5", got)
	}
	if TokenOverlap(nil, b) != 0 {
		t.Fatalf("empty side must yield 0")
	}
}

func TestRoundTo(t *testing.T) {
	if got := RoundTo(1.23456, 2); got != 1.23 {
		t.Fatalf("RoundTo = %v", got)
	}
	if got := RoundTo(2.675, 2); got != 2.68 {
		t.Fatalf("RoundTo half-up = %v", got)
	}
}

func TestUniqueSlice(t *testing.T) {
	got := UniqueSlice([]string{"a", "b", "a", "c", "b"})
	if len(got) != 3 || got[0] != "a" || got[1] != "b" || got[2] != "c" {
		t.Fatalf("UniqueSlice = %v", got)
	}
}
