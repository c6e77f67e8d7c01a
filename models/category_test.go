package models

import (
	"testing"
	"time"
)

func TestCategorizeFirstMatchWins(t *testing.T) {
	cases := map[string]Category{
		"Iced Latte":            CategoryCoffee,
		"Caramel Machiato":      CategoryCoffee,
		"Chocolate Milkshake":   CategoryMilkshake,
		"Strawberry Shake":      CategoryMilkshake,
		"Green Tea":             CategoryBeverage,
		"Chimney Cone":          CategorySweet,
		"Ham Sandwich":          CategorySavory,
		"Mystery Item":          CategoryOther,
		"coffee milkshake":      CategoryCoffee, // coffee rules rank first
	}
	for item, want := range cases {
		if got := Categorize(item); got != want {
			t.Fatalf("Categorize(%q) = %q, want %q", item, got, want)
		}
	}
}

func TestCategorizeIsDeterministic(t *testing.T) {
	for i := 0; i < 100; i++ {
		if got := Categorize("Mocha Shake Tea"); got != CategoryCoffee {
			t.Fatalf("run %d: got %q", i, got)
		}
	}
}

func TestIsBeverage(t *testing.T) {
	if !CategoryCoffee.IsBeverage() || !CategoryMilkshake.IsBeverage() || !CategoryBeverage.IsBeverage() {
		t.Fatalf("drink categories must report beverage")
	}
	if CategorySweet.IsBeverage() || CategorySavory.IsBeverage() || CategoryOther.IsBeverage() {
		t.Fatalf("food categories must not report beverage")
	}
}

func TestIsTrivialItem(t *testing.T) {
	trivial := []string{"Delivery Charge", "chocolate sauce", "No Sugar", "Service Fee 5%", "HOT", "discount 10%"}
	for _, item := range trivial {
		if !IsTrivialItem(item) {
			t.Fatalf("%q should be trivial", item)
		}
	}
	real := []string{"Iced Latte", "Croissant", "Chimney Cone"}
	for _, item := range real {
		if IsTrivialItem(item) {
			t.Fatalf("%q should not be trivial", item)
		}
	}
}

func TestShiftOfBoundaries(t *testing.T) {
	at := func(hour int) time.Time {
		return time.Date(2024, 3, 1, hour, 0, 0, 0, time.UTC)
	}
	cases := map[int]ShiftName{
		0:  ShiftNight,
		5:  ShiftNight,
		6:  ShiftMorning,
		11: ShiftMorning,
		12: ShiftAfternoon,
		17: ShiftAfternoon,
		18: ShiftEvening,
		23: ShiftEvening,
	}
	for hour, want := range cases {
		if got := ShiftOf(at(hour)); got != want {
			t.Fatalf("ShiftOf(hour=%d) = %q, want %q", hour, got, want)
		}
	}
}

func TestAttendancePunchValidity(t *testing.T) {
	in := time.Date(2024, 3, 1, 18, 0, 0, 0, time.UTC)
	p := AttendancePunch{Branch: "Main", EmployeeId: "e1", PunchIn: in, PunchOut: in.Add(4 * time.Hour)}
	if !p.Valid() {
		t.Fatalf("expected valid punch")
	}
	if got := p.DurationHours(); got != 4 {
		t.Fatalf("DurationHours = %v", got)
	}
	bad := AttendancePunch{PunchIn: in, PunchOut: in.Add(-time.Hour)}
	if bad.Valid() || bad.DurationHours() != 0 {
		t.Fatalf("inverted punch pair must be invalid with zero hours")
	}
}
