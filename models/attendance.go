package models

import (
	"time"
)

type ShiftName string

const (
	ShiftMorning   ShiftName = "morning"
	ShiftAfternoon ShiftName = "afternoon"
	ShiftEvening   ShiftName = "evening"
	ShiftNight     ShiftName = "night"
)

// AllShifts lists the four fixed shift windows in day order.
var AllShifts = []ShiftName{ShiftMorning, ShiftAfternoon, ShiftEvening, ShiftNight}

// ShiftOf buckets a punch-in time into its shift window:
// morning 06:00-12:00, afternoon 12:00-18:00, evening 18:00-24:00,
// night 00:00-06:00. Boundaries are half-open on the right.
func ShiftOf(punchIn time.Time) ShiftName {
	hour := punchIn.Hour()
	switch {
	case hour >= 6 && hour < 12:
		return ShiftMorning
	case hour >= 12 && hour < 18:
		return ShiftAfternoon
	case hour >= 18:
		return ShiftEvening
	default:
		return ShiftNight
	}
}

// AttendancePunch is one cleaned punch pair for one employee shift.
type AttendancePunch struct {
	ID         uint      `gorm:"primary_key" json:"id"`
	Branch     string    `gorm:"index;size:100;not null" json:"branch"`
	EmployeeId string    `gorm:"index;size:40;not null" json:"employee_id"`
	PunchIn    time.Time `gorm:"index;not null" json:"punch_in"`
	PunchOut   time.Time `json:"punch_out"`
}

func (AttendancePunch) TableName() string {
	return "attendance_punches"
}

// Valid reports whether the punch pair can contribute labor hours.
func (p AttendancePunch) Valid() bool {
	return !p.PunchIn.IsZero() && !p.PunchOut.IsZero() && p.PunchOut.After(p.PunchIn)
}

// DurationHours is the worked time in hours. Zero for invalid pairs.
func (p AttendancePunch) DurationHours() float64 {
	if !p.Valid() {
		return 0
	}
	return p.PunchOut.Sub(p.PunchIn).Hours()
}

// Shift is the shift window this punch belongs to, by punch-in hour.
func (p AttendancePunch) Shift() ShiftName {
	return ShiftOf(p.PunchIn)
}
