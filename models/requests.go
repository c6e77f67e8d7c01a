package models

import (
	"strings"

	"github.com/mmdatafocus/insights_backend/utils"
)

// Engine request structs. Each request validates itself before any
// computation starts: tag-level checks run through the shared validator,
// cross-field rules are enforced in Validate, and defaults are applied in
// Normalize. Optional numerics are pointers so an explicit zero is
// distinguishable from an omitted field.

const (
	ComboModeTopCombos   = "top_combos"
	ComboModeWithItem    = "with_item"
	ComboModeBranchPairs = "branch_pairs"
)

type ComboRequest struct {
	Mode              string   `json:"mode" validate:"omitempty,oneof=top_combos with_item branch_pairs"`
	Branch            string   `json:"branch"`
	AnchorItem        string   `json:"anchor_item"`
	IncludeCategories []string `json:"include_categories"`
	ExcludeItems      []string `json:"exclude_items"`
	TopN              int      `json:"top_n" validate:"omitempty,min=1,max=20"`
	MinSupport        *float64 `json:"min_support" validate:"omitempty,min=0,max=1"`
	MinConfidence     *float64 `json:"min_confidence" validate:"omitempty,min=0,max=1"`
	MinLift           *float64 `json:"min_lift" validate:"omitempty,min=0"`
}

func (r *ComboRequest) Normalize() {
	if r.Mode == "" {
		r.Mode = ComboModeTopCombos
	}
	if r.TopN == 0 {
		r.TopN = 5
	}
	if r.MinSupport == nil {
		r.MinSupport = ptr(0.02)
	}
	if r.MinConfidence == nil {
		r.MinConfidence = ptr(0.3)
	}
	if r.MinLift == nil {
		r.MinLift = ptr(1.0)
	}
}

func (r *ComboRequest) Validate() error {
	r.Normalize()
	if err := utils.ValidateStruct(r); err != nil {
		return err
	}
	if r.Mode == ComboModeWithItem && strings.TrimSpace(r.AnchorItem) == "" {
		return utils.NewValidationError("mode 'with_item' requires anchor_item")
	}
	for _, c := range r.IncludeCategories {
		if _, ok := ParseCategory(c); !ok {
			return utils.NewValidationError("unknown category '" + c + "' in include_categories")
		}
	}
	return nil
}

type ForecastRequest struct {
	Branch      string `json:"branch" validate:"required"`
	HorizonDays int    `json:"horizon_days" validate:"omitempty,min=1,max=31"`
}

func (r *ForecastRequest) Normalize() {
	if r.HorizonDays == 0 {
		r.HorizonDays = 7
	}
}

func (r *ForecastRequest) Validate() error {
	r.Normalize()
	return utils.ValidateStruct(r)
}

type StaffingRequest struct {
	Branch         string   `json:"branch" validate:"required"`
	TargetPeriod   string   `json:"target_period"`
	DayOfWeek      string   `json:"day_of_week" validate:"omitempty,oneof=Mon Tue Wed Thu Fri Sat Sun"`
	ShiftName      string   `json:"shift_name" validate:"required,oneof=morning afternoon evening night"`
	ShiftHours     *float64 `json:"shift_hours" validate:"omitempty,gt=0,lte=24"`
	BufferPct      *float64 `json:"buffer_pct" validate:"omitempty,min=0,max=1"`
	DemandOverride *float64 `json:"demand_override" validate:"omitempty,min=0"`
}

func (r *StaffingRequest) Normalize() {
	if r.ShiftHours == nil {
		r.ShiftHours = ptr(8.0)
	}
	if r.BufferPct == nil {
		r.BufferPct = ptr(0.15)
	}
}

func (r *StaffingRequest) Validate() error {
	r.Normalize()
	if err := utils.ValidateStruct(r); err != nil {
		return err
	}
	if r.TargetPeriod != "" {
		if _, err := utils.ParsePeriodKey(r.TargetPeriod); err != nil {
			return utils.NewValidationError("target_period must be in YYYY-MM format")
		}
	}
	return nil
}

type StaffingBenchmarkRequest struct {
	TargetPeriod   string   `json:"target_period"`
	DayOfWeek      string   `json:"day_of_week" validate:"omitempty,oneof=Mon Tue Wed Thu Fri Sat Sun"`
	ShiftName      string   `json:"shift_name" validate:"omitempty,oneof=morning afternoon evening night"`
	ShiftHours     *float64 `json:"shift_hours" validate:"omitempty,gt=0,lte=24"`
	BufferPct      *float64 `json:"buffer_pct" validate:"omitempty,min=0,max=1"`
	DemandOverride *float64 `json:"demand_override" validate:"omitempty,min=0"`
	TopN           int      `json:"top_n" validate:"omitempty,min=1,max=20"`
}

func (r *StaffingBenchmarkRequest) Normalize() {
	if r.ShiftName == "" {
		r.ShiftName = string(ShiftEvening)
	}
	if r.ShiftHours == nil {
		r.ShiftHours = ptr(8.0)
	}
	if r.BufferPct == nil {
		r.BufferPct = ptr(0.15)
	}
	if r.TopN == 0 {
		r.TopN = 5
	}
}

func (r *StaffingBenchmarkRequest) Validate() error {
	r.Normalize()
	if err := utils.ValidateStruct(r); err != nil {
		return err
	}
	if r.TargetPeriod != "" {
		if _, err := utils.ParsePeriodKey(r.TargetPeriod); err != nil {
			return utils.NewValidationError("target_period must be in YYYY-MM format")
		}
	}
	return nil
}

type ShiftLengthSummaryRequest struct {
	Branch    string `json:"branch"`
	ShiftName string `json:"shift_name" validate:"omitempty,oneof=morning afternoon evening night"`
	DayOfWeek string `json:"day_of_week" validate:"omitempty,oneof=Mon Tue Wed Thu Fri Sat Sun"`
}

func (r *ShiftLengthSummaryRequest) Validate() error {
	return utils.ValidateStruct(r)
}

type ExpansionRequest struct {
	CandidateLocation string `json:"candidate_location" validate:"required"`
	TargetRegion      string `json:"target_region"`
}

func (r *ExpansionRequest) Validate() error {
	return utils.ValidateStruct(r)
}

type GrowthRequest struct {
	Branch          string   `json:"branch"`
	FocusCategories []string `json:"focus_categories"`
}

func (r *GrowthRequest) Normalize() {
	if len(r.FocusCategories) == 0 {
		r.FocusCategories = []string{string(CategoryCoffee), string(CategoryMilkshake)}
	}
	// Canonicalize casing so downstream category comparisons match; unknown
	// values are left alone for Validate to reject.
	for i, c := range r.FocusCategories {
		if cat, ok := ParseCategory(c); ok {
			r.FocusCategories[i] = string(cat)
		}
	}
}

func (r *GrowthRequest) Validate() error {
	r.Normalize()
	if err := utils.ValidateStruct(r); err != nil {
		return err
	}
	for _, c := range r.FocusCategories {
		if _, ok := ParseCategory(c); !ok {
			return utils.NewValidationError("unknown category '" + c + "' in focus_categories")
		}
	}
	return nil
}

func ptr[T any](v T) *T {
	return &v
}
