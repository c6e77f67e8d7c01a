package models

import (
	"time"

	"github.com/mmdatafocus/insights_backend/utils"
	"github.com/shopspring/decimal"
)

// BranchMonthlySales is one branch-period sales record. One row per
// (branch, period) pair; a missing period is explicit absence, not zero.
type BranchMonthlySales struct {
	ID         uint            `gorm:"primary_key" json:"id"`
	Branch     string          `gorm:"index;size:100;not null" json:"branch"`
	PeriodKey  string          `gorm:"index;size:7;not null" json:"period_key"`
	TotalSales decimal.Decimal `gorm:"type:decimal(20,6);not null" json:"total_sales"`
}

func (BranchMonthlySales) TableName() string {
	return "branch_monthly_sales"
}

// PeriodDate is the first day of the record's period (UTC).
func (s BranchMonthlySales) PeriodDate() (time.Time, error) {
	return utils.ParsePeriodKey(s.PeriodKey)
}

// DaysInPeriod reports the period's day count; assumes 30 on a malformed key.
func (s BranchMonthlySales) DaysInPeriod() (int, bool) {
	return utils.DaysInPeriod(s.PeriodKey)
}
