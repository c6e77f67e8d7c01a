package datastore

import (
	"context"

	"github.com/mmdatafocus/insights_backend/models"
	"gorm.io/gorm"
)

// LoadFromDB reads the three snapshot tables the cleaning pipeline maintains.
// Ordering is fixed so repeated loads over identical data produce identical
// snapshots.
func LoadFromDB(db *gorm.DB) Loader {
	return func(ctx context.Context) (*Snapshot, error) {
		var lines []models.TransactionLine
		if err := db.WithContext(ctx).Order("order_id, id").Find(&lines).Error; err != nil {
			return nil, err
		}
		var sales []models.BranchMonthlySales
		if err := db.WithContext(ctx).Order("branch, period_key").Find(&sales).Error; err != nil {
			return nil, err
		}
		var punches []models.AttendancePunch
		if err := db.WithContext(ctx).Order("branch, punch_in, id").Find(&punches).Error; err != nil {
			return nil, err
		}
		return NewSnapshot(lines, sales, punches, "mysql"), nil
	}
}
