package datastore

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mmdatafocus/insights_backend/models"
	"github.com/shopspring/decimal"
)

// CSV snapshot loading for the CLI and for fixtures. File names and headers
// match the cleaning pipeline's exports:
//
//	transaction_lines.csv     order_id,branch,item,category,quantity,net_amount,timestamp
//	branch_monthly_sales.csv  branch,period_key,total_sales
//	attendance_punches.csv    branch,employee_id,punch_in,punch_out
//
// A missing file yields an empty table, not an error; engines then report
// zero coverage for that table.

const (
	transactionsFile = "transaction_lines.csv"
	salesFile        = "branch_monthly_sales.csv"
	attendanceFile   = "attendance_punches.csv"
)

var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func LoadFromCSVDir(dir string) Loader {
	return func(ctx context.Context) (*Snapshot, error) {
		lines, err := loadTransactionsCSV(filepath.Join(dir, transactionsFile))
		if err != nil {
			return nil, err
		}
		sales, err := loadSalesCSV(filepath.Join(dir, salesFile))
		if err != nil {
			return nil, err
		}
		punches, err := loadAttendanceCSV(filepath.Join(dir, attendanceFile))
		if err != nil {
			return nil, err
		}
		return NewSnapshot(lines, sales, punches, "csv:"+dir), nil
	}
}

func parseTimestamp(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable timestamp '%s'", value)
}

func readCSVRows(path string) (headerIdx map[string]int, rows [][]string, err error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, nil
		}
		return nil, nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true
	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return nil, nil, nil
		}
		return nil, nil, err
	}
	headerIdx = make(map[string]int, len(header))
	for i, name := range header {
		headerIdx[strings.ToLower(strings.TrimSpace(name))] = i
	}
	rows, err = reader.ReadAll()
	if err != nil {
		return nil, nil, err
	}
	return headerIdx, rows, nil
}

func field(idx map[string]int, row []string, name string) string {
	i, ok := idx[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func loadTransactionsCSV(path string) ([]models.TransactionLine, error) {
	idx, rows, err := readCSVRows(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	var out []models.TransactionLine
	for _, row := range rows {
		qty, err := decimal.NewFromString(field(idx, row, "quantity"))
		if err != nil {
			continue
		}
		amount, err := decimal.NewFromString(field(idx, row, "net_amount"))
		if err != nil {
			continue
		}
		ts, err := parseTimestamp(field(idx, row, "timestamp"))
		if err != nil {
			continue
		}
		out = append(out, models.TransactionLine{
			OrderId:   field(idx, row, "order_id"),
			Branch:    field(idx, row, "branch"),
			Item:      field(idx, row, "item"),
			Category:  field(idx, row, "category"),
			Quantity:  qty,
			NetAmount: amount,
			Timestamp: ts,
		})
	}
	return out, nil
}

func loadSalesCSV(path string) ([]models.BranchMonthlySales, error) {
	idx, rows, err := readCSVRows(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	var out []models.BranchMonthlySales
	for _, row := range rows {
		total, err := decimal.NewFromString(field(idx, row, "total_sales"))
		if err != nil {
			continue
		}
		out = append(out, models.BranchMonthlySales{
			Branch:     field(idx, row, "branch"),
			PeriodKey:  field(idx, row, "period_key"),
			TotalSales: total,
		})
	}
	return out, nil
}

func loadAttendanceCSV(path string) ([]models.AttendancePunch, error) {
	idx, rows, err := readCSVRows(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	var out []models.AttendancePunch
	for _, row := range rows {
		punchIn, err := parseTimestamp(field(idx, row, "punch_in"))
		if err != nil {
			continue
		}
		punch := models.AttendancePunch{
			Branch:     field(idx, row, "branch"),
			EmployeeId: field(idx, row, "employee_id"),
			PunchIn:    punchIn,
		}
		if outTs, err := parseTimestamp(field(idx, row, "punch_out")); err == nil {
			punch.PunchOut = outTs
		}
		out = append(out, punch)
	}
	return out, nil
}
