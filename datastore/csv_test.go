package datastore

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestLoadFromCSVDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "transaction_lines.csv",
		"order_id,branch,item,category,quantity,net_amount,timestamp\n"+
			"o1,Main,Latte,coffee,1,3500,2024-03-01 10:15:00\n"+
			"o1,Main,Croissant,sweet,2,5000,2024-03-01T10:15:00Z\n"+
			"bad,Main,Latte,coffee,not-a-number,3500,2024-03-01\n")
	writeFile(t, dir, "branch_monthly_sales.csv",
		"branch,period_key,total_sales\nMain,2024-03,120000.50\n")
	writeFile(t, dir, "attendance_punches.csv",
		"branch,employee_id,punch_in,punch_out\nMain,e1,2024-03-01 18:00:00,2024-03-01 22:00:00\n")

	snap, err := LoadFromCSVDir(dir)(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(snap.Transactions) != 2 {
		t.Fatalf("unparseable rows must be skipped: got %d lines", len(snap.Transactions))
	}
	if len(snap.Sales) != 1 || snap.Sales[0].TotalSales.InexactFloat64() != 120000.50 {
		t.Fatalf("unexpected sales rows: %+v", snap.Sales)
	}
	if len(snap.Punches) != 1 || snap.Punches[0].DurationHours() != 4 {
		t.Fatalf("unexpected punches: %+v", snap.Punches)
	}
	if got := snap.Branches(); len(got) != 1 || got[0] != "Main" {
		t.Fatalf("branch index wrong: %v", got)
	}
}

func TestLoadFromCSVDirMissingFilesYieldEmptyTables(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "branch_monthly_sales.csv",
		"branch,period_key,total_sales\nMain,2024-03,1000\n")

	snap, err := LoadFromCSVDir(dir)(context.Background())
	if err != nil {
		t.Fatalf("missing files must not error: %v", err)
	}
	if len(snap.Transactions) != 0 || len(snap.Punches) != 0 || len(snap.Sales) != 1 {
		t.Fatalf("unexpected tables: tx=%d punches=%d sales=%d",
			len(snap.Transactions), len(snap.Punches), len(snap.Sales))
	}
}
