package workflow

import (
	"strings"
	"testing"
	"time"

	"github.com/mmdatafocus/insights_backend/datastore"
	"github.com/mmdatafocus/insights_backend/models"
	"github.com/mmdatafocus/insights_backend/utils"
	"github.com/shopspring/decimal"
)

func salesRow(branch, period string, total int64) models.BranchMonthlySales {
	return models.BranchMonthlySales{Branch: branch, PeriodKey: period, TotalSales: decimal.NewFromInt(total)}
}

func withFixedNow(t *testing.T, fixed time.Time) {
	t.Helper()
	prev := timeNow
	timeNow = func() time.Time { return fixed }
	t.Cleanup(func() { timeNow = prev })
}

func TestForecastDemandThreePeriods(t *testing.T) {
	withFixedNow(t, time.Date(2024, 4, 10, 12, 0, 0, 0, time.UTC))
	snap := datastore.NewSnapshot(nil, []models.BranchMonthlySales{
		salesRow("Main", "2024-01", 1000),
		salesRow("Main", "2024-02", 2000),
		salesRow("Main", "2024-03", 3000),
	}, nil, "test")

	env, err := ForecastDemand(snap, &models.ForecastRequest{Branch: "Main"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	result := env.Result.(*ForecastResult)

	// 3000*0.5 + 2000*0.3 + 1000*0.2 over March's 31 days.
	if result.MonthlyWMA != 2300 {
		t.Fatalf("MonthlyWMA = %v, want 2300", result.MonthlyWMA)
	}
	if result.DailyBaseline != utils.RoundTo(2300.0/31, 2) {
		t.Fatalf("DailyBaseline = %v", result.DailyBaseline)
	}
	if len(result.Rows) != 7 {
		t.Fatalf("expected 7 rows, got %d", len(result.Rows))
	}
	if result.Rows[0].Date != "2024-04-11" {
		t.Fatalf("rows must start tomorrow, got %s", result.Rows[0].Date)
	}
	if result.WeekdayProfileUsed {
		t.Fatalf("no transaction history; weekday profile must not be used")
	}
	for _, row := range result.Rows {
		if row.WeekdayFactor != 1.0 {
			t.Fatalf("flat factor expected, got %v on %s", row.WeekdayFactor, row.Date)
		}
	}
}

func TestForecastDemandSinglePeriodRenormalizes(t *testing.T) {
	withFixedNow(t, time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC))
	snap := datastore.NewSnapshot(nil, []models.BranchMonthlySales{
		salesRow("Main", "2024-02", 3000),
	}, nil, "test")

	env, err := ForecastDemand(snap, &models.ForecastRequest{Branch: "Main", HorizonDays: 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	result := env.Result.(*ForecastResult)
	if result.MonthlyWMA != 3000 {
		t.Fatalf("single period must renormalize to weight 1.0, got WMA %v", result.MonthlyWMA)
	}
	// February 2024 has 29 days.
	want := utils.RoundTo(3000.0/29, 2)
	if result.DailyBaseline != want {
		t.Fatalf("DailyBaseline = %v, want %v", result.DailyBaseline, want)
	}
	if len(result.Rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(result.Rows))
	}
	for _, row := range result.Rows {
		if row.ForecastSales != want {
			t.Fatalf("flat profile must repeat the baseline, got %v", row.ForecastSales)
		}
	}
}

func TestForecastDemandTwoPeriodWeights(t *testing.T) {
	withFixedNow(t, time.Date(2024, 4, 1, 12, 0, 0, 0, time.UTC))
	snap := datastore.NewSnapshot(nil, []models.BranchMonthlySales{
		salesRow("Main", "2024-02", 1000),
		salesRow("Main", "2024-03", 2000),
	}, nil, "test")

	env, err := ForecastDemand(snap, &models.ForecastRequest{Branch: "Main"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	result := env.Result.(*ForecastResult)
	// Weights 0.5/0.3 renormalize to 0.625/0.375.
	want := utils.RoundTo(2000*0.625+1000*0.375, 2)
	if result.MonthlyWMA != want {
		t.Fatalf("MonthlyWMA = %v, want %v", result.MonthlyWMA, want)
	}
}

func TestForecastDemandStalePeriodAssumption(t *testing.T) {
	withFixedNow(t, time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC))
	snap := datastore.NewSnapshot(nil, []models.BranchMonthlySales{
		salesRow("Main", "2024-02", 3000),
	}, nil, "test")

	env, err := ForecastDemand(snap, &models.ForecastRequest{Branch: "Main"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	found := false
	for _, a := range env.Assumptions {
		if strings.Contains(a, "4 months old") {
			found = true
		}
	}
	if !found {
		t.Fatalf("stale sales history must surface as an assumption: %v", env.Assumptions)
	}
}

func TestForecastDemandUnknownBranch(t *testing.T) {
	snap := datastore.NewSnapshot(nil, []models.BranchMonthlySales{
		salesRow("Main", "2024-03", 3000),
	}, nil, "test")
	_, err := ForecastDemand(snap, &models.ForecastRequest{Branch: "Nowhere"})
	if err == nil || !utils.IsNotFoundError(err) {
		t.Fatalf("expected not-found error, got %v", err)
	}
}

func TestForecastDemandNoSalesHistory(t *testing.T) {
	ts := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	snap := datastore.NewSnapshot([]models.TransactionLine{
		txLine("o1", "Main", "Latte", 1, 3000, ts),
	}, nil, nil, "test")
	// The branch exists in transaction data but has no sales rows.
	_, err := ForecastDemand(snap, &models.ForecastRequest{Branch: "Main"})
	if err == nil || !utils.IsNotFoundError(err) {
		t.Fatalf("expected not-found error, got %v", err)
	}
}

func TestForecastDemandWeekdayProfile(t *testing.T) {
	withFixedNow(t, time.Date(2024, 4, 1, 12, 0, 0, 0, time.UTC))
	// 28 trading days in February split so Saturdays earn double.
	var lines []models.TransactionLine
	day := time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 28; i++ {
		amount := int64(1000)
		if day.Weekday() == time.Saturday {
			amount = 2000
		}
		lines = append(lines, txLine(day.Format("2006-01-02"), "Main", "Latte", 1, amount, day))
		day = day.AddDate(0, 0, 1)
	}
	snap := datastore.NewSnapshot(lines, []models.BranchMonthlySales{
		salesRow("Main", "2024-03", 31000),
	}, nil, "test")

	env, err := ForecastDemand(snap, &models.ForecastRequest{Branch: "Main"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	result := env.Result.(*ForecastResult)
	if !result.WeekdayProfileUsed {
		t.Fatalf("28 trading dates must enable the weekday profile")
	}
	var saturday, monday float64
	for _, row := range result.Rows {
		switch row.DayOfWeek {
		case "Sat":
			saturday = row.WeekdayFactor
		case "Mon":
			monday = row.WeekdayFactor
		}
	}
	if saturday <= monday {
		t.Fatalf("saturday factor %v must exceed monday factor %v", saturday, monday)
	}
}
