package workflow

import (
	"time"

	"github.com/mmdatafocus/insights_backend/datastore"
	"github.com/mmdatafocus/insights_backend/models"
	"github.com/mmdatafocus/insights_backend/utils"
)

// Weighted moving average over the most recent monthly periods, most recent
// first. Fewer than three periods renormalizes the available prefix.
var wmaWeights = []float64{0.5, 0.3, 0.2}

// Day-of-week adjustment needs at least this many distinct trading dates
// before the weekday profile is trusted over a flat factor of 1.0.
const minDatesForWeekdayProfile = 14

var timeNow = time.Now

type ForecastRow struct {
	Date          string  `json:"date"`
	DayOfWeek     string  `json:"day_of_week"`
	ForecastSales float64 `json:"forecast_sales"`
	WeekdayFactor float64 `json:"weekday_factor"`
}

type ForecastResult struct {
	Branch             string        `json:"branch"`
	HorizonDays        int           `json:"horizon_days"`
	MonthlyWMA         float64       `json:"monthly_wma"`
	DailyBaseline      float64       `json:"daily_baseline"`
	PeriodsUsed        []string      `json:"periods_used"`
	WeightsApplied     []float64     `json:"weights_applied"`
	WeekdayProfileUsed bool          `json:"weekday_profile_used"`
	Rows               []ForecastRow `json:"rows"`
}

// ForecastDemand projects daily sales for a branch over the requested
// horizon: a weighted moving average of recent monthly sales sets the
// baseline, a weekday revenue profile shapes it across the week.
func ForecastDemand(snap *datastore.Snapshot, req *models.ForecastRequest) (*models.Envelope, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	branch, ok := snap.ResolveBranch(req.Branch)
	if !ok {
		return nil, utils.NewNotFoundError("branch", req.Branch)
	}

	sales := snap.BranchSales(branch)
	if len(sales) == 0 {
		// The branch may exist in transaction data, but with zero sales
		// history there is nothing to smooth and no fallback.
		return nil, utils.NewNotFoundError("sales history for branch", branch)
	}

	recent := sales
	if len(recent) > len(wmaWeights) {
		recent = recent[len(recent)-len(wmaWeights):]
	}
	// recent is oldest first; weights index from the newest end.
	weights := make([]float64, len(recent))
	var weightSum float64
	for i := range recent {
		weights[i] = wmaWeights[len(recent)-1-i]
		weightSum += weights[i]
	}

	var wma float64
	periods := make([]string, 0, len(recent))
	applied := make([]float64, 0, len(recent))
	for i, rec := range recent {
		w := weights[i] / weightSum
		wma += rec.TotalSales.InexactFloat64() * w
		periods = append(periods, rec.PeriodKey)
		applied = append(applied, utils.RoundTo(w, 4))
	}

	latest := recent[len(recent)-1]
	days, assumed30 := latest.DaysInPeriod()
	baseline := wma / float64(days)

	result := &ForecastResult{
		Branch:         branch,
		HorizonDays:    req.HorizonDays,
		MonthlyWMA:     utils.RoundTo(wma, 2),
		DailyBaseline:  utils.RoundTo(baseline, 2),
		PeriodsUsed:    periods,
		WeightsApplied: applied,
		Rows:           []ForecastRow{},
	}
	env := models.NewEnvelope(result)
	env.AddAssumption("Monthly baseline is a weighted moving average of up to 3 recent periods, weights 0.5/0.3/0.2 newest first, renormalized when fewer periods exist.")
	if assumed30 {
		env.AddAssumption("Latest period key was malformed; a 30-day month was assumed for the daily baseline.")
	}
	if latestDate, perr := latest.PeriodDate(); perr == nil {
		if months := utils.MonthsBetween(latestDate, timeNow().UTC()); months > 1 {
			env.AddAssumption("Latest sales period %s is %d months old; the baseline does not account for the gap.", latest.PeriodKey, months)
		}
	}
	env.AddCoverage("%d of %d ideal periods available for branch '%s' (%v).", len(recent), len(wmaWeights), branch, periods)

	factors := weekdayFactors(snap, branch)
	result.WeekdayProfileUsed = !factors.Fallback
	factors.Note(env)
	if !factors.Fallback {
		env.AddAssumption("Daily figures are shaped by the branch's historical weekday revenue profile.")
	}

	start := timeNow().UTC().Truncate(24 * time.Hour).AddDate(0, 0, 1)
	for i := 0; i < req.HorizonDays; i++ {
		day := start.AddDate(0, 0, i)
		factor := factors.Value[day.Weekday()]
		result.Rows = append(result.Rows, ForecastRow{
			Date:          day.Format("2006-01-02"),
			DayOfWeek:     day.Format("Mon"),
			ForecastSales: utils.RoundTo(baseline*factor, 2),
			WeekdayFactor: utils.RoundTo(factor, 4),
		})
	}

	env.SetEvidence("periods_used", periods)
	env.SetEvidence("weights_applied", applied)
	env.SetEvidence("monthly_wma", result.MonthlyWMA)
	env.SetEvidence("daily_baseline", result.DailyBaseline)
	env.SetEvidence("latest_period_days", days)
	env.SetEvidence("weekday_profile_used", result.WeekdayProfileUsed)
	return env, nil
}

// weekdayFactors derives a per-weekday demand multiplier from the branch's
// transaction history: mean daily revenue per weekday over the overall mean.
// Falls back to flat 1.0 when the history is too thin.
func weekdayFactors(snap *datastore.Snapshot, branch string) Outcome[map[time.Weekday]float64] {
	flat := map[time.Weekday]float64{}
	for d := time.Sunday; d <= time.Saturday; d++ {
		flat[d] = 1.0
	}

	dailyRevenue := map[string]float64{}
	for _, line := range snap.BranchTransactions(branch) {
		if line.Timestamp.IsZero() {
			continue
		}
		dailyRevenue[line.Timestamp.Format("2006-01-02")] += line.NetAmount.InexactFloat64()
	}
	if len(dailyRevenue) < minDatesForWeekdayProfile {
		return FallbackValue(flat, "Fewer than 14 distinct trading dates in transaction history; weekday factors default to 1.0.")
	}

	sumByWeekday := map[time.Weekday]float64{}
	countByWeekday := map[time.Weekday]int{}
	var total float64
	for date, revenue := range dailyRevenue {
		day, err := time.Parse("2006-01-02", date)
		if err != nil {
			continue
		}
		sumByWeekday[day.Weekday()] += revenue
		countByWeekday[day.Weekday()]++
		total += revenue
	}
	overallMean := total / float64(len(dailyRevenue))
	if overallMean <= 0 {
		return FallbackValue(flat, "Transaction history carries no positive revenue; weekday factors default to 1.0.")
	}

	factors := map[time.Weekday]float64{}
	for d := time.Sunday; d <= time.Saturday; d++ {
		if countByWeekday[d] == 0 {
			factors[d] = 1.0
			continue
		}
		factors[d] = (sumByWeekday[d] / float64(countByWeekday[d])) / overallMean
	}
	return Primary(factors)
}
