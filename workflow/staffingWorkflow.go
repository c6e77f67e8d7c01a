package workflow

import (
	"math"
	"sort"
	"time"

	"github.com/mmdatafocus/insights_backend/datastore"
	"github.com/mmdatafocus/insights_backend/models"
	"github.com/mmdatafocus/insights_backend/utils"
)

// shiftShareFallback is the flat share assumed for a shift window when the
// branch has no attendance history to derive real shares from.
const shiftShareFallback = 0.25

type StaffingPlan struct {
	Branch           string  `json:"branch"`
	ShiftName        string  `json:"shift_name"`
	TargetPeriod     string  `json:"target_period"`
	DayOfWeek        string  `json:"day_of_week,omitempty"`
	MonthlySales     float64 `json:"monthly_sales"`
	Productivity     float64 `json:"productivity_sales_per_hour"`
	ShiftShare       float64 `json:"shift_share"`
	ShiftLaborHours  float64 `json:"shift_labor_hours"`
	RawStaff         float64 `json:"raw_staff"`
	BufferPct        float64 `json:"buffer_pct"`
	RecommendedStaff int     `json:"recommended_staff"`
}

// EstimateStaffing converts expected monthly demand into a recommended
// headcount for one branch shift. The chain is: monthly sales over
// productivity gives monthly labor hours, divided across the period's days,
// scaled by the shift's historical share of labor, divided by shift length,
// then padded by the buffer and rounded up. Every fallback taken is recorded
// as an assumption.
func EstimateStaffing(snap *datastore.Snapshot, req *models.StaffingRequest) (*models.Envelope, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	branch, ok := snap.ResolveBranch(req.Branch)
	if !ok {
		return nil, utils.NewNotFoundError("branch", req.Branch)
	}

	plan, env, err := staffingPlan(snap, branch, req.TargetPeriod, req.DayOfWeek, req.ShiftName, *req.ShiftHours, *req.BufferPct, req.DemandOverride)
	if err != nil {
		return nil, err
	}
	env.Result = plan
	return env, nil
}

func staffingPlan(snap *datastore.Snapshot, branch, targetPeriod, dayOfWeek, shiftName string, shiftHours, bufferPct float64, demandOverride *float64) (*StaffingPlan, *models.Envelope, error) {
	env := models.NewEnvelope(nil)

	period := resolveTargetPeriod(snap, branch, targetPeriod)
	period.Note(env)

	demand := monthlyDemand(snap, branch, period.Value, demandOverride)
	demand.Note(env)
	if demand.Value < 0 {
		return nil, nil, utils.NewInsufficientDataError("no monthly sales figure available for branch '" + branch + "' and no demand_override supplied")
	}

	productivity := branchProductivity(snap, branch, period.Value)
	productivity.Note(env)
	if productivity.Value <= 0 {
		return nil, nil, utils.NewInsufficientDataError("no attendance history anywhere in the snapshot; productivity cannot be derived")
	}

	share := shiftShare(snap, branch, models.ShiftName(shiftName))
	share.Note(env)

	days, assumed30 := utils.DaysInPeriod(period.Value)
	if assumed30 {
		env.AddAssumption("Target period '%s' was not parseable; a 30-day month was assumed.", period.Value)
	}

	monthlyLaborHours := demand.Value / productivity.Value
	dailyLaborHours := monthlyLaborHours / float64(days)

	if dayOfWeek != "" {
		factors := weekdayFactors(snap, branch)
		factor := factors.Value[weekdayByName(dayOfWeek)]
		dailyLaborHours *= factor
		if factors.Fallback {
			env.AddAssumption("Requested day_of_week '%s' could not be weighted; weekday profile unavailable, factor 1.0 applied.", dayOfWeek)
		} else {
			env.AddAssumption("Daily demand scaled by %.4f for '%s' from the branch weekday revenue profile.", factor, dayOfWeek)
		}
	}

	shiftLaborHours := dailyLaborHours * share.Value
	rawStaff := shiftLaborHours / shiftHours
	recommended := int(math.Ceil(rawStaff * (1 + bufferPct)))
	if recommended < 0 {
		recommended = 0
	}

	plan := &StaffingPlan{
		Branch:           branch,
		ShiftName:        shiftName,
		TargetPeriod:     period.Value,
		DayOfWeek:        dayOfWeek,
		MonthlySales:     utils.RoundTo(demand.Value, 2),
		Productivity:     utils.RoundTo(productivity.Value, 4),
		ShiftShare:       utils.RoundTo(share.Value, 4),
		ShiftLaborHours:  utils.RoundTo(shiftLaborHours, 2),
		RawStaff:         utils.RoundTo(rawStaff, 4),
		BufferPct:        bufferPct,
		RecommendedStaff: recommended,
	}

	env.SetEvidence("monthly_sales_used", plan.MonthlySales)
	env.SetEvidence("productivity_sales_per_hour", plan.Productivity)
	env.SetEvidence("shift_share", plan.ShiftShare)
	env.SetEvidence("days_in_period", days)
	env.SetEvidence("raw_staff", plan.RawStaff)
	env.SetEvidence("buffer_pct", bufferPct)
	env.AddCoverage("Staffing derived for branch '%s', shift '%s', period %s.", branch, shiftName, period.Value)
	return plan, env, nil
}

// resolveTargetPeriod picks the requested period, or the branch's latest
// sales period, or the current month when the branch has no sales history.
func resolveTargetPeriod(snap *datastore.Snapshot, branch, requested string) Outcome[string] {
	if requested != "" {
		return Primary(requested)
	}
	sales := snap.BranchSales(branch)
	if len(sales) > 0 {
		latest := sales[len(sales)-1].PeriodKey
		return FallbackValue(latest, "No target_period requested; the branch's latest sales period "+latest+" was used.")
	}
	current := utils.PeriodKeyOf(timeNow().UTC())
	return FallbackValue(current, "No target_period requested and no sales history; the current month "+current+" was assumed.")
}

// monthlyDemand resolves the sales figure to staff against. A negative value
// signals that nothing was available.
func monthlyDemand(snap *datastore.Snapshot, branch, period string, override *float64) Outcome[float64] {
	if override != nil {
		return FallbackValue(*override, "Monthly demand taken from the caller's demand_override, not from sales history.")
	}
	sales := snap.BranchSales(branch)
	for _, rec := range sales {
		if rec.PeriodKey == period {
			return Primary(rec.TotalSales.InexactFloat64())
		}
	}
	if len(sales) > 0 {
		latest := sales[len(sales)-1]
		return FallbackValue(latest.TotalSales.InexactFloat64(),
			"No sales record for period "+period+"; the latest recorded period "+latest.PeriodKey+" stood in for demand.")
	}
	return Outcome[float64]{Value: -1}
}

// branchProductivity is sales per labor hour for the branch in the target
// period, falling back to the branch's whole history and then to the
// all-branch figure.
func branchProductivity(snap *datastore.Snapshot, branch, period string) Outcome[float64] {
	if p := productivityOf(snap, branch, period); p > 0 {
		return Primary(p)
	}
	if p := productivityOf(snap, branch, ""); p > 0 {
		return FallbackValue(p, "No matched sales and labor hours for period "+period+"; productivity derived from the branch's whole history.")
	}
	if p := productivityOf(snap, "", ""); p > 0 {
		return FallbackValue(p, "Branch '"+branch+"' has no usable attendance history; the all-branch productivity figure was used.")
	}
	return Outcome[float64]{}
}

// productivityOf sums sales and valid labor hours for the scope and divides.
// Empty branch means all branches; empty period means all periods.
func productivityOf(snap *datastore.Snapshot, branch, period string) float64 {
	var sales float64
	for _, rec := range snap.BranchSales(branch) {
		if period == "" || rec.PeriodKey == period {
			sales += rec.TotalSales.InexactFloat64()
		}
	}
	var hours float64
	for _, p := range snap.BranchAttendance(branch) {
		if period != "" && utils.PeriodKeyOf(p.PunchIn) != period {
			continue
		}
		hours += p.DurationHours()
	}
	if sales <= 0 || hours <= 0 {
		return 0
	}
	return sales / hours
}

// shiftShare is the shift's fraction of the branch's total labor hours.
func shiftShare(snap *datastore.Snapshot, branch string, shift models.ShiftName) Outcome[float64] {
	var total, inShift float64
	for _, p := range snap.BranchAttendance(branch) {
		h := p.DurationHours()
		total += h
		if p.Shift() == shift {
			inShift += h
		}
	}
	if total <= 0 {
		return FallbackValue(shiftShareFallback, "No attendance history for the branch; a flat 0.25 share per shift window was assumed.")
	}
	return Primary(inShift / total)
}

func weekdayByName(name string) time.Weekday {
	for d := time.Sunday; d <= time.Saturday; d++ {
		if d.String()[:3] == name {
			return d
		}
	}
	return time.Monday
}

// BranchStaffingGap compares recommended against historically observed
// headcount for one branch shift.
type BranchStaffingGap struct {
	Branch           string  `json:"branch"`
	RecommendedStaff int     `json:"recommended_staff"`
	ObservedStaff    float64 `json:"observed_avg_staff"`
	Gap              float64 `json:"gap"`
}

type StaffingBenchmarkResult struct {
	ShiftName string              `json:"shift_name"`
	Branches  []BranchStaffingGap `json:"branches"`
}

// RankUnderstaffedBranches runs the staffing estimate for every branch on
// the same shift and ranks branches by how far recommended headcount exceeds
// the historically observed average. Branches whose estimate cannot be
// computed are reported in coverage and skipped.
func RankUnderstaffedBranches(snap *datastore.Snapshot, req *models.StaffingBenchmarkRequest) (*models.Envelope, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	result := &StaffingBenchmarkResult{ShiftName: req.ShiftName, Branches: []BranchStaffingGap{}}
	env := models.NewEnvelope(result)

	branches := snap.Branches()
	var skipped []string
	for _, branch := range branches {
		plan, planEnv, err := staffingPlan(snap, branch, req.TargetPeriod, req.DayOfWeek, req.ShiftName, *req.ShiftHours, *req.BufferPct, req.DemandOverride)
		if err != nil {
			skipped = append(skipped, branch)
			continue
		}
		observed := observedShiftStaff(snap, branch, models.ShiftName(req.ShiftName))
		result.Branches = append(result.Branches, BranchStaffingGap{
			Branch:           branch,
			RecommendedStaff: plan.RecommendedStaff,
			ObservedStaff:    utils.RoundTo(observed, 2),
			Gap:              utils.RoundTo(float64(plan.RecommendedStaff)-observed, 2),
		})
		for _, a := range planEnv.Assumptions {
			env.AddAssumption("[%s] %s", branch, a)
		}
	}

	sort.Slice(result.Branches, func(i, j int) bool {
		if result.Branches[i].Gap != result.Branches[j].Gap {
			return result.Branches[i].Gap > result.Branches[j].Gap
		}
		return result.Branches[i].Branch < result.Branches[j].Branch
	})
	if len(result.Branches) > req.TopN {
		result.Branches = result.Branches[:req.TopN]
	}

	env.SetEvidence("branches_evaluated", len(branches)-len(skipped))
	env.SetEvidence("branches_skipped", len(skipped))
	env.AddCoverage("Evaluated %d of %d branches for shift '%s'.", len(branches)-len(skipped), len(branches), req.ShiftName)
	if len(skipped) > 0 {
		env.AddCoverage("Skipped branches with no usable demand or labor data: %v.", skipped)
	}
	return env, nil
}

// observedShiftStaff is the average distinct headcount per day for the shift,
// over the days that had any punch in that shift.
func observedShiftStaff(snap *datastore.Snapshot, branch string, shift models.ShiftName) float64 {
	perDay := map[string]map[string]bool{}
	for _, p := range snap.BranchAttendance(branch) {
		if p.Shift() != shift {
			continue
		}
		date := p.PunchIn.Format("2006-01-02")
		if perDay[date] == nil {
			perDay[date] = map[string]bool{}
		}
		perDay[date][p.EmployeeId] = true
	}
	if len(perDay) == 0 {
		return 0
	}
	var total int
	for _, employees := range perDay {
		total += len(employees)
	}
	return float64(total) / float64(len(perDay))
}

type ShiftLengthSummary struct {
	Branch        string  `json:"branch,omitempty"`
	ShiftName     string  `json:"shift_name,omitempty"`
	DayOfWeek     string  `json:"day_of_week,omitempty"`
	Punches       int     `json:"punches"`
	InvalidPairs  int     `json:"invalid_pairs"`
	MeanHours     float64 `json:"mean_hours"`
	MedianHours   float64 `json:"median_hours"`
	ShortestHours float64 `json:"shortest_hours"`
	LongestHours  float64 `json:"longest_hours"`
}

// SummarizeShiftLengths aggregates worked hours over valid punch pairs,
// optionally filtered by branch, shift window and day of week.
func SummarizeShiftLengths(snap *datastore.Snapshot, req *models.ShiftLengthSummaryRequest) (*models.Envelope, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	branch := req.Branch
	if branch != "" {
		resolved, ok := snap.ResolveBranch(branch)
		if !ok {
			return nil, utils.NewNotFoundError("branch", branch)
		}
		branch = resolved
	}

	summary := &ShiftLengthSummary{Branch: branch, ShiftName: req.ShiftName, DayOfWeek: req.DayOfWeek}
	env := models.NewEnvelope(summary)

	var hours []float64
	for _, p := range snap.BranchAttendance(branch) {
		if req.ShiftName != "" && p.Shift() != models.ShiftName(req.ShiftName) {
			continue
		}
		if req.DayOfWeek != "" && p.PunchIn.Weekday() != weekdayByName(req.DayOfWeek) {
			continue
		}
		if !p.Valid() {
			summary.InvalidPairs++
			continue
		}
		hours = append(hours, p.DurationHours())
	}
	summary.Punches = len(hours)
	env.AddCoverage("Summarized %d valid punch pairs; %d invalid pairs were dropped.", summary.Punches, summary.InvalidPairs)
	if len(hours) == 0 {
		env.AddCoverage("No valid punches matched the filters; hour figures are zero.")
		return env, nil
	}

	sort.Float64s(hours)
	var sum float64
	for _, h := range hours {
		sum += h
	}
	summary.MeanHours = utils.RoundTo(sum/float64(len(hours)), 2)
	summary.MedianHours = utils.RoundTo(medianOf(hours), 2)
	summary.ShortestHours = utils.RoundTo(hours[0], 2)
	summary.LongestHours = utils.RoundTo(hours[len(hours)-1], 2)

	env.SetEvidence("punches_summarized", summary.Punches)
	env.SetEvidence("mean_hours", summary.MeanHours)
	env.SetEvidence("median_hours", summary.MedianHours)
	return env, nil
}

// medianOf expects a sorted slice.
func medianOf(sorted []float64) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
