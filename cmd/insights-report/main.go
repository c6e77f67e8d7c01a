package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/mmdatafocus/insights_backend/appctx"
	"github.com/mmdatafocus/insights_backend/config"
	"github.com/mmdatafocus/insights_backend/datastore"
	"github.com/mmdatafocus/insights_backend/models"
	"github.com/mmdatafocus/insights_backend/workflow"
	"github.com/xuri/excelize/v2"
)

const moduleName = "insights-report"

// insights-report runs the analytics engines over one snapshot and writes an
// XLSX workbook, one sheet per objective. Intended for weekly review packs;
// the API serves the same figures interactively.
func main() {
	csvDir := flag.String("csv", "", "load snapshot from this CSV directory instead of the database")
	outPath := flag.String("out", "insights-report.xlsx", "output workbook path")
	branch := flag.String("branch", "", "restrict combos/forecast/growth to one branch (default: network-wide where supported)")
	candidate := flag.String("candidate", "", "candidate location for the expansion sheet (skipped when empty)")
	flag.Parse()

	logger := config.GetLogger()
	var loader datastore.Loader
	if *csvDir != "" {
		loader = datastore.LoadFromCSVDir(*csvDir)
	} else {
		config.ConnectDatabaseWithRetry()
		loader = datastore.LoadFromDB(config.GetDB())
	}

	ctx := appctx.Set(context.Background(), appctx.ContextKeyRequestSource, "cli")
	snap, err := loader(ctx)
	if err != nil {
		config.LogError(logger, moduleName, "main", "snapshot load", nil, err)
		os.Exit(1)
	}
	config.LogInfo(logger, moduleName, "main",
		fmt.Sprintf("snapshot loaded: %d transactions, %d sales rows, %d punches, %d branches",
			len(snap.Transactions), len(snap.Sales), len(snap.Punches), len(snap.Branches())))

	book := excelize.NewFile()
	defer book.Close()

	writeCombosSheet(book, snap, *branch)
	writeForecastSheets(book, snap, *branch)
	writeStaffingSheet(book, snap)
	if *candidate != "" {
		writeExpansionSheet(book, snap, *candidate)
	}
	writeGrowthSheet(book, snap, *branch)

	book.DeleteSheet("Sheet1")
	if err := book.SaveAs(*outPath); err != nil {
		config.LogError(logger, moduleName, "main", "SaveAs "+*outPath, nil, err)
		os.Exit(1)
	}
	config.LogInfo(logger, moduleName, "main", "report written to "+*outPath)
}

func setRow(book *excelize.File, sheet string, row int, values ...any) {
	cell, _ := excelize.CoordinatesToCellName(1, row)
	_ = book.SetSheetRow(sheet, cell, &values)
}

// writeNotes appends the envelope's assumptions and coverage below the data
// rows so the workbook is self-describing.
func writeNotes(book *excelize.File, sheet string, row int, env *models.Envelope) {
	row++
	setRow(book, sheet, row, "Assumptions")
	for _, a := range env.Assumptions {
		row++
		setRow(book, sheet, row, "", a)
	}
	row++
	setRow(book, sheet, row, "Coverage")
	for _, c := range env.Coverage {
		row++
		setRow(book, sheet, row, "", c)
	}
}

func writeCombosSheet(book *excelize.File, snap *datastore.Snapshot, branch string) {
	const sheet = "Combos"
	_, _ = book.NewSheet(sheet)

	req := &models.ComboRequest{Branch: branch, TopN: 10}
	env, err := workflow.RecommendCombos(snap, req)
	if err != nil {
		setRow(book, sheet, 1, "error", err.Error())
		return
	}
	result := env.Result.(*workflow.ComboResult)

	setRow(book, sheet, 1, "Antecedent", "Consequent", "Support", "Confidence", "Lift")
	row := 1
	for _, rule := range result.Rules {
		row++
		setRow(book, sheet, row, rule.Antecedent, rule.Consequent, rule.Support, rule.Confidence, rule.Lift)
	}
	if len(result.HiddenGems) > 0 {
		row += 2
		setRow(book, sheet, row, "Hidden gems")
		for _, rule := range result.HiddenGems {
			row++
			setRow(book, sheet, row, rule.Antecedent, rule.Consequent, rule.Support, rule.Confidence, rule.Lift)
		}
	}
	writeNotes(book, sheet, row, env)
}

func writeForecastSheets(book *excelize.File, snap *datastore.Snapshot, branch string) {
	branches := snap.Branches()
	if branch != "" {
		branches = []string{branch}
	}
	const sheet = "Forecast"
	_, _ = book.NewSheet(sheet)

	setRow(book, sheet, 1, "Branch", "Date", "Day", "Forecast sales", "Weekday factor")
	row := 1
	for _, b := range branches {
		env, err := workflow.ForecastDemand(snap, &models.ForecastRequest{Branch: b})
		if err != nil {
			row++
			setRow(book, sheet, row, b, "error", err.Error())
			continue
		}
		result := env.Result.(*workflow.ForecastResult)
		for _, fr := range result.Rows {
			row++
			setRow(book, sheet, row, result.Branch, fr.Date, fr.DayOfWeek, fr.ForecastSales, fr.WeekdayFactor)
		}
	}
}

func writeStaffingSheet(book *excelize.File, snap *datastore.Snapshot) {
	const sheet = "Staffing"
	_, _ = book.NewSheet(sheet)

	env, err := workflow.RankUnderstaffedBranches(snap, &models.StaffingBenchmarkRequest{TopN: 20})
	if err != nil {
		setRow(book, sheet, 1, "error", err.Error())
		return
	}
	result := env.Result.(*workflow.StaffingBenchmarkResult)

	setRow(book, sheet, 1, "Branch", "Shift", "Recommended", "Observed avg", "Gap")
	row := 1
	for _, gap := range result.Branches {
		row++
		setRow(book, sheet, row, gap.Branch, result.ShiftName, gap.RecommendedStaff, gap.ObservedStaff, gap.Gap)
	}
	writeNotes(book, sheet, row, env)
}

func writeExpansionSheet(book *excelize.File, snap *datastore.Snapshot, candidate string) {
	const sheet = "Expansion"
	_, _ = book.NewSheet(sheet)

	env, err := workflow.ScoreExpansion(snap, &models.ExpansionRequest{CandidateLocation: candidate})
	if err != nil {
		setRow(book, sheet, 1, "error", err.Error())
		return
	}
	result := env.Result.(*workflow.ExpansionResult)

	setRow(book, sheet, 1, "Candidate", "Score", "Verdict", "Low confidence")
	setRow(book, sheet, 2, result.CandidateLocation, result.Score, result.Verdict, result.LowConfidence)
	setRow(book, sheet, 4, "Branch", "Avg monthly sales", "Avg MoM growth", "Stability", "Composite", "Similarity")
	row := 4
	for _, b := range result.Benchmarks {
		row++
		setRow(book, sheet, row, b.Branch, b.AvgMonthlySales, b.AvgMoMGrowth, b.Stability, b.Composite, b.Similarity)
	}
	writeNotes(book, sheet, row, env)
}

func writeGrowthSheet(book *excelize.File, snap *datastore.Snapshot, branch string) {
	const sheet = "Growth"
	_, _ = book.NewSheet(sheet)

	env, err := workflow.BuildGrowthStrategy(snap, &models.GrowthRequest{Branch: branch})
	if err != nil {
		setRow(book, sheet, 1, "error", err.Error())
		return
	}
	result := env.Result.(*workflow.GrowthResult)

	setRow(book, sheet, 1, "Branch", "Category", "Metric", "Branch value", "Network value", "Under-index", "Action")
	row := 1
	for _, play := range result.Plays {
		row++
		setRow(book, sheet, row, play.Branch, play.Category, play.Metric, play.BranchValue, play.NetworkValue, play.UnderIndex, play.Action)
	}
	writeNotes(book, sheet, row, env)
}
