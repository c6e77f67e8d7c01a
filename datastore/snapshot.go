package datastore

import (
	"sort"
	"strings"
	"time"

	"github.com/mmdatafocus/insights_backend/models"
	"github.com/mmdatafocus/insights_backend/utils"
)

// Snapshot is one immutable view of the cleaned tabular data. Engines hold a
// *Snapshot for the duration of a request and never mutate it; reloads build
// a fresh Snapshot and atomically swap it in (see Store).
type Snapshot struct {
	Transactions []models.TransactionLine
	Sales        []models.BranchMonthlySales
	Punches      []models.AttendancePunch

	LoadedAt time.Time
	Source   string

	branches     []string
	normBranches map[string]string
}

// NewSnapshot builds the branch indexes over the three tables. The slices
// are owned by the snapshot after this call.
func NewSnapshot(lines []models.TransactionLine, sales []models.BranchMonthlySales, punches []models.AttendancePunch, source string) *Snapshot {
	s := &Snapshot{
		Transactions: lines,
		Sales:        sales,
		Punches:      punches,
		LoadedAt:     time.Now().UTC(),
		Source:       source,
		normBranches: map[string]string{},
	}
	addBranch := func(name string) {
		norm := utils.NormalizeBranchName(name)
		if norm == "" {
			return
		}
		if _, ok := s.normBranches[norm]; !ok {
			s.normBranches[norm] = name
			s.branches = append(s.branches, name)
		}
	}
	for i := range lines {
		addBranch(lines[i].Branch)
	}
	for i := range sales {
		addBranch(sales[i].Branch)
	}
	for i := range punches {
		addBranch(punches[i].Branch)
	}
	sort.Strings(s.branches)
	return s
}

// Branches returns all known branch display names, sorted.
func (s *Snapshot) Branches() []string {
	out := make([]string, len(s.branches))
	copy(out, s.branches)
	return out
}

// ResolveBranch matches a requested branch name against the known branches:
// exact normalized match first, then a unique partial match in either
// direction. Returns the canonical display name.
func (s *Snapshot) ResolveBranch(name string) (string, bool) {
	norm := utils.NormalizeBranchName(name)
	if norm == "" {
		return "", false
	}
	if display, ok := s.normBranches[norm]; ok {
		return display, true
	}
	var partial []string
	for candidate, display := range s.normBranches {
		if strings.Contains(candidate, norm) || strings.Contains(norm, candidate) {
			partial = append(partial, display)
		}
	}
	if len(partial) == 1 {
		return partial[0], true
	}
	return "", false
}

func sameBranch(a, b string) bool {
	return utils.NormalizeBranchName(a) == utils.NormalizeBranchName(b)
}

// BranchTransactions returns the branch's transaction lines; an empty branch
// returns every line. The result is a fresh slice.
func (s *Snapshot) BranchTransactions(branch string) []models.TransactionLine {
	if branch == "" {
		out := make([]models.TransactionLine, len(s.Transactions))
		copy(out, s.Transactions)
		return out
	}
	var out []models.TransactionLine
	for _, line := range s.Transactions {
		if sameBranch(line.Branch, branch) {
			out = append(out, line)
		}
	}
	return out
}

// BranchSales returns the branch's monthly sales records sorted by period,
// oldest first. An empty branch returns all records.
func (s *Snapshot) BranchSales(branch string) []models.BranchMonthlySales {
	var out []models.BranchMonthlySales
	for _, rec := range s.Sales {
		if branch == "" || sameBranch(rec.Branch, branch) {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].PeriodKey != out[j].PeriodKey {
			return out[i].PeriodKey < out[j].PeriodKey
		}
		return out[i].Branch < out[j].Branch
	})
	return out
}

// BranchAttendance returns the branch's attendance punches. An empty branch
// returns all punches.
func (s *Snapshot) BranchAttendance(branch string) []models.AttendancePunch {
	var out []models.AttendancePunch
	for _, p := range s.Punches {
		if branch == "" || sameBranch(p.Branch, branch) {
			out = append(out, p)
		}
	}
	return out
}

// BasketStats describes what basket derivation kept and dropped, for
// coverage reporting.
type BasketStats struct {
	LinesSeen            int
	LinesDroppedQty      int
	LinesDroppedTrivial  int
	LinesDroppedExcluded int
	OrdersSeen           int
	OrdersQualifying     int
}

// Baskets derives qualifying baskets from the branch's transaction lines:
// non-positive quantity lines, modifier/add-on lines and explicitly excluded
// items are dropped, duplicate items collapse to one membership entry, and
// only orders left with at least two distinct items qualify for pair mining.
// excludedItems must hold normalized item names.
func (s *Snapshot) Baskets(branch string, excludedItems map[string]bool) ([]models.Basket, BasketStats) {
	lines := s.BranchTransactions(branch)
	stats := BasketStats{LinesSeen: len(lines)}

	type orderAgg struct {
		branch string
		items  map[string]bool
	}
	orders := map[string]*orderAgg{}
	var orderIds []string
	for _, line := range lines {
		key := line.OrderId + "|" + utils.NormalizeBranchName(line.Branch)
		agg, ok := orders[key]
		if !ok {
			agg = &orderAgg{branch: line.Branch, items: map[string]bool{}}
			orders[key] = agg
			orderIds = append(orderIds, key)
		}
		if line.Quantity.Sign() <= 0 {
			stats.LinesDroppedQty++
			continue
		}
		item := utils.NormalizeItemName(line.Item)
		if excludedItems[item] {
			stats.LinesDroppedExcluded++
			continue
		}
		if models.IsTrivialItem(item) {
			stats.LinesDroppedTrivial++
			continue
		}
		agg.items[item] = true
	}
	stats.OrdersSeen = len(orders)

	sort.Strings(orderIds)
	var baskets []models.Basket
	for _, key := range orderIds {
		agg := orders[key]
		if len(agg.items) < 2 {
			continue
		}
		items := make([]string, 0, len(agg.items))
		for item := range agg.items {
			items = append(items, item)
		}
		sort.Strings(items)
		baskets = append(baskets, models.Basket{
			OrderId: strings.SplitN(key, "|", 2)[0],
			Branch:  agg.branch,
			Items:   items,
		})
	}
	stats.OrdersQualifying = len(baskets)
	return baskets, stats
}
