package datastore

import (
	"testing"
	"time"

	"github.com/mmdatafocus/insights_backend/models"
	"github.com/shopspring/decimal"
)

func line(order, branch, item string, qty int64) models.TransactionLine {
	return models.TransactionLine{
		OrderId:   order,
		Branch:    branch,
		Item:      item,
		Quantity:  decimal.NewFromInt(qty),
		NetAmount: decimal.NewFromInt(qty * 1000),
		Timestamp: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestResolveBranch(t *testing.T) {
	snap := NewSnapshot([]models.TransactionLine{
		line("o1", "Downtown", "Latte", 1),
		line("o2", "Airport Mall", "Latte", 1),
	}, nil, nil, "test")

	if got, ok := snap.ResolveBranch("downtown"); !ok || got != "Downtown" {
		t.Fatalf("exact normalized match failed: %q %v", got, ok)
	}
	if got, ok := snap.ResolveBranch("airport"); !ok || got != "Airport Mall" {
		t.Fatalf("unique partial match failed: %q %v", got, ok)
	}
	if _, ok := snap.ResolveBranch("riverside"); ok {
		t.Fatalf("unknown branch must not resolve")
	}
}

func TestResolveBranchAmbiguousPartial(t *testing.T) {
	snap := NewSnapshot([]models.TransactionLine{
		line("o1", "North Mall", "Latte", 1),
		line("o2", "South Mall", "Latte", 1),
	}, nil, nil, "test")
	if _, ok := snap.ResolveBranch("mall"); ok {
		t.Fatalf("ambiguous partial match must not resolve")
	}
}

func TestBasketsDerivation(t *testing.T) {
	lines := []models.TransactionLine{
		// qualifies: two distinct items, duplicate latte collapses
		line("o1", "Main", "Latte", 1),
		line("o1", "Main", "Latte", 2),
		line("o1", "Main", "Croissant", 1),
		// dropped to one item after trivial pruning: not a basket
		line("o2", "Main", "Latte", 1),
		line("o2", "Main", "Delivery Charge", 1),
		// refund line drops, leaving one item: not a basket
		line("o3", "Main", "Waffle", -1),
		line("o3", "Main", "Green Tea", 1),
		// excluded item drops
		line("o4", "Main", "Latte", 1),
		line("o4", "Main", "Waffle", 1),
		line("o4", "Main", "Water", 1),
	}
	snap := NewSnapshot(lines, nil, nil, "test")

	baskets, stats := snap.Baskets("Main", map[string]bool{"WATER": true})
	if len(baskets) != 2 {
		t.Fatalf("expected 2 qualifying baskets, got %d", len(baskets))
	}
	if stats.OrdersSeen != 4 || stats.OrdersQualifying != 2 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if stats.LinesDroppedQty != 1 || stats.LinesDroppedTrivial != 1 || stats.LinesDroppedExcluded != 1 {
		t.Fatalf("unexpected drop counters: %+v", stats)
	}

	first := baskets[0]
	if first.OrderId != "o1" || len(first.Items) != 2 || first.Items[0] != "CROISSANT" || first.Items[1] != "LATTE" {
		t.Fatalf("unexpected first basket: %+v", first)
	}
}

func TestBasketsAreDeterministic(t *testing.T) {
	lines := []models.TransactionLine{
		line("b", "Main", "Latte", 1),
		line("b", "Main", "Waffle", 1),
		line("a", "Main", "Mocha", 1),
		line("a", "Main", "Cookie", 1),
	}
	snap := NewSnapshot(lines, nil, nil, "test")
	first, _ := snap.Baskets("", nil)
	second, _ := snap.Baskets("", nil)
	if len(first) != 2 || first[0].OrderId != "a" || first[1].OrderId != "b" {
		t.Fatalf("baskets not ordered by order id: %+v", first)
	}
	for i := range first {
		if first[i].OrderId != second[i].OrderId {
			t.Fatalf("ordering differs between runs")
		}
	}
}

func TestBranchSalesSorted(t *testing.T) {
	sales := []models.BranchMonthlySales{
		{Branch: "Main", PeriodKey: "2024-03", TotalSales: decimal.NewFromInt(300)},
		{Branch: "Main", PeriodKey: "2024-01", TotalSales: decimal.NewFromInt(100)},
		{Branch: "Other", PeriodKey: "2024-02", TotalSales: decimal.NewFromInt(200)},
	}
	snap := NewSnapshot(nil, sales, nil, "test")
	got := snap.BranchSales("Main")
	if len(got) != 2 || got[0].PeriodKey != "2024-01" || got[1].PeriodKey != "2024-03" {
		t.Fatalf("sales not sorted oldest first: %+v", got)
	}
}
