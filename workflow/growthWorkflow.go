package workflow

import (
	"sort"

	"github.com/mmdatafocus/insights_backend/datastore"
	"github.com/mmdatafocus/insights_backend/models"
	"github.com/mmdatafocus/insights_backend/utils"
)

const (
	metricRevenueShare = "revenue_share"
	metricUnitShare    = "unit_share"
	metricAttachRate   = "attach_rate"
)

// categoryMetrics are one scope's (branch or network) figures for one
// category.
type categoryMetrics struct {
	RevenueShare float64
	UnitShare    float64
	AttachRate   float64
	Orders       int
}

// GrowthPlay is one recommended action: the branch-category combination, the
// metric it under-indexes on against the network, and the play template for
// that metric.
type GrowthPlay struct {
	Branch       string  `json:"branch"`
	Category     string  `json:"category"`
	Metric       string  `json:"metric"`
	BranchValue  float64 `json:"branch_value"`
	NetworkValue float64 `json:"network_value"`
	UnderIndex   float64 `json:"under_index"`
	Action       string  `json:"action"`
}

type GrowthResult struct {
	FocusCategories []string     `json:"focus_categories"`
	Plays           []GrowthPlay `json:"plays"`
}

// BuildGrowthStrategy finds where focus categories under-perform the network
// and attaches a concrete play to the weakest metric of each branch-category
// pair. Revenue share, unit share and attach rate are compared against the
// all-branch figures; the most under-indexed metric picks the play.
func BuildGrowthStrategy(snap *datastore.Snapshot, req *models.GrowthRequest) (*models.Envelope, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	branches := snap.Branches()
	if req.Branch != "" {
		resolved, ok := snap.ResolveBranch(req.Branch)
		if !ok {
			return nil, utils.NewNotFoundError("branch", req.Branch)
		}
		branches = []string{resolved}
	}

	result := &GrowthResult{FocusCategories: req.FocusCategories, Plays: []GrowthPlay{}}
	env := models.NewEnvelope(result)
	env.AddAssumption("Items are categorized by menu keyword rules, not by the stored category column, so misfiled lines group consistently.")
	env.AddAssumption("A play is raised only where a branch metric indexes below the network figure; the weakest metric picks the play template.")

	network := map[string]categoryMetrics{}
	for _, category := range req.FocusCategories {
		network[category] = scopeMetrics(snap, "", models.Category(category))
	}

	ordersSeen := false
	for _, branch := range branches {
		for _, category := range req.FocusCategories {
			net := network[category]
			if net.Orders == 0 {
				continue
			}
			branchMetrics := scopeMetrics(snap, branch, models.Category(category))
			if branchMetrics.Orders == 0 {
				continue
			}
			ordersSeen = true
			if play, ok := weakestMetricPlay(branch, category, branchMetrics, net); ok {
				result.Plays = append(result.Plays, play)
			}
		}
	}

	sort.Slice(result.Plays, func(i, j int) bool {
		if result.Plays[i].UnderIndex != result.Plays[j].UnderIndex {
			return result.Plays[i].UnderIndex > result.Plays[j].UnderIndex
		}
		if result.Plays[i].Branch != result.Plays[j].Branch {
			return result.Plays[i].Branch < result.Plays[j].Branch
		}
		return result.Plays[i].Category < result.Plays[j].Category
	})

	env.SetEvidence("branches_evaluated", len(branches))
	env.SetEvidence("plays_raised", len(result.Plays))
	for _, category := range req.FocusCategories {
		net := network[category]
		env.SetEvidence("network_"+category, map[string]float64{
			metricRevenueShare: utils.RoundTo(net.RevenueShare, 4),
			metricUnitShare:    utils.RoundTo(net.UnitShare, 4),
			metricAttachRate:   utils.RoundTo(net.AttachRate, 4),
		})
	}
	env.AddCoverage("Compared %d branches against network figures for categories %v.", len(branches), req.FocusCategories)
	if len(result.Plays) == 0 {
		if !ordersSeen {
			env.AddCoverage("No qualifying orders in scope; nothing to compare.")
		} else {
			env.AddCoverage("Every evaluated branch indexes at or above the network on all focus-category metrics.")
		}
	}
	return env, nil
}

// scopeMetrics aggregates the category's revenue share, unit share and
// attach rate over the scope's transaction lines. Attach rate counts orders
// where the category appears alongside at least one other category. Empty
// branch means the whole network.
func scopeMetrics(snap *datastore.Snapshot, branch string, category models.Category) categoryMetrics {
	var totalRevenue, categoryRevenue float64
	var totalUnits, categoryUnits float64
	inCategory := map[string]bool{}
	outsideCategory := map[string]bool{}

	for _, line := range snap.BranchTransactions(branch) {
		if line.Quantity.Sign() <= 0 {
			continue
		}
		item := utils.NormalizeItemName(line.Item)
		if models.IsTrivialItem(item) {
			continue
		}
		revenue := line.NetAmount.InexactFloat64()
		units := line.Quantity.InexactFloat64()
		totalRevenue += revenue
		totalUnits += units
		if models.Categorize(item) == category {
			categoryRevenue += revenue
			categoryUnits += units
			inCategory[line.OrderId] = true
		} else {
			outsideCategory[line.OrderId] = true
		}
	}

	orders := map[string]bool{}
	for id := range inCategory {
		orders[id] = true
	}
	for id := range outsideCategory {
		orders[id] = true
	}
	attached := 0
	for id := range inCategory {
		if outsideCategory[id] {
			attached++
		}
	}

	m := categoryMetrics{Orders: len(orders)}
	if totalRevenue > 0 {
		m.RevenueShare = categoryRevenue / totalRevenue
	}
	if totalUnits > 0 {
		m.UnitShare = categoryUnits / totalUnits
	}
	if len(orders) > 0 {
		m.AttachRate = float64(attached) / float64(len(orders))
	}
	return m
}

// weakestMetricPlay computes the branch/network index per metric and raises
// a play for the weakest one when it sits below parity.
func weakestMetricPlay(branch, category string, b, net categoryMetrics) (GrowthPlay, bool) {
	type comparison struct {
		metric   string
		branch   float64
		network  float64
		template string
	}
	comparisons := []comparison{
		{metricAttachRate, b.AttachRate, net.AttachRate, "Bundle " + category + " items into checkout combos to lift attach rate."},
		{metricRevenueShare, b.RevenueShare, net.RevenueShare, "Improve menu placement and visibility for " + category + " to lift revenue share."},
		{metricUnitShare, b.UnitShare, net.UnitShare, "Introduce price-entry " + category + " offers to lift unit share."},
	}

	best := GrowthPlay{}
	found := false
	for _, c := range comparisons {
		if c.network <= 0 {
			continue
		}
		underIndex := 1 - c.branch/c.network
		if underIndex <= 0 {
			continue
		}
		if !found || underIndex > best.UnderIndex {
			best = GrowthPlay{
				Branch:       branch,
				Category:     category,
				Metric:       c.metric,
				BranchValue:  utils.RoundTo(c.branch, 4),
				NetworkValue: utils.RoundTo(c.network, 4),
				UnderIndex:   utils.RoundTo(underIndex, 4),
				Action:       c.template,
			}
			found = true
		}
	}
	return best, found
}
