package workflow

import (
	"sort"
	"strings"

	"github.com/mmdatafocus/insights_backend/datastore"
	"github.com/mmdatafocus/insights_backend/models"
	"github.com/mmdatafocus/insights_backend/utils"
)

// ComboRule is one ranked two-item association. Antecedent/consequent are
// oriented so the reported confidence is the higher of the two directions
// (anchored on the anchor item in with_item mode).
type ComboRule struct {
	Antecedent         string          `json:"antecedent"`
	Consequent         string          `json:"consequent"`
	PairKey            string          `json:"pair_key"`
	Support            float64         `json:"support"`
	Confidence         float64         `json:"confidence"`
	Lift               float64         `json:"lift"`
	AntecedentSupport  float64         `json:"antecedent_support"`
	ConsequentSupport  float64         `json:"consequent_support"`
	AntecedentCategory models.Category `json:"antecedent_category"`
	ConsequentCategory models.Category `json:"consequent_category"`
}

type ComboResult struct {
	Mode           string      `json:"mode"`
	Rules          []ComboRule `json:"rules"`
	HiddenGems     []ComboRule `json:"hidden_gems"`
	ResolvedAnchor string      `json:"resolved_anchor,omitempty"`
}

// Hidden gems are strong but still-rare pairings worth testing as
// promotions: high lift, low support.
const (
	hiddenGemMinLift    = 1.25
	hiddenGemMaxSupport = 0.12
)

// RecommendCombos mines frequent item co-occurrence from basket data and
// ranks candidate two-item combos by lift, then support, then pair key.
func RecommendCombos(snap *datastore.Snapshot, req *models.ComboRequest) (*models.Envelope, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if req.Mode == models.ComboModeBranchPairs && strings.TrimSpace(req.Branch) == "" {
		return nil, utils.NewValidationError("mode 'branch_pairs' requires branch")
	}

	if req.Branch != "" {
		// Unresolvable branches fall through: zero baskets is a coverage
		// note, not an error, for combo mining.
		if resolved, ok := snap.ResolveBranch(req.Branch); ok {
			req.Branch = resolved
		}
	}

	excluded := map[string]bool{}
	for _, item := range req.ExcludeItems {
		if normalized := utils.NormalizeItemName(item); normalized != "" {
			excluded[normalized] = true
		}
	}

	baskets, stats := snap.Baskets(req.Branch, excluded)
	result := &ComboResult{Mode: req.Mode, Rules: []ComboRule{}, HiddenGems: []ComboRule{}}
	env := models.NewEnvelope(result)
	env.AddAssumption("Rules are mined with frequent-item pruning on single products, then two-item association scoring with support, confidence and lift.")
	env.AddAssumption("Modifier and service lines are pruned before mining; only orders with at least two distinct remaining items qualify as baskets.")
	describeBasketCoverage(env, req.Branch, stats)

	if len(baskets) == 0 {
		env.AddCoverage("No qualifying baskets; thresholds were never evaluated.")
		return env, nil
	}

	totalBaskets := float64(len(baskets))
	itemCount := map[string]int{}
	for _, basket := range baskets {
		for _, item := range basket.Items {
			itemCount[item]++
		}
	}

	anchor := resolveAnchorItem(req.AnchorItem, itemCount)
	if req.Mode == models.ComboModeWithItem {
		result.ResolvedAnchor = anchor
		if anchor != utils.NormalizeItemName(req.AnchorItem) {
			env.AddCoverage("Anchor item '%s' resolved to '%s' by partial match.", req.AnchorItem, anchor)
		}
	}

	pairCount := map[[2]string]int{}
	for _, basket := range baskets {
		items := basket.Items // already sorted and distinct
		for i := 0; i < len(items); i++ {
			for j := i + 1; j < len(items); j++ {
				pairCount[[2]string{items[i], items[j]}]++
			}
		}
	}

	included := map[models.Category]bool{}
	for _, c := range req.IncludeCategories {
		cat, _ := models.ParseCategory(c)
		included[cat] = true
	}

	var rules []ComboRule
	for pair, count := range pairCount {
		support := float64(count) / totalBaskets
		if support < *req.MinSupport {
			continue
		}
		left, right := pair[0], pair[1]
		leftSupport := float64(itemCount[left]) / totalBaskets
		rightSupport := float64(itemCount[right]) / totalBaskets
		lift := support / (leftSupport * rightSupport)
		if lift < *req.MinLift {
			continue
		}

		rule := orientRule(left, right, support, leftSupport, rightSupport, lift, anchor, req.Mode)
		if rule.Confidence < *req.MinConfidence {
			continue
		}
		if len(included) > 0 && (!included[rule.AntecedentCategory] || !included[rule.ConsequentCategory]) {
			continue
		}
		if req.Mode == models.ComboModeWithItem && rule.Antecedent != anchor && rule.Consequent != anchor {
			continue
		}
		rules = append(rules, rule)
	}

	sortRules(rules)

	env.SetEvidence("baskets_analyzed", len(baskets))
	env.SetEvidence("items_considered", len(itemCount))
	env.SetEvidence("candidate_pairs_evaluated", len(pairCount))
	env.SetEvidence("rules_qualifying", len(rules))
	env.SetEvidence("thresholds", map[string]float64{
		"min_support":    *req.MinSupport,
		"min_confidence": *req.MinConfidence,
		"min_lift":       *req.MinLift,
	})

	if len(rules) == 0 {
		env.AddCoverage("No item pair met the support/confidence/lift thresholds.")
		return env, nil
	}

	result.HiddenGems = selectHiddenGems(rules, req.TopN)
	if len(rules) > req.TopN {
		rules = rules[:req.TopN]
	}
	result.Rules = rules
	return env, nil
}

func describeBasketCoverage(env *models.Envelope, branch string, stats datastore.BasketStats) {
	scope := "all branches"
	if branch != "" {
		scope = "branch '" + branch + "'"
	}
	env.AddCoverage("Scanned %d transaction lines for %s; %d of %d orders qualified as baskets.",
		stats.LinesSeen, scope, stats.OrdersQualifying, stats.OrdersSeen)
	if dropped := stats.LinesDroppedQty + stats.LinesDroppedTrivial + stats.LinesDroppedExcluded; dropped > 0 {
		env.AddCoverage("Dropped %d lines before mining (%d non-positive quantity, %d modifiers/add-ons, %d excluded items).",
			dropped, stats.LinesDroppedQty, stats.LinesDroppedTrivial, stats.LinesDroppedExcluded)
	}
}

// resolveAnchorItem maps a requested anchor onto a mined item name: exact
// normalized match first, then the alphabetically first partial match.
func resolveAnchorItem(anchorItem string, itemCount map[string]int) string {
	normalized := utils.NormalizeItemName(anchorItem)
	if normalized == "" {
		return ""
	}
	if _, ok := itemCount[normalized]; ok {
		return normalized
	}
	var partial []string
	for item := range itemCount {
		if strings.Contains(item, normalized) || strings.Contains(normalized, item) {
			partial = append(partial, item)
		}
	}
	if len(partial) > 0 {
		sort.Strings(partial)
		return partial[0]
	}
	return normalized
}

// orientRule picks the reported direction for an unordered pair: the anchor
// leads in with_item mode, otherwise the direction with the higher
// confidence (ties break alphabetically, which left/right already are).
func orientRule(left, right string, support, leftSupport, rightSupport, lift float64, anchor, mode string) ComboRule {
	antecedent, consequent := left, right
	antSupport, conSupport := leftSupport, rightSupport

	swap := false
	if mode == models.ComboModeWithItem && right == anchor && left != anchor {
		swap = true
	} else if mode != models.ComboModeWithItem && rightSupport < leftSupport {
		// Smaller antecedent support yields the higher confidence.
		swap = true
	}
	if swap {
		antecedent, consequent = right, left
		antSupport, conSupport = rightSupport, leftSupport
	}

	return ComboRule{
		Antecedent:         antecedent,
		Consequent:         consequent,
		PairKey:            left + " + " + right,
		Support:            utils.RoundTo(support, 4),
		Confidence:         utils.RoundTo(support/antSupport, 4),
		Lift:               utils.RoundTo(lift, 4),
		AntecedentSupport:  utils.RoundTo(antSupport, 4),
		ConsequentSupport:  utils.RoundTo(conSupport, 4),
		AntecedentCategory: models.Categorize(antecedent),
		ConsequentCategory: models.Categorize(consequent),
	}
}

// sortRules is the deterministic ranking: lift descending, support
// descending, then alphabetical pair key.
func sortRules(rules []ComboRule) {
	sort.Slice(rules, func(i, j int) bool {
		if rules[i].Lift != rules[j].Lift {
			return rules[i].Lift > rules[j].Lift
		}
		if rules[i].Support != rules[j].Support {
			return rules[i].Support > rules[j].Support
		}
		return rules[i].PairKey < rules[j].PairKey
	})
}

// selectHiddenGems keeps qualifying rules that are strong but rare,
// preferring beverage-led cross-category pairings when any exist.
func selectHiddenGems(rules []ComboRule, topN int) []ComboRule {
	var candidates []ComboRule
	for _, rule := range rules {
		if rule.Lift >= hiddenGemMinLift && rule.Support <= hiddenGemMaxSupport {
			candidates = append(candidates, rule)
		}
	}
	var beverageLed []ComboRule
	for _, rule := range candidates {
		if rule.AntecedentCategory != rule.ConsequentCategory &&
			(rule.AntecedentCategory.IsBeverage() || rule.ConsequentCategory.IsBeverage()) {
			beverageLed = append(beverageLed, rule)
		}
	}
	picked := candidates
	if len(beverageLed) > 0 {
		picked = beverageLed
	}
	if len(picked) > topN {
		picked = picked[:topN]
	}
	if picked == nil {
		picked = []ComboRule{}
	}
	return picked
}
