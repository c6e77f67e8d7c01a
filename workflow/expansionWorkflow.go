package workflow

import (
	"math"
	"sort"

	"github.com/mmdatafocus/insights_backend/datastore"
	"github.com/mmdatafocus/insights_backend/models"
	"github.com/mmdatafocus/insights_backend/utils"
)

// Composite weights over the three normalized benchmark dimensions.
const (
	expansionWeightScale     = 0.40
	expansionWeightGrowth    = 0.35
	expansionWeightStability = 0.25

	// similarityFloor keeps every benchmark in the weighted mean; a branch
	// with no name overlap still says something about the business.
	similarityFloor = 0.10

	verdictHighMin     = 70.0
	verdictModerateMin = 40.0
)

// BranchBenchmark is one existing branch's contribution to the feasibility
// score.
type BranchBenchmark struct {
	Branch          string  `json:"branch"`
	PeriodsObserved int     `json:"periods_observed"`
	AvgMonthlySales float64 `json:"avg_monthly_sales"`
	AvgMoMGrowth    float64 `json:"avg_mom_growth"`
	Stability       float64 `json:"stability"`
	Composite       float64 `json:"composite"`
	Similarity      float64 `json:"similarity"`
}

type ExpansionResult struct {
	CandidateLocation string            `json:"candidate_location"`
	Score             float64           `json:"score"`
	Verdict           string            `json:"verdict"`
	LowConfidence     bool              `json:"low_confidence"`
	Benchmarks        []BranchBenchmark `json:"benchmarks"`
}

// ScoreExpansion rates a candidate location against the performance of the
// existing branch network. Each branch yields a composite of scale, growth
// and stability; composites are min-max normalized across branches, then
// averaged weighted by name similarity to the candidate. The score lands on
// a 0-100 scale with verdict bands at 70 and 40.
func ScoreExpansion(snap *datastore.Snapshot, req *models.ExpansionRequest) (*models.Envelope, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	benchmarks := buildBenchmarks(snap)
	result := &ExpansionResult{
		CandidateLocation: req.CandidateLocation,
		Verdict:           "low",
	}
	env := models.NewEnvelope(result)

	if req.TargetRegion != "" {
		regionTokens := utils.Tokenize(req.TargetRegion)
		var inRegion []BranchBenchmark
		for _, b := range benchmarks {
			if utils.TokenOverlap(regionTokens, utils.Tokenize(b.Branch)) > 0 {
				inRegion = append(inRegion, b)
			}
		}
		if len(inRegion) > 0 {
			benchmarks = inRegion
			env.AddCoverage("Benchmarks restricted to %d branches matching region '%s'.", len(benchmarks), req.TargetRegion)
		} else {
			env.AddAssumption("No branch name matches region '%s'; the whole network served as the benchmark set.", req.TargetRegion)
		}
	}
	if benchmarks == nil {
		benchmarks = []BranchBenchmark{}
	}
	result.Benchmarks = benchmarks
	env.AddAssumption("Branch composites weigh scale 0.40, month-over-month growth 0.35 and stability 0.25 after min-max normalization across the network.")
	env.AddAssumption("Benchmark weights come from token overlap between the candidate location and branch names, floored at 0.10 so every branch contributes.")
	env.AddCoverage("%d existing branches provided sales benchmarks.", len(benchmarks))

	if len(benchmarks) == 0 {
		result.LowConfidence = true
		env.AddCoverage("No branch has sales history; the score defaults to 0 and carries no signal.")
		return env, nil
	}
	if len(benchmarks) < 2 {
		result.LowConfidence = true
		env.AddAssumption("Only one benchmark branch exists; normalization is degenerate and the verdict should be treated as low-confidence.")
	}

	normalizeComposites(benchmarks)

	candidateTokens := utils.Tokenize(req.CandidateLocation + " " + req.TargetRegion)
	var weightedSum, weightTotal float64
	for i := range benchmarks {
		similarity := utils.TokenOverlap(candidateTokens, utils.Tokenize(benchmarks[i].Branch))
		if similarity < similarityFloor {
			similarity = similarityFloor
		}
		benchmarks[i].Similarity = utils.RoundTo(similarity, 4)
		weightedSum += benchmarks[i].Composite * similarity
		weightTotal += similarity
	}

	score := weightedSum / weightTotal * 100
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	result.Score = utils.RoundTo(score, 2)
	switch {
	case score >= verdictHighMin:
		result.Verdict = "high"
	case score >= verdictModerateMin:
		result.Verdict = "moderate"
	default:
		result.Verdict = "low"
	}

	env.SetEvidence("score", result.Score)
	env.SetEvidence("verdict", result.Verdict)
	env.SetEvidence("benchmark_count", len(benchmarks))
	env.SetEvidence("low_confidence", result.LowConfidence)
	return env, nil
}

// buildBenchmarks computes the raw per-branch figures from monthly sales:
// average monthly sales, average month-over-month growth, and stability as
// the inverse of the coefficient of variation.
func buildBenchmarks(snap *datastore.Snapshot) []BranchBenchmark {
	var out []BranchBenchmark
	for _, branch := range snap.Branches() {
		sales := snap.BranchSales(branch)
		if len(sales) == 0 {
			continue
		}
		values := make([]float64, len(sales))
		var sum float64
		for i, rec := range sales {
			values[i] = rec.TotalSales.InexactFloat64()
			sum += values[i]
		}
		mean := sum / float64(len(values))

		var growthSum float64
		growthTerms := 0
		for i := 1; i < len(values); i++ {
			if values[i-1] > 0 {
				growthSum += (values[i] - values[i-1]) / values[i-1]
				growthTerms++
			}
		}
		var growth float64
		if growthTerms > 0 {
			growth = growthSum / float64(growthTerms)
		}

		var variance float64
		for _, v := range values {
			variance += (v - mean) * (v - mean)
		}
		variance /= float64(len(values))
		stability := 1.0
		if mean > 0 {
			stability = 1 / (1 + math.Sqrt(variance)/mean)
		}

		out = append(out, BranchBenchmark{
			Branch:          branch,
			PeriodsObserved: len(sales),
			AvgMonthlySales: utils.RoundTo(mean, 2),
			AvgMoMGrowth:    utils.RoundTo(growth, 4),
			Stability:       utils.RoundTo(stability, 4),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Branch < out[j].Branch })
	return out
}

// normalizeComposites min-max normalizes each dimension across the
// benchmarks and fills the weighted composite. A dimension with no spread
// normalizes to 0.5 for every branch.
func normalizeComposites(benchmarks []BranchBenchmark) {
	norm := func(get func(BranchBenchmark) float64) []float64 {
		lo, hi := math.Inf(1), math.Inf(-1)
		for _, b := range benchmarks {
			v := get(b)
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
		out := make([]float64, len(benchmarks))
		for i, b := range benchmarks {
			if hi == lo {
				out[i] = 0.5
			} else {
				out[i] = (get(b) - lo) / (hi - lo)
			}
		}
		return out
	}
	scale := norm(func(b BranchBenchmark) float64 { return b.AvgMonthlySales })
	growth := norm(func(b BranchBenchmark) float64 { return b.AvgMoMGrowth })
	stability := norm(func(b BranchBenchmark) float64 { return b.Stability })
	for i := range benchmarks {
		benchmarks[i].Composite = utils.RoundTo(
			expansionWeightScale*scale[i]+expansionWeightGrowth*growth[i]+expansionWeightStability*stability[i], 4)
	}
}
