// Package scoring computes deterministic priority orderings over SEO
// recommendations. All functions are pure; identical input always yields
// identical scores and order.
package scoring

import (
	"math"
	"sort"

	"github.com/rankcast/rankcast/pkg/models"
)

// Fixed lookup tables. Unrecognized effort defaults to 1 so priority division
// is always defined; unrecognized type takes the lowest multiplier.
var (
	effortScores = map[string]float64{
		models.LevelLow:    1,
		models.LevelMedium: 2,
		models.LevelHigh:   3,
	}

	baseImpacts = map[string]float64{
		models.LevelLow:    1,
		models.LevelMedium: 2,
		models.LevelHigh:   3,
	}

	typeMultipliers = map[models.RecommendationType]float64{
		models.TypeBacklink:  1.0,
		models.TypeContent:   0.9,
		models.TypeTechnical: 0.8,
		models.TypeOnPage:    0.7,
		models.TypeLocal:     0.6,
		models.TypeSchema:    0.5,
		models.TypeOther:     0.4,
	}

	effortPenalties = map[string]float64{
		models.LevelLow:    0,
		models.LevelMedium: -0.1,
		models.LevelHigh:   -0.2,
	}
)

// Score annotates each recommendation with impact, effort, and priority
// scores and returns them sorted by priority descending. The sort is stable:
// equal priorities keep their original relative order.
func Score(recs []models.SEORecommendation) []models.ScoredRecommendation {
	scored := make([]models.ScoredRecommendation, 0, len(recs))
	for _, rec := range recs {
		impact := ImpactScore(rec)
		effort := EffortScore(rec.Effort)
		scored = append(scored, models.ScoredRecommendation{
			SEORecommendation: rec,
			ImpactScore:       impact,
			EffortScore:       effort,
			PriorityScore:     impact / effort,
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].PriorityScore > scored[j].PriorityScore
	})

	return scored
}

// EffortScore maps an effort level to its numeric score in {1, 2, 3}.
func EffortScore(effort string) float64 {
	if s, ok := effortScores[effort]; ok {
		return s
	}
	return 1
}

// ImpactScore computes baseImpact * typeMultiplier + effortPenalty, rounded
// to two decimal places.
func ImpactScore(rec models.SEORecommendation) float64 {
	base, ok := baseImpacts[rec.Impact]
	if !ok {
		base = 1
	}
	mult, ok := typeMultipliers[rec.Type]
	if !ok {
		mult = typeMultipliers[models.TypeOther]
	}
	return round2(base*mult + effortPenalties[rec.Effort])
}

// round2 rounds to two decimal places, half away from zero.
func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
