// Package models contains shared data models used across the RankCast codebase.
package models

// RecommendationType classifies a proposed SEO improvement.
type RecommendationType string

const (
	TypeTechnical RecommendationType = "technical"
	TypeContent   RecommendationType = "content"
	TypeBacklink  RecommendationType = "backlink"
	TypeOnPage    RecommendationType = "on-page"
	TypeLocal     RecommendationType = "local"
	TypeSchema    RecommendationType = "schema"
	TypeOther     RecommendationType = "other"
)

// Effort and impact levels used on recommendations.
const (
	LevelLow    = "low"
	LevelMedium = "medium"
	LevelHigh   = "high"
)

// SEORecommendation is a candidate improvement as submitted by the caller.
// It is immutable once scored; scores live on ScoredRecommendation and are
// never written back.
type SEORecommendation struct {
	Type        RecommendationType `json:"type"`
	Description string             `json:"description"`
	Effort      string             `json:"effort"`
	Impact      string             `json:"impact"`
	Keywords    []string           `json:"keywords,omitempty"`
	Category    string             `json:"category,omitempty"`
}

// ScoredRecommendation annotates a recommendation with derived priority
// scores for the duration of a single forecasting run.
type ScoredRecommendation struct {
	SEORecommendation
	ImpactScore   float64 `json:"impact_score"`
	EffortScore   float64 `json:"effort_score"`
	PriorityScore float64 `json:"priority_score"`
}
