package scoring

import (
	"testing"

	"github.com/rankcast/rankcast/pkg/models"
)

// --- ImpactScore tests ---

func TestImpactScore(t *testing.T) {
	tests := []struct {
		name     string
		rec      models.SEORecommendation
		expected float64
	}{
		{
			name:     "backlink high impact low effort",
			rec:      models.SEORecommendation{Type: models.TypeBacklink, Impact: models.LevelHigh, Effort: models.LevelLow},
			expected: 3.0,
		},
		{
			name:     "content medium impact medium effort",
			rec:      models.SEORecommendation{Type: models.TypeContent, Impact: models.LevelMedium, Effort: models.LevelMedium},
			expected: 1.7,
		},
		{
			name:     "schema low impact high effort",
			rec:      models.SEORecommendation{Type: models.TypeSchema, Impact: models.LevelLow, Effort: models.LevelHigh},
			expected: 0.3,
		},
		{
			name:     "technical high impact medium effort",
			rec:      models.SEORecommendation{Type: models.TypeTechnical, Impact: models.LevelHigh, Effort: models.LevelMedium},
			expected: 2.3,
		},
		{
			name:     "on-page medium impact low effort",
			rec:      models.SEORecommendation{Type: models.TypeOnPage, Impact: models.LevelMedium, Effort: models.LevelLow},
			expected: 1.4,
		},
		{
			name:     "local low impact low effort",
			rec:      models.SEORecommendation{Type: models.TypeLocal, Impact: models.LevelLow, Effort: models.LevelLow},
			expected: 0.6,
		},
		{
			name:     "other type gets lowest multiplier",
			rec:      models.SEORecommendation{Type: models.TypeOther, Impact: models.LevelHigh, Effort: models.LevelLow},
			expected: 1.2,
		},
		{
			name:     "unknown type treated as other",
			rec:      models.SEORecommendation{Type: "made-up", Impact: models.LevelHigh, Effort: models.LevelLow},
			expected: 1.2,
		},
		{
			name:     "unknown impact defaults to low",
			rec:      models.SEORecommendation{Type: models.TypeBacklink, Impact: "huge", Effort: models.LevelLow},
			expected: 1.0,
		},
		{
			name:     "unknown effort gets no penalty",
			rec:      models.SEORecommendation{Type: models.TypeBacklink, Impact: models.LevelHigh, Effort: "trivial"},
			expected: 3.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ImpactScore(tt.rec)
			if got != tt.expected {
				t.Errorf("ImpactScore() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestImpactScore_RoundedToTwoDecimals(t *testing.T) {
	// content medium: 2*0.9 - 0.1 would accumulate float error without rounding
	rec := models.SEORecommendation{Type: models.TypeContent, Impact: models.LevelMedium, Effort: models.LevelMedium}
	got := ImpactScore(rec)
	if got != 1.7 {
		t.Errorf("expected exactly 1.7, got %v", got)
	}
}

// --- EffortScore tests ---

func TestEffortScore(t *testing.T) {
	tests := []struct {
		effort   string
		expected float64
	}{
		{models.LevelLow, 1},
		{models.LevelMedium, 2},
		{models.LevelHigh, 3},
		{"unknown", 1},
		{"", 1},
	}

	for _, tt := range tests {
		t.Run(tt.effort, func(t *testing.T) {
			got := EffortScore(tt.effort)
			if got != tt.expected {
				t.Errorf("EffortScore(%q) = %v, want %v", tt.effort, got, tt.expected)
			}
		})
	}
}

// --- Score tests ---

func TestScore_PriorityOrdering(t *testing.T) {
	recs := []models.SEORecommendation{
		{Type: models.TypeSchema, Description: "add product schema", Impact: models.LevelLow, Effort: models.LevelHigh},
		{Type: models.TypeBacklink, Description: "earn links from industry press", Impact: models.LevelHigh, Effort: models.LevelLow},
		{Type: models.TypeContent, Description: "refresh pillar pages", Impact: models.LevelMedium, Effort: models.LevelMedium},
	}

	scored := Score(recs)

	if len(scored) != 3 {
		t.Fatalf("expected 3 scored recommendations, got %d", len(scored))
	}

	// backlink: 3.0/1 = 3.0, content: 1.7/2 = 0.85, schema: 0.3/3 = 0.1
	if scored[0].Type != models.TypeBacklink {
		t.Errorf("expected backlink first, got %s", scored[0].Type)
	}
	if scored[0].ImpactScore != 3.0 || scored[0].EffortScore != 1 || scored[0].PriorityScore != 3.0 {
		t.Errorf("backlink scores = (%v, %v, %v), want (3, 1, 3)",
			scored[0].ImpactScore, scored[0].EffortScore, scored[0].PriorityScore)
	}

	if scored[1].Type != models.TypeContent {
		t.Errorf("expected content second, got %s", scored[1].Type)
	}
	if scored[1].ImpactScore != 1.7 || scored[1].EffortScore != 2 || scored[1].PriorityScore != 0.85 {
		t.Errorf("content scores = (%v, %v, %v), want (1.7, 2, 0.85)",
			scored[1].ImpactScore, scored[1].EffortScore, scored[1].PriorityScore)
	}

	if scored[2].Type != models.TypeSchema {
		t.Errorf("expected schema last, got %s", scored[2].Type)
	}
	if scored[2].PriorityScore != 0.1 {
		t.Errorf("schema priority = %v, want 0.1", scored[2].PriorityScore)
	}
}

func TestScore_StableOnTies(t *testing.T) {
	// Two identical recommendations tie on priority; input order must hold.
	recs := []models.SEORecommendation{
		{Type: models.TypeContent, Description: "first", Impact: models.LevelMedium, Effort: models.LevelLow},
		{Type: models.TypeContent, Description: "second", Impact: models.LevelMedium, Effort: models.LevelLow},
		{Type: models.TypeContent, Description: "third", Impact: models.LevelMedium, Effort: models.LevelLow},
	}

	scored := Score(recs)

	for i, want := range []string{"first", "second", "third"} {
		if scored[i].Description != want {
			t.Errorf("position %d: expected %q, got %q", i, want, scored[i].Description)
		}
	}
}

func TestScore_DoesNotMutateInput(t *testing.T) {
	recs := []models.SEORecommendation{
		{Type: models.TypeSchema, Description: "a", Impact: models.LevelLow, Effort: models.LevelHigh},
		{Type: models.TypeBacklink, Description: "b", Impact: models.LevelHigh, Effort: models.LevelLow},
	}

	Score(recs)

	if recs[0].Description != "a" || recs[1].Description != "b" {
		t.Error("input slice order changed")
	}
}

func TestScore_EmptyInput(t *testing.T) {
	scored := Score(nil)
	if scored == nil {
		t.Fatal("expected non-nil empty slice, got nil")
	}
	if len(scored) != 0 {
		t.Errorf("expected 0 scored recommendations, got %d", len(scored))
	}
}

func TestScore_Deterministic(t *testing.T) {
	recs := []models.SEORecommendation{
		{Type: models.TypeTechnical, Impact: models.LevelHigh, Effort: models.LevelMedium},
		{Type: models.TypeOnPage, Impact: models.LevelMedium, Effort: models.LevelLow},
		{Type: models.TypeLocal, Impact: models.LevelLow, Effort: models.LevelLow},
	}

	first := Score(recs)
	second := Score(recs)

	for i := range first {
		if first[i].Type != second[i].Type ||
			first[i].ImpactScore != second[i].ImpactScore ||
			first[i].PriorityScore != second[i].PriorityScore {
			t.Errorf("position %d differs between runs: %+v vs %+v", i, first[i], second[i])
		}
	}
}
