// Package portfolio manages the user's weighted holdings and the analytics
// derived from them.
package portfolio

import (
	"github.com/shopspring/decimal"

	"github.com/roshan4665/fundfolio/internal/models"
)

// round2 rounds to 2 decimal places, half away from zero.
func round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// TotalWeeklyInvestment sums the weekly contribution across holdings.
func TotalWeeklyInvestment(holdings []models.PortfolioHolding) float64 {
	total := 0.0
	for _, h := range holdings {
		total += h.WeeklyInvestment
	}
	return total
}

// ComputeAllocation computes the investment-weighted market-cap breakdown.
//
// A holding that does not report a bucket contributes 0 to that bucket's
// numerator but its full investment still counts in the shared denominator:
// unreported composition is conservatively treated as 0% of the bucket. A
// zero total investment yields all-zero percentages by definition, not as a
// division guard.
func ComputeAllocation(holdings []models.PortfolioHolding) models.AllocationResult {
	total := TotalWeeklyInvestment(holdings)
	if total == 0 {
		return models.AllocationResult{}
	}

	var large, mid, small float64
	for _, h := range holdings {
		large += bucketOrZero(h.Fund.PercentLargecapHolding) * h.WeeklyInvestment
		mid += bucketOrZero(h.Fund.PercentMidcapHolding) * h.WeeklyInvestment
		small += bucketOrZero(h.Fund.PercentSmallcapHolding) * h.WeeklyInvestment
	}

	return models.AllocationResult{
		LargeCapPercentage: round2(large / total),
		MidCapPercentage:   round2(mid / total),
		SmallCapPercentage: round2(small / total),
	}
}

func bucketOrZero(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

// ComputeStats computes weighted-average scalar metrics. Unlike the bucket
// calculation, a holding that does not report a metric is excluded from both
// the numerator and the denominator — an unreported fund metric must not
// silently bias the average toward zero. When no holding reports the metric,
// or the reporting holdings carry zero investment, the average is nil.
func ComputeStats(holdings []models.PortfolioHolding) models.AggregateStats {
	return models.AggregateStats{
		TotalWeeklyInvestment:       TotalWeeklyInvestment(holdings),
		WeightedAverageExpenseRatio: weightedAverage(holdings, func(f *models.MutualFund) *float64 { return f.ExpenseRatio }),
		WeightedAverageCagr3y:       weightedAverage(holdings, func(f *models.MutualFund) *float64 { return f.Cagr3y }),
	}
}

func weightedAverage(holdings []models.PortfolioHolding, metric func(*models.MutualFund) *float64) *float64 {
	var sum, weight float64
	for i := range holdings {
		m := metric(&holdings[i].Fund)
		if m == nil {
			continue
		}
		sum += *m * holdings[i].WeeklyInvestment
		weight += holdings[i].WeeklyInvestment
	}
	if weight == 0 {
		return nil
	}
	avg := sum / weight
	return &avg
}
