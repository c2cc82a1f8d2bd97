package portfolio

import (
	"math"

	"github.com/roshan4665/fundfolio/internal/models"
)

// ForecastYears is the projection horizon in whole years.
const ForecastYears = 20

// WeeksPerYear converts a weekly contribution to an annual one.
const WeeksPerYear = 52

// futureValueAnnuity computes the future value of a recurring annual
// contribution using the ordinary annuity formula:
//
//	FV = P * ((1+r)^n - 1) / r    (r != 0)
//	FV = P * n                    (r == 0)
func futureValueAnnuity(annualContribution, rate float64, years int) float64 {
	if rate == 0 {
		return annualContribution * float64(years)
	}
	return annualContribution * (math.Pow(1+rate, float64(years)) - 1) / rate
}

// ComputeForecast projects portfolio value for years 0..ForecastYears from a
// weekly contribution and an annual growth rate in percent (e.g. 12.5).
//
// A non-positive growth rate or contribution yields no series at all: a flat
// or shrinking forecast line is misleading, so the caller is expected to show
// a "not available" state instead. Year 0 is always zero — no time elapsed,
// no contribution received.
func ComputeForecast(weeklyInvestment float64, annualCagrPercent *float64) []models.ForecastPoint {
	if annualCagrPercent == nil || *annualCagrPercent <= 0 || weeklyInvestment <= 0 {
		return nil
	}

	rate := *annualCagrPercent / 100
	annual := weeklyInvestment * WeeksPerYear

	points := make([]models.ForecastPoint, 0, ForecastYears+1)
	for year := 0; year <= ForecastYears; year++ {
		if year == 0 {
			points = append(points, models.ForecastPoint{Year: 0})
			continue
		}
		points = append(points, models.ForecastPoint{
			Year:           year,
			ProjectedValue: math.Round(futureValueAnnuity(annual, rate, year)),
			TotalInvested:  math.Round(annual * float64(year)),
		})
	}
	return points
}
