package models

import (
	"encoding/json"
	"fmt"
)

// PortfolioHolding is a MutualFund the user holds plus the recurring weekly
// contribution tagged to it. WeeklyInvestment is validated at the API
// boundary and is never negative inside the model.
type PortfolioHolding struct {
	Fund             MutualFund
	WeeklyInvestment float64
}

// MarshalJSON renders the holding as the fund's flat object with a
// weeklyInvestment key, the wire shape of the persisted portfolio blob.
func (h PortfolioHolding) MarshalJSON() ([]byte, error) {
	out := h.Fund.asMap()
	wi, err := json.Marshal(h.WeeklyInvestment)
	if err != nil {
		return nil, err
	}
	out["weeklyInvestment"] = wi
	return json.Marshal(out)
}

// UnmarshalJSON parses the flat holding object. A missing or non-numeric
// weeklyInvestment is invalid: the persisted blob always carries it.
func (h *PortfolioHolding) UnmarshalJSON(data []byte) error {
	var fund MutualFund
	if err := json.Unmarshal(data, &fund); err != nil {
		return err
	}

	var envelope struct {
		WeeklyInvestment *float64 `json:"weeklyInvestment"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return err
	}
	if envelope.WeeklyInvestment == nil {
		return fmt.Errorf("holding %q missing weeklyInvestment", fund.Name)
	}

	// weeklyInvestment is an envelope key, not a fund metric.
	delete(fund.Extra, "weeklyInvestment")

	h.Fund = fund
	h.WeeklyInvestment = *envelope.WeeklyInvestment
	return nil
}

// AllocationResult is the weighted market-cap breakdown of a portfolio.
// Percentages are in [0,100], rounded to 2 decimal places.
type AllocationResult struct {
	LargeCapPercentage float64 `json:"largeCapPercentage"`
	MidCapPercentage   float64 `json:"midCapPercentage"`
	SmallCapPercentage float64 `json:"smallCapPercentage"`
}

// AggregateStats holds weighted-average portfolio metrics. A nil value means
// no holding in the portfolio reports that metric (or the reporting holdings
// carry zero investment) — distinct from a true zero average.
type AggregateStats struct {
	TotalWeeklyInvestment       float64  `json:"totalWeeklyInvestment"`
	WeightedAverageExpenseRatio *float64 `json:"weightedAverageExpenseRatio"`
	WeightedAverageCagr3y       *float64 `json:"weightedAverageCagr3y"`
}

// ForecastPoint is one year of the projected-value series.
type ForecastPoint struct {
	Year           int     `json:"year"`
	ProjectedValue float64 `json:"projectedValue"`
	TotalInvested  float64 `json:"totalInvested"`
}
