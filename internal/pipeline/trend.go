package pipeline

import (
	"encoding/json"
	"math"

	"github.com/rewired-gh/bikeshare/internal/models"
)

// Trend is an ordinary least squares line fitted to an aggregate's (order, total) points.
type Trend struct {
	Slope     float64
	Intercept float64
	Points    int
}

// At evaluates the fitted line at x.
func (t Trend) At(x float64) float64 {
	return t.Intercept + t.Slope*x
}

// MarshalJSON encodes an undefined fit as null coefficients.
func (t Trend) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Slope     *float64 `json:"slope"`
		Intercept *float64 `json:"intercept"`
		Points    int      `json:"points"`
	}{nullable(t.Slope), nullable(t.Intercept), t.Points})
}

// FitTrend fits total = intercept + slope*order. Fewer than two distinct x
// values leave the fit undefined (NaN).
func FitTrend(agg models.AggregateResult) Trend {
	n := len(agg.Entries)
	t := Trend{Slope: math.NaN(), Intercept: math.NaN(), Points: n}
	if n < 2 {
		return t
	}

	var sumX, sumY float64
	for _, e := range agg.Entries {
		sumX += float64(e.Order)
		sumY += float64(e.Total)
	}
	meanX, meanY := sumX/float64(n), sumY/float64(n)

	var sxx, sxy float64
	for _, e := range agg.Entries {
		dx := float64(e.Order) - meanX
		sxx += dx * dx
		sxy += dx * (float64(e.Total) - meanY)
	}
	if sxx == 0 {
		return t
	}

	t.Slope = sxy / sxx
	t.Intercept = meanY - t.Slope*meanX
	return t
}
