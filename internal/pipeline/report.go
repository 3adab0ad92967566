package pipeline

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rewired-gh/bikeshare/internal/logger"
	"github.com/rewired-gh/bikeshare/internal/models"
)

// Breakdown selects the categorical dimension of the category chart.
type Breakdown int

const (
	BreakdownSeason Breakdown = iota
	BreakdownWeather
)

func (b Breakdown) String() string {
	if b == BreakdownWeather {
		return "weather"
	}
	return "season"
}

// ParseBreakdown accepts "season" or "weather" (case-insensitive).
func ParseBreakdown(v string) (Breakdown, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "season":
		return BreakdownSeason, nil
	case "weather":
		return BreakdownWeather, nil
	default:
		return BreakdownSeason, fmt.Errorf("unknown breakdown %q", v)
	}
}

// View is the dashboard mode: which dataset granularity is shown and which
// category the breakdown chart uses. It decides which aggregations Compute runs.
type View struct {
	Granularity models.Granularity
	Breakdown   Breakdown
}

// Report is the full set of derived tables and scalar facts for one selection.
type Report struct {
	ID           string                 `json:"id"`
	GeneratedAt  time.Time              `json:"generated_at"`
	Granularity  string                 `json:"granularity"`
	Breakdown    string                 `json:"breakdown"`
	Selection    models.FilterSelection `json:"selection"`
	Records      int                    `json:"records"`
	TotalRentals int64                  `json:"total_rentals"`

	Category models.AggregateResult `json:"category"` // chosen by Breakdown
	Season   models.AggregateResult `json:"season"`
	Weather  models.AggregateResult `json:"weather"`
	Weekday  models.AggregateResult `json:"weekday"`
	Timeline models.AggregateResult `json:"timeline"` // by hour or by date
	Buckets  models.AggregateResult `json:"buckets"`

	Peak  *PeakHour `json:"peak_hour,omitempty"` // hourly view with at least one record
	Trend *Trend    `json:"trend,omitempty"`     // hourly view only

	Correlation Matrix         `json:"correlation"`
	Summary     []FieldSummary `json:"summary"`
}

// Compute filters records by sel and derives every aggregate the view needs.
func Compute(records []models.Record, sel models.FilterSelection, view View) Report {
	filtered := ApplyFilters(records, sel)

	report := Report{
		ID:          uuid.New().String(),
		GeneratedAt: time.Now(),
		Granularity: view.Granularity.String(),
		Breakdown:   view.Breakdown.String(),
		Selection:   sel,
		Records:     len(filtered),
	}
	for i := range filtered {
		report.TotalRentals += int64(filtered[i].Count)
	}

	switch view.Breakdown {
	case BreakdownWeather:
		report.Category = AggregateBy("weather", filtered, ByWeatherLabel)
	default:
		report.Category = AggregateBy("season", filtered, BySeason)
	}
	report.Season = AggregateBy("season", filtered, BySeason)
	report.Weather = AggregateBy("weathersit", filtered, ByWeather)
	report.Weekday = AggregateBy("weekday", filtered, ByWeekday)
	report.Buckets = AggregateBy("rental_category", filtered, ByBucket)

	switch view.Granularity {
	case models.Daily:
		report.Timeline = AggregateBy("date", filtered, ByDate)
	default:
		report.Timeline = AggregateBy("hour", filtered, ByHour)
		if hour, count, ok := FindPeakHour(report.Timeline); ok {
			report.Peak = &PeakHour{Hour: hour, Count: count}
		}
		trend := FitTrend(report.Timeline)
		report.Trend = &trend
	}

	report.Correlation = CorrelationMatrix(filtered, NumericFields)
	report.Summary = Describe(filtered, NumericFields)

	logger.Debug("Compute: view=%s/%s, %d of %d records selected, total=%d, timeline keys=%d",
		report.Granularity, report.Breakdown, len(filtered), len(records), report.TotalRentals, report.Timeline.Len())

	return report
}
