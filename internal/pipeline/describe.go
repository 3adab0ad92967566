package pipeline

import (
	"encoding/json"
	"math"
	"sort"

	"github.com/rewired-gh/bikeshare/internal/models"
)

// FieldSummary holds descriptive statistics of one numeric column.
// Count excludes NaN values; the statistics are NaN when Count is zero
// (Std also when Count is one).
type FieldSummary struct {
	Field  Field
	Count  int
	Mean   float64
	Std    float64
	Min    float64
	Q25    float64
	Median float64
	Q75    float64
	Max    float64
}

// MarshalJSON encodes undefined statistics as null.
func (s FieldSummary) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Field  string   `json:"field"`
		Count  int      `json:"count"`
		Mean   *float64 `json:"mean"`
		Std    *float64 `json:"std"`
		Min    *float64 `json:"min"`
		Q25    *float64 `json:"25%"`
		Median *float64 `json:"50%"`
		Q75    *float64 `json:"75%"`
		Max    *float64 `json:"max"`
	}{
		s.Field.String(), s.Count,
		nullable(s.Mean), nullable(s.Std), nullable(s.Min),
		nullable(s.Q25), nullable(s.Median), nullable(s.Q75), nullable(s.Max),
	})
}

// Describe summarizes each field over records.
func Describe(records []models.Record, fields []Field) []FieldSummary {
	summaries := make([]FieldSummary, 0, len(fields))
	for _, f := range fields {
		summaries = append(summaries, summarize(f, column(records, f)))
	}
	return summaries
}

func summarize(f Field, values []float64) FieldSummary {
	nan := math.NaN()
	s := FieldSummary{Field: f, Mean: nan, Std: nan, Min: nan, Q25: nan, Median: nan, Q75: nan, Max: nan}

	sorted := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			sorted = append(sorted, v)
		}
	}
	s.Count = len(sorted)
	if s.Count == 0 {
		return s
	}
	sort.Float64s(sorted)

	var sum float64
	for _, v := range sorted {
		sum += v
	}
	s.Mean = sum / float64(s.Count)
	if s.Count > 1 {
		var ss float64
		for _, v := range sorted {
			d := v - s.Mean
			ss += d * d
		}
		s.Std = math.Sqrt(ss / float64(s.Count-1))
	}

	s.Min = sorted[0]
	s.Max = sorted[s.Count-1]
	s.Q25 = quantile(sorted, 0.25)
	s.Median = quantile(sorted, 0.50)
	s.Q75 = quantile(sorted, 0.75)
	return s
}

// quantile interpolates linearly between closest ranks of a sorted sample.
func quantile(sorted []float64, q float64) float64 {
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}
