package pipeline

import "github.com/rewired-gh/bikeshare/internal/models"

// PeakHour is the hour with the largest summed rental count.
type PeakHour struct {
	Hour  int   `json:"hour"`
	Count int64 `json:"count"`
}

// FindPeakHour returns the argmax of an hourly aggregate. Ties go to the
// lowest hour. ok is false for an empty aggregate.
func FindPeakHour(hourly models.AggregateResult) (hour int, count int64, ok bool) {
	best := -1
	for i, e := range hourly.Entries {
		if best < 0 || e.Total > hourly.Entries[best].Total ||
			(e.Total == hourly.Entries[best].Total && e.Order < hourly.Entries[best].Order) {
			best = i
		}
	}
	if best < 0 {
		return 0, 0, false
	}
	return int(hourly.Entries[best].Order), hourly.Entries[best].Total, true
}
