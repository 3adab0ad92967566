// Package pipeline turns the immutable record set plus a filter selection into
// the aggregate tables and scalar facts a presentation layer renders.
//
// Every function here is pure: inputs are never mutated, an empty filtered set
// is a valid input, and degenerate statistics are reported as NaN rather than
// errors. Each call recomputes from scratch; nothing is cached between calls.
package pipeline

import (
	"github.com/rewired-gh/bikeshare/internal/models"
)

// ApplyFilters returns the records matching every constraint of sel, in input order.
// Seasons and weather codes are OR-combined within their set; all constraints
// are AND-combined. An inverted numeric range yields no rows.
func ApplyFilters(records []models.Record, sel models.FilterSelection) []models.Record {
	filtered := make([]models.Record, 0)
	if len(sel.Seasons) == 0 || len(sel.Weather) == 0 || !sel.Temp.Valid() || !sel.Humidity.Valid() {
		return filtered
	}

	// Single pass, one predicate conjunction per record
	for i := range records {
		if sel.Matches(&records[i]) {
			filtered = append(filtered, records[i])
		}
	}
	return filtered
}
