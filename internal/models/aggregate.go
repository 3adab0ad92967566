package models

// AggregateEntry is one key of an aggregate table.
// Order sorts entries (hour, weekday, day number, season code, bucket rank).
type AggregateEntry struct {
	Key     string `json:"key"`
	Order   int64  `json:"order"`
	Total   int64  `json:"total"`   // summed rental count
	Records int    `json:"records"` // number of records under this key
}

// AggregateResult maps a categorical or ordinal key to a summed rental count.
// Keys without matching records are absent, never zero-filled.
type AggregateResult struct {
	Name    string           `json:"name"`
	Entries []AggregateEntry `json:"entries"`
}

// Len returns the number of keys present.
func (a *AggregateResult) Len() int {
	return len(a.Entries)
}

// Sum returns the total rental count across all keys.
func (a *AggregateResult) Sum() int64 {
	var total int64
	for _, e := range a.Entries {
		total += e.Total
	}
	return total
}

// Get returns the entry for key.
func (a *AggregateResult) Get(key string) (AggregateEntry, bool) {
	for _, e := range a.Entries {
		if e.Key == key {
			return e, true
		}
	}
	return AggregateEntry{}, false
}
