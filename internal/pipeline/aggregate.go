package pipeline

import (
	"sort"
	"strconv"
	"time"

	"github.com/rewired-gh/bikeshare/internal/models"
)

// KeyFunc extracts the grouping key of a record. ok=false drops the record
// from this aggregate (for example an hour key on a daily record).
type KeyFunc func(r *models.Record) (key string, order int64, ok bool)

// unknownOrder sorts the "unknown" categorical key after every known code.
const unknownOrder = 1 << 16

// AggregateBy groups records by keyFn and sums rental counts per key.
// Keys with no records are omitted. Entries are sorted by order, then key.
func AggregateBy(name string, records []models.Record, keyFn KeyFunc) models.AggregateResult {
	result := models.AggregateResult{Name: name, Entries: make([]models.AggregateEntry, 0)}
	index := make(map[string]int)

	for i := range records {
		key, order, ok := keyFn(&records[i])
		if !ok {
			continue
		}
		pos, exists := index[key]
		if !exists {
			pos = len(result.Entries)
			index[key] = pos
			result.Entries = append(result.Entries, models.AggregateEntry{Key: key, Order: order})
		}
		result.Entries[pos].Total += int64(records[i].Count)
		result.Entries[pos].Records++
	}

	sort.SliceStable(result.Entries, func(i, j int) bool {
		if result.Entries[i].Order != result.Entries[j].Order {
			return result.Entries[i].Order < result.Entries[j].Order
		}
		return result.Entries[i].Key < result.Entries[j].Key
	})
	return result
}

// BySeason keys records by season label.
func BySeason(r *models.Record) (string, int64, bool) {
	if !r.Season.Valid() {
		return models.UnknownLabel, unknownOrder, true
	}
	return r.Season.Label(), int64(r.Season), true
}

// ByWeather keys records by weather code ("1".."4").
func ByWeather(r *models.Record) (string, int64, bool) {
	if !r.Weather.Valid() {
		return models.UnknownLabel, unknownOrder, true
	}
	return r.Weather.Code(), int64(r.Weather), true
}

// ByWeatherLabel keys records by weather description, ordered by severity.
func ByWeatherLabel(r *models.Record) (string, int64, bool) {
	if !r.Weather.Valid() {
		return models.UnknownLabel, unknownOrder, true
	}
	return r.Weather.Label(), int64(r.Weather), true
}

// ByHour keys hourly records by hour of day. Daily records are skipped.
func ByHour(r *models.Record) (string, int64, bool) {
	if !r.HasHour() {
		return "", 0, false
	}
	return strconv.Itoa(r.Hour), int64(r.Hour), true
}

// ByWeekday keys records by weekday name, Sunday first.
func ByWeekday(r *models.Record) (string, int64, bool) {
	label := models.WeekdayLabel(r.Weekday)
	if label == models.UnknownLabel {
		return label, unknownOrder, true
	}
	return label, int64(r.Weekday), true
}

// ByDate keys records by calendar day (YYYY-MM-DD).
func ByDate(r *models.Record) (string, int64, bool) {
	if r.Date.IsZero() {
		return "", 0, false
	}
	return r.Date.Format(time.DateOnly), r.Date.Unix() / 86400, true
}

// ByBucket keys records by rental-count category. Zero-count rows are dropped.
func ByBucket(r *models.Record) (string, int64, bool) {
	b := BucketOf(r.Count)
	if b == BucketNone {
		return "", 0, false
	}
	return b.Label(), int64(b), true
}
