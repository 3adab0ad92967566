package httpapi

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rewired-gh/bikeshare/internal/models"
	"github.com/rewired-gh/bikeshare/internal/pipeline"
)

var (
	earliestDay = time.Date(1, 1, 1, 0, 0, 0, 0, time.UTC)
	latestDay   = time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)
)

// parseQuery overlays query parameters on the default selection and view.
// A parameter that is present but empty (seasons=) selects nothing.
func parseQuery(q url.Values, defaults models.FilterSelection, view pipeline.View) (models.FilterSelection, pipeline.View, error) {
	sel := defaults
	var err error

	if v := q.Get("granularity"); v != "" {
		if view.Granularity, err = models.ParseGranularity(v); err != nil {
			return sel, view, err
		}
	}
	if v := q.Get("breakdown"); v != "" {
		if view.Breakdown, err = pipeline.ParseBreakdown(v); err != nil {
			return sel, view, err
		}
	}

	if q.Has("seasons") {
		sel.Seasons = []models.Season{}
		for _, item := range splitList(q.Get("seasons")) {
			s, err := models.ParseSeason(item)
			if err != nil {
				return sel, view, err
			}
			sel.Seasons = append(sel.Seasons, s)
		}
	}
	if q.Has("weather") {
		sel.Weather = []models.Weather{}
		for _, item := range splitList(q.Get("weather")) {
			w, err := models.ParseWeather(item)
			if err != nil {
				return sel, view, err
			}
			sel.Weather = append(sel.Weather, w)
		}
	}

	if v := q.Get("temp"); v != "" {
		if sel.Temp, err = parseRange(v); err != nil {
			return sel, view, fmt.Errorf("temp: %w", err)
		}
	}
	if v := q.Get("hum"); v != "" {
		if sel.Humidity, err = parseRange(v); err != nil {
			return sel, view, fmt.Errorf("hum: %w", err)
		}
	}

	from, to := q.Get("from"), q.Get("to")
	if from != "" || to != "" {
		dates := models.DateRange{From: earliestDay, To: latestDay}
		if from != "" {
			if dates.From, err = time.Parse(time.DateOnly, from); err != nil {
				return sel, view, fmt.Errorf("invalid from date %q", from)
			}
		}
		if to != "" {
			if dates.To, err = time.Parse(time.DateOnly, to); err != nil {
				return sel, view, fmt.Errorf("invalid to date %q", to)
			}
		}
		sel.Dates = &dates
	}

	return sel, view, nil
}

func splitList(v string) []string {
	var items []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

// parseRange reads "lo,hi". lo > hi is accepted and selects nothing.
func parseRange(v string) (models.Range, error) {
	parts := strings.Split(v, ",")
	if len(parts) != 2 {
		return models.Range{}, fmt.Errorf("expected lo,hi, got %q", v)
	}
	lo, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil || math.IsNaN(lo) || math.IsInf(lo, 0) {
		return models.Range{}, fmt.Errorf("invalid lower bound %q", parts[0])
	}
	hi, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil || math.IsNaN(hi) || math.IsInf(hi, 0) {
		return models.Range{}, fmt.Errorf("invalid upper bound %q", parts[1])
	}
	return models.Range{Lo: lo, Hi: hi}, nil
}
