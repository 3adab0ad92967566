package models

import (
	"math"
	"time"
)

// Range is an inclusive numeric interval. A range with Lo > Hi matches nothing.
type Range struct {
	Lo float64 `json:"lo" mapstructure:"lo"`
	Hi float64 `json:"hi" mapstructure:"hi"`
}

// FullRange covers the whole normalized domain.
var FullRange = Range{Lo: 0.0, Hi: 1.0}

// Valid reports whether Lo <= Hi.
func (r Range) Valid() bool {
	return r.Lo <= r.Hi
}

// Contains reports whether v lies in [Lo, Hi]. NaN is never contained.
func (r Range) Contains(v float64) bool {
	if math.IsNaN(v) || !r.Valid() {
		return false
	}
	return v >= r.Lo && v <= r.Hi
}

// DateRange is an inclusive calendar-day interval.
type DateRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// Contains compares by calendar day, ignoring time of day.
func (d DateRange) Contains(t time.Time) bool {
	day := truncateDay(t)
	return !day.Before(truncateDay(d.From)) && !day.After(truncateDay(d.To))
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// FilterSelection is the set of user-chosen constraints narrowing the record set.
// An empty Seasons or Weather set selects nothing. Dates is optional.
type FilterSelection struct {
	Seasons  []Season   `json:"seasons"`
	Weather  []Weather  `json:"weather"`
	Temp     Range      `json:"temp"`
	Humidity Range      `json:"humidity"`
	Dates    *DateRange `json:"dates,omitempty"`
}

// FullSelection selects every record of a well-formed dataset.
func FullSelection() FilterSelection {
	return FilterSelection{
		Seasons:  append([]Season(nil), AllSeasons...),
		Weather:  append([]Weather(nil), AllWeather...),
		Temp:     FullRange,
		Humidity: FullRange,
	}
}

// Matches reports whether r satisfies every constraint of the selection.
func (s *FilterSelection) Matches(r *Record) bool {
	if !s.includesSeason(r.Season) || !s.includesWeather(r.Weather) {
		return false
	}
	if !s.Temp.Contains(r.Temp) || !s.Humidity.Contains(r.Humidity) {
		return false
	}
	if s.Dates != nil && !s.Dates.Contains(r.Date) {
		return false
	}
	return true
}

func (s *FilterSelection) includesSeason(season Season) bool {
	for _, v := range s.Seasons {
		if v == season {
			return true
		}
	}
	return false
}

func (s *FilterSelection) includesWeather(w Weather) bool {
	for _, v := range s.Weather {
		if v == w {
			return true
		}
	}
	return false
}
