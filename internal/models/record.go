// Package models defines the core domain entities for the bikeshare service.
// A Record is one sampled hour or day of bike-share activity; a FilterSelection
// narrows the working set; an AggregateResult is the key to summed-count table
// every chart consumes.
//
// Records are immutable once loaded. Every operation that derives data from
// them returns new values and never writes back into the source slice.
package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// Granularity selects between the hourly and the daily dataset.
type Granularity int

const (
	Hourly Granularity = iota
	Daily
)

func (g Granularity) String() string {
	if g == Daily {
		return "daily"
	}
	return "hourly"
}

// ParseGranularity accepts "hourly" or "daily" (case-insensitive).
func ParseGranularity(v string) (Granularity, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "hourly", "hour":
		return Hourly, nil
	case "daily", "day":
		return Daily, nil
	default:
		return Hourly, fmt.Errorf("unknown granularity %q", v)
	}
}

// NoHour marks a record from the daily dataset.
const NoHour = -1

// Record is one row of the bike sharing dataset.
// Temp, Humidity and WindSpeed are normalized to [0,1]; a missing value is NaN.
type Record struct {
	Date      time.Time
	Hour      int // 0–23, NoHour for daily rows
	Season    Season
	Weather   Weather
	Weekday   int // 0 = Sunday
	Temp      float64
	Humidity  float64
	WindSpeed float64
	Count     int
}

// HasHour reports whether the record comes from the hourly dataset.
func (r *Record) HasHour() bool {
	return r.Hour >= 0
}

// Validate checks that the record respects the dataset schema.
// NaN measurements are allowed; out-of-range ones are not.
func (r *Record) Validate() error {
	if r.Date.IsZero() {
		return errors.New("date must be set")
	}
	if r.Hour != NoHour && (r.Hour < 0 || r.Hour > 23) {
		return fmt.Errorf("hour %d out of range 0-23", r.Hour)
	}
	if r.Weekday < 0 || r.Weekday > 6 {
		return fmt.Errorf("weekday %d out of range 0-6", r.Weekday)
	}
	if !normalized(r.Temp) {
		return errors.New("temp must be between 0.0 and 1.0")
	}
	if !normalized(r.Humidity) {
		return errors.New("humidity must be between 0.0 and 1.0")
	}
	if !normalized(r.WindSpeed) {
		return errors.New("windspeed must be between 0.0 and 1.0")
	}
	if r.Count < 0 {
		return errors.New("rental count must not be negative")
	}
	return nil
}

// MarshalJSON writes the date as YYYY-MM-DD and missing measurements as null.
func (r Record) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Date      string   `json:"date"`
		Hour      *int     `json:"hour,omitempty"`
		Season    string   `json:"season"`
		Weather   string   `json:"weather"`
		Weekday   string   `json:"weekday"`
		Temp      *float64 `json:"temp"`
		Humidity  *float64 `json:"hum"`
		WindSpeed *float64 `json:"windspeed"`
		Count     int      `json:"cnt"`
	}{
		Date:      r.Date.Format(time.DateOnly),
		Hour:      hourPtr(r.Hour),
		Season:    r.Season.Label(),
		Weather:   r.Weather.Code(),
		Weekday:   WeekdayLabel(r.Weekday),
		Temp:      floatPtr(r.Temp),
		Humidity:  floatPtr(r.Humidity),
		WindSpeed: floatPtr(r.WindSpeed),
		Count:     r.Count,
	})
}

func hourPtr(h int) *int {
	if h < 0 {
		return nil
	}
	return &h
}

func floatPtr(v float64) *float64 {
	if math.IsNaN(v) {
		return nil
	}
	return &v
}

func normalized(v float64) bool {
	return math.IsNaN(v) || (v >= 0.0 && v <= 1.0)
}
