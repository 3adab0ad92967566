package pipeline

import (
	"encoding/json"
	"testing"

	"github.com/rewired-gh/bikeshare/internal/models"
)

func TestCompute_HourlySeasonView(t *testing.T) {
	records := sampleRecords()
	report := Compute(records, models.FullSelection(), View{Granularity: models.Hourly, Breakdown: BreakdownSeason})

	if report.ID == "" {
		t.Error("Expected report ID")
	}
	if report.Records != len(records) || report.TotalRentals != sumCounts(records) {
		t.Errorf("Unexpected totals: records=%d total=%d", report.Records, report.TotalRentals)
	}
	if report.Category.Name != "season" || report.Category.Sum() != report.TotalRentals {
		t.Errorf("Unexpected category aggregate: %+v", report.Category)
	}
	if report.Timeline.Name != "hour" {
		t.Errorf("Expected hour timeline, got %s", report.Timeline.Name)
	}
	if report.Peak == nil || report.Peak.Hour != 8 || report.Peak.Count != 1360 {
		t.Errorf("Unexpected peak hour: %+v", report.Peak)
	}
	if report.Trend == nil {
		t.Error("Expected trend line in hourly view")
	}
}

func TestCompute_DailyWeatherView(t *testing.T) {
	report := Compute(sampleRecords(), models.FullSelection(), View{Granularity: models.Daily, Breakdown: BreakdownWeather})

	if report.Category.Name != "weather" {
		t.Errorf("Expected weather category, got %s", report.Category.Name)
	}
	if _, ok := report.Category.Get("Mist + Cloudy"); !ok {
		t.Error("Expected weather labels as category keys")
	}
	if report.Timeline.Name != "date" || report.Timeline.Len() != 4 {
		t.Errorf("Unexpected date timeline: %+v", report.Timeline)
	}
	if report.Peak != nil || report.Trend != nil {
		t.Error("Daily view must not compute hourly facts")
	}
}

func TestCompute_SeasonAndWeatherAlwaysPresent(t *testing.T) {
	for _, b := range []Breakdown{BreakdownSeason, BreakdownWeather} {
		report := Compute(sampleRecords(), models.FullSelection(), View{Granularity: models.Hourly, Breakdown: b})

		seasons := map[string]int64{"spring": 446, "summer": 540, "fall": 1500, "winter": 1}
		if report.Season.Len() != len(seasons) {
			t.Errorf("%s: expected %d season keys, got %d", b, len(seasons), report.Season.Len())
		}
		for key, want := range seasons {
			if e, ok := report.Season.Get(key); !ok || e.Total != want {
				t.Errorf("%s: season %s = %+v, want total %d", b, key, e, want)
			}
		}

		weather := map[string]int64{"1": 1566, "2": 920, "3": 0, "4": 1}
		for key, want := range weather {
			if e, ok := report.Weather.Get(key); !ok || e.Total != want {
				t.Errorf("%s: weather %s = %+v, want total %d", b, key, e, want)
			}
		}
		if report.Weather.Sum() != report.TotalRentals {
			t.Errorf("%s: weather sum %d != total %d", b, report.Weather.Sum(), report.TotalRentals)
		}
	}
}

func TestCompute_EmptySelection(t *testing.T) {
	sel := models.FullSelection()
	sel.Seasons = nil

	report := Compute(sampleRecords(), sel, View{Granularity: models.Hourly})
	if report.Records != 0 || report.TotalRentals != 0 {
		t.Errorf("Expected empty report, got %d records", report.Records)
	}
	if report.Category.Len() != 0 || report.Timeline.Len() != 0 || report.Buckets.Len() != 0 {
		t.Error("Expected empty aggregates")
	}
	if report.Peak != nil {
		t.Errorf("Expected no peak hour, got %+v", report.Peak)
	}

	if _, err := json.Marshal(report); err != nil {
		t.Errorf("Empty report must encode to JSON: %v", err)
	}
}

func TestParseBreakdown(t *testing.T) {
	if b, err := ParseBreakdown("Weather"); err != nil || b != BreakdownWeather {
		t.Errorf("ParseBreakdown(Weather) = %v, %v", b, err)
	}
	if _, err := ParseBreakdown("hour"); err == nil {
		t.Error("Expected error for unknown breakdown")
	}
}
