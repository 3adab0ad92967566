package dataset

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/rewired-gh/bikeshare/internal/models"
)

const hourCSV = `instant,dteday,season,yr,mnth,hr,holiday,weekday,workingday,weathersit,temp,atemp,hum,windspeed,casual,registered,cnt
1,2011-01-01,1,0,1,0,0,6,0,1,0.24,0.2879,0.81,0,3,13,16
2,2011-01-01,1,0,1,1,0,6,0,1,0.22,0.2727,0.8,,8,32,40
3,2011-01-01,1,0,1,2,0,6,0,9,0.22,0.2727,0.8,0,5,27,32
4,2011-01-01,1,0,1,3,0,6,0,1,0.24,0.2879,0.75,0,3,10,thirteen
5,2011-01-01,1,0,1,25,0,6,0,1,0.24,0.2879,0.75,0,0,1,1
`

const dayCSV = `instant,dteday,season,yr,mnth,holiday,weekday,workingday,weathersit,temp,atemp,hum,windspeed,casual,registered,cnt
1,2011-01-01,1,0,1,0,6,0,2,0.344167,0.363625,0.805833,0.160446,331,654,985
2,2011-01-02,1,0,1,0,0,0,2,0.363478,0.353739,0.696087,0.248539,131,670,801
`

func TestParseCSV_Hourly(t *testing.T) {
	records, result, err := ParseCSV(strings.NewReader(hourCSV), models.Hourly)
	if err != nil {
		t.Fatalf("ParseCSV failed: %v", err)
	}

	if result.Total != 5 || result.Failed != 2 {
		t.Errorf("Expected 5 rows with 2 failures, got %+v", result)
	}
	if len(records) != 3 {
		t.Fatalf("Expected 3 records, got %d", len(records))
	}

	first := records[0]
	if first.Hour != 0 || first.Season != models.SeasonSpring || first.Weather != models.WeatherClear {
		t.Errorf("Unexpected first record: %+v", first)
	}
	if first.Weekday != 6 || first.Count != 16 || first.Humidity != 0.81 {
		t.Errorf("Unexpected first record values: %+v", first)
	}
	if !math.IsNaN(records[1].WindSpeed) {
		t.Errorf("Expected empty windspeed to parse as NaN, got %v", records[1].WindSpeed)
	}
	if records[2].Weather.Valid() {
		t.Errorf("Expected weather code 9 to be kept as unknown, got %v", records[2].Weather)
	}
}

func TestParseCSV_Daily(t *testing.T) {
	records, result, err := ParseCSV(strings.NewReader(dayCSV), models.Daily)
	if err != nil {
		t.Fatalf("ParseCSV failed: %v", err)
	}
	if result.Failed != 0 || len(records) != 2 {
		t.Fatalf("Expected 2 clean records, got %d (%+v)", len(records), result)
	}
	if records[0].HasHour() {
		t.Error("Daily records must not carry an hour")
	}
	if records[1].Weekday != 0 || records[1].Count != 801 {
		t.Errorf("Unexpected second record: %+v", records[1])
	}
}

func TestParseCSV_MissingColumn(t *testing.T) {
	// day.csv has no hr column, so it cannot be read as hourly data
	_, _, err := ParseCSV(strings.NewReader(dayCSV), models.Hourly)
	if !errors.Is(err, ErrMissingColumn) {
		t.Errorf("Expected ErrMissingColumn, got %v", err)
	}
}

func TestParseCSV_Empty(t *testing.T) {
	records, result, err := ParseCSV(strings.NewReader(""), models.Hourly)
	if err != nil {
		t.Fatalf("ParseCSV failed: %v", err)
	}
	if len(records) != 0 || result.Total != 0 {
		t.Errorf("Expected nothing, got %d records", len(records))
	}
}
