// Package dataset parses the bike sharing CSV files and holds the immutable
// record sets for the lifetime of the process.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/rewired-gh/bikeshare/internal/models"
)

// ErrMissingColumn is returned when a required column is absent from the header.
var ErrMissingColumn = errors.New("missing required column")

// LoadResult counts parsed and rejected rows of one file.
type LoadResult struct {
	Total  int      `json:"total"`
	Failed int      `json:"failed"`
	Errors []string `json:"errors,omitempty"`
}

// maxReportedErrors caps LoadResult.Errors; Failed keeps counting past it.
const maxReportedErrors = 50

func (r *LoadResult) fail(line int, err error) {
	r.Failed++
	if len(r.Errors) < maxReportedErrors {
		r.Errors = append(r.Errors, fmt.Sprintf("line %d: %v", line, err))
	}
}

var dateLayouts = []string{time.DateOnly, "2006/01/02", "1/2/2006"}

// ParseCSV reads hour.csv (Hourly) or day.csv (Daily) rows into records.
// Rows that fail to parse or validate are skipped and reported in the result;
// a missing required column is an error.
func ParseCSV(r io.Reader, g models.Granularity) ([]models.Record, LoadResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var result LoadResult

	headers, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return []models.Record{}, result, nil
		}
		return nil, result, fmt.Errorf("failed to read csv header: %w", err)
	}

	cols := make(map[string]int, len(headers))
	for i, h := range headers {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	required := []string{"dteday", "season", "weathersit", "temp", "hum", "windspeed", "cnt"}
	if g == models.Hourly {
		required = append(required, "hr")
	}
	for _, name := range required {
		if _, ok := cols[name]; !ok {
			return nil, result, fmt.Errorf("%w: %s", ErrMissingColumn, name)
		}
	}

	records := make([]models.Record, 0)
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		result.Total++
		line := result.Total + 1 // +1 for header
		if err != nil {
			result.fail(line, err)
			continue
		}

		rec, err := parseRow(row, cols, g)
		if err != nil {
			result.fail(line, err)
			continue
		}
		records = append(records, rec)
	}

	return records, result, nil
}

func parseRow(row []string, cols map[string]int, g models.Granularity) (models.Record, error) {
	field := func(name string) string {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	rec := models.Record{Hour: models.NoHour}

	date, err := parseDate(field("dteday"))
	if err != nil {
		return rec, err
	}
	rec.Date = date

	if g == models.Hourly {
		if rec.Hour, err = strconv.Atoi(field("hr")); err != nil {
			return rec, fmt.Errorf("invalid hr %q", field("hr"))
		}
	}

	// Unparseable category codes are kept as unknown
	if code, err := strconv.Atoi(field("season")); err == nil {
		rec.Season = models.Season(code)
	}
	if code, err := strconv.Atoi(field("weathersit")); err == nil {
		rec.Weather = models.Weather(code)
	}

	rec.Weekday = int(date.Weekday())
	if v := field("weekday"); v != "" {
		if rec.Weekday, err = strconv.Atoi(v); err != nil {
			return rec, fmt.Errorf("invalid weekday %q", v)
		}
	}

	if rec.Temp, err = parseMeasure(field("temp")); err != nil {
		return rec, fmt.Errorf("invalid temp: %w", err)
	}
	if rec.Humidity, err = parseMeasure(field("hum")); err != nil {
		return rec, fmt.Errorf("invalid hum: %w", err)
	}
	if rec.WindSpeed, err = parseMeasure(field("windspeed")); err != nil {
		return rec, fmt.Errorf("invalid windspeed: %w", err)
	}

	if rec.Count, err = strconv.Atoi(field("cnt")); err != nil {
		return rec, fmt.Errorf("invalid cnt %q", field("cnt"))
	}

	if err := rec.Validate(); err != nil {
		return rec, err
	}
	return rec, nil
}

func parseDate(v string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid dteday %q", v)
}

// parseMeasure reads a normalized measurement; an empty cell is NaN.
func parseMeasure(v string) (float64, error) {
	if v == "" || strings.EqualFold(v, "nan") || strings.EqualFold(v, "na") {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(v, 64)
}
