package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rewired-gh/bikeshare/internal/config"
	"github.com/rewired-gh/bikeshare/internal/dataset"
	"github.com/rewired-gh/bikeshare/internal/models"
	"github.com/rewired-gh/bikeshare/internal/pipeline"
	"github.com/rewired-gh/bikeshare/internal/storage"
)

type staticSource struct {
	ds  *dataset.Dataset
	err error
}

func (s staticSource) Get(ctx context.Context) (*dataset.Dataset, error) {
	return s.ds, s.err
}

type staticImports struct {
	runs []storage.ImportRun
}

func (s staticImports) ListImports(ctx context.Context, limit int) ([]storage.ImportRun, error) {
	return s.runs, nil
}

var day0 = time.Date(2011, 1, 1, 0, 0, 0, 0, time.UTC)

func rec(day, hour int, season models.Season, weather models.Weather, temp, hum float64, cnt int) models.Record {
	date := day0.AddDate(0, 0, day)
	return models.Record{
		Date:      date,
		Hour:      hour,
		Season:    season,
		Weather:   weather,
		Weekday:   int(date.Weekday()),
		Temp:      temp,
		Humidity:  hum,
		WindSpeed: 0.1,
		Count:     cnt,
	}
}

func testServer(t *testing.T, src DatasetSource) http.Handler {
	t.Helper()
	if src == nil {
		hourly := []models.Record{
			rec(0, 8, models.SeasonSpring, models.WeatherClear, 0.3, 0.5, 100),
			rec(0, 17, models.SeasonSpring, models.WeatherMist, 0.4, 0.6, 250),
			rec(150, 8, models.SeasonSummer, models.WeatherClear, 0.7, 0.4, 600),
			rec(150, 9, models.SeasonSummer, models.WeatherClear, 0.9, 0.4, 50),
		}
		daily := []models.Record{
			rec(0, models.NoHour, models.SeasonSpring, models.WeatherClear, 0.3, 0.5, 985),
		}
		src = staticSource{ds: dataset.New(hourly, daily)}
	}
	imports := staticImports{runs: []storage.ImportRun{{ID: "run-1", Granularity: "hourly", Rows: 4}}}
	view := pipeline.View{Granularity: models.Hourly, Breakdown: pipeline.BreakdownSeason}
	return NewServer(config.ServerConfig{Addr: ":0"}, src, imports, models.FullSelection(), view).Handler()
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, target, nil))
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rr.Body.Bytes(), v); err != nil {
		t.Fatalf("Failed to decode body %q: %v", rr.Body.String(), err)
	}
}

func TestHealth(t *testing.T) {
	rr := get(t, testServer(t, nil), "/healthz")
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rr.Code)
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Error("Expected X-Request-ID header")
	}
}

func TestRequestIDPassthrough(t *testing.T) {
	h := testServer(t, nil)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "abc")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if got := rr.Header().Get("X-Request-ID"); got != "abc" {
		t.Errorf("Expected X-Request-ID abc, got %q", got)
	}
}

func TestReport(t *testing.T) {
	rr := get(t, testServer(t, nil), "/api/report?seasons=spring,summer&temp=0,0.8")
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var body struct {
		Granularity  string `json:"granularity"`
		Records      int    `json:"records"`
		TotalRentals int64  `json:"total_rentals"`
		Peak         struct {
			Hour  int   `json:"hour"`
			Count int64 `json:"count"`
		} `json:"peak_hour"`
	}
	decode(t, rr, &body)

	if body.Granularity != "hourly" {
		t.Errorf("Expected hourly granularity, got %s", body.Granularity)
	}
	// temp 0.9 row is excluded
	if body.Records != 3 || body.TotalRentals != 950 {
		t.Errorf("Expected 3 records / 950 rentals, got %d / %d", body.Records, body.TotalRentals)
	}
	if body.Peak.Hour != 8 || body.Peak.Count != 700 {
		t.Errorf("Expected peak hour 8 with 700, got %d with %d", body.Peak.Hour, body.Peak.Count)
	}
}

func TestReportEmptySeasons(t *testing.T) {
	rr := get(t, testServer(t, nil), "/api/report?seasons=")
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rr.Code)
	}
	var body struct {
		Records int              `json:"records"`
		Peak    *json.RawMessage `json:"peak_hour"`
	}
	decode(t, rr, &body)
	if body.Records != 0 {
		t.Errorf("Expected 0 records, got %d", body.Records)
	}
	if body.Peak != nil {
		t.Error("Expected no peak hour for empty selection")
	}
}

func TestReportDaily(t *testing.T) {
	rr := get(t, testServer(t, nil), "/api/report?granularity=daily")
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rr.Code)
	}
	var body struct {
		Granularity  string `json:"granularity"`
		TotalRentals int64  `json:"total_rentals"`
	}
	decode(t, rr, &body)
	if body.Granularity != "daily" || body.TotalRentals != 985 {
		t.Errorf("Unexpected daily report: %+v", body)
	}
}

func TestBadQuery(t *testing.T) {
	h := testServer(t, nil)
	targets := []string{
		"/api/report?granularity=weekly",
		"/api/report?temp=abc",
		"/api/report?seasons=monsoon",
		"/api/records?from=2011-13-01",
		"/api/records?limit=-1",
		"/api/correlation?fields=pressure",
	}
	for _, target := range targets {
		rr := get(t, h, target)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", target, rr.Code)
		}
	}
}

func TestDatasetUnavailable(t *testing.T) {
	h := testServer(t, staticSource{err: errors.New("no data")})
	rr := get(t, h, "/api/report")
	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected 503, got %d", rr.Code)
	}
}

func TestRecords(t *testing.T) {
	rr := get(t, testServer(t, nil), "/api/records?weather=1&limit=1")
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rr.Code)
	}
	var body struct {
		Total    int                      `json:"total"`
		Matched  int                      `json:"matched"`
		Returned int                      `json:"returned"`
		Records  []map[string]interface{} `json:"records"`
	}
	decode(t, rr, &body)
	if body.Total != 4 || body.Matched != 3 || body.Returned != 1 {
		t.Errorf("Expected 4/3/1, got %d/%d/%d", body.Total, body.Matched, body.Returned)
	}
	if len(body.Records) != 1 || body.Records[0]["date"] != "2011-01-01" {
		t.Errorf("Unexpected records: %v", body.Records)
	}
}

func TestRecordsDateRange(t *testing.T) {
	rr := get(t, testServer(t, nil), "/api/records?from=2011-05-01")
	var body struct {
		Matched int `json:"matched"`
	}
	decode(t, rr, &body)
	if body.Matched != 2 {
		t.Errorf("Expected 2 records after 2011-05-01, got %d", body.Matched)
	}
}

func TestDescribe(t *testing.T) {
	rr := get(t, testServer(t, nil), "/api/describe")
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rr.Code)
	}
	var body []map[string]interface{}
	decode(t, rr, &body)
	if len(body) != len(pipeline.NumericFields) {
		t.Fatalf("Expected %d summaries, got %d", len(pipeline.NumericFields), len(body))
	}
	if body[0]["field"] != "temp" || body[0]["count"] != float64(4) {
		t.Errorf("Unexpected temp summary: %v", body[0])
	}
}

func TestCorrelationEmptySelection(t *testing.T) {
	rr := get(t, testServer(t, nil), "/api/correlation?weather=&fields=temp,cnt")
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rr.Code)
	}
	var body struct {
		Fields []string     `json:"fields"`
		Values [][]*float64 `json:"values"`
	}
	decode(t, rr, &body)
	if len(body.Fields) != 2 || body.Fields[1] != "cnt" {
		t.Fatalf("Unexpected fields: %v", body.Fields)
	}
	for _, row := range body.Values {
		for _, v := range row {
			if v != nil {
				t.Errorf("Expected null correlation for empty set, got %v", *v)
			}
		}
	}
}

func TestScatter(t *testing.T) {
	h := testServer(t, nil)
	rr := get(t, h, "/api/scatter/hum")
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rr.Code)
	}
	var body struct {
		Field  string `json:"field"`
		Points []struct {
			X float64 `json:"x"`
			Y int     `json:"y"`
		} `json:"points"`
	}
	decode(t, rr, &body)
	if body.Field != "hum" || len(body.Points) != 4 {
		t.Errorf("Unexpected scatter: %+v", body)
	}

	if rr := get(t, h, "/api/scatter/cnt"); rr.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for cnt scatter, got %d", rr.Code)
	}
}

func TestImports(t *testing.T) {
	rr := get(t, testServer(t, nil), "/api/imports")
	var runs []storage.ImportRun
	decode(t, rr, &runs)
	if len(runs) != 1 || runs[0].ID != "run-1" {
		t.Errorf("Unexpected imports: %+v", runs)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	h := testServer(t, nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/report", nil))
	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected 405, got %d", rr.Code)
	}
}
