package pipeline

import (
	"fmt"
	"math"
	"strings"

	"github.com/rewired-gh/bikeshare/internal/models"
)

// Field is a numeric record column usable in correlation and summary statistics.
type Field int

const (
	FieldTemp Field = iota
	FieldHumidity
	FieldWindSpeed
	FieldCount
)

var fieldNames = [...]string{
	FieldTemp:      "temp",
	FieldHumidity:  "hum",
	FieldWindSpeed: "windspeed",
	FieldCount:     "cnt",
}

// NumericFields is the default column set of the correlation heatmap.
var NumericFields = []Field{FieldTemp, FieldHumidity, FieldWindSpeed, FieldCount}

func (f Field) String() string {
	if f < FieldTemp || f > FieldCount {
		return fmt.Sprintf("field(%d)", int(f))
	}
	return fieldNames[f]
}

// ParseField accepts a dataset column name.
func ParseField(v string) (Field, error) {
	v = strings.ToLower(strings.TrimSpace(v))
	for f, name := range fieldNames {
		if name == v {
			return Field(f), nil
		}
	}
	switch v {
	case "humidity":
		return FieldHumidity, nil
	case "count":
		return FieldCount, nil
	}
	return 0, fmt.Errorf("unknown field %q", v)
}

// Value reads the field from r. Missing measurements are NaN.
func (f Field) Value(r *models.Record) float64 {
	switch f {
	case FieldTemp:
		return r.Temp
	case FieldHumidity:
		return r.Humidity
	case FieldWindSpeed:
		return r.WindSpeed
	case FieldCount:
		return float64(r.Count)
	default:
		return math.NaN()
	}
}

func column(records []models.Record, f Field) []float64 {
	values := make([]float64, len(records))
	for i := range records {
		values[i] = f.Value(&records[i])
	}
	return values
}

// nullable maps NaN and ±Inf to nil so results encode as JSON null.
func nullable(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
