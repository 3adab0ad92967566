package pipeline

import (
	"encoding/json"
	"math"

	"github.com/rewired-gh/bikeshare/internal/models"
)

// Matrix is a square Pearson correlation matrix indexed like Fields.
type Matrix struct {
	Fields []Field
	Values [][]float64
}

// At returns the coefficient between fields a and b, or NaN if either is absent.
func (m Matrix) At(a, b Field) float64 {
	i, j := m.index(a), m.index(b)
	if i < 0 || j < 0 {
		return math.NaN()
	}
	return m.Values[i][j]
}

func (m Matrix) index(f Field) int {
	for i, v := range m.Fields {
		if v == f {
			return i
		}
	}
	return -1
}

// MarshalJSON encodes undefined coefficients as null.
func (m Matrix) MarshalJSON() ([]byte, error) {
	names := make([]string, len(m.Fields))
	for i, f := range m.Fields {
		names[i] = f.String()
	}
	values := make([][]*float64, len(m.Values))
	for i, row := range m.Values {
		values[i] = make([]*float64, len(row))
		for j, v := range row {
			values[i][j] = nullable(v)
		}
	}
	return json.Marshal(struct {
		Fields []string     `json:"fields"`
		Values [][]*float64 `json:"values"`
	}{names, values})
}

// CorrelationMatrix computes pairwise Pearson correlation among fields over records.
// NaN values are excluded pair by pair. Entries are NaN with fewer than two
// usable pairs or zero variance, including on the diagonal.
func CorrelationMatrix(records []models.Record, fields []Field) Matrix {
	columns := make([][]float64, len(fields))
	for i, f := range fields {
		columns[i] = column(records, f)
	}

	m := Matrix{Fields: append([]Field(nil), fields...), Values: make([][]float64, len(fields))}
	for i := range fields {
		m.Values[i] = make([]float64, len(fields))
	}
	for i := range fields {
		for j := i; j < len(fields); j++ {
			r := Pearson(columns[i], columns[j])
			m.Values[i][j] = r
			m.Values[j][i] = r
		}
	}
	return m
}

// Pearson returns the correlation coefficient of xs and ys over positions where
// both are defined.
func Pearson(xs, ys []float64) float64 {
	n := len(xs)
	if len(ys) < n {
		n = len(ys)
	}

	var count int
	var sumX, sumY float64
	minX, maxX := math.Inf(1), math.Inf(-1)
	minY, maxY := math.Inf(1), math.Inf(-1)
	for i := 0; i < n; i++ {
		if math.IsNaN(xs[i]) || math.IsNaN(ys[i]) {
			continue
		}
		count++
		sumX += xs[i]
		sumY += ys[i]
		minX, maxX = math.Min(minX, xs[i]), math.Max(maxX, xs[i])
		minY, maxY = math.Min(minY, ys[i]), math.Max(maxY, ys[i])
	}
	// A constant column has zero variance even when rounding in the mean
	// leaves sxx slightly above zero.
	if count < 2 || minX == maxX || minY == maxY {
		return math.NaN()
	}

	meanX, meanY := sumX/float64(count), sumY/float64(count)
	var sxx, syy, sxy float64
	for i := 0; i < n; i++ {
		if math.IsNaN(xs[i]) || math.IsNaN(ys[i]) {
			continue
		}
		dx, dy := xs[i]-meanX, ys[i]-meanY
		sxx += dx * dx
		syy += dy * dy
		sxy += dx * dy
	}
	if sxx == 0 || syy == 0 {
		return math.NaN()
	}

	r := sxy / math.Sqrt(sxx*syy)
	return math.Max(-1, math.Min(1, r))
}
