package pipeline

import (
	"math"

	"github.com/rewired-gh/bikeshare/internal/models"
)

// Point is one (field value, rental count) pair of a scatter series.
type Point struct {
	X float64 `json:"x"`
	Y int     `json:"y"`
}

// Scatter pairs field with the rental count of each record, skipping NaN values.
func Scatter(records []models.Record, field Field) []Point {
	points := make([]Point, 0, len(records))
	for i := range records {
		x := field.Value(&records[i])
		if math.IsNaN(x) {
			continue
		}
		points = append(points, Point{X: x, Y: records[i].Count})
	}
	return points
}
