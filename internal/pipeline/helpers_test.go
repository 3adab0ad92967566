package pipeline

import (
	"time"

	"github.com/rewired-gh/bikeshare/internal/models"
)

var baseDay = time.Date(2011, 1, 1, 0, 0, 0, 0, time.UTC)

func hourly(day, hour int, season models.Season, weather models.Weather, temp, hum, wind float64, cnt int) models.Record {
	date := baseDay.AddDate(0, 0, day)
	return models.Record{
		Date:      date,
		Hour:      hour,
		Season:    season,
		Weather:   weather,
		Weekday:   int(date.Weekday()),
		Temp:      temp,
		Humidity:  hum,
		WindSpeed: wind,
		Count:     cnt,
	}
}

func sampleRecords() []models.Record {
	return []models.Record{
		hourly(0, 0, models.SeasonSpring, models.WeatherClear, 0.24, 0.81, 0.00, 16),
		hourly(0, 8, models.SeasonSpring, models.WeatherMist, 0.30, 0.75, 0.10, 120),
		hourly(0, 17, models.SeasonSpring, models.WeatherClear, 0.36, 0.60, 0.20, 310),
		hourly(100, 8, models.SeasonSummer, models.WeatherClear, 0.62, 0.45, 0.25, 540),
		hourly(100, 17, models.SeasonSummer, models.WeatherLightPrecipitation, 0.66, 0.90, 0.30, 0),
		hourly(200, 8, models.SeasonFall, models.WeatherClear, 0.70, 0.50, 0.15, 700),
		hourly(200, 17, models.SeasonFall, models.WeatherMist, 0.72, 0.55, 0.12, 800),
		hourly(300, 3, models.SeasonWinter, models.WeatherHeavyPrecipitation, 0.10, 0.95, 0.40, 1),
	}
}

func sumCounts(records []models.Record) int64 {
	var total int64
	for _, r := range records {
		total += int64(r.Count)
	}
	return total
}
