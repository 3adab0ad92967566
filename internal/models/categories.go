package models

import (
	"fmt"
	"strconv"
	"strings"
)

// Season is the dataset's season code (1..4). The zero value is an unknown season.
type Season int

const (
	SeasonUnknown Season = iota
	SeasonSpring
	SeasonSummer
	SeasonFall
	SeasonWinter
)

// UnknownLabel is the categorical key used for codes outside the mapping tables.
const UnknownLabel = "unknown"

var seasonLabels = [...]string{
	SeasonUnknown: UnknownLabel,
	SeasonSpring:  "spring",
	SeasonSummer:  "summer",
	SeasonFall:    "fall",
	SeasonWinter:  "winter",
}

// AllSeasons lists every known season in code order.
var AllSeasons = []Season{SeasonSpring, SeasonSummer, SeasonFall, SeasonWinter}

// Valid reports whether s is one of the four dataset seasons.
func (s Season) Valid() bool {
	return s >= SeasonSpring && s <= SeasonWinter
}

// Label returns the lowercase season name, or "unknown".
func (s Season) Label() string {
	if !s.Valid() {
		return UnknownLabel
	}
	return seasonLabels[s]
}

func (s Season) String() string {
	return s.Label()
}

// MarshalText encodes the season as its label.
func (s Season) MarshalText() ([]byte, error) {
	return []byte(s.Label()), nil
}

// ParseSeason accepts a season label (case-insensitive) or its numeric code.
func ParseSeason(v string) (Season, error) {
	v = strings.ToLower(strings.TrimSpace(v))
	for _, s := range AllSeasons {
		if seasonLabels[s] == v {
			return s, nil
		}
	}
	if code, err := strconv.Atoi(v); err == nil && Season(code).Valid() {
		return Season(code), nil
	}
	return SeasonUnknown, fmt.Errorf("unknown season %q", v)
}

// Weather is the dataset's weather situation code, ordered by severity (1 = clearest).
type Weather int

const (
	WeatherUnknown Weather = iota
	WeatherClear
	WeatherMist
	WeatherLightPrecipitation
	WeatherHeavyPrecipitation
)

var weatherLabels = [...]string{
	WeatherUnknown:            UnknownLabel,
	WeatherClear:              "Clear, Few clouds",
	WeatherMist:               "Mist + Cloudy",
	WeatherLightPrecipitation: "Light Snow, Light Rain",
	WeatherHeavyPrecipitation: "Heavy Rain + Thunderstorm",
}

// AllWeather lists every known weather situation from clearest to most severe.
var AllWeather = []Weather{WeatherClear, WeatherMist, WeatherLightPrecipitation, WeatherHeavyPrecipitation}

// Valid reports whether w is one of the four dataset weather codes.
func (w Weather) Valid() bool {
	return w >= WeatherClear && w <= WeatherHeavyPrecipitation
}

// Code returns the numeric weather code as a string, or "unknown".
func (w Weather) Code() string {
	if !w.Valid() {
		return UnknownLabel
	}
	return strconv.Itoa(int(w))
}

// Label returns the human-readable weather description, or "unknown".
func (w Weather) Label() string {
	if !w.Valid() {
		return UnknownLabel
	}
	return weatherLabels[w]
}

func (w Weather) String() string {
	return w.Code()
}

// MarshalText encodes the weather situation as its numeric code.
func (w Weather) MarshalText() ([]byte, error) {
	return []byte(w.Code()), nil
}

// ParseWeather accepts a numeric weather code (1..4).
func ParseWeather(v string) (Weather, error) {
	code, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || !Weather(code).Valid() {
		return WeatherUnknown, fmt.Errorf("unknown weather code %q", v)
	}
	return Weather(code), nil
}

var weekdayLabels = [...]string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}

// WeekdayLabel maps the dataset weekday column (0 = Sunday) to its English name.
func WeekdayLabel(day int) string {
	if day < 0 || day >= len(weekdayLabels) {
		return UnknownLabel
	}
	return weekdayLabels[day]
}
