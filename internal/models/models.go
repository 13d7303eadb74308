package models

import "fmt"

// Unit is the temperature unit the page displays. Provider data is always Celsius.
type Unit string

const (
	Celsius    Unit = "C"
	Fahrenheit Unit = "F"
)

// Toggle returns the other unit.
func (u Unit) Toggle() Unit {
	if u == Fahrenheit {
		return Celsius
	}
	return Fahrenheit
}

type CitySuggestion struct {
	Name    string  `json:"name"`
	Country string  `json:"country"`
	State   string  `json:"state,omitempty"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

// Key identifies a suggestion in a rendered list.
func (c CitySuggestion) Key() string {
	return fmt.Sprintf("%v-%v", c.Lat, c.Lon)
}

type Condition struct {
	ID          int    `json:"id"`
	Main        string `json:"main"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

type MainReadings struct {
	Temp      float64 `json:"temp"`
	FeelsLike float64 `json:"feels_like"`
	TempMin   float64 `json:"temp_min"`
	TempMax   float64 `json:"temp_max"`
	Pressure  int     `json:"pressure"`
	Humidity  int     `json:"humidity"`
}

type Wind struct {
	Speed float64 `json:"speed"`
	Deg   int     `json:"deg"`
}

type Sun struct {
	Country string `json:"country"`
	Sunrise int64  `json:"sunrise"`
	Sunset  int64  `json:"sunset"`
}

type Coord struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// WeatherSnapshot is the current-weather payload for one location, as returned
// by the provider with units=metric.
type WeatherSnapshot struct {
	Name       string       `json:"name"`
	Coord      Coord        `json:"coord"`
	Weather    []Condition  `json:"weather"`
	Main       MainReadings `json:"main"`
	Wind       Wind         `json:"wind"`
	Visibility int          `json:"visibility"`
	Sys        Sun          `json:"sys"`
	Timezone   int          `json:"timezone"`
	Dt         int64        `json:"dt"`
}

// Condition returns the primary reported condition, or a zero value when the
// payload carries none.
func (w *WeatherSnapshot) Condition() Condition {
	if w == nil || len(w.Weather) == 0 {
		return Condition{}
	}
	return w.Weather[0]
}

// SearchState is everything one page session shows.
type SearchState struct {
	CityText     string           `json:"city"`
	Suggestions  []CitySuggestion `json:"suggestions"`
	Weather      *WeatherSnapshot `json:"weather,omitempty"`
	Unit         Unit             `json:"unit"`
	ErrorMessage string           `json:"error,omitempty"`
}
