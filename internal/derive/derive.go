// Package derive turns raw provider readings into display values.
package derive

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"weather-app/internal/models"
)

const (
	humidityModerate = 40
	humidityHigh     = 70

	visibilityModerate = 4000
	visibilityGood     = 10000
)

// ToDisplay converts a Celsius reading to the requested unit. Fahrenheit values
// are rounded half up to a whole degree; Celsius values pass through.
func ToDisplay(celsius float64, unit models.Unit) float64 {
	if unit != models.Fahrenheit {
		return celsius
	}
	return math.Floor(celsius*9/5 + 32 + 0.5)
}

// Temperature formats ToDisplay's result with its unit, e.g. "21.4°C".
func Temperature(celsius float64, unit models.Unit) string {
	return strconv.FormatFloat(ToDisplay(celsius, unit), 'f', -1, 64) + "°" + string(unit)
}

func Humidity(pct int) string {
	switch {
	case pct < humidityModerate:
		return "Low"
	case pct < humidityHigh:
		return "Moderate"
	default:
		return "High"
	}
}

// Visibility buckets a distance in meters.
func Visibility(meters int) string {
	switch {
	case meters < visibilityModerate:
		return "Poor"
	case meters < visibilityGood:
		return "Moderate"
	default:
		return "Good"
	}
}

// IsDay reports whether now falls strictly between sunrise and sunset.
func IsDay(now time.Time, sunrise, sunset int64) bool {
	secs := float64(now.UnixNano()) / float64(time.Second)
	return secs > float64(sunrise) && secs < float64(sunset)
}

func DisplayName(s models.CitySuggestion) string {
	name := s.Name + ", " + s.Country
	if s.State != "" {
		name += ", " + s.State
	}
	return name
}

// Wind renders speed in m/s, with the bearing appended when the provider sent one.
func Wind(w models.Wind) string {
	out := strconv.FormatFloat(w.Speed, 'f', -1, 64) + " m/s"
	if w.Deg != 0 {
		out += fmt.Sprintf(" (%d°)", w.Deg)
	}
	return out
}

// ClockTime renders an epoch as wall-clock time at a location whose UTC offset
// is tzOffset seconds.
func ClockTime(epoch int64, tzOffset int) string {
	loc := time.FixedZone("", tzOffset)
	return time.Unix(epoch, 0).In(loc).Format("15:04:05")
}

func Pressure(hpa int) string {
	return strconv.Itoa(hpa) + " hPa"
}
