package derive

import (
	"testing"
	"time"

	"weather-app/internal/models"
)

func TestToDisplay(t *testing.T) {
	cases := []struct {
		c    float64
		unit models.Unit
		want float64
	}{
		{0, models.Celsius, 0},
		{0, models.Fahrenheit, 32},
		{100, models.Celsius, 100},
		{37, models.Fahrenheit, 99},
		{21.37, models.Celsius, 21.37},
		{-40, models.Fahrenheit, -40},
		// 0.5°F boundaries round up.
		{-17.5, models.Fahrenheit, 1},
		{12.5, models.Fahrenheit, 55},
	}
	for _, tc := range cases {
		if got := ToDisplay(tc.c, tc.unit); got != tc.want {
			t.Fatalf("ToDisplay(%v, %s) = %v, want %v", tc.c, tc.unit, got, tc.want)
		}
	}
}

func TestTemperature(t *testing.T) {
	if got := Temperature(21.5, models.Celsius); got != "21.5°C" {
		t.Fatalf("unexpected %q", got)
	}
	if got := Temperature(21.5, models.Fahrenheit); got != "71°F" {
		t.Fatalf("unexpected %q", got)
	}
}

func TestHumidityBuckets(t *testing.T) {
	cases := map[int]string{
		0: "Low", 39: "Low",
		40: "Moderate", 69: "Moderate",
		70: "High", 100: "High",
	}
	for pct, want := range cases {
		if got := Humidity(pct); got != want {
			t.Fatalf("Humidity(%d) = %q, want %q", pct, got, want)
		}
	}
}

func TestHumidityMonotonic(t *testing.T) {
	rank := map[string]int{"Low": 0, "Moderate": 1, "High": 2}
	prev := 0
	for pct := 0; pct <= 100; pct++ {
		r := rank[Humidity(pct)]
		if r < prev {
			t.Fatalf("bucket went down at %d%%", pct)
		}
		prev = r
	}
}

func TestVisibilityBuckets(t *testing.T) {
	cases := map[int]string{
		0: "Poor", 3999: "Poor",
		4000: "Moderate", 9999: "Moderate",
		10000: "Good", 25000: "Good",
	}
	for m, want := range cases {
		if got := Visibility(m); got != want {
			t.Fatalf("Visibility(%d) = %q, want %q", m, got, want)
		}
	}
}

func TestIsDayExcludesBoundaries(t *testing.T) {
	const sunrise, sunset = 1_700_000_000, 1_700_040_000
	cases := []struct {
		now  int64
		want bool
	}{
		{sunrise - 1, false},
		{sunrise, false},
		{sunrise + 1, true},
		{sunset - 1, true},
		{sunset, false},
		{sunset + 1, false},
	}
	for _, tc := range cases {
		if got := IsDay(time.Unix(tc.now, 0), sunrise, sunset); got != tc.want {
			t.Fatalf("IsDay(%d) = %v, want %v", tc.now, got, tc.want)
		}
	}
	if !IsDay(time.Unix(sunrise, int64(time.Millisecond)), sunrise, sunset) {
		t.Fatalf("expected sub-second past sunrise to count as day")
	}
}

func TestDisplayName(t *testing.T) {
	s := models.CitySuggestion{Name: "Springfield", Country: "US", State: "Illinois"}
	if got := DisplayName(s); got != "Springfield, US, Illinois" {
		t.Fatalf("unexpected %q", got)
	}
	s.State = ""
	if got := DisplayName(s); got != "Springfield, US" {
		t.Fatalf("unexpected %q", got)
	}
}

func TestWind(t *testing.T) {
	if got := Wind(models.Wind{Speed: 3.6, Deg: 240}); got != "3.6 m/s (240°)" {
		t.Fatalf("unexpected %q", got)
	}
	if got := Wind(models.Wind{Speed: 2}); got != "2 m/s" {
		t.Fatalf("unexpected %q", got)
	}
}

func TestClockTime(t *testing.T) {
	// 2024-01-01T06:30:00Z at UTC+1
	if got := ClockTime(1704090600, 3600); got != "07:30:00" {
		t.Fatalf("unexpected %q", got)
	}
}
