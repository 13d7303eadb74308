// Package view builds what the page shows from a session snapshot.
package view

import (
	"bytes"
	"embed"
	"html/template"
	"io"
	"strconv"
	"time"

	"weather-app/internal/derive"
	"weather-app/internal/models"
	"weather-app/internal/owm"
	"weather-app/internal/session"
	"weather-app/internal/theme"
)

//go:embed templates/*.html
var templateFS embed.FS

var tmpl = template.Must(template.New("").ParseFS(templateFS, "templates/*.html"))

type Suggestion struct {
	Index int    `json:"index"`
	Key   string `json:"key"`
	Label string `json:"label"`
}

// Card is the weather panel, every field already formatted for display.
type Card struct {
	Name        string `json:"name"`
	IconURL     string `json:"icon_url"`
	Description string `json:"description"`
	Temperature string `json:"temperature"`
	FeelsLike   string `json:"feels_like"`
	Humidity    string `json:"humidity"`
	Wind        string `json:"wind"`
	Visibility  string `json:"visibility"`
	Sunrise     string `json:"sunrise"`
	Sunset      string `json:"sunset"`
	Pressure    string `json:"pressure"`
}

type Page struct {
	SessionID   string        `json:"session_id"`
	Phase       session.Phase `json:"phase"`
	City        string        `json:"city"`
	Unit        models.Unit   `json:"unit"`
	UnitLabel   string        `json:"unit_label"`
	Error       string        `json:"error,omitempty"`
	Suggestions []Suggestion  `json:"suggestions"`
	Card        *Card         `json:"card,omitempty"`
	Theme       theme.Theme   `json:"theme"`
	IsDay       bool          `json:"is_day"`
}

// Build evaluates day/night against now, once per call.
func Build(snap session.Snapshot, now time.Time) Page {
	st := snap.State
	p := Page{
		SessionID:   snap.ID,
		Phase:       snap.Phase,
		City:        st.CityText,
		Unit:        st.Unit,
		UnitLabel:   "°" + string(st.Unit),
		Error:       st.ErrorMessage,
		Suggestions: make([]Suggestion, 0, len(st.Suggestions)),
		Theme:       theme.Default,
	}
	for i, s := range st.Suggestions {
		p.Suggestions = append(p.Suggestions, Suggestion{Index: i, Key: s.Key(), Label: derive.DisplayName(s)})
	}

	w := st.Weather
	if w == nil {
		return p
	}
	cond := w.Condition()
	p.IsDay = derive.IsDay(now, w.Sys.Sunrise, w.Sys.Sunset)
	p.Theme = theme.Select(cond.Main, p.IsDay)
	p.Card = &Card{
		Name:        w.Name,
		IconURL:     owm.IconURL(cond.Icon),
		Description: cond.Description,
		Temperature: derive.Temperature(w.Main.Temp, st.Unit),
		FeelsLike:   derive.Temperature(w.Main.FeelsLike, st.Unit),
		Humidity:    strconv.Itoa(w.Main.Humidity) + "% (" + derive.Humidity(w.Main.Humidity) + ")",
		Wind:        derive.Wind(w.Wind),
		Visibility:  derive.Visibility(w.Visibility),
		Sunrise:     derive.ClockTime(w.Sys.Sunrise, w.Timezone),
		Sunset:      derive.ClockTime(w.Sys.Sunset, w.Timezone),
		Pressure:    derive.Pressure(w.Main.Pressure),
	}
	if cond.Icon == "" {
		p.Card.IconURL = ""
	}
	return p
}

// BackgroundStyle is the inline style for the themed page background.
// Theme values are compile-time constants, so they are trusted as CSS.
func (p Page) BackgroundStyle() template.CSS {
	return template.CSS("background: " + p.Theme.Background + ";")
}

// Render writes the full page.
func Render(w io.Writer, p Page) error {
	return tmpl.ExecuteTemplate(w, "page.html", p)
}

// Fragments renders the parts of the page that change with session state,
// keyed by element id.
func Fragments(p Page) (map[string]string, error) {
	out := make(map[string]string, 3)
	for _, name := range []string{"suggestions", "error", "card"} {
		var buf bytes.Buffer
		if err := tmpl.ExecuteTemplate(&buf, name, p); err != nil {
			return nil, err
		}
		out[name] = buf.String()
	}
	return out, nil
}
