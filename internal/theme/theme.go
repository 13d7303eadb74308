package theme

import "strings"

// Theme is the page background and accent set for one condition and time of day.
type Theme struct {
	Name string `json:"name"`
	// Background is a CSS background value.
	Background string `json:"background"`
	Accent     string `json:"accent"`
	// Icon names the condition icon family, independent of the provider's icon code.
	Icon string `json:"icon"`
}

// Default is used when the condition is unknown or no weather is displayed.
var Default = Theme{
	Name:       "default",
	Background: "linear-gradient(135deg, #1e3a8a 0%, #6d28d9 100%)",
	Accent:     "#7e22ce",
	Icon:       "sun",
}

var themes = map[string]Theme{
	"clear-day": {
		Background: "linear-gradient(180deg, #38bdf8 0%, #fde68a 100%)",
		Accent:     "#f59e0b",
		Icon:       "sun",
	},
	"clear-night": {
		Background: "linear-gradient(180deg, #0f172a 0%, #312e81 100%)",
		Accent:     "#818cf8",
		Icon:       "moon",
	},
	"clouds-day": {
		Background: "linear-gradient(180deg, #94a3b8 0%, #e2e8f0 100%)",
		Accent:     "#475569",
		Icon:       "cloud",
	},
	"clouds-night": {
		Background: "linear-gradient(180deg, #1e293b 0%, #475569 100%)",
		Accent:     "#94a3b8",
		Icon:       "cloud",
	},
	"rain-day": {
		Background: "linear-gradient(180deg, #475569 0%, #60a5fa 100%)",
		Accent:     "#2563eb",
		Icon:       "rain",
	},
	"rain-night": {
		Background: "linear-gradient(180deg, #0f172a 0%, #1e40af 100%)",
		Accent:     "#3b82f6",
		Icon:       "rain",
	},
	"drizzle-day": {
		Background: "linear-gradient(180deg, #64748b 0%, #93c5fd 100%)",
		Accent:     "#3b82f6",
		Icon:       "rain",
	},
	"drizzle-night": {
		Background: "linear-gradient(180deg, #1e293b 0%, #1d4ed8 100%)",
		Accent:     "#60a5fa",
		Icon:       "rain",
	},
	"thunderstorm-day": {
		Background: "linear-gradient(180deg, #1f2937 0%, #6b7280 100%)",
		Accent:     "#facc15",
		Icon:       "storm",
	},
	"thunderstorm-night": {
		Background: "linear-gradient(180deg, #030712 0%, #374151 100%)",
		Accent:     "#eab308",
		Icon:       "storm",
	},
	"snow-day": {
		Background: "linear-gradient(180deg, #e0f2fe 0%, #f8fafc 100%)",
		Accent:     "#0ea5e9",
		Icon:       "snow",
	},
	"snow-night": {
		Background: "linear-gradient(180deg, #1e293b 0%, #cbd5e1 100%)",
		Accent:     "#bae6fd",
		Icon:       "snow",
	},
	"mist-day": {
		Background: "linear-gradient(180deg, #9ca3af 0%, #f3f4f6 100%)",
		Accent:     "#6b7280",
		Icon:       "fog",
	},
	"mist-night": {
		Background: "linear-gradient(180deg, #111827 0%, #6b7280 100%)",
		Accent:     "#9ca3af",
		Icon:       "fog",
	},
}

// family maps the provider's condition group to a theme family.
func family(main string) string {
	switch strings.ToLower(strings.TrimSpace(main)) {
	case "clear":
		return "clear"
	case "clouds":
		return "clouds"
	case "rain":
		return "rain"
	case "drizzle":
		return "drizzle"
	case "thunderstorm":
		return "thunderstorm"
	case "snow":
		return "snow"
	case "mist", "haze", "fog", "smoke", "dust", "sand", "ash", "squall", "tornado":
		return "mist"
	default:
		return ""
	}
}

// Select picks the theme for a condition group ("Clear", "Rain", ...) and time of day.
func Select(conditionMain string, isDay bool) Theme {
	f := family(conditionMain)
	if f == "" {
		return Default
	}
	name := f + "-night"
	if isDay {
		name = f + "-day"
	}
	t := themes[name]
	t.Name = name
	return t
}

// names lists every theme Select can return.
func names() []string {
	out := make([]string, 0, len(themes)+1)
	out = append(out, Default.Name)
	for name := range themes {
		out = append(out, name)
	}
	return out
}
