// Package view renders application state as plain text for the terminal.
package view

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/PetoAdam/homenavi/weather-app/internal/app"
	"github.com/PetoAdam/homenavi/weather-app/internal/models"
)

const WeatherErrorMessage = "Failed to fetch weather data. Please try again."

// Icon maps a yr symbol code to the icon name shown next to a temperature.
func Icon(symbol string) string {
	switch symbol {
	case "heavyrain":
		return "rain"
	case "lightrain":
		return "cloud"
	case "fair_day", "clearsky_day":
		return "sun"
	case "partlycloudy_day":
		return "cloud_sun"
	case "rainshowers_day", "lightrainshowers_day":
		return "rain"
	default:
		return "cloud"
	}
}

// round is half-up: -2.5 becomes -2, 2.5 becomes 3.
func round(v float64) int {
	return int(math.Floor(v + 0.5))
}

func Temp(v float64) string {
	return strconv.Itoa(round(v)) + "°"
}

func Range(hi, lo float64) string {
	return "↑" + Temp(hi) + " ↓" + Temp(lo)
}

func Precipitation(mm float64) string {
	return strconv.FormatFloat(mm, 'f', -1, 64) + " mm"
}

// Hour renders an RFC 3339 timestamp as "H:00" in its own offset.
func Hour(ts string) string {
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		return ts
	}
	return strconv.Itoa(t.Hour()) + ":00"
}

func Weekday(ts string) string {
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		return ts
	}
	return t.Weekday().String()
}

// Current returns the three headline lines: temperature, description, range.
func Current(w models.WeatherData) []string {
	return []string{
		Temp(w.Temperature),
		w.Description,
		Range(w.MaxTemp, w.MinTemp),
	}
}

// Render writes the main screen for st.
func Render(w io.Writer, st app.State) error {
	var b strings.Builder

	title := "Add a city"
	if st.City != nil {
		title = st.City.Name
	}
	b.WriteString(title)
	if st.Status == app.StatusLoading {
		b.WriteString("  (loading...)")
	}
	b.WriteString("\n")

	if st.ImageURL != "" {
		fmt.Fprintf(&b, "image: %s", st.ImageURL)
		if st.Status == app.StatusReady && st.ImageSeq == st.Seq {
			b.WriteString("  (fade in)")
		}
		b.WriteString("\n")
	}

	if st.WeatherFailed() {
		b.WriteString(WeatherErrorMessage + "\n")
	}

	if wd := st.Weather; wd != nil {
		lines := Current(*wd)
		fmt.Fprintf(&b, "\n  %s  %s\n  %s\n  %s\n", lines[0], Icon(wd.Icon), lines[1], lines[2])

		b.WriteString("\n--- next hours\n")
		for _, h := range wd.Hourly {
			fmt.Fprintf(&b, "%6s  %-9s %5s  %s\n", Hour(h.Time), Icon(h.Icon), Temp(h.Temp), Precipitation(h.Precipitation))
		}

		b.WriteString("\n--- next days\n")
		for _, d := range wd.Daily {
			fmt.Fprintf(&b, "%-10s %-9s %-12s %s\n", Weekday(d.Date), Icon(d.Icon), Range(d.TempMax, d.TempMin), Precipitation(d.Precipitation))
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// RenderDrawer writes the favorites list with 1-based indexes.
func RenderDrawer(w io.Writer, favorites []models.City) error {
	var b strings.Builder
	b.WriteString("Favorite Cities\n")
	if len(favorites) == 0 {
		b.WriteString("  No favorite cities yet\n")
	}
	for i, c := range favorites {
		fmt.Fprintf(&b, "  %d. %s, %s\n", i+1, c.Name, c.Country)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func RenderSuggestions(w io.Writer, query string, suggestions []models.City, loading bool) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Search: %s\n", query)
	if loading {
		b.WriteString("  searching...\n")
	}
	for i, c := range suggestions {
		fmt.Fprintf(&b, "  %d. %s, %s\n", i+1, c.Name, c.Country)
	}
	_, err := io.WriteString(w, b.String())
	return err
}
