package yr

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PetoAdam/homenavi/weather-app/internal/models"
	"github.com/PetoAdam/homenavi/weather-app/internal/observability"
	"github.com/PetoAdam/homenavi/weather-app/internal/payload"
)

const (
	DefaultBaseURL = "https://www.yr.no/api/v0"

	// ExcludedCategory is the location category yr uses for administrative
	// regions that are not cities.
	ExcludedCategory = "CE12"

	MinQueryLength = 3
	HourlyLimit    = 24

	providerName = "yr"
)

// ErrNoCurrentConditions is returned when a forecast has no usable first day
// interval to read current conditions from.
var ErrNoCurrentConditions = fmt.Errorf("forecast has no current conditions: %w", payload.ErrNoResults)

var (
	//go:embed schemas/search.json
	searchSchemaSrc []byte
	//go:embed schemas/forecast.json
	forecastSchemaSrc []byte

	searchSchema   = payload.MustCompile("yr search", searchSchemaSrc)
	forecastSchema = payload.MustCompile("yr forecast", forecastSchemaSrc)
)

type Client struct {
	baseURL          string
	excludedCategory string
	httpClient       *http.Client
	obs              *observability.Instruments
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithExcludedCategory(id string) Option {
	return func(c *Client) { c.excludedCategory = id }
}

func WithInstruments(in *observability.Instruments) Option {
	return func(c *Client) { c.obs = in }
}

func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:          strings.TrimRight(baseURL, "/"),
		excludedCategory: ExcludedCategory,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type searchResponse struct {
	Embedded struct {
		Location []struct {
			ID      string `json:"id"`
			Name    string `json:"name"`
			Country *struct {
				Name string `json:"name"`
			} `json:"country"`
			Category *struct {
				ID string `json:"id"`
			} `json:"category"`
		} `json:"location"`
	} `json:"_embedded"`
}

// SearchLocations looks up cities matching query. Queries shorter than
// MinQueryLength runes return no cities and issue no request.
func (c *Client) SearchLocations(ctx context.Context, query string) ([]models.City, error) {
	q := strings.TrimSpace(query)
	if utf8.RuneCountInString(q) < MinQueryLength {
		return nil, nil
	}

	u := fmt.Sprintf("%s/locations/search?language=en&q=%s", c.baseURL, url.QueryEscape(q))

	var resp searchResponse
	err := c.obs.Track(ctx, providerName, "search", func(ctx context.Context) error {
		return payload.GetJSON(ctx, c.httpClient, u, searchSchema, &resp)
	})
	if err != nil {
		return nil, fmt.Errorf("searching locations: %w", err)
	}

	cities := make([]models.City, 0, len(resp.Embedded.Location))
	for _, loc := range resp.Embedded.Location {
		if loc.Category != nil && loc.Category.ID == c.excludedCategory {
			continue
		}
		city := models.City{ID: loc.ID, Name: loc.Name}
		if loc.Country != nil {
			city.Country = loc.Country.Name
		}
		cities = append(cities, city)
	}
	return cities, nil
}

type temperature struct {
	Value *float64 `json:"value"`
	Min   *float64 `json:"min"`
	Max   *float64 `json:"max"`
}

type precipitation struct {
	Value *float64 `json:"value"`
}

type forecastResponse struct {
	DayIntervals []struct {
		Start                string         `json:"start"`
		Temperature          temperature    `json:"temperature"`
		TwentyFourHourSymbol *string        `json:"twentyFourHourSymbol"`
		Precipitation        *precipitation `json:"precipitation"`
	} `json:"dayIntervals"`
	ShortIntervals []struct {
		Start       string      `json:"start"`
		Temperature temperature `json:"temperature"`
		SymbolCode  *struct {
			Next1Hour *string `json:"next1Hour"`
		} `json:"symbolCode"`
		Precipitation *precipitation `json:"precipitation"`
	} `json:"shortIntervals"`
}

// Forecast fetches the forecast for a yr location id. The first day interval
// supplies current conditions and the hourly series is capped at HourlyLimit.
func (c *Client) Forecast(ctx context.Context, cityID string) (models.WeatherData, error) {
	if strings.TrimSpace(cityID) == "" {
		return models.WeatherData{}, errors.New("forecast: empty city id")
	}

	u := fmt.Sprintf("%s/locations/%s/forecast", c.baseURL, url.PathEscape(cityID))

	var resp forecastResponse
	err := c.obs.Track(ctx, providerName, "forecast", func(ctx context.Context) error {
		if err := payload.GetJSON(ctx, c.httpClient, u, forecastSchema, &resp); err != nil {
			return err
		}
		if len(resp.DayIntervals) == 0 || resp.DayIntervals[0].Temperature.Value == nil {
			return ErrNoCurrentConditions
		}
		return nil
	})
	if err != nil {
		return models.WeatherData{}, fmt.Errorf("fetching forecast for %s: %w", cityID, err)
	}

	daily := make([]models.DailySample, 0, len(resp.DayIntervals))
	for _, day := range resp.DayIntervals {
		daily = append(daily, models.DailySample{
			Date:          day.Start,
			TempMax:       deref(day.Temperature.Max),
			TempMin:       deref(day.Temperature.Min),
			Icon:          derefString(day.TwentyFourHourSymbol),
			Precipitation: precipitationValue(day.Precipitation),
		})
	}

	n := min(HourlyLimit, len(resp.ShortIntervals))
	hourly := make([]models.HourlySample, 0, n)
	for _, hour := range resp.ShortIntervals[:n] {
		icon := ""
		if hour.SymbolCode != nil {
			icon = derefString(hour.SymbolCode.Next1Hour)
		}
		hourly = append(hourly, models.HourlySample{
			Time:          hour.Start,
			Temp:          deref(hour.Temperature.Value),
			Icon:          icon,
			Precipitation: precipitationValue(hour.Precipitation),
		})
	}

	current := resp.DayIntervals[0]
	symbol := derefString(current.TwentyFourHourSymbol)
	return models.WeatherData{
		Temperature: *current.Temperature.Value,
		Description: strings.ReplaceAll(symbol, "_", " "),
		Icon:        symbol,
		MaxTemp:     deref(current.Temperature.Max),
		MinTemp:     deref(current.Temperature.Min),
		Hourly:      hourly,
		Daily:       daily,
	}, nil
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func derefString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func precipitationValue(p *precipitation) float64 {
	if p == nil {
		return 0
	}
	return deref(p.Value)
}
