package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/PetoAdam/homenavi/weather-app/internal/models"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

type Config struct {
	YRBaseURL         string
	UnsplashBaseURL   string
	UnsplashAccessKey string
	HTTPTimeout       time.Duration

	SearchDebounce   time.Duration
	SearchMinQuery   int
	ExcludedCategory string

	PhotoKeyword string
	PhotoPerPage int

	FavoritesFile string
	DefaultCity   models.City

	LogLevel        string
	LogFormat       string
	OTLPEndpoint    string
	MetricsTextfile string
}

var defaults = map[string]any{
	"yr_base_url":              "https://www.yr.no/api/v0",
	"unsplash_base_url":        "https://api.unsplash.com",
	"unsplash_access_key":      "",
	"http_timeout":             10 * time.Second,
	"search_debounce":          500 * time.Millisecond,
	"search_min_query":         3,
	"search_excluded_category": "CE12",
	"photo_keyword":            "tourist",
	"photo_per_page":           1,
	"favorites_file":           "",
	"default_city_id":          "2-2950159",
	"default_city_name":        "Berlin",
	"default_city_country":     "Germany",

	"log_level":                   "info",
	"log_format":                  "text",
	"otel_exporter_otlp_endpoint": "",
	"metrics_textfile":            "",
}

// Load reads configuration from the environment, optionally layered over the
// YAML file named by WEATHER_APP_CONFIG. Environment variables win.
func Load() (Config, error) {
	v := viper.New()
	for k, d := range defaults {
		v.SetDefault(k, d)
	}
	v.AutomaticEnv()

	if path := strings.TrimSpace(os.Getenv("WEATHER_APP_CONFIG")); path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := Config{
		YRBaseURL:         strings.TrimSpace(v.GetString("yr_base_url")),
		UnsplashBaseURL:   strings.TrimSpace(v.GetString("unsplash_base_url")),
		UnsplashAccessKey: strings.TrimSpace(v.GetString("unsplash_access_key")),
		HTTPTimeout:       v.GetDuration("http_timeout"),
		SearchDebounce:    v.GetDuration("search_debounce"),
		SearchMinQuery:    v.GetInt("search_min_query"),
		ExcludedCategory:  strings.TrimSpace(v.GetString("search_excluded_category")),
		PhotoKeyword:      strings.TrimSpace(v.GetString("photo_keyword")),
		PhotoPerPage:      v.GetInt("photo_per_page"),
		FavoritesFile:     strings.TrimSpace(v.GetString("favorites_file")),
		DefaultCity: models.City{
			ID:      strings.TrimSpace(v.GetString("default_city_id")),
			Name:    strings.TrimSpace(v.GetString("default_city_name")),
			Country: strings.TrimSpace(v.GetString("default_city_country")),
		},
		LogLevel:        v.GetString("log_level"),
		LogFormat:       v.GetString("log_format"),
		OTLPEndpoint:    strings.TrimSpace(v.GetString("otel_exporter_otlp_endpoint")),
		MetricsTextfile: strings.TrimSpace(v.GetString("metrics_textfile")),
	}

	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = defaults["http_timeout"].(time.Duration)
	}
	if cfg.SearchDebounce <= 0 {
		cfg.SearchDebounce = defaults["search_debounce"].(time.Duration)
	}
	if cfg.SearchMinQuery <= 0 {
		cfg.SearchMinQuery = defaults["search_min_query"].(int)
	}
	if cfg.PhotoPerPage <= 0 {
		cfg.PhotoPerPage = defaults["photo_per_page"].(int)
	}
	if cfg.PhotoKeyword == "" {
		cfg.PhotoKeyword = defaults["photo_keyword"].(string)
	}

	slog.Debug("weather-app config loaded",
		"yr", cfg.YRBaseURL,
		"unsplash", cfg.UnsplashBaseURL,
		"unsplash_key_set", cfg.UnsplashAccessKey != "",
		"debounce", cfg.SearchDebounce,
		"favorites_file", cfg.FavoritesFile,
	)
	return cfg, nil
}

type favoritesFile struct {
	Favorites []models.City `yaml:"favorites"`
}

// LoadFavorites reads the initial favorites list. A missing or empty path
// yields no favorites.
func LoadFavorites(path string) ([]models.City, error) {
	if path == "" {
		return nil, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var f favoritesFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse favorites %s: %w", path, err)
	}
	out := make([]models.City, 0, len(f.Favorites))
	for i, c := range f.Favorites {
		c.ID = strings.TrimSpace(c.ID)
		if c.ID == "" {
			return nil, fmt.Errorf("favorites %s: entry %d has no id", path, i)
		}
		out = append(out, c)
	}
	return out, nil
}
