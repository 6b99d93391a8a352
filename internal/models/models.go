package models

// City is a location picked from the directory search or the favorites list.
// Two cities are the same city when their IDs match.
type City struct {
	ID      string `json:"id" yaml:"id"`
	Name    string `json:"name" yaml:"name"`
	Country string `json:"country" yaml:"country"`
}

func (c City) Same(other City) bool { return c.ID == other.ID }

type HourlySample struct {
	Time          string  `json:"time"`
	Temp          float64 `json:"temp"`
	Icon          string  `json:"icon"`
	Precipitation float64 `json:"precipitation"`
}

type DailySample struct {
	Date          string  `json:"date"`
	TempMax       float64 `json:"temp_max"`
	TempMin       float64 `json:"temp_min"`
	Icon          string  `json:"icon"`
	Precipitation float64 `json:"precipitation"`
}

// WeatherData is replaced as a whole on every successful forecast fetch.
type WeatherData struct {
	Temperature float64        `json:"temperature"`
	Description string         `json:"description"`
	Icon        string         `json:"icon"`
	MaxTemp     float64        `json:"max_temp"`
	MinTemp     float64        `json:"min_temp"`
	Hourly      []HourlySample `json:"hourly"`
	Daily       []DailySample  `json:"daily"`
}
