package unsplash

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PetoAdam/homenavi/weather-app/internal/observability"
	"github.com/PetoAdam/homenavi/weather-app/internal/payload"
)

const (
	DefaultBaseURL = "https://api.unsplash.com"
	DefaultKeyword = "tourist"
	DefaultPerPage = 1

	providerName = "unsplash"
)

var (
	ErrNoPhoto     = fmt.Errorf("no photo found: %w", payload.ErrNoResults)
	ErrNoAccessKey = errors.New("unsplash access key not configured")
)

//go:embed schemas/photos.json
var photosSchemaSrc []byte

var photosSchema = payload.MustCompile("unsplash photos", photosSchemaSrc)

type Client struct {
	baseURL    string
	accessKey  string
	keyword    string
	perPage    int
	httpClient *http.Client
	obs        *observability.Instruments
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithKeyword(keyword string) Option {
	return func(c *Client) { c.keyword = keyword }
}

func WithPerPage(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.perPage = n
		}
	}
}

func WithInstruments(in *observability.Instruments) Option {
	return func(c *Client) { c.obs = in }
}

func New(baseURL, accessKey string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		accessKey: accessKey,
		keyword:   DefaultKeyword,
		perPage:   DefaultPerPage,
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
	Results []struct {
		URLs struct {
			Regular string `json:"regular"`
			Full    string `json:"full"`
		} `json:"urls"`
	} `json:"results"`
}

// CityPhoto returns the URL of the top landscape photo for a city name.
func (c *Client) CityPhoto(ctx context.Context, cityName string) (string, error) {
	if c.accessKey == "" {
		return "", ErrNoAccessKey
	}
	name := strings.TrimSpace(cityName)
	if name == "" {
		return "", errors.New("city photo: empty city name")
	}

	q := url.Values{}
	q.Set("query", name+" "+c.keyword)
	q.Set("client_id", c.accessKey)
	q.Set("orientation", "landscape")
	q.Set("per_page", strconv.Itoa(c.perPage))
	u := c.baseURL + "/search/photos?" + q.Encode()

	var resp searchResponse
	err := c.obs.Track(ctx, providerName, "photo", func(ctx context.Context) error {
		if err := payload.GetJSON(ctx, c.httpClient, u, photosSchema, &resp); err != nil {
			return err
		}
		if len(resp.Results) == 0 {
			return ErrNoPhoto
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("fetching photo for %s: %w", name, err)
	}

	urls := resp.Results[0].URLs
	if urls.Regular != "" {
		return urls.Regular, nil
	}
	if urls.Full != "" {
		return urls.Full, nil
	}
	return "", fmt.Errorf("fetching photo for %s: %w", name, ErrNoPhoto)
}
