// Package weather looks up the current outdoor temperature from an
// Open-Meteo compatible forecast endpoint.
package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Defaults used when a Client field is left zero.
const (
	DefaultURL      = "https://api.open-meteo.com/v1/forecast"
	DefaultTimeout  = 5 * time.Second
	DefaultFallback = 25.0
)

var errNoTemperature = errors.New("response has no current temperature")

// Reading is the result of one lookup. When Fallback is set, Celsius holds
// the configured fallback temperature and Err the reason the lookup failed.
type Reading struct {
	Celsius  float64
	Fallback bool
	Err      error
}

// Client queries the forecast endpoint.
type Client struct {
	baseURL    string
	fallback   float64
	httpClient *http.Client
}

// Config configures a Client.
type Config struct {
	URL      string
	Timeout  time.Duration
	Fallback float64
}

// New creates a client. Zero values in cfg are replaced by the defaults,
// except Fallback, which is used as given.
func New(cfg Config) *Client {
	baseURL := cfg.URL
	if baseURL == "" {
		baseURL = DefaultURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL:    baseURL,
		fallback:   cfg.Fallback,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type forecastResponse struct {
	CurrentWeather *struct {
		Temperature *float64 `json:"temperature"`
	} `json:"current_weather"`
}

// CurrentTemperature returns the current temperature at the given
// coordinates. It never fails: any problem yields a fallback reading.
func (c *Client) CurrentTemperature(ctx context.Context, lat, lon float64) Reading {
	celsius, err := c.fetch(ctx, lat, lon)
	if err != nil {
		slog.Warn("weather lookup failed, using fallback temperature",
			"error", err, "fallback", c.fallback)
		return Reading{Celsius: c.fallback, Fallback: true, Err: err}
	}
	return Reading{Celsius: celsius}
}

func (c *Client) fetch(ctx context.Context, lat, lon float64) (float64, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return 0, fmt.Errorf("parsing weather URL: %w", err)
	}
	q := u.Query()
	q.Set("latitude", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("longitude", strconv.FormatFloat(lon, 'f', -1, 64))
	q.Set("current_weather", "true")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return 0, fmt.Errorf("creating weather request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("requesting weather: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return 0, fmt.Errorf("reading weather response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("weather API returned %d", resp.StatusCode)
	}

	var fr forecastResponse
	if err := json.Unmarshal(body, &fr); err != nil {
		return 0, fmt.Errorf("decoding weather response: %w", err)
	}
	if fr.CurrentWeather == nil || fr.CurrentWeather.Temperature == nil {
		return 0, errNoTemperature
	}
	return *fr.CurrentWeather.Temperature, nil
}
