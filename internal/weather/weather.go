package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	log "log/slog"
	"net/http"
	"net/url"

	"voxdesk/internal/config"
)

const DefaultBaseURL = "https://api.openweathermap.org/data/2.5/weather"

var (
	ErrNotConfigured = errors.New("weather api key not configured")
	ErrCityNotFound  = errors.New("city not found")
	ErrUnavailable   = errors.New("weather service unavailable")
)

type Config struct {
	APIKey  string
	BaseURL string
	Units   string
}

type Report struct {
	City        string
	Temperature float64
	Description string
}

type Client struct {
	http    *http.Client
	apiKey  string
	baseURL string
	units   string
}

func NewClient(httpClient *http.Client, cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Units == "" {
		cfg.Units = "metric"
	}
	return &Client{
		http:    httpClient,
		apiKey:  cfg.APIKey,
		baseURL: cfg.BaseURL,
		units:   cfg.Units,
	}
}

// Configured is false for blank keys and for the "YOUR_..." placeholders
// shipped in the sample config.
func (c *Client) Configured() bool {
	return !config.IsPlaceholder(c.apiKey)
}

type currentResponse struct {
	Name string `json:"name"`
	Main struct {
		Temp float64 `json:"temp"`
	} `json:"main"`
	Weather []struct {
		Description string `json:"description"`
	} `json:"weather"`
}

func (c *Client) Current(ctx context.Context, city string) (Report, error) {
	if !c.Configured() {
		return Report{}, ErrNotConfigured
	}

	q := url.Values{}
	q.Set("q", city)
	q.Set("appid", c.apiKey)
	q.Set("units", c.units)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return Report{}, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return Report{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		log.Debug("Weather lookup rejected", "city", city, "status", resp.StatusCode)
		return Report{}, fmt.Errorf("%w: %s", ErrCityNotFound, city)
	case resp.StatusCode/100 != 2:
		return Report{}, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var body currentResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Report{}, fmt.Errorf("%w: decode: %w", ErrUnavailable, err)
	}

	r := Report{City: city, Temperature: body.Main.Temp}
	if len(body.Weather) > 0 {
		r.Description = body.Weather[0].Description
	}
	return r, nil
}
