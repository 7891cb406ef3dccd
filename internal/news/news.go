package news

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"voxdesk/internal/config"
)

const DefaultBaseURL = "https://newsapi.org/v2/top-headlines"

var (
	ErrNotConfigured = errors.New("news api key not configured")
	ErrUnavailable   = errors.New("news service unavailable")
	ErrNoHeadlines   = errors.New("no headlines")
)

type Config struct {
	APIKey  string
	BaseURL string
	Country string
	Limit   int
}

type Client struct {
	http *http.Client
	cfg  Config
}

func NewClient(httpClient *http.Client, cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Country == "" {
		cfg.Country = "in"
	}
	if cfg.Limit <= 0 {
		cfg.Limit = 5
	}
	return &Client{http: httpClient, cfg: cfg}
}

func (c *Client) Configured() bool {
	return !config.IsPlaceholder(c.cfg.APIKey)
}

type headlinesResponse struct {
	Status   string `json:"status"`
	Articles []struct {
		Title string `json:"title"`
	} `json:"articles"`
}

// Headlines returns at most Limit article titles.
func (c *Client) Headlines(ctx context.Context) ([]string, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	q := url.Values{}
	q.Set("country", c.cfg.Country)
	q.Set("pageSize", strconv.Itoa(c.cfg.Limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("X-Api-Key", c.cfg.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var body headlinesResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: decode: %w", ErrUnavailable, err)
	}

	var titles []string
	for _, a := range body.Articles {
		if t := strings.TrimSpace(a.Title); t != "" {
			titles = append(titles, t)
		}
		if len(titles) == c.cfg.Limit {
			break
		}
	}
	if len(titles) == 0 {
		return nil, ErrNoHeadlines
	}
	return titles, nil
}
