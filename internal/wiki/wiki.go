package wiki

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
)

const DefaultBaseURL = "https://en.wikipedia.org/api/rest_v1/page/summary/"

var (
	ErrNotFound    = errors.New("page not found")
	ErrAmbiguous   = errors.New("ambiguous page")
	ErrUnavailable = errors.New("wikipedia unavailable")
)

type Client struct {
	http      *http.Client
	baseURL   string
	sentences int
}

func NewClient(httpClient *http.Client, baseURL string, sentences int) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	if sentences <= 0 {
		sentences = 2
	}
	return &Client{http: httpClient, baseURL: baseURL, sentences: sentences}
}

type summaryResponse struct {
	Type    string `json:"type"`
	Title   string `json:"title"`
	Extract string `json:"extract"`
}

// Summary returns the first sentences of the page best matching term.
func (c *Client) Summary(ctx context.Context, term string) (string, error) {
	title := strings.ReplaceAll(strings.TrimSpace(term), " ", "_")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+url.PathEscape(title)+"?redirect=true", nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "voxdesk/1.0")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return "", fmt.Errorf("%w: %s", ErrNotFound, term)
	case resp.StatusCode/100 != 2:
		return "", fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var body summaryResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("%w: decode: %w", ErrUnavailable, err)
	}

	if body.Type == "disambiguation" {
		return "", fmt.Errorf("%w: %s", ErrAmbiguous, term)
	}
	if strings.TrimSpace(body.Extract) == "" {
		return "", fmt.Errorf("%w: %s", ErrNotFound, term)
	}

	return firstSentences(body.Extract, c.sentences), nil
}

var sentenceEnd = regexp.MustCompile(`[.!?](\s+|$)`)

func firstSentences(text string, n int) string {
	idx := sentenceEnd.FindAllStringIndex(text, n)
	if len(idx) < n {
		return strings.TrimSpace(text)
	}
	return strings.TrimSpace(text[:idx[n-1][0]+1])
}
