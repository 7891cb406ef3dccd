// Package music controls Spotify playback through the Web API.
package music

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

var (
	ErrNotConfigured = errors.New("spotify credentials are not configured")
	ErrNotAuthorized = errors.New("spotify is not authorized")
	ErrNoDevice      = errors.New("no active spotify device")
	ErrTrackNotFound = errors.New("track not found")
	ErrUnavailable   = errors.New("spotify request failed")
)

type Track struct {
	Name   string
	Artist string
	URI    string
}

type Device struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	IsActive bool   `json:"is_active"`
}

// Client talks to the Web API with an HTTP client that already carries the
// user's OAuth token.
type Client struct {
	http    *http.Client
	baseURL string
	broken  error
}

func NewClient(httpClient *http.Client, baseURL string) *Client {
	return &Client{http: httpClient, baseURL: strings.TrimRight(baseURL, "/")}
}

// Unavailable returns a client whose every call fails with reason.
func Unavailable(reason error) *Client {
	return &Client{broken: reason}
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any, out any) error {
	if c.broken != nil {
		return c.broken
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		r = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, r)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, ErrNotAuthorized) {
			return err
		}
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return ErrNotAuthorized
	case resp.StatusCode == http.StatusNotFound:
		// the player endpoints answer 404 NO_ACTIVE_DEVICE
		return ErrNoDevice
	case resp.StatusCode >= 300:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: %s %s: %d %s", ErrUnavailable, method, path, resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode %s: %w", ErrUnavailable, path, err)
	}
	return nil
}

func (c *Client) Devices(ctx context.Context) ([]Device, error) {
	var out struct {
		Devices []Device `json:"devices"`
	}
	if err := c.do(ctx, http.MethodGet, "/me/player/devices", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Devices, nil
}

// device picks the active device, falling back to the first one listed.
func (c *Client) device(ctx context.Context) (string, error) {
	devices, err := c.Devices(ctx)
	if err != nil {
		return "", err
	}
	if len(devices) == 0 {
		return "", ErrNoDevice
	}
	for _, d := range devices {
		if d.IsActive {
			return d.ID, nil
		}
	}
	return devices[0].ID, nil
}

func (c *Client) Search(ctx context.Context, song string) (Track, error) {
	var out struct {
		Tracks struct {
			Items []struct {
				Name    string `json:"name"`
				URI     string `json:"uri"`
				Artists []struct {
					Name string `json:"name"`
				} `json:"artists"`
			} `json:"items"`
		} `json:"tracks"`
	}

	q := url.Values{"q": {song}, "type": {"track"}, "limit": {"1"}}
	if err := c.do(ctx, http.MethodGet, "/search", q, nil, &out); err != nil {
		return Track{}, err
	}
	if len(out.Tracks.Items) == 0 {
		return Track{}, fmt.Errorf("%q: %w", song, ErrTrackNotFound)
	}

	it := out.Tracks.Items[0]
	t := Track{Name: it.Name, URI: it.URI}
	if len(it.Artists) > 0 {
		t.Artist = it.Artists[0].Name
	}
	return t, nil
}

// Play searches for song and starts the best match on the user's device.
func (c *Client) Play(ctx context.Context, song string) (Track, error) {
	id, err := c.device(ctx)
	if err != nil {
		return Track{}, err
	}
	t, err := c.Search(ctx, song)
	if err != nil {
		return Track{}, err
	}

	body := map[string][]string{"uris": {t.URI}}
	if err := c.do(ctx, http.MethodPut, "/me/player/play", url.Values{"device_id": {id}}, body, nil); err != nil {
		return Track{}, err
	}
	return t, nil
}

func (c *Client) Pause(ctx context.Context) error {
	id, err := c.device(ctx)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPut, "/me/player/pause", url.Values{"device_id": {id}}, nil, nil)
}

func (c *Client) Next(ctx context.Context) error {
	id, err := c.device(ctx)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, "/me/player/next", url.Values{"device_id": {id}}, nil, nil)
}
