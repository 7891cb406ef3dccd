package weather

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func TestCurrent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("q"); got != "bhopal" {
			t.Errorf("expected city bhopal, got %q", got)
		}
		if got := r.URL.Query().Get("units"); got != "metric" {
			t.Errorf("expected metric units, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"name":"Bhopal","main":{"temp":31.5},"weather":[{"description":"haze"}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), Config{APIKey: "k", BaseURL: srv.URL})
	r, err := c.Current(context.Background(), "bhopal")
	if err != nil {
		t.Fatalf("Current failed: %v", err)
	}
	if r.Temperature != 31.5 || r.Description != "haze" {
		t.Errorf("unexpected report %+v", r)
	}
}

func TestCurrentWithoutKeyMakesNoRequest(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	for _, key := range []string{"", "   ", "YOUR_WEATHER_API_KEY", "your_weather_api_key", " YOUR_KEY\n"} {
		c := NewClient(srv.Client(), Config{APIKey: key, BaseURL: srv.URL})
		if _, err := c.Current(context.Background(), "paris"); !errors.Is(err, ErrNotConfigured) {
			t.Fatalf("key %q: expected ErrNotConfigured, got %v", key, err)
		}
	}
	if n := calls.Load(); n != 0 {
		t.Fatalf("expected no requests, got %d", n)
	}
}

func TestCurrentStatusMapping(t *testing.T) {
	cases := []struct {
		status int
		want   error
	}{
		{http.StatusNotFound, ErrCityNotFound},
		{http.StatusUnauthorized, ErrCityNotFound},
		{http.StatusBadGateway, ErrUnavailable},
	}

	for _, tc := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
		}))

		c := NewClient(srv.Client(), Config{APIKey: "k", BaseURL: srv.URL})
		_, err := c.Current(context.Background(), "atlantis")
		if !errors.Is(err, tc.want) {
			t.Errorf("status %d: expected %v, got %v", tc.status, tc.want, err)
		}
		srv.Close()
	}
}
