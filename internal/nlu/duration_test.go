package nlu

import (
	"errors"
	"testing"
	"time"
)

func TestParseDuration(t *testing.T) {
	cases := []struct {
		in   string
		want time.Duration
	}{
		{"5 seconds", 5 * time.Second},
		{"two minutes", 2 * time.Minute},
		{"1 hour 30 minutes", 90 * time.Minute},
		{"an hour and fifteen minutes", 75 * time.Minute},
		{"half an hour", 30 * time.Minute},
		{"a minute", time.Minute},
		{"90 secs", 90 * time.Second},
		{"twenty-five seconds", 25 * time.Second},
	}
	for _, tc := range cases {
		got, err := ParseDuration(tc.in)
		if err != nil {
			t.Errorf("ParseDuration(%q) failed: %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseDuration(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestParseDurationRejects(t *testing.T) {
	for _, in := range []string{"", "a while", "0 seconds", "soon"} {
		if _, err := ParseDuration(in); !errors.Is(err, ErrNoDuration) {
			t.Errorf("ParseDuration(%q): expected ErrNoDuration, got %v", in, err)
		}
	}
	for _, in := range []string{"30 hours", "10000000000 hours 10000000000 hours 5 seconds", "99999999999999999999 minutes"} {
		if _, err := ParseDuration(in); !errors.Is(err, ErrDurationRange) {
			t.Errorf("ParseDuration(%q): expected ErrDurationRange, got %v", in, err)
		}
	}
}

func TestSpeakDuration(t *testing.T) {
	cases := map[time.Duration]string{
		5 * time.Second:             "5 seconds",
		time.Minute:                 "1 minute",
		90 * time.Minute:            "1 hour 30 minutes",
		2*time.Hour + 1*time.Second: "2 hours 1 second",
	}
	for d, want := range cases {
		if got := SpeakDuration(d); got != want {
			t.Errorf("SpeakDuration(%v) = %q, want %q", d, got, want)
		}
	}
}
