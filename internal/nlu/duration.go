package nlu

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	ErrNoDuration    = errors.New("no duration found")
	ErrDurationRange = errors.New("duration out of range")
)

// MaxTimer bounds what a spoken timer may ask for.
const MaxTimer = 24 * time.Hour

var (
	durationRe = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(hours?|hrs?|h|minutes?|mins?|m|seconds?|secs?|s)\b`)
	articleRe  = regexp.MustCompile(`\b(?:an?|one)\s+(hour|minute|second)\b`)
	halfRe     = regexp.MustCompile(`\bhalf\s+an?\s+(hour|minute)\b`)
)

// ParseDuration reads phrases like "5 seconds", "two minutes" or
// "1 hour and 30 minutes". All unit groups found are summed.
func ParseDuration(phrase string) (time.Duration, error) {
	q := ReplaceNumberWords(Normalize(phrase))
	q = halfRe.ReplaceAllString(q, "0.5 $1")
	q = articleRe.ReplaceAllString(q, "1 $1")

	// summed as float so huge spoken values cannot wrap around
	var total float64
	for _, m := range durationRe.FindAllStringSubmatch(q, -1) {
		v, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}

		unit := time.Second
		switch m[2][0] {
		case 'h':
			unit = time.Hour
		case 'm':
			unit = time.Minute
		}
		total += v * float64(unit)
	}

	if total <= 0 {
		return 0, fmt.Errorf("%q: %w", phrase, ErrNoDuration)
	}
	if total > float64(MaxTimer) {
		return 0, fmt.Errorf("%q: %w", phrase, ErrDurationRange)
	}
	return time.Duration(total).Round(time.Second), nil
}

// SpeakDuration renders d the way a person would say it.
func SpeakDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := int(d / time.Hour)
	m := int(d % time.Hour / time.Minute)
	s := int(d % time.Minute / time.Second)

	var parts []string
	for _, p := range []struct {
		n    int
		unit string
	}{{h, "hour"}, {m, "minute"}, {s, "second"}} {
		switch {
		case p.n == 1:
			parts = append(parts, "1 "+p.unit)
		case p.n > 1:
			parts = append(parts, fmt.Sprintf("%d %ss", p.n, p.unit))
		}
	}

	if len(parts) == 0 {
		return "0 seconds"
	}
	return strings.Join(parts, " ")
}
