package nlu

import (
	"regexp"
	"strings"
)

type Intent string

const (
	IntentExit          Intent = "exit"
	IntentGreeting      Intent = "greeting"
	IntentTodoAdd       Intent = "todo_add"
	IntentTodoShow      Intent = "todo_show"
	IntentTodoComplete  Intent = "todo_complete"
	IntentTimer         Intent = "timer"
	IntentTime          Intent = "time"
	IntentDate          Intent = "date"
	IntentJoke          Intent = "joke"
	IntentWikipedia     Intent = "wikipedia"
	IntentWeather       Intent = "weather"
	IntentNews          Intent = "news"
	IntentOpenWebsite   Intent = "open_website"
	IntentOpenApp       Intent = "open_app"
	IntentWebSearch     Intent = "web_search"
	IntentScreenshot    Intent = "screenshot"
	IntentVolume        Intent = "volume"
	IntentBrightness    Intent = "brightness"
	IntentShutdown      Intent = "shutdown"
	IntentRestart       Intent = "restart"
	IntentSleep         Intent = "sleep"
	IntentPlayMusic     Intent = "play_music"
	IntentPauseMusic    Intent = "pause_music"
	IntentNextTrack     Intent = "next_track"
	IntentEmail         Intent = "email"
	IntentCalculate     Intent = "calculate"
	IntentNotUnderstood Intent = "unknown"
)

// Entity keys filled in by extractors.
const (
	EntityTask     = "task"
	EntityNumber   = "number"
	EntityDuration = "duration"
	EntityTerm     = "term"
	EntityCity     = "city"
	EntityName     = "name"
	EntityLevel    = "level"
	EntitySong     = "song"
	EntityExpr     = "expression"
)

type Result struct {
	Intent   Intent            `json:"intent"`
	Entities map[string]string `json:"entities"`
	Query    string            `json:"query"`
}

// Entity returns the named entity, or "" when the extractor did not find it.
func (r Result) Entity(key string) string {
	if r.Entities == nil {
		return ""
	}
	return r.Entities[key]
}

// Rule pairs a predicate with an extractor. Rules are evaluated in table
// order and the first matching predicate wins, so overlapping rules must be
// listed most specific first.
type Rule struct {
	Intent  Intent
	Match   func(q string) bool
	Extract func(q string) map[string]string
}

// Match normalizes the utterance and runs it through the rule table.
func Match(rules []Rule, utterance string) Result {
	q := Normalize(utterance)

	for _, r := range rules {
		if !r.Match(q) {
			continue
		}
		res := Result{Intent: r.Intent, Query: q}
		if r.Extract != nil {
			res.Entities = r.Extract(q)
		}
		return res
	}

	return Result{Intent: IntentNotUnderstood, Query: q}
}

var spaceRe = regexp.MustCompile(`\s+`)

// Normalize lowercases, collapses whitespace and drops the trailing
// punctuation recognizers like to add.
func Normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = spaceRe.ReplaceAllString(s, " ")
	return strings.TrimRight(s, ".!?,")
}

func words(ws ...string) func(string) bool {
	re := regexp.MustCompile(`\b(?:` + strings.Join(ws, "|") + `)\b`)
	return re.MatchString
}

func all(preds ...func(string) bool) func(string) bool {
	return func(q string) bool {
		for _, p := range preds {
			if !p(q) {
				return false
			}
		}
		return true
	}
}
