// Package assistant runs the listen, match, handle, speak and record cycle
// and owns the handlers behind every intent.
package assistant

import (
	"context"
	"fmt"
	log "log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"voxdesk/internal/arbiter"
	"voxdesk/internal/command"
	"voxdesk/internal/mail"
	"voxdesk/internal/nlu"
	"voxdesk/internal/session"
	"voxdesk/internal/todo"
	"voxdesk/internal/tts"
	"voxdesk/internal/voice"
)

const (
	startupLine   = "Initializing assistant. How can I help you?"
	noInputLine   = "Sorry, I didn't catch that."
	goodbyeLine   = "Goodbye! Have a great day."
	errorLine     = "Sorry, something went wrong while handling that."
	notUnderstood = "I am not sure how to respond to that."
)

// Deps are the collaborators the assistant drives. Online services may be
// nil, in which case their commands answer that they are unavailable.
type Deps struct {
	Input   voice.Transcriber
	Speaker tts.Speaker
	Sinks   []session.Sink
	Arbiter *arbiter.Arbiter
	Todo    *todo.Store

	Weather Weather
	News    News
	Wiki    Wiki
	Desktop Desktop
	Music   Music
	Mail    Mailer

	Accounts    map[string]mail.Account
	Contacts    map[string]string
	DefaultCity string

	// Alarm and Notify fire when a timer ends.
	Alarm  func() error
	Notify func(title, message string) error

	SessionID string
}

type handler func(ctx context.Context, m nlu.Result) (command.Result, error)

type Assistant struct {
	Deps

	handlers map[nlu.Intent]handler

	now   func() time.Time
	after func(time.Duration) <-chan time.Time
	pick  func(n int) int

	mu    sync.Mutex
	turns int
	last  session.Entry
}

func New(d Deps) *Assistant {
	if d.Arbiter == nil {
		d.Arbiter = arbiter.New()
	}

	a := &Assistant{
		Deps:  d,
		now:   time.Now,
		after: time.After,
		pick:  rand.IntN,
	}
	a.handlers = a.registry()
	return a
}

// Run speaks the startup line and loops until the user says goodbye or ctx
// is cancelled. While a background task holds the arbiter the loop does not
// listen.
func (a *Assistant) Run(ctx context.Context) error {
	a.say(startupLine)

	for {
		if ctx.Err() != nil {
			return nil
		}

		if a.Arbiter.Busy() {
			log.Debug("Background task running, not listening", "task", a.Arbiter.Owner())
			if err := a.Arbiter.Wait(ctx); err != nil {
				return nil
			}
			continue
		}

		heard, ok := a.Input.Listen(ctx)
		if ctx.Err() != nil {
			return nil
		}

		if !ok {
			a.reply(ctx, "", command.Result{Response: noInputLine, Status: command.StatusNoInput})
			continue
		}

		log.Info("Heard", "query", heard)

		res := a.Handle(ctx, heard)
		a.reply(ctx, heard, res)

		if res.Status == command.StatusExit {
			return nil
		}
	}
}

// Handle matches one utterance and runs its handler. Handler errors and
// panics come back as an Error result; they never escape.
func (a *Assistant) Handle(ctx context.Context, utterance string) (res command.Result) {
	m := nlu.Match(nlu.Rules, utterance)

	defer func() {
		if r := recover(); r != nil {
			log.Error("Handler panicked", "intent", m.Intent, "panic", r)
			res = command.Result{Response: errorLine, Status: command.StatusError}
		}
	}()

	log.Debug("Matched", "intent", m.Intent, "entities", m.Entities)

	h, ok := a.handlers[m.Intent]
	if !ok {
		return command.Result{Response: notUnderstood, Status: command.StatusNotUnderstood}
	}

	res, err := h(ctx, m)
	if err != nil {
		log.Error("Handler failed", "intent", m.Intent, "err", err)
		return command.Result{Response: errorLine, Status: command.StatusError}
	}
	return res
}

// reply speaks the response and hands the interaction to every sink.
func (a *Assistant) reply(ctx context.Context, query string, res command.Result) {
	a.say(res.Response)

	e := session.Entry{
		Session:  a.SessionID,
		Time:     a.now(),
		Query:    query,
		Response: res.Response,
		Status:   res.Status,
	}

	a.mu.Lock()
	a.turns++
	a.last = e
	a.mu.Unlock()

	for _, s := range a.Sinks {
		if err := s.Record(ctx, e); err != nil {
			log.Warn("Failed to record interaction", "sink", fmt.Sprintf("%T", s), "err", err)
		}
	}
}

func (a *Assistant) say(text string) {
	log.Info("Assistant", "says", text)
	if err := a.Speaker.Speak(text); err != nil {
		log.Error("Failed to speak", "err", err)
	}
}

// ask speaks a prompt and listens once for the answer.
func (a *Assistant) ask(ctx context.Context, prompt string) (string, bool) {
	a.say(prompt)
	heard, ok := a.Input.Listen(ctx)
	if ok {
		log.Info("Heard", "answer", heard)
	}
	return heard, ok
}

type Snapshot struct {
	Turns      int
	Busy       bool
	Task       string
	LastQuery  string
	LastStatus command.Status
}

// Snapshot reports loop state for the control socket.
func (a *Assistant) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	return Snapshot{
		Turns:      a.turns,
		Busy:       a.Arbiter.Busy(),
		Task:       a.Arbiter.Owner(),
		LastQuery:  a.last.Query,
		LastStatus: a.last.Status,
	}
}
