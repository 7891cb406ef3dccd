// Package tts holds the speech output side of the assistant.
package tts

import (
	"context"
	"fmt"
	"io"
	log "log/slog"
	"sync"
)

type Speaker interface {
	Speak(text string) error
}

// Console prints what would have been spoken. Used with --mute and when
// no speech engine is available.
type Console struct {
	mu  sync.Mutex
	out io.Writer
}

func NewConsole(out io.Writer) *Console { return &Console{out: out} }

func (c *Console) Speak(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, err := fmt.Fprintf(c.out, "Assistant: %s\n", text)
	return err
}

type Ducker interface {
	Duck(ctx context.Context) error
	Restore(ctx context.Context) error
}

type ducked struct {
	Speaker
	ducker Ducker
}

// WithDucking lowers other playback streams for the duration of each Speak.
func WithDucking(s Speaker, d Ducker) Speaker {
	return &ducked{Speaker: s, ducker: d}
}

func (d *ducked) Speak(text string) error {
	ctx := context.Background()

	if err := d.ducker.Duck(ctx); err != nil {
		log.Warn("Failed to duck audio", "err", err)
	}
	defer func() {
		if err := d.ducker.Restore(ctx); err != nil {
			log.Warn("Failed to restore audio", "err", err)
		}
	}()

	return d.Speaker.Speak(text)
}
