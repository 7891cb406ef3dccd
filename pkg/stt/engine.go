// Package stt turns recorded speech into text. Engines take mono float32
// PCM at 16 kHz, the format produced by the recorder and by audioconv.
package stt

import (
	"context"
	"errors"
)

var ErrNoAudio = errors.New("no audio samples provided")

type Engine interface {
	Transcribe(ctx context.Context, pcm16k []float32) (string, error)
	Name() string
	Close() error
}
