// Package voice provides the assistant's input side. A Transcriber yields
// one lowercased utterance per Listen call, or false when nothing usable
// was heard. It never returns an error: failures are logged and reported
// as silence.
package voice

import (
	"context"
	"errors"
	log "log/slog"
	"regexp"
	"strings"
	"time"

	"voxdesk/pkg/audioconv"
	"voxdesk/pkg/stt"
)

type Transcriber interface {
	Listen(ctx context.Context) (string, bool)
}

var ErrQueueFull = errors.New("input queue is full")

// whisper marks non-speech as [BLANK_AUDIO], (music) and similar.
var annotationRe = regexp.MustCompile(`\[[^\]]*\]|\([^)]*\)|\*[^*]*\*`)

func clean(text string) string {
	text = annotationRe.ReplaceAllString(text, " ")
	return strings.ToLower(strings.Join(strings.Fields(text), " "))
}

type PhraseRecorder interface {
	RecordPhrase(ctx context.Context) ([]float32, error)
}

// Mic records one phrase from the microphone and runs it through an STT engine.
type Mic struct {
	rec     PhraseRecorder
	engine  stt.Engine
	cue     func()
	timeout time.Duration
}

func NewMic(rec PhraseRecorder, engine stt.Engine, cue func()) *Mic {
	return &Mic{rec: rec, engine: engine, cue: cue, timeout: 60 * time.Second}
}

func (m *Mic) Listen(ctx context.Context) (string, bool) {
	if m.cue != nil {
		m.cue()
	}

	log.Info("Listening...")

	pcm, err := m.rec.RecordPhrase(ctx)
	if err != nil {
		log.Error("Failed to record", "err", err)
		return "", false
	}
	if len(pcm) == 0 {
		log.Debug("No speech detected")
		return "", false
	}

	log.Debug("Recorded", "samples", len(pcm))

	return transcribe(ctx, m.engine, pcm, m.timeout)
}

func transcribe(ctx context.Context, engine stt.Engine, pcm []float32, timeout time.Duration) (string, bool) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	text, err := engine.Transcribe(ctx, pcm)
	if err != nil {
		log.Error("Failed to transcribe", "engine", engine.Name(), "err", err)
		return "", false
	}

	text = clean(text)
	log.Info("Transcribed", "engine", engine.Name(), "text", text, "took", time.Since(start).Round(time.Millisecond))

	return text, text != ""
}

type input struct {
	text string
	path string
}

// Queue is fed from the control socket. Text goes through as is, audio
// files are decoded and transcribed on the listening goroutine.
type Queue struct {
	items   chan input
	engine  stt.Engine
	timeout time.Duration
	decode  func(ctx context.Context, path string) ([]float32, error)
}

// NewQueue creates a queue holding up to size pending inputs. A timeout of
// zero makes Listen wait until input arrives or ctx ends. engine may be nil,
// in which case audio files are rejected.
func NewQueue(size int, timeout time.Duration, engine stt.Engine) *Queue {
	return &Queue{
		items:   make(chan input, max(size, 1)),
		engine:  engine,
		timeout: timeout,
		decode: func(ctx context.Context, path string) ([]float32, error) {
			return audioconv.ConvertFileToPCM16k(ctx, path, audioconv.Options{MaxSamples: 60 * audioconv.TargetRate})
		},
	}
}

func (q *Queue) Say(text string) error {
	return q.push(input{text: text})
}

var ErrNoEngine = errors.New("no speech engine configured")

func (q *Queue) File(path string) error {
	if q.engine == nil {
		return ErrNoEngine
	}
	return q.push(input{path: path})
}

func (q *Queue) push(in input) error {
	select {
	case q.items <- in:
		return nil
	default:
		return ErrQueueFull
	}
}

func (q *Queue) Pending() int { return len(q.items) }

func (q *Queue) Listen(ctx context.Context) (string, bool) {
	var expired <-chan time.Time
	if q.timeout > 0 {
		t := time.NewTimer(q.timeout)
		defer t.Stop()
		expired = t.C
	}

	select {
	case <-ctx.Done():
		return "", false
	case <-expired:
		return "", false
	case in := <-q.items:
		if in.path == "" {
			text := clean(in.text)
			return text, text != ""
		}

		pcm, err := q.decode(ctx, in.path)
		if err != nil {
			log.Error("Failed to decode audio file", "path", in.path, "err", err)
			return "", false
		}
		return transcribe(ctx, q.engine, pcm, 60*time.Second)
	}
}
