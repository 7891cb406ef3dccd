package audio

import (
	"context"
	"math"
	"time"

	"github.com/gordonklaus/portaudio"
)

const SampleRate = 16000

type RecorderConfig struct {
	SilenceRMS    float64       // frames below this are silence
	SilenceHold   time.Duration // trailing silence that ends a phrase
	SpeechTimeout time.Duration // give up if nobody starts talking
	PhraseLimit   time.Duration // hard cap on one phrase
}

func DefaultRecorderConfig() RecorderConfig {
	return RecorderConfig{
		SilenceRMS:    0.015,
		SilenceHold:   600 * time.Millisecond,
		SpeechTimeout: 5 * time.Second,
		PhraseLimit:   10 * time.Second,
	}
}

type Recorder struct {
	cfg RecorderConfig
}

func NewRecorder(cfg RecorderConfig) *Recorder {
	def := DefaultRecorderConfig()
	if cfg.SilenceRMS <= 0 {
		cfg.SilenceRMS = def.SilenceRMS
	}
	if cfg.SilenceHold <= 0 {
		cfg.SilenceHold = def.SilenceHold
	}
	if cfg.SpeechTimeout <= 0 {
		cfg.SpeechTimeout = def.SpeechTimeout
	}
	if cfg.PhraseLimit <= 0 {
		cfg.PhraseLimit = def.PhraseLimit
	}
	return &Recorder{cfg: cfg}
}

func (r *Recorder) Init() error {
	return portaudio.Initialize()
}

func (r *Recorder) Close() {
	portaudio.Terminate()
}

// RecordPhrase captures one mono 16 kHz phrase from the default input.
// It returns an empty slice when no speech started before SpeechTimeout.
func (r *Recorder) RecordPhrase(ctx context.Context) ([]float32, error) {
	const frameSize = 320 // 20ms

	buf := make([]float32, frameSize)

	stream, err := portaudio.OpenDefaultStream(1, 0, SampleRate, len(buf), buf)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return nil, err
	}
	defer stream.Stop()

	g := newGate(r.cfg, frameSize)

	for !g.done() {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if err := stream.Read(); err != nil {
			return nil, err
		}
		g.push(buf)
	}

	return g.out, nil
}

// gate is the RMS voice-activity state machine behind RecordPhrase.
type gate struct {
	thresh   float64
	frameDur time.Duration
	hold     time.Duration
	timeout  time.Duration
	limit    time.Duration
	speaking bool
	finished bool
	waited   time.Duration
	silence  time.Duration
	recorded time.Duration
	out      []float32
}

func newGate(cfg RecorderConfig, frameSize int) *gate {
	return &gate{
		thresh:   cfg.SilenceRMS,
		frameDur: time.Duration(frameSize) * time.Second / SampleRate,
		hold:     cfg.SilenceHold,
		timeout:  cfg.SpeechTimeout,
		limit:    cfg.PhraseLimit,
		out:      make([]float32, 0, SampleRate*3),
	}
}

func (g *gate) push(frame []float32) {
	loud := frameRMS(frame) > g.thresh

	if !g.speaking {
		if !loud {
			g.waited += g.frameDur
			if g.waited >= g.timeout {
				g.finished = true
			}
			return
		}
		g.speaking = true
	}

	g.out = append(g.out, frame...)
	g.recorded += g.frameDur

	if loud {
		g.silence = 0
	} else {
		g.silence += g.frameDur
	}

	if g.silence >= g.hold || g.recorded >= g.limit {
		g.finished = true
	}
}

func (g *gate) done() bool { return g.finished }

func frameRMS(f []float32) float64 {
	if len(f) == 0 {
		return 0
	}
	var s float64
	for _, x := range f {
		s += float64(x * x)
	}
	return math.Sqrt(s / float64(len(f)))
}
