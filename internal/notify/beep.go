package notify

import (
	"fmt"
	log "log/slog"
	"os"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/speaker"
	"github.com/gen2brain/beeep"
)

// Player plays short mp3 cues: the listening beep and the timer alarm.
// An empty path disables that cue.
type Player struct {
	CuePath   string
	AlarmPath string

	once sync.Once
	rate beep.SampleRate
	err  error
}

func NewPlayer(cuePath, alarmPath string) *Player {
	return &Player{CuePath: cuePath, AlarmPath: alarmPath}
}

// Cue plays the sound that precedes listening. Failures are logged only.
func (p *Player) Cue() {
	if err := p.play(p.CuePath); err != nil {
		log.Warn("Failed to play cue", "path", p.CuePath, "err", err)
	}
}

func (p *Player) Alarm() error {
	return p.play(p.AlarmPath)
}

func (p *Player) play(path string) error {
	if path == "" {
		return nil
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}

	streamer, format, err := mp3.Decode(f)
	if err != nil {
		f.Close()
		return fmt.Errorf("decode mp3: %w", err)
	}
	defer streamer.Close()

	p.once.Do(func() {
		p.rate = format.SampleRate
		p.err = speaker.Init(format.SampleRate, format.SampleRate.N(time.Second/10))
	})
	if p.err != nil {
		return fmt.Errorf("init speaker: %w", p.err)
	}

	var s beep.Streamer = streamer
	if format.SampleRate != p.rate {
		s = beep.Resample(4, format.SampleRate, p.rate, streamer)
	}

	done := make(chan struct{})
	speaker.Play(beep.Seq(s, beep.Callback(func() {
		close(done)
	})))
	<-done
	return nil
}

// Desktop raises a desktop notification.
func Desktop(title, message string) error {
	if err := beeep.Notify(title, message, ""); err != nil {
		return fmt.Errorf("notify: %w", err)
	}
	return nil
}
