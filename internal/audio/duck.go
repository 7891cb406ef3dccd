package audio

import (
	"context"
	"fmt"
	"math"
	"slices"
	"sync"
	"time"
)

type fadeTarget struct {
	id   int
	from int
	to   int
}

// Ducker lowers every playback stream except our own while the assistant
// speaks, then fades them back. Streams are matched by application.name.
type Ducker struct {
	mu          sync.Mutex
	active      bool
	selfNames   []string
	originalVol map[int]int // sink-input id -> volume before ducking
	minVolume   int
	factor      float64
	fade        time.Duration

	list func(ctx context.Context) ([]streamInfo, error)
	set  func(ctx context.Context, id, percent int) error
}

func NewDucker(selfNames []string, minVolume int, factor float64, fade time.Duration) *Ducker {
	if factor <= 0 || factor > 1 {
		factor = 0.3
	}

	return &Ducker{
		selfNames:   append([]string(nil), selfNames...),
		originalVol: make(map[int]int),
		minVolume:   clampPercent(minVolume, maxVolume),
		factor:      factor,
		fade:        fade,
		list:        listStreams,
		set:         setSinkInputVolume,
	}
}

// Duck fades foreign streams to current*factor, never below minVolume.
// Calling it while already ducked does nothing.
func (d *Ducker) Duck(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.active {
		return nil
	}

	streams, err := d.list(ctx)
	if err != nil {
		return fmt.Errorf("list streams: %w", err)
	}

	targets, original := d.plan(streams)
	d.originalVol = original

	if err := d.fadeInputs(ctx, targets); err != nil {
		return err
	}

	d.active = true
	return nil
}

// Restore fades the streams touched by Duck back to where they were.
func (d *Ducker) Restore(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.active {
		return nil
	}

	streams, err := d.list(ctx)
	if err != nil {
		return fmt.Errorf("list streams: %w", err)
	}

	var targets []fadeTarget
	for _, s := range streams {
		if d.isSelf(s) {
			continue
		}
		orig, ok := d.originalVol[s.ID]
		if !ok {
			// appeared after ducking
			continue
		}
		targets = append(targets, fadeTarget{id: s.ID, from: s.Volume, to: orig})
	}

	if err := d.fadeInputs(ctx, targets); err != nil {
		return err
	}

	d.originalVol = make(map[int]int)
	d.active = false
	return nil
}

func (d *Ducker) plan(streams []streamInfo) ([]fadeTarget, map[int]int) {
	original := make(map[int]int)
	var targets []fadeTarget

	for _, s := range streams {
		if d.isSelf(s) {
			continue
		}

		to := math.Max(float64(s.Volume)*d.factor, float64(d.minVolume))
		to = math.Min(to, maxVolume)

		original[s.ID] = s.Volume
		targets = append(targets, fadeTarget{id: s.ID, from: s.Volume, to: int(math.Round(to))})
	}

	return targets, original
}

func (d *Ducker) isSelf(s streamInfo) bool {
	return slices.Contains(d.selfNames, s.AppName)
}

// fadeInputs steps every target linearly from its start to its end volume.
func (d *Ducker) fadeInputs(ctx context.Context, targets []fadeTarget) error {
	if len(targets) == 0 {
		return nil
	}

	if d.fade <= 0 {
		for _, t := range targets {
			if err := d.set(ctx, t.id, t.to); err != nil {
				return fmt.Errorf("set volume id=%d: %w", t.id, err)
			}
		}
		return nil
	}

	const minStep = 10 * time.Millisecond

	steps := max(int(d.fade/minStep), 1)
	stepDuration := d.fade / time.Duration(steps)

	for i := 0; i <= steps; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		frac := float64(i) / float64(steps)
		for _, t := range targets {
			v := int(math.Round(float64(t.from) + float64(t.to-t.from)*frac))
			if err := d.set(ctx, t.id, v); err != nil {
				return fmt.Errorf("set volume id=%d: %w", t.id, err)
			}
		}

		if i < steps {
			time.Sleep(stepDuration)
		}
	}

	return nil
}
