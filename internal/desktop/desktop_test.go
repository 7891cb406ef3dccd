package desktop

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"
)

type fakeMixer struct{ level int }

func (m *fakeMixer) SetMasterVolume(_ context.Context, percent int) error {
	m.level = percent
	return nil
}

type recorder struct {
	ran     [][]string
	started [][]string
}

func newTestDesktop(cfg Config) (*Desktop, *recorder, *fakeMixer) {
	rec := &recorder{}
	mix := &fakeMixer{level: -1}
	d := New(cfg, mix)
	d.run = func(_ context.Context, argv []string) error {
		rec.ran = append(rec.ran, argv)
		return nil
	}
	d.start = func(argv []string) error {
		rec.started = append(rec.started, argv)
		return nil
	}
	d.stat = func(p string) error {
		if p == "/opt/editor/bin/editor" {
			return nil
		}
		return os.ErrNotExist
	}
	return d, rec, mix
}

func TestOpenWebsite(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Websites = map[string]string{
		"github":   "https://www.github.com",
		"YouTube ": "https://www.youtube.com",
	}
	d, rec, _ := newTestDesktop(cfg)

	u, err := d.OpenWebsite(context.Background(), "GitHub")
	if err != nil {
		t.Fatalf("OpenWebsite failed: %v", err)
	}
	if u != "https://www.github.com" {
		t.Errorf("unexpected url %q", u)
	}
	if len(rec.started) != 1 || strings.Join(rec.started[0], " ") != "xdg-open https://www.github.com" {
		t.Errorf("unexpected launch %v", rec.started)
	}

	if u, err := d.OpenWebsite(context.Background(), "youtube"); err != nil || u != "https://www.youtube.com" {
		t.Errorf("expected mixed-case key to match, got %q %v", u, err)
	}

	if _, err := d.OpenWebsite(context.Background(), "myspace"); !errors.Is(err, ErrUnknownName) {
		t.Errorf("expected ErrUnknownName, got %v", err)
	}
}

func TestOpenAppValidatesPath(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Apps = map[string]string{
		"Editor": "/opt/editor/bin/editor",
		"ghost":  "/opt/ghost/bin/ghost",
	}
	d, rec, _ := newTestDesktop(cfg)

	if err := d.OpenApp(context.Background(), "editor"); err != nil {
		t.Fatalf("OpenApp failed: %v", err)
	}
	if err := d.OpenApp(context.Background(), "ghost"); !errors.Is(err, ErrInvalidPath) {
		t.Errorf("expected ErrInvalidPath, got %v", err)
	}
	if err := d.OpenApp(context.Background(), "photoshop"); !errors.Is(err, ErrUnknownName) {
		t.Errorf("expected ErrUnknownName, got %v", err)
	}
	if len(rec.started) != 1 {
		t.Errorf("expected exactly one launch, got %v", rec.started)
	}
}

func TestSearchEscapesQuery(t *testing.T) {
	d, _, _ := newTestDesktop(DefaultConfig())

	u, err := d.Search(context.Background(), "go generics & you")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if u != "https://www.google.com/search?q=go+generics+%26+you" {
		t.Errorf("unexpected url %q", u)
	}
}

func TestScreenshotFilename(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ScreenshotDir = "/tmp/shots"
	d, rec, _ := newTestDesktop(cfg)

	now := time.Date(2026, 10, 19, 13, 5, 9, 0, time.UTC)
	file, err := d.Screenshot(context.Background(), now)
	if err != nil {
		t.Fatalf("Screenshot failed: %v", err)
	}
	if file != "/tmp/shots/screenshot_2026-10-19_13-05-09.png" {
		t.Errorf("unexpected file %q", file)
	}
	if strings.Join(rec.ran[0], " ") != "grim "+file {
		t.Errorf("unexpected command %v", rec.ran[0])
	}
}

func TestLevelsAreBounded(t *testing.T) {
	d, rec, mix := newTestDesktop(DefaultConfig())

	if err := d.SetVolume(context.Background(), 101); !errors.Is(err, ErrLevelRange) {
		t.Errorf("expected ErrLevelRange, got %v", err)
	}
	if err := d.SetVolume(context.Background(), 40); err != nil || mix.level != 40 {
		t.Errorf("expected volume 40, got %d (%v)", mix.level, err)
	}
	if err := d.SetBrightness(context.Background(), -5); !errors.Is(err, ErrLevelRange) {
		t.Errorf("expected ErrLevelRange, got %v", err)
	}
	if err := d.SetBrightness(context.Background(), 70); err != nil {
		t.Fatalf("SetBrightness failed: %v", err)
	}
	if strings.Join(rec.ran[0], " ") != "brightnessctl set 70%" {
		t.Errorf("unexpected command %v", rec.ran[0])
	}
}

func TestPowerDryRun(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PowerDryRun = true
	d, rec, _ := newTestDesktop(cfg)

	if err := d.Power(context.Background(), Shutdown); err != nil {
		t.Fatalf("Power failed: %v", err)
	}
	if len(rec.ran) != 0 {
		t.Fatalf("expected no command in dry run, got %v", rec.ran)
	}

	cfg.PowerDryRun = false
	d, rec, _ = newTestDesktop(cfg)
	if err := d.Power(context.Background(), Restart); err != nil {
		t.Fatalf("Power failed: %v", err)
	}
	if strings.Join(rec.ran[0], " ") != "systemctl reboot" {
		t.Errorf("unexpected command %v", rec.ran[0])
	}
}
