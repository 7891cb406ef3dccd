// Package desktop performs the assistant's side effects on the local
// machine: launching apps and URLs, screenshots, volume, brightness and
// power actions. Everything goes through external commands.
package desktop

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

var (
	ErrUnknownName = errors.New("no entry configured")
	ErrInvalidPath = errors.New("configured path does not exist")
	ErrLevelRange  = errors.New("level must be between 0 and 100")
)

type PowerAction string

const (
	Shutdown PowerAction = "shutdown"
	Restart  PowerAction = "restart"
	Sleep    PowerAction = "sleep"
)

type Config struct {
	Apps              map[string]string
	Websites          map[string]string
	SearchURL         string
	OpenCommand       []string
	BrightnessCommand []string
	ScreenshotCommand []string
	ScreenshotDir     string
	PowerCommands     map[PowerAction][]string
	PowerDryRun       bool
}

func DefaultConfig() Config {
	return Config{
		SearchURL:         "https://www.google.com/search?q={query}",
		OpenCommand:       []string{"xdg-open", "{target}"},
		BrightnessCommand: []string{"brightnessctl", "set", "{level}%"},
		ScreenshotCommand: []string{"grim", "{file}"},
		ScreenshotDir:     ".",
		PowerCommands: map[PowerAction][]string{
			Shutdown: {"systemctl", "poweroff"},
			Restart:  {"systemctl", "reboot"},
			Sleep:    {"systemctl", "suspend"},
		},
	}
}

// Mixer sets the master output volume in percent.
type Mixer interface {
	SetMasterVolume(ctx context.Context, percent int) error
}

type Desktop struct {
	cfg   Config
	mixer Mixer

	// run waits for the command, start only launches it.
	run   func(ctx context.Context, argv []string) error
	start func(argv []string) error
	stat  func(path string) error
}

func New(cfg Config, mixer Mixer) *Desktop {
	cfg.Apps = normalizeKeys(cfg.Apps)
	cfg.Websites = normalizeKeys(cfg.Websites)

	return &Desktop{
		cfg:   cfg,
		mixer: mixer,
		run:   runCommand,
		start: startCommand,
		stat: func(p string) error {
			_, err := os.Stat(p)
			return err
		},
	}
}

func normalizeKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// normalizeKeys copies table with lowercased keys so config entries like
// "YouTube" match what the recognizer hears.
func normalizeKeys(table map[string]string) map[string]string {
	out := make(map[string]string, len(table))
	for k, v := range table {
		out[normalizeKey(k)] = v
	}
	return out
}

func lookup(table map[string]string, name string) (string, bool) {
	v, ok := table[normalizeKey(name)]
	return v, ok && v != ""
}

// OpenWebsite opens a configured site in the default browser.
func (d *Desktop) OpenWebsite(ctx context.Context, name string) (string, error) {
	target, ok := lookup(d.cfg.Websites, name)
	if !ok {
		return "", fmt.Errorf("website %q: %w", name, ErrUnknownName)
	}
	return target, d.start(expand(d.cfg.OpenCommand, map[string]string{"target": target}))
}

// OpenApp launches a configured application after checking the path exists.
// Bare command names are resolved through PATH.
func (d *Desktop) OpenApp(ctx context.Context, name string) error {
	path, ok := lookup(d.cfg.Apps, name)
	if !ok {
		return fmt.Errorf("app %q: %w", name, ErrUnknownName)
	}

	if !strings.ContainsRune(path, filepath.Separator) {
		resolved, err := exec.LookPath(path)
		if err != nil {
			return fmt.Errorf("app %q: %w", name, ErrInvalidPath)
		}
		path = resolved
	} else if err := d.stat(path); err != nil {
		return fmt.Errorf("app %q at %s: %w", name, path, ErrInvalidPath)
	}

	return d.start([]string{path})
}

// Search opens the configured search engine for term and returns the URL.
func (d *Desktop) Search(ctx context.Context, term string) (string, error) {
	u := strings.ReplaceAll(d.cfg.SearchURL, "{query}", url.QueryEscape(term))
	return u, d.start(expand(d.cfg.OpenCommand, map[string]string{"target": u}))
}

// Screenshot captures the screen into a timestamped PNG and returns its path.
func (d *Desktop) Screenshot(ctx context.Context, now time.Time) (string, error) {
	name := fmt.Sprintf("screenshot_%s.png", now.Format("2006-01-02_15-04-05"))
	file := filepath.Join(d.cfg.ScreenshotDir, name)

	if err := d.run(ctx, expand(d.cfg.ScreenshotCommand, map[string]string{"file": file})); err != nil {
		return "", fmt.Errorf("screenshot: %w", err)
	}
	return file, nil
}

func (d *Desktop) SetVolume(ctx context.Context, level int) error {
	if level < 0 || level > 100 {
		return ErrLevelRange
	}
	return d.mixer.SetMasterVolume(ctx, level)
}

func (d *Desktop) SetBrightness(ctx context.Context, level int) error {
	if level < 0 || level > 100 {
		return ErrLevelRange
	}
	argv := expand(d.cfg.BrightnessCommand, map[string]string{"level": strconv.Itoa(level)})
	if err := d.run(ctx, argv); err != nil {
		return fmt.Errorf("brightness: %w", err)
	}
	return nil
}

// Power runs the OS power action. Callers are responsible for confirming
// with the user first.
func (d *Desktop) Power(ctx context.Context, action PowerAction) error {
	argv, ok := d.cfg.PowerCommands[action]
	if !ok || len(argv) == 0 {
		return fmt.Errorf("power %s: %w", action, ErrUnknownName)
	}

	if d.cfg.PowerDryRun {
		log.Warn("Power action skipped (dry run)", "action", action, "cmd", strings.Join(argv, " "))
		return nil
	}

	log.Info("Running power action", "action", action)
	return d.run(ctx, argv)
}

func expand(argv []string, vars map[string]string) []string {
	out := make([]string, len(argv))
	for i, a := range argv {
		for k, v := range vars {
			a = strings.ReplaceAll(a, "{"+k+"}", v)
		}
		out[i] = a
	}
	return out
}

func runCommand(ctx context.Context, argv []string) error {
	if len(argv) == 0 {
		return errors.New("empty command")
	}

	out, err := exec.CommandContext(ctx, argv[0], argv[1:]...).CombinedOutput()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return fmt.Errorf("%s failed: exit code %d: %s", argv[0], exitErr.ExitCode(), strings.TrimSpace(string(out)))
		}
		return fmt.Errorf("%s failed: %w", argv[0], err)
	}
	return nil
}

func startCommand(argv []string) error {
	if len(argv) == 0 {
		return errors.New("empty command")
	}

	cmd := exec.Command(argv[0], argv[1:]...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", argv[0], err)
	}
	go func() { _ = cmd.Wait() }()
	return nil
}
