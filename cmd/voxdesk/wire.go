package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"time"

	"github.com/spf13/afero"

	log "log/slog"

	"voxdesk/internal/assistant"
	"voxdesk/internal/audio"
	"voxdesk/internal/config"
	"voxdesk/internal/desktop"
	"voxdesk/internal/mail"
	"voxdesk/internal/music"
	"voxdesk/internal/news"
	"voxdesk/internal/notify"
	"voxdesk/internal/proxy"
	"voxdesk/internal/tts"
	"voxdesk/internal/tts/espeak"
	"voxdesk/internal/voice"
	"voxdesk/internal/weather"
	"voxdesk/internal/wiki"
	"voxdesk/pkg/stt"
)

const requestTimeout = 10 * time.Second

func newHTTPClient(cfg *config.Config) (*http.Client, error) {
	return proxy.NewHTTPClient(cfg.Proxy, requestTimeout)
}

func newSpeaker(cfg *config.Config) tts.Speaker {
	var s tts.Speaker
	switch cfg.Speech.Engine {
	case "espeak":
		s = espeak.New(cfg.Speech.Language, cfg.Speech.Rate)
	default:
		s = tts.NewConsole(os.Stdout)
	}

	if cfg.Speech.Duck {
		s = tts.WithDucking(s, audio.NewDucker([]string{"voxdesk", "espeak"}, 10, 0.25, 150*time.Millisecond))
	}
	return s
}

func newEngine(cfg *config.Config, httpClient *http.Client) (stt.Engine, error) {
	switch cfg.Input.Engine {
	case "whisper":
		w, err := stt.NewWhisper(cfg.Input.WhisperModel, stt.Options{
			Language:      cfg.Input.Language,
			InitialPrompt: "Commands like: set a timer, add to my to-do list, what's the weather, open youtube, play music.",
		})
		if err != nil {
			return nil, err
		}
		return w, nil
	case "openai":
		if config.IsPlaceholder(cfg.Secrets.OpenAIKey) {
			return nil, errors.New("OPENAI_API_KEY not set")
		}
		return stt.NewOpenAI(httpClient, stt.OpenAIConfig{
			APIKey:   cfg.Secrets.OpenAIKey,
			Language: cfg.Input.Language,
		}), nil
	}
	return nil, nil
}

// newInput builds the transcriber for the configured mode. The returned
// cleanup releases the audio device and the speech engine.
func newInput(cfg *config.Config, httpClient *http.Client, player *notify.Player) (voice.Transcriber, func(), error) {
	engine, err := newEngine(cfg, httpClient)
	if err != nil {
		return nil, nil, fmt.Errorf("speech engine: %w", err)
	}

	closeEngine := func() {
		if engine != nil {
			engine.Close()
		}
	}

	if cfg.Input.Mode == "socket" {
		return voice.NewQueue(16, cfg.Input.ListenTimeout.Duration(), engine), closeEngine, nil
	}

	if engine == nil {
		return nil, nil, errors.New("mic input needs a speech engine")
	}

	rec := audio.NewRecorder(audio.RecorderConfig{
		SilenceRMS:    cfg.Input.SilenceRMS,
		SpeechTimeout: cfg.Input.SpeechTimeout.Duration(),
		PhraseLimit:   cfg.Input.PhraseLimit.Duration(),
	})
	if err := rec.Init(); err != nil {
		closeEngine()
		return nil, nil, fmt.Errorf("init audio: %w", err)
	}

	cleanup := func() {
		rec.Close()
		closeEngine()
	}
	return voice.NewMic(rec, engine, player.Cue), cleanup, nil
}

type services struct {
	weather  assistant.Weather
	news     assistant.News
	wiki     assistant.Wiki
	desktop  assistant.Desktop
	music    assistant.Music
	mail     assistant.Mailer
	accounts map[string]mail.Account
}

func newServices(ctx context.Context, cfg *config.Config, fs afero.Fs, httpClient *http.Client) services {
	s := services{
		weather: weather.NewClient(httpClient, weather.Config{
			APIKey:  cfg.Secrets.WeatherKey,
			BaseURL: cfg.Weather.BaseURL,
			Units:   cfg.Weather.Units,
		}),
		news: news.NewClient(httpClient, news.Config{
			APIKey:  cfg.Secrets.NewsKey,
			BaseURL: cfg.News.BaseURL,
			Country: cfg.News.Country,
			Limit:   cfg.News.Limit,
		}),
		wiki:     wiki.NewClient(httpClient, cfg.Wiki.BaseURL, cfg.Wiki.Sentences),
		desktop:  desktop.New(desktopConfig(cfg), audio.NewMixer()),
		music:    newMusic(ctx, cfg, fs, httpClient),
		mail:     mail.NewSMTP(cfg.Mail.Host, cfg.Mail.Port),
		accounts: make(map[string]mail.Account, len(cfg.Mail.Accounts)),
	}

	for name, acc := range cfg.Mail.Accounts {
		s.accounts[name] = mail.Account{Address: acc.Address, Password: acc.Password}
	}

	log.Debug("Loaded services", "accounts", len(s.accounts), "contacts", len(cfg.Mail.Contacts))
	return s
}

func desktopConfig(cfg *config.Config) desktop.Config {
	d := desktop.DefaultConfig()
	d.Apps = cfg.Desktop.Apps
	d.Websites = cfg.Desktop.Websites
	d.PowerDryRun = cfg.Desktop.PowerDryRun

	if cfg.Desktop.SearchURL != "" {
		d.SearchURL = cfg.Desktop.SearchURL
	}
	if len(cfg.Desktop.OpenCommand) > 0 {
		d.OpenCommand = cfg.Desktop.OpenCommand
	}
	if len(cfg.Desktop.BrightnessCommand) > 0 {
		d.BrightnessCommand = cfg.Desktop.BrightnessCommand
	}
	if len(cfg.Desktop.ScreenshotCommand) > 0 {
		d.ScreenshotCommand = cfg.Desktop.ScreenshotCommand
	}
	if cfg.Desktop.ScreenshotDir != "" {
		d.ScreenshotDir = cfg.Desktop.ScreenshotDir
	}
	for action, argv := range cfg.Desktop.PowerCommands {
		d.PowerCommands[desktop.PowerAction(action)] = argv
	}
	return d
}

// newMusic never fails: a Spotify setup problem is reported when the user
// asks for music.
func newMusic(ctx context.Context, cfg *config.Config, fs afero.Fs, httpClient *http.Client) *music.Client {
	if config.IsPlaceholder(cfg.Secrets.SpotifyID) || config.IsPlaceholder(cfg.Secrets.SpotifySecret) {
		return music.Unavailable(music.ErrNotConfigured)
	}

	oauth := music.OAuthConfig(cfg.Secrets.SpotifyID, cfg.Secrets.SpotifySecret, cfg.Music.RedirectURL)
	authed, err := music.NewAuthorizedClient(ctx, oauth, httpClient, fs, cfg.Music.TokenFile)
	if err != nil {
		log.Warn("Spotify unavailable", "err", err)
		return music.Unavailable(err)
	}
	return music.NewClient(authed, cfg.Music.BaseURL)
}

func openBrowser(cfg *config.Config) func(string) error {
	argv := cfg.Desktop.OpenCommand
	if len(argv) == 0 {
		argv = desktop.DefaultConfig().OpenCommand
	}

	return func(u string) error {
		log.Info("Open this URL to authorize Spotify", "url", u)

		args := make([]string, len(argv))
		for i, a := range argv {
			if a == "{target}" {
				a = u
			}
			args[i] = a
		}
		return exec.Command(args[0], args[1:]...).Start()
	}
}
