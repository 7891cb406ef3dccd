// Package config loads voxdesk settings: a JSON file for tables and paths,
// the environment (optionally seeded from a .env file) for secrets.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/afero"
)

const (
	xdgAppName = "voxdesk"
	configFile = "config.json"
)

type Config struct {
	Input   InputConfig   `json:"input"`
	Speech  SpeechConfig  `json:"speech"`
	Files   FilesConfig   `json:"files"`
	Weather WeatherConfig `json:"weather"`
	News    NewsConfig    `json:"news"`
	Wiki    WikiConfig    `json:"wiki"`
	Desktop DesktopConfig `json:"desktop"`
	Music   MusicConfig   `json:"music"`
	Mail    MailConfig    `json:"mail"`
	Proxy   string        `json:"proxy"`   // SOCKS5 address, empty = direct
	BusURL  string        `json:"bus_url"` // websocket hub, empty = disabled
	Secrets Secrets       `json:"-"`
}

type InputConfig struct {
	Mode          string  `json:"mode"`   // mic | socket
	Engine        string  `json:"engine"` // whisper | openai
	WhisperModel  string  `json:"whisper_model"`
	Language      string  `json:"language"`
	SocketPath    string  `json:"socket_path"`
	ListenTimeout Seconds `json:"listen_timeout"` // socket mode, 0 = wait for input
	SpeechTimeout Seconds `json:"speech_timeout"` // mic mode
	PhraseLimit   Seconds `json:"phrase_limit"`
	SilenceRMS    float64 `json:"silence_rms"`
	CueSound      string  `json:"cue_sound"`
}

type SpeechConfig struct {
	Engine   string `json:"engine"` // espeak | console
	Language string `json:"language"`
	Rate     int    `json:"rate"`
	Duck     bool   `json:"duck"`
}

type FilesConfig struct {
	Todo       string `json:"todo"`
	SessionLog string `json:"session_log"`
	HistoryDB  string `json:"history_db"`
	AlarmSound string `json:"alarm_sound"`
}

type WeatherConfig struct {
	BaseURL     string `json:"base_url"`
	Units       string `json:"units"`
	DefaultCity string `json:"default_city"`
}

type NewsConfig struct {
	BaseURL string `json:"base_url"`
	Country string `json:"country"`
	Limit   int    `json:"limit"`
}

type WikiConfig struct {
	BaseURL   string `json:"base_url"`
	Sentences int    `json:"sentences"`
}

type DesktopConfig struct {
	Apps              map[string]string   `json:"apps"`
	Websites          map[string]string   `json:"websites"`
	SearchURL         string              `json:"search_url"`
	OpenCommand       []string            `json:"open_command"`
	BrightnessCommand []string            `json:"brightness_command"`
	ScreenshotCommand []string            `json:"screenshot_command"`
	ScreenshotDir     string              `json:"screenshot_dir"`
	PowerCommands     map[string][]string `json:"power_commands"`
	PowerDryRun       bool                `json:"power_dry_run"`
}

type MusicConfig struct {
	BaseURL     string `json:"base_url"`
	RedirectURL string `json:"redirect_url"`
	TokenFile   string `json:"token_file"`
}

type MailAccount struct {
	Address  string `json:"address"`
	Password string `json:"password"`
}

type MailConfig struct {
	Host     string                 `json:"host"`
	Port     int                    `json:"port"`
	Accounts map[string]MailAccount `json:"accounts"`
	Contacts map[string]string      `json:"contacts"`
}

// Secrets never come from the JSON file.
type Secrets struct {
	WeatherKey    string
	NewsKey       string
	SpotifyID     string
	SpotifySecret string
	OpenAIKey     string
}

// Seconds is a duration written as a plain number of seconds in JSON.
type Seconds float64

func (s Seconds) Duration() time.Duration {
	return time.Duration(float64(s) * float64(time.Second))
}

func Default() *Config {
	return &Config{
		Input: InputConfig{
			Mode:          "mic",
			Engine:        "whisper",
			WhisperModel:  "models/ggml-base.en.bin",
			Language:      "en",
			SocketPath:    "/tmp/voxdesk.sock",
			SpeechTimeout: 5,
			PhraseLimit:   10,
			SilenceRMS:    0.015,
		},
		Speech: SpeechConfig{Engine: "espeak", Language: "en", Rate: 170},
		Files: FilesConfig{
			Todo:       "todo.txt",
			SessionLog: "assistant_log.txt",
			HistoryDB:  "history.db",
		},
		Weather: WeatherConfig{BaseURL: "https://api.openweathermap.org/data/2.5/weather", Units: "metric"},
		News:    NewsConfig{BaseURL: "https://newsapi.org/v2/top-headlines", Country: "in", Limit: 5},
		Wiki:    WikiConfig{BaseURL: "https://en.wikipedia.org/api/rest_v1/page/summary/", Sentences: 2},
		Desktop: DesktopConfig{
			Apps: map[string]string{},
			Websites: map[string]string{
				"google":   "https://www.google.com",
				"youtube":  "https://www.youtube.com",
				"linkedin": "https://www.linkedin.com",
				"github":   "https://www.github.com",
			},
			SearchURL:         "https://www.google.com/search?q={query}",
			OpenCommand:       []string{"xdg-open", "{target}"},
			BrightnessCommand: []string{"brightnessctl", "set", "{level}%"},
			ScreenshotCommand: []string{"grim", "{file}"},
			ScreenshotDir:     ".",
			PowerCommands: map[string][]string{
				"shutdown": {"systemctl", "poweroff"},
				"restart":  {"systemctl", "reboot"},
				"sleep":    {"systemctl", "suspend"},
			},
		},
		Music: MusicConfig{
			BaseURL:     "https://api.spotify.com/v1",
			RedirectURL: "http://127.0.0.1:8888/callback/",
		},
		Mail: MailConfig{
			Host:     "smtp.gmail.com",
			Port:     465,
			Accounts: map[string]MailAccount{},
			Contacts: map[string]string{},
		},
	}
}

func GetConfigPath() (string, error) {
	if dir, ok := os.LookupEnv("XDG_CONFIG_HOME"); ok && dir != "" {
		return filepath.Join(dir, xdgAppName, configFile), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", xdgAppName, configFile), nil
}

// Load reads path over the defaults. A missing file yields the defaults.
// Secrets are taken from the environment.
func Load(fs afero.Fs, path string) (*Config, error) {
	cfg := Default()

	f, err := fs.Open(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, err
	default:
		defer f.Close()
		if err := json.NewDecoder(f).Decode(cfg); err != nil {
			return nil, fmt.Errorf("failed to decode config: %w", err)
		}
	}

	cfg.Secrets = Secrets{
		WeatherKey:    getEnv("WEATHER_API_KEY", ""),
		NewsKey:       getEnv("NEWS_API_KEY", ""),
		SpotifyID:     getEnv("SPOTIFY_CLIENT_ID", ""),
		SpotifySecret: getEnv("SPOTIFY_CLIENT_SECRET", ""),
		OpenAIKey:     getEnv("OPENAI_API_KEY", ""),
	}
	cfg.Proxy = getEnv("VOXDESK_PROXY", cfg.Proxy)
	cfg.BusURL = getEnv("BUS_URL", cfg.BusURL)
	cfg.Desktop.PowerDryRun = getEnvBool("VOXDESK_POWER_DRY_RUN", cfg.Desktop.PowerDryRun)
	if n := getEnvInt("NEWS_LIMIT", cfg.News.Limit); n > 0 {
		cfg.News.Limit = n
	}

	if cfg.Music.TokenFile == "" {
		if p, err := GetConfigPath(); err == nil {
			cfg.Music.TokenFile = filepath.Join(filepath.Dir(p), "spotify_token.json")
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func Save(fs afero.Fs, path string, cfg *Config) error {
	if err := fs.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := fs.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to open config file for writing: %w", err)
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	encoder.SetIndent("", "  ")
	return encoder.Encode(cfg)
}

// Validate checks the fields the assistant cannot run without.
func (c *Config) Validate() error {
	switch c.Input.Mode {
	case "mic", "socket":
	default:
		return fmt.Errorf("input.mode must be mic or socket, got %q", c.Input.Mode)
	}
	switch c.Input.Engine {
	case "whisper", "openai", "none":
	default:
		return fmt.Errorf("input.engine must be whisper, openai or none, got %q", c.Input.Engine)
	}
	switch c.Speech.Engine {
	case "espeak", "console":
	default:
		return fmt.Errorf("speech.engine must be espeak or console, got %q", c.Speech.Engine)
	}
	if c.Files.Todo == "" {
		return errors.New("files.todo cannot be empty")
	}
	if c.Files.SessionLog == "" {
		return errors.New("files.session_log cannot be empty")
	}
	if c.Input.SocketPath == "" {
		return errors.New("input.socket_path cannot be empty")
	}
	if c.Input.ListenTimeout < 0 {
		return errors.New("input.listen_timeout must be >= 0")
	}
	if c.Wiki.Sentences <= 0 {
		return errors.New("wiki.sentences must be > 0")
	}
	if c.Mail.Port <= 0 {
		return errors.New("mail.port must be > 0")
	}
	return nil
}

// IsPlaceholder reports whether a credential was left unset.
func IsPlaceholder(v string) bool {
	v = strings.TrimSpace(v)
	return v == "" || strings.Contains(strings.ToUpper(v), "YOUR_")
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}
