package config

import (
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
)

func TestLoadMissingFileGivesDefaults(t *testing.T) {
	t.Setenv("WEATHER_API_KEY", "abc123")
	t.Setenv("NEWS_API_KEY", "")

	cfg, err := Load(afero.NewMemMapFs(), "/etc/voxdesk/config.json")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Input.Mode != "mic" || cfg.Files.Todo != "todo.txt" {
		t.Errorf("unexpected defaults %+v", cfg.Input)
	}
	if cfg.Secrets.WeatherKey != "abc123" {
		t.Errorf("expected weather key from env, got %q", cfg.Secrets.WeatherKey)
	}
	if cfg.Mail.Host != "smtp.gmail.com" || cfg.Mail.Port != 465 {
		t.Errorf("unexpected mail defaults %+v", cfg.Mail)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	fs := afero.NewMemMapFs()
	doc := `{
		"input": {"mode": "socket", "engine": "none", "listen_timeout": 2.5},
		"weather": {"default_city": "Pune"},
		"desktop": {"websites": {"reddit": "https://www.reddit.com"}, "power_dry_run": true},
		"mail": {"accounts": {"personal": {"address": "me@example.com", "password": "secret"}}}
	}`
	if err := afero.WriteFile(fs, "/cfg.json", []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(fs, "/cfg.json")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Input.Mode != "socket" || cfg.Input.ListenTimeout.Duration() != 2500*time.Millisecond {
		t.Errorf("unexpected input %+v", cfg.Input)
	}
	if cfg.Weather.DefaultCity != "Pune" || cfg.Weather.Units != "metric" {
		t.Errorf("unexpected weather %+v", cfg.Weather)
	}
	if cfg.Desktop.Websites["reddit"] == "" || cfg.Desktop.Websites["github"] == "" {
		t.Errorf("expected merged website table, got %v", cfg.Desktop.Websites)
	}
	if !cfg.Desktop.PowerDryRun {
		t.Error("expected power dry run")
	}
	if cfg.Mail.Accounts["personal"].Address != "me@example.com" {
		t.Errorf("unexpected accounts %v", cfg.Mail.Accounts)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"bad mode":   `{"input": {"mode": "keyboard"}}`,
		"bad engine": `{"speech": {"engine": "festival"}}`,
		"empty todo": `{"files": {"todo": ""}}`,
		"not json":   `{"input":`,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			afero.WriteFile(fs, "/cfg.json", []byte(doc), 0o644)
			if _, err := Load(fs, "/cfg.json"); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	fs := afero.NewMemMapFs()
	cfg := Default()
	cfg.Weather.DefaultCity = "Oslo"
	cfg.Secrets.WeatherKey = "never-written"

	if err := Save(fs, "/home/u/.config/voxdesk/config.json", cfg); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	raw, _ := afero.ReadFile(fs, "/home/u/.config/voxdesk/config.json")
	if strings.Contains(string(raw), "never-written") {
		t.Error("secrets must not be written to the config file")
	}
	if !strings.Contains(string(raw), `"default_city": "Oslo"`) {
		t.Errorf("expected city in file, got %s", raw)
	}
}

func TestIsPlaceholder(t *testing.T) {
	for v, want := range map[string]bool{
		"":                     true,
		"   ":                  true,
		"YOUR_WEATHER_API_KEY": true,
		"your_email@gmail.com": true,
		"4f9a8c0e2b":           false,
		"me@example.com":       false,
	} {
		if got := IsPlaceholder(v); got != want {
			t.Errorf("IsPlaceholder(%q) = %v, want %v", v, got, want)
		}
	}
}
