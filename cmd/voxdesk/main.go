package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/spf13/afero"
	cli "github.com/spf13/pflag"

	log "log/slog"

	"voxdesk/internal/arbiter"
	"voxdesk/internal/assistant"
	"voxdesk/internal/bus"
	"voxdesk/internal/config"
	"voxdesk/internal/ipc"
	"voxdesk/internal/music"
	"voxdesk/internal/notify"
	"voxdesk/internal/session"
	"voxdesk/internal/store"
	"voxdesk/internal/todo"
	"voxdesk/internal/voice"
)

var logLevelMap = map[string]log.Level{
	"debug": log.LevelDebug,
	"info":  log.LevelInfo,
	"warn":  log.LevelWarn,
	"error": log.LevelError,
}

func main() {
	envFile := cli.StringP("env", "e", ".env", "Env file path")
	configPath := cli.StringP("config", "c", "", "Config file path (default: XDG config dir)")
	logLevel := cli.StringP("log", "l", "info", "Log level")
	inputMode := cli.StringP("input", "i", "", "Input mode: mic or socket (overrides config)")
	mute := cli.BoolP("mute", "m", false, "Print replies instead of speaking them")
	spotifyLogin := cli.Bool("spotify-login", false, "Authorize Spotify and exit")
	initConfig := cli.Bool("init-config", false, "Write the effective config to the config path and exit")
	cli.Parse()

	log.SetDefault(log.New(tint.NewHandler(os.Stdout, &tint.Options{
		Level: logLevelMap[*logLevel],
	})))

	log.Info("Booting up")

	if err := godotenv.Load(*envFile); err != nil {
		log.Debug("No env file loaded", "path", *envFile, "err", err)
	}

	if *configPath == "" {
		p, err := config.GetConfigPath()
		if err != nil {
			log.Error("Failed to resolve config path", "err", err)
			os.Exit(1)
		}
		*configPath = p
	}

	fs := afero.NewOsFs()

	cfg, err := config.Load(fs, *configPath)
	if err != nil {
		log.Error("Failed to load config", "path", *configPath, "err", err)
		os.Exit(1)
	}
	if *inputMode != "" {
		cfg.Input.Mode = *inputMode
	}
	if *mute {
		cfg.Speech.Engine = "console"
	}
	if err := cfg.Validate(); err != nil {
		log.Error("Invalid configuration", "err", err)
		os.Exit(1)
	}

	log.Debug("Loaded config", "path", *configPath, "input", cfg.Input.Mode, "speech", cfg.Speech.Engine)

	if *initConfig {
		if err := config.Save(fs, *configPath, cfg); err != nil {
			log.Error("Failed to write config", "path", *configPath, "err", err)
			os.Exit(1)
		}
		log.Info("Config written", "path", *configPath)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	httpClient, err := newHTTPClient(cfg)
	if err != nil {
		log.Error("Failed to dial socks proxy", "proxy", cfg.Proxy, "err", err)
		os.Exit(1)
	}

	if *spotifyLogin {
		oauth := music.OAuthConfig(cfg.Secrets.SpotifyID, cfg.Secrets.SpotifySecret, cfg.Music.RedirectURL)
		if err := music.Login(ctx, oauth, fs, cfg.Music.TokenFile, openBrowser(cfg)); err != nil {
			log.Error("Spotify login failed", "err", err)
			os.Exit(1)
		}
		log.Info("Spotify authorized", "token", cfg.Music.TokenFile)
		return
	}

	sessionLog, err := session.Open(fs, cfg.Files.SessionLog)
	if err != nil {
		log.Error("Failed to open session log", "err", err)
		os.Exit(1)
	}
	defer sessionLog.Close()
	sessionLog.Start()

	sinks := []session.Sink{sessionLog}

	var history *store.History
	if cfg.Files.HistoryDB != "" {
		history, err = store.NewSQLite(cfg.Files.HistoryDB)
		if err != nil {
			log.Warn("History database disabled", "err", err)
		} else {
			defer history.Close()
			sinks = append(sinks, history)
		}
	}

	if cfg.BusURL != "" {
		b, err := bus.Dial(ctx, cfg.BusURL, "voxdesk")
		if err != nil {
			log.Warn("Bus disabled", "url", cfg.BusURL, "err", err)
		} else {
			defer b.Close()
			sinks = append(sinks, b)
		}
	}

	log.Debug("Loaded sinks", "count", len(sinks))

	player := notify.NewPlayer(cfg.Input.CueSound, cfg.Files.AlarmSound)

	speaker := newSpeaker(cfg)

	in, cleanup, err := newInput(cfg, httpClient, player)
	if err != nil {
		log.Error("Failed to set up input", "mode", cfg.Input.Mode, "err", err)
		os.Exit(1)
	}
	defer cleanup()

	log.Debug("Loaded input", "mode", cfg.Input.Mode, "engine", cfg.Input.Engine)

	services := newServices(ctx, cfg, fs, httpClient)

	arb := arbiter.New()
	a := assistant.New(assistant.Deps{
		Input:       in,
		Speaker:     speaker,
		Sinks:       sinks,
		Arbiter:     arb,
		Todo:        todo.NewStore(fs, cfg.Files.Todo),
		Weather:     services.weather,
		News:        services.news,
		Wiki:        services.wiki,
		Desktop:     services.desktop,
		Music:       services.music,
		Mail:        services.mail,
		Accounts:    services.accounts,
		Contacts:    cfg.Mail.Contacts,
		DefaultCity: cfg.Weather.DefaultCity,
		Alarm:       player.Alarm,
		Notify:      notify.Desktop,
		SessionID:   sessionLog.ID(),
	})

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	queue, _ := in.(*voice.Queue)
	srv, err := ipc.Listen(cfg.Input.SocketPath, controlHandler(a, queue, history, cancel))
	if err != nil {
		log.Error("Failed ipc server", "path", cfg.Input.SocketPath, "err", err)
		os.Exit(1)
	}
	go srv.Serve(ctx)

	log.Info("Boot up - successful", "session", sessionLog.ID())

	if err := a.Run(ctx); err != nil {
		log.Error("Assistant stopped", "err", err)
		os.Exit(1)
	}

	log.Info("Shutting down")
}
