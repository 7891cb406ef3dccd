package assistant

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"voxdesk/internal/arbiter"
	"voxdesk/internal/calc"
	"voxdesk/internal/command"
	"voxdesk/internal/desktop"
	"voxdesk/internal/mail"
	"voxdesk/internal/music"
	"voxdesk/internal/news"
	"voxdesk/internal/nlu"
	"voxdesk/internal/todo"
	"voxdesk/internal/weather"
	"voxdesk/internal/wiki"
)

type Weather interface {
	Current(ctx context.Context, city string) (weather.Report, error)
}

type News interface {
	Headlines(ctx context.Context) ([]string, error)
}

type Wiki interface {
	Summary(ctx context.Context, term string) (string, error)
}

type Desktop interface {
	OpenWebsite(ctx context.Context, name string) (string, error)
	OpenApp(ctx context.Context, name string) error
	Search(ctx context.Context, term string) (string, error)
	Screenshot(ctx context.Context, now time.Time) (string, error)
	SetVolume(ctx context.Context, level int) error
	SetBrightness(ctx context.Context, level int) error
	Power(ctx context.Context, action desktop.PowerAction) error
}

type Music interface {
	Play(ctx context.Context, song string) (music.Track, error)
	Pause(ctx context.Context) error
	Next(ctx context.Context) error
}

type Mailer interface {
	Send(ctx context.Context, m mail.Message) error
}

func (a *Assistant) registry() map[nlu.Intent]handler {
	return map[nlu.Intent]handler{
		nlu.IntentExit:         a.exit,
		nlu.IntentGreeting:     a.greeting,
		nlu.IntentTodoAdd:      a.todoAdd,
		nlu.IntentTodoShow:     a.todoShow,
		nlu.IntentTodoComplete: a.todoComplete,
		nlu.IntentTimer:        a.timer,
		nlu.IntentTime:         a.tellTime,
		nlu.IntentDate:         a.tellDate,
		nlu.IntentJoke:         a.joke,
		nlu.IntentWikipedia:    a.wikipedia,
		nlu.IntentWeather:      a.weather,
		nlu.IntentNews:         a.news,
		nlu.IntentOpenWebsite:  a.openWebsite,
		nlu.IntentOpenApp:      a.openApp,
		nlu.IntentWebSearch:    a.webSearch,
		nlu.IntentScreenshot:   a.screenshot,
		nlu.IntentVolume:       a.volume,
		nlu.IntentBrightness:   a.brightness,
		nlu.IntentShutdown:     a.power(desktop.Shutdown),
		nlu.IntentRestart:      a.power(desktop.Restart),
		nlu.IntentSleep:        a.power(desktop.Sleep),
		nlu.IntentPlayMusic:    a.playMusic,
		nlu.IntentPauseMusic:   a.pauseMusic,
		nlu.IntentNextTrack:    a.nextTrack,
		nlu.IntentEmail:        a.email,
		nlu.IntentCalculate:    a.calculate,
	}
}

func (a *Assistant) exit(context.Context, nlu.Result) (command.Result, error) {
	return command.Result{Response: goodbyeLine, Status: command.StatusExit}, nil
}

func (a *Assistant) greeting(context.Context, nlu.Result) (command.Result, error) {
	switch h := a.now().Hour(); {
	case h >= 5 && h < 12:
		return command.Handled("Good morning! How can I help you?"), nil
	case h >= 12 && h < 18:
		return command.Handled("Good afternoon! How can I help you?"), nil
	default:
		return command.Handled("Good evening! How can I help you?"), nil
	}
}

func (a *Assistant) todoAdd(_ context.Context, m nlu.Result) (command.Result, error) {
	task := m.Entity(nlu.EntityTask)
	if task == "" {
		return command.Missing("I didn't hear a task to add."), nil
	}

	if _, err := a.Todo.Add(task); err != nil {
		if errors.Is(err, todo.ErrEmptyTask) {
			return command.Missing("I didn't hear a task to add."), nil
		}
		log.Error("Failed to add task", "err", err)
		return command.Handled("Sorry, something went wrong while updating your list."), nil
	}
	return command.Handled("Added '%s' to your to-do list.", task), nil
}

func (a *Assistant) todoShow(context.Context, nlu.Result) (command.Result, error) {
	tasks, err := a.Todo.List()
	if err != nil {
		log.Error("Failed to read tasks", "err", err)
		return command.Handled("Sorry, I couldn't read your to-do list."), nil
	}
	if len(tasks) == 0 {
		return command.Handled("Your to-do list is empty."), nil
	}

	items := make([]string, len(tasks))
	for i, t := range tasks {
		items[i] = fmt.Sprintf("Task %d: %s", i+1, t)
	}
	return command.Handled("Here is your to-do list: %s", strings.Join(items, ". ")), nil
}

func (a *Assistant) todoComplete(_ context.Context, m nlu.Result) (command.Result, error) {
	n := m.Entity(nlu.EntityNumber)
	if n == "" {
		return command.Missing("Please specify which task number to complete."), nil
	}

	removed, err := a.Todo.Complete(n)
	switch {
	case errors.Is(err, todo.ErrInvalidIndex):
		return command.Invalid("Sorry, I didn't understand the task number."), nil
	case errors.Is(err, todo.ErrOutOfRange):
		return command.Invalid("That task number is not on your list."), nil
	case err != nil:
		log.Error("Failed to complete task", "err", err)
		return command.Handled("Sorry, something went wrong while updating your list."), nil
	}
	return command.Handled("Completed and removed task: %s", removed), nil
}

func (a *Assistant) timer(ctx context.Context, m nlu.Result) (command.Result, error) {
	d, err := nlu.ParseDuration(m.Entity(nlu.EntityDuration))
	if err != nil {
		log.Debug("Bad timer duration", "err", err)
		return command.Invalid("Sorry, I didn't understand the timer duration. Please say it like 'set a timer for 5 seconds'."), nil
	}

	spoken := nlu.SpeakDuration(d)
	err = a.Arbiter.Go("timer "+spoken, func() { a.ring(ctx, d) })
	if errors.Is(err, arbiter.ErrBusy) {
		return command.Result{Response: "A timer is already running.", Status: command.StatusError}, nil
	}
	if err != nil {
		return command.Result{}, err
	}

	log.Info("Timer started", "duration", d)
	return command.Handled("Timer set for %s.", spoken), nil
}

// ring runs on the arbiter's goroutine; the slot is held until it returns.
func (a *Assistant) ring(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
		return
	case <-a.after(d):
	}

	log.Info("Timer finished", "duration", d)
	a.say("Time's up!")

	if a.Alarm != nil {
		if err := a.Alarm(); err != nil {
			log.Warn("Failed to play alarm", "err", err)
		}
	}
	if a.Notify != nil {
		if err := a.Notify("voxdesk", fmt.Sprintf("Your %s timer is done.", nlu.SpeakDuration(d))); err != nil {
			log.Warn("Failed to notify", "err", err)
		}
	}
}

func (a *Assistant) tellTime(context.Context, nlu.Result) (command.Result, error) {
	return command.Handled("The time is %s", a.now().Format("3:04 PM")), nil
}

func (a *Assistant) tellDate(context.Context, nlu.Result) (command.Result, error) {
	return command.Handled("Today is %s", a.now().Format("January 2, 2006")), nil
}

func (a *Assistant) joke(context.Context, nlu.Result) (command.Result, error) {
	return command.Handled("%s", jokes[a.pick(len(jokes))]), nil
}

func (a *Assistant) wikipedia(ctx context.Context, m nlu.Result) (command.Result, error) {
	term := m.Entity(nlu.EntityTerm)
	if term == "" {
		return command.Missing("What should I look up on Wikipedia?"), nil
	}
	if a.Wiki == nil {
		return command.Handled("Wikipedia search is not available."), nil
	}

	summary, err := a.Wiki.Summary(ctx, term)
	switch {
	case errors.Is(err, wiki.ErrNotFound):
		return command.Handled("Sorry, I could not find any results for '%s' on Wikipedia.", term), nil
	case errors.Is(err, wiki.ErrAmbiguous):
		return command.Handled("'%s' could refer to multiple things. Please be more specific.", term), nil
	case err != nil:
		log.Error("Wikipedia lookup failed", "term", term, "err", err)
		return command.Handled("Sorry, I couldn't reach Wikipedia right now."), nil
	}
	return command.Handled("According to Wikipedia: %s", summary), nil
}

func (a *Assistant) weather(ctx context.Context, m nlu.Result) (command.Result, error) {
	if a.Weather == nil {
		return command.Handled("Weather API key is not configured."), nil
	}

	city := m.Entity(nlu.EntityCity)
	if city == "" {
		city = a.DefaultCity
	}
	if city == "" {
		return command.Missing("You need to specify a city for the weather."), nil
	}

	r, err := a.Weather.Current(ctx, city)
	switch {
	case errors.Is(err, weather.ErrNotConfigured):
		return command.Handled("Weather API key is not configured."), nil
	case errors.Is(err, weather.ErrCityNotFound):
		return command.Handled("Could not find weather data for %s.", city), nil
	case err != nil:
		log.Error("Weather lookup failed", "city", city, "err", err)
		return command.Handled("Could not connect to the weather service."), nil
	}
	return command.Handled("The temperature in %s is %s degrees Celsius with %s.",
		city, strconv.FormatFloat(r.Temperature, 'f', -1, 64), r.Description), nil
}

func (a *Assistant) news(ctx context.Context, _ nlu.Result) (command.Result, error) {
	if a.News == nil {
		return command.Handled("News API key is not configured."), nil
	}

	headlines, err := a.News.Headlines(ctx)
	switch {
	case errors.Is(err, news.ErrNotConfigured):
		return command.Handled("News API key is not configured."), nil
	case errors.Is(err, news.ErrNoHeadlines):
		return command.Handled("Sorry, I couldn't fetch the news right now."), nil
	case err != nil:
		log.Error("News lookup failed", "err", err)
		return command.Handled("Could not connect to the news service."), nil
	}
	return command.Handled("Here are the top news headlines: %s", strings.Join(headlines, ". ")), nil
}

func (a *Assistant) openWebsite(ctx context.Context, m nlu.Result) (command.Result, error) {
	name := m.Entity(nlu.EntityName)
	if name == "" {
		return command.Missing("Which website should I open?"), nil
	}

	_, err := a.Desktop.OpenWebsite(ctx, name)
	switch {
	case errors.Is(err, desktop.ErrUnknownName):
		return command.Handled("Sorry, I don't have the URL for %s.", name), nil
	case err != nil:
		log.Error("Failed to open website", "name", name, "err", err)
		return command.Handled("Sorry, an error occurred while trying to open %s.", name), nil
	}
	return command.Handled("Opening %s.", name), nil
}

func (a *Assistant) openApp(ctx context.Context, m nlu.Result) (command.Result, error) {
	name := m.Entity(nlu.EntityName)
	if name == "" {
		return command.Missing("Which application should I open?"), nil
	}

	err := a.Desktop.OpenApp(ctx, name)
	switch {
	case errors.Is(err, desktop.ErrUnknownName):
		return command.Handled("Sorry, I don't have the path for %s.", name), nil
	case errors.Is(err, desktop.ErrInvalidPath):
		return command.Handled("Sorry, the path for %s seems to be invalid. Please check your configuration.", name), nil
	case err != nil:
		log.Error("Failed to open app", "name", name, "err", err)
		return command.Handled("Sorry, I encountered an error while trying to open %s.", name), nil
	}
	return command.Handled("Opening %s.", name), nil
}

func (a *Assistant) webSearch(ctx context.Context, m nlu.Result) (command.Result, error) {
	term := m.Entity(nlu.EntityTerm)
	if term == "" {
		return command.Missing("What should I search for?"), nil
	}

	if _, err := a.Desktop.Search(ctx, term); err != nil {
		log.Error("Failed to open search", "term", term, "err", err)
		return command.Handled("Sorry, I couldn't open the browser."), nil
	}
	return command.Handled("Searching the web for %s...", term), nil
}

func (a *Assistant) screenshot(ctx context.Context, _ nlu.Result) (command.Result, error) {
	file, err := a.Desktop.Screenshot(ctx, a.now())
	if err != nil {
		log.Error("Screenshot failed", "err", err)
		return command.Handled("Sorry, I couldn't take a screenshot."), nil
	}
	return command.Handled("Screenshot saved as %s", filepath.Base(file)), nil
}

// level reads a 0..100 percentage entity.
func level(m nlu.Result) (int, bool) {
	n, err := strconv.Atoi(m.Entity(nlu.EntityLevel))
	if err != nil || n < 0 || n > 100 {
		return 0, false
	}
	return n, true
}

func (a *Assistant) volume(ctx context.Context, m nlu.Result) (command.Result, error) {
	n, ok := level(m)
	if !ok {
		return command.Invalid("Please specify a volume level between 0 and 100."), nil
	}
	if err := a.Desktop.SetVolume(ctx, n); err != nil {
		log.Error("Failed to set volume", "level", n, "err", err)
		return command.Handled("I was unable to change the volume."), nil
	}
	return command.Handled("Volume set to %d percent.", n), nil
}

func (a *Assistant) brightness(ctx context.Context, m nlu.Result) (command.Result, error) {
	n, ok := level(m)
	if !ok {
		return command.Invalid("Please specify a brightness level between 0 and 100."), nil
	}
	if err := a.Desktop.SetBrightness(ctx, n); err != nil {
		log.Error("Failed to set brightness", "level", n, "err", err)
		return command.Handled("I was unable to change the brightness."), nil
	}
	return command.Handled("Brightness set to %d percent.", n), nil
}

func (a *Assistant) playMusic(ctx context.Context, m nlu.Result) (command.Result, error) {
	song := m.Entity(nlu.EntitySong)
	if song == "" {
		return command.Missing("Which song should I play?"), nil
	}
	if a.Music == nil {
		return command.Handled("Spotify is not configured."), nil
	}

	t, err := a.Music.Play(ctx, song)
	if errors.Is(err, music.ErrTrackNotFound) {
		return command.Handled("Sorry, I couldn't find the song '%s' on Spotify.", song), nil
	}
	if err != nil {
		return musicProblem(err), nil
	}
	if t.Artist != "" {
		return command.Handled("Playing %s by %s on Spotify.", t.Name, t.Artist), nil
	}
	return command.Handled("Playing %s on Spotify.", t.Name), nil
}

func (a *Assistant) pauseMusic(ctx context.Context, _ nlu.Result) (command.Result, error) {
	if a.Music == nil {
		return command.Handled("Spotify is not configured."), nil
	}
	if err := a.Music.Pause(ctx); err != nil {
		return musicProblem(err), nil
	}
	return command.Handled("Pausing music."), nil
}

func (a *Assistant) nextTrack(ctx context.Context, _ nlu.Result) (command.Result, error) {
	if a.Music == nil {
		return command.Handled("Spotify is not configured."), nil
	}
	if err := a.Music.Next(ctx); err != nil {
		return musicProblem(err), nil
	}
	return command.Handled("Playing next track."), nil
}

func musicProblem(err error) command.Result {
	switch {
	case errors.Is(err, music.ErrNotConfigured):
		return command.Handled("Spotify credentials are not configured.")
	case errors.Is(err, music.ErrNotAuthorized):
		return command.Handled("Spotify is not authorized yet. Run voxdesk with --spotify-login.")
	case errors.Is(err, music.ErrNoDevice):
		return command.Handled("No active Spotify device found. Please start playing music on a device first.")
	}
	log.Error("Spotify request failed", "err", err)
	return command.Handled("Could not connect to Spotify.")
}

func (a *Assistant) calculate(_ context.Context, m nlu.Result) (command.Result, error) {
	expr := m.Entity(nlu.EntityExpr)
	if expr == "" {
		expr = m.Query
	}

	v, err := calc.Evaluate(expr)
	switch {
	case errors.Is(err, calc.ErrDivideByZero):
		return command.Invalid("Error: Cannot divide by zero."), nil
	case err != nil:
		return command.Invalid("I couldn't understand the calculation. Please say it like 'what is 5 times 3'."), nil
	}
	return command.Handled("The result is %s", calc.Format(v)), nil
}
