package assistant

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"

	"voxdesk/internal/command"
	"voxdesk/internal/desktop"
	"voxdesk/internal/mail"
	"voxdesk/internal/music"
	"voxdesk/internal/nlu"
	"voxdesk/internal/session"
	"voxdesk/internal/todo"
	"voxdesk/internal/weather"
	"voxdesk/internal/wiki"
)

// script answers Listen from a fixed list, then reports no input.
type script struct {
	mu       sync.Mutex
	lines    []string
	onListen func(n int)
	calls    int
}

func (s *script) Listen(ctx context.Context) (string, bool) {
	s.mu.Lock()
	s.calls++
	n := s.calls
	hook := s.onListen
	var (
		line string
		ok   bool
	)
	if len(s.lines) > 0 {
		line, s.lines, ok = s.lines[0], s.lines[1:], true
	}
	s.mu.Unlock()

	if hook != nil {
		hook(n)
	}
	return line, ok
}

type recorder struct {
	mu    sync.Mutex
	lines []string
}

func (r *recorder) Speak(text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = append(r.lines, text)
	return nil
}

func (r *recorder) said() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.lines)
}

type memSink struct {
	mu      sync.Mutex
	entries []session.Entry
}

func (m *memSink) Record(_ context.Context, e session.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, e)
	return nil
}

type fakeDesktop struct {
	power   []desktop.PowerAction
	volume  int
	opened  []string
	failApp error
}

func (f *fakeDesktop) OpenWebsite(_ context.Context, name string) (string, error) {
	if name != "github" {
		return "", desktop.ErrUnknownName
	}
	f.opened = append(f.opened, name)
	return "https://github.com", nil
}

func (f *fakeDesktop) OpenApp(_ context.Context, name string) error {
	if f.failApp != nil {
		return f.failApp
	}
	f.opened = append(f.opened, name)
	return nil
}

func (f *fakeDesktop) Search(_ context.Context, term string) (string, error) {
	return "https://www.google.com/search?q=" + term, nil
}

func (f *fakeDesktop) Screenshot(_ context.Context, now time.Time) (string, error) {
	return "/home/me/screenshot_" + now.Format("2006-01-02_15-04-05") + ".png", nil
}

func (f *fakeDesktop) SetVolume(_ context.Context, level int) error {
	f.volume = level
	return nil
}

func (f *fakeDesktop) SetBrightness(context.Context, int) error { return nil }

func (f *fakeDesktop) Power(_ context.Context, action desktop.PowerAction) error {
	f.power = append(f.power, action)
	return nil
}

type fakeMailer struct {
	sent []mail.Message
	err  error
}

func (f *fakeMailer) Send(_ context.Context, m mail.Message) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, m)
	return nil
}

type fakeWeather struct{ err error }

func (f fakeWeather) Current(_ context.Context, city string) (weather.Report, error) {
	if f.err != nil {
		return weather.Report{}, f.err
	}
	return weather.Report{City: city, Temperature: 21.5, Description: "clear sky"}, nil
}

type fakeWiki struct{}

func (fakeWiki) Summary(_ context.Context, term string) (string, error) {
	switch term {
	case "mercury":
		return "", wiki.ErrAmbiguous
	case "alan turing":
		return "Alan Turing was a mathematician.", nil
	}
	return "", wiki.ErrNotFound
}

type fakeMusic struct{ err error }

func (f fakeMusic) Play(_ context.Context, song string) (music.Track, error) {
	if f.err != nil {
		return music.Track{}, f.err
	}
	return music.Track{Name: "Bohemian Rhapsody", Artist: "Queen"}, nil
}

func (f fakeMusic) Pause(context.Context) error { return f.err }
func (f fakeMusic) Next(context.Context) error  { return f.err }

type fixture struct {
	a       *Assistant
	input   *script
	speaker *recorder
	sink    *memSink
	desk    *fakeDesktop
	mailer  *fakeMailer
}

func newFixture(t *testing.T, lines ...string) *fixture {
	t.Helper()

	f := &fixture{
		input:   &script{lines: lines},
		speaker: &recorder{},
		sink:    &memSink{},
		desk:    &fakeDesktop{},
		mailer:  &fakeMailer{},
	}
	f.a = New(Deps{
		Input:       f.input,
		Speaker:     f.speaker,
		Sinks:       []session.Sink{f.sink},
		Todo:        todo.NewStore(afero.NewMemMapFs(), "todo.txt"),
		Weather:     fakeWeather{},
		Wiki:        fakeWiki{},
		Desktop:     f.desk,
		Music:       fakeMusic{},
		Mail:        f.mailer,
		Accounts:    map[string]mail.Account{"work": {Address: "me@work.example", Password: "secret"}},
		Contacts:    map[string]string{"alice": "alice@example.com"},
		DefaultCity: "bhopal",
		SessionID:   "test",
	})
	f.a.now = func() time.Time { return time.Date(2024, time.March, 5, 9, 7, 0, 0, time.UTC) }
	f.a.pick = func(int) int { return 0 }
	return f
}

func TestEveryRuleHasHandler(t *testing.T) {
	f := newFixture(t)
	for _, r := range nlu.Rules {
		if _, ok := f.a.handlers[r.Intent]; !ok {
			t.Errorf("no handler for intent %s", r.Intent)
		}
	}
}

func TestHandle(t *testing.T) {
	cases := []struct {
		utterance string
		response  string
		status    command.Status
	}{
		{"hello", "Good morning! How can I help you?", command.StatusHandled},
		{"what time is it", "The time is 9:07 AM", command.StatusHandled},
		{"what's the date today", "Today is March 5, 2024", command.StatusHandled},
		{"tell me a joke", jokes[0], command.StatusHandled},
		{"show my to-do list", "Your to-do list is empty.", command.StatusHandled},
		{"add to my list", "I didn't hear a task to add.", command.StatusMissing},
		{"complete task 4", "That task number is not on your list.", command.StatusInvalid},
		{"complete task abc", "Sorry, I didn't understand the task number.", command.StatusInvalid},
		{"set a timer for soon", "Sorry, I didn't understand the timer duration. Please say it like 'set a timer for 5 seconds'.", command.StatusInvalid},
		{"search wikipedia for alan turing", "According to Wikipedia: Alan Turing was a mathematician.", command.StatusHandled},
		{"search wikipedia for mercury", "'mercury' could refer to multiple things. Please be more specific.", command.StatusHandled},
		{"search wikipedia for zzzz", "Sorry, I could not find any results for 'zzzz' on Wikipedia.", command.StatusHandled},
		{"what's the weather", "The temperature in bhopal is 21.5 degrees Celsius with clear sky.", command.StatusHandled},
		{"read me the news", "News API key is not configured.", command.StatusHandled},
		{"open website github", "Opening github.", command.StatusHandled},
		{"open website myspace", "Sorry, I don't have the URL for myspace.", command.StatusHandled},
		{"open notepad", "Opening notepad.", command.StatusHandled},
		{"search for golang generics", "Searching the web for golang generics...", command.StatusHandled},
		{"take a screenshot", "Screenshot saved as screenshot_2024-03-05_09-07-00.png", command.StatusHandled},
		{"set volume to 40", "Volume set to 40 percent.", command.StatusHandled},
		{"brightness 120", "Please specify a brightness level between 0 and 100.", command.StatusInvalid},
		{"play music bohemian rhapsody", "Playing Bohemian Rhapsody by Queen on Spotify.", command.StatusHandled},
		{"pause music", "Pausing music.", command.StatusHandled},
		{"next track", "Playing next track.", command.StatusHandled},
		{"calculate 5 times 3", "The result is 15", command.StatusHandled},
		{"what is 10 divided by 0", "Error: Cannot divide by zero.", command.StatusInvalid},
		{"sing me a song about the sea", "I am not sure how to respond to that.", command.StatusNotUnderstood},
		{"goodbye", "Goodbye! Have a great day.", command.StatusExit},
	}

	for _, tc := range cases {
		t.Run(tc.utterance, func(t *testing.T) {
			f := newFixture(t)
			got := f.a.Handle(context.Background(), tc.utterance)
			if got.Response != tc.response {
				t.Errorf("expected %q, got %q", tc.response, got.Response)
			}
			if got.Status != tc.status {
				t.Errorf("expected status %q, got %q", tc.status, got.Status)
			}
		})
	}
}

func TestTodoRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, q := range []string{"add buy milk to my list", "add task water the plants"} {
		if res := f.a.Handle(ctx, q); res.Status != command.StatusHandled {
			t.Fatalf("%q: unexpected result %+v", q, res)
		}
	}

	res := f.a.Handle(ctx, "show my to-do list")
	want := "Here is your to-do list: Task 1: buy milk. Task 2: water the plants"
	if res.Response != want {
		t.Errorf("expected %q, got %q", want, res.Response)
	}

	res = f.a.Handle(ctx, "complete task one")
	if res.Response != "Completed and removed task: buy milk" {
		t.Errorf("unexpected completion %q", res.Response)
	}
}

func TestServiceFailuresApologize(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.a.Weather = fakeWeather{err: weather.ErrCityNotFound}
	if res := f.a.Handle(ctx, "weather in atlantis"); !strings.HasPrefix(res.Response, "Could not find weather data for atlantis") {
		t.Errorf("unexpected weather reply %q", res.Response)
	}

	f.a.Music = fakeMusic{err: music.ErrNoDevice}
	res := f.a.Handle(ctx, "pause music")
	if res.Status != command.StatusHandled || !strings.Contains(res.Response, "No active Spotify device") {
		t.Errorf("unexpected music reply %+v", res)
	}

	f.desk.failApp = desktop.ErrInvalidPath
	res = f.a.Handle(ctx, "open notepad")
	if !strings.Contains(res.Response, "seems to be invalid") {
		t.Errorf("unexpected app reply %q", res.Response)
	}
}

type panicky struct{}

func (panicky) Summary(context.Context, string) (string, error) { panic("boom") }

func TestHandlePanicBecomesError(t *testing.T) {
	f := newFixture(t)
	f.a.Wiki = panicky{}

	res := f.a.Handle(context.Background(), "search wikipedia for anything")
	if res.Status != command.StatusError || res.Response != errorLine {
		t.Errorf("expected error result, got %+v", res)
	}
}

func TestPowerRequiresConfirmation(t *testing.T) {
	cases := []struct {
		answer   string
		response string
		fired    bool
	}{
		{"yes please", "Shutdown initiated by user.", true},
		{"no", "Shutdown cancelled.", false},
		{"hmm maybe", "Shutdown cancelled.", false},
		{"yes no", "Shutdown cancelled.", false},
		{"", "Shutdown cancelled.", false},
	}

	for _, tc := range cases {
		t.Run("answer "+tc.answer, func(t *testing.T) {
			var lines []string
			if tc.answer != "" {
				lines = []string{tc.answer}
			}
			f := newFixture(t, lines...)
			res := f.a.Handle(context.Background(), "shut down the computer")
			if res.Response != tc.response || res.Status != command.StatusHandled {
				t.Errorf("unexpected result %+v", res)
			}
			if fired := len(f.desk.power) > 0; fired != tc.fired {
				t.Errorf("expected fired=%v, got %v", tc.fired, fired)
			}
		})
	}
}

func TestRestartAndSleepConfirmation(t *testing.T) {
	cases := []struct {
		utterance string
		answer    []string
		response  string
		action    desktop.PowerAction
	}{
		{"restart the computer", []string{"yes"}, "Restart initiated by user.", desktop.Restart},
		{"restart the computer", nil, "Restart cancelled.", ""},
		{"put the computer to sleep", []string{"sure"}, "Sleep initiated by user.", desktop.Sleep},
		{"put the computer to sleep", []string{"no thanks"}, "Sleep command cancelled.", ""},
	}

	for _, tc := range cases {
		t.Run(tc.response, func(t *testing.T) {
			f := newFixture(t, tc.answer...)
			res := f.a.Handle(context.Background(), tc.utterance)
			if res.Response != tc.response || res.Status != command.StatusHandled {
				t.Errorf("unexpected result %+v", res)
			}

			switch {
			case tc.action == "" && len(f.desk.power) != 0:
				t.Errorf("expected no power action, got %v", f.desk.power)
			case tc.action != "" && !slices.Equal(f.desk.power, []desktop.PowerAction{tc.action}):
				t.Errorf("expected %s, got %v", tc.action, f.desk.power)
			}
		})
	}
}

func TestEmailDialog(t *testing.T) {
	f := newFixture(t, "my work account", "alice", "lunch", "see you at noon", "yes")

	res := f.a.Handle(context.Background(), "send an email")
	if res.Response != "Email sent successfully." {
		t.Fatalf("unexpected result %+v", res)
	}
	if len(f.mailer.sent) != 1 {
		t.Fatalf("expected one message, got %d", len(f.mailer.sent))
	}

	m := f.mailer.sent[0]
	if m.To != "alice@example.com" || m.Subject != "lunch" || m.Body != "see you at noon" || m.From.Address != "me@work.example" {
		t.Errorf("unexpected message %+v", m)
	}

	said := f.speaker.said()
	want := "Please confirm. You are sending an email to alice with the subject 'lunch'. Is this correct? Say yes or no."
	if !slices.Contains(said, want) {
		t.Errorf("confirmation prompt missing from %q", said)
	}
}

func TestEmailDialogCancels(t *testing.T) {
	cases := []struct {
		name     string
		lines    []string
		response string
	}{
		{"declined", []string{"work", "alice", "hi", "body", "no"}, "Okay, email cancelled."},
		{"unclear", []string{"work", "alice", "hi", "body", "what", "huh", "pardon"}, "Confirmation failed after multiple attempts. Email cancelled."},
		{"unknown account", []string{"home", "school"}, "Account not recognized. Email process cancelled."},
		{"unknown recipient", []string{"work", "bob", "carol"}, "Recipient not found in contacts. Email process cancelled."},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, tc.lines...)
			res := f.a.Handle(context.Background(), "send an email")
			if res.Response != tc.response || res.Status != command.StatusHandled {
				t.Errorf("unexpected result %+v", res)
			}
			if len(f.mailer.sent) != 0 {
				t.Errorf("expected nothing sent, got %d", len(f.mailer.sent))
			}
		})
	}
}

func TestEmailSendFailure(t *testing.T) {
	f := newFixture(t, "work", "alice", "hi", "body", "yes")
	f.mailer.err = errors.New("connection refused")

	res := f.a.Handle(context.Background(), "send an email")
	if res.Status != command.StatusError || !strings.Contains(res.Response, "Email not sent") {
		t.Errorf("unexpected result %+v", res)
	}
}

func TestEmailPlaceholderAccountNotConfigured(t *testing.T) {
	f := newFixture(t, "my Work account", "alice")
	f.a.Accounts = map[string]mail.Account{"Work": {Address: "YOUR_EMAIL", Password: "YOUR_PASSWORD"}}

	res := f.a.Handle(context.Background(), "send an email")
	if res.Response != "The Work email account is not configured." || res.Status != command.StatusHandled {
		t.Errorf("unexpected result %+v", res)
	}
	if len(f.mailer.sent) != 0 {
		t.Errorf("expected nothing sent, got %d", len(f.mailer.sent))
	}
	if slices.Contains(f.speaker.said(), "Who is the recipient?") {
		t.Error("dialog continued past an unconfigured account")
	}
}

func TestRunUntilGoodbye(t *testing.T) {
	f := newFixture(t, "hello", "goodbye")

	if err := f.a.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	said := f.speaker.said()
	if said[0] != startupLine || said[len(said)-1] != goodbyeLine {
		t.Errorf("unexpected conversation %q", said)
	}

	statuses := make([]command.Status, len(f.sink.entries))
	for i, e := range f.sink.entries {
		statuses[i] = e.Status
		if e.Session != "test" {
			t.Errorf("expected session id on entry, got %q", e.Session)
		}
	}
	want := []command.Status{command.StatusHandled, command.StatusExit}
	if !slices.Equal(statuses, want) {
		t.Errorf("expected %v, got %v", want, statuses)
	}

	if snap := f.a.Snapshot(); snap.Turns != 2 || snap.LastStatus != command.StatusExit || snap.LastQuery != "goodbye" {
		t.Errorf("unexpected snapshot %+v", snap)
	}
}

func TestRunRecordsNoInput(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	f.input.onListen = func(n int) {
		if n == 2 {
			cancel()
		}
	}

	if err := f.a.Run(ctx); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(f.sink.entries) != 1 || f.sink.entries[0].Status != command.StatusNoInput {
		t.Fatalf("expected one no-input entry, got %+v", f.sink.entries)
	}
	if f.sink.entries[0].Response != noInputLine {
		t.Errorf("unexpected response %q", f.sink.entries[0].Response)
	}
}

func TestRunDoesNotListenDuringTimer(t *testing.T) {
	f := newFixture(t, "set a timer for 5 seconds", "goodbye")

	fire := make(chan time.Time)
	var rang sync.WaitGroup
	rang.Add(1)
	f.a.after = func(d time.Duration) <-chan time.Time {
		if d != 5*time.Second {
			t.Errorf("expected 5s timer, got %s", d)
		}
		return fire
	}
	f.a.Alarm = func() error {
		rang.Done()
		return nil
	}

	f.input.onListen = func(n int) {
		if n == 2 {
			if f.a.Arbiter.Busy() {
				t.Error("listened while the timer was running")
			}
			if !slices.Contains(f.speaker.said(), "Time's up!") {
				t.Error("listened before the timer finished")
			}
		}
	}

	go func() {
		time.Sleep(20 * time.Millisecond)
		fire <- time.Now()
	}()

	if err := f.a.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	rang.Wait()

	said := f.speaker.said()
	if !slices.Contains(said, "Timer set for 5 seconds.") {
		t.Errorf("timer confirmation missing from %q", said)
	}
}

func TestTimerAlreadyRunning(t *testing.T) {
	f := newFixture(t)
	f.a.after = func(time.Duration) <-chan time.Time { return make(chan time.Time) }

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if res := f.a.Handle(ctx, "set a timer for 1 minute"); res.Status != command.StatusHandled {
		t.Fatalf("unexpected first timer %+v", res)
	}
	res := f.a.Handle(ctx, "set a timer for 2 minutes")
	if res.Status != command.StatusError || res.Response != "A timer is already running." {
		t.Errorf("unexpected second timer %+v", res)
	}
}
