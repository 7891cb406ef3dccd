package session

import (
	"context"
	"fmt"
	"io"
	log "log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lmittmann/tint"
	"github.com/spf13/afero"

	"voxdesk/internal/command"
)

const timeFormat = "2006-01-02 15:04:05"

// Entry is one interaction. Query is empty when nothing was heard.
type Entry struct {
	Session  string
	Time     time.Time
	Query    string
	Response string
	Status   command.Status
}

// Sink receives every interaction the assistant completes.
type Sink interface {
	Record(ctx context.Context, e Entry) error
}

// Log appends interactions to a human-readable text file. Entries are never
// rewritten.
type Log struct {
	mu      sync.Mutex
	id      string
	file    afero.File
	handler log.Handler
}

func Open(fs afero.Fs, path string) (*Log, error) {
	f, err := fs.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open session log: %w", err)
	}

	return &Log{
		id:      uuid.NewString(),
		file:    f,
		handler: newFileHandler(f),
	}, nil
}

func newFileHandler(w io.Writer) log.Handler {
	return tint.NewHandler(w, &tint.Options{
		Level:      log.LevelDebug,
		TimeFormat: timeFormat,
		NoColor:    true,
	})
}

// write goes through the handler directly; slog.Logger drops handler errors.
func (l *Log) write(level log.Level, msg string, args ...any) error {
	r := log.NewRecord(time.Now(), level, msg, 0)
	r.Add(args...)
	return l.handler.Handle(context.Background(), r)
}

// ID identifies the current run; every entry recorded through this log
// carries it.
func (l *Log) ID() string { return l.id }

// Start writes the session banner. Call it once per run.
func (l *Log) Start() {
	l.mu.Lock()
	defer l.mu.Unlock()

	bar := strings.Repeat("=", 25)
	err := l.write(log.LevelInfo, fmt.Sprintf("%s NEW SESSION STARTED AT %s %s", bar, time.Now().Format(timeFormat), bar),
		"session", l.id)
	if err != nil {
		log.Warn("Failed to write session banner", "err", err)
	}
}

func (l *Log) Record(_ context.Context, e Entry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	level := log.LevelInfo
	switch {
	case e.Status == command.StatusError:
		level = log.LevelError
	case e.Status.IsProblem():
		level = log.LevelWarn
	}

	query := e.Query
	if query == "" {
		query = "No input detected"
	}

	if err := l.write(level, "User Query", "query", query); err != nil {
		return fmt.Errorf("write session log: %w", err)
	}
	if err := l.write(level, "Assistant Response", "response", e.Response, "status", string(e.Status)); err != nil {
		return fmt.Errorf("write session log: %w", err)
	}
	return nil
}

func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file.Close()
}
