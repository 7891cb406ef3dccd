package session

import (
	"context"
	"strings"
	"testing"

	"github.com/spf13/afero"

	"voxdesk/internal/command"
)

func TestLogAppendsBannerAndTwoLinesPerEntry(t *testing.T) {
	fs := afero.NewMemMapFs()

	l, err := Open(fs, "assistant_log.txt")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	l.Start()

	err = l.Record(context.Background(), Entry{
		Session:  l.ID(),
		Query:    "what time is it",
		Response: "The time is 3:04 PM",
		Status:   command.StatusHandled,
	})
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	data, err := afero.ReadFile(fs, "assistant_log.txt")
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	out := string(data)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected banner plus two lines, got %d:\n%s", len(lines), out)
	}
	if !strings.Contains(lines[0], "NEW SESSION STARTED") {
		t.Errorf("expected session banner, got %q", lines[0])
	}
	if !strings.Contains(lines[1], "what time is it") {
		t.Errorf("expected query line, got %q", lines[1])
	}
	if !strings.Contains(lines[2], "Command Handled") {
		t.Errorf("expected status on response line, got %q", lines[2])
	}
}

func TestLogNeverTruncatesPreviousSessions(t *testing.T) {
	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, "log.txt", []byte("earlier session\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	l, err := Open(fs, "log.txt")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	_ = l.Record(context.Background(), Entry{Response: "Sorry, I didn't catch that.", Status: command.StatusNoInput})
	_ = l.Close()

	data, _ := afero.ReadFile(fs, "log.txt")
	out := string(data)
	if !strings.HasPrefix(out, "earlier session\n") {
		t.Fatalf("expected previous content kept, got:\n%s", out)
	}
	if !strings.Contains(out, "No input detected") {
		t.Errorf("expected placeholder query for empty input, got:\n%s", out)
	}
	if !strings.Contains(out, "WRN") {
		t.Errorf("expected warning level for missing input, got:\n%s", out)
	}
}

func TestLogRecordReportsWriteErrors(t *testing.T) {
	cases := []struct {
		name  string
		entry Entry
	}{
		{"handled", Entry{Query: "what time is it", Response: "The time is 3:04 PM", Status: command.StatusHandled}},
		{"no input", Entry{Response: "Sorry, I didn't catch that.", Status: command.StatusNoInput}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			l, err := Open(afero.NewMemMapFs(), "log.txt")
			if err != nil {
				t.Fatalf("Open failed: %v", err)
			}
			if err := l.Close(); err != nil {
				t.Fatalf("Close failed: %v", err)
			}

			if err := l.Record(context.Background(), tc.entry); err == nil {
				t.Errorf("expected error recording to a closed file")
			}
		})
	}
}
