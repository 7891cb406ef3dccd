package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"voxdesk/internal/command"
	"voxdesk/internal/session"
)

func newTestHistory(t *testing.T) *History {
	t.Helper()
	h, err := NewSQLite(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("NewSQLite failed: %v", err)
	}
	t.Cleanup(func() { h.Close() })
	return h
}

func TestRecordAndRecent(t *testing.T) {
	h := newTestHistory(t)
	ctx := context.Background()
	base := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)

	entries := []session.Entry{
		{Session: "s1", Time: base, Query: "hello", Response: "Good morning!", Status: command.StatusHandled},
		{Session: "s1", Time: base.Add(time.Second), Query: "", Response: "Sorry, I didn't catch that.", Status: command.StatusNoInput},
		{Session: "s1", Time: base.Add(2 * time.Second), Query: "fly me to the moon", Response: "Sorry, I don't understand that command.", Status: command.StatusNotUnderstood},
	}
	for _, e := range entries {
		if err := h.Record(ctx, e); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}

	got, err := h.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(got))
	}
	if got[0].Query != "fly me to the moon" || got[1].Status != command.StatusNoInput {
		t.Errorf("expected newest first, got %+v", got)
	}
	if !got[0].Time.Equal(base.Add(2 * time.Second)) {
		t.Errorf("unexpected time %v", got[0].Time)
	}
}

func TestCountByStatus(t *testing.T) {
	h := newTestHistory(t)
	ctx := context.Background()

	for i, st := range []command.Status{command.StatusHandled, command.StatusHandled, command.StatusInvalid} {
		h.Record(ctx, session.Entry{Session: "a", Time: time.Unix(int64(i), 0), Status: st})
	}
	h.Record(ctx, session.Entry{Session: "b", Time: time.Unix(9, 0), Status: command.StatusError})

	counts, err := h.CountByStatus(ctx, "a")
	if err != nil {
		t.Fatalf("CountByStatus failed: %v", err)
	}
	if counts[command.StatusHandled] != 2 || counts[command.StatusInvalid] != 1 || counts[command.StatusError] != 0 {
		t.Errorf("unexpected counts %v", counts)
	}
}
