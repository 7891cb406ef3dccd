package main

import (
	"context"
	"fmt"
	log "log/slog"
	"maps"
	"slices"
	"strconv"
	"strings"

	"voxdesk/internal/assistant"
	"voxdesk/internal/ipc"
	"voxdesk/internal/store"
	"voxdesk/internal/voice"
)

const defaultHistory = 10

// controlHandler serves voxdesk-ctl. queue is nil in mic mode and history
// is nil when the database could not be opened.
func controlHandler(a *assistant.Assistant, queue *voice.Queue, history *store.History, stop context.CancelFunc) ipc.Handler {
	return func(ctx context.Context, msg ipc.ControlMessage) ipc.Reply {
		switch msg.Cmd {
		case "say":
			if queue == nil {
				return ipc.Fail("assistant is listening on the microphone")
			}
			text := strings.Join(msg.Args, " ")
			if strings.TrimSpace(text) == "" {
				return ipc.Fail("nothing to say")
			}
			if err := queue.Say(text); err != nil {
				return ipc.Fail("%v", err)
			}
			return ipc.Reply{OK: true, Message: fmt.Sprintf("queued (%d pending)", queue.Pending())}

		case "file":
			if queue == nil {
				return ipc.Fail("assistant is listening on the microphone")
			}
			if len(msg.Args) != 1 {
				return ipc.Fail("usage: file <path>")
			}
			if err := queue.File(msg.Args[0]); err != nil {
				return ipc.Fail("%v", err)
			}
			return ipc.Reply{OK: true, Message: fmt.Sprintf("queued (%d pending)", queue.Pending())}

		case "status":
			s := a.Snapshot()
			lines := []string{
				fmt.Sprintf("turns: %d", s.Turns),
				fmt.Sprintf("busy: %t", s.Busy),
			}
			if s.Task != "" {
				lines = append(lines, "task: "+s.Task)
			}
			if s.LastStatus != "" {
				lines = append(lines, fmt.Sprintf("last: %q -> %s", s.LastQuery, s.LastStatus))
			}
			if history != nil {
				counts, err := history.CountByStatus(ctx, a.SessionID)
				if err != nil {
					log.Warn("Failed to count interactions", "err", err)
				}
				for _, status := range slices.Sorted(maps.Keys(counts)) {
					lines = append(lines, fmt.Sprintf("%s: %d", status, counts[status]))
				}
			}
			return ipc.Reply{OK: true, Lines: lines}

		case "history":
			if history == nil {
				return ipc.Fail("history database is disabled")
			}
			limit := defaultHistory
			if len(msg.Args) > 0 {
				n, err := strconv.Atoi(msg.Args[0])
				if err != nil || n <= 0 {
					return ipc.Fail("bad limit %q", msg.Args[0])
				}
				limit = n
			}
			entries, err := history.Recent(ctx, limit)
			if err != nil {
				return ipc.Fail("read history: %v", err)
			}
			lines := make([]string, len(entries))
			for i, e := range entries {
				lines[i] = fmt.Sprintf("%s [%s] %q -> %s", e.Time.Format("2006-01-02 15:04:05"), e.Status, e.Query, e.Response)
			}
			return ipc.Reply{OK: true, Lines: lines}

		case "stop":
			stop()
			return ipc.Reply{OK: true, Message: "stopping"}
		}

		return ipc.Fail("unknown command %q", msg.Cmd)
	}
}
