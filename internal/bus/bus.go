// Package bus mirrors every interaction onto a websocket hub so other
// shards (dashboards, loggers) can follow the assistant.
package bus

import (
	"context"
	"encoding/json"
	"fmt"
	log "log/slog"
	"net/url"
	"sync"
	"time"

	ws "github.com/gorilla/websocket"

	"voxdesk/internal/session"
)

type Message struct {
	From    string    `json:"from"`
	To      string    `json:"to"`
	Kind    string    `json:"kind"`
	Session string    `json:"session"`
	Time    time.Time `json:"time"`
	Query   string    `json:"query"`
	Content string    `json:"content"`
	Status  string    `json:"status"`
}

// Bus implements session.Sink. A failed write triggers one reconnect
// before the entry is given up on.
type Bus struct {
	mu     sync.Mutex
	conn   *ws.Conn
	url    string
	from   string
	dialer *ws.Dialer
}

func Dial(ctx context.Context, rawURL, from string) (*Bus, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}

	b := &Bus{
		url:    u.String(),
		from:   from,
		dialer: &ws.Dialer{HandshakeTimeout: 5 * time.Second},
	}
	if err := b.connect(ctx); err != nil {
		return nil, err
	}

	log.Info("Connected to bus", "url", b.url)
	return b, nil
}

func (b *Bus) connect(ctx context.Context) error {
	conn, _, err := b.dialer.DialContext(ctx, b.url, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", b.url, err)
	}
	b.conn = conn
	return nil
}

func (b *Bus) Record(ctx context.Context, e session.Entry) error {
	data, err := json.Marshal(Message{
		From:    b.from,
		To:      "*",
		Kind:    "interaction",
		Session: e.Session,
		Time:    e.Time,
		Query:   e.Query,
		Content: e.Response,
		Status:  string(e.Status),
	})
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	err = b.write(data)
	if err == nil {
		return nil
	}
	log.Warn("Bus write failed, reconnecting", "err", err, "closed", IsClosed(err))

	b.conn.Close()
	if err := b.connect(ctx); err != nil {
		return err
	}
	return b.write(data)
}

func (b *Bus) write(data []byte) error {
	_ = b.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return b.conn.WriteMessage(ws.TextMessage, data)
}

func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	msg := ws.FormatCloseMessage(ws.CloseNormalClosure, "bye")
	_ = b.conn.WriteControl(ws.CloseMessage, msg, time.Now().Add(time.Second))
	return b.conn.Close()
}

func IsClosed(err error) bool {
	return ws.IsCloseError(err,
		ws.CloseNormalClosure,
		ws.CloseGoingAway,
		ws.CloseAbnormalClosure)
}
