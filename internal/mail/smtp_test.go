package mail

import (
	"bytes"
	"strings"
	"testing"
)

func TestBuildMsg(t *testing.T) {
	msg, err := buildMsg(Message{
		From:    Account{Address: "me@example.com", Password: "app-password"},
		To:      "lead@example.com",
		Subject: "Standup",
		Body:    "running late",
	})
	if err != nil {
		t.Fatalf("buildMsg failed: %v", err)
	}

	var buf bytes.Buffer
	if _, err := msg.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo failed: %v", err)
	}
	raw := buf.String()
	for _, want := range []string{"Subject: Standup", "lead@example.com", "me@example.com", "running late"} {
		if !strings.Contains(raw, want) {
			t.Errorf("expected %q in message:\n%s", want, raw)
		}
	}
	if strings.Contains(raw, "app-password") {
		t.Error("password leaked into message")
	}
}

func TestBuildMsgRejectsBadAddress(t *testing.T) {
	_, err := buildMsg(Message{From: Account{Address: "not an address"}, To: "lead@example.com"})
	if err == nil {
		t.Fatal("expected invalid from address error")
	}
}
