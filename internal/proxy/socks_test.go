package proxy

import (
	"net/http"
	"testing"
	"time"
)

func TestNewHTTPClient(t *testing.T) {
	direct, err := NewHTTPClient("", 0)
	if err != nil {
		t.Fatal(err)
	}
	if direct.Transport != nil || direct.Timeout != 30*time.Second {
		t.Errorf("expected direct client with default timeout, got %+v", direct)
	}

	socks, err := NewHTTPClient("127.0.0.1:1080", 5*time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := socks.Transport.(*http.Transport); !ok {
		t.Errorf("expected custom transport, got %T", socks.Transport)
	}
}
