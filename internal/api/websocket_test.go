package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestCheckWebSocketOrigin(t *testing.T) {
	tests := []struct {
		name    string
		allowed []string
		origin  string
		want    bool
	}{
		{"no allowlist", nil, "http://anywhere.test", true},
		{"no origin header", []string{"http://allowed.test"}, "", true},
		{"allowed origin", []string{"http://allowed.test"}, "http://allowed.test", true},
		{"disallowed origin", []string{"http://allowed.test"}, "http://evil.test", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ServerConfig = Config{AllowedOrigins: tt.allowed}
			req := httptest.NewRequest("GET", "/ws", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			if got := checkWebSocketOrigin(req); got != tt.want {
				t.Errorf("checkWebSocketOrigin() = %v, want %v", got, tt.want)
			}
		})
	}
	ServerConfig = Config{}
}

func TestHubBroadcastToClient(t *testing.T) {
	ServerConfig = Config{}
	GlobalHub = NewHub()
	go GlobalHub.Run()

	server := httptest.NewServer(http.HandlerFunc(handleWebSocket))
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer conn.Close()

	// Give the hub a moment to register the client.
	time.Sleep(50 * time.Millisecond)

	BroadcastComplete("save", "Document saved", map[string]interface{}{"bytes": 1234})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage failed: %v", err)
	}

	var msg ProgressMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if msg.Type != "complete" || msg.Operation != "save" {
		t.Errorf("Unexpected message: %+v", msg)
	}
	if msg.Progress != 100 {
		t.Errorf("Expected progress 100, got %d", msg.Progress)
	}
	if msg.Timestamp == "" {
		t.Error("Expected a timestamp to be set")
	}
}

func TestBroadcastWithoutHub(t *testing.T) {
	GlobalHub = nil
	// Must not panic when no hub is running.
	BroadcastProgress("edit", "validate", "checking", 50)
	BroadcastComplete("edit", "done", nil)
	BroadcastError("edit", "failed")
}
