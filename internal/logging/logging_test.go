package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// capture swaps the package logger for one writing JSON into a buffer,
// runs f, and decodes the first emitted line.
func capture(t *testing.T, f func()) map[string]any {
	t.Helper()
	raw := captureLogOutput(f)
	if raw == "" {
		t.Fatal("Expected log output, got none")
	}
	line, _, _ := strings.Cut(raw, "\n")
	var record map[string]any
	if err := json.Unmarshal([]byte(line), &record); err != nil {
		t.Fatalf("Log line is not JSON: %v\n%s", err, line)
	}
	return record
}

func captureLogOutput(f func()) string {
	var buf bytes.Buffer
	saved := defaultLogger
	defaultLogger = slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	defer func() { defaultLogger = saved }()
	f()
	return buf.String()
}

func TestInitLogger(t *testing.T) {
	cases := []struct {
		level  Level
		format Format
	}{
		{LevelDebug, FormatJSON},
		{LevelInfo, FormatJSON},
		{LevelWarn, FormatText},
		{LevelError, FormatText},
		{Level(999), FormatJSON}, // unknown level falls back to Info
	}
	for _, c := range cases {
		InitLogger(c.level, c.format)
		if GetLogger() == nil {
			t.Fatalf("InitLogger(%v, %v) left nil logger", c.level, c.format)
		}
	}
	InitLogger(LevelInfo, FormatJSON)
}

func TestRequestIDContext(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-7f3a")
	if got := GetRequestID(ctx); got != "req-7f3a" {
		t.Errorf("GetRequestID = %q, want req-7f3a", got)
	}
	if got := GetRequestID(context.Background()); got != "" {
		t.Errorf("GetRequestID on bare context = %q, want empty", got)
	}
}

func TestContextLoggersCarryRequestID(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-ctx-1")

	for name, fn := range map[string]func(context.Context, string, ...any){
		"debug": DebugContext,
		"info":  InfoContext,
		"warn":  WarnContext,
		"error": ErrorContext,
	} {
		t.Run(name, func(t *testing.T) {
			record := capture(t, func() { fn(ctx, "msg", "key", "value") })
			if record["request_id"] != "req-ctx-1" {
				t.Errorf("Expected request_id in record, got %v", record["request_id"])
			}
		})
	}
}

func TestDocumentEvents(t *testing.T) {
	tests := []struct {
		name string
		emit func()
		msg  string
		want map[string]any
	}{
		{
			name: "opened",
			emit: func() { DocumentOpened("/work/job.sdlxliff", 42, "en-US", "de-DE") },
			msg:  "document_opened",
			want: map[string]any{"segments": float64(42), "target_language": "de-DE"},
		},
		{
			name: "segment updated with extra args",
			emit: func() { SegmentUpdated("/work/job.sdlxliff", "17", 1, "strip_tags", true) },
			msg:  "segment_updated",
			want: map[string]any{"segment_id": "17", "strip_tags": true},
		},
		{
			name: "saved",
			emit: func() { DocumentSaved("/work/job.sdlxliff", 81234, true) },
			msg:  "document_saved",
			want: map[string]any{"bytes": float64(81234), "in_place": true},
		},
		{
			name: "error",
			emit: func() { DocumentError("/work/job.sdlxliff", "save", errors.New("write permission denied")) },
			msg:  "document_error",
			want: map[string]any{"operation": "save", "error": "write permission denied"},
		},
		{
			name: "security",
			emit: func() { SecurityEvent("path_rejected", "validation", "path", "../../etc/passwd") },
			msg:  "security_event",
			want: map[string]any{"event": "path_rejected", "component": "validation"},
		},
		{
			name: "websocket",
			emit: func() { WebSocketEvent("client_connected", 3) },
			msg:  "websocket_event",
			want: map[string]any{"client_count": float64(3)},
		},
		{
			name: "startup",
			emit: func() { ServerStartup("rest_api", "http", 8080) },
			msg:  "server_startup",
			want: map[string]any{"protocol": "http", "port": float64(8080)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record := capture(t, tt.emit)
			if record["msg"] != tt.msg {
				t.Errorf("msg = %v, want %s", record["msg"], tt.msg)
			}
			for k, v := range tt.want {
				if record[k] != v {
					t.Errorf("record[%q] = %v, want %v", k, record[k], v)
				}
			}
		})
	}
}

func TestHTTPRequest(t *testing.T) {
	record := capture(t, func() {
		HTTPRequest("GET", "/segments", "127.0.0.1:1234", 200, 100*time.Millisecond)
	})
	if record["msg"] != "http_request" {
		t.Errorf("msg = %v, want http_request", record["msg"])
	}
	if record["method"] != "GET" || record["path"] != "/segments" {
		t.Errorf("Unexpected request fields: %v", record)
	}
	if record["duration_ms"] != float64(100) {
		t.Errorf("duration_ms = %v, want 100", record["duration_ms"])
	}
}

func TestGenerateRequestID(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := generateRequestID()
		if id == "" || seen[id] {
			t.Fatalf("Expected unique non-empty ids, got %q", id)
		}
		seen[id] = true
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetRequestID(r.Context()) == "" {
			t.Error("Expected request id in handler context")
		}
	})
	handler := RequestIDMiddleware(inner)

	// Fresh request gets a generated id.
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/segments", nil))
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("Expected generated X-Request-ID header")
	}

	// A caller-supplied id survives.
	req := httptest.NewRequest("GET", "/segments", nil)
	req.Header.Set("X-Request-ID", "upstream-id-9")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if got := w.Header().Get("X-Request-ID"); got != "upstream-id-9" {
		t.Errorf("X-Request-ID = %q, want upstream-id-9", got)
	}
}

func TestLoggingMiddleware(t *testing.T) {
	for _, status := range []int{http.StatusOK, http.StatusUnprocessableEntity, http.StatusInternalServerError} {
		handler := LoggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))
		req := httptest.NewRequest("PUT", "/segments/3", nil)
		req = req.WithContext(WithRequestID(req.Context(), "req-mw"))
		w := httptest.NewRecorder()

		record := capture(t, func() { handler.ServeHTTP(w, req) })
		if record["status_code"] != float64(status) {
			t.Errorf("status_code = %v, want %d", record["status_code"], status)
		}
		if record["path"] != "/segments/3" || record["method"] != "PUT" {
			t.Errorf("Unexpected request fields: %v", record)
		}
		if record["request_id"] != "req-mw" {
			t.Errorf("request_id = %v, want req-mw", record["request_id"])
		}
	}
}

func TestCombinedMiddleware(t *testing.T) {
	handler := CombinedMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetRequestID(r.Context()) == "" {
			t.Error("Expected request id in handler context")
		}
		w.Write([]byte("ok"))
	}))

	w := httptest.NewRecorder()
	record := capture(t, func() {
		handler.ServeHTTP(w, httptest.NewRequest("GET", "/qa", nil))
	})

	if w.Header().Get("X-Request-ID") == "" {
		t.Error("Expected X-Request-ID header")
	}
	if record["path"] != "/qa" {
		t.Errorf("path = %v, want /qa", record["path"])
	}
	if record["request_id"] == "" {
		t.Error("Expected request_id in log record")
	}
}
