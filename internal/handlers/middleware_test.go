package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ytmshell/ytmshell/internal/config"
	"github.com/ytmshell/ytmshell/internal/web"
)

func TestAuthMiddleware_NoToken(t *testing.T) {
	cfg := &config.RuntimeConfig{Token: ""}

	called := false
	handler := AuthMiddleware(cfg, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(200)
	}))

	req := httptest.NewRequest("GET", "/test", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if !called {
		t.Error("handler should have been called")
	}
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	cfg := &config.RuntimeConfig{Token: "secret123"}

	called := false
	handler := AuthMiddleware(cfg, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(200)
	}))

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("Authorization", "Bearer secret123")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if !called {
		t.Error("handler should have been called with valid token")
	}
}

func TestAuthMiddleware_InvalidToken(t *testing.T) {
	cfg := &config.RuntimeConfig{Token: "secret123"}

	called := false
	handler := AuthMiddleware(cfg, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if called {
		t.Error("handler should NOT have been called with invalid token")
	}
	if w.Code != 401 {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestOriginMiddleware(t *testing.T) {
	handler := OriginMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(200)
	}))

	tests := []struct {
		name   string
		method string
		host   string
		origin string
		site   string
		want   int
	}{
		{"no origin", "PUT", "127.0.0.1:9867", "", "", 200},
		{"same origin ip", "PUT", "127.0.0.1:9867", "http://127.0.0.1:9867", "", 200},
		{"same origin localhost", "POST", "localhost:9867", "http://localhost:9867", "", 200},
		{"same origin preflight", "OPTIONS", "127.0.0.1:9867", "http://127.0.0.1:9867", "", 204},
		{"foreign origin", "PUT", "127.0.0.1:9867", "https://evil.example", "", 403},
		{"foreign origin get", "GET", "127.0.0.1:9867", "https://evil.example", "", 403},
		{"foreign preflight", "OPTIONS", "127.0.0.1:9867", "https://evil.example", "", 403},
		{"other port", "PUT", "127.0.0.1:9867", "http://127.0.0.1:8080", "", 403},
		{"null origin", "PUT", "127.0.0.1:9867", "null", "", 403},
		{"rebound host name", "PUT", "attacker.example:9867", "http://attacker.example:9867", "", 403},
		{"cross-site without origin", "PUT", "127.0.0.1:9867", "", "cross-site", 403},
		{"cross-site navigation", "GET", "127.0.0.1:9867", "", "cross-site", 200},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/settings", nil)
			req.Host = tt.host
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			if tt.site != "" {
				req.Header.Set("Sec-Fetch-Site", tt.site)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)
			if w.Code != tt.want {
				t.Errorf("expected %d, got %d", tt.want, w.Code)
			}
			if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
				t.Errorf("unexpected allow-origin %q", got)
			}
		})
	}
}

func TestLoggingMiddleware(t *testing.T) {
	handler := LoggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(201)
	}))

	req := httptest.NewRequest("GET", "/test", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != 201 {
		t.Errorf("expected 201, got %d", w.Code)
	}
}

func TestStatusWriter(t *testing.T) {
	w := httptest.NewRecorder()
	sw := &web.StatusWriter{ResponseWriter: w, Code: 200}

	sw.WriteHeader(404)
	if sw.Code != 404 {
		t.Errorf("expected 404, got %d", sw.Code)
	}
}

func TestAuthMiddleware_MissingToken(t *testing.T) {
	cfg := &config.RuntimeConfig{Token: "secret123"}
	handler := AuthMiddleware(cfg, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not run")
	}))

	req := httptest.NewRequest("GET", "/settings", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != 401 {
		t.Errorf("expected 401, got %d", w.Code)
	}
	if !strings.Contains(w.Header().Get("WWW-Authenticate"), "missing_token") {
		t.Errorf("unexpected WWW-Authenticate %q", w.Header().Get("WWW-Authenticate"))
	}
}

func TestAuthMiddleware_CookieAndQuery(t *testing.T) {
	cfg := &config.RuntimeConfig{Token: "secret123"}
	handler := AuthMiddleware(cfg, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(200)
	}))

	tests := []struct {
		name  string
		setup func(r *http.Request)
		want  int
	}{
		{"cookie", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: tokenCookie, Value: "secret123"}) }, 200},
		{"bad cookie", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: tokenCookie, Value: "nope"}) }, 401},
		{"query", func(r *http.Request) { r.URL.RawQuery = "token=secret123" }, 200},
		{"header wins over query", func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer wrong")
			r.URL.RawQuery = "token=secret123"
		}, 401},
		{"preflight", func(r *http.Request) { r.Method = "OPTIONS" }, 200},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/settings", nil)
			tt.setup(req)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)
			if w.Code != tt.want {
				t.Errorf("expected %d, got %d", tt.want, w.Code)
			}
		})
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	handler := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))
	if len(w.Header().Get("X-Request-Id")) != 16 {
		t.Errorf("expected generated id, got %q", w.Header().Get("X-Request-Id"))
	}

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-Request-Id", "abc")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Header().Get("X-Request-Id") != "abc" {
		t.Errorf("expected caller id kept, got %q", w.Header().Get("X-Request-Id"))
	}
}
