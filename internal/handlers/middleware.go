package handlers

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/ytmshell/ytmshell/internal/config"
	"github.com/ytmshell/ytmshell/internal/web"
)

// tokenCookie carries the API token for the settings page, which cannot set
// an Authorization header on its own fetches.
const tokenCookie = "ytm_token"

func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &web.StatusWriter{ResponseWriter: w, Code: 200}
		next.ServeHTTP(sw, r)
		ms := uint64(time.Since(start).Milliseconds())
		atomic.AddUint64(&metricRequestsTotal, 1)
		atomic.AddUint64(&metricRequestLatencyN, ms)
		if sw.Code >= 400 {
			atomic.AddUint64(&metricRequestsFailed, 1)
		}
		slog.Info("request",
			"requestId", w.Header().Get("X-Request-Id"),
			"method", r.Method,
			"path", r.URL.Path,
			"status", sw.Code,
			"ms", ms,
		)
	})
}

// AuthMiddleware accepts the token as a bearer header, the settings page
// cookie, or a token query parameter, in that order.
func AuthMiddleware(cfg *config.RuntimeConfig, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if cfg.Token == "" || r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}
		got := requestToken(r)
		if got == "" {
			atomic.AddUint64(&metricAuthRejected, 1)
			w.Header().Set("WWW-Authenticate", `Bearer realm="ytmshell", error="missing_token"`)
			web.ErrorCode(w, 401, "missing_token", "unauthorized", nil)
			return
		}
		if subtle.ConstantTimeCompare([]byte(got), []byte(cfg.Token)) != 1 {
			atomic.AddUint64(&metricAuthRejected, 1)
			w.Header().Set("WWW-Authenticate", `Bearer realm="ytmshell", error="bad_token"`)
			web.ErrorCode(w, 401, "bad_token", "unauthorized", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func requestToken(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); auth != "" {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	if c, err := r.Cookie(tokenCookie); err == nil && c.Value != "" {
		return c.Value
	}
	return r.URL.Query().Get("token")
}

// OriginMiddleware rejects browser requests from other sites and never
// sends CORS headers. An Origin must match the request host, and that host
// must be an IP literal or localhost.
func OriginMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !sameOrigin(r) {
			slog.Warn("cross-origin request rejected", "origin", r.Header.Get("Origin"), "method", r.Method, "path", r.URL.Path)
			web.ErrorCode(w, 403, "forbidden_origin", "cross-origin requests are not allowed", nil)
			return
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(204)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func sameOrigin(r *http.Request) bool {
	if origin := r.Header.Get("Origin"); origin != "" {
		u, err := url.Parse(origin)
		if err != nil || u.Host == "" || !strings.EqualFold(u.Host, r.Host) {
			return false
		}
		host := u.Hostname()
		return strings.EqualFold(host, "localhost") || net.ParseIP(host) != nil
	}
	switch r.Method {
	case http.MethodGet, http.MethodHead:
		return true
	}
	return r.Header.Get("Sec-Fetch-Site") != "cross-site"
}

func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rid := r.Header.Get("X-Request-Id")
		if rid == "" {
			b := make([]byte, 8)
			_, _ = rand.Read(b)
			rid = hex.EncodeToString(b)
		}
		w.Header().Set("X-Request-Id", rid)
		next.ServeHTTP(w, r)
	})
}
