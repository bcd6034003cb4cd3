package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/ytmshell/ytmshell/internal/lyrics"
	"github.com/ytmshell/ytmshell/internal/web"
)

const maxLyricsBody = 64 << 10

// HandleLyrics proxies a lyrics lookup. Not found is a 200 with null lyrics.
func (h *Handlers) HandleLyrics(w http.ResponseWriter, r *http.Request) {
	var req lyrics.Request
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxLyricsBody)).Decode(&req); err != nil {
		web.ErrorCode(w, 400, "bad_request", fmt.Sprintf("decode: %v", err), nil)
		return
	}
	if req.Title == "" {
		web.ErrorCode(w, 400, "bad_request", "title required", nil)
		return
	}

	text, ok, err := h.Lyrics.Fetch(r.Context(), req)
	if err != nil {
		slog.Warn("lyrics fetch failed", "source", req.Source, "err", err)
		web.ErrorCode(w, 502, "lyrics_unavailable", err.Error(), map[string]any{"source": req.Source})
		return
	}
	var out *string
	if ok {
		out = &text
	}
	web.JSON(w, 200, map[string]any{"source": req.Source, "lyrics": out})
}
