// Package lyrics fetches lyrics for the current track from public sources
// on behalf of the page, which cannot call them cross-origin.
package lyrics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/avast/retry-go/v5"
	"golang.org/x/net/html"
)

const (
	SourceLRCLib    = "lrclib"
	SourceLyricsOVH = "lyricsovh"
	SourceGenius    = "genius"

	userAgent = "YouTube-Music-Client/1.0"
	maxBody   = 4 << 20
)

type Request struct {
	Source   string `json:"source"`
	Title    string `json:"title"`
	Artist   string `json:"artist"`
	Duration uint64 `json:"duration"`
}

type Client struct {
	HTTP         *http.Client
	LRCLibURL    string
	LyricsOVHURL string
	GeniusURL    string
	GeniusToken  string
	Attempts     uint
	RetryDelay   time.Duration
}

func NewClient() *Client {
	return &Client{
		HTTP:         &http.Client{Timeout: 10 * time.Second},
		LRCLibURL:    "https://lrclib.net",
		LyricsOVHURL: "https://api.lyrics.ovh",
		GeniusURL:    "https://api.genius.com",
		Attempts:     3,
		RetryDelay:   300 * time.Millisecond,
	}
}

var errNotFound = errors.New("not found")

// Fetch returns the lyrics and true, or false when the source has none. An
// unknown source is reported as not found. Errors are transport or decode
// failures that survived the retries.
func (c *Client) Fetch(ctx context.Context, req Request) (string, bool, error) {
	var (
		text string
		err  error
	)
	switch req.Source {
	case SourceLRCLib:
		text, err = c.lrclib(ctx, req)
	case SourceLyricsOVH:
		text, err = c.lyricsOVH(ctx, req)
	case SourceGenius:
		text, err = c.genius(ctx, req)
	default:
		return "", false, nil
	}
	if errors.Is(err, errNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%s: %w", req.Source, err)
	}
	text = strings.TrimSpace(text)
	return text, text != "", nil
}

func (c *Client) lrclib(ctx context.Context, req Request) (string, error) {
	q := url.Values{
		"track_name":  {req.Title},
		"artist_name": {req.Artist},
		"album_name":  {""},
		"duration":    {strconv.FormatUint(req.Duration, 10)},
	}
	var data struct {
		PlainLyrics  *string `json:"plainLyrics"`
		SyncedLyrics *string `json:"syncedLyrics"`
	}
	if err := c.getJSON(ctx, c.LRCLibURL+"/api/get?"+q.Encode(), &data); err != nil {
		return "", err
	}
	switch {
	case data.PlainLyrics != nil && *data.PlainLyrics != "":
		return *data.PlainLyrics, nil
	case data.SyncedLyrics != nil:
		return *data.SyncedLyrics, nil
	}
	return "", errNotFound
}

func (c *Client) lyricsOVH(ctx context.Context, req Request) (string, error) {
	u := c.LyricsOVHURL + "/v1/" + url.PathEscape(req.Artist) + "/" + url.PathEscape(req.Title)
	var data struct {
		Lyrics string `json:"lyrics"`
	}
	if err := c.getJSON(ctx, u, &data); err != nil {
		return "", err
	}
	return data.Lyrics, nil
}

func (c *Client) genius(ctx context.Context, req Request) (string, error) {
	query := req.Title
	if req.Artist != "" {
		query = req.Artist + " " + req.Title
	}
	var search struct {
		Response struct {
			Hits []struct {
				Result struct {
					APIPath string `json:"api_path"`
				} `json:"result"`
			} `json:"hits"`
		} `json:"response"`
	}
	if err := c.getJSON(ctx, c.GeniusURL+"/search?q="+url.QueryEscape(query), &search); err != nil {
		return "", err
	}
	if len(search.Response.Hits) == 0 || search.Response.Hits[0].Result.APIPath == "" {
		return "", errNotFound
	}

	var song struct {
		Response struct {
			Song struct {
				URL string `json:"url"`
			} `json:"song"`
		} `json:"response"`
	}
	if err := c.getJSON(ctx, c.GeniusURL+search.Response.Hits[0].Result.APIPath, &song); err != nil {
		return "", err
	}
	if song.Response.Song.URL == "" {
		return "", errNotFound
	}

	body, err := c.get(ctx, song.Response.Song.URL, "text/html")
	if err != nil {
		return "", err
	}
	return extractGenius(body)
}

func (c *Client) getJSON(ctx context.Context, u string, out any) error {
	body, err := c.get(ctx, u, "application/json")
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s: %w", u, err)
	}
	return nil
}

// get retries transport failures only. A non-2xx answer is a definitive
// "no lyrics" and returns errNotFound straight away.
func (c *Client) get(ctx context.Context, u, accept string) ([]byte, error) {
	var body []byte
	err := retry.New(
		retry.Attempts(c.Attempts),
		retry.Delay(c.RetryDelay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.Context(ctx),
	).Do(func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return retry.Unrecoverable(err)
		}
		req.Header.Set("User-Agent", userAgent)
		req.Header.Set("Accept", accept)
		if c.GeniusToken != "" && strings.HasPrefix(u, c.GeniusURL) {
			req.Header.Set("Authorization", "Bearer "+c.GeniusToken)
		}

		resp, err := c.HTTP.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return retry.Unrecoverable(errNotFound)
		}
		body, err = io.ReadAll(io.LimitReader(resp.Body, maxBody))
		return err
	})
	return body, err
}

// extractGenius joins the text of every lyrics container on a Genius song
// page, turning <br> into newlines.
func extractGenius(page []byte) (string, error) {
	doc, err := html.Parse(strings.NewReader(string(page)))
	if err != nil {
		return "", fmt.Errorf("parse genius page: %w", err)
	}

	var parts []string
	var visit func(n *html.Node)
	visit = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "div" && hasAttr(n, "data-lyrics-container") {
			var b strings.Builder
			collectText(n, &b)
			parts = append(parts, strings.TrimSpace(b.String()))
			return
		}
		for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
			visit(ch)
		}
	}
	visit(doc)

	text := strings.TrimSpace(strings.Join(parts, "\n"))
	if text == "" {
		return "", errNotFound
	}
	return text, nil
}

func hasAttr(n *html.Node, key string) bool {
	for _, a := range n.Attr {
		if a.Key == key {
			return true
		}
	}
	return false
}

func collectText(n *html.Node, b *strings.Builder) {
	switch {
	case n.Type == html.TextNode:
		b.WriteString(n.Data)
	case n.Type == html.ElementNode && n.Data == "br":
		b.WriteByte('\n')
	}
	for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
		collectText(ch, b)
	}
}
