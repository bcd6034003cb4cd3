package playback

import (
	"encoding/json"
	"net/url"
	"strconv"
	"strings"

	"github.com/ytmshell/ytmshell/internal/assets"
)

// ScraperScript returns the self-contained script evaluated in the hosted
// page on every fast tick. It never throws, leaves no timers or listeners
// behind and only beacons when a title or artist was found.
func ScraperScript(port int) string {
	return strings.ReplaceAll(assets.PlaybackScript, assets.PortPlaceholder, strconv.Itoa(port))
}

// BeaconURL builds the same request the scraper fires from the page.
func BeaconURL(host string, port int, s State) string {
	data, _ := json.Marshal(s)
	return "http://" + host + ":" + strconv.Itoa(port) + "/playback?data=" + url.QueryEscape(string(data))
}
