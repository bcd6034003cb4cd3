package bridge

import (
	"context"
	"fmt"
	"strings"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/samber/lo"
)

// TrackerPatterns are third-party analytics and tracking hosts. Google and
// YouTube hosts are deliberately absent: the player needs them.
var TrackerPatterns = []string{
	// Facebook/Meta tracking
	"*facebook.com/tr/*",
	"*connect.facebook.net/*",

	// Twitter/X tracking
	"*analytics.twitter.com/*",
	"*static.ads-twitter.com/*",

	// Common analytics services
	"*segment.io/*",
	"*segment.com/*",
	"*mixpanel.com/*",
	"*amplitude.com/*",
	"*hotjar.com/*",
	"*fullstory.com/*",
	"*heapanalytics.com/*",
	"*newrelic.com/*",
	"*nr-data.net/*",

	// Ad networks
	"*adnxs.com/*",
	"*amazon-adsystem.com/*",
	"*criteo.com/*",
	"*criteo.net/*",
	"*taboola.com/*",
	"*outbrain.com/*",

	// Common trackers
	"*scorecardresearch.com/*",
	"*quantserve.com/*",
	"*chartbeat.com/*",
	"*omtrdc.net/*",
	"*demdex.net/*",
	"*bluekai.com/*",
}

// CombineBlockPatterns merges pattern lists, dropping blanks and duplicates
// while keeping first-seen order.
func CombineBlockPatterns(patterns ...[]string) []string {
	all := lo.Flatten(patterns)
	all = lo.Map(all, func(p string, _ int) string { return strings.TrimSpace(p) })
	return lo.Uniq(lo.Compact(all))
}

// BlockURLs makes the window refuse requests matching patterns. An empty
// list lifts every block. The setting survives navigations.
func (w *Window) BlockURLs(ctx context.Context, patterns []string) error {
	if !w.Present() {
		return ErrNoWindow
	}
	runCtx, cancel := context.WithTimeout(w.ctx, evalTimeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	if patterns == nil {
		patterns = []string{}
	}
	err := chromedp.Run(runCtx,
		network.Enable(),
		chromedp.ActionFunc(func(ctx context.Context) error {
			return network.SetBlockedURLs(patterns).Do(ctx)
		}),
	)
	if err != nil {
		return fmt.Errorf("block urls: %w", err)
	}
	return nil
}
