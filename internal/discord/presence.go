// Package discord mirrors playback updates into Discord Rich Presence.
package discord

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/hugolgst/rich-go/client"

	"github.com/ytmshell/ytmshell/internal/playback"
	"github.com/ytmshell/ytmshell/internal/settings"
)

const (
	largeImage = "ytm"
	largeText  = "YouTube Music"
	siteURL    = "https://music.youtube.com"
)

// RPC is the Discord IPC connection. The default implementation is rich-go's
// package-level client.
type RPC interface {
	Login(clientID string) error
	SetActivity(a client.Activity) error
	Logout()
}

type richGo struct{}

func (richGo) Login(id string) error               { return client.Login(id) }
func (richGo) SetActivity(a client.Activity) error { return client.SetActivity(a) }
func (richGo) Logout()                             { client.Logout() }

type SettingsSource interface {
	Discord() settings.Discord
}

// Presence applies the most recent playback state on a single worker
// goroutine. States offered while an update is in flight replace each
// other; only the newest is sent.
type Presence struct {
	rpc      RPC
	settings SettingsSource
	now      func() time.Time
	pending  chan playback.State

	connectedID string
}

func New(s SettingsSource) *Presence {
	return NewWithRPC(richGo{}, s)
}

func NewWithRPC(rpc RPC, s SettingsSource) *Presence {
	return &Presence{
		rpc:      rpc,
		settings: s,
		now:      time.Now,
		pending:  make(chan playback.State, 1),
	}
}

// Offer never blocks; it is safe to call from a hub subscriber.
func (p *Presence) Offer(s playback.State) {
	for {
		select {
		case p.pending <- s:
			return
		default:
		}
		select {
		case <-p.pending:
		default:
		}
	}
}

// Run processes offered states until ctx is done, then disconnects.
func (p *Presence) Run(ctx context.Context) {
	defer p.disconnect()
	for {
		select {
		case <-ctx.Done():
			return
		case s := <-p.pending:
			p.update(s)
		}
	}
}

func (p *Presence) update(s playback.State) {
	cfg := p.settings.Discord()
	if !cfg.Enabled || cfg.HideListening {
		return
	}
	if s.Empty() || !ValidClientID(cfg.ClientID) {
		return
	}

	if p.connectedID != cfg.ClientID {
		p.disconnect()
		if err := p.rpc.Login(cfg.ClientID); err != nil {
			slog.Debug("discord login failed", "err", err)
			return
		}
		p.connectedID = cfg.ClientID
		slog.Info("discord presence connected")
	}

	if err := p.rpc.SetActivity(Activity(s, p.now(), cfg.ShowButtons)); err != nil {
		slog.Debug("discord set activity failed", "err", err)
		p.disconnect()
	}
}

func (p *Presence) disconnect() {
	if p.connectedID == "" {
		return
	}
	p.rpc.Logout()
	p.connectedID = ""
}

// ValidClientID accepts a non-empty, all-digit application id that is not
// a "REPLACE_" placeholder.
func ValidClientID(id string) bool {
	if id == "" || strings.HasPrefix(id, "REPLACE_") {
		return false
	}
	for _, r := range id {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Activity builds the presence for s. A playing track with a known length
// gets start/end timestamps so Discord shows the remaining time.
func Activity(s playback.State, now time.Time, buttons bool) client.Activity {
	a := client.Activity{
		Details:    s.Title,
		State:      s.Artist,
		LargeImage: largeImage,
		LargeText:  largeText,
	}
	if s.State == playback.Playing && s.Duration > 0 {
		start := now.Truncate(time.Second)
		end := start.Add(time.Duration(s.Duration)*time.Second - time.Duration(s.Progress)*time.Second)
		a.Timestamps = &client.Timestamps{Start: &start, End: &end}
	}
	if buttons {
		a.Buttons = []*client.Button{{Label: "Open YouTube Music", Url: siteURL}}
	}
	return a
}
