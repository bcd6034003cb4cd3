package discord

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/hugolgst/rich-go/client"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ytmshell/ytmshell/internal/playback"
	"github.com/ytmshell/ytmshell/internal/settings"
)

type fakeRPC struct {
	mu         sync.Mutex
	logins     []string
	logouts    int
	activities []client.Activity
	loginErr   error
	setErr     error
}

func (f *fakeRPC) Login(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logins = append(f.logins, id)
	return f.loginErr
}

func (f *fakeRPC) SetActivity(a client.Activity) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.activities = append(f.activities, a)
	return f.setErr
}

func (f *fakeRPC) Logout() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logouts++
}

func (f *fakeRPC) activityCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.activities)
}

type staticSettings struct{ d settings.Discord }

func (s staticSettings) Discord() settings.Discord { return s.d }

func enabled(id string) staticSettings {
	return staticSettings{settings.Discord{Enabled: true, ClientID: id}}
}

var song = playback.State{Title: "Song", Artist: "Band", State: playback.Playing, Progress: 30, Duration: 200}

func TestValidClientID(t *testing.T) {
	assert.True(t, ValidClientID("1234567890123456789"))
	for _, id := range []string{"", "REPLACE_ME", "12ab", " 123", "-1"} {
		assert.False(t, ValidClientID(id), id)
	}
}

func TestActivity_Timestamps(t *testing.T) {
	now := time.Unix(1_700_000_000, 500)
	a := Activity(song, now, false)

	assert.Equal(t, "Song", a.Details)
	assert.Equal(t, "Band", a.State)
	assert.Equal(t, "ytm", a.LargeImage)
	require.NotNil(t, a.Timestamps)
	assert.Equal(t, int64(1_700_000_000), a.Timestamps.Start.Unix())
	assert.Equal(t, int64(1_700_000_000+170), a.Timestamps.End.Unix())
	assert.Nil(t, a.Buttons)
}

func TestActivity_NoTimestamps(t *testing.T) {
	paused := song
	paused.State = playback.Paused
	assert.Nil(t, Activity(paused, time.Now(), false).Timestamps)

	live := song
	live.Duration = 0
	assert.Nil(t, Activity(live, time.Now(), false).Timestamps)
}

func TestActivity_Buttons(t *testing.T) {
	a := Activity(song, time.Now(), true)
	require.Len(t, a.Buttons, 1)
	assert.Equal(t, siteURL, a.Buttons[0].Url)
}

func TestUpdate_Skips(t *testing.T) {
	tests := []struct {
		name  string
		cfg   settings.Discord
		state playback.State
	}{
		{"disabled", settings.Discord{Enabled: false, ClientID: "123"}, song},
		{"hidden", settings.Discord{Enabled: true, HideListening: true, ClientID: "123"}, song},
		{"placeholder id", settings.Discord{Enabled: true, ClientID: "REPLACE_WITH_ID"}, song},
		{"non-digit id", settings.Discord{Enabled: true, ClientID: "abc"}, song},
		{"empty id", settings.Discord{Enabled: true}, song},
		{"nothing playing", settings.Discord{Enabled: true, ClientID: "123"}, playback.Default()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rpc := &fakeRPC{}
			p := NewWithRPC(rpc, staticSettings{tt.cfg})
			p.update(tt.state)
			assert.Empty(t, rpc.logins)
			assert.Empty(t, rpc.activities)
		})
	}
}

func TestUpdate_ConnectsLazilyOnce(t *testing.T) {
	rpc := &fakeRPC{}
	p := NewWithRPC(rpc, enabled("123"))
	p.update(song)
	p.update(song)

	assert.Equal(t, []string{"123"}, rpc.logins)
	assert.Len(t, rpc.activities, 2)
}

func TestUpdate_ReconnectsOnClientIDChange(t *testing.T) {
	rpc := &fakeRPC{}
	s := &staticSettings{settings.Discord{Enabled: true, ClientID: "1"}}
	p := NewWithRPC(rpc, s)
	p.update(song)
	s.d.ClientID = "2"
	p.update(song)

	assert.Equal(t, []string{"1", "2"}, rpc.logins)
	assert.Equal(t, 1, rpc.logouts)
}

func TestUpdate_LoginFailureRetriedNextTime(t *testing.T) {
	rpc := &fakeRPC{loginErr: errors.New("discord not running")}
	p := NewWithRPC(rpc, enabled("123"))
	p.update(song)
	assert.Empty(t, rpc.activities)

	rpc.loginErr = nil
	p.update(song)
	assert.Len(t, rpc.logins, 2)
	assert.Len(t, rpc.activities, 1)
}

func TestUpdate_SetActivityFailureDisconnects(t *testing.T) {
	rpc := &fakeRPC{setErr: errors.New("pipe closed")}
	p := NewWithRPC(rpc, enabled("123"))
	p.update(song)
	assert.Equal(t, 1, rpc.logouts)
	assert.Empty(t, p.connectedID)
}

func TestOffer_LatestWins(t *testing.T) {
	rpc := &fakeRPC{}
	p := NewWithRPC(rpc, enabled("123"))
	for i := 0; i < 10; i++ {
		s := song
		s.Progress = uint64(i)
		p.Offer(s)
	}
	require.Len(t, p.pending, 1)
	assert.Equal(t, uint64(9), (<-p.pending).Progress)
}

func TestRun(t *testing.T) {
	rpc := &fakeRPC{}
	p := NewWithRPC(rpc, enabled("123"))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	p.Offer(song)
	require.Eventually(t, func() bool { return rpc.activityCount() == 1 }, time.Second, 5*time.Millisecond)

	cancel()
	<-done
	rpc.mu.Lock()
	defer rpc.mu.Unlock()
	assert.Equal(t, 1, rpc.logouts, "disconnects on shutdown")
}
