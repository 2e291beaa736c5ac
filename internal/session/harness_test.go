package session

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Belphemur/CueLoop/internal/models"
	"github.com/Belphemur/CueLoop/internal/prefs"
	"github.com/Belphemur/CueLoop/internal/testutil/playertest"
)

const (
	testVideo   = "81234567"
	cdnURL      = "https://ipv4-c001-fra001.1.oca.nflxvideo.net/range/0-51234?o=AQEfoo"
	enURL       = cdnURL + "&lang=en"
	frURL       = cdnURL + "&lang=fr"
	koURL       = cdnURL + "&lang=ko"
	tickSpacing = 250 * time.Millisecond
)

var (
	trackOff = models.Track{TrackID: "T0", BCP47: "en", DisplayName: "Off", IsNone: true}
	trackEN  = models.Track{TrackID: "T1", BCP47: "en", DisplayName: "English"}
	trackFR  = models.Track{TrackID: "T2", BCP47: "fr", DisplayName: "Français"}
	trackKO  = models.Track{TrackID: "T3", BCP47: "ko", DisplayName: "한국어"}
	trackDE  = models.Track{TrackID: "T4", BCP47: "de", DisplayName: "Deutsch"}
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type fakeClipboard struct {
	text string
	err  error
}

func (f *fakeClipboard) WriteAll(text string) error {
	if f.err != nil {
		return f.err
	}
	f.text = text
	return nil
}

type harness struct {
	c     *Coordinator
	p     *playertest.FakePlayer
	clock *fakeClock
	clip  *fakeClipboard
	prefs *prefs.Store
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		p:     playertest.NewFakePlayer(),
		clock: &fakeClock{now: time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)},
		clip:  &fakeClipboard{},
		prefs: prefs.Load(filepath.Join(t.TempDir(), "prefs.json")),
	}
	h.p.TrackList = []models.Track{trackOff, trackEN, trackFR, trackKO, trackDE}
	h.c = NewCoordinator(Options{Preferences: h.prefs, Clipboard: h.clip, Now: h.clock.Now})
	require.True(t, h.c.HandleVideoChange(testVideo))
	h.c.SetPlayer(h.p)
	return h
}

// tick advances the clock by one sampling interval, moves the play-head to ms
// and runs a control cycle.
func (h *harness) tick(ms float64) {
	h.clock.Advance(tickSpacing)
	h.p.SetTime(ms)
	h.c.Tick()
}

// activate makes track the host's active track and lets one tick register it.
func (h *harness) activate(track models.Track, ms float64) {
	t := track
	h.p.SetActive(&t)
	h.tick(ms)
}

func (h *harness) setPrefs(t *testing.T, fn func(*prefs.Preferences)) {
	t.Helper()
	_, err := h.prefs.Update(fn)
	require.NoError(t, err)
}

func (h *harness) exec(t *testing.T, action models.Action) Overlay {
	t.Helper()
	o, err := h.c.Execute(action, Args{})
	require.NoError(t, err)
	return o
}

func twoCues() []models.Cue {
	return []models.Cue{
		{Start: 0, End: 1000, Text: "First line"},
		{Start: 2000, End: 3000, Text: "Second line"},
	}
}

func threeCues() []models.Cue {
	return []models.Cue{
		{Start: 0, End: 1000, Text: "One"},
		{Start: 2000, End: 3000, Text: "Two"},
		{Start: 4000, End: 5000, Text: "Three"},
	}
}

var errClipboardDenied = errors.New("clipboard denied")
