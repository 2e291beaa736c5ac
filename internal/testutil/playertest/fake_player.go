// Package playertest provides a scriptable host player for tests.
package playertest

import (
	"sync"

	"github.com/Belphemur/CueLoop/internal/models"
	"github.com/Belphemur/CueLoop/internal/player"
)

// FakePlayer is a scriptable host player implementing every capability. It
// records the commands it receives; seeks, rate and track changes take effect
// immediately.
type FakePlayer struct {
	mu sync.Mutex

	Time       float64
	Rate       float64
	Active     *models.Track
	TrackList  []models.Track
	DurationMs float64
	Ad         bool
	Native     string

	// Withheld capabilities make Has report false.
	Withheld map[player.Capability]bool
	// Media, when set, is returned as the page media element.
	Media *FakeMedia

	Seeks        []float64
	Plays        int
	Pauses       int
	RateChanges  []float64
	TrackChanges []models.Track
}

// NewFakePlayer creates a playing FakePlayer at time 0 and rate 1.
func NewFakePlayer() *FakePlayer {
	return &FakePlayer{Rate: 1, Withheld: map[player.Capability]bool{}}
}

// Withhold makes the given capabilities unavailable.
func (f *FakePlayer) Withhold(caps ...player.Capability) *FakePlayer {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range caps {
		f.Withheld[c] = true
	}
	return f
}

// SetTime moves the play-head without recording a seek.
func (f *FakePlayer) SetTime(ms float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Time = ms
}

// SetActive sets the active track without recording a change.
func (f *FakePlayer) SetActive(track *models.Track) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Active = track
}

func (f *FakePlayer) Has(c player.Capability) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.Withheld[c]
}

func (f *FakePlayer) CurrentTime() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Time
}

func (f *FakePlayer) Seek(ms float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Seeks = append(f.Seeks, ms)
	f.Time = ms
}

func (f *FakePlayer) Play() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Plays++
}

func (f *FakePlayer) Pause() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Pauses++
}

func (f *FakePlayer) PlaybackRate() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Rate
}

func (f *FakePlayer) SetPlaybackRate(rate float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.RateChanges = append(f.RateChanges, rate)
	f.Rate = rate
}

func (f *FakePlayer) TimedTextTrack() (models.Track, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Active == nil {
		return models.Track{}, false
	}
	return *f.Active, true
}

func (f *FakePlayer) TimedTextTrackList() []models.Track {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Track(nil), f.TrackList...)
}

func (f *FakePlayer) SetTextTrack(track models.Track) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.TrackChanges = append(f.TrackChanges, track)
	t := track
	f.Active = &t
}

func (f *FakePlayer) Duration() (float64, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.DurationMs, f.DurationMs > 0
}

func (f *FakePlayer) AdPlaying() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Ad
}

func (f *FakePlayer) NativeText() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Native
}

func (f *FakePlayer) MediaElement() (player.MediaElement, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Media == nil {
		return nil, false
	}
	return f.Media, true
}

// SeekCount returns how many seeks were recorded.
func (f *FakePlayer) SeekCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Seeks)
}

// LastSeek returns the most recent seek target.
func (f *FakePlayer) LastSeek() (float64, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.Seeks) == 0 {
		return 0, false
	}
	return f.Seeks[len(f.Seeks)-1], true
}

// FakeMedia is a recording media element.
type FakeMedia struct {
	mu     sync.Mutex
	Rate   float64
	Seeks  []float64
	Plays  int
	Pauses int
}

func (m *FakeMedia) Seek(ms float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Seeks = append(m.Seeks, ms)
}

func (m *FakeMedia) Play() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Plays++
}

func (m *FakeMedia) Pause() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Pauses++
}

func (m *FakeMedia) PlaybackRate() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Rate == 0 {
		return 1
	}
	return m.Rate
}

func (m *FakeMedia) SetPlaybackRate(rate float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Rate = rate
}
