// Package session owns the per-video cue state and drives it from the
// control tick, intercepted payloads and user commands.
package session

import (
	"math"
	"slices"
	"time"

	"github.com/Belphemur/CueLoop/internal/models"
	"github.com/Belphemur/CueLoop/internal/navigation"
	"github.com/Belphemur/CueLoop/internal/sentence"
	"github.com/Belphemur/CueLoop/internal/store"
)

const (
	// JumpSampleInterval is the minimum spacing between play-head samples.
	JumpSampleInterval = 200 * time.Millisecond
	// JumpThreshold is the play-head movement (ms) between two samples that
	// counts as a seek or an ad insertion.
	JumpThreshold = 5000.0
)

// Session is everything that lives exactly as long as one video. A video
// change replaces the whole aggregate.
type Session struct {
	VideoID   string
	Store     *store.Store
	Engine    *navigation.Engine
	Sentence  *sentence.Controller
	Languages *Registry

	// primary is the canonical tag of the host's active track, "" when off.
	primary string
	jumps   jumpDetector
}

// New creates an empty session for videoID.
func New(videoID string) *Session {
	return &Session{
		VideoID:   videoID,
		Store:     store.New(),
		Engine:    navigation.NewEngine(),
		Sentence:  sentence.NewController(),
		Languages: NewRegistry(),
	}
}

// Primary returns the primary language tag, or "" when subtitles are off.
func (s *Session) Primary() string {
	return s.primary
}

// Registry holds the languages observed on the host during a session, in
// registration order.
type Registry struct {
	order []string
	langs map[string]*models.RegisteredLanguage
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{langs: make(map[string]*models.RegisteredLanguage)}
}

// Register adds tag as a selected language. It returns false and leaves the
// entry alone when tag is already registered.
func (r *Registry) Register(tag, displayName string) bool {
	if _, ok := r.langs[tag]; ok {
		return false
	}
	r.langs[tag] = &models.RegisteredLanguage{Tag: tag, DisplayName: displayName, Selected: true}
	r.order = append(r.order, tag)
	return true
}

// Get returns a copy of the entry for tag.
func (r *Registry) Get(tag string) (models.RegisteredLanguage, bool) {
	l, ok := r.langs[tag]
	if !ok {
		return models.RegisteredLanguage{}, false
	}
	return *l, true
}

// Rename updates the display name of tag and reports whether it changed.
func (r *Registry) Rename(tag, displayName string) bool {
	l, ok := r.langs[tag]
	if !ok || l.DisplayName == displayName {
		return false
	}
	l.DisplayName = displayName
	return true
}

// Toggle flips the overlay selection of tag and returns the new state.
func (r *Registry) Toggle(tag string) (bool, bool) {
	l, ok := r.langs[tag]
	if !ok {
		return false, false
	}
	l.Selected = !l.Selected
	return l.Selected, true
}

// Len returns the number of registered languages.
func (r *Registry) Len() int {
	return len(r.order)
}

// AnySelectedExcept reports whether a language other than tag is selected.
func (r *Registry) AnySelectedExcept(tag string) bool {
	for t, l := range r.langs {
		if t != tag && l.Selected {
			return true
		}
	}
	return false
}

// Ordered returns the registered tags following the preferred order first,
// then the remaining ones in registration order. Unregistered tags in
// preferred are dropped.
func (r *Registry) Ordered(preferred []string) []string {
	out := make([]string, 0, len(r.order))
	for _, tag := range preferred {
		if _, ok := r.langs[tag]; ok && !slices.Contains(out, tag) {
			out = append(out, tag)
		}
	}
	for _, tag := range r.order {
		if !slices.Contains(out, tag) {
			out = append(out, tag)
		}
	}
	return out
}

// List returns copies of the entries in the given tag order.
func (r *Registry) List(tags []string) []models.RegisteredLanguage {
	out := make([]models.RegisteredLanguage, 0, len(tags))
	for _, tag := range tags {
		if l, ok := r.langs[tag]; ok {
			out = append(out, *l)
		}
	}
	return out
}

// jumpDetector samples the play-head and flags large discontinuities.
type jumpDetector struct {
	sampledAt time.Time
	last      float64
	primed    bool
}

// observe records play-head t at now. It returns the movement since the last
// sample and whether it crossed JumpThreshold. Calls closer than
// JumpSampleInterval to the previous sample are ignored.
func (d *jumpDetector) observe(now time.Time, t float64) (float64, bool) {
	if !d.sampledAt.IsZero() && now.Sub(d.sampledAt) < JumpSampleInterval {
		return 0, false
	}
	d.sampledAt = now

	if !d.primed {
		d.primed = true
		d.last = t
		return 0, false
	}

	delta := t - d.last
	d.last = t
	return delta, math.Abs(delta) >= JumpThreshold
}
