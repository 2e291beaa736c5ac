// Package player describes what the core needs from the host video player.
//
// Only CurrentTime is mandatory. Every other capability is an optional
// interface, and the helpers in this package check for it and fall back to the
// page's media element before giving up with
// *apperrors.ErrCapabilityUnavailable.
package player

import (
	"github.com/Belphemur/CueLoop/internal/apperrors"
	"github.com/Belphemur/CueLoop/internal/models"
)

// Capability names an optional player feature.
type Capability string

const (
	CapSeek       Capability = "seek"
	CapPlayback   Capability = "playback"
	CapRate       Capability = "playback_rate"
	CapTextTracks Capability = "text_tracks"
	CapDuration   Capability = "duration"
	CapAds        Capability = "ads"
	CapNativeText Capability = "native_text"
)

const (
	MinRate  = 0.25
	MaxRate  = 5.0
	RateStep = 0.25

	// AdDurationThreshold is the content duration (ms) under which the
	// current stream is assumed to be an ad.
	AdDurationThreshold = 120000.0
)

// Player is the host player. CurrentTime is the play-head in milliseconds.
type Player interface {
	CurrentTime() float64
}

// Seeker moves the play-head.
type Seeker interface {
	Seek(ms float64)
}

// Playback starts and stops playback.
type Playback interface {
	Play()
	Pause()
}

// RateController reads and changes the playback rate.
type RateController interface {
	PlaybackRate() float64
	SetPlaybackRate(rate float64)
}

// TrackController exposes the host's subtitle tracks.
type TrackController interface {
	TimedTextTrack() (models.Track, bool)
	TimedTextTrackList() []models.Track
	SetTextTrack(track models.Track)
}

// DurationReporter reports the duration (ms) of the stream being played.
type DurationReporter interface {
	Duration() (float64, bool)
}

// AdReporter reports whether an ad interstitial is on screen.
type AdReporter interface {
	AdPlaying() bool
}

// NativeTextReporter returns the caption text the host itself renders.
type NativeTextReporter interface {
	NativeText() string
}

// CapabilityReporter is implemented by players whose capabilities change at
// runtime. A player without it supports whatever interfaces it implements.
type CapabilityReporter interface {
	Has(c Capability) bool
}

// MediaElement is the page's raw video element, used when the host player
// lacks a capability.
type MediaElement interface {
	Seeker
	Playback
	RateController
}

// MediaSource is implemented by players that can hand out the page's media
// element.
type MediaSource interface {
	MediaElement() (MediaElement, bool)
}

func supports(p Player, c Capability) bool {
	if r, ok := p.(CapabilityReporter); ok {
		return r.Has(c)
	}
	return true
}

func media(p Player) (MediaElement, bool) {
	if src, ok := p.(MediaSource); ok {
		return src.MediaElement()
	}
	return nil, false
}

// Seek moves the play-head to ms.
func Seek(p Player, ms float64) error {
	if s, ok := p.(Seeker); ok && supports(p, CapSeek) {
		s.Seek(ms)
		return nil
	}
	if m, ok := media(p); ok {
		m.Seek(ms)
		return nil
	}
	return apperrors.NewCapabilityUnavailableError(string(CapSeek))
}

// Play resumes playback.
func Play(p Player) error {
	if pb, ok := p.(Playback); ok && supports(p, CapPlayback) {
		pb.Play()
		return nil
	}
	if m, ok := media(p); ok {
		m.Play()
		return nil
	}
	return apperrors.NewCapabilityUnavailableError(string(CapPlayback))
}

// Pause pauses playback.
func Pause(p Player) error {
	if pb, ok := p.(Playback); ok && supports(p, CapPlayback) {
		pb.Pause()
		return nil
	}
	if m, ok := media(p); ok {
		m.Pause()
		return nil
	}
	return apperrors.NewCapabilityUnavailableError(string(CapPlayback))
}

// ClampRate bounds a playback rate to [MinRate, MaxRate].
func ClampRate(rate float64) float64 {
	return min(max(rate, MinRate), MaxRate)
}

func rateController(p Player) (RateController, bool) {
	if rc, ok := p.(RateController); ok && supports(p, CapRate) {
		return rc, true
	}
	if m, ok := media(p); ok {
		return m, true
	}
	return nil, false
}

// AdjustRate changes the playback rate by delta and returns the new, clamped
// rate.
func AdjustRate(p Player, delta float64) (float64, error) {
	rc, ok := rateController(p)
	if !ok {
		return 0, apperrors.NewCapabilityUnavailableError(string(CapRate))
	}
	rate := ClampRate(rc.PlaybackRate() + delta)
	rc.SetPlaybackRate(rate)
	return rate, nil
}

// SetRate sets an absolute, clamped playback rate.
func SetRate(p Player, rate float64) (float64, error) {
	rc, ok := rateController(p)
	if !ok {
		return 0, apperrors.NewCapabilityUnavailableError(string(CapRate))
	}
	rate = ClampRate(rate)
	rc.SetPlaybackRate(rate)
	return rate, nil
}

func tracks(p Player) (TrackController, bool) {
	tc, ok := p.(TrackController)
	if !ok || !supports(p, CapTextTracks) {
		return nil, false
	}
	return tc, true
}

// ActiveTrack returns the host's active subtitle track.
func ActiveTrack(p Player) (models.Track, bool) {
	if tc, ok := tracks(p); ok {
		return tc.TimedTextTrack()
	}
	return models.Track{}, false
}

// Tracks returns the host's subtitle tracks in host order.
func Tracks(p Player) []models.Track {
	if tc, ok := tracks(p); ok {
		return tc.TimedTextTrackList()
	}
	return nil
}

// SetTextTrack switches the host's active subtitle track.
func SetTextTrack(p Player, track models.Track) error {
	tc, ok := tracks(p)
	if !ok {
		return apperrors.NewCapabilityUnavailableError(string(CapTextTracks))
	}
	tc.SetTextTrack(track)
	return nil
}

// IsAdPlaying reports whether an ad is on screen, either flagged by the host
// or inferred from a short positive stream duration.
func IsAdPlaying(p Player) bool {
	if p == nil {
		return false
	}
	if ar, ok := p.(AdReporter); ok && supports(p, CapAds) && ar.AdPlaying() {
		return true
	}
	if dr, ok := p.(DurationReporter); ok && supports(p, CapDuration) {
		if d, known := dr.Duration(); known && d > 0 && d < AdDurationThreshold {
			return true
		}
	}
	return false
}

// NativeText returns the caption text the host renders on screen, or "".
func NativeText(p Player) string {
	if nr, ok := p.(NativeTextReporter); ok && supports(p, CapNativeText) {
		return nr.NativeText()
	}
	return ""
}
