// Package apperrors tests verify the custom error types (ErrNotFound,
// ErrCapabilityUnavailable, ErrNoCues, ErrPlayerNotReady), their Error() messages, Is() matching
// semantics, constructor helpers, and compatibility with errors.Is() including
// through fmt.Errorf wrapping.
package apperrors

import (
	"errors"
	"fmt"
	"testing"
)

// ---------------------------------------------------------------------------
// ErrNotFound
// ---------------------------------------------------------------------------

func TestErrNotFound_Error(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		err      *ErrNotFound
		expected string
	}{
		{
			name:     "with string ID",
			err:      &ErrNotFound{Resource: "text track", ID: "ko"},
			expected: "text track with ID ko not found",
		},
		{
			name:     "with int ID",
			err:      &ErrNotFound{Resource: "batch", ID: 42},
			expected: "batch with ID 42 not found",
		},
		{
			name:     "with nil ID",
			err:      &ErrNotFound{Resource: "transcript", ID: nil},
			expected: "transcript not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := tt.err.Error()
			if got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestErrNotFound_Is(t *testing.T) {
	t.Parallel()
	err := NewTrackNotFoundError("es-419")

	t.Run("matches another ErrNotFound", func(t *testing.T) {
		if !errors.Is(err, &ErrNotFound{}) {
			t.Error("expected errors.Is to match *ErrNotFound")
		}
	})

	t.Run("does not match ErrNoCues", func(t *testing.T) {
		if errors.Is(err, &ErrNoCues{}) {
			t.Error("expected errors.Is not to match *ErrNoCues")
		}
	})

	t.Run("matches through wrapping", func(t *testing.T) {
		wrapped := fmt.Errorf("switch language: %w", err)
		if !errors.Is(wrapped, &ErrNotFound{}) {
			t.Error("expected wrapped error to match *ErrNotFound")
		}
	})
}

func TestNewTrackNotFoundError(t *testing.T) {
	t.Parallel()
	err := NewTrackNotFoundError("zh-Hans")
	if err.Resource != "text track" {
		t.Errorf("Resource = %q, want %q", err.Resource, "text track")
	}
	if err.ID != "zh-Hans" {
		t.Errorf("ID = %v, want zh-Hans", err.ID)
	}
}

// ---------------------------------------------------------------------------
// ErrCapabilityUnavailable
// ---------------------------------------------------------------------------

func TestErrCapabilityUnavailable(t *testing.T) {
	t.Parallel()
	err := NewCapabilityUnavailableError("playback_rate")

	if got, want := err.Error(), `player capability "playback_rate" is not available`; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(fmt.Errorf("speed up: %w", err), &ErrCapabilityUnavailable{}) {
		t.Error("expected wrapped error to match *ErrCapabilityUnavailable")
	}
	if errors.Is(err, &ErrNotFound{}) {
		t.Error("expected errors.Is not to match *ErrNotFound")
	}
}

// ---------------------------------------------------------------------------
// ErrNoCues
// ---------------------------------------------------------------------------

func TestErrNoCues_Error(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		err      *ErrNoCues
		expected string
	}{
		{"without source", &ErrNoCues{}, "no subtitle cues"},
		{"with source", &ErrNoCues{Source: "episode.xml"}, "no subtitle cues in episode.xml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestErrNoCues_Is(t *testing.T) {
	t.Parallel()
	err := fmt.Errorf("parse: %w", &ErrNoCues{Source: "x"})
	if !errors.Is(err, &ErrNoCues{}) {
		t.Error("expected errors.Is to match *ErrNoCues")
	}
	if errors.Is(err, &ErrCapabilityUnavailable{}) {
		t.Error("expected errors.Is not to match *ErrCapabilityUnavailable")
	}
}

// ---------------------------------------------------------------------------
// ErrPlayerNotReady
// ---------------------------------------------------------------------------

func TestErrPlayerNotReady(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		err      *ErrPlayerNotReady
		expected string
	}{
		{"without video", &ErrPlayerNotReady{}, "player is not ready"},
		{"with video", &ErrPlayerNotReady{VideoID: "81234567"}, "player for video 81234567 is not ready"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
			if !errors.Is(fmt.Errorf("next: %w", tt.err), &ErrPlayerNotReady{}) {
				t.Error("expected wrapped error to match *ErrPlayerNotReady")
			}
		})
	}
}
