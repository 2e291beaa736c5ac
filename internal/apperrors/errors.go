package apperrors

import "fmt"

// ErrNotFound represents an error when a requested resource is not found.
type ErrNotFound struct {
	Resource string
	ID       interface{}
}

// Error implements the error interface.
func (e *ErrNotFound) Error() string {
	if e.ID != nil {
		return fmt.Sprintf("%s with ID %v not found", e.Resource, e.ID)
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

// Is allows for error checking with errors.Is().
func (e *ErrNotFound) Is(target error) bool {
	_, ok := target.(*ErrNotFound)
	return ok
}

// NewNotFoundError creates a new ErrNotFound.
func NewNotFoundError(resource string, id interface{}) *ErrNotFound {
	return &ErrNotFound{
		Resource: resource,
		ID:       id,
	}
}

// NewTrackNotFoundError creates a specific error for when no host text track carries the language.
func NewTrackNotFoundError(language string) *ErrNotFound {
	return &ErrNotFound{
		Resource: "text track",
		ID:       language,
	}
}

// ErrCapabilityUnavailable is returned when the host player lacks a capability
// and no media element fallback exists.
type ErrCapabilityUnavailable struct {
	Capability string
}

// Error implements the error interface.
func (e *ErrCapabilityUnavailable) Error() string {
	return fmt.Sprintf("player capability %q is not available", e.Capability)
}

// Is allows for error checking with errors.Is().
func (e *ErrCapabilityUnavailable) Is(target error) bool {
	_, ok := target.(*ErrCapabilityUnavailable)
	return ok
}

// NewCapabilityUnavailableError creates a new ErrCapabilityUnavailable.
func NewCapabilityUnavailableError(capability string) *ErrCapabilityUnavailable {
	return &ErrCapabilityUnavailable{Capability: capability}
}

// ErrNoCues is returned when a payload or session holds no subtitle cues.
type ErrNoCues struct {
	Source string
}

// Error implements the error interface.
func (e *ErrNoCues) Error() string {
	if e.Source == "" {
		return "no subtitle cues"
	}
	return fmt.Sprintf("no subtitle cues in %s", e.Source)
}

// Is allows for error checking with errors.Is().
func (e *ErrNoCues) Is(target error) bool {
	_, ok := target.(*ErrNoCues)
	return ok
}

// ErrPlayerNotReady is returned by commands issued before the host player has
// been located for the current video.
type ErrPlayerNotReady struct {
	VideoID string
}

// Error implements the error interface.
func (e *ErrPlayerNotReady) Error() string {
	if e.VideoID == "" {
		return "player is not ready"
	}
	return fmt.Sprintf("player for video %s is not ready", e.VideoID)
}

// Is allows for error checking with errors.Is().
func (e *ErrPlayerNotReady) Is(target error) bool {
	_, ok := target.(*ErrPlayerNotReady)
	return ok
}
