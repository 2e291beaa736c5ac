package models

import "time"

// UnknownLanguage tags a batch whose language could not be resolved yet.
const UnknownLanguage = "unknown"

// Cue is one subtitle line. Start and End are milliseconds; both bounds are inclusive.
// End >= Start is expected but not enforced: malformed payloads can yield
// zero-length or inverted cues and consumers must tolerate them.
type Cue struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"` // may contain embedded newlines
}

// Contains reports whether t (ms) lies within the cue, inclusive at both ends.
func (c Cue) Contains(t float64) bool {
	return t >= c.Start && t <= c.End
}

// SameTiming reports whether both cues share the exact same time window.
func (c Cue) SameTiming(other Cue) bool {
	return c.Start == other.Start && c.End == other.End
}

// Batch is the parsed content of one intercepted subtitle payload.
// Batches are owned by the cue store; the language is the only field that may
// change after creation, and only from UnknownLanguage to a concrete tag.
type Batch struct {
	SourceURL   string    `json:"sourceUrl"`
	Cues        []Cue     `json:"cues"`
	Language    string    `json:"language"`
	Fingerprint string    `json:"fingerprint"`
	CapturedAt  time.Time `json:"capturedAt"`
	VideoID     string    `json:"videoId"`
}

// IsUnknown reports whether the batch language is still unresolved.
func (b Batch) IsUnknown() bool {
	return b.Language == UnknownLanguage
}
