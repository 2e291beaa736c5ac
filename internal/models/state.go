package models

// LoopState drives the repeat-count loop over one cue.
type LoopState struct {
	Active    bool `json:"active"`
	Remaining int  `json:"remaining"`
	Cue       *Cue `json:"cue,omitempty"`
}

// SentenceState is the sentence-mode pause state.
type SentenceState struct {
	Paused  bool `json:"paused"`
	LastCue *Cue `json:"lastCue,omitempty"`
}
