// Package navigation moves the play-head between subtitle cues and runs the
// repeat-count loop over a single cue.
package navigation

import "github.com/Belphemur/CueLoop/internal/models"

// Command is a cue navigation command.
type Command string

const (
	Previous Command = "previous"
	Repeat   Command = "repeat"
	Next     Command = "next"
)

// Target is where a navigation command lands.
type Target struct {
	Index int
	Cue   models.Cue
}

// LoopStep is the outcome of one loop tick.
type LoopStep struct {
	// Reseek is true when the play-head must jump back to SeekTo.
	Reseek bool
	SeekTo float64
	// Remaining is the number of replays left after this one.
	Remaining int
	// Finished is true when this tick deactivated the loop.
	Finished bool
}

// Locate returns the index of the cue containing t, or the index of the first
// cue starting after t when t falls in a gap, or len(cues) when t is past the
// end of the last cue.
func Locate(cues []models.Cue, t float64) int {
	for i, c := range cues {
		if c.Contains(t) || t < c.Start {
			return i
		}
	}
	return len(cues)
}

// inGap reports whether t lies before the cue at idx without being inside it.
func inGap(cues []models.Cue, idx int, t float64) bool {
	return idx >= 0 && idx < len(cues) && t < cues[idx].Start
}

// Engine holds the current cue sequence and the loop state. It is not safe for
// concurrent use.
type Engine struct {
	cues []models.Cue
	loop models.LoopState
}

// NewEngine creates an engine with no cues.
func NewEngine() *Engine {
	return &Engine{}
}

// SetCues replaces the current cue sequence.
func (e *Engine) SetCues(cues []models.Cue) {
	e.cues = cues
}

// ClearCues drops the current cue sequence so it is re-resolved on next use.
func (e *Engine) ClearCues() {
	e.cues = nil
}

// Cues returns the current cue sequence.
func (e *Engine) Cues() []models.Cue {
	return e.cues
}

// HasCues reports whether a current cue sequence is set.
func (e *Engine) HasCues() bool {
	return len(e.cues) > 0
}

// Loop returns a copy of the loop state.
func (e *Engine) Loop() models.LoopState {
	state := e.loop
	if state.Cue != nil {
		c := *state.Cue
		state.Cue = &c
	}
	return state
}

// CancelLoop deactivates any active loop.
func (e *Engine) CancelLoop() {
	e.loop.Active = false
}

// Navigate resolves a command at play-head t to a target cue. It returns false
// when there are no cues. A repeat with repeatCount > 1 arms the loop on the
// target; any other command cancels it.
func (e *Engine) Navigate(t float64, cmd Command, repeatCount int) (Target, bool) {
	n := len(e.cues)
	if n == 0 {
		return Target{}, false
	}

	idx := Locate(e.cues, t)
	gap := inGap(e.cues, idx, t)

	target := idx
	switch cmd {
	case Repeat:
		if gap {
			target = max(0, idx-1)
		}
	case Next:
		e.loop.Active = false
		if !gap {
			target = idx + 1
		}
	case Previous:
		e.loop.Active = false
		target = idx - 1
	}

	target = min(max(target, 0), n-1)
	cue := e.cues[target]

	if cmd == Repeat {
		if repeatCount > 1 {
			armed := cue
			e.loop = models.LoopState{Active: true, Remaining: repeatCount - 1, Cue: &armed}
		} else {
			e.loop.Active = false
		}
	}

	return Target{Index: target, Cue: cue}, true
}

// Tick advances the loop at play-head t. Once the play-head passes the end of
// the looped cue it re-seeks to its start and decrements the remaining count.
// The loop deactivates on the tick that uses up the last replay.
func (e *Engine) Tick(t float64) (LoopStep, bool) {
	if !e.loop.Active || e.loop.Cue == nil || t <= e.loop.Cue.End {
		return LoopStep{}, false
	}

	if e.loop.Remaining <= 0 {
		e.loop.Active = false
		return LoopStep{Finished: true}, true
	}

	e.loop.Remaining--
	step := LoopStep{Reseek: true, SeekTo: e.loop.Cue.Start, Remaining: e.loop.Remaining}
	if e.loop.Remaining == 0 {
		e.loop.Active = false
		step.Finished = true
	}
	return step, true
}
