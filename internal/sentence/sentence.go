// Package sentence pauses playback at the end of each subtitle cue so a
// learner can take one sentence at a time.
package sentence

import "github.com/Belphemur/CueLoop/internal/models"

// DefaultEpsilon is how close (ms) the play-head must get to the end of the
// active cue before playback pauses.
const DefaultEpsilon = 50.0

// Resumption is where a resume command continues playback.
type Resumption struct {
	Index int
	Cue   models.Cue
	// Fallback is true when the retained cue is no longer in the sequence;
	// the caller should step forward one cue from the play-head instead.
	Fallback bool
}

// Controller tracks the sentence-mode state machine: armed, or paused on a
// retained cue. It is not safe for concurrent use.
type Controller struct {
	paused  bool
	lastCue *models.Cue
	epsilon float64
	// resumed holds the retained cue until the play-head reaches it.
	resumed bool
}

// NewController creates an armed controller.
func NewController() *Controller {
	return &Controller{epsilon: DefaultEpsilon}
}

// State returns a copy of the controller state.
func (c *Controller) State() models.SentenceState {
	state := models.SentenceState{Paused: c.paused}
	if c.lastCue != nil {
		cue := *c.lastCue
		state.LastCue = &cue
	}
	return state
}

// Paused reports whether playback is held at the end of a cue.
func (c *Controller) Paused() bool {
	return c.paused
}

// Reset returns to armed with no retained cue. Navigation commands reset the
// controller so the just-targeted cue does not pause again at once.
func (c *Controller) Reset() {
	c.paused = false
	c.lastCue = nil
	c.resumed = false
}

// Check observes play-head t against cues. It retains the cue containing t and
// reports true exactly when playback should pause now. After a resume, cues
// before the resumed one are ignored until the play-head catches up.
func (c *Controller) Check(t float64, cues []models.Cue) bool {
	if c.resumed && c.lastCue != nil && t >= c.lastCue.Start {
		c.resumed = false
	}
	for i := range cues {
		if cues[i].Contains(t) {
			if c.resumed && cues[i].Start < c.lastCue.Start {
				break
			}
			cue := cues[i]
			c.lastCue = &cue
			break
		}
		if t < cues[i].Start {
			break
		}
	}

	if c.lastCue == nil || c.paused || t < c.lastCue.End-c.epsilon {
		return false
	}
	c.paused = true
	return true
}

// Resume leaves the paused state and picks the cue after the retained one.
// It returns false when there are no cues to resume into.
func (c *Controller) Resume(cues []models.Cue) (Resumption, bool) {
	if len(cues) == 0 {
		return Resumption{}, false
	}
	c.paused = false
	c.resumed = false

	idx := -1
	if c.lastCue != nil {
		for i := range cues {
			if cues[i].SameTiming(*c.lastCue) {
				idx = i
				break
			}
		}
	}
	if idx == -1 {
		return Resumption{Fallback: true}, true
	}

	next := min(idx+1, len(cues)-1)
	cue := cues[next]
	c.lastCue = &cue
	c.resumed = true
	return Resumption{Index: next, Cue: cue}, true
}
