package session

import (
	"fmt"
	"slices"
	"strings"

	"github.com/Belphemur/CueLoop/internal/apperrors"
	"github.com/Belphemur/CueLoop/internal/language"
	"github.com/Belphemur/CueLoop/internal/metrics"
	"github.com/Belphemur/CueLoop/internal/models"
	"github.com/Belphemur/CueLoop/internal/navigation"
	"github.com/Belphemur/CueLoop/internal/player"
	"github.com/Belphemur/CueLoop/internal/prefs"
	"github.com/Belphemur/CueLoop/internal/transcript"
)

// Args carries the parameters of language commands.
type Args struct {
	Language string   `json:"language,omitempty"`
	Order    []string `json:"order,omitempty"`
}

func loopToast(remaining int) string {
	return fmt.Sprintf("Loop: %d left", remaining+1)
}

// Execute runs a user command against the current session and returns the
// resulting overlay state.
func (c *Coordinator) Execute(action models.Action, args Args) (Overlay, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var err error
	switch action {
	case models.ActionPrevious:
		err = c.navigate(navigation.Previous)
	case models.ActionRepeat:
		err = c.navigate(navigation.Repeat)
	case models.ActionNext:
		if c.preferences().SentenceMode && c.session.Sentence.Paused() {
			err = c.resume()
		} else {
			err = c.navigate(navigation.Next)
		}
	case models.ActionCycleLanguage:
		err = c.cycleLanguage()
	case models.ActionSwitchLanguage:
		err = c.switchLanguage(args.Language)
	case models.ActionSubtitlesOff:
		err = c.subtitlesOff()
	case models.ActionToggleLanguage:
		err = c.toggleLanguage(args.Language)
	case models.ActionReorder:
		err = c.reorderLanguages(args.Order)
	case models.ActionToggleSettings:
		c.settingsOpen = !c.settingsOpen
	case models.ActionSpeedDown:
		err = c.adjustSpeed(-player.RateStep)
	case models.ActionSpeedUp:
		err = c.adjustSpeed(player.RateStep)
	case models.ActionSpeedReset:
		err = c.resetSpeed()
	case models.ActionExport:
		c.export()
	default:
		err = fmt.Errorf("unknown action %q", action)
	}

	if err == nil && c.player != nil {
		c.refreshOverlay(c.preferences())
	}
	return c.snapshot(), err
}

func (c *Coordinator) requirePlayer() error {
	if c.player == nil {
		return &apperrors.ErrPlayerNotReady{VideoID: c.session.VideoID}
	}
	return nil
}

// navigate seeks to the cue a navigation command resolves to. With nothing
// current, the newest captured batch is used.
func (c *Coordinator) navigate(cmd navigation.Command) error {
	if err := c.requirePlayer(); err != nil {
		return err
	}
	s := c.session
	if !s.Engine.HasCues() {
		if latest, ok := s.Store.Latest(); ok {
			s.Engine.SetCues(latest.Cues)
		}
	}

	target, ok := s.Engine.Navigate(c.player.CurrentTime(), cmd, c.preferences().RepeatCount)
	if !ok {
		c.logger.Debug().Str("command", string(cmd)).Msg("No cues available for navigation")
		return nil
	}
	if err := player.Seek(c.player, target.Cue.Start); err != nil {
		return err
	}
	metrics.NavigationCommandsTotal.WithLabelValues(string(cmd)).Inc()
	s.Sentence.Reset()
	c.showToast(target.Cue.Text)
	return nil
}

// resume continues playback after a sentence pause.
func (c *Coordinator) resume() error {
	if err := c.requirePlayer(); err != nil {
		return err
	}
	s := c.session
	r, ok := s.Sentence.Resume(s.Engine.Cues())
	if !ok {
		return nil
	}

	if r.Fallback {
		if err := c.navigate(navigation.Next); err != nil {
			return err
		}
		return player.Play(c.player)
	}

	if err := player.Seek(c.player, r.Cue.Start); err != nil {
		return err
	}
	if err := player.Play(c.player); err != nil {
		return err
	}
	msg := r.Cue.Text
	if msg == "" {
		msg = "Next"
	}
	c.showToast(msg)
	return nil
}

func trackName(t models.Track) string {
	if t.DisplayName != "" {
		return t.DisplayName
	}
	return t.BCP47
}

func canonical(tag string) string {
	out, _ := language.Canonicalize(tag)
	return out
}

// useLanguage makes the newest batch of tag current, or clears the current
// cues until one arrives.
func (c *Coordinator) useLanguage(tag string) {
	s := c.session
	if cues, ok := s.Store.LatestForLanguage(s.VideoID, tag); ok {
		s.Engine.SetCues(cues)
		return
	}
	s.Engine.ClearCues()
}

// cycleLanguage advances the host to the next subtitle track, preferring
// registered languages.
func (c *Coordinator) cycleLanguage() error {
	if err := c.requirePlayer(); err != nil {
		return err
	}
	all := player.Tracks(c.player)
	if len(all) <= 1 {
		return nil
	}

	valid := slices.DeleteFunc(slices.Clone(all), func(t models.Track) bool {
		return t.IsNone || t.BCP47 == "off"
	})
	if len(valid) == 0 {
		return nil
	}
	targets := valid
	registered := slices.DeleteFunc(slices.Clone(valid), func(t models.Track) bool {
		_, ok := c.session.Languages.Get(canonical(t.BCP47))
		return !ok
	})
	if len(registered) > 0 {
		targets = registered
	}

	next := 0
	if current := c.activeTrack(); current != nil && !current.IsNone {
		idx := slices.IndexFunc(targets, func(t models.Track) bool { return t.TrackID == current.TrackID })
		if idx == -1 {
			lang := canonical(current.BCP47)
			idx = slices.IndexFunc(targets, func(t models.Track) bool { return canonical(t.BCP47) == lang })
		}
		if idx != -1 {
			next = (idx + 1) % len(targets)
		}
	}

	track := targets[next]
	if err := player.SetTextTrack(c.player, track); err != nil {
		return err
	}
	c.showToast("Language: " + trackName(track))
	c.useLanguage(canonical(track.BCP47))
	return nil
}

// switchLanguage selects the host track carrying tag.
func (c *Coordinator) switchLanguage(tag string) error {
	if err := c.requirePlayer(); err != nil {
		return err
	}
	want := canonical(tag)
	if want == "" {
		return apperrors.NewTrackNotFoundError(tag)
	}
	idx := slices.IndexFunc(player.Tracks(c.player), func(t models.Track) bool {
		return !t.IsOff() && canonical(t.BCP47) == want
	})
	if idx == -1 {
		return apperrors.NewTrackNotFoundError(want)
	}

	track := player.Tracks(c.player)[idx]
	if err := player.SetTextTrack(c.player, track); err != nil {
		return err
	}
	name := track.DisplayName
	if name == "" {
		name = want
	}
	c.showToast("Switched to: " + name)
	c.useLanguage(want)
	return nil
}

// subtitlesOff selects the host's "Off" track.
func (c *Coordinator) subtitlesOff() error {
	if err := c.requirePlayer(); err != nil {
		return err
	}
	tracks := player.Tracks(c.player)
	idx := slices.IndexFunc(tracks, func(t models.Track) bool { return t.IsOff() })
	if idx == -1 {
		return apperrors.NewTrackNotFoundError("off")
	}
	if err := player.SetTextTrack(c.player, tracks[idx]); err != nil {
		return err
	}
	c.showToast("Subtitles: Off")
	return nil
}

// toggleLanguage shows or hides a registered language in the overlay.
func (c *Coordinator) toggleLanguage(tag string) error {
	want := canonical(tag)
	selected, ok := c.session.Languages.Toggle(want)
	if !ok {
		return apperrors.NewNotFoundError("language", strings.TrimSpace(tag))
	}
	c.logger.Debug().Str("language", want).Bool("selected", selected).Msg("Toggled overlay language")
	return nil
}

// reorderLanguages persists a new display order. Unregistered tags are
// dropped and registered languages missing from order keep their relative
// position at the end.
func (c *Coordinator) reorderLanguages(order []string) error {
	tags := make([]string, 0, len(order))
	for _, raw := range order {
		if tag := canonical(raw); tag != "" {
			tags = append(tags, tag)
		}
	}
	current := c.preferences().LangOrder
	next := c.session.Languages.Ordered(append(tags, current...))
	if c.prefs == nil {
		return nil
	}
	_, err := c.prefs.Update(func(p *prefs.Preferences) {
		p.LangOrder = next
	})
	return err
}

func (c *Coordinator) adjustSpeed(delta float64) error {
	if err := c.requirePlayer(); err != nil {
		return err
	}
	rate, err := player.AdjustRate(c.player, delta)
	if err != nil {
		c.logger.Warn().Err(err).Msg("Playback rate unavailable")
		return err
	}
	c.showToast(fmt.Sprintf("Speed: %.2fx", rate))
	return nil
}

func (c *Coordinator) resetSpeed() error {
	if err := c.requirePlayer(); err != nil {
		return err
	}
	if _, err := player.SetRate(c.player, 1); err != nil {
		c.logger.Warn().Err(err).Msg("Playback rate unavailable")
		return err
	}
	c.showToast("Speed: 1.0x")
	return nil
}

// export copies the transcript of every captured batch to the clipboard.
func (c *Coordinator) export() {
	batches := c.session.Store.Batches()
	if len(batches) == 0 {
		c.showToast("No subtitles loaded")
		return
	}
	tr := transcript.Build(batches)
	if err := c.clipboard.WriteAll(tr.TSV); err != nil {
		c.logger.Warn().Err(err).Msg("Failed to copy transcript to clipboard")
		c.showToast("Failed to copy to clipboard")
		return
	}
	c.showToast(tr.Summary())
}
