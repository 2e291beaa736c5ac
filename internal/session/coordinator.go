package session

import (
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Belphemur/CueLoop/internal/config"
	"github.com/Belphemur/CueLoop/internal/language"
	"github.com/Belphemur/CueLoop/internal/metrics"
	"github.com/Belphemur/CueLoop/internal/models"
	"github.com/Belphemur/CueLoop/internal/player"
	"github.com/Belphemur/CueLoop/internal/prefs"
	"github.com/Belphemur/CueLoop/internal/store"
	"github.com/Belphemur/CueLoop/internal/transcript"
)

// Options configures a Coordinator.
type Options struct {
	Preferences *prefs.Store
	// Clipboard receives exported transcripts. Defaults to the system clipboard.
	Clipboard transcript.Clipboard
	// Now defaults to time.Now.
	Now func() time.Time
}

// IngestResult reports what happened to an intercepted cue list.
type IngestResult struct {
	Accepted bool   `json:"accepted"`
	Cues     int    `json:"cues"`
	Language string `json:"language"`
	Promoted bool   `json:"promoted"`
}

// Coordinator serializes every entry point into the current Session: the
// control tick, intercepted payloads, commands and preference changes.
type Coordinator struct {
	logger    zerolog.Logger
	prefs     *prefs.Store
	clipboard transcript.Clipboard
	now       func() time.Time

	mu           sync.Mutex
	session      *Session
	player       player.Player
	settingsOpen bool
	toast        Toast
	lines        []Line
}

// NewCoordinator creates a coordinator with an empty session.
func NewCoordinator(opts Options) *Coordinator {
	c := &Coordinator{
		logger:    config.GetLogger().With().Str("component", "session").Logger(),
		prefs:     opts.Preferences,
		clipboard: opts.Clipboard,
		now:       opts.Now,
		session:   New(""),
	}
	if c.clipboard == nil {
		c.clipboard = transcript.SystemClipboard{}
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c
}

func (c *Coordinator) preferences() prefs.Preferences {
	if c.prefs == nil {
		return prefs.Defaults()
	}
	return c.prefs.Get()
}

// HandleVideoChange replaces the session when id differs from the current
// video. The player is dropped until SetPlayer is called again.
func (c *Coordinator) HandleVideoChange(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if id == c.session.VideoID {
		return false
	}
	c.logger.Info().Str("from", c.session.VideoID).Str("to", id).Msg("Video change detected, resetting session")
	metrics.SessionResetsTotal.WithLabelValues("video_change").Inc()

	c.session = New(id)
	c.player = nil
	c.settingsOpen = false
	c.toast = Toast{}
	c.lines = nil
	return true
}

// SetPlayer attaches the located host player to the current session.
func (c *Coordinator) SetPlayer(p player.Player) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.player = p
	c.logger.Info().Str("video_id", c.session.VideoID).Msg("Player attached")
}

// VideoID returns the video of the current session.
func (c *Coordinator) VideoID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.VideoID
}

func (c *Coordinator) activeTrack() *models.Track {
	if c.player == nil {
		return nil
	}
	track, ok := player.ActiveTrack(c.player)
	if !ok {
		return nil
	}
	return &track
}

// Ingest stores an intercepted cue list under the resolved language. The cues
// become current when nothing is current yet or when their language is the
// host's active track language.
func (c *Coordinator) Ingest(sourceURL string, cues []models.Cue) IngestResult {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.session
	active := c.activeTrack()
	lang := language.Resolve(sourceURL, active)

	batch, accepted := s.Store.Ingest(store.IngestRequest{
		VideoID:   s.VideoID,
		SourceURL: sourceURL,
		Cues:      cues,
		Language:  lang,
	})
	result := IngestResult{Accepted: accepted, Cues: len(cues), Language: batch.Language}
	if !accepted {
		if len(cues) > 0 {
			metrics.CueBatchesTotal.WithLabelValues("duplicate").Inc()
			c.logger.Debug().Str("language", batch.Language).Str("url", sourceURL).Msg("Duplicate subtitle batch ignored")
		}
		return result
	}
	metrics.CueBatchesTotal.WithLabelValues("accepted").Inc()
	c.logger.Info().Int("cues", len(cues)).Str("language", batch.Language).Msg("Parsed subtitle batch")

	activeLang := ""
	if active != nil {
		activeLang, _ = language.Canonicalize(active.BCP47)
	}
	if !s.Engine.HasCues() || (activeLang != "" && activeLang == batch.Language) {
		s.Engine.SetCues(batch.Cues)
		if c.preferences().SentenceMode {
			s.Sentence.Reset()
		}
		result.Promoted = true
	}
	return result
}

// Tick runs one control cycle: discontinuity detection, language
// registration, overlay refresh, sentence check, then the loop.
func (c *Coordinator) Tick() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.player == nil {
		return
	}
	p := c.preferences()

	c.detectJump()
	c.registerPrimary()
	c.refreshOverlay(p)
	c.checkSentence(p)
	c.tickLoop()
}

func (c *Coordinator) detectJump() {
	s := c.session
	delta, jumped := s.jumps.observe(c.now(), c.player.CurrentTime())
	if !jumped {
		return
	}
	c.logger.Info().Float64("delta_ms", delta).Msg("Time jump detected, clearing current cues")
	metrics.SessionResetsTotal.WithLabelValues("time_jump").Inc()
	s.Engine.ClearCues()
	s.Sentence.Reset()
}

// registerPrimary tracks the host's active track as the primary language and
// registers languages the first time they are seen.
func (c *Coordinator) registerPrimary() {
	s := c.session
	track := c.activeTrack()
	if track == nil || track.IsOff() {
		s.primary = ""
		return
	}
	tag, ok := language.Canonicalize(track.BCP47)
	if !ok {
		return
	}
	name := track.DisplayName
	if name == "" {
		name = language.DisplayName(tag)
	}

	if s.Languages.Register(tag, name) {
		c.logger.Info().Str("language", tag).Str("display_name", name).Msg("Registered new language")
		c.appendLangOrder(tag)
		if n := s.Store.UpgradeUnknown(s.VideoID, tag); n > 0 {
			c.logger.Info().Int("batches", n).Str("language", tag).Msg("Relabeled unknown batches")
		}
	} else if s.Languages.Rename(tag, name) {
		c.logger.Debug().Str("language", tag).Str("display_name", name).Msg("Updated language display name")
	}

	if s.primary != tag {
		c.logger.Info().Str("from", s.primary).Str("to", tag).Msg("Primary language changed")
		s.primary = tag
	}
}

func (c *Coordinator) appendLangOrder(tag string) {
	if c.prefs == nil || slices.Contains(c.prefs.Get().LangOrder, tag) {
		return
	}
	if _, err := c.prefs.Update(func(p *prefs.Preferences) {
		p.LangOrder = append(p.LangOrder, tag)
	}); err != nil {
		c.logger.Warn().Err(err).Str("language", tag).Msg("Failed to save language order")
	}
}

func (c *Coordinator) overlayVisible(p prefs.Preferences) bool {
	if !p.MultiSubEnabled || player.IsAdPlaying(c.player) {
		return false
	}
	return c.session.Languages.AnySelectedExcept(c.session.primary)
}

func (c *Coordinator) refreshOverlay(p prefs.Preferences) {
	if !c.overlayVisible(p) {
		c.lines = nil
		return
	}
	c.lines = c.session.overlayLines(c.player.CurrentTime(), player.NativeText(c.player), p)
}

// currentLanguage is the primary language, or the active track's language
// before the first registration.
func (c *Coordinator) currentLanguage() string {
	if c.session.primary != "" {
		return c.session.primary
	}
	if track := c.activeTrack(); track != nil && track.BCP47 != "off" {
		if tag, ok := language.Canonicalize(track.BCP47); ok {
			return tag
		}
	}
	return ""
}

func (c *Coordinator) checkSentence(p prefs.Preferences) {
	if !p.SentenceMode || player.IsAdPlaying(c.player) {
		return
	}
	s := c.session
	if !s.Engine.HasCues() {
		cues, ok := s.Store.LatestForLanguage(s.VideoID, c.currentLanguage())
		if !ok {
			return
		}
		s.Engine.SetCues(cues)
	}

	if !s.Sentence.Check(c.player.CurrentTime(), s.Engine.Cues()) {
		return
	}
	if err := player.Pause(c.player); err != nil {
		c.logger.Warn().Err(err).Msg("Sentence mode could not pause playback")
	}
	metrics.SentencePausesTotal.Inc()
	c.showToast("Paused")
}

func (c *Coordinator) tickLoop() {
	step, ok := c.session.Engine.Tick(c.player.CurrentTime())
	if !ok {
		return
	}
	if !step.Reseek {
		c.logger.Debug().Msg("Loop finished")
		return
	}
	if err := player.Seek(c.player, step.SeekTo); err != nil {
		c.logger.Warn().Err(err).Msg("Loop could not seek")
		return
	}
	metrics.LoopRepeatsTotal.Inc()
	c.showToast(loopToast(step.Remaining))
}

func (c *Coordinator) showToast(msg string) {
	c.toast = Toast{Message: msg, ExpiresAt: c.now().Add(ToastDuration)}
}

// Snapshot returns the state the presentation layer renders.
func (c *Coordinator) Snapshot() Overlay {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot()
}

func (c *Coordinator) snapshot() Overlay {
	s := c.session
	p := c.preferences()
	o := Overlay{
		VideoID:      s.VideoID,
		Ready:        c.player != nil,
		Visible:      len(c.lines) > 0,
		Lines:        slices.Clone(c.lines),
		Languages:    s.badges(p),
		Primary:      s.primary,
		Loop:         s.Engine.Loop(),
		Sentence:     s.Sentence.State(),
		SettingsOpen: c.settingsOpen,
		CueCount:     len(s.Engine.Cues()),
		Batches:      s.Store.Len(),
		Preferences:  p,
	}
	if o.Lines == nil {
		o.Lines = []Line{}
	}
	if c.toast.Message != "" && c.now().Before(c.toast.ExpiresAt) {
		o.Toast = c.toast.Message
	}
	return o
}

// Transcript builds the tab-separated export of every captured batch.
func (c *Coordinator) Transcript() (transcript.Transcript, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	batches := c.session.Store.Batches()
	if len(batches) == 0 {
		return transcript.Transcript{}, false
	}
	return transcript.Build(batches), true
}

// Preferences returns the current preferences.
func (c *Coordinator) Preferences() prefs.Preferences {
	return c.preferences()
}

// UpdatePreferences shallow-merges patch into the stored preferences. Turning
// sentence mode on or off resets the sentence state.
func (c *Coordinator) UpdatePreferences(patch []byte) (prefs.Preferences, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.prefs == nil {
		return prefs.Defaults().Merge(patch)
	}
	before := c.prefs.Get().SentenceMode
	next, err := c.prefs.Patch(patch)
	if err != nil {
		return next, err
	}
	if next.SentenceMode != before {
		c.session.Sentence.Reset()
	}
	return next, nil
}
