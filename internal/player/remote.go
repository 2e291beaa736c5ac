package player

import (
	"sync"

	"github.com/Belphemur/CueLoop/internal/config"
	"github.com/Belphemur/CueLoop/internal/models"
	"github.com/Belphemur/CueLoop/internal/parser"
)

// CommandKind is a player command sent back to the in-page shim.
type CommandKind string

const (
	CommandSeek  CommandKind = "seek"
	CommandPlay  CommandKind = "play"
	CommandPause CommandKind = "pause"
	CommandRate  CommandKind = "rate"
	CommandTrack CommandKind = "track"
)

// CommandTarget selects whether the shim drives the host player API or the
// raw media element.
type CommandTarget string

const (
	TargetHost  CommandTarget = "host"
	TargetMedia CommandTarget = "media"
)

// Command is one queued player command. Seq increases monotonically and the
// shim acknowledges commands by reporting the highest seq it executed.
type Command struct {
	Seq    uint64        `json:"seq"`
	Kind   CommandKind   `json:"kind"`
	Target CommandTarget `json:"target"`
	Time   float64       `json:"time,omitempty"`
	Rate   float64       `json:"rate,omitempty"`
	Track  *models.Track `json:"track,omitempty"`
}

// Report is the player state the shim posts on every poll.
type Report struct {
	PageURL        string         `json:"pageUrl"`
	VideoID        string         `json:"videoId"`
	SessionID      string         `json:"sessionId"`
	CurrentTime    float64        `json:"currentTime"`
	PlaybackRate   float64        `json:"playbackRate"`
	Duration       float64        `json:"duration"`
	ActiveTrack    *models.Track  `json:"activeTrack"`
	Tracks         []models.Track `json:"tracks"`
	Capabilities   []Capability   `json:"capabilities"`
	MediaElement   bool           `json:"mediaElement"`
	AdPlaying      bool           `json:"adPlaying"`
	NativeTextHTML string         `json:"nativeTextHtml"`
	AckSeq         uint64         `json:"ackSeq"`
}

// IdentityFunc extracts a video id from a page URL.
type IdentityFunc func(pageURL string) (string, bool)

// RemotePlayer is a Player backed by the state reports of the in-page shim.
// Commands are queued and re-sent with every report response until the shim
// acknowledges them. Until a queued seek, rate or track change is
// acknowledged, the matching getter returns the requested value so stale
// reports do not undo it.
type RemotePlayer struct {
	mu        sync.Mutex
	report    Report
	reported  bool
	caps      map[Capability]bool
	nextSeq   uint64
	pending   []Command
	identity  IdentityFunc
	nativeSel string
}

var (
	_ Player             = (*RemotePlayer)(nil)
	_ Seeker             = (*RemotePlayer)(nil)
	_ Playback           = (*RemotePlayer)(nil)
	_ RateController     = (*RemotePlayer)(nil)
	_ TrackController    = (*RemotePlayer)(nil)
	_ DurationReporter   = (*RemotePlayer)(nil)
	_ AdReporter         = (*RemotePlayer)(nil)
	_ NativeTextReporter = (*RemotePlayer)(nil)
	_ CapabilityReporter = (*RemotePlayer)(nil)
	_ MediaSource        = (*RemotePlayer)(nil)
)

// NewRemotePlayer creates a RemotePlayer. identity is used when a report
// carries no explicit video id and may be nil.
func NewRemotePlayer(identity IdentityFunc) *RemotePlayer {
	return &RemotePlayer{
		caps:      map[Capability]bool{},
		identity:  identity,
		nativeSel: parser.DefaultNativeTextSelector,
	}
}

// Update stores a new report, drops acknowledged commands and returns the
// commands still awaiting execution. Commands queued for a previous video are
// discarded when the reported video changes.
func (r *RemotePlayer) Update(report Report) []Command {
	r.mu.Lock()
	defer r.mu.Unlock()

	prevID, hadReport := r.videoIDLocked(), r.reported
	r.report = report
	if hadReport && r.videoIDLocked() != prevID {
		r.pending = nil
	}
	r.reported = true
	r.caps = make(map[Capability]bool, len(report.Capabilities))
	for _, c := range report.Capabilities {
		r.caps[c] = true
	}

	kept := r.pending[:0]
	for _, cmd := range r.pending {
		if cmd.Seq > report.AckSeq {
			kept = append(kept, cmd)
		}
	}
	r.pending = kept

	out := make([]Command, len(r.pending))
	copy(out, r.pending)
	return out
}

// Pending returns the commands not yet acknowledged.
func (r *RemotePlayer) Pending() []Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Command, len(r.pending))
	copy(out, r.pending)
	return out
}

func (r *RemotePlayer) enqueue(cmd Command) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextSeq++
	cmd.Seq = r.nextSeq
	r.pending = append(r.pending, cmd)
}

// latest returns the newest unacknowledged command of kind. Callers hold mu.
func (r *RemotePlayer) latest(kind CommandKind) (Command, bool) {
	for i := len(r.pending) - 1; i >= 0; i-- {
		if r.pending[i].Kind == kind {
			return r.pending[i], true
		}
	}
	return Command{}, false
}

// Ready reports whether the shim has reported a usable playback session.
func (r *RemotePlayer) Ready() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.report.SessionID
	return r.reported && id != "" && id != "undefined"
}

// SessionID returns the host playback session id from the last report.
func (r *RemotePlayer) SessionID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.report.SessionID
}

// PageURL returns the page URL from the last report.
func (r *RemotePlayer) PageURL() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.report.PageURL
}

// VideoID returns the video being watched: the reported id, or the one parsed
// from the page URL.
func (r *RemotePlayer) VideoID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.videoIDLocked()
}

func (r *RemotePlayer) videoIDLocked() string {
	if r.report.VideoID != "" {
		return r.report.VideoID
	}
	if r.identity != nil {
		if id, ok := r.identity(r.report.PageURL); ok {
			return id
		}
	}
	return ""
}

// Has implements CapabilityReporter.
func (r *RemotePlayer) Has(c Capability) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.caps[c]
}

// CurrentTime implements Player.
func (r *RemotePlayer) CurrentTime() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cmd, ok := r.latest(CommandSeek); ok {
		return cmd.Time
	}
	return r.report.CurrentTime
}

// Seek implements Seeker.
func (r *RemotePlayer) Seek(ms float64) {
	r.enqueue(Command{Kind: CommandSeek, Target: TargetHost, Time: ms})
}

// Play implements Playback.
func (r *RemotePlayer) Play() {
	r.enqueue(Command{Kind: CommandPlay, Target: TargetHost})
}

// Pause implements Playback.
func (r *RemotePlayer) Pause() {
	r.enqueue(Command{Kind: CommandPause, Target: TargetHost})
}

// PlaybackRate implements RateController.
func (r *RemotePlayer) PlaybackRate() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cmd, ok := r.latest(CommandRate); ok {
		return cmd.Rate
	}
	if r.report.PlaybackRate <= 0 {
		return 1
	}
	return r.report.PlaybackRate
}

// SetPlaybackRate implements RateController.
func (r *RemotePlayer) SetPlaybackRate(rate float64) {
	r.enqueue(Command{Kind: CommandRate, Target: TargetHost, Rate: rate})
}

// TimedTextTrack implements TrackController.
func (r *RemotePlayer) TimedTextTrack() (models.Track, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cmd, ok := r.latest(CommandTrack); ok && cmd.Track != nil {
		return *cmd.Track, true
	}
	if r.report.ActiveTrack == nil {
		return models.Track{}, false
	}
	return *r.report.ActiveTrack, true
}

// TimedTextTrackList implements TrackController.
func (r *RemotePlayer) TimedTextTrackList() []models.Track {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Track, len(r.report.Tracks))
	copy(out, r.report.Tracks)
	return out
}

// SetTextTrack implements TrackController.
func (r *RemotePlayer) SetTextTrack(track models.Track) {
	t := track
	r.enqueue(Command{Kind: CommandTrack, Target: TargetHost, Track: &t})
}

// Duration implements DurationReporter.
func (r *RemotePlayer) Duration() (float64, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.report.Duration, r.reported && r.report.Duration > 0
}

// AdPlaying implements AdReporter.
func (r *RemotePlayer) AdPlaying() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.report.AdPlaying
}

// NativeText implements NativeTextReporter by reading the caption spans out of
// the reported HTML snapshot.
func (r *RemotePlayer) NativeText() string {
	r.mu.Lock()
	html := r.report.NativeTextHTML
	r.mu.Unlock()

	text, err := parser.NativeTextWithSelector(html, r.nativeSel)
	if err != nil {
		logger := config.GetLogger()
		logger.Warn().Err(err).Msg("Failed to read native caption text")
		return ""
	}
	return text
}

// MediaElement implements MediaSource.
func (r *RemotePlayer) MediaElement() (MediaElement, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.report.MediaElement {
		return nil, false
	}
	return &remoteMedia{r: r}, true
}

// remoteMedia routes commands to the page's media element.
type remoteMedia struct {
	r *RemotePlayer
}

func (m *remoteMedia) Seek(ms float64) {
	m.r.enqueue(Command{Kind: CommandSeek, Target: TargetMedia, Time: ms})
}

func (m *remoteMedia) Play() {
	m.r.enqueue(Command{Kind: CommandPlay, Target: TargetMedia})
}

func (m *remoteMedia) Pause() {
	m.r.enqueue(Command{Kind: CommandPause, Target: TargetMedia})
}

func (m *remoteMedia) PlaybackRate() float64 {
	return m.r.PlaybackRate()
}

func (m *remoteMedia) SetPlaybackRate(rate float64) {
	m.r.enqueue(Command{Kind: CommandRate, Target: TargetMedia, Rate: rate})
}
