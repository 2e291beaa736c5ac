package intercept

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	"github.com/rs/zerolog"

	"github.com/Belphemur/CueLoop/internal/cache"
	"github.com/Belphemur/CueLoop/internal/config"
	"github.com/Belphemur/CueLoop/internal/metrics"
	"github.com/Belphemur/CueLoop/internal/models"
	"github.com/Belphemur/CueLoop/internal/parser"
	"github.com/Belphemur/CueLoop/internal/session"
)

// Skip reasons reported when an event produces no cues.
const (
	SkipNotWatching  = "not_watch_surface"
	SkipUnmatched    = "unmatched_url"
	SkipNotTimedText = "not_timed_text"
	SkipNoCues       = "no_cues"
)

// Event is one completed network response seen by the shim.
type Event struct {
	PageURL string `json:"pageUrl"`
	URL     string `json:"url"`
	Body    []byte `json:"-"`
}

// Sink receives parsed cue lists.
type Sink interface {
	Ingest(sourceURL string, cues []models.Cue) session.IngestResult
}

// Outcome is the result of handling one event.
type Outcome struct {
	session.IngestResult
	Cached  bool   `json:"cached"`
	Skipped string `json:"skipped,omitempty"`
}

// Feed filters intercepted responses, parses subtitle payloads and hands the
// cues to a Sink. Parsed payloads are cached by content hash.
type Feed struct {
	matcher *Matcher
	cache   cache.Cache
	sink    Sink
	logger  zerolog.Logger
}

// NewFeed creates a feed. A nil payload cache disables caching.
func NewFeed(matcher *Matcher, payloads cache.Cache, sink Sink) *Feed {
	return &Feed{
		matcher: matcher,
		cache:   payloads,
		sink:    sink,
		logger:  config.GetLogger().With().Str("component", "intercept").Logger(),
	}
}

func payloadKey(body []byte) string {
	sum := sha256.Sum256(body)
	return "ttml:" + hex.EncodeToString(sum[:])
}

// Handle processes one intercepted response.
func (f *Feed) Handle(ctx context.Context, ev Event) (Outcome, error) {
	if err := ctx.Err(); err != nil {
		return Outcome{}, err
	}
	if !f.matcher.IsWatchSurface(ev.PageURL) {
		return Outcome{Skipped: SkipNotWatching}, nil
	}
	if !f.matcher.Match(ev.URL) {
		return Outcome{Skipped: SkipUnmatched}, nil
	}
	if !parser.LooksLikeTimedText(ev.Body) {
		metrics.PayloadsParsedTotal.WithLabelValues("ignored").Inc()
		return Outcome{Skipped: SkipNotTimedText}, nil
	}

	cues, cached := f.cues(ev.Body)
	if len(cues) == 0 {
		f.logger.Debug().Str("url", ev.URL).Msg("Subtitle payload had no cues")
		return Outcome{Skipped: SkipNoCues}, nil
	}

	res := f.sink.Ingest(ev.URL, cues)
	return Outcome{IngestResult: res, Cached: cached}, nil
}

// cues parses body, going through the payload cache when one is configured.
func (f *Feed) cues(body []byte) ([]models.Cue, bool) {
	var key string
	if f.cache != nil {
		key = payloadKey(body)
		if cues, ok := cache.GetJSON[[]models.Cue](f.cache, key); ok && len(cues) > 0 {
			metrics.PayloadsParsedTotal.WithLabelValues("cached").Inc()
			return cues, true
		}
	}

	cues := parser.ExtractCues(body)
	if len(cues) == 0 {
		metrics.PayloadsParsedTotal.WithLabelValues("empty").Inc()
		return cues, false
	}
	metrics.PayloadsParsedTotal.WithLabelValues("parsed").Inc()

	if f.cache != nil {
		if err := cache.SetJSON(f.cache, key, cues); err != nil {
			f.logger.Warn().Err(err).Msg("Failed to cache parsed payload")
		}
	}
	return cues, false
}
