// Package store keeps the subtitle batches intercepted during one video
// session and answers language lookups over them.
package store

import (
	"strconv"
	"strings"
	"time"

	"github.com/Belphemur/CueLoop/internal/language"
	"github.com/Belphemur/CueLoop/internal/models"
)

// FingerprintCues is how many leading cues identify a subtitle stream.
const FingerprintCues = 5

// IngestRequest describes one parsed payload offered to the store.
type IngestRequest struct {
	VideoID   string
	SourceURL string
	Cues      []models.Cue
	// Language is a canonical tag or models.UnknownLanguage. Other values are
	// canonicalized, and anything unparseable is filed as unknown.
	Language string
}

// Store is an append-only list of batches in ingestion order. It is not safe
// for concurrent use; the session coordinator serializes access.
type Store struct {
	batches []models.Batch
	now     func() time.Time
}

// New creates an empty store.
func New() *Store {
	return &Store{now: time.Now}
}

// Fingerprint identifies a subtitle stream by the timing and text of its first
// cues. A re-fetch with shifted timings yields a different fingerprint.
func Fingerprint(cues []models.Cue) string {
	n := min(len(cues), FingerprintCues)
	parts := make([]string, n)
	for i := range n {
		c := cues[i]
		parts[i] = formatMillis(c.Start) + "-" + formatMillis(c.End) + "-" + c.Text
	}
	return strings.Join(parts, "|")
}

func formatMillis(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// normalizeLanguage maps a language hint onto a store bucket.
func normalizeLanguage(tag string) string {
	if tag == "" || tag == models.UnknownLanguage {
		return models.UnknownLanguage
	}
	if canonical, ok := language.Canonicalize(tag); ok {
		return canonical
	}
	return models.UnknownLanguage
}

// Ingest appends a batch unless one with the same video, language and
// fingerprint already exists. Empty cue lists are never stored.
func (s *Store) Ingest(req IngestRequest) (models.Batch, bool) {
	if len(req.Cues) == 0 {
		return models.Batch{}, false
	}

	lang := normalizeLanguage(req.Language)
	fingerprint := Fingerprint(req.Cues)
	for _, b := range s.batches {
		if b.VideoID == req.VideoID && b.Language == lang && b.Fingerprint == fingerprint {
			return b, false
		}
	}

	batch := models.Batch{
		SourceURL:   req.SourceURL,
		Cues:        req.Cues,
		Language:    lang,
		Fingerprint: fingerprint,
		CapturedAt:  s.now(),
		VideoID:     req.VideoID,
	}
	s.batches = append(s.batches, batch)
	return batch, true
}

// LatestForLanguage returns the cues of the newest non-empty batch for the
// video in the given language. The unknown bucket is never matched.
func (s *Store) LatestForLanguage(videoID, tag string) ([]models.Cue, bool) {
	target := normalizeLanguage(tag)
	if target == models.UnknownLanguage {
		return nil, false
	}
	for i := len(s.batches) - 1; i >= 0; i-- {
		b := s.batches[i]
		if b.VideoID == videoID && b.Language == target && len(b.Cues) > 0 {
			return b.Cues, true
		}
	}
	return nil, false
}

// Latest returns the most recently ingested batch regardless of language.
func (s *Store) Latest() (models.Batch, bool) {
	if len(s.batches) == 0 {
		return models.Batch{}, false
	}
	return s.batches[len(s.batches)-1], true
}

// UpgradeUnknown relabels every unknown batch of the video to tag and returns
// how many changed. The relabel cannot be undone.
func (s *Store) UpgradeUnknown(videoID, tag string) int {
	target := normalizeLanguage(tag)
	if target == models.UnknownLanguage {
		return 0
	}
	changed := 0
	for i := range s.batches {
		if s.batches[i].VideoID == videoID && s.batches[i].IsUnknown() {
			s.batches[i].Language = target
			changed++
		}
	}
	return changed
}

// UpgradeBatch relabels the batch at index from unknown to tag. It reports
// false when the index is out of range, the batch already has a language, or
// tag is not a usable language.
func (s *Store) UpgradeBatch(index int, tag string) bool {
	if index < 0 || index >= len(s.batches) || !s.batches[index].IsUnknown() {
		return false
	}
	target := normalizeLanguage(tag)
	if target == models.UnknownLanguage {
		return false
	}
	s.batches[index].Language = target
	return true
}

// Batches returns a copy of all batches in ingestion order. Indices match
// those accepted by UpgradeBatch.
func (s *Store) Batches() []models.Batch {
	out := make([]models.Batch, len(s.batches))
	copy(out, s.batches)
	return out
}

// Len returns the number of stored batches.
func (s *Store) Len() int {
	return len(s.batches)
}
