package language

import (
	"sort"
	"strings"

	"github.com/abadojack/whatlanggo"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"github.com/Belphemur/CueLoop/internal/models"
)

// guessSampleSize bounds how many cues Guess looks at.
const guessSampleSize = 50

// DisplayName returns the self-name of a language ("English", "한국어").
// Tags x/text cannot parse, and the unknown label, are returned unchanged.
func DisplayName(tag string) string {
	if tag == "" || tag == models.UnknownLanguage {
		return tag
	}
	parsed, err := language.Parse(tag)
	if err != nil {
		return tag
	}
	if name := display.Self.Name(parsed); name != "" {
		return name
	}
	return tag
}

// Guess votes on the language of a cue sequence by detecting each cue's text.
// It is a diagnostic only and never feeds batch labels.
func Guess(cues []models.Cue) (string, bool) {
	votes := make(map[string]int)
	for i, cue := range cues {
		if i >= guessSampleSize {
			break
		}
		text := strings.TrimSpace(cue.Text)
		if text == "" {
			continue
		}
		if code := whatlanggo.DetectLang(text).Iso6391(); code != "" {
			votes[code]++
		}
	}
	if len(votes) == 0 {
		return "", false
	}

	codes := make([]string, 0, len(votes))
	for code := range votes {
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool {
		if votes[codes[i]] != votes[codes[j]] {
			return votes[codes[i]] > votes[codes[j]]
		}
		return codes[i] < codes[j]
	})
	return Canonicalize(codes[0])
}
