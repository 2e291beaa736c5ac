package session

import (
	"cmp"
	"fmt"
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/Belphemur/CueLoop/internal/language"
	"github.com/Belphemur/CueLoop/internal/models"
	"github.com/Belphemur/CueLoop/internal/prefs"
)

// ToastDuration is how long a transient message stays visible.
const ToastDuration = 2500 * time.Millisecond

// Toast is a transient status message.
type Toast struct {
	Message   string    `json:"message"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Line is one secondary-language subtitle line of the multi-language overlay.
type Line struct {
	Language   string `json:"language"`
	Text       string `json:"text"`
	Color      string `json:"color"`
	Background string `json:"background"`
}

// Badge is a registered language as shown in the language list.
type Badge struct {
	models.RegisteredLanguage
	Primary bool `json:"primary"`
}

// Overlay is what the presentation layer renders.
type Overlay struct {
	VideoID      string               `json:"videoId"`
	Ready        bool                 `json:"ready"`
	Visible      bool                 `json:"visible"`
	Lines        []Line               `json:"lines"`
	Languages    []Badge              `json:"languages"`
	Primary      string               `json:"primary,omitempty"`
	Toast        string               `json:"toast,omitempty"`
	Loop         models.LoopState     `json:"loop"`
	Sentence     models.SentenceState `json:"sentence"`
	SettingsOpen bool                 `json:"settingsOpen"`
	CueCount     int                  `json:"cueCount"`
	Batches      int                  `json:"batches"`
	Preferences  prefs.Preferences    `json:"preferences"`
}

var hexColor = regexp.MustCompile(`^#([0-9a-fA-F]{6})$`)

// colorWithOpacity turns #rrggbb into rgba() with the given alpha. Other
// color notations are returned unchanged.
func colorWithOpacity(color string, opacity float64) string {
	m := hexColor.FindStringSubmatch(strings.TrimSpace(color))
	if m == nil {
		return color
	}
	v, _ := strconv.ParseUint(m[1], 16, 32)
	a := min(max(opacity, 0), 1)
	return fmt.Sprintf("rgba(%d, %d, %d, %s)", (v>>16)&255, (v>>8)&255, v&255, formatAlpha(a))
}

func formatAlpha(a float64) string {
	return strconv.FormatFloat(a, 'f', -1, 64)
}

// overlayLines collects the secondary-language text at play-head t. Batches
// whose text already matches the host's own captions are hidden, and an
// unknown batch matched that way is relabeled to the primary language.
func (s *Session) overlayLines(t float64, native string, p prefs.Preferences) []Line {
	current := s.primary
	if current == "" {
		current = models.UnknownLanguage
	}
	nativeTrimmed := strings.TrimSpace(native)

	texts := make(map[string]string)
	for i, b := range s.Store.Batches() {
		if b.VideoID != s.VideoID {
			continue
		}
		if !b.IsUnknown() && b.Language == current {
			continue
		}
		reg, registered := s.Languages.Get(b.Language)
		show := (registered && reg.Selected) || (b.IsUnknown() && s.Languages.Len() > 0)
		if !show {
			continue
		}

		idx := slices.IndexFunc(b.Cues, func(c models.Cue) bool { return c.Contains(t) })
		if idx == -1 {
			continue
		}
		text := strings.TrimSpace(b.Cues[idx].Text)
		if text == "" {
			continue
		}

		if nativeTrimmed != "" && (strings.Contains(native, text) || strings.Contains(text, nativeTrimmed)) {
			if b.IsUnknown() && current != models.UnknownLanguage {
				s.Store.UpgradeBatch(i, current)
			}
			continue
		}
		if _, seen := texts[b.Language]; !seen {
			texts[b.Language] = text
		}
	}

	order := s.Languages.Ordered(p.LangOrder)
	rank := func(tag string) int {
		if i := slices.Index(order, tag); i >= 0 {
			return i
		}
		return math.MaxInt
	}
	langs := make([]string, 0, len(texts))
	for tag := range texts {
		langs = append(langs, tag)
	}
	slices.SortFunc(langs, func(a, b string) int {
		return cmp.Or(cmp.Compare(rank(a), rank(b)), strings.Compare(a, b))
	})

	background := fmt.Sprintf("rgba(0,0,0,%s)", formatAlpha(p.Opacity))
	lines := make([]Line, 0, len(langs))
	for i, tag := range langs {
		base := p.Color
		if i%2 == 1 {
			base = p.ColorAlt
		}
		lines = append(lines, Line{
			Language:   tag,
			Text:       texts[tag],
			Color:      colorWithOpacity(base, p.TextOpacity),
			Background: background,
		})
	}
	return lines
}

// badges lists the registered languages in display order.
func (s *Session) badges(p prefs.Preferences) []Badge {
	order := s.Languages.Ordered(p.LangOrder)
	out := make([]Badge, 0, len(order))
	for _, l := range s.Languages.List(order) {
		if l.DisplayName == "" {
			l.DisplayName = language.DisplayName(l.Tag)
		}
		out = append(out, Badge{RegisteredLanguage: l, Primary: l.Tag == s.primary})
	}
	return out
}
