// Package prefs persists the overlay style and behavior preferences as a
// small JSON document.
package prefs

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/Belphemur/CueLoop/internal/config"
)

// Preferences is the persisted overlay configuration. JSON keys are shared
// with the in-page shim.
type Preferences struct {
	FontSize        float64  `json:"fontSize"`
	Color           string   `json:"color"`
	ColorAlt        string   `json:"colorAlt"`
	TextOpacity     float64  `json:"textOpacity"`
	Opacity         float64  `json:"opacity"`
	Bottom          float64  `json:"bottom"` // vertical margin, percent
	RepeatCount     int      `json:"repeatCount"`
	MultiSubEnabled bool     `json:"multiSubEnabled"`
	SentenceMode    bool     `json:"sentenceMode"`
	LangOrder       []string `json:"langOrder"`
	HAlign          string   `json:"hAlign"`    // left, center, right
	VAlign          string   `json:"vAlign"`    // top, center, bottom
	HPosition       float64  `json:"hPosition"` // 0 left, 50 center, 100 right
	Width           float64  `json:"width"`     // box width, percent
}

// Defaults returns the preferences used when nothing is stored.
func Defaults() Preferences {
	return Preferences{
		FontSize:        22,
		Color:           "#ffffff",
		ColorAlt:        "#9ad7ff",
		TextOpacity:     1,
		Opacity:         0.6,
		Bottom:          15,
		RepeatCount:     1,
		MultiSubEnabled: true,
		SentenceMode:    false,
		LangOrder:       []string{},
		HAlign:          "center",
		VAlign:          "top",
		HPosition:       50,
		Width:           80,
	}
}

// Clone returns a deep copy.
func (p Preferences) Clone() Preferences {
	p.LangOrder = slices.Clone(p.LangOrder)
	if p.LangOrder == nil {
		p.LangOrder = []string{}
	}
	return p
}

// Merge applies a partial JSON document over p. Keys absent from patch keep
// their current value; present keys replace it wholesale.
func (p Preferences) Merge(patch []byte) (Preferences, error) {
	merged := p.Clone()
	if err := json.Unmarshal(patch, &merged); err != nil {
		return p, fmt.Errorf("invalid preferences: %w", err)
	}
	return merged.normalize(), nil
}

var (
	hAligns = []string{"left", "center", "right"}
	vAligns = []string{"top", "center", "bottom"}
)

func (p Preferences) normalize() Preferences {
	def := Defaults()
	if p.RepeatCount < 1 {
		p.RepeatCount = 1
	}
	if p.FontSize <= 0 {
		p.FontSize = def.FontSize
	}
	p.TextOpacity = min(max(p.TextOpacity, 0), 1)
	p.Opacity = min(max(p.Opacity, 0), 1)
	p.Bottom = min(max(p.Bottom, 0), 90)
	p.HPosition = min(max(p.HPosition, 0), 100)
	p.Width = min(max(p.Width, 10), 100)
	if !slices.Contains(hAligns, p.HAlign) {
		p.HAlign = def.HAlign
	}
	if !slices.Contains(vAligns, p.VAlign) {
		p.VAlign = def.VAlign
	}
	if p.LangOrder == nil {
		p.LangOrder = []string{}
	}
	return p
}

// Store holds the current preferences and writes every change to disk
// synchronously.
type Store struct {
	path string

	mu      sync.RWMutex
	current Preferences
}

// Load reads preferences from path, shallow-merged over the defaults. A
// missing or corrupt file yields the defaults.
func Load(path string) *Store {
	logger := config.GetLogger()
	s := &Store{path: path, current: Defaults()}

	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			logger.Warn().Err(err).Str("path", path).Msg("Failed to read preferences, using defaults")
		}
		return s
	}

	merged, err := Defaults().Merge(data)
	if err != nil {
		logger.Warn().Err(err).Str("path", path).Msg("Corrupt preferences file, using defaults")
		return s
	}
	s.current = merged
	return s
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Get returns a copy of the current preferences.
func (s *Store) Get() Preferences {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Clone()
}

// Update applies fn to a copy of the current preferences, then stores and
// saves the result.
func (s *Store) Update(fn func(*Preferences)) (Preferences, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.current.Clone()
	fn(&next)
	next = next.normalize()
	if err := write(s.path, next); err != nil {
		return s.current.Clone(), err
	}
	s.current = next
	return next.Clone(), nil
}

// Patch shallow-merges a partial JSON document and saves the result.
func (s *Store) Patch(patch []byte) (Preferences, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := s.current.Merge(patch)
	if err != nil {
		return s.current.Clone(), err
	}
	if err := write(s.path, next); err != nil {
		return s.current.Clone(), err
	}
	s.current = next
	return next.Clone(), nil
}

func write(path string, p Preferences) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("preferences file path is required")
	}

	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	content, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}
	content = append(content, '\n')

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, content, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}
