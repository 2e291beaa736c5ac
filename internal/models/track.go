package models

import "strings"

// offDisplayNames are display names the host uses for its "Off" entry, even when
// the entry carries a real language code.
var offDisplayNames = map[string]struct{}{
	"off": {},
	"끄기": {},
}

// Track is a host-reported timed-text track.
type Track struct {
	TrackID     string `json:"trackId"`
	BCP47       string `json:"bcp47"`
	DisplayName string `json:"displayName"`
	IsNone      bool   `json:"isNone"`
}

// IsOff reports whether selecting this track turns subtitles off.
func (t Track) IsOff() bool {
	if t.IsNone || t.BCP47 == "off" {
		return true
	}
	_, off := offDisplayNames[strings.ToLower(t.DisplayName)]
	return off
}

// RegisteredLanguage is a language observed on the host during the current video session.
type RegisteredLanguage struct {
	Tag         string `json:"tag"`
	DisplayName string `json:"displayName"`
	Selected    bool   `json:"selected"`
}
