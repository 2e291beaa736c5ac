// Package intercept turns network responses observed by the in-page shim
// into cue batches.
package intercept

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/Belphemur/CueLoop/internal/config"
)

var watchIDPattern = regexp.MustCompile(`/watch/(\d+)`)

// VideoID extracts the numeric video id from a /watch/<id> page URL. It
// matches player.IdentityFunc.
func VideoID(pageURL string) (string, bool) {
	path := pageURL
	if u, err := url.Parse(pageURL); err == nil && u.Path != "" {
		path = u.Path
	}
	m := watchIDPattern.FindStringSubmatch(path)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// Matcher decides which page and resource URLs carry subtitles.
type Matcher struct {
	hosts       []string
	markers     []string
	offsetParam string
	watchPrefix string
}

// NewMatcher creates a matcher. A resource matches when its host is one of
// hosts (or a subdomain of one) or its path contains one of markers, and its
// path also ends in .xml or its query carries offsetParam. Bodies still have
// to look like timed text before they are parsed.
func NewMatcher(hosts, markers []string, offsetParam, watchPrefix string) *Matcher {
	m := &Matcher{offsetParam: offsetParam, watchPrefix: watchPrefix}
	for _, h := range hosts {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			m.hosts = append(m.hosts, h)
		}
	}
	for _, mk := range markers {
		if mk != "" {
			m.markers = append(m.markers, mk)
		}
	}
	if m.watchPrefix == "" {
		m.watchPrefix = "/watch/"
	}
	return m
}

// NewMatcherFromConfig builds a matcher from the intercept settings.
func NewMatcherFromConfig(cfg *config.Config) *Matcher {
	ic := cfg.Intercept
	return NewMatcher(ic.CDNHosts, ic.PathMarkers, ic.OffsetParam, ic.WatchPathPrefix)
}

// IsWatchSurface reports whether the page is a video watch page.
func (m *Matcher) IsWatchSurface(pageURL string) bool {
	path := pageURL
	if u, err := url.Parse(pageURL); err == nil {
		path = u.Path
	}
	return strings.Contains(path, m.watchPrefix)
}

// Match reports whether a resource URL may carry a subtitle payload.
func (m *Matcher) Match(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return m.isTimedTextSource(u) && m.isPayloadShaped(u)
}

func (m *Matcher) isTimedTextSource(u *url.URL) bool {
	if m.onCDN(u.Hostname()) {
		return true
	}
	for _, mk := range m.markers {
		if strings.Contains(u.Path, mk) {
			return true
		}
	}
	return false
}

func (m *Matcher) isPayloadShaped(u *url.URL) bool {
	if strings.HasSuffix(strings.ToLower(u.Path), ".xml") {
		return true
	}
	return m.offsetParam != "" && u.Query().Has(m.offsetParam)
}

func (m *Matcher) onCDN(host string) bool {
	host = strings.ToLower(host)
	for _, h := range m.hosts {
		if host == h || strings.HasSuffix(host, "."+h) {
			return true
		}
	}
	return false
}
