package intercept

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func defaultMatcher() *Matcher {
	return NewMatcher([]string{"nflxvideo.net"}, []string{"/range/"}, "o", "/watch/")
}

func TestMatcher_Match(t *testing.T) {
	t.Parallel()
	m := defaultMatcher()

	tests := []struct {
		name string
		url  string
		want bool
	}{
		{"cdn range request", "https://ipv4-c001-fra001.1.oca.nflxvideo.net/range/0-51234?o=AQEfoo", true},
		{"cdn host with offset at root", "https://ipv4-c002.oca.nflxvideo.net/?o=abc", true},
		{"cdn host with xml path", "https://ipv4-c002.oca.nflxvideo.net/subs/en.XML", true},
		{"cdn host without offset or xml", "https://ipv4-c002.oca.nflxvideo.net/static/player.js", false},
		{"marker with offset", "https://edge.example.com/range/10-20?o=1", true},
		{"marker with xml path", "https://edge.example.com/range/episode.xml", true},
		{"xml off the cdn without marker", "https://assets.example.com/subs/episode.XML", false},
		{"root with offset off the cdn", "https://edge.example.com/?o=1", false},
		{"offset without marker", "https://edge.example.com/api/data?o=1", false},
		{"marker without offset", "https://edge.example.com/range/10-20", false},
		{"lookalike host", "https://notnflxvideo.net/subs/en.xml?o=1", false},
		{"unrelated", "https://www.example.com/app.js", false},
		{"unparseable", "http://[::1", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, m.Match(tt.url))
		})
	}
}

func TestMatcher_IsWatchSurface(t *testing.T) {
	t.Parallel()
	m := defaultMatcher()

	assert.True(t, m.IsWatchSurface("https://www.netflix.com/watch/81234567?trackId=1"))
	assert.False(t, m.IsWatchSurface("https://www.netflix.com/browse"))
	assert.False(t, m.IsWatchSurface("https://www.netflix.com/browse?next=/watch/1"), "query does not count")
	assert.True(t, NewMatcher(nil, nil, "", "").IsWatchSurface("/watch/1"), "empty prefix defaults to /watch/")
}

func TestVideoID(t *testing.T) {
	t.Parallel()
	tests := []struct {
		url    string
		want   string
		wantOK bool
	}{
		{"https://www.netflix.com/watch/81234567?trackId=14277281", "81234567", true},
		{"https://www.netflix.com/watch/81234567/", "81234567", true},
		{"/watch/42", "42", true},
		{"https://www.netflix.com/watch/abc", "", false},
		{"https://www.netflix.com/title/81234567", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			t.Parallel()
			id, ok := VideoID(tt.url)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, id)
		})
	}
}
