package bridge

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Belphemur/CueLoop/internal/intercept"
	"github.com/Belphemur/CueLoop/internal/player"
	"github.com/Belphemur/CueLoop/internal/prefs"
	"github.com/Belphemur/CueLoop/internal/session"
	"github.com/Belphemur/CueLoop/internal/testutil"
)

const (
	testVideo = "81234567"
	watchPage = "https://www.netflix.com/watch/81234567?trackId=14277281"
	rangeURL  = "https://ipv4-c001-fra001.1.oca.nflxvideo.net/range/0-51234?o=AQEfoo&lang=en"
)

var allCapabilities = []player.Capability{
	player.CapSeek, player.CapPlayback, player.CapRate, player.CapTextTracks,
	player.CapDuration, player.CapAds, player.CapNativeText,
}

type fakeClipboard struct{ text string }

func (f *fakeClipboard) WriteAll(text string) error {
	f.text = text
	return nil
}

type fixture struct {
	coord   *session.Coordinator
	remote  *player.RemotePlayer
	handler http.Handler
}

func newFixture(t *testing.T, ratePerSec float64, burst int) *fixture {
	t.Helper()
	coord := session.NewCoordinator(session.Options{
		Preferences: prefs.Load(filepath.Join(t.TempDir(), "prefs.json")),
		Clipboard:   &fakeClipboard{},
	})
	remote := player.NewRemotePlayer(intercept.VideoID)
	matcher := intercept.NewMatcher([]string{"nflxvideo.net"}, []string{"/range/"}, "o", "/watch/")
	feed := intercept.NewFeed(matcher, nil, coord)

	return &fixture{
		coord:   coord,
		remote:  remote,
		handler: NewServer(coord, remote, feed, ratePerSec, burst).Routes(),
	}
}

// attach reports the player and hands it to the coordinator the way the
// scheduler does once the player is ready.
func (f *fixture) attach(t *testing.T, currentTime float64) {
	t.Helper()
	rec := f.postState(t, player.Report{
		PageURL:      watchPage,
		SessionID:    "session-1",
		CurrentTime:  currentTime,
		PlaybackRate: 1,
		Duration:     2_400_000,
		Capabilities: allCapabilities,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	f.coord.HandleVideoChange(testVideo)
	f.coord.SetPlayer(f.remote)
}

func (f *fixture) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func (f *fixture) postState(t *testing.T, report player.Report) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(report)
	require.NoError(t, err)
	return f.do(httptest.NewRequest(http.MethodPost, "/v1/state", bytes.NewReader(raw)))
}

func (f *fixture) postCommand(t *testing.T, body string) *httptest.ResponseRecorder {
	t.Helper()
	return f.do(httptest.NewRequest(http.MethodPost, "/v1/commands", strings.NewReader(body)))
}

func interceptRequest(body []byte, encoding string) *http.Request {
	q := url.Values{}
	q.Set("pageUrl", watchPage)
	q.Set("url", rangeURL)
	req := httptest.NewRequest(http.MethodPost, "/v1/intercept?"+q.Encode(), bytes.NewReader(body))
	if encoding != "" {
		req.Header.Set("Content-Encoding", encoding)
	}
	return req
}

func compress(t *testing.T, encoding string, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	switch encoding {
	case "gzip":
		w := gzip.NewWriter(&buf)
		_, err := w.Write(data)
		require.NoError(t, err)
		require.NoError(t, w.Close())
	case "br":
		w := brotli.NewWriter(&buf)
		_, err := w.Write(data)
		require.NoError(t, err)
		require.NoError(t, w.Close())
	case "zstd":
		enc, err := zstd.NewWriter(nil)
		require.NoError(t, err)
		buf.Write(enc.EncodeAll(data, nil))
		require.NoError(t, enc.Close())
	default:
		buf.Write(data)
	}
	return buf.Bytes()
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

// ---------------------------------------------------------------------------
// Routes
// ---------------------------------------------------------------------------

func TestHealthz(t *testing.T) {
	f := newFixture(t, 0, 0)
	rec := f.do(httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestIntercept_Encodings(t *testing.T) {
	payload := []byte(testutil.ThreeCueTimedText())

	for _, encoding := range []string{"", "gzip", "br", "zstd"} {
		t.Run("encoding "+encoding, func(t *testing.T) {
			f := newFixture(t, 0, 0)
			f.attach(t, 0)

			rec := f.do(interceptRequest(compress(t, encoding, payload), encoding))
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			out := decode[intercept.Outcome](t, rec)
			assert.True(t, out.Accepted)
			assert.Equal(t, 3, out.Cues)
			assert.Equal(t, "en", out.Language)
			assert.True(t, out.Promoted)
		})
	}
}

func TestIntercept_Rejections(t *testing.T) {
	f := newFixture(t, 0, 0)

	rec := f.do(httptest.NewRequest(http.MethodPost, "/v1/intercept", strings.NewReader("<tt/>")))
	assert.Equal(t, http.StatusBadRequest, rec.Code, "missing urls")

	rec = f.do(interceptRequest([]byte("<tt/>"), "compress"))
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)

	rec = f.do(interceptRequest([]byte("not gzip at all"), "gzip"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(interceptRequest(bytes.Repeat([]byte("a"), MaxPayloadBytes+1), ""))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestIntercept_SkippedPayload(t *testing.T) {
	f := newFixture(t, 0, 0)

	rec := f.do(interceptRequest([]byte(`{"json":true}`), ""))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, intercept.SkipNotTimedText, decode[intercept.Outcome](t, rec).Skipped)
}

func TestIntercept_RateLimited(t *testing.T) {
	f := newFixture(t, 0.001, 1)
	payload := []byte(testutil.ThreeCueTimedText())

	assert.Equal(t, http.StatusOK, f.do(interceptRequest(payload, "")).Code)

	rec := f.do(interceptRequest(payload, ""))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
}

func TestCommands_NextQueuesSeekUntilAcknowledged(t *testing.T) {
	f := newFixture(t, 0, 0)
	f.attach(t, 1500)
	require.Equal(t, http.StatusOK, f.do(interceptRequest([]byte(testutil.ThreeCueTimedText()), "")).Code)

	rec := f.postCommand(t, `{"key":"KeyD"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "How are you?", decode[session.Overlay](t, rec).Toast)

	rec = f.postState(t, player.Report{PageURL: watchPage, SessionID: "session-1", CurrentTime: 1500, Capabilities: allCapabilities})
	require.Equal(t, http.StatusOK, rec.Code)
	state := decode[stateResponse](t, rec)
	require.Len(t, state.Commands, 1)
	assert.Equal(t, player.CommandSeek, state.Commands[0].Kind)
	assert.Equal(t, player.TargetHost, state.Commands[0].Target)
	assert.Equal(t, 2000.0, state.Commands[0].Time)
	assert.Equal(t, testVideo, state.Overlay.VideoID)

	rec = f.postState(t, player.Report{
		PageURL: watchPage, SessionID: "session-1", CurrentTime: 2000,
		Capabilities: allCapabilities, AckSeq: state.Commands[0].Seq,
	})
	assert.Empty(t, decode[stateResponse](t, rec).Commands)
}

func TestCommands_Errors(t *testing.T) {
	f := newFixture(t, 0, 0)

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"malformed json", `{`, http.StatusBadRequest},
		{"unbound key", `{"key":"KeyZ"}`, http.StatusUnprocessableEntity},
		{"unknown action", `{"action":"rewind"}`, http.StatusUnprocessableEntity},
		{"player not ready", `{"action":"next"}`, http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.postCommand(t, tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.NotEmpty(t, decode[errorBody](t, rec).Error)
		})
	}

	f.attach(t, 0)
	rec := f.postCommand(t, `{"action":"switch_language","language":"ja"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code, "no host track carries the language")
}

func TestOverlayAndTranscript(t *testing.T) {
	f := newFixture(t, 0, 0)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/v1/transcript", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	f.attach(t, 0)
	require.Equal(t, http.StatusOK, f.do(interceptRequest([]byte(testutil.ThreeCueTimedText()), "")).Code)

	rec = f.do(httptest.NewRequest(http.MethodGet, "/v1/overlay", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	overlay := decode[session.Overlay](t, rec)
	assert.Equal(t, 3, overlay.CueCount)
	assert.Equal(t, 1, overlay.Batches)

	rec = f.do(httptest.NewRequest(http.MethodGet, "/v1/transcript", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/tab-separated-values; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "Hello there.")
	assert.Contains(t, rec.Body.String(), "Fine, thanks.")
}

func TestPreferences(t *testing.T) {
	f := newFixture(t, 0, 0)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/v1/preferences", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, prefs.Defaults().RepeatCount, decode[prefs.Preferences](t, rec).RepeatCount)

	rec = f.do(httptest.NewRequest(http.MethodPut, "/v1/preferences", strings.NewReader(`{"repeatCount":3,"sentenceMode":true}`)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[prefs.Preferences](t, rec)
	assert.Equal(t, 3, updated.RepeatCount)
	assert.True(t, updated.SentenceMode)
	assert.True(t, f.coord.Preferences().SentenceMode)

	rec = f.do(httptest.NewRequest(http.MethodPut, "/v1/preferences", strings.NewReader(`[1,2]`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestParseContentEncoding(t *testing.T) {
	t.Parallel()
	tests := map[string]string{
		"":           "",
		"  ":         "",
		"gzip":       "gzip",
		" GZIP ":     "gzip",
		"gzip, br":   "br",
		"zstd,gzip ": "gzip",
	}
	for header, want := range tests {
		assert.Equal(t, want, parseContentEncoding(header), "header %q", header)
	}
}

func TestNewHTTPServer(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "127.0.0.1:8765", NewHTTPServer("127.0.0.1", 0, http.NotFoundHandler()).Addr)
	assert.Equal(t, "localhost:9000", NewHTTPServer("localhost", 9000, http.NotFoundHandler()).Addr)
}
