package player_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Belphemur/CueLoop/internal/models"
	"github.com/Belphemur/CueLoop/internal/player"
	"github.com/Belphemur/CueLoop/internal/testutil"
)

func allCaps() []player.Capability {
	return []player.Capability{
		player.CapSeek, player.CapPlayback, player.CapRate, player.CapTextTracks,
		player.CapDuration, player.CapAds, player.CapNativeText,
	}
}

func watchIdentity(pageURL string) (string, bool) {
	_, id, ok := strings.Cut(pageURL, "/watch/")
	return id, ok && id != ""
}

func TestRemotePlayer_Readiness(t *testing.T) {
	r := player.NewRemotePlayer(nil)
	assert.False(t, r.Ready(), "no report yet")

	r.Update(player.Report{SessionID: "undefined"})
	assert.False(t, r.Ready())

	r.Update(player.Report{SessionID: "M-123"})
	assert.True(t, r.Ready())
	assert.Equal(t, "M-123", r.SessionID())
}

func TestRemotePlayer_VideoID(t *testing.T) {
	r := player.NewRemotePlayer(watchIdentity)
	r.Update(player.Report{PageURL: "https://www.netflix.com/watch/80100172"})
	assert.Equal(t, "80100172", r.VideoID())

	r.Update(player.Report{PageURL: "https://www.netflix.com/watch/1", VideoID: "explicit"})
	assert.Equal(t, "explicit", r.VideoID())

	r.Update(player.Report{PageURL: "https://www.netflix.com/browse"})
	assert.Equal(t, "", r.VideoID())
}

func TestRemotePlayer_CommandsUntilAcknowledged(t *testing.T) {
	r := player.NewRemotePlayer(nil)
	r.Update(player.Report{Capabilities: allCaps(), CurrentTime: 1000})

	require.NoError(t, player.Seek(r, 5000))
	require.NoError(t, player.Pause(r))

	cmds := r.Update(player.Report{Capabilities: allCaps(), CurrentTime: 1100})
	require.Len(t, cmds, 2)
	assert.Equal(t, player.CommandSeek, cmds[0].Kind)
	assert.Equal(t, player.TargetHost, cmds[0].Target)
	assert.Equal(t, 5000.0, cmds[0].Time)
	assert.Equal(t, player.CommandPause, cmds[1].Kind)
	assert.Greater(t, cmds[1].Seq, cmds[0].Seq)

	// Unacknowledged seek: the stale report time is ignored.
	assert.Equal(t, 5000.0, r.CurrentTime())

	cmds = r.Update(player.Report{Capabilities: allCaps(), CurrentTime: 5010, AckSeq: cmds[0].Seq})
	require.Len(t, cmds, 1)
	assert.Equal(t, player.CommandPause, cmds[0].Kind)
	assert.Equal(t, 5010.0, r.CurrentTime())

	cmds = r.Update(player.Report{Capabilities: allCaps(), AckSeq: cmds[0].Seq})
	assert.Empty(t, cmds)
}

func TestRemotePlayer_VideoChangeDropsQueuedCommands(t *testing.T) {
	r := player.NewRemotePlayer(watchIdentity)
	r.Update(player.Report{PageURL: "https://www.netflix.com/watch/111", Capabilities: allCaps(), CurrentTime: 1000})

	require.NoError(t, player.Seek(r, 90000))
	cmds := r.Update(player.Report{PageURL: "https://www.netflix.com/watch/111", Capabilities: allCaps(), CurrentTime: 1100})
	require.Len(t, cmds, 1, "same video keeps the queue")

	cmds = r.Update(player.Report{PageURL: "https://www.netflix.com/watch/222", Capabilities: allCaps(), CurrentTime: 0})
	assert.Empty(t, cmds)
	assert.Empty(t, r.Pending())
	assert.Equal(t, 0.0, r.CurrentTime(), "the old seek no longer shadows the play-head")

	require.NoError(t, player.Seek(r, 2000))
	cmds = r.Update(player.Report{PageURL: "https://www.netflix.com/watch/222", Capabilities: allCaps(), CurrentTime: 10})
	require.Len(t, cmds, 1)
	assert.Equal(t, 2000.0, cmds[0].Time)
}

func TestRemotePlayer_MediaTarget(t *testing.T) {
	r := player.NewRemotePlayer(nil)
	r.Update(player.Report{Capabilities: []player.Capability{player.CapTextTracks}, MediaElement: true, PlaybackRate: 1})

	rate, err := player.AdjustRate(r, player.RateStep)
	require.NoError(t, err)
	assert.Equal(t, 1.25, rate)

	cmds := r.Pending()
	require.Len(t, cmds, 1)
	assert.Equal(t, player.CommandRate, cmds[0].Kind)
	assert.Equal(t, player.TargetMedia, cmds[0].Target)
	assert.Equal(t, 1.25, r.PlaybackRate(), "optimistic until acknowledged")
}

func TestRemotePlayer_NoMediaNoCapability(t *testing.T) {
	r := player.NewRemotePlayer(nil)
	r.Update(player.Report{})
	assert.Error(t, player.Play(r))
	assert.Empty(t, r.Pending())
}

func TestRemotePlayer_Tracks(t *testing.T) {
	en := models.Track{TrackID: "T1", BCP47: "en", DisplayName: "English"}
	ko := models.Track{TrackID: "T2", BCP47: "ko", DisplayName: "한국어"}
	r := player.NewRemotePlayer(nil)
	r.Update(player.Report{Capabilities: allCaps(), ActiveTrack: &en, Tracks: []models.Track{en, ko}})

	active, ok := player.ActiveTrack(r)
	require.True(t, ok)
	assert.Equal(t, "en", active.BCP47)

	require.NoError(t, player.SetTextTrack(r, ko))
	active, _ = player.ActiveTrack(r)
	assert.Equal(t, "ko", active.BCP47, "pending track change wins over the stale report")
	assert.Len(t, player.Tracks(r), 2)
}

func TestRemotePlayer_AdsAndNativeText(t *testing.T) {
	r := player.NewRemotePlayer(nil)
	r.Update(player.Report{
		Capabilities:   allCaps(),
		Duration:       15000,
		NativeTextHTML: testutil.NativeCaptionHTML("Bonjour"),
	})
	assert.True(t, player.IsAdPlaying(r))
	assert.Equal(t, "Bonjour ", player.NativeText(r))

	r.Update(player.Report{Capabilities: allCaps(), Duration: 3600000, AdPlaying: true})
	assert.True(t, player.IsAdPlaying(r))

	r.Update(player.Report{Capabilities: allCaps(), Duration: 3600000})
	assert.False(t, player.IsAdPlaying(r))
}
