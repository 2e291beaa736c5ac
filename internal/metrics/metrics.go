// Package metrics exposes Prometheus counters for the cue pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Ingestion metrics
var (
	PayloadsParsedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cueloop_payloads_parsed_total",
			Help: "Intercepted subtitle payloads by parse result (parsed, cached, empty, ignored).",
		},
		[]string{"result"},
	)

	CueBatchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cueloop_cue_batches_total",
			Help: "Cue batches offered to the store by outcome (accepted, duplicate).",
		},
		[]string{"result"},
	)
)

// Playback control metrics
var (
	NavigationCommandsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cueloop_navigation_commands_total",
			Help: "Executed navigation commands by command.",
		},
		[]string{"command"},
	)

	SentencePausesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "cueloop_sentence_pauses_total",
			Help: "Automatic pauses at the end of a subtitle in sentence mode.",
		},
	)

	LoopRepeatsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "cueloop_loop_repeats_total",
			Help: "Seeks back to the start of a looping subtitle.",
		},
	)

	SessionResetsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cueloop_session_resets_total",
			Help: "Cue state resets by reason (video_change, time_jump).",
		},
		[]string{"reason"},
	)
)

// Scheduler metrics
var (
	PlayerReadinessTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cueloop_player_readiness_total",
			Help: "Player readiness waits by outcome (ready, gave_up).",
		},
		[]string{"result"},
	)

	TickPanicsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "cueloop_tick_panics_total",
			Help: "Control ticks that panicked and were recovered.",
		},
	)
)

// Bridge metrics
var (
	BridgeRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cueloop_bridge_requests_total",
			Help: "Bridge HTTP requests by route and status class.",
		},
		[]string{"route", "status"},
	)
)

func init() {
	prometheus.MustRegister(
		PayloadsParsedTotal,
		CueBatchesTotal,
		NavigationCommandsTotal,
		SentencePausesTotal,
		LoopRepeatsTotal,
		SessionResetsTotal,
		PlayerReadinessTotal,
		TickPanicsTotal,
		BridgeRequestsTotal,
	)
}
