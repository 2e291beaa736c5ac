// Package scheduler drives the coordinator: it follows the page identity,
// waits for the host player of each video and runs the periodic control tick.
package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"
	"github.com/getsentry/sentry-go"
	"github.com/rs/zerolog"

	"github.com/Belphemur/CueLoop/internal/apperrors"
	"github.com/Belphemur/CueLoop/internal/config"
	"github.com/Belphemur/CueLoop/internal/metrics"
	"github.com/Belphemur/CueLoop/internal/player"
)

// Host is the page-side player: the player itself plus the page identity and
// a readiness flag.
type Host interface {
	player.Player
	VideoID() string
	Ready() bool
}

// Target receives the scheduler's calls. *session.Coordinator implements it.
type Target interface {
	HandleVideoChange(id string) bool
	SetPlayer(p player.Player)
	Tick()
}

// Options tunes the scheduler. MaxAttempts <= 0 waits for the player forever.
type Options struct {
	TickInterval time.Duration
	PollInterval time.Duration
	MinBackoff   time.Duration
	MaxBackoff   time.Duration
	MaxAttempts  int
}

// OptionsFromConfig reads the control settings.
func OptionsFromConfig(cfg *config.Config) Options {
	c := cfg.Control
	return Options{
		TickInterval: config.Duration(c.TickInterval, config.DefaultTickInterval),
		PollInterval: config.Duration(c.IdentityPollInterval, config.DefaultIdentityPollInterval),
		MinBackoff:   config.Duration(c.ReadinessMinBackoff, config.DefaultReadinessMinBackoff),
		MaxBackoff:   config.Duration(c.ReadinessMaxBackoff, config.DefaultReadinessMaxBackoff),
		MaxAttempts:  c.ReadinessMaxAttempts,
	}
}

func (o Options) withDefaults() Options {
	if o.TickInterval <= 0 {
		o.TickInterval = config.DefaultTickInterval
	}
	if o.PollInterval <= 0 {
		o.PollInterval = config.DefaultIdentityPollInterval
	}
	if o.MinBackoff <= 0 {
		o.MinBackoff = config.DefaultReadinessMinBackoff
	}
	if o.MaxBackoff < o.MinBackoff {
		o.MaxBackoff = o.MinBackoff
	}
	return o
}

// Scheduler owns one session goroutine at a time.
type Scheduler struct {
	host   Host
	target Target
	opts   Options
	logger zerolog.Logger
}

// New creates a scheduler.
func New(host Host, target Target, opts Options) *Scheduler {
	return &Scheduler{
		host:   host,
		target: target,
		opts:   opts.withDefaults(),
		logger: config.GetLogger().With().Str("component", "scheduler").Logger(),
	}
}

type sessionRun struct {
	id     string
	cancel context.CancelFunc
	done   chan struct{}
}

func (r *sessionRun) stop() {
	if r == nil {
		return
	}
	r.cancel()
	<-r.done
}

// Run polls the page identity until ctx is cancelled. When the video changes
// the previous session goroutine is stopped before the target is told, so no
// tick of the old video runs against the new session.
func (s *Scheduler) Run(ctx context.Context) error {
	var (
		current string
		run     *sessionRun
	)
	defer func() { run.stop() }()

	check := func() {
		id := s.host.VideoID()
		if id == current {
			return
		}
		run.stop()
		run = nil
		current = id
		s.target.HandleVideoChange(id)
		if id == "" {
			return
		}

		sctx, cancel := context.WithCancel(ctx)
		run = &sessionRun{id: id, cancel: cancel, done: make(chan struct{})}
		go func(r *sessionRun) {
			defer close(r.done)
			s.runSession(sctx, r.id)
		}(run)
	}

	poll := time.NewTicker(s.opts.PollInterval)
	defer poll.Stop()

	check()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-poll.C:
			check()
		}
	}
}

func (s *Scheduler) runSession(ctx context.Context, id string) {
	p, err := s.awaitPlayer(ctx, id)
	if err != nil {
		if ctx.Err() == nil {
			metrics.PlayerReadinessTotal.WithLabelValues("gave_up").Inc()
			s.logger.Warn().Err(err).Str("video_id", id).Msg("Player never became ready")
		}
		return
	}
	metrics.PlayerReadinessTotal.WithLabelValues("ready").Inc()
	s.target.SetPlayer(p)

	ticker := time.NewTicker(s.opts.TickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(id)
		}
	}
}

// awaitPlayer retries with exponential backoff until the host reports a
// usable playback session for id.
func (s *Scheduler) awaitPlayer(ctx context.Context, id string) (player.Player, error) {
	notReady := &apperrors.ErrPlayerNotReady{VideoID: id}

	retries := -1
	if s.opts.MaxAttempts > 0 {
		retries = s.opts.MaxAttempts - 1
	}
	policy := retrypolicy.NewBuilder[player.Player]().
		HandleIf(func(_ player.Player, err error) bool {
			return errors.Is(err, &apperrors.ErrPlayerNotReady{})
		}).
		WithBackoff(s.opts.MinBackoff, s.opts.MaxBackoff).
		WithMaxRetries(retries).
		OnRetry(func(e failsafe.ExecutionEvent[player.Player]) {
			s.logger.Debug().Str("video_id", id).Int("attempt", e.Attempts()).Msg("Waiting for player")
		}).
		Build()

	return failsafe.With[player.Player](policy).
		WithContext(ctx).
		Get(func() (player.Player, error) {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if !s.host.Ready() || s.host.VideoID() != id {
				return nil, notReady
			}
			return s.host, nil
		})
}

// tick runs one control cycle. A panic is logged and reported and the loop
// keeps going.
func (s *Scheduler) tick(id string) {
	defer func() {
		if r := recover(); r != nil {
			metrics.TickPanicsTotal.Inc()
			s.logger.Error().Interface("panic", r).Str("video_id", id).Msg("Recovered panic in control tick")
			sentry.CurrentHub().Recover(r)
		}
	}()
	s.target.Tick()
}
