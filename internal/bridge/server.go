// Package bridge is the local HTTP surface the in-page shim talks to. The
// shim posts player state and intercepted subtitle payloads, receives queued
// player commands and the overlay to draw, and forwards keyboard commands.
package bridge

import (
	"fmt"
	"net/http"
	"time"

	sentryhttp "github.com/getsentry/sentry-go/http"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/Belphemur/CueLoop/internal/config"
	"github.com/Belphemur/CueLoop/internal/intercept"
	"github.com/Belphemur/CueLoop/internal/player"
	"github.com/Belphemur/CueLoop/internal/session"
)

// DefaultPort is used when the configured port is zero.
const DefaultPort = 8765

// MaxPayloadBytes bounds decoded request bodies.
const MaxPayloadBytes = 8 << 20

// Server wires the HTTP routes to the coordinator, the remote player and the
// intercept feed.
type Server struct {
	coord   *session.Coordinator
	remote  *player.RemotePlayer
	feed    *intercept.Feed
	limiter *rate.Limiter
	logger  zerolog.Logger
}

// NewServer creates a bridge server. ratePerSec <= 0 disables intercept rate
// limiting.
func NewServer(coord *session.Coordinator, remote *player.RemotePlayer, feed *intercept.Feed, ratePerSec float64, burst int) *Server {
	limit := rate.Inf
	if ratePerSec > 0 {
		limit = rate.Limit(ratePerSec)
	}
	if burst <= 0 {
		burst = 1
	}
	return &Server{
		coord:   coord,
		remote:  remote,
		feed:    feed,
		limiter: rate.NewLimiter(limit, burst),
		logger:  config.GetLogger().With().Str("component", "bridge").Logger(),
	}
}

// Routes returns the HTTP handler.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(sentryhttp.New(sentryhttp.Options{Repanic: true}).Handle)
	r.Use(s.requestLogger)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/v1", func(r chi.Router) {
		r.Use(decompressRequest)
		r.Post("/state", s.handleState)
		r.With(s.rateLimit).Post("/intercept", s.handleIntercept)
		r.Post("/commands", s.handleCommand)
		r.Get("/overlay", s.handleOverlay)
		r.Get("/transcript", s.handleTranscript)
		r.Get("/preferences", s.handleGetPreferences)
		r.Put("/preferences", s.handlePutPreferences)
	})
	return r
}

// NewHTTPServer creates the bridge HTTP server on address:port.
func NewHTTPServer(address string, port int, handler http.Handler) *http.Server {
	if port == 0 {
		port = DefaultPort
	}
	return &http.Server{
		Addr:              fmt.Sprintf("%s:%d", address, port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
