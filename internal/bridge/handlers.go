package bridge

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/Belphemur/CueLoop/internal/apperrors"
	"github.com/Belphemur/CueLoop/internal/intercept"
	"github.com/Belphemur/CueLoop/internal/models"
	"github.com/Belphemur/CueLoop/internal/player"
	"github.com/Belphemur/CueLoop/internal/session"
)

var (
	errRateLimited   = errors.New("too many intercepted payloads")
	errUnknownAction = errors.New("unknown action or key")
	errMissingURL    = errors.New("url and pageUrl query parameters are required")
)

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorBody{Error: err.Error()})
}

// readBody reads a size-limited body, answering 413 or 400 itself on failure.
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxPayloadBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, err)
		} else {
			writeError(w, http.StatusBadRequest, err)
		}
		return nil, false
	}
	return body, true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	body, ok := readBody(w, r)
	if !ok {
		return false
	}
	if err := json.Unmarshal(body, v); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return false
	}
	return true
}

type stateResponse struct {
	Commands []player.Command `json:"commands"`
	Overlay  session.Overlay  `json:"overlay"`
}

// handleState records a player report and answers with the commands still to
// execute and the overlay to draw.
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	var report player.Report
	if !decodeJSON(w, r, &report) {
		return
	}
	commands := s.remote.Update(report)
	if commands == nil {
		commands = []player.Command{}
	}
	writeJSON(w, http.StatusOK, stateResponse{Commands: commands, Overlay: s.coord.Snapshot()})
}

// handleIntercept takes a raw response body captured by the shim. The page
// and resource URLs travel as query parameters.
func (s *Server) handleIntercept(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	ev := intercept.Event{PageURL: q.Get("pageUrl"), URL: q.Get("url")}
	if ev.URL == "" || ev.PageURL == "" {
		writeError(w, http.StatusBadRequest, errMissingURL)
		return
	}
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	ev.Body = body

	out, err := s.feed.Handle(r.Context(), ev)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

type commandRequest struct {
	Key      string   `json:"key"`
	Action   string   `json:"action"`
	Language string   `json:"language"`
	Order    []string `json:"order"`
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	var req commandRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	var (
		action models.Action
		ok     bool
	)
	if req.Key != "" {
		action, ok = models.ActionForKey(req.Key)
	} else {
		action, ok = models.ParseAction(req.Action)
	}
	if !ok {
		writeError(w, http.StatusUnprocessableEntity, errUnknownAction)
		return
	}

	overlay, err := s.coord.Execute(action, session.Args{Language: req.Language, Order: req.Order})
	if err != nil {
		writeError(w, commandStatus(err), err)
		return
	}
	writeJSON(w, http.StatusOK, overlay)
}

func commandStatus(err error) int {
	switch {
	case errors.Is(err, &apperrors.ErrNotFound{}):
		return http.StatusNotFound
	case errors.Is(err, &apperrors.ErrPlayerNotReady{}), errors.Is(err, &apperrors.ErrCapabilityUnavailable{}):
		return http.StatusConflict
	default:
		return http.StatusUnprocessableEntity
	}
}

func (s *Server) handleOverlay(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.coord.Snapshot())
}

func (s *Server) handleTranscript(w http.ResponseWriter, _ *http.Request) {
	tr, ok := s.coord.Transcript()
	if !ok {
		writeError(w, http.StatusNotFound, &apperrors.ErrNoCues{})
		return
	}
	w.Header().Set("Content-Type", "text/tab-separated-values; charset=utf-8")
	_, _ = io.WriteString(w, tr.TSV)
}

func (s *Server) handleGetPreferences(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.coord.Preferences())
}

func (s *Server) handlePutPreferences(w http.ResponseWriter, r *http.Request) {
	patch, ok := readBody(w, r)
	if !ok {
		return
	}
	p, err := s.coord.UpdatePreferences(patch)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}
