// apps/go-server/internal/httpserver/routes_swirdle.go
//
// HTTP routes for the Swirdle daily wine word game.
// Exposes four endpoints under /swirdle (signed-in learners and above):
//   - GET  /swirdle/today → today's puzzle view (answer hidden until completed)
//   - POST /swirdle/guess → submit a guess for today's word
//   - POST /swirdle/hint  → unlock a hint explicitly
//   - GET  /swirdle/stats → the caller's aggregate stats
//
// Attempts and stats are persisted through swirdle.Service on every accepted move.
// Rejected moves answer 422 with the unchanged view so the client can resync.

package httpserver

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/vino/apps/go-server/internal/access"
	"github.com/robalobadob/vino/apps/go-server/internal/swirdle"
)

// mountSwirdle registers all /swirdle routes.
func (s *Server) mountSwirdle() {
	s.r.Route("/swirdle", func(r chi.Router) {
		r.Use(s.guard(access.Guard{RequireAuth: true, RequiredRole: access.RoleLearner}))
		r.Get("/today", s.handleSwirdleToday)
		r.Get("/stats", s.handleSwirdleStats)
		r.Group(func(r chi.Router) {
			if s.cfg.GuessRateLimit > 0 {
				r.Use(httprate.LimitByIP(s.cfg.GuessRateLimit, time.Minute))
			}
			r.Post("/guess", s.handleSwirdleGuess)
			r.Post("/hint", s.handleSwirdleHint)
		})
	})
}

// -----------------------------------------------------------------------------
// /swirdle/today

func (s *Server) handleSwirdleToday(w http.ResponseWriter, r *http.Request) {
	v, err := s.swirdle.Today(r.Context(), currentUser(r).ID, s.now())
	if err != nil {
		s.writeSwirdleError(w, v, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// -----------------------------------------------------------------------------
// /swirdle/guess

type guessReq struct {
	Guess string `json:"guess" validate:"required,max=32"`
}

func (s *Server) handleSwirdleGuess(w http.ResponseWriter, r *http.Request) {
	var body guessReq
	if !s.decodeAndValidate(w, r, &body) {
		return
	}
	v, err := s.swirdle.Guess(r.Context(), currentUser(r).ID, body.Guess, s.now())
	if err != nil {
		s.writeSwirdleError(w, v, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// -----------------------------------------------------------------------------
// /swirdle/hint

type hintReq struct {
	Index *int `json:"index" validate:"required,min=0"`
}

func (s *Server) handleSwirdleHint(w http.ResponseWriter, r *http.Request) {
	var body hintReq
	if !s.decodeAndValidate(w, r, &body) {
		return
	}
	v, err := s.swirdle.Hint(r.Context(), currentUser(r).ID, *body.Index, s.now())
	if err != nil {
		s.writeSwirdleError(w, v, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// -----------------------------------------------------------------------------
// /swirdle/stats

func (s *Server) handleSwirdleStats(w http.ResponseWriter, r *http.Request) {
	st, err := s.swirdle.Stats(r.Context(), currentUser(r).ID)
	if err != nil {
		log.Error().Err(err).Msg("swirdle stats")
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// swirdleCodes maps rejected transitions to stable error codes.
var swirdleCodes = []struct {
	err  error
	code string
}{
	{swirdle.ErrLengthMismatch, "length_mismatch"},
	{swirdle.ErrGameCompleted, "game_completed"},
	{swirdle.ErrNoGuessesLeft, "no_guesses_left"},
	{swirdle.ErrHintOutOfRange, "hint_out_of_range"},
	{swirdle.ErrHintAlreadyUsed, "hint_already_used"},
	{swirdle.ErrAttemptMismatch, "attempt_mismatch"},
}

func (s *Server) writeSwirdleError(w http.ResponseWriter, v swirdle.View, err error) {
	switch {
	case errors.Is(err, swirdle.ErrNoWord):
		writeError(w, http.StatusNotFound, "no_word_today")
	case errors.Is(err, swirdle.ErrInvalidOperation):
		code := "invalid_operation"
		for _, c := range swirdleCodes {
			if errors.Is(err, c.err) {
				code = c.code
				break
			}
		}
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"error": code, "view": v})
	default:
		log.Error().Err(err).Msg("swirdle")
		writeError(w, http.StatusInternalServerError, "server_error")
	}
}
