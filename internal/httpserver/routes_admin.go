// apps/go-server/internal/httpserver/routes_admin.go
//
// Staff endpoints (admin role only).
//   - POST /admin/swirdle/words          → schedule a Swirdle word for a date
//   - PUT  /admin/users/{id}/role         → change a user's role
//   - PUT  /admin/users/{id}/subscription → record a subscription status change

package httpserver

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/vino/apps/go-server/internal/access"
	"github.com/robalobadob/vino/apps/go-server/internal/swirdle"
)

type scheduleWordReq struct {
	Word          string   `json:"word" validate:"required,alpha,min=3,max=12"`
	Definition    string   `json:"definition" validate:"max=500"`
	Difficulty    string   `json:"difficulty" validate:"required,difficulty"`
	Category      string   `json:"category" validate:"required,category"`
	DateScheduled string   `json:"dateScheduled" validate:"required,datetime=2006-01-02"`
	Hints         []string `json:"hints" validate:"max=5,dive,required,max=200"`
	IsPublished   bool     `json:"isPublished"`
}

type roleReq struct {
	Role string `json:"role" validate:"required,role"`
}

type subscriptionReq struct {
	Status string `json:"status" validate:"required,subscription"`
}

func (s *Server) mountAdmin() {
	s.r.Route("/admin", func(r chi.Router) {
		r.Use(s.guard(access.Guard{RequireAuth: true, RequiredRole: access.RoleAdmin}))
		r.Post("/swirdle/words", s.handleScheduleWord)
		r.Put("/users/{id}/role", s.handleSetRole)
		r.Put("/users/{id}/subscription", s.handleSetSubscription)
	})
}

func (s *Server) handleScheduleWord(w http.ResponseWriter, r *http.Request) {
	var body scheduleWordReq
	if !s.decodeAndValidate(w, r, &body) {
		return
	}
	word, err := s.swirdle.ScheduleWord(r.Context(), swirdle.Word{
		ID:            uuid.NewString(),
		Word:          body.Word,
		Definition:    strings.TrimSpace(body.Definition),
		Difficulty:    swirdle.Difficulty(body.Difficulty),
		Category:      swirdle.Category(body.Category),
		DateScheduled: body.DateScheduled,
		Hints:         body.Hints,
		IsPublished:   body.IsPublished,
	})
	if errors.Is(err, swirdle.ErrInvalidOperation) {
		writeError(w, http.StatusBadRequest, "invalid_word")
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("schedule word")
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	log.Info().Str("date", word.DateScheduled).Str("by", currentUser(r).Username).Msg("swirdle word scheduled")
	writeJSON(w, http.StatusCreated, word)
}

func (s *Server) handleSetRole(w http.ResponseWriter, r *http.Request) {
	var body roleReq
	if !s.decodeAndValidate(w, r, &body) {
		return
	}
	role, _ := access.ParseRole(body.Role)
	s.updateUserColumn(w, r, "role", string(role))
}

func (s *Server) handleSetSubscription(w http.ResponseWriter, r *http.Request) {
	var body subscriptionReq
	if !s.decodeAndValidate(w, r, &body) {
		return
	}
	st, _ := access.ParseSubscriptionStatus(body.Status)
	s.updateUserColumn(w, r, "subscription_status", string(st))
}

// updateUserColumn sets one enum column; column is always a constant from this file.
func (s *Server) updateUserColumn(w http.ResponseWriter, r *http.Request, column, value string) {
	id := chi.URLParam(r, "id")
	res, err := s.db.ExecContext(r.Context(), `UPDATE users SET `+column+`=? WHERE id=?`, value, id)
	if err != nil {
		log.Error().Err(err).Str("column", column).Msg("update user")
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		writeError(w, http.StatusNotFound, "user_not_found")
		return
	}
	u, err := s.findUserByID(r.Context(), id)
	if err != nil {
		log.Error().Err(err).Msg("reload user")
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	log.Info().Str("user", id).Str(column, value).Str("by", currentUser(r).Username).Msg("user updated")
	writeJSON(w, http.StatusOK, u.public())
}
