// apps/go-server/internal/httpserver/routes_translations.go
//
// Translated content bodies.
//   - GET /translations/{type}/{id}/{lang} → public, served through the cache
//   - PUT /translations/{type}/{id}/{lang} → translators and admins only
//
// Writing is a job, not a tier: translators are admitted by role name rather
// than rank, so subscribers never gain write access.

package httpserver

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/vino/apps/go-server/internal/access"
	"github.com/robalobadob/vino/apps/go-server/internal/translation"
)

type translationReq struct {
	Body string `json:"body" validate:"required,max=20000"`
}

func (s *Server) mountTranslations() {
	const path = "/translations/{type}/{id}/{lang}"
	s.r.Get(path, s.handleGetTranslation)
	s.r.With(s.requireAnyRole(access.RoleTranslator, access.RoleAdmin)).Put(path, s.handlePutTranslation)
}

func translationKey(r *http.Request) translation.Key {
	return translation.Key{
		ContentType: chi.URLParam(r, "type"),
		ContentID:   chi.URLParam(r, "id"),
		Lang:        chi.URLParam(r, "lang"),
	}
}

func (s *Server) handleGetTranslation(w http.ResponseWriter, r *http.Request) {
	k := translationKey(r)
	body, err := s.translations.Lookup(r.Context(), k)
	switch {
	case errors.Is(err, translation.ErrNotFound):
		writeError(w, http.StatusNotFound, "translation_not_found")
	case errors.Is(err, translation.ErrInvalidKey):
		writeError(w, http.StatusBadRequest, "invalid_key")
	case err != nil:
		log.Error().Err(err).Str("key", k.String()).Msg("lookup translation")
		writeError(w, http.StatusInternalServerError, "server_error")
	default:
		k, _ = translation.NormalizeKey(k)
		writeJSON(w, http.StatusOK, map[string]any{"key": k, "body": body})
	}
}

func (s *Server) handlePutTranslation(w http.ResponseWriter, r *http.Request) {
	var body translationReq
	if !s.decodeAndValidate(w, r, &body) {
		return
	}
	t, err := s.translations.Save(r.Context(), translationKey(r), body.Body)
	switch {
	case errors.Is(err, translation.ErrInvalidKey):
		writeError(w, http.StatusBadRequest, "invalid_key")
	case err != nil:
		log.Error().Err(err).Msg("save translation")
		writeError(w, http.StatusInternalServerError, "server_error")
	default:
		log.Info().Str("key", t.Key.String()).Str("by", currentUser(r).Username).Msg("translation saved")
		writeJSON(w, http.StatusOK, t)
	}
}
