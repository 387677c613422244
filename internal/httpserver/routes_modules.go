// apps/go-server/internal/httpserver/routes_modules.go
//
// Course module catalogue.
//   - GET /modules      → every module, flagged with whether the caller may open it
//   - GET /modules/{id} → one module, gated by its required role
//
// The catalogue is public so the client can render locked tiles with the right
// call to action (sign in, subscribe, or nothing for staff-only content).

package httpserver

import (
	"context"
	"database/sql"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/vino/apps/go-server/internal/access"
)

// moduleRow matches the modules table.
type moduleRow struct {
	ID           string      `json:"id"`
	Title        string      `json:"title"`
	Summary      string      `json:"summary"`
	RequiredRole access.Role `json:"requiredRole"`
	Position     int         `json:"position"`
}

// moduleEntry is a catalogue item as seen by the caller.
type moduleEntry struct {
	moduleRow
	Locked   bool            `json:"locked"`
	Decision access.Decision `json:"decision"`
}

func (s *Server) mountModules() {
	s.r.Get("/modules", s.handleListModules)
	s.r.Get("/modules/{id}", s.handleGetModule)
}

func (s *Server) handleListModules(w http.ResponseWriter, r *http.Request) {
	mods, err := s.listModules(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("list modules")
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	p := currentUser(r).Principal()
	out := make([]moduleEntry, 0, len(mods))
	for _, m := range mods {
		d := moduleGuard(m).Decide(p, access.AuthResolved)
		out = append(out, moduleEntry{moduleRow: m, Locked: d != access.DecisionAllow, Decision: d})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetModule(w http.ResponseWriter, r *http.Request) {
	m, err := s.findModule(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, sql.ErrNoRows) {
		writeError(w, http.StatusNotFound, "module_not_found")
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("get module")
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	if d := moduleGuard(*m).Decide(currentUser(r).Principal(), access.AuthResolved); d != access.DecisionAllow {
		writeDenied(w, d)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// moduleGuard: guest modules are open to everyone, the rest need a session.
func moduleGuard(m moduleRow) access.Guard {
	return access.Guard{RequireAuth: m.RequiredRole != access.RoleGuest, RequiredRole: m.RequiredRole}
}

func (s *Server) listModules(ctx context.Context) ([]moduleRow, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, title, summary, required_role, position FROM modules ORDER BY position, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []moduleRow
	for rows.Next() {
		m, err := scanModule(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

func (s *Server) findModule(ctx context.Context, id string) (*moduleRow, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, title, summary, required_role, position FROM modules WHERE id=?`, id)
	return scanModule(row)
}

type scanner interface{ Scan(dest ...any) error }

// scanModule rejects rows whose required role is not a valid requirement, so
// the policy never sees an unranked role.
func scanModule(sc scanner) (*moduleRow, error) {
	var (
		m    moduleRow
		role string
	)
	if err := sc.Scan(&m.ID, &m.Title, &m.Summary, &role, &m.Position); err != nil {
		return nil, err
	}
	r, err := access.ParseRequiredRole(role)
	if err != nil {
		return nil, err
	}
	m.RequiredRole = r
	return &m, nil
}
