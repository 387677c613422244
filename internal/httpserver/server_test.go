package httpserver

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/vino/apps/go-server/internal/config"
	"github.com/robalobadob/vino/apps/go-server/internal/db"
	"github.com/robalobadob/vino/apps/go-server/internal/store"
	"github.com/robalobadob/vino/apps/go-server/internal/swirdle"
	"github.com/robalobadob/vino/apps/go-server/internal/translation"
)

var testDay = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

type testEnv struct {
	srv  *Server
	conn *sql.DB
	repo swirdle.Repository
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	conn, err := db.OpenAndMigrate(filepath.Join(t.TempDir(), "app.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	repo := store.NewSQLiteStore(conn)
	srv := New(config.Default(), Deps{
		DB:           conn,
		Swirdle:      swirdle.NewService(repo, nil),
		Translations: translation.NewService(translation.NewSQLSource(conn), translation.NewMemoryCache(16)),
	})
	srv.now = func() time.Time { return testDay }
	return &testEnv{srv: srv, conn: conn, repo: repo}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.srv.Router().ServeHTTP(rec, req)
	return rec
}

// signup creates a user and returns (id, token).
func (e *testEnv) signup(t *testing.T, username string) (string, string) {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/auth/signup", "", map[string]string{"username": username, "password": "pinot-noir"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	tok := rec.Header().Get("Authorization")
	require.NotEmpty(t, tok)
	return out["id"].(string), tok[len("Bearer "):]
}

func (e *testEnv) setUser(t *testing.T, id, role, status string) {
	t.Helper()
	_, err := e.conn.Exec(`UPDATE users SET role=?, subscription_status=? WHERE id=?`, role, status, id)
	require.NoError(t, err)
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestHealthAndNotFound(t *testing.T) {
	e := newTestEnv(t)

	rec := e.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true}`, rec.Body.String())

	rec = e.do(t, http.MethodGet, "/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decode(t, rec)["error"])
}

func TestAuth_SignupLoginMe(t *testing.T) {
	e := newTestEnv(t)
	_, tok := e.signup(t, "alice")

	rec := e.do(t, http.MethodGet, "/auth/me", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	me := decode(t, rec)
	assert.Equal(t, "alice", me["username"])
	assert.Equal(t, "learner", me["role"])
	assert.Equal(t, "inactive", me["subscriptionStatus"])

	rec = e.do(t, http.MethodGet, "/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "redirect_signin", decode(t, rec)["error"])

	rec = e.do(t, http.MethodPost, "/auth/signup", "", map[string]string{"username": "ALICE", "password": "pinot-noir"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = e.do(t, http.MethodPost, "/auth/login", "", map[string]string{"username": "alice", "password": "wrong-pass"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = e.do(t, http.MethodPost, "/auth/login", "", map[string]string{"username": "alice", "password": "pinot-noir"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Set-Cookie"))
}

func TestAuth_SignupValidation(t *testing.T) {
	e := newTestEnv(t)
	rec := e.do(t, http.MethodPost, "/auth/signup", "", map[string]string{"username": "al", "password": "short"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	fields := decode(t, rec)["fields"].(map[string]any)
	assert.Equal(t, "min", fields["username"])
	assert.Equal(t, "min", fields["password"])

	rec = e.do(t, http.MethodPost, "/auth/signup", "", map[string]string{"username": "bad name!", "password": "pinot-noir"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "username", decode(t, rec)["fields"].(map[string]any)["username"])
}

func TestAuth_TokenRejectedAfterExpiry(t *testing.T) {
	e := newTestEnv(t)
	_, tok := e.signup(t, "alice")

	e.srv.now = func() time.Time { return testDay.Add(15 * 24 * time.Hour) }
	rec := e.do(t, http.MethodGet, "/auth/me", tok, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSwirdle_Flow(t *testing.T) {
	e := newTestEnv(t)
	require.NoError(t, e.repo.SaveWord(context.Background(), swirdle.Word{
		ID: "w-merlot", Word: "MERLOT", Definition: "A red grape.",
		Difficulty: swirdle.DifficultyBeginner, Category: swirdle.CategoryGrapeVariety,
		DateScheduled: "2026-03-14", Hints: []string{"red", "bordeaux"}, IsPublished: true,
	}))

	rec := e.do(t, http.MethodGet, "/swirdle/today", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	_, tok := e.signup(t, "alice")
	rec = e.do(t, http.MethodGet, "/swirdle/today", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	v := decode(t, rec)
	assert.Equal(t, float64(6), v["length"])
	assert.Equal(t, "not_started", v["state"])
	assert.NotContains(t, v, "answer")

	rec = e.do(t, http.MethodPost, "/swirdle/guess", tok, map[string]string{"guess": "rose"})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "length_mismatch", decode(t, rec)["error"])

	rec = e.do(t, http.MethodPost, "/swirdle/hint", tok, map[string]int{"index": 1})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{"1": "bordeaux"}, decode(t, rec)["hints"])

	rec = e.do(t, http.MethodPost, "/swirdle/hint", tok, map[string]int{"index": 1})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "hint_already_used", decode(t, rec)["error"])

	rec = e.do(t, http.MethodPost, "/swirdle/guess", tok, map[string]string{"guess": "merlot"})
	require.Equal(t, http.StatusOK, rec.Code)
	v = decode(t, rec)
	assert.Equal(t, "won", v["state"])
	assert.Equal(t, "MERLOT", v["answer"])

	rec = e.do(t, http.MethodPost, "/swirdle/guess", tok, map[string]string{"guess": "merlot"})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "game_completed", decode(t, rec)["error"])

	rec = e.do(t, http.MethodGet, "/swirdle/stats", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	st := decode(t, rec)
	assert.Equal(t, float64(1), st["gamesPlayed"])
	assert.Equal(t, float64(1), st["gamesWon"])
	assert.Equal(t, float64(1), st["currentStreak"])
}

func TestSwirdle_NoWordToday(t *testing.T) {
	e := newTestEnv(t)
	_, tok := e.signup(t, "alice")
	rec := e.do(t, http.MethodGet, "/swirdle/today", tok, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "no_word_today", decode(t, rec)["error"])
}

func TestModules_GuardStatuses(t *testing.T) {
	e := newTestEnv(t)

	rec := e.do(t, http.MethodGet, "/modules", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []moduleEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 5)
	assert.Equal(t, "intro-to-wine", list[0].ID)
	assert.False(t, list[0].Locked)
	assert.Equal(t, "redirect_signin", string(list[1].Decision))

	rec = e.do(t, http.MethodGet, "/modules/intro-to-wine", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = e.do(t, http.MethodGet, "/modules/missing", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	id, tok := e.signup(t, "alice")
	cases := []struct {
		role, status, module string
		want                 int
	}{
		{"learner", "inactive", "grape-varieties", http.StatusOK},
		{"learner", "active", "old-world-regions", http.StatusForbidden},
		{"subscriber", "inactive", "old-world-regions", http.StatusPaymentRequired},
		{"subscriber", "canceled", "blind-tasting", http.StatusPaymentRequired},
		{"subscriber", "active", "old-world-regions", http.StatusOK},
		{"subscriber", "active", "content-studio", http.StatusForbidden},
		{"translator", "inactive", "old-world-regions", http.StatusOK},
		{"admin", "inactive", "content-studio", http.StatusOK},
		{"admin", "inactive", "blind-tasting", http.StatusOK},
	}
	for _, c := range cases {
		e.setUser(t, id, c.role, c.status)
		rec := e.do(t, http.MethodGet, "/modules/"+c.module, tok, nil)
		assert.Equal(t, c.want, rec.Code, "%s/%s on %s", c.role, c.status, c.module)
	}

	e.setUser(t, id, "subscriber", "trialing")
	rec = e.do(t, http.MethodGet, "/modules", tok, nil)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Equal(t, "redirect_subscribe", string(list[2].Decision))
	assert.True(t, list[2].Locked)
	assert.False(t, list[1].Locked)
}

func TestTranslations_WriteRoles(t *testing.T) {
	e := newTestEnv(t)
	path := "/translations/module/intro-to-wine/fr"

	rec := e.do(t, http.MethodGet, path, "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = e.do(t, http.MethodPut, path, "", map[string]string{"body": "Bonjour"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	id, tok := e.signup(t, "alice")
	e.setUser(t, id, "subscriber", "active")
	rec = e.do(t, http.MethodPut, path, tok, map[string]string{"body": "Bonjour"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	e.setUser(t, id, "translator", "inactive")
	rec = e.do(t, http.MethodPut, path, tok, map[string]string{"body": "Bonjour"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = e.do(t, http.MethodGet, "/translations/MODULE/intro-to-wine/FR", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Bonjour", decode(t, rec)["body"])

	e.setUser(t, id, "admin", "inactive")
	rec = e.do(t, http.MethodPut, path, tok, map[string]string{"body": "Salut"})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = e.do(t, http.MethodGet, path, "", nil)
	assert.Equal(t, "Salut", decode(t, rec)["body"])
}

func TestAdmin_ScheduleWordAndManageUsers(t *testing.T) {
	e := newTestEnv(t)
	id, tok := e.signup(t, "alice")
	word := map[string]any{
		"word": "rioja", "definition": "Spanish region.", "difficulty": "intermediate",
		"category": "wine_region", "dateScheduled": "2026-03-14", "hints": []string{"spain", "tempranillo"},
		"isPublished": true,
	}

	rec := e.do(t, http.MethodPost, "/admin/swirdle/words", tok, word)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	e.setUser(t, id, "admin", "inactive")
	rec = e.do(t, http.MethodPost, "/admin/swirdle/words", tok, word)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "RIOJA", decode(t, rec)["word"])

	rec = e.do(t, http.MethodGet, "/swirdle/today", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(5), decode(t, rec)["length"])

	bad := map[string]any{"word": "r1oja", "difficulty": "expert", "category": "wine_region", "dateScheduled": "14/03/2026"}
	rec = e.do(t, http.MethodPost, "/admin/swirdle/words", tok, bad)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	fields := decode(t, rec)["fields"].(map[string]any)
	assert.Equal(t, "alpha", fields["word"])
	assert.Equal(t, "difficulty", fields["difficulty"])
	assert.Equal(t, "datetime", fields["dateScheduled"])

	otherID, otherTok := e.signup(t, "bob")
	rec = e.do(t, http.MethodPut, "/admin/users/"+otherID+"/role", tok, map[string]string{"role": "subscriber"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "subscriber", decode(t, rec)["role"])

	rec = e.do(t, http.MethodGet, "/modules/old-world-regions", otherTok, nil)
	assert.Equal(t, http.StatusPaymentRequired, rec.Code)

	rec = e.do(t, http.MethodPut, "/admin/users/"+otherID+"/subscription", tok, map[string]string{"status": "active"})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = e.do(t, http.MethodGet, "/modules/old-world-regions", otherTok, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = e.do(t, http.MethodPut, "/admin/users/"+otherID+"/role", tok, map[string]string{"role": "wizard"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = e.do(t, http.MethodPut, "/admin/users/nobody/role", tok, map[string]string{"role": "learner"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCORS_Preflight(t *testing.T) {
	e := newTestEnv(t)
	req := httptest.NewRequest(http.MethodOptions, "/swirdle/guess", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	e.srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://evil.example")
	rec = httptest.NewRecorder()
	e.srv.Router().ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestAuth_UnreadableSessionUserIsServerError(t *testing.T) {
	e := newTestEnv(t)
	id, tok := e.signup(t, "alice")

	e.setUser(t, id, "wizard", "inactive")
	rec := e.do(t, http.MethodGet, "/auth/me", tok, nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "server_error", decode(t, rec)["error"])

	_, err := e.conn.Exec(`DELETE FROM users WHERE id=?`, id)
	require.NoError(t, err)
	rec = e.do(t, http.MethodGet, "/auth/me", tok, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuth_InsertUserReportsDuplicateAsTaken(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	row := func(id, name string) *userRow {
		return &userRow{ID: id, Username: name, PasswordHash: "x", CreatedAt: testDay,
			Role: "learner", SubscriptionStatus: "inactive"}
	}

	require.NoError(t, e.srv.insertUser(ctx, row("u1", "bob")))
	err := e.srv.insertUser(ctx, row("u2", "BOB"))
	assert.ErrorIs(t, err, errUsernameTaken)

	err = e.srv.insertUser(ctx, row("u1", "carol"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, errUsernameTaken)
}

func TestValidator_RegistersCustomTags(t *testing.T) {
	assert.NotPanics(t, func() { newValidator() })
}

func TestTranslations_RejectsSeparatorInKey(t *testing.T) {
	e := newTestEnv(t)
	rec := e.do(t, http.MethodGet, "/translations/module/x:y/fr", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_key", decode(t, rec)["error"])
}
