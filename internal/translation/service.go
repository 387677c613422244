// apps/go-server/internal/translation/service.go
//
// Translation lookup and storage.
// Responsibilities:
//   - Read-through lookups: cache first, then the durable Source.
//   - Writes go to the Source, then drop the cached copy.
//
// Every key change bumps a per-key generation; a lookup only fills the cache
// if no write landed while it was loading, so a slow read never re-caches an
// overwritten body.

package translation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// ErrNotFound is returned when no translation exists for a key.
var ErrNotFound = errors.New("translation: not found")

// ErrInvalidKey is returned when a key has an empty component or contains ':'.
var ErrInvalidKey = errors.New("translation: invalid key")

// Translation is one stored translated body.
type Translation struct {
	Key
	Body      string    `json:"body"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Source is the durable store behind the cache.
type Source interface {
	Load(ctx context.Context, k Key) (*Translation, error)
	Save(ctx context.Context, t Translation) error
}

// Service reads through a Cache and invalidates it on every write.
type Service struct {
	src   Source
	cache Cache
	now   func() time.Time

	mu  sync.Mutex        // orders cache fills against invalidations
	gen map[string]uint64 // bumped on every Save
}

// NewService wires src and cache. A nil cache disables caching.
func NewService(src Source, cache Cache) *Service {
	return &Service{src: src, cache: cache, now: func() time.Time { return time.Now().UTC() }, gen: make(map[string]uint64)}
}

// NormalizeKey lowercases type and language and validates every component.
// ':' is the cache key separator and is not allowed inside a component.
func NormalizeKey(k Key) (Key, error) {
	k.ContentType = strings.ToLower(strings.TrimSpace(k.ContentType))
	k.ContentID = strings.TrimSpace(k.ContentID)
	k.Lang = strings.ToLower(strings.TrimSpace(k.Lang))
	for _, part := range []string{k.ContentType, k.ContentID, k.Lang} {
		if part == "" || strings.Contains(part, ":") {
			return Key{}, ErrInvalidKey
		}
	}
	return k, nil
}

// Lookup returns the body for k, consulting the cache first. Cache failures are
// logged and fall through to the source.
func (s *Service) Lookup(ctx context.Context, k Key) (string, error) {
	k, err := NormalizeKey(k)
	if err != nil {
		return "", err
	}
	if s.cache != nil {
		body, ok, err := s.cache.Get(ctx, k)
		if err != nil {
			log.Warn().Err(err).Str("key", k.String()).Msg("translation cache get")
		} else if ok {
			return body, nil
		}
	}
	g := s.generation(k)
	t, err := s.src.Load(ctx, k)
	if err != nil {
		return "", fmt.Errorf("load translation: %w", err)
	}
	if t == nil {
		return "", ErrNotFound
	}
	if s.cache != nil {
		s.fill(ctx, k, g, t.Body)
	}
	return t.Body, nil
}

// Save writes body for k and drops any cached copy.
func (s *Service) Save(ctx context.Context, k Key, body string) (Translation, error) {
	k, err := NormalizeKey(k)
	if err != nil {
		return Translation{}, err
	}
	t := Translation{Key: k, Body: body, UpdatedAt: s.now()}
	if err := s.src.Save(ctx, t); err != nil {
		return Translation{}, fmt.Errorf("save translation: %w", err)
	}
	s.mu.Lock()
	s.gen[k.String()]++
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, k); err != nil {
			log.Warn().Err(err).Str("key", k.String()).Msg("translation cache invalidate")
		}
	}
	s.mu.Unlock()
	return t, nil
}

func (s *Service) generation(k Key) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen[k.String()]
}

// fill caches body unless k was written since generation g was read.
func (s *Service) fill(ctx context.Context, k Key, g uint64, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen[k.String()] != g {
		return
	}
	if err := s.cache.Set(ctx, k, body); err != nil {
		log.Warn().Err(err).Str("key", k.String()).Msg("translation cache set")
	}
}

// SQLSource stores translations in the translations table.
type SQLSource struct{ db *sql.DB }

// NewSQLSource wraps a migrated database handle.
func NewSQLSource(db *sql.DB) *SQLSource { return &SQLSource{db: db} }

func (s *SQLSource) Load(ctx context.Context, k Key) (*Translation, error) {
	var (
		t       = Translation{Key: k}
		updated string
	)
	err := s.db.QueryRowContext(ctx, `
        SELECT body, updated_at FROM translations
        WHERE content_type=? AND content_id=? AND lang=?`,
		k.ContentType, k.ContentID, k.Lang,
	).Scan(&t.Body, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	t.UpdatedAt, _ = time.Parse(time.RFC3339, updated)
	return &t, nil
}

func (s *SQLSource) Save(ctx context.Context, t Translation) error {
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO translations (content_type, content_id, lang, body, updated_at)
        VALUES (?, ?, ?, ?, ?)
        ON CONFLICT(content_type, content_id, lang) DO UPDATE SET
            body=excluded.body, updated_at=excluded.updated_at`,
		t.ContentType, t.ContentID, t.Lang, t.Body, t.UpdatedAt.UTC().Format(time.RFC3339),
	)
	return err
}
