// apps/go-server/main.go
//
// Entry point for the vino backend.
// Startup order: config → logging → word list → database → services → HTTP.

package main

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/vino/apps/go-server/internal/config"
	"github.com/robalobadob/vino/apps/go-server/internal/db"
	"github.com/robalobadob/vino/apps/go-server/internal/httpserver"
	"github.com/robalobadob/vino/apps/go-server/internal/store"
	"github.com/robalobadob/vino/apps/go-server/internal/swirdle"
	"github.com/robalobadob/vino/apps/go-server/internal/translation"
	"github.com/robalobadob/vino/apps/go-server/internal/words"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	if err := words.Init(); err != nil {
		log.Fatal().Err(err).Msg("failed to load word list")
	}

	conn, err := db.OpenAndMigrate(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DatabasePath).Msg("open database")
	}
	defer conn.Close()

	game := swirdle.NewService(store.NewSQLiteStore(conn), words.Fallback(cfg.DailySalt))
	translations := translation.NewService(translation.NewSQLSource(conn), translationCache(cfg))

	srv := httpserver.New(cfg, httpserver.Deps{DB: conn, Swirdle: game, Translations: translations})
	log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Int("fallback_words", words.Count()).Msg("starting go-server")
	if err := srv.Start(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

// translationCache uses Redis when configured and reachable, else process memory.
func translationCache(cfg config.Config) translation.Cache {
	if cfg.RedisAddr == "" {
		return translation.NewMemoryCache(translation.DefaultMemoryCapacity)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	client, err := translation.DialRedis(ctx, cfg.RedisAddr)
	if err != nil {
		log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unavailable, using memory translation cache")
		return translation.NewMemoryCache(translation.DefaultMemoryCapacity)
	}
	return translation.NewRedisCache(client, cfg.TranslationCacheTTL)
}
