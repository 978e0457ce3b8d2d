package main

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	waitressx "github.com/parlaplate/parlaplate/agent/agents/waitress"
	llmx "github.com/parlaplate/parlaplate/agent/llm"
	menux "github.com/parlaplate/parlaplate/agent/menu"
	searchx "github.com/parlaplate/parlaplate/agent/search"
	statex "github.com/parlaplate/parlaplate/agent/state"
	configx "github.com/parlaplate/parlaplate/pkg/config"
	_ "github.com/parlaplate/parlaplate/pkg/logger/autoload"
	serverx "github.com/parlaplate/parlaplate/server"
)

type AppConfig struct {
	Port        string        `envconfig:"PORT" default:"8080"`
	MenuDir     string        `envconfig:"MENU_DIR" default:"./menus"`
	CacheDir    string        `envconfig:"CACHE_DIR" default:"./.cache/embeddings"`
	SessionTTL  time.Duration `envconfig:"SESSION_TTL" default:"24h"`
	TurnTimeout time.Duration `envconfig:"TURN_TIMEOUT" default:"60s"`
}

func main() {
	ctx := context.Background()

	appCfg := configx.MustNew[AppConfig]("APP")
	llmCfg := configx.MustNew[llmx.Config]("OPENAI")

	library, err := menux.LoadDir(appCfg.MenuDir)
	if err != nil {
		log.Fatal().Err(err).Str("dir", appCfg.MenuDir).Msg("load menus")
	}
	if len(library.List()) == 0 {
		log.Fatal().Str("dir", appCfg.MenuDir).Msg("no restaurant profiles found")
	}

	models, err := llmx.NewRegistry(ctx, *llmCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("build model registry")
	}

	engine, err := searchx.NewPersistentEngine(models.Embedder(), appCfg.CacheDir)
	if err != nil {
		log.Fatal().Err(err).Msg("build search engine")
	}

	store := statex.NewMemoryStore(statex.WithTTL(appCfg.SessionTTL))

	waitress, err := waitressx.New(store, models, engine, library, waitressx.Config{
		TurnTimeout: appCfg.TurnTimeout,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("build waitress service")
	}

	srv, err := serverx.New(serverx.Config{Port: appCfg.Port}, waitress, library)
	if err != nil {
		log.Fatal().Err(err).Msg("build server")
	}

	for _, r := range library.List() {
		log.Info().Str("restaurant", r.ID).Int("items", len(r.Items)).Msg("menu loaded")
	}

	if err := srv.Run(); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
