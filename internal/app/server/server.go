// Package server composes the wordclash service: stores, collaborators, the
// match actor runtime, and the HTTP API.
package server

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/louisbranch/wordclash/internal/platform/config"
	httpapi "github.com/louisbranch/wordclash/internal/services/match/api/http"
	"github.com/louisbranch/wordclash/internal/services/match/app"
	"github.com/louisbranch/wordclash/internal/services/match/domain/words"
	matchsqlite "github.com/louisbranch/wordclash/internal/services/match/storage/sqlite"
	"github.com/louisbranch/wordclash/internal/services/player"
	playersqlite "github.com/louisbranch/wordclash/internal/services/player/storage/sqlite"
	"github.com/louisbranch/wordclash/internal/services/stats"
	statssqlite "github.com/louisbranch/wordclash/internal/services/stats/storage/sqlite"
)

// Config is the server's environment configuration.
type Config struct {
	Addr      string        `env:"WORDCLASH_ADDR" envDefault:":8080"`
	DataDir   string        `env:"WORDCLASH_DATA_DIR" envDefault:"data"`
	PackPath  string        `env:"WORDCLASH_PACK_PATH" envDefault:"data/pack.json"`
	JWTSecret string        `env:"WORDCLASH_JWT_SECRET,required"`
	TokenTTL  time.Duration `env:"WORDCLASH_TOKEN_TTL" envDefault:"336h"`

	IdleAfter     time.Duration `env:"WORDCLASH_ENTITY_IDLE_AFTER" envDefault:"10m"`
	SweepInterval time.Duration `env:"WORDCLASH_SWEEP_INTERVAL" envDefault:"1m"`
	WakeInterval  time.Duration `env:"WORDCLASH_WAKE_INTERVAL" envDefault:"15s"`
}

// ConfigFromEnv reads the configuration from the environment.
func ConfigFromEnv() (Config, error) {
	var cfg Config
	if err := config.ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Server owns every long-lived component and tears them down in order.
type Server struct {
	cfg Config

	matchStore  *matchsqlite.Store
	playerStore *playersqlite.Store
	statsStore  *statssqlite.Store

	statsService *stats.Service
	registry     *app.Registry
	scheduler    *app.Scheduler
	hub          *httpapi.Hub
	api          *httpapi.Server
}

// New opens the stores, loads the category pack, and wires the runtime.
func New(cfg Config) (*Server, error) {
	wordsCfg, err := words.Load(cfg.PackPath)
	if err != nil {
		return nil, fmt.Errorf("load category pack: %w", err)
	}
	holder := words.NewHolder(wordsCfg)

	matchStore, err := matchsqlite.Open(filepath.Join(cfg.DataDir, "matches.db"))
	if err != nil {
		return nil, fmt.Errorf("open match store: %w", err)
	}
	playerStore, err := playersqlite.Open(filepath.Join(cfg.DataDir, "players.db"))
	if err != nil {
		matchStore.Close()
		return nil, fmt.Errorf("open player store: %w", err)
	}
	statsStore, err := statssqlite.Open(filepath.Join(cfg.DataDir, "stats.db"))
	if err != nil {
		matchStore.Close()
		playerStore.Close()
		return nil, fmt.Errorf("open stats store: %w", err)
	}

	playerService := player.New(playerStore)
	statsService := stats.New(statsStore)
	hub := httpapi.NewHub()

	registry := app.NewRegistry(app.Deps{
		Store:    matchStore,
		Config:   holder,
		Notifier: hub,
		Players:  playersAdapter{players: playerService},
		Stats:    statsService,
		Scorer:   statsService.Score,
	}, cfg.IdleAfter)

	scheduler := app.NewScheduler(matchStore, registry.Wake, cfg.WakeInterval)
	tokens := httpapi.NewTokenIssuer([]byte(cfg.JWTSecret), cfg.TokenTTL)
	matchmaking := app.NewMatchmaking(registry)
	api := httpapi.New(registry, matchmaking, playerService, matchStore, tokens, hub)

	return &Server{
		cfg:          cfg,
		matchStore:   matchStore,
		playerStore:  playerStore,
		statsStore:   statsStore,
		statsService: statsService,
		registry:     registry,
		scheduler:    scheduler,
		hub:          hub,
		api:          api,
	}, nil
}

// API exposes the HTTP handler, mostly for tests.
func (s *Server) API() *httpapi.Server { return s.api }

// Run serves until ctx is canceled, then drains entities and closes stores.
func (s *Server) Run(ctx context.Context) error {
	log.Printf("server listening at %s", s.cfg.Addr)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	background := make(chan struct{})
	go func() {
		defer close(background)
		s.scheduler.Run(ctx)
	}()
	go s.registry.RunSweeper(ctx, s.cfg.SweepInterval)

	err := s.api.Run(ctx, s.cfg.Addr)
	cancel()
	<-background
	s.Close()
	return err
}

// Close flushes and stops every component.
func (s *Server) Close() {
	s.hub.Close()
	s.registry.Close()
	s.statsService.Close()
	s.matchStore.Close()
	s.playerStore.Close()
	s.statsStore.Close()
}
