package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/chudorm/dormbot/internal/bot"
	"github.com/chudorm/dormbot/internal/config"
	"github.com/chudorm/dormbot/internal/line"
	"github.com/chudorm/dormbot/internal/logging"
	"github.com/chudorm/dormbot/internal/scenario"
	"github.com/chudorm/dormbot/internal/session"
	"github.com/chudorm/dormbot/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// the logger is not configured yet
		boot := logging.New("info", "console")
		boot.Fatal().Err(err).Msg("config")
	}

	log := logging.New(cfg.LogLevel, cfg.LogFormat)

	table, err := scenario.Load(cfg.ScenarioFile)
	if err != nil {
		for _, p := range scenario.Problems(err) {
			log.Error().Str("problem", string(p.Problem)).Str("trigger", p.Trigger).Msg(p.Detail)
		}
		log.Fatal().Err(err).Str("file", cfg.ScenarioFile).Msg("scenario table rejected")
	}
	log.Info().Int("scenarios", table.Len()).Str("file", cfg.ScenarioFile).Msg("scenario table loaded")

	db, err := store.NewBoltStore(filepath.Join(cfg.DataDir, "dormbot.db"))
	if err != nil {
		log.Fatal().Err(err).Msg("store")
	}
	defer db.Close()

	lineClient, err := line.NewClient(cfg.ChannelAccessToken)
	if err != nil {
		log.Fatal().Err(err).Msg("line client")
	}

	sessionMgr := session.NewManager()

	// drop dispatch locks of users who went quiet
	go func() {
		ticker := time.NewTicker(30 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			sessionMgr.Cleanup(1 * time.Hour)
		}
	}()

	botHandler := bot.NewHandler(table, lineClient, db, sessionMgr, log)
	webhookHandler := line.NewWebhookHandler(cfg.ChannelSecret, cfg.BaseURL, botHandler.HandleMessage, log)

	srv := &http.Server{
		Addr: ":" + cfg.Port,
		Handler: newRouter(routes{
			webhook:    webhookHandler,
			failures:   db,
			staticDir:  cfg.StaticDir,
			adminToken: cfg.AdminToken,
			log:        log,
		}),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Bool("admin", cfg.AdminToken != "").Msg("dormbot: listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("dormbot: shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown")
	}
	log.Info().Msg("dormbot: stopped")
}
