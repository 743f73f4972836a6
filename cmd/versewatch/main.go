// Command versewatch runs the product drop monitor: a Telegram bot for
// per-user configuration and on-demand checks, a scheduler that sweeps all
// authorized users on an interval, and a read-only ops HTTP API for health,
// status, and delivery history.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/plugin/opentelemetry/tracing"

	"github.com/averma/versewatch/internal/bot"
	"github.com/averma/versewatch/internal/config"
	httpapi "github.com/averma/versewatch/internal/http"
	"github.com/averma/versewatch/internal/observability"
	"github.com/averma/versewatch/internal/repo"
	"github.com/averma/versewatch/internal/scheduler"
	"github.com/averma/versewatch/internal/services"
	"github.com/averma/versewatch/internal/session"
	"github.com/averma/versewatch/internal/shein"
	"github.com/averma/versewatch/internal/sysutil"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.MustLoad()

	sysutil.SetLogLevel(cfg.LogLevel)
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if cfg.LogPretty || sysutil.IsTruthy(os.Getenv("DEV")) {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	version := sysutil.FirstNonEmpty(os.Getenv("VERSEWATCH_VERSION"), "dev")
	log.Info().Str("version", version).Msg("starting versewatch")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup failed")
	}

	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open database failed")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}
	if cfg.OTEL.Enabled {
		if err := db.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
			log.Fatal().Err(err).Msg("gorm tracing plugin failed")
		}
	}

	client, err := shein.NewClient(shein.Options{
		BaseURL:          cfg.StorefrontURL,
		ProxyURL:         cfg.Proxy.URL,
		DomesticProxyURL: cfg.Proxy.DomesticURL,
		DomesticDirect:   cfg.Proxy.DomesticDirect,
		ProxyUsername:    cfg.Proxy.Username,
		ProxyPassword:    cfg.Proxy.Password,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("storefront client failed")
	}
	if !client.CanCheckAvailability() {
		log.Warn().Msg("no domestic route configured; availability probe disabled")
	}

	store := repo.Gateway{}
	sessions := session.NewRegistry()

	userSvc := &services.UserService{DB: db, Store: store, Auth: client, Sessions: sessions}
	checkSvc := &services.CheckService{
		DB:        db,
		Store:     store,
		Catalog:   client,
		Sessions:  sessions,
		Freshness: cfg.CacheFreshness,
		MaxSeen:   cfg.MaxSeen,
		Log:       log.Logger,
	}

	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		log.Fatal().Err(err).Msg("telegram auth failed")
	}
	log.Info().Str("bot", api.Self.UserName).Int("users", len(cfg.AuthorizedUsers)).Msg("telegram connected")

	b := bot.New(api, userSvc, checkSvc, cfg.AuthorizedUsers, cfg.CheckInterval, log.Logger)
	b.Notifier = services.NewNotifier(db, store, b, cfg.NotifyDelay, log.Logger)

	poller := scheduler.New(cfg.AuthorizedUsers, cfg.CheckInterval, cfg.InitialDelay, func(ctx context.Context, userID int64) {
		b.RunCheck(ctx, userID, true)
	}, log.Logger)
	b.NextRun = poller.NextRun

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	httpapi.RegisterRoutes(r, db, cfg, httpapi.Options{
		StartedAt: time.Now(),
		Users:     len(cfg.AuthorizedUsers),
		NextRun:   poller.NextRun,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("ops server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("ops server failed")
			stop()
		}
	}()

	poller.Start(ctx)

	// The update loop blocks until ctx is cancelled.
	b.Run(ctx)

	log.Info().Msg("shutting down")
	poller.Stop()

	shCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shCtx); err != nil {
		log.Error().Err(err).Msg("ops server shutdown")
	}
	if err := shutdownOTel(shCtx); err != nil {
		log.Error().Err(err).Msg("otel shutdown")
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Info().Msg("bye")
}
