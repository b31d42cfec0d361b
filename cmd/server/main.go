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

	"dayplan/internal/coaching"
	"dayplan/internal/config"
	"dayplan/internal/db"
	"dayplan/internal/handler"
	"dayplan/internal/logging"
	"dayplan/internal/repository"
	"dayplan/internal/router"
	"dayplan/internal/service"
	"dayplan/internal/sweeper"
	"dayplan/migrations"
)

func main() {
	cfg, err := config.Load()
	logger := logging.New("info", false, os.Stderr)
	if err != nil {
		logger.Fatal().Err(err).Msg("load config")
	}
	logger = logging.New(cfg.LogLevel, cfg.LogConsole, os.Stderr)
	gin.SetMode(gin.ReleaseMode)

	database, err := db.OpenSQLite(cfg.DBPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("open database")
	}
	defer database.Close()

	if err := db.RunMigrations(database, db.MigrationSource(cfg.MigrationsDir, migrations.Files)); err != nil {
		logger.Fatal().Err(err).Msg("run migrations")
	}

	scheduleRepo := repository.NewScheduleRepository(database)
	advisor := coaching.NewAdvisor(nil,
		coaching.WithRateLimit(cfg.TipsRatePerMinute),
		coaching.WithLogger(logger.With().Str("component", "coaching").Logger()),
	)
	scheduleService := service.NewScheduleService(scheduleRepo,
		service.WithPolicy(cfg.Breaks),
		service.WithLocation(cfg.Location()),
		service.WithAdvisor(advisor),
		service.WithLogger(logger.With().Str("component", "service").Logger()),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sweep := sweeper.New(sweeper.Config{
		StaleAfter: cfg.StaleAfter,
		Schedule:   cfg.SweepSchedule,
		Location:   cfg.Location(),
	}, scheduleService, logger.With().Str("component", "sweeper").Logger())
	if err := sweep.Start(ctx); err != nil {
		logger.Fatal().Err(err).Msg("start sweeper")
	}
	defer sweep.Stop()

	scheduleHandler := handler.NewScheduleHandler(scheduleService)
	itemHandler := handler.NewItemHandler(scheduleService)
	engine := router.New(scheduleHandler, itemHandler, logger.With().Str("component", "http").Logger(), cfg.CORSOrigins)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info().Str("port", cfg.Port).Msg("dayplan listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("run server")
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("shutdown server")
	}
	logger.Info().Msg("dayplan stopped")
}
