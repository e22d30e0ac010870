package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"go.uber.org/zap"

	"github.com/inst346/attendance/internal/config"
	"github.com/inst346/attendance/internal/repository/mongodb"
	"github.com/inst346/attendance/internal/scheduler"
	"github.com/inst346/attendance/internal/server/handlers"
	"github.com/inst346/attendance/internal/server/router"
	attendancesvc "github.com/inst346/attendance/internal/service/attendance"
	statssvc "github.com/inst346/attendance/internal/service/stats"
	"github.com/inst346/attendance/pkg/clients/webhook"
	"github.com/inst346/attendance/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New())
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	store, err := mongodb.NewStore(context.Background(), cfg.MongoDB.URI, cfg.MongoDB.DBName)
	if err != nil {
		baseLogger.Fatal("failed to init mongodb store", zap.Error(err))
	}
	defer func() {
		if err := store.Close(context.Background()); err != nil {
			baseLogger.Error("failed to close mongodb connection", zap.Error(err))
		}
	}()

	if err := store.EnsureIndexes(context.Background()); err != nil {
		baseLogger.Fatal("failed to ensure mongodb indexes", zap.Error(err))
	}

	attendanceSvc, err := attendancesvc.NewService(store.Roster(), store.Attendance(), cfg.Attendance, baseLogger.Named("svc.attendance"))
	if err != nil {
		baseLogger.Fatal("failed to init attendance service", zap.Error(err))
	}

	statsSvc := statssvc.NewService(store.Roster(), store.Attendance(), cfg.Attendance.Sections, baseLogger.Named("svc.stats"))

	attendanceHandler := handlers.NewAttendanceHandler(attendanceSvc, baseLogger.Named("handlers.attendance"))
	statsHandler := handlers.NewStatsHandler(statsSvc, baseLogger.Named("handlers.stats"))
	engine := router.New(attendanceHandler, statsHandler, cfg.Admin, baseLogger.Named("router"))

	// The summary job is optional; without a webhook URL there is nowhere
	// to post.
	if cfg.Summary.WebhookURL != "" {
		location, err := time.LoadLocation(cfg.Attendance.Timezone)
		if err != nil {
			baseLogger.Fatal("failed to load timezone", zap.Error(err))
		}

		notifier := webhook.NewClient(cfg.Summary.WebhookURL)
		sched := scheduler.NewScheduler(cfg.Summary, location, statsSvc, notifier, baseLogger.Named("scheduler"))
		sched.Start()
		defer sched.Stop()
	} else {
		baseLogger.Info("summary webhook not configured, weekly summary disabled")
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}
