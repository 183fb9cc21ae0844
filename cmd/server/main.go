package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/dairy-advisor/internal/config"
	"github.com/mamadbah2/dairy-advisor/internal/repository/sheets"
	"github.com/mamadbah2/dairy-advisor/internal/scheduler"
	"github.com/mamadbah2/dairy-advisor/internal/server/handlers"
	"github.com/mamadbah2/dairy-advisor/internal/server/router"
	"github.com/mamadbah2/dairy-advisor/internal/service/advisor"
	"github.com/mamadbah2/dairy-advisor/internal/service/commands"
	"github.com/mamadbah2/dairy-advisor/internal/service/metrics"
	"github.com/mamadbah2/dairy-advisor/internal/session"
	"github.com/mamadbah2/dairy-advisor/pkg/clients/alerts"
	"github.com/mamadbah2/dairy-advisor/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New())
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	thresholds := metrics.Thresholds{
		Emissions:             cfg.Engine.EmissionsThreshold,
		CostPerLitre:          cfg.Engine.CostPerLitreThreshold,
		OperationalEfficiency: cfg.Engine.OperationalEfficiencyFloor,
		NitrogenEfficiency:    cfg.Engine.NitrogenEfficiencyFloor,
		ProteinEfficiency:     cfg.Engine.ProteinEfficiencyFloor,
	}

	engine := metrics.NewEngine(metrics.DefaultBaseline(), thresholds)
	advisorEngine := advisor.NewEngine(engine, baseLogger.Named("svc.advisor"))
	trendSim := metrics.NewTrendSimulator(nil)
	interpreter := commands.NewInterpreter(trendSim, baseLogger.Named("svc.commands"))
	store := session.NewStore(engine, advisorEngine, trendSim, interpreter, baseLogger.Named("session"))

	sessionHandler := handlers.NewSessionHandler(store, cfg.Session, baseLogger.Named("handlers.session"))
	engineRouter := router.New(sessionHandler, baseLogger.Named("router"))

	// Digest export and webhook alerts are both optional legs of the scheduler.
	var exporter sheets.Exporter
	if cfg.SheetsEnabled() {
		exporter, err = sheets.NewGoogleSheetExporter(context.Background(), cfg.Sheets, baseLogger.Named("repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets exporter", zap.Error(err))
		}
		baseLogger.Info("google sheets digest export enabled")
	} else {
		baseLogger.Warn("sheets credentials missing, digest export disabled")
	}

	var alertClient alerts.Client
	if cfg.Alerts.WebhookURL != "" {
		alertClient = alerts.NewWebhookClient(cfg.Alerts.WebhookURL)
		baseLogger.Info("advisory webhook alerts enabled")
	} else {
		baseLogger.Warn("advisory webhook url missing, alerts disabled")
	}

	sched := scheduler.NewScheduler(cfg.Digest, store, exporter, alertClient, baseLogger.Named("scheduler"))
	sched.Start()
	defer sched.Stop()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engineRouter,
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
