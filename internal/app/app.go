package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"trafficsignal/internal/config"
	"trafficsignal/internal/logger"
	"trafficsignal/internal/models"
	"trafficsignal/internal/repository"
	"trafficsignal/internal/repository/sqlite"
	"trafficsignal/internal/routes"
	"trafficsignal/internal/services/pipeline"
	"trafficsignal/internal/services/reporter"
	"trafficsignal/internal/services/source"
	"trafficsignal/internal/services/timing"
	"trafficsignal/internal/services/vision"
	"trafficsignal/internal/services/websocket"
	"trafficsignal/internal/services/zones"
)

const shutdownTimeout = 5 * time.Second

type App struct {
	config     *config.Config
	logger     *logger.Logger
	pipeline   *pipeline.Pipeline
	status     *pipeline.Status
	hubService *websocket.HubService
	engine     *timing.Engine
	reporter   *reporter.Reporter
	zones      *zones.Table
	server     *http.Server
}

// NewApp builds every component. Failing to load the detector or to open the
// frame source is a startup fault and returns an error.
func NewApp(cfg *config.Config, logger *logger.Logger) (*App, error) {
	stored, err := loadStoredZones(cfg.ZonesDB)
	if err != nil {
		return nil, err
	}
	table, err := zones.FromConfig(cfg, stored)
	if err != nil {
		return nil, fmt.Errorf("failed to build zone table: %w", err)
	}
	for _, z := range table.Zones() {
		logger.Info("Zone %s: %s", z.Name, z.Rect)
	}

	engine, err := timing.NewEngineFromConfig(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create timing engine: %w", err)
	}

	detector, err := vision.NewObjectDetector(cfg)
	if err != nil {
		engine.Close()
		return nil, fmt.Errorf("failed to create object detector: %w", err)
	}
	logger.Info("Object detector: %s (min area %.1f)", detector.Name(), cfg.ScaledMinArea())

	src, err := source.Open(cfg, logger)
	if err != nil {
		detector.Close()
		engine.Close()
		return nil, fmt.Errorf("failed to open frame source: %w", err)
	}

	hub := websocket.NewHubService(logger)
	status := pipeline.NewStatus()
	rep := reporter.NewFromConfig(cfg, logger)

	p := pipeline.New(pipeline.Components{
		Source:     src,
		Extractor:  vision.NewForegroundExtractor(vision.ForegroundParamsFrom(cfg)),
		Detector:   detector,
		Zones:      table,
		Engine:     engine,
		Reporter:   rep,
		Publishers: []pipeline.SnapshotPublisher{status, hub},
	}, pipeline.OptionsFrom(cfg), logger)

	router := routes.SetupRoutes(routes.Services{
		Status:   status,
		Pipeline: p,
		Hub:      hub,
		Engine:   engine,
		Reporter: rep,
		Zones:    table,
	}, logger)

	return &App{
		config:     cfg,
		logger:     logger,
		pipeline:   p,
		status:     status,
		hubService: hub,
		engine:     engine,
		reporter:   rep,
		zones:      table,
		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Port),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}, nil
}

// loadStoredZones reads calibrated zones once. An empty path means no store.
func loadStoredZones(path string) (map[models.ZoneName]models.Rect, error) {
	if path == "" {
		return nil, nil
	}
	db, err := sqlite.New(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open zone store: %w", err)
	}
	defer db.Close()

	return readZones(sqlite.NewZoneRepository(db))
}

func readZones(repo repository.ZoneRepository) (map[models.ZoneName]models.Rect, error) {
	stored, err := repo.GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to load zones: %w", err)
	}
	return stored, nil
}

// Run serves the status API and drives the pipeline until ctx is done, the
// source is exhausted or the HTTP server fails.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer a.engine.Close()

	go a.hubService.Run(ctx)

	serverErr := make(chan error, 1)
	go func() {
		a.logger.Info("Status API listening on %s", a.server.Addr)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	pipelineErr := make(chan error, 1)
	go func() {
		pipelineErr <- a.pipeline.Run(ctx)
	}()

	var runErr error
	select {
	case err := <-pipelineErr:
		runErr = err
	case err := <-serverErr:
		runErr = fmt.Errorf("failed to serve status API: %w", err)
		cancel()
		<-pipelineErr
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.logger.Warning("Status API shutdown: %v", err)
	}

	stats := a.reporter.Stats()
	a.logger.Info("Stopped: %d reports attempted, %d failed, %d predictor fallbacks",
		stats.Attempted, stats.Failed, a.engine.Fallbacks())
	return runErr
}
