package routes

import (
	"net/http"

	"github.com/gorilla/mux"

	"trafficsignal/internal/handlers"
	"trafficsignal/internal/logger"
	"trafficsignal/internal/middleware"
	"trafficsignal/internal/services/pipeline"
	"trafficsignal/internal/services/reporter"
	"trafficsignal/internal/services/timing"
	"trafficsignal/internal/services/websocket"
	"trafficsignal/internal/services/zones"
)

// Services are the read-side collaborators exposed over HTTP.
type Services struct {
	Status   *pipeline.Status
	Pipeline *pipeline.Pipeline
	Hub      *websocket.HubService
	Engine   *timing.Engine
	Reporter *reporter.Reporter
	Zones    *zones.Table
}

var logFiles = map[string]string{
	"info":    logger.InfoFile,
	"warning": logger.WarningFile,
	"error":   logger.ErrorFile,
}

// SetupRoutes registers the status API, the live view and the log endpoints.
func SetupRoutes(svc Services, logger *logger.Logger) http.Handler {
	r := mux.NewRouter()

	// API endpoints
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/counts", handlers.CountsHandler(svc.Status, logger)).Methods(http.MethodGet)
	api.HandleFunc("/zones", handlers.ZonesHandler(svc.Zones, logger)).Methods(http.MethodGet)
	api.HandleFunc("/view", handlers.ViewWebsocketHandler(svc.Hub, logger)).Methods(http.MethodGet)
	api.HandleFunc("/signal-timings", handlers.SignalTimingsHandler(svc.Engine, logger)).Methods(http.MethodPost)
	if svc.Pipeline != nil {
		api.HandleFunc("/recalibrate", handlers.RecalibrateHandler(svc.Pipeline, logger)).Methods(http.MethodPost)
	}

	r.HandleFunc("/healthz", handlers.HealthHandler(svc.Status, svc.Reporter, svc.Engine, svc.Hub, logger)).Methods(http.MethodGet)

	// Log endpoints
	for level, file := range logFiles {
		r.HandleFunc("/logs/"+level, handlers.ShowLogsHandler(logger, file)).Methods(http.MethodGet)
		r.HandleFunc("/logs/"+level+"/clear", handlers.ClearLogsHandler(logger, file)).Methods(http.MethodPost)
	}

	// Wrapped outside the router so unmatched paths and methods are logged too.
	return middleware.RequestLogger(logger)(r)
}
