package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"trafficsignal/internal/logger"
	"trafficsignal/internal/models"
	"trafficsignal/internal/services/timing"
)

type signalTimingsRequest struct {
	NSVehicles *int `json:"ns_vehicles"`
	EWVehicles *int `json:"ew_vehicles"`
}

// SignalTimingsHandler accepts axis counts and answers with a full signal
// cycle. Green times come from the timing engine; amber is fixed and each
// axis is red while the other shows green and amber.
func SignalTimingsHandler(engine *timing.Engine, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req signalTimingsRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
			writeError(w, logger, http.StatusBadRequest, "Invalid JSON body")
			return
		}
		if req.NSVehicles == nil || req.EWVehicles == nil {
			writeError(w, logger, http.StatusBadRequest, "Missing vehicle counts")
			return
		}
		if *req.NSVehicles < 0 || *req.EWVehicles < 0 {
			writeError(w, logger, http.StatusBadRequest, "Vehicle counts must not be negative")
			return
		}

		timings := engine.ComputeAxes(r.Context(), *req.NSVehicles, *req.EWVehicles, time.Now())
		plan := models.NewSignalPlan(timings.NS, timings.EW)

		logger.Info("Signal plan for ns=%d ew=%d: green %ds/%ds",
			*req.NSVehicles, *req.EWVehicles, timings.NS, timings.EW)
		writeJSON(w, logger, http.StatusOK, plan)
	}
}
