package handlers

import (
	"net/http"

	"trafficsignal/internal/logger"
	"trafficsignal/internal/models"
	"trafficsignal/internal/services/reporter"
	"trafficsignal/internal/services/timing"
)

// SnapshotSource provides the latest pipeline snapshot.
type SnapshotSource interface {
	Latest() models.Snapshot
}

// CountsHandler serves the latest zone counts and green times.
func CountsHandler(status SnapshotSource, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, logger, http.StatusOK, status.Latest())
	}
}

type healthResponse struct {
	Status             string         `json:"status"`
	PipelineID         string         `json:"pipeline_id"`
	FrameSeq           uint64         `json:"frame_seq"`
	Calibrated         bool           `json:"calibrated"`
	Reporter           reporter.Stats `json:"reporter"`
	ReportInterval     float64        `json:"report_interval_seconds"`
	FeatureContract    string         `json:"feature_contract"`
	PredictorFallbacks uint64         `json:"predictor_fallbacks"`
	Viewers            int            `json:"viewers"`
}

// ViewerCounter reports connected live viewers.
type ViewerCounter interface {
	GetClientCount() int
}

// HealthHandler reports liveness together with delivery and prediction counters.
func HealthHandler(status SnapshotSource, rep *reporter.Reporter, engine *timing.Engine, viewers ViewerCounter, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap := status.Latest()
		resp := healthResponse{
			Status:     "ok",
			PipelineID: snap.PipelineID,
			FrameSeq:   snap.FrameSeq,
			Calibrated: snap.Calibrated,
		}
		if rep != nil {
			resp.Reporter = rep.Stats()
			resp.ReportInterval = rep.Interval().Seconds()
		}
		if engine != nil {
			resp.PredictorFallbacks = engine.Fallbacks()
			resp.FeatureContract = string(engine.Contract())
		}
		if viewers != nil {
			resp.Viewers = viewers.GetClientCount()
		}
		writeJSON(w, logger, http.StatusOK, resp)
	}
}

// Recalibrator restarts background learning.
type Recalibrator interface {
	RequestRecalibration()
}

// RecalibrateHandler schedules a background model reset, e.g. after the
// camera was moved. The pipeline performs it before its next frame.
func RecalibrateHandler(p Recalibrator, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p.RequestRecalibration()
		logger.Info("Recalibration requested from %s", r.RemoteAddr)
		w.WriteHeader(http.StatusAccepted)
	}
}
