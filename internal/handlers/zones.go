package handlers

import (
	"net/http"

	"trafficsignal/internal/logger"
	"trafficsignal/internal/services/zones"
)

// ZonesHandler lists the zone rectangles the pipeline counts in.
func ZonesHandler(table *zones.Table, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, logger, http.StatusOK, table.Zones())
	}
}
