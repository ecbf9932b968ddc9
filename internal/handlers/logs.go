package handlers

import (
	"net/http"
	"os"
	"path/filepath"

	"trafficsignal/internal/logger"
)

// ShowLogsHandler serves one of the per-level log files as plain text.
func ShowLogsHandler(l *logger.Logger, fileName string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if l.Dir() == "" {
			http.Error(w, "File logging disabled", http.StatusNotFound)
			return
		}
		filePath := filepath.Join(l.Dir(), fileName)

		if _, err := os.Stat(filePath); os.IsNotExist(err) {
			http.Error(w, "Log file not found: "+fileName, http.StatusNotFound)
			return
		}

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("Cache-Control", "no-cache")
		http.ServeFile(w, r, filePath)
	}
}

// ClearLogsHandler truncates one of the per-level log files.
func ClearLogsHandler(l *logger.Logger, fileName string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := l.CleanLogs(fileName); err != nil {
			l.Error("Failed to clear %s: %v", fileName, err)
			http.Error(w, "Failed to clear log", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
