package http

import (
	"encoding/json"
	"net/http"

	"github.com/m-mizutani/odcsfetch/pkg/domain/model"
	"github.com/m-mizutani/odcsfetch/pkg/domain/types"
	"github.com/m-mizutani/odcsfetch/pkg/utils/logging"
)

// handleHealth handles health check requests
func handleHealth(w http.ResponseWriter, r *http.Request) {
	status := &model.HealthStatus{
		Status:  "healthy",
		Service: "odcsfetch",
		Version: types.Version,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(status); err != nil {
		logging.From(r.Context()).Error("Failed to encode health response", "error", err)
	}
}
