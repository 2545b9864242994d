package handlers

import (
	"net/http"

	"campus-relay/internal/metrics"
)

type MetricsHandler struct {
	Service *metrics.Service
}

func (h *MetricsHandler) Current(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Service.Current())
}
