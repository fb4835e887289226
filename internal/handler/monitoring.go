package handler

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"banking-core/internal/model"
	"banking-core/internal/monitoring"
)

// MonitoringHandler exposes the in-memory operation metrics.
type MonitoringHandler struct {
	registry *monitoring.Registry
	logger   *logrus.Logger
}

func NewMonitoringHandler(registry *monitoring.Registry, logger *logrus.Logger) *MonitoringHandler {
	return &MonitoringHandler{registry: registry, logger: logger}
}

func (h *MonitoringHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/summary", h.Summary).Methods(http.MethodGet)
	router.HandleFunc("/stats", h.Stats).Methods(http.MethodGet)
	router.HandleFunc("/modules/{module}", h.Module).Methods(http.MethodGet)
}

func (h *MonitoringHandler) Summary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.logger, http.StatusOK, h.registry.Summary())
}

func (h *MonitoringHandler) Stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.logger, http.StatusOK, h.registry.Modules())
}

func (h *MonitoringHandler) Module(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["module"]
	stats, ok := h.registry.Module(name)
	if !ok {
		writeError(w, h.logger, fmt.Errorf("%w: no metrics for module %q", model.ErrNotFound, name), "Unknown monitoring module")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, stats)
}
