package api

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/ha-tools/portfolio-tracker/internal/analytics"
	"github.com/ha-tools/portfolio-tracker/internal/models"
)

// SnapshotSource exposes the coordinator's published snapshot
type SnapshotSource interface {
	Snapshot() *models.Snapshot
	Healthy() bool
}

// Synchronizer triggers one spreadsheet-to-InfluxDB sync
type Synchronizer interface {
	Sync(ctx context.Context) models.SyncResult
}

// AnalyticsRunner runs rolling-window analytics
type AnalyticsRunner interface {
	Run(days int) (models.AnalyticsResult, error)
}

// StatusReporter assembles component health reports
type StatusReporter interface {
	SystemStatus(ctx context.Context) models.SystemStatus
}

// EventPublisher emits completion notifications for each operation
type EventPublisher interface {
	PublishSyncCompleted(ctx context.Context, result models.SyncResult) error
	PublishAnalyticsCompleted(ctx context.Context, result models.AnalyticsResult) error
	PublishStatusRetrieved(ctx context.Context, status models.SystemStatus) error
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	snapshots SnapshotSource
	syncer    Synchronizer
	analytics AnalyticsRunner
	status    StatusReporter
	producer  EventPublisher
}

// NewHandler creates a new Handler. producer may be nil to disable
// completion events.
func NewHandler(snapshots SnapshotSource, syncer Synchronizer, analytics AnalyticsRunner, status StatusReporter, producer EventPublisher) *Handler {
	return &Handler{
		snapshots: snapshots,
		syncer:    syncer,
		analytics: analytics,
		status:    status,
		producer:  producer,
	}
}

// GetSnapshot handles GET /api/v1/snapshot
func (h *Handler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	snap := h.snapshots.Snapshot()
	if snap == nil {
		http.Error(w, "no portfolio data available yet", http.StatusServiceUnavailable)
		return
	}
	respondJSON(w, http.StatusOK, snap)
}

// TriggerSync handles POST /api/v1/sync
func (h *Handler) TriggerSync(w http.ResponseWriter, r *http.Request) {
	result := h.syncer.Sync(r.Context())

	if h.producer != nil {
		if err := h.producer.PublishSyncCompleted(r.Context(), result); err != nil {
			log.Printf("Failed to publish sync event: %v", err)
		}
	}

	respondJSON(w, http.StatusOK, result)
}

// RunAnalytics handles POST /api/v1/analytics
func (h *Handler) RunAnalytics(w http.ResponseWriter, r *http.Request) {
	req := struct {
		Days int `json:"days"`
	}{Days: 30}

	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
	}
	if req.Days < analytics.MinDays || req.Days > analytics.MaxDays {
		http.Error(w, "days must be between 1 and 365", http.StatusBadRequest)
		return
	}

	result, err := h.analytics.Run(req.Days)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if h.producer != nil {
		if err := h.producer.PublishAnalyticsCompleted(r.Context(), result); err != nil {
			log.Printf("Failed to publish analytics event: %v", err)
		}
	}

	respondJSON(w, http.StatusOK, result)
}

// GetStatus handles GET /api/v1/status
func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	status := h.status.SystemStatus(r.Context())

	if h.producer != nil {
		if err := h.producer.PublishStatusRetrieved(r.Context(), status); err != nil {
			log.Printf("Failed to publish status event: %v", err)
		}
	}

	respondJSON(w, http.StatusOK, status)
}

// HealthCheck handles GET /health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if !h.snapshots.Healthy() {
		respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
