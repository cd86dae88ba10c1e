package api

import (
	"github.com/gorilla/mux"
)

// SetupRoutes configures all API routes
func SetupRoutes(handler *Handler) *mux.Router {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", handler.HealthCheck).Methods("GET")

	// Portfolio routes
	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/snapshot", handler.GetSnapshot).Methods("GET")
	api.HandleFunc("/sync", handler.TriggerSync).Methods("POST")
	api.HandleFunc("/analytics", handler.RunAnalytics).Methods("POST")
	api.HandleFunc("/status", handler.GetStatus).Methods("GET")

	return r
}
