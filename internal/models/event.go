package models

import "time"

// Completion event types published to Kafka after each operation
const (
	EventPortfolioUpdated   = "portfolio_tracker_updated"
	EventAnalyticsCompleted = "portfolio_analytics_completed"
	EventStatusRetrieved    = "portfolio_status_retrieved"
)

// CompletionEvent is a notification emitted when an operation finishes
type CompletionEvent struct {
	EventType string      `json:"event_type"`
	Status    string      `json:"status"` // success or error
	Payload   interface{} `json:"payload,omitempty"`
	Error     string      `json:"error,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}
