package models

import "time"

// Component names reported in SystemStatus.Components
const (
	ComponentTracker      = "portfolio_tracker"
	ComponentInfluxDB     = "influxdb"
	ComponentGoogleSheets = "google_sheets"
)

// SystemStatus is a point-in-time health report for all components.
// Overall health requires InfluxDB connectivity and database access;
// Google Sheets only degrades health when a spreadsheet is configured
// and its check fails.
type SystemStatus struct {
	Healthy    bool            `json:"system_healthy"`
	Components map[string]bool `json:"components"`
	LastCheck  time.Time       `json:"last_check"`
	Version    string          `json:"version"`
	Error      string          `json:"error,omitempty"`
}
