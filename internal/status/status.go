package status

import (
	"context"
	"log"
	"time"

	"github.com/ha-tools/portfolio-tracker/internal/models"
)

// TimeSeriesChecker verifies InfluxDB connectivity and database access
type TimeSeriesChecker interface {
	HealthCheck() error
}

// SpreadsheetChecker reports Google Sheets reachability
type SpreadsheetChecker interface {
	Configured() bool
	Status(ctx context.Context) models.ConnectionStatus
}

// Reporter assembles point-in-time health reports for all components.
// Health policy: InfluxDB must be reachable with its database present;
// Google Sheets only affects health when a spreadsheet is configured.
type Reporter struct {
	influx  TimeSeriesChecker
	sheets  SpreadsheetChecker
	version string
}

// NewReporter creates a system status reporter
func NewReporter(influx TimeSeriesChecker, sheets SpreadsheetChecker, version string) *Reporter {
	return &Reporter{
		influx:  influx,
		sheets:  sheets,
		version: version,
	}
}

// SystemStatus checks every component and returns the aggregate report
func (r *Reporter) SystemStatus(ctx context.Context) models.SystemStatus {
	status := models.SystemStatus{
		Healthy: true,
		Components: map[string]bool{
			models.ComponentTracker:      true,
			models.ComponentInfluxDB:     true,
			models.ComponentGoogleSheets: false,
		},
		LastCheck: time.Now(),
		Version:   r.version,
	}

	if err := r.influx.HealthCheck(); err != nil {
		log.Printf("InfluxDB health check failed: %v", err)
		status.Components[models.ComponentInfluxDB] = false
		status.Healthy = false
	}

	if r.sheets.Configured() {
		connected := r.sheets.Status(ctx) == models.StatusConnected
		status.Components[models.ComponentGoogleSheets] = connected
		if !connected {
			status.Healthy = false
		}
	}

	return status
}
