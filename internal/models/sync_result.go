package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// WritePoint is a single time-series write destined for InfluxDB
type WritePoint struct {
	Measurement string
	Tags        map[string]string
	Fields      map[string]interface{}
	Time        time.Time
}

// SyncResult is the outcome of one spreadsheet-to-InfluxDB synchronization
type SyncResult struct {
	Success        bool            `json:"success"`
	Error          string          `json:"error,omitempty"`
	PointsWritten  int             `json:"points_written"`
	PortfolioTotal decimal.Decimal `json:"portfolio_total"`
}
