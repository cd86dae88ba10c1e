package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ConnectionStatus describes the reachability of an external data source
type ConnectionStatus string

const (
	StatusConnected     ConnectionStatus = "connected"
	StatusDisconnected  ConnectionStatus = "disconnected"
	StatusNotConfigured ConnectionStatus = "not_configured"
)

// Data source keys used in Snapshot.DataSources
const (
	SourceInfluxDB     = "influxdb_connected"
	SourceGoogleSheets = "google_sheets_connected"
)

// PortfolioData is the result of one InfluxDB portfolio fetch
type PortfolioData struct {
	PortfolioValue     decimal.Decimal `json:"portfolio_value"`
	DailyChange        decimal.Decimal `json:"daily_change"`
	DailyChangePercent decimal.Decimal `json:"daily_change_percent"`
	Positions          []Position      `json:"positions"`
}

// Snapshot is the coordinator's published view of portfolio state.
// It is replaced wholesale each refresh cycle and never mutated after
// publication; consumers must treat it as read-only.
type Snapshot struct {
	PortfolioValue     decimal.Decimal  `json:"portfolio_value"`
	DailyChange        decimal.Decimal  `json:"daily_change"`
	DailyChangePercent decimal.Decimal  `json:"daily_change_percent"`
	TotalPositions     int              `json:"total_positions"`
	Positions          []Position       `json:"positions"`
	LastUpdate         time.Time        `json:"last_update"`
	LastSync           string           `json:"last_sync,omitempty"`
	InfluxDBStatus     ConnectionStatus `json:"influxdb_status"`
	GoogleSheetsStatus ConnectionStatus `json:"google_sheets_status"`
	DataSources        map[string]bool  `json:"data_sources"`
	Error              string           `json:"error,omitempty"`
	PartialErrors      []string         `json:"partial_errors,omitempty"`
}

// Clone returns a deep copy of the snapshot. The coordinator uses it both
// for the last-successful cache and for degraded-mode fallback so cached
// data can never be mutated through a published snapshot.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}
	c := *s
	if s.Positions != nil {
		c.Positions = make([]Position, len(s.Positions))
		copy(c.Positions, s.Positions)
	}
	if s.DataSources != nil {
		c.DataSources = make(map[string]bool, len(s.DataSources))
		for k, v := range s.DataSources {
			c.DataSources[k] = v
		}
	}
	if s.PartialErrors != nil {
		c.PartialErrors = make([]string, len(s.PartialErrors))
		copy(c.PartialErrors, s.PartialErrors)
	}
	return &c
}
