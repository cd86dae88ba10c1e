package sheets

import (
	"context"
	"fmt"
	"log"

	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"

	"github.com/ha-tools/portfolio-tracker/internal/config"
	"github.com/ha-tools/portfolio-tracker/internal/models"
)

// Client reads portfolio rows from a Google Sheets document using a
// service account. A client built without a spreadsheet ID is a valid
// unconfigured client: Configured reports false and Status reports
// not_configured.
type Client struct {
	svc           *gsheets.Service
	spreadsheetID string
	readRange     string
}

// New creates a Google Sheets client. Credential problems surface here,
// during configuration, rather than during steady-state polling.
func New(ctx context.Context, cfg config.GoogleSheetsConfig) (*Client, error) {
	if cfg.SpreadsheetID == "" {
		return &Client{}, nil
	}
	if cfg.CredentialsFile == "" {
		return nil, fmt.Errorf("google credentials file is required when a spreadsheet is configured")
	}

	svc, err := gsheets.NewService(ctx,
		option.WithCredentialsFile(cfg.CredentialsFile),
		option.WithScopes(gsheets.SpreadsheetsReadonlyScope),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create google sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: cfg.SpreadsheetID,
		readRange:     cfg.ReadRange,
	}, nil
}

// Configured reports whether a spreadsheet source is set up
func (c *Client) Configured() bool {
	return c != nil && c.svc != nil && c.spreadsheetID != ""
}

// TestConnection checks that the spreadsheet is reachable by fetching its
// metadata.
func (c *Client) TestConnection(ctx context.Context) bool {
	if !c.Configured() {
		return false
	}
	_, err := c.svc.Spreadsheets.Get(c.spreadsheetID).
		Fields("spreadsheetId").
		Context(ctx).
		Do()
	if err != nil {
		log.Printf("Google Sheets connection test failed: %v", err)
		return false
	}
	return true
}

// Values fetches the configured range as a 2-D grid of cell strings
func (c *Client) Values(ctx context.Context) ([][]string, error) {
	if !c.Configured() {
		return nil, fmt.Errorf("google sheets not configured")
	}

	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, c.readRange).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read range %q: %w", c.readRange, err)
	}

	rows := make([][]string, 0, len(resp.Values))
	for _, raw := range resp.Values {
		row := make([]string, 0, len(raw))
		for _, cell := range raw {
			row = append(row, fmt.Sprint(cell))
		}
		rows = append(rows, row)
	}
	log.Printf("Retrieved %d rows from Google Sheets", len(rows))
	return rows, nil
}

// Status reports the current connection status of the spreadsheet source
func (c *Client) Status(ctx context.Context) models.ConnectionStatus {
	if !c.Configured() {
		return models.StatusNotConfigured
	}
	if c.TestConnection(ctx) {
		return models.StatusConnected
	}
	return models.StatusDisconnected
}
