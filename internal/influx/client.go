package influx

import (
	"fmt"
	"log"
	"time"

	"github.com/influxdata/influxdb1-client/models"
	influxclient "github.com/influxdata/influxdb1-client/v2"
	"github.com/shopspring/decimal"

	"github.com/ha-tools/portfolio-tracker/internal/config"
	pmodels "github.com/ha-tools/portfolio-tracker/internal/models"
)

// pingAttempts is how many times Ping retries before giving up
const pingAttempts = 3

// Client wraps the InfluxDB v1 HTTP client with the queries the portfolio
// tracker needs. All query errors are returned to the caller so a failed
// fetch is never silently replaced with zero values.
type Client struct {
	conn     influxclient.Client
	database string
	timeout  time.Duration
}

// New creates an InfluxDB v1 client from configuration
func New(cfg config.InfluxDBConfig) (*Client, error) {
	if cfg.Username == "" || cfg.Password == "" {
		return nil, fmt.Errorf("influxdb username and password are required")
	}

	conn, err := influxclient.NewHTTPClient(influxclient.HTTPConfig{
		Addr:     cfg.URL,
		Username: cfg.Username,
		Password: cfg.Password,
		Timeout:  cfg.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create influxdb client: %w", err)
	}

	return &Client{
		conn:     conn,
		database: cfg.Database,
		timeout:  cfg.Timeout,
	}, nil
}

// Database returns the configured database name
func (c *Client) Database() string {
	return c.database
}

// Ping checks InfluxDB connectivity, retrying transient failures
func (c *Client) Ping() error {
	var lastErr error
	for attempt := 1; attempt <= pingAttempts; attempt++ {
		if _, _, err := c.conn.Ping(c.timeout); err != nil {
			lastErr = err
			log.Printf("InfluxDB ping attempt %d failed: %v", attempt, err)
			continue
		}
		return nil
	}
	return fmt.Errorf("influxdb unreachable after %d attempts: %w", pingAttempts, lastErr)
}

// EnsureDatabase creates the configured database if it does not exist
func (c *Client) EnsureDatabase() error {
	names, err := c.ListDatabases()
	if err != nil {
		return fmt.Errorf("failed to list databases: %w", err)
	}
	for _, name := range names {
		if name == c.database {
			return nil
		}
	}

	log.Printf("Database %q not found, creating it", c.database)
	if _, err := c.queryRows(fmt.Sprintf("CREATE DATABASE %q", c.database)); err != nil {
		return fmt.Errorf("failed to create database %q: %w", c.database, err)
	}
	return nil
}

// ListDatabases returns the names of all databases on the server
func (c *Client) ListDatabases() ([]string, error) {
	series, err := c.queryRows("SHOW DATABASES")
	if err != nil {
		return nil, err
	}

	var names []string
	for _, row := range series {
		for _, values := range row.Values {
			if len(values) == 0 {
				continue
			}
			if name, ok := values[0].(string); ok {
				names = append(names, name)
			}
		}
	}
	return names, nil
}

// HealthCheck verifies both connectivity and database access
func (c *Client) HealthCheck() error {
	if err := c.Ping(); err != nil {
		return err
	}
	names, err := c.ListDatabases()
	if err != nil {
		return fmt.Errorf("failed to verify database access: %w", err)
	}
	for _, name := range names {
		if name == c.database {
			return nil
		}
	}
	return fmt.Errorf("database %q not found", c.database)
}

// PortfolioData fetches the current portfolio valuation: last total value,
// daily change derived from the last two daily values, and per-symbol
// positions.
func (c *Client) PortfolioData() (*pmodels.PortfolioData, error) {
	data := &pmodels.PortfolioData{Positions: []pmodels.Position{}}

	series, err := c.queryRows(`SELECT last("total_value") AS total_value FROM "portfolio"`)
	if err != nil {
		return nil, fmt.Errorf("portfolio value query failed: %w", err)
	}
	if v, ok := lastValue(series, "total_value"); ok {
		data.PortfolioValue = decimal.NewFromFloat(v)
	}

	values, err := c.dailyValues(`SELECT last("total_value") AS total_value FROM "portfolio" WHERE time > now() - 2d GROUP BY time(1d)`, "total_value")
	if err != nil {
		return nil, fmt.Errorf("daily change query failed: %w", err)
	}
	if len(values) >= 2 {
		current := values[len(values)-1]
		previous := values[len(values)-2]
		change := current - previous
		data.DailyChange = decimal.NewFromFloat(change)
		if previous > 0 {
			data.DailyChangePercent = decimal.NewFromFloat(change / previous * 100)
		}
	}

	positions, err := c.positions()
	if err != nil {
		return nil, fmt.Errorf("positions query failed: %w", err)
	}
	data.Positions = positions

	return data, nil
}

// DailySeries returns the daily mean portfolio values over the given window,
// oldest first, skipping days with no data.
func (c *Client) DailySeries(days int) ([]float64, error) {
	query := fmt.Sprintf(`SELECT mean("total_value") AS total_value FROM "portfolio" WHERE time > now() - %dd GROUP BY time(1d)`, days)
	values, err := c.dailyValues(query, "total_value")
	if err != nil {
		return nil, fmt.Errorf("daily series query failed: %w", err)
	}
	return values, nil
}

// WritePoints writes a batch of points to the configured database
func (c *Client) WritePoints(points []pmodels.WritePoint) error {
	bp, err := influxclient.NewBatchPoints(influxclient.BatchPointsConfig{
		Database:  c.database,
		Precision: "s",
	})
	if err != nil {
		return fmt.Errorf("failed to create batch: %w", err)
	}

	for _, p := range points {
		pt, err := influxclient.NewPoint(p.Measurement, p.Tags, p.Fields, p.Time)
		if err != nil {
			return fmt.Errorf("failed to create point for %q: %w", p.Measurement, err)
		}
		bp.AddPoint(pt)
	}

	if err := c.conn.Write(bp); err != nil {
		return fmt.Errorf("failed to write points: %w", err)
	}
	return nil
}

// Close releases the underlying HTTP client
func (c *Client) Close() error {
	return c.conn.Close()
}

// positions queries the latest value per symbol from the positions measurement
func (c *Client) positions() ([]pmodels.Position, error) {
	query := `SELECT last("value") AS value, last("quantity") AS quantity, last("price") AS price, last("change") AS change FROM "positions" GROUP BY "symbol"`
	series, err := c.queryRows(query)
	if err != nil {
		return nil, err
	}

	positions := make([]pmodels.Position, 0, len(series))
	for _, row := range series {
		symbol := row.Tags["symbol"]
		if symbol == "" || len(row.Values) == 0 {
			continue
		}
		positions = append(positions, pmodels.Position{
			Symbol:   symbol,
			Value:    decimal.NewFromFloat(columnValue(row, row.Values[0], "value")),
			Quantity: decimal.NewFromFloat(columnValue(row, row.Values[0], "quantity")),
			Price:    decimal.NewFromFloat(columnValue(row, row.Values[0], "price")),
			Change:   decimal.NewFromFloat(columnValue(row, row.Values[0], "change")),
		})
	}
	return positions, nil
}

// dailyValues runs a GROUP BY time(1d) query and collects non-null values
func (c *Client) dailyValues(query, column string) ([]float64, error) {
	series, err := c.queryRows(query)
	if err != nil {
		return nil, err
	}

	var values []float64
	for _, row := range series {
		idx := columnIndex(row, column)
		if idx < 0 {
			continue
		}
		for _, rowValues := range row.Values {
			if idx >= len(rowValues) {
				continue
			}
			if v, ok := toFloat(rowValues[idx]); ok {
				values = append(values, v)
			}
		}
	}
	return values, nil
}

// queryRows executes an InfluxQL statement and returns the first result's series
func (c *Client) queryRows(cmd string) ([]models.Row, error) {
	q := influxclient.NewQuery(cmd, c.database, "")
	resp, err := c.conn.Query(q)
	if err != nil {
		return nil, err
	}
	if resp.Error() != nil {
		return nil, resp.Error()
	}
	if len(resp.Results) == 0 {
		return nil, nil
	}
	return resp.Results[0].Series, nil
}
