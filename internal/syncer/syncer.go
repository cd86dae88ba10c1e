package syncer

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ha-tools/portfolio-tracker/internal/models"
)

// PointWriter writes time-series points to the portfolio database
type PointWriter interface {
	WritePoints(points []models.WritePoint) error
}

// RowSource provides tabular portfolio data from a spreadsheet
type RowSource interface {
	Configured() bool
	TestConnection(ctx context.Context) bool
	Values(ctx context.Context) ([][]string, error)
}

// columnAliases maps each logical field to its accepted header names,
// in resolution order. The first alias found in the header row wins.
var columnAliases = []struct {
	field   string
	aliases []string
}{
	{"symbol", []string{"symbol", "ticker", "stock"}},
	{"quantity", []string{"quantity", "shares", "amount"}},
	{"price", []string{"price", "current_price", "unit_price"}},
	{"value", []string{"value", "market_value", "total_value"}},
	{"change", []string{"change", "daily_change", "day_change"}},
}

// Syncer converts spreadsheet rows into InfluxDB write points: one
// "positions" point per valid row plus one aggregate "portfolio" point.
type Syncer struct {
	source RowSource
	store  PointWriter
	now    func() time.Time
}

// New creates a Syncer reading from source and writing to store
func New(source RowSource, store PointWriter) *Syncer {
	return &Syncer{
		source: source,
		store:  store,
		now:    time.Now,
	}
}

// Sync performs one spreadsheet-to-InfluxDB synchronization. A missing
// spreadsheet configuration is not an error: there is simply nothing to
// sync. Malformed rows are skipped individually and never abort the batch.
func (s *Syncer) Sync(ctx context.Context) models.SyncResult {
	if !s.source.Configured() {
		log.Println("Google Sheets not configured, skipping data sync")
		return models.SyncResult{Success: true}
	}

	if !s.source.TestConnection(ctx) {
		return failure("google sheets not reachable")
	}

	rows, err := s.source.Values(ctx)
	if err != nil {
		return failure(fmt.Sprintf("failed to fetch spreadsheet data: %v", err))
	}
	if len(rows) < 2 {
		return failure("no valid data rows found in spreadsheet")
	}

	points, total, count := s.transform(rows)
	if len(points) == 0 {
		return failure("no valid data points to write")
	}

	if err := s.store.WritePoints(points); err != nil {
		return failure(fmt.Sprintf("failed to write points: %v", err))
	}

	log.Printf("Written %d points to InfluxDB (portfolio value: %s, %d positions)",
		len(points), total.StringFixed(2), count)

	return models.SyncResult{
		Success:        true,
		PointsWritten:  len(points),
		PortfolioTotal: total,
	}
}

// transform converts a grid of cell strings (header row first) into write
// points, returning the points, the portfolio total and the valid row count.
func (s *Syncer) transform(rows [][]string) ([]models.WritePoint, decimal.Decimal, int) {
	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = strings.ToLower(strings.TrimSpace(h))
	}
	columns := resolveColumns(headers)
	now := s.now()

	var points []models.WritePoint
	total := decimal.Zero
	count := 0

	for i, row := range rows[1:] {
		pos, ok := parseRow(row, len(headers), columns)
		if !ok {
			continue
		}
		if !pos.Value.IsPositive() {
			continue
		}

		points = append(points, models.WritePoint{
			Measurement: "positions",
			Tags:        map[string]string{"symbol": pos.Symbol},
			Fields: map[string]interface{}{
				"quantity": pos.Quantity.InexactFloat64(),
				"price":    pos.Price.InexactFloat64(),
				"value":    pos.Value.InexactFloat64(),
				"change":   pos.Change.InexactFloat64(),
			},
			Time: now,
		})
		total = total.Add(pos.Value)
		count++

		log.Printf("Processed position %d: %s = %s", i+1, pos.Symbol, pos.Value.StringFixed(2))
	}

	if total.IsPositive() {
		points = append(points, models.WritePoint{
			Measurement: "portfolio",
			Fields: map[string]interface{}{
				"total_value":    total.InexactFloat64(),
				"position_count": count,
			},
			Time: now,
		})
	}

	return points, total, count
}

// resolveColumns maps each logical field to its column index, first
// matching alias wins. Missing fields are absent from the map.
func resolveColumns(headers []string) map[string]int {
	index := make(map[string]int, len(headers))
	for i, h := range headers {
		if _, seen := index[h]; !seen {
			index[h] = i
		}
	}

	columns := make(map[string]int, len(columnAliases))
	for _, f := range columnAliases {
		for _, alias := range f.aliases {
			if i, ok := index[alias]; ok {
				columns[f.field] = i
				break
			}
		}
	}
	return columns
}

// parseRow builds a Position from one data row. It reports ok=false for
// rows that are incomplete, have no symbol, or contain unparseable numbers.
func parseRow(row []string, headerLen int, columns map[string]int) (models.Position, bool) {
	if len(row) < headerLen {
		return models.Position{}, false
	}

	symbol := strings.ToUpper(strings.TrimSpace(cell(row, columns, "symbol")))
	if symbol == "" {
		return models.Position{}, false
	}

	quantity, err := parseDecimal(cell(row, columns, "quantity"))
	if err != nil {
		log.Printf("Skipping row for %s: invalid quantity: %v", symbol, err)
		return models.Position{}, false
	}
	price, err := parseDecimal(cell(row, columns, "price"))
	if err != nil {
		log.Printf("Skipping row for %s: invalid price: %v", symbol, err)
		return models.Position{}, false
	}

	value := quantity.Mul(price)
	if raw := cell(row, columns, "value"); raw != "" {
		value, err = parseDecimal(raw)
		if err != nil {
			log.Printf("Skipping row for %s: invalid value: %v", symbol, err)
			return models.Position{}, false
		}
	}

	change, err := parseDecimal(cell(row, columns, "change"))
	if err != nil {
		log.Printf("Skipping row for %s: invalid change: %v", symbol, err)
		return models.Position{}, false
	}

	return models.Position{
		Symbol:   symbol,
		Quantity: quantity,
		Price:    price,
		Value:    value,
		Change:   change,
	}, true
}

// cell returns the trimmed cell for a resolved field, or "" when the field
// has no column or the row is too short.
func cell(row []string, columns map[string]int, field string) string {
	i, ok := columns[field]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// parseDecimal parses a cell value, treating the empty string as zero
func parseDecimal(raw string) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(raw)
}

func failure(msg string) models.SyncResult {
	log.Printf("Sync failed: %s", msg)
	return models.SyncResult{Success: false, Error: msg}
}
