package influx

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ha-tools/portfolio-tracker/internal/config"
	"github.com/ha-tools/portfolio-tracker/internal/models"
)

func TestNewRequiresCredentials(t *testing.T) {
	_, err := New(config.InfluxDBConfig{URL: "http://localhost:8086"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "username and password")
}

func TestClientIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	client := SetupTestClient(t)

	t.Run("Ping succeeds against a live server", func(t *testing.T) {
		require.NoError(t, client.Ping())
	})

	t.Run("EnsureDatabase is idempotent", func(t *testing.T) {
		require.NoError(t, client.EnsureDatabase())
		require.NoError(t, client.EnsureDatabase())

		names, err := client.ListDatabases()
		require.NoError(t, err)
		assert.Contains(t, names, "portfolio_test")
	})

	t.Run("HealthCheck passes once the database exists", func(t *testing.T) {
		require.NoError(t, client.EnsureDatabase())
		require.NoError(t, client.HealthCheck())
	})

	t.Run("written points round-trip through PortfolioData", func(t *testing.T) {
		require.NoError(t, client.EnsureDatabase())

		now := time.Now()
		points := []models.WritePoint{
			{
				Measurement: "positions",
				Tags:        map[string]string{"symbol": "AAPL"},
				Fields:      map[string]interface{}{"quantity": 10.0, "price": 150.0, "value": 1500.0, "change": 12.5},
				Time:        now,
			},
			{
				Measurement: "positions",
				Tags:        map[string]string{"symbol": "MSFT"},
				Fields:      map[string]interface{}{"quantity": 5.0, "price": 300.0, "value": 1500.0, "change": -3.0},
				Time:        now,
			},
			{
				Measurement: "portfolio",
				Fields:      map[string]interface{}{"total_value": 3000.0, "position_count": 2},
				Time:        now,
			},
		}
		require.NoError(t, client.WritePoints(points))

		data, err := client.PortfolioData()
		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(3000).Equal(data.PortfolioValue))
		require.Len(t, data.Positions, 2)

		bySymbol := map[string]models.Position{}
		for _, p := range data.Positions {
			bySymbol[p.Symbol] = p
		}
		aapl, ok := bySymbol["AAPL"]
		require.True(t, ok)
		assert.True(t, decimal.NewFromInt(10).Equal(aapl.Quantity))
		assert.True(t, decimal.NewFromInt(150).Equal(aapl.Price))
		assert.True(t, decimal.NewFromInt(1500).Equal(aapl.Value))
	})

	t.Run("DailySeries returns the written window", func(t *testing.T) {
		values, err := client.DailySeries(7)
		require.NoError(t, err)
		assert.NotEmpty(t, values)
	})
}
