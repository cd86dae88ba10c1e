package models

import (
	"github.com/shopspring/decimal"
)

// Position represents a single portfolio holding as stored in InfluxDB
type Position struct {
	Symbol   string          `json:"symbol"`
	Quantity decimal.Decimal `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
	Value    decimal.Decimal `json:"value"`
	Change   decimal.Decimal `json:"change"`
}
