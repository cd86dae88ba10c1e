package influx

import (
	"encoding/json"
	"strconv"

	"github.com/influxdata/influxdb1-client/models"
)

// columnIndex returns the index of a named column in a series, or -1
func columnIndex(row models.Row, column string) int {
	for i, name := range row.Columns {
		if name == column {
			return i
		}
	}
	return -1
}

// columnValue extracts a named column from one row of values, returning 0
// for nulls and unknown columns.
func columnValue(row models.Row, values []interface{}, column string) float64 {
	idx := columnIndex(row, column)
	if idx < 0 || idx >= len(values) {
		return 0
	}
	v, _ := toFloat(values[idx])
	return v
}

// lastValue extracts the named column of the first row of the first series
func lastValue(series []models.Row, column string) (float64, bool) {
	for _, row := range series {
		idx := columnIndex(row, column)
		if idx < 0 {
			continue
		}
		for _, values := range row.Values {
			if idx < len(values) {
				if v, ok := toFloat(values[idx]); ok {
					return v, true
				}
			}
		}
	}
	return 0, false
}

// toFloat converts an InfluxDB JSON value to a float64. Null values and
// non-numeric strings report ok=false.
func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case float64:
		return n, true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	default:
		return 0, false
	}
}
