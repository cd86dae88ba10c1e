package models

// PerformanceStats summarizes portfolio performance over an analysis window
type PerformanceStats struct {
	StartValue    float64 `json:"start_value"`
	EndValue      float64 `json:"end_value"`
	TotalChange   float64 `json:"total_change"`
	PercentChange float64 `json:"percent_change"`
	Volatility    float64 `json:"volatility"`
	DataPoints    int     `json:"data_points"`
}

// TrendStats classifies the direction and strength of a performance window
type TrendStats struct {
	Direction       string `json:"direction"`        // up, down, flat
	Strength        string `json:"trend_strength"`   // strong, moderate, weak
	VolatilityLevel string `json:"volatility_level"` // high, low
}

// AnalyticsResult is the outcome of one rolling-window analytics run
type AnalyticsResult struct {
	DaysAnalyzed     int               `json:"days_analyzed"`
	AnalysisComplete bool              `json:"analysis_complete"`
	Performance      *PerformanceStats `json:"performance,omitempty"`
	Trends           *TrendStats       `json:"trends,omitempty"`
	Error            string            `json:"error,omitempty"`
}
