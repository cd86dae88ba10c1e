package analytics

import (
	"fmt"
	"math"

	"github.com/ha-tools/portfolio-tracker/internal/models"
)

// Valid analysis window in days
const (
	MinDays = 1
	MaxDays = 365
)

// Trend classification thresholds (absolute percent change)
const (
	strongTrendPercent   = 10
	moderateTrendPercent = 5
)

// SeriesSource provides daily mean portfolio values for an analysis window
type SeriesSource interface {
	DailySeries(days int) ([]float64, error)
}

// Service runs rolling-window analytics against the time-series store
type Service struct {
	source SeriesSource
}

// NewService creates an analytics service backed by source
func NewService(source SeriesSource) *Service {
	return &Service{source: source}
}

// Run fetches the daily series for the window and computes trend and
// volatility statistics. days must be within [MinDays, MaxDays].
func (s *Service) Run(days int) (models.AnalyticsResult, error) {
	if days < MinDays || days > MaxDays {
		return models.AnalyticsResult{}, fmt.Errorf("days must be between %d and %d, got %d", MinDays, MaxDays, days)
	}

	values, err := s.source.DailySeries(days)
	if err != nil {
		return models.AnalyticsResult{
			DaysAnalyzed: days,
			Error:        err.Error(),
		}, nil
	}

	return Compute(values, days), nil
}

// Compute derives trend and volatility statistics from a series of daily
// mean values, oldest first. Fewer than two data points yield an
// incomplete analysis.
func Compute(values []float64, days int) models.AnalyticsResult {
	result := models.AnalyticsResult{DaysAnalyzed: days}
	if len(values) < 2 {
		return result
	}

	start := values[0]
	end := values[len(values)-1]
	totalChange := end - start

	percentChange := 0.0
	if start > 0 {
		percentChange = totalChange / start * 100
	}

	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))

	// Population standard deviation; undefined below three points
	volatility := 0.0
	if len(values) > 2 {
		variance := 0.0
		for _, v := range values {
			d := v - mean
			variance += d * d
		}
		variance /= float64(len(values))
		volatility = math.Sqrt(variance)
	}

	result.AnalysisComplete = true
	result.Performance = &models.PerformanceStats{
		StartValue:    start,
		EndValue:      end,
		TotalChange:   totalChange,
		PercentChange: percentChange,
		Volatility:    volatility,
		DataPoints:    len(values),
	}
	result.Trends = &models.TrendStats{
		Direction:       direction(totalChange),
		Strength:        strength(percentChange),
		VolatilityLevel: volatilityLevel(volatility, mean),
	}
	return result
}

func direction(totalChange float64) string {
	switch {
	case totalChange > 0:
		return "up"
	case totalChange < 0:
		return "down"
	default:
		return "flat"
	}
}

func strength(percentChange float64) string {
	switch abs := math.Abs(percentChange); {
	case abs > strongTrendPercent:
		return "strong"
	case abs > moderateTrendPercent:
		return "moderate"
	default:
		return "weak"
	}
}

func volatilityLevel(volatility, mean float64) string {
	if volatility > mean*0.1 {
		return "high"
	}
	return "low"
}
