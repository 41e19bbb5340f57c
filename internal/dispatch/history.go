package dispatch

import (
	"math"

	"github.com/lifelink/emergency-coordinator/internal/models"
)

// PredictionAccuracy is estimated/actual as a rounded percentage.
// A trip that took under a minute counts as one minute.
func PredictionAccuracy(estimatedMinutes int, actualMinutes float64) float64 {
	if actualMinutes < 1 {
		actualMinutes = 1
	}
	return math.Round(float64(estimatedMinutes) / actualMinutes * 100)
}

// AverageResponseTime is the rounded mean of actual trip minutes
func AverageResponseTime(history []models.Trip) float64 {
	if len(history) == 0 {
		return 0
	}
	sum := 0
	for _, trip := range history {
		sum += trip.ActualTimeMinutes
	}
	return math.Round(float64(sum) / float64(len(history)))
}

// OnTimeRate is the rounded share of trips that arrived within their estimate
func OnTimeRate(history []models.Trip) float64 {
	if len(history) == 0 {
		return 100
	}
	onTime := 0
	for _, trip := range history {
		if trip.ActualTimeMinutes <= trip.EstimatedTimeMinutes {
			onTime++
		}
	}
	return math.Round(float64(onTime) / float64(len(history)) * 100)
}
