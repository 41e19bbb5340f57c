package dispatch

import (
	"math/rand"
	"testing"
	"time"

	"github.com/lifelink/emergency-coordinator/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistance(t *testing.T) {
	assert.InDelta(t, 0, Distance(12.87, 74.84, 12.87, 74.84), 1e-9)

	// Hampankatta to Surathkal, Mangalore
	d := Distance(12.8698, 74.8430, 13.0108, 74.7943)
	assert.InDelta(t, 16.5, d, 0.5)
	assert.InDelta(t, d, Distance(13.0108, 74.7943, 12.8698, 74.8430), 1e-9)
}

func TestMinuteEstimates(t *testing.T) {
	assert.Equal(t, 7, RouteMinutes(10))
	assert.Equal(t, 15, DriveMinutes(10))
	assert.Equal(t, 1, DriveMinutes(0.1))
	assert.Equal(t, 0, DriveMinutes(0))
}

func TestTrafficFactor(t *testing.T) {
	assert.Equal(t, 0.7, TrafficFactor("high"))
	assert.Equal(t, 0.85, TrafficFactor("medium"))
	assert.Equal(t, 0.95, TrafficFactor("low"))
	assert.Equal(t, 0.95, TrafficFactor(""))
}

func TestRoutePath(t *testing.T) {
	start := models.GeoPoint{Latitude: 12.0, Longitude: 74.0}
	end := models.GeoPoint{Latitude: 13.0, Longitude: 75.0}

	path := RoutePath(start, end, 10, time.Now())
	require.Len(t, path, 11)
	assert.Equal(t, 12.0, path[0].Latitude)
	assert.InDelta(t, 12.5, path[5].Latitude, 1e-9)
	assert.InDelta(t, 13.0, path[10].Latitude, 1e-9)
	assert.InDelta(t, 75.0, path[10].Longitude, 1e-9)
	assert.True(t, path[10].Timestamp.After(*path[0].Timestamp))
}

func TestAlternateRoutes(t *testing.T) {
	routes := AlternateRoutes(10, 20)
	require.Len(t, routes, 2)
	assert.Equal(t, 9.5, routes[0].DistanceKm)
	assert.Equal(t, 18, routes[0].EstimatedMinutes)
	assert.Equal(t, 11.5, routes[1].DistanceKm)
	assert.Equal(t, 22, routes[1].EstimatedMinutes)
}

func TestHistoryMetrics(t *testing.T) {
	assert.Equal(t, 0.0, AverageResponseTime(nil))
	assert.Equal(t, 100.0, OnTimeRate(nil))

	history := []models.Trip{
		{ActualTimeMinutes: 10, EstimatedTimeMinutes: 12},
		{ActualTimeMinutes: 15, EstimatedTimeMinutes: 12},
		{ActualTimeMinutes: 8, EstimatedTimeMinutes: 8},
	}
	assert.Equal(t, 11.0, AverageResponseTime(history))
	assert.Equal(t, 67.0, OnTimeRate(history))

	assert.Equal(t, 120.0, PredictionAccuracy(12, 10))
	assert.Equal(t, 500.0, PredictionAccuracy(5, 0.2))
}

func TestSeverityTables(t *testing.T) {
	tests := []struct {
		severity string
		priority string
		facility string
		lo, hi   int
	}{
		{"Critical", "High", "Trauma & Critical Care Center", 1, 3},
		{"High", "High", "Emergency Department - Central", 5, 10},
		{"Medium", "Medium", "Urgent Care Center", 10, 20},
		{"Low", "Low", "Walk-in Clinic", 20, 35},
		{"Unclassified", "High", "Central City General", 10, 10},
	}

	rng := rand.New(rand.NewSource(7))
	for _, tt := range tests {
		t.Run(tt.severity, func(t *testing.T) {
			assert.Equal(t, tt.priority, Priority(tt.severity))
			assert.Equal(t, tt.facility, RecommendedFacility(tt.severity))
			for i := 0; i < 50; i++ {
				eta := ETA(tt.severity, rng)
				assert.GreaterOrEqual(t, eta, tt.lo)
				assert.LessOrEqual(t, eta, tt.hi)
			}
		})
	}

	assert.True(t, IsUrgent("Critical"))
	assert.True(t, IsUrgent("High"))
	assert.False(t, IsUrgent("Medium"))
	assert.Equal(t, "fa-exclamation-circle", NotificationIcon("Critical"))
	assert.Equal(t, "fa-alert", NotificationIcon("High"))
}
