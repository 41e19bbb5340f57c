// Package dispatch holds the pure calculations behind alert triage and
// ambulance routing.
package dispatch

import (
	"math"
	"time"

	"github.com/lifelink/emergency-coordinator/internal/models"
)

const earthRadiusKm = 6371.0

// Distance returns the great-circle distance in kilometres
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLon := toRadians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

// RouteMinutes is the planning estimate used when a route starts
func RouteMinutes(distanceKm float64) int {
	return int(math.Ceil(distanceKm / 1.5))
}

// DriveMinutes is the arrival estimate at an average 40 km/h
func DriveMinutes(distanceKm float64) int {
	return int(math.Ceil(distanceKm / 40 * 60))
}

// TrafficFactor maps a traffic level to a 0-1 speed factor where 1 is free-flowing
func TrafficFactor(level string) float64 {
	switch level {
	case "high":
		return 0.7
	case "medium":
		return 0.85
	default:
		return 0.95
	}
}

// RoutePath interpolates points+1 evenly spaced waypoints from start to end
func RoutePath(start, end models.GeoPoint, points int, at time.Time) []models.GeoPoint {
	path := make([]models.GeoPoint, 0, points+1)
	for i := 0; i <= points; i++ {
		f := float64(i) / float64(points)
		ts := at.Add(time.Duration(i) * 100 * time.Millisecond)
		path = append(path, models.GeoPoint{
			Latitude:  start.Latitude + (end.Latitude-start.Latitude)*f,
			Longitude: start.Longitude + (end.Longitude-start.Longitude)*f,
			Timestamp: &ts,
		})
	}
	return path
}

// AlternateRoutes returns the fast and scenic variants of a primary route
func AlternateRoutes(distanceKm float64, minutes int) []models.AlternateRoute {
	return []models.AlternateRoute{
		{
			RouteName:        "Fastest Route",
			DistanceKm:       round2(distanceKm * 0.95),
			EstimatedMinutes: ceilPercent(minutes, 90),
			TrafficCondition: "light",
			Description:      "Arterial roads with signal priority",
		},
		{
			RouteName:        "Scenic Route",
			DistanceKm:       round2(distanceKm * 1.15),
			EstimatedMinutes: ceilPercent(minutes, 110),
			TrafficCondition: "moderate",
			Description:      "Avoids the city centre",
		},
	}
}

// ceilPercent is ceil(minutes*pct/100) without float rounding drift.
func ceilPercent(minutes, pct int) int {
	return (minutes*pct + 99) / 100
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
