package models

import "time"

// Ambulance statuses
const (
	AmbulanceAvailable   = "available"
	AmbulanceEnRoute     = "en_route"
	AmbulanceAtLocation  = "at_location"
	AmbulanceReturning   = "returning"
	AmbulanceMaintenance = "maintenance"
)

// ValidAmbulanceStatus reports whether s is a known ambulance status
func ValidAmbulanceStatus(s string) bool {
	switch s {
	case AmbulanceAvailable, AmbulanceEnRoute, AmbulanceAtLocation, AmbulanceReturning, AmbulanceMaintenance:
		return true
	}
	return false
}

// GeoPoint is a located, optionally addressed point
type GeoPoint struct {
	Latitude  float64    `json:"latitude"`
	Longitude float64    `json:"longitude"`
	Address   string     `json:"address,omitempty"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

// Ambulance is a tracked vehicle owned by a hospital
type Ambulance struct {
	ID                 string           `json:"_id"`
	AmbulanceID        string           `json:"ambulanceId"`
	RegistrationNumber string           `json:"registrationNumber"`
	HospitalID         string           `json:"hospital"`
	Status             string           `json:"status"`
	CurrentLocation    *GeoPoint        `json:"currentLocation,omitempty"`
	ActiveRoute        *Route           `json:"activeRoute,omitempty"`
	ETAPrediction      *ETAPrediction   `json:"etaPrediction,omitempty"`
	AlternateRoutes    []AlternateRoute `json:"alternateRoutes,omitempty"`
	TravelHistory      []Trip           `json:"travelHistory"`
	Driver             Driver           `json:"driver"`
	EmergencyType      string           `json:"emergencyType,omitempty"`
	PriorityLevel      string           `json:"priorityLevel,omitempty"`
	Metrics            AmbulanceMetrics `json:"metrics"`
	CreatedAt          time.Time        `json:"createdAt"`
	UpdatedAt          time.Time        `json:"updatedAt"`
	LastLocationUpdate *time.Time       `json:"lastLocationUpdate,omitempty"`
}

// Route is the trip an ambulance is currently driving
type Route struct {
	StartLocation        GeoPoint   `json:"startLocation"`
	DestinationLocation  GeoPoint   `json:"destinationLocation"`
	RoutePath            []GeoPoint `json:"routePath"`
	DistanceKm           float64    `json:"distanceKm"`
	EstimatedTimeMinutes int        `json:"estimatedTimeMinutes"`
	StartTime            time.Time  `json:"startTime"`
	EstimatedArrivalTime time.Time  `json:"estimatedArrivalTime"`
}

// ETAPrediction is the latest arrival estimate for an ambulance
type ETAPrediction struct {
	EstimatedMinutes int       `json:"estimatedMinutes"`
	ConfidenceLevel  string    `json:"confidenceLevel"`
	TrafficFactor    float64   `json:"trafficFactor"`
	WeatherCondition string    `json:"weatherCondition"`
	LastUpdated      time.Time `json:"lastUpdated"`
}

// AlternateRoute is a suggested alternative to the primary route
type AlternateRoute struct {
	RouteName        string  `json:"routeName"`
	DistanceKm       float64 `json:"distanceKm"`
	EstimatedMinutes int     `json:"estimatedMinutes"`
	TrafficCondition string  `json:"trafficCondition"`
	Description      string  `json:"description"`
}

// Trip is a completed route kept for accuracy tracking
type Trip struct {
	Date                 time.Time `json:"date"`
	StartLocation        GeoPoint  `json:"startLocation"`
	EndLocation          GeoPoint  `json:"endLocation"`
	DistanceKm           float64   `json:"distanceKm"`
	ActualTimeMinutes    int       `json:"actualTimeMinutes"`
	EstimatedTimeMinutes int       `json:"estimatedTimeMinutes"`
	TrafficCondition     string    `json:"trafficCondition,omitempty"`
	Weather              string    `json:"weather,omitempty"`
	PredictionAccuracy   float64   `json:"predictionAccuracy"`
}

// Driver is the assigned driver of an ambulance
type Driver struct {
	Name          string `json:"name"`
	LicenseNumber string `json:"licenseNumber,omitempty"`
	Phone         string `json:"phone,omitempty"`
	Availability  bool   `json:"availability"`
}

// AmbulanceMetrics are running performance figures
type AmbulanceMetrics struct {
	AverageResponseTime  float64 `json:"averageResponseTime"`
	OnTimeDeliveryRate   float64 `json:"onTimeDeliveryRate"`
	TotalTripsToday      int     `json:"totalTripsToday"`
	TotalDistanceTodayKm float64 `json:"totalDistanceTodayKm"`
}
