package models

import "time"

// Alert statuses
const (
	AlertPending    = "pending"
	AlertDispatched = "dispatched"
	AlertResolved   = "resolved"
	AlertCancelled  = "cancelled"
)

// ValidAlertStatus reports whether s is a known alert status
func ValidAlertStatus(s string) bool {
	switch s {
	case AlertPending, AlertDispatched, AlertResolved, AlertCancelled:
		return true
	}
	return false
}

// Alert is an SOS raised by a user
type Alert struct {
	ID                  string       `json:"_id"`
	UserID              string       `json:"user"`
	LocationDetails     string       `json:"locationDetails"`
	Coordinates         *Coordinates `json:"coordinates,omitempty"`
	Message             string       `json:"message"`
	EmergencyType       string       `json:"emergencyType"`
	Priority            string       `json:"priority"`
	Status              string       `json:"status"`
	SeverityScore       *float64     `json:"severity_score,omitempty"`
	AIConfidence        *float64     `json:"ai_confidence,omitempty"`
	AmbulanceType       string       `json:"ambulance_type,omitempty"`
	RecommendedHospital string       `json:"recommended_hospital,omitempty"`
	DispatchedHospital  string       `json:"dispatchedHospital,omitempty"`
	CreatedAt           time.Time    `json:"createdAt"`
	UpdatedAt           time.Time    `json:"updatedAt"`
}

// Coordinates is a latitude/longitude pair
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// CreateAlertRequest is the body of POST /alerts
type CreateAlertRequest struct {
	UserID          string       `json:"userId"`
	LocationDetails string       `json:"locationDetails"`
	Message         string       `json:"message"`
	Coordinates     *Coordinates `json:"coordinates"`
}

// Notification is the compact alert shape used in the notification feed
type Notification struct {
	ID            string    `json:"id"`
	Message       string    `json:"message"`
	Severity      string    `json:"severity"`
	SeverityScore *float64  `json:"severity_score,omitempty"`
	AmbulanceType string    `json:"ambulance_type,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
	Icon          string    `json:"icon"`
}
