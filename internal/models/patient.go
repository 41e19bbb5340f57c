package models

import "time"

// Patient severities
const (
	PatientCritical = "Critical"
	PatientHigh     = "High"
	PatientModerate = "Moderate"
	PatientStable   = "Stable"
)

// PatientAdmitted is the status of a newly admitted patient
const PatientAdmitted = "Admitted"

// ValidPatientSeverity reports whether s is a known patient severity
func ValidPatientSeverity(s string) bool {
	switch s {
	case PatientCritical, PatientHigh, PatientModerate, PatientStable:
		return true
	}
	return false
}

// Patient is a person admitted to a hospital. HospitalID is the hospital
// account's user id.
type Patient struct {
	ID         string    `json:"_id"`
	HospitalID string    `json:"hospitalId"`
	Name       string    `json:"name"`
	Age        int       `json:"age"`
	Gender     string    `json:"gender"`
	Contact    string    `json:"contact,omitempty"`
	Dept       string    `json:"dept"`
	Room       string    `json:"room"`
	Condition  string    `json:"condition"`
	Severity   string    `json:"severity"`
	Status     string    `json:"status"`
	Oxygen     float64   `json:"oxygen"`
	HeartRate  int       `json:"heartRate"`
	BP         string    `json:"bp"`
	AdmitDate  time.Time `json:"admitDate"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Inventory categories
var inventoryCategories = map[string]bool{
	"Medicine":  true,
	"Blood":     true,
	"Organ":     true,
	"Equipment": true,
}

// ValidInventoryCategory reports whether c is a known inventory category
func ValidInventoryCategory(c string) bool {
	return inventoryCategories[c]
}

// InventoryItem is a stocked supply line such as a medicine or a blood type
type InventoryItem struct {
	ID           string     `json:"_id"`
	HospitalID   string     `json:"hospitalId"`
	Name         string     `json:"name"`
	Category     string     `json:"category"`
	Quantity     int        `json:"quantity"`
	Unit         string     `json:"unit"`
	MinThreshold int        `json:"minThreshold"`
	LowStock     bool       `json:"lowStock"`
	ExpiryDate   *time.Time `json:"expiryDate,omitempty"`
	LastUpdated  time.Time  `json:"lastUpdated"`
	CreatedAt    time.Time  `json:"createdAt"`
}

// BelowThreshold reports whether stock has fallen under the reorder point
func (i *InventoryItem) BelowThreshold() bool {
	return i.Quantity < i.MinThreshold
}
