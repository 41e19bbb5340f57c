package models

import "time"

// Hospital is the operational record attached to a hospital account
type Hospital struct {
	ID        string     `json:"_id"`
	UserID    string     `json:"user"`
	Beds      Beds       `json:"beds"`
	Doctors   []Doctor   `json:"doctors"`
	Resources []Resource `json:"resources"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// Beds tracks bed capacity
type Beds struct {
	TotalBeds     int `json:"totalBeds"`
	OccupiedBeds  int `json:"occupiedBeds"`
	AvailableBeds int `json:"availableBeds"`
}

// Doctor is a staff entry on a hospital record
type Doctor struct {
	Name           string `json:"name"`
	Department     string `json:"department,omitempty"`
	Availability   bool   `json:"availability"`
	Specialization string `json:"specialization,omitempty"`
	Phone          string `json:"phone,omitempty"`
	Email          string `json:"email,omitempty"`
}

// Resource is an inventory line on a hospital record
type Resource struct {
	Name           string `json:"name"`
	Category       string `json:"category,omitempty"`
	TotalUnits     int    `json:"totalUnits"`
	AvailableUnits int    `json:"availableUnits"`
	Unit           string `json:"unit,omitempty"`
	Description    string `json:"description,omitempty"`
}

// NewHospital returns an empty hospital record for a user
func NewHospital(userID string) *Hospital {
	return &Hospital{
		UserID:    userID,
		Doctors:   []Doctor{},
		Resources: []Resource{},
	}
}

// HospitalCard is the hospital shape returned by the communication routes
type HospitalCard struct {
	ID        string     `json:"_id"`
	UserID    string     `json:"userId"`
	Name      string     `json:"name"`
	Location  string     `json:"location"`
	Email     string     `json:"email"`
	Phone     string     `json:"phone"`
	Beds      Beds       `json:"beds"`
	Doctors   []Doctor   `json:"doctors"`
	Resources []Resource `json:"resources"`
}

// NewHospitalCard joins a hospital record with its owning account. owner may be nil.
func NewHospitalCard(h *Hospital, owner *User) HospitalCard {
	card := HospitalCard{
		ID:        h.ID,
		UserID:    h.UserID,
		Beds:      h.Beds,
		Doctors:   h.Doctors,
		Resources: h.Resources,
	}
	if card.Doctors == nil {
		card.Doctors = []Doctor{}
	}
	if card.Resources == nil {
		card.Resources = []Resource{}
	}
	contact := NewHospitalContact(h.ID, owner)
	card.Name = contact.Name
	card.Location = contact.Location
	card.Email = contact.Email
	card.Phone = contact.Phone
	return card
}
