package models

import "time"

// Request and donation kinds
const (
	KindBlood = "blood"
	KindOrgan = "organ"
)

// ValidDonationKind reports whether k is blood or organ
func ValidDonationKind(k string) bool {
	return k == KindBlood || k == KindOrgan
}

// ValidRequestUrgency reports whether u is a known resource request urgency
func ValidRequestUrgency(u string) bool {
	return u == "low" || u == "medium" || u == "high"
}

// ValidRequestStatus reports whether s is a known resource request status
func ValidRequestStatus(s string) bool {
	switch s {
	case "pending", "matched", "fulfilled", "cancelled":
		return true
	}
	return false
}

// ResourceRequest is a blood or organ request raised by a user
type ResourceRequest struct {
	ID          string    `json:"_id"`
	RequesterID string    `json:"requester"`
	RequestType string    `json:"requestType"`
	Details     string    `json:"details"`
	Urgency     string    `json:"urgency"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Donation records a completed donation
type Donation struct {
	ID           string    `json:"_id"`
	DonorID      string    `json:"donor"`
	DonationType string    `json:"donationType"`
	DonationDate time.Time `json:"donationDate"`
	HospitalID   string    `json:"hospital,omitempty"`
	Details      string    `json:"details,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}
