package models

import "time"

// Message types, statuses and urgency levels for inter-hospital requests
const (
	MessageStaff    = "staff"
	MessageDoctor   = "doctor"
	MessageResource = "resource"

	MessagePending  = "pending"
	MessageApproved = "approved"
	MessageRejected = "rejected"
	MessageResolved = "resolved"
)

// ValidMessageType reports whether t is a known message type
func ValidMessageType(t string) bool {
	return t == MessageStaff || t == MessageDoctor || t == MessageResource
}

// ValidMessageStatus reports whether s is a known message status
func ValidMessageStatus(s string) bool {
	switch s {
	case MessagePending, MessageApproved, MessageRejected, MessageResolved:
		return true
	}
	return false
}

// ValidMessageUrgency reports whether u is a known urgency level
func ValidMessageUrgency(u string) bool {
	switch u {
	case "low", "medium", "high", "critical":
		return true
	}
	return false
}

// HospitalMessage is a request sent from one hospital to another
type HospitalMessage struct {
	ID             string           `json:"_id"`
	FromHospital   string           `json:"fromHospital"`
	ToHospital     string           `json:"toHospital"`
	MessageType    string           `json:"messageType"`
	Subject        string           `json:"subject"`
	Details        string           `json:"details"`
	RequestDetails RequestDetails   `json:"requestDetails"`
	Status         string           `json:"status"`
	Response       *MessageResponse `json:"response,omitempty"`
	CreatedAt      time.Time        `json:"createdAt"`
	UpdatedAt      time.Time        `json:"updatedAt"`
}

// RequestDetails carries the structured part of a hospital request
type RequestDetails struct {
	StaffCount       int        `json:"staffCount,omitempty"`
	Specialization   string     `json:"specialization,omitempty"`
	ResourceName     string     `json:"resourceName,omitempty"`
	ResourceQuantity int        `json:"resourceQuantity,omitempty"`
	UrgencyLevel     string     `json:"urgencyLevel"`
	PreferredDate    *time.Time `json:"preferredDate,omitempty"`
	Duration         string     `json:"duration,omitempty"`
}

// MessageResponse is the recipient's reply
type MessageResponse struct {
	Message      string    `json:"message"`
	ResponseDate time.Time `json:"responseDate"`
	RespondedBy  string    `json:"respondedBy,omitempty"`
}

// SendMessageRequest is the body of POST /hospital-communication/send-message
type SendMessageRequest struct {
	FromHospitalID   string     `json:"fromHospitalId"`
	ToHospitalID     string     `json:"toHospitalId"`
	MessageType      string     `json:"messageType"`
	Subject          string     `json:"subject"`
	Details          string     `json:"details"`
	StaffCount       int        `json:"staffCount"`
	Specialization   string     `json:"specialization"`
	ResourceName     string     `json:"resourceName"`
	ResourceQuantity int        `json:"resourceQuantity"`
	UrgencyLevel     string     `json:"urgencyLevel"`
	PreferredDate    *time.Time `json:"preferredDate"`
	Duration         string     `json:"duration"`
}

// HospitalContact is the normalized sender or recipient of a message
type HospitalContact struct {
	ID       string `json:"_id"`
	Name     string `json:"name"`
	Location string `json:"location"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
}

// NewHospitalContact summarizes a hospital by its owning account. A missing
// owner yields placeholder names.
func NewHospitalContact(hospitalID string, owner *User) HospitalContact {
	contact := HospitalContact{ID: hospitalID, Name: "Unnamed Hospital", Location: "Unknown"}
	if owner == nil {
		return contact
	}
	if name := owner.DisplayName(); name != "" {
		contact.Name = name
	}
	contact.Email = owner.Email
	contact.Phone = owner.Phone
	if owner.Location != "" {
		contact.Location = owner.Location
	}
	if p := owner.HospitalProfile; p != nil {
		if p.Jurisdiction != "" {
			contact.Location = p.Jurisdiction
		}
		if p.ContactNumber != "" {
			contact.Phone = p.ContactNumber
		}
	}
	return contact
}

// MessageView is a message with both hospital references expanded
type MessageView struct {
	HospitalMessage
	FromHospital HospitalContact `json:"fromHospital"`
	ToHospital   HospitalContact `json:"toHospital"`
}
