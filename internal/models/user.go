package models

import (
	"strings"
	"time"
)

// Roles
const (
	RolePublic     = "public"
	RoleHospital   = "hospital"
	RoleGovernment = "government"
)

// ValidRole reports whether role is one of the known account roles
func ValidRole(role string) bool {
	switch role {
	case RolePublic, RoleHospital, RoleGovernment:
		return true
	}
	return false
}

// User represents an account in the system
type User struct {
	ID              string           `json:"_id"`
	Name            string           `json:"name"`
	Email           string           `json:"email"`
	HashedPassword  string           `json:"-"` // Never expose in JSON
	Role            string           `json:"role"`
	IsVerified      bool             `json:"isVerified"`
	Location        string           `json:"location,omitempty"`
	Phone           string           `json:"phone,omitempty"`
	PublicProfile   *PublicProfile   `json:"publicProfile,omitempty"`
	HospitalProfile *HospitalProfile `json:"hospitalProfile,omitempty"`
	CreatedAt       time.Time        `json:"createdAt"`
}

// PublicProfile holds an individual's health data
type PublicProfile struct {
	HealthRecords HealthRecords `json:"healthRecords"`
}

// HealthRecords is the personal medical summary of a public user
type HealthRecords struct {
	Age        int      `json:"age,omitempty"`
	Gender     string   `json:"gender,omitempty"`
	BloodGroup string   `json:"bloodGroup,omitempty"`
	Conditions []string `json:"conditions,omitempty"`
	Contact    string   `json:"contact,omitempty"`
}

// HospitalProfile holds organisation data for hospital accounts
type HospitalProfile struct {
	RegNumber     string   `json:"regNumber,omitempty"`
	Type          string   `json:"type,omitempty"`
	HospitalName  string   `json:"hospitalName,omitempty"`
	Jurisdiction  string   `json:"jurisdiction,omitempty"`
	ContactNumber string   `json:"contactNumber,omitempty"`
	TotalBeds     int      `json:"totalBeds"`
	Ambulances    int      `json:"ambulances"`
	Specialties   []string `json:"specialties,omitempty"`
	Website       string   `json:"website,omitempty"`
}

// SignupRequest is the body of POST /auth/signup
type SignupRequest struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Role      string `json:"role"`
	Location  string `json:"location"`
	Phone     string `json:"phone"`
	Age       int    `json:"age"`
	Gender    string `json:"gender"`
	RegNumber string `json:"regNumber"`
	Type      string `json:"type"`
}

// LoginRequest represents authentication request payload
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// LoginResponse represents authentication response with JWT token
type LoginResponse struct {
	Token string   `json:"token"`
	Role  string   `json:"role"`
	User  UserInfo `json:"user"`
}

// UserInfo represents safe user information (without sensitive data)
type UserInfo struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Role       string `json:"role"`
	Location   string `json:"location,omitempty"`
	IsVerified bool   `json:"isVerified"`
}

// ToUserInfo converts User to UserInfo (safe for API responses)
func (u *User) ToUserInfo() UserInfo {
	return UserInfo{
		ID:         u.ID,
		Name:       u.Name,
		Email:      u.Email,
		Role:       u.Role,
		Location:   u.Location,
		IsVerified: u.IsVerified,
	}
}

// DisplayName is the hospital name when set, else the account name
func (u *User) DisplayName() string {
	if u.HospitalProfile != nil && strings.TrimSpace(u.HospitalProfile.HospitalName) != "" {
		return u.HospitalProfile.HospitalName
	}
	return u.Name
}
