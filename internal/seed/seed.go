// Package seed loads demo accounts, hospitals, alerts and an ambulance fleet.
package seed

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/lifelink/emergency-coordinator/internal/auth"
	"github.com/lifelink/emergency-coordinator/internal/models"
	"github.com/lifelink/emergency-coordinator/internal/store"
	"go.uber.org/zap"
)

// DemoPassword is shared by every seeded account
const DemoPassword = "password123"

// ErrAlreadySeeded is returned when demo accounts exist and Reset is off
var ErrAlreadySeeded = errors.New("demo data already present; rerun with --reset")

// Options controls a seeding run
type Options struct {
	Reset      bool
	Ambulances int
	// Rand drives coordinates, driver picks and statuses. Defaults to a time-seeded source.
	Rand   *rand.Rand
	Logger *zap.Logger
}

// Summary counts what a run created
type Summary struct {
	Users      int
	Hospitals  int
	Alerts     int
	Requests   int
	Ambulances int
	Accounts   []Account
}

// Account is a login created by the run
type Account struct {
	Role  string
	Email string
	Name  string
}

type area struct {
	name     string
	lat, lng float64
}

// Inland points around Mangalore taluk; every longitude is east of the coastline.
var areas = []area{
	{"Bendore", 12.8400, 74.9200},
	{"Urwa", 12.8600, 74.9100},
	{"Attavar", 12.8500, 74.9300},
	{"Kadri", 12.8550, 74.9400},
	{"Pumpwell", 12.8450, 74.9250},
	{"Talapady", 12.8200, 74.9300},
	{"Deralakatte", 12.8100, 74.9400},
	{"Ullal", 12.8000, 74.9500},
	{"Falnir", 12.8900, 74.9250},
	{"Bajpe", 12.9100, 74.9150},
	{"Mulki", 12.9500, 74.9000},
	{"Surathkal", 13.0200, 74.8900},
	{"Vitla", 12.8300, 75.0500},
	{"Moodabidri", 12.7500, 75.0200},
	{"Bantwal", 12.6800, 75.0000},
	{"Puttur", 12.7400, 75.0800},
	{"Kankanady", 12.8000, 74.9600},
	{"Hampankatta", 12.8350, 74.9350},
	{"Nantoor", 12.7900, 75.0300},
	{"Kuthar", 12.7700, 75.0100},
}

var driverNames = []string{
	"Rajesh Kumar", "Amit Singh", "Pradeep Nair", "Rohit Verma", "Sanjay Reddy",
	"Vikram Sharma", "Arun Kumar", "Manoj Singh", "Deepak Patel", "Suresh Gupta",
	"Ravi Shankar", "Harish Kumar", "Nitin Yadav", "Arjun Singh", "Varun Sharma",
}

var fleetStatuses = []string{
	models.AmbulanceAvailable, models.AmbulanceEnRoute, models.AmbulanceAtLocation,
	models.AmbulanceReturning, models.AmbulanceMaintenance,
}

type hospitalSeed struct {
	name, email, reg, contact, jurisdiction string
	verified                                bool
}

var hospitals = []hospitalSeed{
	{"Central City General", "hospital@test.com", "H-100", "555-0199", "Central City", true},
	{"Northside Medical Center", "northside@hospital.local", "H-101", "555-0101", "North Sector", true},
	{"Mercy West Hospital", "mercy@hospital.local", "H-102", "555-0102", "West Suburbs", true},
	{"St. Jude Hospital", "stjude@hospital.local", "H-103", "555-0103", "Downtown", false},
	{"Riverside Community Hospital", "riverside@hospital.local", "H-104", "555-0104", "South City", false},
}

var donors = []struct{ name, bloodGroup, location string }{
	{"Alice Green", "O+", "North Sector"},
	{"Bob White", "A-", "West Suburbs"},
	{"Charlie Black", "AB+", "Downtown"},
	{"Diana Prince", "O-", "South City"},
	{"Evan Wright", "B+", "Uptown"},
}

// Run writes the demo data set into st
func Run(ctx context.Context, st store.Store, opts Options) (*Summary, error) {
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Ambulances < 0 {
		return nil, fmt.Errorf("ambulance count must not be negative")
	}

	if opts.Reset {
		if err := st.Reset(ctx); err != nil {
			return nil, fmt.Errorf("failed to reset store: %w", err)
		}
		opts.Logger.Info("store reset")
	}

	hash, err := auth.HashPassword(DemoPassword)
	if err != nil {
		return nil, fmt.Errorf("failed to hash demo password: %w", err)
	}

	s := &seeder{st: st, hash: hash, rng: opts.Rand, summary: &Summary{}}

	public, err := s.user(ctx, &models.User{
		Name: "Maharaj User", Email: "public@test.com", Role: models.RolePublic, IsVerified: true,
		Location: "Downtown", Phone: "555-0100",
		PublicProfile: &models.PublicProfile{HealthRecords: models.HealthRecords{
			Age: 25, Gender: "Male", BloodGroup: "B+", Conditions: []string{"Asthma"}, Contact: "555-0100",
		}},
	})
	if err != nil {
		return nil, err
	}
	if _, err := s.user(ctx, &models.User{
		Name: "Officer Barbrady", Email: "gov@test.com", Role: models.RoleGovernment, IsVerified: true,
		Location: "Central City",
	}); err != nil {
		return nil, err
	}

	for i, d := range donors {
		if _, err := s.user(ctx, &models.User{
			Name:       d.name,
			Email:      strings.ToLower(strings.Fields(d.name)[0]) + "@example.com",
			Role:       models.RolePublic,
			IsVerified: true,
			Location:   d.location,
			PublicProfile: &models.PublicProfile{HealthRecords: models.HealthRecords{
				Age: 20 + s.rng.Intn(40), Gender: []string{"Female", "Male"}[i%2], BloodGroup: d.bloodGroup,
			}},
		}); err != nil {
			return nil, err
		}
	}

	var primary *models.Hospital
	for i, hs := range hospitals {
		hospital, err := s.hospital(ctx, hs, i == 0)
		if err != nil {
			return nil, err
		}
		if primary == nil {
			primary = hospital
		}
	}

	if err := st.CreateAlert(ctx, &models.Alert{
		UserID:          public.ID,
		LocationDetails: "Lat: 12.9716, Lng: 77.5946",
		Message:         "Severe chest pain, difficulty breathing.",
		EmergencyType:   "High",
		Priority:        "High",
		Status:          models.AlertPending,
		AmbulanceType:   "Advanced Life Support",
	}); err != nil {
		return nil, fmt.Errorf("failed to create alert: %w", err)
	}
	s.summary.Alerts++

	if err := st.CreateRequest(ctx, &models.ResourceRequest{
		RequesterID: public.ID,
		RequestType: models.KindBlood,
		Details:     "2 units B+ for scheduled surgery",
		Urgency:     "high",
		Status:      "pending",
	}); err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	s.summary.Requests++

	for i := 1; i <= opts.Ambulances; i++ {
		if err := st.CreateAmbulance(ctx, s.ambulance(i, primary.ID)); err != nil {
			return nil, fmt.Errorf("failed to create ambulance %d: %w", i, err)
		}
		s.summary.Ambulances++
	}

	opts.Logger.Info("seed complete",
		zap.Int("users", s.summary.Users),
		zap.Int("hospitals", s.summary.Hospitals),
		zap.Int("ambulances", s.summary.Ambulances),
	)
	return s.summary, nil
}

type seeder struct {
	st      store.Store
	hash    string
	rng     *rand.Rand
	summary *Summary
}

func (s *seeder) user(ctx context.Context, u *models.User) (*models.User, error) {
	u.HashedPassword = s.hash
	if err := s.st.CreateUser(ctx, u); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, ErrAlreadySeeded
		}
		return nil, fmt.Errorf("failed to create user %s: %w", u.Email, err)
	}
	s.summary.Users++
	s.summary.Accounts = append(s.summary.Accounts, Account{Role: u.Role, Email: u.Email, Name: u.Name})
	return u, nil
}

func (s *seeder) hospital(ctx context.Context, hs hospitalSeed, primary bool) (*models.Hospital, error) {
	owner, err := s.user(ctx, &models.User{
		Name:       hs.name,
		Email:      hs.email,
		Role:       models.RoleHospital,
		IsVerified: hs.verified,
		Location:   hs.jurisdiction,
		Phone:      hs.contact,
		HospitalProfile: &models.HospitalProfile{
			HospitalName:  hs.name,
			RegNumber:     hs.reg,
			Type:          "General",
			ContactNumber: hs.contact,
			Jurisdiction:  hs.jurisdiction,
			TotalBeds:     120,
			Ambulances:    8,
			Specialties:   []string{"Emergency", "Cardiology"},
		},
	})
	if err != nil {
		return nil, err
	}

	hospital := models.NewHospital(owner.ID)
	occupied := 40 + s.rng.Intn(60)
	hospital.Beds = models.Beds{TotalBeds: 120, OccupiedBeds: occupied, AvailableBeds: 120 - occupied}
	hospital.Doctors = []models.Doctor{
		{Name: "Dr. " + strings.Fields(hs.name)[0] + " Lead", Department: "Emergency", Specialization: "Physician", Availability: true},
		{Name: "Dr. OnCall " + hs.reg, Department: "Surgery", Specialization: "Surgeon"},
	}
	hospital.Resources = []models.Resource{
		{Name: "O+ Blood", Category: "blood", TotalUnits: 30, AvailableUnits: s.rng.Intn(30), Unit: "units"},
		{Name: "Ventilators", Category: "equipment", TotalUnits: 5, AvailableUnits: s.rng.Intn(5)},
		{Name: "PPE Kits", Category: "supplies", TotalUnits: 100, AvailableUnits: s.rng.Intn(100)},
	}
	if primary {
		hospital.Resources = append(hospital.Resources, models.Resource{
			Name: "A- Blood", Category: "blood", TotalUnits: 10, AvailableUnits: 8, Unit: "units",
		})
	}

	if err := s.st.CreateHospital(ctx, hospital); err != nil {
		return nil, fmt.Errorf("failed to create hospital for %s: %w", hs.email, err)
	}
	s.summary.Hospitals++
	return hospital, nil
}

func (s *seeder) ambulance(i int, hospitalID string) *models.Ambulance {
	a := areas[s.rng.Intn(len(areas))]
	// Scatter within roughly a kilometre of the area centre.
	lat := a.lat + (s.rng.Float64()-0.5)*0.01
	lng := a.lng + (s.rng.Float64()-0.5)*0.01
	driver := driverNames[s.rng.Intn(len(driverNames))]

	return &models.Ambulance{
		AmbulanceID:        fmt.Sprintf("AMB-%03d", i),
		RegistrationNumber: fmt.Sprintf("KA01AB%04d", i),
		HospitalID:         hospitalID,
		Status:             fleetStatuses[s.rng.Intn(len(fleetStatuses))],
		CurrentLocation: &models.GeoPoint{
			Latitude:  lat,
			Longitude: lng,
			Address:   a.name + ", Mangalore",
		},
		TravelHistory: []models.Trip{},
		Driver: models.Driver{
			Name:          driver,
			LicenseNumber: fmt.Sprintf("KA-%06d", i),
			Phone:         fmt.Sprintf("+91%010d", 9000000000+s.rng.Int63n(999999999)),
			Availability:  true,
		},
		Metrics: models.AmbulanceMetrics{OnTimeDeliveryRate: 100},
	}
}
