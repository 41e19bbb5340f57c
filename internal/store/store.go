// Package store persists the coordinator's documents. Records reference each
// other by id only; references are not enforced.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lifelink/emergency-coordinator/internal/models"
)

var (
	// ErrNotFound is returned when a record does not exist
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique key is already taken
	ErrDuplicate = errors.New("record already exists")
)

// UserFilter narrows ListUsers. Zero values match everything.
type UserFilter struct {
	Role     string
	Verified *bool
}

// Store is the persistence boundary used by the HTTP handlers
type Store interface {
	Ping(ctx context.Context) error

	CreateUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateUser(ctx context.Context, u *models.User) error
	ListUsers(ctx context.Context, filter UserFilter) ([]*models.User, error)

	CreateHospital(ctx context.Context, h *models.Hospital) error
	GetHospital(ctx context.Context, id string) (*models.Hospital, error)
	GetHospitalByUser(ctx context.Context, userID string) (*models.Hospital, error)
	// EnsureHospital returns the hospital owned by userID, creating an empty one if needed.
	EnsureHospital(ctx context.Context, userID string) (*models.Hospital, error)
	UpdateHospital(ctx context.Context, h *models.Hospital) error
	ListHospitals(ctx context.Context) ([]*models.Hospital, error)

	CreateAlert(ctx context.Context, a *models.Alert) error
	GetAlert(ctx context.Context, id string) (*models.Alert, error)
	UpdateAlert(ctx context.Context, a *models.Alert) error
	DeleteAlert(ctx context.Context, id string) error
	// ListAlertsByUser returns newest first; limit <= 0 returns all.
	ListAlertsByUser(ctx context.Context, userID string, limit int) ([]*models.Alert, error)
	ListOpenAlerts(ctx context.Context) ([]*models.Alert, error)

	CreateRequest(ctx context.Context, r *models.ResourceRequest) error
	DeleteRequest(ctx context.Context, id string) error
	ListRequestsByUser(ctx context.Context, userID string) ([]*models.ResourceRequest, error)

	CreateDonation(ctx context.Context, d *models.Donation) error
	ListDonationsByUser(ctx context.Context, userID string) ([]*models.Donation, error)

	CreateMessage(ctx context.Context, m *models.HospitalMessage) error
	GetMessage(ctx context.Context, id string) (*models.HospitalMessage, error)
	UpdateMessage(ctx context.Context, m *models.HospitalMessage) error
	DeleteMessage(ctx context.Context, id string) error
	// ListMessagesTo returns messages addressed to any of the ids, newest first.
	ListMessagesTo(ctx context.Context, hospitalIDs ...string) ([]*models.HospitalMessage, error)
	// ListMessagesFrom returns messages sent by any of the ids, newest first.
	ListMessagesFrom(ctx context.Context, hospitalIDs ...string) ([]*models.HospitalMessage, error)
	CountMessages(ctx context.Context) (int, error)

	CreatePatient(ctx context.Context, p *models.Patient) error
	// ListPatients returns one hospital's patients, most recently admitted first.
	ListPatients(ctx context.Context, hospitalID string) ([]*models.Patient, error)

	CreateInventoryItem(ctx context.Context, item *models.InventoryItem) error
	// ListInventory returns one hospital's stock ordered by category, then name.
	ListInventory(ctx context.Context, hospitalID string) ([]*models.InventoryItem, error)

	CreateAmbulance(ctx context.Context, a *models.Ambulance) error
	GetAmbulance(ctx context.Context, id string) (*models.Ambulance, error)
	UpdateAmbulance(ctx context.Context, a *models.Ambulance) error
	// ListAmbulances returns every ambulance, or one hospital's when hospitalID is set.
	ListAmbulances(ctx context.Context, hospitalID string) ([]*models.Ambulance, error)

	// Reset removes every record. Used by the seed CLI.
	Reset(ctx context.Context) error
}

var now = func() time.Time { return time.Now().UTC() }

func newID() string { return uuid.NewString() }

// stamp assigns an id and creation time when unset and returns the time used.
func stamp(id *string, createdAt *time.Time) time.Time {
	t := now()
	if *id == "" {
		*id = newID()
	}
	if createdAt.IsZero() {
		*createdAt = t
	}
	return t
}

var (
	_ Store = (*Postgres)(nil)
	_ Store = (*Memory)(nil)
)
