package store

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/lifelink/emergency-coordinator/internal/models"
)

// Memory is an in-process Store. Records are deep-copied on the way in and out,
// so callers never share state with the store.
type Memory struct {
	mu         sync.RWMutex
	users      map[string]*models.User
	hospitals  map[string]*models.Hospital
	alerts     map[string]*models.Alert
	requests   map[string]*models.ResourceRequest
	donations  map[string]*models.Donation
	messages   map[string]*models.HospitalMessage
	ambulances map[string]*models.Ambulance
	patients   map[string]*models.Patient
	inventory  map[string]*models.InventoryItem
}

// NewMemory creates an empty in-process store
func NewMemory() *Memory {
	m := &Memory{}
	m.reset()
	return m
}

func (m *Memory) reset() {
	m.users = map[string]*models.User{}
	m.hospitals = map[string]*models.Hospital{}
	m.alerts = map[string]*models.Alert{}
	m.requests = map[string]*models.ResourceRequest{}
	m.donations = map[string]*models.Donation{}
	m.messages = map[string]*models.HospitalMessage{}
	m.ambulances = map[string]*models.Ambulance{}
	m.patients = map[string]*models.Patient{}
	m.inventory = map[string]*models.InventoryItem{}
}

func (m *Memory) Ping(ctx context.Context) error { return ctx.Err() }

func (m *Memory) Reset(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reset()
	return nil
}

// Users

func (m *Memory) CreateUser(ctx context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return ErrDuplicate
		}
	}
	stamp(&u.ID, &u.CreatedAt)
	m.users[u.ID] = clone(u)
	return nil
}

func (m *Memory) GetUser(ctx context.Context, id string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return get(m.users, id)
}

func (m *Memory) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Email == email {
			return clone(u), nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) UpdateUser(ctx context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[u.ID]; !ok {
		return ErrNotFound
	}
	for id, existing := range m.users {
		if id != u.ID && existing.Email == u.Email {
			return ErrDuplicate
		}
	}
	m.users[u.ID] = clone(u)
	return nil
}

func (m *Memory) ListUsers(ctx context.Context, filter UserFilter) ([]*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return list(m.users, func(u *models.User) bool {
		if filter.Role != "" && u.Role != filter.Role {
			return false
		}
		return filter.Verified == nil || u.IsVerified == *filter.Verified
	}, func(u *models.User) time.Time { return u.CreatedAt }, true), nil
}

// Hospitals

func (m *Memory) CreateHospital(ctx context.Context, h *models.Hospital) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.createHospital(h)
}

func (m *Memory) createHospital(h *models.Hospital) error {
	for _, existing := range m.hospitals {
		if existing.UserID == h.UserID {
			return ErrDuplicate
		}
	}
	h.UpdatedAt = stamp(&h.ID, &h.CreatedAt)
	m.hospitals[h.ID] = clone(h)
	return nil
}

func (m *Memory) GetHospital(ctx context.Context, id string) (*models.Hospital, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return get(m.hospitals, id)
}

func (m *Memory) GetHospitalByUser(ctx context.Context, userID string) (*models.Hospital, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.hospitalByUser(userID)
}

func (m *Memory) hospitalByUser(userID string) (*models.Hospital, error) {
	for _, h := range m.hospitals {
		if h.UserID == userID {
			return clone(h), nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) EnsureHospital(ctx context.Context, userID string) (*models.Hospital, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if h, err := m.hospitalByUser(userID); err == nil {
		return h, nil
	}
	h := models.NewHospital(userID)
	if err := m.createHospital(h); err != nil {
		return nil, err
	}
	return clone(h), nil
}

func (m *Memory) UpdateHospital(ctx context.Context, h *models.Hospital) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.hospitals[h.ID]; !ok {
		return ErrNotFound
	}
	h.UpdatedAt = now()
	m.hospitals[h.ID] = clone(h)
	return nil
}

func (m *Memory) ListHospitals(ctx context.Context) ([]*models.Hospital, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return list(m.hospitals, nil, func(h *models.Hospital) time.Time { return h.CreatedAt }, false), nil
}

// Alerts

func (m *Memory) CreateAlert(ctx context.Context, a *models.Alert) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a.UpdatedAt = stamp(&a.ID, &a.CreatedAt)
	m.alerts[a.ID] = clone(a)
	return nil
}

func (m *Memory) GetAlert(ctx context.Context, id string) (*models.Alert, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return get(m.alerts, id)
}

func (m *Memory) UpdateAlert(ctx context.Context, a *models.Alert) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.alerts[a.ID]; !ok {
		return ErrNotFound
	}
	a.UpdatedAt = now()
	m.alerts[a.ID] = clone(a)
	return nil
}

func (m *Memory) DeleteAlert(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return remove(m.alerts, id)
}

func (m *Memory) ListAlertsByUser(ctx context.Context, userID string, limit int) ([]*models.Alert, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := list(m.alerts, func(a *models.Alert) bool { return a.UserID == userID },
		func(a *models.Alert) time.Time { return a.CreatedAt }, true)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *Memory) ListOpenAlerts(ctx context.Context) ([]*models.Alert, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return list(m.alerts, func(a *models.Alert) bool { return a.Status != models.AlertResolved },
		func(a *models.Alert) time.Time { return a.CreatedAt }, true), nil
}

// Resource requests and donations

func (m *Memory) CreateRequest(ctx context.Context, r *models.ResourceRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r.UpdatedAt = stamp(&r.ID, &r.CreatedAt)
	m.requests[r.ID] = clone(r)
	return nil
}

func (m *Memory) DeleteRequest(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return remove(m.requests, id)
}

func (m *Memory) ListRequestsByUser(ctx context.Context, userID string) ([]*models.ResourceRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return list(m.requests, func(r *models.ResourceRequest) bool { return r.RequesterID == userID },
		func(r *models.ResourceRequest) time.Time { return r.CreatedAt }, true), nil
}

func (m *Memory) CreateDonation(ctx context.Context, d *models.Donation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stamp(&d.ID, &d.CreatedAt)
	m.donations[d.ID] = clone(d)
	return nil
}

func (m *Memory) ListDonationsByUser(ctx context.Context, userID string) ([]*models.Donation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return list(m.donations, func(d *models.Donation) bool { return d.DonorID == userID },
		func(d *models.Donation) time.Time { return d.CreatedAt }, true), nil
}

// Patients and inventory

func (m *Memory) CreatePatient(ctx context.Context, p *models.Patient) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := stamp(&p.ID, &p.CreatedAt)
	if p.AdmitDate.IsZero() {
		p.AdmitDate = t
	}
	m.patients[p.ID] = clone(p)
	return nil
}

func (m *Memory) ListPatients(ctx context.Context, hospitalID string) ([]*models.Patient, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return list(m.patients, func(p *models.Patient) bool { return p.HospitalID == hospitalID },
		func(p *models.Patient) time.Time { return p.AdmitDate }, true), nil
}

func (m *Memory) CreateInventoryItem(ctx context.Context, item *models.InventoryItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := stamp(&item.ID, &item.CreatedAt)
	if item.LastUpdated.IsZero() {
		item.LastUpdated = t
	}
	m.inventory[item.ID] = clone(item)
	return nil
}

func (m *Memory) ListInventory(ctx context.Context, hospitalID string) ([]*models.InventoryItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	items := list(m.inventory, func(i *models.InventoryItem) bool { return i.HospitalID == hospitalID },
		func(i *models.InventoryItem) time.Time { return i.CreatedAt }, false)
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Category != items[j].Category {
			return items[i].Category < items[j].Category
		}
		return items[i].Name < items[j].Name
	})
	return items, nil
}

// Hospital messages

func (m *Memory) CreateMessage(ctx context.Context, msg *models.HospitalMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg.UpdatedAt = stamp(&msg.ID, &msg.CreatedAt)
	m.messages[msg.ID] = clone(msg)
	return nil
}

func (m *Memory) GetMessage(ctx context.Context, id string) (*models.HospitalMessage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return get(m.messages, id)
}

func (m *Memory) UpdateMessage(ctx context.Context, msg *models.HospitalMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.messages[msg.ID]; !ok {
		return ErrNotFound
	}
	msg.UpdatedAt = now()
	m.messages[msg.ID] = clone(msg)
	return nil
}

func (m *Memory) DeleteMessage(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return remove(m.messages, id)
}

func (m *Memory) ListMessagesTo(ctx context.Context, hospitalIDs ...string) ([]*models.HospitalMessage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := set(hospitalIDs)
	return list(m.messages, func(msg *models.HospitalMessage) bool { return ids[msg.ToHospital] },
		func(msg *models.HospitalMessage) time.Time { return msg.CreatedAt }, true), nil
}

func (m *Memory) ListMessagesFrom(ctx context.Context, hospitalIDs ...string) ([]*models.HospitalMessage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := set(hospitalIDs)
	return list(m.messages, func(msg *models.HospitalMessage) bool { return ids[msg.FromHospital] },
		func(msg *models.HospitalMessage) time.Time { return msg.CreatedAt }, true), nil
}

func (m *Memory) CountMessages(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.messages), nil
}

// Ambulances

func (m *Memory) CreateAmbulance(ctx context.Context, a *models.Ambulance) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.ambulances {
		if existing.AmbulanceID == a.AmbulanceID {
			return ErrDuplicate
		}
	}
	a.UpdatedAt = stamp(&a.ID, &a.CreatedAt)
	m.ambulances[a.ID] = clone(a)
	return nil
}

func (m *Memory) GetAmbulance(ctx context.Context, id string) (*models.Ambulance, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return get(m.ambulances, id)
}

func (m *Memory) UpdateAmbulance(ctx context.Context, a *models.Ambulance) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.ambulances[a.ID]; !ok {
		return ErrNotFound
	}
	a.UpdatedAt = now()
	m.ambulances[a.ID] = clone(a)
	return nil
}

func (m *Memory) ListAmbulances(ctx context.Context, hospitalID string) ([]*models.Ambulance, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return list(m.ambulances, func(a *models.Ambulance) bool { return hospitalID == "" || a.HospitalID == hospitalID },
		func(a *models.Ambulance) time.Time { return a.CreatedAt }, true), nil
}

// Helpers

// clone deep-copies a record through its JSON form, the same shape Postgres stores.
func clone[T any](v *T) *T {
	raw, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	out := new(T)
	if err := json.Unmarshal(raw, out); err != nil {
		panic(err)
	}
	// The password hash is kept out of JSON and stored beside the document.
	if src, ok := any(v).(*models.User); ok {
		any(out).(*models.User).HashedPassword = src.HashedPassword
	}
	return out
}

func get[T any](records map[string]*T, id string) (*T, error) {
	v, ok := records[id]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(v), nil
}

func remove[T any](records map[string]*T, id string) error {
	if _, ok := records[id]; !ok {
		return ErrNotFound
	}
	delete(records, id)
	return nil
}

func list[T any](records map[string]*T, keep func(*T) bool, created func(*T) time.Time, newestFirst bool) []*T {
	out := make([]*T, 0, len(records))
	for _, v := range records {
		if keep == nil || keep(v) {
			out = append(out, clone(v))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if newestFirst {
			return created(out[i]).After(created(out[j]))
		}
		return created(out[i]).Before(created(out[j]))
	})
	return out
}

func set(ids []string) map[string]bool {
	out := make(map[string]bool, len(ids))
	for _, id := range ids {
		out[id] = true
	}
	return out
}
