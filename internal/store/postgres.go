package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lifelink/emergency-coordinator/internal/models"
)

// Postgres stores each record as a JSONB document next to the columns it is looked up by
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres creates a store over an open pool
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (p *Postgres) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Users

func (p *Postgres) CreateUser(ctx context.Context, u *models.User) error {
	stamp(&u.ID, &u.CreatedAt)
	return p.insert(ctx,
		`INSERT INTO users (id, email, role, is_verified, password_hash, doc, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		u.ID, u.Email, u.Role, u.IsVerified, u.HashedPassword, asDoc(u), u.CreatedAt)
}

func (p *Postgres) GetUser(ctx context.Context, id string) (*models.User, error) {
	return p.getUser(ctx, `SELECT doc, password_hash FROM users WHERE id = $1`, id)
}

func (p *Postgres) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return p.getUser(ctx, `SELECT doc, password_hash FROM users WHERE email = $1`, email)
}

func (p *Postgres) UpdateUser(ctx context.Context, u *models.User) error {
	return p.update(ctx,
		`UPDATE users SET email = $2, role = $3, is_verified = $4, password_hash = $5, doc = $6 WHERE id = $1`,
		u.ID, u.Email, u.Role, u.IsVerified, u.HashedPassword, asDoc(u))
}

func (p *Postgres) getUser(ctx context.Context, sql string, arg string) (*models.User, error) {
	var (
		raw  []byte
		hash string
	)
	if err := p.pool.QueryRow(ctx, sql, arg).Scan(&raw, &hash); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	var u models.User
	if err := json.Unmarshal(raw, &u); err != nil {
		return nil, fmt.Errorf("failed to decode user: %w", err)
	}
	u.HashedPassword = hash
	return &u, nil
}

func (p *Postgres) ListUsers(ctx context.Context, filter UserFilter) ([]*models.User, error) {
	return listDocs[models.User](ctx, p.pool,
		`SELECT doc FROM users
		 WHERE ($1 = '' OR role = $1) AND ($2::boolean IS NULL OR is_verified = $2)
		 ORDER BY created_at DESC`,
		filter.Role, filter.Verified)
}

// Hospitals

func (p *Postgres) CreateHospital(ctx context.Context, h *models.Hospital) error {
	h.UpdatedAt = stamp(&h.ID, &h.CreatedAt)
	return p.insert(ctx,
		`INSERT INTO hospitals (id, user_id, doc, created_at) VALUES ($1, $2, $3, $4)`,
		h.ID, h.UserID, asDoc(h), h.CreatedAt)
}

func (p *Postgres) GetHospital(ctx context.Context, id string) (*models.Hospital, error) {
	return getDoc[models.Hospital](ctx, p.pool, `SELECT doc FROM hospitals WHERE id = $1`, id)
}

func (p *Postgres) GetHospitalByUser(ctx context.Context, userID string) (*models.Hospital, error) {
	return getDoc[models.Hospital](ctx, p.pool, `SELECT doc FROM hospitals WHERE user_id = $1`, userID)
}

func (p *Postgres) EnsureHospital(ctx context.Context, userID string) (*models.Hospital, error) {
	h := models.NewHospital(userID)
	h.UpdatedAt = stamp(&h.ID, &h.CreatedAt)

	doc, err := json.Marshal(h)
	if err != nil {
		return nil, fmt.Errorf("failed to encode hospital: %w", err)
	}

	_, err = p.pool.Exec(ctx,
		`INSERT INTO hospitals (id, user_id, doc, created_at) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (user_id) DO NOTHING`,
		h.ID, userID, doc, h.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure hospital: %w", err)
	}

	return p.GetHospitalByUser(ctx, userID)
}

func (p *Postgres) UpdateHospital(ctx context.Context, h *models.Hospital) error {
	h.UpdatedAt = now()
	return p.update(ctx,
		`UPDATE hospitals SET doc = $2 WHERE id = $1`,
		h.ID, asDoc(h))
}

func (p *Postgres) ListHospitals(ctx context.Context) ([]*models.Hospital, error) {
	return listDocs[models.Hospital](ctx, p.pool, `SELECT doc FROM hospitals ORDER BY created_at`)
}

// Alerts

func (p *Postgres) CreateAlert(ctx context.Context, a *models.Alert) error {
	a.UpdatedAt = stamp(&a.ID, &a.CreatedAt)
	return p.insert(ctx,
		`INSERT INTO alerts (id, user_id, status, doc, created_at) VALUES ($1, $2, $3, $4, $5)`,
		a.ID, a.UserID, a.Status, asDoc(a), a.CreatedAt)
}

func (p *Postgres) GetAlert(ctx context.Context, id string) (*models.Alert, error) {
	return getDoc[models.Alert](ctx, p.pool, `SELECT doc FROM alerts WHERE id = $1`, id)
}

func (p *Postgres) UpdateAlert(ctx context.Context, a *models.Alert) error {
	a.UpdatedAt = now()
	return p.update(ctx,
		`UPDATE alerts SET status = $2, doc = $3 WHERE id = $1`,
		a.ID, a.Status, asDoc(a))
}

func (p *Postgres) DeleteAlert(ctx context.Context, id string) error {
	return p.delete(ctx, `DELETE FROM alerts WHERE id = $1`, id)
}

func (p *Postgres) ListAlertsByUser(ctx context.Context, userID string, limit int) ([]*models.Alert, error) {
	if limit <= 0 {
		return listDocs[models.Alert](ctx, p.pool,
			`SELECT doc FROM alerts WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	}
	return listDocs[models.Alert](ctx, p.pool,
		`SELECT doc FROM alerts WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2`, userID, limit)
}

func (p *Postgres) ListOpenAlerts(ctx context.Context) ([]*models.Alert, error) {
	return listDocs[models.Alert](ctx, p.pool,
		`SELECT doc FROM alerts WHERE status <> $1 ORDER BY created_at DESC`, models.AlertResolved)
}

// Resource requests and donations

func (p *Postgres) CreateRequest(ctx context.Context, r *models.ResourceRequest) error {
	r.UpdatedAt = stamp(&r.ID, &r.CreatedAt)
	return p.insert(ctx,
		`INSERT INTO resource_requests (id, requester_id, doc, created_at) VALUES ($1, $2, $3, $4)`,
		r.ID, r.RequesterID, asDoc(r), r.CreatedAt)
}

func (p *Postgres) DeleteRequest(ctx context.Context, id string) error {
	return p.delete(ctx, `DELETE FROM resource_requests WHERE id = $1`, id)
}

func (p *Postgres) ListRequestsByUser(ctx context.Context, userID string) ([]*models.ResourceRequest, error) {
	return listDocs[models.ResourceRequest](ctx, p.pool,
		`SELECT doc FROM resource_requests WHERE requester_id = $1 ORDER BY created_at DESC`, userID)
}

func (p *Postgres) CreateDonation(ctx context.Context, d *models.Donation) error {
	stamp(&d.ID, &d.CreatedAt)
	return p.insert(ctx,
		`INSERT INTO donations (id, donor_id, doc, created_at) VALUES ($1, $2, $3, $4)`,
		d.ID, d.DonorID, asDoc(d), d.CreatedAt)
}

func (p *Postgres) ListDonationsByUser(ctx context.Context, userID string) ([]*models.Donation, error) {
	return listDocs[models.Donation](ctx, p.pool,
		`SELECT doc FROM donations WHERE donor_id = $1 ORDER BY created_at DESC`, userID)
}

// Patients and inventory

func (p *Postgres) CreatePatient(ctx context.Context, pt *models.Patient) error {
	t := stamp(&pt.ID, &pt.CreatedAt)
	if pt.AdmitDate.IsZero() {
		pt.AdmitDate = t
	}
	return p.insert(ctx,
		`INSERT INTO patients (id, hospital_id, doc, admitted_at) VALUES ($1, $2, $3, $4)`,
		pt.ID, pt.HospitalID, asDoc(pt), pt.AdmitDate)
}

func (p *Postgres) ListPatients(ctx context.Context, hospitalID string) ([]*models.Patient, error) {
	return listDocs[models.Patient](ctx, p.pool,
		`SELECT doc FROM patients WHERE hospital_id = $1 ORDER BY admitted_at DESC`, hospitalID)
}

func (p *Postgres) CreateInventoryItem(ctx context.Context, item *models.InventoryItem) error {
	t := stamp(&item.ID, &item.CreatedAt)
	if item.LastUpdated.IsZero() {
		item.LastUpdated = t
	}
	return p.insert(ctx,
		`INSERT INTO inventory_items (id, hospital_id, category, name, doc, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		item.ID, item.HospitalID, item.Category, item.Name, asDoc(item), item.CreatedAt)
}

func (p *Postgres) ListInventory(ctx context.Context, hospitalID string) ([]*models.InventoryItem, error) {
	return listDocs[models.InventoryItem](ctx, p.pool,
		`SELECT doc FROM inventory_items WHERE hospital_id = $1 ORDER BY category, name`, hospitalID)
}

// Hospital messages

func (p *Postgres) CreateMessage(ctx context.Context, m *models.HospitalMessage) error {
	m.UpdatedAt = stamp(&m.ID, &m.CreatedAt)
	return p.insert(ctx,
		`INSERT INTO hospital_messages (id, from_hospital_id, to_hospital_id, doc, created_at) VALUES ($1, $2, $3, $4, $5)`,
		m.ID, m.FromHospital, m.ToHospital, asDoc(m), m.CreatedAt)
}

func (p *Postgres) GetMessage(ctx context.Context, id string) (*models.HospitalMessage, error) {
	return getDoc[models.HospitalMessage](ctx, p.pool, `SELECT doc FROM hospital_messages WHERE id = $1`, id)
}

func (p *Postgres) UpdateMessage(ctx context.Context, m *models.HospitalMessage) error {
	m.UpdatedAt = now()
	return p.update(ctx,
		`UPDATE hospital_messages SET doc = $2 WHERE id = $1`,
		m.ID, asDoc(m))
}

func (p *Postgres) DeleteMessage(ctx context.Context, id string) error {
	return p.delete(ctx, `DELETE FROM hospital_messages WHERE id = $1`, id)
}

func (p *Postgres) ListMessagesTo(ctx context.Context, hospitalIDs ...string) ([]*models.HospitalMessage, error) {
	return listDocs[models.HospitalMessage](ctx, p.pool,
		`SELECT doc FROM hospital_messages WHERE to_hospital_id = ANY($1) ORDER BY created_at DESC`, hospitalIDs)
}

func (p *Postgres) ListMessagesFrom(ctx context.Context, hospitalIDs ...string) ([]*models.HospitalMessage, error) {
	return listDocs[models.HospitalMessage](ctx, p.pool,
		`SELECT doc FROM hospital_messages WHERE from_hospital_id = ANY($1) ORDER BY created_at DESC`, hospitalIDs)
}

func (p *Postgres) CountMessages(ctx context.Context) (int, error) {
	var n int
	if err := p.pool.QueryRow(ctx, `SELECT COUNT(*) FROM hospital_messages`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count messages: %w", err)
	}
	return n, nil
}

// Ambulances

func (p *Postgres) CreateAmbulance(ctx context.Context, a *models.Ambulance) error {
	a.UpdatedAt = stamp(&a.ID, &a.CreatedAt)
	return p.insert(ctx,
		`INSERT INTO ambulances (id, ambulance_code, hospital_id, doc, created_at) VALUES ($1, $2, $3, $4, $5)`,
		a.ID, a.AmbulanceID, a.HospitalID, asDoc(a), a.CreatedAt)
}

func (p *Postgres) GetAmbulance(ctx context.Context, id string) (*models.Ambulance, error) {
	return getDoc[models.Ambulance](ctx, p.pool, `SELECT doc FROM ambulances WHERE id = $1`, id)
}

func (p *Postgres) UpdateAmbulance(ctx context.Context, a *models.Ambulance) error {
	a.UpdatedAt = now()
	return p.update(ctx,
		`UPDATE ambulances SET hospital_id = $2, doc = $3 WHERE id = $1`,
		a.ID, a.HospitalID, asDoc(a))
}

func (p *Postgres) ListAmbulances(ctx context.Context, hospitalID string) ([]*models.Ambulance, error) {
	return listDocs[models.Ambulance](ctx, p.pool,
		`SELECT doc FROM ambulances WHERE ($1 = '' OR hospital_id = $1) ORDER BY created_at DESC`, hospitalID)
}

func (p *Postgres) Reset(ctx context.Context) error {
	_, err := p.pool.Exec(ctx, `TRUNCATE users, hospitals, alerts, resource_requests, donations, hospital_messages, ambulances, patients, inventory_items`)
	if err != nil {
		return fmt.Errorf("failed to reset store: %w", err)
	}
	return nil
}

// Helpers

// docArg marks a query argument that is stored as a JSONB document.
type docArg struct{ v any }

func asDoc(v any) docArg { return docArg{v: v} }

func encodeArgs(args []any) ([]any, error) {
	out := make([]any, len(args))
	for i, a := range args {
		d, ok := a.(docArg)
		if !ok {
			out[i] = a
			continue
		}
		raw, err := json.Marshal(d.v)
		if err != nil {
			return nil, fmt.Errorf("failed to encode document: %w", err)
		}
		out[i] = raw
	}
	return out, nil
}

func (p *Postgres) insert(ctx context.Context, sql string, args ...any) error {
	args, err := encodeArgs(args)
	if err != nil {
		return err
	}

	if _, err := p.pool.Exec(ctx, sql, args...); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to insert document: %w", err)
	}
	return nil
}

func (p *Postgres) update(ctx context.Context, sql string, args ...any) error {
	args, err := encodeArgs(args)
	if err != nil {
		return err
	}

	tag, err := p.pool.Exec(ctx, sql, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to update document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) delete(ctx context.Context, sql string, id string) error {
	tag, err := p.pool.Exec(ctx, sql, id)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func getDoc[T any](ctx context.Context, pool *pgxpool.Pool, sql string, args ...any) (*T, error) {
	var raw []byte
	if err := pool.QueryRow(ctx, sql, args...).Scan(&raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load document: %w", err)
	}

	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("failed to decode document: %w", err)
	}
	return &v, nil
}

func listDocs[T any](ctx context.Context, pool *pgxpool.Pool, sql string, args ...any) ([]*T, error) {
	rows, err := pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}

	raws, err := pgx.CollectRows(rows, pgx.RowTo[[]byte])
	if err != nil {
		return nil, fmt.Errorf("failed to read documents: %w", err)
	}

	out := make([]*T, 0, len(raws))
	for _, raw := range raws {
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("failed to decode document: %w", err)
		}
		out = append(out, &v)
	}
	return out, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
