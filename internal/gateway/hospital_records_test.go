package gateway

import (
	"net/http"
	"testing"
	"time"

	"github.com/lifelink/emergency-coordinator/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdmitAndListPatients(t *testing.T) {
	env := newTestEnv(t)
	hospital := env.user(models.RoleHospital, "hospital@test.com")
	token := env.token(hospital)

	w := env.do(http.MethodPost, "/api/dashboard/hospital/patient/admit", token, map[string]any{
		"name": "Ravi Kumar", "age": 54, "gender": "Male", "dept": "Cardiology", "room": "C-12", "condition": "Chest pain",
	})
	requireStatus(t, w, http.StatusCreated)
	admitted := decode[models.Patient](t, w)
	assert.NotEmpty(t, admitted.ID)
	assert.Equal(t, hospital.ID, admitted.HospitalID)
	assert.Equal(t, models.PatientStable, admitted.Severity)
	assert.Equal(t, models.PatientAdmitted, admitted.Status)
	assert.Equal(t, 98.0, admitted.Oxygen)
	assert.Equal(t, 80, admitted.HeartRate)
	assert.Equal(t, "120/80", admitted.BP)

	env.advance(time.Hour)
	w = env.do(http.MethodPost, "/api/dashboard/hospital/patient/admit", token, map[string]any{
		"name": "Meera", "age": 0, "gender": "Female", "dept": "Pediatrics", "room": "P-1", "condition": "Fever",
		"severity": "Critical", "oxygen": 91.5, "heartRate": 140, "bp": "90/60",
	})
	requireStatus(t, w, http.StatusCreated)

	w = env.do(http.MethodGet, "/api/dashboard/hospital/patients/"+hospital.ID, token, nil)
	requireStatus(t, w, http.StatusOK)
	patients := decode[[]models.Patient](t, w)
	require.Len(t, patients, 2)
	assert.Equal(t, "Meera", patients[0].Name)
	assert.Equal(t, 91.5, patients[0].Oxygen)
	assert.Equal(t, "Ravi Kumar", patients[1].Name)

	t.Run("validation", func(t *testing.T) {
		tests := []struct {
			name string
			body map[string]any
		}{
			{"missing room", map[string]any{"name": "A", "age": 30, "gender": "F", "dept": "ER", "condition": "Cut"}},
			{"missing age", map[string]any{"name": "A", "gender": "F", "dept": "ER", "room": "1", "condition": "Cut"}},
			{"unknown severity", map[string]any{"name": "A", "age": 30, "gender": "F", "dept": "ER", "room": "1", "condition": "Cut", "severity": "Mild"}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				w := env.do(http.MethodPost, "/api/dashboard/hospital/patient/admit", token, tt.body)
				requireStatus(t, w, http.StatusBadRequest)
			})
		}
	})

	t.Run("access", func(t *testing.T) {
		other := env.token(env.user(models.RoleHospital, "other@test.com"))
		w := env.do(http.MethodGet, "/api/dashboard/hospital/patients/"+hospital.ID, other, nil)
		requireStatus(t, w, http.StatusForbidden)

		w = env.do(http.MethodPost, "/api/dashboard/hospital/patient/admit", other, map[string]any{
			"hospitalId": hospital.ID, "name": "A", "age": 30, "gender": "F", "dept": "ER", "room": "1", "condition": "Cut",
		})
		requireStatus(t, w, http.StatusForbidden)

		gov := env.token(env.user(models.RoleGovernment, "gov@test.com"))
		w = env.do(http.MethodGet, "/api/dashboard/hospital/patients/"+hospital.ID, gov, nil)
		requireStatus(t, w, http.StatusOK)
		assert.Len(t, decode[[]models.Patient](t, w), 2)

		public := env.token(env.user(models.RolePublic, "public@test.com"))
		w = env.do(http.MethodGet, "/api/dashboard/hospital/patients/"+hospital.ID, public, nil)
		requireStatus(t, w, http.StatusForbidden)
	})
}

func TestHospitalInventory(t *testing.T) {
	env := newTestEnv(t)
	hospital := env.user(models.RoleHospital, "hospital@test.com")
	token := env.token(hospital)

	w := env.do(http.MethodPost, "/api/dashboard/hospital/resource/add", token, map[string]any{
		"name": "Paracetamol", "category": "Medicine", "quantity": 500, "unit": "tablets",
	})
	requireStatus(t, w, http.StatusCreated)
	item := decode[models.InventoryItem](t, w)
	assert.Equal(t, hospital.ID, item.HospitalID)
	assert.Equal(t, "tablets", item.Unit)
	assert.Equal(t, 10, item.MinThreshold)
	assert.False(t, item.LowStock)

	w = env.do(http.MethodPost, "/api/dashboard/hospital/resource/add", token, map[string]any{
		"name": "O- Blood", "category": "Blood", "quantity": 2, "minThreshold": 5,
	})
	requireStatus(t, w, http.StatusCreated)
	blood := decode[models.InventoryItem](t, w)
	assert.Equal(t, "units", blood.Unit)
	assert.True(t, blood.LowStock)

	w = env.do(http.MethodGet, "/api/dashboard/hospital/resources/"+hospital.ID, token, nil)
	requireStatus(t, w, http.StatusOK)
	stock := decode[[]models.InventoryItem](t, w)
	require.Len(t, stock, 2)
	assert.Equal(t, "Blood", stock[0].Category)
	assert.Equal(t, "Medicine", stock[1].Category)

	tests := []struct {
		name string
		body map[string]any
	}{
		{"unknown category", map[string]any{"name": "Gauze", "category": "Supplies", "quantity": 1}},
		{"missing quantity", map[string]any{"name": "Gauze", "category": "Equipment"}},
		{"negative quantity", map[string]any{"name": "Gauze", "category": "Equipment", "quantity": -1}},
		{"missing name", map[string]any{"category": "Equipment", "quantity": 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(http.MethodPost, "/api/dashboard/hospital/resource/add", token, tt.body)
			requireStatus(t, w, http.StatusBadRequest)
		})
	}

	other := env.token(env.user(models.RoleHospital, "other@test.com"))
	w = env.do(http.MethodGet, "/api/dashboard/hospital/resources/"+hospital.ID, other, nil)
	requireStatus(t, w, http.StatusForbidden)
}
