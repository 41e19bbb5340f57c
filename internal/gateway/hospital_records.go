package gateway

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lifelink/emergency-coordinator/internal/models"
)

// AdmitPatientRequest admits a patient. HospitalID defaults to the caller.
type AdmitPatientRequest struct {
	HospitalID string   `json:"hospitalId"`
	Name       string   `json:"name"`
	Age        *int     `json:"age"`
	Gender     string   `json:"gender"`
	Contact    string   `json:"contact"`
	Dept       string   `json:"dept"`
	Room       string   `json:"room"`
	Condition  string   `json:"condition"`
	Severity   string   `json:"severity"`
	Oxygen     *float64 `json:"oxygen"`
	HeartRate  *int     `json:"heartRate"`
	BP         string   `json:"bp"`
}

func (r *AdmitPatientRequest) missing() string {
	switch {
	case strings.TrimSpace(r.Name) == "":
		return "name"
	case r.Age == nil:
		return "age"
	case strings.TrimSpace(r.Gender) == "":
		return "gender"
	case strings.TrimSpace(r.Dept) == "":
		return "dept"
	case strings.TrimSpace(r.Room) == "":
		return "room"
	case strings.TrimSpace(r.Condition) == "":
		return "condition"
	}
	return ""
}

// AddInventoryRequest stocks a supply line. HospitalID defaults to the caller.
type AddInventoryRequest struct {
	HospitalID   string     `json:"hospitalId"`
	Name         string     `json:"name"`
	Category     string     `json:"category"`
	Quantity     *int       `json:"quantity"`
	Unit         string     `json:"unit"`
	MinThreshold *int       `json:"minThreshold"`
	ExpiryDate   *time.Time `json:"expiryDate"`
}

// forbidOtherHospital keeps hospital accounts inside their own records.
// Government accounts may reach any hospital.
func forbidOtherHospital(c *gin.Context, hospitalID string) bool {
	id, role := currentUser(c)
	if role != models.RoleHospital || id == hospitalID {
		return false
	}
	respondError(c, http.StatusForbidden, models.ErrCodeForbidden, "Insufficient permissions")
	return true
}

// AdmitPatient godoc
// @Summary Admit a patient
// @Description Vitals default to oxygen 98, heart rate 80 and bp 120/80; severity defaults to Stable
// @Tags dashboard
// @Accept json
// @Produce json
// @Param request body AdmitPatientRequest true "Patient"
// @Success 201 {object} models.Patient
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /dashboard/hospital/patient/admit [post]
func (h *Handler) AdmitPatient(c *gin.Context) {
	var req AdmitPatientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, models.ErrCodeInvalidRequest, "Invalid request")
		return
	}
	if field := req.missing(); field != "" {
		badRequest(c, "Missing required field: "+field)
		return
	}
	if *req.Age < 0 {
		badRequest(c, "age must not be negative")
		return
	}
	req.Severity = orDefault(req.Severity, models.PatientStable)
	if !models.ValidPatientSeverity(req.Severity) {
		badRequest(c, "severity must be Critical, High, Moderate or Stable")
		return
	}
	callerID, _ := currentUser(c)
	req.HospitalID = orDefault(req.HospitalID, callerID)
	if forbidOtherHospital(c, req.HospitalID) {
		return
	}

	patient := &models.Patient{
		HospitalID: req.HospitalID,
		Name:       strings.TrimSpace(req.Name),
		Age:        *req.Age,
		Gender:     req.Gender,
		Contact:    req.Contact,
		Dept:       req.Dept,
		Room:       req.Room,
		Condition:  req.Condition,
		Severity:   req.Severity,
		Status:     models.PatientAdmitted,
		Oxygen:     98,
		HeartRate:  80,
		BP:         orDefault(req.BP, "120/80"),
		AdmitDate:  h.now().UTC(),
	}
	if req.Oxygen != nil {
		patient.Oxygen = *req.Oxygen
	}
	if req.HeartRate != nil {
		patient.HeartRate = *req.HeartRate
	}
	if err := h.store.CreatePatient(c.Request.Context(), patient); err != nil {
		h.storeFailure(c, err, "Patient")
		return
	}
	c.JSON(http.StatusCreated, patient)
}

// ListPatients godoc
// @Summary A hospital's patients
// @Tags dashboard
// @Produce json
// @Param hospitalId path string true "Hospital account user ID"
// @Success 200 {array} models.Patient
// @Failure 403 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /dashboard/hospital/patients/{hospitalId} [get]
func (h *Handler) ListPatients(c *gin.Context) {
	hospitalID := c.Param("hospitalId")
	if forbidOtherHospital(c, hospitalID) {
		return
	}
	patients, err := h.store.ListPatients(c.Request.Context(), hospitalID)
	if err != nil {
		h.storeFailure(c, err, "Patient")
		return
	}
	c.JSON(http.StatusOK, patients)
}

// AddInventoryItem godoc
// @Summary Stock a supply line
// @Description Unit defaults to units and the reorder threshold to 10
// @Tags dashboard
// @Accept json
// @Produce json
// @Param request body AddInventoryRequest true "Inventory item"
// @Success 201 {object} models.InventoryItem
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /dashboard/hospital/resource/add [post]
func (h *Handler) AddInventoryItem(c *gin.Context) {
	var req AddInventoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, models.ErrCodeInvalidRequest, "Invalid request")
		return
	}
	if strings.TrimSpace(req.Name) == "" || req.Quantity == nil {
		badRequest(c, "name, category and quantity are required")
		return
	}
	if !models.ValidInventoryCategory(req.Category) {
		badRequest(c, "category must be Medicine, Blood, Organ or Equipment")
		return
	}
	if *req.Quantity < 0 || (req.MinThreshold != nil && *req.MinThreshold < 0) {
		badRequest(c, "quantity and minThreshold must not be negative")
		return
	}
	callerID, _ := currentUser(c)
	req.HospitalID = orDefault(req.HospitalID, callerID)
	if forbidOtherHospital(c, req.HospitalID) {
		return
	}

	item := &models.InventoryItem{
		HospitalID:   req.HospitalID,
		Name:         strings.TrimSpace(req.Name),
		Category:     req.Category,
		Quantity:     *req.Quantity,
		Unit:         orDefault(req.Unit, "units"),
		MinThreshold: 10,
		ExpiryDate:   req.ExpiryDate,
		LastUpdated:  h.now().UTC(),
	}
	if req.MinThreshold != nil {
		item.MinThreshold = *req.MinThreshold
	}
	item.LowStock = item.BelowThreshold()
	if err := h.store.CreateInventoryItem(c.Request.Context(), item); err != nil {
		h.storeFailure(c, err, "Inventory item")
		return
	}
	c.JSON(http.StatusCreated, item)
}

// ListInventory godoc
// @Summary A hospital's stock
// @Description Ordered by category, then name
// @Tags dashboard
// @Produce json
// @Param hospitalId path string true "Hospital account user ID"
// @Success 200 {array} models.InventoryItem
// @Failure 403 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /dashboard/hospital/resources/{hospitalId} [get]
func (h *Handler) ListInventory(c *gin.Context) {
	hospitalID := c.Param("hospitalId")
	if forbidOtherHospital(c, hospitalID) {
		return
	}
	items, err := h.store.ListInventory(c.Request.Context(), hospitalID)
	if err != nil {
		h.storeFailure(c, err, "Inventory item")
		return
	}
	c.JSON(http.StatusOK, items)
}
