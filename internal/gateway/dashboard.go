package gateway

import (
	"errors"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lifelink/emergency-coordinator/internal/auth"
	"github.com/lifelink/emergency-coordinator/internal/dispatch"
	"github.com/lifelink/emergency-coordinator/internal/models"
	"github.com/lifelink/emergency-coordinator/internal/store"
	"go.uber.org/zap"
)

// PublicDashboard is a user's full history
type PublicDashboard struct {
	Alerts           []*models.Alert           `json:"alerts"`
	ResourceRequests []*models.ResourceRequest `json:"resourceRequests"`
	HospitalMessages []models.MessageView      `json:"hospitalMessages"`
	HealthRecords    models.HealthRecords      `json:"healthRecords"`
}

// ProfileUpdateRequest changes any subset of profile fields. Specialties
// accepts a list or a comma separated string.
type ProfileUpdateRequest struct {
	Name           string  `json:"name"`
	Email          string  `json:"email"`
	Phone          string  `json:"phone"`
	Location       string  `json:"location"`
	Password       string  `json:"password"`
	Age            int     `json:"age"`
	BloodGroup     string  `json:"bloodGroup"`
	MedicalHistory *string `json:"medicalHistory"`
	RegNumber      string  `json:"regNumber"`
	TotalBeds      int     `json:"totalBeds"`
	Ambulances     int     `json:"ambulances"`
	Specialties    any     `json:"specialties"`
	Type           string  `json:"type"`
	Website        string  `json:"website"`
}

// ProfileResponse echoes the updated account
type ProfileResponse struct {
	Message string       `json:"message"`
	User    *models.User `json:"user"`
}

// StatusRequest carries a new status value
type StatusRequest struct {
	Status string `json:"status"`
}

// VerifyRequest names a hospital account to verify
type VerifyRequest struct {
	HospitalUserID string `json:"hospitalUserId"`
}

// HospitalStats summarizes live load for a hospital dashboard
type HospitalStats struct {
	TotalPatients    int          `json:"totalPatients"`
	AvailableBeds    int          `json:"availableBeds"`
	CriticalCases    int          `json:"criticalCases"`
	ActiveAmbulances int          `json:"activeAmbulances"`
	OpenAlerts       int          `json:"openAlerts"`
	CaseDistribution []CaseBucket `json:"caseDistribution"`
}

// CaseBucket counts open alerts of one severity
type CaseBucket struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

// Donor is a public account listed as a potential donor
type Donor struct {
	UserID     string  `json:"user_id"`
	Name       string  `json:"name"`
	Location   string  `json:"location"`
	BloodGroup string  `json:"blood_group"`
	Phone      string  `json:"phone"`
	Age        *int    `json:"age"`
	Gender     *string `json:"gender"`
}

// CreateResourceRequest asks for blood or an organ
type CreateResourceRequest struct {
	RequesterID string `json:"requester_id"`
	RequestType string `json:"request_type"`
	Details     string `json:"details"`
	Urgency     string `json:"urgency"`
}

// CreateDonationRequest records a completed donation
type CreateDonationRequest struct {
	DonorID      string     `json:"donor_id"`
	DonationType string     `json:"donation_type"`
	DonationDate *time.Time `json:"donation_date"`
	HospitalID   string     `json:"hospital_id"`
	Details      string     `json:"details"`
}

// GetPublicDashboard godoc
// @Summary Full public dashboard
// @Description Alerts, resource requests, open hospital messages and health records for a user
// @Tags dashboard
// @Produce json
// @Param userId path string true "User ID"
// @Success 200 {object} PublicDashboard
// @Failure 403 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /dashboard/public/{userId}/full [get]
func (h *Handler) GetPublicDashboard(c *gin.Context) {
	userID := c.Param("userId")
	if forbidOtherUser(c, userID) {
		return
	}
	ctx := c.Request.Context()

	alerts, err := h.store.ListAlertsByUser(ctx, userID, 0)
	if err != nil {
		h.storeFailure(c, err, "Alert")
		return
	}
	requests, err := h.store.ListRequestsByUser(ctx, userID)
	if err != nil {
		h.storeFailure(c, err, "Request")
		return
	}

	ids := []string{userID}
	if hospital, err := h.store.GetHospitalByUser(ctx, userID); err == nil {
		ids = append(ids, hospital.ID)
	} else if !errors.Is(err, store.ErrNotFound) {
		h.storeFailure(c, err, "Hospital")
		return
	}
	messages, err := h.store.ListMessagesTo(ctx, ids...)
	if err != nil {
		h.storeFailure(c, err, "Message")
		return
	}
	open := messages[:0]
	for _, m := range messages {
		if m.Status != models.MessageResolved {
			open = append(open, m)
		}
	}
	views, err := h.newContactResolver(ctx).views(open)
	if err != nil {
		h.storeFailure(c, err, "Hospital")
		return
	}

	dashboard := PublicDashboard{Alerts: alerts, ResourceRequests: requests, HospitalMessages: views}
	user, err := h.store.GetUser(ctx, userID)
	switch {
	case err == nil:
		dashboard.HealthRecords = healthRecords(user)
	case !errors.Is(err, store.ErrNotFound):
		h.storeFailure(c, err, "User")
		return
	}
	c.JSON(http.StatusOK, dashboard)
}

// UpdateProfile godoc
// @Summary Update profile
// @Description Partial update of account, health record and hospital profile fields
// @Tags dashboard
// @Accept json
// @Produce json
// @Param userId path string true "User ID"
// @Param request body ProfileUpdateRequest true "Fields to change"
// @Success 200 {object} ProfileResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /dashboard/profile/{userId} [put]
func (h *Handler) UpdateProfile(c *gin.Context) {
	userID := c.Param("userId")
	if callerID, _ := currentUser(c); callerID != userID {
		respondError(c, http.StatusForbidden, models.ErrCodeForbidden, "Insufficient permissions")
		return
	}

	var req ProfileUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, models.ErrCodeInvalidRequest, "Invalid request")
		return
	}
	specialties, ok := splitList(req.Specialties)
	if !ok {
		badRequest(c, "specialties must be a list or a comma separated string")
		return
	}

	ctx := c.Request.Context()
	user, err := h.store.GetUser(ctx, userID)
	if err != nil {
		h.storeFailure(c, err, "User")
		return
	}

	if req.Name != "" {
		user.Name = req.Name
	}
	if req.Email != "" {
		user.Email = strings.ToLower(strings.TrimSpace(req.Email))
	}
	if req.Phone != "" {
		user.Phone = req.Phone
	}
	if req.Location != "" {
		user.Location = req.Location
	}
	if req.Password != "" {
		hash, err := auth.HashPassword(req.Password)
		if err != nil {
			h.logger.Error("failed to hash password", zap.Error(err))
			respondError(c, http.StatusInternalServerError, models.ErrCodeInternalError, "Internal server error")
			return
		}
		user.HashedPassword = hash
	}

	if req.Age != 0 || req.BloodGroup != "" || req.MedicalHistory != nil || (req.Phone != "" && user.Role == models.RolePublic) {
		if user.PublicProfile == nil {
			user.PublicProfile = &models.PublicProfile{}
		}
		records := &user.PublicProfile.HealthRecords
		if req.Age != 0 {
			records.Age = req.Age
		}
		if req.BloodGroup != "" {
			records.BloodGroup = req.BloodGroup
		}
		if req.Phone != "" {
			records.Contact = req.Phone
		}
		if req.MedicalHistory != nil {
			records.Conditions, _ = splitList(*req.MedicalHistory)
		}
	}

	if req.RegNumber != "" || req.TotalBeds != 0 || req.Ambulances != 0 || req.Type != "" || req.Website != "" || specialties != nil {
		if user.HospitalProfile == nil {
			user.HospitalProfile = &models.HospitalProfile{}
		}
		profile := user.HospitalProfile
		if req.RegNumber != "" {
			profile.RegNumber = req.RegNumber
		}
		if req.TotalBeds != 0 {
			profile.TotalBeds = req.TotalBeds
		}
		if req.Ambulances != 0 {
			profile.Ambulances = req.Ambulances
		}
		if req.Type != "" {
			profile.Type = req.Type
		}
		if req.Website != "" {
			profile.Website = req.Website
		}
		if specialties != nil {
			profile.Specialties = specialties
		}
	}

	if err := h.store.UpdateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			respondError(c, http.StatusBadRequest, models.ErrCodeAlreadyExists, "Email already in use")
			return
		}
		h.storeFailure(c, err, "User")
		return
	}
	c.JSON(http.StatusOK, ProfileResponse{Message: "Profile Updated", User: user})
}

// splitList accepts a []any of strings or a comma separated string.
// A nil value yields a nil slice.
func splitList(v any) ([]string, bool) {
	switch list := v.(type) {
	case nil:
		return nil, true
	case string:
		out := []string{}
		for _, part := range strings.Split(list, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out, true
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	}
	return nil, false
}

// GetHospitalStats godoc
// @Summary Hospital load summary
// @Description Admitted patients, beds, open alert severity mix and active ambulances for the caller's hospital
// @Tags dashboard
// @Produce json
// @Success 200 {object} HospitalStats
// @Security BearerAuth
// @Router /dashboard/hospital/stats [get]
func (h *Handler) GetHospitalStats(c *gin.Context) {
	ctx := c.Request.Context()
	callerID, _ := currentUser(c)

	var stats HospitalStats
	patients, err := h.store.ListPatients(ctx, callerID)
	if err != nil {
		h.storeFailure(c, err, "Patient")
		return
	}
	for _, p := range patients {
		if p.Status == models.PatientAdmitted {
			stats.TotalPatients++
		}
	}

	hospital, err := h.store.GetHospitalByUser(ctx, callerID)
	switch {
	case err == nil:
		stats.AvailableBeds = hospital.Beds.AvailableBeds
		ambulances, err := h.store.ListAmbulances(ctx, hospital.ID)
		if err != nil {
			h.storeFailure(c, err, "Ambulance")
			return
		}
		for _, a := range ambulances {
			if a.Status == models.AmbulanceEnRoute || a.Status == models.AmbulanceAtLocation {
				stats.ActiveAmbulances++
			}
		}
	case !errors.Is(err, store.ErrNotFound):
		h.storeFailure(c, err, "Hospital")
		return
	}

	alerts, err := h.store.ListOpenAlerts(ctx)
	if err != nil {
		h.storeFailure(c, err, "Alert")
		return
	}
	stats.OpenAlerts = len(alerts)
	stats.CaseDistribution = caseDistribution(alerts)
	for _, a := range alerts {
		if a.EmergencyType == dispatch.SeverityCritical {
			stats.CriticalCases++
		}
	}
	c.JSON(http.StatusOK, stats)
}

var severityOrder = []string{dispatch.SeverityCritical, dispatch.SeverityHigh, dispatch.SeverityMedium, dispatch.SeverityLow}

func caseDistribution(alerts []*models.Alert) []CaseBucket {
	counts := make(map[string]int)
	for _, a := range alerts {
		counts[a.EmergencyType]++
	}

	buckets := make([]CaseBucket, 0, len(severityOrder)+1)
	for _, severity := range severityOrder {
		buckets = append(buckets, CaseBucket{Name: severity, Value: counts[severity]})
		delete(counts, severity)
	}
	other := 0
	for _, n := range counts {
		other += n
	}
	buckets = append(buckets, CaseBucket{Name: "Other", Value: other})
	return buckets
}

// GetHospitalAlerts godoc
// @Summary Open alerts
// @Description Every alert not yet resolved, newest first
// @Tags dashboard
// @Produce json
// @Success 200 {array} models.Alert
// @Security BearerAuth
// @Router /dashboard/hospital/alerts [get]
func (h *Handler) GetHospitalAlerts(c *gin.Context) {
	alerts, err := h.store.ListOpenAlerts(c.Request.Context())
	if err != nil {
		h.storeFailure(c, err, "Alert")
		return
	}
	c.JSON(http.StatusOK, alerts)
}

// UpdateAlertStatus godoc
// @Summary Change alert status
// @Tags dashboard
// @Accept json
// @Produce json
// @Param id path string true "Alert ID"
// @Param request body StatusRequest true "Status"
// @Success 200 {object} models.Alert
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /dashboard/hospital/alert/{id} [put]
func (h *Handler) UpdateAlertStatus(c *gin.Context) {
	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil || !models.ValidAlertStatus(req.Status) {
		badRequest(c, "status must be pending, dispatched, resolved or cancelled")
		return
	}

	ctx := c.Request.Context()
	alert, err := h.store.GetAlert(ctx, c.Param("id"))
	if err != nil {
		h.storeFailure(c, err, "Alert")
		return
	}
	alert.Status = req.Status
	if req.Status == models.AlertDispatched {
		if callerID, role := currentUser(c); role == models.RoleHospital {
			if hospital, err := h.store.GetHospitalByUser(ctx, callerID); err == nil {
				alert.DispatchedHospital = hospital.ID
			}
		}
	}
	if err := h.store.UpdateAlert(ctx, alert); err != nil {
		h.storeFailure(c, err, "Alert")
		return
	}
	h.logger.Info("alert status changed", zap.String("alert_id", alert.ID), zap.String("status", alert.Status))
	c.JSON(http.StatusOK, alert)
}

// GetPendingHospitals godoc
// @Summary Hospitals awaiting verification
// @Tags admin
// @Produce json
// @Success 200 {array} models.User
// @Security BearerAuth
// @Router /dashboard/admin/pending-hospitals [get]
func (h *Handler) GetPendingHospitals(c *gin.Context) {
	unverified := false
	users, err := h.store.ListUsers(c.Request.Context(), store.UserFilter{Role: models.RoleHospital, Verified: &unverified})
	if err != nil {
		h.storeFailure(c, err, "User")
		return
	}
	c.JSON(http.StatusOK, users)
}

// VerifyHospital godoc
// @Summary Verify a hospital account
// @Tags admin
// @Produce json
// @Param id path string true "Hospital user ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /dashboard/admin/verify/{id} [put]
func (h *Handler) VerifyHospital(c *gin.Context) {
	h.verifyHospital(c, c.Param("id"))
}

// VerifyUser godoc
// @Summary Verify a hospital account by body
// @Tags admin
// @Accept json
// @Produce json
// @Param request body VerifyRequest true "Hospital user"
// @Success 200 {object} map[string]string
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /users/verify [post]
func (h *Handler) VerifyUser(c *gin.Context) {
	var req VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.HospitalUserID == "" {
		badRequest(c, "hospitalUserId is required")
		return
	}
	h.verifyHospital(c, req.HospitalUserID)
}

func (h *Handler) verifyHospital(c *gin.Context, userID string) {
	ctx := c.Request.Context()
	user, err := h.store.GetUser(ctx, userID)
	if err != nil {
		h.storeFailure(c, err, "User")
		return
	}
	user.IsVerified = true
	if err := h.store.UpdateUser(ctx, user); err != nil {
		h.storeFailure(c, err, "User")
		return
	}
	if user.Role == models.RoleHospital {
		if _, err := h.store.EnsureHospital(ctx, user.ID); err != nil {
			h.storeFailure(c, err, "Hospital")
			return
		}
	}

	verifier, _ := currentUser(c)
	h.logger.Info("hospital verified", zap.String("user_id", user.ID), zap.String("verified_by", verifier))
	c.JSON(http.StatusOK, gin.H{"message": "Hospital Verified Successfully"})
}

// DeleteNotification godoc
// @Summary Dismiss a notification
// @Description Delete an alert, resource request or hospital message
// @Tags dashboard
// @Produce json
// @Param type path string true "alert, request or message"
// @Param id path string true "Record ID"
// @Success 200 {object} map[string]string
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /dashboard/notification/{type}/{id} [delete]
func (h *Handler) DeleteNotification(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")
	callerID, role := currentUser(c)

	switch c.Param("type") {
	case "alert":
		alert, err := h.store.GetAlert(ctx, id)
		if err != nil {
			h.storeFailure(c, err, "Alert")
			return
		}
		if forbidOtherUser(c, alert.UserID) {
			return
		}
		if err := h.store.DeleteAlert(ctx, id); err != nil {
			h.storeFailure(c, err, "Alert")
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Alert deleted"})
	case "request":
		if role == models.RolePublic && !h.ownsRequest(c, callerID, id) {
			return
		}
		if err := h.store.DeleteRequest(ctx, id); err != nil {
			h.storeFailure(c, err, "Request")
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Request deleted"})
	case "message":
		if role == models.RolePublic {
			msg, err := h.store.GetMessage(ctx, id)
			if err != nil {
				h.storeFailure(c, err, "Message")
				return
			}
			if msg.ToHospital != callerID {
				respondError(c, http.StatusForbidden, models.ErrCodeForbidden, "Insufficient permissions")
				return
			}
		}
		if err := h.store.DeleteMessage(ctx, id); err != nil {
			h.storeFailure(c, err, "Message")
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Hospital message deleted"})
	default:
		badRequest(c, "Unknown notification type")
	}
}

// ownsRequest responds 403 unless userID filed the request.
func (h *Handler) ownsRequest(c *gin.Context, userID, requestID string) bool {
	requests, err := h.store.ListRequestsByUser(c.Request.Context(), userID)
	if err != nil {
		h.storeFailure(c, err, "Request")
		return false
	}
	for _, r := range requests {
		if r.ID == requestID {
			return true
		}
	}
	respondError(c, http.StatusForbidden, models.ErrCodeForbidden, "Insufficient permissions")
	return false
}

// ListDonors godoc
// @Summary Potential donors
// @Description Public accounts with their donor-relevant health details
// @Tags donors
// @Produce json
// @Success 200 {array} Donor
// @Security BearerAuth
// @Router /donors [get]
func (h *Handler) ListDonors(c *gin.Context) {
	users, err := h.store.ListUsers(c.Request.Context(), store.UserFilter{Role: models.RolePublic})
	if err != nil {
		h.storeFailure(c, err, "User")
		return
	}

	donors := make([]Donor, 0, len(users))
	for _, u := range users {
		records := healthRecords(u)
		d := Donor{
			UserID:     u.ID,
			Name:       u.Name,
			Location:   orDefault(u.Location, "Unknown"),
			BloodGroup: orDefault(records.BloodGroup, "Not specified"),
			Phone:      orDefault(u.Phone, "Not available"),
		}
		if records.Age != 0 {
			age := records.Age
			d.Age = &age
		}
		if records.Gender != "" {
			gender := records.Gender
			d.Gender = &gender
		}
		donors = append(donors, d)
	}
	sort.SliceStable(donors, func(i, j int) bool { return donors[i].Name < donors[j].Name })
	c.JSON(http.StatusOK, donors)
}

// CreateRequest godoc
// @Summary Request blood or an organ
// @Tags requests
// @Accept json
// @Produce json
// @Param request body CreateResourceRequest true "Request"
// @Success 201 {object} map[string]string
// @Failure 400 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /requests [post]
func (h *Handler) CreateRequest(c *gin.Context) {
	var req CreateResourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, models.ErrCodeInvalidRequest, "Invalid request")
		return
	}
	callerID, _ := currentUser(c)
	req.RequesterID = orDefault(req.RequesterID, callerID)
	req.Urgency = orDefault(req.Urgency, "medium")
	if !models.ValidDonationKind(req.RequestType) {
		badRequest(c, "request_type must be blood or organ")
		return
	}
	if !models.ValidRequestUrgency(req.Urgency) {
		badRequest(c, "urgency must be low, medium or high")
		return
	}
	if forbidOtherUser(c, req.RequesterID) {
		return
	}

	request := &models.ResourceRequest{
		RequesterID: req.RequesterID,
		RequestType: req.RequestType,
		Details:     req.Details,
		Urgency:     req.Urgency,
		Status:      "pending",
	}
	if err := h.store.CreateRequest(c.Request.Context(), request); err != nil {
		h.storeFailure(c, err, "Request")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Request created successfully", "request_id": request.ID})
}

// CreateDonation godoc
// @Summary Record a donation
// @Tags donations
// @Accept json
// @Produce json
// @Param request body CreateDonationRequest true "Donation"
// @Success 201 {object} models.Donation
// @Failure 400 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /donations [post]
func (h *Handler) CreateDonation(c *gin.Context) {
	var req CreateDonationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, models.ErrCodeInvalidRequest, "Invalid request")
		return
	}
	callerID, _ := currentUser(c)
	req.DonorID = orDefault(req.DonorID, callerID)
	if !models.ValidDonationKind(req.DonationType) {
		badRequest(c, "donation_type must be blood or organ")
		return
	}
	if forbidOtherUser(c, req.DonorID) {
		return
	}

	donation := &models.Donation{
		DonorID:      req.DonorID,
		DonationType: req.DonationType,
		HospitalID:   req.HospitalID,
		Details:      req.Details,
	}
	if req.DonationDate != nil {
		donation.DonationDate = req.DonationDate.UTC()
	} else {
		donation.DonationDate = h.now().UTC()
	}
	if err := h.store.CreateDonation(c.Request.Context(), donation); err != nil {
		h.storeFailure(c, err, "Donation")
		return
	}
	c.JSON(http.StatusCreated, donation)
}

// ListDonations godoc
// @Summary A donor's donations
// @Tags donations
// @Produce json
// @Param userId path string true "Donor user ID"
// @Success 200 {array} models.Donation
// @Failure 403 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /donations/{userId} [get]
func (h *Handler) ListDonations(c *gin.Context) {
	userID := c.Param("userId")
	if forbidOtherUser(c, userID) {
		return
	}
	donations, err := h.store.ListDonationsByUser(c.Request.Context(), userID)
	if err != nil {
		h.storeFailure(c, err, "Donation")
		return
	}
	c.JSON(http.StatusOK, donations)
}
