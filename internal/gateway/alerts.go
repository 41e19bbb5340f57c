package gateway

import (
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lifelink/emergency-coordinator/internal/dispatch"
	"github.com/lifelink/emergency-coordinator/internal/models"
	"github.com/lifelink/emergency-coordinator/internal/prediction"
	"go.uber.org/zap"
)

const notificationLimit = 10

// Recommendation is the dispatch advice attached to a new alert
type Recommendation struct {
	HospitalName  string `json:"hospital_name"`
	ETA           int    `json:"eta"`
	ETAUnit       string `json:"eta_unit"`
	AmbulanceType string `json:"ambulance_type"`
	ResponseTime  any    `json:"response_time,omitempty"`
}

// AlertResponse is returned when an SOS alert is accepted
type AlertResponse struct {
	Message        string         `json:"message"`
	SeverityLevel  string         `json:"severity_level,omitempty"`
	SeverityScore  float64        `json:"severity_score"`
	AIConfidence   float64        `json:"ai_confidence"`
	Priority       string         `json:"priority"`
	Recommendation Recommendation `json:"recommendation"`
	AlertID        string         `json:"alert_id"`
}

// NotificationStats summarizes a user's alert history
type NotificationStats struct {
	RecentCriticalAlerts int        `json:"recent_critical_alerts"`
	TotalSOSCalls        int        `json:"total_sos_calls"`
	LastAlert            *time.Time `json:"last_alert"`
}

// NotificationsResponse lists a user's recent alerts
type NotificationsResponse struct {
	Notifications []models.Notification `json:"notifications"`
	Stats         NotificationStats     `json:"stats"`
}

// CreateAlert godoc
// @Summary Raise an SOS alert
// @Description Triage the message, store a pending alert and recommend a facility and ETA
// @Tags alerts
// @Accept json
// @Produce json
// @Param request body models.CreateAlertRequest true "Alert"
// @Success 201 {object} AlertResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Failure 503 {object} models.ErrorResponse
// @Failure 504 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /alerts [post]
func (h *Handler) CreateAlert(c *gin.Context) {
	var req models.CreateAlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, models.ErrCodeInvalidRequest, "Invalid request")
		return
	}

	callerID, _ := currentUser(c)
	if req.UserID == "" {
		req.UserID = callerID
	}
	if strings.TrimSpace(req.LocationDetails) == "" || strings.TrimSpace(req.Message) == "" {
		badRequest(c, "locationDetails and message are required")
		return
	}
	if forbidOtherUser(c, req.UserID) {
		return
	}

	ctx := c.Request.Context()
	result, err := h.predictor.Run(ctx, prediction.Request{
		Command: "predict_sos_severity",
		Payload: map[string]any{"message": req.Message},
	})
	if err != nil {
		h.logger.Warn("sos triage failed", zap.String("user_id", req.UserID), zap.Error(err))
		h.predictionFailure(c, err)
		return
	}

	fields := resultFields(result)
	// The stored tier defaults to Medium; the facility and ETA follow what the model reported.
	reported, _ := stringField(fields, "severity_level")
	severity := orDefault(reported, dispatch.SeverityMedium)
	score, ok := numberField(fields, "severity_score")
	if !ok {
		score = 50
	}
	confidence, _ := numberField(fields, "ai_confidence", "confidence")
	ambulanceType, ok := stringField(fields, "ambulance_type")
	if !ok {
		ambulanceType = "Standard Ambulance"
	}
	recommended, ok := stringField(fields, "hospital_type")
	if !ok {
		recommended = "Emergency Department"
	}

	alert := &models.Alert{
		UserID:              req.UserID,
		LocationDetails:     req.LocationDetails,
		Coordinates:         req.Coordinates,
		Message:             req.Message,
		EmergencyType:       severity,
		Priority:            dispatch.Priority(severity),
		Status:              models.AlertPending,
		SeverityScore:       &score,
		AIConfidence:        &confidence,
		AmbulanceType:       ambulanceType,
		RecommendedHospital: recommended,
	}
	if err := h.store.CreateAlert(ctx, alert); err != nil {
		h.storeFailure(c, err, "Alert")
		return
	}
	h.feed.Publish(alert)

	h.logger.Info("sos alert created",
		zap.String("alert_id", alert.ID),
		zap.String("user_id", alert.UserID),
		zap.String("severity", severity),
	)

	eta := h.withRand(func(r *rand.Rand) int { return dispatch.ETA(reported, r) })
	c.JSON(http.StatusCreated, AlertResponse{
		Message:       "Alert Sent Successfully!",
		SeverityLevel: reported,
		SeverityScore: score,
		AIConfidence:  confidence,
		Priority:      alert.Priority,
		Recommendation: Recommendation{
			HospitalName:  dispatch.RecommendedFacility(reported),
			ETA:           eta,
			ETAUnit:       "minutes",
			AmbulanceType: ambulanceType,
			ResponseTime:  fields["response_time"],
		},
		AlertID: alert.ID,
	})
}

// GetNotifications godoc
// @Summary Recent alerts for a user
// @Description The ten newest alerts with 24-hour critical counts
// @Tags alerts
// @Produce json
// @Param userId path string true "User ID"
// @Success 200 {object} NotificationsResponse
// @Failure 403 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /notifications/{userId} [get]
func (h *Handler) GetNotifications(c *gin.Context) {
	userID := c.Param("userId")
	if forbidOtherUser(c, userID) {
		return
	}

	alerts, err := h.store.ListAlertsByUser(c.Request.Context(), userID, 0)
	if err != nil {
		h.storeFailure(c, err, "Alert")
		return
	}

	cutoff := h.now().Add(-24 * time.Hour)
	resp := NotificationsResponse{
		Notifications: make([]models.Notification, 0, notificationLimit),
		Stats:         NotificationStats{TotalSOSCalls: len(alerts)},
	}
	for i, a := range alerts {
		if dispatch.IsUrgent(a.EmergencyType) && !a.CreatedAt.Before(cutoff) {
			resp.Stats.RecentCriticalAlerts++
		}
		if i >= notificationLimit {
			continue
		}
		severity := a.EmergencyType
		if severity == "" {
			severity = a.Priority
		}
		ambulanceType := a.AmbulanceType
		if ambulanceType == "" {
			ambulanceType = "Standard"
		}
		resp.Notifications = append(resp.Notifications, models.Notification{
			ID:            a.ID,
			Message:       a.Message,
			Severity:      severity,
			SeverityScore: a.SeverityScore,
			AmbulanceType: ambulanceType,
			Timestamp:     a.CreatedAt,
			Icon:          dispatch.NotificationIcon(a.EmergencyType),
		})
	}
	if len(alerts) > 0 {
		last := alerts[0].CreatedAt
		resp.Stats.LastAlert = &last
	}

	c.JSON(http.StatusOK, resp)
}
