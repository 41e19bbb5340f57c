package gateway

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/lifelink/emergency-coordinator/internal/models"
	"github.com/lifelink/emergency-coordinator/internal/prediction"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAlert(t *testing.T) {
	env := newTestEnv(t)
	u := env.user(models.RolePublic, "public@test.com")
	env.predictor.results["predict_sos_severity"] = map[string]any{
		"severity_level": "Critical",
		"severity_score": 92.0,
		"confidence":     0.9,
		"ambulance_type": "Advanced Life Support",
		"response_time":  "fast",
	}

	w := env.do(http.MethodPost, "/api/alerts", env.token(u), map[string]any{
		"locationDetails": "Lat: 12.9, Lng: 74.8",
		"message":         "Severe chest pain",
	})
	requireStatus(t, w, http.StatusCreated)

	resp := decode[AlertResponse](t, w)
	assert.Equal(t, "Alert Sent Successfully!", resp.Message)
	assert.Equal(t, "Critical", resp.SeverityLevel)
	assert.Equal(t, 92.0, resp.SeverityScore)
	assert.Equal(t, 0.9, resp.AIConfidence)
	assert.Equal(t, "High", resp.Priority)
	assert.Equal(t, "Trauma & Critical Care Center", resp.Recommendation.HospitalName)
	assert.Equal(t, "minutes", resp.Recommendation.ETAUnit)
	assert.GreaterOrEqual(t, resp.Recommendation.ETA, 1)
	assert.LessOrEqual(t, resp.Recommendation.ETA, 3)
	assert.Equal(t, "fast", resp.Recommendation.ResponseTime)

	call := env.predictor.lastCall(t)
	assert.Equal(t, "predict_sos_severity", call.Command)
	assert.Equal(t, map[string]any{"message": "Severe chest pain"}, call.Payload)

	alerts, err := env.store.ListAlertsByUser(context.Background(), u.ID, 0)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, resp.AlertID, alerts[0].ID)
	assert.Equal(t, models.AlertPending, alerts[0].Status)
	assert.Equal(t, "Critical", alerts[0].EmergencyType)
	assert.Equal(t, "Emergency Department", alerts[0].RecommendedHospital)
}

func TestCreateAlertDefaults(t *testing.T) {
	env := newTestEnv(t)
	u := env.user(models.RolePublic, "public@test.com")

	w := env.do(http.MethodPost, "/api/alerts", env.token(u), map[string]any{
		"locationDetails": "Home", "message": "Fell down",
	})
	requireStatus(t, w, http.StatusCreated)

	resp := decode[AlertResponse](t, w)
	assert.Empty(t, resp.SeverityLevel)
	assert.NotContains(t, w.Body.String(), "severity_level")
	assert.Equal(t, 50.0, resp.SeverityScore)
	assert.Equal(t, "Medium", resp.Priority)
	assert.Equal(t, "Standard Ambulance", resp.Recommendation.AmbulanceType)
	assert.Equal(t, "Central City General", resp.Recommendation.HospitalName)
	assert.Equal(t, 10, resp.Recommendation.ETA)

	alerts, err := env.store.ListAlertsByUser(context.Background(), u.ID, 0)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, "Medium", alerts[0].EmergencyType)
	assert.Equal(t, "Medium", alerts[0].Priority)
}

func TestCreateAlertUnknownTier(t *testing.T) {
	env := newTestEnv(t)
	u := env.user(models.RolePublic, "public@test.com")
	env.predictor.results["predict_sos_severity"] = map[string]any{"severity_level": "Severe"}

	w := env.do(http.MethodPost, "/api/alerts", env.token(u), map[string]any{
		"locationDetails": "Home", "message": "Smoke everywhere",
	})
	requireStatus(t, w, http.StatusCreated)

	resp := decode[AlertResponse](t, w)
	assert.Equal(t, "Severe", resp.SeverityLevel)
	assert.Equal(t, "High", resp.Priority)
	assert.Equal(t, "Central City General", resp.Recommendation.HospitalName)
	assert.Equal(t, 10, resp.Recommendation.ETA)
}

func TestCreateAlertValidation(t *testing.T) {
	env := newTestEnv(t)
	u := env.user(models.RolePublic, "public@test.com")
	other := env.user(models.RolePublic, "other@test.com")

	w := env.do(http.MethodPost, "/api/alerts", env.token(u), map[string]any{"message": "help"})
	requireStatus(t, w, http.StatusBadRequest)

	w = env.do(http.MethodPost, "/api/alerts", env.token(u), map[string]any{
		"userId": other.ID, "locationDetails": "Home", "message": "help",
	})
	requireStatus(t, w, http.StatusForbidden)
	assert.Zero(t, env.predictor.callCount())
}

func TestCreateAlertPredictionFailures(t *testing.T) {
	tests := []struct {
		kind   prediction.Kind
		status int
		code   string
	}{
		{prediction.KindExecutionFailure, http.StatusInternalServerError, models.ErrCodePredictionFailed},
		{prediction.KindMalformedResponse, http.StatusInternalServerError, models.ErrCodePredictionFailed},
		{prediction.KindTimeout, http.StatusGatewayTimeout, models.ErrCodePredictionTimeout},
		{prediction.KindUnavailable, http.StatusServiceUnavailable, models.ErrCodeUnavailable},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			env := newTestEnv(t)
			u := env.user(models.RolePublic, "public@test.com")
			env.predictor.err = &prediction.Error{Kind: tt.kind, Command: "predict_sos_severity"}

			w := env.do(http.MethodPost, "/api/alerts", env.token(u), map[string]any{
				"locationDetails": "Home", "message": "help",
			})
			requireStatus(t, w, tt.status)
			assert.Equal(t, tt.code, errorBody(t, w).Code)

			alerts, err := env.store.ListAlertsByUser(context.Background(), u.ID, 0)
			require.NoError(t, err)
			assert.Empty(t, alerts, "failed triage must not store an alert")
		})
	}

	t.Run("canceled", func(t *testing.T) {
		env := newTestEnv(t)
		u := env.user(models.RolePublic, "public@test.com")
		env.predictor.err = &prediction.Error{Kind: prediction.KindCanceled, Command: "predict_sos_severity"}

		w := env.do(http.MethodPost, "/api/alerts", env.token(u), map[string]any{
			"locationDetails": "Home", "message": "help",
		})
		assert.Equal(t, statusClientClosed, w.Code)
	})
}

func TestGetNotifications(t *testing.T) {
	env := newTestEnv(t)
	u := env.user(models.RolePublic, "public@test.com")
	ctx := context.Background()

	for i, severity := range []string{"Low", "Critical", "High", "Medium"} {
		require.NoError(t, env.store.CreateAlert(ctx, &models.Alert{
			UserID:          u.ID,
			LocationDetails: "Home",
			Message:         severity,
			EmergencyType:   severity,
			Priority:        "High",
			Status:          models.AlertPending,
		}), i)
		time.Sleep(time.Millisecond)
	}

	w := env.do(http.MethodGet, "/api/notifications/"+u.ID, env.token(u), nil)
	requireStatus(t, w, http.StatusOK)

	resp := decode[NotificationsResponse](t, w)
	require.Len(t, resp.Notifications, 4)
	assert.Equal(t, "Medium", resp.Notifications[0].Severity, "newest first")
	assert.Equal(t, 4, resp.Stats.TotalSOSCalls)
	assert.Equal(t, 2, resp.Stats.RecentCriticalAlerts)
	require.NotNil(t, resp.Stats.LastAlert)
	for _, n := range resp.Notifications {
		assert.Equal(t, "Standard", n.AmbulanceType)
		if n.Severity == "Critical" {
			assert.Equal(t, "fa-exclamation-circle", n.Icon)
		} else {
			assert.Equal(t, "fa-alert", n.Icon)
		}
	}

	t.Run("old alerts leave the critical count", func(t *testing.T) {
		env.advance(48 * time.Hour)
		w := env.do(http.MethodGet, "/api/notifications/"+u.ID, env.token(u), nil)
		requireStatus(t, w, http.StatusOK)
		assert.Zero(t, decode[NotificationsResponse](t, w).Stats.RecentCriticalAlerts)
	})

	t.Run("other users are hidden from public callers", func(t *testing.T) {
		other := env.user(models.RolePublic, "other@test.com")
		w := env.do(http.MethodGet, "/api/notifications/"+u.ID, env.token(other), nil)
		requireStatus(t, w, http.StatusForbidden)

		hospital := env.user(models.RoleHospital, "hospital@test.com")
		w = env.do(http.MethodGet, "/api/notifications/"+u.ID, env.token(hospital), nil)
		requireStatus(t, w, http.StatusOK)
	})
}

func TestGetNotificationsLimit(t *testing.T) {
	env := newTestEnv(t)
	u := env.user(models.RolePublic, "public@test.com")
	for i := 0; i < 12; i++ {
		require.NoError(t, env.store.CreateAlert(context.Background(), &models.Alert{
			UserID: u.ID, LocationDetails: "Home", Message: "help", EmergencyType: "Low", Status: models.AlertPending,
		}))
	}

	w := env.do(http.MethodGet, "/api/notifications/"+u.ID, env.token(u), nil)
	requireStatus(t, w, http.StatusOK)
	resp := decode[NotificationsResponse](t, w)
	assert.Len(t, resp.Notifications, 10)
	assert.Equal(t, 12, resp.Stats.TotalSOSCalls)
}
