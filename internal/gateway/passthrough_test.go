package gateway

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/lifelink/emergency-coordinator/internal/models"
	"github.com/lifelink/emergency-coordinator/internal/prediction"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPassthroughCommandMapping(t *testing.T) {
	env := newTestEnv(t)
	hospital := env.token(env.user(models.RoleHospital, "hospital@test.com"))
	gov := env.token(env.user(models.RoleGovernment, "gov@test.com"))
	public := env.token(env.user(models.RolePublic, "public@test.com"))

	tests := []struct {
		path    string
		token   string
		command string
	}{
		{"/api/hosp/triage", hospital, "predict_hosp_severity"},
		{"/api/hospital/triage", hospital, "predict_hosp_severity"},
		{"/api/hosp/donors", hospital, "predict_compat"},
		{"/api/hospital/predict_disease_forecast", gov, "predict_hosp_disease"},
		{"/api/hospital/patient/recovery", hospital, "predict_recovery"},
		{"/api/hospital/inventory/predict", hospital, "predict_inventory"},
		{"/api/gov/predict_outbreak", gov, "predict_forecast_outbreak"},
		{"/api/gov/predict_policy_segment", gov, "predict_policy_seg"},
		{"/api/predict_health_risk", public, "predict_risk"},
		{"/api/predict_user_cluster", public, "predict_cluster"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := env.do(http.MethodPost, tt.path, tt.token, map[string]any{"age": 40})
			requireStatus(t, w, http.StatusOK)
			assert.Equal(t, tt.command, env.predictor.lastCall(t).Command)
		})
	}
}

func TestPassthroughPayloadAndResult(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(env.user(models.RoleHospital, "hospital@test.com"))
	env.predictor.results["predict_bed_forecast"] = map[string]any{"forecast": []any{12.0, 14.0}}

	t.Run("result is returned unchanged", func(t *testing.T) {
		w := env.do(http.MethodPost, "/api/hosp/bed_forecast", token, `{"days": 7}`)
		requireStatus(t, w, http.StatusOK)
		assert.JSONEq(t, `{"forecast":[12,14]}`, w.Body.String())
	})

	t.Run("short bed forecast route sets the hospital id", func(t *testing.T) {
		env.do(http.MethodPost, "/api/hosp/bed_forecast", token, `{"days": 7}`)
		payload, ok := env.predictor.lastCall(t).Payload.(map[string]any)
		require.True(t, ok)
		assert.Equal(t, 1, payload["hospital_id"])
		assert.Equal(t, json.Number("7"), payload["days"])
	})

	t.Run("short bed forecast route replaces a caller hospital id", func(t *testing.T) {
		env.do(http.MethodPost, "/api/hosp/bed_forecast", token, `{"hospital_id": 9, "days": 3}`)
		payload := env.predictor.lastCall(t).Payload.(map[string]any)
		assert.Equal(t, 1, payload["hospital_id"])
		assert.Equal(t, json.Number("3"), payload["days"])
	})

	t.Run("long route forwards untouched", func(t *testing.T) {
		env.do(http.MethodPost, "/api/hosp/predict_bed_forecast", token, `{"days": 7}`)
		payload := env.predictor.lastCall(t).Payload.(map[string]any)
		assert.NotContains(t, payload, "hospital_id")
	})

	t.Run("empty body is an empty object", func(t *testing.T) {
		w := env.do(http.MethodPost, "/api/hosp/staff", token, nil)
		requireStatus(t, w, http.StatusOK)
		assert.Equal(t, map[string]any{}, env.predictor.lastCall(t).Payload)
	})

	t.Run("array payloads pass through", func(t *testing.T) {
		w := env.do(http.MethodPost, "/api/hosp/staff", token, `[1, 2]`)
		requireStatus(t, w, http.StatusOK)
		assert.Equal(t, []any{json.Number("1"), json.Number("2")}, env.predictor.lastCall(t).Payload)
	})
}

func TestPassthroughRejectsInvalidJSON(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(env.user(models.RoleHospital, "hospital@test.com"))

	for _, body := range []string{`{"days":`, `{"a":1} {"b":2}`, `not json`} {
		w := env.do(http.MethodPost, "/api/hosp/triage", token, body)
		requireStatus(t, w, http.StatusBadRequest)
		assert.Equal(t, "Request body must be valid JSON", errorBody(t, w).Error)
	}
	assert.Zero(t, env.predictor.callCount())
}

func TestPassthroughPredictionFailure(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(env.user(models.RoleGovernment, "gov@test.com"))
	env.predictor.err = &prediction.Error{Kind: prediction.KindMalformedResponse, Command: "predict_anomaly"}

	w := env.do(http.MethodPost, "/api/gov/predict_anomaly", token, `{}`)
	requireStatus(t, w, http.StatusInternalServerError)
	body := errorBody(t, w)
	assert.Equal(t, models.ErrCodePredictionFailed, body.Code)
	assert.Equal(t, string(prediction.KindMalformedResponse), body.Details["kind"])
}

func TestReadPayload(t *testing.T) {
	v, err := readPayload(strings.NewReader("  \n "))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{}, v)

	v, err = readPayload(strings.NewReader(`"text"`))
	require.NoError(t, err)
	assert.Equal(t, "text", v)

	_, err = readPayload(strings.NewReader(`{} []`))
	assert.ErrorIs(t, err, errTrailingData)
}
