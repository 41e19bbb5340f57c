package gateway

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lifelink/emergency-coordinator/internal/models"
	"github.com/lifelink/emergency-coordinator/internal/prediction"
	"go.uber.org/zap"
)

// maxPassthroughBody bounds forwarded request bodies.
const maxPassthroughBody = 1 << 20

var errTrailingData = errors.New("unexpected data after JSON value")

// PredictionRoute binds a POST path to a prediction command. The request
// body is forwarded as the payload and the result is returned unchanged.
type PredictionRoute struct {
	Path    string
	Command string
	// Overrides are set on object payloads, replacing any caller value.
	Overrides map[string]any
}

var hospitalPredictionRoutes = []PredictionRoute{
	{Path: "triage", Command: "predict_hosp_severity"},
	{Path: "eta", Command: "predict_eta"},
	{Path: "bed_forecast", Command: "predict_bed_forecast", Overrides: map[string]any{"hospital_id": 1}},
	{Path: "staff", Command: "predict_staff_alloc"},
	{Path: "donors", Command: "predict_compat"},
	{Path: "performance", Command: "predict_hosp_perf"},
	{Path: "predict_eta", Command: "predict_eta"},
	{Path: "predict_bed_forecast", Command: "predict_bed_forecast"},
	{Path: "predict_staff_allocation", Command: "predict_staff_alloc"},
	{Path: "predict_disease_forecast", Command: "predict_hosp_disease"},
	{Path: "predict_recovery", Command: "predict_recovery"},
	{Path: "predict_stay_duration", Command: "predict_stay"},
	{Path: "predict_performance", Command: "predict_hosp_perf"},
	{Path: "inventory", Command: "predict_inventory"},
	{Path: "predict_policy", Command: "predict_policy"},
	{Path: "predict_outbreak", Command: "predict_outbreak"},
	{Path: "optimize_ambulance", Command: "optimize_ambulance"},
	{Path: "detect_anomaly", Command: "detect_anomaly"},
	{Path: "predict_severity", Command: "predict_hosp_severity"},
}

// patientRoutes exist only under the long /api/hospital prefix.
var patientRoutes = []PredictionRoute{
	{Path: "patient/recovery", Command: "predict_recovery"},
	{Path: "patient/stay", Command: "predict_stay"},
	{Path: "inventory/predict", Command: "predict_inventory"},
}

var governmentPredictionRoutes = []PredictionRoute{
	{Path: "predict_outbreak", Command: "predict_forecast_outbreak"},
	{Path: "predict_severity", Command: "predict_severity"},
	{Path: "predict_availability", Command: "predict_availability"},
	{Path: "predict_allocation", Command: "predict_allocation"},
	{Path: "predict_policy_segment", Command: "predict_policy_seg"},
	{Path: "predict_performance_score", Command: "predict_perf_score"},
	{Path: "predict_anomaly", Command: "predict_anomaly"},
}

var userPredictionRoutes = []PredictionRoute{
	{Path: "predict_health_risk", Command: "predict_risk"},
	{Path: "predict_user_cluster", Command: "predict_cluster"},
	{Path: "predict_user_forecast", Command: "predict_forecast"},
}

// registerPredictionRoutes adds one POST handler per route under group
func (h *Handler) registerPredictionRoutes(group *gin.RouterGroup, routes []PredictionRoute) {
	for _, route := range routes {
		group.POST("/"+route.Path, h.Passthrough(route))
	}
}

// Passthrough godoc
// @Summary Prediction passthrough
// @Description Forward the JSON body to the named prediction command and return its result
// @Tags predictions
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Failure 503 {object} models.ErrorResponse
// @Failure 504 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /hosp/{route} [post]
func (h *Handler) Passthrough(route PredictionRoute) gin.HandlerFunc {
	return func(c *gin.Context) {
		payload, err := readPayload(c.Request.Body)
		if err != nil {
			respondError(c, http.StatusBadRequest, models.ErrCodeInvalidRequest, "Request body must be valid JSON")
			return
		}
		if obj, ok := payload.(map[string]any); ok {
			for k, v := range route.Overrides {
				obj[k] = v
			}
		}

		result, err := h.predictor.Run(c.Request.Context(), prediction.Request{Command: route.Command, Payload: payload})
		if err != nil {
			h.logger.Warn("prediction passthrough failed",
				zap.String("path", c.FullPath()),
				zap.String("command", route.Command),
				zap.Error(err),
			)
			h.predictionFailure(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

// readPayload decodes a JSON body keeping numbers exact. An empty body is an empty object.
func readPayload(body io.Reader) (any, error) {
	if body == nil {
		return map[string]any{}, nil
	}
	raw, err := io.ReadAll(io.LimitReader(body, maxPassthroughBody))
	if err != nil {
		return nil, err
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return map[string]any{}, nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var payload any
	if err := dec.Decode(&payload); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errTrailingData
	}
	return payload, nil
}

