package gateway

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lifelink/emergency-coordinator/internal/dispatch"
	"github.com/lifelink/emergency-coordinator/internal/models"
	"github.com/lifelink/emergency-coordinator/internal/prediction"
	"go.uber.org/zap"
)

const routeWaypoints = 10

// AmbulanceEnvelope wraps ambulance responses
type AmbulanceEnvelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Count   *int   `json:"count,omitempty"`
	Data    any    `json:"data"`
}

// CreateAmbulanceRequest registers a vehicle with a hospital
type CreateAmbulanceRequest struct {
	AmbulanceID        string `json:"ambulanceId"`
	RegistrationNumber string `json:"registrationNumber"`
	HospitalID         string `json:"hospitalId"`
	DriverName         string `json:"driverName"`
	LicenseNumber      string `json:"licenseNumber"`
	DriverPhone        string `json:"driverPhone"`
}

// LocationUpdateRequest reports a vehicle position
type LocationUpdateRequest struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Address   string   `json:"address"`
}

// RouteRequest describes a trip between two points
type RouteRequest struct {
	StartLatitude        *float64 `json:"startLatitude"`
	StartLongitude       *float64 `json:"startLongitude"`
	StartAddress         string   `json:"startAddress"`
	DestinationLatitude  *float64 `json:"destinationLatitude"`
	DestinationLongitude *float64 `json:"destinationLongitude"`
	DestinationAddress   string   `json:"destinationAddress"`
	EmergencyType        string   `json:"emergencyType"`
	PriorityLevel        string   `json:"priorityLevel"`
}

// ETARequest asks for a fresh arrival estimate
type ETARequest struct {
	CurrentLatitude      *float64 `json:"currentLatitude"`
	CurrentLongitude     *float64 `json:"currentLongitude"`
	DestinationLatitude  *float64 `json:"destinationLatitude"`
	DestinationLongitude *float64 `json:"destinationLongitude"`
	TrafficLevel         string   `json:"trafficLevel"`
	Weather              string   `json:"weather"`
}

func (r RouteRequest) points() (models.GeoPoint, models.GeoPoint, bool) {
	if r.StartLatitude == nil || r.StartLongitude == nil || r.DestinationLatitude == nil || r.DestinationLongitude == nil {
		return models.GeoPoint{}, models.GeoPoint{}, false
	}
	start := models.GeoPoint{Latitude: *r.StartLatitude, Longitude: *r.StartLongitude, Address: r.StartAddress}
	end := models.GeoPoint{Latitude: *r.DestinationLatitude, Longitude: *r.DestinationLongitude, Address: r.DestinationAddress}
	return start, end, true
}

func distanceBetween(a, b models.GeoPoint) float64 {
	return dispatch.Distance(a.Latitude, a.Longitude, b.Latitude, b.Longitude)
}

func success(data any) AmbulanceEnvelope {
	return AmbulanceEnvelope{Success: true, Data: data}
}

// ListAmbulances godoc
// @Summary List ambulances
// @Tags ambulance
// @Produce json
// @Success 200 {object} AmbulanceEnvelope
// @Security BearerAuth
// @Router /ambulance [get]
func (h *Handler) ListAmbulances(c *gin.Context) {
	h.listAmbulances(c, "")
}

// ListHospitalAmbulances godoc
// @Summary List a hospital's ambulances
// @Tags ambulance
// @Produce json
// @Param hospitalId path string true "Hospital ID"
// @Success 200 {object} AmbulanceEnvelope
// @Security BearerAuth
// @Router /ambulance/hospital/{hospitalId} [get]
func (h *Handler) ListHospitalAmbulances(c *gin.Context) {
	h.listAmbulances(c, c.Param("hospitalId"))
}

func (h *Handler) listAmbulances(c *gin.Context, hospitalID string) {
	ambulances, err := h.store.ListAmbulances(c.Request.Context(), hospitalID)
	if err != nil {
		h.storeFailure(c, err, "Ambulance")
		return
	}
	count := len(ambulances)
	c.JSON(http.StatusOK, AmbulanceEnvelope{Success: true, Count: &count, Data: ambulances})
}

// GetAmbulance godoc
// @Summary Ambulance details
// @Tags ambulance
// @Produce json
// @Param id path string true "Ambulance record ID"
// @Success 200 {object} AmbulanceEnvelope
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /ambulance/{id} [get]
func (h *Handler) GetAmbulance(c *gin.Context) {
	ambulance, found := h.loadAmbulance(c)
	if !found {
		return
	}
	c.JSON(http.StatusOK, success(ambulance))
}

func (h *Handler) loadAmbulance(c *gin.Context) (*models.Ambulance, bool) {
	ambulance, err := h.store.GetAmbulance(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.storeFailure(c, err, "Ambulance")
		return nil, false
	}
	return ambulance, true
}

func (h *Handler) saveAmbulance(c *gin.Context, ambulance *models.Ambulance) bool {
	if err := h.store.UpdateAmbulance(c.Request.Context(), ambulance); err != nil {
		h.storeFailure(c, err, "Ambulance")
		return false
	}
	return true
}

// CreateAmbulance godoc
// @Summary Register an ambulance
// @Tags ambulance
// @Accept json
// @Produce json
// @Param request body CreateAmbulanceRequest true "Ambulance"
// @Success 201 {object} AmbulanceEnvelope
// @Failure 400 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /ambulance/create [post]
func (h *Handler) CreateAmbulance(c *gin.Context) {
	var req CreateAmbulanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, models.ErrCodeInvalidRequest, "Invalid request")
		return
	}
	if strings.TrimSpace(req.AmbulanceID) == "" || strings.TrimSpace(req.RegistrationNumber) == "" || req.HospitalID == "" {
		badRequest(c, "Missing required fields: ambulanceId, registrationNumber, hospitalId")
		return
	}

	ambulance := &models.Ambulance{
		AmbulanceID:        req.AmbulanceID,
		RegistrationNumber: req.RegistrationNumber,
		HospitalID:         req.HospitalID,
		Status:             models.AmbulanceAvailable,
		TravelHistory:      []models.Trip{},
		Driver: models.Driver{
			Name:          orDefault(req.DriverName, "Unassigned"),
			LicenseNumber: req.LicenseNumber,
			Phone:         req.DriverPhone,
			Availability:  true,
		},
		Metrics: models.AmbulanceMetrics{OnTimeDeliveryRate: 100},
	}
	if err := h.store.CreateAmbulance(c.Request.Context(), ambulance); err != nil {
		h.storeFailure(c, err, "Ambulance with this ID")
		return
	}

	h.logger.Info("ambulance registered",
		zap.String("ambulance_id", ambulance.AmbulanceID),
		zap.String("hospital_id", ambulance.HospitalID),
	)
	c.JSON(http.StatusCreated, AmbulanceEnvelope{Success: true, Message: "Ambulance created successfully", Data: ambulance})
}

// UpdateLocation godoc
// @Summary Report ambulance position
// @Tags ambulance
// @Accept json
// @Produce json
// @Param id path string true "Ambulance record ID"
// @Param request body LocationUpdateRequest true "Position"
// @Success 200 {object} AmbulanceEnvelope
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /ambulance/{id}/update-location [post]
func (h *Handler) UpdateLocation(c *gin.Context) {
	var req LocationUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Latitude == nil || req.Longitude == nil {
		badRequest(c, "Latitude and longitude required")
		return
	}

	ambulance, found := h.loadAmbulance(c)
	if !found {
		return
	}
	at := h.now().UTC()
	ambulance.CurrentLocation = &models.GeoPoint{
		Latitude:  *req.Latitude,
		Longitude: *req.Longitude,
		Address:   orDefault(req.Address, "Location Updated"),
		Timestamp: &at,
	}
	ambulance.LastLocationUpdate = &at
	if ambulance.ActiveRoute != nil {
		ambulance.ActiveRoute.RoutePath = append(ambulance.ActiveRoute.RoutePath, *ambulance.CurrentLocation)
	}
	if !h.saveAmbulance(c, ambulance) {
		return
	}
	c.JSON(http.StatusOK, AmbulanceEnvelope{Success: true, Message: "Location updated", Data: ambulance.CurrentLocation})
}

// StartRoute godoc
// @Summary Start a trip
// @Description Plan the active route and mark the ambulance en route
// @Tags ambulance
// @Accept json
// @Produce json
// @Param id path string true "Ambulance record ID"
// @Param request body RouteRequest true "Trip"
// @Success 200 {object} AmbulanceEnvelope
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /ambulance/{id}/start-route [post]
func (h *Handler) StartRoute(c *gin.Context) {
	var req RouteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, models.ErrCodeInvalidRequest, "Invalid request")
		return
	}
	start, end, complete := req.points()
	if !complete {
		badRequest(c, "Missing coordinates")
		return
	}

	ambulance, found := h.loadAmbulance(c)
	if !found {
		return
	}

	at := h.now().UTC()
	distance := distanceBetween(start, end)
	minutes := dispatch.RouteMinutes(distance)
	first := start
	first.Timestamp = &at

	ambulance.Status = models.AmbulanceEnRoute
	ambulance.ActiveRoute = &models.Route{
		StartLocation:        start,
		DestinationLocation:  end,
		RoutePath:            []models.GeoPoint{first},
		DistanceKm:           distance,
		EstimatedTimeMinutes: minutes,
		StartTime:            at,
		EstimatedArrivalTime: at.Add(time.Duration(minutes) * time.Minute),
	}
	ambulance.EmergencyType = req.EmergencyType
	ambulance.PriorityLevel = orDefault(req.PriorityLevel, "Medium")
	ambulance.Metrics.TotalTripsToday++
	ambulance.Metrics.TotalDistanceTodayKm += distance
	if !h.saveAmbulance(c, ambulance) {
		return
	}

	h.logger.Info("ambulance route started",
		zap.String("ambulance_id", ambulance.AmbulanceID),
		zap.Float64("distance_km", distance),
		zap.Int("estimated_minutes", minutes),
	)
	c.JSON(http.StatusOK, AmbulanceEnvelope{Success: true, Message: "Route started", Data: gin.H{
		"ambulanceId":          ambulance.AmbulanceID,
		"status":               ambulance.Status,
		"activeRoute":          ambulance.ActiveRoute,
		"estimatedArrivalTime": ambulance.ActiveRoute.EstimatedArrivalTime,
	}})
}

// PredictETA godoc
// @Summary Predict arrival time
// @Description Ask the ETA model for the remaining trip; falls back to a 40 km/h estimate when the model fails or gives no figure
// @Tags ambulance
// @Accept json
// @Produce json
// @Param id path string true "Ambulance record ID"
// @Param request body ETARequest true "Position and conditions"
// @Success 200 {object} AmbulanceEnvelope
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /ambulance/{id}/predict-eta [post]
func (h *Handler) PredictETA(c *gin.Context) {
	var req ETARequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, models.ErrCodeInvalidRequest, "Invalid request")
		return
	}
	if req.CurrentLatitude == nil || req.CurrentLongitude == nil || req.DestinationLatitude == nil || req.DestinationLongitude == nil {
		badRequest(c, "Missing coordinates")
		return
	}

	ambulance, found := h.loadAmbulance(c)
	if !found {
		return
	}

	remaining := dispatch.Distance(*req.CurrentLatitude, *req.CurrentLongitude, *req.DestinationLatitude, *req.DestinationLongitude)
	traffic := orDefault(req.TrafficLevel, "low")
	weather := orDefault(req.Weather, "clear")

	result, err := h.predictor.Run(c.Request.Context(), prediction.Request{
		Command: "predict_eta",
		Payload: map[string]any{
			"distance_km":     remaining,
			"traffic_level":   traffic,
			"weather":         weather,
			"current_lat":     *req.CurrentLatitude,
			"current_lng":     *req.CurrentLongitude,
			"destination_lat": *req.DestinationLatitude,
			"destination_lng": *req.DestinationLongitude,
			"priority":        ambulance.PriorityLevel,
		},
	})
	if err != nil {
		if prediction.KindOf(err) == prediction.KindCanceled {
			h.predictionFailure(c, err)
			return
		}
		h.logger.Warn("ETA model failed, using drive-time estimate",
			zap.String("ambulance_id", ambulance.AmbulanceID),
			zap.Error(err),
		)
		result = nil
	}

	fields := resultFields(result)
	eta := &models.ETAPrediction{
		ConfidenceLevel:  "Medium",
		TrafficFactor:    dispatch.TrafficFactor(traffic),
		WeatherCondition: weather,
		LastUpdated:      h.now().UTC(),
	}
	if minutes, ok := numberField(fields, "estimated_minutes", "eta_minutes", "eta"); ok && minutes > 0 {
		eta.EstimatedMinutes = int(minutes + 0.5)
		eta.ConfidenceLevel = "High"
	} else {
		eta.EstimatedMinutes = dispatch.DriveMinutes(remaining)
	}
	if level, ok := stringField(fields, "confidence_level"); ok {
		eta.ConfidenceLevel = level
	}

	ambulance.ETAPrediction = eta
	if !h.saveAmbulance(c, ambulance) {
		return
	}
	c.JSON(http.StatusOK, AmbulanceEnvelope{Success: true, Message: "ETA calculated", Data: gin.H{
		"ambulanceId":       ambulance.AmbulanceID,
		"etaPrediction":     eta,
		"remainingDistance": fmt.Sprintf("%.2f", remaining),
	}})
}

// GetRoute godoc
// @Summary Plan a route
// @Description Waypoints for the direct route plus faster and scenic alternates
// @Tags ambulance
// @Accept json
// @Produce json
// @Param id path string true "Ambulance record ID"
// @Param request body RouteRequest true "Trip"
// @Success 200 {object} AmbulanceEnvelope
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /ambulance/{id}/get-route [post]
func (h *Handler) GetRoute(c *gin.Context) {
	var req RouteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, models.ErrCodeInvalidRequest, "Invalid request")
		return
	}
	start, end, complete := req.points()
	if !complete {
		badRequest(c, "Missing coordinates")
		return
	}

	ambulance, found := h.loadAmbulance(c)
	if !found {
		return
	}

	distance := distanceBetween(start, end)
	minutes := dispatch.RouteMinutes(distance)
	alternates := dispatch.AlternateRoutes(distance, minutes)
	ambulance.AlternateRoutes = alternates
	if !h.saveAmbulance(c, ambulance) {
		return
	}

	c.JSON(http.StatusOK, success(gin.H{
		"ambulanceId":      ambulance.AmbulanceID,
		"distance":         fmt.Sprintf("%.2f", distance),
		"estimatedMinutes": minutes,
		"routePath":        dispatch.RoutePath(start, end, routeWaypoints, h.now().UTC()),
		"alternateRoutes":  alternates,
	}))
}

// CompleteRoute godoc
// @Summary Finish the active trip
// @Description Record the trip in travel history and refresh response metrics
// @Tags ambulance
// @Produce json
// @Param id path string true "Ambulance record ID"
// @Success 200 {object} AmbulanceEnvelope
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /ambulance/{id}/complete-route [post]
func (h *Handler) CompleteRoute(c *gin.Context) {
	ambulance, found := h.loadAmbulance(c)
	if !found {
		return
	}
	route := ambulance.ActiveRoute
	if route == nil {
		badRequest(c, "No active route")
		return
	}

	at := h.now().UTC()
	actual := at.Sub(route.StartTime).Minutes()
	accuracy := dispatch.PredictionAccuracy(route.EstimatedTimeMinutes, actual)
	trip := models.Trip{
		Date:                 at,
		StartLocation:        route.StartLocation,
		EndLocation:          route.DestinationLocation,
		DistanceKm:           route.DistanceKm,
		ActualTimeMinutes:    int(actual + 0.5),
		EstimatedTimeMinutes: route.EstimatedTimeMinutes,
		TrafficCondition:     "completed",
		Weather:              "clear",
		PredictionAccuracy:   accuracy,
	}

	ambulance.TravelHistory = append(ambulance.TravelHistory, trip)
	ambulance.Status = models.AmbulanceAtLocation
	ambulance.ActiveRoute = nil
	ambulance.Metrics.AverageResponseTime = dispatch.AverageResponseTime(ambulance.TravelHistory)
	ambulance.Metrics.OnTimeDeliveryRate = dispatch.OnTimeRate(ambulance.TravelHistory)
	if !h.saveAmbulance(c, ambulance) {
		return
	}

	h.logger.Info("ambulance route completed",
		zap.String("ambulance_id", ambulance.AmbulanceID),
		zap.Int("actual_minutes", trip.ActualTimeMinutes),
		zap.Int("estimated_minutes", trip.EstimatedTimeMinutes),
	)
	c.JSON(http.StatusOK, AmbulanceEnvelope{Success: true, Message: "Route completed", Data: gin.H{
		"ambulanceId":          ambulance.AmbulanceID,
		"actualTimeMinutes":    trip.ActualTimeMinutes,
		"estimatedTimeMinutes": trip.EstimatedTimeMinutes,
		"predictionAccuracy":   fmt.Sprintf("%.0f%%", accuracy),
		"metrics":              ambulance.Metrics,
	}})
}

// UpdateAmbulanceStatus godoc
// @Summary Change ambulance status
// @Tags ambulance
// @Accept json
// @Produce json
// @Param id path string true "Ambulance record ID"
// @Param request body StatusRequest true "Status"
// @Success 200 {object} AmbulanceEnvelope
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /ambulance/{id}/status [put]
func (h *Handler) UpdateAmbulanceStatus(c *gin.Context) {
	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil || !models.ValidAmbulanceStatus(req.Status) {
		badRequest(c, "Invalid status. Must be one of: available, en_route, at_location, returning, maintenance")
		return
	}

	ambulance, found := h.loadAmbulance(c)
	if !found {
		return
	}
	ambulance.Status = req.Status
	if !h.saveAmbulance(c, ambulance) {
		return
	}
	c.JSON(http.StatusOK, AmbulanceEnvelope{Success: true, Message: "Status updated", Data: gin.H{
		"ambulanceId": ambulance.AmbulanceID,
		"status":      ambulance.Status,
	}})
}

// GetAmbulanceMetrics godoc
// @Summary Ambulance performance
// @Tags ambulance
// @Produce json
// @Param id path string true "Ambulance record ID"
// @Success 200 {object} AmbulanceEnvelope
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /ambulance/{id}/metrics [get]
func (h *Handler) GetAmbulanceMetrics(c *gin.Context) {
	ambulance, found := h.loadAmbulance(c)
	if !found {
		return
	}

	var lastTrip *models.Trip
	if n := len(ambulance.TravelHistory); n > 0 {
		lastTrip = &ambulance.TravelHistory[n-1]
	}
	c.JSON(http.StatusOK, success(gin.H{
		"ambulanceId":        ambulance.AmbulanceID,
		"metrics":            ambulance.Metrics,
		"travelHistoryCount": len(ambulance.TravelHistory),
		"lastTrip":           lastTrip,
	}))
}
