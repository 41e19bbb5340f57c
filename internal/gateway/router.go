package gateway

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/lifelink/emergency-coordinator/internal/auth"
	"github.com/lifelink/emergency-coordinator/internal/logging"
	"github.com/lifelink/emergency-coordinator/internal/models"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// RouterOptions configures the HTTP surface
type RouterOptions struct {
	AllowedOrigins []string
	// Swagger mounts /swagger/*any when set.
	Swagger bool
}

// NewRouter builds the engine with middleware and every route registered
func NewRouter(h *Handler, opts RouterOptions) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(logging.RequestLogger(h.logger))
	// cors.New rejects an empty origin list; no origins means same-origin only.
	if len(opts.AllowedOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     opts.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Health checks stay at the root for orchestrators
	router.GET("/health", h.Health)
	router.GET("/ready", h.Ready)

	if opts.Swagger {
		router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := router.Group("/api")
	api.GET("/health", h.Health)
	api.POST("/auth/signup", h.Signup)
	api.POST("/auth/login", h.Login)

	protected := api.Group("")
	protected.Use(auth.RequireAuth(h.jwtManager))
	h.RegisterRoutes(protected)

	return router
}

// RegisterRoutes adds every authenticated route to group
func (h *Handler) RegisterRoutes(protected *gin.RouterGroup) {
	staff := auth.RequireRole(models.RoleHospital, models.RoleGovernment)
	government := auth.RequireRole(models.RoleGovernment)

	protected.POST("/auth/refresh", h.Refresh)

	// SOS alerts
	protected.POST("/alerts", h.CreateAlert)
	protected.GET("/notifications/:userId", h.GetNotifications)
	protected.GET("/ws/alerts", staff, h.StreamAlerts)

	// Prediction-backed enrichment
	protected.POST("/check_compatibility", h.CheckCompatibility)
	protected.POST("/analyze_report", h.AnalyzeReport)
	protected.POST("/check_profile_cluster", h.CheckProfileCluster)
	protected.POST("/predict_donation_forecast", h.PredictDonationForecast)

	// Prediction passthrough
	h.registerPredictionRoutes(protected, userPredictionRoutes)
	h.registerPredictionRoutes(protected.Group("/hosp", staff), hospitalPredictionRoutes)
	hospital := protected.Group("/hospital", staff)
	h.registerPredictionRoutes(hospital, hospitalPredictionRoutes)
	h.registerPredictionRoutes(hospital, patientRoutes)
	h.registerPredictionRoutes(protected.Group("/gov", government), governmentPredictionRoutes)

	// Inter-hospital communication
	comms := protected.Group("/hospital-communication", staff)
	comms.GET("/debug/status", h.CommunicationDebugStatus)
	comms.GET("/list/:currentHospitalId", h.ListOtherHospitals)
	comms.GET("/details/:hospitalId", h.GetHospitalDetails)
	comms.POST("/send-message", h.SendMessage)
	comms.GET("/messages/:hospitalId", h.GetReceivedMessages)
	comms.GET("/sent-messages/:hospitalId", h.GetSentMessages)
	comms.PATCH("/message/:messageId", h.UpdateMessage)
	comms.POST("/message/:messageId/reply", h.ReplyToMessage)
	comms.DELETE("/message/:messageId", h.DeleteMessage)
	comms.GET("/my-hospital/:userId", h.GetMyHospital)
	comms.PUT("/my-hospital/:userId", h.UpdateMyHospital)

	// Dashboards
	dashboard := protected.Group("/dashboard")
	dashboard.GET("/public/:userId/full", h.GetPublicDashboard)
	dashboard.PUT("/profile/:userId", h.UpdateProfile)
	dashboard.GET("/hospital/stats", staff, h.GetHospitalStats)
	dashboard.GET("/hospital/alerts", staff, h.GetHospitalAlerts)
	dashboard.PUT("/hospital/alert/:id", staff, h.UpdateAlertStatus)
	dashboard.POST("/hospital/patient/admit", staff, h.AdmitPatient)
	dashboard.GET("/hospital/patients/:hospitalId", staff, h.ListPatients)
	dashboard.POST("/hospital/resource/add", staff, h.AddInventoryItem)
	dashboard.GET("/hospital/resources/:hospitalId", staff, h.ListInventory)
	dashboard.GET("/admin/pending-hospitals", government, h.GetPendingHospitals)
	dashboard.PUT("/admin/verify/:id", government, h.VerifyHospital)
	dashboard.DELETE("/notification/:type/:id", h.DeleteNotification)
	protected.POST("/users/verify", government, h.VerifyUser)

	// Donors, requests and donations
	protected.GET("/donors", h.ListDonors)
	protected.POST("/requests", h.CreateRequest)
	protected.POST("/donations", h.CreateDonation)
	protected.GET("/donations/:userId", h.ListDonations)

	// Ambulance tracking
	ambulance := protected.Group("/ambulance")
	ambulance.GET("", h.ListAmbulances)
	ambulance.GET("/hospital/:hospitalId", h.ListHospitalAmbulances)
	ambulance.GET("/:id", h.GetAmbulance)
	ambulance.GET("/:id/metrics", h.GetAmbulanceMetrics)
	ambulance.POST("/create", staff, h.CreateAmbulance)
	ambulance.POST("/:id/update-location", staff, h.UpdateLocation)
	ambulance.POST("/:id/start-route", staff, h.StartRoute)
	ambulance.POST("/:id/predict-eta", staff, h.PredictETA)
	ambulance.POST("/:id/get-route", staff, h.GetRoute)
	ambulance.POST("/:id/complete-route", staff, h.CompleteRoute)
	ambulance.PUT("/:id/status", staff, h.UpdateAmbulanceStatus)
}

// Health godoc
// @Summary Liveness probe
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// Ready godoc
// @Summary Readiness probe
// @Description Reports ready once the store answers
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /ready [get]
func (h *Handler) Ready(c *gin.Context) {
	if err := h.store.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"error":  "database connection failed",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
