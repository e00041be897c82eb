package router

import (
	"github.com/gin-gonic/gin"

	"podrecon/internal/config"
	"podrecon/internal/handler"
	"podrecon/internal/middleware"
)

// Handlers groups the HTTP handlers mounted by Setup.
type Handlers struct {
	POD    *handler.PODHandler
	Parcel *handler.ParcelHandler
	Probe  *handler.ProbeHandler
	Health *handler.HealthHandler
}

// Setup configures the Gin engine with all routes and middleware.
func Setup(cfg *config.Config, h Handlers) *gin.Engine {
	r := gin.New()
	r.MaxMultipartMemory = 32 << 20

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS(cfg.CORS.AllowedOrigins))

	// Health checks
	r.GET("/healthz", h.Health.Liveness)
	r.GET("/readyz", h.Health.Readiness)

	// Protected routes - require valid JWT
	v1 := r.Group("/api/v1")
	v1.Use(middleware.AuthMiddleware(cfg.JWT))

	pods := v1.Group("/pods")
	pods.POST("/upload", h.POD.Upload)
	pods.GET("/batches/:id", h.POD.GetBatch)

	parcels := v1.Group("/parcels")
	parcels.POST("", h.Parcel.Create)
	parcels.GET("", h.Parcel.List)
	parcels.GET("/:id", h.Parcel.GetByID)
	parcels.GET("/:id/pod", h.Parcel.GetPOD)

	v1.GET("/extraction/probe", h.Probe.Probe)

	return r
}
