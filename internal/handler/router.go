package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"schoolleave/internal/metrics"
	"schoolleave/internal/middleware"
	"schoolleave/internal/service"
	"schoolleave/internal/session"
	"schoolleave/internal/websocket"
)

// Dependencies are the collaborators the HTTP surface is built from.
// Hub and Gatherer are optional.
type Dependencies struct {
	Auth  service.AuthService
	Leave service.LeaveService
	Users service.UserService
	Audit service.AuditService

	Sessions *session.Manager
	Metrics  metrics.Recorder
	Hub      *websocket.Hub
	Gatherer prometheus.Gatherer
	Logger   *slog.Logger

	AllowedOrigins []string
	UploadDir      string
}

// NewRouter assembles the gin engine with every route and middleware.
func NewRouter(d Dependencies) *gin.Engine {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	authz := middleware.NewAuthorizer(d.Sessions, d.Metrics)

	router := gin.New()
	router.Use(middleware.Logging(d.Logger), middleware.Recovery(d.Logger))

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	if len(d.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = d.AllowedOrigins
	} else {
		corsConfig.AllowOriginFunc = func(string) bool { return true }
	}
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.ExposeHeaders = []string{"Location", "Retry-After"}
	router.Use(cors.New(corsConfig))

	router.Use(authz.Session())

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK", "time": time.Now().UTC()})
	})

	if d.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(metrics.Handler(d.Gatherer)))
	}
	if d.UploadDir != "" {
		router.Static("/uploads", d.UploadDir)
	}
	if d.Hub != nil {
		router.GET("/ws", func(c *gin.Context) {
			websocket.ServeWs(d.Hub, d.Sessions, c)
		})
	}

	api := router.Group("/api")
	NewAuthHandler(d.Auth, authz, d.Sessions.TTL()).RegisterRoutes(api)
	NewLeaveHandler(d.Leave, authz).RegisterRoutes(api)
	NewAuditHandler(d.Audit, authz).RegisterRoutes(api)
	NewUserHandler(d.Users, authz).RegisterRoutes(router.Group(""))

	return router
}
