package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/agrosense/plant-health/internal/access"
	"github.com/agrosense/plant-health/internal/api/handlers"
	"github.com/agrosense/plant-health/internal/api/middleware"
	"github.com/agrosense/plant-health/internal/api/response"
	"github.com/agrosense/plant-health/internal/config"
	"github.com/agrosense/plant-health/internal/models"
	"github.com/agrosense/plant-health/internal/reports"
	"github.com/agrosense/plant-health/pkg/auth"
)

// Services are the application services the router exposes.
type Services struct {
	Reports *reports.Service
	Audit   *reports.AuditLog
	Policy  access.Policy
	// Ping reports storage health; nil skips the check.
	Ping func(ctx context.Context) error
}

// NewRouter creates and configures the Gin router with all routes and middleware.
func NewRouter(cfg *config.Config, svc Services) *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(middleware.CORSMiddleware(cfg.Server.AllowedOrigins...))
	r.Use(middleware.CorrelationMiddleware())
	r.Use(middleware.StructuredLogging())

	r.GET("/health", healthHandler(svc.Ping))

	policy := svc.Policy
	if policy == nil {
		policy = access.NewRolePolicy()
	}

	reportHandler := handlers.NewReportHandler(svc.Reports)
	auditHandler := handlers.NewAuditHandler(svc.Audit)

	anyRole := middleware.RequireRole(models.RoleAdmin, models.RoleAgronomist, models.RoleOperator)

	v1 := r.Group("/api/v1")
	v1.Use(middleware.AuthMiddleware(&cfg.JWT))
	{
		reportsGroup := v1.Group("/reports", anyRole)
		reportsGroup.POST("", reportHandler.HandleCreate)
		reportsGroup.GET("", reportHandler.HandleList)
		// Registered before /:id so the literal segment wins.
		reportsGroup.GET("/summary", reportHandler.HandleSummary)
		reportsGroup.GET("/:id", reportHandler.HandleGet)
		reportsGroup.PATCH("/:id", reportHandler.HandleUpdate)
		reportsGroup.DELETE("/:id", reportHandler.HandleDelete)
		reportsGroup.GET("/:id/download", reportHandler.HandleDownloadJSON)
		reportsGroup.GET("/:id/download/xlsx", reportHandler.HandleDownloadSpreadsheet)
		reportsGroup.GET("/:id/download/pdf", reportHandler.HandleDownloadDocument)

		v1.GET("/audit-logs", middleware.RequireAdmin(policy), auditHandler.HandleList)
	}

	if cfg.Server.EnableDevToken {
		r.POST("/dev/token", devTokenHandler(cfg))
	}

	return r
}

func healthHandler(ping func(ctx context.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		if ping != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := ping(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"status":  "unhealthy",
					"service": middleware.ServiceName,
				})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": middleware.ServiceName,
		})
	}
}

// devTokenHandler returns a handler that generates test JWTs for development.
func devTokenHandler(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			UserID   int64  `json:"user_id"`
			Username string `json:"username"`
			FullName string `json:"full_name"`
			Role     string `json:"role"`
			IsStaff  bool   `json:"is_staff"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, "invalid request", nil)
			return
		}
		if req.UserID <= 0 {
			response.BadRequest(c, "user_id must be positive", nil)
			return
		}
		switch req.Role {
		case "":
			req.Role = models.RoleAgronomist
		case models.RoleAdmin, models.RoleAgronomist, models.RoleOperator:
		default:
			response.BadRequest(c, "unknown role", map[string]string{"field": "role"})
			return
		}

		token, err := auth.GenerateToken(cfg.JWT.Secret, cfg.JWT.Issuer, auth.Subject{
			UserID:   req.UserID,
			Username: req.Username,
			FullName: req.FullName,
			Role:     req.Role,
			IsStaff:  req.IsStaff,
		}, cfg.JWT.ExpiryHours)
		if err != nil {
			response.InternalError(c, "failed to generate token")
			return
		}

		response.Success(c, http.StatusOK, gin.H{"token": token})
	}
}
