package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/co-intel-labs/labs-1.0/internal/auth"
	"github.com/co-intel-labs/labs-1.0/internal/models"
	"github.com/co-intel-labs/labs-1.0/internal/services"
)

const serviceName = "lab-service"

type HandlerManager struct {
	authHandler       *AuthHandler
	labHandler        *LabHandler
	allocationHandler *AllocationHandler
	userHandler       *UserHandler
	courseHandler     *CourseHandler
	dashboardHandler  *DashboardHandler
	authMiddleware    *AuthMiddleware

	health   func(ctx context.Context) error
	gatherer prometheus.Gatherer
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	tokens *auth.JWTService,
	gatherer prometheus.Gatherer,
	logger *slog.Logger,
) *HandlerManager {
	return &HandlerManager{
		authHandler:       NewAuthHandler(serviceManager.Auth(), tokens, logger),
		labHandler:        NewLabHandler(serviceManager.Lab(), serviceManager.Allocation(), logger),
		allocationHandler: NewAllocationHandler(serviceManager.Allocation(), serviceManager.Report(), logger),
		userHandler:       NewUserHandler(serviceManager.User(), logger),
		courseHandler:     NewCourseHandler(serviceManager.Course(), logger),
		dashboardHandler:  NewDashboardHandler(serviceManager.Dashboard(), logger),
		authMiddleware:    NewAuthMiddleware(tokens, serviceManager.User()),
		health:            serviceManager.HealthCheck,
		gatherer:          gatherer,
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.GET("/health", hm.healthCheck)
	if hm.gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(hm.gatherer, promhttp.HandlerOpts{})))
	}

	v1 := router.Group("/api/v1")

	// Login is the only unauthenticated API route
	v1.POST("/auth/login", hm.authHandler.Login)

	secured := v1.Group("")
	secured.Use(hm.authMiddleware.AuthMiddleware())
	{
		secured.POST("/auth/logout", hm.authHandler.Logout)
		secured.GET("/auth/me", hm.authHandler.Me)
		secured.GET("/views", hm.authHandler.Views)
		secured.GET("/dashboard", hm.dashboardHandler.GetDashboardStats)

		labs := secured.Group("/labs")
		{
			labs.GET("", hm.require(models.CapViewCatalog), hm.labHandler.ListLabs)
			labs.GET("/:id", hm.require(models.CapViewCatalog), hm.labHandler.GetLab)
			labs.POST("", hm.require(models.CapCreateLab), hm.labHandler.CreateLab)
			labs.PATCH("/:id", hm.require(models.CapEditLab), hm.labHandler.UpdateLab)
			labs.GET("/:id/status", hm.require(models.CapTakeLab), hm.labHandler.GetLabStatus)
		}

		allocations := secured.Group("/allocations")
		{
			// Learners see their own allocations; the handler pins the user filter
			allocations.GET("", hm.requireAny(models.CapViewAllAllocations, models.CapTakeLab), hm.allocationHandler.ListAllocations)
			allocations.GET("/export", hm.require(models.CapExportReports), hm.allocationHandler.ExportAllocations)
			allocations.GET("/:id", hm.requireAny(models.CapViewAllAllocations, models.CapTakeLab), hm.allocationHandler.GetAllocation)

			allocations.POST("", hm.require(models.CapManageAllocations), hm.allocationHandler.CreateAllocation)
			allocations.PATCH("/:id", hm.require(models.CapManageAllocations), hm.allocationHandler.UpdateAllocation)
			allocations.POST("/sweep", hm.require(models.CapManageAllocations), hm.allocationHandler.Sweep)

			allocations.POST("/:id/start", hm.require(models.CapTakeLab), hm.allocationHandler.StartAllocation)
			allocations.POST("/:id/complete", hm.require(models.CapTakeLab), hm.allocationHandler.CompleteAllocation)
		}

		users := secured.Group("/users")
		users.Use(hm.require(models.CapManageUsers))
		{
			users.GET("", hm.userHandler.ListUsers)
			users.POST("", hm.userHandler.CreateUser)
			users.POST("/import", hm.userHandler.ImportUsers)
			users.PATCH("/:id/status", hm.userHandler.UpdateUserStatus)
			users.POST("/:id/verification", hm.userHandler.SendVerification)
		}

		courses := secured.Group("/courses")
		{
			courses.GET("", hm.require(models.CapViewCatalog), hm.courseHandler.ListCourses)
			courses.POST("", hm.require(models.CapManageCourses), hm.courseHandler.CreateCourse)
		}
	}
}

func (hm *HandlerManager) require(capability models.Capability) gin.HandlerFunc {
	return hm.authMiddleware.RequireCapabilityMiddleware(capability)
}

func (hm *HandlerManager) requireAny(capabilities ...models.Capability) gin.HandlerFunc {
	return hm.authMiddleware.RequireAnyCapabilityMiddleware(capabilities...)
}

func (hm *HandlerManager) healthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := hm.health(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "unhealthy",
			"service": serviceName,
			"error":   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   serviceName,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
