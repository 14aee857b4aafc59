package router

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/step-lms-api/internal/handler"
	"github.com/noah-isme/step-lms-api/internal/middleware"
	"github.com/noah-isme/step-lms-api/internal/models"
	"github.com/noah-isme/step-lms-api/internal/service"
	"github.com/noah-isme/step-lms-api/pkg/config"
	"github.com/noah-isme/step-lms-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/step-lms-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/step-lms-api/pkg/middleware/requestid"
)

// Handlers groups every HTTP handler mounted by Setup.
type Handlers struct {
	Auth      *handler.AuthHandler
	User      *handler.UserHandler
	Placement *handler.PlacementHandler
	Export    *handler.ExportHandler
	Class     *handler.ClassHandler
	Teacher   *handler.TeacherHandler
	Student   *handler.StudentHandler
	Homeroom  *handler.HomeroomHandler
	Dashboard *handler.DashboardHandler
	Metrics   *handler.MetricsHandler
}

// Setup builds the gin engine with global middleware and every route.
func Setup(cfg *config.Config, h Handlers, tokens middleware.TokenValidator, metrics *service.MetricsService, logr *zap.Logger) *gin.Engine {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS))
	r.Use(middleware.Metrics(metrics))
	r.Use(middleware.ResponseMeta())

	r.GET("/health", h.Metrics.Health)
	r.GET("/ready", h.Metrics.Ready)
	r.GET("/metrics", h.Metrics.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.POST("/login", h.Auth.Login)

	authed := api.Group("")
	authed.Use(middleware.JWT(tokens))
	authed.GET("/me", h.Auth.Me)

	placement := authed.Group("", middleware.RequireRoles(middleware.PlacementManagers...))
	{
		placement.GET("/classes/with-students", h.Placement.ClassesWithStudents)
		placement.GET("/classes/with-students/export", h.Export.Rosters)
		placement.GET("/students/unassigned", h.Placement.Unassigned)
		placement.POST("/students/placement/finalize", h.Placement.Finalize)

		placement.GET("/classes", h.Class.List)
		placement.POST("/classes", h.Class.Create)
		placement.DELETE("/classes/:id", h.Class.Delete)

		placement.GET("/faculty", h.Teacher.Faculty)
		placement.GET("/teachers/available-for-homeroom", h.Teacher.AvailableForHomeroom)
		placement.POST("/teachers", h.Teacher.Create)
		placement.DELETE("/teachers/:id", h.Teacher.Delete)

		placement.GET("/students", h.Student.List)
		placement.POST("/students", h.Student.Create)
		placement.POST("/students/import", h.Student.Import)
		placement.GET("/students/:id", h.Student.Get)
		placement.PUT("/students/:id", h.Student.Update)
		placement.DELETE("/students/:id", h.Student.Delete)
		placement.GET("/students/:id/performance", h.Student.Performance)

		placement.GET("/principal/dashboard", h.Dashboard.Principal)
		placement.POST("/settings/academic", h.Dashboard.UpdateSettings)
		placement.GET("/activities/recent", h.Dashboard.RecentActivities)
		placement.GET("/metrics/summary", h.Metrics.Snapshot)
	}

	homeroom := authed.Group("", middleware.RequireRoles(middleware.HomeroomStaff...))
	{
		homeroom.GET("/homeroom/:className", h.Homeroom.Roster)
		homeroom.GET("/homeroom/:className/absentees", h.Homeroom.Absentees)
		homeroom.POST("/attendance", h.Homeroom.RecordAttendance)
		homeroom.POST("/attendance/mark-all", h.Homeroom.MarkAllPresent)
	}

	users := authed.Group("/users", middleware.RequireRoles(middleware.AccountManagers...))
	{
		users.GET("", h.User.List)
		users.POST("", h.User.Create)
		users.DELETE("/:id", h.User.Delete)
	}

	authed.GET("/students/:id/dashboard", middleware.RequireRoles(allRoles...), h.Student.Dashboard)

	return r
}

var allRoles = []models.UserRole{
	models.RolePrincipal,
	models.RoleAdmin,
	models.RoleHomeroomTeacher,
	models.RoleSubjectTeacher,
	models.RoleStudent,
}
