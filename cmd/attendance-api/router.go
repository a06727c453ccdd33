package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/attendance-dashboard-api/internal/handler"
	internalmiddleware "github.com/noah-isme/attendance-dashboard-api/internal/middleware"
	"github.com/noah-isme/attendance-dashboard-api/internal/service"
	"github.com/noah-isme/attendance-dashboard-api/pkg/config"
	appErrors "github.com/noah-isme/attendance-dashboard-api/pkg/errors"
	"github.com/noah-isme/attendance-dashboard-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/attendance-dashboard-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/attendance-dashboard-api/pkg/middleware/requestid"
	"github.com/noah-isme/attendance-dashboard-api/pkg/response"
)

type routerDeps struct {
	Attendance *service.AttendanceService
	Photos     *service.PhotoService
	Exports    *service.ExportService
	Metrics    *service.MetricsService
	Readiness  map[string]handler.ReadinessCheck
	Validator  *validator.Validate
	Logger     *zap.Logger
}

func newRouter(cfg *config.Config, deps routerDeps) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.NoMethod(func(c *gin.Context) {
		response.Error(c, appErrors.New("METHOD_NOT_ALLOWED", http.StatusMethodNotAllowed, "method not allowed"))
	})
	r.NoRoute(func(c *gin.Context) {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "route not found"))
	})

	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(deps.Logger))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(deps.Metrics, "/metrics"))
	r.Use(internalmiddleware.WithResponseMeta())

	metricsHandler := handler.NewMetricsHandler(deps.Metrics, deps.Readiness)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)
	r.GET("/metrics/summary", metricsHandler.Summary)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	attendanceHandler := handler.NewAttendanceHandler(deps.Attendance)
	exportHandler := handler.NewExportHandler(deps.Exports)
	photoHandler := handler.NewPhotoHandler(deps.Photos)

	api := r.Group(cfg.APIPrefix)
	api.POST("/attendance/calculate", attendanceHandler.Calculate)
	api.GET("/photos/:photoId", photoHandler.Photo)

	session := api.Group("/attendance", internalmiddleware.Session(deps.Validator))
	session.GET("/dashboard", attendanceHandler.Dashboard)
	session.GET("/subjects", attendanceHandler.Subjects)
	session.GET("/pdp", attendanceHandler.Pdp)
	session.GET("/threshold", attendanceHandler.Threshold)
	session.POST("/refresh", attendanceHandler.Refresh)
	session.GET("/history", attendanceHandler.History)
	session.GET("/export", exportHandler.Export)

	return r
}
