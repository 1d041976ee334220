package handler

import (
	"html/template"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/attendance-register/internal/middleware"
	"github.com/noah-isme/attendance-register/internal/service"
	"github.com/noah-isme/attendance-register/internal/web"
	appErrors "github.com/noah-isme/attendance-register/pkg/errors"
	"github.com/noah-isme/attendance-register/pkg/logger"
	corsmiddleware "github.com/noah-isme/attendance-register/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/attendance-register/pkg/middleware/requestid"
	"github.com/noah-isme/attendance-register/pkg/response"
)

// RouterDeps carries everything the HTTP surface needs.
type RouterDeps struct {
	Students       *service.StudentService
	Attendance     *service.AttendanceService
	Reports        *service.ReportService
	Metrics        *service.MetricsService
	DB             Pinger
	Flash          *web.FlashStore
	Templates      *template.Template
	Logger         *zap.Logger
	APIPrefix      string
	AllowedOrigins []string
	EnableDocs     bool
}

// NewRouter builds the gin engine with middleware and every route registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	apiPrefix := deps.APIPrefix
	if apiPrefix == "" {
		apiPrefix = "/api/v1"
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(deps.Logger))
	r.Use(corsmiddleware.New(deps.AllowedOrigins))
	r.Use(middleware.Metrics(deps.Metrics))
	if deps.Templates != nil {
		r.SetHTMLTemplate(deps.Templates)
	}

	pages := NewPageHandler(deps.Students, deps.Attendance, deps.Flash, apiPrefix, deps.Logger)
	r.GET("/", pages.Index)
	r.GET("/students", pages.Students)
	r.GET("/add-student", pages.AddStudentForm)
	r.POST("/add-student", pages.AddStudent)
	r.GET("/attendance", pages.AttendanceForm)
	r.POST("/attendance", pages.MarkAttendance)
	r.GET("/reports", pages.Reports)
	r.GET("/student/:id", pages.StudentDetail)
	r.POST("/delete-student/:id", pages.DeleteStudent)

	legacy := NewLegacyHandler(deps.Attendance)
	r.POST("/api/mark-attendance", legacy.MarkAttendance)
	r.GET("/api/attendance-date", legacy.AttendanceByDate)

	ops := NewMetricsHandler(deps.Metrics, deps.DB, deps.Logger)
	r.GET("/health", ops.Health)
	r.GET("/ready", ops.Ready)
	if deps.Metrics != nil {
		r.GET("/metrics", ops.Prometheus)
	}
	if deps.EnableDocs {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(apiPrefix)
	api.Use(middleware.WithResponseMeta())

	students := NewStudentHandler(deps.Students, deps.Attendance)
	api.GET("/students", students.List)
	api.POST("/students", students.Create)
	api.GET("/students/:id", students.Get)
	api.DELETE("/students/:id", students.Delete)
	api.GET("/students/:id/attendance", students.Attendance)

	attendance := NewAttendanceHandler(deps.Attendance)
	api.POST("/attendance", attendance.Mark)
	api.GET("/attendance", attendance.ByDate)
	api.GET("/attendance/summary", attendance.Summary)
	api.GET("/attendance/rates", attendance.Rates)

	reports := NewReportHandler(deps.Reports, deps.Attendance)
	api.GET("/reports/daily", reports.Daily)
	api.GET("/reports/students/:id", reports.Student)

	r.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api/") {
			response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "route not found"))
			return
		}
		c.Redirect(http.StatusFound, "/")
	})

	return r
}
