package handler

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/attendance-register/internal/service"
	"github.com/noah-isme/attendance-register/pkg/response"
)

// ReportHandler serves attendance sheets as downloads.
type ReportHandler struct {
	reports    *service.ReportService
	attendance *service.AttendanceService
}

// NewReportHandler constructs handler.
func NewReportHandler(reports *service.ReportService, attendance *service.AttendanceService) *ReportHandler {
	return &ReportHandler{reports: reports, attendance: attendance}
}

// Daily godoc
// @Summary Daily attendance sheet
// @Description Every student with their status on the day. Defaults to today.
// @Tags Reports
// @Produce text/csv
// @Produce application/pdf
// @Param date query string false "Date (YYYY-MM-DD)"
// @Param format query string false "csv or pdf" Enums(csv, pdf)
// @Success 200 {file} file
// @Router /reports/daily [get]
func (h *ReportHandler) Daily(c *gin.Context) {
	format, err := service.ParseReportFormat(c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	date := strings.TrimSpace(c.Query("date"))
	if date == "" {
		date = h.attendance.Today()
	}
	report, err := h.reports.DailySheet(c.Request.Context(), date, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, report.Filename, report.ContentType, report.Body)
}

// Student godoc
// @Summary Student attendance history sheet
// @Tags Reports
// @Produce text/csv
// @Produce application/pdf
// @Param id path int true "Student ID"
// @Param format query string false "csv or pdf" Enums(csv, pdf)
// @Success 200 {file} file
// @Failure 404 {object} response.Envelope
// @Router /reports/students/{id} [get]
func (h *ReportHandler) Student(c *gin.Context) {
	format, err := service.ParseReportFormat(c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	id, err := idParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	report, err := h.reports.StudentSheet(c.Request.Context(), id, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, report.Filename, report.ContentType, report.Body)
}
