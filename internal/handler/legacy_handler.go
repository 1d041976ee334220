package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/attendance-register/internal/models"
	"github.com/noah-isme/attendance-register/internal/service"
	appErrors "github.com/noah-isme/attendance-register/pkg/errors"
)

// LegacyResult is the body of POST /api/mark-attendance.
type LegacyResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// LegacyMarkRequest accepts student_id as a JSON number or numeric string.
type LegacyMarkRequest struct {
	StudentID interface{} `json:"student_id"`
	Date      string      `json:"date"`
	Status    string      `json:"status"`
	Remarks   string      `json:"remarks"`
}

// LegacyHandler serves the two JSON endpoints used by the original pages'
// scripts. Their bodies are not wrapped in response.Envelope.
type LegacyHandler struct {
	attendance *service.AttendanceService
}

// NewLegacyHandler constructs LegacyHandler.
func NewLegacyHandler(attendance *service.AttendanceService) *LegacyHandler {
	return &LegacyHandler{attendance: attendance}
}

// MarkAttendance godoc
// @Summary Mark attendance (legacy)
// @Tags Legacy
// @Accept json
// @Produce json
// @Param payload body LegacyMarkRequest true "Attendance payload"
// @Success 200 {object} LegacyResult
// @Failure 400 {object} LegacyResult
// @Failure 500 {object} LegacyResult
// @Router /api/mark-attendance [post]
func (h *LegacyHandler) MarkAttendance(c *gin.Context) {
	var req LegacyMarkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusInternalServerError, LegacyResult{Message: err.Error()})
		return
	}
	if isEmptyID(req.StudentID) || req.Date == "" || req.Status == "" {
		c.JSON(http.StatusBadRequest, LegacyResult{Message: "Missing required fields"})
		return
	}
	studentID, ok := legacyStudentID(req.StudentID)
	if !ok {
		c.JSON(http.StatusBadRequest, LegacyResult{Message: "Error marking attendance"})
		return
	}

	_, err := h.attendance.Mark(c.Request.Context(), service.MarkAttendanceRequest{
		StudentID: studentID,
		Date:      req.Date,
		Status:    models.AttendanceStatus(req.Status),
		Remarks:   req.Remarks,
	})
	if err != nil {
		if errors.Is(err, appErrors.ErrValidation) {
			c.JSON(http.StatusBadRequest, LegacyResult{Message: appErrors.FromError(err).Message})
			return
		}
		c.JSON(http.StatusBadRequest, LegacyResult{Message: "Error marking attendance"})
		return
	}
	c.JSON(http.StatusOK, LegacyResult{Success: true, Message: "Attendance marked successfully"})
}

// AttendanceByDate godoc
// @Summary Attendance for a day (legacy)
// @Tags Legacy
// @Produce json
// @Param date query string true "Date (YYYY-MM-DD)"
// @Success 200 {array} models.AttendanceRecordWithStudent
// @Failure 400 {object} map[string]string
// @Router /api/attendance-date [get]
func (h *LegacyHandler) AttendanceByDate(c *gin.Context) {
	date := strings.TrimSpace(c.Query("date"))
	if date == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Date parameter required"})
		return
	}
	records, _, err := h.attendance.ByDate(c.Request.Context(), date)
	if err != nil {
		_ = c.Error(err)
		c.JSON(appErrors.FromError(err).Status, gin.H{"error": appErrors.FromError(err).Message})
		return
	}
	c.JSON(http.StatusOK, records)
}

func isEmptyID(raw interface{}) bool {
	switch v := raw.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	case float64:
		return v == 0
	case bool:
		return !v
	default:
		return false
	}
}

func legacyStudentID(raw interface{}) (int64, bool) {
	switch v := raw.(type) {
	case float64:
		if v != float64(int64(v)) || v <= 0 {
			return 0, false
		}
		return int64(v), true
	case string:
		id, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil || id <= 0 {
			return 0, false
		}
		return id, true
	default:
		return 0, false
	}
}
