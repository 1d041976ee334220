package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/attendance-register/internal/models"
	"github.com/noah-isme/attendance-register/internal/service"
	"github.com/noah-isme/attendance-register/internal/web"
	appErrors "github.com/noah-isme/attendance-register/pkg/errors"
)

// Flash texts shown by the HTML pages.
const (
	msgFieldsRequired    = "All fields are required!"
	msgDuplicateRoll     = "Error: Roll number already exists!"
	msgMissingFields     = "Missing required fields!"
	msgAttendanceMarked  = "Attendance marked successfully!"
	msgAttendanceFailed  = "Error marking attendance!"
	msgStudentNotFound   = "Student not found!"
	msgUnexpectedFailure = "An error occurred. Please try again."
)

// PageHandler renders the server-side HTML pages.
type PageHandler struct {
	students   *service.StudentService
	attendance *service.AttendanceService
	flash      *web.FlashStore
	apiPrefix  string
	logger     *zap.Logger
}

// NewPageHandler constructs PageHandler.
func NewPageHandler(students *service.StudentService, attendance *service.AttendanceService, flash *web.FlashStore, apiPrefix string, logger *zap.Logger) *PageHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PageHandler{students: students, attendance: attendance, flash: flash, apiPrefix: apiPrefix, logger: logger}
}

func (h *PageHandler) render(c *gin.Context, status int, name, title, active string, data gin.H, flash *web.Flash) {
	if flash == nil {
		flash = h.flash.Pop(c)
	}
	page := gin.H{"Title": title, "Active": active, "Flash": flash, "APIPrefix": h.apiPrefix}
	for k, v := range data {
		page[k] = v
	}
	c.HTML(status, name, page)
}

func (h *PageHandler) redirect(c *gin.Context, location, category, message string) {
	if message != "" {
		h.flash.Set(c, category, message)
	}
	c.Redirect(http.StatusFound, location)
}

// fail reports an unexpected fault. The dashboard itself cannot redirect to
// itself, so it answers with a plain 500.
func (h *PageHandler) fail(c *gin.Context, err error) {
	_ = c.Error(err)
	if c.FullPath() == "/" {
		c.String(http.StatusInternalServerError, msgUnexpectedFailure)
		return
	}
	h.redirect(c, "/", web.FlashError, msgUnexpectedFailure)
}

// Index renders the dashboard.
func (h *PageHandler) Index(c *gin.Context) {
	ctx := c.Request.Context()
	students, err := h.students.List(ctx)
	if err != nil {
		h.fail(c, err)
		return
	}
	summary, _, err := h.attendance.Summary(ctx)
	if err != nil {
		h.fail(c, err)
		return
	}
	today := h.attendance.Today()
	todayAttendance, _, err := h.attendance.ByDate(ctx, today)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.render(c, http.StatusOK, "index.html", "Dashboard", "dashboard", gin.H{
		"Students":        students,
		"Summary":         summary,
		"Today":           today,
		"TodayAttendance": todayAttendance,
	}, nil)
}

// Students renders the roster.
func (h *PageHandler) Students(c *gin.Context) {
	students, err := h.students.List(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	h.render(c, http.StatusOK, "students.html", "Students", "students", gin.H{"Students": students}, nil)
}

// AddStudentForm renders an empty registration form.
func (h *PageHandler) AddStudentForm(c *gin.Context) {
	h.render(c, http.StatusOK, "add_student.html", "Add Student", "add-student", gin.H{"Form": service.CreateStudentRequest{}}, nil)
}

// AddStudent registers a student from the form. Failures re-render the form
// with the submitted values.
func (h *PageHandler) AddStudent(c *gin.Context) {
	req := service.CreateStudentRequest{
		RollNumber: strings.TrimSpace(c.PostForm("roll_number")),
		Name:       strings.TrimSpace(c.PostForm("name")),
		Email:      strings.TrimSpace(c.PostForm("email")),
	}
	rerender := func(message string) {
		h.render(c, http.StatusOK, "add_student.html", "Add Student", "add-student", gin.H{"Form": req},
			&web.Flash{Category: web.FlashError, Message: message})
	}
	if req.RollNumber == "" || req.Name == "" || req.Email == "" {
		rerender(msgFieldsRequired)
		return
	}

	student, err := h.students.Create(c.Request.Context(), req)
	if err != nil {
		switch appErr := appErrors.FromError(err); {
		case errors.Is(err, appErrors.ErrConflict):
			rerender(msgDuplicateRoll)
		case errors.Is(err, appErrors.ErrValidation):
			rerender(appErr.Message)
		default:
			h.fail(c, err)
		}
		return
	}
	h.redirect(c, "/students", web.FlashSuccess, fmt.Sprintf("Student %s added successfully!", student.Name))
}

// AttendanceForm renders the marking form with today's statuses.
func (h *PageHandler) AttendanceForm(c *gin.Context) {
	ctx := c.Request.Context()
	students, err := h.students.List(ctx)
	if err != nil {
		h.fail(c, err)
		return
	}
	today := h.attendance.Today()
	records, _, err := h.attendance.ByDate(ctx, today)
	if err != nil {
		h.fail(c, err)
		return
	}
	marked := make(map[int64]*models.AttendanceRecordWithStudent, len(records))
	for i := range records {
		marked[records[i].StudentID] = &records[i]
	}
	h.render(c, http.StatusOK, "attendance.html", "Mark Attendance", "attendance", gin.H{
		"Students": students,
		"Today":    today,
		"Marked":   marked,
	}, nil)
}

// MarkAttendance records a status from the form and returns to the form.
func (h *PageHandler) MarkAttendance(c *gin.Context) {
	rawID := strings.TrimSpace(c.PostForm("student_id"))
	date := strings.TrimSpace(c.PostForm("date"))
	status := strings.TrimSpace(c.PostForm("status"))
	if rawID == "" || date == "" || status == "" {
		h.redirect(c, "/attendance", web.FlashError, msgMissingFields)
		return
	}
	studentID, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		h.redirect(c, "/attendance", web.FlashError, msgAttendanceFailed)
		return
	}

	_, err = h.attendance.Mark(c.Request.Context(), service.MarkAttendanceRequest{
		StudentID: studentID,
		Date:      date,
		Status:    models.AttendanceStatus(status),
		Remarks:   c.PostForm("remarks"),
	})
	switch {
	case err == nil:
		h.redirect(c, "/attendance", web.FlashSuccess, msgAttendanceMarked)
	case errors.Is(err, appErrors.ErrValidation):
		h.redirect(c, "/attendance", web.FlashError, appErrors.FromError(err).Message)
	default:
		h.redirect(c, "/attendance", web.FlashError, msgAttendanceFailed)
	}
}

// Reports renders today's summary and per-student rates for a date range.
func (h *PageHandler) Reports(c *gin.Context) {
	summary, _, err := h.attendance.Summary(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	data := gin.H{"Summary": summary, "Today": summary.Date}
	rates, err := h.attendance.Rates(c.Request.Context(), c.Query("from"), c.Query("to"))
	switch {
	case err == nil:
		data["Rates"] = rates
	case errors.Is(err, appErrors.ErrValidation):
		h.render(c, http.StatusOK, "reports.html", "Reports", "reports", data,
			&web.Flash{Category: web.FlashError, Message: appErrors.FromError(err).Message})
		return
	default:
		h.fail(c, err)
		return
	}
	h.render(c, http.StatusOK, "reports.html", "Reports", "reports", data, nil)
}

// StudentDetail renders a student with their attendance history.
func (h *PageHandler) StudentDetail(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		h.redirect(c, "/students", web.FlashError, msgStudentNotFound)
		return
	}
	student, records, err := h.attendance.StudentHistory(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, appErrors.ErrNotFound) {
			h.redirect(c, "/students", web.FlashError, msgStudentNotFound)
			return
		}
		h.fail(c, err)
		return
	}
	h.render(c, http.StatusOK, "student_detail.html", student.Name, "students", gin.H{
		"Student": student,
		"Records": records,
	}, nil)
}

// DeleteStudent removes a student and returns to the roster.
func (h *PageHandler) DeleteStudent(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		h.redirect(c, "/students", web.FlashError, msgStudentNotFound)
		return
	}
	student, err := h.students.Delete(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, appErrors.ErrNotFound) {
			h.redirect(c, "/students", web.FlashError, msgStudentNotFound)
			return
		}
		h.fail(c, err)
		return
	}
	h.redirect(c, "/students", web.FlashSuccess, fmt.Sprintf("Student %s deleted successfully!", student.Name))
}
