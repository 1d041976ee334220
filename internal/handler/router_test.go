package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/attendance-register/internal/models"
	"github.com/noah-isme/attendance-register/internal/repository"
	"github.com/noah-isme/attendance-register/internal/service"
	"github.com/noah-isme/attendance-register/internal/web"
	"github.com/noah-isme/attendance-register/pkg/config"
	"github.com/noah-isme/attendance-register/pkg/database"
	"github.com/noah-isme/attendance-register/pkg/response"
)

const testToday = "2024-01-15"

type testApp struct {
	router   *gin.Engine
	students *service.StudentService
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.Open(config.DatabaseConfig{
		Driver:      config.DriverSQLite,
		Path:        filepath.Join(t.TempDir(), "attendance.db"),
		BusyTimeout: 5 * time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, repository.Migrate(context.Background(), db))

	metrics := service.NewMetricsService()
	logr := zap.NewNop()
	students := service.NewStudentService(repository.NewStudentRepository(db, metrics), nil, metrics, nil, logr)
	attendance := service.NewAttendanceService(service.AttendanceServiceParams{
		Repo:     repository.NewAttendanceRepository(db, metrics),
		Students: students,
		Metrics:  metrics,
		Logger:   logr,
		Now: func() time.Time {
			return time.Date(2024, time.January, 15, 10, 0, 0, 0, time.Local)
		},
	})
	templates, err := web.Templates()
	require.NoError(t, err)

	router := NewRouter(RouterDeps{
		Students:   students,
		Attendance: attendance,
		Reports:    service.NewReportService(students, attendance, nil, nil, logr),
		Metrics:    metrics,
		DB:         db,
		Flash:      web.NewFlashStore("test-secret", time.Minute),
		Templates:  templates,
		Logger:     logr,
		APIPrefix:  "/api/v1",
	})
	return &testApp{router: router, students: students}
}

func (a *testApp) do(t *testing.T, method, target string, body []byte, contentType string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func (a *testApp) postJSON(t *testing.T, target string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	return a.do(t, http.MethodPost, target, raw, "application/json")
}

func (a *testApp) postForm(t *testing.T, target string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	return a.do(t, http.MethodPost, target, []byte(form.Encode()), "application/x-www-form-urlencoded")
}

func (a *testApp) seedStudent(t *testing.T, roll, name string) *models.Student {
	t.Helper()
	student, err := a.students.Create(context.Background(), service.CreateStudentRequest{RollNumber: roll, Name: name, Email: strings.ToLower(name) + "@x.com"})
	require.NoError(t, err)
	return student
}

func flashFrom(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == web.FlashCookie && cookie.MaxAge >= 0 {
			return cookie
		}
	}
	return nil
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder, data interface{}) response.Envelope {
	t.Helper()
	var env struct {
		Data  json.RawMessage        `json:"data"`
		Error *json.RawMessage       `json:"error"`
		Meta  map[string]interface{} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	if data != nil && len(env.Data) > 0 {
		require.NoError(t, json.Unmarshal(env.Data, data))
	}
	out := response.Envelope{Meta: env.Meta}
	if env.Error != nil {
		require.NoError(t, json.Unmarshal(*env.Error, &out.Error))
	}
	return out
}

func TestLegacyMarkAttendance(t *testing.T) {
	app := newTestApp(t)
	ana := app.seedStudent(t, "R1", "Ana")

	rec := app.postJSON(t, "/api/mark-attendance", map[string]interface{}{"student_id": ana.ID, "date": "2024-01-10", "status": "Present"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success": true, "message": "Attendance marked successfully"}`, rec.Body.String())

	rec = app.postJSON(t, "/api/mark-attendance", map[string]interface{}{"student_id": ana.ID, "date": "2024-01-10", "status": "Absent", "remarks": "late note"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = app.do(t, http.MethodGet, "/api/attendance-date?date=2024-01-10", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var rows []models.AttendanceRecordWithStudent
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "Ana", rows[0].Name)
	assert.Equal(t, "R1", rows[0].RollNumber)
	assert.Equal(t, models.AttendanceStatusAbsent, rows[0].Status)
	assert.Equal(t, "late note", rows[0].Remarks)
}

func TestLegacyMarkAttendanceErrors(t *testing.T) {
	app := newTestApp(t)
	ana := app.seedStudent(t, "R1", "Ana")

	cases := []struct {
		name    string
		body    string
		status  int
		message string
	}{
		{"missing fields", `{"date": "2024-01-10"}`, http.StatusBadRequest, "Missing required fields"},
		{"zero student", `{"student_id": 0, "date": "2024-01-10", "status": "Present"}`, http.StatusBadRequest, "Missing required fields"},
		{"unknown student", `{"student_id": 999, "date": "2024-01-10", "status": "Present"}`, http.StatusBadRequest, "Error marking attendance"},
		{"invalid status", `{"student_id": "` + jsonID(ana.ID) + `", "date": "2024-01-10", "status": "Late"}`, http.StatusBadRequest, "status must be one of Present, Absent"},
		{"invalid date", `{"student_id": 1, "date": "10/01/2024", "status": "Present"}`, http.StatusBadRequest, "date must be a date in YYYY-MM-DD format"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := app.do(t, http.MethodPost, "/api/mark-attendance", []byte(tc.body), "application/json")
			assert.Equal(t, tc.status, rec.Code)
			var result LegacyResult
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
			assert.False(t, result.Success)
			assert.Equal(t, tc.message, result.Message)
		})
	}

	rec := app.do(t, http.MethodPost, "/api/mark-attendance", []byte(`{not json`), "application/json")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var result LegacyResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.False(t, result.Success)
	assert.NotEmpty(t, result.Message)
}

func jsonID(id int64) string {
	raw, _ := json.Marshal(id)
	return string(raw)
}

func TestLegacyAttendanceByDate(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodGet, "/api/attendance-date", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error": "Date parameter required"}`, rec.Body.String())

	rec = app.do(t, http.MethodGet, "/api/attendance-date?date=2030-01-01", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestStudentAPI(t *testing.T) {
	app := newTestApp(t)

	rec := app.postJSON(t, "/api/v1/students", map[string]string{"roll_number": "R2", "name": "Ben", "email": "ben@x.com"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var created models.Student
	decodeEnvelope(t, rec, &created)
	assert.Equal(t, "R2", created.RollNumber)
	assert.NotZero(t, created.ID)

	rec = app.postJSON(t, "/api/v1/students", map[string]string{"roll_number": "R2", "name": "Other", "email": "o@x.com"})
	require.Equal(t, http.StatusConflict, rec.Code)
	env := decodeEnvelope(t, rec, nil)
	require.NotNil(t, env.Error)
	assert.Equal(t, "CONFLICT", env.Error.Code)

	rec = app.postJSON(t, "/api/v1/students", map[string]string{"roll_number": "R3", "name": "", "email": "x@x.com"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	env = decodeEnvelope(t, rec, nil)
	assert.Equal(t, "name is required", env.Error.Message)

	app.seedStudent(t, "R1", "Ana")
	rec = app.do(t, http.MethodGet, "/api/v1/students", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []models.Student
	env = decodeEnvelope(t, rec, &list)
	require.Len(t, list, 2)
	assert.Equal(t, "R1", list[0].RollNumber)
	assert.Equal(t, float64(2), env.Meta["total"])

	target := "/api/v1/students/" + jsonID(created.ID)
	rec = app.do(t, http.MethodDelete, target, nil, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = app.do(t, http.MethodDelete, target, nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = app.do(t, http.MethodGet, target, nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = app.do(t, http.MethodGet, "/api/v1/students/abc", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAttendanceAPI(t *testing.T) {
	app := newTestApp(t)
	ana := app.seedStudent(t, "R1", "Ana")
	app.seedStudent(t, "R2", "Ben")

	rec := app.postJSON(t, "/api/v1/attendance", map[string]interface{}{"student_id": ana.ID, "date": testToday, "status": "present"})
	require.Equal(t, http.StatusOK, rec.Code)
	var record models.AttendanceRecord
	decodeEnvelope(t, rec, &record)
	assert.Equal(t, models.AttendanceStatusPresent, record.Status)

	rec = app.do(t, http.MethodGet, "/api/v1/attendance/summary", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var summary models.AttendanceSummary
	env := decodeEnvelope(t, rec, &summary)
	assert.Equal(t, models.AttendanceSummary{Date: testToday, TotalStudents: 2, PresentToday: 1, AbsentToday: 0, NotMarked: 1}, summary)
	assert.Equal(t, false, env.Meta["cache_hit"])
	assert.NotEmpty(t, env.Meta["request_id"])

	rec = app.do(t, http.MethodGet, "/api/v1/attendance", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = app.do(t, http.MethodGet, "/api/v1/students/"+jsonID(ana.ID)+"/attendance", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var history StudentHistory
	decodeEnvelope(t, rec, &history)
	assert.Equal(t, "Ana", history.Student.Name)
	assert.Len(t, history.Records, 1)

	rec = app.do(t, http.MethodGet, "/api/v1/attendance/rates?from=2024-01-01&to=2024-01-31", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var rates models.AttendanceRates
	decodeEnvelope(t, rec, &rates)
	require.Len(t, rates.Students, 2)
	assert.Equal(t, float64(100), rates.Students[0].Rate)

	rec = app.do(t, http.MethodGet, "/api/v1/attendance/rates?from=2024-02-01&to=2024-01-01", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReportDownloads(t *testing.T) {
	app := newTestApp(t)
	ana := app.seedStudent(t, "R1", "Ana")
	app.seedStudent(t, "R2", "Ben")
	rec := app.postJSON(t, "/api/mark-attendance", map[string]interface{}{"student_id": ana.ID, "date": testToday, "status": "Present"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = app.do(t, http.MethodGet, "/api/v1/reports/daily", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename="attendance-2024-01-15.csv"`, rec.Header().Get("Content-Disposition"))
	assert.Contains(t, rec.Body.String(), "R1,Ana,ana@x.com,Present,")
	assert.Contains(t, rec.Body.String(), "R2,Ben,ben@x.com,Not Marked,")

	rec = app.do(t, http.MethodGet, "/api/v1/reports/students/"+jsonID(ana.ID)+"?format=pdf", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))

	rec = app.do(t, http.MethodGet, "/api/v1/reports/daily?format=xlsx", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = app.do(t, http.MethodGet, "/api/v1/reports/students/999", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAddStudentPage(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodGet, "/add-student", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `name="roll_number"`)

	rec = app.postForm(t, "/add-student", url.Values{"roll_number": {"R1"}, "name": {"  "}, "email": {"a@x.com"}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "All fields are required!")
	assert.Contains(t, rec.Body.String(), `value="R1"`)

	rec = app.postForm(t, "/add-student", url.Values{"roll_number": {" R1 "}, "name": {"Ana"}, "email": {"a@x.com"}})
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/students", rec.Header().Get("Location"))
	cookie := flashFrom(rec)
	require.NotNil(t, cookie)

	rec = app.do(t, http.MethodGet, "/students", nil, "", cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Student Ana added successfully!")
	assert.Contains(t, rec.Body.String(), "R1")

	rec = app.postForm(t, "/add-student", url.Values{"roll_number": {"R1"}, "name": {"Other"}, "email": {"o@x.com"}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Error: Roll number already exists!")
}

func TestAttendancePage(t *testing.T) {
	app := newTestApp(t)
	ana := app.seedStudent(t, "R1", "Ana")

	rec := app.postForm(t, "/attendance", url.Values{"student_id": {jsonID(ana.ID)}, "date": {testToday}})
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/attendance", rec.Header().Get("Location"))
	rec = app.do(t, http.MethodGet, "/attendance", nil, "", flashFrom(rec))
	assert.Contains(t, rec.Body.String(), "Missing required fields!")

	rec = app.postForm(t, "/attendance", url.Values{"student_id": {"999"}, "date": {testToday}, "status": {"Present"}})
	require.Equal(t, http.StatusFound, rec.Code)
	rec = app.do(t, http.MethodGet, "/attendance", nil, "", flashFrom(rec))
	assert.Contains(t, rec.Body.String(), "Error marking attendance!")

	rec = app.postForm(t, "/attendance", url.Values{"student_id": {jsonID(ana.ID)}, "date": {testToday}, "status": {"Absent"}, "remarks": {"sick"}})
	require.Equal(t, http.StatusFound, rec.Code)
	rec = app.do(t, http.MethodGet, "/attendance", nil, "", flashFrom(rec))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Attendance marked successfully!")
	assert.Contains(t, rec.Body.String(), `<span class="status-absent">Absent</span>`)

	rec = app.do(t, http.MethodGet, "/", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Dashboard")
	assert.Contains(t, rec.Body.String(), "sick")

	rec = app.do(t, http.MethodGet, "/reports", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Attendance rates")
}

func TestStudentDetailAndDeletePages(t *testing.T) {
	app := newTestApp(t)
	ana := app.seedStudent(t, "R1", "Ana")
	target := jsonID(ana.ID)

	rec := app.do(t, http.MethodGet, "/student/"+target, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Ana")

	rec = app.do(t, http.MethodPost, "/delete-student/"+target, nil, "")
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/students", rec.Header().Get("Location"))
	rec = app.do(t, http.MethodGet, "/students", nil, "", flashFrom(rec))
	assert.Contains(t, rec.Body.String(), "Student Ana deleted successfully!")

	rec = app.do(t, http.MethodPost, "/delete-student/"+target, nil, "")
	require.Equal(t, http.StatusFound, rec.Code)
	rec = app.do(t, http.MethodGet, "/students", nil, "", flashFrom(rec))
	assert.Contains(t, rec.Body.String(), "Student not found!")

	rec = app.do(t, http.MethodGet, "/student/"+target, nil, "")
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/students", rec.Header().Get("Location"))
}

func TestUnknownRoutes(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodGet, "/no-such-page", nil, "")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	rec = app.do(t, http.MethodGet, "/api/v1/nothing", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	env := decodeEnvelope(t, rec, nil)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)
}

func TestOperationalEndpoints(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = app.do(t, http.MethodGet, "/ready", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status": "ready"}`, rec.Body.String())

	rec = app.do(t, http.MethodGet, "/api/v1/students", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = app.do(t, http.MethodGet, "/metrics", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_requests_total")
	assert.Contains(t, rec.Body.String(), "db_query_duration_seconds")
}
