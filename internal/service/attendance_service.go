package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/attendance-register/internal/models"
	appErrors "github.com/noah-isme/attendance-register/pkg/errors"
)

const (
	attendanceCachePattern = "attendance:*"
	defaultRateWindowDays  = 30
)

type attendanceRepository interface {
	Upsert(ctx context.Context, record *models.AttendanceRecord) (*models.AttendanceRecord, error)
	ListByDate(ctx context.Context, date string) ([]models.AttendanceRecordWithStudent, error)
	ListByStudent(ctx context.Context, studentID int64) ([]models.AttendanceRecord, error)
	Summary(ctx context.Context, date string) (*models.AttendanceSummary, error)
	Rates(ctx context.Context, from, to string) (*models.AttendanceRates, error)
}

type studentLookup interface {
	Get(ctx context.Context, id int64) (*models.Student, error)
}

// MarkAttendanceRequest is the payload for recording a student's status on a day.
type MarkAttendanceRequest struct {
	StudentID int64                   `json:"student_id" form:"student_id" validate:"gt=0"`
	Date      string                  `json:"date" form:"date" validate:"required,attendance_date"`
	Status    models.AttendanceStatus `json:"status" form:"status" validate:"required,attendance_status"`
	Remarks   string                  `json:"remarks" form:"remarks" validate:"max=500"`
}

// AttendanceService coordinates attendance workflows.
type AttendanceService struct {
	repo      attendanceRepository
	students  studentLookup
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// AttendanceServiceParams groups constructor dependencies.
type AttendanceServiceParams struct {
	Repo      attendanceRepository
	Students  studentLookup
	Cache     *CacheService
	Metrics   *MetricsService
	Validator *validator.Validate
	Logger    *zap.Logger
	Now       func() time.Time
}

// NewAttendanceService constructs the attendance service.
func NewAttendanceService(params AttendanceServiceParams) *AttendanceService {
	validate := params.Validator
	if validate == nil {
		validate = NewValidator()
	}
	registerAttendanceRules(validate)
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &AttendanceService{
		repo:      params.Repo,
		students:  params.Students,
		cache:     params.Cache,
		metrics:   params.Metrics,
		validator: validate,
		logger:    logger,
		now:       now,
	}
}

// Today returns the host's current local calendar date.
func (s *AttendanceService) Today() string {
	return s.now().Local().Format(models.DateLayout)
}

// Mark records or replaces the status for (student, date). Store faults,
// including unknown students, are reported as INTERNAL_ERROR.
func (s *AttendanceService) Mark(ctx context.Context, req MarkAttendanceRequest) (*models.AttendanceRecord, error) {
	req.Date = strings.TrimSpace(req.Date)
	req.Remarks = strings.TrimSpace(req.Remarks)
	if status, ok := models.ParseAttendanceStatus(string(req.Status)); ok {
		req.Status = status
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid attendance payload")
	}

	record, err := s.repo.Upsert(ctx, &models.AttendanceRecord{
		StudentID: req.StudentID,
		Date:      req.Date,
		Status:    req.Status,
		Remarks:   req.Remarks,
	})
	if err != nil {
		s.logger.Error("mark attendance failed",
			zap.Int64("student_id", req.StudentID),
			zap.String("date", req.Date),
			zap.String("status", string(req.Status)),
			zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark attendance")
	}
	s.metrics.RecordAttendanceMarked(record.Status)
	s.cache.Invalidate(ctx, attendanceCachePattern)
	return record, nil
}

// ByDate returns the joined records for date ordered by roll number, and
// whether they were served from cache.
func (s *AttendanceService) ByDate(ctx context.Context, date string) ([]models.AttendanceRecordWithStudent, bool, error) {
	date = strings.TrimSpace(date)
	if date == "" {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, "date is required")
	}
	key := fmt.Sprintf("attendance:date:%s", date)
	var cached []models.AttendanceRecordWithStudent
	if s.cache.Get(ctx, key, &cached) {
		return cached, true, nil
	}

	records, err := s.repo.ListByDate(ctx, date)
	if err != nil {
		s.logger.Error("list attendance by date failed", zap.String("date", date), zap.Error(err))
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance")
	}
	s.cache.Set(ctx, key, records, 0)
	return records, false, nil
}

// StudentHistory returns a student and its records, most recent first.
func (s *AttendanceService) StudentHistory(ctx context.Context, studentID int64) (*models.Student, []models.AttendanceRecord, error) {
	student, err := s.students.Get(ctx, studentID)
	if err != nil {
		return nil, nil, err
	}
	records, err := s.repo.ListByStudent(ctx, studentID)
	if err != nil {
		s.logger.Error("list student attendance failed", zap.Int64("student_id", studentID), zap.Error(err))
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance history")
	}
	return student, records, nil
}

// Summary returns today's roster counts and whether they came from cache.
func (s *AttendanceService) Summary(ctx context.Context) (*models.AttendanceSummary, bool, error) {
	today := s.Today()
	key := fmt.Sprintf("attendance:summary:%s", today)
	var cached models.AttendanceSummary
	if s.cache.Get(ctx, key, &cached) {
		return &cached, true, nil
	}

	summary, err := s.repo.Summary(ctx, today)
	if err != nil {
		s.logger.Error("attendance summary failed", zap.String("date", today), zap.Error(err))
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance summary")
	}
	s.cache.Set(ctx, key, summary, 0)
	return summary, false, nil
}

// Rates aggregates marks per student between from and to inclusive. An empty
// to means today and an empty from means the 30 days ending at to.
func (s *AttendanceService) Rates(ctx context.Context, from, to string) (*models.AttendanceRates, error) {
	from, to = strings.TrimSpace(from), strings.TrimSpace(to)
	if to == "" {
		to = s.Today()
	}
	end, err := time.Parse(models.DateLayout, to)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "to must be a date in YYYY-MM-DD format")
	}
	if from == "" {
		from = end.AddDate(0, 0, -(defaultRateWindowDays - 1)).Format(models.DateLayout)
	}
	start, err := time.Parse(models.DateLayout, from)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "from must be a date in YYYY-MM-DD format")
	}
	if start.After(end) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "from must not be after to")
	}

	rates, err := s.repo.Rates(ctx, from, to)
	if err != nil {
		s.logger.Error("attendance rates failed", zap.String("from", from), zap.String("to", to), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance rates")
	}
	return rates, nil
}
