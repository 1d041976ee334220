package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/attendance-register/internal/models"
)

// AttendanceRepository persists one attendance row per student per day.
type AttendanceRepository struct {
	sqlStore
}

// NewAttendanceRepository constructs the repository. observer may be nil.
func NewAttendanceRepository(db *sqlx.DB, observer QueryObserver) *AttendanceRepository {
	return &AttendanceRepository{sqlStore{db: db, observer: observer}}
}

// Upsert writes the record keyed on (student_id, date). An existing row keeps
// its ID and has status, remarks and created_at overwritten.
func (r *AttendanceRepository) Upsert(ctx context.Context, record *models.AttendanceRecord) (*models.AttendanceRecord, error) {
	defer r.observe("attendance.upsert", time.Now())
	record.CreatedAt = time.Now().UTC()
	query := r.db.Rebind(`INSERT INTO attendance (student_id, date, status, remarks, created_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (student_id, date)
DO UPDATE SET status = excluded.status, remarks = excluded.remarks, created_at = excluded.created_at
RETURNING id`)
	stored := *record
	if err := r.db.GetContext(ctx, &stored.ID, query, record.StudentID, record.Date, record.Status, record.Remarks, record.CreatedAt); err != nil {
		return nil, fmt.Errorf("upsert attendance for student %d on %s: %w", record.StudentID, record.Date, err)
	}
	return &stored, nil
}

// ListByDate returns the day's records joined with student name and roll
// number, ordered by roll number.
func (r *AttendanceRepository) ListByDate(ctx context.Context, date string) ([]models.AttendanceRecordWithStudent, error) {
	defer r.observe("attendance.list_by_date", time.Now())
	query := r.db.Rebind(`SELECT a.id, a.student_id, a.date, a.status, COALESCE(a.remarks, '') AS remarks, a.created_at,
        s.name, s.roll_number
        FROM attendance a
        JOIN students s ON s.id = a.student_id
        WHERE a.date = ?
        ORDER BY s.roll_number ASC`)
	rows := make([]models.AttendanceRecordWithStudent, 0)
	if err := r.db.SelectContext(ctx, &rows, query, date); err != nil {
		return nil, fmt.Errorf("list attendance for %s: %w", date, err)
	}
	return rows, nil
}

// ListByStudent returns a student's history, most recent date first.
func (r *AttendanceRepository) ListByStudent(ctx context.Context, studentID int64) ([]models.AttendanceRecord, error) {
	defer r.observe("attendance.list_by_student", time.Now())
	query := r.db.Rebind(`SELECT id, student_id, date, status, COALESCE(remarks, '') AS remarks, created_at
        FROM attendance
        WHERE student_id = ?
        ORDER BY date DESC, id DESC`)
	rows := make([]models.AttendanceRecord, 0)
	if err := r.db.SelectContext(ctx, &rows, query, studentID); err != nil {
		return nil, fmt.Errorf("list attendance for student %d: %w", studentID, err)
	}
	return rows, nil
}

type summaryRow struct {
	TotalStudents int `db:"total_students"`
	Present       int `db:"present"`
	Absent        int `db:"absent"`
}

// Summary counts the roster and the Present/Absent rows recorded for date in
// a single statement. Status matching is exact.
func (r *AttendanceRepository) Summary(ctx context.Context, date string) (*models.AttendanceSummary, error) {
	defer r.observe("attendance.summary", time.Now())
	query := r.db.Rebind(`SELECT
        (SELECT COUNT(*) FROM students) AS total_students,
        COUNT(CASE WHEN status = ? THEN 1 END) AS present,
        COUNT(CASE WHEN status = ? THEN 1 END) AS absent
        FROM attendance
        WHERE date = ?`)
	var row summaryRow
	if err := r.db.GetContext(ctx, &row, query, models.AttendanceStatusPresent, models.AttendanceStatusAbsent, date); err != nil {
		return nil, fmt.Errorf("attendance summary for %s: %w", date, err)
	}
	return &models.AttendanceSummary{
		Date:          date,
		TotalStudents: row.TotalStudents,
		PresentToday:  row.Present,
		AbsentToday:   row.Absent,
		NotMarked:     row.TotalStudents - row.Present - row.Absent,
	}, nil
}
