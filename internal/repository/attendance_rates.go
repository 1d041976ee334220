package repository

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/noah-isme/attendance-register/internal/models"
)

type rateTotalsRow struct {
	Days    int `db:"days"`
	Present int `db:"present"`
	Absent  int `db:"absent"`
}

// Rates aggregates marks recorded between from and to inclusive. Dates are
// compared as YYYY-MM-DD text.
func (r *AttendanceRepository) Rates(ctx context.Context, from, to string) (*models.AttendanceRates, error) {
	defer r.observe("attendance.rates", time.Now())

	totalsSQL := r.db.Rebind(`SELECT
        COUNT(DISTINCT date) AS days,
        COUNT(CASE WHEN status = ? THEN 1 END) AS present,
        COUNT(CASE WHEN status = ? THEN 1 END) AS absent
        FROM attendance
        WHERE date >= ? AND date <= ?`)
	var totals rateTotalsRow
	if err := r.db.GetContext(ctx, &totals, totalsSQL, models.AttendanceStatusPresent, models.AttendanceStatusAbsent, from, to); err != nil {
		return nil, fmt.Errorf("attendance totals %s..%s: %w", from, to, err)
	}

	studentsSQL := r.db.Rebind(`SELECT
        s.id AS student_id,
        s.name,
        s.roll_number,
        COUNT(CASE WHEN a.status = ? THEN 1 END) AS present,
        COUNT(CASE WHEN a.status = ? THEN 1 END) AS absent,
        COUNT(a.id) AS total
        FROM students s
        LEFT JOIN attendance a ON a.student_id = s.id AND a.date >= ? AND a.date <= ?
        GROUP BY s.id, s.name, s.roll_number
        ORDER BY s.roll_number ASC`)
	students := make([]models.StudentAttendanceRate, 0)
	if err := r.db.SelectContext(ctx, &students, studentsSQL, models.AttendanceStatusPresent, models.AttendanceStatusAbsent, from, to); err != nil {
		return nil, fmt.Errorf("per-student attendance %s..%s: %w", from, to, err)
	}
	for i := range students {
		students[i].Rate = presentRate(students[i].Present, students[i].Total)
	}

	return &models.AttendanceRates{
		From:     from,
		To:       to,
		Days:     totals.Days,
		Present:  totals.Present,
		Absent:   totals.Absent,
		Students: students,
	}, nil
}

// presentRate is present/total as a percentage rounded to one decimal.
func presentRate(present, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(present)/float64(total)*1000) / 10
}
