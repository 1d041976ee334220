package models

import (
	"strings"
	"time"
)

// DateLayout is the calendar-date text format stored in attendance.date.
const DateLayout = "2006-01-02"

// AttendanceStatus is the recorded status for a student on a day.
type AttendanceStatus string

const (
	AttendanceStatusPresent AttendanceStatus = "Present"
	AttendanceStatusAbsent  AttendanceStatus = "Absent"
)

// AttendanceStatuses lists the statuses accepted when marking attendance.
var AttendanceStatuses = []AttendanceStatus{AttendanceStatusPresent, AttendanceStatusAbsent}

// Valid returns true when the status is a supported value.
func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendanceStatusPresent, AttendanceStatusAbsent:
		return true
	default:
		return false
	}
}

// AttendanceRecord is one student's status for one calendar day. The pair
// (StudentID, Date) is unique.
type AttendanceRecord struct {
	ID        int64            `db:"id" json:"id"`
	StudentID int64            `db:"student_id" json:"student_id"`
	Date      string           `db:"date" json:"date"`
	Status    AttendanceStatus `db:"status" json:"status"`
	Remarks   string           `db:"remarks" json:"remarks"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
}

// AttendanceRecordWithStudent joins a record with the student's name and roll number.
type AttendanceRecordWithStudent struct {
	AttendanceRecord
	Name       string `db:"name" json:"name"`
	RollNumber string `db:"roll_number" json:"roll_number"`
}

// AttendanceSummary holds roster-wide counts for a single day.
// NotMarked is TotalStudents - PresentToday - AbsentToday.
type AttendanceSummary struct {
	Date          string `json:"date"`
	TotalStudents int    `json:"total_students"`
	PresentToday  int    `json:"present_today"`
	AbsentToday   int    `json:"absent_today"`
	NotMarked     int    `json:"not_marked"`
}

// ParseAttendanceStatus maps a case-insensitive status name onto its canonical value.
func ParseAttendanceStatus(raw string) (AttendanceStatus, bool) {
	for _, status := range AttendanceStatuses {
		if strings.EqualFold(strings.TrimSpace(raw), string(status)) {
			return status, true
		}
	}
	return AttendanceStatus(raw), false
}

// StudentAttendanceRate aggregates one student's marks over a date range.
// Rate is the Present share of recorded days as a percentage.
type StudentAttendanceRate struct {
	StudentID  int64   `db:"student_id" json:"student_id"`
	Name       string  `db:"name" json:"name"`
	RollNumber string  `db:"roll_number" json:"roll_number"`
	Present    int     `db:"present" json:"present"`
	Absent     int     `db:"absent" json:"absent"`
	Total      int     `db:"total" json:"total"`
	Rate       float64 `db:"-" json:"rate"`
}

// AttendanceRates holds range totals and a row for every student, including
// students with no records in the range.
type AttendanceRates struct {
	From     string                  `json:"from"`
	To       string                  `json:"to"`
	Days     int                     `json:"days"`
	Present  int                     `json:"present"`
	Absent   int                     `json:"absent"`
	Students []StudentAttendanceRate `json:"students"`
}
