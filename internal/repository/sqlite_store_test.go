package repository

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/attendance-register/internal/models"
)

func newSQLiteStore(t *testing.T) (*StudentRepository, *AttendanceRepository, *sqlx.DB) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "attendance.db")
	db, err := sqlx.Open("sqlite3", fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000", path))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, Migrate(context.Background(), db))
	return NewStudentRepository(db, nil), NewAttendanceRepository(db, nil), db
}

func addStudent(t *testing.T, repo *StudentRepository, roll, name string) *models.Student {
	t.Helper()
	student := &models.Student{RollNumber: roll, Name: name, Email: name + "@x.com"}
	require.NoError(t, repo.Create(context.Background(), student))
	return student
}

func TestSQLiteStudentUniqueRollNumber(t *testing.T) {
	students, _, _ := newSQLiteStore(t)
	ctx := context.Background()

	first := addStudent(t, students, "R1", "Ana")
	found, err := students.FindByID(ctx, first.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "Ana", found.Name)

	err = students.Create(ctx, &models.Student{RollNumber: "R1", Name: "Other", Email: "o@x.com"})
	assert.ErrorIs(t, err, ErrDuplicate)

	all, err := students.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestSQLiteStudentsOrderedByRollNumber(t *testing.T) {
	students, _, _ := newSQLiteStore(t)
	for _, roll := range []string{"R3", "A9", "R10", "R1", "B2"} {
		addStudent(t, students, roll, "n"+roll)
	}

	all, err := students.List(context.Background())
	require.NoError(t, err)
	rolls := make([]string, 0, len(all))
	for _, s := range all {
		rolls = append(rolls, s.RollNumber)
	}
	assert.True(t, sort.StringsAreSorted(rolls), "got %v", rolls)
	assert.Equal(t, []string{"A9", "B2", "R1", "R10", "R3"}, rolls)
}

func TestSQLiteMarkAttendanceUpserts(t *testing.T) {
	students, attendance, _ := newSQLiteStore(t)
	ctx := context.Background()
	ana := addStudent(t, students, "R1", "Ana")

	first, err := attendance.Upsert(ctx, &models.AttendanceRecord{StudentID: ana.ID, Date: "2024-01-10", Status: models.AttendanceStatusPresent, Remarks: "first"})
	require.NoError(t, err)
	second, err := attendance.Upsert(ctx, &models.AttendanceRecord{StudentID: ana.ID, Date: "2024-01-10", Status: models.AttendanceStatusPresent, Remarks: "second"})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	history, err := attendance.ListByStudent(ctx, ana.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "second", history[0].Remarks)
}

func TestSQLiteMarkAttendanceUnknownStudentFails(t *testing.T) {
	_, attendance, _ := newSQLiteStore(t)
	_, err := attendance.Upsert(context.Background(), &models.AttendanceRecord{StudentID: 999, Date: "2024-01-10", Status: models.AttendanceStatusPresent})
	assert.Error(t, err)
}

func TestSQLiteScenario(t *testing.T) {
	students, attendance, _ := newSQLiteStore(t)
	ctx := context.Background()

	ana := addStudent(t, students, "R1", "Ana")
	all, err := students.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "R1", all[0].RollNumber)

	_, err = attendance.Upsert(ctx, &models.AttendanceRecord{StudentID: ana.ID, Date: "2024-01-10", Status: models.AttendanceStatusPresent})
	require.NoError(t, err)
	rows, err := attendance.ListByDate(ctx, "2024-01-10")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Ana", rows[0].Name)
	assert.Equal(t, "R1", rows[0].RollNumber)

	_, err = attendance.Upsert(ctx, &models.AttendanceRecord{StudentID: ana.ID, Date: "2024-01-10", Status: models.AttendanceStatusAbsent, Remarks: "late note"})
	require.NoError(t, err)
	rows, err = attendance.ListByDate(ctx, "2024-01-10")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, models.AttendanceStatusAbsent, rows[0].Status)
	assert.Equal(t, "late note", rows[0].Remarks)

	none, err := attendance.ListByDate(ctx, "2024-01-11")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSQLiteHistoryMostRecentFirst(t *testing.T) {
	students, attendance, _ := newSQLiteStore(t)
	ctx := context.Background()
	ana := addStudent(t, students, "R1", "Ana")

	for _, date := range []string{"2024-01-10", "2024-03-01", "2023-12-31", "2024-02-15"} {
		_, err := attendance.Upsert(ctx, &models.AttendanceRecord{StudentID: ana.ID, Date: date, Status: models.AttendanceStatusPresent})
		require.NoError(t, err)
	}

	history, err := attendance.ListByStudent(ctx, ana.ID)
	require.NoError(t, err)
	require.Len(t, history, 4)
	for i := 1; i < len(history); i++ {
		assert.GreaterOrEqual(t, history[i-1].Date, history[i].Date)
	}
	assert.Equal(t, "2024-03-01", history[0].Date)
}

func TestSQLiteSummary(t *testing.T) {
	students, attendance, _ := newSQLiteStore(t)
	ctx := context.Background()
	ana := addStudent(t, students, "R1", "Ana")
	ben := addStudent(t, students, "R2", "Ben")
	addStudent(t, students, "R3", "Cy")
	odd := addStudent(t, students, "R4", "Dee")

	mark := func(id int64, date string, status models.AttendanceStatus) {
		_, err := attendance.Upsert(ctx, &models.AttendanceRecord{StudentID: id, Date: date, Status: status})
		require.NoError(t, err)
	}
	mark(ana.ID, "2024-01-10", models.AttendanceStatusPresent)
	mark(ben.ID, "2024-01-10", models.AttendanceStatusAbsent)
	mark(odd.ID, "2024-01-10", "present")
	mark(ben.ID, "2024-01-09", models.AttendanceStatusPresent)

	summary, err := attendance.Summary(ctx, "2024-01-10")
	require.NoError(t, err)

	all, err := students.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(all), summary.TotalStudents)
	assert.Equal(t, 1, summary.PresentToday)
	assert.Equal(t, 1, summary.AbsentToday)
	assert.Equal(t, summary.TotalStudents-summary.PresentToday-summary.AbsentToday, summary.NotMarked)
}

func TestSQLiteDeleteCascades(t *testing.T) {
	students, attendance, db := newSQLiteStore(t)
	ctx := context.Background()
	ana := addStudent(t, students, "R1", "Ana")
	ben := addStudent(t, students, "R2", "Ben")
	for _, id := range []int64{ana.ID, ben.ID} {
		_, err := attendance.Upsert(ctx, &models.AttendanceRecord{StudentID: id, Date: "2024-01-10", Status: models.AttendanceStatusPresent})
		require.NoError(t, err)
	}

	deleted, err := students.Delete(ctx, ana.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	found, err := students.FindByID(ctx, ana.ID)
	require.NoError(t, err)
	assert.Nil(t, found)

	history, err := attendance.ListByStudent(ctx, ana.ID)
	require.NoError(t, err)
	assert.Empty(t, history)

	var orphans int
	require.NoError(t, db.Get(&orphans, "SELECT COUNT(*) FROM attendance WHERE student_id = ?", ana.ID))
	assert.Zero(t, orphans)

	remaining, err := attendance.ListByDate(ctx, "2024-01-10")
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, "Ben", remaining[0].Name)

	deleted, err = students.Delete(ctx, ana.ID)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestSQLiteCount(t *testing.T) {
	students, _, _ := newSQLiteStore(t)
	addStudent(t, students, "R1", "Ana")
	addStudent(t, students, "R2", "Ben")
	total, err := students.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, total)
}
