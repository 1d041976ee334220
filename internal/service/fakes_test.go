package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"sort"
	"time"

	"github.com/noah-isme/attendance-register/internal/models"
	"github.com/noah-isme/attendance-register/internal/repository"
	appErrors "github.com/noah-isme/attendance-register/pkg/errors"
)

type fakeStudentRepo struct {
	students map[int64]models.Student
	nextID   int64
	err      error
	deleted  []int64
}

func newFakeStudentRepo(seed ...models.Student) *fakeStudentRepo {
	repo := &fakeStudentRepo{students: make(map[int64]models.Student)}
	for _, s := range seed {
		repo.students[s.ID] = s
		if s.ID > repo.nextID {
			repo.nextID = s.ID
		}
	}
	return repo
}

func (f *fakeStudentRepo) Create(_ context.Context, student *models.Student) error {
	if f.err != nil {
		return f.err
	}
	for _, s := range f.students {
		if s.RollNumber == student.RollNumber {
			return fmt.Errorf("create student: %w", repository.ErrDuplicate)
		}
	}
	f.nextID++
	student.ID = f.nextID
	student.CreatedAt = time.Now()
	f.students[student.ID] = *student
	return nil
}

func (f *fakeStudentRepo) List(context.Context) ([]models.Student, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]models.Student, 0, len(f.students))
	for _, s := range f.students {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RollNumber < out[j].RollNumber })
	return out, nil
}

func (f *fakeStudentRepo) FindByID(_ context.Context, id int64) (*models.Student, error) {
	if f.err != nil {
		return nil, f.err
	}
	if s, ok := f.students[id]; ok {
		return &s, nil
	}
	return nil, nil
}

func (f *fakeStudentRepo) Delete(_ context.Context, id int64) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	_, ok := f.students[id]
	delete(f.students, id)
	f.deleted = append(f.deleted, id)
	return ok, nil
}

type fakeAttendanceRepo struct {
	records     map[string]models.AttendanceRecord
	students    *fakeStudentRepo
	nextID      int64
	upsertErr   error
	listCalls   int
	summaryDate string
}

func newFakeAttendanceRepo(students *fakeStudentRepo) *fakeAttendanceRepo {
	return &fakeAttendanceRepo{records: make(map[string]models.AttendanceRecord), students: students}
}

func attendanceKey(studentID int64, date string) string {
	return fmt.Sprintf("%d|%s", studentID, date)
}

func (f *fakeAttendanceRepo) Upsert(_ context.Context, record *models.AttendanceRecord) (*models.AttendanceRecord, error) {
	if f.upsertErr != nil {
		return nil, f.upsertErr
	}
	if _, ok := f.students.students[record.StudentID]; !ok {
		return nil, errors.New("FOREIGN KEY constraint failed")
	}
	key := attendanceKey(record.StudentID, record.Date)
	stored := *record
	if existing, ok := f.records[key]; ok {
		stored.ID = existing.ID
	} else {
		f.nextID++
		stored.ID = f.nextID
	}
	stored.CreatedAt = time.Now()
	f.records[key] = stored
	return &stored, nil
}

func (f *fakeAttendanceRepo) ListByDate(_ context.Context, date string) ([]models.AttendanceRecordWithStudent, error) {
	f.listCalls++
	out := make([]models.AttendanceRecordWithStudent, 0)
	for _, rec := range f.records {
		if rec.Date != date {
			continue
		}
		s := f.students.students[rec.StudentID]
		out = append(out, models.AttendanceRecordWithStudent{AttendanceRecord: rec, Name: s.Name, RollNumber: s.RollNumber})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RollNumber < out[j].RollNumber })
	return out, nil
}

func (f *fakeAttendanceRepo) ListByStudent(_ context.Context, studentID int64) ([]models.AttendanceRecord, error) {
	out := make([]models.AttendanceRecord, 0)
	for _, rec := range f.records {
		if rec.StudentID == studentID {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	return out, nil
}

func (f *fakeAttendanceRepo) Summary(_ context.Context, date string) (*models.AttendanceSummary, error) {
	f.summaryDate = date
	summary := &models.AttendanceSummary{Date: date, TotalStudents: len(f.students.students)}
	for _, rec := range f.records {
		if rec.Date != date {
			continue
		}
		switch rec.Status {
		case models.AttendanceStatusPresent:
			summary.PresentToday++
		case models.AttendanceStatusAbsent:
			summary.AbsentToday++
		}
	}
	summary.NotMarked = summary.TotalStudents - summary.PresentToday - summary.AbsentToday
	return summary, nil
}

func (f *fakeAttendanceRepo) Rates(_ context.Context, from, to string) (*models.AttendanceRates, error) {
	rates := &models.AttendanceRates{From: from, To: to, Students: make([]models.StudentAttendanceRate, 0)}
	days := make(map[string]struct{})
	students, _ := f.students.List(context.Background())
	for _, s := range students {
		row := models.StudentAttendanceRate{StudentID: s.ID, Name: s.Name, RollNumber: s.RollNumber}
		for _, rec := range f.records {
			if rec.StudentID != s.ID || rec.Date < from || rec.Date > to {
				continue
			}
			days[rec.Date] = struct{}{}
			row.Total++
			switch rec.Status {
			case models.AttendanceStatusPresent:
				row.Present++
				rates.Present++
			case models.AttendanceStatusAbsent:
				row.Absent++
				rates.Absent++
			}
		}
		rates.Students = append(rates.Students, row)
	}
	rates.Days = len(days)
	return rates, nil
}

type memoryCache struct {
	entries map[string][]byte
	getErr  error
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string][]byte)}
}

func (m *memoryCache) Get(_ context.Context, key string, dest interface{}) error {
	if m.getErr != nil {
		return m.getErr
	}
	raw, ok := m.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.entries[key] = raw
	return nil
}

func (m *memoryCache) DeleteByPattern(_ context.Context, pattern string) error {
	for key := range m.entries {
		if ok, _ := path.Match(pattern, key); ok {
			delete(m.entries, key)
		}
	}
	return nil
}
