package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/attendance-register/internal/models"
)

const studentColumns = "id, roll_number, name, email, created_at"

// StudentRepository manages persistence for the student roster.
type StudentRepository struct {
	sqlStore
}

// NewStudentRepository constructs a StudentRepository. observer may be nil.
func NewStudentRepository(db *sqlx.DB, observer QueryObserver) *StudentRepository {
	return &StudentRepository{sqlStore{db: db, observer: observer}}
}

// Create inserts a new student and fills in its generated ID. A roll number
// that is already taken yields ErrDuplicate and leaves the table unchanged.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	defer r.observe("students.create", time.Now())
	if student.CreatedAt.IsZero() {
		student.CreatedAt = time.Now().UTC()
	}
	query := r.db.Rebind(`INSERT INTO students (roll_number, name, email, created_at) VALUES (?, ?, ?, ?) RETURNING id`)
	if err := r.db.GetContext(ctx, &student.ID, query, student.RollNumber, student.Name, student.Email, student.CreatedAt); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("create student %q: %w", student.RollNumber, ErrDuplicate)
		}
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

// List returns every student ordered by roll number.
func (r *StudentRepository) List(ctx context.Context) ([]models.Student, error) {
	defer r.observe("students.list", time.Now())
	students := make([]models.Student, 0)
	query := fmt.Sprintf("SELECT %s FROM students ORDER BY roll_number ASC", studentColumns)
	if err := r.db.SelectContext(ctx, &students, query); err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	return students, nil
}

// FindByID fetches a student. A missing student returns nil without error.
func (r *StudentRepository) FindByID(ctx context.Context, id int64) (*models.Student, error) {
	defer r.observe("students.find", time.Now())
	query := r.db.Rebind(fmt.Sprintf("SELECT %s FROM students WHERE id = ?", studentColumns))
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find student %d: %w", id, err)
	}
	return &student, nil
}

// Count returns the number of students on the roster.
func (r *StudentRepository) Count(ctx context.Context) (int, error) {
	defer r.observe("students.count", time.Now())
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM students"); err != nil {
		return 0, fmt.Errorf("count students: %w", err)
	}
	return total, nil
}

// Delete removes a student and its attendance history in one transaction.
// Deleting an unknown ID is not an error; the bool reports whether a student
// row was removed.
func (r *StudentRepository) Delete(ctx context.Context, id int64) (bool, error) {
	defer r.observe("students.delete", time.Now())
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin delete student: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if _, err := tx.ExecContext(ctx, tx.Rebind("DELETE FROM attendance WHERE student_id = ?"), id); err != nil {
		return false, fmt.Errorf("delete attendance for student %d: %w", id, err)
	}
	res, err := tx.ExecContext(ctx, tx.Rebind("DELETE FROM students WHERE id = ?"), id)
	if err != nil {
		return false, fmt.Errorf("delete student %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete student %d: %w", id, err)
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit delete student %d: %w", id, err)
	}
	committed = true
	return affected > 0, nil
}
