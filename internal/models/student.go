package models

import "time"

// Student represents a learner on the attendance roster.
type Student struct {
	ID         int64     `db:"id" json:"id"`
	RollNumber string    `db:"roll_number" json:"roll_number"`
	Name       string    `db:"name" json:"name"`
	Email      string    `db:"email" json:"email"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
