package models

import "time"

// SubjectAssignment links a student to a tutored subject over a date range.
// Fee is derived by the pricing engine at save time; it is only authoritative
// input while a custom total override is active.
type SubjectAssignment struct {
	ID        string     `db:"id" json:"id"`
	StudentID string     `db:"student_id" json:"student_id"`
	Name      string     `db:"name" json:"name"`
	StartDate *time.Time `db:"start_date" json:"start_date,omitempty"`
	EndDate   *time.Time `db:"end_date" json:"end_date,omitempty"`
	Fee       float64    `db:"fee" json:"fee"`
	Position  int        `db:"position" json:"position"`
}

// HasDates reports whether both endpoints of the tuition window are set.
func (s SubjectAssignment) HasDates() bool {
	return s.StartDate != nil && s.EndDate != nil
}
